package pipeline

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/csg4786/transcript-insights/internal/store"
	"github.com/csg4786/transcript-insights/internal/types"
)

// passStatuses maps pass number (1-based) to the status entered before that
// pass runs.
var passStatuses = [4]types.TranscriptStatus{
	types.StatusAnalyzingPass1,
	types.StatusAnalyzingPass2,
	types.StatusAnalyzingPass3,
	types.StatusAnalyzingPass4,
}

// tracker drives one run's walk through the transcript state machine and
// appends an activity record per transition.
type tracker struct {
	store        *store.Store
	transcriptID string
	current      types.TranscriptStatus
	log          *logrus.Entry
}

func newTracker(s *store.Store, transcriptID string, log *logrus.Entry) *tracker {
	return &tracker{store: s, transcriptID: transcriptID, current: types.StatusUploaded, log: log}
}

// advance moves the transcript forward to the given status. Backward
// transitions are refused; failed is reachable from any non-terminal state.
func (t *tracker) advance(ctx context.Context, status types.TranscriptStatus, message string) error {
	if !t.current.CanTransition(status) {
		t.log.WithFields(logrus.Fields{
			"from": t.current, "to": status,
		}).Warn("refusing non-forward status transition")
		return nil
	}
	if err := t.store.UpdateTranscriptStatus(ctx, t.transcriptID, status); err != nil {
		return err
	}
	if err := t.store.AppendActivity(ctx, t.transcriptID, status, message); err != nil {
		// activity is an audit trail, not a gate
		t.log.WithError(err).Warn("failed to append activity record")
	}
	t.current = status
	t.log.WithField("status", status).Info("transcript status updated")
	return nil
}
