// Package pipeline runs the full insight-extraction flow for one
// transcript: classify context, run the four extraction passes, flag
// near-duplicates, persist idempotently and drive the transcript's status
// state machine.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/csg4786/transcript-insights/internal/classifier"
	"github.com/csg4786/transcript-insights/internal/dedup"
	"github.com/csg4786/transcript-insights/internal/extractor"
	"github.com/csg4786/transcript-insights/internal/logger"
	"github.com/csg4786/transcript-insights/internal/notify"
	"github.com/csg4786/transcript-insights/internal/store"
	"github.com/csg4786/transcript-insights/internal/types"
)

var (
	// ErrAllPassesFailed: no pass produced a single valid insight.
	ErrAllPassesFailed = errors.New("all extraction passes failed")
	// ErrPersistenceFailed: every candidate errored and the transcript has
	// no previously stored insights.
	ErrPersistenceFailed = errors.New("persistence produced no insights")
)

type Pipeline struct {
	store      *store.Store
	classifier *classifier.Classifier
	extractor  *extractor.Extractor
	notifier   notify.Notifier
	userID     string
	log        *logrus.Entry
}

func New(s *store.Store, c *classifier.Classifier, e *extractor.Extractor, n notify.Notifier, userID string) *Pipeline {
	if n == nil {
		n = notify.Noop{}
	}
	return &Pipeline{
		store:      s,
		classifier: c,
		extractor:  e,
		notifier:   n,
		userID:     userID,
		log:        logger.New().Component("pipeline"),
	}
}

// RunResult summarizes one pipeline run.
type RunResult struct {
	TranscriptID      string               `json:"transcript_id"`
	Theme             string               `json:"theme"`
	ThemeConfidence   float64              `json:"theme_confidence"`
	PassStats         []extractor.PassStats `json:"pass_stats"`
	FailedPasses      int                  `json:"failed_passes"`
	Dropped           int                  `json:"dropped"`
	FlaggedDuplicates int                  `json:"flagged_duplicates"`
	Saved             int                  `json:"saved"`
	Skipped           int                  `json:"skipped"`
	Failed            int                  `json:"failed"`
}

// Run executes the pipeline for one transcript. The transcript row must
// already exist; a re-run restarts the state machine from uploaded. Run
// always leaves the transcript in a terminal state and sends the
// best-effort completion notification.
func (p *Pipeline) Run(ctx context.Context, transcriptID, text string) (RunResult, error) {
	log := p.log.WithField("transcript_id", transcriptID)
	res := RunResult{TranscriptID: transcriptID}
	t := newTracker(p.store, transcriptID, log)

	if err := t.advance(ctx, types.StatusUploaded, "analysis started"); err != nil {
		return res, fmt.Errorf("start run: %w", err)
	}

	// 1) classify conversation context; failure is never fatal
	cls := p.classifier.Classify(ctx, text)
	res.Theme = cls.Theme
	res.ThemeConfidence = cls.Confidence
	if err := p.store.UpdateTranscriptContext(ctx, transcriptID, cls.Theme, cls.Confidence); err != nil {
		log.WithError(err).Warn("failed to persist context classification")
	}

	priorities := extractor.ResolvePriorities(cls.Theme, cls.PriorityInsights)
	log.WithFields(logrus.Fields{
		"theme":        cls.Theme,
		"match_kind":   priorities.Kind,
		"priority_set": priorities.Priority,
	}).Info("resolved pass priorities")

	// 2) four sequential extraction passes; a failed pass contributes zero
	// insights. Batch order (pass order, then model order) is load-bearing
	// for dedup and must not change.
	var batch []types.Insight
	for i, pass := range extractor.Passes {
		if err := t.advance(ctx, passStatuses[i], fmt.Sprintf("pass %d (%s)", pass.Number, pass.Name)); err != nil {
			return res, p.fail(ctx, t, res, err)
		}
		insights, stats, err := p.extractor.RunPass(ctx, pass, cls.Theme, cls.Confidence, priorities, text)
		res.PassStats = append(res.PassStats, stats)
		res.Dropped += stats.Dropped
		if err != nil {
			res.FailedPasses++
			log.WithError(err).WithField("pass", pass.Number).Warn("pass contributed no insights")
			continue
		}
		batch = append(batch, insights...)
	}

	if len(batch) == 0 {
		return res, p.fail(ctx, t, res, ErrAllPassesFailed)
	}

	// 3) annotate near-duplicates within the batch
	if err := t.advance(ctx, types.StatusCompilingInsights, fmt.Sprintf("%d candidate insights", len(batch))); err != nil {
		return res, p.fail(ctx, t, res, err)
	}
	for i := range batch {
		batch[i].ID = uuid.New().String()
		batch[i].TranscriptID = transcriptID
	}
	dedup.Annotate(batch)
	for _, ins := range batch {
		if ins.IsDuplicate {
			res.FlaggedDuplicates++
		}
	}

	// 4) idempotent persistence
	persisted, err := p.store.PersistBatch(ctx, transcriptID, batch)
	res.Saved, res.Skipped, res.Failed = persisted.Saved, persisted.Skipped, persisted.Failed
	if err != nil {
		return res, p.fail(ctx, t, res, fmt.Errorf("persist batch: %w", err))
	}
	if persisted.Saved == 0 && persisted.Skipped == 0 {
		// every candidate errored; fatal only when the transcript has
		// nothing stored from earlier runs
		existing, hashErr := p.store.ExistingHashes(ctx, transcriptID)
		if hashErr != nil || len(existing) == 0 {
			return res, p.fail(ctx, t, res, ErrPersistenceFailed)
		}
	}

	if err := t.advance(ctx, types.StatusCompleted, p.summary(res)); err != nil {
		return res, fmt.Errorf("complete run: %w", err)
	}
	p.notify(ctx, fmt.Sprintf("Transcript %s analyzed: %s", transcriptID, p.summary(res)))
	log.WithFields(logrus.Fields{
		"saved": res.Saved, "skipped": res.Skipped, "failed": res.Failed,
	}).Info("run completed")
	return res, nil
}

// fail drives the transcript to the failed state and notifies.
func (p *Pipeline) fail(ctx context.Context, t *tracker, res RunResult, cause error) error {
	p.log.WithField("transcript_id", t.transcriptID).WithField("error", cause.Error()).Error("run failed")
	if err := t.advance(ctx, types.StatusFailed, cause.Error()); err != nil {
		p.log.WithError(err).Error("failed to mark transcript failed")
	}
	p.notify(ctx, fmt.Sprintf("Transcript %s analysis failed: %v", t.transcriptID, cause))
	return cause
}

func (p *Pipeline) summary(res RunResult) string {
	return fmt.Sprintf("%d insights saved, %d duplicates skipped, %d failures",
		res.Saved, res.Skipped, res.Failed)
}

// notify is best effort; failures are swallowed and logged.
func (p *Pipeline) notify(ctx context.Context, message string) {
	if err := p.notifier.Send(ctx, p.userID, message); err != nil {
		p.log.WithError(err).Warn("notification failed")
	}
}
