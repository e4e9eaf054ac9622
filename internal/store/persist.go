package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/csg4786/transcript-insights/internal/types"
)

// PersistResult counts the outcome of one batch write.
type PersistResult struct {
	Saved   int `json:"saved"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// PersistBatch writes a validated, similarity-annotated batch for one
// transcript. For each candidate in batch order it computes the content
// hash and skips candidates whose hash is already stored (from an earlier
// run or earlier in this batch) — first writer wins. One candidate's
// failure is logged and counted without aborting the rest.
func (s *Store) PersistBatch(ctx context.Context, transcriptID string, batch []types.Insight) (PersistResult, error) {
	var res PersistResult

	seen, err := s.ExistingHashes(ctx, transcriptID)
	if err != nil {
		return res, err
	}

	log := s.log.WithField("transcript_id", transcriptID)
	for i := range batch {
		ins := batch[i]
		ins.TranscriptID = transcriptID
		ins.ContentHash = ContentHash(ins.Description, ins.PrimaryEvidence())
		if ins.ID == "" {
			ins.ID = uuid.New().String()
		}
		if ins.Status == "" {
			ins.Status = types.InsightStatusNew
		}

		if _, dup := seen[ins.ContentHash]; dup {
			res.Skipped++
			continue
		}

		if err := s.CreateInsight(ctx, ins); err != nil {
			if errors.Is(err, ErrDuplicateHash) {
				// concurrent run won the insert
				res.Skipped++
				seen[ins.ContentHash] = struct{}{}
				continue
			}
			res.Failed++
			log.WithError(err).WithField("insight_title", ins.Title).Warn("insight persistence failed")
			continue
		}
		seen[ins.ContentHash] = struct{}{}
		res.Saved++
	}

	return res, nil
}
