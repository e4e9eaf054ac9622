// Package dedup flags near-duplicate insights within one extraction batch
// using term-frequency cosine similarity over title+description text.
package dedup

import (
	"math"
	"strings"

	"github.com/csg4786/transcript-insights/internal/types"
)

// Threshold above which two insights count as near-duplicates.
const Threshold = 0.92

// Annotate walks every ordered pair (i, j), i < j, and marks j as a
// duplicate of i when their cosine similarity crosses the threshold.
// Flagging is greedy and first-match-wins: an earlier insight is never
// mutated by later matches, and chains are not resolved transitively.
// No insight is ever removed; both sides stay in the batch.
func Annotate(batch []types.Insight) {
	vectors := make([]map[string]int, len(batch))
	for i, ins := range batch {
		vectors[i] = termFreq(ins.Title + " " + ins.Description)
	}

	for j := 1; j < len(batch); j++ {
		for i := 0; i < j; i++ {
			// only unflagged insights can act as canonicals, so
			// duplicate_of never points at another duplicate
			if batch[i].IsDuplicate {
				continue
			}
			sim := Cosine(vectors[i], vectors[j])
			if sim > Threshold {
				batch[j].IsDuplicate = true
				batch[j].DuplicateOf = batch[i].ID
				batch[j].DuplicateSimilarity = sim
				break
			}
		}
	}
}

// termFreq lowercases and whitespace-tokenizes the text into integer counts.
func termFreq(text string) map[string]int {
	freq := map[string]int{}
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		freq[tok]++
	}
	return freq
}

// Cosine computes cosine similarity of two term-frequency vectors over the
// union vocabulary. Empty vectors score 0.
func Cosine(a, b map[string]int) float64 {
	var dot, normA, normB float64
	for _, n := range a {
		normA += float64(n * n)
	}
	for _, n := range b {
		normB += float64(n * n)
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	for tok, n := range a {
		if m, ok := b[tok]; ok {
			dot += float64(n * m)
		}
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
