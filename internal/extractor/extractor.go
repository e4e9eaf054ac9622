// Package extractor runs the four-pass insight extraction protocol: each
// pass is one model call scoped to a fixed category subset, prioritized by
// the classified conversation context.
package extractor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/csg4786/transcript-insights/internal/llm"
	"github.com/csg4786/transcript-insights/internal/logger"
	"github.com/csg4786/transcript-insights/internal/types"
)

type Extractor struct {
	model           llm.Completer
	temperature     float64
	maxOutputTokens int
	log             *logrus.Entry
}

// PassStats counts what happened inside one pass.
type PassStats struct {
	Pass      int `json:"pass"`
	Extracted int `json:"extracted"`
	Dropped   int `json:"dropped"`
}

func New(model llm.Completer, temperature float64, maxOutputTokens int) *Extractor {
	if temperature <= 0 {
		temperature = 0.35
	}
	return &Extractor{
		model:           model,
		temperature:     temperature,
		maxOutputTokens: maxOutputTokens,
		log:             logger.New().Component("extractor"),
	}
}

// RunPass issues one extraction call and returns the validated insights in
// model order. A failed call or unparsable response returns an error and
// zero insights; the caller decides whether that is fatal.
func (e *Extractor) RunPass(ctx context.Context, pass Pass, theme string, themeConfidence float64, res PriorityResolution, transcript string) ([]types.Insight, PassStats, error) {
	stats := PassStats{Pass: pass.Number}
	log := e.log.WithField("pass", pass.Number).WithField("theme", theme)

	note := PriorityNote(pass, theme, res)
	prompt := BuildPassPrompt(pass, theme, themeConfidence, note, transcript)

	content, err := e.model.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: systemDirective},
			{Role: "user", Content: prompt},
		},
		Temperature:     e.temperature,
		MaxOutputTokens: e.maxOutputTokens,
	})
	if err != nil {
		return nil, stats, fmt.Errorf("pass %d invocation: %w", pass.Number, err)
	}

	raw := llm.ExtractArray(content)
	if raw == "" {
		return nil, stats, fmt.Errorf("pass %d: no JSON array in response", pass.Number)
	}

	var elements []rawInsight
	if err := json.Unmarshal([]byte(raw), &elements); err != nil {
		return nil, stats, fmt.Errorf("pass %d: malformed array: %w", pass.Number, err)
	}

	insights := make([]types.Insight, 0, len(elements))
	for _, el := range elements {
		ins, err := validate(el)
		if err != nil {
			stats.Dropped++
			log.WithError(err).Debug("dropped invalid insight")
			continue
		}
		insights = append(insights, ins)
	}
	stats.Extracted = len(insights)

	log.WithFields(logrus.Fields{
		"extracted": stats.Extracted,
		"dropped":   stats.Dropped,
	}).Info("pass finished")
	return insights, stats, nil
}
