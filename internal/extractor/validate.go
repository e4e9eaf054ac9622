package extractor

import (
	"fmt"
	"strings"

	"github.com/csg4786/transcript-insights/internal/types"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 2000
)

// rawInsight is the untrusted shape parsed from one model array element.
type rawInsight struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Type        string           `json:"type"`
	Evidence    []types.Evidence `json:"evidence"`
	Confidence  float64          `json:"confidence"`
}

// validate turns a raw model element into a strict insight record or
// rejects it. Everything downstream of this point handles fully-shaped
// records only.
func validate(raw rawInsight) (types.Insight, error) {
	title := strings.TrimSpace(raw.Title)
	if title == "" {
		return types.Insight{}, fmt.Errorf("empty title")
	}
	if len(title) > maxTitleLen {
		title = title[:maxTitleLen]
	}

	description := strings.TrimSpace(raw.Description)
	if description == "" {
		return types.Insight{}, fmt.Errorf("empty description")
	}
	if len(description) > maxDescriptionLen {
		description = description[:maxDescriptionLen]
	}

	evidence := make([]types.Evidence, 0, len(raw.Evidence))
	for _, ev := range raw.Evidence {
		if strings.TrimSpace(ev.Quote) == "" {
			continue
		}
		evidence = append(evidence, ev)
	}
	if len(evidence) == 0 {
		return types.Insight{}, fmt.Errorf("no evidence quotes")
	}

	if raw.Confidence < -0.001 || raw.Confidence > 1.001 {
		return types.Insight{}, fmt.Errorf("confidence out of range: %v", raw.Confidence)
	}

	return types.Insight{
		Title:       title,
		Description: description,
		Type:        types.NormalizeType(raw.Type),
		Evidence:    evidence,
		Confidence:  types.Clamp01(raw.Confidence),
		Status:      types.InsightStatusNew,
	}, nil
}
