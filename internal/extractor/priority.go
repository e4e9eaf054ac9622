package extractor

import (
	"sort"
	"strings"

	"github.com/csg4786/transcript-insights/internal/types"
)

// MatchKind tags which branch of the theme-resolution chain produced a
// priority set, so each branch is independently testable.
type MatchKind string

const (
	MatchExact       MatchKind = "exact"
	MatchContainment MatchKind = "containment"
	MatchWordOverlap MatchKind = "word_overlap"
	MatchDynamic     MatchKind = "dynamic"
	MatchDefault     MatchKind = "default"
)

// PriorityResolution is the outcome of matching a classified theme against
// the static priority table.
type PriorityResolution struct {
	Kind       MatchKind
	MatchedKey string
	Priority   []string
	Secondary  []string
}

type themePriorities struct {
	priority  []string
	secondary []string
}

const defaultThemeKey = "general_interview"

// themeTable maps known conversation contexts to the insight categories
// worth elevating for them.
var themeTable = map[string]themePriorities{
	"research_call": {
		priority:  []string{types.TypePain, types.TypeInsight, types.TypeConfusion},
		secondary: []string{types.TypeQuestion, types.TypeIdea, types.TypeOpportunity},
	},
	"customer_interview": {
		priority:  []string{types.TypePain, types.TypeInsight, types.TypeGain},
		secondary: []string{types.TypeFeatureRequest, types.TypeQuestion},
	},
	"feedback_session": {
		priority:  []string{types.TypeFeedback, types.TypeFeatureRequest, types.TypePain},
		secondary: []string{types.TypeIdea, types.TypeGain},
	},
	"usability_testing": {
		priority:  []string{types.TypeConfusion, types.TypeBlocker, types.TypePain},
		secondary: []string{types.TypeQuestion, types.TypeFeedback},
	},
	"sales_demo": {
		priority:  []string{types.TypeBuyingSignal, types.TypeObjection, types.TypeQuestion},
		secondary: []string{types.TypeFeatureRequest, types.TypeOpportunity},
	},
	"sales_call": {
		priority:  []string{types.TypeBuyingSignal, types.TypeObjection, types.TypePain},
		secondary: []string{types.TypeOpportunity, types.TypeQuestion},
	},
	"discovery_call": {
		priority:  []string{types.TypePain, types.TypeOpportunity, types.TypeBuyingSignal},
		secondary: []string{types.TypeBlocker, types.TypeQuestion},
	},
	"support_call": {
		priority:  []string{types.TypeBlocker, types.TypeConfusion, types.TypePain},
		secondary: []string{types.TypeQuestion, types.TypeFeedback},
	},
	"onboarding": {
		priority:  []string{types.TypeConfusion, types.TypeQuestion, types.TypeBlocker},
		secondary: []string{types.TypeFeedback, types.TypeIdea},
	},
	"team_meeting": {
		priority:  []string{types.TypeIdea, types.TypeBlocker, types.TypeOutcome},
		secondary: []string{types.TypeQuestion, types.TypeInsight},
	},
	defaultThemeKey: {
		priority:  []string{types.TypePain, types.TypeInsight, types.TypeFeedback},
		secondary: []string{types.TypeQuestion, types.TypeIdea},
	},
}

// ResolvePriorities matches the classified theme against the static table.
// Resolution order: exact key, containment either direction, word overlap,
// classifier-proposed dynamic list, general_interview default.
func ResolvePriorities(theme string, dynamic []string) PriorityResolution {
	theme = strings.TrimSpace(theme)

	if tp, ok := themeTable[theme]; ok {
		return PriorityResolution{Kind: MatchExact, MatchedKey: theme, Priority: tp.priority, Secondary: tp.secondary}
	}

	// map iteration order is random; sort keys so containment and overlap
	// matches are reproducible
	keys := make([]string, 0, len(themeTable))
	for k := range themeTable {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if theme != "" {
		for _, k := range keys {
			if strings.Contains(theme, k) || strings.Contains(k, theme) {
				tp := themeTable[k]
				return PriorityResolution{Kind: MatchContainment, MatchedKey: k, Priority: tp.priority, Secondary: tp.secondary}
			}
		}

		if k := bestWordOverlap(theme, keys); k != "" {
			tp := themeTable[k]
			return PriorityResolution{Kind: MatchWordOverlap, MatchedKey: k, Priority: tp.priority, Secondary: tp.secondary}
		}
	}

	if len(dynamic) > 0 {
		return PriorityResolution{Kind: MatchDynamic, Priority: dynamic}
	}

	tp := themeTable[defaultThemeKey]
	return PriorityResolution{Kind: MatchDefault, MatchedKey: defaultThemeKey, Priority: tp.priority, Secondary: tp.secondary}
}

// bestWordOverlap returns the table key sharing the most underscore-separated
// words with the theme, or "" when nothing overlaps. Ties break on sorted
// key order.
func bestWordOverlap(theme string, sortedKeys []string) string {
	themeWords := map[string]struct{}{}
	for _, w := range strings.Split(theme, "_") {
		if w != "" {
			themeWords[w] = struct{}{}
		}
	}

	best := ""
	bestScore := 0
	for _, k := range sortedKeys {
		score := 0
		for _, w := range strings.Split(k, "_") {
			if _, ok := themeWords[w]; ok {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = k
		}
	}
	return best
}
