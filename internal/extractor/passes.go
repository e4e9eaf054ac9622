package extractor

import "github.com/csg4786/transcript-insights/internal/types"

// Pass is one extraction call scoped to a fixed subset of insight
// categories. The four passes partition the taxonomy; their order is fixed
// and load-bearing: the deduplicator depends on batch order.
type Pass struct {
	Number     int
	Name       string
	Categories []string
}

var Passes = [4]Pass{
	{
		Number: 1,
		Name:   "problems",
		Categories: []string{
			types.TypePain, types.TypeBlocker, types.TypeConfusion, types.TypeQuestion,
		},
	},
	{
		Number: 2,
		Name:   "requests",
		Categories: []string{
			types.TypeFeatureRequest, types.TypeIdea,
		},
	},
	{
		Number: 3,
		Name:   "value",
		Categories: []string{
			types.TypeGain, types.TypeOutcome, types.TypeOpportunity,
		},
	},
	{
		Number: 4,
		Name:   "signals",
		Categories: []string{
			types.TypeObjection, types.TypeBuyingSignal, types.TypeInsight, types.TypeFeedback,
		},
	},
}

// categoryDefinitions go verbatim into pass prompts.
var categoryDefinitions = map[string]string{
	types.TypePain:           "a problem, frustration or negative experience the speaker describes",
	types.TypeBlocker:        "something preventing the speaker from reaching a goal",
	types.TypeConfusion:      "something the speaker misunderstands or finds unclear",
	types.TypeQuestion:       "an open question the speaker raises and does not get answered",
	types.TypeFeatureRequest: "an explicit ask for new or changed functionality",
	types.TypeIdea:           "a suggestion or improvement proposed by the speaker",
	types.TypeGain:           "a benefit or positive experience the speaker reports",
	types.TypeOutcome:        "a result the speaker achieved or expects to achieve",
	types.TypeOpportunity:    "an opening for improvement or expansion implied by the conversation",
	types.TypeObjection:      "a stated reason against buying, adopting or continuing",
	types.TypeBuyingSignal:   "an indication of purchase intent or willingness to commit",
	types.TypeInsight:        "a notable observation about behavior, workflow or market",
	types.TypeFeedback:       "a direct evaluation of the product or service, positive or negative",
}

// Intersects reports whether any of the pass's categories appear in the
// resolved priority set.
func (p Pass) Intersects(priority []string) bool {
	set := make(map[string]struct{}, len(priority))
	for _, c := range priority {
		set[c] = struct{}{}
	}
	for _, c := range p.Categories {
		if _, ok := set[c]; ok {
			return true
		}
	}
	return false
}
