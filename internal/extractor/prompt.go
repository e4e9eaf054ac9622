package extractor

import (
	"fmt"
	"strings"
)

// systemDirective is the fixed anti-hallucination contract sent with every
// extraction pass.
const systemDirective = `You are an insight-extraction engine for meeting transcripts.

Hard rules:
- Evidence quotes MUST be verbatim excerpts from the transcript. Never paraphrase inside a quote.
- Never fabricate findings. If the transcript does not support a claim, OMIT it entirely.
- Do not invent numbers, names or facts that are not in the transcript.
- confidence must reflect how clearly and how often the finding appears in the transcript: repeated, explicit statements score high; single vague mentions score low.
- Return ONLY a JSON array. No commentary, no markdown fences.`

// BuildPassPrompt assembles the user prompt for one extraction pass.
func BuildPassPrompt(pass Pass, theme string, confidence float64, priorityNote string, transcript string) string {
	var defs strings.Builder
	for _, c := range pass.Categories {
		fmt.Fprintf(&defs, "- %s: %s\n", c, categoryDefinitions[c])
	}

	note := ""
	if priorityNote != "" {
		note = priorityNote + "\n\n"
	}

	return fmt.Sprintf(`Conversation context: %s (classification confidence %.2f)

%sExtract insights of ONLY these categories from the transcript:
%s
Return a JSON array where each element has exactly these keys:
{
  "title": "short headline, max 200 chars",
  "description": "what was found and why it matters, max 2000 chars",
  "type": "one of the categories above",
  "evidence": [{"quote": "verbatim excerpt", "timestamp": "", "speaker": ""}],
  "confidence": 0.0
}

evidence must contain at least one verbatim quote per insight.
Return [] if the transcript contains no insights of these categories.

TRANSCRIPT:
%s
`, theme, confidence, note, defs.String(), transcript)
}

// PriorityNote names the context when a pass's categories are elevated for
// it; empty when the pass has no elevated categories.
func PriorityNote(pass Pass, theme string, res PriorityResolution) string {
	if !pass.Intersects(res.Priority) {
		return ""
	}
	elevated := []string{}
	set := map[string]struct{}{}
	for _, c := range res.Priority {
		set[c] = struct{}{}
	}
	for _, c := range pass.Categories {
		if _, ok := set[c]; ok {
			elevated = append(elevated, c)
		}
	}
	return fmt.Sprintf(
		"ELEVATED PRIORITY: this is a %s conversation, where %s insights are especially valuable. Look for them with extra care.",
		theme, strings.Join(elevated, ", "))
}
