package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/csg4786/transcript-insights/internal/llm"
	"github.com/csg4786/transcript-insights/internal/logger"
)

// Taxonomy of conversation types the classifier chooses from. Free-form
// answers outside the list are kept as-is after normalization.
var Taxonomy = []string{
	"research_call",
	"feedback_session",
	"usability_testing",
	"sales_demo",
	"sales_call",
	"discovery_call",
	"support_call",
	"onboarding",
	"customer_interview",
	"team_meeting",
	"general_interview",
}

const (
	DefaultTheme      = "general_interview"
	DefaultConfidence = 0.5
)

// Result is the classified conversation context for one transcript.
type Result struct {
	Theme            string   `json:"theme"`
	Confidence       float64  `json:"confidence"`
	Reasoning        string   `json:"reasoning"`
	KeyIndicators    []string `json:"key_indicators"`
	PriorityInsights []string `json:"priority_insights"`
}

type Classifier struct {
	model        llm.Completer
	excerptChars int
	log          *logrus.Entry
}

func New(model llm.Completer, excerptChars int) *Classifier {
	if excerptChars <= 0 {
		excerptChars = 8000
	}
	return &Classifier{
		model:        model,
		excerptChars: excerptChars,
		log:          logger.New().Component("classifier"),
	}
}

// Classify labels the transcript's conversation type. It never fails the
// pipeline: any error falls back to the general_interview defaults.
func (c *Classifier) Classify(ctx context.Context, transcript string) Result {
	excerpt := transcript
	if len(excerpt) > c.excerptChars {
		excerpt = excerpt[:c.excerptChars]
	}

	content, err := c.model.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: "user", Content: buildPrompt(excerpt)},
		},
		Temperature: 0.2,
	})
	if err != nil {
		c.log.WithError(err).Warn("classification call failed, using defaults")
		return defaultResult()
	}

	raw := llm.ExtractObject(content)
	if raw == "" {
		c.log.Warn("no JSON object in classification response, using defaults")
		return defaultResult()
	}

	var res Result
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		c.log.WithError(err).Warn("unparsable classification response, using defaults")
		return defaultResult()
	}

	res.Theme = NormalizeTheme(res.Theme)
	if res.Theme == "" {
		res.Theme = DefaultTheme
	}
	if res.Confidence <= 0 || res.Confidence > 1 {
		res.Confidence = DefaultConfidence
	}
	for i, p := range res.PriorityInsights {
		res.PriorityInsights[i] = NormalizeTheme(p)
	}

	c.log.WithFields(logrus.Fields{
		"theme":      res.Theme,
		"confidence": res.Confidence,
	}).Info("transcript classified")
	return res
}

func defaultResult() Result {
	return Result{Theme: DefaultTheme, Confidence: DefaultConfidence}
}

// NormalizeTheme lowercases and collapses whitespace and hyphens to
// underscores, so "Sales Demo" and "sales-demo" both become sales_demo.
func NormalizeTheme(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.Join(strings.Fields(s), "_")
	return s
}

func buildPrompt(excerpt string) string {
	return fmt.Sprintf(`You are a conversation-context classifier for meeting transcripts.

Classify the conversation below into ONE of these context types:
%s

If none fits well, propose a short snake_case label of your own.

Also propose up to 5 insight categories that are most valuable to extract
from this kind of conversation (examples: pain, blocker, confusion, question,
feature_request, idea, gain, outcome, opportunity, objection, buying_signal,
insight, feedback).

Return ONLY a JSON object with exactly these keys:
{
  "theme": "",
  "confidence": 0.0,
  "reasoning": "",
  "key_indicators": [],
  "priority_insights": []
}

confidence must be between 0 and 1.

TRANSCRIPT (may be truncated):
%s
`, strings.Join(Taxonomy, ", "), excerpt)
}
