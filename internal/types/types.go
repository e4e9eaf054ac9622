package types

import (
	"strings"
	"time"
)

// TranscriptStatus tracks where a transcript is in the analysis pipeline.
type TranscriptStatus string

const (
	StatusUploaded          TranscriptStatus = "uploaded"
	StatusAnalyzingPass1    TranscriptStatus = "analyzing_pass_1"
	StatusAnalyzingPass2    TranscriptStatus = "analyzing_pass_2"
	StatusAnalyzingPass3    TranscriptStatus = "analyzing_pass_3"
	StatusAnalyzingPass4    TranscriptStatus = "analyzing_pass_4"
	StatusCompilingInsights TranscriptStatus = "compiling_insights"
	StatusCompleted         TranscriptStatus = "completed"
	StatusFailed            TranscriptStatus = "failed"
)

// statusRank orders the pipeline states. Terminal states share the top rank
// so failed can follow any non-terminal state.
var statusRank = map[TranscriptStatus]int{
	StatusUploaded:          0,
	StatusAnalyzingPass1:    1,
	StatusAnalyzingPass2:    2,
	StatusAnalyzingPass3:    3,
	StatusAnalyzingPass4:    4,
	StatusCompilingInsights: 5,
	StatusCompleted:         6,
	StatusFailed:            6,
}

// IsTerminal reports whether a status ends the run.
func (s TranscriptStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether moving from s to next is forward progress.
// A fresh run may always restart from uploaded.
func (s TranscriptStatus) CanTransition(next TranscriptStatus) bool {
	if next == StatusUploaded {
		return true
	}
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	if !ok {
		return false
	}
	if next == StatusFailed {
		return !s.IsTerminal()
	}
	return to > from
}

type Transcript struct {
	ID                string           `json:"id"`
	Text              string           `json:"text,omitempty"`
	Status            TranscriptStatus `json:"status"`
	ContextTheme      string           `json:"context_theme,omitempty"`
	ContextConfidence float64          `json:"context_confidence,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	ProcessedAt       *time.Time       `json:"processed_at,omitempty"`
}

// InsightStatus is the export lifecycle of a stored insight. Everything past
// "new" is written by export integrations, not by this pipeline.
type InsightStatus string

const (
	InsightStatusNew          InsightStatus = "new"
	InsightStatusExported     InsightStatus = "exported"
	InsightStatusExportFailed InsightStatus = "export_failed"
	InsightStatusArchived     InsightStatus = "archived"
)

// Evidence is one verbatim transcript excerpt supporting an insight.
type Evidence struct {
	Quote     string `json:"quote"`
	Timestamp string `json:"timestamp,omitempty"`
	Speaker   string `json:"speaker,omitempty"`
}

type Insight struct {
	ID                  string        `json:"id"`
	TranscriptID        string        `json:"transcript_id"`
	Title               string        `json:"title"`
	Description         string        `json:"description"`
	Type                string        `json:"type"`
	Evidence            []Evidence    `json:"evidence"`
	Confidence          float64       `json:"confidence"`
	ContentHash         string        `json:"content_hash,omitempty"`
	IsDuplicate         bool          `json:"is_duplicate"`
	DuplicateOf         string        `json:"duplicate_of,omitempty"`
	DuplicateSimilarity float64       `json:"duplicate_similarity,omitempty"`
	Status              InsightStatus `json:"status"`
	CreatedAt           time.Time     `json:"created_at"`
}

// PrimaryEvidence returns the first evidence quote, the text the content
// hash is computed over.
func (i Insight) PrimaryEvidence() string {
	if len(i.Evidence) == 0 {
		return ""
	}
	return i.Evidence[0].Quote
}

// Insight categories. TypeOther is the catch-all for anything the model
// labels outside the closed set.
const (
	TypePain           = "pain"
	TypeBlocker        = "blocker"
	TypeConfusion      = "confusion"
	TypeQuestion       = "question"
	TypeFeatureRequest = "feature_request"
	TypeIdea           = "idea"
	TypeGain           = "gain"
	TypeOutcome        = "outcome"
	TypeOpportunity    = "opportunity"
	TypeObjection      = "objection"
	TypeBuyingSignal   = "buying_signal"
	TypeInsight        = "insight"
	TypeFeedback       = "feedback"
	TypeOther          = "other"
)

var validTypes = map[string]struct{}{
	TypePain: {}, TypeBlocker: {}, TypeConfusion: {}, TypeQuestion: {},
	TypeFeatureRequest: {}, TypeIdea: {},
	TypeGain: {}, TypeOutcome: {}, TypeOpportunity: {},
	TypeObjection: {}, TypeBuyingSignal: {}, TypeInsight: {}, TypeFeedback: {},
	TypeOther: {},
}

// NormalizeType maps a raw model label onto the closed category set,
// falling back to "other".
func NormalizeType(raw string) string {
	t := strings.ToLower(strings.TrimSpace(raw))
	t = strings.ReplaceAll(t, " ", "_")
	t = strings.ReplaceAll(t, "-", "_")
	if _, ok := validTypes[t]; ok {
		return t
	}
	return TypeOther
}

// Clamp01 bounds a confidence into [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
