package extractor

import (
	"context"
	"errors"
	"testing"

	"github.com/csg4786/transcript-insights/internal/llm"
)

type fakeCompleter struct {
	responses []string
	errs      []error
	calls     int
	requests  []llm.Request
}

func (f *fakeCompleter) Complete(ctx context.Context, req llm.Request) (string, error) {
	f.requests = append(f.requests, req)
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return "", errors.New("no scripted response")
}

const passResponse = `Here are the findings you asked for:

` + "```json" + `
[
  {
    "title": "Checkout is slow",
    "description": "Customer complained twice about checkout latency.",
    "type": "pain",
    "evidence": [{"quote": "it took forever to pay"}],
    "confidence": 0.85
  },
  {
    "title": "",
    "description": "invalid element with no title",
    "type": "pain",
    "evidence": [{"quote": "q"}],
    "confidence": 0.5
  },
  {
    "title": "Wants invoices by email",
    "description": "Asked for invoices to be emailed monthly.",
    "type": "Feature Request",
    "evidence": [{"quote": "could you email me the invoice"}],
    "confidence": 0.7
  }
]
` + "```" + `

Let me know if you need anything else.`

func TestRunPassParsesAndValidates(t *testing.T) {
	fake := &fakeCompleter{responses: []string{passResponse}}
	e := New(fake, 0.35, 2000)

	res := ResolvePriorities("general_interview", nil)
	insights, stats, err := e.RunPass(context.Background(), Passes[0], "general_interview", 0.5, res, "transcript text")
	if err != nil {
		t.Fatalf("run pass: %v", err)
	}
	if len(insights) != 2 {
		t.Fatalf("got %d insights, want 2 (one dropped)", len(insights))
	}
	if stats.Dropped != 1 || stats.Extracted != 2 {
		t.Fatalf("stats = %+v", stats)
	}
	// model order preserved
	if insights[0].Title != "Checkout is slow" || insights[1].Title != "Wants invoices by email" {
		t.Fatalf("order not preserved: %q, %q", insights[0].Title, insights[1].Title)
	}
	if insights[1].Type != "feature_request" {
		t.Fatalf("type = %q", insights[1].Type)
	}
}

func TestRunPassSendsDirectiveAndTemperature(t *testing.T) {
	fake := &fakeCompleter{responses: []string{"[]"}}
	e := New(fake, 0.35, 2000)

	res := ResolvePriorities("sales_demo", nil)
	_, _, err := e.RunPass(context.Background(), Passes[3], "sales_demo", 0.9, res, "transcript")
	if err != nil {
		t.Fatalf("run pass: %v", err)
	}

	req := fake.requests[0]
	if req.Temperature != 0.35 {
		t.Fatalf("temperature = %v", req.Temperature)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
		t.Fatalf("messages = %+v", req.Messages)
	}
}

func TestRunPassNoArray(t *testing.T) {
	fake := &fakeCompleter{responses: []string{"I could not find any structured insights, sorry."}}
	e := New(fake, 0.35, 2000)

	res := ResolvePriorities("general_interview", nil)
	insights, _, err := e.RunPass(context.Background(), Passes[0], "general_interview", 0.5, res, "transcript")
	if err == nil {
		t.Fatal("expected error for response without array")
	}
	if len(insights) != 0 {
		t.Fatalf("unparsable pass must contribute zero insights, got %d", len(insights))
	}
}

func TestRunPassInvocationFailure(t *testing.T) {
	fake := &fakeCompleter{errs: []error{errors.New("gateway down")}}
	e := New(fake, 0.35, 2000)

	res := ResolvePriorities("general_interview", nil)
	insights, _, err := e.RunPass(context.Background(), Passes[0], "general_interview", 0.5, res, "transcript")
	if err == nil || len(insights) != 0 {
		t.Fatalf("expected invocation failure, got %d insights, err=%v", len(insights), err)
	}
}

func TestRunPassEmptyArray(t *testing.T) {
	fake := &fakeCompleter{responses: []string{"[]"}}
	e := New(fake, 0.35, 2000)

	res := ResolvePriorities("general_interview", nil)
	insights, stats, err := e.RunPass(context.Background(), Passes[1], "general_interview", 0.5, res, "transcript")
	if err != nil {
		t.Fatalf("empty array is a valid response: %v", err)
	}
	if len(insights) != 0 || stats.Dropped != 0 {
		t.Fatalf("got %d insights, stats %+v", len(insights), stats)
	}
}
