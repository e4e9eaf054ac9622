package llm

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/csg4786/transcript-insights/internal/config"
)

type fakeDoer struct {
	statuses []int
	bodies   []string
	calls    int
}

func (f *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	i := f.calls
	f.calls++
	if i >= len(f.statuses) {
		i = len(f.statuses) - 1
	}
	return &http.Response{
		StatusCode: f.statuses[i],
		Body:       io.NopCloser(strings.NewReader(f.bodies[i])),
		Header:     http.Header{},
	}, nil
}

func testModelConfig() config.ModelConfig {
	return config.ModelConfig{
		GatewayURL:  "http://gateway.test/v1/chat/completions",
		Name:        "test-model",
		APIKey:      "test-key",
		Temperature: 0.35,
		TimeoutSec:  5,
		MaxRetrySec: 2,
	}
}

const okBody = `{"choices": [{"message": {"content": "hello from the model"}}]}`

func TestCompleteSuccess(t *testing.T) {
	doer := &fakeDoer{statuses: []int{200}, bodies: []string{okBody}}
	c := NewClient(testModelConfig(), doer)

	content, err := c.Complete(context.Background(), Request{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if content != "hello from the model" {
		t.Fatalf("content = %q", content)
	}
	if doer.calls != 1 {
		t.Fatalf("calls = %d", doer.calls)
	}
}

func TestCompleteClientErrorNoRetry(t *testing.T) {
	doer := &fakeDoer{statuses: []int{401}, bodies: []string{`{"error": "bad key"}`}}
	c := NewClient(testModelConfig(), doer)

	_, err := c.Complete(context.Background(), Request{Messages: []Message{{Role: "user", Content: "hi"}}})
	if err == nil {
		t.Fatal("expected error")
	}
	if doer.calls != 1 {
		t.Fatalf("4xx must not retry, calls = %d", doer.calls)
	}
}

func TestCompleteRetriesServerError(t *testing.T) {
	doer := &fakeDoer{
		statuses: []int{500, 200},
		bodies:   []string{`{"error": "overloaded"}`, okBody},
	}
	c := NewClient(testModelConfig(), doer)

	content, err := c.Complete(context.Background(), Request{Messages: []Message{{Role: "user", Content: "hi"}}})
	if err != nil {
		t.Fatalf("complete after retry: %v", err)
	}
	if content != "hello from the model" || doer.calls != 2 {
		t.Fatalf("content=%q calls=%d", content, doer.calls)
	}
}

func TestCompleteNoChoices(t *testing.T) {
	doer := &fakeDoer{statuses: []int{200}, bodies: []string{`{"choices": []}`}}
	c := NewClient(testModelConfig(), doer)

	if _, err := c.Complete(context.Background(), Request{Messages: []Message{{Role: "user", Content: "hi"}}}); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestCompleteUnconfigured(t *testing.T) {
	c := NewClient(config.ModelConfig{TimeoutSec: 5}, &fakeDoer{statuses: []int{200}, bodies: []string{okBody}})
	if _, err := c.Complete(context.Background(), Request{}); err == nil {
		t.Fatal("expected error when gateway is not configured")
	}
}
