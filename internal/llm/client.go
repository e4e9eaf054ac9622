package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/csg4786/transcript-insights/internal/config"
	"github.com/csg4786/transcript-insights/internal/logger"
)

// Message is one chat message in a completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request carries everything one model call needs.
type Request struct {
	Messages        []Message
	Temperature     float64
	MaxOutputTokens int
}

// Completer is the model-call seam; tests swap in a fake.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// HTTPDoer allows tests to fake HTTP transport.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to an OpenAI-compatible chat-completions gateway with
// exponential backoff on transient failures.
type Client struct {
	gatewayURL   string
	apiKey       string
	model        string
	httpClient   HTTPDoer
	timeout      time.Duration
	maxRetryTime time.Duration
	log          *logrus.Entry
}

func NewClient(cfg config.ModelConfig, httpClient HTTPDoer) *Client {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		gatewayURL:   cfg.GatewayURL,
		apiKey:       cfg.APIKey,
		model:        cfg.Name,
		httpClient:   httpClient,
		timeout:      timeout,
		maxRetryTime: time.Duration(cfg.MaxRetrySec) * time.Second,
		log:          logger.New().Component("llm-client"),
	}
}

// Complete sends one chat-completions call and returns the assistant text.
// 4xx responses are permanent; everything else retries until maxRetryTime.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	if c.gatewayURL == "" || c.apiKey == "" {
		return "", fmt.Errorf("llm gateway not configured")
	}

	reqBody := map[string]any{
		"model":       c.model,
		"messages":    req.Messages,
		"temperature": req.Temperature,
	}
	if req.MaxOutputTokens > 0 {
		reqBody["max_tokens"] = req.MaxOutputTokens
	}
	data, _ := json.Marshal(reqBody)

	var content string
	var lastErr error

	op := func() error {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		httpReq, err := http.NewRequestWithContext(callCtx, "POST", c.gatewayURL, bytes.NewReader(data))
		if err != nil {
			return backoff.Permanent(err)
		}
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			lastErr = err
			c.log.WithError(err).Warn("llm request failed")
			return err
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		c.log.WithField("http_status", resp.StatusCode).Debug("llm response received")

		if resp.StatusCode >= 400 {
			lastErr = fmt.Errorf("llm gateway status %d: %s", resp.StatusCode, truncate(string(body), 300))
			if resp.StatusCode < 500 {
				return backoff.Permanent(lastErr)
			}
			return lastErr
		}

		inner, err := contentFromChoices(body)
		if err != nil {
			lastErr = err
			return lastErr
		}
		content = inner
		lastErr = nil
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = c.maxRetryTime

	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		if lastErr == nil {
			lastErr = err
		}
		return "", fmt.Errorf("llm call failed: %w", lastErr)
	}
	return content, nil
}

// contentFromChoices reads the openai-style choices[0].message.content field.
func contentFromChoices(body []byte) (string, error) {
	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode llm response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("llm response has no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
