// Package notify delivers run-completion messages to an external webhook.
// Delivery is best effort: the pipeline logs failures and moves on.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/csg4786/transcript-insights/internal/logger"
)

type Notifier interface {
	Send(ctx context.Context, userID, message string) error
}

// HTTPDoer allows tests to fake HTTP transport.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Webhook struct {
	url    string
	client HTTPDoer
	log    *logrus.Entry
}

func NewWebhook(url string, client HTTPDoer) *Webhook {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Webhook{url: url, client: client, log: logger.New().Component("notifier")}
}

func (w *Webhook) Send(ctx context.Context, userID, message string) error {
	payload, _ := json.Marshal(map[string]string{
		"user_id": userID,
		"message": message,
	})
	req, err := http.NewRequestWithContext(ctx, "POST", w.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("notification webhook status %d", resp.StatusCode)
	}
	return nil
}

// Noop is used when no webhook is configured.
type Noop struct{}

func (Noop) Send(ctx context.Context, userID, message string) error { return nil }
