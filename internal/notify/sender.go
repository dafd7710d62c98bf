package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/jredh-dev/lostfound/pkg/logger"
)

// Sender delivers one event to its recipients.
type Sender interface {
	Send(ctx context.Context, e Event) error
}

// LogSender writes events to the log. It is the sender used when no webhook
// is configured.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: logger.OrNop(log)}
}

func (s *LogSender) Send(_ context.Context, e Event) error {
	s.log.Info("claim event",
		zap.String("event_id", e.ID),
		zap.String("type", string(e.Type)),
		zap.String("claim_id", e.ClaimID),
		zap.String("item_id", e.ItemID),
		zap.String("claimant_id", e.ClaimantID),
		zap.String("status", e.Status))
	return nil
}

// WebhookSender POSTs each event as JSON to a fixed URL, for example a
// campus mail relay.
type WebhookSender struct {
	url        string
	httpClient *http.Client
}

func NewWebhookSender(url string) *WebhookSender {
	return &WebhookSender{
		url:        url,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Send returns an error on transport failure or a non-2xx response; the
// consumer decides whether to retry.
func (s *WebhookSender) Send(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
