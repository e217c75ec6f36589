// Package notify reports fetcher failures to an operator channel.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Notifier delivers an operator-facing message. Delivery is best-effort;
// implementations log failures instead of returning them.
type Notifier interface {
	Notify(ctx context.Context, message string)
}

// NoopNotifier is used when no webhook is configured.
type NoopNotifier struct{}

func (NoopNotifier) Notify(context.Context, string) {}

// DiscordNotifier posts messages to a Discord webhook.
type DiscordNotifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewDiscordNotifier creates a webhook notifier. An empty URL yields a
// NoopNotifier so callers never need to branch.
func NewDiscordNotifier(webhookURL string, logger *slog.Logger) Notifier {
	if webhookURL == "" {
		return NoopNotifier{}
	}
	return &DiscordNotifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Notify posts the message as webhook content. Errors are logged only; a
// broken webhook must never take down the fetch loop.
func (n *DiscordNotifier) Notify(ctx context.Context, message string) {
	payload, err := json.Marshal(map[string]string{"content": message})
	if err != nil {
		n.logger.Error("failed to marshal Discord payload", "error", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(payload))
	if err != nil {
		n.logger.Error("failed to build Discord request", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		n.logger.Error("failed to send Discord notification", "error", err)
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		n.logger.Error("failed to send Discord notification",
			"error", fmt.Errorf("webhook returned status %d", resp.StatusCode))
	}
}
