// Package slack sends triage session notifications to Slack via incoming
// webhooks. Only high-urgency sessions are routed here; delivery is best
// effort and never blocks the triage path.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/linnemanlabs/medai/internal/triage"
)

const (
	maxTextLen  = 1500
	httpTimeout = 10 * time.Second
)

// Notifier sends sessions to a Slack webhook.
type Notifier struct {
	webhookURL string
	client     *http.Client
}

// New creates a new Slack notifier. If webhookURL is empty, Send is a no-op.
func New(webhookURL string) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: httpTimeout},
	}
}

// Send posts a session to the configured Slack webhook.
// If no webhook URL is configured, it returns nil immediately.
func (n *Notifier) Send(ctx context.Context, sess *triage.Session) error {
	if n.webhookURL == "" {
		return nil
	}

	msg := buildMessage(sess)

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("slack: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req) //nolint:gosec // G704: webhookURL is from trusted config, not user input
	if err != nil {
		return fmt.Errorf("slack: post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack: webhook returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func buildMessage(sess *triage.Session) map[string]any {
	return map[string]any{
		"blocks": []map[string]any{
			headerBlock(sess),
			{"type": "divider"},
			fieldsBlock(sess),
			{"type": "divider"},
			explanationBlock(sess),
			contextBlock(sess),
		},
	}
}

func headerBlock(sess *triage.Session) map[string]any {
	return map[string]any{
		"type": "header",
		"text": map[string]any{
			"type": "plain_text",
			"text": fmt.Sprintf("%s High urgency triage", urgencyEmoji(sess.Result.Urgency)),
		},
	}
}

func fieldsBlock(sess *triage.Session) map[string]any {
	fields := []map[string]any{
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Urgency:* %s", sess.Result.Urgency),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Confidence:* %d%%", sess.Result.Confidence),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Possible:* %s", strings.Join(sess.Result.Possible, ", ")),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Session:* %s", sess.ID),
		},
	}
	return map[string]any{
		"type":   "section",
		"fields": fields,
	}
}

func explanationBlock(sess *triage.Session) map[string]any {
	text := strings.Join(sess.Result.Explanation, "\n")
	if text == "" {
		text = "_no explanation produced_"
	}
	if len(text) > maxTextLen {
		text = text[:maxTextLen] + "\n_(truncated)_"
	}
	return map[string]any{
		"type": "section",
		"text": map[string]any{
			"type": "mrkdwn",
			"text": text,
		},
	}
}

func contextBlock(sess *triage.Session) map[string]any {
	return map[string]any{
		"type": "context",
		"elements": []map[string]any{
			{
				"type": "mrkdwn",
				"text": fmt.Sprintf("recorded %s", sess.Result.CreatedAt.Format(time.RFC3339)),
			},
		},
	}
}

func urgencyEmoji(u triage.Urgency) string {
	switch u {
	case triage.UrgencyHigh:
		return ":rotating_light:"
	case triage.UrgencyModerate:
		return ":warning:"
	default:
		return ":information_source:"
	}
}
