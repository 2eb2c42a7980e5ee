package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WebhookEmailGateway delivers emails by POSTing to an external
// email-sending webhook.
//
// Success means only that the webhook accepted the call: the response body
// is deliberately NOT parsed for an application-level failure indicator.
// This is asymmetric with the push client and matches the webhook's
// fire-and-forget contract.
type WebhookEmailGateway struct {
	webhookURL string
	httpClient *http.Client
}

func NewWebhookEmailGateway(webhookURL string, timeout time.Duration) *WebhookEmailGateway {
	return &WebhookEmailGateway{
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Send posts the email payload. Any transport failure or error-class HTTP
// status fails the send.
func (g *WebhookEmailGateway) Send(ctx context.Context, msg EmailMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("unexpected email webhook status: %d", resp.StatusCode)
	}
	return nil
}

// compile-time check that WebhookEmailGateway implements EmailSender
var _ EmailSender = (*WebhookEmailGateway)(nil)
