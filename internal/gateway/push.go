package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPPushGateway delivers push notifications by POSTing a JSON array of
// messages to the external push gateway. The base URL is injected from
// config so tests can point to a local mock.
type HTTPPushGateway struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPPushGateway(baseURL string, timeout time.Duration) *HTTPPushGateway {
	return &HTTPPushGateway{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// pushResponse maps the gateway's response body: one ticket per message,
// in request order.
type pushResponse struct {
	Data []PushTicket `json:"data"`
}

// Send posts the batch and returns the per-message tickets.
// A transport failure or a non-200 status fails the whole batch; a
// gateway-reported per-message error shows up in that message's ticket.
func (g *HTTPPushGateway) Send(ctx context.Context, messages []PushMessage) ([]PushTicket, error) {
	body, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("marshal push request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send push request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected push gateway status: %d", resp.StatusCode)
	}

	var pr pushResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("decode push response: %w", err)
	}
	if len(pr.Data) != len(messages) {
		return nil, fmt.Errorf("push gateway returned %d tickets for %d messages", len(pr.Data), len(messages))
	}

	return pr.Data, nil
}

// compile-time check that HTTPPushGateway implements PushSender
var _ PushSender = (*HTTPPushGateway)(nil)
