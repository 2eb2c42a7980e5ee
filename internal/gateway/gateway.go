// Package gateway holds the outbound delivery clients: a batched push
// gateway client and an email webhook client. Each client is a pure function
// of (destination, content) → outcome with no shared state and no internal
// retry; retry, if any, is the queue's responsibility.
package gateway

import "context"

// PushMessage is one message in a push gateway request.
type PushMessage struct {
	To    string            `json:"to"`
	Sound string            `json:"sound"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Ticket statuses reported by the push gateway per message.
const (
	TicketOK    = "ok"
	TicketError = "error"
)

// PushTicket is the gateway's per-message receipt.
type PushTicket struct {
	Status  string `json:"status"`
	ID      string `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
}

// Err reports the gateway-recorded failure for this ticket, if any.
func (t PushTicket) Err() string {
	if t.Status == TicketOK {
		return ""
	}
	if t.Message != "" {
		return t.Message
	}
	return "push gateway reported status " + t.Status
}

// PushSender delivers a batch of push messages and returns one ticket per
// message, in order. Mocking this in tests avoids real HTTP calls.
type PushSender interface {
	Send(ctx context.Context, messages []PushMessage) ([]PushTicket, error)
}

// EmailMessage is the body posted to the email-sending webhook.
type EmailMessage struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// EmailSender delivers a single email via the external webhook.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}
