package gateway_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coursehub/notify/internal/gateway"
)

func TestWebhookEmailGateway_Send(t *testing.T) {
	var got gateway.EmailMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	g := gateway.NewWebhookEmailGateway(srv.URL, time.Second)
	err := g.Send(context.Background(), gateway.EmailMessage{
		To: "a@x.com", Subject: "T", Message: "B",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.To != "a@x.com" || got.Subject != "T" || got.Message != "B" {
		t.Fatalf("webhook received unexpected payload: %+v", got)
	}
}

// The webhook's body is fire-and-forget: a 2xx with an unparseable body is
// still a success.
func TestWebhookEmailGateway_IgnoresResponseBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success": false, "garbage`))
	}))
	t.Cleanup(srv.Close)

	g := gateway.NewWebhookEmailGateway(srv.URL, time.Second)
	if err := g.Send(context.Background(), gateway.EmailMessage{To: "a@x.com"}); err != nil {
		t.Fatalf("2xx must succeed regardless of body, got %v", err)
	}
}

func TestWebhookEmailGateway_ErrorStatus(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusInternalServerError} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
		}))

		g := gateway.NewWebhookEmailGateway(srv.URL, time.Second)
		if err := g.Send(context.Background(), gateway.EmailMessage{To: "a@x.com"}); err == nil {
			t.Fatalf("expected error for status %d", status)
		}
		srv.Close()
	}
}

func TestWebhookEmailGateway_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	g := gateway.NewWebhookEmailGateway(srv.URL, time.Second)
	if err := g.Send(context.Background(), gateway.EmailMessage{To: "a@x.com"}); err == nil {
		t.Fatal("expected transport error")
	}
}
