package observability

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestWebhookNotifier_PostsSlackBlocks(t *testing.T) {
	var body []byte
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		body, _ = io.ReadAll(r.Body)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL)
	err := n.Notify([]Notification{
		{Kind: NotifyReminder, ChatID: 42, RequestID: "APR-00001",
			Message: "Approval request APR-00001 expires soon.", Time: time.Now().UTC()},
		{Kind: NotifyExpired, ChatID: 42, RequestID: "APR-00002",
			Message: "Approval request APR-00002 expired.", Time: time.Now().UTC()},
	})
	if err != nil {
		t.Fatal(err)
	}

	if contentType != "application/json" {
		t.Errorf("content type: got %q", contentType)
	}
	var msg struct {
		Blocks []struct {
			Type string `json:"type"`
			Text *struct {
				Text string `json:"text"`
			} `json:"text"`
		} `json:"blocks"`
	}
	if err := json.Unmarshal(body, &msg); err != nil {
		t.Fatalf("payload is not json: %v", err)
	}
	// Header, first section, divider, second section.
	if len(msg.Blocks) != 4 {
		t.Fatalf("expected 4 blocks, got %d", len(msg.Blocks))
	}
	if msg.Blocks[0].Type != "header" {
		t.Errorf("first block must be the header, got %s", msg.Blocks[0].Type)
	}
	if msg.Blocks[2].Type != "divider" {
		t.Errorf("expected a divider between sections, got %s", msg.Blocks[2].Type)
	}
	if !strings.Contains(msg.Blocks[1].Text.Text, "APR-00001") {
		t.Errorf("section missing the message: %q", msg.Blocks[1].Text.Text)
	}
}

func TestWebhookNotifier_EmptySliceSkipsRequest(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	if err := NewWebhookNotifier(srv.URL).Notify(nil); err != nil {
		t.Fatal(err)
	}
	if calls != 0 {
		t.Errorf("empty notification slice must not hit the webhook, got %d calls", calls)
	}
}

func TestWebhookNotifier_NonOKStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	err := NewWebhookNotifier(srv.URL).Notify([]Notification{
		{Kind: NotifyInfo, Message: "hello", Time: time.Now().UTC()},
	})
	if err == nil {
		t.Fatal("expected an error on non-200 status")
	}
	if !strings.Contains(err.Error(), "403") {
		t.Errorf("error should carry the status code: %v", err)
	}
}

func TestWebhookNotifier_UnreachableHost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // shut down before use

	err := NewWebhookNotifier(srv.URL).Notify([]Notification{
		{Kind: NotifyInfo, Message: "hello", Time: time.Now().UTC()},
	})
	if err == nil {
		t.Fatal("expected a transport error")
	}
}

func TestNopNotifier(t *testing.T) {
	if err := (NopNotifier{}).Notify([]Notification{{Kind: NotifyInfo}}); err != nil {
		t.Errorf("nop notifier must never fail: %v", err)
	}
}
