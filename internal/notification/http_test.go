package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWebhookNotifierPostsJSON(t *testing.T) {
	var got struct {
		Level   string `json:"level"`
		Title   string `json:"title"`
		Message string `json:"message"`
		Ts      string `json:"ts"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %s", ct)
		}
		json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	wh := NewWebhookNotifier(srv.URL)
	err := wh.Send(context.Background(), Alert{
		Level: AlertCritical, Title: "gold-h1 gateway failure", Message: "dial timeout",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got.Level != "CRITICAL" || got.Title != "gold-h1 gateway failure" {
		t.Errorf("payload = %+v", got)
	}
	if got.Ts == "" {
		t.Error("payload missing timestamp")
	}
}

func TestWebhookNotifierRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	wh := NewWebhookNotifier(srv.URL)
	if err := wh.Send(context.Background(), Alert{Level: AlertInfo, Title: "t"}); err == nil {
		t.Fatal("Send succeeded against a 502 endpoint")
	}
}

func TestTelegramNotifierSendsMarkdownV2(t *testing.T) {
	var (
		path string
		got  struct {
			ChatID    string `json:"chat_id"`
			Text      string `json:"text"`
			ParseMode string `json:"parse_mode"`
		}
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	tg := NewTelegramNotifier("tok123", "-10042")
	tg.api = srv.URL
	err := tg.Send(context.Background(), Alert{
		Level: AlertWarning, Title: "gold-h1 closed BUY GOLD (STOP_LOSS)", Message: "profit -3.50",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if path != "/bottok123/sendMessage" {
		t.Errorf("path = %s", path)
	}
	if got.ChatID != "-10042" || got.ParseMode != "MarkdownV2" {
		t.Errorf("payload = %+v", got)
	}
	// title specials escaped, warning emoji prefixed
	if !strings.Contains(got.Text, `\(STOP\_LOSS\)`) {
		t.Errorf("text %q missing escaped title", got.Text)
	}
	if !strings.HasPrefix(got.Text, "⚠️") {
		t.Errorf("text %q missing level emoji", got.Text)
	}
}

func TestTelegramNotifierRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false}`, http.StatusForbidden)
	}))
	defer srv.Close()

	tg := NewTelegramNotifier("tok", "1")
	tg.api = srv.URL
	if err := tg.Send(context.Background(), Alert{Level: AlertInfo, Title: "t"}); err == nil {
		t.Fatal("Send succeeded against a 403 endpoint")
	}
}
