package notify

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDiscordNotifier_PostsContent(t *testing.T) {
	var (
		gotContentType string
		gotBody        []byte
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	n := NewDiscordNotifier(server.URL, slog.New(slog.DiscardHandler))
	n.Notify(context.Background(), "download failed for maxz")

	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", gotContentType)
	}

	var payload map[string]string
	if err := json.Unmarshal(gotBody, &payload); err != nil {
		t.Fatalf("failed to unmarshal payload: %v", err)
	}
	if payload["content"] != "download failed for maxz" {
		t.Errorf("content = %q, want %q", payload["content"], "download failed for maxz")
	}
}

func TestDiscordNotifier_ServerErrorDoesNotPanic(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	n := NewDiscordNotifier(server.URL, slog.New(slog.DiscardHandler))
	n.Notify(context.Background(), "message")
}

func TestNewDiscordNotifier_EmptyURL(t *testing.T) {
	n := NewDiscordNotifier("", slog.New(slog.DiscardHandler))
	if _, ok := n.(NoopNotifier); !ok {
		t.Fatalf("expected NoopNotifier for empty URL, got %T", n)
	}
	// Must be safe to call.
	n.Notify(context.Background(), "message")
}
