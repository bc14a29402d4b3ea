package centrifugo

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPublishSendsAuthenticatedRequest(t *testing.T) {
	var gotPath, gotAPIKey, gotContentType string
	var gotBody []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAPIKey = r.Header.Get("X-API-Key")
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret")
	err := client.Publish(context.Background(), "games:abc", map[string]any{"type": "game_created"})
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}

	if gotPath != "/publish" {
		t.Errorf("expected path /publish, got %s", gotPath)
	}
	if gotAPIKey != "secret" {
		t.Errorf("expected X-API-Key secret, got %s", gotAPIKey)
	}
	if gotContentType != "application/json" {
		t.Errorf("expected application/json, got %s", gotContentType)
	}

	var body struct {
		Channel string         `json:"channel"`
		Data    map[string]any `json:"data"`
	}
	if err := json.Unmarshal(gotBody, &body); err != nil {
		t.Fatalf("invalid request body: %v", err)
	}
	if body.Channel != "games:abc" {
		t.Errorf("expected channel games:abc, got %s", body.Channel)
	}
	if body.Data["type"] != "game_created" {
		t.Errorf("expected data.type game_created, got %v", body.Data["type"])
	}
}

func TestPublishRetriesTransientFailure(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret")
	err := client.Publish(context.Background(), "games:abc", map[string]any{})
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}

func TestPublishStopsOnCancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(server.URL, "secret")
	if err := client.Publish(ctx, "games:abc", map[string]any{}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
