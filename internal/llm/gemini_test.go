package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestGeminiClientComplete(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/gemini-test:generateContent") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Oh hi! "}]}}]}`))
	}))
	defer srv.Close()

	client, err := NewGeminiClient(context.Background(), Config{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Model:   "gemini-test",
		Timeout: 2 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewGeminiClient() error = %v", err)
	}
	if client.Name() != ProviderGemini {
		t.Fatalf("unexpected name %q", client.Name())
	}

	reply, err := client.Complete(context.Background(), ChatPrompt{System: "You are at a party.", User: "hello"})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if reply != "Oh hi!" {
		t.Fatalf("unexpected reply %q", reply)
	}
	if _, ok := body["systemInstruction"]; !ok {
		t.Fatalf("expected systemInstruction in request, got %v", body)
	}
}

func TestGeminiClientEmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	client, err := NewGeminiClient(context.Background(), Config{BaseURL: srv.URL, APIKey: "k", Model: "m"})
	if err != nil {
		t.Fatalf("NewGeminiClient() error = %v", err)
	}
	if _, err := client.Complete(context.Background(), ChatPrompt{User: "hello"}); err == nil {
		t.Fatalf("expected error for empty candidates")
	}
}
