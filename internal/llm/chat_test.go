package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newChatTestService(server *httptest.Server) *ChatService {
	return &ChatService{
		httpClient: server.Client(),
		apiKey:     "test-key",
		baseURL:    server.URL,
		model:      "gemini-2.0-flash",
	}
}

func TestChatServiceComplete(t *testing.T) {
	var captured chatCompletionRequest
	var capturedAuth string
	var capturedPath string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedAuth = r.Header.Get("Authorization")
		capturedPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "a fine article"}},
			},
		})
	}))
	defer server.Close()

	svc := newChatTestService(server)
	content, err := svc.Complete(context.Background(), "write about tea", 800)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if content != "a fine article" {
		t.Errorf("expected first choice content, got %q", content)
	}
	if capturedPath != "/chat/completions" {
		t.Errorf("unexpected endpoint path %q", capturedPath)
	}
	if capturedAuth != "Bearer test-key" {
		t.Errorf("unexpected authorization header %q", capturedAuth)
	}
	if captured.Model != "gemini-2.0-flash" {
		t.Errorf("unexpected model %q", captured.Model)
	}
	if captured.Temperature != 0.7 {
		t.Errorf("expected temperature 0.7, got %v", captured.Temperature)
	}
	if captured.MaxTokens != 800 {
		t.Errorf("expected max_tokens 800, got %d", captured.MaxTokens)
	}
	if len(captured.Messages) != 1 || captured.Messages[0].Role != "user" || captured.Messages[0].Content != "write about tea" {
		t.Errorf("unexpected messages payload: %+v", captured.Messages)
	}
}

func TestChatServiceCompleteAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": 429, "message": "quota exceeded"},
		})
	}))
	defer server.Close()

	svc := newChatTestService(server)
	_, err := svc.Complete(context.Background(), "prompt", 100)
	if err == nil {
		t.Fatal("expected error for 429 response")
	}
	if err.Error() != "quota exceeded" {
		t.Errorf("expected api error message to pass through, got %q", err.Error())
	}
}

func TestChatServiceCompleteNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer server.Close()

	svc := newChatTestService(server)
	if _, err := svc.Complete(context.Background(), "prompt", 100); err == nil {
		t.Fatal("expected error when response has no choices")
	}
}
