package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClipdropServiceGenerate(t *testing.T) {
	imageBytes := []byte{0x89, 0x50, 0x4E, 0x47}
	var capturedKey string
	var capturedPrompt string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedKey = r.Header.Get("x-api-key")
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			t.Errorf("expected multipart request, got %q", r.Header.Get("Content-Type"))
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("failed to parse multipart form: %v", err)
		}
		capturedPrompt = r.FormValue("prompt")
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(imageBytes)
	}))
	defer server.Close()

	svc := &ClipdropService{httpClient: server.Client(), apiKey: "cd-key", endpoint: server.URL}
	data, err := svc.Generate(context.Background(), "a red fox")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(data, imageBytes) {
		t.Errorf("expected raw image bytes back, got %v", data)
	}
	if capturedKey != "cd-key" {
		t.Errorf("unexpected api key header %q", capturedKey)
	}
	if capturedPrompt != "a red fox" {
		t.Errorf("unexpected prompt field %q", capturedPrompt)
	}
}

func TestClipdropServiceGenerateAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "prompt is too long"})
	}))
	defer server.Close()

	svc := &ClipdropService{httpClient: server.Client(), apiKey: "cd-key", endpoint: server.URL}
	_, err := svc.Generate(context.Background(), "prompt")
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if err.Error() != "prompt is too long" {
		t.Errorf("expected vendor error message, got %q", err.Error())
	}
}

func TestClipdropServiceGenerateEmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := &ClipdropService{httpClient: server.Client(), apiKey: "cd-key", endpoint: server.URL}
	if _, err := svc.Generate(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error for empty response body")
	}
}
