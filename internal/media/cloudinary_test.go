package media

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSignParams(t *testing.T) {
	params := map[string]string{
		"transformation": "e_background_removal",
		"timestamp":      "1700000000",
	}
	sum := sha1.Sum([]byte("timestamp=1700000000&transformation=e_background_removal" + "shh"))
	expected := hex.EncodeToString(sum[:])

	if got := signParams(params, "shh"); got != expected {
		t.Errorf("expected signature %s, got %s", expected, got)
	}
}

func TestTransformURL(t *testing.T) {
	svc := &CloudinaryService{cloudName: "demo"}

	tests := []struct {
		name           string
		publicID       string
		format         string
		transformation string
		expected       string
	}{
		{
			name:           "带变换",
			publicID:       "abc123",
			format:         "png",
			transformation: "e_gen_remove:prompt_watch",
			expected:       "https://res.cloudinary.com/demo/image/upload/e_gen_remove:prompt_watch/abc123.png",
		},
		{
			name:     "无变换",
			publicID: "abc123",
			format:   "jpg",
			expected: "https://res.cloudinary.com/demo/image/upload/abc123.jpg",
		},
		{
			name:           "无格式后缀",
			publicID:       "abc123",
			transformation: "e_background_removal",
			expected:       "https://res.cloudinary.com/demo/image/upload/e_background_removal/abc123",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := svc.TransformURL(tt.publicID, tt.format, tt.transformation); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestCloudinaryUpload(t *testing.T) {
	fixedTime := time.Unix(1700000000, 0)
	var form map[string]string
	var hasFile bool

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("failed to parse multipart form: %v", err)
		}
		form = map[string]string{}
		for key := range r.MultipartForm.Value {
			form[key] = r.FormValue(key)
		}
		_, hasFile = r.MultipartForm.File["file"]
		_ = json.NewEncoder(w).Encode(UploadResult{
			PublicID:  "uploaded123",
			SecureURL: "https://res.cloudinary.com/demo/image/upload/uploaded123.png",
			Format:    "png",
		})
	}))
	defer server.Close()

	svc := &CloudinaryService{
		httpClient: server.Client(),
		cloudName:  "demo",
		apiKey:     "key123",
		apiSecret:  "shh",
		baseURL:    server.URL,
		now:        func() time.Time { return fixedTime },
	}

	result, err := svc.Upload(context.Background(), []byte("fake image"), "photo.png", "e_background_removal")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.PublicID != "uploaded123" || result.Format != "png" {
		t.Errorf("unexpected result: %+v", result)
	}
	if !hasFile {
		t.Error("expected file part in upload")
	}
	if form["api_key"] != "key123" {
		t.Errorf("unexpected api_key field %q", form["api_key"])
	}
	if form["timestamp"] != "1700000000" {
		t.Errorf("unexpected timestamp field %q", form["timestamp"])
	}
	if form["transformation"] != "e_background_removal" {
		t.Errorf("unexpected transformation field %q", form["transformation"])
	}
	expectedSig := signParams(map[string]string{
		"timestamp":      "1700000000",
		"transformation": "e_background_removal",
	}, "shh")
	if form["signature"] != expectedSig {
		t.Errorf("expected signature %s, got %s", expectedSig, form["signature"])
	}
}

func TestCloudinaryUploadAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "Invalid Signature"},
		})
	}))
	defer server.Close()

	svc := &CloudinaryService{
		httpClient: server.Client(),
		cloudName:  "demo",
		apiKey:     "key123",
		apiSecret:  "shh",
		baseURL:    server.URL,
		now:        time.Now,
	}

	_, err := svc.Upload(context.Background(), []byte("fake image"), "photo.png", "")
	if err == nil {
		t.Fatal("expected error for 401 response")
	}
	if err.Error() != "Invalid Signature" {
		t.Errorf("expected api error message, got %q", err.Error())
	}
}

func TestCloudinaryUploadRejectsEmptyPayload(t *testing.T) {
	svc := &CloudinaryService{cloudName: "demo", apiKey: "k", apiSecret: "s", baseURL: "https://api.example.com", httpClient: http.DefaultClient, now: time.Now}
	if _, err := svc.Upload(context.Background(), nil, "x.png", ""); err == nil {
		t.Fatal("expected error for empty payload")
	}
}
