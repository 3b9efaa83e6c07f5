package service

import (
	"strings"
	"testing"
)

func TestValidatePrompt(t *testing.T) {
	if _, failure := validatePrompt("   "); failure == nil {
		t.Fatal("expected failure for blank prompt")
	}

	prompt, failure := validatePrompt("  write a poem  ")
	if failure != nil {
		t.Fatalf("unexpected failure: %v", failure)
	}
	if prompt != "write a poem" {
		t.Errorf("expected trimmed prompt, got %q", prompt)
	}
}

func TestClampArticleLength(t *testing.T) {
	tests := []struct {
		name     string
		length   int
		expected int
	}{
		{name: "零值取默认", length: 0, expected: 800},
		{name: "负值取默认", length: -5, expected: 800},
		{name: "正常值保留", length: 1200, expected: 1200},
		{name: "超大值截断", length: 100000, expected: 4096},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := clampArticleLength(tt.length); got != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestValidateObjectName(t *testing.T) {
	tests := []struct {
		name     string
		object   string
		expected string
		wantErr  bool
	}{
		{name: "单个词转小写", object: "  Watch  ", expected: "watch"},
		{name: "空值拒绝", object: "   ", wantErr: true},
		{name: "多个词拒绝", object: "red car", wantErr: true},
		{name: "制表符分隔也算多词", object: "a\tb", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, failure := validateObjectName(tt.object)
			if tt.wantErr {
				if failure == nil {
					t.Fatal("expected failure")
				}
				return
			}
			if failure != nil {
				t.Fatalf("unexpected failure: %v", failure)
			}
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestValidateImageUpload(t *testing.T) {
	if failure := validateImageUpload(nil); failure == nil {
		t.Error("expected failure for missing file")
	}
	if failure := validateImageUpload(&UploadedFile{Size: 100, MimeType: "application/pdf"}); failure == nil {
		t.Error("expected failure for non-image mime type")
	}
	if failure := validateImageUpload(&UploadedFile{Size: 100, MimeType: "image/png"}); failure != nil {
		t.Errorf("unexpected failure: %v", failure)
	}
}

func TestValidateResumeUpload(t *testing.T) {
	if failure := validateResumeUpload(nil); failure == nil {
		t.Error("expected failure for missing file")
	}

	over := &UploadedFile{Size: maxResumeBytes + 1, MimeType: "application/pdf"}
	failure := validateResumeUpload(over)
	if failure == nil {
		t.Fatal("expected failure for oversized resume")
	}
	if !strings.Contains(failure.Message, "5MB") {
		t.Errorf("expected size message, got %q", failure.Message)
	}

	if failure := validateResumeUpload(&UploadedFile{Size: 100, MimeType: "image/png"}); failure == nil {
		t.Error("expected failure for non-pdf mime type")
	}
	if failure := validateResumeUpload(&UploadedFile{Size: 100, MimeType: "application/pdf"}); failure != nil {
		t.Errorf("unexpected failure: %v", failure)
	}
	if failure := validateResumeUpload(&UploadedFile{Size: 100, MimeType: "APPLICATION/PDF"}); failure != nil {
		t.Errorf("mime check should be case-insensitive: %v", failure)
	}
}
