package pdfex

import "testing"

func TestExtractTextEmptyPayload(t *testing.T) {
	if _, err := ExtractText(nil); err == nil {
		t.Fatal("expected error for empty payload")
	}
}

func TestExtractTextInvalidPDF(t *testing.T) {
	if _, err := ExtractText([]byte("this is not a pdf")); err == nil {
		t.Fatal("expected error for invalid pdf data")
	}
}
