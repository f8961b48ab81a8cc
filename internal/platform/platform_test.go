package platform

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"<p>Hello <b>world</b></p>", "Hello world"},
		{"line one\n\n  line two", "line one line two"},
		{`<script>alert("x")</script>safe`, "safe"},
		{"Tom &amp; Jerry's", "Tom & Jerry's"},
	}

	for _, tt := range tests {
		if got := PlainText(tt.in); got != tt.want {
			t.Errorf("PlainText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPlainTextTruncatesOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("あ", MaxDescriptionLength)
	got := PlainText(long)
	if len(got) > MaxDescriptionLength {
		t.Errorf("expected at most %d bytes, got %d", MaxDescriptionLength, len(got))
	}
	if !utf8.ValidString(got) {
		t.Error("expected valid UTF-8 after truncation")
	}
}
