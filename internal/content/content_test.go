package content

import (
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		contentType string
		want        Category
	}{
		{"application/json; charset=utf-8", JSON},
		{"application/problem+json", JSON},
		{"APPLICATION/JSON", JSON},
		{"text/html", HTML},
		{"application/xhtml+xml", HTML},
		{"application/xml", XML},
		{"text/xml", XML},
		{"image/png", Image},
		{"Image/JPEG", Image},
		{"text/plain", Text},
		{"application/javascript", Text},
		{"text/css", Text},
		{"", Text},
		{"   ", Text},
		{"application/octet-stream", Binary},
		{"audio/mpeg", Binary},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			if got := Classify(tt.contentType); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.contentType, got, tt.want)
			}
		})
	}
}

func TestDetect(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
	webp := []byte("RIFF\x00\x00\x00\x00WEBPVP8 ")

	tests := []struct {
		name        string
		contentType string
		body        []byte
		want        Category
	}{
		{"header wins", "application/json", png, JSON},
		{"octet-stream png", "application/octet-stream", png, Image},
		{"missing header png", "", png, Image},
		{"missing header webp", "", webp, Image},
		{"missing header text", "", []byte("hello world"), Text},
		{"missing header binary", "", []byte{0x00, 0x01, 0x02, 0x03, 0xFE}, Binary},
		{"octet-stream unknown", "application/octet-stream", []byte{0x00, 0x01}, Binary},
		{"missing header empty body", "", nil, Text},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect(tt.contentType, tt.body); got != tt.want {
				t.Errorf("Detect() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPretty(t *testing.T) {
	got := Pretty(`{"a":1,"b":[true]}`, JSON)
	want := "{\n  \"a\": 1,\n  \"b\": [\n    true\n  ]\n}"
	if got != want {
		t.Errorf("Pretty() = %q, want %q", got, want)
	}

	if got := Pretty("{broken", JSON); got != "{broken" {
		t.Errorf("Expected malformed JSON to pass through, got %q", got)
	}
	if got := Pretty(`{"a":1}`, Text); got != `{"a":1}` {
		t.Errorf("Expected text to pass through, got %q", got)
	}
}

func TestHighlight(t *testing.T) {
	body := `{"a": 1}`
	if got := Highlight(body, Text); got != body {
		t.Errorf("Expected plain text unchanged, got %q", got)
	}

	got := Highlight(body, JSON)
	if !strings.Contains(got, "\x1b[") {
		t.Errorf("Expected ANSI escapes in highlighted JSON, got %q", got)
	}
}
