// Package content classifies response bodies so viewers can pick a formatter.
package content

import (
	"bytes"
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// Category is the coarse kind of a response body.
type Category int

const (
	Text Category = iota
	JSON
	HTML
	XML
	Image
	Binary
)

func (c Category) String() string {
	switch c {
	case JSON:
		return "json"
	case HTML:
		return "html"
	case XML:
		return "xml"
	case Image:
		return "image"
	case Binary:
		return "binary"
	default:
		return "text"
	}
}

// Classify maps a Content-Type header value to a Category.
// Matching is case-insensitive and the first rule that applies wins.
func Classify(contentType string) Category {
	ct := strings.ToLower(strings.TrimSpace(contentType))

	switch {
	case strings.Contains(ct, "json"):
		return JSON
	case strings.Contains(ct, "html"):
		return HTML
	case strings.Contains(ct, "xml"):
		return XML
	case strings.HasPrefix(ct, "image/"):
		return Image
	case ct == "",
		strings.HasPrefix(ct, "text/"),
		strings.Contains(ct, "javascript"),
		strings.Contains(ct, "css"):
		return Text
	default:
		return Binary
	}
}

// Detect classifies using the header first and falls back to sniffing the
// body when the header is missing or only says "octet-stream".
func Detect(contentType string, body []byte) Category {
	category := Classify(contentType)

	ct := strings.ToLower(strings.TrimSpace(contentType))
	generic := ct == "" || strings.HasPrefix(ct, "application/octet-stream")
	if !generic {
		return category
	}

	if LooksLikeImage(body) {
		return Image
	}
	if ct == "" && len(body) > 0 && !LooksLikeText(body) {
		return Binary
	}
	return category
}

var imageSignatures = [][]byte{
	{0x89, 'P', 'N', 'G'},
	{0xFF, 0xD8, 0xFF},
	[]byte("GIF87a"),
	[]byte("GIF89a"),
	[]byte("BM"),
}

// LooksLikeImage reports whether body starts with a known image signature.
func LooksLikeImage(body []byte) bool {
	for _, sig := range imageSignatures {
		if bytes.HasPrefix(body, sig) {
			return true
		}
	}
	// RIFF....WEBP
	return len(body) >= 12 && bytes.Equal(body[0:4], []byte("RIFF")) && bytes.Equal(body[8:12], []byte("WEBP"))
}

// LooksLikeText reports whether at least 90% of the sampled runes are printable.
func LooksLikeText(body []byte) bool {
	sample := body
	if len(sample) > 1024 {
		sample = sample[:1024]
	}
	if len(sample) == 0 {
		return true
	}

	total, printable := 0, 0
	for len(sample) > 0 {
		r, size := utf8.DecodeRune(sample)
		sample = sample[size:]
		total++
		if r == utf8.RuneError && size <= 1 {
			continue
		}
		if r == '\n' || r == '\r' || r == '\t' || r >= 0x20 && r != 0x7F {
			printable++
		}
	}
	return printable*10 >= total*9
}

// Pretty formats body for display. JSON is indented with two spaces;
// everything else, including JSON that fails to parse, is returned as is.
func Pretty(body string, category Category) string {
	if category != JSON || body == "" {
		return body
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(body), "", "  "); err != nil {
		return body
	}
	return buf.String()
}
