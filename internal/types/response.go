package types

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/studiowebux/setu/internal/content"
)

// ResponseData is one received HTTP response.
// The body is only reachable through Body/SetBody so the derived hash and
// formatted text can never drift from it.
type ResponseData struct {
	StatusCode    uint16
	StatusText    string
	Headers       map[string]string
	ContentType   *string
	BodySizeBytes int
	DurationMs    uint64

	body      string
	bodyBytes []byte
	cache     *bodyCache
}

// bodyCache belongs to exactly one body value. SetBody swaps in a fresh
// cache, which drops both derived values at once.
type bodyCache struct {
	hashOnce sync.Once
	hash     uint64

	formatOnce sync.Once
	formatted  string
}

// NewResponseData builds a response with body text and raw bytes set.
func NewResponseData(statusCode uint16, statusText string, headers map[string]string, contentType *string, body string, raw []byte, durationMs uint64) *ResponseData {
	r := &ResponseData{
		StatusCode:  statusCode,
		StatusText:  statusText,
		Headers:     headers,
		ContentType: contentType,
		DurationMs:  durationMs,
	}
	r.SetBody(body, raw)
	return r
}

// SetBody replaces the body and invalidates every derived value.
// BodySizeBytes follows the raw bytes, or the text length when raw is nil.
func (r *ResponseData) SetBody(body string, raw []byte) {
	r.body = body
	r.bodyBytes = raw
	if raw != nil {
		r.BodySizeBytes = len(raw)
	} else {
		r.BodySizeBytes = len(body)
	}
	r.cache = &bodyCache{}
}

func (r *ResponseData) Body() string { return r.body }

// BodyBytes returns the raw body. It is empty for responses loaded from disk.
func (r *ResponseData) BodyBytes() []byte { return r.bodyBytes }

func (r *ResponseData) ensureCache() *bodyCache {
	if r.cache == nil {
		r.cache = &bodyCache{}
	}
	return r.cache
}

// BodyHash is an FNV-64a digest of the body text
func (r *ResponseData) BodyHash() uint64 {
	c := r.ensureCache()
	c.hashOnce.Do(func() {
		h := fnv.New64a()
		h.Write([]byte(r.body))
		c.hash = h.Sum64()
	})
	return c.hash
}

// FormattedBody returns the display form of the body, computed once.
func (r *ResponseData) FormattedBody() string {
	c := r.ensureCache()
	c.formatOnce.Do(func() {
		c.formatted = content.Pretty(r.body, r.Category())
	})
	return c.formatted
}

func (r *ResponseData) contentType() string {
	if r.ContentType == nil {
		return ""
	}
	return *r.ContentType
}

// Category classifies the body from the content type, sniffing raw bytes
// when the header is absent or generic.
func (r *ResponseData) Category() content.Category {
	return content.Detect(r.contentType(), r.bodyBytes)
}

func (r *ResponseData) IsJSON() bool { return r.Category() == content.JSON }

func (r *ResponseData) IsImage() bool { return r.Category() == content.Image }

// StatusClass returns the status family: 1..5 for 1xx..5xx, 0 otherwise
func (r *ResponseData) StatusClass() int {
	if r.StatusCode < 100 || r.StatusCode > 599 {
		return 0
	}
	return int(r.StatusCode / 100)
}

// IsSuccess reports a 2xx status
func (r *ResponseData) IsSuccess() bool { return r.StatusClass() == 2 }

// FormattedSize renders BodySizeBytes as B, KB or MB
func (r *ResponseData) FormattedSize() string {
	size := r.BodySizeBytes
	switch {
	case size < 1024:
		return fmt.Sprintf("%d B", size)
	case size < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(size)/1024.0)
	default:
		return fmt.Sprintf("%.1f MB", float64(size)/(1024.0*1024.0))
	}
}

// FormattedDuration renders DurationMs as ms below one second, s above
func (r *ResponseData) FormattedDuration() string {
	if r.DurationMs < 1000 {
		return fmt.Sprintf("%d ms", r.DurationMs)
	}
	return fmt.Sprintf("%.2f s", float64(r.DurationMs)/1000.0)
}

// Clone copies the response. The copy keeps the cache, since the body is
// identical, and gets its own header map and byte slice.
func (r *ResponseData) Clone() *ResponseData {
	if r == nil {
		return nil
	}
	out := *r
	if r.Headers != nil {
		out.Headers = make(map[string]string, len(r.Headers))
		for k, v := range r.Headers {
			out.Headers[k] = v
		}
	}
	if r.bodyBytes != nil {
		out.bodyBytes = append([]byte(nil), r.bodyBytes...)
	}
	if r.ContentType != nil {
		ct := *r.ContentType
		out.ContentType = &ct
	}
	return &out
}

type responseJSON struct {
	StatusCode    uint16            `json:"status_code"`
	StatusText    string            `json:"status_text"`
	Headers       map[string]string `json:"headers"`
	Body          string            `json:"body"`
	BodyBytes     []byte            `json:"body_bytes,omitempty"`
	BodySizeBytes int               `json:"body_size_bytes"`
	DurationMs    uint64            `json:"duration_ms"`
	ContentType   *string           `json:"content_type"`
}

// MarshalJSON never writes the raw bytes.
func (r *ResponseData) MarshalJSON() ([]byte, error) {
	headers := r.Headers
	if headers == nil {
		headers = map[string]string{}
	}
	return json.Marshal(responseJSON{
		StatusCode:    r.StatusCode,
		StatusText:    r.StatusText,
		Headers:       headers,
		Body:          r.body,
		BodySizeBytes: r.BodySizeBytes,
		DurationMs:    r.DurationMs,
		ContentType:   r.ContentType,
	})
}

// UnmarshalJSON accepts body_bytes when present (older files wrote it as base64).
func (r *ResponseData) UnmarshalJSON(data []byte) error {
	var raw responseJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = ResponseData{
		StatusCode:  raw.StatusCode,
		StatusText:  raw.StatusText,
		Headers:     raw.Headers,
		ContentType: raw.ContentType,
		DurationMs:  raw.DurationMs,
	}
	r.SetBody(raw.Body, raw.BodyBytes)
	if raw.BodySizeBytes > 0 {
		r.BodySizeBytes = raw.BodySizeBytes
	}
	return nil
}
