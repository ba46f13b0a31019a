package types

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// HttpMethod is one of the supported request methods
type HttpMethod string

const (
	MethodGet     HttpMethod = "GET"
	MethodPost    HttpMethod = "POST"
	MethodPut     HttpMethod = "PUT"
	MethodDelete  HttpMethod = "DELETE"
	MethodPatch   HttpMethod = "PATCH"
	MethodHead    HttpMethod = "HEAD"
	MethodOptions HttpMethod = "OPTIONS"
)

var allMethods = []HttpMethod{
	MethodGet,
	MethodPost,
	MethodPut,
	MethodDelete,
	MethodPatch,
	MethodHead,
	MethodOptions,
}

// Methods returns every supported method in menu order
func Methods() []HttpMethod {
	out := make([]HttpMethod, len(allMethods))
	copy(out, allMethods)
	return out
}

// ParseMethod accepts any casing ("get", "Get", "GET")
func ParseMethod(s string) (HttpMethod, error) {
	m := HttpMethod(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range allMethods {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("unsupported HTTP method %q", s)
}

func (m HttpMethod) String() string {
	return string(m)
}

// Next returns the following method, wrapping after OPTIONS
func (m HttpMethod) Next() HttpMethod {
	for i, known := range allMethods {
		if m == known {
			return allMethods[(i+1)%len(allMethods)]
		}
	}
	return MethodGet
}

// UnmarshalJSON accepts the capitalised names written by older files.
func (m *HttpMethod) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseMethod(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Header is a single request header
type Header struct {
	Key     string `json:"key"`
	Value   string `json:"value"`
	Enabled bool   `json:"enabled"`
}

// NewHeader returns an enabled header
func NewHeader(key, value string) Header {
	return Header{Key: key, Value: value, Enabled: true}
}

// SetHeader updates the first header whose key matches case-insensitively,
// or appends a new enabled one. The matched header is re-enabled.
func SetHeader(headers []Header, key, value string) []Header {
	for i := range headers {
		if strings.EqualFold(headers[i].Key, key) {
			headers[i].Value = value
			headers[i].Enabled = true
			return headers
		}
	}
	return append(headers, NewHeader(key, value))
}

// GetHeader returns the value of the first enabled header matching key
func GetHeader(headers []Header, key string) (string, bool) {
	for _, h := range headers {
		if h.Enabled && strings.EqualFold(h.Key, key) {
			return h.Value, true
		}
	}
	return "", false
}

// EnabledHeaders filters out disabled headers and blank keys
func EnabledHeaders(headers []Header) []Header {
	out := make([]Header, 0, len(headers))
	for _, h := range headers {
		if h.Enabled && strings.TrimSpace(h.Key) != "" {
			out = append(out, h)
		}
	}
	return out
}

// MultipartField is one part of a multipart/form-data body.
// A non-empty FilePath sends the file contents instead of Value.
type MultipartField struct {
	Key      string `json:"key"`
	Value    string `json:"value"`
	FilePath string `json:"file_path,omitempty"`
	Enabled  bool   `json:"enabled"`
}

// DefaultRequestName is the name given to fresh requests
const DefaultRequestName = "New Request"

// RequestData is one editable request
type RequestData struct {
	ID        uuid.UUID        `json:"id"`
	Name      string           `json:"name"`
	URL       string           `json:"url"`
	Method    HttpMethod       `json:"method"`
	Headers   []Header         `json:"headers"`
	Body      RequestBody      `json:"body"`
	Multipart []MultipartField `json:"multipart,omitempty"`
	IsSending bool             `json:"-"`
}

// NewRequestData returns a GET request with a JSON content type header
func NewRequestData() RequestData {
	return RequestData{
		ID:      uuid.New(),
		Name:    DefaultRequestName,
		Method:  MethodGet,
		Headers: []Header{NewHeader("Content-Type", "application/json")},
		Body:    NoBody(),
	}
}

// Clone returns a deep copy that shares nothing with r
func (r RequestData) Clone() RequestData {
	out := r
	if r.Headers != nil {
		out.Headers = make([]Header, len(r.Headers))
		copy(out.Headers, r.Headers)
	}
	if r.Multipart != nil {
		out.Multipart = make([]MultipartField, len(r.Multipart))
		copy(out.Multipart, r.Multipart)
	}
	out.Body = r.Body.Clone()
	return out
}

// DisplayName is the name shown in lists. Unnamed requests fall back to
// their URL without scheme, truncated to 40 characters.
func (r RequestData) DisplayName() string {
	if r.Name != "" && r.Name != DefaultRequestName {
		return r.Name
	}

	url := strings.TrimPrefix(strings.TrimPrefix(r.URL, "https://"), "http://")
	if url == "" {
		return "Untitled Request"
	}

	runes := []rune(url)
	if len(runes) > 40 {
		return string(runes[:37]) + "..."
	}
	return url
}
