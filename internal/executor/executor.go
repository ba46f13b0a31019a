package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"github.com/valyala/fastjson"

	"github.com/studiowebux/setu/internal/types"
)

// ErrInvalidRequest is returned before any I/O when the request cannot be sent
var ErrInvalidRequest = errors.New("invalid request")

// NetworkError is any failure of the exchange itself.
// Message is meant for display; Err keeps the underlying cause.
type NetworkError struct {
	Message string
	Err     error
}

func (e *NetworkError) Error() string {
	return e.Message
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func newNetworkError(err error) *NetworkError {
	return &NetworkError{Message: categorizeError(err), Err: err}
}

// Request is what the bridge sends. Multipart is only used when Body is None.
type Request struct {
	Method    types.HttpMethod
	URL       string
	Headers   []types.Header
	Body      types.RequestBody
	Multipart []types.MultipartField
}

// Result carries exactly one of Response or Err
type Result struct {
	Response *types.ResponseData
	Err      error
}

// Bridge executes requests. It is safe for concurrent use.
type Bridge struct {
	client    *http.Client
	userAgent string
	logger    *log.Logger
}

// Option configures a Bridge
type Option func(*Bridge)

// WithHTTPClient replaces the underlying client (tests use httptest clients)
func WithHTTPClient(client *http.Client) Option {
	return func(b *Bridge) {
		b.client = client
	}
}

// WithUserAgent sets the User-Agent added to requests that have none
func WithUserAgent(ua string) Option {
	return func(b *Bridge) {
		b.userAgent = ua
	}
}

// WithTimeout bounds each exchange. Zero leaves the transport default.
func WithTimeout(d time.Duration) Option {
	return func(b *Bridge) {
		b.client.Timeout = d
	}
}

// WithLogger directs body warnings to logger
func WithLogger(logger *log.Logger) Option {
	return func(b *Bridge) {
		b.logger = logger
	}
}

// NewBridge returns a bridge using a dedicated http.Client
func NewBridge(opts ...Option) *Bridge {
	b := &Bridge{
		client:    &http.Client{},
		userAgent: "Setu/0.1.0",
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Dispatch runs Execute on its own goroutine. The returned channel
// receives exactly one Result and is never closed.
func (b *Bridge) Dispatch(ctx context.Context, req Request) <-chan Result {
	resultChan := make(chan Result, 1)
	go func() {
		resp, err := b.Execute(ctx, req)
		resultChan <- Result{Response: resp, Err: err}
	}()
	return resultChan
}

// NormalizeURL trims spaces and prepends https:// when no http(s) scheme is present
func NormalizeURL(rawURL string) string {
	u := strings.TrimSpace(rawURL)
	lower := strings.ToLower(u)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return u
	}
	return "https://" + u
}

// Execute performs the exchange and returns the response.
// Non-2xx statuses are not errors. Response header names come back in
// canonical form (net/http rewrites "x-request-id" as "X-Request-Id") and a
// repeated header keeps its last value.
func (b *Bridge) Execute(ctx context.Context, req Request) (*types.ResponseData, error) {
	if strings.TrimSpace(req.URL) == "" {
		return nil, fmt.Errorf("%w: URL is empty", ErrInvalidRequest)
	}
	method := req.Method
	if method == "" {
		method = types.MethodGet
	}

	body, contentType, err := b.encodeBody(req)
	if err != nil {
		return nil, &NetworkError{Message: err.Error(), Err: err}
	}

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, string(method), NormalizeURL(req.URL), bodyReader)
	if err != nil {
		return nil, newNetworkError(fmt.Errorf("failed to create request: %w", err))
	}

	for _, h := range types.EnabledHeaders(req.Headers) {
		httpReq.Header.Add(h.Key, h.Value)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if httpReq.Header.Get("User-Agent") == "" && b.userAgent != "" {
		httpReq.Header.Set("User-Agent", b.userAgent)
	}

	startTime := time.Now()
	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, newNetworkError(err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	duration := time.Since(startTime).Milliseconds()
	if err != nil {
		return nil, newNetworkError(fmt.Errorf("failed to read response body: %w", err))
	}

	// Duplicate header values collapse to the last one received
	headers := make(map[string]string, len(resp.Header))
	for key, values := range resp.Header {
		if len(values) > 0 {
			headers[key] = values[len(values)-1]
		}
	}

	var respContentType *string
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		respContentType = &ct
	}

	statusText := http.StatusText(resp.StatusCode)
	if statusText == "" {
		statusText = "Unknown"
	}

	return types.NewResponseData(
		uint16(resp.StatusCode),
		statusText,
		headers,
		respContentType,
		strings.ToValidUTF8(string(bodyBytes), "\uFFFD"),
		bodyBytes,
		uint64(duration),
	), nil
}

// encodeBody returns the wire body and the Content-Type it requires ("" to
// keep whatever the headers say).
func (b *Bridge) encodeBody(req Request) ([]byte, string, error) {
	switch req.Body.Kind {
	case types.BodyText:
		return []byte(req.Body.Content), "", nil
	case types.BodyJSON:
		return b.canonicalJSON(req.Body.Content), "application/json", nil
	case types.BodyFormURLEncoded:
		values := url.Values{}
		for k, v := range req.Body.Form {
			values.Set(k, v)
		}
		return []byte(values.Encode()), "application/x-www-form-urlencoded", nil
	default:
		if hasMultipart(req.Multipart) {
			return encodeMultipart(req.Multipart)
		}
		return nil, "", nil
	}
}

// canonicalJSON re-encodes src compactly. Comments and trailing commas are
// stripped first. Input that still doesn't parse is returned unchanged.
func (b *Bridge) canonicalJSON(src string) []byte {
	if strings.TrimSpace(src) == "" {
		return []byte(src)
	}

	var p fastjson.Parser
	v, err := p.ParseBytes(jsonc.ToJSON([]byte(src)))
	if err != nil {
		b.logger.Printf("warning: request body is not valid JSON, sending as-is: %v", err)
		return []byte(src)
	}
	return v.MarshalTo(nil)
}

func hasMultipart(fields []types.MultipartField) bool {
	for _, f := range fields {
		if f.Enabled && f.Key != "" {
			return true
		}
	}
	return false
}

func encodeMultipart(fields []types.MultipartField) ([]byte, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for _, f := range fields {
		if !f.Enabled || f.Key == "" {
			continue
		}

		if f.FilePath == "" {
			if err := writer.WriteField(f.Key, f.Value); err != nil {
				return nil, "", fmt.Errorf("failed to write form field %s: %w", f.Key, err)
			}
			continue
		}

		if err := writeFilePart(writer, f); err != nil {
			return nil, "", err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}
	return buf.Bytes(), writer.FormDataContentType(), nil
}

func writeFilePart(writer *multipart.Writer, f types.MultipartField) error {
	file, err := os.Open(f.FilePath)
	if err != nil {
		return fmt.Errorf("failed to open file for field %s: %w", f.Key, err)
	}
	defer file.Close()

	part, err := writer.CreateFormFile(f.Key, filepath.Base(f.FilePath))
	if err != nil {
		return fmt.Errorf("failed to create file part %s: %w", f.Key, err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("failed to read file for field %s: %w", f.Key, err)
	}
	return nil
}

// FormatDuration formats duration in milliseconds to human-readable string
func FormatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	seconds := float64(ms) / 1000.0
	return fmt.Sprintf("%.2fs", seconds)
}

// FormatSize formats byte size to human-readable string
func FormatSize(bytes int) string {
	if bytes < 1024 {
		return fmt.Sprintf("%dB", bytes)
	}
	if bytes < 1024*1024 {
		return fmt.Sprintf("%.2fKB", float64(bytes)/1024.0)
	}
	return fmt.Sprintf("%.2fMB", float64(bytes)/(1024.0*1024.0))
}

// IsSuccessStatus returns true if status code is 2xx
func IsSuccessStatus(status int) bool {
	return status >= 200 && status < 300
}

// IsClientErrorStatus returns true if status code is 4xx
func IsClientErrorStatus(status int) bool {
	return status >= 400 && status < 500
}

// IsServerErrorStatus returns true if status code is 5xx
func IsServerErrorStatus(status int) bool {
	return status >= 500 && status < 600
}
