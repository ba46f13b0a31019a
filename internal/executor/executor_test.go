package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/studiowebux/setu/internal/types"
)

type echoReply struct {
	Method      string            `json:"method"`
	Path        string            `json:"path"`
	Query       string            `json:"query"`
	ContentType string            `json:"content_type"`
	UserAgent   string            `json:"user_agent"`
	Headers     map[string]string `json:"headers"`
	Body        string            `json:"body"`
	Form        map[string]string `json:"form,omitempty"`
	Files       map[string]string `json:"files,omitempty"`
}

func newTestRouter(hits *int32) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/echo", func(w http.ResponseWriter, req *http.Request) {
		atomic.AddInt32(hits, 1)
		reply := echoReply{
			Method:      req.Method,
			Path:        req.URL.Path,
			Query:       req.URL.RawQuery,
			ContentType: req.Header.Get("Content-Type"),
			UserAgent:   req.UserAgent(),
			Headers:     map[string]string{},
		}
		for k, v := range req.Header {
			reply.Headers[k] = strings.Join(v, ",")
		}

		if strings.HasPrefix(reply.ContentType, "multipart/form-data") {
			if err := req.ParseMultipartForm(1 << 20); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			reply.Form = map[string]string{}
			for k, v := range req.MultipartForm.Value {
				reply.Form[k] = v[0]
			}
			reply.Files = map[string]string{}
			for k, fhs := range req.MultipartForm.File {
				f, _ := fhs[0].Open()
				data, _ := io.ReadAll(f)
				f.Close()
				reply.Files[k] = fhs[0].Filename + ":" + string(data)
			}
		} else {
			data, _ := io.ReadAll(req.Body)
			reply.Body = string(data)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(reply)
	})

	r.HandleFunc("/teapot", func(w http.ResponseWriter, req *http.Request) {
		atomic.AddInt32(hits, 1)
		w.Header().Add("X-Dup", "first")
		w.Header().Add("X-Dup", "last")
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}).Methods(http.MethodGet)

	r.HandleFunc("/odd", func(w http.ResponseWriter, req *http.Request) {
		atomic.AddInt32(hits, 1)
		w.WriteHeader(599)
	})

	r.HandleFunc("/bytes", func(w http.ResponseWriter, req *http.Request) {
		atomic.AddInt32(hits, 1)
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte{0x89, 'P', 'N', 'G', 0xFF, 0xFE})
	})

	return r
}

func newTestBridge(t *testing.T, server *httptest.Server, opts ...Option) *Bridge {
	t.Helper()
	opts = append([]Option{WithHTTPClient(server.Client())}, opts...)
	return NewBridge(opts...)
}

func decodeEcho(t *testing.T, resp *types.ResponseData) echoReply {
	t.Helper()
	var reply echoReply
	if err := json.Unmarshal([]byte(resp.Body()), &reply); err != nil {
		t.Fatalf("failed to decode echo reply %q: %v", resp.Body(), err)
	}
	return reply
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"example.com/x", "https://example.com/x"},
		{"  example.com  ", "https://example.com"},
		{"http://example.com", "http://example.com"},
		{"HTTPS://example.com", "HTTPS://example.com"},
		{"localhost:8080/api", "https://localhost:8080/api"},
	}

	for _, tt := range tests {
		if got := NormalizeURL(tt.in); got != tt.want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExecuteAddsHTTPSScheme(t *testing.T) {
	var hits int32
	server := httptest.NewTLSServer(newTestRouter(&hits))
	defer server.Close()

	bridge := newTestBridge(t, server)
	schemeless := strings.TrimPrefix(server.URL, "https://") + "/echo?x=1"

	resp, err := bridge.Execute(context.Background(), Request{Method: types.MethodGet, URL: schemeless})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	reply := decodeEcho(t, resp)
	if reply.Path != "/echo" || reply.Query != "x=1" {
		t.Errorf("Unexpected request line %s?%s", reply.Path, reply.Query)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Errorf("Expected 1 hit, got %d", atomic.LoadInt32(&hits))
	}
}

func TestExecuteEmptyURL(t *testing.T) {
	var hits int32
	server := httptest.NewServer(newTestRouter(&hits))
	defer server.Close()

	bridge := newTestBridge(t, server)
	for _, url := range []string{"", "   "} {
		_, err := bridge.Execute(context.Background(), Request{Method: types.MethodGet, URL: url})
		if !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("Expected ErrInvalidRequest for %q, got %v", url, err)
		}
	}
	if atomic.LoadInt32(&hits) != 0 {
		t.Errorf("Expected no network call, got %d hits", atomic.LoadInt32(&hits))
	}
}

func TestExecuteHeaders(t *testing.T) {
	var hits int32
	server := httptest.NewServer(newTestRouter(&hits))
	defer server.Close()

	bridge := newTestBridge(t, server)
	resp, err := bridge.Execute(context.Background(), Request{
		Method: types.MethodGet,
		URL:    server.URL + "/echo",
		Headers: []types.Header{
			types.NewHeader("X-On", "yes"),
			{Key: "X-Off", Value: "no", Enabled: false},
			types.NewHeader("X-Multi", "a"),
			types.NewHeader("X-Multi", "b"),
		},
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	reply := decodeEcho(t, resp)
	if reply.Headers["X-On"] != "yes" {
		t.Errorf("Expected enabled header, got %v", reply.Headers)
	}
	if _, ok := reply.Headers["X-Off"]; ok {
		t.Error("Disabled header was sent")
	}
	if reply.Headers["X-Multi"] != "a,b" {
		t.Errorf("Expected duplicate headers kept, got %q", reply.Headers["X-Multi"])
	}
	if reply.UserAgent != "Setu/0.1.0" {
		t.Errorf("Expected default user agent, got %q", reply.UserAgent)
	}
}

func TestExecuteUserAgent(t *testing.T) {
	var hits int32
	server := httptest.NewServer(newTestRouter(&hits))
	defer server.Close()

	bridge := newTestBridge(t, server, WithUserAgent("probe/2"))

	resp, err := bridge.Execute(context.Background(), Request{URL: server.URL + "/echo"})
	if err != nil {
		t.Fatal(err)
	}
	if got := decodeEcho(t, resp).UserAgent; got != "probe/2" {
		t.Errorf("Expected configured user agent, got %q", got)
	}

	resp, err = bridge.Execute(context.Background(), Request{
		URL:     server.URL + "/echo",
		Headers: []types.Header{types.NewHeader("user-agent", "mine")},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := decodeEcho(t, resp).UserAgent; got != "mine" {
		t.Errorf("Expected request user agent to win, got %q", got)
	}
}

func TestExecuteJSONCanonicalization(t *testing.T) {
	var hits int32
	server := httptest.NewServer(newTestRouter(&hits))
	defer server.Close()

	tests := []struct {
		name string
		body string
		want string
	}{
		{"object", "{\n  \"a\" : 1,\n  \"b\": [1, 2, {\"c\": null}]\n}", `{"a":1,"b":[1,2,{"c":null}]}`},
		{"scalar", "  42 ", `42`},
		{"string escapes", `{"s": "tab\there \"q\""}`, `{"s":"tab\there \"q\""}`},
		{"comments and trailing comma", "{\n  // id\n  \"id\": 7,\n}", `{"id":7}`},
	}

	bridge := newTestBridge(t, server)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := bridge.Execute(context.Background(), Request{
				Method: types.MethodPost,
				URL:    server.URL + "/echo",
				Headers: []types.Header{
					types.NewHeader("Content-Type", "text/plain"),
				},
				Body: types.JSONBody(tt.body),
			})
			if err != nil {
				t.Fatalf("Execute failed: %v", err)
			}

			reply := decodeEcho(t, resp)
			if reply.Body != tt.want {
				t.Errorf("Sent body %q, want %q", reply.Body, tt.want)
			}
			if reply.ContentType != "application/json" {
				t.Errorf("Expected application/json, got %q", reply.ContentType)
			}
		})
	}
}

func TestExecuteJSONCanonicalIsContentIdentical(t *testing.T) {
	var hits int32
	server := httptest.NewServer(newTestRouter(&hits))
	defer server.Close()

	bridge := newTestBridge(t, server)
	inputs := []string{
		`{"name": "ada", "tags": ["x", "y"], "n": 1.5e3, "ok": true}`,
		`[ ]`,
		`{"nested": {"deep": {"deeper": [null, false]}}}`,
		`"just a string"`,
	}

	for _, in := range inputs {
		resp, err := bridge.Execute(context.Background(), Request{
			Method: types.MethodPost,
			URL:    server.URL + "/echo",
			Body:   types.JSONBody(in),
		})
		if err != nil {
			t.Fatal(err)
		}

		var want, got bytes.Buffer
		if err := json.Compact(&want, []byte(in)); err != nil {
			t.Fatal(err)
		}
		if err := json.Compact(&got, []byte(decodeEcho(t, resp).Body)); err != nil {
			t.Fatalf("sent body is not JSON: %v", err)
		}
		if want.String() != got.String() {
			t.Errorf("Sent %s, want %s", got.String(), want.String())
		}
	}
}

func TestExecuteMalformedJSONSentRaw(t *testing.T) {
	var hits int32
	server := httptest.NewServer(newTestRouter(&hits))
	defer server.Close()

	var logs bytes.Buffer
	bridge := newTestBridge(t, server, WithLogger(log.New(&logs, "", 0)))

	raw := `{"broken": `
	resp, err := bridge.Execute(context.Background(), Request{
		Method: types.MethodPost,
		URL:    server.URL + "/echo",
		Body:   types.JSONBody(raw),
	})
	if err != nil {
		t.Fatalf("Malformed JSON must not fail the request: %v", err)
	}

	reply := decodeEcho(t, resp)
	if reply.Body != raw {
		t.Errorf("Expected raw body %q, got %q", raw, reply.Body)
	}
	if reply.ContentType != "application/json" {
		t.Errorf("Expected application/json, got %q", reply.ContentType)
	}
	if !strings.Contains(logs.String(), "warning") {
		t.Errorf("Expected a logged warning, got %q", logs.String())
	}
}

func TestExecuteFormURLEncoded(t *testing.T) {
	var hits int32
	server := httptest.NewServer(newTestRouter(&hits))
	defer server.Close()

	bridge := newTestBridge(t, server)
	resp, err := bridge.Execute(context.Background(), Request{
		Method: types.MethodPost,
		URL:    server.URL + "/echo",
		Body:   types.FormBody(map[string]string{"name": "Ada L", "b": "x&y"}),
	})
	if err != nil {
		t.Fatal(err)
	}

	reply := decodeEcho(t, resp)
	if reply.ContentType != "application/x-www-form-urlencoded" {
		t.Errorf("Expected form content type, got %q", reply.ContentType)
	}
	if reply.Body != "b=x%26y&name=Ada+L" {
		t.Errorf("Unexpected form body %q", reply.Body)
	}
}

func TestExecuteTextBodyKeepsContentType(t *testing.T) {
	var hits int32
	server := httptest.NewServer(newTestRouter(&hits))
	defer server.Close()

	bridge := newTestBridge(t, server)
	resp, err := bridge.Execute(context.Background(), Request{
		Method:  types.MethodPut,
		URL:     server.URL + "/echo",
		Headers: []types.Header{types.NewHeader("Content-Type", "text/csv")},
		Body:    types.TextBody("a,b\n1,2"),
	})
	if err != nil {
		t.Fatal(err)
	}

	reply := decodeEcho(t, resp)
	if reply.Method != http.MethodPut || reply.ContentType != "text/csv" || reply.Body != "a,b\n1,2" {
		t.Errorf("Unexpected echo %+v", reply)
	}
}

func TestExecuteMultipart(t *testing.T) {
	var hits int32
	server := httptest.NewServer(newTestRouter(&hits))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "note.txt")
	if err := os.WriteFile(path, []byte("file contents"), 0644); err != nil {
		t.Fatal(err)
	}

	bridge := newTestBridge(t, server)
	resp, err := bridge.Execute(context.Background(), Request{
		Method: types.MethodPost,
		URL:    server.URL + "/echo",
		Multipart: []types.MultipartField{
			{Key: "title", Value: "hello", Enabled: true},
			{Key: "upload", FilePath: path, Enabled: true},
			{Key: "skipped", Value: "x", Enabled: false},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	reply := decodeEcho(t, resp)
	if reply.Form["title"] != "hello" {
		t.Errorf("Expected text field, got %v", reply.Form)
	}
	if _, ok := reply.Form["skipped"]; ok {
		t.Error("Disabled field was sent")
	}
	if reply.Files["upload"] != "note.txt:file contents" {
		t.Errorf("Unexpected file part %q", reply.Files["upload"])
	}
}

func TestExecuteMultipartMissingFile(t *testing.T) {
	var hits int32
	server := httptest.NewServer(newTestRouter(&hits))
	defer server.Close()

	bridge := newTestBridge(t, server)
	_, err := bridge.Execute(context.Background(), Request{
		Method:    types.MethodPost,
		URL:       server.URL + "/echo",
		Multipart: []types.MultipartField{{Key: "f", FilePath: "/does/not/exist", Enabled: true}},
	})

	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("Expected NetworkError, got %v", err)
	}
	if atomic.LoadInt32(&hits) != 0 {
		t.Errorf("Expected no network call, got %d", atomic.LoadInt32(&hits))
	}
}

func TestExecuteResponse(t *testing.T) {
	var hits int32
	server := httptest.NewServer(newTestRouter(&hits))
	defer server.Close()

	bridge := newTestBridge(t, server)

	resp, err := bridge.Execute(context.Background(), Request{Method: types.MethodGet, URL: server.URL + "/teapot"})
	if err != nil {
		t.Fatalf("Non-2xx must not be an error: %v", err)
	}
	if resp.StatusCode != http.StatusTeapot || resp.StatusText != "I'm a teapot" {
		t.Errorf("Unexpected status %d %q", resp.StatusCode, resp.StatusText)
	}
	if resp.Headers["X-Dup"] != "last" {
		t.Errorf("Expected last-wins header, got %q", resp.Headers["X-Dup"])
	}
	if resp.Body() != "short and stout" || resp.BodySizeBytes != len("short and stout") {
		t.Errorf("Unexpected body %q (%d bytes)", resp.Body(), resp.BodySizeBytes)
	}

	resp, err = bridge.Execute(context.Background(), Request{URL: server.URL + "/odd"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusText != "Unknown" {
		t.Errorf("Expected Unknown reason, got %q", resp.StatusText)
	}
}

func TestExecuteResponseHeaderNames(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/raw", func(w http.ResponseWriter, req *http.Request) {
		// Set the map directly so the name goes out lower case
		w.Header()["x-request-id"] = []string{"abc"}
		w.WriteHeader(http.StatusOK)
	})
	server := httptest.NewServer(r)
	defer server.Close()

	resp, err := newTestBridge(t, server).Execute(context.Background(), Request{URL: server.URL + "/raw"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Headers["X-Request-Id"] != "abc" {
		t.Errorf("Expected canonical header name, got %v", resp.Headers)
	}
	if _, ok := resp.Headers["x-request-id"]; ok {
		t.Error("Expected no lower-case header name")
	}
}

func TestExecuteBinaryBody(t *testing.T) {
	var hits int32
	server := httptest.NewServer(newTestRouter(&hits))
	defer server.Close()

	bridge := newTestBridge(t, server)
	resp, err := bridge.Execute(context.Background(), Request{URL: server.URL + "/bytes"})
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(resp.BodyBytes(), []byte{0x89, 'P', 'N', 'G', 0xFF, 0xFE}) {
		t.Errorf("Raw bytes not preserved: %v", resp.BodyBytes())
	}
	if !strings.Contains(resp.Body(), "�") {
		t.Errorf("Expected lossy text decoding, got %q", resp.Body())
	}
	if !resp.IsImage() {
		t.Errorf("Expected image category, got %v", resp.Category())
	}
	if resp.ContentType == nil || *resp.ContentType != "image/png" {
		t.Error("Expected content type image/png")
	}
}

func TestExecuteConnectionRefused(t *testing.T) {
	var hits int32
	server := httptest.NewServer(newTestRouter(&hits))
	url := server.URL
	server.Close()

	bridge := NewBridge()
	_, err := bridge.Execute(context.Background(), Request{URL: url + "/echo"})

	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("Expected NetworkError, got %v", err)
	}
	if !strings.HasPrefix(netErr.Message, "Connection refused") {
		t.Errorf("Unexpected message %q", netErr.Message)
	}
}

func TestExecuteTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	bridge := NewBridge(WithTimeout(20 * time.Millisecond))
	_, err := bridge.Execute(context.Background(), Request{URL: server.URL})

	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("Expected NetworkError, got %v", err)
	}
	if netErr.Message != msgTimeout {
		t.Errorf("Expected timeout message, got %q", netErr.Message)
	}
}

func TestDispatchDeliversOnce(t *testing.T) {
	var hits int32
	server := httptest.NewServer(newTestRouter(&hits))
	defer server.Close()

	bridge := newTestBridge(t, server)
	ch := bridge.Dispatch(context.Background(), Request{URL: server.URL + "/teapot"})

	select {
	case result := <-ch:
		if result.Err != nil || result.Response == nil {
			t.Fatalf("Unexpected result %+v", result)
		}
		if result.Response.StatusCode != http.StatusTeapot {
			t.Errorf("Unexpected status %d", result.Response.StatusCode)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Dispatch never delivered")
	}

	select {
	case extra := <-ch:
		t.Errorf("Expected a single result, got another %+v", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDispatchInvalidRequest(t *testing.T) {
	result := <-NewBridge().Dispatch(context.Background(), Request{})
	if !errors.Is(result.Err, ErrInvalidRequest) || result.Response != nil {
		t.Errorf("Expected ErrInvalidRequest, got %+v", result)
	}
}

func TestFormatHelpers(t *testing.T) {
	if FormatDuration(250) != "250ms" || FormatDuration(1500) != "1.50s" {
		t.Errorf("Unexpected durations %s %s", FormatDuration(250), FormatDuration(1500))
	}
	if FormatSize(100) != "100B" || FormatSize(2048) != "2.00KB" {
		t.Errorf("Unexpected sizes %s %s", FormatSize(100), FormatSize(2048))
	}
	if !IsSuccessStatus(204) || IsSuccessStatus(301) || !IsClientErrorStatus(404) || !IsServerErrorStatus(503) {
		t.Error("Unexpected status classification")
	}
}
