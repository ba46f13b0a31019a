package executor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"syscall"
	"testing"
)

func TestCategorizeRequestError(t *testing.T) {
	tests := []struct {
		name     string
		errStr   string
		wantText string
	}{
		{
			name:     "empty error",
			errStr:   "",
			wantText: "",
		},
		{
			name:     "context deadline exceeded",
			errStr:   "Get \"http://example.com\": context deadline exceeded",
			wantText: msgTimeout,
		},
		{
			name:     "DNS lookup failure",
			errStr:   "dial tcp: lookup nonexistent.example.com: no such host",
			wantText: msgDNS,
		},
		{
			name:     "connection refused",
			errStr:   "dial tcp 127.0.0.1:9999: connect: connection refused",
			wantText: msgRefused,
		},
		{
			name:     "connection reset",
			errStr:   "read tcp 127.0.0.1:8080->127.0.0.1:54321: read: connection reset by peer",
			wantText: msgReset,
		},
		{
			name:     "proxy before refused",
			errStr:   "proxyconnect tcp: dial tcp 10.0.0.1:3128: connect: connection refused",
			wantText: "Proxy connection failed - verify HTTP_PROXY / HTTPS_PROXY settings",
		},
		{
			name:     "TLS certificate unknown authority",
			errStr:   "x509: certificate signed by unknown authority",
			wantText: msgUntrusted,
		},
		{
			name:     "TLS certificate expired",
			errStr:   "x509: certificate has expired or is not yet valid",
			wantText: "TLS certificate has expired or is not yet valid",
		},
		{
			name:     "TLS hostname mismatch",
			errStr:   "x509: certificate is valid for example.com, not example.org",
			wantText: "TLS hostname mismatch - certificate doesn't match the requested hostname",
		},
		{
			name:     "plain HTTP server behind https",
			errStr:   "http: server gave HTTP response to HTTPS client; tls: first record does not look like a TLS handshake",
			wantText: "TLS handshake failed - the server may only speak plain HTTP, try http://",
		},
		{
			name:     "redirect loop",
			errStr:   "Get \"/loop\": stopped after 10 redirects",
			wantText: "Too many redirects - check server configuration or URL",
		},
		{
			name:     "unexpected EOF",
			errStr:   "Get \"http://x\": unexpected EOF",
			wantText: "Connection closed unexpectedly - server terminated the connection prematurely",
		},
		{
			name:     "unknown",
			errStr:   "something odd",
			wantText: "Request failed: something odd",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := categorizeRequestError(tt.errStr); got != tt.wantText {
				t.Errorf("categorizeRequestError() = %q, want %q", got, tt.wantText)
			}
		})
	}
}

func TestCategorizeError(t *testing.T) {
	refused := &url.Error{
		Op:  "Get",
		URL: "http://127.0.0.1:1",
		Err: &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)},
	}

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"deadline", fmt.Errorf("wrapped: %w", context.DeadlineExceeded), msgTimeout},
		{"canceled", context.Canceled, msgCancelled},
		{"dns", &url.Error{Op: "Get", URL: "http://nope", Err: &net.DNSError{Err: "no such host", Name: "nope"}}, msgDNS},
		{"refused errno", refused, msgRefused},
		{"text fallback", errors.New("connection reset by peer"), msgReset},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := categorizeError(tt.err); got != tt.want {
				t.Errorf("categorizeError() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNetworkErrorUnwraps(t *testing.T) {
	cause := errors.New("root cause")
	err := error(&NetworkError{Message: "boom", Err: cause})

	if !errors.Is(err, cause) {
		t.Error("Expected NetworkError to unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("Expected message in Error(), got %q", err.Error())
	}
}
