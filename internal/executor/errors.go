package executor

import (
	"context"
	"crypto/x509"
	"errors"
	"net"
	"strings"
	"syscall"
)

const (
	msgTimeout     = "Request timed out - the server took too long to respond"
	msgCancelled   = "Request cancelled"
	msgDNS         = "DNS resolution failed - verify the hostname is correct and the network is available"
	msgRefused     = "Connection refused - check that the server is running and the port is correct"
	msgReset       = "Connection reset by server - the server may have crashed or the network dropped"
	msgUnreachable = "Network unreachable - check the network connection and firewall settings"
	msgHost        = "Host unreachable - check that the server is online and accessible"
	msgUntrusted   = "TLS certificate verification failed - certificate is not trusted"
)

// categorizeError maps a transport error to a short description the user
// can act on. Typed errors are checked first; anything else falls back to
// matching on the error text.
func categorizeError(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return msgTimeout
	}
	if errors.Is(err, context.Canceled) {
		return msgCancelled
	}

	var unknownAuthority x509.UnknownAuthorityError
	if errors.As(err, &unknownAuthority) {
		return msgUntrusted
	}
	var invalidCert x509.CertificateInvalidError
	if errors.As(err, &invalidCert) {
		return "TLS certificate is invalid: " + invalidCert.Error()
	}
	var hostname x509.HostnameError
	if errors.As(err, &hostname) {
		return "TLS hostname mismatch - certificate doesn't match the requested hostname"
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return msgDNS
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return msgTimeout
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNREFUSED:
			return msgRefused
		case syscall.ECONNRESET:
			return msgReset
		case syscall.ENETUNREACH:
			return msgUnreachable
		case syscall.EHOSTUNREACH:
			return msgHost
		}
	}

	return categorizeRequestError(err.Error())
}

// categorizeRequestError works on the error text alone.
func categorizeRequestError(errStr string) string {
	if errStr == "" {
		return ""
	}

	errLower := strings.ToLower(errStr)

	if strings.Contains(errLower, "context canceled") ||
		strings.Contains(errLower, "context cancelled") {
		return msgCancelled
	}

	if strings.Contains(errLower, "deadline exceeded") {
		return msgTimeout
	}

	// Before connection errors: proxy failures often say "connection refused" too
	if strings.Contains(errLower, "proxy") {
		return "Proxy connection failed - verify HTTP_PROXY / HTTPS_PROXY settings"
	}

	if strings.Contains(errLower, "no such host") ||
		strings.Contains(errLower, "dns") ||
		strings.Contains(errLower, "dial tcp: lookup") {
		return msgDNS
	}

	if strings.Contains(errLower, "connection refused") {
		return msgRefused
	}

	if strings.Contains(errLower, "connection reset") {
		return msgReset
	}

	if strings.Contains(errLower, "network is unreachable") {
		return msgUnreachable
	}
	if strings.Contains(errLower, "no route to host") {
		return msgHost
	}

	if strings.Contains(errLower, "tls") ||
		strings.Contains(errLower, "ssl") ||
		strings.Contains(errLower, "certificate") ||
		strings.Contains(errLower, "x509") {
		return categorizeSSLError(errStr)
	}

	if strings.Contains(errLower, "stopped after") && strings.Contains(errLower, "redirect") {
		return "Too many redirects - check server configuration or URL"
	}

	if strings.Contains(errLower, "invalid url") ||
		strings.Contains(errLower, "unsupported protocol") ||
		strings.Contains(errLower, "invalid port") ||
		strings.Contains(errLower, "missing protocol scheme") {
		return "Invalid URL - verify the URL format: " + errStr
	}

	if strings.Contains(errLower, "eof") {
		return "Connection closed unexpectedly - server terminated the connection prematurely"
	}

	if strings.Contains(errLower, "timeout") ||
		strings.Contains(errLower, "timed out") {
		return msgTimeout
	}

	if strings.Contains(errLower, "malformed http") {
		return "Malformed HTTP response - the server did not speak valid HTTP"
	}

	return "Request failed: " + errStr
}

// categorizeSSLError gives specific guidance for TLS/SSL failures
func categorizeSSLError(errStr string) string {
	errLower := strings.ToLower(errStr)

	if strings.Contains(errLower, "certificate is not trusted") ||
		strings.Contains(errLower, "unknown authority") {
		return msgUntrusted
	}

	if strings.Contains(errLower, "expired") {
		return "TLS certificate has expired or is not yet valid"
	}

	if strings.Contains(errLower, "certificate is valid for") ||
		strings.Contains(errLower, "name mismatch") ||
		strings.Contains(errLower, "doesn't match") {
		return "TLS hostname mismatch - certificate doesn't match the requested hostname"
	}

	if strings.Contains(errLower, "first record does not look like a tls handshake") {
		return "TLS handshake failed - the server may only speak plain HTTP, try http://"
	}

	if strings.Contains(errLower, "handshake") {
		return "TLS handshake failed - check TLS version compatibility and cipher suites"
	}

	if strings.Contains(errLower, "bad certificate") {
		return "TLS bad certificate - the server rejected the client certificate"
	}

	return "TLS/SSL error: " + errStr
}
