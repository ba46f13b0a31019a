// Package converter turns HTTP archives exported by browsers into saved
// requests.
package converter

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/studiowebux/setu/internal/content"
	"github.com/studiowebux/setu/internal/types"
)

// ErrNoEntries is returned for an archive without importable requests
var ErrNoEntries = errors.New("no entries found in HAR file")

// HAROptions controls which parts of an archive are imported
type HAROptions struct {
	ImportHeaders bool   // If true, keep sensitive headers
	Filter        string // Only URLs containing this text (optional)
}

// HARFile represents the HAR file structure
type HARFile struct {
	Log HARLog `json:"log"`
}

// HARLog represents the log section of HAR
type HARLog struct {
	Version string     `json:"version"`
	Creator HARCreator `json:"creator"`
	Entries []HAREntry `json:"entries"`
}

// HARCreator represents the tool that created the HAR
type HARCreator struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// HAREntry represents a single HTTP request/response. Responses are not
// imported.
type HAREntry struct {
	Request HARRequest `json:"request"`
}

// HARRequest represents the request part of an entry
type HARRequest struct {
	Method   string       `json:"method"`
	URL      string       `json:"url"`
	Headers  []HARHeader  `json:"headers"`
	PostData *HARPostData `json:"postData,omitempty"`
}

// HARHeader represents a single header
type HARHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// HARPostData represents POST data
type HARPostData struct {
	MimeType string     `json:"mimeType"`
	Text     string     `json:"text"`
	Params   []HARParam `json:"params,omitempty"`
}

// HARParam represents a form parameter
type HARParam struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// sensitiveHeaders are dropped unless HAROptions.ImportHeaders is set
var sensitiveHeaders = []string{"Cookie", "Authorization", "X-Auth-Token", "X-API-Key"}

// skippedHeaders are set by the transport on every send
var skippedHeaders = []string{"Content-Length", "Host", "Connection", "Accept-Encoding"}

// ParseHAR converts the entries of an archive into requests, in archive
// order. Non-HTTP entries and unsupported methods are skipped.
func ParseHAR(data []byte, opts HAROptions) ([]types.RequestData, error) {
	var har HARFile
	if err := json.Unmarshal(data, &har); err != nil {
		return nil, fmt.Errorf("failed to parse HAR file: %w", err)
	}

	var requests []types.RequestData
	for _, entry := range har.Log.Entries {
		req := entry.Request
		if opts.Filter != "" && !strings.Contains(req.URL, opts.Filter) {
			continue
		}
		if !strings.HasPrefix(req.URL, "http://") && !strings.HasPrefix(req.URL, "https://") {
			continue
		}

		converted, err := convertRequest(req, opts.ImportHeaders)
		if err != nil {
			continue
		}
		requests = append(requests, converted)
	}

	if len(requests) == 0 {
		return nil, ErrNoEntries
	}
	return requests, nil
}

func convertRequest(req HARRequest, importHeaders bool) (types.RequestData, error) {
	method, err := types.ParseMethod(req.Method)
	if err != nil {
		return types.RequestData{}, err
	}

	out := types.NewRequestData()
	out.Method = method
	out.URL = req.URL
	out.Name = fmt.Sprintf("%s %s", method, extractPath(req.URL))
	out.Headers = nil

	for _, h := range req.Headers {
		// HTTP/2 pseudo-headers
		if strings.HasPrefix(h.Name, ":") || matchesAny(h.Name, skippedHeaders) {
			continue
		}
		if !importHeaders && matchesAny(h.Name, sensitiveHeaders) {
			continue
		}
		out.Headers = types.SetHeader(out.Headers, h.Name, h.Value)
	}

	out.Body = convertBody(req.PostData)
	return out, nil
}

func convertBody(data *HARPostData) types.RequestBody {
	if data == nil {
		return types.NoBody()
	}
	if len(data.Params) > 0 && strings.HasPrefix(data.MimeType, "application/x-www-form-urlencoded") {
		fields := make(map[string]string, len(data.Params))
		for _, p := range data.Params {
			fields[p.Name] = p.Value
		}
		return types.FormBody(fields)
	}
	if data.Text == "" {
		return types.NoBody()
	}
	if content.Classify(data.MimeType) == content.JSON {
		return types.JSONBody(data.Text)
	}
	return types.TextBody(data.Text)
}

func matchesAny(name string, list []string) bool {
	for _, candidate := range list {
		if strings.EqualFold(name, candidate) {
			return true
		}
	}
	return false
}

// extractPath returns the path of rawURL, "/" when it has none
func extractPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" {
		return "/"
	}
	return u.Path
}
