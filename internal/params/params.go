// Package params builds query strings and form-urlencoded text from editor rows.
package params

import (
	"net/url"
	"strings"
)

// QueryParam is one row of the query editor
type QueryParam struct {
	Key     string `json:"key"`
	Value   string `json:"value"`
	Enabled bool   `json:"enabled"`
}

// BuildQueryString renders enabled, non-empty-key params as "?k=v&k2".
// Values are written verbatim; an empty value renders the bare key.
// It returns "" when nothing qualifies.
func BuildQueryString(query []QueryParam) string {
	parts := make([]string, 0, len(query))
	for _, p := range query {
		if !p.Enabled || p.Key == "" {
			continue
		}
		if p.Value == "" {
			parts = append(parts, p.Key)
		} else {
			parts = append(parts, p.Key+"="+p.Value)
		}
	}

	if len(parts) == 0 {
		return ""
	}
	return "?" + strings.Join(parts, "&")
}

// AppendQuery joins a query string built by BuildQueryString onto rawURL,
// using "&" when rawURL already carries a query.
func AppendQuery(rawURL, queryString string) string {
	if queryString == "" {
		return rawURL
	}
	if strings.Contains(rawURL, "?") {
		return rawURL + "&" + strings.TrimPrefix(queryString, "?")
	}
	return rawURL + queryString
}

// FormField is one row of the form-urlencoded editor
type FormField struct {
	Key     string `json:"key"`
	Value   string `json:"value"`
	Enabled bool   `json:"enabled"`
}

// Escape percent-encodes everything outside the unreserved set, spaces included.
func Escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// EncodeForm joins enabled, non-empty-key fields as percent-encoded key=value pairs.
func EncodeForm(fields []FormField) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if !f.Enabled || f.Key == "" {
			continue
		}
		parts = append(parts, Escape(f.Key)+"="+Escape(f.Value))
	}
	return strings.Join(parts, "&")
}

// DecodeForm parses text produced by EncodeForm back into enabled fields.
// A pair without "=" becomes a key with an empty value. Undecodable
// escapes are kept as written.
func DecodeForm(encoded string) []FormField {
	var fields []FormField
	for _, pair := range strings.Split(encoded, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		fields = append(fields, FormField{Key: unescape(key), Value: unescape(value), Enabled: true})
	}
	return fields
}

func unescape(s string) string {
	out, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return out
}

// FormMap collects enabled, non-empty-key fields. Later duplicates win.
func FormMap(fields []FormField) map[string]string {
	form := make(map[string]string, len(fields))
	for _, f := range fields {
		if f.Enabled && f.Key != "" {
			form[f.Key] = f.Value
		}
	}
	return form
}

// ParseQuery splits the query of rawURL into editor rows and returns the
// URL without it. A fragment after the query is dropped.
func ParseQuery(rawURL string) (string, []QueryParam) {
	base, rawQuery, found := strings.Cut(rawURL, "?")
	if !found {
		return rawURL, nil
	}
	rawQuery, _, _ = strings.Cut(rawQuery, "#")

	var query []QueryParam
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		query = append(query, QueryParam{Key: key, Value: value, Enabled: true})
	}
	return base, query
}
