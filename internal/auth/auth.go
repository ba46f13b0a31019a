// Package auth turns an authentication choice into request headers or query parameters.
package auth

import (
	"encoding/base64"

	"github.com/studiowebux/setu/internal/params"
	"github.com/studiowebux/setu/internal/types"
)

// Type selects the authentication scheme
type Type int

const (
	None Type = iota
	Basic
	Bearer
	APIKey
)

func (t Type) String() string {
	switch t {
	case Basic:
		return "Basic Auth"
	case Bearer:
		return "Bearer Token"
	case APIKey:
		return "API Key"
	default:
		return "No Auth"
	}
}

// Location says where an API key is sent
type Location int

const (
	InHeader Location = iota
	InQuery
)

// Config is the auth settings of one tab
type Config struct {
	Type        Type
	Username    string
	Password    string
	Token       string
	APIKeyName  string
	APIKeyValue string
	APIKeyIn    Location
}

// BasicCredentials encodes "username:password" with standard padded base64
func BasicCredentials(username, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
}

// Header returns the header this config contributes, if any.
// Bearer with an empty token and API keys with an empty name contribute nothing.
func (c Config) Header() (types.Header, bool) {
	switch c.Type {
	case Basic:
		return types.NewHeader("Authorization", "Basic "+BasicCredentials(c.Username, c.Password)), true
	case Bearer:
		if c.Token == "" {
			return types.Header{}, false
		}
		return types.NewHeader("Authorization", "Bearer "+c.Token), true
	case APIKey:
		if c.APIKeyName == "" || c.APIKeyIn != InHeader {
			return types.Header{}, false
		}
		return types.NewHeader(c.APIKeyName, c.APIKeyValue), true
	default:
		return types.Header{}, false
	}
}

// QueryParam returns the query parameter an API key in query mode contributes.
func (c Config) QueryParam() (params.QueryParam, bool) {
	if c.Type != APIKey || c.APIKeyIn != InQuery || c.APIKeyName == "" {
		return params.QueryParam{}, false
	}
	return params.QueryParam{Key: c.APIKeyName, Value: c.APIKeyValue, Enabled: true}, true
}

// Apply injects the auth header (set-or-update, case-insensitive) and any
// query parameter. The inputs are not modified.
func (c Config) Apply(headers []types.Header, query []params.QueryParam) ([]types.Header, []params.QueryParam) {
	outHeaders := make([]types.Header, len(headers))
	copy(outHeaders, headers)
	outQuery := make([]params.QueryParam, len(query))
	copy(outQuery, query)

	if h, ok := c.Header(); ok {
		outHeaders = types.SetHeader(outHeaders, h.Key, h.Value)
	}
	if p, ok := c.QueryParam(); ok {
		outQuery = append(outQuery, p)
	}
	return outHeaders, outQuery
}
