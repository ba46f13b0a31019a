// Package filter runs JMESPath queries over JSON response bodies.
package filter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jmespath/go-jmespath"
)

// Apply evaluates each expression in turn over body, feeding the result of
// one into the next, and returns indented JSON. Empty expressions are
// skipped, so Apply(body) with none returns body unchanged.
func Apply(body string, expressions ...string) (string, error) {
	result := body
	for _, expr := range expressions {
		if strings.TrimSpace(expr) == "" {
			continue
		}
		out, err := applyJMESPath(result, expr)
		if err != nil {
			return "", err
		}
		result = out
	}
	return result, nil
}

// applyJMESPath applies a JMESPath expression to a JSON string
func applyJMESPath(jsonStr string, expression string) (string, error) {
	var data interface{}
	if err := json.Unmarshal([]byte(jsonStr), &data); err != nil {
		return "", fmt.Errorf("invalid JSON: %w", err)
	}

	jp, err := jmespath.Compile(expression)
	if err != nil {
		return "", fmt.Errorf("invalid JMESPath expression '%s': %w", expression, err)
	}

	result, err := jp.Search(data)
	if err != nil {
		return "", fmt.Errorf("JMESPath search failed: %w", err)
	}

	if result == nil {
		return "null", nil
	}

	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}

	return string(output), nil
}

// IsValidJMESPath checks if an expression is valid JMESPath syntax
func IsValidJMESPath(expression string) bool {
	_, err := jmespath.Compile(expression)
	return err == nil
}
