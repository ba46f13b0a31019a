package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/studiowebux/setu/internal/content"
	"github.com/studiowebux/setu/internal/filter"
	"github.com/studiowebux/setu/internal/types"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatBody = "body"
)

// OutputOptions controls how a response is written
type OutputOptions struct {
	Format   string   // text, json, yaml or body
	Query    []string // JMESPath expressions applied to the body in order
	ShowFull bool     // include headers in text output
}

var (
	successColor   = color.New(color.FgGreen, color.Bold)
	redirectColor  = color.New(color.FgYellow, color.Bold)
	clientErrColor = color.New(color.FgRed, color.Bold)
	serverErrColor = color.New(color.FgMagenta, color.Bold)
	headerKeyColor = color.New(color.FgCyan)
	dimColor       = color.New(color.Faint)
	errorColor     = color.New(color.FgRed)
)

var (
	tableBorderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	tableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
	groupTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("170"))
)

// responseOutput is the json and yaml shape of a response
type responseOutput struct {
	Status     uint16            `json:"status" yaml:"status"`
	StatusText string            `json:"statusText" yaml:"statusText"`
	Headers    map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body       string            `json:"body" yaml:"body"`
	DurationMs uint64            `json:"durationMs" yaml:"durationMs"`
	Size       int               `json:"size" yaml:"size"`
	Error      string            `json:"error,omitempty" yaml:"error,omitempty"`
}

func getStatusColor(code uint16) *color.Color {
	switch {
	case code >= 200 && code < 300:
		return successColor
	case code >= 300 && code < 400:
		return redirectColor
	case code >= 400 && code < 500:
		return clientErrColor
	default:
		return serverErrColor
	}
}

// writeResult writes one exchange. A failed exchange is returned as the
// error; a 4xx or 5xx response is written first and then reported as a
// *StatusError.
func writeResult(streams IO, resp *types.ResponseData, sendErr error, opts OutputOptions) error {
	if sendErr != nil {
		if opts.Format == FormatJSON || opts.Format == FormatYAML {
			if err := writeStructured(streams, responseOutput{Error: sendErr.Error()}, opts.Format); err != nil {
				return err
			}
		}
		return sendErr
	}

	if err := writeResponse(streams, resp, opts); err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}

// writeResponse formats resp according to opts.
// A query that fails is reported as a warning and the body is left unfiltered.
func writeResponse(streams IO, resp *types.ResponseData, opts OutputOptions) error {
	body, filtered := resp.Body(), false
	if len(opts.Query) > 0 {
		out, err := filter.Apply(body, opts.Query...)
		if err != nil {
			fmt.Fprintf(streams.Err, "Warning: query error: %v\n", err)
		} else {
			body, filtered = out, true
		}
	}

	switch opts.Format {
	case FormatJSON, FormatYAML:
		return writeStructured(streams, responseOutput{
			Status:     resp.StatusCode,
			StatusText: resp.StatusText,
			Headers:    resp.Headers,
			Body:       body,
			DurationMs: resp.DurationMs,
			Size:       resp.BodySizeBytes,
		}, opts.Format)

	case FormatBody:
		fmt.Fprint(streams.Out, body)
		if !strings.HasSuffix(body, "\n") {
			fmt.Fprintln(streams.Out)
		}
		return nil

	default:
		var sb strings.Builder

		statusLine := fmt.Sprintf("%d %s", resp.StatusCode, resp.StatusText)
		sb.WriteString(getStatusColor(resp.StatusCode).Sprint(statusLine))
		sb.WriteString("\n")
		sb.WriteString(dimColor.Sprintf("Duration: %s | Size: %s", resp.FormattedDuration(), resp.FormattedSize()))
		sb.WriteString("\n")

		if opts.ShowFull && len(resp.Headers) > 0 {
			sb.WriteString("\nHeaders:\n")
			keys := make([]string, 0, len(resp.Headers))
			for k := range resp.Headers {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				sb.WriteString(fmt.Sprintf("  %s: %s\n", headerKeyColor.Sprint(k), resp.Headers[k]))
			}
		}

		category := resp.Category()
		text := body
		if filtered {
			category = content.JSON
		} else {
			text = resp.FormattedBody()
		}
		if text != "" {
			if !color.NoColor {
				text = content.Highlight(text, category)
			}
			sb.WriteString("\n")
			sb.WriteString(text)
			if !strings.HasSuffix(text, "\n") {
				sb.WriteString("\n")
			}
		}

		fmt.Fprint(streams.Out, sb.String())
		return nil
	}
}

func writeStructured(streams IO, v any, format string) error {
	var (
		data []byte
		err  error
	)
	if format == FormatYAML {
		data, err = yaml.Marshal(v)
	} else {
		data, err = json.MarshalIndent(v, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	_, err = streams.Out.Write(data)
	return err
}

// renderTable draws rows under headers with a rounded border
func renderTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(tableBorderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		}).
		Headers(headers...).
		Rows(rows...)
	return t.String() + "\n"
}

// shortID is the prefix shown in listings; any unique prefix is accepted back
func shortID(id fmt.Stringer) string {
	return id.String()[:8]
}
