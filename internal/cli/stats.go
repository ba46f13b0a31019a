package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/studiowebux/setu/internal/analytics"
	"github.com/studiowebux/setu/internal/executor"
)

// StatsSource is the read side of the analytics store
type StatsSource interface {
	StatsPerEndpoint() ([]analytics.Stats, error)
}

// statsOutput is the json and yaml shape of one endpoint
type statsOutput struct {
	Method        string      `json:"method" yaml:"method"`
	Endpoint      string      `json:"endpoint" yaml:"endpoint"`
	TotalCalls    int         `json:"totalCalls" yaml:"totalCalls"`
	SuccessRate   float64     `json:"successRate" yaml:"successRate"`
	NetworkErrors int         `json:"networkErrors" yaml:"networkErrors"`
	AvgDurationMs float64     `json:"avgDurationMs" yaml:"avgDurationMs"`
	MinDurationMs int64       `json:"minDurationMs" yaml:"minDurationMs"`
	MaxDurationMs int64       `json:"maxDurationMs" yaml:"maxDurationMs"`
	StatusCodes   map[int]int `json:"statusCodes" yaml:"statusCodes"`
	LastCalled    time.Time   `json:"lastCalled" yaml:"lastCalled"`
}

// ShowStats prints per-endpoint call statistics, most recently called first
func ShowStats(streams IO, source StatsSource, format string) error {
	stats, err := source.StatsPerEndpoint()
	if err != nil {
		return fmt.Errorf("failed to load stats: %w", err)
	}

	if format == FormatJSON || format == FormatYAML {
		out := make([]statsOutput, 0, len(stats))
		for _, s := range stats {
			out = append(out, statsOutput{
				Method:        s.Method,
				Endpoint:      s.Endpoint(),
				TotalCalls:    s.TotalCalls,
				SuccessRate:   s.SuccessRate(),
				NetworkErrors: s.NetworkErrors,
				AvgDurationMs: s.AvgDurationMs,
				MinDurationMs: s.MinDurationMs,
				MaxDurationMs: s.MaxDurationMs,
				StatusCodes:   s.StatusCodes,
				LastCalled:    s.LastCalled,
			})
		}
		return writeStructured(streams, out, format)
	}

	if len(stats) == 0 {
		fmt.Fprintln(streams.Out, "No requests recorded")
		return nil
	}

	rows := make([][]string, 0, len(stats))
	for _, s := range stats {
		rows = append(rows, []string{
			s.Method,
			s.Endpoint(),
			strconv.Itoa(s.TotalCalls),
			fmt.Sprintf("%.0f%%", s.SuccessRate()*100),
			executor.FormatDuration(int64(s.AvgDurationMs)),
			executor.FormatDuration(s.MinDurationMs) + " / " + executor.FormatDuration(s.MaxDurationMs),
			formatStatusCodes(s.StatusCodes),
			s.LastCalled.Local().Format("2006-01-02 15:04"),
		})
	}
	fmt.Fprint(streams.Out, renderTable(
		[]string{"Method", "Endpoint", "Calls", "OK", "Avg", "Min / Max", "Statuses", "Last"},
		rows,
	))
	return nil
}

// formatStatusCodes renders a histogram as "200×3 404×1", network errors as ERR
func formatStatusCodes(codes map[int]int) string {
	keys := make([]int, 0, len(codes))
	for code := range codes {
		keys = append(keys, code)
	}
	sort.Ints(keys)

	parts := make([]string, 0, len(keys))
	for _, code := range keys {
		label := strconv.Itoa(code)
		if code == 0 {
			label = "ERR"
		}
		parts = append(parts, fmt.Sprintf("%s×%d", label, codes[code]))
	}
	return strings.Join(parts, " ")
}
