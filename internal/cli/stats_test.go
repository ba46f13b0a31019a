package cli

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/studiowebux/setu/internal/analytics"
)

type fakeStats struct {
	stats []analytics.Stats
	err   error
}

func (f fakeStats) StatsPerEndpoint() ([]analytics.Stats, error) { return f.stats, f.err }

func sampleStats() fakeStats {
	return fakeStats{stats: []analytics.Stats{{
		Host:           "api.example.com",
		NormalizedPath: "/users",
		Method:         "GET",
		TotalCalls:     4,
		SuccessCount:   2,
		ErrorCount:     1,
		NetworkErrors:  1,
		AvgDurationMs:  22.5,
		MaxDurationMs:  50,
		StatusCodes:    map[int]int{200: 2, 500: 1, 0: 1},
		LastCalled:     time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC),
	}}}
}

func TestShowStatsText(t *testing.T) {
	streams, out, _ := testIO("")
	if err := ShowStats(streams, sampleStats(), FormatText); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"api.example.com/users", "50%", "22ms", "0ms / 50ms", "ERR×1 200×2 500×1"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("Expected %q in %q", want, out.String())
		}
	}

	out.Reset()
	ShowStats(streams, fakeStats{}, FormatText)
	if !strings.Contains(out.String(), "No requests recorded") {
		t.Errorf("Unexpected empty output %q", out.String())
	}
}

func TestShowStatsJSON(t *testing.T) {
	streams, out, _ := testIO("")
	if err := ShowStats(streams, sampleStats(), FormatJSON); err != nil {
		t.Fatal(err)
	}

	var got []statsOutput
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("Invalid json %q: %v", out.String(), err)
	}
	if len(got) != 1 || got[0].Endpoint != "api.example.com/users" || got[0].SuccessRate != 0.5 || got[0].StatusCodes[500] != 1 {
		t.Errorf("Unexpected stats %+v", got)
	}
}

func TestShowStatsError(t *testing.T) {
	streams, _, _ := testIO("")
	if err := ShowStats(streams, fakeStats{err: errors.New("locked")}, FormatText); err == nil || !strings.Contains(err.Error(), "locked") {
		t.Errorf("Expected wrapped error, got %v", err)
	}
}
