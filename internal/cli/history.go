package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/studiowebux/setu/internal/history"
	"github.com/studiowebux/setu/internal/types"
	"github.com/studiowebux/setu/internal/workspace"
)

// Grouping modes for ListHistory
const (
	GroupNone   = ""
	GroupTime   = "time"
	GroupDomain = "domain"
)

// HistoryListOptions filters and shapes a history listing
type HistoryListOptions struct {
	Query   string
	Starred bool
	Limit   int
	GroupBy string
}

func (o HistoryListOptions) keep(e types.HistoryEntry) bool {
	return (!o.Starred || e.Starred) && e.Request.Matches(o.Query)
}

func historyRows(entries []types.HistoryEntry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		star := ""
		if e.Starred {
			star = "★"
		}
		status := "ERR"
		if e.Response != nil {
			status = strconv.Itoa(int(e.Response.StatusCode))
		}
		rows = append(rows, []string{
			shortID(e.ID),
			star,
			string(e.Request.Method),
			status,
			e.DisplayName(),
			e.Timestamp.Local().Format("2006-01-02 15:04"),
		})
	}
	return rows
}

var historyHeaders = []string{"ID", "", "Method", "Status", "Request", "When"}

// ListHistory prints history newest first, optionally grouped by age or domain
func ListHistory(streams IO, store *history.Store, opts HistoryListOptions) error {
	type group struct {
		title   string
		entries []types.HistoryEntry
	}

	var groups []group
	switch opts.GroupBy {
	case GroupNone:
		filter := history.All
		if opts.Starred {
			filter = history.StarredOnly
		}
		groups = []group{{entries: store.Query(opts.Query, filter)}}
	case GroupTime:
		for _, g := range store.GroupedByTime() {
			groups = append(groups, group{title: g.Label, entries: g.Entries})
		}
	case GroupDomain:
		for _, g := range store.GroupedByDomain() {
			groups = append(groups, group{title: g.Domain, entries: g.Entries})
		}
	default:
		return fmt.Errorf("unknown grouping %q, expected %s or %s", opts.GroupBy, GroupTime, GroupDomain)
	}

	shown := 0
	for _, g := range groups {
		var entries []types.HistoryEntry
		for _, e := range g.entries {
			if opts.Limit > 0 && shown >= opts.Limit {
				break
			}
			if opts.keep(e) {
				entries = append(entries, e)
				shown++
			}
		}
		if len(entries) == 0 {
			continue
		}
		if g.title != "" {
			fmt.Fprintf(streams.Out, "%s (%d)\n", groupTitleStyle.Render(g.title), len(entries))
		}
		fmt.Fprint(streams.Out, renderTable(historyHeaders, historyRows(entries)))
	}

	if shown == 0 {
		fmt.Fprintln(streams.Out, "No history entries")
	}
	return nil
}

// ShowHistory writes a stored exchange like a fresh response
func ShowHistory(streams IO, store *history.Store, ref string, opts OutputOptions) error {
	entry, err := resolveHistory(store, ref)
	if err != nil {
		return err
	}

	req := entry.Request
	fmt.Fprintf(streams.Err, "%s %s (%s)\n", req.Method, req.URL, entry.Timestamp.Local().Format(time.RFC1123))
	if entry.Response == nil {
		return fmt.Errorf("request failed without a response")
	}
	return writeResponse(streams, entry.Response, opts)
}

// ReplayHistory opens a stored request in a new tab and sends it again
func ReplayHistory(ctx context.Context, ws *workspace.Workspace, streams IO, ref string, opts OutputOptions) error {
	entry, err := resolveHistory(ws.History(), ref)
	if err != nil {
		return err
	}
	if _, ok := ws.OpenHistoryEntry(entry.ID); !ok {
		return fmt.Errorf("history entry %q: %w", ref, ErrNotFound)
	}

	msg, err := run(ctx, ws)
	if err != nil {
		return err
	}
	return writeResult(streams, msg.Result.Response, msg.Result.Err, opts)
}

// StarHistory flips the star of an entry and reports the new state
func StarHistory(streams IO, store *history.Store, ref string) error {
	entry, err := resolveHistory(store, ref)
	if err != nil {
		return err
	}
	store.ToggleStar(entry.ID)

	state := "Starred"
	if entry.Starred {
		state = "Unstarred"
	}
	fmt.Fprintf(streams.Out, "%s %s\n", state, entry.DisplayName())
	return nil
}

func RemoveHistory(streams IO, store *history.Store, ref string) error {
	entry, err := resolveHistory(store, ref)
	if err != nil {
		return err
	}
	store.Remove(entry.ID)
	fmt.Fprintf(streams.Out, "Removed %s\n", entry.DisplayName())
	return nil
}

// ClearHistory empties the log. With keepStarred only unstarred entries go.
func ClearHistory(streams IO, store *history.Store, keepStarred bool) error {
	before := store.Len()
	if keepStarred {
		store.ClearUnstarred()
	} else {
		store.Clear()
	}
	fmt.Fprintf(streams.Out, "Removed %d entries\n", before-store.Len())
	return nil
}
