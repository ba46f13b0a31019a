package tui

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/studiowebux/setu/internal/collections"
	"github.com/studiowebux/setu/internal/history"
	"github.com/studiowebux/setu/internal/types"
)

// Pane is the side pane shown next to the response
type Pane int

const (
	PaneNone Pane = iota
	PaneHistory
	PaneCollections
)

// Grouping is how the history pane buckets its entries
type Grouping int

const (
	GroupByTime Grouping = iota
	GroupByDomain
)

func (g Grouping) String() string {
	if g == GroupByDomain {
		return "domain"
	}
	return "time"
}

// row is one line of a side pane. Header rows carry a title and, for
// collections, the collection ID; entry rows carry the item ID too.
type row struct {
	header     bool
	title      string
	collection uuid.UUID
	id         uuid.UUID
	method     types.HttpMethod
	starred    bool
	expanded   bool
	status     uint16 // 0 for a request that got no response
}

// PaneState is the flattened, selectable content of a side pane
type PaneState struct {
	rows  []row
	index int
}

func (p *PaneState) setRows(rows []row) {
	p.rows = rows
	if p.index >= len(rows) {
		p.index = len(rows) - 1
	}
	if p.index < 0 {
		p.index = 0
	}
	p.settle(1)
}

// skipsHeaders reports whether headers are only labels. History headers
// are; collection headers are selectable so they can be expanded.
func (p *PaneState) skipsHeaders() bool {
	for _, r := range p.rows {
		if r.header && r.collection != uuid.Nil {
			return false
		}
	}
	return true
}

// settle moves off a label header in direction dir, if there is an entry
// that way; otherwise the other way.
func (p *PaneState) settle(dir int) {
	if len(p.rows) == 0 || !p.skipsHeaders() {
		return
	}
	for _, d := range []int{dir, -dir} {
		for i := p.index; i >= 0 && i < len(p.rows); i += d {
			if !p.rows[i].header {
				p.index = i
				return
			}
		}
	}
}

// Move shifts the selection by delta rows, clamped
func (p *PaneState) Move(delta int) {
	if len(p.rows) == 0 {
		return
	}
	p.index = max(0, min(len(p.rows)-1, p.index+delta))
	dir := 1
	if delta < 0 {
		dir = -1
	}
	p.settle(dir)
}

func (p *PaneState) Top() {
	p.index = 0
	p.settle(1)
}

func (p *PaneState) Bottom() {
	p.index = max(0, len(p.rows)-1)
	p.settle(-1)
}

// Selected returns the current row
func (p *PaneState) Selected() (row, bool) {
	if p.index < 0 || p.index >= len(p.rows) {
		return row{}, false
	}
	return p.rows[p.index], true
}

func (p *PaneState) Len() int { return len(p.rows) }

func (p *PaneState) Index() int { return p.index }

func entryRow(e types.HistoryEntry) row {
	r := row{id: e.ID, method: e.Request.Method, title: e.DisplayName(), starred: e.Starred}
	if e.Response != nil {
		r.status = e.Response.StatusCode
	}
	return r
}

// historyRows flattens the store into labelled groups
func historyRows(store *history.Store, grouping Grouping, starredOnly bool) []row {
	var rows []row
	add := func(title string, entries []types.HistoryEntry) {
		var kept []row
		for _, e := range entries {
			if starredOnly && !e.Starred {
				continue
			}
			kept = append(kept, entryRow(e))
		}
		if len(kept) == 0 {
			return
		}
		rows = append(rows, row{header: true, title: fmt.Sprintf("%s (%d)", title, len(kept))})
		rows = append(rows, kept...)
	}

	if grouping == GroupByDomain {
		for _, g := range store.GroupedByDomain() {
			add(g.Domain, g.Entries)
		}
	} else {
		for _, g := range store.GroupedByTime() {
			add(g.Label, g.Entries)
		}
	}
	return rows
}

// collectionRows lists every collection, with items only when expanded
func collectionRows(store *collections.Store) []row {
	var rows []row
	for _, c := range store.Collections() {
		rows = append(rows, row{
			header:     true,
			title:      fmt.Sprintf("%s (%d)", c.Name, len(c.Items)),
			collection: c.ID,
			expanded:   c.Expanded,
		})
		if !c.Expanded {
			continue
		}
		for _, item := range c.Items {
			rows = append(rows, row{
				collection: c.ID,
				id:         item.ID,
				method:     item.Request.Method,
				title:      item.Request.DisplayName(),
			})
		}
	}
	return rows
}
