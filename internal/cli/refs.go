package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/studiowebux/setu/internal/collections"
	"github.com/studiowebux/setu/internal/history"
	"github.com/studiowebux/setu/internal/types"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrAmbiguous = errors.New("ambiguous reference")
)

// matchID resolves ref, a full ID or a unique prefix of one, against ids
func matchID(ref string, ids []uuid.UUID) (uuid.UUID, error) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if ref == "" {
		return uuid.Nil, ErrNotFound
	}
	if id, err := uuid.Parse(ref); err == nil {
		for _, candidate := range ids {
			if candidate == id {
				return id, nil
			}
		}
		return uuid.Nil, ErrNotFound
	}

	var found []uuid.UUID
	for _, id := range ids {
		if strings.HasPrefix(id.String(), ref) {
			found = append(found, id)
		}
	}
	switch len(found) {
	case 0:
		return uuid.Nil, ErrNotFound
	case 1:
		return found[0], nil
	default:
		return uuid.Nil, ErrAmbiguous
	}
}

func resolveHistory(store *history.Store, ref string) (types.HistoryEntry, error) {
	entries := store.Entries()
	ids := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}

	id, err := matchID(ref, ids)
	if err != nil {
		return types.HistoryEntry{}, fmt.Errorf("history entry %q: %w", ref, err)
	}
	entry, _ := store.Get(id)
	return entry, nil
}

// resolveCollection accepts a collection name or an ID prefix. Names win.
func resolveCollection(store *collections.Store, ref string) (types.Collection, error) {
	if col, ok := store.FindByName(ref); ok {
		return col, nil
	}

	cols := store.Collections()
	ids := make([]uuid.UUID, len(cols))
	for i, c := range cols {
		ids[i] = c.ID
	}

	id, err := matchID(ref, ids)
	if err != nil {
		return types.Collection{}, fmt.Errorf("collection %q: %w", ref, err)
	}
	col, _ := store.Get(id)
	return col, nil
}

func resolveItem(col types.Collection, ref string) (types.CollectionItem, error) {
	ids := make([]uuid.UUID, len(col.Items))
	for i, item := range col.Items {
		ids[i] = item.ID
	}

	id, err := matchID(ref, ids)
	if err != nil {
		return types.CollectionItem{}, fmt.Errorf("item %q in %s: %w", ref, col.Name, err)
	}
	for _, item := range col.Items {
		if item.ID == id {
			return item, nil
		}
	}
	return types.CollectionItem{}, fmt.Errorf("item %q in %s: %w", ref, col.Name, ErrNotFound)
}
