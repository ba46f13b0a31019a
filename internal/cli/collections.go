package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/studiowebux/setu/internal/collections"
	"github.com/studiowebux/setu/internal/converter"
	"github.com/studiowebux/setu/internal/history"
	"github.com/studiowebux/setu/internal/session"
	"github.com/studiowebux/setu/internal/types"
	"github.com/studiowebux/setu/internal/workspace"
)

var errCollectionRequired = errors.New("a collection is required when not running interactively")

// ListCollections prints every collection with its items. A non-empty
// search keeps matching collections and items only.
func ListCollections(streams IO, store *collections.Store, search string) error {
	results := store.Search(search)
	if len(results) == 0 {
		if search == "" {
			fmt.Fprintln(streams.Out, "No collections")
		} else {
			fmt.Fprintf(streams.Out, "No collections match %q\n", search)
		}
		return nil
	}

	for _, r := range results {
		fmt.Fprintf(streams.Out, "%s %s (%d)\n", groupTitleStyle.Render(r.Collection.Name), dimColor.Sprint(shortID(r.Collection.ID)), len(r.Items))
		if len(r.Items) > 0 {
			fmt.Fprint(streams.Out, renderTable(itemHeaders, itemRows(r.Items)))
		}
	}
	return nil
}

var itemHeaders = []string{"ID", "Method", "Request", "URL"}

func itemRows(items []types.CollectionItem) [][]string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			shortID(item.ID),
			string(item.Request.Method),
			item.Request.DisplayName(),
			item.Request.URL,
		})
	}
	return rows
}

func CreateCollection(streams IO, store *collections.Store, name string) error {
	if name == "" {
		return errors.New("collection name cannot be empty")
	}
	if _, ok := store.FindByName(name); ok {
		return fmt.Errorf("collection %q already exists", name)
	}
	col := store.Create(name)
	fmt.Fprintf(streams.Out, "Created %s %s\n", col.Name, shortID(col.ID))
	return nil
}

func RenameCollection(streams IO, store *collections.Store, ref, name string) error {
	if name == "" {
		return errors.New("collection name cannot be empty")
	}
	col, err := resolveCollection(store, ref)
	if err != nil {
		return err
	}
	store.Rename(col.ID, name)
	fmt.Fprintf(streams.Out, "Renamed %s to %s\n", col.Name, name)
	return nil
}

func RemoveCollection(streams IO, store *collections.Store, ref string) error {
	col, err := resolveCollection(store, ref)
	if err != nil {
		return err
	}
	store.Remove(col.ID)
	fmt.Fprintf(streams.Out, "Removed %s and %d requests\n", col.Name, len(col.Items))
	return nil
}

// ShowCollection prints one collection in full
func ShowCollection(streams IO, store *collections.Store, ref string) error {
	col, err := resolveCollection(store, ref)
	if err != nil {
		return err
	}

	fmt.Fprintf(streams.Out, "%s %s\n", groupTitleStyle.Render(col.Name), dimColor.Sprint(col.ID.String()))
	if len(col.Items) == 0 {
		fmt.Fprintln(streams.Out, "No requests")
		return nil
	}

	rows := itemRows(col.Items)
	for i, item := range col.Items {
		rows[i] = append(rows[i], strconv.Itoa(len(types.EnabledHeaders(item.Request.Headers))))
	}
	fmt.Fprint(streams.Out, renderTable(append(itemHeaders, "Headers"), rows))
	return nil
}

// AddFromHistory saves the request of a history entry into a collection.
// With no collection given, an interactive picker is shown.
func AddFromHistory(streams IO, hist *history.Store, store *collections.Store, collectionRef, historyRef string) error {
	entry, err := resolveHistory(hist, historyRef)
	if err != nil {
		return err
	}

	var col types.Collection
	if collectionRef == "" {
		if !isInteractive(streams.In) {
			return errCollectionRequired
		}
		col, err = promptForCollection(streams, store)
	} else {
		col, err = resolveCollection(store, collectionRef)
	}
	if err != nil {
		return err
	}

	item, ok := store.AddItem(col.ID, entry.Request)
	if !ok {
		return fmt.Errorf("collection %q: %w", col.Name, ErrNotFound)
	}
	fmt.Fprintf(streams.Out, "Added %s to %s as %s\n", item.Request.DisplayName(), col.Name, shortID(item.ID))
	return nil
}

func RemoveItem(streams IO, store *collections.Store, collectionRef, itemRef string) error {
	col, err := resolveCollection(store, collectionRef)
	if err != nil {
		return err
	}
	item, err := resolveItem(col, itemRef)
	if err != nil {
		return err
	}
	store.RemoveItem(col.ID, item.ID)
	fmt.Fprintf(streams.Out, "Removed %s from %s\n", item.Request.DisplayName(), col.Name)
	return nil
}

// RunItem sends a saved request
func RunItem(ctx context.Context, ws *workspace.Workspace, streams IO, collectionRef, itemRef string, opts OutputOptions) error {
	col, err := resolveCollection(ws.Collections(), collectionRef)
	if err != nil {
		return err
	}
	item, err := resolveItem(col, itemRef)
	if err != nil {
		return err
	}
	if _, ok := ws.OpenCollectionItem(col.ID, item.ID); !ok {
		return fmt.Errorf("item %q: %w", itemRef, ErrNotFound)
	}

	msg, err := run(ctx, ws)
	if err != nil {
		return err
	}
	return writeResult(streams, msg.Result.Response, msg.Result.Err, opts)
}

// RunCollection sends every request of a collection, at most parallel at a
// time, and prints one summary row per request in collection order.
// Results are applied to their tabs only after all sends have finished.
func RunCollection(ctx context.Context, ws *workspace.Workspace, streams IO, collectionRef string, parallel int) error {
	col, err := resolveCollection(ws.Collections(), collectionRef)
	if err != nil {
		return err
	}
	if len(col.Items) == 0 {
		fmt.Fprintf(streams.Err, "No requests in %s\n", col.Name)
		return nil
	}

	tabs := make([]*session.Session, 0, len(col.Items))
	for _, item := range col.Items {
		tab, ok := ws.OpenCollectionItem(col.ID, item.ID)
		if !ok {
			return fmt.Errorf("item %s: %w", shortID(item.ID), ErrNotFound)
		}
		tabs = append(tabs, tab)
	}

	stop := context.AfterFunc(ctx, ws.Cancel)
	defer stop()

	cmds, err := ws.SendTabs(tabs, parallel)
	if err != nil {
		return fmt.Errorf("%s: %w", col.Items[len(cmds)].Request.DisplayName(), err)
	}

	// SendTabs already bounds the exchanges in flight
	results := make([]session.ResultMsg, len(cmds))
	var g errgroup.Group
	for i, cmd := range cmds {
		g.Go(func() error {
			msg, ok := cmd().(session.ResultMsg)
			if !ok {
				return errors.New("send produced no result")
			}
			results[i] = msg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	failed := 0
	rows := make([][]string, 0, len(results))
	for i, msg := range results {
		ws.Complete(msg)

		status, duration, detail := "ERR", "-", ""
		if resp := msg.Result.Response; msg.Result.Err == nil && resp != nil {
			status = strconv.Itoa(int(resp.StatusCode))
			duration = resp.FormattedDuration()
			if resp.StatusCode >= 400 {
				failed++
			}
		} else {
			failed++
			if msg.Result.Err != nil {
				detail = msg.Result.Err.Error()
			}
		}
		rows = append(rows, []string{
			string(msg.Request.Method),
			col.Items[i].Request.DisplayName(),
			status,
			duration,
			detail,
		})
	}

	fmt.Fprint(streams.Out, renderTable([]string{"Method", "Request", "Status", "Duration", "Error"}, rows))
	if failed > 0 {
		return fmt.Errorf("%d of %d requests failed", failed, len(results))
	}
	return nil
}

// ImportOptions controls ImportHAR
type ImportOptions struct {
	Collection    string // target collection name, created when missing
	Filter        string
	ImportHeaders bool
}

// ImportHAR saves the requests of an HTTP archive into a collection. The
// collection defaults to the file name without extension.
func ImportHAR(streams IO, store *collections.Store, path string, opts ImportOptions) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read HAR file: %w", err)
	}
	requests, err := converter.ParseHAR(data, converter.HAROptions{
		ImportHeaders: opts.ImportHeaders,
		Filter:        opts.Filter,
	})
	if err != nil {
		return err
	}

	name := opts.Collection
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	col, ok := store.FindByName(name)
	if !ok {
		col = store.Create(name)
	}

	for _, req := range requests {
		store.AddItem(col.ID, req)
	}
	fmt.Fprintf(streams.Err, "Imported %d requests into %s\n", len(requests), col.Name)
	return nil
}
