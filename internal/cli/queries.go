package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/studiowebux/setu/internal/filter"
)

// ListQueries prints saved query bookmarks, optionally filtered
func ListQueries(streams IO, b *filter.Bookmarks, search string) error {
	bookmarks, err := b.List(search)
	if err != nil {
		return err
	}
	if len(bookmarks) == 0 {
		fmt.Fprintln(streams.Err, "No saved queries")
		return nil
	}

	rows := make([][]string, 0, len(bookmarks))
	for _, bm := range bookmarks {
		rows = append(rows, []string{
			"@" + strconv.Itoa(bm.ID),
			bm.Expression,
			bm.CreatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	fmt.Fprint(streams.Out, renderTable([]string{"Ref", "Expression", "Saved"}, rows))
	return nil
}

// SaveQuery bookmarks an expression for use as --query @id
func SaveQuery(streams IO, b *filter.Bookmarks, expression string) error {
	saved, err := b.Save(expression)
	if err != nil {
		return err
	}
	if !saved {
		fmt.Fprintln(streams.Err, "Query already saved")
		return nil
	}
	fmt.Fprintln(streams.Err, "Saved query")
	return nil
}

// RemoveQuery deletes a bookmark given as "3" or "@3"
func RemoveQuery(streams IO, b *filter.Bookmarks, ref string) error {
	id, err := strconv.Atoi(strings.TrimPrefix(ref, "@"))
	if err != nil {
		return fmt.Errorf("invalid query reference %q", ref)
	}
	if err := b.Delete(id); err != nil {
		return err
	}
	fmt.Fprintf(streams.Err, "Removed @%d\n", id)
	return nil
}
