package filter

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/studiowebux/setu/internal/config"
	"github.com/studiowebux/setu/internal/migrations"
)

// ErrBookmarkNotFound is returned for an unknown bookmark ID
var ErrBookmarkNotFound = errors.New("bookmark not found")

// Bookmark is a saved JMESPath expression
type Bookmark struct {
	ID         int
	Expression string
	CreatedAt  time.Time
}

// Bookmarks persists saved expressions next to the analytics data
type Bookmarks struct {
	db *sql.DB
}

// OpenBookmarks opens (and migrates) the database at dbPath
func OpenBookmarks(dbPath string) (*Bookmarks, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), config.DirPermissions); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := migrations.Run(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &Bookmarks{db: db}, nil
}

// Save adds an expression. It reports false when it was already saved.
func (b *Bookmarks) Save(expression string) (bool, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return false, fmt.Errorf("expression cannot be empty")
	}
	if !IsValidJMESPath(expression) {
		return false, fmt.Errorf("invalid JMESPath expression '%s'", expression)
	}

	result, err := b.db.Exec(`
		INSERT OR IGNORE INTO query_bookmarks (expression, created_at)
		VALUES (?, ?)
	`, expression, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("failed to save bookmark: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check save result: %w", err)
	}
	return rows > 0, nil
}

// Delete removes a bookmark by ID
func (b *Bookmarks) Delete(id int) error {
	result, err := b.db.Exec("DELETE FROM query_bookmarks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete bookmark: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return ErrBookmarkNotFound
	}
	return nil
}

// Get returns one bookmark by ID
func (b *Bookmarks) Get(id int) (Bookmark, error) {
	var bm Bookmark
	err := b.db.QueryRow("SELECT id, expression, created_at FROM query_bookmarks WHERE id = ?", id).
		Scan(&bm.ID, &bm.Expression, &bm.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Bookmark{}, ErrBookmarkNotFound
	}
	if err != nil {
		return Bookmark{}, fmt.Errorf("failed to load bookmark: %w", err)
	}
	return bm, nil
}

// List returns bookmarks whose expression contains query (all when
// empty), newest first
func (b *Bookmarks) List(query string) ([]Bookmark, error) {
	rows, err := b.db.Query(`
		SELECT id, expression, created_at
		FROM query_bookmarks
		WHERE expression LIKE ?
		ORDER BY created_at DESC, id DESC
	`, "%"+strings.TrimSpace(query)+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to query bookmarks: %w", err)
	}
	defer rows.Close()

	var bookmarks []Bookmark
	for rows.Next() {
		var bm Bookmark
		if err := rows.Scan(&bm.ID, &bm.Expression, &bm.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bookmark: %w", err)
		}
		bookmarks = append(bookmarks, bm)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bookmarks: %w", err)
	}
	return bookmarks, nil
}

// Expand replaces "@<id>" references with the saved expression. Other
// expressions are returned as is.
func (b *Bookmarks) Expand(expressions []string) ([]string, error) {
	out := make([]string, len(expressions))
	for i, expr := range expressions {
		ref, ok := strings.CutPrefix(strings.TrimSpace(expr), "@")
		if !ok {
			out[i] = expr
			continue
		}
		id, err := strconv.Atoi(ref)
		if err != nil {
			return nil, fmt.Errorf("invalid bookmark reference %q", expr)
		}
		bm, err := b.Get(id)
		if err != nil {
			return nil, fmt.Errorf("bookmark @%d: %w", id, err)
		}
		out[i] = bm.Expression
	}
	return out, nil
}

// HasReferences reports whether any expression names a bookmark
func HasReferences(expressions []string) bool {
	for _, expr := range expressions {
		if strings.HasPrefix(strings.TrimSpace(expr), "@") {
			return true
		}
	}
	return false
}

// Close closes the database connection
func (b *Bookmarks) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}
