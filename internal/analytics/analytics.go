// Package analytics records every completed exchange in sqlite and
// aggregates them per endpoint.
package analytics

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/valyala/fastjson"

	"github.com/studiowebux/setu/internal/config"
	"github.com/studiowebux/setu/internal/executor"
	"github.com/studiowebux/setu/internal/migrations"
	"github.com/studiowebux/setu/internal/types"
)

// Timestamps are stored as UTC text in this layout
const timestampLayout = "2006-01-02 15:04:05"

// ErrDisabled is returned by commands that need analytics when they are off
var ErrDisabled = errors.New("analytics are disabled")

// DefaultCacheTTL bounds how stale StatsPerEndpoint may be between writes
const DefaultCacheTTL = 30 * time.Second

type Entry struct {
	ID             int64
	URL            string
	Host           string
	NormalizedPath string
	Method         string
	StatusCode     int // 0 when no response was received
	RequestSize    int64
	ResponseSize   int64
	DurationMs     int64
	ErrorMessage   string
	Timestamp      time.Time
}

type Stats struct {
	Host           string
	NormalizedPath string
	Method         string
	TotalCalls     int
	SuccessCount   int
	ErrorCount     int
	NetworkErrors  int // DNS, connection refused, timeout (status code 0)
	AvgDurationMs  float64
	MinDurationMs  int64
	MaxDurationMs  int64
	TotalReqSize   int64
	TotalRespSize  int64
	StatusCodes    map[int]int
	LastCalled     time.Time
}

// Endpoint renders host and path as one label
func (s Stats) Endpoint() string {
	return s.Host + s.NormalizedPath
}

// SuccessRate is the share of 2xx calls, from 0 to 1
func (s Stats) SuccessRate() float64 {
	if s.TotalCalls == 0 {
		return 0
	}
	return float64(s.SuccessCount) / float64(s.TotalCalls)
}

type Manager struct {
	db    *sql.DB
	cache *statsCache
}

func NewManager(dbPath string) (*Manager, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, config.DirPermissions); err != nil {
		return nil, fmt.Errorf("failed to create analytics directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open analytics database: %w", err)
	}
	// Writes arrive from send goroutines; one connection serializes them
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to analytics database: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Manager{db: db, cache: newStatsCache(DefaultCacheTTL)}, nil
}

var hostPrefix = regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9+.-]*://)?[^/]+`)

// NormalizePath strips scheme, host, query and fragment from rawURL
func NormalizePath(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)

	// Remove query parameters
	if idx := strings.Index(rawURL, "?"); idx != -1 {
		rawURL = rawURL[:idx]
	}

	// Remove fragment
	if idx := strings.Index(rawURL, "#"); idx != -1 {
		rawURL = rawURL[:idx]
	}

	path := hostPrefix.ReplaceAllString(rawURL, "")
	if path == "" {
		return "/"
	}
	return path
}

// Host returns the lowercase host (with port) of rawURL
func Host(rawURL string) string {
	u, err := url.Parse(executor.NormalizeURL(strings.TrimSpace(rawURL)))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}

// NewEntry describes one finished exchange. resp is nil when sendErr is set.
func NewEntry(req types.RequestData, resp *types.ResponseData, sendErr error, at time.Time) Entry {
	e := Entry{
		URL:            req.URL,
		Host:           Host(req.URL),
		NormalizedPath: NormalizePath(req.URL),
		Method:         string(req.Method),
		RequestSize:    int64(bodySize(req.Body)),
		Timestamp:      at,
	}
	if sendErr != nil {
		e.ErrorMessage = sendErr.Error()
	}
	if resp != nil {
		e.StatusCode = int(resp.StatusCode)
		e.ResponseSize = int64(resp.BodySizeBytes)
		e.DurationMs = int64(resp.DurationMs)
	}
	return e
}

func bodySize(body types.RequestBody) int {
	switch body.Kind {
	case types.BodyText, types.BodyJSON:
		return len(body.Content)
	case types.BodyFormURLEncoded:
		values := url.Values{}
		for k, v := range body.Form {
			values.Set(k, v)
		}
		return len(values.Encode())
	default:
		return 0
	}
}

// Save records one exchange and invalidates cached stats
func (m *Manager) Save(entry Entry) error {
	query := `
		INSERT INTO analytics (url, host, normalized_path, method, status_code, request_size, response_size, duration_ms, error_message, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	timestampStr := entry.Timestamp.UTC().Format(timestampLayout)

	var errorMessage sql.NullString
	if entry.ErrorMessage != "" {
		errorMessage = sql.NullString{String: entry.ErrorMessage, Valid: true}
	}

	_, err := m.db.Exec(query,
		entry.URL,
		entry.Host,
		entry.NormalizedPath,
		entry.Method,
		entry.StatusCode,
		entry.RequestSize,
		entry.ResponseSize,
		entry.DurationMs,
		errorMessage,
		timestampStr,
	)
	m.cache.invalidate()

	if err != nil {
		return fmt.Errorf("failed to save analytics entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first
func (m *Manager) Recent(limit int) ([]Entry, error) {
	query := `
		SELECT id, url, host, normalized_path, method, status_code, request_size, response_size, duration_ms, error_message, timestamp
		FROM analytics
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`

	rows, err := m.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load analytics: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var timestamp string
		var errorMsg sql.NullString

		err := rows.Scan(
			&e.ID,
			&e.URL,
			&e.Host,
			&e.NormalizedPath,
			&e.Method,
			&e.StatusCode,
			&e.RequestSize,
			&e.ResponseSize,
			&e.DurationMs,
			&errorMsg,
			&timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analytics entry: %w", err)
		}

		e.ErrorMessage = errorMsg.String
		e.Timestamp = parseTimestamp(timestamp)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func parseTimestamp(s string) time.Time {
	t, err := time.ParseInLocation(timestampLayout, s, time.UTC)
	if err == nil {
		return t.Local()
	}
	// The driver may hand DATETIME columns back as RFC3339
	t, err = time.Parse(time.RFC3339, s)
	if err == nil {
		return t.Local()
	}
	return time.Time{}
}

// StatsPerEndpoint aggregates calls by host, normalized path and method,
// most recently called first. Results are cached until the next Save or
// for DefaultCacheTTL.
func (m *Manager) StatsPerEndpoint() ([]Stats, error) {
	stats, generation, ok := m.cache.get()
	if ok {
		return stats, nil
	}

	query := `
		WITH status_codes_agg AS (
			SELECT
				host,
				normalized_path,
				method,
				json_group_object(CAST(status_code AS TEXT), count) as status_codes_json
			FROM (
				SELECT host, normalized_path, method, status_code, COUNT(*) as count
				FROM analytics
				GROUP BY host, normalized_path, method, status_code
			)
			GROUP BY host, normalized_path, method
		)
		SELECT
			a.host,
			a.normalized_path,
			a.method,
			COUNT(*) as total_calls,
			SUM(CASE WHEN a.status_code >= 200 AND a.status_code < 300 THEN 1 ELSE 0 END) as success_count,
			SUM(CASE WHEN a.status_code >= 400 THEN 1 ELSE 0 END) as error_count,
			SUM(CASE WHEN a.status_code = 0 THEN 1 ELSE 0 END) as network_errors,
			AVG(a.duration_ms) as avg_duration,
			MIN(a.duration_ms) as min_duration,
			MAX(a.duration_ms) as max_duration,
			SUM(a.request_size) as total_req_size,
			SUM(a.response_size) as total_resp_size,
			MAX(a.timestamp) as last_called,
			COALESCE(s.status_codes_json, '{}') as status_codes_json
		FROM analytics a
		LEFT JOIN status_codes_agg s
			ON a.host = s.host AND a.normalized_path = s.normalized_path AND a.method = s.method
		GROUP BY a.host, a.normalized_path, a.method
		ORDER BY last_called DESC, a.host, a.normalized_path, a.method
	`

	rows, err := m.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats per endpoint: %w", err)
	}
	defer rows.Close()

	var statsList []Stats
	for rows.Next() {
		var s Stats
		var lastCalled sql.NullString
		var statusCodesJSON string

		err := rows.Scan(
			&s.Host,
			&s.NormalizedPath,
			&s.Method,
			&s.TotalCalls,
			&s.SuccessCount,
			&s.ErrorCount,
			&s.NetworkErrors,
			&s.AvgDurationMs,
			&s.MinDurationMs,
			&s.MaxDurationMs,
			&s.TotalReqSize,
			&s.TotalRespSize,
			&lastCalled,
			&statusCodesJSON,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stats: %w", err)
		}

		if lastCalled.Valid {
			s.LastCalled = parseTimestamp(lastCalled.String)
		}

		s.StatusCodes, err = parseStatusCodes(statusCodesJSON)
		if err != nil {
			return nil, err
		}

		statsList = append(statsList, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	m.cache.set(statsList, generation)
	return statsList, nil
}

// parseStatusCodes reads the {"200": 3, "0": 1} object built by json_group_object
func parseStatusCodes(raw string) (map[int]int, error) {
	codes := make(map[int]int)

	v, err := fastjson.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse status codes: %w", err)
	}
	obj, err := v.Object()
	if err != nil {
		return nil, fmt.Errorf("failed to parse status codes: %w", err)
	}

	obj.Visit(func(key []byte, count *fastjson.Value) {
		code, err := strconv.Atoi(string(key))
		if err != nil {
			return
		}
		codes[code] = count.GetInt()
	})
	return codes, nil
}

func (m *Manager) Clear() error {
	_, err := m.db.Exec("DELETE FROM analytics")
	m.cache.invalidate()
	if err != nil {
		return fmt.Errorf("failed to clear analytics: %w", err)
	}
	return nil
}

func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
