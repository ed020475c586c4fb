package prefs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/ziadkadry99/pageview/internal/db"
)

// Store provides access to the viewer_state and document_opens tables.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Set stores value under key for the document, replacing any previous value.
func (s *Store) Set(ctx context.Context, documentID, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO viewer_state (document_id, key, value, updated_at)
		VALUES (?, ?, ?, datetime('now'))
		ON CONFLICT(document_id, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		documentID, key, value,
	)
	if err != nil {
		return fmt.Errorf("saving %s for %s: %w", key, documentID, err)
	}
	return nil
}

// Get returns the stored value or ErrNotFound.
func (s *Store) Get(ctx context.Context, documentID, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM viewer_state WHERE document_id = ? AND key = ?`,
		documentID, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reading %s for %s: %w", key, documentID, err)
	}
	return value, nil
}

// Delete removes one key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, documentID, key string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM viewer_state WHERE document_id = ? AND key = ?`,
		documentID, key,
	); err != nil {
		return fmt.Errorf("deleting %s for %s: %w", key, documentID, err)
	}
	return nil
}

// List returns every stored entry for a document ordered by key.
func (s *Store) List(ctx context.Context, documentID string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT document_id, key, value, updated_at
		FROM viewer_state WHERE document_id = ? ORDER BY key`,
		documentID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing state for %s: %w", documentID, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var ts string
		if err := rows.Scan(&e.DocumentID, &e.Key, &e.Value, &ts); err != nil {
			return nil, fmt.Errorf("scanning state row: %w", err)
		}
		e.UpdatedAt = parseTime(ts)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// LastScale returns the saved zoom level for a document.
func (s *Store) LastScale(ctx context.Context, documentID string) (float64, bool, error) {
	v, err := s.Get(ctx, documentID, KeyScale)
	if errors.Is(err, ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return 0, false, nil
	}
	return f, true, nil
}

func (s *Store) SaveScale(ctx context.Context, documentID string, scale float64) error {
	return s.Set(ctx, documentID, KeyScale, strconv.FormatFloat(scale, 'f', -1, 64))
}

// LastPage returns the saved current page for a document.
func (s *Store) LastPage(ctx context.Context, documentID string) (int, bool, error) {
	v, err := s.Get(ctx, documentID, KeyPage)
	if errors.Is(err, ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, false, nil
	}
	return n, true, nil
}

func (s *Store) SavePage(ctx context.Context, documentID string, page int) error {
	return s.Set(ctx, documentID, KeyPage, strconv.Itoa(page))
}

// RecordOpen logs that a frontend opened a document.
func (s *Store) RecordOpen(ctx context.Context, documentID string, frontend Frontend) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO document_opens (id, document_id, frontend) VALUES (?, ?, ?)`,
		uuid.New().String(), documentID, string(frontend),
	)
	if err != nil {
		return fmt.Errorf("recording open of %s: %w", documentID, err)
	}
	return nil
}

// RecentOpens returns the most recent opens, newest first.
func (s *Store) RecentOpens(ctx context.Context, limit int) ([]Open, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, frontend, opened_at
		FROM document_opens ORDER BY opened_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying recent opens: %w", err)
	}
	defer rows.Close()

	var opens []Open
	for rows.Next() {
		var o Open
		var frontend, ts string
		if err := rows.Scan(&o.ID, &o.DocumentID, &frontend, &ts); err != nil {
			return nil, fmt.Errorf("scanning open row: %w", err)
		}
		o.Frontend = Frontend(frontend)
		o.OpenedAt = parseTime(ts)
		opens = append(opens, o)
	}
	return opens, rows.Err()
}

// parseTime accepts both SQLite's datetime('now') text and the RFC 3339
// form the driver produces for DATETIME columns.
func parseTime(ts string) time.Time {
	for _, layout := range []string{time.DateTime, time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, ts); err == nil {
			return t
		}
	}
	return time.Time{}
}
