package persist

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"go.klb.dev/clipstash/internal/content"
	"go.klb.dev/clipstash/internal/history"
)

// SQLite implements history.Persister on a clipboard_items table.
type SQLite struct {
	db *sql.DB
}

var _ history.Persister = (*SQLite)(nil)

// New returns a Persister backed by db, which must have been opened with Open.
func New(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

// LoadAll returns every decodable item, newest first. Rows whose content does
// not decode under their kind are skipped and logged.
func (s *SQLite) LoadAll(ctx context.Context) ([]history.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, content, created_at, pinned, tags
		FROM clipboard_items
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("persist: load: %w", err)
	}
	defer rows.Close()

	var items []history.Item
	for rows.Next() {
		var (
			id, kind, tags string
			data           []byte
			createdAt      int64
			pinned         bool
		)
		if err := rows.Scan(&id, &kind, &data, &createdAt, &pinned, &tags); err != nil {
			slog.Warn("persist: skipping unreadable row", "err", err)
			continue
		}
		c, err := content.Decode(content.Kind(kind), data)
		if err != nil {
			slog.Warn("persist: skipping undecodable row", "id", id, "err", err)
			continue
		}
		items = append(items, history.Item{
			ID:        id,
			Content:   c,
			Timestamp: time.Unix(0, createdAt),
			Pinned:    pinned,
			Tags:      history.DecodeTags(tags),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("persist: load: %w", err)
	}
	return items, nil
}

// Upsert writes it, replacing any row with the same id.
func (s *SQLite) Upsert(ctx context.Context, it history.Item) error {
	kind, data := content.Encode(it.Content)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clipboard_items (id, kind, content, created_at, pinned, tags)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			content = excluded.content,
			created_at = excluded.created_at,
			pinned = excluded.pinned,
			tags = excluded.tags
	`, it.ID, string(kind), data, it.Timestamp.UnixNano(), it.Pinned, history.EncodeTags(it.Tags))
	if err != nil {
		return fmt.Errorf("persist: upsert %s: %w", it.ID, err)
	}
	return nil
}

// UpdatePin sets the pin flag of the row with id.
func (s *SQLite) UpdatePin(ctx context.Context, id string, pinned bool) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE clipboard_items SET pinned = ? WHERE id = ?`, pinned, id); err != nil {
		return fmt.Errorf("persist: update pin %s: %w", id, err)
	}
	return nil
}

// UpdateTags replaces the comma-joined tag string of the row with id.
func (s *SQLite) UpdateTags(ctx context.Context, id, tags string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE clipboard_items SET tags = ? WHERE id = ?`, tags, id); err != nil {
		return fmt.Errorf("persist: update tags %s: %w", id, err)
	}
	return nil
}

// Delete removes the row with id.
func (s *SQLite) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM clipboard_items WHERE id = ?`, id); err != nil {
		return fmt.Errorf("persist: delete %s: %w", id, err)
	}
	return nil
}

// DeleteAll removes every row.
func (s *SQLite) DeleteAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM clipboard_items`); err != nil {
		return fmt.Errorf("persist: delete all: %w", err)
	}
	return nil
}

// Count returns the number of stored rows.
func (s *SQLite) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM clipboard_items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("persist: count: %w", err)
	}
	return n, nil
}
