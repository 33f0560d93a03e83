package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"matchbot/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS publish_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	post_id TEXT NOT NULL,
	title TEXT NOT NULL,
	outcome TEXT NOT NULL,
	url TEXT,
	error TEXT,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_publish_history_created_at ON publish_history(created_at);
`

// History records finished workflow outcomes in sqlite. Pending posts are
// deliberately never written here; only terminal states are.
type History struct {
	db *sql.DB
}

// New opens (creating if needed) the history database at path.
func New(path string) (*History, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping history database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}

	return &History{db: db}, nil
}

func (h *History) Close() error {
	return h.db.Close()
}

// Record appends one finished workflow outcome.
func (h *History) Record(ctx context.Context, entry *models.HistoryEntry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `
		INSERT INTO publish_history (post_id, title, outcome, url, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := h.db.ExecContext(ctx, query,
		entry.PostID, entry.Title, string(entry.Outcome), entry.URL, entry.Error, createdAt)
	if err != nil {
		return fmt.Errorf("failed to record history entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (h *History) Recent(ctx context.Context, limit int) ([]models.HistoryEntry, error) {
	query := `
		SELECT id, post_id, title, outcome, url, error, created_at
		FROM publish_history
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`
	rows, err := h.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []models.HistoryEntry
	for rows.Next() {
		var e models.HistoryEntry
		var outcome string
		if err := rows.Scan(&e.ID, &e.PostID, &e.Title, &outcome, &e.URL, &e.Error, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		e.Outcome = models.HistoryOutcome(outcome)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
