package notifylog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"nathanbeddoewebdev/eventwatch/internal/database"
)

// Repository defines the persistence interface for notification records.
type Repository interface {
	// Save inserts records. A record whose provider and event id are
	// already stored is skipped.
	Save(ctx context.Context, records []Record) (int64, error)
	List(limit int) ([]Record, error)
	ListByAction(action string, limit int) ([]Record, error)
	Prune(olderThan time.Duration) (int64, error)
	Close() error
}

// SQLiteRepository implements Repository backed by a local SQLite database.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens the notification log at the default path.
func Open() (*SQLiteRepository, error) {
	path, err := database.DefaultPath()
	if err != nil {
		return nil, fmt.Errorf("notifylog: %w", err)
	}
	return OpenAt(path)
}

// OpenAt creates or opens a SQLite database at the given path.
func OpenAt(path string) (*SQLiteRepository, error) {
	db, err := database.Open(path)
	if err != nil {
		return nil, fmt.Errorf("notifylog: %w", err)
	}

	r := &SQLiteRepository{db: db, now: time.Now}
	if err := database.Migrate(db, "notifylog", schema); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

const schema = `
    CREATE TABLE IF NOT EXISTS notifications (
        id           INTEGER PRIMARY KEY AUTOINCREMENT,
        provider     TEXT    NOT NULL,
        event_id     INTEGER NOT NULL,
        action       TEXT    NOT NULL DEFAULT '',
        entity       TEXT    NOT NULL DEFAULT '',
        status       TEXT    NOT NULL DEFAULT '',
        username     TEXT    NOT NULL DEFAULT '',
        completed_at TEXT    NOT NULL,
        notified_at  TEXT    NOT NULL,
        UNIQUE (provider, event_id)
    );
    CREATE INDEX IF NOT EXISTS idx_notifications_notified_at ON notifications(notified_at);
    CREATE INDEX IF NOT EXISTS idx_notifications_action ON notifications(action);
`

// Save inserts records in one transaction and returns how many were new.
func (r *SQLiteRepository) Save(ctx context.Context, records []Record) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("notifylog: begin failed: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
        INSERT OR IGNORE INTO notifications
            (provider, event_id, action, entity, status, username, completed_at, notified_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("notifylog: prepare failed: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for i := range records {
		rec := &records[i]
		if rec.NotifiedAt.IsZero() {
			rec.NotifiedAt = r.now().UTC()
		}
		result, err := stmt.ExecContext(ctx,
			rec.Provider, rec.EventID, rec.Action, rec.Entity, rec.Status, rec.Username,
			rec.CompletedAt.UTC().Format(time.RFC3339Nano), rec.NotifiedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return 0, fmt.Errorf("notifylog: insert event %d failed: %w", rec.EventID, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("notifylog: insert event %d failed: %w", rec.EventID, err)
		}
		if n == 1 {
			id, err := result.LastInsertId()
			if err == nil {
				rec.ID = id
			}
		}
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("notifylog: commit failed: %w", err)
	}
	return inserted, nil
}

// List returns the most recent n records.
func (r *SQLiteRepository) List(limit int) ([]Record, error) {
	rows, err := r.db.Query(`
        SELECT id, provider, event_id, action, entity, status, username, completed_at, notified_at
        FROM notifications ORDER BY notified_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("notifylog: query failed: %w", err)
	}
	defer rows.Close()
	return scanRows(rows)
}

// ListByAction returns the most recent n records for one event action.
func (r *SQLiteRepository) ListByAction(action string, limit int) ([]Record, error) {
	rows, err := r.db.Query(`
        SELECT id, provider, event_id, action, entity, status, username, completed_at, notified_at
        FROM notifications WHERE action = ? ORDER BY notified_at DESC, id DESC LIMIT ?`, action, limit)
	if err != nil {
		return nil, fmt.Errorf("notifylog: query failed: %w", err)
	}
	defer rows.Close()
	return scanRows(rows)
}

// Prune deletes records notified more than olderThan ago.
func (r *SQLiteRepository) Prune(olderThan time.Duration) (int64, error) {
	cutoff := r.now().UTC().Add(-olderThan).Format(time.RFC3339Nano)
	result, err := r.db.Exec(`DELETE FROM notifications WHERE notified_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("notifylog: delete failed: %w", err)
	}
	return result.RowsAffected()
}

// Close releases database resources.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func scanRows(rows *sql.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		var rec Record
		var completedAt, notifiedAt string
		err := rows.Scan(
			&rec.ID, &rec.Provider, &rec.EventID, &rec.Action, &rec.Entity, &rec.Status, &rec.Username,
			&completedAt, &notifiedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("notifylog: scan failed: %w", err)
		}
		rec.CompletedAt, _ = time.Parse(time.RFC3339Nano, completedAt)
		rec.NotifiedAt, _ = time.Parse(time.RFC3339Nano, notifiedAt)
		records = append(records, rec)
	}
	return records, rows.Err()
}
