package telemetry

import (
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Journal appends colony events to a SQLite database for offline analysis.
// Events are buffered and written in one transaction per Flush.
type Journal struct {
	conn    *sqlx.DB
	pending []Event
}

// OpenJournal opens or creates a journal at path.
// Returns nil if path is empty (journal disabled).
func OpenJournal(path string) (*Journal, error) {
	if path == "" {
		return nil, nil
	}

	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	j := &Journal{conn: conn}
	if err := j.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	return j, nil
}

func (j *Journal) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tick INTEGER NOT NULL,
		type TEXT NOT NULL,
		agent TEXT NOT NULL,
		target TEXT NOT NULL,
		amount REAL NOT NULL,
		detail TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS run_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_tick ON events(tick);
	CREATE INDEX IF NOT EXISTS idx_events_type ON events(type);
	`
	_, err := j.conn.Exec(schema)
	return err
}

// Record buffers an event.
func (j *Journal) Record(e Event) {
	if j == nil {
		return
	}
	j.pending = append(j.pending, e)
}

// Pending returns the number of buffered events.
func (j *Journal) Pending() int {
	if j == nil {
		return 0
	}
	return len(j.pending)
}

// Flush writes buffered events in a single transaction.
func (j *Journal) Flush() error {
	if j == nil || len(j.pending) == 0 {
		return nil
	}

	tx, err := j.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range j.pending {
		_, err := tx.NamedExec(
			`INSERT INTO events (tick, type, agent, target, amount, detail)
			 VALUES (:tick, :type, :agent, :target, :amount, :detail)`, e)
		if err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	slog.Debug("journal flushed", "events", len(j.pending))
	j.pending = j.pending[:0]
	return nil
}

// SaveMeta stores a key-value pair describing the run.
func (j *Journal) SaveMeta(key, value string) error {
	if j == nil {
		return nil
	}
	_, err := j.conn.Exec(
		"INSERT OR REPLACE INTO run_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a run metadata value.
func (j *Journal) GetMeta(key string) (string, error) {
	var value string
	err := j.conn.Get(&value, "SELECT value FROM run_meta WHERE key = ?", key)
	return value, err
}

// RecentEvents returns the most recent N written events, newest first.
func (j *Journal) RecentEvents(limit int) ([]Event, error) {
	var events []Event
	err := j.conn.Select(&events,
		"SELECT tick, type, agent, target, amount, detail FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	return events, err
}

// CountByType returns how many written events have the given type.
func (j *Journal) CountByType(typ EventType) (int, error) {
	var n int
	err := j.conn.Get(&n, "SELECT COUNT(*) FROM events WHERE type = ?", string(typ))
	return n, err
}

// Close writes any buffered events and closes the database.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	flushErr := j.Flush()
	if err := j.conn.Close(); err != nil {
		return err
	}
	return flushErr
}
