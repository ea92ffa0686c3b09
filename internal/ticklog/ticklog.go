package ticklog

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// #region schema

const schema = `
CREATE TABLE IF NOT EXISTS tick_log (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id   TEXT NOT NULL,
	from_state   TEXT,
	to_state     TEXT NOT NULL,
	decision     TEXT NOT NULL,
	reason       TEXT,
	confidence   REAL NOT NULL,
	anxiety      REAL NOT NULL,
	created_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tick_log_session ON tick_log(session_id, id);
`

// #endregion schema

// #region log

// Log persists one row per evaluation tick in SQLite, recording which state
// was active and why. Purely observational; the engine runs fine without it.
type Log struct {
	db *sql.DB
}

// Open opens (creating if needed) the tick log database.
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open tick log: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate tick log: %w", err)
	}
	return &Log{db: db}, nil
}

// Close closes the underlying database.
func (l *Log) Close() error {
	return l.db.Close()
}

// #endregion log

// #region entry

// Entry is one recorded evaluation tick.
type Entry struct {
	SessionID  string
	FromState  string // empty on a session's first tick
	ToState    string
	Decision   string
	Reason     string
	Confidence float64
	Anxiety    float64
	CreatedAt  time.Time
}

// Record appends a tick entry.
func (l *Log) Record(e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := l.db.Exec(
		`INSERT INTO tick_log (session_id, from_state, to_state, decision, reason, confidence, anxiety, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.SessionID,
		nullIfEmpty(e.FromState),
		e.ToState,
		e.Decision,
		nullIfEmpty(e.Reason),
		e.Confidence,
		e.Anxiety,
		e.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record tick: %w", err)
	}
	return nil
}

// Recent returns up to limit entries for a session, newest first.
func (l *Log) Recent(sessionID string, limit int) ([]Entry, error) {
	rows, err := l.db.Query(
		`SELECT session_id, COALESCE(from_state, ''), to_state, decision, COALESCE(reason, ''), confidence, anxiety, created_at
		 FROM tick_log WHERE session_id = ? ORDER BY id DESC LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query ticks: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var createdAt string
		if err := rows.Scan(&e.SessionID, &e.FromState, &e.ToState, &e.Decision, &e.Reason, &e.Confidence, &e.Anxiety, &createdAt); err != nil {
			return nil, fmt.Errorf("scan tick: %w", err)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// #endregion entry

// #region stats

// StateStat aggregates tick outcomes per state across all sessions.
type StateStat struct {
	StateID       string
	Ticks         int
	Transitions   int
	AvgConfidence float64
	AvgAnxiety    float64
}

// StateStats returns per-state aggregates, ordered by tick count descending.
func (l *Log) StateStats() ([]StateStat, error) {
	rows, err := l.db.Query(
		`SELECT to_state,
		        COUNT(*),
		        SUM(CASE WHEN decision IN ('enter', 'transition', 'override') THEN 1 ELSE 0 END),
		        AVG(confidence),
		        AVG(anxiety)
		 FROM tick_log GROUP BY to_state ORDER BY COUNT(*) DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query state stats: %w", err)
	}
	defer rows.Close()

	var stats []StateStat
	for rows.Next() {
		var s StateStat
		if err := rows.Scan(&s.StateID, &s.Ticks, &s.Transitions, &s.AvgConfidence, &s.AvgAnxiety); err != nil {
			return nil, fmt.Errorf("scan stat: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// #endregion stats

// #region helpers

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
