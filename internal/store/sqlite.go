package store

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/joss/workplan/internal/log"
	"github.com/joss/workplan/internal/planning"
)

// DBFile is the SQLite database filename inside a plan directory.
const DBFile = "workplan.db"

// SQLStore persists the same documents as FileStore inside an embedded
// SQLite database: plan and memory as single-row JSON documents, history as
// plain rows. The single-statement upsert gives the same crash safety the
// file store gets from its rename.
type SQLStore struct {
	db  *sqlx.DB
	log *logrus.Logger
}

var _ planning.PlanStore = (*SQLStore)(nil)

// NewSQLStore opens (creating if needed) the database under dir and applies
// the schema.
func NewSQLStore(dir string) (*SQLStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "create store dir")
	}

	dbPath := filepath.Join(dir, DBFile)
	db, err := sqlx.Open("sqlite3", dbPath+"?_journal=WAL&_timeout=5000")
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	s := &SQLStore{db: db, log: log.GetLogger()}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrate")
	}
	return s, nil
}

// Close releases the database handle.
func (s *SQLStore) Close() error { return s.db.Close() }

func (s *SQLStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS plan_doc (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		doc TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS memory_doc (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		doc TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		session_id TEXT,
		user_input TEXT NOT NULL,
		intent TEXT NOT NULL,
		outcome TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return errors.Wrap(err, "apply schema")
}

// Load reads the plan document row. No row means no plan; a malformed
// document is logged and treated the same way.
func (s *SQLStore) Load() (*planning.Plan, error) {
	var doc string
	err := s.db.Get(&doc, `SELECT doc FROM plan_doc WHERE id = 1`)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "load plan")
	}

	// Pointer decode maps a literal null document to nil, same as no row.
	var p *planning.Plan
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		s.log.WithError(err).Error("plan document malformed")
		return nil, nil
	}
	return p, nil
}

// Save upserts the plan document, stamping updatedAt and recomputing the
// derived metadata first.
func (s *SQLStore) Save(p *planning.Plan) error {
	p.UpdatedAt = planning.Now()
	p.RecomputeMetadata()

	doc, err := json.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "marshal plan")
	}

	_, err = s.db.Exec(`
		INSERT INTO plan_doc (id, doc, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at
	`, string(doc), p.UpdatedAt)
	return errors.Wrap(err, "save plan")
}

// LoadMemory reads the memory document, defaulting to an empty one when no
// row exists or the stored document is malformed.
func (s *SQLStore) LoadMemory() (*planning.Memory, error) {
	var doc string
	err := s.db.Get(&doc, `SELECT doc FROM memory_doc WHERE id = 1`)
	if err == sql.ErrNoRows {
		return planning.NewMemory(), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "load memory")
	}

	var m *planning.Memory
	if err := json.Unmarshal([]byte(doc), &m); err != nil {
		s.log.WithError(err).Error("memory document malformed")
		return planning.NewMemory(), nil
	}
	if m == nil {
		return planning.NewMemory(), nil
	}
	return m, nil
}

// SaveMemory upserts the memory document.
func (s *SQLStore) SaveMemory(m *planning.Memory) error {
	doc, err := json.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "marshal memory")
	}

	_, err = s.db.Exec(`
		INSERT INTO memory_doc (id, doc) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET doc = excluded.doc
	`, string(doc))
	return errors.Wrap(err, "save memory")
}

// AppendHistory inserts one interaction row.
func (s *SQLStore) AppendHistory(e planning.HistoryEntry) error {
	_, err := s.db.Exec(`
		INSERT INTO history (timestamp, session_id, user_input, intent, outcome)
		VALUES (?, ?, ?, ?, ?)
	`, e.Timestamp, e.SessionID, e.UserInput, e.Intent, e.Outcome)
	return errors.Wrap(err, "append history")
}

type historyRow struct {
	Timestamp string         `db:"timestamp"`
	SessionID sql.NullString `db:"session_id"`
	UserInput string         `db:"user_input"`
	Intent    string         `db:"intent"`
	Outcome   string         `db:"outcome"`
}

// LoadHistory returns the most recent limit entries in chronological order.
// limit <= 0 returns every entry.
func (s *SQLStore) LoadHistory(limit int) ([]planning.HistoryEntry, error) {
	query := `SELECT timestamp, session_id, user_input, intent, outcome FROM history ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var rows []historyRow
	if err := s.db.Select(&rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "load history")
	}

	// Rows arrive newest first; flip to chronological order.
	entries := make([]planning.HistoryEntry, len(rows))
	for i, r := range rows {
		entries[len(rows)-1-i] = planning.HistoryEntry{
			Timestamp: r.Timestamp,
			SessionID: r.SessionID.String,
			UserInput: r.UserInput,
			Intent:    r.Intent,
			Outcome:   r.Outcome,
		}
	}
	return entries, nil
}
