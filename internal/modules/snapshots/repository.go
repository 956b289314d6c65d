// Package snapshots persists completed valuation results for later
// inspection. Payloads are msgpack-encoded; summary columns stay
// queryable without decoding.
package snapshots

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/quantnote/internal/domain"
)

// DB is the database surface the repository depends on. Both
// *database.DB and *sql.DB satisfy it.
type DB interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// Repository stores valuation snapshots
type Repository struct {
	db  DB
	log zerolog.Logger
}

// NewRepository creates a new snapshot repository
func NewRepository(db DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "snapshots").Logger(),
	}
}

// Migrate creates the snapshot table when it does not exist yet
func (r *Repository) Migrate() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS valuation_snapshots (
			id             TEXT PRIMARY KEY,
			note_name      TEXT NOT NULL,
			state          TEXT NOT NULL,
			valuation_date TEXT NOT NULL,
			dirty_price    REAL NOT NULL,
			created_at     INTEGER NOT NULL,
			payload        BLOB NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create valuation_snapshots table: %w", err)
	}
	return nil
}

// Summary is the queryable header of a stored snapshot
type Summary struct {
	ID            string    `json:"id"`
	NoteName      string    `json:"note_name"`
	State         string    `json:"state"`
	ValuationDate string    `json:"valuation_date"`
	DirtyPrice    float64   `json:"dirty_price"`
	CreatedAt     time.Time `json:"created_at"`
}

// Save persists one valuation result under the given run id
func (r *Repository) Save(id string, result *domain.ValuationResult) error {
	payload, err := msgpack.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode valuation snapshot: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO valuation_snapshots
			(id, note_name, state, valuation_date, dirty_price, created_at, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		id,
		result.Name,
		string(result.State),
		result.ValuationDate.Format("2006-01-02"),
		result.DirtyPrice,
		time.Now().Unix(),
		payload,
	)
	if err != nil {
		return fmt.Errorf("failed to insert valuation snapshot: %w", err)
	}

	r.log.Debug().Str("id", id).Str("note", result.Name).Msg("Valuation snapshot stored")
	return nil
}

// List returns the most recent snapshot summaries, newest first
func (r *Repository) List(limit int) ([]Summary, error) {
	rows, err := r.db.Query(`
		SELECT id, note_name, state, valuation_date, dirty_price, created_at
		FROM valuation_snapshots
		ORDER BY created_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		var s Summary
		var createdUnix int64
		if err := rows.Scan(&s.ID, &s.NoteName, &s.State, &s.ValuationDate, &s.DirtyPrice, &createdUnix); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot summary: %w", err)
		}
		s.CreatedAt = time.Unix(createdUnix, 0).UTC()
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}
	return summaries, nil
}

// Get fetches one stored valuation result by run id. Returns nil when the
// id is unknown.
func (r *Repository) Get(id string) (*domain.ValuationResult, error) {
	var payload []byte
	err := r.db.QueryRow(
		`SELECT payload FROM valuation_snapshots WHERE id = ?`, id,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot %s: %w", id, err)
	}

	var result domain.ValuationResult
	if err := msgpack.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", id, err)
	}
	return &result, nil
}
