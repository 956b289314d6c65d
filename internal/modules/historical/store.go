// Package historical provides access to historical daily closing prices.
package historical

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/quantnote/internal/utils"
)

// DB is the database surface the store depends on. Both *database.DB
// and *sql.DB satisfy it.
type DB interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
	Begin() (*sql.Tx, error)
}

// Store provides access to historical close data. It satisfies the
// lifecycle classifier's FixingSource interface.
type Store struct {
	db  DB
	log zerolog.Logger
}

// NewStore creates a new historical close store
func NewStore(db DB, log zerolog.Logger) *Store {
	return &Store{
		db:  db,
		log: log.With().Str("component", "historical").Logger(),
	}
}

// Migrate creates the daily close table when it does not exist yet
func (s *Store) Migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS daily_closes (
			ticker TEXT NOT NULL,
			date   INTEGER NOT NULL,
			close  REAL NOT NULL,
			PRIMARY KEY (ticker, date)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create daily_closes table: %w", err)
	}
	return nil
}

// DailyClose represents one closing price fixing
type DailyClose struct {
	Ticker string    `json:"ticker"`
	Date   time.Time `json:"date"`
	Close  float64   `json:"close"`
}

// CloseOn fetches the close for a ticker on an exact calendar date.
// The second return value is false when no fixing is recorded for that
// day; nearest-prior lookback is the caller's policy, not the store's.
func (s *Store) CloseOn(ticker string, date time.Time) (float64, bool) {
	var close float64
	err := s.db.QueryRow(
		`SELECT close FROM daily_closes WHERE ticker = ? AND date = ?`,
		ticker, utils.Midnight(date).Unix(),
	).Scan(&close)
	if err == sql.ErrNoRows {
		return 0, false
	}
	if err != nil {
		s.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to query daily close")
		return 0, false
	}
	return close, true
}

// SaveCloses upserts a batch of daily closes inside one transaction
func (s *Store) SaveCloses(closes []DailyClose) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO daily_closes (ticker, date, close)
		VALUES (?, ?, ?)
		ON CONFLICT(ticker, date) DO UPDATE SET close = excluded.close
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare close upsert: %w", err)
	}
	defer stmt.Close()

	for _, c := range closes {
		if _, err := stmt.Exec(c.Ticker, utils.Midnight(c.Date).Unix(), c.Close); err != nil {
			return fmt.Errorf("failed to upsert close for %s: %w", c.Ticker, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit closes: %w", err)
	}
	return nil
}

// RecentCloses fetches the latest closes for a ticker, newest first
func (s *Store) RecentCloses(ticker string, limit int) ([]DailyClose, error) {
	rows, err := s.db.Query(`
		SELECT date, close
		FROM daily_closes
		WHERE ticker = ?
		ORDER BY date DESC
		LIMIT ?
	`, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent closes: %w", err)
	}
	defer rows.Close()

	var closes []DailyClose
	for rows.Next() {
		var dateUnix int64
		c := DailyClose{Ticker: ticker}
		if err := rows.Scan(&dateUnix, &c.Close); err != nil {
			return nil, fmt.Errorf("failed to scan daily close: %w", err)
		}
		c.Date = time.Unix(dateUnix, 0).UTC()
		closes = append(closes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily closes: %w", err)
	}
	return closes, nil
}
