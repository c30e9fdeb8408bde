package storage

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"farefeed/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStorage struct {
	db    *sql.DB
	mutex sync.RWMutex
}

func NewSQLiteStorage(dataDir string) (*SQLiteStorage, error) {
	// Ensure data directory exists with secure permissions (0750)
	if err := os.MkdirAll(dataDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %v", err)
	}

	dbPath := filepath.Join(dataDir, "fare_history.db")
	log.Printf("Initializing fare history database at: %s", dbPath)

	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_synchronous=NORMAL&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %v", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS fare_quotes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		journey TEXT NOT NULL,
		probe_date DATETIME NOT NULL,
		departure DATETIME NOT NULL,
		price TEXT NOT NULL,
		found INTEGER NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_fare_quotes_journey ON fare_quotes(journey);
	CREATE INDEX IF NOT EXISTS idx_fare_quotes_created_at ON fare_quotes(created_at);
	`

	if _, err := db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// SaveQuotes persists every quote of one evaluation, found or not, so
// the history reflects what each probe actually answered.
func (s *SQLiteStorage) SaveQuotes(journey string, quotes []models.FareQuote) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO fare_quotes (journey, probe_date, departure, price, found, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %v", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, quote := range quotes {
		if _, err := stmt.Exec(journey, quote.ProbeDate.UTC(), quote.Departure.UTC(), quote.Price, quote.Found, now); err != nil {
			return fmt.Errorf("failed to insert quote: %v", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit quotes: %v", err)
	}
	return nil
}

// LoadRecent returns the newest records for a journey, most recent
// evaluation first.
func (s *SQLiteStorage) LoadRecent(journey string, limit int) ([]models.FareRecord, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	rows, err := s.db.Query(`
		SELECT journey, probe_date, departure, price, found, created_at
		FROM fare_quotes
		WHERE journey = ?
		ORDER BY created_at DESC, probe_date ASC
		LIMIT ?`, journey, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query quotes: %v", err)
	}
	defer rows.Close()

	var records []models.FareRecord
	for rows.Next() {
		var record models.FareRecord
		if err := rows.Scan(&record.Journey, &record.ProbeDate, &record.Departure, &record.Price, &record.Found, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan quote row: %v", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (s *SQLiteStorage) ListJourneys() ([]models.JourneyInfo, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	rows, err := s.db.Query(`
		SELECT journey, COUNT(*), MAX(created_at)
		FROM fare_quotes
		GROUP BY journey
		ORDER BY journey`)
	if err != nil {
		return nil, fmt.Errorf("failed to query journeys: %v", err)
	}
	defer rows.Close()

	var journeys []models.JourneyInfo
	for rows.Next() {
		var info models.JourneyInfo
		if err := rows.Scan(&info.Journey, &info.RecordCount, &info.LastUpdated); err != nil {
			return nil, fmt.Errorf("failed to scan journey row: %v", err)
		}
		journeys = append(journeys, info)
	}
	return journeys, rows.Err()
}

// CleanupOldRecords removes quotes older than the retention window.
func (s *SQLiteStorage) CleanupOldRecords(retention time.Duration) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	cutoff := time.Now().UTC().Add(-retention)
	result, err := s.db.Exec("DELETE FROM fare_quotes WHERE created_at < ?", cutoff)
	if err != nil {
		return fmt.Errorf("failed to cleanup old records: %v", err)
	}

	if removed, err := result.RowsAffected(); err == nil && removed > 0 {
		log.Printf("Removed %d fare records older than %v", removed, retention)
	}
	return nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
