package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

var sqliteDialect = dialect{
	name: "sqlite",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS room_time (
			room_name TEXT NOT NULL PRIMARY KEY,
			time INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS adding (
			room_name TEXT NOT NULL,
			time INTEGER NOT NULL,
			isu TEXT NOT NULL,
			PRIMARY KEY (room_name, time)
		)`,
		`CREATE TABLE IF NOT EXISTS buying (
			room_name TEXT NOT NULL,
			item_id INTEGER NOT NULL,
			ordinal INTEGER NOT NULL,
			time INTEGER NOT NULL,
			PRIMARY KEY (room_name, item_id, ordinal)
		)`,
	},
	ensureRoom:   `INSERT INTO room_time (room_name, time) VALUES (?, 0) ON CONFLICT(room_name) DO NOTHING`,
	ensureAdding: `INSERT INTO adding (room_name, time, isu) VALUES (?, ?, '0') ON CONFLICT(room_name, time) DO NOTHING`,
	reset: []string{
		`DELETE FROM adding`,
		`DELETE FROM buying`,
		`DELETE FROM room_time`,
	},
}

// SQLiteLedgerRepository implements LedgerRepository using SQLite.
// SQLite has a single writer and no row locks, so rooms are also
// serialized in process.
type SQLiteLedgerRepository struct {
	*sqlLedger
}

// NewSQLiteLedgerRepository creates a new SQLite ledger repository.
// dbPath is the path to the SQLite database file (e.g., "./data/ledger.db")
func NewSQLiteLedgerRepository(dbPath string, clock Clock) (*SQLiteLedgerRepository, error) {
	if clock == nil {
		clock = SystemClock
	}

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// SQLite connection pool settings
	db.SetMaxOpenConns(1) // SQLite only supports 1 writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0) // Keep connection alive

	l := &sqlLedger{db: db, dialect: sqliteDialect, clock: clock, locks: newRoomLocks()}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.createTables(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[SQLiteLedgerRepository] Initialized with database: %s", dbPath)
	return &SQLiteLedgerRepository{sqlLedger: l}, nil
}

// Ensure SQLiteLedgerRepository implements LedgerRepository
var _ LedgerRepository = (*SQLiteLedgerRepository)(nil)
