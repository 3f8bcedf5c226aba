package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

var mysqlDialect = dialect{
	name: "mysql",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS room_time (
			room_name VARCHAR(191) NOT NULL PRIMARY KEY,
			time BIGINT NOT NULL
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS adding (
			room_name VARCHAR(191) NOT NULL,
			time BIGINT NOT NULL,
			isu LONGTEXT NOT NULL,
			PRIMARY KEY (room_name, time)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS buying (
			room_name VARCHAR(191) NOT NULL,
			item_id INT UNSIGNED NOT NULL,
			ordinal INT UNSIGNED NOT NULL,
			time BIGINT NOT NULL,
			PRIMARY KEY (room_name, item_id, ordinal)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
	ensureRoom:   `INSERT INTO room_time (room_name, time) VALUES (?, 0) ON DUPLICATE KEY UPDATE time = time`,
	ensureAdding: `INSERT INTO adding (room_name, time, isu) VALUES (?, ?, '0') ON DUPLICATE KEY UPDATE isu = isu`,
	forUpdate:    ` FOR UPDATE`,
	nowQuery:     `SELECT CAST(FLOOR(UNIX_TIMESTAMP(CURRENT_TIMESTAMP(3))*1000) AS SIGNED)`,
	reset: []string{
		`TRUNCATE TABLE adding`,
		`TRUNCATE TABLE buying`,
		`TRUNCATE TABLE room_time`,
	},
}

// MySQLLedgerRepository implements LedgerRepository using MySQL.
// The room_time row lock serializes mutations and the server clock is authoritative,
// so several app processes can share one database.
type MySQLLedgerRepository struct {
	*sqlLedger
}

// NewMySQLLedgerRepository creates a new MySQL ledger repository.
func NewMySQLLedgerRepository(dsn string) (*MySQLLedgerRepository, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	l := &sqlLedger{db: db, dialect: mysqlDialect, clock: SystemClock}
	if err := l.createTables(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[MySQLLedgerRepository] Initialized with pool: max=%d, idle=%d", 20, 10)
	return &MySQLLedgerRepository{sqlLedger: l}, nil
}

// Ensure MySQLLedgerRepository implements LedgerRepository
var _ LedgerRepository = (*MySQLLedgerRepository)(nil)
