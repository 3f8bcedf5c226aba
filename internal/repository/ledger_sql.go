package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"isuclicker-api/internal/model"
)

// dialect holds the statements that differ between SQL backends.
type dialect struct {
	name string

	// positional placeholders ($1, $2...) instead of ?
	numbered bool

	schema       []string
	ensureRoom   string
	ensureAdding string
	forUpdate    string
	nowQuery     string // empty: use the process clock
	reset        []string
}

func (d dialect) bind(q string) string {
	if !d.numbered {
		return q
	}
	var b strings.Builder
	n := 0
	for _, c := range q {
		if c == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

// sqlLedger implements LedgerRepository over database/sql.
// The room_time row is the per-room lock; backends without row locks
// also take an in-process room lock.
type sqlLedger struct {
	db      *sql.DB
	dialect dialect
	clock   Clock
	locks   *roomLocks
}

func (l *sqlLedger) createTables(ctx context.Context) error {
	for _, stmt := range l.dialect.schema {
		if _, err := l.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (l *sqlLedger) now(ctx context.Context, q queryer) (int64, error) {
	if l.dialect.nowQuery == "" {
		return l.clock(), nil
	}
	var now int64
	if err := q.QueryRowContext(ctx, l.dialect.nowQuery).Scan(&now); err != nil {
		return 0, fmt.Errorf("failed to read server time: %w", err)
	}
	return now, nil
}

func (l *sqlLedger) listDeposits(ctx context.Context, q queryer, room string) ([]model.Deposit, error) {
	rows, err := q.QueryContext(ctx, l.dialect.bind(
		`SELECT time, isu FROM adding WHERE room_name = ? ORDER BY time`), room)
	if err != nil {
		return nil, fmt.Errorf("failed to list deposits: %w", err)
	}
	defer rows.Close()

	var deposits []model.Deposit
	for rows.Next() {
		var t int64
		var isu string
		if err := rows.Scan(&t, &isu); err != nil {
			return nil, err
		}
		amount, ok := new(big.Int).SetString(isu, 10)
		if !ok {
			return nil, fmt.Errorf("corrupt deposit amount %q in room %s", isu, room)
		}
		deposits = append(deposits, model.Deposit{Time: t, Amount: amount})
	}
	return deposits, rows.Err()
}

func (l *sqlLedger) listPurchases(ctx context.Context, q queryer, room string) ([]model.Purchase, error) {
	rows, err := q.QueryContext(ctx, l.dialect.bind(
		`SELECT item_id, ordinal, time FROM buying WHERE room_name = ? ORDER BY time, item_id, ordinal`), room)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	defer rows.Close()

	var purchases []model.Purchase
	for rows.Next() {
		var p model.Purchase
		if err := rows.Scan(&p.ItemID, &p.Ordinal, &p.Time); err != nil {
			return nil, err
		}
		purchases = append(purchases, p)
	}
	return purchases, rows.Err()
}

// Mutate locks the room_time row inside a transaction and runs fn.
func (l *sqlLedger) Mutate(ctx context.Context, room string, fn func(tx LedgerTx) error) error {
	if l.locks != nil {
		unlock := l.locks.Lock(room)
		defer unlock()
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Lock the row before reading anything else in this transaction,
	// otherwise a repeatable-read snapshot may predate the lock.
	if _, err := tx.ExecContext(ctx, l.dialect.bind(l.dialect.ensureRoom), room); err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}
	var committed int64
	err = tx.QueryRowContext(ctx, l.dialect.bind(
		`SELECT time FROM room_time WHERE room_name = ?`+l.dialect.forUpdate), room).Scan(&committed)
	if err != nil {
		return fmt.Errorf("failed to lock room: %w", err)
	}

	if err := fn(&sqlTx{ledger: l, tx: tx, room: room, time: committed}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListDeposits returns every deposit of room.
func (l *sqlLedger) ListDeposits(ctx context.Context, room string) ([]model.Deposit, error) {
	return l.listDeposits(ctx, l.db, room)
}

// ListPurchases returns every purchase of room.
func (l *sqlLedger) ListPurchases(ctx context.Context, room string) ([]model.Purchase, error) {
	return l.listPurchases(ctx, l.db, room)
}

// Now returns the authoritative clock.
func (l *sqlLedger) Now(ctx context.Context) (int64, error) {
	return l.now(ctx, l.db)
}

// Reset clears all rooms.
func (l *sqlLedger) Reset(ctx context.Context) error {
	for _, stmt := range l.dialect.reset {
		if _, err := l.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to reset ledger: %w", err)
		}
	}
	return nil
}

// GetStats returns row counts per table.
func (l *sqlLedger) GetStats(ctx context.Context) (map[string]interface{}, error) {
	var st model.LedgerStats
	counts := []struct {
		table string
		dst   *int64
	}{
		{"room_time", &st.Rooms},
		{"adding", &st.Deposits},
		{"buying", &st.Purchases},
	}
	for _, c := range counts {
		if err := l.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+c.table).Scan(c.dst); err != nil {
			return nil, err
		}
	}

	return map[string]interface{}{
		"driver":          l.dialect.name,
		"total_rooms":     st.Rooms,
		"total_deposits":  st.Deposits,
		"total_purchases": st.Purchases,
	}, nil
}

// Close closes the database connection.
func (l *sqlLedger) Close() error {
	return l.db.Close()
}

type sqlTx struct {
	ledger *sqlLedger
	tx     *sql.Tx
	room   string
	time   int64
}

func (t *sqlTx) Now(ctx context.Context) (int64, error) {
	return t.ledger.now(ctx, t.tx)
}

func (t *sqlTx) CommittedTime(ctx context.Context) (int64, error) {
	return t.time, nil
}

func (t *sqlTx) SetCommittedTime(ctx context.Context, v int64) error {
	_, err := t.tx.ExecContext(ctx, t.ledger.dialect.bind(
		`UPDATE room_time SET time = ? WHERE room_name = ?`), v, t.room)
	if err != nil {
		return fmt.Errorf("failed to update room time: %w", err)
	}
	t.time = v
	return nil
}

func (t *sqlTx) AppendOrMergeDeposit(ctx context.Context, at int64, amount *big.Int) error {
	d := t.ledger.dialect
	if _, err := t.tx.ExecContext(ctx, d.bind(d.ensureAdding), t.room, at); err != nil {
		return fmt.Errorf("failed to insert deposit: %w", err)
	}

	var isu string
	err := t.tx.QueryRowContext(ctx, d.bind(
		`SELECT isu FROM adding WHERE room_name = ? AND time = ?`+d.forUpdate), t.room, at).Scan(&isu)
	if err != nil {
		return fmt.Errorf("failed to read deposit: %w", err)
	}
	current, ok := new(big.Int).SetString(isu, 10)
	if !ok {
		return fmt.Errorf("corrupt deposit amount %q in room %s", isu, t.room)
	}
	current.Add(current, amount)

	_, err = t.tx.ExecContext(ctx, d.bind(
		`UPDATE adding SET isu = ? WHERE room_name = ? AND time = ?`), current.String(), t.room, at)
	if err != nil {
		return fmt.Errorf("failed to update deposit: %w", err)
	}
	return nil
}

func (t *sqlTx) AppendPurchase(ctx context.Context, p model.Purchase) error {
	_, err := t.tx.ExecContext(ctx, t.ledger.dialect.bind(
		`INSERT INTO buying (room_name, item_id, ordinal, time) VALUES (?, ?, ?, ?)`),
		t.room, p.ItemID, p.Ordinal, p.Time)
	if err != nil {
		return fmt.Errorf("failed to insert purchase: %w", err)
	}
	return nil
}

func (t *sqlTx) CountPurchases(ctx context.Context, itemID int) (int, error) {
	var n int
	err := t.tx.QueryRowContext(ctx, t.ledger.dialect.bind(
		`SELECT COUNT(*) FROM buying WHERE room_name = ? AND item_id = ?`), t.room, itemID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count purchases: %w", err)
	}
	return n, nil
}

func (t *sqlTx) ListDeposits(ctx context.Context) ([]model.Deposit, error) {
	return t.ledger.listDeposits(ctx, t.tx, t.room)
}

func (t *sqlTx) ListPurchases(ctx context.Context) ([]model.Purchase, error) {
	return t.ledger.listPurchases(ctx, t.tx, t.room)
}
