package repository

import (
	"context"
	"math/big"
	"time"

	"isuclicker-api/internal/model"
)

// Clock returns the authoritative wall clock in milliseconds.
type Clock func() int64

// SystemClock reads the local wall clock.
func SystemClock() int64 {
	return time.Now().UnixMilli()
}

// LedgerTx is the view of one room handed to a mutation.
// All writes made through it are applied atomically when the mutation returns nil
// and discarded otherwise.
type LedgerTx interface {
	// Now returns the authoritative clock.
	Now(ctx context.Context) (int64, error)

	// CommittedTime returns the room clock of the last accepted mutation.
	CommittedTime(ctx context.Context) (int64, error)

	// SetCommittedTime advances the room clock.
	SetCommittedTime(ctx context.Context, t int64) error

	// AppendOrMergeDeposit adds amount to the deposit at time t, creating it if needed.
	AppendOrMergeDeposit(ctx context.Context, t int64, amount *big.Int) error

	// AppendPurchase records a purchase.
	AppendPurchase(ctx context.Context, p model.Purchase) error

	// CountPurchases returns how many units of itemID the room has bought.
	CountPurchases(ctx context.Context, itemID int) (int, error)

	// ListDeposits returns every deposit of the room.
	ListDeposits(ctx context.Context) ([]model.Deposit, error)

	// ListPurchases returns every purchase of the room.
	ListPurchases(ctx context.Context) ([]model.Purchase, error)
}

// LedgerRepository stores the per-room deposit and purchase ledgers.
type LedgerRepository interface {
	// Mutate runs fn with exclusive access to room. Mutations of different
	// rooms run in parallel. Rooms are created on first reference.
	Mutate(ctx context.Context, room string, fn func(tx LedgerTx) error) error

	// ListDeposits returns every deposit of room.
	ListDeposits(ctx context.Context, room string) ([]model.Deposit, error)

	// ListPurchases returns every purchase of room.
	ListPurchases(ctx context.Context, room string) ([]model.Purchase, error)

	// Now returns the authoritative clock.
	Now(ctx context.Context) (int64, error)

	// Reset clears all rooms.
	Reset(ctx context.Context) error

	// GetStats returns statistics about the ledger.
	GetStats(ctx context.Context) (map[string]interface{}, error)

	// Close closes the repository connection.
	Close() error
}
