package repository

import (
	"context"
	"log"
	"math/big"
	"sync"

	"isuclicker-api/internal/model"
)

type memoryRoom struct {
	mu        sync.RWMutex
	time      int64
	deposits  []model.Deposit
	purchases []model.Purchase
}

func (r *memoryRoom) snapshot() (int64, []model.Deposit, []model.Purchase) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	deposits := make([]model.Deposit, len(r.deposits))
	copy(deposits, r.deposits)
	purchases := make([]model.Purchase, len(r.purchases))
	copy(purchases, r.purchases)
	return r.time, deposits, purchases
}

// MemoryLedgerRepository keeps all rooms in process memory.
// Rooms live until Reset or process exit.
type MemoryLedgerRepository struct {
	clock Clock
	locks *roomLocks

	mu    sync.RWMutex
	rooms map[string]*memoryRoom
}

// NewMemoryLedgerRepository creates an in-memory ledger. A nil clock uses SystemClock.
func NewMemoryLedgerRepository(clock Clock) *MemoryLedgerRepository {
	if clock == nil {
		clock = SystemClock
	}
	log.Printf("[MemoryLedgerRepository] Initialized")
	return &MemoryLedgerRepository{
		clock: clock,
		locks: newRoomLocks(),
		rooms: make(map[string]*memoryRoom),
	}
}

func (r *MemoryLedgerRepository) room(name string) *memoryRoom {
	r.mu.RLock()
	rm, ok := r.rooms[name]
	r.mu.RUnlock()
	if ok {
		return rm
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if rm, ok = r.rooms[name]; !ok {
		rm = &memoryRoom{}
		r.rooms[name] = rm
	}
	return rm
}

// Mutate runs fn on a working copy of the room and publishes it if fn succeeds.
func (r *MemoryLedgerRepository) Mutate(ctx context.Context, room string, fn func(tx LedgerTx) error) error {
	unlock := r.locks.Lock(room)
	defer unlock()

	rm := r.room(room)
	t, deposits, purchases := rm.snapshot()
	tx := &memoryTx{clock: r.clock, time: t, deposits: deposits, purchases: purchases}

	if err := fn(tx); err != nil {
		return err
	}

	rm.mu.Lock()
	rm.time = tx.time
	rm.deposits = tx.deposits
	rm.purchases = tx.purchases
	rm.mu.Unlock()
	return nil
}

// ListDeposits returns every deposit of room.
func (r *MemoryLedgerRepository) ListDeposits(ctx context.Context, room string) ([]model.Deposit, error) {
	_, deposits, _ := r.room(room).snapshot()
	return deposits, nil
}

// ListPurchases returns every purchase of room.
func (r *MemoryLedgerRepository) ListPurchases(ctx context.Context, room string) ([]model.Purchase, error) {
	_, _, purchases := r.room(room).snapshot()
	return purchases, nil
}

// Now returns the authoritative clock.
func (r *MemoryLedgerRepository) Now(ctx context.Context) (int64, error) {
	return r.clock(), nil
}

// Reset clears all rooms.
func (r *MemoryLedgerRepository) Reset(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rooms = make(map[string]*memoryRoom)
	log.Printf("[MemoryLedgerRepository] Reset all rooms")
	return nil
}

// GetStats returns statistics about the ledger.
func (r *MemoryLedgerRepository) GetStats(ctx context.Context) (map[string]interface{}, error) {
	r.mu.RLock()
	rooms := make([]*memoryRoom, 0, len(r.rooms))
	for _, rm := range r.rooms {
		rooms = append(rooms, rm)
	}
	r.mu.RUnlock()

	var st model.LedgerStats
	st.Rooms = int64(len(rooms))
	for _, rm := range rooms {
		rm.mu.RLock()
		st.Deposits += int64(len(rm.deposits))
		st.Purchases += int64(len(rm.purchases))
		rm.mu.RUnlock()
	}

	return map[string]interface{}{
		"total_rooms":     st.Rooms,
		"total_deposits":  st.Deposits,
		"total_purchases": st.Purchases,
	}, nil
}

// Close is a no-op.
func (r *MemoryLedgerRepository) Close() error {
	return nil
}

type memoryTx struct {
	clock     Clock
	time      int64
	deposits  []model.Deposit
	purchases []model.Purchase
}

func (tx *memoryTx) Now(ctx context.Context) (int64, error) {
	return tx.clock(), nil
}

func (tx *memoryTx) CommittedTime(ctx context.Context) (int64, error) {
	return tx.time, nil
}

func (tx *memoryTx) SetCommittedTime(ctx context.Context, t int64) error {
	tx.time = t
	return nil
}

func (tx *memoryTx) AppendOrMergeDeposit(ctx context.Context, t int64, amount *big.Int) error {
	for i, d := range tx.deposits {
		if d.Time == t {
			tx.deposits[i] = model.Deposit{Time: t, Amount: new(big.Int).Add(d.Amount, amount)}
			return nil
		}
	}
	tx.deposits = append(tx.deposits, model.Deposit{Time: t, Amount: new(big.Int).Set(amount)})
	return nil
}

func (tx *memoryTx) AppendPurchase(ctx context.Context, p model.Purchase) error {
	tx.purchases = append(tx.purchases, p)
	return nil
}

func (tx *memoryTx) CountPurchases(ctx context.Context, itemID int) (int, error) {
	n := 0
	for _, p := range tx.purchases {
		if p.ItemID == itemID {
			n++
		}
	}
	return n, nil
}

func (tx *memoryTx) ListDeposits(ctx context.Context) ([]model.Deposit, error) {
	return tx.deposits, nil
}

func (tx *memoryTx) ListPurchases(ctx context.Context) ([]model.Purchase, error) {
	return tx.purchases, nil
}

// Ensure MemoryLedgerRepository implements LedgerRepository
var _ LedgerRepository = (*MemoryLedgerRepository)(nil)
