package game

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/big"
	"time"

	"golang.org/x/sync/semaphore"

	"isuclicker-api/internal/cache"
	"isuclicker-api/internal/catalog"
	"isuclicker-api/internal/journal"
	"isuclicker-api/internal/model"
	"isuclicker-api/internal/numeric"
	"isuclicker-api/internal/repository"
)

// Recorder receives every accepted mutation.
type Recorder interface {
	Record(e journal.Entry) error
}

// Options tunes a Service.
type Options struct {
	// StatusSlack is how old a cached snapshot may be when no bound is given.
	StatusSlack time.Duration

	// StatusWorkers bounds concurrent status recomputations.
	StatusWorkers int

	// StampRequestTime stamps ledger writes with the validated request
	// time instead of the commit time.
	StampRequestTime bool
}

// Service applies deposits and purchases to rooms and serves their status.
type Service struct {
	repo      repository.LedgerRepository
	catalog   *catalog.Catalog
	snapshots *cache.SnapshotCache
	journal   Recorder
	workers   *semaphore.Weighted
	opts      Options
}

// NewService creates a game service. rec may be nil.
func NewService(repo repository.LedgerRepository, cat *catalog.Catalog, snapshots *cache.SnapshotCache, rec Recorder, opts Options) *Service {
	if opts.StatusSlack <= 0 {
		opts.StatusSlack = 200 * time.Millisecond
	}
	if opts.StatusWorkers <= 0 {
		opts.StatusWorkers = 8
	}
	return &Service{
		repo:      repo,
		catalog:   cat,
		snapshots: snapshots,
		journal:   rec,
		workers:   semaphore.NewWeighted(int64(opts.StatusWorkers)),
		opts:      opts,
	}
}

// Catalog returns the item catalog the service prices against.
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

// Now returns the authoritative clock.
func (s *Service) Now(ctx context.Context) (int64, error) {
	return s.repo.Now(ctx)
}

func (s *Service) stamp(commitTime, requestedTime int64) int64 {
	if s.opts.StampRequestTime && requestedTime != 0 {
		return requestedTime
	}
	return commitTime
}

// AddIsu deposits isu into room. It reports whether the deposit was accepted.
func (s *Service) AddIsu(ctx context.Context, room string, requestedTime int64, isu *big.Int) bool {
	if isu == nil || isu.Sign() < 0 {
		log.Printf("[Game] addIsu %s rejected: %v", room, ErrInvalidAmount)
		return false
	}

	var at int64
	err := s.repo.Mutate(ctx, room, func(tx repository.LedgerTx) error {
		now, err := Commit(ctx, tx, requestedTime)
		if err != nil {
			return err
		}
		at = s.stamp(now, requestedTime)
		return tx.AppendOrMergeDeposit(ctx, at, isu)
	})
	if err != nil {
		log.Printf("[Game] addIsu %s rejected: %v", room, err)
		return false
	}

	s.accepted(ctx, room, journal.Entry{Room: room, Kind: journal.KindDeposit, Time: at, Isu: isu.String()})
	return true
}

// BuyItem buys the next unit of itemID in room. countBought is how many
// units the client believes the room already owns.
func (s *Service) BuyItem(ctx context.Context, room string, requestedTime int64, itemID, countBought int) bool {
	item, ok := s.catalog.Item(itemID)
	if !ok {
		log.Printf("[Game] buyItem %s rejected: %v: item_id=%d", room, ErrUnknownItem, itemID)
		return false
	}
	ordinal := countBought + 1

	var at int64
	err := s.repo.Mutate(ctx, room, func(tx repository.LedgerTx) error {
		now, err := Commit(ctx, tx, requestedTime)
		if err != nil {
			return err
		}
		at = s.stamp(now, requestedTime)

		count, err := tx.CountPurchases(ctx, itemID)
		if err != nil {
			return err
		}
		if count != countBought {
			return fmt.Errorf("%w: item_id=%d, count=%d, claimed=%d", ErrOrdinalMismatch, itemID, count, countBought)
		}

		balance, err := s.balanceAt(ctx, tx, at)
		if err != nil {
			return err
		}
		price := new(big.Int).Mul(item.GetPrice(ordinal), thousand)
		if balance.Cmp(price) < 0 {
			return fmt.Errorf("%w: item_id=%d, milli_isu=%s, price=%s", ErrInsufficientBalance, itemID, balance, price)
		}

		return tx.AppendPurchase(ctx, model.Purchase{ItemID: itemID, Ordinal: ordinal, Time: at})
	})
	if err != nil {
		log.Printf("[Game] buyItem %s rejected: %v", room, err)
		return false
	}

	s.accepted(ctx, room, journal.Entry{Room: room, Kind: journal.KindPurchase, Time: at, ItemID: itemID, Ordinal: ordinal})
	return true
}

// balanceAt returns the milli-isu balance of the room at time at.
func (s *Service) balanceAt(ctx context.Context, tx repository.LedgerTx, at int64) (*big.Int, error) {
	deposits, err := tx.ListDeposits(ctx)
	if err != nil {
		return nil, err
	}
	purchases, err := tx.ListPurchases(ctx)
	if err != nil {
		return nil, err
	}

	total := new(big.Int)
	for _, d := range deposits {
		if d.Time <= at && d.Amount != nil {
			total.Add(total, new(big.Int).Mul(d.Amount, thousand))
		}
	}
	for _, p := range purchases {
		it, ok := s.catalog.Item(p.ItemID)
		if !ok {
			return nil, fmt.Errorf("%w: item_id=%d", ErrUnknownItem, p.ItemID)
		}
		total.Sub(total, new(big.Int).Mul(it.GetPrice(p.Ordinal), thousand))
		if p.Time < at {
			total.Add(total, new(big.Int).Mul(it.GetPower(p.Ordinal), big.NewInt(at-p.Time)))
		}
	}
	return total, nil
}

func (s *Service) accepted(ctx context.Context, room string, e journal.Entry) {
	if s.snapshots != nil {
		if err := s.snapshots.Invalidate(ctx, room); err != nil {
			log.Printf("[Game] Failed to invalidate snapshot of %s: %v", room, err)
		}
	}
	if s.journal != nil {
		if err := s.journal.Record(e); err != nil {
			log.Printf("[Game] Failed to journal %s %s: %v", e.Kind, room, err)
		}
	}
}

// Status computes the status of room at a fresh commit time, bypassing the
// snapshot cache.
func (s *Service) Status(ctx context.Context, room string) (*model.GameStatus, error) {
	if err := s.workers.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.workers.Release(1)

	var (
		now       int64
		deposits  []model.Deposit
		purchases []model.Purchase
	)
	err := s.repo.Mutate(ctx, room, func(tx repository.LedgerTx) error {
		var err error
		if now, err = Commit(ctx, tx, 0); err != nil {
			return err
		}
		if deposits, err = tx.ListDeposits(ctx); err != nil {
			return err
		}
		purchases, err = tx.ListPurchases(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	status, err := CalcStatus(now, s.catalog, deposits, purchases)
	if err != nil {
		return nil, err
	}
	if status.Time, err = s.repo.Now(ctx); err != nil {
		return nil, err
	}
	return status, nil
}

// GetStatus returns the serialized status of room computed at or after t0.
// t0 == 0 accepts any snapshot no older than the configured slack.
func (s *Service) GetStatus(ctx context.Context, room string, t0 int64) ([]byte, error) {
	compute := func(ctx context.Context) (cache.Snapshot, error) {
		status, err := s.Status(ctx, room)
		if err != nil {
			return cache.Snapshot{}, err
		}
		body, err := json.Marshal(status)
		if err != nil {
			return cache.Snapshot{}, err
		}
		return cache.Snapshot{Time: status.Schedule[0].Time, Body: body}, nil
	}

	if s.snapshots == nil {
		snap, err := compute(ctx)
		return snap.Body, err
	}

	if t0 == 0 {
		now, err := s.repo.Now(ctx)
		if err != nil {
			return nil, err
		}
		t0 = now - s.opts.StatusSlack.Milliseconds()
	}
	snap, err := s.snapshots.Get(ctx, room, t0, compute)
	if err != nil {
		return nil, err
	}
	return snap.Body, nil
}

// Reset clears every room and drops cached snapshots.
func (s *Service) Reset(ctx context.Context) error {
	if err := s.repo.Reset(ctx); err != nil {
		return err
	}
	if s.snapshots != nil {
		if err := s.snapshots.Clear(ctx); err != nil {
			log.Printf("[Game] Failed to clear snapshots: %v", err)
		}
	}
	if s.journal == nil {
		return nil
	}
	now, err := s.repo.Now(ctx)
	if err != nil {
		log.Printf("[Game] Reset not journaled, clock unavailable: %v", err)
		return nil
	}
	if err := s.journal.Record(journal.Entry{Kind: journal.KindReset, Time: now}); err != nil {
		log.Printf("[Game] Failed to journal reset: %v", err)
	}
	return nil
}

// Stats reports ledger and memo statistics.
func (s *Service) Stats(ctx context.Context) (map[string]interface{}, error) {
	ledger, err := s.repo.GetStats(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"ledger":  ledger,
		"memo":    numeric.SharedMemo().Stats(),
		"catalog": s.catalog.Len(),
	}, nil
}
