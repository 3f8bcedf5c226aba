package game

import (
	"context"
	"fmt"

	"isuclicker-api/internal/repository"
)

// Commit validates a mutation of the room held by tx and advances the room
// clock to the authoritative time, which it returns. requestedTime 0 means
// "now". Must run inside LedgerRepository.Mutate.
func Commit(ctx context.Context, tx repository.LedgerTx, requestedTime int64) (int64, error) {
	roomTime, err := tx.CommittedTime(ctx)
	if err != nil {
		return 0, err
	}
	now, err := tx.Now(ctx)
	if err != nil {
		return 0, err
	}

	if roomTime > now {
		return 0, fmt.Errorf("%w: room_time=%d, now=%d", ErrClockViolation, roomTime, now)
	}
	if requestedTime != 0 && requestedTime < now {
		return 0, fmt.Errorf("%w: req_time=%d, now=%d", ErrStaleRequest, requestedTime, now)
	}

	if err := tx.SetCommittedTime(ctx, now); err != nil {
		return 0, err
	}
	return now, nil
}
