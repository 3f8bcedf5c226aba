package cache

import (
	"context"
	"encoding/binary"
	"errors"
	"log"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultSnapshotTTL bounds how long an unused room snapshot is kept.
const DefaultSnapshotTTL = 5 * time.Second

// Snapshot is a serialized game status and the room clock it was computed at.
type Snapshot struct {
	Time int64
	Body []byte
}

// ComputeFunc recomputes a room snapshot at a fresh commit time.
type ComputeFunc func(ctx context.Context) (Snapshot, error)

// SnapshotCache memoizes one snapshot per room. Reads are not linearizable:
// a reader accepts any snapshot computed at or after its bound t0.
// Concurrent misses for one room share a single recomputation.
type SnapshotCache struct {
	store Cache
	ttl   time.Duration
	group singleflight.Group
}

// NewSnapshotCache wraps store. ttl <= 0 uses DefaultSnapshotTTL.
func NewSnapshotCache(store Cache, ttl time.Duration) *SnapshotCache {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	return &SnapshotCache{store: store, ttl: ttl}
}

func snapshotKey(room string) string {
	return "status:" + room
}

func encodeSnapshot(s Snapshot) []byte {
	b := make([]byte, 8+len(s.Body))
	binary.BigEndian.PutUint64(b, uint64(s.Time))
	copy(b[8:], s.Body)
	return b
}

func decodeSnapshot(b []byte) (Snapshot, error) {
	if len(b) < 8 {
		return Snapshot{}, ErrCorruptEntry
	}
	return Snapshot{Time: int64(binary.BigEndian.Uint64(b)), Body: b[8:]}, nil
}

// Lookup returns the cached snapshot of room, if any.
func (c *SnapshotCache) Lookup(ctx context.Context, room string) (Snapshot, bool) {
	b, err := c.store.Get(ctx, snapshotKey(room))
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			log.Printf("[SnapshotCache] Get %s failed: %v", room, err)
		}
		return Snapshot{}, false
	}
	s, err := decodeSnapshot(b)
	if err != nil {
		log.Printf("[SnapshotCache] Dropping %s: %v", room, err)
		_ = c.store.Delete(ctx, snapshotKey(room))
		return Snapshot{}, false
	}
	return s, true
}

// Get returns a snapshot of room computed at or after t0, recomputing if needed.
func (c *SnapshotCache) Get(ctx context.Context, room string, t0 int64, compute ComputeFunc) (Snapshot, error) {
	if s, ok := c.Lookup(ctx, room); ok && s.Time >= t0 {
		return s, nil
	}

	v, err, shared := c.group.Do(room, func() (interface{}, error) {
		return c.refresh(context.WithoutCancel(ctx), room, compute)
	})
	if err != nil {
		return Snapshot{}, err
	}
	// An unshared flight started after this call, so it is fresh enough
	// even when the clock has not advanced past t0.
	if s := v.(Snapshot); s.Time >= t0 || !shared {
		return s, nil
	}

	// The shared flight committed before t0; only a new commit can satisfy us.
	return c.refresh(ctx, room, compute)
}

func (c *SnapshotCache) refresh(ctx context.Context, room string, compute ComputeFunc) (Snapshot, error) {
	s, err := compute(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	if err := c.store.Set(ctx, snapshotKey(room), encodeSnapshot(s), c.ttl); err != nil {
		log.Printf("[SnapshotCache] Set %s failed: %v", room, err)
	}
	return s, nil
}

// Invalidate drops the snapshot of room.
func (c *SnapshotCache) Invalidate(ctx context.Context, room string) error {
	return c.store.Delete(ctx, snapshotKey(room))
}

// Clear drops every snapshot.
func (c *SnapshotCache) Clear(ctx context.Context) error {
	return c.store.Clear(ctx)
}
