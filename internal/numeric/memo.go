package numeric

import (
	"math/big"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMemoCapacity matches the lru_cache size used for item curves.
const DefaultMemoCapacity = 100000

type memoKey struct {
	a, b, c, d int64
	count      int64
}

// Memo is a fixed-capacity least-recently-used table of curve values.
// Safe for concurrent use.
type Memo struct {
	capacity int
	cache    *lru.Cache[memoKey, *big.Int]

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewMemo creates a memo holding at most capacity values.
func NewMemo(capacity int) *Memo {
	if capacity <= 0 {
		capacity = DefaultMemoCapacity
	}
	// lru.New only fails on a non-positive size.
	c, _ := lru.New[memoKey, *big.Int](capacity)
	return &Memo{capacity: capacity, cache: c}
}

func (m *Memo) get(k memoKey) (*big.Int, bool) {
	v, ok := m.cache.Get(k)
	if !ok {
		m.misses.Add(1)
		return nil, false
	}
	m.hits.Add(1)
	return v, true
}

// put keeps the first value stored under k.
func (m *Memo) put(k memoKey, v *big.Int) {
	m.cache.ContainsOrAdd(k, v)
}

// Len returns the number of memoized values.
func (m *Memo) Len() int {
	return m.cache.Len()
}

// MemoStats is a point-in-time view of memo usage.
type MemoStats struct {
	Size     int    `json:"size"`
	Capacity int    `json:"capacity"`
	Hits     uint64 `json:"hits"`
	Misses   uint64 `json:"misses"`
}

// Stats returns usage counters.
func (m *Memo) Stats() MemoStats {
	return MemoStats{
		Size:     m.cache.Len(),
		Capacity: m.capacity,
		Hits:     m.hits.Load(),
		Misses:   m.misses.Load(),
	}
}

var (
	sharedMu   sync.RWMutex
	sharedMemo = NewMemo(DefaultMemoCapacity)
)

// SetSharedMemo replaces the memo used by Curve.At. Call once at startup.
func SetSharedMemo(m *Memo) {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	sharedMemo = m
}

// SharedMemo returns the memo used by Curve.At.
func SharedMemo() *Memo {
	sharedMu.RLock()
	defer sharedMu.RUnlock()
	return sharedMemo
}
