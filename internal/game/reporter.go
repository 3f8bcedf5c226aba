package game

import (
	"context"
	"log"
	"sync"
	"time"

	"isuclicker-api/internal/numeric"
)

// ReporterConfig holds configuration for the stats reporter.
type ReporterConfig struct {
	// Interval is how often stats are logged. Default: 1 minute
	Interval time.Duration
}

// Reporter periodically logs ledger and memo usage.
type Reporter struct {
	svc       *Service
	config    ReporterConfig
	ticker    *time.Ticker
	stopCh    chan struct{}
	stopOnce  sync.Once
	isRunning bool
	mu        sync.Mutex
}

// NewReporter creates a new stats reporter.
func NewReporter(svc *Service, config ReporterConfig) *Reporter {
	if config.Interval <= 0 {
		config.Interval = time.Minute
	}
	return &Reporter{
		svc:    svc,
		config: config,
		stopCh: make(chan struct{}),
	}
}

// Start begins the reporter.
func (r *Reporter) Start() {
	r.mu.Lock()
	if r.isRunning {
		r.mu.Unlock()
		return
	}
	r.isRunning = true
	r.ticker = time.NewTicker(r.config.Interval)
	r.mu.Unlock()

	log.Printf("[Reporter] Started - Interval: %v", r.config.Interval)
	go r.run()
}

func (r *Reporter) run() {
	for {
		select {
		case <-r.ticker.C:
			r.RunNow()
		case <-r.stopCh:
			log.Printf("[Reporter] Stopped")
			return
		}
	}
}

// RunNow logs one report and returns the memo stats it logged.
func (r *Reporter) RunNow() numeric.MemoStats {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	memo := numeric.SharedMemo().Stats()
	ratio := 0.0
	if total := memo.Hits + memo.Misses; total > 0 {
		ratio = float64(memo.Hits) / float64(total)
	}

	ledger, err := r.svc.repo.GetStats(ctx)
	if err != nil {
		log.Printf("[Reporter] Ledger stats failed: %v", err)
		ledger = nil
	}
	log.Printf("[Reporter] memo size=%d/%d hit_ratio=%.3f ledger=%v",
		memo.Size, memo.Capacity, ratio, ledger)
	return memo
}

// Stop stops the reporter.
func (r *Reporter) Stop() {
	r.stopOnce.Do(func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		if r.ticker != nil {
			r.ticker.Stop()
		}
		close(r.stopCh)
		r.isRunning = false
	})
}
