package bootstrap

import (
	"fmt"
	"log"
	"time"

	"isuclicker-api/internal/cache"
	"isuclicker-api/internal/catalog"
	"isuclicker-api/internal/config"
	"isuclicker-api/internal/game"
	"isuclicker-api/internal/journal"
	"isuclicker-api/internal/numeric"
	"isuclicker-api/internal/repository"
)

// App holds the wired game stack.
type App struct {
	Ledger    repository.LedgerRepository
	Store     cache.Cache
	Snapshots *cache.SnapshotCache
	Journal   *journal.Writer
	Catalog   *catalog.Catalog
	Service   *game.Service
}

// OpenLedger opens the ledger store selected by cfg.
func OpenLedger(cfg config.LedgerConfig) (repository.LedgerRepository, error) {
	switch cfg.Type {
	case "memory":
		log.Println("Memory ledger repository initialized")
		return repository.NewMemoryLedgerRepository(repository.SystemClock), nil
	case "mysql":
		return repository.NewMySQLLedgerRepository(cfg.MySQLDSN())
	case "postgres", "postgresql":
		return repository.NewPostgresLedgerRepository(cfg.PostgresDSN())
	case "sqlite", "":
		return repository.NewSQLiteLedgerRepository(cfg.Path, repository.SystemClock)
	default:
		return nil, fmt.Errorf("unsupported ledger type %q", cfg.Type)
	}
}

// OpenCache opens the snapshot cache backend selected by cfg.
func OpenCache(cfg config.CacheConfig) (cache.Cache, error) {
	switch cfg.Type {
	case "redis":
		return cache.NewRedisCache(cache.RedisConfig{
			Addr:      cfg.RedisAddress(),
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.RedisKeyPrefix,
		})
	case "memory", "":
		return cache.NewMemoryCache(time.Minute), nil
	default:
		return nil, fmt.Errorf("unsupported cache type %q", cfg.Type)
	}
}

// New opens every backend named in cfg and builds the game service.
func New(cfg *config.Config) (*App, error) {
	numeric.SetSharedMemo(numeric.NewMemo(cfg.Game.MemoCapacity))

	cat, err := catalog.Load(cfg.Game.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	log.Printf("Catalog loaded: %d items", cat.Len())

	ledger, err := OpenLedger(cfg.Ledger)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s ledger: %w", cfg.Ledger.Type, err)
	}

	store, err := OpenCache(cfg.Cache)
	if err != nil {
		ledger.Close()
		return nil, fmt.Errorf("failed to open %s cache: %w", cfg.Cache.Type, err)
	}

	a := &App{
		Ledger:    ledger,
		Store:     store,
		Snapshots: cache.NewSnapshotCache(store, cfg.Cache.TTL),
		Catalog:   cat,
	}

	var rec game.Recorder
	if cfg.Journal.Dir != "" {
		a.Journal = journal.NewWriter(cfg.Journal.Dir, cfg.Journal.Prefix)
		rec = a.Journal
		log.Printf("Journal enabled: %s", cfg.Journal.Dir)
	}

	a.Service = game.NewService(ledger, cat, a.Snapshots, rec, game.Options{
		StatusSlack:      cfg.Game.StatusSlack,
		StatusWorkers:    cfg.Game.StatusWorkers,
		StampRequestTime: cfg.Game.StampRequestTime,
	})
	return a, nil
}

// Close releases every backend.
func (a *App) Close() error {
	var firstErr error
	if a.Journal != nil {
		if err := a.Journal.Close(); err != nil {
			firstErr = err
		}
	}
	if err := a.Store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := a.Ledger.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
