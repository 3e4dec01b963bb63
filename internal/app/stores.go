package app

import (
	"bytes"
	"context"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/xenking/food-ordering-api/db"
	"github.com/xenking/food-ordering-api/internal/domain/catalog"
	"github.com/xenking/food-ordering-api/internal/domain/order"
	"github.com/xenking/food-ordering-api/internal/storage/cache"
	"github.com/xenking/food-ordering-api/internal/storage/memory"
	"github.com/xenking/food-ordering-api/internal/storage/mongo"
	"github.com/xenking/food-ordering-api/internal/storage/postgres"
	"github.com/xenking/food-ordering-api/pkg/health"
)

// stores bundles the repositories of the selected driver with the
// readiness checks and teardown they need.
type stores struct {
	// catalog serves the HTTP catalog routes and may be cached.
	catalog catalog.Repository
	// menu prices orders and joins them on retrieval. It always reads the
	// store so line prices and display fields are current.
	menu   order.MenuLookup
	seeder catalog.Seeder
	orders order.Repository

	checks  map[string]health.CheckFunc
	closers []func(context.Context) error
}

func (s *stores) onClose(fn func(context.Context) error) {
	s.closers = append(s.closers, fn)
}

// Close releases stores in reverse order of opening.
func (s *stores) Close(ctx context.Context) error {
	var err error
	for i := len(s.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, s.closers[i](ctx))
	}
	return err
}

func openStores(ctx context.Context, lg *zap.Logger, cfg *Config) (_ *stores, rerr error) {
	s := &stores{checks: make(map[string]health.CheckFunc)}
	defer func() {
		if rerr != nil {
			_ = s.Close(context.WithoutCancel(ctx))
		}
	}()

	switch cfg.Storage.Driver {
	case DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Storage.DatabaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "create db pool")
		}
		s.onClose(func(context.Context) error { pool.Close(); return nil })

		if err := postgres.RunMigrations(ctx, pool); err != nil {
			return nil, errors.Wrap(err, "run migrations")
		}
		repo := postgres.NewCatalogRepository(pool)
		s.catalog, s.seeder = repo, repo
		s.orders = postgres.NewOrderRepository(pool)
		s.checks["postgres"] = health.PingCheck(pool)

	case DriverMongo:
		st, err := mongo.New(ctx, mongo.Config{
			URI:      cfg.Storage.MongoURI,
			Database: cfg.Storage.MongoDatabase,
		})
		if err != nil {
			return nil, errors.Wrap(err, "connect mongo")
		}
		s.onClose(st.Close)

		if err := st.CreateIndexes(ctx); err != nil {
			return nil, errors.Wrap(err, "create indexes")
		}
		repo := mongo.NewCatalogRepository(st.Database())
		s.catalog, s.seeder = repo, repo
		s.orders = mongo.NewOrderRepository(st.Database())
		s.checks["mongo"] = health.PingCheck(st)

	case DriverMemory:
		repo := memory.NewCatalog()
		s.catalog, s.seeder = repo, repo
		s.orders = memory.NewOrders()

	default:
		return nil, errors.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
	s.menu = s.catalog
	lg.Info("Storage ready", zap.String("driver", cfg.Storage.Driver))

	if cfg.Storage.Seed {
		snap, err := catalog.ReadSnapshot(bytes.NewReader(db.Catalog))
		if err != nil {
			return nil, errors.Wrap(err, "read bundled catalog")
		}
		if err := s.seeder.SeedCatalog(ctx, *snap); err != nil {
			return nil, errors.Wrap(err, "seed catalog")
		}
		lg.Info("Catalog seeded",
			zap.Int("restaurants", len(snap.Restaurants)),
			zap.Int("menu_items", len(snap.MenuItems)),
		)
	}

	if cfg.Cache.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		s.onClose(func(context.Context) error { return rdb.Close() })

		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, errors.Wrap(err, "ping redis")
		}
		s.catalog = cache.New(s.catalog, rdb, cfg.Cache.TTL)
		s.checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		lg.Info("Catalog cache enabled",
			zap.String("addr", cfg.Cache.RedisAddr),
			zap.Duration("ttl", cfg.Cache.TTL),
		)
	}
	return s, nil
}
