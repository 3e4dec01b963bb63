package main

import (
	"bytes"
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/food-ordering-api/db"
	"github.com/xenking/food-ordering-api/internal/domain/catalog"
	"github.com/xenking/food-ordering-api/internal/storage/mongo"
	"github.com/xenking/food-ordering-api/internal/storage/postgres"
)

type options struct {
	driver        string
	databaseURL   string
	mongoURI      string
	mongoDatabase string
	files         []string
}

func main() {
	var opts options
	flag.StringVar(&opts.driver, "driver", "postgres", "storage driver: postgres or mongo")
	flag.StringVar(&opts.databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&opts.mongoURI, "mongo-uri", "", "MongoDB connection URI (or MONGO_URL env)")
	flag.StringVar(&opts.mongoDatabase, "mongo-database", "food_ordering_platform", "MongoDB database name")
	flag.Usage = func() {
		_, _ = io.WriteString(flag.CommandLine.Output(),
			"usage: seed-db [flags] [catalog.json[.gz] ...]\n\nSeeds the bundled catalog when no files are given.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	opts.files = flag.Args()

	if opts.databaseURL == "" {
		opts.databaseURL = os.Getenv("DATABASE_URL")
	}
	if opts.mongoURI == "" {
		opts.mongoURI = os.Getenv("MONGO_URL")
	}
	if opts.mongoURI == "" {
		opts.mongoURI = "mongodb://localhost:27017"
	}

	lg, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, opts); err != nil {
		lg.Error("Seed failed", zap.Error(err))
		os.Exit(1)
	}
	lg.Info("Seed completed successfully")
}

func run(ctx context.Context, lg *zap.Logger, opts options) error {
	snap, err := readSnapshots(ctx, lg, opts.files)
	if err != nil {
		return err
	}
	lg.Info("Catalog loaded",
		zap.Int("restaurants", len(snap.Restaurants)),
		zap.Int("menu_items", len(snap.MenuItems)),
	)

	switch opts.driver {
	case "postgres":
		return seedPostgres(ctx, lg, opts.databaseURL, snap)
	case "mongo":
		return seedMongo(ctx, lg, opts, snap)
	default:
		return errors.Errorf("unknown driver %q", opts.driver)
	}
}

func seedPostgres(ctx context.Context, lg *zap.Logger, databaseURL string, snap catalog.Snapshot) error {
	if databaseURL == "" {
		return errors.New("database URL is required: set --database-url or DATABASE_URL")
	}
	lg.Info("Connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	lg.Info("Running migrations")
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}
	if err := postgres.NewCatalogRepository(pool).SeedCatalog(ctx, snap); err != nil {
		return errors.Wrap(err, "seed catalog")
	}
	return nil
}

func seedMongo(ctx context.Context, lg *zap.Logger, opts options, snap catalog.Snapshot) error {
	lg.Info("Connecting to MongoDB", zap.String("database", opts.mongoDatabase))

	st, err := mongo.New(ctx, mongo.Config{URI: opts.mongoURI, Database: opts.mongoDatabase})
	if err != nil {
		return errors.Wrap(err, "connect to mongo")
	}
	defer func() { _ = st.Close(context.WithoutCancel(ctx)) }()

	if err := st.CreateIndexes(ctx); err != nil {
		return errors.Wrap(err, "create indexes")
	}
	if err := mongo.NewCatalogRepository(st.Database()).SeedCatalog(ctx, snap); err != nil {
		return errors.Wrap(err, "seed catalog")
	}
	return nil
}

// readSnapshots decodes the given catalog files concurrently and merges them
// in argument order. With no files the bundled catalog is used.
func readSnapshots(ctx context.Context, lg *zap.Logger, files []string) (catalog.Snapshot, error) {
	if len(files) == 0 {
		lg.Info("Using bundled catalog")
		snap, err := catalog.ReadSnapshot(bytes.NewReader(db.Catalog))
		if err != nil {
			return catalog.Snapshot{}, errors.Wrap(err, "read bundled catalog")
		}
		return *snap, nil
	}

	snaps := make([]*catalog.Snapshot, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			lg.Info("Reading catalog file", zap.String("path", path))
			snap, err := readSnapshotFile(gctx, path)
			if err != nil {
				return errors.Wrapf(err, "read %s", path)
			}
			snaps[i] = snap
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return catalog.Snapshot{}, err
	}

	var merged catalog.Snapshot
	for _, s := range snaps {
		merged.Restaurants = append(merged.Restaurants, s.Restaurants...)
		merged.MenuItems = append(merged.MenuItems, s.MenuItems...)
	}
	return merged, nil
}

func readSnapshotFile(ctx context.Context, path string) (*catalog.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = ctxReader{ctx: ctx, r: f}
	if filepath.Ext(path) == ".gz" {
		gz, err := pgzip.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, "open gzip")
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}
	return catalog.ReadSnapshot(r)
}

// ctxReader stops reading once ctx is done, so a failing file aborts the
// other decodes of the same run.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
