// Command seed-tiers loads product volume tiers into the product tier store.
//
// The input file maps product ids to their tier documents:
//
//	{"gid://shopify/Product/1": [{"quantity": 3, "discount": 10}]}
package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"

	"github.com/xenking/volume-discount/internal/domain/product"
	"github.com/xenking/volume-discount/internal/domain/tier"
	"github.com/xenking/volume-discount/internal/storage/postgres"
)

func main() {
	var (
		databaseURL string
		tiersFile   string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&tiersFile, "tiers-file", "db/seed/tiers.json", "path to product tiers JSON file (.gz supported)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, tiersFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		cancel()
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, tiersFile string) error {
	data, err := readFile(tiersFile)
	if err != nil {
		return errors.Wrap(err, "read tiers file")
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	return seedTiers(ctx, postgres.NewTierRepository(pool), data)
}

func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		zr, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrapf(err, "create gzip reader for %s", path)
		}
		defer func() { _ = zr.Close() }()
		r = zr
	}

	return io.ReadAll(r)
}

// seedTiers upserts every product of the document. Tier documents that do not
// parse as a tier array are stored anyway and reported, since the engine
// treats them as a line-local failure.
func seedTiers(ctx context.Context, repo product.Repository, data []byte) error {
	var count int
	d := jx.DecodeBytes(data)
	if err := d.Obj(func(d *jx.Decoder, id string) error {
		raw, err := d.Raw()
		if err != nil {
			return errors.Wrapf(err, "decode tiers of %s", id)
		}

		if cfg := tier.Parse(raw); cfg.State() != tier.Valid {
			slog.Warn("tiers are not a valid tier array",
				slog.String("product_id", id),
				slog.String("reason", cfg.Reason()),
			)
		}

		if err := repo.Upsert(ctx, id, append([]byte(nil), raw...)); err != nil {
			return errors.Wrapf(err, "upsert tiers of %s", id)
		}
		count++
		slog.Info("upserted tiers", slog.String("product_id", id))
		return nil
	}); err != nil {
		return err
	}

	slog.Info("seeded product tiers", slog.Int("count", count))
	return nil
}
