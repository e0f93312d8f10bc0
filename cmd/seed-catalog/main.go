// Command seed-catalog bulk-loads game records into the catalog from one or
// more JSON files, gzipped or plain. Records are validated and their pricing
// normalized through the same derivation the API uses, then upserted.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/devsteam-store/internal/domain/game"
	"github.com/xenking/devsteam-store/internal/storage/postgres"
)

// record is one game entry in a seed file. Price is the undiscounted price,
// as a JSON number to avoid float parsing drift.
type record struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Genre       string      `json:"genre"`
	Price       json.Number `json:"price"`
	Discount    int         `json:"discount"`
}

func main() {
	var databaseURL string
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	files := flag.Args()
	if len(files) == 0 {
		slog.Error("no seed files given: pass one or more JSON or JSON.gz files")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, files); err != nil {
		slog.Error("catalog seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog seed completed successfully")
}

func run(ctx context.Context, databaseURL string, files []string) error {
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	repo := postgres.NewGameRepository(pool)

	// Files are processed concurrently; seen guards against the same id
	// appearing in two files, which would make the outcome order-dependent.
	var (
		mu   sync.Mutex
		seen = make(map[string]string) // game id -> first file
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, f := range files {
		g.Go(func() error {
			records, err := readSeedFile(f)
			if err != nil {
				return errors.Wrapf(err, "read %s", f)
			}

			count := 0
			for _, rec := range records {
				if err := ctx.Err(); err != nil {
					return err
				}

				mu.Lock()
				if first, dup := seen[rec.ID]; dup {
					mu.Unlock()
					return errors.Errorf("game %s appears in both %s and %s", rec.ID, first, f)
				}
				seen[rec.ID] = f
				mu.Unlock()

				entry, err := toGame(rec)
				if err != nil {
					return errors.Wrapf(err, "record %s", rec.ID)
				}
				if err := repo.Upsert(ctx, entry); err != nil {
					return err
				}
				count++
			}

			slog.Info("file complete", slog.String("file", f), slog.Int("games", count))
			return nil
		})
	}

	return g.Wait()
}

// readSeedFile parses a JSON array of records, transparently decompressing
// .gz files.
func readSeedFile(path string) ([]record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "create gzip reader")
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	var records []record
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&records); err != nil {
		return nil, errors.Wrap(err, "decode records")
	}
	return records, nil
}

// toGame validates a record and derives its stored pricing fields.
func toGame(rec record) (*game.Game, error) {
	if rec.ID == "" {
		return nil, errors.New("missing id")
	}
	if rec.Title == "" {
		return nil, errors.New("missing title")
	}

	price, err := decimal.NewFromString(rec.Price.String())
	if err != nil {
		return nil, errors.Wrap(err, "parse price")
	}

	g := &game.Game{
		ID:          rec.ID,
		Title:       rec.Title,
		Description: rec.Description,
		Genre:       rec.Genre,
		Price:       price,
		Discount:    rec.Discount,
	}
	if err := g.NormalizePricing(); err != nil {
		return nil, err
	}
	return g, nil
}
