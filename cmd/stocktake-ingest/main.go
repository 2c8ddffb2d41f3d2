// Command stocktake-ingest reconciles physical stocktake scans against the
// menu catalog. Each counter device produces one gzipped file with one SKU
// per scanned unit. A count is trusted only when the SKU was seen by at
// least two devices; verified counts are written as absolute stock updates.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"math/bits"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/zorpido/pos/internal/domain/inventory"
	"github.com/zorpido/pos/internal/domain/menu"
	"github.com/zorpido/pos/internal/storage/postgres"
)

const (
	bloomCapacity = 1_000_000
	bloomFPR      = 0.001
	progressEvery = 100_000
)

// fileResult holds the per-SKU scan counts one device reported for SKUs that
// also appear in at least one other device's bloom filter.
type fileResult struct {
	counts map[string]int
}

func main() {
	var (
		dataDir     string
		devices     int
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing stocktakeN.gz scan files")
	flag.IntVar(&devices, "devices", 3, "number of counter devices (stocktake1.gz .. stocktakeN.gz)")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if devices < 2 {
		slog.Error("at least two counter devices are required for cross-checking")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, devices, databaseURL); err != nil {
		slog.Error("stocktake ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("stocktake ingest completed successfully")
}

func run(ctx context.Context, dataDir string, devices int, databaseURL string) error {
	files := make([]string, devices)
	for i := range devices {
		files[i] = filepath.Join(dataDir, fmt.Sprintf("stocktake%d.gz", i+1))
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	// Pass 1: one bloom filter per device, built concurrently.
	slog.Info("pass 1: building bloom filters", slog.Int("devices", devices))

	filters, err := buildBloomFilters(ctx, files)
	if err != nil {
		return errors.Wrap(err, "build bloom filters")
	}

	// Pass 2: count scans for SKUs that cross-check against another device.
	slog.Info("pass 2: counting cross-checked scans")

	verified, err := verifiedCounts(ctx, files, filters)
	if err != nil {
		return errors.Wrap(err, "verify scan counts")
	}

	slog.Info("verified SKUs", slog.Int("count", len(verified)))

	if len(verified) == 0 {
		slog.Info("no verified counts to apply")
		return nil
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	repo := postgres.NewMenuRepository(pool)

	return applyCounts(ctx, repo, inventory.NewService(repo), verified)
}

// buildBloomFilters creates one bloom filter per scan file, concurrently.
func buildBloomFilters(ctx context.Context, files []string) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(buildFilterForFile(ctx, i, f, filters))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return filters, nil
}

func buildFilterForFile(ctx context.Context, idx int, path string, filters []*bloom.BloomFilter) func() error {
	return func() error {
		filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
		var count uint64

		if err := streamGzFile(ctx, path, func(sku string) {
			filter.AddString(sku)
			count++
			if count%progressEvery == 0 {
				slog.Info("pass 1 progress",
					slog.Int("device", idx+1),
					slog.Uint64("scans", count),
				)
			}
		}); err != nil {
			return errors.Wrapf(err, "build filter for device %d", idx+1)
		}

		slog.Info("pass 1 complete",
			slog.Int("device", idx+1),
			slog.Uint64("total_scans", count),
		)

		filters[idx] = filter
		return nil
	}
}

// verifiedCounts re-streams each file, counting scans for SKUs that also
// appear in at least one other device's filter. An SKU is trusted when two
// or more devices counted it; the conservative minimum of their counts wins.
func verifiedCounts(ctx context.Context, files []string, filters []*bloom.BloomFilter) (map[string]int, error) {
	results := make([]fileResult, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(countScansInFile(ctx, i, f, filters, results))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	masks := make(map[string]uint)
	minimums := make(map[string]int)
	for i, r := range results {
		deviceBit := uint(1) << uint(i)
		for sku, n := range r.counts {
			masks[sku] |= deviceBit
			if cur, ok := minimums[sku]; !ok || n < cur {
				minimums[sku] = n
			}
		}
	}

	verified := make(map[string]int)
	for sku, mask := range masks {
		if bits.OnesCount(mask) >= 2 {
			verified[sku] = minimums[sku]
		}
	}

	return verified, nil
}

func countScansInFile(
	ctx context.Context,
	idx int,
	path string,
	filters []*bloom.BloomFilter,
	results []fileResult,
) func() error {
	return func() error {
		counts := make(map[string]int)
		var total uint64

		if err := streamGzFile(ctx, path, func(sku string) {
			total++
			if total%progressEvery == 0 {
				slog.Info("pass 2 progress",
					slog.Int("device", idx+1),
					slog.Uint64("scans", total),
				)
			}

			// Only count SKUs some OTHER device also scanned.
			for j, f := range filters {
				if j == idx {
					continue
				}
				if f.TestString(sku) {
					if counts[sku] < math.MaxInt {
						counts[sku]++
					}
					break
				}
			}
		}); err != nil {
			return errors.Wrapf(err, "scan device %d file", idx+1)
		}

		slog.Info("pass 2 complete",
			slog.Int("device", idx+1),
			slog.Uint64("total_scans", total),
			slog.Int("skus", len(counts)),
		)

		results[idx] = fileResult{counts: counts}
		return nil
	}
}

// applyCounts writes each verified count as an absolute stock update. SKUs
// missing from the catalog are logged and skipped so one stray barcode does
// not abort the whole reconciliation.
func applyCounts(ctx context.Context, repo *postgres.MenuRepository, svc *inventory.Service, verified map[string]int) error {
	var applied, skipped int

	for sku, count := range verified {
		item, err := repo.GetBySKU(ctx, sku)
		if err != nil {
			if errors.Is(err, menu.ErrNotFound) {
				slog.Warn("scanned SKU not in catalog", slog.String("sku", sku))
				skipped++
				continue
			}
			return errors.Wrapf(err, "look up SKU %s", sku)
		}

		result, err := svc.Adjust(ctx, item.ID, inventory.Adjustment{
			Action:   inventory.ActionSet,
			Quantity: count,
		})
		if err != nil {
			return errors.Wrapf(err, "set stock for SKU %s", sku)
		}

		slog.Info("stock reconciled",
			slog.String("sku", sku),
			slog.Int("counted", count),
			slog.Int("new_stock", result.NewStock),
		)
		applied++
	}

	slog.Info("reconciliation applied", slog.Int("updated", applied), slog.Int("skipped", skipped))

	return nil
}

// streamGzFile opens a gzip-compressed scan file and calls fn for each
// non-empty line, trimmed of surrounding whitespace.
func streamGzFile(ctx context.Context, path string, fn func(sku string)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		sku := strings.TrimSpace(scanner.Text())
		if sku == "" {
			continue
		}
		fn(sku)
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	return nil
}
