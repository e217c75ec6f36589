// Package fetcher runs the polling loop that mirrors CHMI radar composites,
// converts them to PNG products and keeps the product index in sync.
package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"radarview/internal/chmi"
	"radarview/internal/core"
	"radarview/internal/notify"
	"radarview/internal/observability"
	"radarview/internal/store"
)

// Downloader lists and downloads composite files from a CHMI directory index.
type Downloader interface {
	ListFiles(ctx context.Context, folderURL string) ([]string, error)
	Download(ctx context.Context, fileURL, destDir string) (path string, downloaded bool, err error)
}

// ProductConverter turns a downloaded HDF5 composite into a PNG product.
type ProductConverter interface {
	Convert(hdfPath, outputDir string) (finalPath string, rainScore float64, err error)
}

// Deps are the collaborators a Fetcher needs. Clock and Notifier may be nil;
// they default to the real clock and a no-op notifier.
type Deps struct {
	Config     *core.ServiceConfig
	Store      store.ProductStore
	Client     Downloader
	Converters map[string]ProductConverter
	Clock      clockwork.Clock
	Metrics    *observability.Metrics
	Notifier   notify.Notifier
	Logger     *slog.Logger
}

type productWorker struct {
	config    *core.ProductConfig
	converter ProductConverter
	rawDir    string
	pngDir    string
	seen      map[string]bool
}

// Fetcher polls all configured products on a wall-clock aligned interval.
type Fetcher struct {
	config   *core.ServiceConfig
	store    store.ProductStore
	client   Downloader
	clock    clockwork.Clock
	metrics  *observability.Metrics
	notifier notify.Notifier
	logger   *slog.Logger
	workers  []*productWorker
}

func New(deps Deps) (*Fetcher, error) {
	workers := make([]*productWorker, 0, len(deps.Config.Products))
	for i := range deps.Config.Products {
		product := &deps.Config.Products[i]
		converter, ok := deps.Converters[product.Name]
		if !ok {
			return nil, fmt.Errorf("no converter configured for product %s", product.Name)
		}
		workers = append(workers, &productWorker{
			config:    product,
			converter: converter,
			rawDir:    deps.Config.RawDir(product.Name),
			pngDir:    deps.Config.PNGDir(product.Name),
			seen:      make(map[string]bool),
		})
	}

	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notify.NoopNotifier{}
	}

	return &Fetcher{
		config:   deps.Config,
		store:    deps.Store,
		client:   deps.Client,
		clock:    clock,
		metrics:  deps.Metrics,
		notifier: notifier,
		logger:   deps.Logger,
		workers:  workers,
	}, nil
}

// Run executes the fetch loop until the context is canceled. Startup first
// reconciles the product index with the PNGs already on disk and seeds the
// seen-set from the raw directories, so a restart never redownloads or
// reconverts existing files.
func (f *Fetcher) Run(ctx context.Context) error {
	f.metrics.FetcherRunning.Set(1)
	defer f.metrics.FetcherRunning.Set(0)

	if err := f.reindex(); err != nil {
		return fmt.Errorf("startup reindex failed: %w", err)
	}
	f.seedSeen()

	f.logger.Info("fetch loop started",
		"interval", f.config.CheckInterval(), "products", len(f.workers))

	for {
		if err := f.sleepUntilNextInterval(ctx); err != nil {
			f.logger.Info("fetch loop stopped")
			return nil
		}
		f.pollAll(ctx)
		f.metrics.PollCycles.Inc()
		f.applyRetention()
	}
}

// sleepUntilNextInterval blocks until the next multiple of the check interval,
// keeping poll cycles aligned to wall-clock boundaries.
func (f *Fetcher) sleepUntilNextInterval(ctx context.Context) error {
	interval := f.config.CheckInterval()
	now := f.clock.Now()
	next := now.Truncate(interval).Add(interval)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-f.clock.After(next.Sub(now)):
		return nil
	}
}

func (f *Fetcher) pollAll(ctx context.Context) {
	group, ctx := errgroup.WithContext(ctx)
	for _, worker := range f.workers {
		group.Go(func() error {
			// Worker failures are reported per file and must not cancel
			// the sibling products.
			f.poll(ctx, worker)
			return nil
		})
	}
	_ = group.Wait()
}

func (f *Fetcher) poll(ctx context.Context, worker *productWorker) {
	files, err := f.client.ListFiles(ctx, worker.config.SourceURL)
	if err != nil {
		f.metrics.ListingErrors.WithLabelValues(worker.config.Name).Inc()
		f.report(ctx, fmt.Sprintf("listing failed for %s: %v", worker.config.Name, err))
		return
	}

	for _, fileURL := range files {
		if ctx.Err() != nil {
			return
		}
		base := path.Base(fileURL)
		if worker.seen[base] {
			continue
		}

		rawPath, downloaded, err := f.client.Download(ctx, fileURL, worker.rawDir)
		if err != nil {
			f.metrics.DownloadErrors.WithLabelValues(worker.config.Name).Inc()
			f.report(ctx, fmt.Sprintf("download failed for %s/%s: %v", worker.config.Name, base, err))
			continue
		}
		worker.seen[base] = true
		if !downloaded {
			continue
		}

		f.metrics.FilesDownloaded.WithLabelValues(worker.config.Name).Inc()
		f.convert(ctx, worker, rawPath)
	}
}

func (f *Fetcher) convert(ctx context.Context, worker *productWorker, rawPath string) {
	start := f.clock.Now()
	finalPath, rainScore, err := worker.converter.Convert(rawPath, worker.pngDir)
	if err != nil {
		f.metrics.ConversionErrors.WithLabelValues(worker.config.Name).Inc()
		f.report(ctx, fmt.Sprintf("conversion failed for %s/%s: %v",
			worker.config.Name, filepath.Base(rawPath), err))
		return
	}

	f.metrics.ConversionsDone.WithLabelValues(worker.config.Name).Inc()
	f.metrics.ConversionDuration.WithLabelValues(worker.config.Name).Observe(f.clock.Since(start).Seconds())
	f.metrics.LastRainScore.WithLabelValues(worker.config.Name).Set(rainScore)

	f.index(worker, rawPath, finalPath, rainScore)
}

func (f *Fetcher) index(worker *productWorker, rawPath, finalPath string, rainScore float64) {
	filename := filepath.Base(finalPath)

	// The raw composite name carries the timestamp without a score suffix.
	timestamp, err := chmi.ParseTimestamp(filepath.Base(rawPath))
	if err != nil {
		f.logger.Warn("product not indexed, cannot parse timestamp",
			"product", worker.config.Name, "filename", filename, "error", err)
		return
	}

	var size int64
	if info, statErr := os.Stat(finalPath); statErr == nil {
		size = info.Size()
	}

	product := &store.Product{
		Product:   worker.config.Name,
		Timestamp: timestamp,
		RainScore: rainScore,
		Filename:  filename,
		SizeBytes: size,
	}
	if _, err := f.store.Insert(product); err != nil {
		f.logger.Warn("failed to index product",
			"product", worker.config.Name, "filename", filename, "error", err)
		return
	}

	f.logger.Info("product converted",
		"product", worker.config.Name, "filename", filename, "rainScore", rainScore)
}

// reindex registers PNGs that exist on disk but are missing from the index,
// deriving timestamp and rain score from their filenames. Files with
// unparseable names are skipped.
func (f *Fetcher) reindex() error {
	for _, worker := range f.workers {
		entries, err := os.ReadDir(worker.pngDir)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", worker.pngDir, err)
		}

		count := 0
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".png") {
				continue
			}

			exists, err := f.store.ExistsFilename(worker.config.Name, entry.Name())
			if err != nil {
				return err
			}
			if exists {
				continue
			}

			timestamp, score, hasScore, err := chmi.ParseProductName(entry.Name())
			if err != nil {
				f.logger.Warn("skipping unparseable file during reindex",
					"product", worker.config.Name, "filename", entry.Name(), "error", err)
				continue
			}
			if !hasScore {
				score = -1
			}

			var size int64
			if info, infoErr := entry.Info(); infoErr == nil {
				size = info.Size()
			}

			product := &store.Product{
				Product:   worker.config.Name,
				Timestamp: timestamp,
				RainScore: score,
				Filename:  entry.Name(),
				SizeBytes: size,
			}
			if _, err := f.store.Insert(product); err != nil {
				return fmt.Errorf("failed to reindex %s: %w", entry.Name(), err)
			}
			count++
		}

		if count > 0 {
			f.logger.Info("reindexed products", "product", worker.config.Name, "count", count)
		}
	}
	return nil
}

// seedSeen marks raw composites already on disk as seen so they are not
// redownloaded or reconverted after a restart.
func (f *Fetcher) seedSeen() {
	for _, worker := range f.workers {
		entries, err := os.ReadDir(worker.rawDir)
		if err != nil {
			f.logger.Warn("failed to seed seen-set",
				"product", worker.config.Name, "error", err)
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				worker.seen[entry.Name()] = true
			}
		}
	}
}

// applyRetention drops index rows and PNGs older than the configured
// retention. Retention 0 keeps everything.
func (f *Fetcher) applyRetention() {
	retention := f.config.Retention()
	if retention == 0 {
		return
	}
	cutoff := f.clock.Now().Add(-retention)

	for _, worker := range f.workers {
		deleted, err := f.store.DeleteOlderThan(worker.config.Name, cutoff)
		if err != nil {
			f.logger.Warn("retention cleanup failed",
				"product", worker.config.Name, "error", err)
			continue
		}
		for _, filename := range deleted {
			if err := os.Remove(filepath.Join(worker.pngDir, filename)); err != nil && !os.IsNotExist(err) {
				f.logger.Warn("failed to remove expired file",
					"product", worker.config.Name, "filename", filename, "error", err)
			}
		}
		if len(deleted) > 0 {
			f.logger.Info("removed expired products",
				"product", worker.config.Name, "count", len(deleted))
		}
	}
}

func (f *Fetcher) report(ctx context.Context, message string) {
	f.logger.Error(message)
	f.notifier.Notify(ctx, message)
}
