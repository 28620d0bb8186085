package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/KhaiTheTran/SystemsProgramming/internal/catalog"
	"github.com/KhaiTheTran/SystemsProgramming/internal/indexer/crawler"
	"github.com/KhaiTheTran/SystemsProgramming/internal/indexer/doctable"
	"github.com/KhaiTheTran/SystemsProgramming/internal/indexer/fileindex"
	"github.com/KhaiTheTran/SystemsProgramming/internal/indexer/index"
	"github.com/KhaiTheTran/SystemsProgramming/internal/indexer/notify"
	"github.com/KhaiTheTran/SystemsProgramming/pkg/config"
	"github.com/KhaiTheTran/SystemsProgramming/pkg/kafka"
	"github.com/KhaiTheTran/SystemsProgramming/pkg/logger"
	"github.com/KhaiTheTran/SystemsProgramming/pkg/metrics"
	"github.com/KhaiTheTran/SystemsProgramming/pkg/postgres"
	"github.com/KhaiTheTran/SystemsProgramming/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [-config file] <docroot> <indexfile>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}
	docRoot, indexPath := flag.Arg(0), flag.Arg(1)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, docRoot, indexPath); err != nil {
		slog.Error("index build failed", "docroot", docRoot, "index", indexPath, "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, docRoot, indexPath string) error {
	m := metrics.New()
	start := time.Now()

	dt := doctable.New(cfg.Index.DocTableBuckets)
	mi := index.NewMemoryIndex(cfg.Index.IndexBuckets)
	defer dt.Destroy()
	defer mi.Destroy()

	slog.Info("crawling", "docroot", docRoot)
	stats, err := crawler.New(docRoot, cfg.Index.SkipDirs).Crawl(ctx, dt, mi)
	if err != nil {
		m.IndexBuildsTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("crawling %s: %w", docRoot, err)
	}
	m.DocsIndexedTotal.Add(float64(stats.Files))

	size, err := fileindex.NewWriter().WriteIndex(mi, dt, indexPath)
	if err != nil {
		m.IndexBuildsTotal.WithLabelValues("failed").Inc()
		return err
	}
	m.IndexBuildsTotal.WithLabelValues("ok").Inc()
	m.IndexBytesWritten.Add(float64(size))

	r, err := fileindex.Open(indexPath, cfg.Index.Validate)
	if err != nil {
		return fmt.Errorf("reopening %s: %w", indexPath, err)
	}
	header := r.Header()
	r.Close()

	abs, err := filepath.Abs(indexPath)
	if err != nil {
		abs = indexPath
	}
	entry := catalog.Entry{
		Path:      abs,
		Documents: dt.Count(),
		Words:     mi.Count(),
		Bytes:     size,
		Checksum:  header.Checksum,
		CreatedAt: time.Now().UTC(),
	}
	slog.Info("index built",
		"index", abs,
		"files", stats.Files,
		"skipped", stats.Skipped,
		"words", entry.Words,
		"bytes", size,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)

	if cfg.Postgres.Enabled {
		err := resilience.WithTimeout(ctx, 30*time.Second, "catalog-record", func(ctx context.Context) error {
			return recordEntry(ctx, cfg.Postgres, entry)
		})
		if err != nil {
			slog.Warn("catalog update failed", "error", err)
		}
	}
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.IndexComplete)
		defer producer.Close()
		err := resilience.Retry(ctx, "publish-index-complete", resilience.RetryConfig{}, func() error {
			_, err := notify.NewPublisher(producer).Publish(ctx, entry)
			return err
		})
		if err != nil {
			slog.Warn("index completion not published", "error", err)
		}
	}
	return nil
}

func recordEntry(ctx context.Context, cfg config.PostgresConfig, entry catalog.Entry) error {
	db, err := postgres.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	store := catalog.NewPostgresStore(db)
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}
	return store.Record(ctx, entry)
}
