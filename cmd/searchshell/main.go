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

	"github.com/KhaiTheTran/SystemsProgramming/internal/indexer/crawler"
	"github.com/KhaiTheTran/SystemsProgramming/internal/indexer/doctable"
	"github.com/KhaiTheTran/SystemsProgramming/internal/indexer/index"
	"github.com/KhaiTheTran/SystemsProgramming/internal/searcher/executor"
	"github.com/KhaiTheTran/SystemsProgramming/internal/searcher/ranker"
	"github.com/KhaiTheTran/SystemsProgramming/internal/shell"
	"github.com/KhaiTheTran/SystemsProgramming/pkg/config"
	"github.com/KhaiTheTran/SystemsProgramming/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [-config file] <docroot>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.SetupWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dt := doctable.New(cfg.Index.DocTableBuckets)
	mi := index.NewMemoryIndex(cfg.Index.IndexBuckets)
	defer dt.Destroy()
	defer mi.Destroy()

	fmt.Println("Indexing", flag.Arg(0))
	stats, err := crawler.New(flag.Arg(0), cfg.Index.SkipDirs).Crawl(ctx, dt, mi)
	if err != nil {
		slog.Error("crawl failed", "docroot", flag.Arg(0), "error", err)
		os.Exit(1)
	}
	slog.Info("index ready", "files", stats.Files, "words", mi.Count())

	ex := executor.New(mi)
	search := func(ctx context.Context, words []string) ([]ranker.QueryResult, error) {
		hits, err := ex.Execute(ctx, words)
		if err != nil {
			return nil, err
		}
		results := make([]ranker.QueryResult, 0, len(hits))
		for _, h := range hits {
			name, _, err := dt.LookupByID(h.DocID)
			if err != nil {
				return nil, err
			}
			results = append(results, ranker.QueryResult{DocumentName: name, Rank: h.Rank})
		}
		return results, nil
	}

	if err := shell.Run(ctx, os.Stdin, os.Stdout, search); err != nil && ctx.Err() == nil {
		slog.Error("shell error", "error", err)
		os.Exit(1)
	}
}
