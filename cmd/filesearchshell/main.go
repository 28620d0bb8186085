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

	"github.com/KhaiTheTran/SystemsProgramming/internal/searcher/executor"
	"github.com/KhaiTheTran/SystemsProgramming/internal/shell"
	"github.com/KhaiTheTran/SystemsProgramming/pkg/config"
	"github.com/KhaiTheTran/SystemsProgramming/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	validate := flag.Bool("validate", false, "verify each file's checksum before searching")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [-config file] [-validate] <indexfile>...\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() < 1 {
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

	proc, err := executor.NewProcessor(flag.Args(), *validate)
	if err != nil {
		slog.Error("failed to open index files", "error", err)
		os.Exit(1)
	}
	defer proc.Close()

	if err := shell.Run(ctx, os.Stdin, os.Stdout, proc.ProcessQuery); err != nil && ctx.Err() == nil {
		slog.Error("shell error", "error", err)
		os.Exit(1)
	}
}
