// Command cachectl inspects and sweeps the durable property cache.
//
// Usage:
//
//	cachectl stats
//	cachectl sweep
//
// The cache backend and TTL come from the same environment variables as the
// service (CACHE_BACKEND, DATABASE_URL, REDIS_ADDR, PROPERTY_CACHE_DAYS).
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bver-dev/bver/internal/app"
	"github.com/bver-dev/bver/internal/cache"
	"github.com/bver-dev/bver/internal/config"
	"github.com/bver-dev/bver/internal/observability"
)

// cacheOps is the subset of the resolver cachectl drives.
type cacheOps interface {
	CacheStatistics(ctx context.Context) (cache.Stats, error)
	SweepExpired(ctx context.Context) (int64, error)
}

func main() {
	envFile := flag.String("env", ".env", "optional env file loaded before the environment is read")
	timeout := flag.Duration("timeout", 30*time.Second, "overall operation timeout")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: cachectl [flags] stats|sweep\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := config.LoadEnvFile(*envFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	// Logs go to stderr so stdout stays machine-readable.
	logger := observability.NewLoggerTo(os.Stderr, cfg.LogLevel, "text")

	store, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if store == nil {
		fmt.Fprintln(os.Stderr, "CACHE_BACKEND=none has no durable cache to operate on")
		os.Exit(1)
	}

	resolver := app.NewResolver(cfg, store, logger, observability.NewMetrics())
	err = run(ctx, flag.Arg(0), resolver, os.Stdout)
	if cerr := store.Close(); cerr != nil {
		logger.Warn("cache store close error", "error", cerr)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd string, ops cacheOps, out io.Writer) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	switch cmd {
	case "stats":
		st, err := ops.CacheStatistics(ctx)
		if err != nil {
			return fmt.Errorf("cache statistics: %w", err)
		}
		return enc.Encode(st)
	case "sweep":
		n, err := ops.SweepExpired(ctx)
		if err != nil {
			return fmt.Errorf("sweep expired: %w", err)
		}
		return enc.Encode(map[string]int64{"removed": n})
	}
	return fmt.Errorf("unknown command %q: want stats or sweep", cmd)
}
