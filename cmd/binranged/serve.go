package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/binrange"
	"github.com/hupe1980/binrange/httpapi"
	"github.com/hupe1980/binrange/ingest"
)

type serveOptions struct {
	addr        string
	logFormat   string
	logLevel    string
	chunkSize   int
	shuffleSeed int64
	rateLimit   float64
	burst       int
	seedSource  string
	seedPrefix  string
}

func newServeCommand() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&opts.logFormat, "log-format", "text", "log format: text or json")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	cmd.Flags().IntVar(&opts.chunkSize, "chunk-size", 0, "bulk insert chunk size (0 = default)")
	cmd.Flags().Int64Var(&opts.shuffleSeed, "shuffle-seed", 0, "fixed shuffle seed (0 = random)")
	cmd.Flags().Float64Var(&opts.rateLimit, "rate-limit", 0, "max requests per second (0 = unlimited)")
	cmd.Flags().IntVar(&opts.burst, "burst", 10, "rate limit burst size")
	cmd.Flags().StringVar(&opts.seedSource, "seed-source", "", "blob store to bulk-load at startup (dir, s3:// or minio://)")
	cmd.Flags().StringVar(&opts.seedPrefix, "seed-prefix", "", "blob name prefix to load from the seed source")

	return cmd
}

func runServe(ctx context.Context, opts *serveOptions) error {
	logger, err := newSlog(opts.logFormat, opts.logLevel)
	if err != nil {
		return err
	}

	storeOpts := []binrange.Option{
		binrange.WithLogger(&binrange.Logger{Logger: logger}),
		binrange.WithChunkSize(opts.chunkSize),
	}
	if opts.shuffleSeed != 0 {
		storeOpts = append(storeOpts, binrange.WithShuffleSeed(opts.shuffleSeed))
	}
	store := binrange.New(storeOpts...)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.seedSource != "" {
		bs, err := openBlobStore(ctx, opts.seedSource)
		if err != nil {
			return err
		}
		loader := ingest.NewLoader(bs, store, func(lo *ingest.LoaderOptions) {
			lo.Logger = logger
		})
		n, err := loader.LoadPrefix(ctx, opts.seedPrefix)
		if err != nil {
			return fmt.Errorf("bulk load from %q: %w", opts.seedSource, err)
		}
		logger.InfoContext(ctx, "bulk load completed", "ranges", n)
	}

	api := httpapi.New(store, func(o *httpapi.Options) {
		o.Logger = logger
		o.RateLimit = opts.rateLimit
		o.Burst = opts.burst
	})

	srv := &http.Server{
		Addr:              opts.addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "listening", "addr", opts.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newSlog(format, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	ho := &slog.HandlerOptions{Level: lvl}
	switch format {
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, ho)), nil
	case "text":
		return slog.New(slog.NewTextHandler(os.Stderr, ho)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
}
