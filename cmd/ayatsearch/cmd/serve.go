package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/ayatsearch/internal/logging"
	"github.com/Aman-CERP/ayatsearch/internal/mcp"
	"github.com/Aman-CERP/ayatsearch/internal/watcher"
	"github.com/Aman-CERP/ayatsearch/pkg/version"
)

type serveOptions struct {
	chapter     int
	watch       bool
	metricsAddr string
}

func newServeCmd(flags *globalFlags) *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		Long: `Start the Model Context Protocol server on stdin/stdout.

Tools: search_verses, normalize_text and search_stats. stdout carries
the protocol only; logs go to ~/.ayatsearch/logs/ayatsearch.log.

With --watch the corpus and rules files are watched and every built
engine is rebuilt after a change. A rebuild that fails keeps the
previous engine serving.`,
		Example: `  # Serve the corpus configured in .ayatsearch.yaml
  ayatsearch serve

  # Serve one chapter, reload on edits, expose Prometheus metrics
  ayatsearch serve --chapter 1 --watch --metrics-addr 127.0.0.1:9464`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, flags, opts)
		},
	}

	cmd.Flags().IntVar(&opts.chapter, "chapter", 0, "Default chapter for tool calls (default: corpus.chapter)")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "Reload when the corpus or rules file changes (default: watch.enabled)")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (default: server.metrics_addr)")

	return cmd
}

func runServe(cmd *cobra.Command, flags *globalFlags, opts serveOptions) error {
	root, cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	// stdout belongs to the protocol, so serve logs go to the file only.
	logger := slog.Default()
	if !debugMode {
		l, cleanup, err := logging.Setup(logging.ServeConfig(cfg.Server.LogLevel))
		if err != nil {
			return err
		}
		defer cleanup()
		logger = l
		slog.SetDefault(l)
	}

	a, err := newAppFromConfig(root, cfg, logger)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("watch") {
		cfg.Watch.Enabled = opts.watch
	}
	if cmd.Flags().Changed("metrics-addr") {
		cfg.Server.MetricsAddr = opts.metricsAddr
	}
	chapter := a.chapter(opts.chapter, cmd.Flags().Changed("chapter"))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Build the default scope up front so a bad corpus fails the start.
	start := time.Now()
	if _, err := a.catalog.Holder(ctx, chapter); err != nil {
		return err
	}
	logger.Info("serve_starting",
		slog.String("version", version.Version),
		slog.String("corpus", cfg.CorpusPath()),
		slog.Int("chapter", chapter),
		slog.Duration("build_time", time.Since(start)))

	server, err := mcp.NewServer(a.catalog, a.norm, mcp.Options{
		DefaultChapter: chapter,
		DefaultLimit:   cfg.Search.MaxResults,
		Metrics:        a.metrics,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	if cfg.Watch.Enabled {
		if err := startWatch(gctx, g, a, logger); err != nil {
			cancel()
			_ = g.Wait()
			return err
		}
	}

	if cfg.Server.MetricsAddr != "" {
		startMetrics(gctx, g, a, cfg.Server.MetricsAddr, logger)
	}

	g.Go(func() error {
		// The session ends when the client closes stdin.
		defer cancel()
		return server.Serve(gctx, cfg.Server.Transport)
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// startWatch runs a file watcher over the corpus and rules files and
// rebuilds every built scope after each debounced batch.
func startWatch(ctx context.Context, g *errgroup.Group, a *app, logger *slog.Logger) error {
	wopts := watcher.DefaultOptions()
	if d, _ := a.cfg.Watch.DebounceDuration(); d > 0 {
		wopts.DebounceWindow = d
	}

	fw, err := watcher.NewFileWatcher(wopts, a.watchPaths()...)
	if err != nil {
		return err
	}
	logger.Info("watch_started",
		slog.String("mode", fw.Mode()),
		slog.Any("paths", fw.Paths()))

	reloader := watcher.NewReloader(fw, a.catalog.Reload, logger)

	g.Go(func() error {
		err := fw.Start(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		reloader.Run(ctx)
		return nil
	})
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case err, ok := <-fw.Errors():
				if !ok {
					return nil
				}
				logger.Warn("watch_error", slog.String("error", err.Error()))
			}
		}
	})
	return nil
}

// startMetrics serves the Prometheus registry until ctx is done.
func startMetrics(ctx context.Context, g *errgroup.Group, a *app, addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error {
		logger.Info("metrics_listening", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}
