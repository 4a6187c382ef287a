// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gofrs/flock"
	"github.com/mattn/go-isatty"
	"golang.org/x/sync/errgroup"

	"github.com/starford/voicememo/internal/api"
	"github.com/starford/voicememo/internal/apperr"
	"github.com/starford/voicememo/internal/archiver"
	"github.com/starford/voicememo/internal/dailynote"
	"github.com/starford/voicememo/internal/ledger"
	"github.com/starford/voicememo/internal/mcpserver"
	"github.com/starford/voicememo/internal/memo"
	"github.com/starford/voicememo/internal/notecontext"
	"github.com/starford/voicememo/internal/sse"
	"github.com/starford/voicememo/internal/stabilizer"
	"github.com/starford/voicememo/internal/storage"
	"github.com/starford/voicememo/internal/transcriber"
	"github.com/starford/voicememo/internal/watcher"
	pkgconfig "github.com/starford/voicememo/pkg/config"
)

// Run watches the configured directory and processes every new memo until
// ctx is cancelled or SIGINT/SIGTERM is received.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts, pkgconfig.Validate[Config])
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger

	logger.Info("Configuration loaded",
		slog.String("watch_dir", cfg.Watch.Dir),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("daily_note_path", cfg.Vault.DailyNotePath),
		slog.String("ledger_path", cfg.Ledger.Path),
		slog.String("model", cfg.Gemini.Model),
		slog.Bool("http_enabled", cfg.App.HTTP.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	rt, err := app.open(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	svc := memo.NewService(rt.processor, rt.journal, broker.PublishMemoEvent, logger)

	dispatcher := watcher.New(cfg.Watch.Dir, svc,
		watcher.WithStabilizer(stabilizer.New(cfg.Watch.StabilizeInterval, cfg.Watch.StabilizeChecks)),
		watcher.WithQueueSize(cfg.Watch.QueueSize),
		watcher.WithLogger(logger))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return dispatcher.Run(gCtx)
	})

	if app.ready != nil {
		g.Go(func() error {
			select {
			case <-dispatcher.Ready():
				app.ready()
			case <-gCtx.Done():
			}
			return nil
		})
	}

	var httpServer *http.Server
	if cfg.App.HTTP.Enabled {
		httpServer = &http.Server{
			Addr:              cfg.App.HTTP.Address(),
			Handler:           newHTTPHandler(cfg, rt.journal, broker),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g.Go(func() error {
			logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("HTTP server error: %w", err)
			}
			return nil
		})
	}

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}
		cancel()

		if httpServer != nil {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Watcher stopped successfully")
	return nil
}

// Process runs the pipeline once for each path, in order. It is the manual
// retry path for memos left in the watch directory.
func Process(ctx context.Context, paths []string, opts ...Option) error {
	app, err := newApplication(opts, pkgconfig.Validate[Config])
	if err != nil {
		return err
	}

	rt, err := app.open(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	svc := memo.NewService(rt.processor, rt.journal, nil, app.logger)

	var errs []error
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
			continue
		}
		if !watcher.IsAudio(abs) {
			errs = append(errs, fmt.Errorf("%s: unsupported extension", p))
			continue
		}
		if err := svc.Handle(ctx, abs); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
		}
	}
	return errors.Join(errs...)
}

// ListMemos writes the journal, newest first, as a table to w.
func ListMemos(ctx context.Context, w io.Writer, status string, limit int, opts ...Option) error {
	app, err := newApplication(opts, (*Config).ValidateReadOnly)
	if err != nil {
		return err
	}

	journal, err := openJournal(app.config.Ledger.Path)
	if err != nil {
		return err
	}
	defer journal.Close()

	items, total, err := journal.List(ledger.Filter{Status: status, Limit: limit})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, renderMemos(items, total, time.Now()))
	return err
}

// ServeMCP serves the MCP tools over stdio until the client disconnects.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts, (*Config).ValidateReadOnly)
	if err != nil {
		return err
	}
	cfg := app.config

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	journal, err := openJournal(cfg.Ledger.Path)
	if err != nil {
		return err
	}
	defer journal.Close()

	srv := mcpserver.New(store, journal, cfg.Vault.DailyNotePath, newContextReader(cfg, store, app.logger))
	app.logger.Info("Serving MCP over stdio")
	return srv.ServeStdio()
}

// newApplication applies opts, validates the configuration with validate
// and installs the logger.
func newApplication(opts []Option, validate func(*Config) error) (*application, error) {
	app := &application{logOutput: os.Stderr}
	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("%w: config is required", apperr.ErrConfig)
	}
	if err := validate(app.config); err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrConfig, err)
	}

	app.logger = newLogger(app.logOutput, app.config.App.LogLevel)
	slog.SetDefault(app.logger)
	return app, nil
}

// newLogger returns a text handler for terminals and a JSON handler otherwise.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if f, ok := w.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// runtime holds the resources shared by the writing commands.
type runtime struct {
	lock      *flock.Flock
	journal   *ledger.DB
	processor *memo.Processor
	logger    *slog.Logger
}

// open acquires the single-instance lock and builds the processing pipeline.
func (a *application) open(ctx context.Context) (*runtime, error) {
	cfg := a.config

	// Ensure vault directory exists.
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Ledger.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger dir: %w", err)
	}

	lock := flock.New(cfg.Ledger.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperr.ErrLocked, cfg.Ledger.LockPath())
	}
	rt := &runtime{lock: lock, logger: a.logger}

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}

	rt.journal, err = openJournal(cfg.Ledger.Path)
	if err != nil {
		rt.Close()
		return nil, err
	}

	client := a.client
	if client == nil {
		client, err = transcriber.NewGemini(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model,
			transcriber.WithTimeout(cfg.Gemini.Timeout))
		if err != nil {
			rt.Close()
			return nil, err
		}
	}

	rt.processor = memo.NewProcessor(
		newContextReader(cfg, store, a.logger),
		client,
		dailynote.NewWriter(store, cfg.Vault.DailyNotePath),
		archiver.New(store),
		memo.WithLogger(a.logger),
	)
	return rt, nil
}

// Close releases the journal and the lock.
func (rt *runtime) Close() {
	if rt.journal != nil {
		if err := rt.journal.Close(); err != nil {
			rt.logger.Warn("close journal failed", slog.String("error", err.Error()))
		}
	}
	if err := rt.lock.Unlock(); err != nil {
		rt.logger.Warn("release lock failed", slog.String("error", err.Error()))
	}
}

func openJournal(path string) (*ledger.DB, error) {
	db, err := ledger.Open(path)
	if err != nil {
		return nil, fmt.Errorf("init journal: %w", err)
	}
	return db, nil
}

func newContextReader(cfg *Config, store storage.Provider, logger *slog.Logger) notecontext.Reader {
	return notecontext.New(store, cfg.Vault.DailyNotePath, cfg.Vault.ContextDays,
		notecontext.WithMaxBytes(cfg.Vault.ContextMaxBytes),
		notecontext.WithLogger(logger))
}

// newHTTPHandler builds the operator endpoint: health checks plus the
// journal API under /api.
func newHTTPHandler(cfg *Config, journal ledger.Journal, broker *sse.Broker) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, _, err := journal.List(ledger.Filter{Limit: 1}); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"journal unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", api.NewRouter(journal, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker))

	return r
}
