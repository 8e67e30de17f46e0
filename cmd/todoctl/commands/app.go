package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/benvon/todo-pet/internal/config"
	"github.com/benvon/todo-pet/internal/database"
	"github.com/benvon/todo-pet/internal/kvstore"
	"github.com/benvon/todo-pet/internal/logger"
	"github.com/benvon/todo-pet/internal/pet"
	"github.com/benvon/todo-pet/internal/services/todos"
	"github.com/benvon/todo-pet/internal/telemetry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// globalOptions are the persistent flags shared by every command
type globalOptions struct {
	configPath string
	backend    string
	path       string
	url        string
	debug      bool
	jsonOutput bool
}

// app is everything a command needs, built once per invocation
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   kvstore.Store
	todos   *database.TodoRepository
	pet     *pet.Progression
	manager *todos.Manager

	shutdownTracing func(context.Context) error
}

func openApp(ctx context.Context, opts *globalOptions) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if opts.backend != "" {
		cfg.Store.Backend = opts.backend
	}
	if opts.path != "" {
		cfg.Store.Path = opts.path
	}
	if opts.url != "" {
		cfg.Store.URL = opts.url
	}
	if opts.debug {
		cfg.Debug = true
	}

	zapLogger, err := logger.New(cfg.LogFormat, cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTELEnabled, config.AppName, cfg.OTELEndpoint, zapLogger)
	if err != nil {
		zapLogger.Warn("failed_to_initialize_otel_tracer", zap.String("error", logger.SanitizeError(err)))
	}

	if cfg.Store.Backend == kvstore.BackendSQLite && cfg.Store.Path != ":memory:" {
		if err := ensureParentDir(cfg.Store.Path); err != nil {
			_ = shutdownTracing(ctx)
			return nil, err
		}
	}

	store, err := kvstore.Open(ctx, cfg.Store.KV())
	if err != nil {
		_ = shutdownTracing(ctx)
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Backend, err)
	}
	if cfg.OTELEnabled {
		store = kvstore.WithTracing(store, telemetry.Tracer(kvstore.TracerName))
	}

	zapLogger.Debug("store_opened",
		zap.String("backend", cfg.Store.Backend),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	todoRepo := database.NewTodoRepository(store, zapLogger)
	progression := pet.Load(ctx, database.NewPetRepository(store, zapLogger), zapLogger)
	manager := todos.NewManager(ctx, todoRepo, progression, zapLogger, todos.Options{
		XPPerCompletion: cfg.XPPerCompletion,
	})

	return &app{
		cfg:             cfg,
		logger:          zapLogger,
		store:           store,
		todos:           todoRepo,
		pet:             progression,
		manager:         manager,
		shutdownTracing: shutdownTracing,
	}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("failed_to_close_store", zap.String("error", logger.SanitizeError(err)))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.shutdownTracing(ctx); err != nil {
		a.logger.Error("failed_to_shutdown_otel_tracer", zap.String("error", logger.SanitizeError(err)))
	}
	_ = logger.Sync(a.logger)
}

func ensureParentDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}

// run wraps a command body with app setup and teardown
func run(opts *globalOptions, fn func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		a, err := openApp(ctx, opts)
		if err != nil {
			return err
		}
		defer a.close()

		return fn(ctx, cmd, a, args)
	}
}

// resolveID accepts a full id or an unambiguous prefix or suffix of one
func (a *app) resolveID(arg string) (string, error) {
	if arg == "" {
		return "", fmt.Errorf("id is required")
	}
	var matches []string
	for _, todo := range a.manager.Todos() {
		if todo.ID == arg {
			return arg, nil
		}
		if strings.HasPrefix(todo.ID, arg) || strings.HasSuffix(todo.ID, arg) {
			matches = append(matches, todo.ID)
		}
	}
	switch len(matches) {
	case 0:
		return arg, nil
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("id %q is ambiguous (%d matches)", arg, len(matches))
	}
}
