package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/klokku/kalendar/internal/config"
	"github.com/klokku/kalendar/internal/database"
	"github.com/klokku/kalendar/pkg/storage"
	log "github.com/sirupsen/logrus"
)

// Application wires configuration, storage, router, and server lifecycle.
type Application struct {
	cfg     config.Application
	router  *mux.Router
	srv     *http.Server
	closers []func()
}

// NewApplication constructs the full HTTP application, ready to Run().
func NewApplication(ctx context.Context, configPath string) (*Application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	kv, closeStorage, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// Build dependencies (store, services, handlers...)
	deps, err := BuildDependencies(ctx, kv, cfg)
	if err != nil {
		closeStorage()
		return nil, err
	}

	r := mux.NewRouter()

	// Middleware chain
	SetupMiddleware(r)

	// Routes
	RegisterRoutes(r, deps, cfg)

	srv := &http.Server{
		Handler:      r,
		Addr:         cfg.Listen,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Application{cfg: cfg, router: r, srv: srv, closers: []func(){deps.Close, closeStorage}}, nil
}

// openStorage connects the configured key-value backend and applies its migrations.
func openStorage(ctx context.Context, cfg config.Application) (storage.KeyValueStore, func(), error) {
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		log.Warn("Using in-memory storage, events will be lost on restart")
		return storage.NewMemoryStore(), func() {}, nil

	case config.StorageSQLite:
		db, err := database.OpenSQLite(cfg.Storage.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		if err := database.MigrateSQLite(db); err != nil {
			db.Close()
			return nil, nil, err
		}
		log.Infof("Using SQLite storage at %s", cfg.Storage.SQLite.Path)
		return storage.NewSQLStore(db), func() { db.Close() }, nil

	case config.StoragePostgres:
		if err := database.Migrate(cfg.Database); err != nil {
			return nil, nil, err
		}
		pool, err := database.Open(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		log.Infof("Using Postgres storage at %s:%d/%s", cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)
		return storage.NewPostgresStore(pool), pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// Run starts the HTTP server and blocks until it fails or ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	defer a.close()

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting server on %s", a.srv.Addr)
		errCh <- a.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (a *Application) close() {
	for _, closer := range a.closers {
		closer()
	}
}
