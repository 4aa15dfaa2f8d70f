// Package container wires the bill store, session and application services
// from configuration and owns their lifecycle.
package container

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/billed/internal/application/port"
	"github.com/garyjia/billed/internal/config"
	"github.com/garyjia/billed/internal/infrastructure/persistence/repository"
	"github.com/garyjia/billed/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/billed/internal/infrastructure/session"
	"github.com/garyjia/billed/internal/infrastructure/storage"
	"github.com/garyjia/billed/internal/infrastructure/store/rest"
	"github.com/garyjia/billed/pkg/database"
)

// StoreBundle holds the selected bill store and what it needs closed
type StoreBundle struct {
	Store port.BillStore
	// DB is set for the sqlite driver only
	DB *database.DB
	// Receipts is set for the sqlite driver only
	Receipts *storage.LocalFileStorage
}

// ProvideDatabase opens the sqlite database and applies the bundled schema.
func ProvideDatabase(cfg *config.DatabaseConfig, logger *zap.Logger) (*database.DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := database.NewMigrator(db, logger).RunMigrations(database.Schema()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

// ProvideStore builds the bill store named by cfg.Store.Driver. The sqlite
// store lists the bills of the sess user only.
// The none driver yields an empty bundle: no data source is configured.
func ProvideStore(cfg *config.Config, sess port.SessionProvider, logger *zap.Logger) (*StoreBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	switch cfg.Store.Driver {
	case config.DriverREST:
		client, err := rest.NewClient(rest.Config{
			BaseURL: cfg.Store.BaseURL,
			Token:   cfg.Store.Token,
			Timeout: cfg.Store.Timeout,
		}, nil, logger.Named("rest"))
		if err != nil {
			return nil, err
		}
		return &StoreBundle{Store: client}, nil

	case config.DriverSQLite:
		db, err := ProvideDatabase(&cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		receipts := storage.NewLocalFileStorage(cfg.Storage.ReceiptsDir, cfg.Storage.PublicBaseURL, logger.Named("storage"))
		repo := repository.NewBillRepository(sqlite.NewDB(db), receipts, sess, logger.Named("bills"))
		return &StoreBundle{Store: repo, DB: db, Receipts: receipts}, nil

	case config.DriverNone, "":
		logger.Info("No bill store configured")
		return &StoreBundle{}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// ProvideSession returns the identity source: the email override when set,
// otherwise the persisted user file
func ProvideSession(cfg *config.SessionConfig) (port.SessionProvider, error) {
	if cfg.Email != "" {
		return session.NewStaticSession(cfg.Email)
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("session path or email is required")
	}
	return session.NewFileSession(cfg.Path), nil
}
