package internal

import (
	"context"
	"fmt"

	"github.com/2beens/babymoves/internal/config"
	"github.com/2beens/babymoves/internal/db"
	"github.com/2beens/babymoves/internal/movement"
	"github.com/2beens/babymoves/internal/movement/psql"
	"github.com/2beens/babymoves/internal/movement/sheets"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type MovementStore interface {
	Append(ctx context.Context, event movement.Event) error
	FetchAll(ctx context.Context) ([]movement.Event, error)
}

// NewMovementStore creates the store selected by the config. The db pool is
// returned for the postgres backend only, the caller closes it.
// ctx must live as long as the store: the google client refreshes its token with it.
func NewMovementStore(ctx context.Context, cfg *config.Config, tracingEnabled bool) (MovementStore, *pgxpool.Pool, error) {
	switch cfg.StoreBackend {
	case config.StoreBackendPostgres:
		dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost:         cfg.PostgresHost,
			DBPort:         cfg.PostgresPort,
			DBName:         cfg.PostgresDBName,
			DBUser:         cfg.PostgresUser,
			DBPassword:     cfg.PostgresPassword,
			SSLMode:        cfg.PostgresSSLMode,
			TracingEnabled: tracingEnabled,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("new db pool: %w", err)
		}

		if err := dbPool.Ping(ctx); err != nil {
			log.Warnf("failed to ping db: %s", err)
		}

		store := psql.NewStore(dbPool)
		if err := store.Migrate(ctx); err != nil {
			dbPool.Close()
			return nil, nil, err
		}

		log.Infof("movement store: postgres [%s:%s/%s]", cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresDBName)
		return store, dbPool, nil
	case config.StoreBackendSheets:
		store, err := sheets.NewStore(ctx, sheets.NewStoreParams{
			SpreadsheetID:   cfg.SpreadsheetID,
			SheetName:       cfg.SheetName,
			CredentialsFile: cfg.GoogleCredentialsFile,
			TracingEnabled:  tracingEnabled,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("new sheets store: %w", err)
		}

		log.Infof("movement store: google sheet [%s]", cfg.SpreadsheetID)
		return store, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend [%s]", cfg.StoreBackend)
	}
}
