package psql

import (
	"context"
	"fmt"

	"github.com/2beens/babymoves/internal/movement"
	"github.com/2beens/babymoves/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

const CreateTableSQL = `
CREATE TABLE IF NOT EXISTS movement_event
(
    id         SERIAL PRIMARY KEY,
    date       TEXT        NOT NULL,
    time       TEXT        NOT NULL,
    intensity  TEXT        NOT NULL DEFAULT '',
    frequency  TEXT        NOT NULL DEFAULT '',
    type       TEXT        NOT NULL,
    position   TEXT        NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Store keeps movement events in an append-only postgres table.
type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{
		db: db,
	}
}

// Migrate creates the events table if it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, CreateTableSQL); err != nil {
		return fmt.Errorf("create movement_event table: %w", err)
	}
	return nil
}

func (s *Store) Append(ctx context.Context, event movement.Event) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.psql.append")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if _, err := s.db.Exec(
		ctx,
		`INSERT INTO movement_event (date, time, intensity, frequency, type, position) VALUES ($1, $2, $3, $4, $5, $6);`,
		event.Date, event.Time, event.Intensity, event.Frequency, event.Type, event.Position,
	); err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}

	return nil
}

func (s *Store) FetchAll(ctx context.Context) (_ []movement.Event, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.psql.fetch_all")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := s.db.Query(
		ctx,
		`SELECT date, time, intensity, frequency, type, position FROM movement_event ORDER BY id;`,
	)
	if err != nil {
		return nil, fmt.Errorf("query movements: %w", err)
	}

	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (movement.Event, error) {
		var e movement.Event
		err := row.Scan(&e.Date, &e.Time, &e.Intensity, &e.Frequency, &e.Type, &e.Position)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("collect movements: %w", err)
	}

	span.SetAttributes(attribute.Int("rows", len(events)))
	return events, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
