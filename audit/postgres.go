// Package audit stores booking attempts. Every commit, confirmed or not,
// ends up in at least one sink: Postgres, S3 or the log.
package audit

import (
	"context"
	"fmt"

	"github.com/NextMind-AI/marlie/booking"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is the DDL for the attempts table. It is applied by operators
// before DATABASE_URL is configured; the recorder never creates tables.
const Schema = `
CREATE TABLE IF NOT EXISTS booking_attempts (
	id               UUID PRIMARY KEY,
	tenant_id        TEXT NOT NULL,
	phone            TEXT NOT NULL,
	service_id       INTEGER NOT NULL,
	service_name     TEXT,
	customer_id      TEXT,
	start_at         TIMESTAMPTZ NOT NULL,
	duration_minutes INTEGER NOT NULL,
	price            NUMERIC(10,2) NOT NULL,
	confirmed        BOOLEAN NOT NULL,
	status           TEXT NOT NULL,
	idempotency_key  TEXT NOT NULL,
	backend_response JSONB,
	error            TEXT,
	created_at       TIMESTAMPTZ NOT NULL
)`

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type PostgresRecorder struct {
	db execer
}

// Connect opens the pool used by the recorder.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("audit: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("audit: ping: %w", err)
	}
	return pool, nil
}

func NewPostgresRecorder(pool *pgxpool.Pool) *PostgresRecorder {
	if pool == nil {
		panic("audit: pgx pool required")
	}
	return &PostgresRecorder{db: pool}
}

func newPostgresRecorderWithExec(db execer) *PostgresRecorder {
	return &PostgresRecorder{db: db}
}

// Record inserts the attempt. Replaying the same attempt id is a no-op.
func (r *PostgresRecorder) Record(ctx context.Context, a booking.Attempt) error {
	query := `
		INSERT INTO booking_attempts (
			id, tenant_id, phone, service_id, service_name, customer_id, start_at,
			duration_minutes, price, confirmed, status, idempotency_key,
			backend_response, error, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query,
		a.ID, a.TenantID, a.Phone, a.ServiceID, a.ServiceName, a.CustomerID, a.Start,
		a.DurationMinutes, a.Price, a.Confirmed, a.Status, a.IdempotencyKey,
		jsonOrNil(a.BackendResponse), a.Error, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("audit: insert attempt %s: %w", a.ID, err)
	}
	return nil
}

func jsonOrNil(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
