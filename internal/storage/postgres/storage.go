package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/polkiloo/coursepay/internal/domain/errors"
	"github.com/polkiloo/coursepay/internal/domain/model"
	"github.com/polkiloo/coursepay/internal/domain/repository"
)

type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

var newPgxPool = func(ctx context.Context, cfg *pgxpool.Config) (pgxPool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

// Storage acts as repository facade backed by PostgreSQL.
type Storage struct {
	pool   pgxPool
	logger *slog.Logger
}

type attemptRepository struct {
	storage *Storage
}

// New creates storage with schema initialization.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := newPgxPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	storage := &Storage{pool: pool, logger: logger}
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return storage, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Storage) Attempts() repository.AttemptRepository {
	return &attemptRepository{storage: s}
}

func (s *Storage) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS checkout_attempts (
            order_id TEXT PRIMARY KEY,
            course_id TEXT NOT NULL,
            buyer_id TEXT NOT NULL,
            amount_minor BIGINT NOT NULL,
            currency TEXT NOT NULL,
            state TEXT NOT NULL,
            message TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_checkout_attempts_buyer ON checkout_attempts(buyer_id, created_at DESC)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	return nil
}

// --- AttemptRepository implementation ---

// Create records a launched attempt. Relaunching an order id restarts its record.
func (r *attemptRepository) Create(ctx context.Context, a model.Attempt) error {
	const query = `INSERT INTO checkout_attempts
            (order_id, course_id, buyer_id, amount_minor, currency, state, message, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
        ON CONFLICT (order_id) DO UPDATE SET
            state = EXCLUDED.state, message = EXCLUDED.message, updated_at = EXCLUDED.updated_at`
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.storage.pool.Exec(ctx, query,
		a.OrderID, a.CourseID, a.BuyerID, a.AmountMinor, a.Currency, a.State.String(), a.Message, createdAt)
	return err
}

// UpdateState moves the recorded state forward. A settled record is never reopened.
func (r *attemptRepository) UpdateState(ctx context.Context, orderID string, state model.SessionState, message string) error {
	return r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		const selectQuery = `SELECT state FROM checkout_attempts WHERE order_id=$1 FOR UPDATE`
		var current string
		if err := tx.QueryRow(ctx, selectQuery, orderID).Scan(&current); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domainErrors.ErrNotFound
			}
			return err
		}
		if recorded, ok := model.ParseSessionState(current); ok && recorded.Terminal() {
			if recorded != state {
				r.storage.logger.Warn("attempt already settled",
					slog.String("order", orderID),
					slog.String("recorded", current),
					slog.String("incoming", state.String()),
				)
			}
			return nil
		}

		const updateQuery = `UPDATE checkout_attempts SET state=$1, message=$2, updated_at=NOW() WHERE order_id=$3`
		_, err := tx.Exec(ctx, updateQuery, state.String(), message, orderID)
		return err
	})
}

func (r *attemptRepository) GetByOrder(ctx context.Context, orderID string) (*model.Attempt, error) {
	const query = `SELECT order_id, course_id, buyer_id, amount_minor, currency, state, message, created_at, updated_at
        FROM checkout_attempts WHERE order_id=$1`
	a, err := scanAttempt(r.storage.pool.QueryRow(ctx, query, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *attemptRepository) ListByBuyer(ctx context.Context, buyerID string, limit int) ([]model.Attempt, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `SELECT order_id, course_id, buyer_id, amount_minor, currency, state, message, created_at, updated_at
        FROM checkout_attempts WHERE buyer_id=$1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.storage.pool.Query(ctx, query, buyerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []model.Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return attempts, nil
}

func scanAttempt(row pgx.Row) (*model.Attempt, error) {
	var (
		a     model.Attempt
		state string
	)
	if err := row.Scan(&a.OrderID, &a.CourseID, &a.BuyerID, &a.AmountMinor, &a.Currency, &state, &a.Message, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	parsed, ok := model.ParseSessionState(state)
	if !ok {
		return nil, fmt.Errorf("attempt %s has unknown state %q", a.OrderID, state)
	}
	a.State = parsed
	return &a, nil
}

// WithinTransaction executes fn inside a database transaction.
func (s *Storage) WithinTransaction(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(tx)
	return err
}

// HealthCheck verifies database connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}
