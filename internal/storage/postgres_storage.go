package storage

import (
	"context"
	"errors"
	"fmt"
	"math"

	"raffle-ledger/internal/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS accounts (
    address TEXT PRIMARY KEY,
    balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
    space INTEGER NOT NULL DEFAULT 0,
    data BYTEA,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS randomness_requests (
    request TEXT PRIMARY KEY,
    raffle TEXT NOT NULL,
    slot BIGINT NOT NULL,
    fulfilled BOOLEAN NOT NULL DEFAULT FALSE,
    fulfilled_at TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_randomness_requests_raffle ON randomness_requests(raffle);
CREATE INDEX IF NOT EXISTS idx_randomness_requests_fulfilled ON randomness_requests(fulfilled);

CREATE TABLE IF NOT EXISTS program_registrations (
    program_id TEXT PRIMARY KEY,
    upgrade_authority TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS notifications (
    id BIGSERIAL PRIMARY KEY,
    kind TEXT NOT NULL,
    raffle TEXT NOT NULL,
    slot BIGINT NOT NULL,
    payload BYTEA NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_notifications_raffle ON notifications(raffle);
`

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStorage implements Storage on PostgreSQL
type PostgresStorage struct {
	pool *pgxpool.Pool
	q    querier
}

// NewPostgresStorage connects to databaseURL and creates the schema if needed
func NewPostgresStorage(ctx context.Context, databaseURL string) (*PostgresStorage, error) {
	logger.Debug("initializing postgres database...")

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	logger.Debug("initializing postgres database... done")
	return &PostgresStorage{pool: pool, q: pool}, nil
}

func (s *PostgresStorage) Transaction(ctx context.Context, fn func(tx Querier) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&PostgresStorage{pool: s.pool, q: tx})
	})
}

func (s *PostgresStorage) Close() error {
	s.pool.Close()
	return nil
}

func toBigint(v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, fmt.Errorf("value %d exceeds bigint range", v)
	}
	return int64(v), nil
}

func (s *PostgresStorage) GetAccount(ctx context.Context, address string) (*Account, error) {
	query := `
		SELECT address, balance, space, data, created_at, updated_at
		FROM accounts
		WHERE address = $1
	`

	var account Account
	var balance int64
	err := s.q.QueryRow(ctx, query, address).Scan(
		&account.Address,
		&balance,
		&account.Space,
		&account.Data,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	account.Balance = uint64(balance)
	return &account, nil
}

func (s *PostgresStorage) CreateAccount(ctx context.Context, account *Account) error {
	balance, err := toBigint(account.Balance)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO accounts (address, balance, space, data)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := s.q.Exec(ctx, query, account.Address, balance, account.Space, account.Data); err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

func (s *PostgresStorage) UpdateAccount(ctx context.Context, account *Account) error {
	balance, err := toBigint(account.Balance)
	if err != nil {
		return err
	}

	query := `
		UPDATE accounts
		SET balance = $2, space = $3, data = $4, updated_at = NOW()
		WHERE address = $1
	`
	tag, err := s.q.Exec(ctx, query, account.Address, balance, account.Space, account.Data)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *PostgresStorage) DeleteAccount(ctx context.Context, address string) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM accounts WHERE address = $1`, address)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *PostgresStorage) CreateRandomnessRequest(ctx context.Context, request *RandomnessRequest) error {
	slot, err := toBigint(request.Slot)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO randomness_requests (request, raffle, slot)
		VALUES ($1, $2, $3)
	`
	if _, err := s.q.Exec(ctx, query, request.Request, request.Raffle, slot); err != nil {
		return fmt.Errorf("failed to create randomness request: %w", err)
	}

	return nil
}

func (s *PostgresStorage) GetRandomnessRequest(ctx context.Context, request string) (*RandomnessRequest, error) {
	query := `
		SELECT request, raffle, slot, fulfilled, fulfilled_at, created_at
		FROM randomness_requests
		WHERE request = $1
	`

	r, err := scanRandomnessRequest(s.q.QueryRow(ctx, query, request))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get randomness request: %w", err)
	}

	return r, nil
}

func (s *PostgresStorage) GetPendingRandomnessRequests(ctx context.Context, limit int) ([]*RandomnessRequest, error) {
	query := `
		SELECT request, raffle, slot, fulfilled, fulfilled_at, created_at
		FROM randomness_requests
		WHERE fulfilled = FALSE
		ORDER BY slot, request
		LIMIT $1
	`

	rows, err := s.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending randomness requests: %w", err)
	}
	defer rows.Close()

	requests := make([]*RandomnessRequest, 0)
	for rows.Next() {
		r, err := scanRandomnessRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan randomness request: %w", err)
		}
		requests = append(requests, r)
	}

	return requests, rows.Err()
}

func scanRandomnessRequest(row pgx.Row) (*RandomnessRequest, error) {
	var r RandomnessRequest
	var slot int64
	err := row.Scan(&r.Request, &r.Raffle, &slot, &r.Fulfilled, &r.FulfilledAt, &r.CreatedAt)
	if err != nil {
		return nil, err
	}

	r.Slot = uint64(slot)
	return &r, nil
}

func (s *PostgresStorage) MarkRandomnessRequestFulfilled(ctx context.Context, request string) error {
	query := `
		UPDATE randomness_requests
		SET fulfilled = TRUE, fulfilled_at = NOW()
		WHERE request = $1
	`
	tag, err := s.q.Exec(ctx, query, request)
	if err != nil {
		return fmt.Errorf("failed to mark randomness request fulfilled: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *PostgresStorage) GetProgramRegistration(ctx context.Context, programID string) (*ProgramRegistration, error) {
	query := `
		SELECT program_id, upgrade_authority, updated_at
		FROM program_registrations
		WHERE program_id = $1
	`

	var registration ProgramRegistration
	err := s.q.QueryRow(ctx, query, programID).Scan(&registration.ProgramID, &registration.UpgradeAuthority, &registration.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get program registration: %w", err)
	}

	return &registration, nil
}

func (s *PostgresStorage) UpdateProgramRegistration(ctx context.Context, registration *ProgramRegistration) error {
	query := `
		INSERT INTO program_registrations (program_id, upgrade_authority)
		VALUES ($1, $2)
		ON CONFLICT (program_id) DO UPDATE
		SET upgrade_authority = EXCLUDED.upgrade_authority, updated_at = NOW()
	`
	if _, err := s.q.Exec(ctx, query, registration.ProgramID, registration.UpgradeAuthority); err != nil {
		return fmt.Errorf("failed to update program registration: %w", err)
	}

	return nil
}

func (s *PostgresStorage) CreateNotification(ctx context.Context, notification *Notification) error {
	slot, err := toBigint(notification.Slot)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO notifications (kind, raffle, slot, payload)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err = s.q.QueryRow(ctx, query, notification.Kind, notification.Raffle, slot, notification.Payload).
		Scan(&notification.ID, &notification.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

func (s *PostgresStorage) GetNotificationsByRaffle(ctx context.Context, raffle string) ([]*Notification, error) {
	query := `
		SELECT id, kind, raffle, slot, payload, created_at
		FROM notifications
		WHERE raffle = $1
		ORDER BY id
	`

	rows, err := s.q.Query(ctx, query, raffle)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]*Notification, 0)
	for rows.Next() {
		var n Notification
		var slot int64
		if err := rows.Scan(&n.ID, &n.Kind, &n.Raffle, &slot, &n.Payload, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.Slot = uint64(slot)
		notifications = append(notifications, &n)
	}

	return notifications, rows.Err()
}
