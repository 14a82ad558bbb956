package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("storage: record not found")

// Querier is the set of reads and writes available both on a Storage and inside one
// of its transactions.
type Querier interface {
	// account
	GetAccount(ctx context.Context, address string) (*Account, error)
	CreateAccount(ctx context.Context, account *Account) error
	UpdateAccount(ctx context.Context, account *Account) error
	DeleteAccount(ctx context.Context, address string) error

	// randomness request
	CreateRandomnessRequest(ctx context.Context, request *RandomnessRequest) error
	GetRandomnessRequest(ctx context.Context, request string) (*RandomnessRequest, error)
	GetPendingRandomnessRequests(ctx context.Context, limit int) ([]*RandomnessRequest, error)
	MarkRandomnessRequestFulfilled(ctx context.Context, request string) error

	// program registry
	GetProgramRegistration(ctx context.Context, programID string) (*ProgramRegistration, error)
	UpdateProgramRegistration(ctx context.Context, registration *ProgramRegistration) error

	// notification
	CreateNotification(ctx context.Context, notification *Notification) error
	GetNotificationsByRaffle(ctx context.Context, raffle string) ([]*Notification, error)
}

type Storage interface {
	Querier

	// Transaction runs fn atomically: its writes commit if fn returns nil and roll back otherwise.
	Transaction(ctx context.Context, fn func(tx Querier) error) error
	Close() error
}

type Type = string

const (
	SqliteType   Type = "sqlite"
	PostgresType Type = "postgres"
)

// Open connects to the storage backend selected by storageType.
func Open(ctx context.Context, storageType Type, url string) (Storage, error) {
	switch storageType {
	case SqliteType, "":
		return NewSqliteStorage(url)
	case PostgresType:
		return NewPostgresStorage(ctx, url)
	default:
		return nil, errors.New("storage: unknown storage type " + storageType)
	}
}
