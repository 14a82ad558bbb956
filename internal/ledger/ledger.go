package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"raffle-ledger/internal/logger"
	"raffle-ledger/internal/storage"

	"github.com/tonkeeper/tongo/ton"
	"go.uber.org/zap"
)

var (
	ErrInsufficientFunds = errors.New("ledger: insufficient funds")
	ErrBalanceOverflow   = errors.New("ledger: balance overflow")
	ErrAccountExists     = errors.New("ledger: account already exists")
	ErrAccountNotFound   = errors.New("ledger: account not found")
	ErrAccountSize       = errors.New("ledger: data does not match account size")
	ErrAccountTooLarge   = errors.New("ledger: account data exceeds the maximum size")
	ErrSelfTransfer      = errors.New("ledger: transfer to the same account")
)

const (
	DefaultSlotDuration = 400 * time.Millisecond
	DefaultRentPerByte  = 6960
	// accountOverhead is charged on top of the data size for every account.
	accountOverhead = 128
	// MaxAccountSpace caps the data region of a single account.
	MaxAccountSpace = 10 * 1024 * 1024
)

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

type Config struct {
	Genesis      time.Time
	SlotDuration time.Duration
	RentPerByte  uint64
}

// Ledger is the account-based runtime raffle instructions execute on. It serializes
// instructions: one Execute call runs at a time.
type Ledger struct {
	mu      sync.Mutex
	storage storage.Storage
	clock   Clock
	config  Config
}

func New(s storage.Storage, clock Clock, config Config) *Ledger {
	if config.SlotDuration <= 0 {
		config.SlotDuration = DefaultSlotDuration
	}
	if config.Genesis.IsZero() {
		config.Genesis = time.Unix(0, 0)
	}
	return &Ledger{
		storage: s,
		clock:   clock,
		config:  config,
	}
}

// RentExempt is the deposit an account of the given data size must hold.
func (l *Ledger) RentExempt(space int) uint64 {
	return uint64(space+accountOverhead) * l.config.RentPerByte
}

// Slot derives the current slot from the clock. It never decreases while the clock
// moves forward.
func (l *Ledger) Slot() uint64 {
	return l.slotAt(l.clock.Now())
}

func (l *Ledger) slotAt(now time.Time) uint64 {
	elapsed := now.Sub(l.config.Genesis)
	if elapsed < 0 {
		return 0
	}
	return uint64(elapsed / l.config.SlotDuration)
}

// Execute runs fn as one atomic ledger transaction. Every write made through tx
// commits together if fn returns nil, and none of them do otherwise.
func (l *Ledger) Execute(ctx context.Context, fn func(tx *Transaction) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	slot := l.slotAt(now)

	return l.storage.Transaction(ctx, func(q storage.Querier) error {
		return fn(&Transaction{
			ledger: l,
			q:      q,
			now:    now.Unix(),
			slot:   slot,
		})
	})
}

// Airdrop credits amount to address, creating the account if needed.
func (l *Ledger) Airdrop(ctx context.Context, address ton.Bits256, amount uint64) error {
	logger.Debug("airdrop", zap.String("address", address.Hex()), zap.Uint64("amount", amount))

	return l.Execute(ctx, func(tx *Transaction) error {
		return tx.credit(ctx, address, amount)
	})
}

func (l *Ledger) Balance(ctx context.Context, address ton.Bits256) (uint64, error) {
	account, err := l.storage.GetAccount(ctx, address.Hex())
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

// RegisterProgram records the upgrade authority of a deployed program.
func (l *Ledger) RegisterProgram(ctx context.Context, program, upgradeAuthority ton.Bits256) error {
	logger.Info("registering program", zap.String("program", program.Hex()), zap.String("upgrade authority", upgradeAuthority.Hex()))

	err := l.storage.UpdateProgramRegistration(ctx, &storage.ProgramRegistration{
		ProgramID:        program.Hex(),
		UpgradeAuthority: upgradeAuthority.Hex(),
	})
	if err != nil {
		return fmt.Errorf("register program: %w", err)
	}
	return nil
}

func (l *Ledger) PendingRandomnessRequests(ctx context.Context, limit int) ([]*storage.RandomnessRequest, error) {
	return l.storage.GetPendingRandomnessRequests(ctx, limit)
}

func (l *Ledger) Notifications(ctx context.Context, raffle ton.Bits256) ([]*storage.Notification, error) {
	return l.storage.GetNotificationsByRaffle(ctx, raffle.Hex())
}

// Now is the ledger clock in unix seconds.
func (l *Ledger) Now() int64 {
	return l.clock.Now().Unix()
}
