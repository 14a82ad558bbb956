package raffle

import (
	"context"
	"fmt"

	"raffle-ledger/internal/logger"

	"github.com/tonkeeper/tongo/ton"
	"go.uber.org/zap"
)

// Runtime is the ledger runtime a raffle instruction executes against. All calls made
// during one instruction belong to a single atomic transaction: if the instruction
// returns an error, none of them take effect.
type Runtime interface {
	// Now is the current ledger time in unix seconds.
	Now() int64
	// Slot is the current value of the ledger's monotonically increasing slot counter.
	Slot() uint64

	Transfer(ctx context.Context, from, to ton.Bits256, amount uint64) error

	CreateAccount(ctx context.Context, payer, address ton.Bits256, space int) error
	AccountData(ctx context.Context, address ton.Bits256) ([]byte, bool, error)
	SetAccountData(ctx context.Context, address ton.Bits256, data []byte) error
	CloseAccount(ctx context.Context, address, recipient ton.Bits256) error

	// UpgradeAuthority reads the program-upgrade-authority registry.
	UpgradeAuthority(ctx context.Context, program ton.Bits256) (ton.Bits256, bool, error)

	// RequestRandomness asks the oracle for a fresh random value tagged to the raffle.
	RequestRandomness(ctx context.Context, raffle ton.Bits256) (RandomnessHandle, error)
	Emit(ctx context.Context, event WinnerSelected) error
}

type Config struct {
	ProgramID      ton.Bits256
	OracleIdentity ton.Bits256
	MinTicketPrice uint64
	// MaxDuration is in seconds.
	MaxDuration int64
}

func DefaultConfig(programID, oracleIdentity ton.Bits256) Config {
	return Config{
		ProgramID:      programID,
		OracleIdentity: oracleIdentity,
		MinTicketPrice: MinTicketPrice,
		MaxDuration:    MaxRaffleDuration,
	}
}

// Program implements the raffle state machine. It holds no per-raffle state; every
// operation loads the record from the runtime, validates, and writes it back.
type Program struct {
	config Config
}

func NewProgram(config Config) *Program {
	return &Program{config: config}
}

func (p *Program) Config() Config {
	return p.config
}

// Load reads and decodes the raffle record stored at address.
func (p *Program) Load(ctx context.Context, rt Runtime, address ton.Bits256) (*Record, error) {
	data, ok, err := rt.AccountData(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("load raffle %s: %w", address.Hex(), err)
	}
	if !ok {
		return nil, ErrRaffleNotFound
	}

	record, err := Decode(data)
	if err != nil {
		logger.Warn("load raffle: undecodable record", zap.String("raffle", address.Hex()), zap.Int("size", len(data)))
		return nil, err
	}
	return record, nil
}

func (p *Program) store(ctx context.Context, rt Runtime, address ton.Bits256, record *Record) error {
	data, ok, err := rt.AccountData(ctx, address)
	if err != nil {
		return fmt.Errorf("store raffle %s: %w", address.Hex(), err)
	}
	if !ok {
		return ErrRaffleNotFound
	}

	region := make([]byte, len(data))
	if err := record.EncodeInto(region); err != nil {
		return err
	}
	return rt.SetAccountData(ctx, address, region)
}
