package raffle

import (
	"context"

	"raffle-ledger/internal/logger"

	"github.com/tonkeeper/tongo/ton"
	"go.uber.org/zap"
)

// Open creates a raffle record for manager and returns its address. The manager pays
// for the record's storage.
func (p *Program) Open(ctx context.Context, rt Runtime, manager ton.Bits256, ticketPrice uint64, capacity uint32, endTime int64) (ton.Bits256, error) {
	now := rt.Now()
	if endTime <= now {
		return ton.Bits256{}, ErrEndTimeInPast
	}
	if uint64(endTime)-uint64(now) > uint64(p.config.MaxDuration) {
		return ton.Bits256{}, ErrDurationTooLong
	}
	if capacity == 0 {
		return ton.Bits256{}, ErrZeroCapacity
	}
	if ticketPrice < p.config.MinTicketPrice {
		return ton.Bits256{}, ErrPriceTooLow
	}
	if _, ok := checkedMul(ticketPrice, uint64(capacity)); !ok {
		return ton.Bits256{}, ErrCapacityOverflow
	}

	address := DeriveAddress(p.config.ProgramID, manager, ticketPrice, capacity, endTime)
	space := AccountSpace(capacity)
	logger.Debug("open raffle: creating record account", zap.String("raffle", address.Hex()), zap.Int("space", space))

	if err := rt.CreateAccount(ctx, manager, address, space); err != nil {
		return ton.Bits256{}, err
	}

	record := NewRecord(manager, ticketPrice, capacity, endTime)
	if err := p.store(ctx, rt, address, record); err != nil {
		return ton.Bits256{}, err
	}

	logger.Debug("open raffle: done", zap.String("raffle", address.Hex()), zap.Uint64("ticket price", ticketPrice), zap.Uint32("capacity", capacity), zap.Int64("end time", endTime))
	return address, nil
}
