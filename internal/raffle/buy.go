package raffle

import (
	"context"

	"raffle-ledger/internal/logger"

	"github.com/tonkeeper/tongo/ton"
	"go.uber.org/zap"
)

// Buy sells count tickets to buyer. The payment and the entrant append commit together.
// It returns the amount paid.
func (p *Program) Buy(ctx context.Context, rt Runtime, address, buyer ton.Bits256, count uint32) (uint64, error) {
	if count == 0 {
		return 0, ErrZeroTickets
	}

	record, err := p.Load(ctx, rt, address)
	if err != nil {
		return 0, err
	}

	if record.IsOver(rt.Now()) {
		return 0, ErrRaffleEnded
	}

	if err := record.ReserveTickets(buyer, count); err != nil {
		return 0, err
	}

	total, ok := checkedMul(record.TicketPrice, uint64(count))
	if !ok {
		return 0, ErrPriceOverflow
	}

	if err := rt.Transfer(ctx, buyer, address, total); err != nil {
		return 0, err
	}

	if err := p.store(ctx, rt, address, record); err != nil {
		return 0, err
	}

	logger.Debug("buy tickets: done", zap.String("raffle", address.Hex()), zap.String("buyer", buyer.Hex()), zap.Uint32("count", count), zap.Uint64("total", total), zap.Int("sold", len(record.Entrants)))
	return total, nil
}
