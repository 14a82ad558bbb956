package raffle

import (
	"context"

	"raffle-ledger/internal/logger"

	"github.com/tonkeeper/tongo/ton"
	"go.uber.org/zap"
)

// Claim pays the whole ticket revenue to the winner and returns the prize amount.
func (p *Program) Claim(ctx context.Context, rt Runtime, address, winner ton.Bits256) (uint64, error) {
	record, err := p.Load(ctx, rt, address)
	if err != nil {
		return 0, err
	}

	selected, ok := record.Winner()
	if !ok {
		return 0, ErrWinnerNotYetDrawn
	}
	if selected != winner {
		return 0, ErrNotWinner
	}
	if record.Claimed {
		return 0, ErrPrizeAlreadyClaimed
	}

	prize := record.Prize()
	if err := rt.Transfer(ctx, address, winner, prize); err != nil {
		return 0, err
	}

	record.Claimed = true
	if err := p.store(ctx, rt, address, record); err != nil {
		return 0, err
	}

	logger.Debug("claim prize: done", zap.String("raffle", address.Hex()), zap.String("winner", winner.Hex()), zap.Uint64("prize", prize))
	return prize, nil
}
