package raffle

import (
	"context"

	"raffle-ledger/internal/logger"

	"github.com/tonkeeper/tongo/ton"
	"go.uber.org/zap"
)

// RequestDraw starts the two-phase winner selection. Only the manager may request it,
// and only once the raffle is over.
func (p *Program) RequestDraw(ctx context.Context, rt Runtime, address, caller ton.Bits256) (RandomnessHandle, error) {
	record, err := p.Load(ctx, rt, address)
	if err != nil {
		return RandomnessHandle{}, err
	}

	if caller != record.Manager {
		return RandomnessHandle{}, ErrUnauthorized
	}
	if !record.IsOver(rt.Now()) {
		return RandomnessHandle{}, ErrRaffleNotOver
	}
	if len(record.Entrants) == 0 {
		return RandomnessHandle{}, ErrNoEntrants
	}
	if record.WinnerIndex != nil {
		return RandomnessHandle{}, ErrWinnerAlreadyDrawn
	}
	if record.DrawRequested {
		return RandomnessHandle{}, ErrDrawAlreadyRequested
	}

	handle, err := rt.RequestRandomness(ctx, address)
	if err != nil {
		return RandomnessHandle{}, err
	}

	record.DrawRequested = true
	record.RandomnessHandle = handle
	if err := p.store(ctx, rt, address, record); err != nil {
		return RandomnessHandle{}, err
	}

	logger.Debug("request draw: randomness requested", zap.String("raffle", address.Hex()), zap.String("request", handle.Request.Hex()), zap.Uint64("slot", handle.Slot))
	return handle, nil
}
