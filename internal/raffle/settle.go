package raffle

import (
	"context"

	"raffle-ledger/internal/logger"

	"github.com/tonkeeper/tongo/ton"
	"go.uber.org/zap"
)

// SettleDraw is the oracle callback. It selects the winner from the fulfilled randomness
// and emits a WinnerSelected notification. At most one call succeeds per raffle.
func (p *Program) SettleDraw(ctx context.Context, rt Runtime, address, oracle ton.Bits256, fulfillment Fulfillment) (WinnerSelected, error) {
	if oracle != p.config.OracleIdentity {
		return WinnerSelected{}, ErrUnauthorized
	}

	record, err := p.Load(ctx, rt, address)
	if err != nil {
		return WinnerSelected{}, err
	}

	if !record.DrawRequested {
		return WinnerSelected{}, ErrDrawNotStarted
	}
	if record.WinnerIndex != nil {
		return WinnerSelected{}, ErrWinnerAlreadyDrawn
	}
	if !record.RandomnessHandle.matches(fulfillment) {
		logger.Warn("settle draw: stale or foreign randomness",
			zap.String("raffle", address.Hex()),
			zap.String("expected request", record.RandomnessHandle.Request.Hex()),
			zap.Uint64("expected slot", record.RandomnessHandle.Slot),
			zap.String("request", fulfillment.Request.Hex()),
			zap.Uint64("slot", fulfillment.Slot),
		)
		return WinnerSelected{}, ErrRandomnessExpired
	}
	if len(record.Entrants) == 0 {
		return WinnerSelected{}, ErrNoEntrants
	}

	index := WinnerIndex(fulfillment.Randomness, len(record.Entrants))
	record.WinnerIndex = &index
	record.RandomnessHandle = RandomnessHandle{}
	if err := p.store(ctx, rt, address, record); err != nil {
		return WinnerSelected{}, err
	}

	event := WinnerSelected{
		Raffle:      address,
		WinnerIndex: index,
		Winner:      record.Entrants[index],
		Slot:        rt.Slot(),
	}
	if err := rt.Emit(ctx, event); err != nil {
		return WinnerSelected{}, err
	}

	logger.Debug("settle draw: winner selected", zap.String("raffle", address.Hex()), zap.Uint32("index", index), zap.String("winner", event.Winner.Hex()))
	return event, nil
}
