package raffle

import (
	"context"

	"raffle-ledger/internal/logger"

	"github.com/tonkeeper/tongo/ton"
	"go.uber.org/zap"
)

// Close destroys a raffle record and returns its remaining balance to the manager.
// The manager or the program's upgrade authority may close a raffle that sold
// nothing or whose prize has been claimed.
func (p *Program) Close(ctx context.Context, rt Runtime, address, caller ton.Bits256) error {
	record, err := p.Load(ctx, rt, address)
	if err != nil {
		return err
	}

	authorized, err := p.canClose(ctx, rt, record, caller)
	if err != nil {
		return err
	}
	if !authorized {
		return ErrOnlyManagerOrUpgradeAuthority
	}

	if !record.Claimed && len(record.Entrants) > 0 {
		return ErrCannotCloseActive
	}

	if err := rt.CloseAccount(ctx, address, record.Manager); err != nil {
		return err
	}

	logger.Debug("close raffle: done", zap.String("raffle", address.Hex()), zap.String("caller", caller.Hex()), zap.String("manager", record.Manager.Hex()))
	return nil
}

// canClose checks caller against the set of authorized closers {manager, upgrade authority}.
func (p *Program) canClose(ctx context.Context, rt Runtime, record *Record, caller ton.Bits256) (bool, error) {
	if caller == record.Manager {
		return true, nil
	}

	authority, ok, err := rt.UpgradeAuthority(ctx, p.config.ProgramID)
	if err != nil {
		return false, err
	}
	return ok && caller == authority, nil
}
