package tracker

import (
	"errors"
	"fmt"

	"raffle-ledger/internal/logger"
	"raffle-ledger/internal/metrics"
	"raffle-ledger/internal/raffle"
	"raffle-ledger/internal/storage"

	"github.com/tonkeeper/tongo/ton"
	"go.uber.org/zap"
)

// synchronize answers every pending randomness request in one window.
func (t *Tracker) synchronize() error {
	pending, err := retry(t.ctx, func() ([]*storage.RandomnessRequest, error) {
		return t.processor.Ledger().PendingRandomnessRequests(t.ctx, GlobalLimitWindowSize)
	})
	if err != nil {
		logger.Debug("synchronize: cannot get pending randomness requests, exiting...")
		return err
	}

	metrics.PendingRandomnessRequests.Set(float64(len(pending)))
	if len(pending) == 0 {
		return nil
	}

	logger.Debug("synchronize: pending randomness requests", zap.Int("count", len(pending)))

	// a failing request must not hold back the rest of the window
	var failures []error
	for _, request := range pending {
		if err := t.fulfill(request); err != nil {
			if t.ctx.Err() != nil {
				return t.ctx.Err()
			}
			logger.Error("synchronize: cannot fulfill randomness request", zap.String("request", request.Request), zap.String("raffle", request.Raffle), zap.Error(err))
			failures = append(failures, err)
		}
	}
	return errors.Join(failures...)
}

func (t *Tracker) fulfill(pending *storage.RandomnessRequest) error {
	request, err := ton.ParseHash(pending.Request)
	if err != nil {
		return fmt.Errorf("synchronize: invalid request address %q: %w", pending.Request, err)
	}
	raffleAddress, err := ton.ParseHash(pending.Raffle)
	if err != nil {
		return fmt.Errorf("synchronize: invalid raffle address %q: %w", pending.Raffle, err)
	}

	response := t.oracle.Generate(request, pending.Slot)
	logger.Debug("synchronize: settling draw",
		zap.String("raffle", pending.Raffle),
		zap.String("request", pending.Request),
		zap.Uint64("slot", pending.Slot),
	)

	_, err = retry(t.ctx, func() (raffle.WinnerSelected, error) {
		return t.processor.SettleDraw(t.ctx, raffleAddress, t.oracle.Identity(), response.Fulfillment)
	})

	var raffleErr *raffle.Error
	if errors.As(err, &raffleErr) {
		logger.Warn("synchronize: draw rejected, discarding request", zap.String("raffle", pending.Raffle), zap.String("code", raffleErr.Code))
		return t.processor.DiscardRequest(t.ctx, request)
	}
	return err
}
