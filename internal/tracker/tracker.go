package tracker

import (
	"context"
	"errors"
	"time"

	"raffle-ledger/internal/logger"
	"raffle-ledger/internal/oracle"
	"raffle-ledger/internal/processor"
	"raffle-ledger/internal/raffle"

	"go.uber.org/zap"
)

// Tracker is the oracle side of the draw handshake: it watches the ledger for pending
// randomness requests and calls settle-draw back with the oracle's answer.
type Tracker struct {
	ctx       context.Context
	processor *processor.Processor
	oracle    *oracle.Oracle
	interval  time.Duration
}

type Func[T any] func() (T, error)

// retry re-runs fn on storage or runtime failures. Raffle rejections are final.
func retry[T any](ctx context.Context, fn Func[T]) (T, error) {
	var result T
	var err error

	for attempt := 0; attempt < RetryAttempts; attempt++ {
		result, err = fn()
		if err == nil {
			return result, nil
		}

		var raffleErr *raffle.Error
		if errors.As(err, &raffleErr) {
			return result, err
		}

		logger.Debug("tracker: transient failure, retrying", zap.Int("attempt", attempt+1), zap.Error(err))
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-time.After(RetryDelay):
		}
	}

	return result, err
}

func NewTracker(ctx context.Context, p *processor.Processor, o *oracle.Oracle, interval time.Duration) *Tracker {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	logger.Debug("tracker initialization", zap.String("oracle", o.Identity().Hex()), zap.Duration("interval", interval))
	return &Tracker{
		ctx:       ctx,
		processor: p,
		oracle:    o,
		interval:  interval,
	}
}

// Run polls until the tracker context is cancelled.
func (t *Tracker) Run() {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		if err := t.synchronize(); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("tracker: synchronization failed", zap.Error(err))
		}

		select {
		case <-t.ctx.Done():
			t.Finalize()
			return
		case <-ticker.C:
		}
	}
}

func (t *Tracker) Finalize() {
	logger.Info("tracker stopped")
}
