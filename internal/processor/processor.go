package processor

import (
	"context"
	"errors"
	"time"

	"raffle-ledger/internal/ledger"
	"raffle-ledger/internal/logger"
	"raffle-ledger/internal/metrics"
	"raffle-ledger/internal/raffle"

	"github.com/tonkeeper/tongo/ton"
	"go.uber.org/zap"
)

// Processor executes raffle instructions, each one in its own ledger transaction.
type Processor struct {
	ledger  *ledger.Ledger
	program *raffle.Program
}

func New(l *ledger.Ledger, program *raffle.Program) *Processor {
	return &Processor{ledger: l, program: program}
}

func (p *Processor) Ledger() *ledger.Ledger {
	return p.ledger
}

func (p *Processor) Program() *raffle.Program {
	return p.program
}

// ErrorCode names err for metrics: the raffle error code, or a ledger/internal bucket.
func ErrorCode(err error) string {
	var raffleErr *raffle.Error
	switch {
	case errors.As(err, &raffleErr):
		return raffleErr.Code
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return "InsufficientFunds"
	case errors.Is(err, ledger.ErrAccountExists):
		return "AccountExists"
	case errors.Is(err, ledger.ErrBalanceOverflow):
		return "BalanceOverflow"
	case errors.Is(err, ledger.ErrAccountTooLarge):
		return "AccountTooLarge"
	case errors.Is(err, ledger.ErrSelfTransfer):
		return "SelfTransfer"
	default:
		return "Internal"
	}
}

func (p *Processor) reject(instruction string, err error, fields ...zap.Field) error {
	code := ErrorCode(err)
	metrics.InstructionsRejected.WithLabelValues(instruction, code).Inc()

	fields = append(fields, zap.String("instruction", instruction), zap.String("code", code), zap.Error(err))
	if code == "Internal" {
		logger.Error("instruction failed", fields...)
	} else {
		logger.Warn("instruction rejected", fields...)
	}
	return err
}

type OpenParams struct {
	Manager     ton.Bits256
	TicketPrice uint64
	Capacity    uint32
	EndTime     int64
}

func (p *Processor) Open(ctx context.Context, params OpenParams) (ton.Bits256, error) {
	var address ton.Bits256
	err := p.ledger.Execute(ctx, func(tx *ledger.Transaction) error {
		var err error
		address, err = p.program.Open(ctx, tx, params.Manager, params.TicketPrice, params.Capacity, params.EndTime)
		return err
	})
	if err != nil {
		return ton.Bits256{}, p.reject("open", err, zap.String("manager", params.Manager.Hex()))
	}

	metrics.RafflesOpened.Inc()
	logger.Info("raffle opened",
		zap.String("raffle", address.Hex()),
		zap.String("manager", params.Manager.Hex()),
		zap.Uint64("ticket price", params.TicketPrice),
		zap.Uint32("capacity", params.Capacity),
		zap.Int64("end time", params.EndTime),
	)
	return address, nil
}

func (p *Processor) Buy(ctx context.Context, address, buyer ton.Bits256, count uint32) (uint64, error) {
	var cost uint64
	err := p.ledger.Execute(ctx, func(tx *ledger.Transaction) error {
		var err error
		cost, err = p.program.Buy(ctx, tx, address, buyer, count)
		return err
	})
	if err != nil {
		return 0, p.reject("buy", err, zap.String("raffle", address.Hex()), zap.String("buyer", buyer.Hex()))
	}

	metrics.TicketsSold.Add(float64(count))
	metrics.TicketRevenue.Add(float64(cost))
	logger.Info("tickets bought", zap.String("raffle", address.Hex()), zap.String("buyer", buyer.Hex()), zap.Uint32("count", count), zap.Uint64("cost", cost))
	return cost, nil
}

func (p *Processor) RequestDraw(ctx context.Context, address, caller ton.Bits256) (raffle.RandomnessHandle, error) {
	var handle raffle.RandomnessHandle
	err := p.ledger.Execute(ctx, func(tx *ledger.Transaction) error {
		var err error
		handle, err = p.program.RequestDraw(ctx, tx, address, caller)
		return err
	})
	if err != nil {
		return raffle.RandomnessHandle{}, p.reject("request_draw", err, zap.String("raffle", address.Hex()), zap.String("caller", caller.Hex()))
	}

	metrics.DrawsRequested.Inc()
	logger.Info("draw requested", zap.String("raffle", address.Hex()), zap.String("request", handle.Request.Hex()), zap.Uint64("slot", handle.Slot))
	return handle, nil
}

// SettleDraw delivers an oracle fulfillment and marks the randomness request answered
// in the same transaction.
func (p *Processor) SettleDraw(ctx context.Context, address, oracle ton.Bits256, fulfillment raffle.Fulfillment) (raffle.WinnerSelected, error) {
	started := time.Now()

	var event raffle.WinnerSelected
	err := p.ledger.Execute(ctx, func(tx *ledger.Transaction) error {
		var err error
		event, err = p.program.SettleDraw(ctx, tx, address, oracle, fulfillment)
		if err != nil {
			return err
		}
		return tx.FulfillRandomness(ctx, fulfillment.Request)
	})
	if err != nil {
		return raffle.WinnerSelected{}, p.reject("settle_draw", err, zap.String("raffle", address.Hex()), zap.String("request", fulfillment.Request.Hex()))
	}

	metrics.WinnersSelected.Inc()
	metrics.SettleDuration.Observe(time.Since(started).Seconds())
	logger.Info("winner selected", zap.String("raffle", address.Hex()), zap.Uint32("index", event.WinnerIndex), zap.String("winner", event.Winner.Hex()), zap.Uint64("slot", event.Slot))
	return event, nil
}

// DiscardRequest marks a randomness request answered without settling, for requests the
// raffle program has permanently rejected.
func (p *Processor) DiscardRequest(ctx context.Context, request ton.Bits256) error {
	logger.Warn("discarding randomness request", zap.String("request", request.Hex()))

	return p.ledger.Execute(ctx, func(tx *ledger.Transaction) error {
		return tx.FulfillRandomness(ctx, request)
	})
}

func (p *Processor) Claim(ctx context.Context, address, winner ton.Bits256) (uint64, error) {
	var prize uint64
	err := p.ledger.Execute(ctx, func(tx *ledger.Transaction) error {
		var err error
		prize, err = p.program.Claim(ctx, tx, address, winner)
		return err
	})
	if err != nil {
		return 0, p.reject("claim", err, zap.String("raffle", address.Hex()), zap.String("winner", winner.Hex()))
	}

	metrics.PrizesClaimed.Inc()
	metrics.PrizeAmountClaimed.Add(float64(prize))
	logger.Info("prize claimed", zap.String("raffle", address.Hex()), zap.String("winner", winner.Hex()), zap.Uint64("prize", prize))
	return prize, nil
}

func (p *Processor) Close(ctx context.Context, address, caller ton.Bits256) error {
	err := p.ledger.Execute(ctx, func(tx *ledger.Transaction) error {
		return p.program.Close(ctx, tx, address, caller)
	})
	if err != nil {
		return p.reject("close", err, zap.String("raffle", address.Hex()), zap.String("caller", caller.Hex()))
	}

	metrics.RafflesClosed.Inc()
	logger.Info("raffle closed", zap.String("raffle", address.Hex()), zap.String("caller", caller.Hex()))
	return nil
}

// RaffleView is a decoded raffle record with its derived status at the ledger's
// current time.
type RaffleView struct {
	Address ton.Bits256
	Record  *raffle.Record
	Status  raffle.Status
	Balance uint64
	Now     int64
}

func (p *Processor) Raffle(ctx context.Context, address ton.Bits256) (*RaffleView, error) {
	view := &RaffleView{Address: address}
	err := p.ledger.Execute(ctx, func(tx *ledger.Transaction) error {
		record, err := p.program.Load(ctx, tx, address)
		if err != nil {
			return err
		}
		view.Record = record
		view.Now = tx.Now()
		view.Status = record.Status(view.Now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	balance, err := p.ledger.Balance(ctx, address)
	if err != nil {
		return nil, err
	}
	view.Balance = balance
	return view, nil
}
