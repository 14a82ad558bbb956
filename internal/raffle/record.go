package raffle

import (
	"github.com/tonkeeper/tongo/ton"
)

const (
	// MinTicketPrice is the default ticket price floor in the ledger's smallest currency unit.
	MinTicketPrice uint64 = 100_000
	// MaxRaffleDuration is the default longest allowed span between opening and end time, in seconds.
	MaxRaffleDuration int64 = 30 * 24 * 60 * 60
)

type Status string

const (
	StatusOpen           Status = "open"
	StatusEnded          Status = "ended"
	StatusDrawRequested  Status = "draw_requested"
	StatusWinnerSelected Status = "winner_selected"
	StatusClaimed        Status = "claimed"
)

// RandomnessHandle references the oracle request in flight for a raffle.
// Slot is the freshness marker recorded when the request was made.
type RandomnessHandle struct {
	Request ton.Bits256
	Slot    uint64
}

func (h RandomnessHandle) IsZero() bool {
	return h == RandomnessHandle{}
}

// Record is the persistent state of a single raffle.
type Record struct {
	Manager          ton.Bits256
	TicketPrice      uint64
	Capacity         uint32
	EndTime          int64
	Entrants         []ton.Bits256
	DrawRequested    bool
	WinnerIndex      *uint32
	RandomnessHandle RandomnessHandle
	Claimed          bool
}

func NewRecord(manager ton.Bits256, ticketPrice uint64, capacity uint32, endTime int64) *Record {
	return &Record{
		Manager:     manager,
		TicketPrice: ticketPrice,
		Capacity:    capacity,
		EndTime:     endTime,
		Entrants:    []ton.Bits256{},
	}
}

// IsOver reports whether ticket sales are closed: capacity reached or end time passed.
// Both Buy and RequestDraw use this predicate.
func (r *Record) IsOver(now int64) bool {
	return uint64(len(r.Entrants)) >= uint64(r.Capacity) || now >= r.EndTime
}

func (r *Record) Status(now int64) Status {
	switch {
	case r.Claimed:
		return StatusClaimed
	case r.WinnerIndex != nil:
		return StatusWinnerSelected
	case r.DrawRequested:
		return StatusDrawRequested
	case r.IsOver(now):
		return StatusEnded
	default:
		return StatusOpen
	}
}

// Winner returns the winning participant once the draw has been settled.
func (r *Record) Winner() (ton.Bits256, bool) {
	if r.WinnerIndex == nil || int(*r.WinnerIndex) >= len(r.Entrants) {
		return ton.Bits256{}, false
	}
	return r.Entrants[*r.WinnerIndex], true
}

// Prize is the accumulated ticket revenue. It cannot overflow: the creation-time
// check bounds ticket_price * capacity.
func (r *Record) Prize() uint64 {
	return r.TicketPrice * uint64(len(r.Entrants))
}
