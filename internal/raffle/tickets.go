package raffle

import (
	"math/bits"

	"github.com/tonkeeper/tongo/ton"
)

// ReserveTickets appends count copies of buyer to the entrants. On failure the
// record is left untouched.
func (r *Record) ReserveTickets(buyer ton.Bits256, count uint32) error {
	sold, carry := bits.Add32(uint32(len(r.Entrants)), count, 0)
	if carry != 0 || sold > r.Capacity {
		return ErrInsufficientCapacity
	}

	for i := uint32(0); i < count; i++ {
		r.Entrants = append(r.Entrants, buyer)
	}
	return nil
}

// TicketsLeft is the number of tickets still for sale.
func (r *Record) TicketsLeft() uint32 {
	if uint64(len(r.Entrants)) >= uint64(r.Capacity) {
		return 0
	}
	return r.Capacity - uint32(len(r.Entrants))
}

func checkedMul(a, b uint64) (uint64, bool) {
	hi, lo := bits.Mul64(a, b)
	return lo, hi == 0
}
