package raffle

import (
	"math/big"

	"github.com/tonkeeper/tongo/ton"
)

// Fulfillment is the oracle's answer to a randomness request.
type Fulfillment struct {
	Request    ton.Bits256
	Slot       uint64
	Randomness [32]byte
}

// WinnerSelected is emitted once a draw settles.
type WinnerSelected struct {
	Raffle      ton.Bits256
	WinnerIndex uint32
	Winner      ton.Bits256
	Slot        uint64
}

// DeriveUint reads all 32 random bytes as one big-endian unsigned integer.
func DeriveUint(randomness [32]byte) *big.Int {
	return new(big.Int).SetBytes(randomness[:])
}

// WinnerIndex reduces the full 256-bit random value modulo the number of entrants.
func WinnerIndex(randomness [32]byte, entrants int) uint32 {
	if entrants <= 0 {
		return 0
	}
	m := new(big.Int).Mod(DeriveUint(randomness), big.NewInt(int64(entrants)))
	return uint32(m.Uint64())
}

// matches reports whether f answers the request recorded in h.
func (h RandomnessHandle) matches(f Fulfillment) bool {
	return !h.IsZero() && h.Request == f.Request && h.Slot == f.Slot
}
