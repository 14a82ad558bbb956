package raffle

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/tonkeeper/tongo/ton"
)

const RaffleSeed = "RaffleSeed"

// DeriveAddress computes the raffle record address from the program, the manager and
// the immutable raffle parameters.
func DeriveAddress(program, manager ton.Bits256, ticketPrice uint64, capacity uint32, endTime int64) ton.Bits256 {
	var scalars [8 + 4 + 8]byte
	binary.LittleEndian.PutUint64(scalars[0:], ticketPrice)
	binary.LittleEndian.PutUint32(scalars[8:], capacity)
	binary.LittleEndian.PutUint64(scalars[12:], uint64(endTime))

	h := sha256.New()
	h.Write([]byte(RaffleSeed))
	h.Write(program[:])
	h.Write(manager[:])
	h.Write(scalars[:])

	var address ton.Bits256
	copy(address[:], h.Sum(nil))
	return address
}
