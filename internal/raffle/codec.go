package raffle

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/tonkeeper/tongo/ton"
)

const (
	lengthPrefixSize  = 4
	discriminatorSize = 8
	entrantSize       = 32

	// HeaderSize is the fixed part of a raffle account: length prefix, type tag,
	// scalar fields, randomness handle and the entrant count.
	HeaderSize = lengthPrefixSize +
		discriminatorSize +
		32 + // manager
		8 + // ticket_price
		4 + // capacity
		8 + // end_time
		5 + // winner_index (tag + u32)
		1 + // draw_requested
		1 + // claimed
		32 + 8 + // randomness handle (request + slot)
		4 // entrant count
)

var recordDiscriminator = func() [discriminatorSize]byte {
	sum := sha256.Sum256([]byte("account:RaffleRecord"))
	var d [discriminatorSize]byte
	copy(d[:], sum[:discriminatorSize])
	return d
}()

// AccountSpace is the exact storage size of a raffle record holding up to capacity entrants.
func AccountSpace(capacity uint32) int {
	return HeaderSize + entrantSize*int(capacity)
}

// EncodedLen is the number of bytes Encode produces for r, length prefix included.
func (r *Record) EncodedLen() int {
	return HeaderSize + entrantSize*len(r.Entrants)
}

// Encode serializes r behind a little-endian length prefix.
func (r *Record) Encode() []byte {
	buf := make([]byte, r.EncodedLen())
	r.encode(buf)
	return buf
}

// EncodeInto writes r into a pre-sized storage region. The bytes after the record are
// zeroed. It fails with ErrAccountTooSmall if the record does not fit.
func (r *Record) EncodeInto(region []byte) error {
	n := r.EncodedLen()
	if n > len(region) {
		return ErrAccountTooSmall
	}
	r.encode(region[:n])
	clear(region[n:])
	return nil
}

func (r *Record) encode(buf []byte) {
	w := writer{buf: buf}
	w.uint32(uint32(len(buf) - lengthPrefixSize))
	w.bytes(recordDiscriminator[:])
	w.bytes(r.Manager[:])
	w.uint64(r.TicketPrice)
	w.uint32(r.Capacity)
	w.uint64(uint64(r.EndTime))
	if r.WinnerIndex != nil {
		w.bool(true)
		w.uint32(*r.WinnerIndex)
	} else {
		w.bool(false)
		w.uint32(0)
	}
	w.bool(r.DrawRequested)
	w.bool(r.Claimed)
	w.bytes(r.RandomnessHandle.Request[:])
	w.uint64(r.RandomnessHandle.Slot)
	w.uint32(uint32(len(r.Entrants)))
	for i := range r.Entrants {
		w.bytes(r.Entrants[i][:])
	}
}

// Decode reads a record from a storage region. Trailing bytes beyond the length
// prefix are ignored.
func Decode(data []byte) (*Record, error) {
	if len(data) < lengthPrefixSize {
		return nil, ErrRecordInvalid
	}
	n := binary.LittleEndian.Uint32(data)
	if uint64(len(data)) < lengthPrefixSize+uint64(n) {
		return nil, ErrRecordInvalid
	}

	rd := reader{buf: data[lengthPrefixSize : lengthPrefixSize+int(n)]}
	if d := rd.bytes(discriminatorSize); rd.err != nil || [discriminatorSize]byte(d) != recordDiscriminator {
		return nil, ErrRecordInvalid
	}

	r := &Record{}
	copy(r.Manager[:], rd.bytes(32))
	r.TicketPrice = rd.uint64()
	r.Capacity = rd.uint32()
	r.EndTime = int64(rd.uint64())
	hasWinner := rd.bool()
	winnerIndex := rd.uint32()
	r.DrawRequested = rd.bool()
	r.Claimed = rd.bool()
	copy(r.RandomnessHandle.Request[:], rd.bytes(32))
	r.RandomnessHandle.Slot = rd.uint64()
	count := rd.uint32()
	if rd.err != nil || count > r.Capacity || rd.remaining() != entrantSize*int(count) {
		return nil, ErrRecordInvalid
	}

	r.Entrants = make([]ton.Bits256, count)
	for i := range r.Entrants {
		copy(r.Entrants[i][:], rd.bytes(entrantSize))
	}
	if rd.err != nil {
		return nil, ErrRecordInvalid
	}

	if hasWinner {
		if winnerIndex >= count {
			return nil, ErrRecordInvalid
		}
		r.WinnerIndex = &winnerIndex
	}
	if r.Claimed && r.WinnerIndex == nil {
		return nil, ErrRecordInvalid
	}
	return r, nil
}

type writer struct {
	buf []byte
	off int
}

func (w *writer) bytes(b []byte) {
	w.off += copy(w.buf[w.off:], b)
}

func (w *writer) uint32(v uint32) {
	binary.LittleEndian.PutUint32(w.buf[w.off:], v)
	w.off += 4
}

func (w *writer) uint64(v uint64) {
	binary.LittleEndian.PutUint64(w.buf[w.off:], v)
	w.off += 8
}

func (w *writer) bool(v bool) {
	if v {
		w.buf[w.off] = 1
	} else {
		w.buf[w.off] = 0
	}
	w.off++
}

// reader keeps the first error; later reads return zero values.
type reader struct {
	buf []byte
	off int
	err error
}

func (r *reader) remaining() int {
	return len(r.buf) - r.off
}

func (r *reader) bytes(n int) []byte {
	if r.err != nil || r.remaining() < n {
		r.err = ErrRecordInvalid
		return make([]byte, n)
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) uint32() uint32 {
	return binary.LittleEndian.Uint32(r.bytes(4))
}

func (r *reader) uint64() uint64 {
	return binary.LittleEndian.Uint64(r.bytes(8))
}

func (r *reader) bool() bool {
	switch r.bytes(1)[0] {
	case 0:
		return false
	case 1:
		return true
	default:
		r.err = ErrRecordInvalid
		return false
	}
}
