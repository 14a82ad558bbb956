package raffle

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"

	"github.com/tonkeeper/tongo/ton"
)

var errInsufficientFunds = errors.New("insufficient funds")

// memRuntime is an in-memory Runtime. It is not transactional; tests rely on
// the program validating before it produces side effects.
type memRuntime struct {
	now       int64
	slot      uint64
	balances  map[ton.Bits256]uint64
	accounts  map[ton.Bits256][]byte
	authority *ton.Bits256
	requests  uint64
	events    []WinnerSelected
}

func newMemRuntime(now int64) *memRuntime {
	return &memRuntime{
		now:      now,
		slot:     1000,
		balances: make(map[ton.Bits256]uint64),
		accounts: make(map[ton.Bits256][]byte),
	}
}

func (m *memRuntime) Now() int64   { return m.now }
func (m *memRuntime) Slot() uint64 { return m.slot }

func (m *memRuntime) Transfer(_ context.Context, from, to ton.Bits256, amount uint64) error {
	if m.balances[from] < amount {
		return errInsufficientFunds
	}
	m.balances[from] -= amount
	m.balances[to] += amount
	return nil
}

func (m *memRuntime) CreateAccount(_ context.Context, _, address ton.Bits256, space int) error {
	if _, ok := m.accounts[address]; ok {
		return errors.New("account exists")
	}
	m.accounts[address] = make([]byte, space)
	return nil
}

func (m *memRuntime) AccountData(_ context.Context, address ton.Bits256) ([]byte, bool, error) {
	data, ok := m.accounts[address]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

func (m *memRuntime) SetAccountData(_ context.Context, address ton.Bits256, data []byte) error {
	current, ok := m.accounts[address]
	if !ok {
		return errors.New("account not found")
	}
	if len(data) != len(current) {
		return errors.New("account size mismatch")
	}
	m.accounts[address] = append([]byte(nil), data...)
	return nil
}

func (m *memRuntime) CloseAccount(_ context.Context, address, recipient ton.Bits256) error {
	m.balances[recipient] += m.balances[address]
	delete(m.balances, address)
	delete(m.accounts, address)
	return nil
}

func (m *memRuntime) UpgradeAuthority(_ context.Context, _ ton.Bits256) (ton.Bits256, bool, error) {
	if m.authority == nil {
		return ton.Bits256{}, false, nil
	}
	return *m.authority, true, nil
}

func (m *memRuntime) RequestRandomness(_ context.Context, raffle ton.Bits256) (RandomnessHandle, error) {
	m.requests++
	var seed [8]byte
	binary.LittleEndian.PutUint64(seed[:], m.requests)
	return RandomnessHandle{
		Request: ton.Bits256(sha256.Sum256(append(raffle[:], seed[:]...))),
		Slot:    m.slot,
	}, nil
}

func (m *memRuntime) Emit(_ context.Context, event WinnerSelected) error {
	m.events = append(m.events, event)
	return nil
}

func participant(b byte) ton.Bits256 {
	var id ton.Bits256
	id[0] = b
	id[31] = b
	return id
}

func randomnessEndingWith(b byte) [32]byte {
	var r [32]byte
	r[31] = b
	return r
}
