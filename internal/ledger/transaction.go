package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"math/bits"

	"raffle-ledger/internal/blockchain"
	"raffle-ledger/internal/raffle"
	"raffle-ledger/internal/storage"

	"github.com/tonkeeper/tongo/ton"
)

// Transaction is the view of the ledger inside one Execute call. It implements
// raffle.Runtime.
type Transaction struct {
	ledger *Ledger
	q      storage.Querier
	now    int64
	slot   uint64
}

var _ raffle.Runtime = (*Transaction)(nil)

func (tx *Transaction) Now() int64 {
	return tx.now
}

func (tx *Transaction) Slot() uint64 {
	return tx.slot
}

func (tx *Transaction) account(ctx context.Context, address ton.Bits256) (*storage.Account, error) {
	account, err := tx.q.GetAccount(ctx, address.Hex())
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	return account, err
}

func (tx *Transaction) credit(ctx context.Context, address ton.Bits256, amount uint64) error {
	account, err := tx.account(ctx, address)
	if errors.Is(err, ErrAccountNotFound) {
		return tx.q.CreateAccount(ctx, &storage.Account{Address: address.Hex(), Balance: amount})
	}
	if err != nil {
		return err
	}

	balance, carry := bits.Add64(account.Balance, amount, 0)
	if carry != 0 {
		return ErrBalanceOverflow
	}
	account.Balance = balance
	return tx.q.UpdateAccount(ctx, account)
}

func (tx *Transaction) debit(ctx context.Context, address ton.Bits256, amount uint64) error {
	account, err := tx.account(ctx, address)
	if errors.Is(err, ErrAccountNotFound) {
		return ErrInsufficientFunds
	}
	if err != nil {
		return err
	}

	if account.Balance < amount {
		return ErrInsufficientFunds
	}
	account.Balance -= amount
	return tx.q.UpdateAccount(ctx, account)
}

// Transfer moves amount from one account to another. A balance never goes negative.
func (tx *Transaction) Transfer(ctx context.Context, from, to ton.Bits256, amount uint64) error {
	if amount == 0 {
		return nil
	}
	if from == to {
		return fmt.Errorf("transfer %d to %s: %w", amount, to.Hex(), ErrSelfTransfer)
	}
	if err := tx.debit(ctx, from, amount); err != nil {
		return fmt.Errorf("transfer %d from %s: %w", amount, from.Hex(), err)
	}
	if err := tx.credit(ctx, to, amount); err != nil {
		return fmt.Errorf("transfer %d to %s: %w", amount, to.Hex(), err)
	}
	return nil
}

// CreateAccount allocates a zeroed data region of space bytes at address. The account
// must hold the rent deposit afterwards; payer covers whatever a pre-funded address lacks.
func (tx *Transaction) CreateAccount(ctx context.Context, payer, address ton.Bits256, space int) error {
	if space < 0 || space > MaxAccountSpace {
		return fmt.Errorf("create account %s: %d bytes: %w", address.Hex(), space, ErrAccountTooLarge)
	}

	exists := true
	account, err := tx.account(ctx, address)
	switch {
	case errors.Is(err, ErrAccountNotFound):
		exists = false
		account = &storage.Account{Address: address.Hex()}
	case err != nil:
		return err
	case account.Space != 0:
		return ErrAccountExists
	}

	rent := tx.ledger.RentExempt(space)
	if account.Balance < rent {
		shortfall := rent - account.Balance
		if err := tx.debit(ctx, payer, shortfall); err != nil {
			return fmt.Errorf("create account %s: rent of %d: %w", address.Hex(), shortfall, err)
		}
		account.Balance = rent
	}

	account.Space = space
	account.Data = make([]byte, space)
	if exists {
		return tx.q.UpdateAccount(ctx, account)
	}
	return tx.q.CreateAccount(ctx, account)
}

func (tx *Transaction) AccountData(ctx context.Context, address ton.Bits256) ([]byte, bool, error) {
	account, err := tx.account(ctx, address)
	if errors.Is(err, ErrAccountNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if account.Space == 0 {
		return nil, false, nil
	}
	return account.Data, true, nil
}

// SetAccountData replaces the data region. The region size is fixed at creation.
func (tx *Transaction) SetAccountData(ctx context.Context, address ton.Bits256, data []byte) error {
	account, err := tx.account(ctx, address)
	if err != nil {
		return err
	}
	if len(data) != account.Space {
		return ErrAccountSize
	}

	account.Data = data
	return tx.q.UpdateAccount(ctx, account)
}

// CloseAccount deletes the account and sends its whole balance to recipient.
func (tx *Transaction) CloseAccount(ctx context.Context, address, recipient ton.Bits256) error {
	account, err := tx.account(ctx, address)
	if err != nil {
		return err
	}

	if err := tx.q.DeleteAccount(ctx, account.Address); err != nil {
		return err
	}
	return tx.credit(ctx, recipient, account.Balance)
}

func (tx *Transaction) UpgradeAuthority(ctx context.Context, program ton.Bits256) (ton.Bits256, bool, error) {
	registration, err := tx.q.GetProgramRegistration(ctx, program.Hex())
	if errors.Is(err, storage.ErrNotFound) {
		return ton.Bits256{}, false, nil
	}
	if err != nil {
		return ton.Bits256{}, false, err
	}

	authority, err := ton.ParseHash(registration.UpgradeAuthority)
	if err != nil {
		return ton.Bits256{}, false, fmt.Errorf("invalid upgrade authority for %s: %w", program.Hex(), err)
	}
	return authority, true, nil
}

// RequestAddress is the address of the randomness request made for raffle at slot.
func RequestAddress(raffleAddress ton.Bits256, slot uint64) ton.Bits256 {
	var s [8]byte
	binary.LittleEndian.PutUint64(s[:], slot)

	h := sha256.New()
	h.Write([]byte("RandomnessRequest"))
	h.Write(raffleAddress[:])
	h.Write(s[:])

	var address ton.Bits256
	copy(address[:], h.Sum(nil))
	return address
}

// RequestRandomness queues a request for the oracle, tagged with the current slot.
func (tx *Transaction) RequestRandomness(ctx context.Context, raffleAddress ton.Bits256) (raffle.RandomnessHandle, error) {
	handle := raffle.RandomnessHandle{
		Request: RequestAddress(raffleAddress, tx.slot),
		Slot:    tx.slot,
	}

	err := tx.q.CreateRandomnessRequest(ctx, &storage.RandomnessRequest{
		Request: handle.Request.Hex(),
		Raffle:  raffleAddress.Hex(),
		Slot:    handle.Slot,
	})
	if err != nil {
		return raffle.RandomnessHandle{}, fmt.Errorf("request randomness: %w", err)
	}
	return handle, nil
}

// FulfillRandomness marks the request answered. It is called by the oracle callback
// in the same transaction as the settle.
func (tx *Transaction) FulfillRandomness(ctx context.Context, request ton.Bits256) error {
	return tx.q.MarkRandomnessRequestFulfilled(ctx, request.Hex())
}

func (tx *Transaction) Emit(ctx context.Context, event raffle.WinnerSelected) error {
	payload, err := blockchain.WinnerSelectedMessage{
		Raffle:      event.Raffle,
		WinnerIndex: event.WinnerIndex,
		Winner:      event.Winner,
		Slot:        event.Slot,
	}.MarshalBoc()
	if err != nil {
		return fmt.Errorf("encode winner selected: %w", err)
	}

	return tx.q.CreateNotification(ctx, &storage.Notification{
		Kind:    storage.WinnerSelectedNotification,
		Raffle:  event.Raffle.Hex(),
		Slot:    event.Slot,
		Payload: payload,
	})
}
