package blockchain

import (
	"errors"

	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/ton"
)

// WinnerSelectedOpCode tags a winner-selected notification body.
const WinnerSelectedOpCode = 0x57494e52

var ErrUnexpectedOpCode = errors.New("blockchain: unexpected notification op code")

type WinnerSelectedMessage struct {
	Raffle      ton.Bits256
	WinnerIndex uint32
	Winner      ton.Bits256
	Slot        uint64
}

// Cell lays the message out as op(32) raffle(256) winner_index(32) winner(256) slot(64).
func (m WinnerSelectedMessage) Cell() (*boc.Cell, error) {
	cell := boc.NewCell()

	if err := cell.WriteUint(WinnerSelectedOpCode, 32); err != nil {
		return nil, err
	}

	if err := cell.WriteBytes(m.Raffle[:]); err != nil {
		return nil, err
	}

	if err := cell.WriteUint(uint64(m.WinnerIndex), 32); err != nil {
		return nil, err
	}

	if err := cell.WriteBytes(m.Winner[:]); err != nil {
		return nil, err
	}

	if err := cell.WriteUint(m.Slot, 64); err != nil {
		return nil, err
	}

	return cell, nil
}

// MarshalBoc serializes the message as a bag of cells.
func (m WinnerSelectedMessage) MarshalBoc() ([]byte, error) {
	cell, err := m.Cell()
	if err != nil {
		return nil, err
	}
	return cell.ToBoc()
}

func UnmarshalWinnerSelected(payload []byte) (WinnerSelectedMessage, error) {
	var m WinnerSelectedMessage

	cells, err := boc.DeserializeBoc(payload)
	if err != nil {
		return m, err
	}
	if len(cells) != 1 {
		return m, errors.New("blockchain: expected a single root cell")
	}

	bodyCell := cells[0]
	opCode, err := bodyCell.ReadUint(32)
	if err != nil {
		return m, err
	}
	if opCode != WinnerSelectedOpCode {
		return m, ErrUnexpectedOpCode
	}

	raffle, err := bodyCell.ReadBytes(32)
	if err != nil {
		return m, err
	}
	copy(m.Raffle[:], raffle)

	winnerIndex, err := bodyCell.ReadUint(32)
	if err != nil {
		return m, err
	}
	m.WinnerIndex = uint32(winnerIndex)

	winner, err := bodyCell.ReadBytes(32)
	if err != nil {
		return m, err
	}
	copy(m.Winner[:], winner)

	m.Slot, err = bodyCell.ReadUint(64)
	if err != nil {
		return m, err
	}

	return m, nil
}
