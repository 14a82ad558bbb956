package blockchain

import (
	"errors"
	"testing"

	"github.com/tonkeeper/tongo/boc"
)

func TestWinnerSelectedMessageBoc(t *testing.T) {
	message := WinnerSelectedMessage{WinnerIndex: 4, Slot: 123456}
	for i := range message.Raffle {
		message.Raffle[i] = byte(i)
		message.Winner[i] = byte(255 - i)
	}

	payload, err := message.MarshalBoc()
	if err != nil {
		t.Fatalf("MarshalBoc() error = %v", err)
	}

	got, err := UnmarshalWinnerSelected(payload)
	if err != nil {
		t.Fatalf("UnmarshalWinnerSelected() error = %v", err)
	}
	if got != message {
		t.Errorf("UnmarshalWinnerSelected() = %+v, want %+v", got, message)
	}
}

func TestUnmarshalWinnerSelectedRejectsOtherOpCodes(t *testing.T) {
	cell := boc.NewCell()
	if err := cell.WriteUint(0x13370011, 32); err != nil {
		t.Fatalf("WriteUint() error = %v", err)
	}
	payload, err := cell.ToBoc()
	if err != nil {
		t.Fatalf("ToBoc() error = %v", err)
	}

	if _, err := UnmarshalWinnerSelected(payload); !errors.Is(err, ErrUnexpectedOpCode) {
		t.Errorf("UnmarshalWinnerSelected() error = %v, want %v", err, ErrUnexpectedOpCode)
	}
}
