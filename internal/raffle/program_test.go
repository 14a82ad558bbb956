package raffle

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/tonkeeper/tongo/ton"
)

const testNow int64 = 1_700_000_000

var (
	testProgram = participant(0xa0)
	testOracle  = participant(0xb0)
	testManager = participant(0xc0)
)

func newTestProgram() *Program {
	return NewProgram(DefaultConfig(testProgram, testOracle))
}

func openTestRaffle(t *testing.T, p *Program, rt *memRuntime, price uint64, capacity uint32) ton.Bits256 {
	t.Helper()

	address, err := p.Open(context.Background(), rt, testManager, price, capacity, rt.now+3600)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return address
}

func loadRecord(t *testing.T, p *Program, rt *memRuntime, address ton.Bits256) *Record {
	t.Helper()

	record, err := p.Load(context.Background(), rt, address)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return record
}

func TestOpenValidation(t *testing.T) {
	tests := []struct {
		name     string
		price    uint64
		capacity uint32
		endTime  int64
		wantErr  error
	}{
		{"valid", MinTicketPrice, 10, testNow + 3600, nil},
		{"end time now", MinTicketPrice, 10, testNow, ErrEndTimeInPast},
		{"end time in past", MinTicketPrice, 10, testNow - 1, ErrEndTimeInPast},
		{"maximum duration", MinTicketPrice, 10, testNow + MaxRaffleDuration, nil},
		{"duration too long", MinTicketPrice, 10, testNow + MaxRaffleDuration + 1, ErrDurationTooLong},
		{"zero capacity", MinTicketPrice, 0, testNow + 3600, ErrZeroCapacity},
		{"price too low", MinTicketPrice - 1, 10, testNow + 3600, ErrPriceTooLow},
		{"capacity overflow", math.MaxUint64, 2, testNow + 3600, ErrCapacityOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProgram()
			rt := newMemRuntime(testNow)

			address, err := p.Open(context.Background(), rt, testManager, tt.price, tt.capacity, tt.endTime)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Open() error = %v, want %v", err, tt.wantErr)
			}

			if tt.wantErr != nil {
				if len(rt.accounts) != 0 {
					t.Errorf("rejected Open() created %d accounts", len(rt.accounts))
				}
				return
			}

			data := rt.accounts[address]
			if len(data) != AccountSpace(tt.capacity) {
				t.Errorf("account size = %d, want %d", len(data), AccountSpace(tt.capacity))
			}
			if address != DeriveAddress(testProgram, testManager, tt.price, tt.capacity, tt.endTime) {
				t.Error("Open() returned an address that does not match DeriveAddress()")
			}

			record := loadRecord(t, p, rt, address)
			if record.Manager != testManager || record.TicketPrice != tt.price || record.Capacity != tt.capacity || record.EndTime != tt.endTime {
				t.Errorf("record = %+v", record)
			}
			if record.Status(testNow) != StatusOpen {
				t.Errorf("status = %s, want %s", record.Status(testNow), StatusOpen)
			}
		})
	}
}

func TestBuy(t *testing.T) {
	ctx := context.Background()

	t.Run("credits the raffle for every ticket", func(t *testing.T) {
		p := newTestProgram()
		rt := newMemRuntime(testNow)
		address := openTestRaffle(t, p, rt, 100_000, 10)

		buyers := map[ton.Bits256]uint32{participant(1): 3, participant(2): 1, participant(3): 4}
		var want uint64
		for buyer, count := range buyers {
			rt.balances[buyer] = 1_000_000
			paid, err := p.Buy(ctx, rt, address, buyer, count)
			if err != nil {
				t.Fatalf("Buy() error = %v", err)
			}
			want += paid
			if rt.balances[buyer] != 1_000_000-paid {
				t.Errorf("buyer balance = %d, want %d", rt.balances[buyer], 1_000_000-paid)
			}
		}

		if want != 8*100_000 || rt.balances[address] != want {
			t.Errorf("raffle balance = %d, paid %d, want %d", rt.balances[address], want, 8*100_000)
		}
		if n := len(loadRecord(t, p, rt, address).Entrants); n != 8 {
			t.Errorf("entrants = %d, want 8", n)
		}
	})

	t.Run("capacity exceeded in one call", func(t *testing.T) {
		p := NewProgram(Config{ProgramID: testProgram, OracleIdentity: testOracle, MinTicketPrice: 1, MaxDuration: MaxRaffleDuration})
		rt := newMemRuntime(testNow)
		address := openTestRaffle(t, p, rt, 50, 5)
		rt.balances[participant(1)] = 1_000

		if _, err := p.Buy(ctx, rt, address, participant(1), 6); !errors.Is(err, ErrInsufficientCapacity) {
			t.Fatalf("Buy() error = %v, want %v", err, ErrInsufficientCapacity)
		}
		if n := len(loadRecord(t, p, rt, address).Entrants); n != 0 {
			t.Errorf("entrants = %d, want 0", n)
		}
		if rt.balances[participant(1)] != 1_000 {
			t.Errorf("buyer was charged: balance = %d", rt.balances[participant(1)])
		}
	})

	t.Run("after end time", func(t *testing.T) {
		p := newTestProgram()
		rt := newMemRuntime(testNow)
		address := openTestRaffle(t, p, rt, 100_000, 5)
		rt.balances[participant(1)] = 1_000_000
		rt.now += 3600

		if _, err := p.Buy(ctx, rt, address, participant(1), 1); !errors.Is(err, ErrRaffleEnded) {
			t.Fatalf("Buy() error = %v, want %v", err, ErrRaffleEnded)
		}
	})

	t.Run("sold out", func(t *testing.T) {
		p := newTestProgram()
		rt := newMemRuntime(testNow)
		address := openTestRaffle(t, p, rt, 100_000, 2)
		rt.balances[participant(1)] = 1_000_000

		if _, err := p.Buy(ctx, rt, address, participant(1), 2); err != nil {
			t.Fatalf("Buy() error = %v", err)
		}
		if _, err := p.Buy(ctx, rt, address, participant(1), 1); !errors.Is(err, ErrRaffleEnded) {
			t.Fatalf("Buy() error = %v, want %v", err, ErrRaffleEnded)
		}
	})

	t.Run("zero tickets", func(t *testing.T) {
		p := newTestProgram()
		rt := newMemRuntime(testNow)
		address := openTestRaffle(t, p, rt, 100_000, 2)

		if _, err := p.Buy(ctx, rt, address, participant(1), 0); !errors.Is(err, ErrZeroTickets) {
			t.Fatalf("Buy() error = %v, want %v", err, ErrZeroTickets)
		}
	})

	t.Run("insufficient funds leaves record untouched", func(t *testing.T) {
		p := newTestProgram()
		rt := newMemRuntime(testNow)
		address := openTestRaffle(t, p, rt, 100_000, 5)
		rt.balances[participant(1)] = 150_000

		if _, err := p.Buy(ctx, rt, address, participant(1), 2); !errors.Is(err, errInsufficientFunds) {
			t.Fatalf("Buy() error = %v, want %v", err, errInsufficientFunds)
		}
		if n := len(loadRecord(t, p, rt, address).Entrants); n != 0 {
			t.Errorf("entrants = %d, want 0", n)
		}
	})

	t.Run("unknown raffle", func(t *testing.T) {
		p := newTestProgram()
		rt := newMemRuntime(testNow)

		if _, err := p.Buy(ctx, rt, participant(0x55), participant(1), 1); !errors.Is(err, ErrRaffleNotFound) {
			t.Fatalf("Buy() error = %v, want %v", err, ErrRaffleNotFound)
		}
	})
}

func TestRequestDraw(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T, sold uint32) (*Program, *memRuntime, ton.Bits256) {
		p := newTestProgram()
		rt := newMemRuntime(testNow)
		address := openTestRaffle(t, p, rt, 100_000, 5)
		if sold > 0 {
			rt.balances[participant(1)] = 100_000 * uint64(sold)
			if _, err := p.Buy(ctx, rt, address, participant(1), sold); err != nil {
				t.Fatalf("Buy() error = %v", err)
			}
		}
		return p, rt, address
	}

	t.Run("not the manager", func(t *testing.T) {
		p, rt, address := setup(t, 5)
		if _, err := p.RequestDraw(ctx, rt, address, participant(1)); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("RequestDraw() error = %v, want %v", err, ErrUnauthorized)
		}
	})

	t.Run("raffle still open", func(t *testing.T) {
		p, rt, address := setup(t, 2)
		if _, err := p.RequestDraw(ctx, rt, address, testManager); !errors.Is(err, ErrRaffleNotOver) {
			t.Fatalf("RequestDraw() error = %v, want %v", err, ErrRaffleNotOver)
		}
	})

	t.Run("no entrants", func(t *testing.T) {
		p, rt, address := setup(t, 0)
		rt.now += 3600
		if _, err := p.RequestDraw(ctx, rt, address, testManager); !errors.Is(err, ErrNoEntrants) {
			t.Fatalf("RequestDraw() error = %v, want %v", err, ErrNoEntrants)
		}
	})

	t.Run("after end time with partial sales", func(t *testing.T) {
		p, rt, address := setup(t, 2)
		rt.now += 3600

		handle, err := p.RequestDraw(ctx, rt, address, testManager)
		if err != nil {
			t.Fatalf("RequestDraw() error = %v", err)
		}

		record := loadRecord(t, p, rt, address)
		if !record.DrawRequested || record.RandomnessHandle != handle || handle.Slot != rt.slot {
			t.Errorf("record = %+v, handle = %+v", record, handle)
		}
		if record.Status(rt.now) != StatusDrawRequested {
			t.Errorf("status = %s, want %s", record.Status(rt.now), StatusDrawRequested)
		}

		if _, err := p.RequestDraw(ctx, rt, address, testManager); !errors.Is(err, ErrDrawAlreadyRequested) {
			t.Fatalf("second RequestDraw() error = %v, want %v", err, ErrDrawAlreadyRequested)
		}
	})
}

func TestSettleDraw(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*Program, *memRuntime, ton.Bits256, RandomnessHandle) {
		p := newTestProgram()
		rt := newMemRuntime(testNow)
		address := openTestRaffle(t, p, rt, 100_000, 3)
		for i := byte(1); i <= 3; i++ {
			rt.balances[participant(i)] = 100_000
			if _, err := p.Buy(ctx, rt, address, participant(i), 1); err != nil {
				t.Fatalf("Buy() error = %v", err)
			}
		}
		handle, err := p.RequestDraw(ctx, rt, address, testManager)
		if err != nil {
			t.Fatalf("RequestDraw() error = %v", err)
		}
		rt.slot += 3
		return p, rt, address, handle
	}

	t.Run("not the oracle", func(t *testing.T) {
		p, rt, address, handle := setup(t)
		f := Fulfillment{Request: handle.Request, Slot: handle.Slot, Randomness: randomnessEndingWith(1)}
		if _, err := p.SettleDraw(ctx, rt, address, testManager, f); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("SettleDraw() error = %v, want %v", err, ErrUnauthorized)
		}
	})

	t.Run("draw not started", func(t *testing.T) {
		p := newTestProgram()
		rt := newMemRuntime(testNow)
		address := openTestRaffle(t, p, rt, 100_000, 3)
		if _, err := p.SettleDraw(ctx, rt, address, testOracle, Fulfillment{}); !errors.Is(err, ErrDrawNotStarted) {
			t.Fatalf("SettleDraw() error = %v, want %v", err, ErrDrawNotStarted)
		}
	})

	t.Run("stale randomness", func(t *testing.T) {
		p, rt, address, handle := setup(t)
		f := Fulfillment{Request: handle.Request, Slot: handle.Slot - 1, Randomness: randomnessEndingWith(1)}
		if _, err := p.SettleDraw(ctx, rt, address, testOracle, f); !errors.Is(err, ErrRandomnessExpired) {
			t.Fatalf("SettleDraw() error = %v, want %v", err, ErrRandomnessExpired)
		}
		if loadRecord(t, p, rt, address).WinnerIndex != nil {
			t.Error("stale randomness selected a winner")
		}
	})

	t.Run("exactly one settle succeeds", func(t *testing.T) {
		p, rt, address, handle := setup(t)
		f := Fulfillment{Request: handle.Request, Slot: handle.Slot, Randomness: randomnessEndingWith(5)}

		event, err := p.SettleDraw(ctx, rt, address, testOracle, f)
		if err != nil {
			t.Fatalf("SettleDraw() error = %v", err)
		}
		if event.WinnerIndex != 2 || event.Winner != participant(3) || event.Raffle != address {
			t.Errorf("event = %+v", event)
		}
		if len(rt.events) != 1 {
			t.Errorf("emitted %d events, want 1", len(rt.events))
		}

		record := loadRecord(t, p, rt, address)
		if record.WinnerIndex == nil || *record.WinnerIndex != 2 || !record.RandomnessHandle.IsZero() {
			t.Errorf("record = %+v", record)
		}

		for i := 0; i < 3; i++ {
			if _, err := p.SettleDraw(ctx, rt, address, testOracle, f); !errors.Is(err, ErrWinnerAlreadyDrawn) {
				t.Fatalf("repeated SettleDraw() error = %v, want %v", err, ErrWinnerAlreadyDrawn)
			}
		}
		if len(rt.events) != 1 {
			t.Errorf("emitted %d events, want 1", len(rt.events))
		}
		if _, err := p.RequestDraw(ctx, rt, address, testManager); !errors.Is(err, ErrWinnerAlreadyDrawn) {
			t.Fatalf("RequestDraw() after settle error = %v, want %v", err, ErrWinnerAlreadyDrawn)
		}
	})
}

func TestClaimAndClose(t *testing.T) {
	ctx := context.Background()

	t.Run("full lifecycle", func(t *testing.T) {
		p := newTestProgram()
		rt := newMemRuntime(testNow)
		address := openTestRaffle(t, p, rt, 100_000, 10)

		for i := byte(0); i < 10; i++ {
			rt.balances[participant(i+1)] = 100_000
			if _, err := p.Buy(ctx, rt, address, participant(i+1), 1); err != nil {
				t.Fatalf("Buy() error = %v", err)
			}
		}
		if n := len(loadRecord(t, p, rt, address).Entrants); n != 10 {
			t.Fatalf("entrants = %d, want 10", n)
		}

		if _, err := p.Claim(ctx, rt, address, participant(5)); !errors.Is(err, ErrWinnerNotYetDrawn) {
			t.Fatalf("Claim() before draw error = %v, want %v", err, ErrWinnerNotYetDrawn)
		}

		handle, err := p.RequestDraw(ctx, rt, address, testManager)
		if err != nil {
			t.Fatalf("RequestDraw() error = %v", err)
		}
		if !loadRecord(t, p, rt, address).DrawRequested {
			t.Fatal("draw_requested not set")
		}

		f := Fulfillment{Request: handle.Request, Slot: handle.Slot, Randomness: randomnessEndingWith(4)}
		if _, err := p.SettleDraw(ctx, rt, address, testOracle, f); err != nil {
			t.Fatalf("SettleDraw() error = %v", err)
		}
		record := loadRecord(t, p, rt, address)
		if record.WinnerIndex == nil || *record.WinnerIndex != 4 {
			t.Fatalf("winner index = %v, want 4", record.WinnerIndex)
		}
		winner := record.Entrants[4]

		if err := p.Close(ctx, rt, address, testManager); !errors.Is(err, ErrCannotCloseActive) {
			t.Fatalf("Close() before claim error = %v, want %v", err, ErrCannotCloseActive)
		}
		if _, err := p.Claim(ctx, rt, address, participant(1)); !errors.Is(err, ErrNotWinner) {
			t.Fatalf("Claim() by loser error = %v, want %v", err, ErrNotWinner)
		}

		prize, err := p.Claim(ctx, rt, address, winner)
		if err != nil {
			t.Fatalf("Claim() error = %v", err)
		}
		if prize != 1_000_000 || rt.balances[winner] != 1_000_000 {
			t.Errorf("prize = %d, winner balance = %d, want 1000000", prize, rt.balances[winner])
		}
		if !loadRecord(t, p, rt, address).Claimed {
			t.Error("claimed not set")
		}
		if _, err := p.Claim(ctx, rt, address, winner); !errors.Is(err, ErrPrizeAlreadyClaimed) {
			t.Fatalf("second Claim() error = %v, want %v", err, ErrPrizeAlreadyClaimed)
		}

		if err := p.Close(ctx, rt, address, participant(1)); !errors.Is(err, ErrOnlyManagerOrUpgradeAuthority) {
			t.Fatalf("Close() by stranger error = %v, want %v", err, ErrOnlyManagerOrUpgradeAuthority)
		}
		if err := p.Close(ctx, rt, address, testManager); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
		if _, ok := rt.accounts[address]; ok {
			t.Error("record still exists after Close()")
		}
		if _, err := p.Buy(ctx, rt, address, winner, 1); !errors.Is(err, ErrRaffleNotFound) {
			t.Errorf("Buy() after Close() error = %v, want %v", err, ErrRaffleNotFound)
		}
	})

	t.Run("upgrade authority closes an unsold raffle", func(t *testing.T) {
		p := newTestProgram()
		rt := newMemRuntime(testNow)
		authority := participant(0xee)
		rt.authority = &authority
		address := openTestRaffle(t, p, rt, 100_000, 3)
		rt.balances[address] = 42

		if err := p.Close(ctx, rt, address, authority); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
		if rt.balances[testManager] != 42 {
			t.Errorf("manager balance = %d, want the account's 42", rt.balances[testManager])
		}
	})

	t.Run("active raffle cannot be closed", func(t *testing.T) {
		p := newTestProgram()
		rt := newMemRuntime(testNow)
		authority := participant(0xee)
		rt.authority = &authority
		address := openTestRaffle(t, p, rt, 100_000, 3)
		rt.balances[participant(1)] = 100_000
		if _, err := p.Buy(ctx, rt, address, participant(1), 1); err != nil {
			t.Fatalf("Buy() error = %v", err)
		}

		for _, caller := range []ton.Bits256{testManager, authority} {
			if err := p.Close(ctx, rt, address, caller); !errors.Is(err, ErrCannotCloseActive) {
				t.Errorf("Close() error = %v, want %v", err, ErrCannotCloseActive)
			}
		}
	})
}
