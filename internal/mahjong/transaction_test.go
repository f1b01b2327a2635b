package mahjong_test

import (
	"errors"
	"testing"

	"mahjong-score/internal/mahjong"
)

var fourSeats = []string{"east", "south", "west", "north"}

func deltaOf(t *testing.T, deltas []mahjong.Delta, id string) mahjong.Delta {
	t.Helper()
	for _, d := range deltas {
		if d.PlayerID == id {
			return d
		}
	}
	t.Fatalf("no delta for %s", id)
	return mahjong.Delta{}
}

func TestCalculateTransactionTsumoWithSticks(t *testing.T) {
	s := mahjong.DefaultSettings(mahjong.FourPlayer)
	payment := mahjong.CalculatePayment(s, mahjong.HandValue{Han: 1, Fu: 30}, mahjong.NonDealer, mahjong.Tsumo)

	deltas, err := mahjong.CalculateTransaction(mahjong.Transfer{
		Payment:      payment,
		WinnerID:     "south",
		Seats:        fourSeats,
		DealerID:     "east",
		Honba:        1,
		RiichiSticks: 1,
		HonbaUnit:    s.HonbaPoints,
	})
	if err != nil {
		t.Fatalf("transaction failed: %v", err)
	}

	winner := deltaOf(t, deltas, "south")
	if winner.Hand != 1100 || winner.Sticks != 1300 || winner.Total != 2400 {
		t.Fatalf("unexpected winner delta: %+v", winner)
	}
	dealer := deltaOf(t, deltas, "east")
	if dealer.Hand != -500 || dealer.Sticks != -100 || dealer.Total != -600 {
		t.Fatalf("unexpected dealer delta: %+v", dealer)
	}
	for _, id := range []string{"west", "north"} {
		d := deltaOf(t, deltas, id)
		if d.Total != -400 {
			t.Fatalf("expected %s to pay 400, got %+v", id, d)
		}
	}
	if got := mahjong.Balance(deltas); got != 1000 {
		t.Fatalf("expected balance to equal the 1000 pool, got %d", got)
	}
}

func TestCalculateTransactionRon(t *testing.T) {
	s := mahjong.DefaultSettings(mahjong.FourPlayer)
	payment := mahjong.CalculatePayment(s, mahjong.HandValue{Han: 4, Fu: 30}, mahjong.Dealer, mahjong.Ron)

	deltas, err := mahjong.CalculateTransaction(mahjong.Transfer{
		Payment:   payment,
		WinnerID:  "east",
		LoserID:   "west",
		Seats:     fourSeats,
		DealerID:  "east",
		Honba:     2,
		HonbaUnit: s.HonbaPoints,
	})
	if err != nil {
		t.Fatalf("transaction failed: %v", err)
	}
	if d := deltaOf(t, deltas, "east"); d.Hand != 11600 || d.Sticks != 200 {
		t.Fatalf("unexpected winner delta: %+v", d)
	}
	if d := deltaOf(t, deltas, "west"); d.Total != -11800 {
		t.Fatalf("unexpected loser delta: %+v", d)
	}
	if d := deltaOf(t, deltas, "south"); d.Total != 0 {
		t.Fatalf("bystander must not pay: %+v", d)
	}
	if got := mahjong.Balance(deltas); got != 0 {
		t.Fatalf("expected zero sum, got %d", got)
	}
}

func TestCalculateTransactionZeroSum(t *testing.T) {
	for _, mode := range []mahjong.Mode{mahjong.FourPlayer, mahjong.ThreePlayer} {
		s := mahjong.DefaultSettings(mode)
		seats := fourSeats[:mode.Seats()]
		for han := 1; han <= 13; han++ {
			for _, fu := range []int{20, 25, 30, 40, 70, 110} {
				for _, winner := range seats {
					role := mahjong.NonDealer
					if winner == "east" {
						role = mahjong.Dealer
					}
					v := mahjong.HandValue{Han: han, Fu: fu}
					tsumo := mahjong.CalculatePayment(s, v, role, mahjong.Tsumo)
					deltas, err := mahjong.CalculateTransaction(mahjong.Transfer{
						Payment: tsumo, WinnerID: winner, Seats: seats, DealerID: "east", Honba: 3, HonbaUnit: 100,
					})
					if err != nil {
						t.Fatalf("tsumo failed: %v", err)
					}
					if got := mahjong.Balance(deltas); got != 0 {
						t.Fatalf("%s han %d fu %d %s tsumo: sum %d", mode, han, fu, winner, got)
					}

					loser := seats[(indexOf(seats, winner)+1)%len(seats)]
					ron := mahjong.CalculatePayment(s, v, role, mahjong.Ron)
					deltas, err = mahjong.CalculateTransaction(mahjong.Transfer{
						Payment: ron, WinnerID: winner, LoserID: loser, Seats: seats, DealerID: "east", Honba: 3, HonbaUnit: 100,
					})
					if err != nil {
						t.Fatalf("ron failed: %v", err)
					}
					if got := mahjong.Balance(deltas); got != 0 {
						t.Fatalf("%s han %d fu %d %s ron: sum %d", mode, han, fu, winner, got)
					}
				}
			}
		}
	}
}

func TestCalculateTransactionRejectsUnknownSeats(t *testing.T) {
	s := mahjong.DefaultSettings(mahjong.FourPlayer)
	ron := mahjong.CalculatePayment(s, mahjong.HandValue{Han: 1, Fu: 30}, mahjong.NonDealer, mahjong.Ron)

	_, err := mahjong.CalculateTransaction(mahjong.Transfer{Payment: ron, WinnerID: "ghost", LoserID: "east", Seats: fourSeats})
	if !errors.Is(err, mahjong.ErrUnknownPlayer) {
		t.Fatalf("expected ErrUnknownPlayer for winner, got %v", err)
	}
	_, err = mahjong.CalculateTransaction(mahjong.Transfer{Payment: ron, WinnerID: "south", LoserID: "ghost", Seats: fourSeats})
	if !errors.Is(err, mahjong.ErrUnknownPlayer) {
		t.Fatalf("expected ErrUnknownPlayer for loser, got %v", err)
	}
	_, err = mahjong.CalculateTransaction(mahjong.Transfer{Payment: ron, WinnerID: "south", LoserID: "south", Seats: fourSeats})
	if !errors.Is(err, mahjong.ErrInvalidOutcome) {
		t.Fatalf("expected ErrInvalidOutcome for self ron, got %v", err)
	}
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
