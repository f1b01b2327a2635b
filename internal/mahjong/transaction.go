package mahjong

import (
	"fmt"
)

const riichiStickValue = 1000

// Delta is one seat's score change for a hand. Hand covers the payment,
// Sticks covers honba and riichi sticks.
type Delta struct {
	PlayerID string `json:"playerId"`
	Hand     int    `json:"hand"`
	Sticks   int    `json:"sticks"`
	Total    int    `json:"total"`
}

// Transfer is the input of one winner's transaction.
type Transfer struct {
	Payment  Payment
	WinnerID string
	// LoserID is empty for a self-drawn win.
	LoserID  string
	Seats    []string
	DealerID string
	Honba    int
	// RiichiSticks is the pool this winner collects.
	RiichiSticks int
	// HonbaUnit is what each payer pays per honba counter.
	HonbaUnit int
}

// CalculateTransaction moves points from the payers to the winner. The totals
// sum to the collected riichi pool, which left the players' scores when it was declared.
func CalculateTransaction(t Transfer) ([]Delta, error) {
	deltas := make([]Delta, len(t.Seats))
	index := make(map[string]int, len(t.Seats))
	for i, id := range t.Seats {
		if _, dup := index[id]; dup {
			return nil, fmt.Errorf("%w: seat %s listed twice", ErrInvalidOutcome, id)
		}
		index[id] = i
		deltas[i].PlayerID = id
	}
	w, ok := index[t.WinnerID]
	if !ok {
		return nil, fmt.Errorf("%w: winner %s", ErrUnknownPlayer, t.WinnerID)
	}

	move := func(from int, hand, sticks int) {
		deltas[from].Hand -= hand
		deltas[from].Sticks -= sticks
		deltas[w].Hand += hand
		deltas[w].Sticks += sticks
	}

	honba := t.HonbaUnit * t.Honba
	switch t.Payment.Method {
	case Ron:
		l, ok := index[t.LoserID]
		if !ok {
			return nil, fmt.Errorf("%w: loser %q", ErrUnknownPlayer, t.LoserID)
		}
		if l == w {
			return nil, fmt.Errorf("%w: winner cannot pay themselves", ErrInvalidOutcome)
		}
		move(l, t.Payment.Ron, honba)
	case Tsumo:
		if t.LoserID != "" {
			return nil, fmt.Errorf("%w: self-drawn win with a loser", ErrInvalidOutcome)
		}
		for i, id := range t.Seats {
			if i == w {
				continue
			}
			role := NonDealer
			if id == t.DealerID {
				role = Dealer
			}
			move(i, t.Payment.ShareFor(role), honba)
		}
	default:
		panic(fmt.Sprintf("mahjong: unknown win method %q", string(t.Payment.Method)))
	}

	deltas[w].Sticks += riichiStickValue * t.RiichiSticks
	for i := range deltas {
		deltas[i].Total = deltas[i].Hand + deltas[i].Sticks
	}
	return deltas, nil
}

// Balance sums the totals of a set of deltas.
func Balance(deltas []Delta) int {
	sum := 0
	for _, d := range deltas {
		sum += d.Total
	}
	return sum
}
