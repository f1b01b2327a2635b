package mahjong

import (
	"fmt"
)

type WinMethod string

const (
	Tsumo WinMethod = "tsumo"
	Ron   WinMethod = "ron"
)

type SeatRole int

const (
	NonDealer SeatRole = iota
	Dealer
)

// Limit is a named hand tier with a fixed base value.
type Limit string

const (
	LimitNone Limit = ""
	Mangan    Limit = "Mangan"
	Haneman   Limit = "Haneman"
	Baiman    Limit = "Baiman"
	Sanbaiman Limit = "Sanbaiman"
	Yakuman   Limit = "Yakuman"
)

const (
	manganBase        = 2000
	kiriageManganBase = 1920
)

func (l Limit) Base() int {
	switch l {
	case LimitNone:
		return 0
	case Mangan:
		return 2000
	case Haneman:
		return 3000
	case Baiman:
		return 4000
	case Sanbaiman:
		return 6000
	case Yakuman:
		return 8000
	default:
		panic(fmt.Sprintf("mahjong: unknown limit %q", string(l)))
	}
}

func limitForHan(han int) Limit {
	switch {
	case han >= 13:
		return Yakuman
	case han >= 11:
		return Sanbaiman
	case han >= 8:
		return Baiman
	case han >= 6:
		return Haneman
	case han >= 5:
		return Mangan
	default:
		return LimitNone
	}
}

// HandValue is the strength of a winning hand.
type HandValue struct {
	Han int `json:"han"`
	Fu  int `json:"fu"`
}

// fixedTable holds the simplified claimed-win amounts for 1-3 han, indexed by han-1.
var fixedTable = map[SeatRole][3]int{
	Dealer:    {1500, 3000, 6000},
	NonDealer: {1000, 2000, 4000},
}

func (s Settings) simplified(v HandValue) bool {
	return !s.UseFuCalculation && v.Han >= 1 && v.Han <= 3
}

// CheckHand rejects hand values that CalculatePayment must never see.
func (s Settings) CheckHand(v HandValue) error {
	if v.Han < 1 {
		return fmt.Errorf("%w: han must be at least 1", ErrInvalidHand)
	}
	if v.Han >= 5 || s.simplified(v) {
		return nil
	}
	if v.Fu < 20 || v.Fu > 130 {
		return fmt.Errorf("%w: fu %d out of range", ErrInvalidHand, v.Fu)
	}
	if v.Fu != 25 && v.Fu%10 != 0 {
		return fmt.Errorf("%w: fu %d is not a valid step", ErrInvalidHand, v.Fu)
	}
	return nil
}

// Payment describes what a win is worth. Ron is the claimed amount paid by the
// loser; the Tsumo fields hold each payer's share of a self-drawn win.
type Payment struct {
	Method         WinMethod `json:"method"`
	Ron            int       `json:"ron,omitempty"`
	TsumoAll       int       `json:"tsumoAll,omitempty"`
	TsumoDealer    int       `json:"tsumoDealer,omitempty"`
	TsumoNonDealer int       `json:"tsumoNonDealer,omitempty"`
	Base           int       `json:"base"`
	Limit          Limit     `json:"limit,omitempty"`
	Label          string    `json:"label"`
}

// ShareFor is the hand portion one payer of a self-drawn win owes.
func (p Payment) ShareFor(payer SeatRole) int {
	if p.TsumoAll > 0 {
		return p.TsumoAll
	}
	switch payer {
	case Dealer:
		return p.TsumoDealer
	case NonDealer:
		return p.TsumoNonDealer
	default:
		panic(fmt.Sprintf("mahjong: unknown seat role %d", payer))
	}
}

// Total is the hand portion the winner collects at a table of the given size.
func (p Payment) Total(seats int) int {
	switch p.Method {
	case Ron:
		return p.Ron
	case Tsumo:
		if p.TsumoAll > 0 {
			return p.TsumoAll * (seats - 1)
		}
		return p.TsumoDealer + p.TsumoNonDealer*(seats-2)
	default:
		panic(fmt.Sprintf("mahjong: unknown win method %q", string(p.Method)))
	}
}

// BasePoints returns the base value of a hand and the limit it reached.
func BasePoints(v HandValue, kiriage bool) (int, Limit) {
	if limit := limitForHan(v.Han); limit != LimitNone {
		return limit.Base(), limit
	}
	base := v.Fu * (1 << (2 + v.Han))
	threshold := manganBase
	if kiriage {
		threshold = kiriageManganBase
	}
	if base >= threshold {
		return Mangan.Base(), Mangan
	}
	return base, LimitNone
}

// CalculatePayment maps a validated hand to its payment. Callers run
// Settings.CheckHand first.
func CalculatePayment(s Settings, v HandValue, role SeatRole, method WinMethod) Payment {
	if s.simplified(v) {
		return simplifiedPayment(s, v, role, method)
	}

	base, limit := BasePoints(v, s.KiriageMangan)
	p := Payment{Method: method, Base: base, Limit: limit}
	switch method {
	case Ron:
		switch role {
		case Dealer:
			p.Ron = roundUp100(base*6, 1)
		case NonDealer:
			p.Ron = roundUp100(base*4, 1)
		default:
			panic(fmt.Sprintf("mahjong: unknown seat role %d", role))
		}
	case Tsumo:
		switch role {
		case Dealer:
			p.TsumoAll = roundUp100(base*2, 1)
		case NonDealer:
			p.TsumoDealer = roundUp100(base*2, 1)
			p.TsumoNonDealer = roundUp100(base, 1)
		default:
			panic(fmt.Sprintf("mahjong: unknown seat role %d", role))
		}
		if s.Mode == ThreePlayer {
			addPhantomShare(&p)
		}
	default:
		panic(fmt.Sprintf("mahjong: unknown win method %q", string(method)))
	}

	if limit != LimitNone {
		p.Label = string(limit)
	} else {
		p.Label = fmt.Sprintf("%dhan %dfu", v.Han, v.Fu)
	}
	return p
}

func simplifiedPayment(s Settings, v HandValue, role SeatRole, method WinMethod) Payment {
	table, ok := fixedTable[role]
	if !ok {
		panic(fmt.Sprintf("mahjong: unknown seat role %d", role))
	}
	fixed := table[v.Han-1]
	p := Payment{Method: method, Label: fmt.Sprintf("%dhan (fixed)", v.Han)}
	switch method {
	case Ron:
		p.Ron = fixed
	case Tsumo:
		if role == Dealer {
			p.TsumoAll = roundUp100(fixed, 3)
		} else {
			p.TsumoDealer = roundUp100(fixed, 2)
			p.TsumoNonDealer = roundUp100(fixed, 4)
		}
		if s.Mode == ThreePlayer {
			addPhantomShare(&p)
		}
	default:
		panic(fmt.Sprintf("mahjong: unknown win method %q", string(method)))
	}
	return p
}

// addPhantomShare spreads what the missing fourth seat would have paid over
// the remaining payers.
func addPhantomShare(p *Payment) {
	if p.TsumoAll > 0 {
		p.TsumoAll += roundUp100(p.TsumoAll, 2)
		return
	}
	extra := roundUp100(p.TsumoNonDealer, 2)
	p.TsumoDealer += extra
	p.TsumoNonDealer += extra
}

// roundUp100 is n/div rounded up to the next multiple of 100.
func roundUp100(n, div int) int {
	if n <= 0 {
		return 0
	}
	step := 100 * div
	return (n + step - 1) / step * 100
}
