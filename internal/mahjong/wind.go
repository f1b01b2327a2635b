// Package mahjong holds the score engine: hand payments, point transfers,
// draw settlement, round progression and final ranking. Every function is a
// pure transformation of its inputs.
package mahjong

type Wind string

const (
	East  Wind = "East"
	South Wind = "South"
	West  Wind = "West"
	North Wind = "North"
)

var windOrder = [...]Wind{East, South, West, North}

func (w Wind) index() int {
	for i, v := range windOrder {
		if v == w {
			return i
		}
	}
	return -1
}

func (w Wind) Valid() bool {
	return w.index() >= 0
}

// Next returns the following wind in the fixed cycle. Unknown winds restart at East.
func (w Wind) Next() Wind {
	idx := w.index()
	if idx < 0 {
		return East
	}
	return windOrder[(idx+1)%len(windOrder)]
}

// priority orders seats for tie-breaks: East ranks highest.
func (w Wind) priority() int {
	idx := w.index()
	if idx < 0 {
		return 0
	}
	return len(windOrder) - idx
}

// SeatWind is the wind of the seat at position idx counted from the dealer.
func SeatWind(idx int) Wind {
	if idx < 0 || idx >= len(windOrder) {
		return North
	}
	return windOrder[idx]
}

type Mode string

const (
	FourPlayer  Mode = "4ma"
	ThreePlayer Mode = "3ma"
)

func (m Mode) Seats() int {
	switch m {
	case FourPlayer:
		return 4
	case ThreePlayer:
		return 3
	default:
		return 0
	}
}

// RoundsPerWind is the number of dealer turns within one wind.
func (m Mode) RoundsPerWind() int {
	return m.Seats()
}

type Length string

const (
	Hanchan Length = "Hanchan"
	Tonpu   Length = "Tonpu"
)

// FinalWind is the last wind of regular play.
func (l Length) FinalWind() Wind {
	if l == Tonpu {
		return East
	}
	return South
}

func (l Length) valid() bool {
	return l == Hanchan || l == Tonpu
}
