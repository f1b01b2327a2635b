package mahjong

import "fmt"

const notenPot = 3000

// DrawShares is the per-player transfer at an exhaustive draw. Noten is
// negative or zero.
type DrawShares struct {
	Tenpai int `json:"tenpai"`
	Noten  int `json:"noten"`
}

func CalculateDrawSettlement(tenpai, noten int, mode Mode) DrawShares {
	if tenpai <= 0 || noten <= 0 {
		return DrawShares{}
	}
	switch mode {
	case ThreePlayer:
		return DrawShares{Tenpai: 1000 * noten, Noten: -1000 * tenpai}
	case FourPlayer:
		return DrawShares{Tenpai: notenPot / tenpai, Noten: -notenPot / noten}
	default:
		panic(fmt.Sprintf("mahjong: unknown mode %q", string(mode)))
	}
}

// DrawDeltas applies the draw shares to every seat.
func DrawDeltas(seats, tenpaiIDs []string, mode Mode) ([]Delta, error) {
	ready := make(map[string]bool, len(tenpaiIDs))
	for _, id := range tenpaiIDs {
		ready[id] = true
	}
	seated := make(map[string]bool, len(seats))
	for _, id := range seats {
		seated[id] = true
	}
	for id := range ready {
		if !seated[id] {
			return nil, fmt.Errorf("%w: tenpai player %s", ErrUnknownPlayer, id)
		}
	}

	shares := CalculateDrawSettlement(len(ready), len(seats)-len(ready), mode)
	deltas := make([]Delta, 0, len(seats))
	for _, id := range seats {
		amount := shares.Noten
		if ready[id] {
			amount = shares.Tenpai
		}
		deltas = append(deltas, Delta{PlayerID: id, Hand: amount, Total: amount})
	}
	return deltas, nil
}
