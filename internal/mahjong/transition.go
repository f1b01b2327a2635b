package mahjong

import "slices"

type OutcomeKind string

const (
	OutcomeWin  OutcomeKind = "win"
	OutcomeDraw OutcomeKind = "draw"
)

// HandOutcome is how a hand ended.
type HandOutcome struct {
	Kind      OutcomeKind `json:"kind"`
	WinnerIDs []string    `json:"winnerIds,omitempty"`
	LoserID   string      `json:"loserId,omitempty"`
	TenpaiIDs []string    `json:"tenpaiIds,omitempty"`
}

type EndReason string

const (
	EndNone         EndReason = ""
	EndBankruptcy   EndReason = "Bankruptcy"
	EndScoreReached EndReason = "ScoreReached"
	EndMaxRound     EndReason = "MaxRoundReached"
)

type Transition struct {
	Next     Round     `json:"next"`
	Renchan  bool      `json:"renchan"`
	GameOver bool      `json:"gameOver"`
	Reason   EndReason `json:"reason,omitempty"`
}

// DealerID is the player sitting East, or the first seat when nobody does.
func DealerID(players []Player) string {
	for _, p := range players {
		if p.Wind == East {
			return p.ID
		}
	}
	if len(players) == 0 {
		return ""
	}
	return players[0].ID
}

// NextRound decides the round that follows a hand. players carry the scores
// after the hand has been paid out.
func NextRound(s Settings, round Round, players []Player, outcome HandOutcome) Transition {
	dealerID := DealerID(players)

	renchan := false
	resetHonba := false
	switch outcome.Kind {
	case OutcomeWin:
		renchan = slices.Contains(outcome.WinnerIDs, dealerID)
		resetHonba = !renchan
	case OutcomeDraw:
		renchan = s.TenpaiRenchan && slices.Contains(outcome.TenpaiIDs, dealerID)
	}

	next := round
	if next.Count < 1 {
		next.Count = 1
	}

	switch {
	case !s.HasHonba, resetHonba:
		next.Honba = 0
	default:
		next.Honba++
	}

	if !renchan {
		if round.Number < s.Mode.RoundsPerWind() {
			next.Number = round.Number + 1
		} else {
			next.Number = 1
			next.Wind = round.Wind.Next()
			if round.Wind == North {
				next.Count++
			}
		}
	}

	t := Transition{Next: next, Renchan: renchan}

	if s.UseTobi {
		for _, p := range players {
			if p.Score < 0 {
				return t.end(EndBankruptcy)
			}
		}
	}

	if renchan && round.Wind == s.Length.FinalWind() && round.Number >= s.Mode.RoundsPerWind() {
		if dealerStopsOnTop(s, players, dealerID) {
			return t.end(EndScoreReached)
		}
	}

	if next.Wind != round.Wind {
		finished := round.Wind.index()
		if finished >= s.Length.FinalWind().index() || next.Count > 1 {
			if anyReached(players, s.ReturnPoint) || !s.WestExtension {
				return t.end(EndMaxRound)
			}
		}
	}

	return t
}

func (t Transition) end(reason EndReason) Transition {
	t.GameOver = true
	t.Reason = reason
	return t
}

func dealerStopsOnTop(s Settings, players []Player, dealerID string) bool {
	var dealer *Player
	for i := range players {
		if players[i].ID == dealerID {
			dealer = &players[i]
		}
	}
	if dealer == nil || dealer.Score < s.ReturnPoint {
		return false
	}
	for _, p := range players {
		if p.ID != dealer.ID && p.Score >= dealer.Score {
			return false
		}
	}
	return true
}

func anyReached(players []Player, point int) bool {
	for _, p := range players {
		if p.Score >= point {
			return true
		}
	}
	return false
}

// RotateWinds passes the dealer seat to the next player in seating order.
func RotateWinds(players []Player) []Player {
	out := clonePlayers(players)
	east := -1
	for i, p := range players {
		if p.Wind == East {
			east = i
			break
		}
	}
	if len(out) == 0 {
		return out
	}
	// no East seat: seat 0 has been acting as dealer
	if east < 0 {
		east = 0
	}
	n := len(out)
	nextEast := (east + 1) % n
	for i := range out {
		out[i].Wind = SeatWind((i - nextEast + n) % n)
	}
	return out
}
