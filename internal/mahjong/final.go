package mahjong

import (
	"fmt"
	"sort"
	"time"
)

type ResultScore struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Rank     int    `json:"rank"`
	RawScore int    `json:"rawScore"`
	Point    int    `json:"point"`
	ChipDiff int    `json:"chipDiff"`
}

// GameResult is the ranked outcome of one finished game.
type GameResult struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Rules     Settings      `json:"ruleSnapshot"`
	Scores    []ResultScore `json:"scores"`
	Logs      []HandLog     `json:"logs,omitempty"`
}

// CalculateFinalScores ranks players and converts raw scores into result
// points. First place absorbs the rounding of everyone else so the points sum to zero.
func CalculateFinalScores(players []Player, s Settings, resultID string, at time.Time) (GameResult, error) {
	n := len(players)
	if n != 3 && n != 4 {
		return GameResult{}, fmt.Errorf("%w: got %d", ErrInvalidPlayerCount, n)
	}

	sorted := clonePlayers(players)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].Wind.priority() > sorted[j].Wind.priority()
	})

	ref := s.referencePoint()
	points := make([]int, n)
	others := 0
	for i := 1; i < n; i++ {
		score := sorted[i].Score
		var thousands int
		if score < ref {
			thousands = ceilDiv(score, 1000)
		} else {
			thousands = floorDiv(score, 1000)
		}
		points[i] = thousands - ref/1000
		others += points[i]
	}
	points[0] = -others

	uma := umaSchedule(s.Uma, n)
	scores := make([]ResultScore, n)
	for i, p := range sorted {
		scores[i] = ResultScore{
			PlayerID: p.ID,
			Name:     p.Name,
			Rank:     i + 1,
			RawScore: p.Score,
			Point:    points[i] + uma[i],
		}
	}

	return GameResult{
		ID:        resultID,
		Timestamp: at,
		Rules:     s,
		Scores:    scores,
	}, nil
}

func umaSchedule(pair [2]int, n int) []int {
	low, high := pair[0], pair[1]
	if n == 3 {
		return []int{high, 0, -high}
	}
	return []int{high, low, -low, -high}
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func ceilDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) == (b < 0) {
		q++
	}
	return q
}
