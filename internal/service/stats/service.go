package stats

import (
	"context"
	"encoding/json"
	"slices"
	"time"

	"mahjong-score/internal/mahjong"
	"mahjong-score/internal/model"
	"mahjong-score/pkg/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type RankEntry struct {
	ResultID string    `json:"resultId"`
	Rank     int       `json:"rank"`
	Point    int       `json:"point"`
	Date     time.Time `json:"date"`
}

type Summary struct {
	PlayerID           string          `json:"playerId"`
	Games              int             `json:"games"`
	AverageRank        decimal.Decimal `json:"averageRank"`
	TotalPoints        int             `json:"totalPoints"`
	RankCounts         map[int]int     `json:"rankCounts"`
	RankHistory        []RankEntry     `json:"rankHistory"`
	Hands              int             `json:"hands"`
	Wins               int             `json:"wins"`
	DealIns            int             `json:"dealIns"`
	Riichis            int             `json:"riichis"`
	WinPoints          int             `json:"winPoints"`
	DealInPoints       int             `json:"dealInPoints"`
	WinsAfterRiichi    int             `json:"winsAfterRiichi"`
	DealInsAfterRiichi int             `json:"dealInsAfterRiichi"`
	Rates              Rates           `json:"rates"`
}

// Rates are percentages rounded to one decimal place.
type Rates struct {
	Win               decimal.Decimal `json:"win"`
	DealIn            decimal.Decimal `json:"dealIn"`
	Riichi            decimal.Decimal `json:"riichi"`
	WinAfterRiichi    decimal.Decimal `json:"winAfterRiichi"`
	DealInAfterRiichi decimal.Decimal `json:"dealInAfterRiichi"`
}

// ForPlayer aggregates the player's recorded games, newest first. A positive
// limit only looks at that many recent games.
func (s *Service) ForPlayer(ctx context.Context, playerID string, limit int) (*Summary, error) {
	sub := s.db.WithContext(ctx).
		Model(&model.GameResultScore{}).
		Select("result_id").
		Where("player_id = ?", playerID)

	query := s.db.WithContext(ctx).
		Preload("Scores").
		Where("id IN (?)", sub).
		Order("finished_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var results []model.GameResult
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}

	sum := &Summary{
		PlayerID:    playerID,
		RankCounts:  map[int]int{},
		RankHistory: make([]RankEntry, 0, len(results)),
	}
	rankTotal := 0
	for _, res := range results {
		idx := slices.IndexFunc(res.Scores, func(sc model.GameResultScore) bool { return sc.PlayerID == playerID })
		if idx < 0 {
			continue
		}
		sc := res.Scores[idx]
		sum.Games++
		rankTotal += sc.Rank
		sum.TotalPoints += sc.Point
		sum.RankCounts[sc.Rank]++
		sum.RankHistory = append(sum.RankHistory, RankEntry{
			ResultID: res.ID,
			Rank:     sc.Rank,
			Point:    sc.Point,
			Date:     res.FinishedAt,
		})

		var logs []mahjong.HandLog
		if len(res.LogsJSON) > 0 {
			if err := json.Unmarshal(res.LogsJSON, &logs); err != nil {
				logger.Log.Warn("skip unreadable hand logs", zap.String("resultID", res.ID), zap.Error(err))
				continue
			}
		}
		for _, l := range logs {
			sum.addHand(l, mahjong.Mode(res.Mode).Seats())
		}
	}

	if sum.Games > 0 {
		sum.AverageRank = decimal.NewFromInt(int64(rankTotal)).
			DivRound(decimal.NewFromInt(int64(sum.Games)), 2)
	}
	sum.Rates = Rates{
		Win:               percent(sum.Wins, sum.Hands),
		DealIn:            percent(sum.DealIns, sum.Hands),
		Riichi:            percent(sum.Riichis, sum.Hands),
		WinAfterRiichi:    percent(sum.WinsAfterRiichi, sum.Riichis),
		DealInAfterRiichi: percent(sum.DealInsAfterRiichi, sum.Riichis),
	}
	return sum, nil
}

// addHand folds one hand into the counters. Win points count the hand value
// only, without honba or riichi sticks.
func (sum *Summary) addHand(l mahjong.HandLog, seats int) {
	id := sum.PlayerID
	sum.Hands++
	riichi := slices.Contains(l.RiichiPlayerIDs, id)
	if riichi {
		sum.Riichis++
	}
	if l.Kind != mahjong.OutcomeWin {
		return
	}
	if seats == 0 {
		seats = len(l.ScoreDeltas)
	}
	if idx := slices.IndexFunc(l.Winners, func(w mahjong.LoggedWin) bool { return w.PlayerID == id }); idx >= 0 {
		sum.Wins++
		if w := l.Winners[idx]; w.Payment.Method != "" {
			sum.WinPoints += w.Payment.Total(seats)
		}
		if riichi {
			sum.WinsAfterRiichi++
		}
	}
	if l.LoserID == id {
		sum.DealIns++
		if delta := l.ScoreDeltas[id]; delta < 0 {
			sum.DealInPoints -= delta
		}
		if riichi {
			sum.DealInsAfterRiichi++
		}
	}
}

func percent(n, of int) decimal.Decimal {
	if of == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(n * 100)).DivRound(decimal.NewFromInt(int64(of)), 1)
}
