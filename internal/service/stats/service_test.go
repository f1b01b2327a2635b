package stats_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"mahjong-score/internal/mahjong"
	"mahjong-score/internal/model"
	"mahjong-score/internal/service/stats"
	"mahjong-score/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func init() {
	logger.Log = zap.NewNop()
}

func newStatsService(t *testing.T) (*gorm.DB, *stats.Service) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.GameResult{}, &model.GameResultScore{}); err != nil {
		t.Fatalf("failed to migrate results: %v", err)
	}
	return db, stats.NewService(db)
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal json: %v", err)
	}
	return data
}

func seedResult(t *testing.T, db *gorm.DB, id string, at time.Time, ranks map[string]int, logs []mahjong.HandLog) {
	t.Helper()
	res := model.GameResult{
		ID:         id,
		RoomID:     "ROOM01",
		Mode:       string(mahjong.FourPlayer),
		LogsJSON:   mustJSON(t, logs),
		FinishedAt: at,
	}
	for pid, rank := range ranks {
		res.Scores = append(res.Scores, model.GameResultScore{PlayerID: pid, Rank: rank, Point: 30 - rank*10})
	}
	if err := db.Create(&res).Error; err != nil {
		t.Fatalf("seed result failed: %v", err)
	}
}

func TestForPlayer(t *testing.T) {
	db, svc := newStatsService(t)
	base := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

	seedResult(t, db, "G1", base, map[string]int{"me": 1, "b": 2, "c": 3, "d": 4}, []mahjong.HandLog{
		{
			// 7700 ron with one honba and the pool stick
			Kind:            mahjong.OutcomeWin,
			Winners:         []mahjong.LoggedWin{{PlayerID: "me", Payment: mahjong.Payment{Method: mahjong.Ron, Ron: 7700}}},
			LoserID:         "b",
			RiichiPlayerIDs: []string{"me"},
			ScoreDeltas:     map[string]int{"me": 9000, "b": -8000},
		},
		{
			// 500/1000 tsumo with one honba
			Kind: mahjong.OutcomeWin,
			Winners: []mahjong.LoggedWin{{PlayerID: "me", Payment: mahjong.Payment{
				Method: mahjong.Tsumo, TsumoDealer: 1000, TsumoNonDealer: 500,
			}}},
			ScoreDeltas: map[string]int{"me": 2300, "b": -1100, "c": -600, "d": -600},
		},
		{
			Kind:        mahjong.OutcomeDraw,
			ScoreDeltas: map[string]int{"me": 1500, "b": -500, "c": -500, "d": -500},
		},
	})
	seedResult(t, db, "G2", base.Add(time.Hour), map[string]int{"me": 4, "b": 1, "c": 2, "d": 3}, []mahjong.HandLog{
		{
			Kind:            mahjong.OutcomeWin,
			Winners:         []mahjong.LoggedWin{{PlayerID: "c"}},
			LoserID:         "me",
			RiichiPlayerIDs: []string{"me", "c"},
			ScoreDeltas:     map[string]int{"me": -12000, "c": 14000},
		},
	})
	seedResult(t, db, "G3", base.Add(2*time.Hour), map[string]int{"x": 1, "b": 2, "c": 3, "d": 4}, nil)

	sum, err := svc.ForPlayer(context.Background(), "me", 0)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if sum.Games != 2 || sum.AverageRank.String() != "2.5" || sum.TotalPoints != 10 {
		t.Fatalf("unexpected game totals: games=%d avg=%s points=%d", sum.Games, sum.AverageRank, sum.TotalPoints)
	}
	if sum.RankHistory[0].ResultID != "G2" || sum.RankHistory[1].ResultID != "G1" {
		t.Fatalf("rank history should be newest first: %+v", sum.RankHistory)
	}
	if sum.Hands != 4 || sum.Wins != 2 || sum.DealIns != 1 || sum.Riichis != 2 {
		t.Fatalf("unexpected hand counts: %+v", sum)
	}
	if sum.WinPoints != 9700 || sum.DealInPoints != 12000 {
		t.Fatalf("unexpected point totals: win=%d dealIn=%d", sum.WinPoints, sum.DealInPoints)
	}
	if sum.WinsAfterRiichi != 1 || sum.DealInsAfterRiichi != 1 {
		t.Fatalf("unexpected riichi follow-ups: %+v", sum)
	}
	if sum.Rates.Win.String() != "50" || sum.Rates.WinAfterRiichi.String() != "50" {
		t.Fatalf("unexpected rates: %+v", sum.Rates)
	}

	recent, err := svc.ForPlayer(context.Background(), "me", 1)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if recent.Games != 1 || recent.RankHistory[0].Rank != 4 {
		t.Fatalf("limit should keep only the latest game: %+v", recent.RankHistory)
	}
}

func TestForPlayerWithoutGames(t *testing.T) {
	_, svc := newStatsService(t)

	sum, err := svc.ForPlayer(context.Background(), "nobody", 0)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if sum.Games != 0 || !sum.AverageRank.IsZero() || !sum.Rates.Win.IsZero() {
		t.Fatalf("expected empty summary, got %+v", sum)
	}
}
