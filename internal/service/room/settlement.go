package room

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"mahjong-score/internal/mahjong"
	"mahjong-score/internal/model"

	"github.com/shopspring/decimal"
)

type SettlementLine struct {
	PlayerID string          `json:"playerId"`
	Name     string          `json:"name"`
	Games    int             `json:"games"`
	Points   int             `json:"points"`
	Chips    int             `json:"chips"`
	Amount   decimal.Decimal `json:"amount"`
}

type Settlement struct {
	RoomID string           `json:"roomId"`
	Rate   decimal.Decimal  `json:"rate"`
	Lines  []SettlementLine `json:"lines"`
}

// Settlement totals every recorded game in the room and converts points and
// chips to money at rate. An empty rate uses the room's configured one.
func (s *Service) Settlement(ctx context.Context, roomID, rate string) (*Settlement, error) {
	db := s.db.WithContext(ctx)
	room, err := loadRoom(db, roomID)
	if err != nil {
		return nil, err
	}
	sess, err := decodeSession(room)
	if err != nil {
		return nil, err
	}

	r := decimal.NewFromInt(int64(sess.Settings.Rate))
	if rate = strings.TrimSpace(rate); rate != "" {
		r, err = decimal.NewFromString(rate)
		if err != nil || r.IsNegative() {
			return nil, fmt.Errorf("%w: rate %q", mahjong.ErrInvalidSettings, rate)
		}
	}

	var results []model.GameResult
	if err := db.Preload("Scores").
		Where("room_id = ?", roomID).
		Order("finished_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}

	lines := make([]SettlementLine, 0, len(sess.Players))
	index := make(map[string]int, len(sess.Players))
	line := func(id, name string) *SettlementLine {
		if i, ok := index[id]; ok {
			return &lines[i]
		}
		index[id] = len(lines)
		lines = append(lines, SettlementLine{PlayerID: id, Name: name})
		return &lines[len(lines)-1]
	}
	for _, p := range sess.Players {
		l := line(p.ID, p.Name)
		if sess.Settings.UseChip {
			l.Chips = p.Chip
		}
	}
	for _, res := range results {
		for _, sc := range res.Scores {
			l := line(sc.PlayerID, sc.Name)
			l.Games++
			l.Points += sc.Point
		}
	}

	for i := range lines {
		units := decimal.NewFromInt(int64(lines[i].Points + lines[i].Chips))
		lines[i].Amount = units.Mul(r).Round(0)
	}
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].Amount.GreaterThan(lines[j].Amount)
	})

	return &Settlement{
		RoomID: roomID,
		Rate:   r,
		Lines:  lines,
	}, nil
}
