package room

import (
	"encoding/json"
	"fmt"

	"mahjong-score/internal/mahjong"
	"mahjong-score/internal/model"

	"gorm.io/datatypes"
)

func decodeSession(room model.Room) (mahjong.Session, error) {
	sess := mahjong.Session{Status: mahjong.Status(room.Status)}
	fields := []struct {
		name string
		raw  datatypes.JSON
		dst  interface{}
	}{
		{"players", room.PlayersJSON, &sess.Players},
		{"round", room.RoundJSON, &sess.Round},
		{"settings", room.SettingsJSON, &sess.Settings},
		{"current_logs", room.CurrentLogsJSON, &sess.CurrentLogs},
		{"last_event", room.LastEventJSON, &sess.LastEvent},
	}
	for _, f := range fields {
		if len(f.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			return mahjong.Session{}, fmt.Errorf("decode room %s %s: %w", room.ID, f.name, err)
		}
	}
	return sess, nil
}

func sessionColumns(sess mahjong.Session) map[string]interface{} {
	return map[string]interface{}{
		"status":       string(sess.Status),
		"mode":         string(sess.Settings.Mode),
		"players":      mustJSON(sess.Players),
		"round":        mustJSON(sess.Round),
		"settings":     mustJSON(sess.Settings),
		"current_logs": mustJSON(sess.CurrentLogs),
		"last_event":   mustJSON(sess.LastEvent),
	}
}

func applySession(room *model.Room, sess mahjong.Session) {
	room.Status = string(sess.Status)
	room.Mode = string(sess.Settings.Mode)
	room.PlayersJSON = mustJSON(sess.Players)
	room.RoundJSON = mustJSON(sess.Round)
	room.SettingsJSON = mustJSON(sess.Settings)
	room.CurrentLogsJSON = mustJSON(sess.CurrentLogs)
	room.LastEventJSON = mustJSON(sess.LastEvent)
}

func toView(room model.Room, sess mahjong.Session, canUndo bool) *View {
	return &View{
		ID:        room.ID,
		HostID:    room.HostID,
		Name:      room.Name,
		Version:   room.Version,
		CanUndo:   canUndo,
		Session:   sess,
		UpdatedAt: room.UpdatedAt,
	}
}

func resultModel(roomID string, result mahjong.GameResult) model.GameResult {
	scores := make([]model.GameResultScore, 0, len(result.Scores))
	for _, sc := range result.Scores {
		scores = append(scores, model.GameResultScore{
			ResultID: result.ID,
			PlayerID: sc.PlayerID,
			Name:     sc.Name,
			Rank:     sc.Rank,
			RawScore: sc.RawScore,
			Point:    sc.Point,
			ChipDiff: sc.ChipDiff,
		})
	}
	return model.GameResult{
		ID:           result.ID,
		RoomID:       roomID,
		Mode:         string(result.Rules.Mode),
		RuleSnapshot: mustJSON(result.Rules),
		LogsJSON:     mustJSON(result.Logs),
		FinishedAt:   result.Timestamp,
		Scores:       scores,
	}
}

func mustJSON(v interface{}) datatypes.JSON {
	if v == nil {
		return datatypes.JSON("{}")
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(raw)
}
