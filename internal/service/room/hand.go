package room

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"mahjong-score/internal/mahjong"
	"mahjong-score/internal/model"
	appErr "mahjong-score/pkg/errors"
	"mahjong-score/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func (s *Service) ReportWin(ctx context.Context, roomID, actorID string, expected int64, report mahjong.WinReport) (*HandResult, error) {
	return s.resolveHand(ctx, roomID, actorID, expected, func(sess mahjong.Session) (mahjong.Resolution, error) {
		return mahjong.ResolveWin(sess, report, s.stamp())
	})
}

func (s *Service) ReportDraw(ctx context.Context, roomID, actorID string, expected int64, tenpaiIDs []string) (*HandResult, error) {
	return s.resolveHand(ctx, roomID, actorID, expected, func(sess mahjong.Session) (mahjong.Resolution, error) {
		return mahjong.ResolveDraw(sess, tenpaiIDs, s.stamp())
	})
}

func (s *Service) resolveHand(ctx context.Context, roomID, actorID string, expected int64, resolve func(mahjong.Session) (mahjong.Resolution, error)) (*HandResult, error) {
	var res mahjong.Resolution
	view, err := s.mutate(ctx, roomID, actorID, expected, accessMember, func(_ *gorm.DB, _ *model.Room, sess mahjong.Session) (change, error) {
		var err error
		res, err = resolve(sess)
		if err != nil {
			return change{}, err
		}
		return change{session: res.Session, undoable: true, hand: &res}, nil
	})
	if err != nil {
		return nil, err
	}

	fields := []zap.Field{
		zap.String("roomID", roomID),
		zap.String("kind", string(res.Log.Kind)),
		zap.Bool("renchan", res.Transition.Renchan),
		zap.Int64("version", view.Version),
	}
	if res.Transition.GameOver {
		fields = append(fields, zap.String("reason", string(res.Transition.Reason)))
	}
	logger.Log.Info("hand recorded", fields...)

	return &HandResult{
		Room:       view,
		Log:        res.Log,
		Transition: res.Transition,
		Result:     res.Result,
	}, nil
}

// DeclareRiichi puts playerID's stick on the table. Any seated player may
// declare for another, since a single device often records for everyone.
func (s *Service) DeclareRiichi(ctx context.Context, roomID, actorID string, expected int64, playerID string) (*View, error) {
	return s.mutate(ctx, roomID, actorID, expected, accessMember, func(_ *gorm.DB, _ *model.Room, sess mahjong.Session) (change, error) {
		next, err := mahjong.DeclareRiichi(sess, playerID)
		if err != nil {
			return change{}, err
		}
		return change{session: next, undoable: true}, nil
	})
}

// Undo restores the document saved before the latest undoable change and
// drops any game result that change recorded.
func (s *Service) Undo(ctx context.Context, roomID, actorID string, expected int64) (*View, error) {
	return s.mutate(ctx, roomID, actorID, expected, accessMember, func(tx *gorm.DB, room *model.Room, _ mahjong.Session) (change, error) {
		var snap model.RoomSnapshot
		err := tx.Where("room_id = ?", room.ID).Order("id DESC").First(&snap).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return change{}, appErr.ErrNothingToUndo
			}
			return change{}, err
		}

		var prev mahjong.Session
		if err := json.Unmarshal(snap.DocumentJSON, &prev); err != nil {
			return change{}, fmt.Errorf("decode snapshot %d: %w", snap.ID, err)
		}
		if err := tx.Delete(&model.RoomSnapshot{}, snap.ID).Error; err != nil {
			return change{}, err
		}
		if snap.ResultID != nil {
			if err := deleteResult(tx, *snap.ResultID); err != nil {
				return change{}, err
			}
		}
		logger.Log.Info("room change undone",
			zap.String("roomID", room.ID),
			zap.Int64("restoredVersion", snap.Version),
		)
		return change{session: prev}, nil
	})
}

// NextGame starts a fresh game at the same table. The undo history does not
// reach back into the finished game.
func (s *Service) NextGame(ctx context.Context, roomID, actorID string, expected int64) (*View, error) {
	return s.mutate(ctx, roomID, actorID, expected, accessHost, func(_ *gorm.DB, _ *model.Room, sess mahjong.Session) (change, error) {
		next, err := mahjong.NextGame(sess)
		if err != nil {
			return change{}, err
		}
		return change{session: next, clearUndo: true}, nil
	})
}

func deleteResult(tx *gorm.DB, resultID string) error {
	if err := tx.Where("result_id = ?", resultID).Delete(&model.GameResultScore{}).Error; err != nil {
		return err
	}
	return tx.Where("id = ?", resultID).Delete(&model.GameResult{}).Error
}
