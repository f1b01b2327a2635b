package room

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"mahjong-score/internal/config"
	"mahjong-score/internal/mahjong"
	"mahjong-score/internal/model"
	"mahjong-score/internal/service/hub"
	appErr "mahjong-score/pkg/errors"
	"mahjong-score/pkg/logger"
	"mahjong-score/pkg/utils/random"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const localPlayerPrefix = "local-"

type Service struct {
	db  *gorm.DB
	pub Publisher
	cfg Config
	now func() time.Time
}

func NewService(db *gorm.DB, pub Publisher) *Service {
	cfg := defaultConfig()
	if gc := config.GlobalConfig; gc != nil {
		if gc.Room.CodeLength > 0 {
			cfg.CodeLength = gc.Room.CodeLength
		}
		if gc.Room.MaxUndo > 0 {
			cfg.MaxUndo = gc.Room.MaxUndo
		}
	}
	return &Service{
		db:  db,
		pub: pub,
		cfg: cfg,
		now: time.Now,
	}
}

type access int

const (
	accessMember access = iota
	accessHost
	accessAny
)

// change is what a mutation wants persisted.
type change struct {
	session   mahjong.Session
	undoable  bool
	noop      bool
	clearUndo bool
	hand      *mahjong.Resolution
}

type mutation func(tx *gorm.DB, room *model.Room, sess mahjong.Session) (change, error)

func (s *Service) Create(ctx context.Context, p CreateParams) (*View, error) {
	hostName := strings.TrimSpace(p.HostName)
	if p.HostID == "" || hostName == "" {
		return nil, appErr.ErrInvalidName
	}
	sess, err := mahjong.NewSession(p.Settings, mahjong.Player{ID: p.HostID, Name: hostName})
	if err != nil {
		return nil, err
	}
	if len(p.LocalPlayers) > 0 && !p.Settings.SingleDevice {
		return nil, fmt.Errorf("%w: local players need single-device mode", mahjong.ErrInvalidSettings)
	}
	for _, name := range p.LocalPlayers {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, appErr.ErrInvalidName
		}
		sess, err = mahjong.Join(sess, mahjong.Player{ID: localPlayerPrefix + random.Code(8), Name: name})
		if err != nil {
			return nil, err
		}
	}

	roomID, err := s.allocateRoomID(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	room := model.Room{
		ID:        roomID,
		HostID:    p.HostID,
		Name:      strings.TrimSpace(p.Name),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applySession(&room, sess)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&room).Error; err != nil {
			return err
		}
		return tx.Create(&model.RoomPlayer{
			RoomID:   room.ID,
			PlayerID: p.HostID,
			Name:     hostName,
			JoinedAt: now,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	logger.Log.Info("room created",
		zap.String("roomID", room.ID),
		zap.String("hostID", p.HostID),
		zap.String("mode", room.Mode),
		zap.Int("seated", len(sess.Players)),
	)
	return toView(room, sess, false), nil
}

func (s *Service) allocateRoomID(ctx context.Context) (string, error) {
	for i := 0; i < s.cfg.CodeRetries; i++ {
		code := random.Code(s.cfg.CodeLength)
		var n int64
		if err := s.db.WithContext(ctx).Model(&model.Room{}).Where("id = ?", code).Count(&n).Error; err != nil {
			return "", err
		}
		if n == 0 {
			return code, nil
		}
	}
	return "", fmt.Errorf("no free room code after %d attempts", s.cfg.CodeRetries)
}

func (s *Service) Get(ctx context.Context, roomID string) (*View, error) {
	db := s.db.WithContext(ctx)
	room, err := loadRoom(db, roomID)
	if err != nil {
		return nil, err
	}
	sess, err := decodeSession(room)
	if err != nil {
		return nil, err
	}
	canUndo, err := hasSnapshots(db, roomID)
	if err != nil {
		return nil, err
	}
	return toView(room, sess, canUndo), nil
}

// Join seats the player. Joining a room one already sits in returns it unchanged.
func (s *Service) Join(ctx context.Context, roomID, playerID, name string) (*View, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, appErr.ErrInvalidName
	}
	return s.mutate(ctx, roomID, playerID, 0, accessAny, func(tx *gorm.DB, room *model.Room, sess mahjong.Session) (change, error) {
		if _, ok := sess.Player(playerID); ok {
			return change{session: sess, noop: true}, nil
		}
		next, err := mahjong.Join(sess, mahjong.Player{ID: playerID, Name: name})
		if err != nil {
			return change{}, err
		}
		err = tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.RoomPlayer{
			RoomID:   room.ID,
			PlayerID: playerID,
			Name:     name,
			JoinedAt: s.now(),
		}).Error
		if err != nil {
			return change{}, err
		}
		return change{session: next}, nil
	})
}

// Reorder reseats players; the first id becomes East.
func (s *Service) Reorder(ctx context.Context, roomID, actorID string, expected int64, order []string) (*View, error) {
	return s.mutate(ctx, roomID, actorID, expected, accessHost, func(_ *gorm.DB, _ *model.Room, sess mahjong.Session) (change, error) {
		next, err := mahjong.Seat(sess, order)
		return change{session: next}, err
	})
}

func (s *Service) Start(ctx context.Context, roomID, actorID string, expected int64) (*View, error) {
	return s.mutate(ctx, roomID, actorID, expected, accessHost, func(_ *gorm.DB, _ *model.Room, sess mahjong.Session) (change, error) {
		next, err := mahjong.Start(sess)
		return change{session: next}, err
	})
}

// End closes the room for good. Results already recorded stay.
func (s *Service) End(ctx context.Context, roomID, actorID string, expected int64) (*View, error) {
	return s.mutate(ctx, roomID, actorID, expected, accessHost, func(_ *gorm.DB, _ *model.Room, sess mahjong.Session) (change, error) {
		return change{session: mahjong.End(sess), clearUndo: true}, nil
	})
}

func (s *Service) ListForPlayer(ctx context.Context, playerID string, page, size int) (*ListResult, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	if size > 100 {
		size = 100
	}

	query := func() *gorm.DB {
		return s.db.WithContext(ctx).
			Model(&model.Room{}).
			Joins("JOIN room_players ON room_players.room_id = rooms.id").
			Where("room_players.player_id = ?", playerID)
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, err
	}

	items := make([]Summary, 0)
	if total > 0 {
		var rooms []model.Room
		offset := (page - 1) * size
		if err := query().
			Select("rooms.*").
			Order("rooms.updated_at DESC").
			Limit(size).
			Offset(offset).
			Find(&rooms).Error; err != nil {
			return nil, err
		}
		for _, room := range rooms {
			var players []mahjong.Player
			if len(room.PlayersJSON) > 0 {
				if err := json.Unmarshal(room.PlayersJSON, &players); err != nil {
					logger.Log.Warn("skip room with bad players column", zap.String("roomID", room.ID), zap.Error(err))
					continue
				}
			}
			items = append(items, Summary{
				ID:        room.ID,
				Name:      room.Name,
				Mode:      room.Mode,
				Status:    room.Status,
				Players:   players,
				UpdatedAt: room.UpdatedAt,
			})
		}
	}

	return &ListResult{
		Items: items,
		Total: total,
	}, nil
}

// mutate loads the room, applies fn and writes the result back guarded by
// the room version. expected of zero skips the client-side version check.
func (s *Service) mutate(ctx context.Context, roomID, actorID string, expected int64, acc access, fn mutation) (*View, error) {
	var view *View
	published := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		room, err := loadRoom(tx, roomID)
		if err != nil {
			return err
		}
		if expected > 0 && room.Version != expected {
			return appErr.ErrVersionConflict
		}
		sess, err := decodeSession(room)
		if err != nil {
			return err
		}
		if err := authorize(room, sess, actorID, acc); err != nil {
			return err
		}
		if sess.Status == mahjong.StatusEnded {
			return appErr.ErrRoomClosed
		}

		ch, err := fn(tx, &room, sess)
		if err != nil {
			return err
		}
		if ch.noop {
			canUndo, err := hasSnapshots(tx, room.ID)
			if err != nil {
				return err
			}
			view = toView(room, sess, canUndo)
			return nil
		}
		if ch.hand != nil {
			if err := checkBalance(ch.hand); err != nil {
				return err
			}
		}

		if ch.clearUndo {
			if err := tx.Where("room_id = ?", room.ID).Delete(&model.RoomSnapshot{}).Error; err != nil {
				return err
			}
		}
		if ch.undoable {
			snap := model.RoomSnapshot{
				RoomID:       room.ID,
				Version:      room.Version,
				DocumentJSON: mustJSON(sess),
				CreatedAt:    s.now(),
			}
			if ch.hand != nil && ch.hand.Result != nil {
				id := ch.hand.Result.ID
				snap.ResultID = &id
			}
			if err := tx.Create(&snap).Error; err != nil {
				return err
			}
			if err := s.trimSnapshots(tx, room.ID); err != nil {
				return err
			}
		}
		if ch.hand != nil && ch.hand.Result != nil {
			result := resultModel(room.ID, *ch.hand.Result)
			if err := tx.Create(&result).Error; err != nil {
				return err
			}
		}

		now := s.now()
		cols := sessionColumns(ch.session)
		cols["version"] = room.Version + 1
		cols["updated_at"] = now
		res := tx.Model(&model.Room{}).
			Where("id = ? AND version = ?", room.ID, room.Version).
			Updates(cols)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return appErr.ErrVersionConflict
		}
		room.Version++
		room.UpdatedAt = now

		canUndo, err := hasSnapshots(tx, room.ID)
		if err != nil {
			return err
		}
		view = toView(room, ch.session, canUndo)
		published = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if published {
		s.publish(ctx, view)
	}
	return view, nil
}

func (s *Service) trimSnapshots(tx *gorm.DB, roomID string) error {
	var ids []int64
	if err := tx.Model(&model.RoomSnapshot{}).
		Where("room_id = ?", roomID).
		Order("id DESC").
		Pluck("id", &ids).Error; err != nil {
		return err
	}
	if len(ids) <= s.cfg.MaxUndo {
		return nil
	}
	return tx.Where("id IN ?", ids[s.cfg.MaxUndo:]).Delete(&model.RoomSnapshot{}).Error
}

func (s *Service) publish(ctx context.Context, view *View) {
	if s.pub == nil {
		return
	}
	data, err := json.Marshal(view)
	if err != nil {
		logger.Log.Error("failed to encode room event", zap.String("roomID", view.ID), zap.Error(err))
		return
	}
	ev := hub.Event{
		Type:    hub.EventRoom,
		RoomID:  view.ID,
		Version: view.Version,
		Data:    data,
	}
	if err := s.pub.Publish(ctx, ev); err != nil {
		logger.Log.Warn("room event publish failed",
			zap.String("roomID", view.ID),
			zap.Int64("version", view.Version),
			zap.Error(err),
		)
	}
}

func (s *Service) stamp() mahjong.Stamp {
	return mahjong.Stamp{
		ID:       random.Code(12),
		ResultID: random.Code(12),
		At:       s.now(),
	}
}

func loadRoom(db *gorm.DB, roomID string) (model.Room, error) {
	var room model.Room
	if err := db.Where("id = ?", roomID).First(&room).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Room{}, appErr.ErrRoomNotFound
		}
		return model.Room{}, err
	}
	return room, nil
}

func hasSnapshots(db *gorm.DB, roomID string) (bool, error) {
	var n int64
	if err := db.Model(&model.RoomSnapshot{}).Where("room_id = ?", roomID).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func authorize(room model.Room, sess mahjong.Session, actorID string, acc access) error {
	switch acc {
	case accessAny:
		return nil
	case accessHost:
		if room.HostID != actorID {
			return appErr.ErrNotRoomHost
		}
		return nil
	default:
		if room.HostID == actorID {
			return nil
		}
		if _, ok := sess.Player(actorID); !ok {
			return appErr.ErrNotRoomMember
		}
		return nil
	}
}

// checkBalance rejects a hand whose score changes do not add up to the
// riichi sticks paid out of the pool.
func checkBalance(res *mahjong.Resolution) error {
	sum := 0
	for _, d := range res.Log.ScoreDeltas {
		sum += d
	}
	if sum != res.Pool {
		return fmt.Errorf("%w: deltas sum to %d with %d from the pool", appErr.ErrUnbalancedHand, sum, res.Pool)
	}
	return nil
}
