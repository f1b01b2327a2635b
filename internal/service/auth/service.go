package auth

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	pkgAuth "mahjong-score/pkg/auth"
	appErr "mahjong-score/pkg/errors"
	"mahjong-score/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxNameLength = 32

type Service struct{}

type LoginResult struct {
	Token    string    `json:"token"`
	ExpireAt time.Time `json:"expireAt"`
	PlayerID string    `json:"playerId"`
	Name     string    `json:"name"`
}

func NewService() *Service {
	return &Service{}
}

// Guest issues a token for a display name. A caller that already holds a
// valid token keeps its player id, so history survives a rename.
func (s *Service) Guest(ctx context.Context, name string, prev *pkgAuth.Claims) (*LoginResult, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		return nil, appErr.ErrInvalidName
	}

	playerID := uuid.NewString()
	renewed := prev != nil && prev.PlayerID != ""
	if renewed {
		playerID = prev.PlayerID
	}

	token, expireAt, err := pkgAuth.GenerateToken(playerID, name)
	if err != nil {
		return nil, err
	}
	logger.Log.Info("guest token issued",
		zap.String("playerID", playerID),
		zap.Bool("renewed", renewed),
	)
	return &LoginResult{
		Token:    token,
		ExpireAt: expireAt,
		PlayerID: playerID,
		Name:     name,
	}, nil
}
