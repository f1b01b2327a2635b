package auth_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"mahjong-score/internal/config"
	"mahjong-score/internal/service/auth"
	pkgAuth "mahjong-score/pkg/auth"
	appErr "mahjong-score/pkg/errors"
	"mahjong-score/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func init() {
	logger.Log = zap.NewNop()
	config.GlobalConfig = &config.Config{JWT: config.JWTConfig{Secret: "test-secret", Expire: 1}}
}

func TestGuestIssuesFreshIdentity(t *testing.T) {
	svc := auth.NewService()

	res, err := svc.Guest(context.Background(), "  Aki ", nil)
	if err != nil {
		t.Fatalf("guest login failed: %v", err)
	}
	if _, err := uuid.Parse(res.PlayerID); err != nil {
		t.Fatalf("player id should be a uuid: %q", res.PlayerID)
	}
	claims, err := pkgAuth.ParseToken(res.Token)
	if err != nil {
		t.Fatalf("issued token does not parse: %v", err)
	}
	if claims.PlayerID != res.PlayerID || claims.Name != "Aki" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestGuestRenewKeepsPlayerID(t *testing.T) {
	svc := auth.NewService()

	res, err := svc.Guest(context.Background(), "Bea", &pkgAuth.Claims{PlayerID: "known-id"})
	if err != nil {
		t.Fatalf("guest renew failed: %v", err)
	}
	if res.PlayerID != "known-id" || res.Name != "Bea" {
		t.Fatalf("unexpected renewal: %+v", res)
	}
}

func TestGuestRejectsBadNames(t *testing.T) {
	svc := auth.NewService()

	for _, name := range []string{"", "   ", strings.Repeat("x", 33)} {
		if _, err := svc.Guest(context.Background(), name, nil); !errors.Is(err, appErr.ErrInvalidName) {
			t.Fatalf("name %q: expected ErrInvalidName, got %v", name, err)
		}
	}
}
