package auth_test

import (
	"testing"
	"time"

	"mahjong-score/internal/config"
	"mahjong-score/pkg/auth"
)

func useConfig(t *testing.T) {
	t.Helper()
	prev := config.GlobalConfig
	config.GlobalConfig = &config.Config{JWT: config.JWTConfig{Secret: "test-secret", Expire: 1}}
	t.Cleanup(func() { config.GlobalConfig = prev })
}

func TestTokenRoundTrip(t *testing.T) {
	useConfig(t)

	token, expireAt, err := auth.GenerateToken("player-1", "Aki")
	if err != nil {
		t.Fatalf("generate token failed: %v", err)
	}
	if time.Until(expireAt) <= 0 {
		t.Fatalf("expiry must be in the future: %v", expireAt)
	}

	claims, err := auth.ParseToken(token)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if claims.PlayerID != "player-1" || claims.Name != "Aki" || claims.Subject != "player-1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseTokenRejectsOtherSecret(t *testing.T) {
	useConfig(t)
	token, _, err := auth.GenerateToken("player-1", "Aki")
	if err != nil {
		t.Fatalf("generate token failed: %v", err)
	}

	config.GlobalConfig.JWT.Secret = "rotated"
	if _, err := auth.ParseToken(token); err == nil {
		t.Fatalf("expected token signed with another secret to fail")
	}
	if _, err := auth.ParseToken("not-a-token"); err == nil {
		t.Fatalf("expected garbage token to fail")
	}
}
