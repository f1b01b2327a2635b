package auth

import (
	"errors"
	"time"

	"mahjong-score/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
)

const ScopePlayer = "player"

type Claims struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Scope    string `json:"scope"`
	jwt.RegisteredClaims
}

// GenerateToken signs a player token and returns it with its expiry.
func GenerateToken(playerID, name string) (string, time.Time, error) {
	now := time.Now()
	expireAt := now.Add(time.Duration(config.GlobalConfig.JWT.Expire) * time.Hour)
	claims := Claims{
		PlayerID: playerID,
		Name:     name,
		Scope:    ScopePlayer,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expireAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   playerID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(config.GlobalConfig.JWT.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expireAt, nil
}

func ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(config.GlobalConfig.JWT.Secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Scope != ScopePlayer || claims.PlayerID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
