package middleware

import (
	"errors"
	"net/http"
	"strings"

	pkgAuth "mahjong-score/pkg/auth"
	"mahjong-score/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	ContextPlayerIDKey = "playerID"
	ContextNameKey     = "playerName"
	ContextClaimsKey   = "claims"
)

func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := ExtractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, err.Error())
			return
		}

		claims, err := pkgAuth.ParseToken(token)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "invalid token")
			return
		}

		c.Set(ContextPlayerIDKey, claims.PlayerID)
		c.Set(ContextNameKey, claims.Name)
		c.Set(ContextClaimsKey, claims)
		c.Next()
	}
}

// OptionalAuth records the caller when a valid token is present and lets
// anonymous requests through.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, err := ExtractBearerToken(c.GetHeader("Authorization")); err == nil {
			if claims, err := pkgAuth.ParseToken(token); err == nil {
				c.Set(ContextPlayerIDKey, claims.PlayerID)
				c.Set(ContextNameKey, claims.Name)
				c.Set(ContextClaimsKey, claims)
			}
		}
		c.Next()
	}
}

func ExtractBearerToken(authHeader string) (string, error) {
	if strings.TrimSpace(authHeader) == "" {
		return "", errors.New("missing authorization header")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}
