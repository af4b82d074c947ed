package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/geocoder89/accounts/internal/accounts"
	"github.com/geocoder89/accounts/internal/domain/user"
	"github.com/gin-gonic/gin"
)

const authKeyword = "Token"

// Keep this small interface so tests can fake it easily.
type RequestAuthenticator interface {
	AuthenticateRequest(ctx context.Context, key string) (user.User, error)
}

type AuthMiddleware struct {
	gate RequestAuthenticator
	log  *slog.Logger
}

func NewAuthMiddleware(gate RequestAuthenticator, log *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{gate: gate, log: log}
}

// RequireAuth resolves "Authorization: Token <key>" to a user and aborts with
// 401 when it cannot.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := tokenFromHeader(c.GetHeader("Authorization"))
		if !ok {
			abortUnauthorized(c, "Authentication credentials were not provided.")
			return
		}

		u, err := m.gate.AuthenticateRequest(c.Request.Context(), key)
		if err != nil {
			if errors.Is(err, accounts.ErrUnauthenticated) {
				abortUnauthorized(c, "Invalid token.")
				return
			}

			m.log.ErrorContext(c.Request.Context(), "authenticate request failed", "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{
					"code":    "internal_error",
					"message": "Could not authenticate request",
				},
			})
			return
		}

		c.Set(ctxUserKey, u)

		c.Next()
	}
}

// CurrentUser returns the user resolved by RequireAuth. Handlers pass it on
// explicitly rather than reading ambient state further down.
func CurrentUser(c *gin.Context) (user.User, bool) {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return user.User{}, false
	}
	u, ok := v.(user.User)
	return u, ok
}

func tokenFromHeader(header string) (string, bool) {
	keyword, key, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(keyword, authKeyword) {
		return "", false
	}

	key = strings.TrimSpace(key)
	if key == "" || strings.ContainsAny(key, " \t") {
		return "", false
	}

	return key, true
}

func abortUnauthorized(c *gin.Context, message string) {
	c.Header("WWW-Authenticate", authKeyword)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":    "unauthorized",
			"message": message,
		},
	})
}
