// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements session authentication for the REST surface. A
// session is a bearer JWT issued at login; RequireSession validates it and
// stores the resolved user identity in the Gin context for handlers, the
// access logger, and the rate limiter. The websocket upgrade route does NOT
// use this middleware — its credential is a single-use ticket.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/potly/go-group-chat/internal/services"
)

// userNameKey is the Gin context key for the session user's display name.
const userNameKey = "userName"

// SessionValidator verifies a session token and returns its claims.
// *services.AuthService satisfies it.
type SessionValidator interface {
	ValidateSessionToken(token string) (*services.SessionClaims, error)
}

// RequireSession returns a middleware that rejects requests lacking a valid
// `Authorization: Bearer <token>` header with a 401 envelope, and otherwise
// stores userID and userName in the context.
func RequireSession(v SessionValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			unauthorized(c, "missing session token")
			return
		}
		claims, err := v.ValidateSessionToken(token)
		if err != nil {
			unauthorized(c, "invalid or expired session")
			return
		}
		c.Set(userIDKey, claims.UserID)
		c.Set(userNameKey, claims.Name)
		c.Next()
	}
}

// SessionUserID returns the authenticated user ID set by RequireSession, or
// "" when the request is unauthenticated.
func SessionUserID(c *gin.Context) string {
	v, _ := c.Get(userIDKey)
	s, _ := v.(string)
	return s
}

// SessionUserName returns the authenticated user's display name, or "".
func SessionUserName(c *gin.Context) string {
	v, _ := c.Get(userNameKey)
	s, _ := v.(string)
	return s
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       "unauthorized",
		"message":    msg,
	})
}
