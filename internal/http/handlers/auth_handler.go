// Identity HTTP handlers.
//
// This file exposes the REST endpoints that issue session credentials:
//   - POST /auth/register  (create an account, returns a session token)
//   - POST /auth/login     (verify credentials, returns a session token)
//
// Handlers are transport-thin: validate and normalize inputs, delegate to
// AuthService, translate sentinel errors into the standard envelope.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/potly/go-group-chat/internal/domain"
	"github.com/potly/go-group-chat/internal/services"
)

// RegisterRequest is the JSON payload for account creation.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required,min=1,max=128"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

// LoginRequest is the JSON payload for credential verification.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// SessionResponse carries a freshly issued session token and its user.
type SessionResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// Register creates an account and logs it in.
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid registration payload")
		return
	}

	u, err := h.Auth.Register(c.Request.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmailTaken):
			fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
		case errors.Is(err, services.ErrInvalidCredentials):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid registration payload")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, "could not create account")
		}
		return
	}

	token, err := h.Auth.IssueSessionToken(u)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not issue session")
		return
	}
	ok(c, http.StatusCreated, SessionResponse{Token: token, User: u})
}

// Login verifies credentials and returns a session token.
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid login payload")
		return
	}

	token, u, err := h.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserDeactivated):
			fail(c, http.StatusForbidden, ErrCodeForbidden, err.Error())
		default:
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid credentials")
		}
		return
	}
	ok(c, http.StatusOK, SessionResponse{Token: token, User: u})
}
