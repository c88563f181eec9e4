// Package services – AuthService
//
// This file implements the identity side of the system: account
// registration, credential checks, and HS256 session tokens. The session
// token authenticates the REST surface only; the websocket upgrade is
// authenticated by a single-use ticket issued to a valid session, never by
// the token itself.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/potly/go-group-chat/internal/domain"
	"github.com/potly/go-group-chat/internal/repo"
)

// SessionClaims is the payload carried inside a session JWT.
type SessionClaims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// AuthService owns accounts and session tokens.
type AuthService struct {
	DB *gorm.DB

	// JWTSecret signs and verifies session tokens (HS256).
	JWTSecret []byte
	// SessionTTL bounds token validity; <= 0 falls back to 24h.
	SessionTTL time.Duration
}

const sessionIssuer = "go-group-chat"

// Register creates an account and returns the stored user. The password is
// bcrypt-hashed; the email must be unused.
func (s *AuthService) Register(ctx context.Context, email, name, password string) (*domain.User, error) {
	tr := otel.Tracer("services/AuthService")
	ctx, span := tr.Start(ctx, "Register")
	defer span.End()

	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if email == "" || name == "" || len(password) < 8 {
		return nil, ErrInvalidCredentials
	}

	if _, err := repo.GetUserByEmail(ctx, s.DB, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return repo.CreateUser(ctx, s.DB, email, name, string(hash))
}

// Login verifies credentials and returns a signed session token. Deactivated
// accounts are rejected after the password check so the error does not leak
// account state to guessers.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	tr := otel.Tracer("services/AuthService")
	ctx, span := tr.Start(ctx, "Login")
	defer span.End()

	u, err := repo.GetUserByEmail(ctx, s.DB, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}
	if u.Deactivated {
		return "", nil, ErrUserDeactivated
	}

	token, err := s.IssueSessionToken(u)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// IssueSessionToken signs a session JWT for the given user.
func (s *AuthService) IssueSessionToken(u *domain.User) (string, error) {
	ttl := s.SessionTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	now := time.Now()
	claims := &SessionClaims{
		UserID: u.ID,
		Name:   u.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Issuer:    sessionIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.JWTSecret)
}

// ValidateSessionToken parses and verifies a session JWT, returning its
// claims. Any parse, signature, or expiry failure is reported as
// ErrInvalidCredentials.
func (s *AuthService) ValidateSessionToken(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidCredentials
		}
		return s.JWTSecret, nil
	})
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidCredentials
	}
	return claims, nil
}

// ResolveUser fetches a user by ID; it backs the websocket gateway's user
// directory lookup.
func (s *AuthService) ResolveUser(ctx context.Context, userID string) (*domain.User, error) {
	tr := otel.Tracer("services/AuthService")
	ctx, span := tr.Start(ctx, "ResolveUser",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	u, err := repo.GetUser(ctx, s.DB, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}
