// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers, and mounts the websocket gateway. It
// centralizes cross-cutting concerns: tracing, correlation IDs, logging,
// panic recovery, metrics, CORS, security headers, and rate limiting.
//
// Design goals:
//   - Observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - The websocket route carries no session middleware: its credential is
//     the single-use ticket
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/potly/go-group-chat/internal/config"
	"github.com/potly/go-group-chat/internal/http/handlers"
	"github.com/potly/go-group-chat/internal/http/middleware"
	"github.com/potly/go-group-chat/internal/services"
	"github.com/potly/go-group-chat/internal/ws"

	"github.com/rs/zerolog/log"
)

// userDirectoryShim adapts AuthService to the gateway's UserDirectory
// interface. This keeps the ws package decoupled from the services package
// while reusing the existing resolution logic.
type userDirectoryShim struct{ auth *services.AuthService }

// ResolveUser proxies AuthService.ResolveUser into the transport's identity
// shape.
func (s userDirectoryShim) ResolveUser(ctx context.Context, userID string) (*ws.Identity, error) {
	u, err := s.auth.ResolveUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ws.Identity{ID: u.ID, Name: u.Name, Deactivated: u.Deactivated}, nil
}

// messageArchiveShim adapts MessageService to the gateway's MessageArchive
// interface, translating the stored row into the wire payload.
type messageArchiveShim struct{ messages *services.MessageService }

// SaveMessage proxies MessageService.SaveMessage.
func (s messageArchiveShim) SaveMessage(ctx context.Context, groupID, senderID, senderName, content string) (*ws.MessagePayload, error) {
	m, err := s.messages.SaveMessage(ctx, groupID, senderID, content)
	if err != nil {
		return nil, err
	}
	return &ws.MessagePayload{
		ID:        m.ID,
		Content:   m.Content,
		Sender:    senderName,
		SenderID:  m.SenderID,
		GroupID:   m.GroupID,
		CreatedAt: m.CreatedAt,
	}, nil
}

// RegisterRoutes attaches all middleware and endpoints to the Gin engine.
//
// Middleware order:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured access logs
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics and /metrics endpoint
//  7. Rate limiter (per session user or IP)
//  8. CORS and security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, tickets *ws.TicketStore, registry *ws.RoomRegistry, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (256 KiB; payloads here are small JSON)
	r.Use(limitBody(256 << 10))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 8) CORS posture (allow-all when no origins configured)
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.CORS.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Dependency injection: services ← db; gateway ← services + registry
	authSvc := &services.AuthService{
		DB:         db,
		JWTSecret:  []byte(cfg.Auth.JWTSecret),
		SessionTTL: cfg.Auth.SessionTTL,
	}
	groupSvc := &services.GroupService{DB: db}
	msgSvc := &services.MessageService{
		DB:              db,
		MaxContentRunes: cfg.Chat.MaxMessageLength,
	}

	gateway := ws.NewGateway(
		tickets,
		registry,
		userDirectoryShim{auth: authSvc},
		groupSvc,
		messageArchiveShim{messages: msgSvc},
		cfg.Chat.MaxMessageLength,
		log.With().Str("component", "ws").Logger(),
	)

	h := handlers.New(authSvc, groupSvc, msgSvc, tickets, registry)

	// Websocket upgrade: authenticated by ticket, not by session
	r.GET("/ws", gin.WrapH(gateway))

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		// Identity (no session required)
		api.POST("/auth/register", h.Register)
		api.POST("/auth/login", h.Login)

		// Everything below requires a session
		auth := api.Group("", middleware.RequireSession(authSvc))

		// Websocket ticket + diagnostics
		auth.POST("/ws/ticket", h.IssueTicket)
		auth.GET("/ws/stats", h.RoomStats)

		// Groups
		auth.POST("/groups", h.CreateGroup)
		auth.GET("/groups", h.ListGroups)
		auth.GET("/groups/:id", h.GetGroup)
		auth.GET("/groups/:id/members", h.ListMembers)
		auth.POST("/groups/:id/members", h.AddMember)
		auth.DELETE("/groups/:id/members/:userId", h.RemoveMember)

		// Message history and receipts
		auth.GET("/groups/:id/messages", h.ListMessages)
		auth.POST("/messages/:id/read", h.MarkRead)
		auth.GET("/messages/:id/readers", h.ListReaders)
		auth.DELETE("/messages/:id", h.DeleteMessage)
	}
}

// limitBody caps the request body size using http.MaxBytesReader; oversized
// bodies error on read downstream.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
