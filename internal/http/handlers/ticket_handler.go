// Websocket ticket and diagnostics HTTP handlers.
//
// POST /ws/ticket bridges the authenticated HTTP session into the anonymous
// websocket upgrade: it issues a single-use, 30-second ticket bound to the
// session user. The upgrade request presents the ticket instead of the
// session token, so the long-lived credential never appears in a URL.
//
// GET /ws/stats exposes the room registry's advisory population snapshot.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/potly/go-group-chat/internal/http/middleware"
)

// TicketResponse carries a freshly issued websocket ticket.
type TicketResponse struct {
	Success bool   `json:"success"`
	Ticket  string `json:"ticket"`
}

// IssueTicket returns a new single-use websocket ticket for the session
// user. One call yields one ticket; an unredeemed ticket dies after its TTL.
func (h *Handlers) IssueTicket(c *gin.Context) {
	userID := middleware.SessionUserID(c)
	if userID == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "session required")
		return
	}
	ok(c, http.StatusOK, TicketResponse{Success: true, Ticket: h.Tickets.Issue(userID)})
}

// RoomStats returns the registry's diagnostic per-room population snapshot.
// Advisory only: the numbers can be stale the instant they are produced.
func (h *Handlers) RoomStats(c *gin.Context) {
	ok(c, http.StatusOK, gin.H{"rooms": h.Registry.Stats()})
}
