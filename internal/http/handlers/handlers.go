// Handler wiring. One Handlers value carries every injected dependency the
// endpoint implementations need; the router constructs it once.
package handlers

import (
	"github.com/potly/go-group-chat/internal/services"
	"github.com/potly/go-group-chat/internal/ws"
)

// Handlers bundles the application services behind the public API.
type Handlers struct {
	Auth     *services.AuthService
	Groups   *services.GroupService
	Messages *services.MessageService
	Tickets  *ws.TicketStore
	Registry *ws.RoomRegistry
}

// New constructs the handler set.
func New(auth *services.AuthService, groups *services.GroupService, messages *services.MessageService, tickets *ws.TicketStore, registry *ws.RoomRegistry) *Handlers {
	return &Handlers{
		Auth:     auth,
		Groups:   groups,
		Messages: messages,
		Tickets:  tickets,
		Registry: registry,
	}
}
