// The gateway owns one websocket connection's lifecycle:
//
//	Connecting → Authenticated → Joined → (message loop) → Closing → Closed
//
// Authentication bridges the HTTP session into the socket: the upgrade
// request carries a single-use ticket and a group ID, never a session
// credential. A rejected attempt is told why exactly once, via a close frame
// with an application close code, and nothing is ever registered for it.
// After a successful join the per-connection loop is strictly sequential, so
// one sender's messages reach the room in the order their frames arrived.
package ws

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// CloseUnauthorized is the application close code used for every
// authentication rejection; the close message carries the reason.
const CloseUnauthorized = 4401

// DefaultMaxMessageLength caps send_message content when no limit is
// configured.
const DefaultMaxMessageLength = 2000

// Identity is a resolved user as seen by the transport.
type Identity struct {
	ID          string
	Name        string
	Deactivated bool
}

// UserDirectory resolves user identities. A missing user returns an error.
type UserDirectory interface {
	ResolveUser(ctx context.Context, userID string) (*Identity, error)
}

// GroupDirectory is the group-membership collaborator consulted during
// authentication. ResolveGroup reports whether the group exists;
// IsMemberOrAdmin reports whether the user may enter its room.
type GroupDirectory interface {
	ResolveGroup(ctx context.Context, groupID string) error
	IsMemberOrAdmin(ctx context.Context, groupID, userID string) (bool, error)
}

// MessageArchive persists chat messages. The archive records the sender as
// having read their own message and re-validates content, so a malformed
// message can never reach storage even through a future second caller.
type MessageArchive interface {
	SaveMessage(ctx context.Context, groupID, senderID, senderName, content string) (*MessagePayload, error)
}

// Gateway authenticates websocket upgrades and runs the per-connection
// protocol loop. One Gateway serves all connections; per-connection state
// lives in Client.
type Gateway struct {
	Tickets  *TicketStore
	Registry *RoomRegistry
	Users    UserDirectory
	Groups   GroupDirectory
	Archive  MessageArchive

	// MaxMessageLength caps send_message content in runes; <= 0 means
	// DefaultMaxMessageLength.
	MaxMessageLength int

	Log zerolog.Logger

	upgrader websocket.Upgrader
}

// NewGateway wires the gateway's collaborators. The upgrader accepts any
// origin: the ticket, not the Origin header, is the credential, and tickets
// are single-use and 30 seconds from dead.
func NewGateway(tickets *TicketStore, registry *RoomRegistry, users UserDirectory, groups GroupDirectory, archive MessageArchive, maxMessageLength int, log zerolog.Logger) *Gateway {
	return &Gateway{
		Tickets:          tickets,
		Registry:         registry,
		Users:            users,
		Groups:           groups,
		Archive:          archive,
		MaxMessageLength: maxMessageLength,
		Log:              log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// rejection is an authentication failure: a client-facing reason plus a
// bounded label for metrics.
type rejection struct {
	reason string
	label  string
}

// authenticate validates the upgrade request and resolves the connecting
// identity. Every step is a distinct rejection point; the first failure wins
// and the attempt is fatal (no retry within one upgrade).
func (g *Gateway) authenticate(ctx context.Context, r *http.Request) (*Identity, string, *rejection) {
	ticket := r.URL.Query().Get("ticket")
	groupID := r.URL.Query().Get("groupId")
	if ticket == "" {
		return nil, "", &rejection{reason: "no ticket provided", label: "missing_ticket"}
	}
	if groupID == "" {
		return nil, "", &rejection{reason: "no groupId provided", label: "missing_group"}
	}

	userID, ok := g.Tickets.Consume(ticket)
	if !ok {
		return nil, "", &rejection{reason: "invalid or expired ticket", label: "bad_ticket"}
	}

	ident, err := g.Users.ResolveUser(ctx, userID)
	if err != nil || ident == nil {
		return nil, "", &rejection{reason: "user not found", label: "unknown_user"}
	}
	if ident.Deactivated {
		return nil, "", &rejection{reason: "user is deactivated", label: "deactivated"}
	}

	if err := g.Groups.ResolveGroup(ctx, groupID); err != nil {
		return nil, "", &rejection{reason: "group not found", label: "unknown_group"}
	}
	member, err := g.Groups.IsMemberOrAdmin(ctx, groupID, userID)
	if err != nil || !member {
		return nil, "", &rejection{reason: "user is not a member of this group", label: "not_member"}
	}

	return ident, groupID, nil
}

// ServeHTTP upgrades the connection and drives the full lifecycle. It
// returns when the connection is closed; callers mount it as the websocket
// route handler.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote an HTTP error.
		return
	}

	ident, groupID, rej := g.authenticate(r.Context(), r)
	if rej != nil {
		metricAuthRejections.WithLabelValues(rej.label).Inc()
		g.Log.Warn().Str("reason", rej.reason).Msg("ws auth rejected")
		msg := websocket.FormatCloseMessage(CloseUnauthorized, rej.reason)
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}

	client := NewClient(conn, ident.ID, ident.Name, groupID)
	g.run(client)
}

// run takes an authenticated client through join, the message loop, and the
// exactly-once leave. The surrounding goroutine is the connection's task;
// writePump is its only companion.
func (g *Gateway) run(client *Client) {
	maxLen := g.MaxMessageLength
	if maxLen <= 0 {
		maxLen = DefaultMaxMessageLength
	}

	// Frames are short JSON; allow headroom over the content cap for
	// escaping and envelope fields.
	client.configureRead(int64(maxLen)*4 + 1024)
	go client.writePump()

	g.Registry.Join(client.RoomID, client.UserID, client)
	g.Log.Info().
		Str("user_id", client.UserID).
		Str("group_id", client.RoomID).
		Msg("ws joined")

	online := g.Registry.OnlineUsers(client.RoomID)
	client.Send(ConnectedFrame(client.RoomID, online))
	g.Registry.Broadcast(client.RoomID, UserJoinedFrame(client.UserID, client.UserName, online), client.UserID)

	// Message loop: strictly sequential per connection. A failed read is
	// the only exit; protocol errors answer the sender and continue.
	for {
		data, err := client.readFrame()
		if err != nil {
			break
		}
		g.handleFrame(client, data)
	}

	g.shutdown(client)
}

// handleFrame dispatches one inbound frame. Failures here are recoverable:
// they are reported to the offending sender only and never terminate the
// loop or touch other connections.
func (g *Gateway) handleFrame(client *Client, data []byte) {
	ev, err := DecodeInbound(data)
	if err != nil {
		client.Send(ErrorFrame(err.Error()))
		return
	}

	switch ev := ev.(type) {
	case SendMessage:
		g.handleSendMessage(client, ev.Content)
	case TypingStart:
		g.Registry.Broadcast(client.RoomID, TypingFrame(client.UserID, client.UserName, true), client.UserID)
	case TypingStop:
		g.Registry.Broadcast(client.RoomID, TypingFrame(client.UserID, client.UserName, false), client.UserID)
	}
}

// handleSendMessage validates, persists, then broadcasts. Validation happens
// before any side effect; a failed save is reported to the sender and the
// message is not broadcast, since only durably saved messages fan out.
func (g *Gateway) handleSendMessage(client *Client, content string) {
	maxLen := g.MaxMessageLength
	if maxLen <= 0 {
		maxLen = DefaultMaxMessageLength
	}

	content = strings.TrimSpace(content)
	if content == "" {
		client.Send(ErrorFrame("message content cannot be empty"))
		return
	}
	if utf8.RuneCountInString(content) > maxLen {
		client.Send(ErrorFrame(fmt.Sprintf("message too long (max %d characters)", maxLen)))
		return
	}

	msg, err := g.Archive.SaveMessage(context.Background(), client.RoomID, client.UserID, client.UserName, content)
	if err != nil {
		g.Log.Error().Err(err).
			Str("user_id", client.UserID).
			Str("group_id", client.RoomID).
			Msg("persist message failed")
		client.Send(ErrorFrame("failed to save message"))
		return
	}
	metricMessagesPersisted.Inc()

	frame := NewMessageFrame(*msg)

	// The generic broadcast excludes the sender's user; the direct send then
	// delivers exactly one copy to each of the sender's open connections,
	// multi-tab included.
	g.Registry.Broadcast(client.RoomID, frame, client.UserID)
	g.Registry.SendToUser(client.RoomID, client.UserID, frame)
}

// shutdown runs the Closing → Closed transition exactly once per connection:
// deregister, then announce departure when the user's last connection in the
// room is gone. run has a single exit path, so no extra guard is needed.
func (g *Gateway) shutdown(client *Client) {
	lastOfUser := g.Registry.Leave(client.RoomID, client.UserID, client)
	client.Close()

	if lastOfUser {
		online := g.Registry.OnlineUsers(client.RoomID)
		g.Registry.Broadcast(client.RoomID, UserLeftFrame(client.UserID, client.UserName, online), "")
	}

	g.Log.Info().
		Str("user_id", client.UserID).
		Str("group_id", client.RoomID).
		Msg("ws left")
}
