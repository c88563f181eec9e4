// Inbound and outbound websocket frames.
//
// Frames are JSON objects discriminated by a "type" field. Inbound frames are
// decoded into a closed set of typed values (never a loosely-typed map);
// decoding yields either a typed event or an error the gateway reports back
// to the sender. Outbound frames are constructed through the helpers below so
// every payload shape lives in one place.
package ws

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Inbound frame types (client → server).
const (
	TypeSendMessage = "send_message"
	TypeTypingStart = "typing_start"
	TypeTypingStop  = "typing_stop"
)

// Outbound frame types (server → client).
const (
	TypeConnected  = "connected"
	TypeUserJoined = "user_joined"
	TypeUserLeft   = "user_left"
	TypeNewMessage = "new_message"
	TypeTyping     = "typing"
	TypeError      = "error"
)

// InboundEvent is the closed union of frames a client may send. Exactly one
// implementation exists per recognized "type" value.
type InboundEvent interface {
	inboundEvent()
}

// SendMessage asks the server to persist and broadcast a chat message.
type SendMessage struct {
	Content string
}

// TypingStart signals that the sender began typing.
type TypingStart struct{}

// TypingStop signals that the sender stopped typing.
type TypingStop struct{}

func (SendMessage) inboundEvent() {}
func (TypingStart) inboundEvent() {}
func (TypingStop) inboundEvent()  {}

// DecodeError distinguishes a malformed or unrecognized frame from transport
// failures. The gateway replies with an error frame and keeps the connection
// open.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string { return e.Reason }

// inboundFrame is the raw JSON envelope before the type switch.
type inboundFrame struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// DecodeInbound parses one client frame into a typed event. Malformed JSON,
// a missing type, or an unknown type produce a *DecodeError; content
// validation is deliberately left to the gateway so a rejected message still
// reaches the sender as a specific error.
func DecodeInbound(data []byte) (InboundEvent, error) {
	var f inboundFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, &DecodeError{Reason: "invalid message format"}
	}
	switch f.Type {
	case TypeSendMessage:
		return SendMessage{Content: f.Content}, nil
	case TypeTypingStart:
		return TypingStart{}, nil
	case TypeTypingStop:
		return TypingStop{}, nil
	case "":
		return nil, &DecodeError{Reason: "missing message type"}
	default:
		return nil, &DecodeError{Reason: fmt.Sprintf("unknown message type: %s", f.Type)}
	}
}

// MessagePayload is the persisted message as carried inside a new_message
// frame.
type MessagePayload struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Sender    string    `json:"sender"`
	SenderID  string    `json:"senderId"`
	GroupID   string    `json:"groupId"`
	CreatedAt time.Time `json:"createdAt"`
}

// outboundFrame is the single wire shape for all server → client frames.
// Optional fields are omitted per type.
type outboundFrame struct {
	Type        string          `json:"type"`
	Message     json.RawMessage `json:"message,omitempty"`
	GroupID     string          `json:"groupId,omitempty"`
	UserID      string          `json:"userId,omitempty"`
	UserName    string          `json:"userName,omitempty"`
	IsTyping    *bool           `json:"isTyping,omitempty"`
	OnlineUsers []string        `json:"onlineUsers,omitempty"`
}

// encodingErrorFrame matches the wire shape of ErrorFrame.
var encodingErrorFrame = []byte(`{"type":"error","message":"internal encoding error"}`)

func marshalFrame(f outboundFrame) []byte {
	b, err := json.Marshal(f)
	if err != nil {
		// outboundFrame contains only marshalable fields; unreachable.
		return encodingErrorFrame
	}
	return b
}

func rawString(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}

// ConnectedFrame confirms a successful join to the joining connection only.
func ConnectedFrame(groupID string, online []string) []byte {
	return marshalFrame(outboundFrame{
		Type:        TypeConnected,
		Message:     rawString("Connected to group chat"),
		GroupID:     groupID,
		OnlineUsers: sortedUsers(online),
	})
}

// UserJoinedFrame announces a user's arrival to the rest of the room.
func UserJoinedFrame(userID, userName string, online []string) []byte {
	return marshalFrame(outboundFrame{
		Type:        TypeUserJoined,
		UserID:      userID,
		UserName:    userName,
		OnlineUsers: sortedUsers(online),
	})
}

// UserLeftFrame announces a user's departure to the remainder of the room.
func UserLeftFrame(userID, userName string, online []string) []byte {
	return marshalFrame(outboundFrame{
		Type:        TypeUserLeft,
		UserID:      userID,
		UserName:    userName,
		OnlineUsers: sortedUsers(online),
	})
}

// NewMessageFrame carries a persisted chat message to room members.
func NewMessageFrame(m MessagePayload) []byte {
	raw, _ := json.Marshal(m)
	return marshalFrame(outboundFrame{Type: TypeNewMessage, Message: raw})
}

// TypingFrame carries the ephemeral typing indicator.
func TypingFrame(userID, userName string, isTyping bool) []byte {
	return marshalFrame(outboundFrame{
		Type:     TypeTyping,
		UserID:   userID,
		UserName: userName,
		IsTyping: &isTyping,
	})
}

// ErrorFrame reports a recoverable protocol or persistence failure to one
// sender.
func ErrorFrame(msg string) []byte {
	return marshalFrame(outboundFrame{Type: TypeError, Message: rawString(msg)})
}

// sortedUsers returns a deterministic copy of an online-user snapshot so
// frames are stable for clients and tests.
func sortedUsers(users []string) []string {
	if len(users) == 0 {
		return []string{}
	}
	out := make([]string, len(users))
	copy(out, users)
	sort.Strings(out)
	return out
}
