// The room registry: the single piece of state shared between connection
// goroutines. It maps room → user → set of clients and is the source of
// truth for "which sockets receive this room's events". Rooms exist
// implicitly: created on first join, removed on last leave.
//
// Critical sections are short and never perform network I/O; broadcasts
// snapshot the recipient set under the read lock and hand frames to each
// client's non-blocking Send outside of any delivery work.
package ws

import "sync"

// RoomStats is a diagnostic snapshot of one room's population.
type RoomStats struct {
	UniqueUsers      int `json:"uniqueUsers"`
	TotalConnections int `json:"totalConnections"`
}

// RoomRegistry tracks which connections are present in which room, grouped
// by owning user. All methods are safe for concurrent use. The registry
// never closes connections and never mutates a client; join/leave are the
// only mutation paths, both driven by the gateway.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[string]map[string]map[*Client]struct{}
}

// NewRoomRegistry returns an empty registry.
func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{rooms: make(map[string]map[string]map[*Client]struct{})}
}

// Join registers a client under (roomID, userID), creating the room and the
// user's connection set as needed. A user already present simply gains
// another connection (multi-tab, multi-device).
func (r *RoomRegistry) Join(roomID, userID string, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		room = make(map[string]map[*Client]struct{})
		r.rooms[roomID] = room
	}
	conns, ok := room[userID]
	if !ok {
		conns = make(map[*Client]struct{})
		room[userID] = conns
	}
	conns[c] = struct{}{}
	metricRoomConnections.Inc()
}

// Leave removes a client from (roomID, userID), pruning the user entry when
// their last connection leaves and the room when its last user leaves.
// It returns true when this was the user's final connection in the room.
// Leaving a room or user that is not registered is a no-op returning false.
func (r *RoomRegistry) Leave(roomID, userID string, c *Client) (lastOfUser bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return false
	}
	conns, ok := room[userID]
	if !ok {
		return false
	}
	if _, ok := conns[c]; !ok {
		return false
	}
	delete(conns, c)
	metricRoomConnections.Dec()
	if len(conns) > 0 {
		return false
	}
	delete(room, userID)
	if len(room) == 0 {
		delete(r.rooms, roomID)
	}
	return true
}

// Broadcast delivers payload to every connection in the room except those
// owned by excludeUserID (pass "" to exclude nobody). Peers that cannot
// accept the frame (mid-close, backed up) are skipped; their cleanup belongs
// to the disconnect path, not to broadcast.
func (r *RoomRegistry) Broadcast(roomID string, payload []byte, excludeUserID string) {
	for _, c := range r.snapshot(roomID, excludeUserID) {
		if c.Send(payload) {
			metricFramesBroadcast.Inc()
		}
	}
}

// SendToUser delivers payload to every connection owned by userID in the
// room; a no-op when the user is not present.
func (r *RoomRegistry) SendToUser(roomID, userID string, payload []byte) {
	r.mu.RLock()
	var targets []*Client
	if room, ok := r.rooms[roomID]; ok {
		for c := range room[userID] {
			targets = append(targets, c)
		}
	}
	r.mu.RUnlock()

	for _, c := range targets {
		if c.Send(payload) {
			metricFramesBroadcast.Inc()
		}
	}
}

// OnlineUsers returns a snapshot of user IDs currently present in the room.
// Advisory only: it can be stale the instant it is read and must never be
// used for authorization.
func (r *RoomRegistry) OnlineUsers(roomID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room := r.rooms[roomID]
	users := make([]string, 0, len(room))
	for uid := range room {
		users = append(users, uid)
	}
	return users
}

// Stats returns a per-room population snapshot for diagnostics.
func (r *RoomRegistry) Stats() map[string]RoomStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]RoomStats, len(r.rooms))
	for roomID, room := range r.rooms {
		st := RoomStats{UniqueUsers: len(room)}
		for _, conns := range room {
			st.TotalConnections += len(conns)
		}
		out[roomID] = st
	}
	return out
}

// snapshot copies the recipient list under the read lock so delivery happens
// with no lock held.
func (r *RoomRegistry) snapshot(roomID, excludeUserID string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return nil
	}
	var out []*Client
	for uid, conns := range room {
		if excludeUserID != "" && uid == excludeUserID {
			continue
		}
		for c := range conns {
			out = append(out, c)
		}
	}
	return out
}
