// Package ws implements the real-time chat transport: single-use connection
// tickets, the in-memory room registry, and the per-connection gateway that
// bridges authenticated websocket clients into group chat rooms.
//
// This file implements the TicketStore. A ticket is a short-lived, single-use
// opaque credential: the REST layer issues one to an authenticated session,
// and the websocket upgrade redeems it exactly once to recover the user
// identity. Expiry is enforced at read time (lazy) and additionally by a
// background sweep, so correctness never depends on a timer firing before a
// concurrent redemption.
package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTicketTTL is the ticket lifetime used when none is configured.
const DefaultTicketTTL = 30 * time.Second

// ticketEntry is the stored side of an issued ticket. Entries are write-once:
// they are created by Issue and removed by Consume or the sweeper, never
// mutated.
type ticketEntry struct {
	userID    string
	expiresAt time.Time
}

// TicketStore issues and redeems single-use websocket tickets.
//
// All methods are safe for concurrent use. Consume is an atomic
// check-and-delete: for any issued ticket, at most one caller ever receives
// the owning user ID, regardless of how many redemption attempts race.
type TicketStore struct {
	mu      sync.Mutex
	tickets map[string]ticketEntry
	ttl     time.Duration

	now  func() time.Time // test seam
	done chan struct{}
	once sync.Once
}

// NewTicketStore constructs a TicketStore with the given TTL (values <= 0 fall
// back to DefaultTicketTTL) and starts a background sweeper that removes
// expired-but-unconsumed entries. Call Close to stop the sweeper.
func NewTicketStore(ttl time.Duration) *TicketStore {
	if ttl <= 0 {
		ttl = DefaultTicketTTL
	}
	s := &TicketStore{
		tickets: make(map[string]ticketEntry),
		ttl:     ttl,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go s.sweep(ttl / 2)
	return s
}

// Issue creates a ticket owned by userID and returns its opaque value. The
// value is a v4 UUID: crypto/rand-backed and globally unique, so it cannot be
// guessed or collide with another outstanding ticket.
func (s *TicketStore) Issue(userID string) string {
	value := uuid.NewString()
	s.mu.Lock()
	s.tickets[value] = ticketEntry{
		userID:    userID,
		expiresAt: s.now().Add(s.ttl),
	}
	s.mu.Unlock()
	return value
}

// Consume atomically looks up and deletes the ticket. It returns the owning
// user ID and true when the ticket exists and has not expired. A missing,
// expired, or already-consumed ticket returns ("", false); an expired entry
// is deleted on the way out. This is a normal outcome, not an error: the
// caller turns it into an authentication failure.
func (s *TicketStore) Consume(value string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.tickets[value]
	if !ok {
		return "", false
	}
	delete(s.tickets, value)
	if s.now().After(entry.expiresAt) {
		return "", false
	}
	return entry.userID, true
}

// Len reports the number of outstanding (issued, unconsumed, possibly
// expired) tickets. Diagnostic only.
func (s *TicketStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tickets)
}

// Close stops the background sweeper. Outstanding tickets remain consumable
// until they expire; Close is idempotent.
func (s *TicketStore) Close() {
	s.once.Do(func() { close(s.done) })
}

// sweep periodically drops expired entries so abandoned tickets do not
// accumulate. Consume already rejects expired tickets, so the sweep is purely
// a memory bound.
func (s *TicketStore) sweep(every time.Duration) {
	if every <= 0 {
		every = DefaultTicketTTL / 2
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-t.C:
			now := s.now()
			s.mu.Lock()
			for v, e := range s.tickets {
				if now.After(e.expiresAt) {
					delete(s.tickets, v)
				}
			}
			s.mu.Unlock()
		}
	}
}
