package ws

import (
	"sync"
	"testing"
	"time"
)

func newTestTicketStore(ttl time.Duration) *TicketStore {
	// No sweeper: the tests drive expiry through the clock seam.
	return &TicketStore{
		tickets: make(map[string]ticketEntry),
		ttl:     ttl,
		now:     time.Now,
		done:    make(chan struct{}),
	}
}

func TestTicketIssueConsume(t *testing.T) {
	s := newTestTicketStore(30 * time.Second)

	v := s.Issue("user-1")
	if v == "" {
		t.Fatalf("Issue returned empty ticket")
	}
	if got := s.Len(); got != 1 {
		t.Fatalf("Len = %d, want 1", got)
	}

	uid, ok := s.Consume(v)
	if !ok || uid != "user-1" {
		t.Fatalf("Consume = (%q, %v), want (user-1, true)", uid, ok)
	}
	if got := s.Len(); got != 0 {
		t.Fatalf("Len after consume = %d, want 0", got)
	}
}

func TestTicketSingleUse(t *testing.T) {
	s := newTestTicketStore(30 * time.Second)

	v := s.Issue("user-1")
	if _, ok := s.Consume(v); !ok {
		t.Fatalf("first Consume failed")
	}
	if uid, ok := s.Consume(v); ok {
		t.Fatalf("second Consume succeeded with uid=%q, want rejection", uid)
	}
}

func TestTicketUnknownValue(t *testing.T) {
	s := newTestTicketStore(30 * time.Second)

	if uid, ok := s.Consume("no-such-ticket"); ok {
		t.Fatalf("Consume of unknown ticket = (%q, true), want rejection", uid)
	}
}

func TestTicketExpiry(t *testing.T) {
	s := newTestTicketStore(30 * time.Second)

	base := time.Now()
	s.now = func() time.Time { return base }
	v := s.Issue("user-1")

	s.now = func() time.Time { return base.Add(31 * time.Second) }
	if uid, ok := s.Consume(v); ok {
		t.Fatalf("Consume of expired ticket = (%q, true), want rejection", uid)
	}
	// The expired entry is removed even though redemption failed.
	if got := s.Len(); got != 0 {
		t.Fatalf("Len after expired consume = %d, want 0", got)
	}
}

func TestTicketNotExpiredAtBoundary(t *testing.T) {
	s := newTestTicketStore(30 * time.Second)

	base := time.Now()
	s.now = func() time.Time { return base }
	v := s.Issue("user-1")

	// Exactly at expiresAt the ticket is still valid; only strictly-after
	// rejects.
	s.now = func() time.Time { return base.Add(30 * time.Second) }
	if uid, ok := s.Consume(v); !ok || uid != "user-1" {
		t.Fatalf("Consume at boundary = (%q, %v), want (user-1, true)", uid, ok)
	}
}

func TestTicketConcurrentConsumeSingleWinner(t *testing.T) {
	s := newTestTicketStore(30 * time.Second)
	v := s.Issue("user-1")

	const attempts = 64
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	start := make(chan struct{})
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, ok := s.Consume(v); ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	close(start)
	wg.Wait()

	if wins != 1 {
		t.Fatalf("concurrent Consume winners = %d, want exactly 1", wins)
	}
}

func TestTicketSweepRemovesExpired(t *testing.T) {
	s := newTestTicketStore(time.Millisecond)
	s.Issue("user-1")
	s.Issue("user-2")

	go s.sweep(time.Millisecond)
	defer s.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.Len() == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("sweeper did not remove expired tickets, Len = %d", s.Len())
}

func TestTicketStoreCloseIdempotent(t *testing.T) {
	s := NewTicketStore(0)
	if s.ttl != DefaultTicketTTL {
		t.Fatalf("ttl = %v, want default %v", s.ttl, DefaultTicketTTL)
	}
	s.Close()
	s.Close()
}
