package task

import (
	"context"
	"sync"

	"github.com/imgajeed76/csvview/internal/util"
)

// Ticket identifies one started operation. Tickets from the same process
// compare in start order.
type Ticket string

// Slot allows one in-flight operation of a kind. Starting a new one cancels
// the previous one's context and invalidates its ticket, so a late result can
// be recognized and dropped.
type Slot struct {
	mu      sync.Mutex
	current Ticket
	cancel  context.CancelFunc
}

// Begin starts a new operation derived from parent, superseding any
// operation already in flight.
func (s *Slot) Begin(parent context.Context) (context.Context, Ticket) {
	ctx, cancel := context.WithCancel(parent)
	t := Ticket(util.NewULID())

	s.mu.Lock()
	prev := s.cancel
	s.current = t
	s.cancel = cancel
	s.mu.Unlock()

	if prev != nil {
		prev()
	}
	return ctx, t
}

// Current reports whether t is the latest operation and has not been
// cancelled or finished.
func (s *Slot) Current(t Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return t != "" && t == s.current
}

// Finish releases t if it is still current. It returns false when t was
// superseded, in which case its result must be discarded.
func (s *Slot) Finish(t Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t == "" || t != s.current {
		return false
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.current = ""
	s.cancel = nil
	return true
}

// Cancel aborts whatever operation is in flight.
func (s *Slot) Cancel() {
	s.mu.Lock()
	prev := s.cancel
	s.current = ""
	s.cancel = nil
	s.mu.Unlock()

	if prev != nil {
		prev()
	}
}

// Busy reports whether an operation is in flight.
func (s *Slot) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != ""
}
