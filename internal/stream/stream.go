// Package stream is the fire-and-forget side channel for access lifecycle
// events. Delivery is at-least-once only for connected subscribers; slow
// consumers are dropped rather than blocked on.
package stream

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event kinds published on the access side channel.
const (
	EventRequestCreated    = "access_request.created"
	EventRequestApproved   = "access_request.approved"
	EventRequestDenied     = "access_request.denied"
	EventDelegationCreated = "delegation.created"
	EventDelegationRevoked = "delegation.revoked"
)

// AccessEvent describes a state change in the access subsystem.
type AccessEvent struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	RequestID    string    `json:"requestId,omitempty"`
	DelegationID int64     `json:"delegationId,omitempty"`
	ActorAdminID string    `json:"actorAdminId"`
	OwnerAdminID string    `json:"ownerAdminId,omitempty"`
	ResourceType string    `json:"resourceType,omitempty"`
	ResourceID   int64     `json:"resourceId,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Stream fan-outs access events to all active subscribers (SSE clients).
type Stream struct {
	mu   sync.RWMutex
	subs map[int]chan AccessEvent
	next int
}

// New initialises an empty stream.
func New() *Stream {
	return &Stream{subs: make(map[int]chan AccessEvent)}
}

// Subscribe registers a subscriber and returns a channel which will receive
// events. The channel is closed when the provided context ends.
func (s *Stream) Subscribe(ctx context.Context) <-chan AccessEvent {
	ch := make(chan AccessEvent, 16)

	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = ch
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		close(ch)
		s.mu.Unlock()
	}()

	return ch
}

// Publish fan-outs the event to all subscribers, stamping id and timestamp
// when unset.
func (s *Stream) Publish(evt AccessEvent) {
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- evt:
		default:
			// Drop when subscriber is slow to avoid blocking.
		}
	}
}
