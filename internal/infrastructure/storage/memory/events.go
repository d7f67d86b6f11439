// Package memory keeps learning history in process memory.  It is the
// event store used with the file profile backend, where no database is
// available, and doubles as the test implementation.
package memory

import (
	"context"
	"sync"

	"github.com/wucy1/ProDocuX/internal/domain/learning"
)

// EventStore is an in-memory learning.EventRepository.
type EventStore struct {
	mu     sync.RWMutex
	byWork map[string][]*learning.Event
}

// NewEventStore constructs an empty store.
func NewEventStore() *EventStore {
	return &EventStore{byWork: map[string][]*learning.Event{}}
}

// Append implements learning.EventRepository.
func (s *EventStore) Append(ctx context.Context, event *learning.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byWork[event.WorkID] = append(s.byWork[event.WorkID], event)
	return nil
}

// ListByWork implements learning.EventRepository.
func (s *EventStore) ListByWork(ctx context.Context, workID string) ([]*learning.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := s.byWork[workID]
	out := make([]*learning.Event, len(events))
	copy(out, events)
	return out, nil
}

// ClearWork implements learning.EventRepository.
func (s *EventStore) ClearWork(ctx context.Context, workID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byWork, workID)
	return nil
}
