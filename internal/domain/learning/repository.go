package learning

import "context"

// EventRepository persists learning events per workflow.  Events are
// appended in submission order and listed back in that order; the trend
// computation depends on it.
type EventRepository interface {
	// Append stores one event.
	Append(ctx context.Context, event *Event) error

	// ListByWork returns the workflow's events in submission order.
	ListByWork(ctx context.Context, workID string) ([]*Event, error)

	// ClearWork drops a workflow's recorded history.
	ClearWork(ctx context.Context, workID string) error
}
