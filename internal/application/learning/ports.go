// Package learning orchestrates the learning pipeline: diffing, pattern
// classification, transformation scoring, event persistence, and the
// locked, versioned profile commit.
package learning

import (
	"context"
	"time"

	learningtypes "github.com/wucy1/ProDocuX/pkg/types/learning"
)

// Locker serializes profile writes across concurrent learning submissions.
// Acquire blocks (bounded by the implementation's retry budget and ctx)
// and returns a release function.
type Locker interface {
	Acquire(ctx context.Context, profileName string) (release func(), err error)
}

// Cache is the optional read cache for profile loads.  GetOrSet fills dest
// from the cache or runs loader, collapsing concurrent loads of the same
// key; implementations treat undecodable entries and backend read failures
// as misses, so only loader errors surface.
type Cache interface {
	GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration,
		loader func(ctx context.Context) (interface{}, error)) error
	Delete(ctx context.Context, key string) error
}

// Notification describes a finished learning event for downstream
// consumers.
type Notification struct {
	EventID        string
	WorkID         string
	Profile        string
	Source         learningtypes.EventSource
	Status         learningtypes.EventStatus
	DiffCount      int
	ProfileVersion int
	Reason         string
	OccurredAt     time.Time
}

// Notifier publishes event notifications.  Publishing is best-effort: a
// broker outage must not fail the learning operation.
type Notifier interface {
	Publish(ctx context.Context, n Notification) error
}

// Archiver stores the corrected documents Word learning ran against.
type Archiver interface {
	Store(ctx context.Context, workID, eventID string, data []byte) (key string, err error)
}

// Recorder receives operational measurements.  All methods must be safe
// with a nil-free no-op implementation so instrumentation stays optional.
type Recorder interface {
	EventFinished(source learningtypes.EventSource, status learningtypes.EventStatus, diffs int)
	Confidence(v float64)
	ProfileVersion(profile string, version int)
	LockWait(d time.Duration)
	OperationDone(operation string, d time.Duration)
}
