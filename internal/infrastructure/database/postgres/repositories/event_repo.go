package repositories

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wucy1/ProDocuX/internal/domain/learning"
	"github.com/wucy1/ProDocuX/internal/infrastructure/monitoring/logging"
	appErrors "github.com/wucy1/ProDocuX/pkg/errors"
	learningtypes "github.com/wucy1/ProDocuX/pkg/types/learning"
	"github.com/wucy1/ProDocuX/pkg/types/record"
)

// EventRepo is a postgres-backed learning.EventRepository.
type EventRepo struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewEventRepo constructs an EventRepo.
func NewEventRepo(pool *pgxpool.Pool, logger logging.Logger) *EventRepo {
	return &EventRepo{pool: pool, logger: logger.Named("event-repo")}
}

// eventPayload is the JSONB body; identity and status live in their own
// columns for querying.
type eventPayload struct {
	Diffs           []record.Diff                 `json:"diffs"`
	Patterns        []learningtypes.Pattern       `json:"patterns"`
	Transformations []learningtypes.Transformation `json:"transformations"`
	Reason          string                        `json:"reason,omitempty"`
}

// Append implements learning.EventRepository.
func (r *EventRepo) Append(ctx context.Context, event *learning.Event) error {
	payload, err := json.Marshal(eventPayload{
		Diffs:           event.Diffs,
		Patterns:        event.Patterns,
		Transformations: event.Transformations,
		Reason:          event.Reason,
	})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeSerialization, "cannot encode event")
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO learning_events (id, work_id, profile_name, source, status, payload, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		event.ID, event.WorkID, event.Profile, string(event.Source), string(event.Status),
		payload, event.CreatedAt)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "event append failed")
	}
	return nil
}

// ListByWork implements learning.EventRepository.
func (r *EventRepo) ListByWork(ctx context.Context, workID string) ([]*learning.Event, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, work_id, profile_name, source, status, payload, created_at
		 FROM learning_events WHERE work_id = $1 ORDER BY created_at, id`, workID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "event list failed")
	}
	defer rows.Close()

	var events []*learning.Event
	for rows.Next() {
		var (
			e              learning.Event
			source, status string
			payload        []byte
			createdAt      time.Time
		)
		if err := rows.Scan(&e.ID, &e.WorkID, &e.Profile, &source, &status, &payload, &createdAt); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "event scan failed")
		}
		var body eventPayload
		if err := json.Unmarshal(payload, &body); err != nil {
			return nil, appErrors.New(appErrors.ErrCodeLearningHistoryUnavailable, "stored event is not valid JSON").
				WithDetail(e.ID).WithCause(err)
		}
		e.Source = learningtypes.EventSource(source)
		e.Status = learningtypes.EventStatus(status)
		e.CreatedAt = createdAt
		e.Diffs = body.Diffs
		e.Patterns = body.Patterns
		e.Transformations = body.Transformations
		e.Reason = body.Reason
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "event list failed")
	}
	return events, nil
}

// ClearWork implements learning.EventRepository.
func (r *EventRepo) ClearWork(ctx context.Context, workID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM learning_events WHERE work_id = $1`, workID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "event clear failed")
	}
	r.logger.Info("learning history cleared",
		logging.String("work_id", workID), logging.Int64("events", tag.RowsAffected()))
	return nil
}
