package main

import (
	"context"
	"time"

	applearning "github.com/wucy1/ProDocuX/internal/application/learning"
	"github.com/wucy1/ProDocuX/internal/infrastructure/messaging/kafka"
	"github.com/wucy1/ProDocuX/internal/infrastructure/monitoring/prometheus"
	learningtypes "github.com/wucy1/ProDocuX/pkg/types/learning"
)

// metricsRecorder feeds the service's measurements into the prometheus
// instrument set.
type metricsRecorder struct {
	m *prometheus.Metrics
}

func (r metricsRecorder) EventFinished(source learningtypes.EventSource, status learningtypes.EventStatus, diffs int) {
	r.m.EventsTotal.WithLabelValues(string(source), string(status)).Inc()
	r.m.DiffsPerEvent.Observe(float64(diffs))
}

func (r metricsRecorder) Confidence(v float64) {
	r.m.RuleConfidence.Observe(v)
}

func (r metricsRecorder) ProfileVersion(profile string, version int) {
	r.m.ProfileVersion.WithLabelValues(profile).Set(float64(version))
}

func (r metricsRecorder) LockWait(d time.Duration) {
	r.m.LockWaitSeconds.Observe(d.Seconds())
}

func (r metricsRecorder) OperationDone(operation string, d time.Duration) {
	r.m.LearnDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// kafkaNotifier bridges the service's notification port to the kafka
// producer.
type kafkaNotifier struct {
	producer *kafka.Producer
}

func (n kafkaNotifier) Publish(ctx context.Context, note applearning.Notification) error {
	return n.producer.Publish(ctx, kafka.EventNotification{
		EventID:        note.EventID,
		WorkID:         note.WorkID,
		Profile:        note.Profile,
		Source:         note.Source,
		Status:         note.Status,
		DiffCount:      note.DiffCount,
		ProfileVersion: note.ProfileVersion,
		Reason:         note.Reason,
		OccurredAt:     note.OccurredAt,
	})
}

// pingChecker adapts any Ping-style dependency to the health handler.
type pingChecker struct {
	name string
	ping func(ctx context.Context) error
}

func (c pingChecker) Name() string                    { return c.name }
func (c pingChecker) Check(ctx context.Context) error { return c.ping(ctx) }
