package learning

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/wucy1/ProDocuX/internal/config"
	"github.com/wucy1/ProDocuX/internal/domain/diff"
	"github.com/wucy1/ProDocuX/internal/domain/document"
	domain "github.com/wucy1/ProDocuX/internal/domain/learning"
	"github.com/wucy1/ProDocuX/internal/domain/pattern"
	"github.com/wucy1/ProDocuX/internal/domain/profile"
	"github.com/wucy1/ProDocuX/internal/domain/transform"
	"github.com/wucy1/ProDocuX/internal/infrastructure/monitoring/logging"
	"github.com/wucy1/ProDocuX/pkg/errors"
	learningtypes "github.com/wucy1/ProDocuX/pkg/types/learning"
	"github.com/wucy1/ProDocuX/pkg/types/record"
)

// profileCacheKeyPrefix namespaces cached profile reads.
const profileCacheKeyPrefix = "profile:"

// Dependencies carries the service's collaborators.  Locker, Cache,
// Notifier, Archiver and Metrics may be nil; the service falls back to an
// in-process lock and no-ops for the rest.
type Dependencies struct {
	Profiles  profile.Repository
	Events    domain.EventRepository
	Extractor *document.Extractor
	Locker    Locker
	Cache     Cache
	Notifier  Notifier
	Archiver  Archiver
	Metrics   Recorder
	Logger    logging.Logger
}

// Service runs the learning pipeline end to end.
type Service struct {
	cfg config.LearningConfig

	profiles  profile.Repository
	events    domain.EventRepository
	extractor *document.Extractor

	classifier *pattern.Classifier
	inferencer *transform.Inferencer
	scorer     *transform.Scorer
	aggregator *domain.Aggregator
	updater    *profile.Updater

	locker   Locker
	cache    Cache
	cacheTTL time.Duration
	notifier Notifier
	archiver Archiver
	metrics  Recorder
	logger   logging.Logger
}

// NewService constructs the Service.
func NewService(cfg config.LearningConfig, cacheTTL time.Duration, deps Dependencies) (*Service, error) {
	if deps.Profiles == nil {
		return nil, errors.InvalidParam("profile repository is required")
	}
	if deps.Events == nil {
		return nil, errors.InvalidParam("event repository is required")
	}
	if deps.Logger == nil {
		deps.Logger = logging.NewNopLogger()
	}
	if deps.Locker == nil {
		deps.Locker = NewLocalLocker(cfg.LockTimeout)
	}
	if deps.Metrics == nil {
		deps.Metrics = nopRecorder{}
	}

	return &Service{
		cfg:        cfg,
		profiles:   deps.Profiles,
		events:     deps.Events,
		extractor:  deps.Extractor,
		classifier: pattern.NewClassifier(cfg.DateLayouts),
		inferencer: transform.NewInferencer(),
		scorer: transform.NewScorer(
			transform.WithWeights(cfg.SimilarityWeight, cfg.PatternWeight, cfg.RepetitionWeight),
			transform.WithRepeatCap(cfg.RepeatCap),
		),
		aggregator: domain.NewAggregator(
			domain.WithMinRepeat(cfg.MinRepeat),
			domain.WithStableThreshold(cfg.StableThreshold),
		),
		updater:  profile.NewUpdater(),
		locker:   deps.Locker,
		cache:    deps.Cache,
		cacheTTL: cacheTTL,
		notifier: deps.Notifier,
		archiver: deps.Archiver,
		metrics:  deps.Metrics,
		logger:   deps.Logger.Named("learning-service"),
	}, nil
}

// JSONLearnRequest is one corrected-record submission.
type JSONLearnRequest struct {
	WorkID    string
	Profile   string
	Original  record.Record
	Corrected record.Record
}

// WordLearnRequest is one corrected-document submission.
type WordLearnRequest struct {
	WorkID   string
	Profile  string
	Original record.Record
	Document []byte
}

// LearnFromJSON diffs the original against the corrected record and runs
// the learning pipeline over the differences.
func (s *Service) LearnFromJSON(ctx context.Context, req JSONLearnRequest) (*learningtypes.LearningResult, error) {
	started := time.Now()
	defer func() { s.metrics.OperationDone("learn_json", time.Since(started)) }()

	prof, err := s.loadProfile(ctx, req.Profile)
	if err != nil {
		return nil, err
	}

	analyzer := diff.NewAnalyzer(diff.WithNaturalKeys(naturalKeys(prof)...))
	diffs, err := analyzer.Compare(req.Original, req.Corrected)
	if err != nil {
		return nil, err
	}

	return s.runPipeline(ctx, req.WorkID, req.Profile, learningtypes.SourceJSON, diffs, nil)
}

// LearnFromWord extracts the corrected record from an edited Word document
// and runs the learning pipeline against the original record.  Fields the
// reviewer marked with a colored run carry forced full confidence.
func (s *Service) LearnFromWord(ctx context.Context, req WordLearnRequest) (*learningtypes.LearningResult, error) {
	started := time.Now()
	defer func() { s.metrics.OperationDone("learn_word", time.Since(started)) }()

	if s.extractor == nil {
		return nil, errors.Internal("word extraction is not configured")
	}

	prof, err := s.loadProfile(ctx, req.Profile)
	if err != nil {
		return nil, err
	}

	extraction, err := s.extractor.Extract(req.Document, prof.Fields)
	if err != nil {
		return nil, err
	}

	analyzer := diff.NewAnalyzer(diff.WithNaturalKeys(naturalKeys(prof)...))
	diffs, err := analyzer.Compare(req.Original, extraction.Record)
	if err != nil {
		return nil, err
	}

	result, err := s.runPipeline(ctx, req.WorkID, req.Profile, learningtypes.SourceWord, diffs, extraction.MarkedFields)
	if err != nil {
		return nil, err
	}

	if s.archiver != nil {
		if key, aerr := s.archiver.Store(ctx, req.WorkID, result.EventID, req.Document); aerr != nil {
			s.logger.Warn("corrected document archive failed", logging.Err(aerr))
		} else {
			s.logger.Debug("corrected document archived", logging.String("key", key))
		}
	}
	return result, nil
}

// LearnFromRepeated aggregates the workflow's history into stable rules and
// merges them into the profile.
func (s *Service) LearnFromRepeated(ctx context.Context, workID, profileName string) (*learningtypes.LearningResult, error) {
	started := time.Now()
	defer func() { s.metrics.OperationDone("learn_repeated", time.Since(started)) }()

	events, err := s.events.ListByWork(ctx, workID)
	if err != nil {
		return nil, err
	}
	history := domain.NewWorkHistory(workID, events)
	stable, trends := s.aggregator.Aggregate(history)

	event, err := domain.NewEvent(workID, profileName, learningtypes.SourceRepeated, nil)
	if err != nil {
		return nil, err
	}
	event, err = event.WithPatterns(nil)
	if err != nil {
		return nil, err
	}
	event, err = event.WithTransformations(nil)
	if err != nil {
		return nil, err
	}

	if len(stable) == 0 {
		reason := fmt.Sprintf("no repeatable patterns: %d events yielded no group with %d+ observations at confidence >= %.2f",
			history.Len(), s.cfg.MinRepeat, s.cfg.StableThreshold)
		event, err = event.Rejected(reason)
		if err != nil {
			return nil, err
		}
		s.finishEvent(ctx, event, 0)
		result := s.resultFromEvent(event, 0)
		result.Trends = &trends
		return result, nil
	}

	version, err := s.commitRules(ctx, profileName, stable)
	if err != nil {
		return nil, err
	}
	event, err = event.Applied()
	if err != nil {
		return nil, err
	}
	s.finishEvent(ctx, event, version)

	result := s.resultFromEvent(event, version)
	result.Trends = &trends
	return result, nil
}

// Trends returns the workflow's aggregate correction metrics.
func (s *Service) Trends(ctx context.Context, workID string) (*learningtypes.TrendMetrics, error) {
	events, err := s.events.ListByWork(ctx, workID)
	if err != nil {
		return nil, err
	}
	m := domain.NewWorkHistory(workID, events).Trends()
	return &m, nil
}

// ClearHistory drops the workflow's recorded learning events.
func (s *Service) ClearHistory(ctx context.Context, workID string) error {
	return s.events.ClearWork(ctx, workID)
}

// GetProfile returns a profile at a specific version, or the cached head
// when version is profile.LatestVersion.
func (s *Service) GetProfile(ctx context.Context, profileName string, version int) (*profile.RuleSet, error) {
	if version == profile.LatestVersion {
		return s.loadProfile(ctx, profileName)
	}
	return s.profiles.Load(ctx, profileName, version)
}

// ListVersions returns the stored versions of a profile.
func (s *Service) ListVersions(ctx context.Context, profileName string) ([]profile.VersionInfo, error) {
	return s.profiles.ListVersions(ctx, profileName)
}

// Rollback returns the profile exactly as stored at the given version and
// re-activates it by appending a copy as the new head version.  The
// returned rule set is the historical version, untouched.
func (s *Service) Rollback(ctx context.Context, profileName string, version int) (*profile.RuleSet, int, error) {
	if version < 1 {
		return nil, 0, errors.New(errors.ErrCodeProfileVersionInvalid, "rollback target must be >= 1")
	}

	release, err := s.acquireLock(ctx, profileName)
	if err != nil {
		return nil, 0, err
	}
	defer release()

	target, err := s.profiles.Load(ctx, profileName, version)
	if err != nil {
		return nil, 0, err
	}
	head, err := s.profiles.Load(ctx, profileName, profile.LatestVersion)
	if err != nil {
		return nil, 0, err
	}

	restored := target.Clone()
	restored.Version = head.Version + 1
	restored.UpdatedAt = time.Now().UTC()
	newVersion, err := s.profiles.Save(ctx, restored)
	if err != nil {
		return nil, 0, err
	}
	s.invalidateProfile(ctx, profileName)
	s.metrics.ProfileVersion(profileName, newVersion)

	s.logger.Info("profile rolled back",
		logging.String("profile", profileName),
		logging.Int("restored_version", version),
		logging.Int("new_version", newVersion))
	return target, newVersion, nil
}

// ── pipeline ─────────────────────────────────────────────────────────────────

func (s *Service) runPipeline(ctx context.Context, workID, profileName string,
	source learningtypes.EventSource, diffs []record.Diff, marked map[string]bool) (*learningtypes.LearningResult, error) {

	event, err := domain.NewEvent(workID, profileName, source, diffs)
	if err != nil {
		return nil, err
	}

	event, err = event.WithPatterns(s.classifyDiffs(diffs))
	if err != nil {
		return nil, err
	}

	history, err := s.events.ListByWork(ctx, workID)
	if err != nil {
		return nil, err
	}
	transformations := s.scoreDiffs(diffs, history, marked)
	event, err = event.WithTransformations(transformations)
	if err != nil {
		return nil, err
	}
	for _, tr := range transformations {
		s.metrics.Confidence(tr.Confidence)
	}

	if len(transformations) == 0 {
		return s.reject(ctx, event, "no scorable corrections in submission")
	}
	mean := meanConfidence(transformations)
	if mean < s.cfg.ApplyThreshold {
		return s.reject(ctx, event,
			fmt.Sprintf("mean confidence %.2f below apply threshold %.2f", mean, s.cfg.ApplyThreshold))
	}

	version, err := s.commitRules(ctx, profileName, rulesFromTransformations(transformations, history))
	if err != nil {
		return nil, err
	}
	event, err = event.Applied()
	if err != nil {
		return nil, err
	}
	s.finishEvent(ctx, event, version)
	return s.resultFromEvent(event, version), nil
}

func (s *Service) reject(ctx context.Context, event *domain.Event, reason string) (*learningtypes.LearningResult, error) {
	event, err := event.Rejected(reason)
	if err != nil {
		return nil, err
	}
	s.finishEvent(ctx, event, 0)
	return s.resultFromEvent(event, 0), nil
}

// classifyDiffs tags the surviving side of every diff.  Nothing is dropped:
// non-scalar values classify through their JSON rendering.
func (s *Service) classifyDiffs(diffs []record.Diff) []learningtypes.Pattern {
	patterns := make([]learningtypes.Pattern, 0, len(diffs))
	for _, d := range diffs {
		v := d.Corrected
		if d.Kind == record.DiffRemoved {
			v = d.Original
		}
		patterns = append(patterns, learningtypes.Pattern{
			Path:       d.Path,
			Tag:        s.classifier.Classify(valueString(v)),
			Confidence: 1.0,
		})
	}
	return patterns
}

// scoreDiffs infers and scores a transformation for every modified diff.
// Added/removed diffs carry no before/after pair to infer from; they still
// count toward trend metrics through the event's diff list.
func (s *Service) scoreDiffs(diffs []record.Diff, history []*domain.Event, marked map[string]bool) []learningtypes.Transformation {
	var out []learningtypes.Transformation
	for _, d := range diffs {
		if d.Kind != record.DiffModified {
			continue
		}
		origStr := valueString(d.Original)
		corrStr := valueString(d.Corrected)

		tag, similarity := s.inferencer.Infer(origStr, corrStr)
		origTag := s.classifier.Classify(origStr)
		corrTag := s.classifier.Classify(corrStr)

		repetitions := priorObservations(history, d.Path, tag) + 1
		forced := marked[d.Path]
		confidence := s.scorer.Score(transform.Input{
			RawSimilarity:  similarity,
			PatternsMatch:  origTag == corrTag,
			Repetitions:    repetitions,
			ForcedByMarker: forced,
		})

		out = append(out, learningtypes.Transformation{
			Path:             d.Path,
			Tag:              tag,
			OriginalPattern:  origTag,
			CorrectedPattern: corrTag,
			RawSimilarity:    similarity,
			Confidence:       confidence,
			ForcedByMarker:   forced,
		})
	}
	return out
}

// commitRules merges candidate rules into the profile under its lock and
// returns the new version.
func (s *Service) commitRules(ctx context.Context, profileName string, rules []learningtypes.TransformationRule) (int, error) {
	release, err := s.acquireLock(ctx, profileName)
	if err != nil {
		return 0, err
	}
	defer release()

	// Authoritative read: the cache is never trusted inside the lock.
	current, err := s.profiles.Load(ctx, profileName, profile.LatestVersion)
	if err != nil {
		return 0, err
	}
	next, err := s.updater.Apply(current, rules)
	if err != nil {
		return 0, err
	}
	version, err := s.profiles.Save(ctx, next)
	if err != nil {
		return 0, err
	}
	s.invalidateProfile(ctx, profileName)
	s.metrics.ProfileVersion(profileName, version)
	return version, nil
}

func (s *Service) acquireLock(ctx context.Context, profileName string) (func(), error) {
	started := time.Now()
	release, err := s.locker.Acquire(ctx, profileName)
	s.metrics.LockWait(time.Since(started))
	if err != nil {
		return nil, err
	}
	return release, nil
}

// finishEvent persists the terminal event and emits the notification.
// Neither failure mode undoes an already-committed profile version; both
// are logged and surfaced through metrics only.
func (s *Service) finishEvent(ctx context.Context, event *domain.Event, version int) {
	if err := s.events.Append(ctx, event); err != nil {
		s.logger.Error("learning event not persisted",
			logging.String("event_id", event.ID), logging.Err(err))
	}
	s.metrics.EventFinished(event.Source, event.Status, len(event.Diffs))

	if s.notifier == nil {
		return
	}
	n := Notification{
		EventID:        event.ID,
		WorkID:         event.WorkID,
		Profile:        event.Profile,
		Source:         event.Source,
		Status:         event.Status,
		DiffCount:      len(event.Diffs),
		ProfileVersion: version,
		Reason:         event.Reason,
		OccurredAt:     time.Now().UTC(),
	}
	if err := s.notifier.Publish(ctx, n); err != nil {
		s.logger.Warn("event notification not published",
			logging.String("event_id", event.ID), logging.Err(err))
	}
}

func (s *Service) resultFromEvent(event *domain.Event, version int) *learningtypes.LearningResult {
	return &learningtypes.LearningResult{
		EventID:         event.ID,
		Status:          event.Status,
		Diffs:           event.Diffs,
		Patterns:        event.Patterns,
		Transformations: event.Transformations,
		Applied:         event.Status == learningtypes.StatusApplied,
		Reason:          event.Reason,
		ProfileVersion:  version,
	}
}

// loadProfile reads through the cache when one is configured; concurrent
// loads of the same profile collapse into one store read.
func (s *Service) loadProfile(ctx context.Context, name string) (*profile.RuleSet, error) {
	if s.cache == nil {
		return s.profiles.Load(ctx, name, profile.LatestVersion)
	}
	var rs profile.RuleSet
	err := s.cache.GetOrSet(ctx, profileCacheKeyPrefix+name, &rs, s.cacheTTL,
		func(ctx context.Context) (interface{}, error) {
			return s.profiles.Load(ctx, name, profile.LatestVersion)
		})
	if err != nil {
		return nil, err
	}
	return &rs, nil
}

// InvalidateProfile drops a profile's cache entry.  The store watcher calls
// this when a profile file changes outside the API.
func (s *Service) InvalidateProfile(name string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s.invalidateProfile(ctx, name)
}

func (s *Service) invalidateProfile(ctx context.Context, name string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, profileCacheKeyPrefix+name); err != nil {
		s.logger.Warn("profile cache invalidation failed", logging.String("profile", name), logging.Err(err))
	}
}

// ── helpers ──────────────────────────────────────────────────────────────────

// naturalKeys collects fields flagged as row identities in profile hints.
func naturalKeys(prof *profile.RuleSet) []string {
	var keys []string
	for _, f := range prof.Fields {
		if flag, ok := f.Hints["natural_key"].(bool); ok && flag {
			keys = append(keys, f.Name)
		}
	}
	return keys
}

// rulesFromTransformations turns scored transformations into candidate
// rules, folding in how often each (path, tag) pair was seen before.
func rulesFromTransformations(transformations []learningtypes.Transformation, history []*domain.Event) []learningtypes.TransformationRule {
	now := time.Now().UTC()
	rules := make([]learningtypes.TransformationRule, 0, len(transformations))
	for _, tr := range transformations {
		rules = append(rules, learningtypes.TransformationRule{
			FieldPath:     tr.Path,
			Tag:           tr.Tag,
			Confidence:    tr.Confidence,
			ObservedCount: priorObservations(history, tr.Path, tr.Tag) + 1,
			LastObserved:  now,
		})
	}
	return rules
}

// priorObservations counts earlier sightings of the same (path, tag) pair
// in the workflow's history.
func priorObservations(history []*domain.Event, path string, tag learningtypes.TransformationTag) int {
	n := 0
	for _, e := range history {
		for _, tr := range e.Transformations {
			if tr.Path == path && tr.Tag == tag {
				n++
			}
		}
	}
	return n
}

func meanConfidence(transformations []learningtypes.Transformation) float64 {
	sum := 0.0
	for _, tr := range transformations {
		sum += tr.Confidence
	}
	return sum / float64(len(transformations))
}

// valueString renders any record value for classification: scalars
// directly, numbers without trailing zeros, structures as JSON.
func valueString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	case record.AbsentValue:
		return ""
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}

// nopRecorder keeps instrumentation optional.
type nopRecorder struct{}

func (nopRecorder) EventFinished(learningtypes.EventSource, learningtypes.EventStatus, int) {}
func (nopRecorder) Confidence(float64)                                                     {}
func (nopRecorder) ProfileVersion(string, int)                                             {}
func (nopRecorder) LockWait(time.Duration)                                                 {}
func (nopRecorder) OperationDone(string, time.Duration)                                    {}
