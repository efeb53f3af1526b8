package sets

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/2beens/gymsession/internal/gymstats"
	"github.com/2beens/gymsession/internal/telemetry/metrics"
	"github.com/2beens/gymsession/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=logger_mocks_test.go -package=sets_test

// Backend persists sets. Successful writes are expected to invalidate the
// cached reads of the exercise (today's sets, history, personal records).
type Backend interface {
	PersonalRecords(ctx context.Context, exercise string) ([]gymstats.PersonalRecord, error)
	LogSet(ctx context.Context, req gymstats.LogSetRequest) (*gymstats.LogSetResponse, error)
	DeleteSet(ctx context.Context, setID int, exercise string) error
}

type LastInputStore interface {
	Save(ctx context.Context, exercise string, weight float64, reps int) error
}

// Notifier gets the celebratory feedback of a logged set.
type Notifier interface {
	PersonalRecord(exercise string, result gymstats.PRResult)
}

type LogRequest struct {
	// SessionID is nil for sets logged outside a workout session
	SessionID   *int
	CategoryID  int
	ExerciseID  int
	Exercise    string
	BarLoaded   bool
	AddedWeight float64
	Reps        int
}

type LoggedSet struct {
	Set         gymstats.Set
	TotalWeight float64
	// PRs is the local, provisional evaluation against the known bests
	PRs gymstats.PRResult
	// BackendPRs is what the backend recorded, the authority on persisted records
	BackendPRs []gymstats.PRKind
}

type LoggerParams struct {
	Backend    Backend
	LastInput  LastInputStore
	Normalizer gymstats.Normalizer
	Notifier   Notifier
	Metrics    *metrics.Manager
}

type Logger struct {
	backend        Backend
	lastInput      LastInputStore
	normalizer     gymstats.Normalizer
	notifier       Notifier
	metricsManager *metrics.Manager

	// latest issued log request token, per exercise
	tokensMu sync.Mutex
	tokens   map[string]uint64
}

func NewLogger(params LoggerParams) *Logger {
	normalizer := params.Normalizer
	if normalizer.BarWeight <= 0 {
		normalizer = gymstats.NewNormalizer(gymstats.StandardBarWeight)
	}
	return &Logger{
		backend:        params.Backend,
		lastInput:      params.LastInput,
		normalizer:     normalizer,
		notifier:       params.Notifier,
		metricsManager: params.Metrics,
		tokens:         make(map[string]uint64),
	}
}

// Validate checks the request without touching the network.
func Validate(req LogRequest) error {
	if strings.TrimSpace(req.Exercise) == "" {
		return gymstats.NewValidationError("exercise", "exercise name is required")
	}
	if req.Reps <= 0 {
		return gymstats.NewValidationError("reps", "must be a positive integer")
	}
	if math.IsNaN(req.AddedWeight) || math.IsInf(req.AddedWeight, 0) {
		return gymstats.NewValidationError("weight", "must be a number")
	}
	if req.AddedWeight < 0 {
		return gymstats.NewValidationError("weight", "must not be negative")
	}
	return nil
}

// Log validates and submits a new set. Record flags are computed locally
// before the submission; on failure nothing local is touched.
func (l *Logger) Log(ctx context.Context, req LogRequest) (_ *LoggedSet, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "setLogger.log")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	if err := Validate(req); err != nil {
		return nil, err
	}

	totalWeight := l.normalizer.TotalWeight(req.AddedWeight, req.BarLoaded)
	bests := l.knownBests(ctx, req.Exercise)
	prs := gymstats.Evaluate(totalWeight, req.Reps, bests)

	token := l.issueToken(req.Exercise)
	logged, err := l.backend.LogSet(ctx, gymstats.LogSetRequest{
		CategoryID: req.CategoryID,
		Exercise:   req.Exercise,
		ExerciseID: req.ExerciseID,
		SessionID:  req.SessionID,
		Weight:     req.AddedWeight,
		Reps:       req.Reps,
		IsBarbell:  req.BarLoaded,
	})
	if err != nil {
		return nil, fmt.Errorf("log set of [%s]: %w", req.Exercise, err)
	}

	// an older request finishing last must not overwrite the newer input
	if l.isLatestToken(req.Exercise, token) {
		if l.lastInput != nil {
			if err := l.lastInput.Save(ctx, req.Exercise, req.AddedWeight, req.Reps); err != nil {
				log.Errorf("set logger: save last input of [%s]: %s", req.Exercise, err)
			}
		}
	} else {
		log.Debugf("set logger: newer log of [%s] in flight, last input not saved", req.Exercise)
	}

	if l.metricsManager != nil {
		l.metricsManager.CounterLoggedSets.Inc()
		for _, kind := range prs.Kinds() {
			l.metricsManager.CounterPersonalRecords.WithLabelValues(string(kind)).Inc()
		}
	}

	log.Debugf(
		"set logger: [%s] %v (%v total) x %d logged, set #%d, prs: %v",
		req.Exercise, req.AddedWeight, totalWeight, req.Reps, logged.SetNumber, prs.Kinds(),
	)
	if prs.Any() {
		log.Infof("set logger: new personal record on [%s]: %v", req.Exercise, prs.Kinds())
		if l.notifier != nil {
			l.notifier.PersonalRecord(req.Exercise, prs)
		}
	}

	if logged.TotalWeight == 0 {
		logged.TotalWeight = totalWeight
	}
	return &LoggedSet{
		Set:         logged.Set,
		TotalWeight: totalWeight,
		PRs:         prs,
		BackendPRs:  logged.PRsAchieved,
	}, nil
}

// Delete removes a set. Records of other sets are not recomputed here.
func (l *Logger) Delete(ctx context.Context, setID int, exercise string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "setLogger.delete")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	if setID <= 0 {
		return gymstats.NewValidationError("set id", "must be a positive integer")
	}

	if err := l.backend.DeleteSet(ctx, setID, exercise); err != nil {
		return fmt.Errorf("delete set %d: %w", setID, err)
	}

	if l.metricsManager != nil {
		l.metricsManager.CounterDeletedSets.Inc()
	}
	log.Debugf("set logger: set %d of [%s] deleted", setID, exercise)
	return nil
}

// knownBests degrades to no prior record when the records can not be read.
func (l *Logger) knownBests(ctx context.Context, exercise string) gymstats.KnownBests {
	records, err := l.backend.PersonalRecords(ctx, exercise)
	if err != nil {
		log.Warnf("set logger: personal records of [%s] unavailable, evaluating against none: %s", exercise, err)
		return gymstats.KnownBests{}
	}
	return gymstats.KnownBestsFromRecords(records)
}

func (l *Logger) issueToken(exercise string) uint64 {
	l.tokensMu.Lock()
	defer l.tokensMu.Unlock()
	l.tokens[exercise]++
	return l.tokens[exercise]
}

func (l *Logger) isLatestToken(exercise string, token uint64) bool {
	l.tokensMu.Lock()
	defer l.tokensMu.Unlock()
	return l.tokens[exercise] == token
}
