package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/2beens/gymsession/internal/gymstats"
	"github.com/2beens/gymsession/internal/telemetry/metrics"
	"github.com/2beens/gymsession/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=walker_mocks_test.go -package=session_test

type Backend interface {
	Session(ctx context.Context, sessionID int) (*gymstats.Session, error)
	AdvanceSession(ctx context.Context, sessionID, currentIndex int) error
	CompleteSession(ctx context.Context, sessionID int) error
	CancelSession(ctx context.Context, sessionID int) error
	TodaysSets(ctx context.Context, exercise string, sessionID *int) ([]gymstats.Set, error)
}

// EquipmentFunc resolves the equipment tag of a session exercise.
type EquipmentFunc func(ctx context.Context, exercise gymstats.SessionExercise) string

func sessionEquipment(_ context.Context, exercise gymstats.SessionExercise) string {
	return exercise.Equipment
}

type State int

const (
	StateNotStarted State = iota
	StateInProgress
	StateCompleted
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not started"
	case StateInProgress:
		return "in progress"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled
}

// Walker steps through the exercises of one workout session. The exercise
// list is fixed once loaded, only the pointer into it moves. Every pointer
// move reloads the sets of the current exercise; a load superseded by a
// newer one is discarded.
type Walker struct {
	backend        Backend
	metricsManager *metrics.Manager
	normalizer     gymstats.Normalizer
	equipment      EquipmentFunc

	mu      sync.Mutex
	state   State
	session *gymstats.Session
	index   int
	sets    []gymstats.Set
	// loadGeneration increases on every pointer move and reload
	loadGeneration uint64
}

func NewWalker(backend Backend, metricsManager *metrics.Manager) *Walker {
	return &Walker{
		backend:        backend,
		metricsManager: metricsManager,
		normalizer:     gymstats.NewNormalizer(gymstats.StandardBarWeight),
		equipment:      sessionEquipment,
		state:          StateNotStarted,
	}
}

// WithWeights sets how the total weight of loaded sets is derived. By default
// the standard bar is used, and only the equipment tag of the session entry.
// Call it before the walker is used.
func (w *Walker) WithWeights(normalizer gymstats.Normalizer, equipment EquipmentFunc) *Walker {
	w.normalizer = normalizer
	if equipment != nil {
		w.equipment = equipment
	}
	return w
}

// Load fetches the session and positions the walker on the exercise the
// session was left at. Finished and empty sessions are rejected.
func (w *Walker) Load(ctx context.Context, sessionID int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "walker.load")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	session, err := w.backend.Session(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load session %d: %w", sessionID, err)
	}
	if session.Status.IsFinished() {
		return fmt.Errorf("load session %d (%s): %w", sessionID, session.Status, gymstats.ErrSessionFinished)
	}
	if len(session.Exercises) == 0 {
		return fmt.Errorf("load session %d: %w", sessionID, gymstats.ErrEmptySession)
	}

	index := session.CurrentIndex
	if index < 0 {
		index = 0
	}
	if index >= len(session.Exercises) {
		index = len(session.Exercises) - 1
	}

	w.mu.Lock()
	w.session = session
	w.state = StateInProgress
	w.index = index
	load := w.moveLocked()
	w.mu.Unlock()

	log.Debugf("walker: session %d [%s] loaded, %d exercises, at %d", session.ID, session.Name, len(session.Exercises), index)
	w.loadSets(ctx, load)
	return nil
}

func (w *Walker) Advance(ctx context.Context) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "walker.advance")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	return w.moveTo(ctx, func(index, count int) (int, error) {
		if index >= count-1 {
			return index, gymstats.ErrAtLastExercise
		}
		return index + 1, nil
	})
}

func (w *Walker) Retreat(ctx context.Context) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "walker.retreat")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	return w.moveTo(ctx, func(index, _ int) (int, error) {
		if index <= 0 {
			return index, gymstats.ErrAtFirstExercise
		}
		return index - 1, nil
	})
}

func (w *Walker) Jump(ctx context.Context, target int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "walker.jump")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	return w.moveTo(ctx, func(_, count int) (int, error) {
		if target < 0 || target >= count {
			return 0, fmt.Errorf("jump to %d of %d: %w", target, count, gymstats.ErrIndexOutOfRange)
		}
		return target, nil
	})
}

// Reload refetches the sets of the current exercise.
func (w *Walker) Reload(ctx context.Context) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "walker.reload")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	w.mu.Lock()
	if err := w.checkInProgressLocked(); err != nil {
		w.mu.Unlock()
		return err
	}
	load := w.moveLocked()
	w.mu.Unlock()

	w.loadSets(ctx, load)
	return nil
}

// Complete closes the session on the backend. On failure the walker stays in progress.
func (w *Walker) Complete(ctx context.Context) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "walker.complete")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	return w.finish(ctx, StateCompleted, gymstats.SessionStatusCompleted, w.backend.CompleteSession)
}

// Cancel abandons the session. Sets already logged stay persisted.
func (w *Walker) Cancel(ctx context.Context) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "walker.cancel")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	return w.finish(ctx, StateCancelled, gymstats.SessionStatusCancelled, w.backend.CancelSession)
}

func (w *Walker) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Walker) Index() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.index
}

// Current returns the exercise the walker points at.
func (w *Walker) Current() (gymstats.SessionExercise, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.session == nil {
		return gymstats.SessionExercise{}, gymstats.ErrNoSession
	}
	return w.session.Exercises[w.index], nil
}

// Session returns a copy of the loaded session, nil if none.
func (w *Walker) Session() *gymstats.Session {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.session == nil {
		return nil
	}
	session := *w.session
	session.CurrentIndex = w.index
	session.Exercises = append([]gymstats.SessionExercise(nil), w.session.Exercises...)
	return &session
}

// CurrentSets returns the sets loaded for the current exercise.
func (w *Walker) CurrentSets() []gymstats.Set {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]gymstats.Set(nil), w.sets...)
}

// Progress returns the 1 based position of the current exercise and the exercise count.
func (w *Walker) Progress() (position, total int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.session == nil {
		return 0, 0
	}
	return w.index + 1, len(w.session.Exercises)
}

type setsLoad struct {
	generation uint64
	sessionID  int
	index      int
	exercise   gymstats.SessionExercise
}

func (w *Walker) moveTo(ctx context.Context, next func(index, count int) (int, error)) error {
	w.mu.Lock()
	if err := w.checkInProgressLocked(); err != nil {
		w.mu.Unlock()
		return err
	}
	target, err := next(w.index, len(w.session.Exercises))
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.index = target
	load := w.moveLocked()
	w.mu.Unlock()

	// pointer persistence is best effort, the walker is the source of truth while it runs
	if err := w.backend.AdvanceSession(ctx, load.sessionID, load.index); err != nil {
		log.Errorf("walker: persist pointer %d of session %d: %s", load.index, load.sessionID, err)
	}

	w.loadSets(ctx, load)
	return nil
}

// moveLocked starts a new load generation for the current exercise.
func (w *Walker) moveLocked() setsLoad {
	w.loadGeneration++
	w.sets = nil
	return setsLoad{
		generation: w.loadGeneration,
		sessionID:  w.session.ID,
		index:      w.index,
		exercise:   w.session.Exercises[w.index],
	}
}

func (w *Walker) loadSets(ctx context.Context, load setsLoad) {
	name := load.exercise.ExerciseName
	sessionID := load.sessionID
	sets, err := w.backend.TodaysSets(ctx, name, &sessionID)
	if err == nil && gymstats.MissingTotalWeight(sets) {
		barLoaded := gymstats.IsBarLoaded(w.equipment(ctx, load.exercise))
		w.normalizer.FillTotalWeights(sets, barLoaded)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if load.generation != w.loadGeneration {
		log.Debugf("walker: discarding stale sets of [%s] (generation %d, now %d)", name, load.generation, w.loadGeneration)
		if w.metricsManager != nil {
			w.metricsManager.CounterStaleLoads.Inc()
		}
		return
	}
	if err != nil {
		// reads degrade to an empty list
		log.Errorf("walker: load sets of [%s]: %s", name, err)
		w.sets = []gymstats.Set{}
		return
	}
	w.sets = sets
}

func (w *Walker) finish(
	ctx context.Context,
	state State,
	status gymstats.SessionStatus,
	notifyBackend func(ctx context.Context, sessionID int) error,
) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.checkInProgressLocked(); err != nil {
		return err
	}
	if err := notifyBackend(ctx, w.session.ID); err != nil {
		return fmt.Errorf("%s session %d: %w", status, w.session.ID, err)
	}

	w.state = state
	w.session.Status = status
	// any load still in flight belongs to a finished session
	w.loadGeneration++
	log.Debugf("walker: session %d %s at exercise %d", w.session.ID, status, w.index)
	return nil
}

func (w *Walker) checkInProgressLocked() error {
	switch w.state {
	case StateNotStarted:
		return gymstats.ErrNoSession
	case StateCompleted, StateCancelled:
		return gymstats.ErrSessionFinished
	}
	return nil
}
