package workout

import (
	"context"
	"fmt"
	"strings"

	"github.com/2beens/gymsession/internal/cache"
	"github.com/2beens/gymsession/internal/gymstats"
	"github.com/2beens/gymsession/internal/gymstats/api"
	"github.com/2beens/gymsession/internal/gymstats/lastinput"
	"github.com/2beens/gymsession/internal/gymstats/session"
	"github.com/2beens/gymsession/internal/gymstats/sets"
	"github.com/2beens/gymsession/internal/telemetry/metrics"
	"github.com/2beens/gymsession/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
)

type Params struct {
	Client     *api.Client
	LastInput  *lastinput.Memory
	Normalizer gymstats.Normalizer
	Notifier   sets.Notifier
	Metrics    *metrics.Manager
}

// Engine drives one athlete through a workout: the session walker decides
// the current exercise, the set logger records sets against it, and the
// reference reads back the screens around it.
type Engine struct {
	client     *api.Client
	walker     *session.Walker
	logger     *sets.Logger
	lastInput  *lastinput.Memory
	normalizer gymstats.Normalizer
}

func NewEngine(params Params) *Engine {
	normalizer := params.Normalizer
	if normalizer.BarWeight <= 0 {
		normalizer = gymstats.NewNormalizer(gymstats.StandardBarWeight)
	}

	var lastInputStore sets.LastInputStore
	if params.LastInput != nil {
		lastInputStore = params.LastInput
	}

	e := &Engine{
		client: params.Client,
		logger: sets.NewLogger(sets.LoggerParams{
			Backend:    params.Client,
			LastInput:  lastInputStore,
			Normalizer: normalizer,
			Notifier:   params.Notifier,
			Metrics:    params.Metrics,
		}),
		lastInput:  params.LastInput,
		normalizer: normalizer,
	}
	e.walker = session.NewWalker(params.Client, params.Metrics).WithWeights(normalizer, e.equipmentOf)
	return e
}

func (e *Engine) Walker() *session.Walker {
	return e.walker
}

func (e *Engine) Normalizer() gymstats.Normalizer {
	return e.normalizer
}

func (e *Engine) Categories(ctx context.Context) []gymstats.Category {
	categories, err := e.client.Categories(ctx)
	if err != nil {
		log.Errorf("engine: get categories: %s", err)
		return []gymstats.Category{}
	}
	return categories
}

func (e *Engine) Exercises(ctx context.Context, categoryID int) []gymstats.Exercise {
	exercises, err := e.client.Exercises(ctx, categoryID)
	if err != nil {
		log.Errorf("engine: get exercises of category %d: %s", categoryID, err)
		return []gymstats.Exercise{}
	}
	return exercises
}

func (e *Engine) Favorites(ctx context.Context) []gymstats.Exercise {
	favorites, err := e.client.Favorites(ctx)
	if err != nil {
		log.Errorf("engine: get favorites: %s", err)
		return []gymstats.Exercise{}
	}
	return favorites
}

func (e *Engine) PersonalRecords(ctx context.Context, exercise string) []gymstats.PersonalRecord {
	records, err := e.client.PersonalRecords(ctx, exercise)
	if err != nil {
		log.Errorf("engine: get personal records of [%s]: %s", exercise, err)
		return []gymstats.PersonalRecord{}
	}
	return records
}

func (e *Engine) ExerciseHistory(ctx context.Context, exercise string) []gymstats.Set {
	history, err := e.client.ExerciseHistory(ctx, exercise)
	if err != nil {
		log.Errorf("engine: get history of [%s]: %s", exercise, err)
		return []gymstats.Set{}
	}
	e.fillTotalWeights(ctx, exercise, history)
	return history
}

func (e *Engine) HistorySummary(ctx context.Context, exercise string) []gymstats.DaySummary {
	return gymstats.SummarizeHistory(e.ExerciseHistory(ctx, exercise))
}

// TodaysSets returns today's sets of the exercise; sessionID nil means all of today's sets.
func (e *Engine) TodaysSets(ctx context.Context, exercise string, sessionID *int) []gymstats.Set {
	todaysSets, err := e.client.TodaysSets(ctx, exercise, sessionID)
	if err != nil {
		log.Errorf("engine: get today's sets of [%s]: %s", exercise, err)
		return []gymstats.Set{}
	}
	e.fillTotalWeights(ctx, exercise, todaysSets)
	return todaysSets
}

func (e *Engine) fillTotalWeights(ctx context.Context, exercise string, exerciseSets []gymstats.Set) {
	if !gymstats.MissingTotalWeight(exerciseSets) {
		return
	}
	barLoaded := gymstats.IsBarLoaded(e.equipmentByName(ctx, exercise))
	e.normalizer.FillTotalWeights(exerciseSets, barLoaded)
}

func (e *Engine) Sessions(ctx context.Context) []gymstats.Session {
	sessions, err := e.client.Sessions(ctx)
	if err != nil {
		log.Errorf("engine: list sessions: %s", err)
		return []gymstats.Session{}
	}
	return sessions
}

func (e *Engine) ToggleFavorite(ctx context.Context, exercise gymstats.Exercise) (*gymstats.FavoriteToggle, error) {
	return e.client.ToggleFavorite(ctx, exercise.ID, exercise.IsCustom)
}

// StartSession creates a session (optionally from a template) and walks into it.
func (e *Engine) StartSession(ctx context.Context, name, date string, templateID *int) (_ *gymstats.Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "engine.startSession")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	created, err := e.client.StartSession(ctx, gymstats.NewSession{
		Name:       name,
		Date:       date,
		TemplateID: templateID,
	})
	if err != nil {
		return nil, err
	}
	if err := e.walker.Load(ctx, created.ID); err != nil {
		return nil, err
	}
	return e.walker.Session(), nil
}

func (e *Engine) LoadSession(ctx context.Context, sessionID int) error {
	return e.walker.Load(ctx, sessionID)
}

// LogCurrent logs a set of the walker's current exercise, then reloads its sets.
func (e *Engine) LogCurrent(ctx context.Context, addedWeight float64, reps int) (_ *sets.LoggedSet, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "engine.logCurrent")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	current, sessionID, err := e.current()
	if err != nil {
		return nil, err
	}

	req := sets.LogRequest{
		SessionID:   &sessionID,
		CategoryID:  current.CategoryID,
		ExerciseID:  current.ExerciseID,
		Exercise:    current.ExerciseName,
		AddedWeight: addedWeight,
		Reps:        reps,
	}
	// invalid input must not even reach the exercise lookup
	if err := sets.Validate(req); err != nil {
		return nil, err
	}
	req.BarLoaded = gymstats.IsBarLoaded(e.equipmentOf(ctx, current))

	logged, err := e.logger.Log(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := e.walker.Reload(ctx); err != nil {
		log.Errorf("engine: reload sets after log: %s", err)
	}
	return logged, nil
}

// LogSet logs a set outside of the walked session.
func (e *Engine) LogSet(ctx context.Context, req sets.LogRequest) (*sets.LoggedSet, error) {
	return e.logger.Log(ctx, req)
}

// DeleteSet deletes a set of the current exercise, then reloads its sets.
func (e *Engine) DeleteSet(ctx context.Context, setID int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "engine.deleteSet")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	current, _, err := e.current()
	if err != nil {
		return err
	}
	if err := e.logger.Delete(ctx, setID, current.ExerciseName); err != nil {
		return err
	}

	if err := e.walker.Reload(ctx); err != nil {
		log.Errorf("engine: reload sets after delete: %s", err)
	}
	return nil
}

// Prefill returns the last input of the current exercise, if any.
func (e *Engine) Prefill(ctx context.Context) (*lastinput.Snapshot, bool) {
	current, err := e.walker.Current()
	if err != nil {
		return nil, false
	}
	return e.PrefillFor(ctx, current.ExerciseName)
}

func (e *Engine) PrefillFor(ctx context.Context, exercise string) (*lastinput.Snapshot, bool) {
	if e.lastInput == nil {
		return nil, false
	}
	snapshot, found, err := e.lastInput.Load(ctx, exercise)
	if err != nil {
		log.Errorf("engine: load last input of [%s]: %s", exercise, err)
		return nil, false
	}
	return snapshot, found
}

func (e *Engine) CacheStats() cache.Stats {
	return e.client.Cache().Stats()
}

func (e *Engine) current() (gymstats.SessionExercise, int, error) {
	if e.walker.State().Terminal() {
		return gymstats.SessionExercise{}, 0, gymstats.ErrSessionFinished
	}
	current, err := e.walker.Current()
	if err != nil {
		return gymstats.SessionExercise{}, 0, err
	}
	loaded := e.walker.Session()
	if loaded == nil {
		return gymstats.SessionExercise{}, 0, gymstats.ErrNoSession
	}
	return current, loaded.ID, nil
}

// equipmentOf falls back to the (cached) exercise list of the category
// when the session entry does not carry the equipment tag. Custom and system
// exercises number their ids separately, so the id only decides when the
// name matches nothing and no other exercise of the category shares it.
func (e *Engine) equipmentOf(ctx context.Context, current gymstats.SessionExercise) string {
	if current.Equipment != "" {
		return current.Equipment
	}

	exercises := e.Exercises(ctx, current.CategoryID)
	for _, exercise := range exercises {
		if strings.EqualFold(exercise.Name, current.ExerciseName) {
			return exercise.Equipment
		}
	}

	var byID []gymstats.Exercise
	for _, exercise := range exercises {
		if exercise.ID == current.ExerciseID {
			byID = append(byID, exercise)
		}
	}
	if len(byID) == 1 {
		return byID[0].Equipment
	}

	log.Warnf("engine: equipment of [%s] unknown, treating as not bar loaded", current.ExerciseName)
	return ""
}

// equipmentByName looks the exercise up in the walked session first, then
// in every category.
func (e *Engine) equipmentByName(ctx context.Context, name string) string {
	if loaded := e.walker.Session(); loaded != nil {
		for _, exercise := range loaded.Exercises {
			if strings.EqualFold(exercise.ExerciseName, name) {
				return e.equipmentOf(ctx, exercise)
			}
		}
	}

	for _, category := range e.Categories(ctx) {
		for _, exercise := range e.Exercises(ctx, category.ID) {
			if strings.EqualFold(exercise.Name, name) {
				return exercise.Equipment
			}
		}
	}
	log.Warnf("engine: exercise [%s] not found, treating as not bar loaded", name)
	return ""
}

// Describe renders the walker position, e.g. "2/3 Dumbbell Fly (in progress)".
func (e *Engine) Describe() string {
	current, err := e.walker.Current()
	if err != nil {
		return e.walker.State().String()
	}
	position, total := e.walker.Progress()
	return fmt.Sprintf("%d/%d %s (%s)", position, total, current.ExerciseName, e.walker.State())
}
