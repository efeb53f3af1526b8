package workout_test

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/2beens/gymsession/internal/cache"
	"github.com/2beens/gymsession/internal/gymstats"
	"github.com/2beens/gymsession/internal/gymstats/api"
	"github.com/2beens/gymsession/internal/gymstats/lastinput"
	"github.com/2beens/gymsession/internal/gymstats/session"
	"github.com/2beens/gymsession/internal/gymstats/workout"
	"github.com/2beens/gymsession/internal/telemetry/metrics"
	"github.com/2beens/gymsession/internal/testinternals"

	"github.com/go-redis/redismock/v8"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 3, 8, 18, 30, 0, 0, time.UTC)

type recordingNotifier struct {
	mu      sync.Mutex
	records map[string]gymstats.PRResult
}

func (n *recordingNotifier) PersonalRecord(exercise string, result gymstats.PRResult) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.records[exercise] = result
}

type testEngine struct {
	engine    *workout.Engine
	backend   *testinternals.FakeBackend
	redisMock redismock.ClientMock
	notifier  *recordingNotifier
	metrics   *metrics.Manager
}

func newTestEngine(t *testing.T) testEngine {
	t.Helper()

	backend := testinternals.NewFakeBackend()
	t.Cleanup(backend.Close)

	db, redisMock := redismock.NewClientMock()
	t.Cleanup(func() {
		_ = db.Close()
	})
	memory := lastinput.NewMemory(db, lastinput.DefaultHorizon)
	memory.NowFunc = func() time.Time {
		return testNow
	}

	metricsManager := metrics.NewTestManager()
	notifier := &recordingNotifier{records: make(map[string]gymstats.PRResult)}
	client := api.NewClient(
		backend.URL(),
		api.NewHTTPClient(5*time.Second, metricsManager),
		cache.New(cache.Params{Metrics: metricsManager}),
		metricsManager,
	)

	engine := workout.NewEngine(workout.Params{
		Client:     client,
		LastInput:  memory,
		Normalizer: gymstats.NewNormalizer(gymstats.StandardBarWeight),
		Notifier:   notifier,
		Metrics:    metricsManager,
	})

	return testEngine{
		engine:    engine,
		backend:   backend,
		redisMock: redisMock,
		notifier:  notifier,
		metrics:   metricsManager,
	}
}

func lastInputJson(weight float64, reps int) string {
	return fmt.Sprintf(`{"weight":%v,"reps":%d,"timestamp":%d}`, weight, reps, testNow.UnixMilli())
}

func TestEngine_ReferenceReads(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()

	assert.Len(t, te.engine.Categories(ctx), 2)
	assert.Len(t, te.engine.Exercises(ctx, 1), 3)
	assert.Len(t, te.engine.Favorites(ctx), 1)
	assert.Len(t, te.engine.PersonalRecords(ctx, "Bench Press"), 2)
	assert.Empty(t, te.engine.ExerciseHistory(ctx, "Bench Press"))
	assert.Empty(t, te.engine.TodaysSets(ctx, "Bench Press", nil))
	assert.Len(t, te.engine.Sessions(ctx), 2)

	stats := te.engine.CacheStats()
	assert.Equal(t, 6, stats.Valid)
	assert.Equal(t, 0, stats.Expired)
}

func TestEngine_ReferenceReads_DegradeToEmpty(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()

	te.backend.FailNext(testinternals.RouteCategories, http.StatusInternalServerError, "db down")
	categories := te.engine.Categories(ctx)
	assert.NotNil(t, categories)
	assert.Empty(t, categories)

	// not cached, the next read gets through
	assert.Len(t, te.engine.Categories(ctx), 2)

	te.backend.FailNext(testinternals.RouteExercises, http.StatusInternalServerError, "")
	assert.Empty(t, te.engine.Exercises(ctx, 2))

	te.backend.FailNext(testinternals.RoutePersonalRecords, http.StatusBadGateway, "")
	assert.Empty(t, te.engine.PersonalRecords(ctx, "Bench Press"))

	te.backend.Close()
	assert.Empty(t, te.engine.Favorites(ctx))
	assert.Empty(t, te.engine.ExerciseHistory(ctx, "Squat"))
	assert.Empty(t, te.engine.TodaysSets(ctx, "Squat", nil))
	assert.Empty(t, te.engine.Sessions(ctx))
}

func TestEngine_StartSessionFromTemplate(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()
	templateID := testinternals.PushDayTemplateID

	started, err := te.engine.StartSession(ctx, "Push day again", testinternals.Today, &templateID)
	require.NoError(t, err)
	assert.Equal(t, "Push day again", started.Name)
	assert.Len(t, started.Exercises, 3)

	walker := te.engine.Walker()
	assert.Equal(t, session.StateInProgress, walker.State())
	assert.Equal(t, 0, walker.Index())
	assert.Equal(t, "1/3 Bench Press (in progress)", te.engine.Describe())
}

func TestEngine_LogCurrent_BarbellRecord(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, te.engine.LoadSession(ctx, testinternals.PushDaySessionID))
	assert.Empty(t, te.engine.Walker().CurrentSets())

	te.redisMock.ExpectSet("gymsession-last-input||Bench Press", lastInputJson(135, 5), lastinput.DefaultHorizon).SetVal("OK")

	logged, err := te.engine.LogCurrent(ctx, 135, 5)
	require.NoError(t, err)
	assert.Equal(t, 180.0, logged.TotalWeight)
	assert.True(t, logged.PRs.IsWeightPR)
	assert.False(t, logged.PRs.IsRepsPR)
	assert.Equal(t, []gymstats.PRKind{gymstats.PRKindWeight}, logged.BackendPRs)
	assert.Equal(t, gymstats.PRResult{IsWeightPR: true}, te.notifier.records["Bench Press"])

	// the current set list was refetched
	currentSets := te.engine.Walker().CurrentSets()
	require.Len(t, currentSets, 1)
	assert.Equal(t, logged.Set.ID, currentSets[0].ID)
	assert.Equal(t, 180.0, currentSets[0].TotalWeight)

	// the new record is what the next set is evaluated against
	assert.Equal(t,
		gymstats.KnownBests{Weight: 180, Reps: 5},
		gymstats.KnownBestsFromRecords(te.engine.PersonalRecords(ctx, "Bench Press")),
	)

	assert.Equal(t, 1.0, testutil.ToFloat64(te.metrics.CounterLoggedSets))
	require.NoError(t, te.redisMock.ExpectationsWereMet())
}

func TestEngine_LogCurrent_NotBarLoaded(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, te.engine.LoadSession(ctx, testinternals.PushDaySessionID))
	require.NoError(t, te.engine.Walker().Advance(ctx))

	te.redisMock.ExpectSet("gymsession-last-input||Dumbbell Fly", lastInputJson(30, 12), lastinput.DefaultHorizon).SetVal("OK")

	logged, err := te.engine.LogCurrent(ctx, 30, 12)
	require.NoError(t, err)
	assert.Equal(t, 30.0, logged.TotalWeight)
	// first set ever of the exercise
	assert.Equal(t, gymstats.PRResult{IsWeightPR: true, IsRepsPR: true}, logged.PRs)

	require.NoError(t, te.redisMock.ExpectationsWereMet())
}

func TestEngine_LogCurrent_ValidationError_NoRequest(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, te.engine.LoadSession(ctx, testinternals.PushDaySessionID))

	logged, err := te.engine.LogCurrent(ctx, 135, 0)
	require.Error(t, err)
	assert.Nil(t, logged)
	assert.ErrorIs(t, err, gymstats.ErrValidation)
	assert.Zero(t, te.backend.Hits(testinternals.RouteLogSet))
	assert.Zero(t, te.backend.Hits(testinternals.RoutePersonalRecords))
	assert.Zero(t, te.backend.Hits(testinternals.RouteExercises))
	require.NoError(t, te.redisMock.ExpectationsWereMet())
}

func TestEngine_LogCurrent_PersistenceError(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, te.engine.LoadSession(ctx, testinternals.PushDaySessionID))
	te.backend.FailNext(testinternals.RouteLogSet, http.StatusBadRequest, "Weight too high")

	_, err := te.engine.LogCurrent(ctx, 1000, 1)
	require.Error(t, err)
	assert.Equal(t, "Weight too high", gymstats.UserMessage(err))
	assert.Empty(t, te.notifier.records)
	assert.Empty(t, te.engine.Walker().CurrentSets())
	// no last input write expected
	require.NoError(t, te.redisMock.ExpectationsWereMet())
}

func TestEngine_DeleteSet_RemovesFromTodaysSets(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()
	sessionID := testinternals.PushDaySessionID

	require.NoError(t, te.engine.LoadSession(ctx, sessionID))
	te.redisMock.ExpectSet("gymsession-last-input||Bench Press", lastInputJson(100, 8), lastinput.DefaultHorizon).SetVal("OK")
	te.redisMock.ExpectSet("gymsession-last-input||Bench Press", lastInputJson(100, 7), lastinput.DefaultHorizon).SetVal("OK")

	first, err := te.engine.LogCurrent(ctx, 100, 8)
	require.NoError(t, err)
	second, err := te.engine.LogCurrent(ctx, 100, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Set.SetNumber)

	require.Len(t, te.engine.TodaysSets(ctx, "Bench Press", &sessionID), 2)

	require.NoError(t, te.engine.DeleteSet(ctx, first.Set.ID))

	todaysSets := te.engine.TodaysSets(ctx, "Bench Press", &sessionID)
	require.Len(t, todaysSets, 1)
	assert.Equal(t, second.Set.ID, todaysSets[0].ID)
	require.Len(t, te.engine.Walker().CurrentSets(), 1)

	err = te.engine.DeleteSet(ctx, first.Set.ID)
	require.Error(t, err)
	assert.Equal(t, "Set not found", gymstats.UserMessage(err))

	assert.Equal(t, 1.0, testutil.ToFloat64(te.metrics.CounterDeletedSets))
	require.NoError(t, te.redisMock.ExpectationsWereMet())
}

func TestEngine_Prefill(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()

	_, found := te.engine.Prefill(ctx)
	assert.False(t, found)

	require.NoError(t, te.engine.LoadSession(ctx, testinternals.PushDaySessionID))

	te.redisMock.ExpectGet("gymsession-last-input||Bench Press").SetVal(lastInputJson(135, 5))
	snapshot, found := te.engine.Prefill(ctx)
	require.True(t, found)
	assert.Equal(t, 135.0, snapshot.Weight)
	assert.Equal(t, 5, snapshot.Reps)

	te.redisMock.ExpectGet("gymsession-last-input||Squat").RedisNil()
	_, found = te.engine.PrefillFor(ctx, "Squat")
	assert.False(t, found)

	require.NoError(t, te.redisMock.ExpectationsWereMet())
}

func TestEngine_CompletedSessionRejectsWrites(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, te.engine.LoadSession(ctx, testinternals.PushDaySessionID))
	require.NoError(t, te.engine.Walker().Jump(ctx, 1))
	require.NoError(t, te.engine.Walker().Complete(ctx))

	state, ok := te.backend.SessionState(testinternals.PushDaySessionID)
	require.True(t, ok)
	assert.Equal(t, gymstats.SessionStatusCompleted, state.Status)
	assert.Equal(t, 1, state.CurrentIndex)

	_, err := te.engine.LogCurrent(ctx, 100, 5)
	assert.ErrorIs(t, err, gymstats.ErrSessionFinished)
	assert.ErrorIs(t, te.engine.DeleteSet(ctx, 1), gymstats.ErrSessionFinished)
	assert.Zero(t, te.backend.Hits(testinternals.RouteLogSet))

	// a finished session can not be walked into again
	assert.ErrorIs(t, te.engine.LoadSession(ctx, testinternals.PushDaySessionID), gymstats.ErrSessionFinished)
}

func TestEngine_NoSession(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()

	_, err := te.engine.LogCurrent(ctx, 100, 5)
	assert.ErrorIs(t, err, gymstats.ErrNoSession)
	assert.ErrorIs(t, te.engine.DeleteSet(ctx, 1), gymstats.ErrNoSession)
	assert.Equal(t, "not started", te.engine.Describe())
}

func TestEngine_ToggleFavorite(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()

	legs := te.engine.Exercises(ctx, 2)
	require.Len(t, legs, 2)
	assert.False(t, legs[1].IsFavorite)

	toggle, err := te.engine.ToggleFavorite(ctx, legs[1])
	require.NoError(t, err)
	assert.True(t, toggle.IsFavorite)

	assert.True(t, te.engine.Exercises(ctx, 2)[1].IsFavorite)
	assert.Len(t, te.engine.Favorites(ctx), 2)
}

func TestEngine_HistorySummary(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()

	te.backend.AddSet(gymstats.Set{Exercise: "Squat", ExerciseID: 4, Weight: 100, Reps: 10, Date: "2024-03-01"})
	te.backend.AddSet(gymstats.Set{Exercise: "Squat", ExerciseID: 4, Weight: 120, Reps: 6, Date: "2024-03-01"})
	te.backend.AddSet(gymstats.Set{Exercise: "Squat", ExerciseID: 4, Weight: 125, Reps: 5})

	summary := te.engine.HistorySummary(ctx, "Squat")
	require.Len(t, summary, 2)
	assert.Equal(t, testinternals.Today, summary[0].Date)
	assert.Equal(t, 2, summary[1].Sets)
	assert.Equal(t, 120.0, summary[1].MaxWeight)
}

func TestEngine_ReadSetsGetTotalWeight(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()

	// the backend reads only send the entered weight
	sessionID := testinternals.PushDaySessionID
	te.backend.AddSet(gymstats.Set{Exercise: "Bench Press", ExerciseID: 1, SessionID: &sessionID, SetNumber: 1, Weight: 135, Reps: 5})
	te.backend.AddSet(gymstats.Set{Exercise: "Squat", ExerciseID: 4, Weight: 100, Reps: 5, Date: "2024-03-01"})
	te.backend.AddSet(gymstats.Set{Exercise: "Leg Press", ExerciseID: 5, Weight: 200, Reps: 10})

	require.NoError(t, te.engine.LoadSession(ctx, testinternals.PushDaySessionID))
	currentSets := te.engine.Walker().CurrentSets()
	require.Len(t, currentSets, 1)
	assert.Equal(t, 135.0, currentSets[0].Weight)
	assert.Equal(t, 180.0, currentSets[0].TotalWeight)

	todaysSets := te.engine.TodaysSets(ctx, "Bench Press", nil)
	require.Len(t, todaysSets, 1)
	assert.Equal(t, 180.0, todaysSets[0].TotalWeight)

	// Squat is in the session but not current
	history := te.engine.ExerciseHistory(ctx, "Squat")
	require.Len(t, history, 1)
	assert.Equal(t, 145.0, history[0].TotalWeight)

	// not part of the session, found through the categories
	legPress := te.engine.TodaysSets(ctx, "Leg Press", nil)
	require.Len(t, legPress, 1)
	assert.Equal(t, 200.0, legPress[0].TotalWeight)
}

func TestEngine_EquipmentOfCustomExerciseSharingSystemID(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()

	// custom ids are numbered apart from system ones, id 1 is also Bench Press
	te.backend.AddExercise(gymstats.Exercise{ID: 1, Name: "Cable Crossover", CategoryID: 1, IsCustom: true})
	sessionID := te.backend.AddSession("Custom day",
		gymstats.SessionExercise{ExerciseID: 1, ExerciseName: "Cable Crossover", CategoryID: 1, Order: 0},
	)

	require.NoError(t, te.engine.LoadSession(ctx, sessionID))

	te.redisMock.ExpectSet("gymsession-last-input||Cable Crossover", lastInputJson(30, 10), lastinput.DefaultHorizon).SetVal("OK")

	logged, err := te.engine.LogCurrent(ctx, 30, 10)
	require.NoError(t, err)
	assert.Equal(t, 30.0, logged.TotalWeight)

	currentSets := te.engine.Walker().CurrentSets()
	require.Len(t, currentSets, 1)
	assert.Equal(t, 30.0, currentSets[0].TotalWeight)

	require.NoError(t, te.redisMock.ExpectationsWereMet())
}
