package testinternals

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/2beens/gymsession/internal/gymstats"
	"github.com/2beens/gymsession/pkg"

	"github.com/gorilla/mux"
)

// route names, used with Hits and FailNext
const (
	RouteCategories      = "categories"
	RouteExercises       = "exercises"
	RouteFavorites       = "favorites"
	RouteToggleFavorite  = "toggle_favorite"
	RoutePersonalRecords = "personal_records"
	RouteTodaysSets      = "todays_sets"
	RouteExerciseHistory = "exercise_history"
	RouteLogSet          = "log_set"
	RouteDeleteSet       = "delete_set"
	RouteSessions        = "sessions"
	RouteSession         = "session"
	RouteStartSession    = "start_session"
	RouteAdvanceSession  = "advance_session"
	RouteCompleteSession = "complete_session"
	RouteCancelSession   = "cancel_session"
)

const (
	Today = "2024-03-08"

	PushDaySessionID     = 1
	FinishedSessionID    = 2
	PushDayTemplateID    = 1
	BenchPressExerciseID = 1
)

type failure struct {
	statusCode int
	message    string
}

// FakeBackend is an in-memory fitness backend served over httptest,
// speaking the same JSON as the real one.
type FakeBackend struct {
	Server *httptest.Server

	mu         sync.Mutex
	categories []gymstats.Category
	exercises  []gymstats.Exercise
	sets       []gymstats.Set
	records    map[string][]gymstats.PersonalRecord
	sessions   map[int]*gymstats.Session
	templates  map[int][]gymstats.SessionExercise
	hits       map[string]int
	failures   map[string]failure
	nextSetID  int
	nextSessID int
}

func NewFakeBackend() *FakeBackend {
	b := &FakeBackend{
		categories: []gymstats.Category{
			{ID: 1, Name: "Chest", Description: "Chest exercises"},
			{ID: 2, Name: "Legs", Description: "Leg exercises"},
		},
		exercises: []gymstats.Exercise{
			{ID: 1, Name: "Bench Press", Equipment: "Barbell", CategoryID: 1, IsFavorite: true},
			{ID: 2, Name: "Dumbbell Fly", Equipment: "Dumbbell", CategoryID: 1},
			{ID: 3, Name: "Landmine Press", CategoryID: 1, IsCustom: true},
			{ID: 4, Name: "Squat", Equipment: "barbell", CategoryID: 2},
			{ID: 5, Name: "Leg Press", Equipment: "Machine", CategoryID: 2},
		},
		records: map[string][]gymstats.PersonalRecord{
			"Bench Press": {
				{Exercise: "Bench Press", Kind: gymstats.PRKindWeight, Value: 170, DateAchieved: "2024-02-11", WorkoutID: 7},
				{Exercise: "Bench Press", Kind: gymstats.PRKindReps, Value: 5, DateAchieved: "2024-02-11", WorkoutID: 7},
			},
		},
		templates: map[int][]gymstats.SessionExercise{
			PushDayTemplateID: {
				{ExerciseID: 1, ExerciseName: "Bench Press", CategoryID: 1, CategoryName: "Chest", Order: 0},
				{ExerciseID: 2, ExerciseName: "Dumbbell Fly", CategoryID: 1, CategoryName: "Chest", Order: 1},
				{ExerciseID: 4, ExerciseName: "Squat", CategoryID: 2, CategoryName: "Legs", Order: 2},
			},
		},
		hits:       make(map[string]int),
		failures:   make(map[string]failure),
		nextSetID:  100,
		nextSessID: 10,
	}

	b.sessions = map[int]*gymstats.Session{
		PushDaySessionID: {
			ID:        PushDaySessionID,
			Name:      "Push day",
			Date:      Today,
			Status:    gymstats.SessionStatusActive,
			Exercises: b.templates[PushDayTemplateID],
		},
		FinishedSessionID: {
			ID:        FinishedSessionID,
			Name:      "Old leg day",
			Date:      "2024-03-01",
			Status:    gymstats.SessionStatusCompleted,
			Exercises: b.templates[PushDayTemplateID][2:],
		},
	}

	b.Server = httptest.NewServer(b.router())
	return b
}

func (b *FakeBackend) URL() string {
	return b.Server.URL
}

func (b *FakeBackend) Close() {
	b.Server.Close()
}

// Hits returns how many requests reached the route.
func (b *FakeBackend) Hits(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[route]
}

// FailNext makes the next request to route fail with the given status and error message.
func (b *FakeBackend) FailNext(route string, statusCode int, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[route] = failure{statusCode: statusCode, message: message}
}

// AddSet stores a set directly, bypassing log_set.
func (b *FakeBackend) AddSet(s gymstats.Set) gymstats.Set {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextSetID++
	s.ID = b.nextSetID
	if s.Date == "" {
		s.Date = Today
	}
	b.sets = append(b.sets, s)
	return s
}

// AddExercise stores an exercise as is, ids are not checked for collisions.
func (b *FakeBackend) AddExercise(e gymstats.Exercise) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.exercises = append(b.exercises, e)
}

// AddSession stores an active session of today with the given exercises and returns its id.
func (b *FakeBackend) AddSession(name string, exercises ...gymstats.SessionExercise) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextSessID++
	b.sessions[b.nextSessID] = &gymstats.Session{
		ID:        b.nextSessID,
		Name:      name,
		Date:      Today,
		Status:    gymstats.SessionStatusActive,
		Exercises: exercises,
	}
	return b.nextSessID
}

func (b *FakeBackend) SessionState(id int) (gymstats.Session, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.sessions[id]
	if !ok {
		return gymstats.Session{}, false
	}
	return *s, true
}

func (b *FakeBackend) router() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/fitness/api").Subrouter()

	api.HandleFunc("/exercise_categories", b.wrap(RouteCategories, b.handleCategories)).Methods("GET")
	api.HandleFunc("/exercises/{category_id}", b.wrap(RouteExercises, b.handleExercises)).Methods("GET")
	api.HandleFunc("/favorites", b.wrap(RouteFavorites, b.handleFavorites)).Methods("GET")
	api.HandleFunc("/exercise/{id}/favorite", b.wrap(RouteToggleFavorite, b.handleToggleFavorite)).Methods("POST")
	api.HandleFunc("/personal_records/{exercise}", b.wrap(RoutePersonalRecords, b.handlePersonalRecords)).Methods("GET")
	api.HandleFunc("/todays_sets", b.wrap(RouteTodaysSets, b.handleTodaysSets)).Methods("GET")
	api.HandleFunc("/exercise_history", b.wrap(RouteExerciseHistory, b.handleExerciseHistory)).Methods("GET")
	api.HandleFunc("/log_set", b.wrap(RouteLogSet, b.handleLogSet)).Methods("POST")
	api.HandleFunc("/sets/{id}", b.wrap(RouteDeleteSet, b.handleDeleteSet)).Methods("DELETE")
	api.HandleFunc("/workout_sessions", b.wrap(RouteSessions, b.handleSessions)).Methods("GET")
	api.HandleFunc("/workout_sessions", b.wrap(RouteStartSession, b.handleStartSession)).Methods("POST")
	api.HandleFunc("/workout_sessions/{id}", b.wrap(RouteSession, b.handleSession)).Methods("GET")
	api.HandleFunc("/workout_sessions/{id}/advance", b.wrap(RouteAdvanceSession, b.handleAdvanceSession)).Methods("POST")
	api.HandleFunc("/workout_sessions/{id}/complete", b.wrap(RouteCompleteSession, b.handleFinishSession(gymstats.SessionStatusCompleted))).Methods("POST")
	api.HandleFunc("/workout_sessions/{id}/cancel", b.wrap(RouteCancelSession, b.handleFinishSession(gymstats.SessionStatusCancelled))).Methods("POST")

	return r
}

// wrap counts the hit, serves an injected failure if any, and runs the
// handler with the backend lock held.
func (b *FakeBackend) wrap(route string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()

		b.hits[route]++
		if f, ok := b.failures[route]; ok {
			delete(b.failures, route)
			if f.message == "" {
				w.WriteHeader(f.statusCode)
				return
			}
			pkg.WriteJSONError(w, f.statusCode, f.message)
			return
		}

		handler(w, r)
	}
}

func (b *FakeBackend) handleCategories(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteJSONResponse(w, http.StatusOK, b.categories)
}

func (b *FakeBackend) handleExercises(w http.ResponseWriter, r *http.Request) {
	categoryID, err := strconv.Atoi(mux.Vars(r)["category_id"])
	if err != nil {
		pkg.WriteJSONError(w, http.StatusBadRequest, "Invalid category id")
		return
	}

	exercises := []json.RawMessage{}
	for _, e := range b.exercises {
		if e.CategoryID == categoryID {
			exercises = append(exercises, exerciseJSON(e))
		}
	}
	pkg.WriteJSONResponse(w, http.StatusOK, exercises)
}

func (b *FakeBackend) handleFavorites(w http.ResponseWriter, _ *http.Request) {
	favorites := []json.RawMessage{}
	for _, e := range b.exercises {
		if e.IsFavorite {
			favorites = append(favorites, exerciseJSON(e))
		}
	}
	pkg.WriteJSONResponse(w, http.StatusOK, favorites)
}

func (b *FakeBackend) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(strings.TrimPrefix(mux.Vars(r)["id"], "custom-"))
	if err != nil {
		pkg.WriteJSONError(w, http.StatusBadRequest, "Invalid exercise id")
		return
	}
	for i := range b.exercises {
		if b.exercises[i].ID != id {
			continue
		}
		b.exercises[i].IsFavorite = !b.exercises[i].IsFavorite
		message := "Removed from favorites"
		if b.exercises[i].IsFavorite {
			message = "Added to favorites"
		}
		pkg.WriteJSONResponse(w, http.StatusOK, gymstats.FavoriteToggle{
			Message:    message,
			IsFavorite: b.exercises[i].IsFavorite,
		})
		return
	}
	pkg.WriteJSONError(w, http.StatusNotFound, "Exercise not found")
}

func (b *FakeBackend) handlePersonalRecords(w http.ResponseWriter, r *http.Request) {
	records := b.records[mux.Vars(r)["exercise"]]
	if records == nil {
		records = []gymstats.PersonalRecord{}
	}
	pkg.WriteJSONResponse(w, http.StatusOK, records)
}

func (b *FakeBackend) handleTodaysSets(w http.ResponseWriter, r *http.Request) {
	exercise := r.URL.Query().Get("exercise")
	sessionIDStr := r.URL.Query().Get("session_id")

	sets := []readSet{}
	for _, s := range b.sets {
		if s.Exercise != exercise || s.Date != Today {
			continue
		}
		if sessionIDStr != "" && (s.SessionID == nil || strconv.Itoa(*s.SessionID) != sessionIDStr) {
			continue
		}
		sets = append(sets, toReadSet(s))
	}
	pkg.WriteJSONResponse(w, http.StatusOK, sets)
}

func (b *FakeBackend) handleExerciseHistory(w http.ResponseWriter, r *http.Request) {
	exercise := r.URL.Query().Get("exercise")
	sets := []readSet{}
	for _, s := range b.sets {
		if s.Exercise == exercise {
			sets = append(sets, toReadSet(s))
		}
	}
	pkg.WriteJSONResponse(w, http.StatusOK, sets)
}

func (b *FakeBackend) handleLogSet(w http.ResponseWriter, r *http.Request) {
	var req gymstats.LogSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Reps <= 0 {
		pkg.WriteJSONError(w, http.StatusBadRequest, "Reps must be positive")
		return
	}

	var exercise *gymstats.Exercise
	for i := range b.exercises {
		if b.exercises[i].Name == req.Exercise {
			exercise = &b.exercises[i]
			break
		}
	}
	if exercise == nil {
		pkg.WriteJSONError(w, http.StatusNotFound, "Exercise not found")
		return
	}

	setNumber := 1
	for _, s := range b.sets {
		if s.Exercise == req.Exercise && s.Date == Today && sameSession(s.SessionID, req.SessionID) {
			setNumber++
		}
	}

	b.nextSetID++
	set := gymstats.Set{
		ID:          b.nextSetID,
		Exercise:    exercise.Name,
		ExerciseID:  exercise.ID,
		SessionID:   req.SessionID,
		SetNumber:   setNumber,
		Weight:      req.Weight,
		TotalWeight: gymstats.TotalWeight(req.Weight, req.IsBarbell),
		Reps:        req.Reps,
		Date:        Today,
	}
	b.sets = append(b.sets, set)

	bests := gymstats.KnownBestsFromRecords(b.records[exercise.Name])
	prs := gymstats.Evaluate(set.TotalWeight, set.Reps, bests)
	b.recordPRs(exercise.Name, set, prs)

	prsAchieved := prs.Kinds()
	if prsAchieved == nil {
		prsAchieved = []gymstats.PRKind{}
	}
	pkg.WriteJSONResponse(w, http.StatusOK, gymstats.LogSetResponse{
		Set:         set,
		PRsAchieved: prsAchieved,
	})
}

func (b *FakeBackend) recordPRs(exercise string, set gymstats.Set, prs gymstats.PRResult) {
	if !prs.Any() {
		return
	}

	var kept []gymstats.PersonalRecord
	for _, r := range b.records[exercise] {
		if (r.Kind == gymstats.PRKindWeight && prs.IsWeightPR) || (r.Kind == gymstats.PRKindReps && prs.IsRepsPR) {
			continue
		}
		kept = append(kept, r)
	}
	workoutID := 0
	if set.SessionID != nil {
		workoutID = *set.SessionID
	}
	if prs.IsWeightPR {
		kept = append(kept, gymstats.PersonalRecord{Exercise: exercise, Kind: gymstats.PRKindWeight, Value: set.TotalWeight, DateAchieved: set.Date, WorkoutID: workoutID})
	}
	if prs.IsRepsPR {
		kept = append(kept, gymstats.PersonalRecord{Exercise: exercise, Kind: gymstats.PRKindReps, Value: float64(set.Reps), DateAchieved: set.Date, WorkoutID: workoutID})
	}
	b.records[exercise] = kept
}

func (b *FakeBackend) handleDeleteSet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		pkg.WriteJSONError(w, http.StatusBadRequest, "Invalid set id")
		return
	}
	for i, s := range b.sets {
		if s.ID == id {
			b.sets = append(b.sets[:i], b.sets[i+1:]...)
			pkg.WriteJSONResponse(w, http.StatusOK, map[string]string{"message": "Set deleted"})
			return
		}
	}
	pkg.WriteJSONError(w, http.StatusNotFound, "Set not found")
}

func (b *FakeBackend) handleSessions(w http.ResponseWriter, _ *http.Request) {
	sessions := make([]gymstats.Session, 0, len(b.sessions))
	for _, s := range b.sessions {
		sessions = append(sessions, *s)
	}
	pkg.WriteJSONResponse(w, http.StatusOK, sessions)
}

func (b *FakeBackend) handleSession(w http.ResponseWriter, r *http.Request) {
	s, ok := b.sessionFromRequest(w, r)
	if !ok {
		return
	}
	pkg.WriteJSONResponse(w, http.StatusOK, s)
}

func (b *FakeBackend) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var newSession gymstats.NewSession
	if err := json.NewDecoder(r.Body).Decode(&newSession); err != nil {
		pkg.WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if newSession.Name == "" {
		pkg.WriteJSONError(w, http.StatusBadRequest, "Session name is required")
		return
	}

	var exercises []gymstats.SessionExercise
	if newSession.TemplateID != nil {
		template, ok := b.templates[*newSession.TemplateID]
		if !ok {
			pkg.WriteJSONError(w, http.StatusNotFound, "Template not found")
			return
		}
		exercises = append(exercises, template...)
	}
	date := newSession.Date
	if date == "" {
		date = Today
	}

	b.nextSessID++
	s := &gymstats.Session{
		ID:         b.nextSessID,
		Name:       newSession.Name,
		Date:       date,
		Notes:      newSession.Notes,
		Status:     gymstats.SessionStatusActive,
		TemplateID: newSession.TemplateID,
		Exercises:  exercises,
	}
	b.sessions[s.ID] = s
	pkg.WriteJSONResponse(w, http.StatusCreated, s)
}

func (b *FakeBackend) handleAdvanceSession(w http.ResponseWriter, r *http.Request) {
	s, ok := b.sessionFromRequest(w, r)
	if !ok {
		return
	}
	if s.Status.IsFinished() {
		pkg.WriteJSONError(w, http.StatusConflict, "Session already finished")
		return
	}

	var body struct {
		CurrentIndex int `json:"current_index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		pkg.WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.CurrentIndex < 0 || body.CurrentIndex >= len(s.Exercises) {
		pkg.WriteJSONError(w, http.StatusBadRequest, "Exercise index out of range")
		return
	}

	s.CurrentIndex = body.CurrentIndex
	pkg.WriteJSONResponse(w, http.StatusOK, s)
}

func (b *FakeBackend) handleFinishSession(status gymstats.SessionStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := b.sessionFromRequest(w, r)
		if !ok {
			return
		}
		if s.Status.IsFinished() {
			pkg.WriteJSONError(w, http.StatusConflict, "Session already finished")
			return
		}
		s.Status = status
		pkg.WriteJSONResponse(w, http.StatusOK, s)
	}
}

func (b *FakeBackend) sessionFromRequest(w http.ResponseWriter, r *http.Request) (*gymstats.Session, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		pkg.WriteJSONError(w, http.StatusBadRequest, "Invalid session id")
		return nil, false
	}
	s, ok := b.sessions[id]
	if !ok {
		pkg.WriteJSONError(w, http.StatusNotFound, "Session not found")
		return nil, false
	}
	return s, true
}

// exerciseJSON renders custom exercises with their "custom-<n>" id
func exerciseJSON(e gymstats.Exercise) json.RawMessage {
	type plain gymstats.Exercise
	var id any = e.ID
	if e.IsCustom {
		id = "custom-" + strconv.Itoa(e.ID)
	}
	var equipment any
	if e.Equipment != "" {
		equipment = e.Equipment
	}
	encoded, _ := json.Marshal(struct {
		plain
		ID        any `json:"id"`
		Equipment any `json:"equipment"`
	}{
		plain:     plain(e),
		ID:        id,
		Equipment: equipment,
	})
	return encoded
}

// readSet is a set row of todays_sets and exercise_history, which carry
// neither the exercise nor the total weight.
type readSet struct {
	ID        int     `json:"id"`
	SetNumber int     `json:"set_number"`
	Weight    float64 `json:"weight"`
	Reps      int     `json:"reps"`
	Date      string  `json:"date"`
}

func toReadSet(s gymstats.Set) readSet {
	return readSet{
		ID:        s.ID,
		SetNumber: s.SetNumber,
		Weight:    s.Weight,
		Reps:      s.Reps,
		Date:      s.Date,
	}
}

func sameSession(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
