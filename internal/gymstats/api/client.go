package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/2beens/gymsession/internal/cache"
	"github.com/2beens/gymsession/internal/gymstats"
	"github.com/2beens/gymsession/internal/telemetry/metrics"
	"github.com/2beens/gymsession/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
)

const (
	apiPrefix = "/fitness/api"

	DefaultRequestTimeout = 15 * time.Second
)

// route templates, also used as cache key targets and metric labels
const (
	routeCategories      = "/exercise_categories"
	routeExercises       = "/exercises/{category_id}"
	routeFavorites       = "/favorites"
	routeToggleFavorite  = "/exercise/{id}/favorite"
	routePersonalRecords = "/personal_records/{exercise}"
	routeTodaysSets      = "/todays_sets"
	routeExerciseHistory = "/exercise_history"
	routeLogSet          = "/log_set"
	routeDeleteSet       = "/sets/{id}"
	routeSessions        = "/workout_sessions"
	routeSession         = "/workout_sessions/{id}"
	routeSessionAdvance  = "/workout_sessions/{id}/advance"
	routeSessionComplete = "/workout_sessions/{id}/complete"
	routeSessionCancel   = "/workout_sessions/{id}/cancel"
)

// Client talks to the fitness backend. Reads of reference data go through
// the response cache; writes invalidate the cache scopes they affect.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	cache          *cache.ResponseCache
	metricsManager *metrics.Manager
}

func NewClient(
	baseURL string,
	httpClient *http.Client,
	responseCache *cache.ResponseCache,
	metricsManager *metrics.Manager,
) *Client {
	if httpClient == nil {
		httpClient = NewHTTPClient(DefaultRequestTimeout, metricsManager)
	}
	if responseCache == nil {
		responseCache = cache.New(cache.Params{Metrics: metricsManager})
	}
	return &Client{
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		httpClient:     httpClient,
		cache:          responseCache,
		metricsManager: metricsManager,
	}
}

func (c *Client) Cache() *cache.ResponseCache {
	return c.cache
}

func (c *Client) Categories(ctx context.Context) (categories []gymstats.Category, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "apiClient.categories")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	if err := c.getCached(ctx, routeCategories, routeCategories, nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (c *Client) Exercises(ctx context.Context, categoryID int) (exercises []gymstats.Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "apiClient.exercises")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	path := "/exercises/" + strconv.Itoa(categoryID)
	if err := c.getCached(ctx, routeExercises, path, nil, &exercises); err != nil {
		return nil, err
	}
	return exercises, nil
}

func (c *Client) Favorites(ctx context.Context) (favorites []gymstats.Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "apiClient.favorites")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	if err := c.getCached(ctx, routeFavorites, routeFavorites, nil, &favorites); err != nil {
		return nil, err
	}
	return favorites, nil
}

// ToggleFavorite flips the favorite flag of the exercise. Custom exercises
// are addressed with their "custom-<n>" id.
func (c *Client) ToggleFavorite(ctx context.Context, exerciseID int, custom bool) (toggle *gymstats.FavoriteToggle, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "apiClient.toggleFavorite")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	id := strconv.Itoa(exerciseID)
	if custom {
		id = "custom-" + id
	}

	toggle = &gymstats.FavoriteToggle{}
	if err := c.send(ctx, http.MethodPost, routeToggleFavorite, "/exercise/"+id+"/favorite", nil, toggle); err != nil {
		return nil, fmt.Errorf("toggle favorite %s: %w", id, err)
	}

	c.cache.Invalidate(cacheTarget("/exercises/"))
	c.cache.Invalidate(cacheTarget(routeFavorites))
	return toggle, nil
}

func (c *Client) PersonalRecords(ctx context.Context, exercise string) (records []gymstats.PersonalRecord, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "apiClient.personalRecords")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	if err := c.getCached(ctx, routePersonalRecords, personalRecordsPath(exercise), nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// TodaysSets returns today's sets of the exercise, scoped to the session when sessionID is set.
func (c *Client) TodaysSets(ctx context.Context, exercise string, sessionID *int) (sets []gymstats.Set, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "apiClient.todaysSets")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	params := url.Values{}
	params.Set("exercise", exercise)
	if sessionID != nil {
		params.Set("session_id", strconv.Itoa(*sessionID))
	}

	if err := c.getCached(ctx, routeTodaysSets, routeTodaysSets, params, &sets); err != nil {
		return nil, err
	}
	return sets, nil
}

func (c *Client) ExerciseHistory(ctx context.Context, exercise string) (sets []gymstats.Set, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "apiClient.exerciseHistory")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	params := url.Values{}
	params.Set("exercise", exercise)
	if err := c.getCached(ctx, routeExerciseHistory, routeExerciseHistory, params, &sets); err != nil {
		return nil, err
	}
	return sets, nil
}

// LogSet persists a new set. On success today's sets, history and personal
// records of the exercise are invalidated.
func (c *Client) LogSet(ctx context.Context, req gymstats.LogSetRequest) (logged *gymstats.LogSetResponse, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "apiClient.logSet")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	logged = &gymstats.LogSetResponse{}
	if err := c.send(ctx, http.MethodPost, routeLogSet, routeLogSet, req, logged); err != nil {
		return nil, fmt.Errorf("log set [%s]: %w", req.Exercise, err)
	}

	c.InvalidateExercise(req.Exercise)
	return logged, nil
}

// DeleteSet removes a set. exercise scopes the invalidation; when empty,
// every set related entry is invalidated.
func (c *Client) DeleteSet(ctx context.Context, setID int, exercise string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "apiClient.deleteSet")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	if err := c.send(ctx, http.MethodDelete, routeDeleteSet, "/sets/"+strconv.Itoa(setID), nil, nil); err != nil {
		return fmt.Errorf("delete set %d: %w", setID, err)
	}

	if exercise == "" {
		c.cache.Invalidate(cacheTarget(routeTodaysSets))
		c.cache.Invalidate(cacheTarget(routeExerciseHistory))
		c.cache.Invalidate(cacheTarget("/personal_records/"))
		return nil
	}
	c.InvalidateExercise(exercise)
	return nil
}

// InvalidateExercise drops the cached set lists and records of one exercise.
// Exercises sharing a name prefix may be dropped too.
func (c *Client) InvalidateExercise(exercise string) int {
	removed := c.cache.Invalidate(cache.ScopeKey(cacheTarget(routeTodaysSets), "exercise", exercise))
	removed += c.cache.Invalidate(cache.ScopeKey(cacheTarget(routeExerciseHistory), "exercise", exercise))
	removed += c.cache.Invalidate(cacheTarget(personalRecordsPath(exercise)))
	return removed
}

func (c *Client) Sessions(ctx context.Context) (sessions []gymstats.Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "apiClient.sessions")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	if err := c.send(ctx, http.MethodGet, routeSessions, routeSessions, nil, &sessions); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

func (c *Client) Session(ctx context.Context, sessionID int) (session *gymstats.Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "apiClient.session")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	session = &gymstats.Session{}
	if err := c.send(ctx, http.MethodGet, routeSession, sessionPath(sessionID, ""), nil, session); err != nil {
		return nil, fmt.Errorf("get session %d: %w", sessionID, err)
	}
	return session, nil
}

func (c *Client) StartSession(ctx context.Context, newSession gymstats.NewSession) (session *gymstats.Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "apiClient.startSession")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	session = &gymstats.Session{}
	if err := c.send(ctx, http.MethodPost, routeSessions, routeSessions, newSession, session); err != nil {
		return nil, fmt.Errorf("start session [%s]: %w", newSession.Name, err)
	}
	return session, nil
}

// AdvanceSession stores the current exercise pointer of the session.
func (c *Client) AdvanceSession(ctx context.Context, sessionID, currentIndex int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "apiClient.advanceSession")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	body := struct {
		CurrentIndex int `json:"current_index"`
	}{
		CurrentIndex: currentIndex,
	}
	if err := c.send(ctx, http.MethodPost, routeSessionAdvance, sessionPath(sessionID, "/advance"), body, nil); err != nil {
		return fmt.Errorf("advance session %d to %d: %w", sessionID, currentIndex, err)
	}
	return nil
}

func (c *Client) CompleteSession(ctx context.Context, sessionID int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "apiClient.completeSession")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	if err := c.send(ctx, http.MethodPost, routeSessionComplete, sessionPath(sessionID, "/complete"), nil, nil); err != nil {
		return fmt.Errorf("complete session %d: %w", sessionID, err)
	}
	return nil
}

func (c *Client) CancelSession(ctx context.Context, sessionID int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "apiClient.cancelSession")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	if err := c.send(ctx, http.MethodPost, routeSessionCancel, sessionPath(sessionID, "/cancel"), nil, nil); err != nil {
		return fmt.Errorf("cancel session %d: %w", sessionID, err)
	}
	return nil
}

// getCached serves the GET from cache when possible. Fresh responses are only
// cached if no invalidation happened while they were in flight.
func (c *Client) getCached(ctx context.Context, route, path string, params url.Values, out any) error {
	key := cache.Key(cacheTarget(path), params)
	if payload, found := c.cache.Get(key); found {
		err := json.Unmarshal(payload, out)
		if err == nil {
			return nil
		}
		log.Errorf("failed to unmarshal cached response [%s]: %s", key, err)
	}

	generation := c.cache.Generation()
	payload, err := c.do(ctx, http.MethodGet, route, path, params, nil)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("unmarshal %s response: %w", path, err)
	}

	if stored, err := c.cache.PutIfCurrent(key, payload, generation); err != nil {
		log.Errorf("failed to cache response [%s]: %s", key, err)
	} else if !stored {
		log.Debugf("response for [%s] superseded by an invalidation, not cached", key)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, route, path string, body, out any) error {
	payload, err := c.do(ctx, method, route, path, nil, body)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("unmarshal %s response: %w", path, err)
	}
	return nil
}

// do issues the request and returns the response body of a 2xx response.
// Transport failures come back as *gymstats.TransientNetworkError, non 2xx
// statuses as *gymstats.PersistenceError.
func (c *Client) do(ctx context.Context, method, route, path string, params url.Values, body any) ([]byte, error) {
	reqURL := c.baseURL + apiPrefix + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}
	op := method + " " + apiPrefix + route

	var bodyReader io.Reader
	if body != nil {
		bodyJson, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyJson)
	}

	req, err := http.NewRequestWithContext(withRoute(ctx, apiPrefix+route), method, reqURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	log.Tracef("calling backend: %s %s", method, reqURL)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &gymstats.TransientNetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &gymstats.TransientNetworkError{Op: op, Err: fmt.Errorf("read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		persistenceErr := &gymstats.PersistenceError{StatusCode: resp.StatusCode}
		var errResp struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(respBytes, &errResp); err == nil {
			persistenceErr.Message = errResp.Error
		}
		log.Debugf("backend rejected %s: %s", op, persistenceErr)
		return nil, persistenceErr
	}

	return respBytes, nil
}

func cacheTarget(path string) string {
	return "GET " + apiPrefix + path
}

func personalRecordsPath(exercise string) string {
	return "/personal_records/" + url.PathEscape(exercise)
}

func sessionPath(sessionID int, suffix string) string {
	return "/workout_sessions/" + strconv.Itoa(sessionID) + suffix
}
