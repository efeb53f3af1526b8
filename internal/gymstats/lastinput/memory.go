package lastinput

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/gymsession/internal/telemetry/tracing"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultHorizon = 30 * 24 * time.Hour
	keyPrefix      = "gymsession-last-input||"
)

// Snapshot is the last weight and reps entered for an exercise.
type Snapshot struct {
	Weight float64 `json:"weight"`
	Reps   int     `json:"reps"`
	// Timestamp is unix millis
	Timestamp int64 `json:"timestamp"`
}

func (s Snapshot) SavedAt() time.Time {
	return time.UnixMilli(s.Timestamp)
}

// Memory keeps one snapshot per exercise name in redis. Snapshots older than
// the horizon are treated as absent and purged when read.
type Memory struct {
	redisClient *redis.Client
	horizon     time.Duration
	// ability to inject the clock (for unit testing)
	NowFunc func() time.Time
}

func NewMemory(redisClient *redis.Client, horizon time.Duration) *Memory {
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	return &Memory{
		redisClient: redisClient,
		horizon:     horizon,
		NowFunc:     time.Now,
	}
}

func (m *Memory) Horizon() time.Duration {
	return m.horizon
}

// Save overwrites the snapshot of the exercise, stamped with the current time.
func (m *Memory) Save(ctx context.Context, exercise string, weight float64, reps int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "lastInput.save")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	snapshotJson, err := json.Marshal(Snapshot{
		Weight:    weight,
		Reps:      reps,
		Timestamp: m.NowFunc().UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("marshal last input: %w", err)
	}

	// redis drops the key on its own after the horizon too
	cmdSet := m.redisClient.Set(ctx, key(exercise), string(snapshotJson), m.horizon)
	if err := cmdSet.Err(); err != nil {
		return fmt.Errorf("save last input [%s]: %w", exercise, err)
	}

	log.Tracef("last input saved for [%s]: %v x %d", exercise, weight, reps)
	return nil
}

// Load returns the snapshot of the exercise, if there is one within the horizon.
func (m *Memory) Load(ctx context.Context, exercise string) (_ *Snapshot, found bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "lastInput.load")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	cmd := m.redisClient.Get(ctx, key(exercise))
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("load last input [%s]: %w", exercise, err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal([]byte(cmd.Val()), &snapshot); err != nil {
		log.Errorf("last input for [%s] is corrupt, purging: %s", exercise, err)
		m.purge(ctx, exercise)
		return nil, false, nil
	}

	if m.NowFunc().Sub(snapshot.SavedAt()) >= m.horizon {
		log.Debugf("last input for [%s] is stale (saved %s), purging", exercise, snapshot.SavedAt())
		m.purge(ctx, exercise)
		return nil, false, nil
	}

	return &snapshot, true, nil
}

func (m *Memory) Clear(ctx context.Context, exercise string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "lastInput.clear")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	if err := m.redisClient.Del(ctx, key(exercise)).Err(); err != nil {
		return fmt.Errorf("clear last input [%s]: %w", exercise, err)
	}
	return nil
}

func (m *Memory) purge(ctx context.Context, exercise string) {
	if err := m.redisClient.Del(ctx, key(exercise)).Err(); err != nil {
		log.Errorf("purge last input [%s]: %s", exercise, err)
	}
}

func key(exercise string) string {
	return keyPrefix + exercise
}
