package gymstats

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type Category struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Exercise struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Equipment    string `json:"equipment"`
	MuscleGroups string `json:"muscle_groups"`
	CategoryID   int    `json:"category_id"`
	CategoryName string `json:"category_name,omitempty"`
	IsFavorite   bool   `json:"is_favorite"`
	// IsCustom marks user created exercises; the backend sends their id as "custom-<n>"
	IsCustom bool `json:"is_custom"`
}

const customExerciseIDPrefix = "custom-"

func (e *Exercise) UnmarshalJSON(data []byte) error {
	type plain Exercise
	aux := struct {
		*plain
		ID json.RawMessage `json:"id"`
	}{
		plain: (*plain)(e),
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.ID) == 0 || string(aux.ID) == "null" {
		return nil
	}

	var numID int
	if err := json.Unmarshal(aux.ID, &numID); err == nil {
		e.ID = numID
		return nil
	}

	var strID string
	if err := json.Unmarshal(aux.ID, &strID); err != nil {
		return fmt.Errorf("exercise id: %w", err)
	}
	if strings.HasPrefix(strID, customExerciseIDPrefix) {
		e.IsCustom = true
		strID = strings.TrimPrefix(strID, customExerciseIDPrefix)
	}
	id, err := strconv.Atoi(strID)
	if err != nil {
		return fmt.Errorf("exercise id [%s]: %w", strID, err)
	}
	e.ID = id
	return nil
}

// BarLoaded tells if the weight entered for this exercise is added to a bar.
func (e Exercise) BarLoaded() bool {
	return IsBarLoaded(e.Equipment)
}

// Set is one logged set of an exercise. Weight is what the athlete entered
// (plates only for bar loaded exercises), TotalWeight includes the bar.
type Set struct {
	ID          int     `json:"id"`
	Exercise    string  `json:"exercise,omitempty"`
	ExerciseID  int     `json:"exercise_id,omitempty"`
	SessionID   *int    `json:"session_id,omitempty"`
	SetNumber   int     `json:"set_number"`
	Weight      float64 `json:"weight"`
	TotalWeight float64 `json:"total_weight,omitempty"`
	Reps        int     `json:"reps"`
	Date        string  `json:"date"`
}

type PRKind string

const (
	PRKindWeight PRKind = "weight"
	PRKindReps   PRKind = "reps"
	PRKindVolume PRKind = "volume"
)

// PersonalRecord is a read projection of the backend PR ledger, one per (exercise, kind).
type PersonalRecord struct {
	Exercise     string  `json:"exercise,omitempty"`
	Kind         PRKind  `json:"pr_type"`
	Value        float64 `json:"value"`
	DateAchieved string  `json:"date_achieved"`
	WorkoutID    int     `json:"workout_id"`
}

// SessionStatus can be one of:
//   - planned (created, not touched yet)
//   - active
//   - completed
//   - cancelled
type SessionStatus string

const (
	SessionStatusPlanned   SessionStatus = "planned"
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusCancelled SessionStatus = "cancelled"
)

func (s SessionStatus) String() string {
	return string(s)
}

func (s SessionStatus) IsFinished() bool {
	return s == SessionStatusCompleted || s == SessionStatusCancelled
}

type SessionExercise struct {
	ExerciseID   int    `json:"exercise_id"`
	ExerciseName string `json:"exercise_name"`
	CategoryID   int    `json:"category_id"`
	CategoryName string `json:"category_name,omitempty"`
	Equipment    string `json:"equipment,omitempty"`
	Order        int    `json:"order"`
}

func (se SessionExercise) BarLoaded() bool {
	return IsBarLoaded(se.Equipment)
}

type Session struct {
	ID           int               `json:"id"`
	Name         string            `json:"name"`
	Date         string            `json:"date"`
	Notes        string            `json:"notes,omitempty"`
	Status       SessionStatus     `json:"status"`
	TemplateID   *int              `json:"template_id,omitempty"`
	CurrentIndex int               `json:"current_index"`
	Exercises    []SessionExercise `json:"exercises"`
}

type NewSession struct {
	Name       string `json:"name"`
	Date       string `json:"date"`
	TemplateID *int   `json:"template_id,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

type LogSetRequest struct {
	CategoryID int     `json:"category_id"`
	Exercise   string  `json:"exercise"`
	ExerciseID int     `json:"exercise_id,omitempty"`
	SessionID  *int    `json:"session_id,omitempty"`
	Weight     float64 `json:"weight"`
	Reps       int     `json:"reps"`
	IsBarbell  bool    `json:"is_barbell"`
}

type LogSetResponse struct {
	Set
	// PRsAchieved is the backend's authoritative view
	PRsAchieved []PRKind `json:"prs_achieved"`
}

type FavoriteToggle struct {
	Message    string `json:"message"`
	IsFavorite bool   `json:"is_favorite"`
}
