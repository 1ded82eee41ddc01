package models

import "time"

const (
	// MaxDailySteps caps the daily step counter
	MaxDailySteps = 20000
	// DailyStepGoal is the step target shown on the dashboard
	DailyStepGoal = 10000
)

// GoalProgress describes today's progress towards DailyStepGoal.
//
// Fraction is Completed/DailyStepGoal and is NOT clamped: because the step
// counter itself may reach MaxDailySteps, Fraction ranges over [0, 2].
// Consumers that draw a gauge should clamp for display themselves.
type GoalProgress struct {
	Goal      int     `json:"goal"`
	Completed int     `json:"completed"`
	Remaining int     `json:"remaining"`
	Fraction  float64 `json:"fraction"`
}

// LifetimeStats are totals over the whole stored history
type LifetimeStats struct {
	TotalWorkouts int `json:"totalWorkouts"`
	TotalCalories int `json:"totalCalories"`
}

// DailyCalories is the calorie total burned by workouts completed on Day
type DailyCalories struct {
	Day      time.Time `json:"day"`
	Label    string    `json:"label"`
	Calories int       `json:"calories"`
	Workouts int       `json:"workouts"`
}

// ActivityKind distinguishes entries in the combined activity feed
type ActivityKind string

const (
	ActivityKindSteps   ActivityKind = "steps"
	ActivityKindWorkout ActivityKind = "workout"
)

// ActivityEntry is one row of the combined activity feed
type ActivityEntry struct {
	Kind     ActivityKind `json:"kind"`
	Name     string       `json:"name"`
	Date     time.Time    `json:"date"`
	Steps    int          `json:"steps,omitempty"`
	Calories int          `json:"calories,omitempty"`
	Duration int          `json:"duration,omitempty"`
}

// Notification is the single transient user-facing message
type Notification struct {
	Text      string    `json:"text"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AIOperation names the AI operation currently holding the in-flight gate
type AIOperation string

const (
	AIOperationNone             AIOperation = ""
	AIOperationGenerateWorkouts AIOperation = "generate_workouts"
	AIOperationAskCoach         AIOperation = "ask_coach"
)

// AIRequestState is the ephemeral state of the AI coordinator
type AIRequestState struct {
	InFlight              bool                `json:"inFlight"`
	Operation             AIOperation         `json:"operation,omitempty"`
	LastGeneratedWorkouts []WorkoutDescriptor `json:"lastGeneratedWorkouts"`
	LastCoachResponse     string              `json:"lastCoachResponse,omitempty"`
}
