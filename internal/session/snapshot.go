package session

import (
	"time"

	"github.com/benvon/fitness-buddy/internal/models"
)

// Snapshot is a read-only copy of the session state
type Snapshot struct {
	Profile        *models.UserProfile        `json:"profile"`
	Onboarded      bool                       `json:"onboarded"`
	Steps          int                        `json:"todaySteps"`
	Goal           models.GoalProgress        `json:"goal"`
	TotalCalories  int                        `json:"totalCalories"`
	WeeklyWorkouts int                        `json:"weeklyWorkouts"`
	Lifetime       models.LifetimeStats       `json:"lifetime"`
	History        []models.WorkoutRecord     `json:"workoutHistory"`
	ActiveWorkout  *models.WorkoutDescriptor  `json:"currentWorkout"`
	Recommended    []models.WorkoutDescriptor `json:"recommended"`
	Notification   *models.Notification       `json:"notification"`
	AI             models.AIRequestState      `json:"ai"`
	DailyCalories  []models.DailyCalories     `json:"dailyCalories"`
	Activity       []models.ActivityEntry     `json:"activity"`
	GeneratedAt    time.Time                  `json:"generatedAt"`
}
