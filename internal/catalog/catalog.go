// Package catalog holds the built-in workout library, indexed by fitness
// level and goal.
package catalog

import (
	"sort"
	"strconv"

	"github.com/benvon/fitness-buddy/internal/models"
)

type levelIndex int
type goalIndex int

const (
	beginner levelIndex = iota
	intermediate
	advanced
	levelCount
)

const (
	weightLoss goalIndex = iota
	muscleGain
	endurance
	goalCount
)

func levelOf(l models.FitnessLevel) (levelIndex, bool) {
	switch l {
	case models.FitnessLevelBeginner:
		return beginner, true
	case models.FitnessLevelIntermediate:
		return intermediate, true
	case models.FitnessLevelAdvanced:
		return advanced, true
	default:
		return 0, false
	}
}

func goalOf(g models.Goal) (goalIndex, bool) {
	switch g {
	case models.GoalWeightLoss:
		return weightLoss, true
	case models.GoalMuscleGain:
		return muscleGain, true
	case models.GoalEndurance:
		return endurance, true
	default:
		return 0, false
	}
}

func workout(id int, name string, typ models.WorkoutType, minutes, calories int, exercises ...string) models.WorkoutDescriptor {
	return models.WorkoutDescriptor{
		ID:        strconv.Itoa(id),
		Name:      name,
		Type:      typ,
		Duration:  minutes,
		Calories:  calories,
		Exercises: exercises,
	}
}

var table = [levelCount][goalCount][]models.WorkoutDescriptor{
	beginner: {
		weightLoss: {
			workout(1, "Morning Walk & Stretch", models.WorkoutTypeCardio, 20, 120,
				"Brisk Walk - 15 min", "Full Body Stretch - 5 min"),
			workout(2, "Bodyweight Basics", models.WorkoutTypeStrength, 25, 150,
				"Squats - 3x10", "Push-ups - 3x8", "Plank - 3x30s"),
			workout(3, "Light Cardio Mix", models.WorkoutTypeCardio, 30, 180,
				"Jumping Jacks - 3 min", "High Knees - 2 min", "Walk - 15 min"),
		},
		muscleGain: {
			workout(4, "Upper Body Intro", models.WorkoutTypeStrength, 30, 160,
				"Push-ups - 3x10", "Dips - 3x8", "Arm Circles - 2 min"),
			workout(5, "Lower Body Basics", models.WorkoutTypeStrength, 30, 170,
				"Squats - 3x12", "Lunges - 3x10", "Calf Raises - 3x15"),
		},
		endurance: {
			workout(6, "Steady State Walk", models.WorkoutTypeCardio, 35, 200,
				"Brisk Walk - 30 min", "Cool Down Stretch - 5 min"),
		},
	},
	intermediate: {
		weightLoss: {
			workout(7, "HIIT Burn", models.WorkoutTypeCardio, 25, 280,
				"Burpees - 4x12", "Mountain Climbers - 4x20", "Jump Squats - 4x15"),
			workout(8, "Circuit Training", models.WorkoutTypeMixed, 35, 320,
				"Push-ups - 4x15", "Squats - 4x20", "Plank - 4x45s", "Jumping Jacks - 4x30s"),
		},
		muscleGain: {
			workout(9, "Push Day", models.WorkoutTypeStrength, 40, 220,
				"Push-ups - 4x15", "Pike Push-ups - 3x12", "Diamond Push-ups - 3x10"),
			workout(10, "Pull Day", models.WorkoutTypeStrength, 40, 230,
				"Pull-ups - 4x8", "Inverted Rows - 4x12", "Bicep Curls - 3x15"),
		},
		endurance: {
			workout(11, "Tempo Run", models.WorkoutTypeCardio, 45, 400,
				"5 min Warm-up", "30 min Tempo Run", "10 min Cool Down"),
		},
	},
	advanced: {
		weightLoss: {
			workout(12, "Advanced HIIT", models.WorkoutTypeCardio, 30, 380,
				"Burpee Box Jumps - 5x10", "Sprint Intervals - 10x30s", "Plyo Lunges - 5x20"),
			workout(13, "Metabolic Blast", models.WorkoutTypeMixed, 40, 450,
				"Complex 1 - 5 rounds", "Complex 2 - 5 rounds", "Finisher - 3 min"),
		},
		muscleGain: {
			workout(14, "Heavy Push", models.WorkoutTypeStrength, 50, 280,
				"Weighted Push-ups - 5x10", "Handstand Practice - 15 min", "Dips - 4x12"),
			workout(15, "Heavy Pull", models.WorkoutTypeStrength, 50, 290,
				"Weighted Pull-ups - 5x8", "One-arm Rows - 4x10", "Hanging Core - 4x20s"),
		},
		endurance: {
			workout(16, "Long Distance Run", models.WorkoutTypeCardio, 60, 550,
				"10 min Warm-up", "45 min Steady Run", "5 min Cool Down"),
		},
	},
}

// Recommend returns the workouts authored for level and goal, in authoring
// order. Unknown combinations yield an empty slice. The result is a copy.
func Recommend(level models.FitnessLevel, goal models.Goal) []models.WorkoutDescriptor {
	li, ok := levelOf(level)
	if !ok {
		return []models.WorkoutDescriptor{}
	}
	gi, ok := goalOf(goal)
	if !ok {
		return []models.WorkoutDescriptor{}
	}
	return models.CloneDescriptors(table[li][gi])
}

// RecommendFor is Recommend for a profile; a nil profile yields nothing
func RecommendFor(profile *models.UserProfile) []models.WorkoutDescriptor {
	if profile == nil {
		return []models.WorkoutDescriptor{}
	}
	return Recommend(profile.FitnessLevel, profile.Goal)
}

// Lookup finds a catalog workout by id
func Lookup(id string) (models.WorkoutDescriptor, bool) {
	for li := range table {
		for gi := range table[li] {
			for _, d := range table[li][gi] {
				if d.ID == id {
					return d.Clone(), true
				}
			}
		}
	}
	return models.WorkoutDescriptor{}, false
}

// All returns every catalog workout ordered by numeric id
func All() []models.WorkoutDescriptor {
	var all []models.WorkoutDescriptor
	for li := range table {
		for gi := range table[li] {
			all = append(all, models.CloneDescriptors(table[li][gi])...)
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		a, _ := strconv.Atoi(all[i].ID)
		b, _ := strconv.Atoi(all[j].ID)
		return a < b
	})
	return all
}
