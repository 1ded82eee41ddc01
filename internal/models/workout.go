package models

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
)

// WorkoutType classifies a workout
type WorkoutType string

const (
	WorkoutTypeCardio   WorkoutType = "cardio"
	WorkoutTypeStrength WorkoutType = "strength"
	WorkoutTypeMixed    WorkoutType = "mixed"
)

// WorkoutDescriptor is a catalog or AI-sourced workout template. Read-only
// once produced.
type WorkoutDescriptor struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Type      WorkoutType `json:"type"`
	Duration  int         `json:"duration"` // minutes
	Calories  int         `json:"calories"`
	Exercises []string    `json:"exercises"`
}

// Clone returns a copy that shares no slices with d
func (d WorkoutDescriptor) Clone() WorkoutDescriptor {
	d.Exercises = append([]string(nil), d.Exercises...)
	return d
}

// WorkoutRecord is a completed workout. Created exactly once per completed
// session and never mutated afterwards.
type WorkoutRecord struct {
	WorkoutDescriptor
	Date      time.Time `json:"date"`
	Completed bool      `json:"completed"`
}

// NewWorkoutRecord stamps a descriptor as completed at completedAt
func NewWorkoutRecord(d WorkoutDescriptor, completedAt time.Time) WorkoutRecord {
	return WorkoutRecord{
		WorkoutDescriptor: d.Clone(),
		Date:              completedAt,
		Completed:         true,
	}
}

// UnmarshalJSON accepts numeric ids, which older stores wrote for catalog
// workouts.
func (d *WorkoutDescriptor) UnmarshalJSON(data []byte) error {
	var raw descriptorJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*d = raw.descriptor()
	return nil
}

// UnmarshalJSON decodes a record with the same id leniency as
// WorkoutDescriptor. Without it the embedded descriptor's decoder would drop
// date and completed.
func (r *WorkoutRecord) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        workoutID   `json:"id"`
		Name      string      `json:"name"`
		Type      WorkoutType `json:"type"`
		Duration  int         `json:"duration"`
		Calories  int         `json:"calories"`
		Exercises []string    `json:"exercises"`
		Date      time.Time   `json:"date"`
		Completed bool        `json:"completed"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = WorkoutRecord{
		WorkoutDescriptor: descriptorJSON{
			ID:        raw.ID,
			Name:      raw.Name,
			Type:      raw.Type,
			Duration:  raw.Duration,
			Calories:  raw.Calories,
			Exercises: raw.Exercises,
		}.descriptor(),
		Date:      raw.Date,
		Completed: raw.Completed,
	}
	return nil
}

type descriptorJSON struct {
	ID        workoutID   `json:"id"`
	Name      string      `json:"name"`
	Type      WorkoutType `json:"type"`
	Duration  int         `json:"duration"`
	Calories  int         `json:"calories"`
	Exercises []string    `json:"exercises"`
}

func (raw descriptorJSON) descriptor() WorkoutDescriptor {
	return WorkoutDescriptor{
		ID:        string(raw.ID),
		Name:      raw.Name,
		Type:      raw.Type,
		Duration:  raw.Duration,
		Calories:  raw.Calories,
		Exercises: raw.Exercises,
	}
}

// workoutID is a string id that also decodes from a JSON number
type workoutID string

func (id *workoutID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*id = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = workoutID(s)
		return nil
	}
	n, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("workout id must be a string or number, got %s", data)
	}
	*id = workoutID(strconv.FormatFloat(n, 'f', -1, 64))
	return nil
}

// CloneDescriptors copies a descriptor slice
func CloneDescriptors(in []WorkoutDescriptor) []WorkoutDescriptor {
	if in == nil {
		return nil
	}
	out := make([]WorkoutDescriptor, len(in))
	for i, d := range in {
		out[i] = d.Clone()
	}
	return out
}

// CloneHistory copies a history slice
func CloneHistory(in []WorkoutRecord) []WorkoutRecord {
	out := make([]WorkoutRecord, len(in))
	for i, r := range in {
		out[i] = r
		out[i].Exercises = append([]string(nil), r.Exercises...)
	}
	return out
}
