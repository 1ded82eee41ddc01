// Package activity tracks today's step count and derives the dashboard
// aggregates from the workout history.
package activity

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/benvon/fitness-buddy/internal/models"
	"github.com/benvon/fitness-buddy/internal/observability"
	"github.com/benvon/fitness-buddy/internal/storage"
	"github.com/benvon/fitness-buddy/internal/validation"
	"go.uber.org/zap"
)

const week = 7 * 24 * time.Hour

// Tracker owns the daily step counter
type Tracker struct {
	gw     storage.Gateway
	logger *zap.Logger

	mu    sync.RWMutex
	steps int
}

// NewTracker creates a tracker backed by gw, starting at zero steps
func NewTracker(gw storage.Gateway, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{gw: gw, logger: logger}
}

// Load restores the step counter. Missing or malformed values reset it to 0.
func (t *Tracker) Load(ctx context.Context) int {
	steps := 0
	raw, err := t.gw.Get(ctx, storage.KeyTodaySteps)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		t.logger.Warn("steps_load_failed", zap.Error(err))
	default:
		parsed, perr := ParseSteps(raw)
		if perr != nil {
			t.logger.Warn("steps_malformed", zap.Error(perr))
		} else {
			steps = parsed
		}
	}

	t.mu.Lock()
	t.steps = steps
	t.mu.Unlock()
	return steps
}

// ParseSteps decodes a stored step count. It accepts a bare decimal, a JSON
// string holding one, or a JSON number; fractional parts are truncated. The
// result is clamped into [0, models.MaxDailySteps].
func ParseSteps(raw []byte) (int, error) {
	s := strings.TrimSpace(string(raw))
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unquoted)
	}
	if n, err := strconv.Atoi(s); err == nil {
		return clamp(n), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid step count %q", s)
	}
	switch {
	case f <= 0:
		return 0, nil
	case f >= models.MaxDailySteps:
		return models.MaxDailySteps, nil
	}
	return int(f), nil
}

func clamp(n int) int {
	if n < 0 {
		return 0
	}
	if n > models.MaxDailySteps {
		return models.MaxDailySteps
	}
	return n
}

// AddSteps adds n steps, capping the counter at MaxDailySteps, and persists
// the new value. n must be positive.
func (t *Tracker) AddSteps(ctx context.Context, n int) (int, error) {
	if n <= 0 {
		return t.Steps(), validation.NewError("steps", "must be greater than 0")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	next := t.steps + n
	if n > models.MaxDailySteps || next > models.MaxDailySteps {
		next = models.MaxDailySteps
	}
	added := next - t.steps
	t.steps = next
	observability.RecordStepsAdded(added)

	if err := storage.SaveRaw(ctx, t.gw, storage.KeyTodaySteps, []byte(strconv.Itoa(next))); err != nil {
		t.logger.Error("steps_save_failed", zap.Int("steps", next), zap.Error(err))
		return next, err
	}

	t.logger.Debug("steps_added",
		zap.Int("requested", n),
		zap.Int("added", added),
		zap.Int("total", next))
	return next, nil
}

// Steps returns today's step count
func (t *Tracker) Steps() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.steps
}

// TotalCalories sums calories over the whole history
func TotalCalories(history []models.WorkoutRecord) int {
	total := 0
	for _, r := range history {
		total += r.Calories
	}
	return total
}

// WeeklyWorkoutCount counts records completed within the seven days before
// now. The lower bound is exclusive: a record exactly seven days old no
// longer counts.
func WeeklyWorkoutCount(history []models.WorkoutRecord, now time.Time) int {
	weekAgo := now.Add(-week)
	count := 0
	for _, r := range history {
		if r.Date.After(weekAgo) && !r.Date.After(now) {
			count++
		}
	}
	return count
}

// Progress computes goal progress for a step count
func Progress(steps int) models.GoalProgress {
	remaining := models.DailyStepGoal - steps
	if remaining < 0 {
		remaining = 0
	}
	return models.GoalProgress{
		Goal:      models.DailyStepGoal,
		Completed: steps,
		Remaining: remaining,
		Fraction:  float64(steps) / float64(models.DailyStepGoal),
	}
}

// GoalProgress is Progress for the tracker's current count
func (t *Tracker) GoalProgress() models.GoalProgress {
	return Progress(t.Steps())
}

// Lifetime summarizes the whole history
func Lifetime(history []models.WorkoutRecord) models.LifetimeStats {
	return models.LifetimeStats{
		TotalWorkouts: len(history),
		TotalCalories: TotalCalories(history),
	}
}

// DailyCalories buckets workout calories into the seven calendar days ending
// on now's day in loc, oldest first.
func DailyCalories(history []models.WorkoutRecord, now time.Time, loc *time.Location) []models.DailyCalories {
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	days := make([]models.DailyCalories, 7)
	for i := range days {
		day := today.AddDate(0, 0, i-6)
		days[i] = models.DailyCalories{Day: day, Label: day.Weekday().String()[:3]}
	}

	for _, r := range history {
		d := r.Date.In(loc)
		day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
		for i := range days {
			if days[i].Day.Equal(day) {
				days[i].Calories += r.Calories
				days[i].Workouts++
				break
			}
		}
	}
	return days
}

// Feed merges today's steps and the workout history into one list, newest
// first. The step entry is dropped when it is zero and workouts exist.
func Feed(history []models.WorkoutRecord, steps int, now time.Time) []models.ActivityEntry {
	entries := make([]models.ActivityEntry, 0, len(history)+1)
	if steps > 0 || len(history) == 0 {
		entries = append(entries, models.ActivityEntry{
			Kind:  models.ActivityKindSteps,
			Name:  "Daily Steps",
			Date:  now,
			Steps: steps,
		})
	}
	for _, r := range history {
		entries = append(entries, models.ActivityEntry{
			Kind:     models.ActivityKindWorkout,
			Name:     r.Name,
			Date:     r.Date,
			Calories: r.Calories,
			Duration: r.Duration,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.After(entries[j].Date)
	})
	return entries
}
