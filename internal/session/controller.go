// Package session owns the application state aggregate: profile, steps,
// workout history, the active workout and the AI results. It is the only
// writer of the workout history.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benvon/fitness-buddy/internal/activity"
	"github.com/benvon/fitness-buddy/internal/catalog"
	"github.com/benvon/fitness-buddy/internal/models"
	"github.com/benvon/fitness-buddy/internal/notify"
	"github.com/benvon/fitness-buddy/internal/observability"
	"github.com/benvon/fitness-buddy/internal/profile"
	"github.com/benvon/fitness-buddy/internal/services/ai"
	"github.com/benvon/fitness-buddy/internal/storage"
	"github.com/benvon/fitness-buddy/internal/validation"
	"go.uber.org/zap"
)

// User-facing texts
const (
	MessageWelcome          = "Welcome! Your journey starts now!"
	MessageWorkoutComplete  = "Workout Complete! Great job!"
	DashboardRecommendCount = 3
)

var (
	// ErrSessionActive is returned when starting a workout while one is active
	ErrSessionActive = errors.New("a workout is already in progress")
	// ErrNoActiveSession is returned when completing or abandoning without an active workout
	ErrNoActiveSession = errors.New("no workout in progress")
	// ErrUnknownWorkout is returned when a workout id matches nothing
	ErrUnknownWorkout = errors.New("unknown workout")
	// ErrAIUnavailable is returned when no AI collaborator is configured
	ErrAIUnavailable = errors.New("AI features are not configured")
)

// Option configures a Controller
type Option func(*Controller)

// WithClock replaces the clock used for completion and join dates
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithLocation sets the time zone used for calendar-day aggregates
func WithLocation(loc *time.Location) Option {
	return func(c *Controller) { c.loc = loc }
}

// Controller serializes every synchronous state change behind one lock.
// AI operations run outside the lock so that steps and workouts can be
// recorded while a request is pending.
type Controller struct {
	gw          storage.Gateway
	profiles    *profile.Store
	tracker     *activity.Tracker
	notifier    *notify.Scheduler
	coordinator *ai.Coordinator
	logger      *zap.Logger
	now         func() time.Time
	loc         *time.Location

	mu      sync.RWMutex
	history []models.WorkoutRecord
	active  *models.WorkoutDescriptor
}

// New builds a controller over gw. The caller keeps ownership of gw,
// notifier and coordinator.
func New(gw storage.Gateway, notifier *notify.Scheduler, coordinator *ai.Coordinator, logger *zap.Logger, opts ...Option) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Controller{
		gw:          gw,
		profiles:    profile.NewStore(gw, logger.Named("profile")),
		tracker:     activity.NewTracker(gw, logger.Named("activity")),
		notifier:    notifier,
		coordinator: coordinator,
		logger:      logger,
		now:         time.Now,
		loc:         time.Local,
		history:     []models.WorkoutRecord{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.profiles.SetClock(c.now)
	return c
}

// Restore loads the persisted profile, steps and history. Each record fails
// open independently.
func (c *Controller) Restore(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.profiles.Load(ctx)
	steps := c.tracker.Load(ctx)

	var history []models.WorkoutRecord
	if _, err := storage.LoadJSON(ctx, c.gw, storage.KeyWorkoutHistory, &history); err != nil {
		c.logger.Warn("history_load_failed", zap.Error(err))
		history = nil
	}
	if history == nil {
		history = []models.WorkoutRecord{}
	}
	c.history = history

	c.logger.Info("session_restored",
		zap.Bool("onboarded", p != nil),
		zap.Int("steps", steps),
		zap.Int("history_count", len(history)))
}

// Onboard creates the profile from draft and greets the user
func (c *Controller) Onboard(ctx context.Context, draft models.ProfileDraft) (*models.UserProfile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := c.profiles.Create(ctx, draft)
	if err != nil {
		return nil, err
	}
	c.notify(MessageWelcome)
	return p, nil
}

// AddSteps adds n steps to today's count
func (c *Controller) AddSteps(ctx context.Context, n int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tracker.AddSteps(ctx, n)
}

// Start makes d the active workout. Only one workout may be active.
func (c *Controller) Start(d models.WorkoutDescriptor) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startLocked(d)
}

func (c *Controller) startLocked(d models.WorkoutDescriptor) error {
	if c.active != nil {
		c.logger.Warn("workout_start_rejected",
			zap.String("active", c.active.Name),
			zap.String("requested", d.Name))
		return ErrSessionActive
	}
	if d.Name == "" {
		return validation.NewError("name", "is required")
	}
	active := d.Clone()
	c.active = &active
	c.logger.Info("workout_started",
		zap.String("workout_id", d.ID),
		zap.String("workout", d.Name))
	return nil
}

// StartByID starts a catalog workout, or a generated one when no catalog
// workout has that id.
func (c *Controller) StartByID(id string) (models.WorkoutDescriptor, error) {
	d, ok := c.Resolve(id)
	if !ok {
		return models.WorkoutDescriptor{}, fmt.Errorf("%w: %s", ErrUnknownWorkout, id)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.startLocked(d); err != nil {
		return models.WorkoutDescriptor{}, err
	}
	return d, nil
}

// Resolve finds a workout by id in the catalog, then in the last generated set
func (c *Controller) Resolve(id string) (models.WorkoutDescriptor, bool) {
	if d, ok := catalog.Lookup(id); ok {
		return d, true
	}
	if c.coordinator != nil {
		return c.coordinator.FindGenerated(id)
	}
	return models.WorkoutDescriptor{}, false
}

// Complete records the active workout in the history and ends the session.
// If the history cannot be persisted the in-memory record is kept and the
// error is returned; the next successful write carries it.
func (c *Controller) Complete(ctx context.Context) (models.WorkoutRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active == nil {
		c.logger.Warn("workout_complete_rejected", zap.String("reason", "no_active_session"))
		return models.WorkoutRecord{}, ErrNoActiveSession
	}

	record := models.NewWorkoutRecord(*c.active, c.now().UTC())
	history := make([]models.WorkoutRecord, 0, len(c.history)+1)
	history = append(history, record)
	history = append(history, c.history...)
	c.history = history
	c.active = nil

	observability.RecordWorkoutCompleted()
	c.logger.Info("workout_completed",
		zap.String("workout_id", record.ID),
		zap.String("workout", record.Name),
		zap.Int("calories", record.Calories),
		zap.Int("history_count", len(history)))

	var saveErr error
	if err := storage.SaveJSON(ctx, c.gw, storage.KeyWorkoutHistory, c.history); err != nil {
		c.logger.Error("history_save_failed", zap.Error(err))
		saveErr = fmt.Errorf("workout recorded but not saved: %w", err)
	}

	c.notify(MessageWorkoutComplete)
	return record, saveErr
}

// Abandon ends the active workout without recording it
func (c *Controller) Abandon() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active == nil {
		c.logger.Warn("workout_abandon_rejected", zap.String("reason", "no_active_session"))
		return ErrNoActiveSession
	}
	c.logger.Info("workout_abandoned", zap.String("workout", c.active.Name))
	c.active = nil
	return nil
}

// GenerateWorkouts asks the AI collaborator for workouts for the current profile
func (c *Controller) GenerateWorkouts(ctx context.Context) ([]models.WorkoutDescriptor, error) {
	if c.coordinator == nil {
		return nil, ErrAIUnavailable
	}
	return c.coordinator.GenerateWorkouts(ctx, c.profiles.Current())
}

// AskCoach asks the AI coach a question on behalf of the current profile
func (c *Controller) AskCoach(ctx context.Context, question string) (string, error) {
	if c.coordinator == nil {
		return "", ErrAIUnavailable
	}
	return c.coordinator.AskCoach(ctx, question, c.profiles.Current())
}

// Recommendations returns catalog workouts for the profile, at most limit
// when limit is positive.
func (c *Controller) Recommendations(limit int) []models.WorkoutDescriptor {
	recs := catalog.RecommendFor(c.profiles.Current())
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs
}

// ClearNotification hides the visible notification
func (c *Controller) ClearNotification() {
	if c.notifier != nil {
		c.notifier.Clear()
	}
}

// Profile returns a copy of the profile, or nil before onboarding
func (c *Controller) Profile() *models.UserProfile {
	return c.profiles.Current()
}

// Steps returns today's step count
func (c *Controller) Steps() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tracker.Steps()
}

// History returns a copy of the workout history, newest first
func (c *Controller) History() []models.WorkoutRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return models.CloneHistory(c.history)
}

// ActiveSession returns the active workout, if any
func (c *Controller) ActiveSession() (models.WorkoutDescriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.active == nil {
		return models.WorkoutDescriptor{}, false
	}
	return c.active.Clone(), true
}

// Notification returns the visible notification, if any
func (c *Controller) Notification() (models.Notification, bool) {
	if c.notifier == nil {
		return models.Notification{}, false
	}
	return c.notifier.Current()
}

// AIState returns the coordinator state
func (c *Controller) AIState() models.AIRequestState {
	if c.coordinator == nil {
		return models.AIRequestState{LastGeneratedWorkouts: []models.WorkoutDescriptor{}}
	}
	return c.coordinator.State()
}

// State returns a consistent snapshot of everything the presentation layer shows
func (c *Controller) State() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	p := c.profiles.Current()
	steps := c.tracker.Steps()
	history := models.CloneHistory(c.history)

	s := Snapshot{
		Profile:        p,
		Onboarded:      p != nil,
		Steps:          steps,
		Goal:           activity.Progress(steps),
		TotalCalories:  activity.TotalCalories(history),
		WeeklyWorkouts: activity.WeeklyWorkoutCount(history, now),
		Lifetime:       activity.Lifetime(history),
		History:        history,
		Recommended:    c.Recommendations(DashboardRecommendCount),
		DailyCalories:  activity.DailyCalories(history, now, c.loc),
		Activity:       activity.Feed(history, steps, now),
		AI:             c.AIState(),
		GeneratedAt:    now,
	}
	if c.active != nil {
		active := c.active.Clone()
		s.ActiveWorkout = &active
	}
	if n, ok := c.Notification(); ok {
		s.Notification = &n
	}
	return s
}

func (c *Controller) notify(text string) {
	if c.notifier != nil {
		c.notifier.Notify(text, 0)
	}
}
