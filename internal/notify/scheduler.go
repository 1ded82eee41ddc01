// Package notify shows one transient message at a time and clears it after
// a delay.
package notify

import (
	"sync"
	"time"

	"github.com/benvon/fitness-buddy/internal/models"
	"github.com/benvon/fitness-buddy/internal/observability"
	"go.uber.org/zap"
)

// DefaultDuration is how long a notification stays visible
const DefaultDuration = 3 * time.Second

// Scheduler holds the visible notification and its clear timer. Every Notify
// bumps a generation counter; a timer only clears the message it was
// scheduled for.
type Scheduler struct {
	logger   *zap.Logger
	duration time.Duration
	now      func() time.Time

	mu         sync.Mutex
	current    models.Notification
	visible    bool
	generation uint64
	timer      *time.Timer
	closed     bool
}

// NewScheduler creates a scheduler. A non-positive defaultDuration selects
// DefaultDuration.
func NewScheduler(defaultDuration time.Duration, logger *zap.Logger) *Scheduler {
	if defaultDuration <= 0 {
		defaultDuration = DefaultDuration
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{logger: logger, duration: defaultDuration, now: time.Now}
}

// Notify replaces the visible message with text for d. A non-positive d uses
// the scheduler default.
func (s *Scheduler) Notify(text string, d time.Duration) {
	if d <= 0 {
		d = s.duration
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.stopTimerLocked()
	s.generation++
	gen := s.generation
	s.current = models.Notification{Text: text, ExpiresAt: s.now().Add(d)}
	s.visible = true
	s.timer = time.AfterFunc(d, func() { s.expire(gen) })

	observability.RecordNotification()
	s.logger.Debug("notification_shown",
		zap.String("text", text),
		zap.Duration("duration", d))
}

func (s *Scheduler) expire(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return
	}
	s.visible = false
	s.current = models.Notification{}
	s.timer = nil
}

// Clear hides the message now and cancels its timer
func (s *Scheduler) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
	s.generation++
	s.visible = false
	s.current = models.Notification{}
}

// Current returns the visible notification, if any
func (s *Scheduler) Current() (models.Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.visible
}

// Close clears the message and refuses further notifications
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
	s.generation++
	s.visible = false
	s.current = models.Notification{}
	s.closed = true
}

func (s *Scheduler) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
