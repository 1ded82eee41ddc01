package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	logpkg "github.com/benvon/fitness-buddy/internal/logger"
	"github.com/benvon/fitness-buddy/internal/models"
	"github.com/benvon/fitness-buddy/internal/observability"
	"github.com/benvon/fitness-buddy/internal/telemetry"
	"github.com/benvon/fitness-buddy/internal/validation"
	"github.com/google/uuid"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// User-facing texts
const (
	MessageWorkoutsGenerated = "🤖 AI Workouts Generated!"
	MessageGenerationFailed  = "Error generating workouts."
	CoachApology             = "Sorry, I encountered an error. Please try again."
)

var (
	// ErrBusy is returned while another AI operation is in flight
	ErrBusy = errors.New("an AI request is already in progress")
	// ErrNoProfile is returned when generation is requested before onboarding
	ErrNoProfile = errors.New("a profile is required before generating workouts")
	// ErrRateLimited is returned when the local AI request budget is spent
	ErrRateLimited = errors.New("AI request budget exhausted, try again later")
	// ErrGenerationFailed reports a failed generation. It never carries the
	// collaborator's error.
	ErrGenerationFailed = errors.New("failed to generate workouts")
	// ErrEmptyQuestion is returned for a blank coach question
	ErrEmptyQuestion = validation.NewError("question", "must not be empty")
)

const limiterKey = "ai"

// Notifier shows a transient message
type Notifier interface {
	Notify(text string, d time.Duration)
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithLimiter caps how often the collaborator may be called
func WithLimiter(l *limiter.Limiter) Option {
	return func(c *Coordinator) { c.limiter = l }
}

// WithTracer overrides the tracer used for collaborator spans
func WithTracer(t trace.Tracer) Option {
	return func(c *Coordinator) { c.tracer = t }
}

// NewRateLimiter builds an in-memory limiter from a formatted rate such as
// "30-H". An empty rate disables limiting and returns nil.
func NewRateLimiter(formatted string) (*limiter.Limiter, error) {
	if strings.TrimSpace(formatted) == "" {
		return nil, nil
	}
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("invalid ai rate limit %q: %w", formatted, err)
	}
	return limiter.New(memory.NewStore(), rate), nil
}

// Coordinator runs AI operations one at a time. A single in-flight gate
// covers both workout generation and coach questions; a second request
// while one is pending is rejected, never queued.
type Coordinator struct {
	collaborator Collaborator
	notifier     Notifier
	limiter      *limiter.Limiter
	tracer       trace.Tracer
	logger       *zap.Logger

	mu    sync.Mutex
	state models.AIRequestState
}

// NewCoordinator creates a coordinator delegating to collaborator
func NewCoordinator(collaborator Collaborator, notifier Notifier, logger *zap.Logger, opts ...Option) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Coordinator{
		collaborator: collaborator,
		notifier:     notifier,
		tracer:       telemetry.Tracer(),
		logger:       logger,
		state:        models.AIRequestState{LastGeneratedWorkouts: []models.WorkoutDescriptor{}},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GenerateWorkouts asks the collaborator for workouts tailored to profile.
// On success they replace the last generated set; on failure the previous
// set is kept and ErrGenerationFailed is returned.
func (c *Coordinator) GenerateWorkouts(ctx context.Context, profile *models.UserProfile) ([]models.WorkoutDescriptor, error) {
	op := models.AIOperationGenerateWorkouts
	if profile == nil {
		c.reject(op, "no_profile", ErrNoProfile)
		return nil, ErrNoProfile
	}
	if err := c.begin(ctx, op); err != nil {
		return nil, err
	}
	defer c.end()

	callCtx, span := c.startCall(ctx, op)
	defer span.End()

	start := time.Now()
	workouts, err := c.collaborator.GenerateWorkouts(callCtx, profile.Clone())
	latency := time.Since(start)
	observability.RecordAIRequest(string(op), err, latency)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, classifyError(err))
		c.logger.Error("ai_request_failed",
			zap.String("operation", string(op)),
			zap.String("request_id", ExtractRequestID(callCtx)),
			zap.String("error_class", classifyError(err)),
			zap.Duration("latency", latency),
			zap.String("error", logpkg.SanitizeError(err)))
		c.notify(MessageGenerationFailed)
		return nil, ErrGenerationFailed
	}

	workouts = assignIDs(workouts)
	span.SetAttributes(attribute.Int("ai.workouts", len(workouts)))

	c.mu.Lock()
	c.state.LastGeneratedWorkouts = models.CloneDescriptors(workouts)
	c.mu.Unlock()

	c.logger.Info("ai_workouts_generated",
		zap.String("request_id", ExtractRequestID(callCtx)),
		zap.Int("count", len(workouts)),
		zap.Duration("latency", latency))
	c.notify(MessageWorkoutsGenerated)
	return workouts, nil
}

// AskCoach asks the collaborator a free-form question. Collaborator failures
// are answered with CoachApology and a nil error.
func (c *Coordinator) AskCoach(ctx context.Context, question string, profile *models.UserProfile) (string, error) {
	op := models.AIOperationAskCoach
	question = strings.TrimSpace(question)
	if question == "" {
		c.reject(op, "empty_question", ErrEmptyQuestion)
		return "", ErrEmptyQuestion
	}
	if err := c.begin(ctx, op); err != nil {
		return "", err
	}
	defer c.end()

	c.mu.Lock()
	c.state.LastCoachResponse = ""
	c.mu.Unlock()

	callCtx, span := c.startCall(ctx, op)
	defer span.End()

	start := time.Now()
	answer, err := c.collaborator.CoachAdvice(callCtx, question, profile.Clone())
	latency := time.Since(start)
	observability.RecordAIRequest(string(op), err, latency)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, classifyError(err))
		c.logger.Error("ai_request_failed",
			zap.String("operation", string(op)),
			zap.String("request_id", ExtractRequestID(callCtx)),
			zap.String("error_class", classifyError(err)),
			zap.Duration("latency", latency),
			zap.String("error", logpkg.SanitizeError(err)))
		answer = CoachApology
	}

	c.mu.Lock()
	c.state.LastCoachResponse = answer
	c.mu.Unlock()
	return answer, nil
}

// begin claims the in-flight gate and charges the request budget
func (c *Coordinator) begin(ctx context.Context, op models.AIOperation) error {
	c.mu.Lock()
	if c.state.InFlight {
		current := c.state.Operation
		c.mu.Unlock()
		c.logger.Warn("ai_request_rejected",
			zap.String("operation", string(op)),
			zap.String("in_flight", string(current)),
			zap.String("reason", "busy"))
		observability.RecordAIRejection(string(op), "busy")
		return ErrBusy
	}
	c.state.InFlight = true
	c.state.Operation = op
	c.mu.Unlock()

	if c.limiter != nil {
		lctx, err := c.limiter.Get(ctx, limiterKey)
		if err != nil {
			c.logger.Warn("ai_rate_limit_check_failed", zap.Error(err))
		} else if lctx.Reached {
			c.end()
			c.reject(op, "rate_limited", ErrRateLimited)
			return ErrRateLimited
		}
	}
	return nil
}

// end releases the in-flight gate
func (c *Coordinator) end() {
	c.mu.Lock()
	c.state.InFlight = false
	c.state.Operation = models.AIOperationNone
	c.mu.Unlock()
}

func (c *Coordinator) reject(op models.AIOperation, reason string, err error) {
	c.logger.Warn("ai_request_rejected",
		zap.String("operation", string(op)),
		zap.String("reason", reason),
		zap.Error(err))
	observability.RecordAIRejection(string(op), reason)
}

// startCall detaches the collaborator call from the caller's cancellation
// and tags it with a span and request id.
func (c *Coordinator) startCall(ctx context.Context, op models.AIOperation) (context.Context, trace.Span) {
	requestID := ExtractRequestID(ctx)
	if requestID == "" {
		requestID = uuid.New().String()
	}
	ctx, span := c.tracer.Start(ctx, "ai."+string(op),
		trace.WithAttributes(
			attribute.String("ai.operation", string(op)),
			attribute.String("request_id", requestID),
		))
	return WithRequestID(context.WithoutCancel(ctx), requestID), span
}

func (c *Coordinator) notify(text string) {
	if c.notifier != nil {
		c.notifier.Notify(text, 0)
	}
}

// assignIDs gives every workout without an id the id "ai-<index>"
func assignIDs(workouts []models.WorkoutDescriptor) []models.WorkoutDescriptor {
	out := models.CloneDescriptors(workouts)
	if out == nil {
		out = []models.WorkoutDescriptor{}
	}
	for i := range out {
		if out[i].ID == "" {
			out[i].ID = fmt.Sprintf("ai-%d", i)
		}
	}
	return out
}

// State returns a copy of the coordinator state
func (c *Coordinator) State() models.AIRequestState {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.LastGeneratedWorkouts = models.CloneDescriptors(c.state.LastGeneratedWorkouts)
	return s
}

// InFlight reports whether an AI operation is pending
func (c *Coordinator) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.InFlight
}

// LastGenerated returns the most recent generated workouts
func (c *Coordinator) LastGenerated() []models.WorkoutDescriptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return models.CloneDescriptors(c.state.LastGeneratedWorkouts)
}

// FindGenerated looks up a generated workout by id
func (c *Coordinator) FindGenerated(id string) (models.WorkoutDescriptor, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range c.state.LastGeneratedWorkouts {
		if d.ID == id {
			return d.Clone(), true
		}
	}
	return models.WorkoutDescriptor{}, false
}
