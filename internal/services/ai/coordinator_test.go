package ai

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	logpkg "github.com/benvon/fitness-buddy/internal/logger"
	"github.com/benvon/fitness-buddy/internal/models"
	"github.com/benvon/fitness-buddy/internal/validation"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"),
		// the limiter memory store cleans expired keys until its cache is collected
		goleak.IgnoreAnyFunction("github.com/ulule/limiter/v3/drivers/store/memory.(*cleaner).Run"),
		goleak.IgnoreAnyFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreAnyFunction("net/http.(*persistConn).writeLoop"),
	)
}

type fakeCollaborator struct {
	mu        sync.Mutex
	workouts  []models.WorkoutDescriptor
	advice    string
	err       error
	calls     int
	questions []string
	started   chan struct{}
	release   chan struct{}
}

func (f *fakeCollaborator) wait(ctx context.Context) {
	f.mu.Lock()
	f.calls++
	started, release := f.started, f.release
	f.mu.Unlock()
	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		<-release
	}
}

func (f *fakeCollaborator) GenerateWorkouts(ctx context.Context, _ *models.UserProfile) ([]models.WorkoutDescriptor, error) {
	f.wait(ctx)
	if f.err != nil {
		return nil, f.err
	}
	return models.CloneDescriptors(f.workouts), nil
}

func (f *fakeCollaborator) CoachAdvice(ctx context.Context, question string, _ *models.UserProfile) (string, error) {
	f.wait(ctx)
	f.mu.Lock()
	f.questions = append(f.questions, question)
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.advice, nil
}

func (f *fakeCollaborator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(text string, _ time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, text)
}

func (n *recordingNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

func testProfile() *models.UserProfile {
	return &models.UserProfile{
		Name:         "A",
		Age:          30,
		Weight:       70,
		Height:       175,
		Gender:       models.GenderMale,
		FitnessLevel: models.FitnessLevelBeginner,
		Goal:         models.GoalWeightLoss,
	}
}

func TestCoordinator_GenerateWorkoutsSuccess(t *testing.T) {
	t.Parallel()

	collab := &fakeCollaborator{workouts: []models.WorkoutDescriptor{
		{Name: "Row Sprint", Type: models.WorkoutTypeCardio, Duration: 20, Calories: 200},
		{ID: "custom", Name: "Core Burner", Type: models.WorkoutTypeStrength, Duration: 15, Calories: 120},
	}}
	notifier := &recordingNotifier{}
	c := NewCoordinator(collab, notifier, nil)

	workouts, err := c.GenerateWorkouts(context.Background(), testProfile())
	if err != nil {
		t.Fatalf("GenerateWorkouts failed: %v", err)
	}
	if len(workouts) != 2 {
		t.Fatalf("Expected 2 workouts, got %d", len(workouts))
	}
	if workouts[0].ID != "ai-0" || workouts[1].ID != "custom" {
		t.Errorf("Unexpected ids: %s, %s", workouts[0].ID, workouts[1].ID)
	}

	state := c.State()
	if state.InFlight {
		t.Error("Expected gate to be released")
	}
	if len(state.LastGeneratedWorkouts) != 2 {
		t.Errorf("Expected 2 stored workouts, got %d", len(state.LastGeneratedWorkouts))
	}
	if msgs := notifier.all(); len(msgs) != 1 || msgs[0] != MessageWorkoutsGenerated {
		t.Errorf("Unexpected notifications: %v", msgs)
	}
	if d, ok := c.FindGenerated("ai-0"); !ok || d.Name != "Row Sprint" {
		t.Errorf("Expected to find ai-0, got %+v (found=%v)", d, ok)
	}
}

func TestCoordinator_GenerateWorkoutsFailureKeepsPrevious(t *testing.T) {
	t.Parallel()

	collab := &fakeCollaborator{workouts: []models.WorkoutDescriptor{{Name: "Keep Me"}}}
	notifier := &recordingNotifier{}
	c := NewCoordinator(collab, notifier, nil)

	if _, err := c.GenerateWorkouts(context.Background(), testProfile()); err != nil {
		t.Fatalf("First generation failed: %v", err)
	}

	collab.err = errors.New("upstream exploded: secret detail")
	_, err := c.GenerateWorkouts(context.Background(), testProfile())
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("Expected ErrGenerationFailed, got %v", err)
	}
	if err.Error() != ErrGenerationFailed.Error() {
		t.Errorf("Expected fixed error text, got %q", err.Error())
	}

	state := c.State()
	if state.InFlight {
		t.Error("Expected gate to be released after failure")
	}
	if len(state.LastGeneratedWorkouts) != 1 || state.LastGeneratedWorkouts[0].Name != "Keep Me" {
		t.Errorf("Expected previous workouts to be kept, got %+v", state.LastGeneratedWorkouts)
	}
	msgs := notifier.all()
	if len(msgs) != 2 || msgs[1] != MessageGenerationFailed {
		t.Errorf("Unexpected notifications: %v", msgs)
	}
}

func TestCoordinator_GenerateWorkoutsNoProfile(t *testing.T) {
	t.Parallel()

	collab := &fakeCollaborator{}
	notifier := &recordingNotifier{}
	c := NewCoordinator(collab, notifier, nil)

	if _, err := c.GenerateWorkouts(context.Background(), nil); !errors.Is(err, ErrNoProfile) {
		t.Fatalf("Expected ErrNoProfile, got %v", err)
	}
	if collab.callCount() != 0 {
		t.Error("Expected no collaborator call")
	}
	if len(notifier.all()) != 0 {
		t.Error("Expected no notification")
	}
}

func TestCoordinator_SingleFlight(t *testing.T) {
	t.Parallel()

	collab := &fakeCollaborator{
		workouts: []models.WorkoutDescriptor{{Name: "Slow"}},
		advice:   "drink water",
		started:  make(chan struct{}, 1),
		release:  make(chan struct{}),
	}
	c := NewCoordinator(collab, &recordingNotifier{}, nil)

	done := make(chan error, 1)
	go func() {
		_, err := c.GenerateWorkouts(context.Background(), testProfile())
		done <- err
	}()
	<-collab.started

	if !c.InFlight() {
		t.Error("Expected InFlight while the first call is pending")
	}
	if op := c.State().Operation; op != models.AIOperationGenerateWorkouts {
		t.Errorf("Expected operation %s, got %s", models.AIOperationGenerateWorkouts, op)
	}
	if _, err := c.GenerateWorkouts(context.Background(), testProfile()); !errors.Is(err, ErrBusy) {
		t.Errorf("Expected ErrBusy for second generation, got %v", err)
	}
	if _, err := c.AskCoach(context.Background(), "how?", testProfile()); !errors.Is(err, ErrBusy) {
		t.Errorf("Expected ErrBusy for coach question, got %v", err)
	}

	close(collab.release)
	if err := <-done; err != nil {
		t.Fatalf("First generation failed: %v", err)
	}
	if c.InFlight() {
		t.Error("Expected gate to be released")
	}
	if collab.callCount() != 1 {
		t.Errorf("Expected exactly one collaborator call, got %d", collab.callCount())
	}
}

func TestCoordinator_CallerCancellationDoesNotAbortCall(t *testing.T) {
	t.Parallel()

	collab := &fakeCollaborator{
		workouts: []models.WorkoutDescriptor{{Name: "Late"}},
		started:  make(chan struct{}, 1),
		release:  make(chan struct{}),
	}
	c := NewCoordinator(collab, &recordingNotifier{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.GenerateWorkouts(ctx, testProfile())
		done <- err
	}()
	<-collab.started
	cancel()
	close(collab.release)

	if err := <-done; err != nil {
		t.Fatalf("Expected late result to be applied, got %v", err)
	}
	if got := c.LastGenerated(); len(got) != 1 || got[0].Name != "Late" {
		t.Errorf("Expected late workouts to be stored, got %+v", got)
	}
}

func TestCoordinator_AskCoach(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		question   string
		collabErr  error
		wantAnswer string
		wantErr    error
		wantCalls  int
	}{
		{"answer", "What should I eat?", nil, "Eat oats.", nil, 1},
		{"collaborator failure apologizes", "What should I eat?", errors.New("timeout"), CoachApology, nil, 1},
		{"empty question", "   \t ", nil, "", ErrEmptyQuestion, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			collab := &fakeCollaborator{advice: "Eat oats.", err: tt.collabErr}
			notifier := &recordingNotifier{}
			c := NewCoordinator(collab, notifier, nil)

			answer, err := c.AskCoach(context.Background(), tt.question, testProfile())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Expected error %v, got %v", tt.wantErr, err)
			}
			if answer != tt.wantAnswer {
				t.Errorf("Expected answer %q, got %q", tt.wantAnswer, answer)
			}
			if collab.callCount() != tt.wantCalls {
				t.Errorf("Expected %d calls, got %d", tt.wantCalls, collab.callCount())
			}
			if c.State().LastCoachResponse != tt.wantAnswer {
				t.Errorf("Expected stored response %q, got %q", tt.wantAnswer, c.State().LastCoachResponse)
			}
			if len(notifier.all()) != 0 {
				t.Errorf("Expected no notifications, got %v", notifier.all())
			}
		})
	}
}

func TestCoordinator_EmptyQuestionIsValidationError(t *testing.T) {
	t.Parallel()

	c := NewCoordinator(&fakeCollaborator{}, nil, nil)
	_, err := c.AskCoach(context.Background(), "", nil)
	if !validation.IsValidationError(err) {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestCoordinator_AskCoachTrimsQuestion(t *testing.T) {
	t.Parallel()

	collab := &fakeCollaborator{advice: "ok"}
	c := NewCoordinator(collab, nil, nil)
	if _, err := c.AskCoach(context.Background(), "  how far should I run?  ", testProfile()); err != nil {
		t.Fatalf("AskCoach failed: %v", err)
	}
	if len(collab.questions) != 1 || collab.questions[0] != "how far should I run?" {
		t.Errorf("Unexpected questions: %q", collab.questions)
	}
}

func TestCoordinator_RateLimit(t *testing.T) {
	t.Parallel()

	lim, err := NewRateLimiter("1-H")
	if err != nil {
		t.Fatalf("NewRateLimiter failed: %v", err)
	}
	collab := &fakeCollaborator{workouts: []models.WorkoutDescriptor{{Name: "One"}}}
	c := NewCoordinator(collab, &recordingNotifier{}, nil, WithLimiter(lim))

	if _, err := c.GenerateWorkouts(context.Background(), testProfile()); err != nil {
		t.Fatalf("First generation failed: %v", err)
	}
	if _, err := c.GenerateWorkouts(context.Background(), testProfile()); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("Expected ErrRateLimited, got %v", err)
	}
	if c.InFlight() {
		t.Error("Expected gate to be released after rate limit rejection")
	}
	if collab.callCount() != 1 {
		t.Errorf("Expected one collaborator call, got %d", collab.callCount())
	}
}

func TestNewRateLimiter(t *testing.T) {
	t.Parallel()

	if lim, err := NewRateLimiter(""); err != nil || lim != nil {
		t.Errorf("Expected nil limiter for empty rate, got %v (err %v)", lim, err)
	}
	if _, err := NewRateLimiter("lots-per-day"); err == nil {
		t.Error("Expected error for malformed rate")
	}
}

func TestCoordinator_FailureLogIsSanitized(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.ErrorLevel)
	collab := &fakeCollaborator{err: errors.New("upstream \x1b[31mboom\n" + strings.Repeat("x", 3000))}
	c := NewCoordinator(collab, &recordingNotifier{}, zap.New(core))

	if _, err := c.GenerateWorkouts(context.Background(), testProfile()); !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("Expected ErrGenerationFailed, got %v", err)
	}
	if answer, _ := c.AskCoach(context.Background(), "hi", testProfile()); answer != CoachApology {
		t.Fatalf("Expected apology, got %q", answer)
	}

	entries := logs.FilterMessage("ai_request_failed").All()
	if len(entries) != 2 {
		t.Fatalf("Expected 2 failure logs, got %d", len(entries))
	}
	for _, entry := range entries {
		msg, ok := entry.ContextMap()["error"].(string)
		if !ok {
			t.Fatalf("Expected string error field, got %v", entry.ContextMap()["error"])
		}
		if strings.ContainsAny(msg, "\x1b\n") {
			t.Errorf("Expected control characters stripped, got %q", msg[:40])
		}
		if !strings.HasPrefix(msg, "upstream [31mboom") {
			t.Errorf("Unexpected error text: %q", msg[:40])
		}
		if len(msg) > logpkg.MaxErrorMessageLength+len("...") {
			t.Errorf("Expected error truncated to %d bytes, got %d", logpkg.MaxErrorMessageLength, len(msg))
		}
	}
}
