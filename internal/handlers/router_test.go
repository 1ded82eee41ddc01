package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benvon/fitness-buddy/internal/models"
	"github.com/benvon/fitness-buddy/internal/notify"
	"github.com/benvon/fitness-buddy/internal/services/ai"
	"github.com/benvon/fitness-buddy/internal/session"
	"github.com/benvon/fitness-buddy/internal/storage"
	json "github.com/goccy/go-json"
)

type stubCollaborator struct {
	err error
}

func (s *stubCollaborator) GenerateWorkouts(context.Context, *models.UserProfile) ([]models.WorkoutDescriptor, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []models.WorkoutDescriptor{
		{Name: "Kettlebell Flow", Type: models.WorkoutTypeMixed, Duration: 30, Calories: 300, Exercises: []string{"Swings - 3x15"}},
	}, nil
}

func (s *stubCollaborator) CoachAdvice(_ context.Context, question string, _ *models.UserProfile) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "Start slow: " + question, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

type apiClient struct {
	t       *testing.T
	handler http.Handler
}

func (c apiClient) do(method, path, body string) (int, envelope) {
	c.t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 && strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			c.t.Fatalf("%s %s: failed to decode body %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w.Code, env
}

func newTestAPI(t *testing.T, collab ai.Collaborator) apiClient {
	t.Helper()
	gw := storage.NewMemoryGateway()
	notifier := notify.NewScheduler(time.Minute, nil)
	t.Cleanup(notifier.Close)

	var coordinator *ai.Coordinator
	if collab != nil {
		coordinator = ai.NewCoordinator(collab, notifier, nil)
	}
	ctrl := session.New(gw, notifier, coordinator, nil, session.WithLocation(time.UTC))
	ctrl.Restore(context.Background())

	return apiClient{t: t, handler: NewRouter(RouterConfig{
		Controller:     ctrl,
		Storage:        gw,
		AllowedOrigins: []string{"http://localhost:3000"},
		Metrics:        true,
	})}
}

const validProfile = `{"name":"Sam","age":30,"weight":70,"height":175}`

func TestRouter_WorkoutLifecycle(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, &stubCollaborator{})

	steps := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"generate before onboarding", "POST", "/api/v1/ai/workouts", "", http.StatusPreconditionFailed},
		{"incomplete profile", "POST", "/api/v1/profile", `{"name":"Sam"}`, http.StatusBadRequest},
		{"malformed profile", "POST", "/api/v1/profile", `{"name":`, http.StatusBadRequest},
		{"onboard", "POST", "/api/v1/profile", validProfile, http.StatusCreated},
		{"get profile", "GET", "/api/v1/profile", "", http.StatusOK},
		{"zero steps", "POST", "/api/v1/steps", `{"steps":0}`, http.StatusBadRequest},
		{"add steps", "POST", "/api/v1/steps", `{"steps":2500}`, http.StatusOK},
		{"bad limit", "GET", "/api/v1/workouts/recommended?limit=x", "", http.StatusBadRequest},
		{"no active workout", "GET", "/api/v1/workouts/active", "", http.StatusNotFound},
		{"complete without session", "POST", "/api/v1/workouts/active/complete", "", http.StatusConflict},
		{"abandon without session", "DELETE", "/api/v1/workouts/active", "", http.StatusConflict},
		{"unknown workout", "POST", "/api/v1/workouts/active", `{"id":"99"}`, http.StatusNotFound},
		{"nameless descriptor", "POST", "/api/v1/workouts/active", `{}`, http.StatusBadRequest},
		{"start catalog workout", "POST", "/api/v1/workouts/active", `{"id":"1"}`, http.StatusCreated},
		{"second start", "POST", "/api/v1/workouts/active", `{"id":"2"}`, http.StatusConflict},
		{"active workout", "GET", "/api/v1/workouts/active", "", http.StatusOK},
		{"complete", "POST", "/api/v1/workouts/active/complete", "", http.StatusOK},
		{"generate", "POST", "/api/v1/ai/workouts", "", http.StatusOK},
		{"start generated workout", "POST", "/api/v1/workouts/active", `{"id":"ai-0"}`, http.StatusCreated},
		{"abandon", "DELETE", "/api/v1/workouts/active", "", http.StatusNoContent},
		{"start custom descriptor", "POST", "/api/v1/workouts/active", `{"name":"Yard Work","type":"mixed","duration":45,"calories":250}`, http.StatusCreated},
		{"complete custom", "POST", "/api/v1/workouts/active/complete", "", http.StatusOK},
		{"empty question", "POST", "/api/v1/ai/coach", `{"question":"   "}`, http.StatusBadRequest},
		{"ask coach", "POST", "/api/v1/ai/coach", `{"question":"How do I start?"}`, http.StatusOK},
		{"clear notification", "DELETE", "/api/v1/notification", "", http.StatusNoContent},
		{"unknown route", "GET", "/api/v1/nope", "", http.StatusNotFound},
		{"wrong method", "PATCH", "/api/v1/state", "", http.StatusMethodNotAllowed},
	}
	for _, s := range steps {
		if code, env := api.do(s.method, s.path, s.body); code != s.wantStatus {
			t.Fatalf("%s: expected status %d, got %d (%s)", s.name, s.wantStatus, code, env.Message)
		}
	}

	_, env := api.do("GET", "/api/v1/history", "")
	var history []models.WorkoutRecord
	if err := json.Unmarshal(env.Data, &history); err != nil {
		t.Fatalf("Failed to decode history: %v", err)
	}
	if len(history) != 2 || history[0].Name != "Yard Work" || history[1].Name != "Morning Walk & Stretch" {
		t.Errorf("Expected newest-first history, got %+v", history)
	}

	_, env = api.do("GET", "/api/v1/state", "")
	var state session.Snapshot
	if err := json.Unmarshal(env.Data, &state); err != nil {
		t.Fatalf("Failed to decode state: %v", err)
	}
	if !state.Onboarded || state.Steps != 2500 || state.TotalCalories != 370 {
		t.Errorf("Unexpected state: onboarded=%v steps=%d calories=%d", state.Onboarded, state.Steps, state.TotalCalories)
	}
	if state.ActiveWorkout != nil {
		t.Error("Expected no active workout")
	}
	if state.Notification != nil {
		t.Errorf("Expected notification cleared, got %+v", state.Notification)
	}
	if state.AI.LastCoachResponse != "Start slow: How do I start?" {
		t.Errorf("Unexpected coach response: %q", state.AI.LastCoachResponse)
	}

	_, env = api.do("GET", "/api/v1/activity", "")
	var feed []models.ActivityEntry
	if err := json.Unmarshal(env.Data, &feed); err != nil {
		t.Fatalf("Failed to decode activity: %v", err)
	}
	if len(feed) != 3 {
		t.Errorf("Expected steps entry plus two workouts, got %d entries", len(feed))
	}
}

func TestRouter_Recommended(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, nil)
	if code, _ := api.do("POST", "/api/v1/profile", `{"name":"Sam","age":30,"weight":70,"height":175,"fitnessLevel":"advanced","goal":"weight_loss"}`); code != http.StatusCreated {
		t.Fatalf("Onboarding failed with %d", code)
	}

	tests := []struct {
		query string
		want  int
	}{
		{"", 2},
		{"?limit=1", 1},
		{"?limit=0", 2},
	}
	for _, tt := range tests {
		code, env := api.do("GET", "/api/v1/workouts/recommended"+tt.query, "")
		if code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", code)
		}
		var recs []models.WorkoutDescriptor
		if err := json.Unmarshal(env.Data, &recs); err != nil {
			t.Fatalf("Failed to decode: %v", err)
		}
		if len(recs) != tt.want {
			t.Errorf("limit %q: expected %d workouts, got %d", tt.query, tt.want, len(recs))
		}
	}

	_, env := api.do("GET", "/api/v1/catalog", "")
	var all []models.WorkoutDescriptor
	if err := json.Unmarshal(env.Data, &all); err != nil || len(all) != 16 {
		t.Errorf("Expected 16 catalog workouts, got %d (%v)", len(all), err)
	}
}

func TestRouter_AIFailures(t *testing.T) {
	t.Parallel()

	t.Run("not configured", func(t *testing.T) {
		t.Parallel()
		api := newTestAPI(t, nil)
		api.do("POST", "/api/v1/profile", validProfile)
		if code, _ := api.do("POST", "/api/v1/ai/workouts", ""); code != http.StatusServiceUnavailable {
			t.Errorf("Expected 503, got %d", code)
		}
		if code, _ := api.do("POST", "/api/v1/ai/coach", `{"question":"hi"}`); code != http.StatusServiceUnavailable {
			t.Errorf("Expected 503, got %d", code)
		}
	})

	t.Run("collaborator error", func(t *testing.T) {
		t.Parallel()
		api := newTestAPI(t, &stubCollaborator{err: errors.New("upstream 500")})
		api.do("POST", "/api/v1/profile", validProfile)

		code, env := api.do("POST", "/api/v1/ai/workouts", "")
		if code != http.StatusBadGateway || env.Message != ai.MessageGenerationFailed {
			t.Errorf("Expected 502 with generation failure message, got %d %q", code, env.Message)
		}

		code, env = api.do("POST", "/api/v1/ai/coach", `{"question":"hi"}`)
		if code != http.StatusOK {
			t.Fatalf("Expected coach failures to answer 200, got %d", code)
		}
		var resp AskCoachResponse
		if err := json.Unmarshal(env.Data, &resp); err != nil || resp.Answer != ai.CoachApology {
			t.Errorf("Expected apology, got %q (%v)", resp.Answer, err)
		}
	})
}

func TestRouter_Infrastructure(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, nil)

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	api.handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected healthz 200, got %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("Expected request id header")
	}

	req = httptest.NewRequest("GET", "/metrics", nil)
	w = httptest.NewRecorder()
	api.handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "fitbuddy_http_requests_total") {
		t.Errorf("Expected prometheus metrics, got %d", w.Code)
	}

	req = httptest.NewRequest("OPTIONS", "/api/v1/steps", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w = httptest.NewRecorder()
	api.handler.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Expected CORS preflight to allow the frontend origin, got %q", got)
	}
}

func TestRouter_APIFallbacks(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, nil)
	tests := []struct {
		method     string
		path       string
		wantStatus int
		wantError  string
	}{
		{"PATCH", "/api/v1/state", http.StatusMethodNotAllowed, "Method Not Allowed"},
		{"PUT", "/api/v1/steps", http.StatusMethodNotAllowed, "Method Not Allowed"},
		{"GET", "/api/v1/ai/coach", http.StatusMethodNotAllowed, "Method Not Allowed"},
		{"GET", "/api/v1/nope", http.StatusNotFound, "Not Found"},
		{"GET", "/nope", http.StatusNotFound, "Not Found"},
	}
	for _, tt := range tests {
		code, env := api.do(tt.method, tt.path, "")
		if code != tt.wantStatus {
			t.Errorf("%s %s: expected status %d, got %d", tt.method, tt.path, tt.wantStatus, code)
		}
		if env.Success || env.Error != tt.wantError {
			t.Errorf("%s %s: expected %q error envelope, got %+v", tt.method, tt.path, tt.wantError, env)
		}
	}
}
