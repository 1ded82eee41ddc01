package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/benvon/fitness-buddy/internal/catalog"
	"github.com/benvon/fitness-buddy/internal/models"
	"github.com/benvon/fitness-buddy/internal/services/ai"
	"github.com/benvon/fitness-buddy/internal/session"
	"github.com/benvon/fitness-buddy/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// SessionHandler exposes the session controller over the local API
type SessionHandler struct {
	ctrl   *session.Controller
	logger *zap.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(ctrl *session.Controller, logger *zap.Logger) *SessionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionHandler{ctrl: ctrl, logger: logger}
}

// RegisterRoutes registers session routes on r, which should carry the
// /api/v1 prefix.
func (h *SessionHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/state", h.GetState).Methods("GET")
	r.HandleFunc("/profile", h.GetProfile).Methods("GET")
	r.HandleFunc("/profile", h.CreateProfile).Methods("POST")
	r.HandleFunc("/steps", h.AddSteps).Methods("POST")
	r.HandleFunc("/catalog", h.ListCatalog).Methods("GET")
	r.HandleFunc("/workouts/recommended", h.ListRecommended).Methods("GET")
	r.HandleFunc("/workouts/active", h.GetActive).Methods("GET")
	r.HandleFunc("/workouts/active", h.StartWorkout).Methods("POST")
	r.HandleFunc("/workouts/active", h.AbandonWorkout).Methods("DELETE")
	r.HandleFunc("/workouts/active/complete", h.CompleteWorkout).Methods("POST")
	r.HandleFunc("/history", h.ListHistory).Methods("GET")
	r.HandleFunc("/activity", h.ListActivity).Methods("GET")
	r.HandleFunc("/notification", h.ClearNotification).Methods("DELETE")
	r.HandleFunc("/ai/workouts", h.GenerateWorkouts).Methods("POST")
	r.HandleFunc("/ai/coach", h.AskCoach).Methods("POST")
}

// AddStepsRequest represents an add steps request
type AddStepsRequest struct {
	Steps int `json:"steps"`
}

// AddStepsResponse carries the clamped step count and goal progress
type AddStepsResponse struct {
	TodaySteps int                 `json:"todaySteps"`
	Goal       models.GoalProgress `json:"goal"`
}

// CompleteWorkoutResponse reports the archived record and whether it reached
// the durable store
type CompleteWorkoutResponse struct {
	Workout   models.WorkoutRecord `json:"workout"`
	Persisted bool                 `json:"persisted"`
}

// GetState returns the full session snapshot
func (h *SessionHandler) GetState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.ctrl.State())
}

// GetProfile returns the profile, 404 before onboarding
func (h *SessionHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p := h.ctrl.Profile()
	if p == nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "No profile yet; complete onboarding first")
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// CreateProfile onboards the user
func (h *SessionHandler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var draft models.ProfileDraft
	if err := decodeJSON(r, &draft, false); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	p, err := h.ctrl.Onboard(r.Context(), draft)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

// AddSteps adds steps to today's count
func (h *SessionHandler) AddSteps(w http.ResponseWriter, r *http.Request) {
	var req AddStepsRequest
	if err := decodeJSON(r, &req, false); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	steps, err := h.ctrl.AddSteps(r.Context(), req.Steps)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, AddStepsResponse{TodaySteps: steps, Goal: h.ctrl.State().Goal})
}

// ListCatalog returns every catalog workout
func (h *SessionHandler) ListCatalog(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, catalog.All())
}

// ListRecommended returns catalog workouts for the profile. limit defaults
// to the dashboard count; limit=0 returns all of them.
func (h *SessionHandler) ListRecommended(w http.ResponseWriter, r *http.Request) {
	limit := session.DashboardRecommendCount
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	respondJSON(w, http.StatusOK, h.ctrl.Recommendations(limit))
}

// GetActive returns the active workout, 404 when none
func (h *SessionHandler) GetActive(w http.ResponseWriter, r *http.Request) {
	d, ok := h.ctrl.ActiveSession()
	if !ok {
		respondJSONError(w, http.StatusNotFound, "Not Found", session.ErrNoActiveSession.Error())
		return
	}
	respondJSON(w, http.StatusOK, d)
}

// StartWorkout starts a workout by id, or from a full descriptor when the
// body carries a name.
func (h *SessionHandler) StartWorkout(w http.ResponseWriter, r *http.Request) {
	var d models.WorkoutDescriptor
	if err := decodeJSON(r, &d, false); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	var err error
	if d.Name == "" && d.ID != "" {
		d, err = h.ctrl.StartByID(d.ID)
	} else {
		err = h.ctrl.Start(d)
	}
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	active, _ := h.ctrl.ActiveSession()
	respondJSON(w, http.StatusCreated, active)
}

// CompleteWorkout archives the active workout
func (h *SessionHandler) CompleteWorkout(w http.ResponseWriter, r *http.Request) {
	record, err := h.ctrl.Complete(r.Context())
	if errors.Is(err, session.ErrNoActiveSession) {
		h.respondError(w, r, err)
		return
	}
	if err != nil {
		h.logger.Warn("workout_complete_not_persisted", zap.Error(err))
	}
	respondJSON(w, http.StatusOK, CompleteWorkoutResponse{Workout: record, Persisted: err == nil})
}

// AbandonWorkout ends the active workout without recording it
func (h *SessionHandler) AbandonWorkout(w http.ResponseWriter, r *http.Request) {
	if err := h.ctrl.Abandon(); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListHistory returns the workout history, newest first
func (h *SessionHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.ctrl.History())
}

// ListActivity returns the combined activity feed
func (h *SessionHandler) ListActivity(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.ctrl.State().Activity)
}

// ClearNotification hides the visible notification
func (h *SessionHandler) ClearNotification(w http.ResponseWriter, r *http.Request) {
	h.ctrl.ClearNotification()
	w.WriteHeader(http.StatusNoContent)
}

// respondError maps controller and coordinator errors to statuses
func (h *SessionHandler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case validation.IsValidationError(err):
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
	case errors.Is(err, session.ErrUnknownWorkout):
		respondJSONError(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, session.ErrSessionActive),
		errors.Is(err, session.ErrNoActiveSession),
		errors.Is(err, ai.ErrBusy):
		respondJSONError(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ai.ErrNoProfile):
		respondJSONError(w, http.StatusPreconditionFailed, "Precondition Failed", err.Error())
	case errors.Is(err, ai.ErrRateLimited):
		respondJSONError(w, http.StatusTooManyRequests, "Too Many Requests", err.Error())
	case errors.Is(err, ai.ErrGenerationFailed):
		respondJSONError(w, http.StatusBadGateway, "Bad Gateway", ai.MessageGenerationFailed)
	case errors.Is(err, session.ErrAIUnavailable):
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", err.Error())
	default:
		h.logger.Error("request_failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "An unexpected error occurred")
	}
}
