package handlers

import (
	"context"
	"net/http"

	"github.com/benvon/fitness-buddy/internal/middleware"
	"github.com/benvon/fitness-buddy/internal/models"
	"github.com/benvon/fitness-buddy/internal/services/ai"
)

// AskCoachRequest represents a coach question
type AskCoachRequest struct {
	Question string `json:"question"`
}

// AskCoachResponse carries the coach answer
type AskCoachResponse struct {
	Answer string `json:"answer"`
}

// GeneratedWorkoutsResponse carries a freshly generated workout set
type GeneratedWorkoutsResponse struct {
	Workouts []models.WorkoutDescriptor `json:"workouts"`
	Message  string                     `json:"message"`
}

func aiContext(r *http.Request) context.Context {
	ctx := r.Context()
	if id := middleware.RequestIDFromContext(ctx); id != "" {
		ctx = ai.WithRequestID(ctx, id)
	}
	return ctx
}

// GenerateWorkouts asks the AI collaborator for custom workouts
func (h *SessionHandler) GenerateWorkouts(w http.ResponseWriter, r *http.Request) {
	workouts, err := h.ctrl.GenerateWorkouts(aiContext(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, GeneratedWorkoutsResponse{
		Workouts: workouts,
		Message:  ai.MessageWorkoutsGenerated,
	})
}

// AskCoach answers a free-form coaching question
func (h *SessionHandler) AskCoach(w http.ResponseWriter, r *http.Request) {
	var req AskCoachRequest
	if err := decodeJSON(r, &req, false); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	answer, err := h.ctrl.AskCoach(aiContext(r), req.Question)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, AskCoachResponse{Answer: answer})
}
