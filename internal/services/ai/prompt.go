package ai

import (
	"errors"
	"fmt"
	"strings"

	"github.com/benvon/fitness-buddy/internal/models"
	json "github.com/goccy/go-json"
)

const (
	workoutSystemPrompt = "You are a certified personal trainer who designs safe, effective home workouts. Respond with valid JSON only."
	coachSystemPrompt   = "You are a friendly, knowledgeable fitness coach. Give practical, safe advice in a few short paragraphs. Recommend seeing a professional for medical concerns."

	// workoutsRequested is how many workouts the generation prompt asks for
	workoutsRequested = 3
)

var errMalformedResponse = errors.New("malformed AI response")

// describeProfile renders the profile facts shared by both prompts
func describeProfile(p *models.UserProfile) string {
	if p == nil {
		return "No profile available."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "- Age: %d\n", p.Age)
	fmt.Fprintf(&b, "- Gender: %s\n", p.Gender)
	fmt.Fprintf(&b, "- Weight: %.1f kg\n", p.Weight)
	fmt.Fprintf(&b, "- Height: %.1f cm\n", p.Height)
	fmt.Fprintf(&b, "- Fitness level: %s\n", p.FitnessLevel)
	fmt.Fprintf(&b, "- Primary goal: %s\n", models.HumanizeLabel(string(p.Goal)))
	if len(p.Equipment) > 0 {
		fmt.Fprintf(&b, "- Available equipment: %s\n", strings.Join(p.Equipment, ", "))
	} else {
		b.WriteString("- Available equipment: none (bodyweight only)\n")
	}
	return b.String()
}

func buildWorkoutPrompt(p *models.UserProfile) string {
	return fmt.Sprintf(`Create %d personalized workouts for this person:
%s
Respond with a JSON object in this format:
{
  "workouts": [
    {
      "name": "Workout name",
      "type": "cardio" | "strength" | "mixed",
      "duration": 30,
      "calories": 250,
      "exercises": ["Exercise - sets x reps", "..."]
    }
  ]
}

Duration is in minutes and calories is an estimate of calories burned.
Return only valid JSON.`, workoutsRequested, describeProfile(p))
}

func buildCoachPrompt(question string, p *models.UserProfile) string {
	return fmt.Sprintf("About me:\n%s\nMy question: %s", describeProfile(p), question)
}

type workoutPayload struct {
	ID        any      `json:"id"`
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	Duration  float64  `json:"duration"`
	Calories  float64  `json:"calories"`
	Exercises []string `json:"exercises"`
}

// extractJSON trims prose around the first JSON object or array in raw
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw[0] == '{' || raw[0] == '[' {
		return raw
	}
	start := strings.IndexAny(raw, "{[")
	end := strings.LastIndexAny(raw, "}]")
	if start != -1 && end != -1 && end > start {
		return raw[start : end+1]
	}
	return raw
}

// parseWorkoutsResponse decodes a collaborator reply into descriptors. Both
// {"workouts": [...]} and a bare array are accepted; entries without a name
// are dropped.
func parseWorkoutsResponse(content string) ([]models.WorkoutDescriptor, error) {
	raw := extractJSON(content)

	var items []workoutPayload
	if strings.HasPrefix(raw, "[") {
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			return nil, fmt.Errorf("%w: %v", errMalformedResponse, err)
		}
	} else {
		var wrapped struct {
			Workouts []workoutPayload `json:"workouts"`
		}
		if err := json.Unmarshal([]byte(raw), &wrapped); err != nil {
			return nil, fmt.Errorf("%w: %v", errMalformedResponse, err)
		}
		items = wrapped.Workouts
	}

	workouts := make([]models.WorkoutDescriptor, 0, len(items))
	for _, item := range items {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			continue
		}
		typ := models.WorkoutType(strings.ToLower(strings.TrimSpace(item.Type)))
		if typ == "" {
			typ = models.WorkoutTypeMixed
		}
		workouts = append(workouts, models.WorkoutDescriptor{
			ID:        payloadID(item.ID),
			Name:      name,
			Type:      typ,
			Duration:  nonNegative(item.Duration),
			Calories:  nonNegative(item.Calories),
			Exercises: append([]string{}, item.Exercises...),
		})
	}
	if len(workouts) == 0 {
		return nil, fmt.Errorf("%w: no workouts in response", errMalformedResponse)
	}
	return workouts, nil
}

func nonNegative(v float64) int {
	if v < 0 {
		return 0
	}
	return int(v + 0.5)
}

// payloadID accepts string or numeric ids from the collaborator
func payloadID(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(id)
	default:
		return strings.TrimSpace(fmt.Sprint(id))
	}
}
