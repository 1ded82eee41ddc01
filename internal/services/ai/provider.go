package ai

import (
	"context"
	"sort"

	"github.com/benvon/fitness-buddy/internal/models"
	"go.uber.org/zap"
)

// Collaborator is the remote AI service the coordinator delegates to
type Collaborator interface {
	// GenerateWorkouts proposes workouts tailored to the profile
	GenerateWorkouts(ctx context.Context, profile *models.UserProfile) ([]models.WorkoutDescriptor, error)

	// CoachAdvice answers a free-form fitness question for the profile
	CoachAdvice(ctx context.Context, question string, profile *models.UserProfile) (string, error)
}

// ProviderFactory creates a collaborator from string settings
// (api_key, model, base_url, timeout)
type ProviderFactory func(config map[string]string, logger *zap.Logger) (Collaborator, error)

// ProviderRegistry stores available AI providers
type ProviderRegistry struct {
	providers map[string]ProviderFactory
}

// NewProviderRegistry creates a new provider registry
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		providers: make(map[string]ProviderFactory),
	}
}

// NewDefaultRegistry returns a registry with every built-in provider
func NewDefaultRegistry() *ProviderRegistry {
	r := NewProviderRegistry()
	RegisterOpenAI(r)
	RegisterGemini(r)
	return r
}

// Register registers a provider factory
func (r *ProviderRegistry) Register(name string, factory ProviderFactory) {
	r.providers[name] = factory
}

// Names lists registered providers in sorted order
func (r *ProviderRegistry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetProvider gets a provider by name
func (r *ProviderRegistry) GetProvider(name string, config map[string]string, logger *zap.Logger) (Collaborator, error) {
	factory, ok := r.providers[name]
	if !ok {
		return nil, &ErrProviderNotFound{Name: name}
	}

	return factory(config, logger)
}

// ErrProviderNotFound is returned when a provider is not found
type ErrProviderNotFound struct {
	Name string
}

func (e *ErrProviderNotFound) Error() string {
	return "AI provider not found: " + e.Name
}
