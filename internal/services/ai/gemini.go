package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/benvon/fitness-buddy/internal/models"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// DefaultGeminiModel is the default Gemini model
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiProvider implements Collaborator using Google's Gemini API
type GeminiProvider struct {
	client    *genai.Client
	model     string
	logger    *zap.Logger
	debugMode bool
}

// NewGeminiProvider creates a Gemini-backed collaborator
func NewGeminiProvider(ctx context.Context, apiKey, model string, timeout time.Duration, logger *zap.Logger, debugMode bool) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api_key is required")
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiProvider{
		client:    client,
		model:     model,
		logger:    logger,
		debugMode: debugMode,
	}, nil
}

// GenerateWorkouts implements Collaborator
func (p *GeminiProvider) GenerateWorkouts(ctx context.Context, profile *models.UserProfile) ([]models.WorkoutDescriptor, error) {
	content, err := p.generate(ctx, string(models.AIOperationGenerateWorkouts), workoutSystemPrompt, buildWorkoutPrompt(profile), true)
	if err != nil {
		return nil, fmt.Errorf("failed to generate workouts: %w", err)
	}
	return parseWorkoutsResponse(content)
}

// CoachAdvice implements Collaborator
func (p *GeminiProvider) CoachAdvice(ctx context.Context, question string, profile *models.UserProfile) (string, error) {
	content, err := p.generate(ctx, string(models.AIOperationAskCoach), coachSystemPrompt, buildCoachPrompt(question, profile), false)
	if err != nil {
		return "", fmt.Errorf("failed to get coach advice: %w", err)
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return "", fmt.Errorf("%w: empty advice", errMalformedResponse)
	}
	return content, nil
}

func (p *GeminiProvider) generate(ctx context.Context, operation, system, prompt string, jsonMode bool) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
	}
	if jsonMode {
		config.ResponseMIMEType = "application/json"
	}

	requestID := ExtractRequestID(ctx)
	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_request",
			zap.String("provider", "gemini"),
			zap.String("operation", operation),
			zap.String("model", p.model),
			zap.Int("prompt_length", len(prompt)),
			zap.String("prompt_preview", SanitizePrompt(prompt, false)),
			zap.String("request_id", requestID),
		)
	}

	start := time.Now()
	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), config)
	latency := time.Since(start)
	if err != nil {
		if p.logger != nil && p.debugMode {
			p.logger.Debug("llm_api_error",
				zap.String("provider", "gemini"),
				zap.String("operation", operation),
				zap.String("model", p.model),
				zap.Error(err),
				zap.String("request_id", requestID),
				zap.Int64("latency_ms", latency.Milliseconds()),
			)
		}
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return "", apiErr
		}
		return "", err
	}

	content := resp.Text()
	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("provider", "gemini"),
			zap.String("operation", operation),
			zap.String("model", p.model),
			zap.Int("response_length", len(content)),
			zap.String("response_preview", SanitizeResponse(content, true)),
			zap.String("request_id", requestID),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}
	return content, nil
}

// RegisterGemini registers the Gemini provider with the registry
func RegisterGemini(registry *ProviderRegistry) {
	registry.Register("gemini", func(config map[string]string, logger *zap.Logger) (Collaborator, error) {
		timeout, err := parseTimeout(config["timeout"])
		if err != nil {
			return nil, err
		}
		return NewGeminiProvider(context.Background(), config["api_key"], config["model"], timeout, logger, config["debug"] == "true")
	})
}
