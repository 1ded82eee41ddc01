package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/benvon/fitness-buddy/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

const (
	fitnessLevelMessage = "must be 'beginner', 'intermediate', or 'advanced'"
	goalMessage         = "must be 'weight_loss', 'muscle_gain', or 'endurance'"
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums
	if err := Validate.RegisterValidation("fitness_level", validateFitnessLevel); err != nil {
		panic(fmt.Sprintf("failed to register fitness_level validator: %v", err))
	}
	if err := Validate.RegisterValidation("fitness_goal", validateGoal); err != nil {
		panic(fmt.Sprintf("failed to register fitness_goal validator: %v", err))
	}
	if err := Validate.RegisterValidation("gender", validateGender); err != nil {
		panic(fmt.Sprintf("failed to register gender validator: %v", err))
	}
}

// Error is a local validation failure. It is returned before any side
// effect takes place.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidationError reports whether err is (or wraps) a validation Error
func IsValidationError(err error) bool {
	var vErr *Error
	return errors.As(err, &vErr)
}

// NewError builds a validation Error
func NewError(field, message string) *Error {
	return &Error{Field: field, Message: message}
}

func validateFitnessLevel(fl validator.FieldLevel) bool {
	return models.FitnessLevel(fl.Field().String()).Valid()
}

func validateGoal(fl validator.FieldLevel) bool {
	return models.Goal(fl.Field().String()).Valid()
}

func validateGender(fl validator.FieldLevel) bool {
	return models.Gender(fl.Field().String()).Valid()
}

// ValidateProfileDraft checks an onboarding draft. The first failing field is
// reported as a validation Error.
func ValidateProfileDraft(draft *models.ProfileDraft) error {
	if draft == nil {
		return NewError("", "profile draft is required")
	}
	draft.Name = SanitizeText(draft.Name)
	return structError(Validate.Struct(draft))
}

// ValidateStruct runs struct tag validation and maps the result to Error
func ValidateStruct(v any) error {
	return structError(Validate.Struct(v))
}

func structError(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return NewError(lowerFirst(fe.Field()), describeTag(fe))
	}
	return NewError("", err.Error())
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "lt":
		return "must be less than " + fe.Param()
	case "fitness_level":
		return fitnessLevelMessage
	case "fitness_goal":
		return goalMessage
	case "gender":
		return "must be 'male', 'female', or 'other'"
	default:
		return fmt.Sprintf("failed '%s' validation", fe.Tag())
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	// Trim whitespace
	text = strings.TrimSpace(text)

	// Remove control characters except newline and tab
	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateFitnessLevel validates a FitnessLevel string value
func ValidateFitnessLevel(value string) error {
	if !models.FitnessLevel(value).Valid() {
		return NewError("fitnessLevel", fitnessLevelMessage)
	}
	return nil
}

// ValidateGoal validates a Goal string value
func ValidateGoal(value string) error {
	if !models.Goal(value).Valid() {
		return NewError("goal", goalMessage)
	}
	return nil
}
