package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/benvon/todo-pet/internal/models"
	"github.com/go-playground/validator/v10"
)

const (
	// MaxTitleLength is the maximum title length in characters, after trimming
	MaxTitleLength = 100
	// MaxDescriptionLength is the maximum description length in characters
	MaxDescriptionLength = 500
	// MaxTagLength is the maximum length of a single tag
	MaxTagLength = 50
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New(validator.WithRequiredStructEnabled())

	// Report json names ("dueDate") rather than Go field names in errors
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	if err := Validate.RegisterValidation("priority", validatePriority); err != nil {
		panic(fmt.Sprintf("failed to register priority validator: %v", err))
	}
}

// ValidationError is an input-shape violation caught before anything reaches the store.
// It is meant to be shown inline next to the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidationError reports whether err is or wraps a *ValidationError
func IsValidationError(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

// validatePriority validates that a string is a valid Priority enum value
func validatePriority(fl validator.FieldLevel) bool {
	return models.Priority(fl.Field().String()).IsValid()
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

// NormalizeTags trims tags, drops empty ones and drops case-insensitive duplicates,
// keeping the first spelling. Returns nil when nothing is left.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		trimmed := SanitizeText(tag)
		if trimmed == "" {
			continue
		}
		lower := strings.ToLower(trimmed)
		if _, ok := seen[lower]; ok {
			continue
		}
		seen[lower] = struct{}{}
		result = append(result, trimmed)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

// ValidatePriority validates a Priority string value
func ValidatePriority(value string) error {
	if models.Priority(value).IsValid() {
		return nil
	}
	return &ValidationError{
		Field:   "priority",
		Message: fmt.Sprintf("invalid priority %q (must be 'low', 'medium', 'high', or 'urgent')", value),
	}
}

// ValidateCreateInput sanitizes input and checks it. The returned input has the title
// trimmed, the tags normalized and the priority defaulted to medium.
func ValidateCreateInput(input models.CreateTodoInput) (models.CreateTodoInput, error) {
	input.Title = SanitizeText(input.Title)
	input.Description = SanitizeText(input.Description)
	input.Tags = NormalizeTags(input.Tags)
	if input.Priority == "" {
		input.Priority = models.PriorityMedium
	}

	if input.Title == "" {
		return input, &ValidationError{Field: "title", Message: "title is required"}
	}
	if err := Validate.Struct(input); err != nil {
		return input, translate(err)
	}
	return input, nil
}

// ValidateUpdateInput sanitizes the provided fields of a partial update and checks them
func ValidateUpdateInput(input models.UpdateTodoInput) (models.UpdateTodoInput, error) {
	if input.Title != nil {
		title := SanitizeText(*input.Title)
		if title == "" {
			return input, &ValidationError{Field: "title", Message: "title is required"}
		}
		input.Title = &title
	}
	if input.Description != nil {
		description := SanitizeText(*input.Description)
		input.Description = &description
	}
	if input.Tags != nil {
		tags := NormalizeTags(input.Tags)
		if tags == nil {
			tags = []string{}
		}
		input.Tags = tags
	}
	if input.Priority != nil && *input.Priority == "" {
		return input, ValidatePriority("")
	}
	if input.ClearDueDate && input.DueDate != nil {
		return input, &ValidationError{Field: "dueDate", Message: "cannot set and clear the due date at once"}
	}
	if err := Validate.Struct(input); err != nil {
		return input, translate(err)
	}
	return input, nil
}

// ValidateFilter checks a filter configuration
func ValidateFilter(filter models.TodoFilter) error {
	if err := Validate.Struct(filter); err != nil {
		return translate(err)
	}
	return nil
}

// ValidateSort checks a sort configuration
func ValidateSort(sort models.TodoSort) error {
	if err := Validate.Struct(sort); err != nil {
		return translate(err)
	}
	return nil
}

// translate maps the first validator field error onto a ValidationError
func translate(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return &ValidationError{Message: fmt.Sprintf("validation failed: %v", err)}
	}

	fieldError := validationErrors[0]
	field := fieldError.Field()
	var message string
	switch fieldError.Tag() {
	case "required":
		message = fmt.Sprintf("%s is required", field)
	case "max":
		message = fmt.Sprintf("%s must be at most %s characters", field, fieldError.Param())
	case "oneof":
		message = fmt.Sprintf("%s must be one of [%s]", field, fieldError.Param())
	case "priority":
		message = fmt.Sprintf("invalid priority %q (must be 'low', 'medium', 'high', or 'urgent')", fieldError.Value())
	default:
		message = fmt.Sprintf("%s failed %q validation", field, fieldError.Tag())
	}
	return &ValidationError{Field: field, Message: message}
}
