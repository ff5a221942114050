package serrors

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/iota-uz/go-i18n/v2/i18n"
)

// BaseError is a structured error carrying a stable machine code and an
// optional locale key for user-facing rendering.
type BaseError struct {
	Code         string
	Message      string
	LocaleKey    string
	TemplateData map[string]string
}

// WithTemplateData attaches locale template data and returns the error for
// chaining.
func (e *BaseError) WithTemplateData(data map[string]string) *BaseError {
	e.TemplateData = data
	return e
}

func NewError(code, message, localeKey string) *BaseError {
	return &BaseError{
		Code:      code,
		Message:   message,
		LocaleKey: localeKey,
	}
}

func (e *BaseError) Error() string {
	return e.Message
}

// Localize renders the error through the localizer, falling back to
// Message when no locale key is set or the message is missing.
func (e *BaseError) Localize(l *i18n.Localizer) string {
	if e.LocaleKey == "" || l == nil {
		return e.Message
	}
	cfg := &i18n.LocalizeConfig{MessageID: e.LocaleKey}
	if len(e.TemplateData) > 0 {
		cfg.TemplateData = e.TemplateData
	}
	localized, err := l.Localize(cfg)
	if err != nil || localized == "" {
		return e.Message
	}
	return localized
}

type ValidationErrors map[string]*BaseError

// NewFieldRequiredError reports a missing required field.
func NewFieldRequiredError(field, localeKey string) *BaseError {
	return NewError(
		"VALIDATION_REQUIRED",
		fmt.Sprintf("%s is required", field),
		localeKey,
	)
}

// NewInvalidFieldError reports a field that failed a validation rule.
func NewInvalidFieldError(field, rule, localeKey string) *BaseError {
	return NewError(
		"VALIDATION_INVALID",
		fmt.Sprintf("%s failed validation rule %q", field, rule),
		localeKey,
	)
}

// ProcessValidatorErrors maps go-playground validator errors to BaseErrors
// keyed by struct field name. getFieldLocaleKey may return "" for fields
// without a locale entry.
func ProcessValidatorErrors(
	errs validator.ValidationErrors,
	getFieldLocaleKey func(field string) string,
) ValidationErrors {
	out := make(ValidationErrors, len(errs))
	for _, fieldErr := range errs {
		field := fieldErr.Field()
		localeKey := getFieldLocaleKey(field)
		if fieldErr.Tag() == "required" {
			out[field] = NewFieldRequiredError(field, localeKey)
			continue
		}
		out[field] = NewInvalidFieldError(field, fieldErr.Tag(), localeKey)
	}
	return out
}

// LocalizeValidationErrors flattens validation errors into per-field
// user-facing strings.
func LocalizeValidationErrors(errs ValidationErrors, l *i18n.Localizer) map[string]string {
	out := make(map[string]string, len(errs))
	for field, err := range errs {
		out[field] = err.Localize(l)
	}
	return out
}
