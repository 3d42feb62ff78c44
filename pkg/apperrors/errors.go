package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrNotLocalized = errors.New("not localized")
	ErrValidation   = errors.New("validation failed")
	ErrProvisioning = errors.New("provisioning failed")
	ErrConflict     = errors.New("conflict")
)

// NotFoundError reports an unknown tenant, table type, language, entity or
// flag type. Options carries the known alternatives so callers can surface
// them in the error detail, matching the dashboard API contract.
type NotFoundError struct {
	Kind    string // "tenant", "table type", "language", "entity", "flag type", ...
	Name    string
	Options []string
}

func (e *NotFoundError) Error() string {
	if len(e.Options) == 0 {
		return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
	}
	return fmt.Sprintf("%s %q not found, existing options: %s", e.Kind, e.Name, strings.Join(e.Options, ", "))
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFound creates a NotFoundError for the given kind and name.
func NewNotFound(kind, name string, options ...string) *NotFoundError {
	return &NotFoundError{Kind: kind, Name: name, Options: options}
}

// NotLocalizedError reports a missing required localization for an active
// column or filter. The UI cannot render an unlabeled column, so schema
// resolution fails hard rather than falling back to the canonical key.
type NotLocalizedError struct {
	Subject  string // canonical name of the field or filter
	Language string // requested language code
}

func (e *NotLocalizedError) Error() string {
	return fmt.Sprintf("language %s for %s not found", e.Language, e.Subject)
}

func (e *NotLocalizedError) Unwrap() error { return ErrNotLocalized }

// ValidationError reports a malformed filter value, an unknown filter key,
// an unparseable numeric range or invalid pagination input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidation creates a ValidationError for the given field.
func NewValidation(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// ProvisioningError reports a failed partition creation or migration step.
// Surfaced to the administrative caller as-is; never retried silently.
type ProvisioningError struct {
	Step   string // "create", "migrate", "seed", "register"
	Tenant string
	Err    error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("provisioning tenant %s failed at %s: %v", e.Tenant, e.Step, e.Err)
}

func (e *ProvisioningError) Unwrap() error { return ErrProvisioning }
