// internal/content/errors.go
package content

import (
	"errors"
	"fmt"
	"strings"
)

// Lookup failures. Surfaced to the caller as "not found" outcomes, never
// retried.
var (
	ErrManifestNotFound = errors.New("MANIFEST_NOT_FOUND")
	ErrSectionNotFound  = errors.New("SECTION_NOT_FOUND")
	ErrQuestionNotFound = errors.New("QUESTION_NOT_FOUND")
	ErrMessageNotFound  = errors.New("MESSAGE_NOT_FOUND")
)

// ValidationFailedError carries the full ErrorMap from local validation so
// the caller can re-render the form with inline messages and the user's
// unsaved values preserved.
type ValidationFailedError struct {
	Errors ErrorMap
}

func (e *ValidationFailedError) Error() string {
	slugs := make([]string, 0, len(e.Errors))
	for slug := range e.Errors {
		slugs = append(slugs, slug)
	}
	return fmt.Sprintf("VALIDATION_FAILED: %s", strings.Join(slugs, ", "))
}

// RemoteRejection is a 4xx write rejection from the data API, converted to
// the same ErrorMap shape as local validation. Never retried automatically:
// the write may have had partial effects.
type RemoteRejection struct {
	Status int
	Errors ErrorMap
}

func (e *RemoteRejection) Error() string {
	return fmt.Sprintf("REMOTE_REJECTION: status %d, %d question(s)", e.Status, len(e.Errors))
}

// UnmappedValidationError means an API-reported error key resolved to no
// known question. This is definition drift between the loaded manifests and
// the API, a programming defect rather than a user error. It must be logged
// and escalated, never swallowed.
type UnmappedValidationError struct {
	Keys []string
}

func (e *UnmappedValidationError) Error() string {
	return fmt.Sprintf("UNMAPPED_VALIDATION_ERROR: keys %v", e.Keys)
}

// BinderArityError means the submitted raw fields structurally mismatch a
// question's expected field count.
type BinderArityError struct {
	QuestionSlug string
	Expected     int
	Got          int
}

func (e *BinderArityError) Error() string {
	return fmt.Sprintf("BINDER_ARITY_MISMATCH: question %s expects %d value(s), got %d",
		e.QuestionSlug, e.Expected, e.Got)
}
