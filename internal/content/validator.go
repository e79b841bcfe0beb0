// internal/content/validator.go
package content

import (
	"sort"

	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/common/validation"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/models"
)

// DescriptorMode selects where the human-readable label of an error entry
// comes from.
type DescriptorMode int

const (
	DescriptorFromQuestion DescriptorMode = iota
	DescriptorFromField
)

// ErrorMessage is one entry of an ErrorMap: a human label plus the machine
// error kind the API or local validation reported.
type ErrorMessage struct {
	Label   string `json:"label"`
	Message string `json:"message"`
	Kind    string `json:"kind"`
}

// ErrorMap maps question slugs to error messages. Local validation and
// remote rejections share this shape so callers render both identically.
type ErrorMap map[string]ErrorMessage

// Default human messages per machine error kind. A question's own declared
// constraint message wins when one exists for the kind.
var defaultErrorText = map[string]string{
	validation.KindRequired: "You need to answer this question.",
	validation.KindMaxChars: "Your answer is over the character limit.",
	validation.KindMaxWords: "Your answer is over the word limit.",
	validation.KindPattern:  "Your answer has an invalid format.",
	validation.KindOption:   "Your answer is not one of the available options.",
	validation.KindMaxItems: "You have given too many items.",
	"max_less_than_min":     "The minimum price cannot be greater than the maximum.",
	"file_incorrect_format": "The file must be an open-format document.",
	"file_is_empty":         "The uploaded file is empty.",
}

// GetErrorMessages converts a field-name → error-kind mapping, as returned
// by the data API on a rejected write, into an ErrorMap keyed by question
// slug. When several backing fields of one question report errors, the
// question gets a single entry taken from its first declared field, so the
// chosen message is stable across runs. Keys that resolve to no question
// are returned in an UnmappedValidationError alongside the mapped entries —
// the caller escalates, it never drops them.
func (s *Section) GetErrorMessages(apiErrors map[string]string, mode DescriptorMode) (ErrorMap, error) {
	out := ErrorMap{}
	claimed := make(map[string]bool)

	for _, q := range s.Questions {
		keys := q.FormFields()
		if !q.ownsField(q.Slug) {
			keys = append(keys, q.Slug)
		}
		for _, key := range keys {
			kind, ok := apiErrors[key]
			if !ok {
				continue
			}
			claimed[key] = true
			if _, seen := out[q.Slug]; seen {
				continue
			}
			label := q.Label
			if mode == DescriptorFromField {
				label = key
			}
			out[q.Slug] = ErrorMessage{
				Label:   label,
				Message: messageFor(q, kind),
				Kind:    kind,
			}
		}
	}

	var unmapped []string
	for key := range apiErrors {
		if !claimed[key] {
			unmapped = append(unmapped, key)
		}
	}
	if len(unmapped) > 0 {
		sort.Strings(unmapped)
		return out, &UnmappedValidationError{Keys: unmapped}
	}
	return out, nil
}

func messageFor(q *Question, kind string) string {
	for _, c := range q.Constraints {
		if c.Kind == kind && c.Message != "" {
			return c.Message
		}
	}
	if msg, ok := defaultErrorText[kind]; ok {
		return msg
	}
	return kind
}

// Validate runs local pre-submission checks over a patch: required-ness,
// length, format and option constraints declared by this section's
// questions. The result shares the ErrorMap shape with GetErrorMessages.
func (s *Section) Validate(patch Patch) ErrorMap {
	out := ErrorMap{}
	for _, q := range s.Questions {
		var values []string
		for _, field := range q.FormFields() {
			if v, ok := patch[field]; ok {
				values = append(values, v.FormStrings()...)
			}
		}
		// Unsubmitted questions are not re-validated: a section save only
		// covers the fields the form carried.
		if values == nil && !patchTouches(patch, q) {
			continue
		}
		violations := validation.Check(q.Slug, values, q.Constraints)
		if len(violations) > 0 {
			first := violations[0]
			out[q.Slug] = ErrorMessage{
				Label:   q.Label,
				Message: first.Message,
				Kind:    first.Code,
			}
		}
	}
	return out
}

func patchTouches(patch Patch, q *Question) bool {
	for _, field := range q.FormFields() {
		if _, ok := patch[field]; ok {
			return true
		}
	}
	return false
}

// ValidateRemoval enforces the rule that a section must retain at least one
// answered field once the document has been submitted: removing the last
// remaining answer would leave a submitted section empty. While the
// document is still not-submitted the supplier may clear anything.
func (s *Section) ValidateRemoval(doc models.Document, q *Question, status string) error {
	if status == models.StatusNotSubmitted {
		return nil
	}

	removing := make(map[string]bool)
	for _, f := range q.FormFields() {
		removing[f] = true
	}

	for _, other := range s.Questions {
		for _, field := range other.FormFields() {
			if !removing[field] && doc.Answered(field) {
				return nil
			}
		}
	}

	return &ValidationFailedError{Errors: ErrorMap{
		q.Slug: {
			Label:   q.Label,
			Message: "You must keep at least one answer in this section.",
			Kind:    "cannot_remove_last_answer",
		},
	}}
}
