// internal/content/binder.go
package content

import (
	"strings"

	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/models"
)

// Boolean form coercion. Anything outside both tables is treated as no
// answer and omitted from the patch.
var (
	truthyValues = map[string]bool{"t": true, "true": true, "on": true, "yes": true, "1": true}
	falseyValues = map[string]bool{"f": true, "false": true, "off": true, "no": true, "0": true}
)

func parseBool(raw string) (value, ok bool) {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	if truthyValues[lowered] {
		return true, true
	}
	if falseyValues[lowered] {
		return false, true
	}
	return false, false
}

// GetData converts a flat form submission into a document patch restricted
// to this section's declared fields. Fields absent from the input are
// omitted, never defaulted; a present-but-empty text field stays "" so the
// data API sees the cleared answer. Unknown keys are rejected here rather
// than propagated silently.
func (s *Section) GetData(raw map[string][]string) (Patch, error) {
	declared := make(map[string]bool)
	for _, q := range s.Questions {
		for _, f := range q.FormFields() {
			declared[f] = true
		}
	}

	unknown := ErrorMap{}
	for key := range raw {
		if !declared[key] {
			if q := s.questionForField(key); q == nil {
				unknown[key] = ErrorMessage{
					Label:   key,
					Message: "this field is not part of the section being edited",
					Kind:    "unknown_field",
				}
			}
		}
	}
	if len(unknown) > 0 {
		return nil, &ValidationFailedError{Errors: unknown}
	}

	patch := Patch{}
	for _, q := range s.Questions {
		if err := bindQuestion(q, raw, patch); err != nil {
			return nil, err
		}
	}
	return patch, nil
}

func bindQuestion(q *Question, raw map[string][]string, patch Patch) error {
	fields := q.FormFields()

	// A question whose backing fields differ from its slug must be addressed
	// by field name. A slug-keyed entry would otherwise slip past the
	// unknown-key check and bind nothing.
	if values, ok := raw[q.Slug]; ok && !q.ownsField(q.Slug) {
		return &BinderArityError{QuestionSlug: q.Slug, Expected: len(fields), Got: len(values)}
	}

	switch q.Kind {
	case KindText, KindTextbox, KindRadios:
		field := fields[0]
		values, ok := raw[field]
		if !ok {
			return nil
		}
		if len(values) != 1 {
			return &BinderArityError{QuestionSlug: q.Slug, Expected: 1, Got: len(values)}
		}
		patch[field] = NewString(strings.TrimSpace(values[0]))

	case KindBoolean:
		field := fields[0]
		values, ok := raw[field]
		if !ok {
			return nil
		}
		if len(values) != 1 {
			return &BinderArityError{QuestionSlug: q.Slug, Expected: 1, Got: len(values)}
		}
		if b, valid := parseBool(values[0]); valid {
			patch[field] = NewBool(b)
		}

	case KindCheckboxes, KindList:
		field := fields[0]
		values, ok := raw[field]
		if !ok {
			return nil
		}
		items := make([]string, 0, len(values))
		for _, v := range values {
			if trimmed := strings.TrimSpace(v); trimmed != "" {
				items = append(items, trimmed)
			}
		}
		patch[field] = NewList(items)

	case KindPricing:
		for _, field := range fields {
			values, ok := raw[field]
			if !ok {
				continue
			}
			if len(values) != 1 {
				return &BinderArityError{QuestionSlug: q.Slug, Expected: 1, Got: len(values)}
			}
			patch[field] = NewString(strings.TrimSpace(values[0]))
		}

	case KindUpload:
		// File answers are bound by the caller after object storage assigns
		// a URL; the raw form carries bytes, not values.
	}

	return nil
}

// UnformatData is the inverse of GetData: it renders a stored document
// snapshot as the flat representation an edit form pre-populates from.
func (s *Section) UnformatData(doc models.Document) map[string][]string {
	out := make(map[string][]string)
	for _, q := range s.Questions {
		for _, field := range q.FormFields() {
			raw, ok := doc.Field(field)
			if !ok || raw == nil {
				continue
			}
			value, ok := FieldValueOf(raw)
			if !ok {
				continue
			}
			out[field] = value.FormStrings()
		}
	}
	return out
}

// HasChangesToSave reports whether the patch differs from the stored
// document. Returning false skips a needless write; it is an optimization,
// not a correctness requirement.
func (s *Section) HasChangesToSave(doc models.Document, patch Patch) bool {
	for field, value := range patch {
		stored, exists := doc.Field(field)
		if !exists || stored == nil {
			if !value.IsEmpty() {
				return true
			}
			continue
		}
		current, ok := FieldValueOf(stored)
		if !ok {
			return true
		}
		if !value.Equal(current) {
			return true
		}
	}
	return false
}
