package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// Constraint kinds. The kind doubles as the machine error code reported to
// callers, matching the codes the data API uses for the same violations.
const (
	KindRequired  = "answer_required"
	KindMaxChars  = "under_character_limit"
	KindMaxWords  = "under_word_limit"
	KindPattern   = "invalid_format"
	KindOption    = "invalid_option"
	KindMaxItems  = "under_item_limit"
)

// Constraint is one declared validation rule on a question's answer.
type Constraint struct {
	Kind    string   `yaml:"kind" json:"kind"`
	Limit   int      `yaml:"limit,omitempty" json:"limit,omitempty"`
	Pattern string   `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	Options []string `yaml:"options,omitempty" json:"options,omitempty"`
	Message string   `yaml:"message,omitempty" json:"message,omitempty"`
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Check evaluates every constraint against the submitted values for one
// field. Values carry the flat form representation: zero entries means the
// field was left unanswered, list questions submit one entry per item.
func Check(field string, values []string, constraints []Constraint) []ValidationError {
	errors := []ValidationError{}

	answered := false
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			answered = true
			break
		}
	}

	for _, c := range constraints {
		switch c.Kind {
		case KindRequired:
			if !answered {
				errors = append(errors, violation(field, c, "answer is required"))
			}

		case KindMaxChars:
			for _, v := range values {
				if c.Limit > 0 && len(v) > c.Limit {
					errors = append(errors, violation(field, c,
						fmt.Sprintf("answer must be at most %d characters", c.Limit)))
					break
				}
			}

		case KindMaxWords:
			for _, v := range values {
				if c.Limit > 0 && len(strings.Fields(v)) > c.Limit {
					errors = append(errors, violation(field, c,
						fmt.Sprintf("answer must be at most %d words", c.Limit)))
					break
				}
			}

		case KindPattern:
			if c.Pattern == "" || !answered {
				continue
			}
			re, err := regexp.Compile(c.Pattern)
			if err != nil {
				errors = append(errors, violation(field, c, "unparseable format rule"))
				continue
			}
			for _, v := range values {
				if v != "" && !re.MatchString(v) {
					errors = append(errors, violation(field, c, "answer has an invalid format"))
					break
				}
			}

		case KindOption:
			if len(c.Options) == 0 {
				continue
			}
			allowed := make(map[string]bool, len(c.Options))
			for _, o := range c.Options {
				allowed[o] = true
			}
			for _, v := range values {
				if v != "" && !allowed[v] {
					errors = append(errors, violation(field, c,
						fmt.Sprintf("answer must be one of %v", c.Options)))
					break
				}
			}

		case KindMaxItems:
			if c.Limit > 0 && len(values) > c.Limit {
				errors = append(errors, violation(field, c,
					fmt.Sprintf("no more than %d items may be given", c.Limit)))
			}
		}
	}

	return errors
}

func violation(field string, c Constraint, fallback string) ValidationError {
	msg := c.Message
	if msg == "" {
		msg = fallback
	}
	return ValidationError{Field: field, Message: msg, Code: c.Kind}
}

// CheckAll runs Check per field and folds the results.
func CheckAll(fields map[string][]string, constraints map[string][]Constraint) *ValidationResult {
	errors := []ValidationError{}
	for field, cons := range constraints {
		errors = append(errors, Check(field, fields[field], cons)...)
	}
	return &ValidationResult{
		Valid:  len(errors) == 0,
		Errors: errors,
	}
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// GetErrorsForField returns errors for a specific field
func (vr *ValidationResult) GetErrorsForField(field string) []ValidationError {
	var fieldErrors []ValidationError
	for _, err := range vr.Errors {
		if err.Field == field {
			fieldErrors = append(fieldErrors, err)
		}
	}
	return fieldErrors
}
