// internal/content/section.go
package content

// Section is a named, ordered group of questions. Sections marked
// non-editable are display-only summaries.
type Section struct {
	ID          string
	Name        string
	Description string
	Editable    bool
	Questions   []*Question
}

// GetQuestion returns the question with the given slug, or nil.
func (s *Section) GetQuestion(slug string) *Question {
	for _, q := range s.Questions {
		if q.Slug == slug {
			return q
		}
	}
	return nil
}

// FieldNames returns every backing field declared by this section's
// questions, in declaration order. Callers pass these to the data API as
// the page's question scope so the API validates exactly what was shown.
func (s *Section) FieldNames() []string {
	var out []string
	for _, q := range s.Questions {
		out = append(out, q.FormFields()...)
	}
	return out
}

// questionForField returns the question owning the given document field.
func (s *Section) questionForField(name string) *Question {
	for _, q := range s.Questions {
		if q.ownsField(name) || q.Slug == name {
			return q
		}
	}
	return nil
}
