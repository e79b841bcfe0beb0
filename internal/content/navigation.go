// internal/content/navigation.go
package content

import (
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/models"
)

// SectionStatus is the answered tri-state of one section against a
// document snapshot.
type SectionStatus string

const (
	SectionNotStarted SectionStatus = "not-started"
	SectionPartial    SectionStatus = "partial"
	SectionComplete   SectionStatus = "complete"
)

// SectionSummary is one row of a per-document progress overview.
type SectionSummary struct {
	ID                 string
	Name               string
	Editable           bool
	Status             SectionStatus
	UnansweredRequired int
	UnansweredOptional int
}

// NextEditableSectionID returns the first editable section after the given
// id, or from the start when after is empty. Walking from "" through each
// returned id visits every editable section exactly once and terminates.
func (m *Manifest) NextEditableSectionID(after string) (string, bool) {
	started := after == ""
	for _, s := range m.sections {
		if !started {
			if s.ID == after {
				started = true
			}
			continue
		}
		if s.Editable {
			return s.ID, true
		}
	}
	return "", false
}

// NextQuestionSlug is the analogous walk within one section, supporting
// resumable single-question editing.
func (s *Section) NextQuestionSlug(after string) (string, bool) {
	started := after == ""
	for _, q := range s.Questions {
		if !started {
			if q.Slug == after {
				started = true
			}
			continue
		}
		return q.Slug, true
	}
	return "", false
}

// Summary walks every section and reports, per section, how much of it the
// document answers. A question counts as answered when any of its backing
// fields holds a non-empty value. Ordering is manifest declaration order.
func (m *Manifest) Summary(doc models.Document) []SectionSummary {
	out := make([]SectionSummary, 0, len(m.sections))
	for _, s := range m.sections {
		answered := 0
		summary := SectionSummary{ID: s.ID, Name: s.Name, Editable: s.Editable}
		for _, q := range s.Questions {
			if questionAnswered(doc, q) {
				answered++
				continue
			}
			if q.Optional {
				summary.UnansweredOptional++
			} else {
				summary.UnansweredRequired++
			}
		}
		switch {
		case answered == len(s.Questions):
			summary.Status = SectionComplete
		case answered == 0:
			summary.Status = SectionNotStarted
		default:
			summary.Status = SectionPartial
		}
		out = append(out, summary)
	}
	return out
}

func questionAnswered(doc models.Document, q *Question) bool {
	for _, field := range q.FormFields() {
		if doc.Answered(field) {
			return true
		}
	}
	return false
}

// CountUnansweredQuestions aggregates a summary into the (required,
// optional) unanswered counts used for progress indicators.
func CountUnansweredQuestions(summaries []SectionSummary) (required, optional int) {
	for _, s := range summaries {
		required += s.UnansweredRequired
		optional += s.UnansweredOptional
	}
	return required, optional
}
