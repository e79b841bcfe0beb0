// internal/content/filter.go
package content

import (
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/models"
)

// FilterContext maps dependency field names to their current values. The
// two recognized shapes are a lot restriction and the dynamic fields of a
// document snapshot.
type FilterContext map[string]string

// LotContext builds a context restricting questions to one lot.
func LotContext(lotSlug string) FilterContext {
	return FilterContext{"lot": lotSlug}
}

// DocumentContext builds a context from a document snapshot so question
// dependency predicates can be evaluated against prior answers. Only
// string and boolean fields participate in predicates.
func DocumentContext(doc models.Document) FilterContext {
	ctx := make(FilterContext, len(doc))
	for k, raw := range doc {
		switch v := raw.(type) {
		case string:
			ctx[k] = v
		case bool:
			if v {
				ctx[k] = "true"
			} else {
				ctx[k] = "false"
			}
		}
	}
	return ctx
}

// Filter returns a reduced manifest containing only sections and questions
// applicable to the context. Declaration order is preserved, sections left
// with no questions are dropped, and the source manifest is never mutated.
// The operation is deterministic and idempotent: retained questions keep
// their dependency metadata, and those dependencies hold in the same
// context, so filtering an already-filtered manifest is a no-op.
func (m *Manifest) Filter(ctx FilterContext) *Manifest {
	filtered := make([]*Section, 0, len(m.sections))
	for _, s := range m.sections {
		retained := make([]*Question, 0, len(s.Questions))
		for _, q := range s.Questions {
			if q.appliesTo(ctx) {
				retained = append(retained, q)
			}
		}
		if len(retained) == 0 {
			continue
		}
		filtered = append(filtered, &Section{
			ID:          s.ID,
			Name:        s.Name,
			Description: s.Description,
			Editable:    s.Editable,
			Questions:   retained,
		})
	}
	return &Manifest{
		FrameworkSlug: m.FrameworkSlug,
		DocumentType:  m.DocumentType,
		Name:          m.Name,
		sections:      filtered,
	}
}
