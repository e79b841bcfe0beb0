// internal/content/manifest.go
package content

// Manifest is the immutable, versioned definition of a form: an ordered
// sequence of sections for one (framework, document type) pair. Built once
// at load time and shared read-only across requests.
type Manifest struct {
	FrameworkSlug string
	DocumentType  string
	Name          string
	sections      []*Section
}

func NewManifest(frameworkSlug, documentType, name string, sections []*Section) *Manifest {
	return &Manifest{
		FrameworkSlug: frameworkSlug,
		DocumentType:  documentType,
		Name:          name,
		sections:      sections,
	}
}

// Sections returns the sections in declaration order.
func (m *Manifest) Sections() []*Section {
	return m.sections
}

// GetSection returns the section with the given id, or nil.
func (m *Manifest) GetSection(id string) *Section {
	for _, s := range m.sections {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// GetQuestionBySlug returns the question with the given slug, or nil.
func (m *Manifest) GetQuestionBySlug(slug string) *Question {
	for _, s := range m.sections {
		if q := s.GetQuestion(slug); q != nil {
			return q
		}
	}
	return nil
}

// GetQuestionAsSection derives a single-question pseudo-section so callers
// can treat "edit one question" and "edit a whole section" uniformly. The
// parent section's editable flag carries over; the view is ephemeral and
// never registered.
func (m *Manifest) GetQuestionAsSection(slug string) *Section {
	for _, s := range m.sections {
		if q := s.GetQuestion(slug); q != nil {
			return &Section{
				ID:       q.Slug,
				Name:     q.Label,
				Editable: s.Editable,
				Questions: []*Question{q},
			}
		}
	}
	return nil
}

// questionForField resolves the question owning a document field anywhere
// in the manifest.
func (m *Manifest) questionForField(name string) *Question {
	for _, s := range m.sections {
		if q := s.questionForField(name); q != nil {
			return q
		}
	}
	return nil
}
