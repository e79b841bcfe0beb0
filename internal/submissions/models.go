// internal/submissions/models.go
package submissions

import (
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/content"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/models"
)

// EditView is everything a form page needs to render one editable section
// of a draft: the (filtered) section definition and the current answers in
// form shape.
type EditView struct {
	Draft    models.DraftService
	Section  *content.Section
	FormData map[string][]string
	// NextQuestionSlug is set on single-question views when a further
	// question of the parent section exists.
	NextQuestionSlug string
}

// SaveResult reports the outcome of a section save.
type SaveResult struct {
	// Saved is true when the write reached the data API and was accepted.
	Saved bool
	// NoChanges is true when the patch matched the stored answers and the
	// write was skipped.
	NoChanges bool
	// Errors is non-empty when local validation or the data API rejected
	// the answers. Keys are question slugs.
	Errors content.ErrorMap
	// FormData re-populates the form on rejection.
	FormData map[string][]string
	// Draft is the updated snapshot after a successful save.
	Draft models.DraftService
	// NextSectionID points at the next editable section, when one exists.
	NextSectionID string
}

// UploadFile is one answer document received from the supplier.
type UploadFile struct {
	Field       string
	Name        string
	ContentType string
	Body        []byte
}

// ProgressView is the per-draft completion overview.
type ProgressView struct {
	Draft              models.DraftService
	Sections           []content.SectionSummary
	UnansweredRequired int
	UnansweredOptional int
	// CanMarkComplete is true when no required question is unanswered.
	CanMarkComplete bool
}
