// internal/declarations/models.go
package declarations

import (
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/content"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/models"
)

// EditView is one declaration page ready for rendering.
type EditView struct {
	Declaration models.Document
	Section     *content.Section
	FormData    map[string][]string
}

// SaveResult reports the outcome of a declaration page save.
type SaveResult struct {
	Saved         bool
	Errors        content.ErrorMap
	FormData      map[string][]string
	Declaration   models.Document
	Status        string
	NextSectionID string
}

// ProgressView is the declaration completion overview.
type ProgressView struct {
	Declaration        models.Document
	Sections           []content.SectionSummary
	UnansweredRequired int
	UnansweredOptional int
	Status             string
}
