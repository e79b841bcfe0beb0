// internal/models/framework.go
package models

// Framework lifecycle states as reported by the data API.
const (
	FrameworkOpen    = "open"
	FrameworkPending = "pending"
	FrameworkLive    = "live"
	FrameworkExpired = "expired"
)

// Lot is one category of service offering within a framework. The lot
// decides which manifest sections apply to a draft service.
type Lot struct {
	Slug            string `json:"slug"`
	Name            string `json:"name"`
	OneServiceLimit bool   `json:"oneServiceLimit"`
}

// Framework describes one procurement framework iteration.
type Framework struct {
	Slug   string `json:"slug"`
	Name   string `json:"name"`
	Status string `json:"status"`
	Lots   []Lot  `json:"lots"`
}

// LotBySlug returns the lot with the given slug, if any.
func (f Framework) LotBySlug(slug string) (Lot, bool) {
	for _, lot := range f.Lots {
		if lot.Slug == slug {
			return lot, true
		}
	}
	return Lot{}, false
}

// SupplierFramework is a supplier's registration against one framework,
// including their declaration snapshot.
type SupplierFramework struct {
	SupplierID        string   `json:"supplierId"`
	FrameworkSlug     string   `json:"frameworkSlug"`
	OnFramework       bool     `json:"onFramework"`
	DeclarationStatus string   `json:"declarationStatus"`
	Declaration       Document `json:"declaration"`
}
