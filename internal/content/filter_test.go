// internal/content/filter_test.go
package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

// createLotManifest builds a manifest whose second section only applies to
// the "cloud-hosting" lot and whose last question depends on a prior answer.
func createLotManifest() *Manifest {
	return NewManifest("g-cloud-9", "services", "edit_submission", []*Section{
		{
			ID:       "about-your-service",
			Name:     "About your service",
			Editable: true,
			Questions: []*Question{
				{Slug: "service-name", Label: "Service name", Kind: KindText},
				{
					Slug:      "hosting-model",
					Label:     "Hosting model",
					Kind:      KindRadios,
					DependsOn: []Dependency{{On: "lot", Being: []string{"cloud-hosting"}}},
				},
			},
		},
		{
			ID:       "hosting-details",
			Name:     "Hosting details",
			Editable: true,
			Questions: []*Question{
				{
					Slug:      "datacentre-tier",
					Label:     "Datacentre tier",
					Kind:      KindText,
					DependsOn: []Dependency{{On: "lot", Being: []string{"cloud-hosting"}}},
				},
			},
		},
		{
			ID:       "support",
			Name:     "Support",
			Editable: true,
			Questions: []*Question{
				{
					Slug:      "support-hours",
					Label:     "Support hours",
					Kind:      KindText,
					DependsOn: []Dependency{{On: "phoneSupport", Being: []string{"true"}}},
				},
				{Slug: "email-address", Label: "Email address", Kind: KindText},
			},
		},
	})
}

// ==========================
// Lot Filtering Tests
// ==========================

func TestFilter_ByLot(t *testing.T) {
	tests := []struct {
		name             string
		lot              string
		expectedSections []string
	}{
		{
			name:             "matching lot keeps dependent content",
			lot:              "cloud-hosting",
			expectedSections: []string{"about-your-service", "hosting-details", "support"},
		},
		{
			name:             "non-matching lot drops dependent questions and empty sections",
			lot:              "cloud-software",
			expectedSections: []string{"about-your-service", "support"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filtered := createLotManifest().Filter(LotContext(tt.lot))

			ids := make([]string, 0, len(filtered.Sections()))
			for _, s := range filtered.Sections() {
				ids = append(ids, s.ID)
			}
			assert.Equal(t, tt.expectedSections, ids)
		})
	}
}

func TestFilter_DropsOnlyDependentQuestions(t *testing.T) {
	filtered := createLotManifest().Filter(LotContext("cloud-software"))

	about := filtered.GetSection("about-your-service")
	require.NotNil(t, about)
	require.Len(t, about.Questions, 1)
	assert.Equal(t, "service-name", about.Questions[0].Slug)
}

// ==========================
// Document Filtering Tests
// ==========================

func TestFilter_ByDocumentFields(t *testing.T) {
	doc := models.Document{
		"lot":          "cloud-hosting",
		"phoneSupport": true,
		"ignoredList":  []string{"a", "b"},
	}

	filtered := createLotManifest().Filter(DocumentContext(doc))

	support := filtered.GetSection("support")
	require.NotNil(t, support)
	assert.Len(t, support.Questions, 2, "boolean dependency satisfied by true")
}

func TestFilter_ConditionalQuestionAbsentWhenDependencyFails(t *testing.T) {
	doc := models.Document{"lot": "cloud-hosting", "phoneSupport": false}

	filtered := createLotManifest().Filter(DocumentContext(doc))

	support := filtered.GetSection("support")
	require.NotNil(t, support)
	require.Len(t, support.Questions, 1)
	assert.Equal(t, "email-address", support.Questions[0].Slug)
}

// ==========================
// Invariant Tests
// ==========================

func TestFilter_IsIdempotent(t *testing.T) {
	ctx := LotContext("cloud-software")

	once := createLotManifest().Filter(ctx)
	twice := once.Filter(ctx)

	require.Len(t, twice.Sections(), len(once.Sections()))
	for i, s := range once.Sections() {
		assert.Equal(t, s.ID, twice.Sections()[i].ID)
		assert.Len(t, twice.Sections()[i].Questions, len(s.Questions))
	}
}

func TestFilter_DoesNotMutateSource(t *testing.T) {
	m := createLotManifest()
	before := len(m.GetSection("about-your-service").Questions)

	_ = m.Filter(LotContext("cloud-software"))

	assert.Equal(t, before, len(m.GetSection("about-your-service").Questions))
	assert.Len(t, m.Sections(), 3)
}

func TestFilter_QuestionWithoutDependenciesAlwaysApplies(t *testing.T) {
	filtered := createLotManifest().Filter(FilterContext{})

	require.NotNil(t, filtered.GetSection("about-your-service"))
	assert.NotNil(t, filtered.GetSection("about-your-service").GetQuestion("service-name"))
	assert.Nil(t, filtered.GetSection("hosting-details"))
}

func BenchmarkManifest_Filter(b *testing.B) {
	m := createLotManifest()
	ctx := LotContext("cloud-hosting")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Filter(ctx)
	}
}
