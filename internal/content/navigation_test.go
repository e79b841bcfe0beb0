// internal/content/navigation_test.go
package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/models"
)

// ==========================
// Section Walk Tests
// ==========================

func TestNextEditableSectionID(t *testing.T) {
	m := NewManifest("g-cloud-9", "services", "edit_submission", []*Section{
		{ID: "one", Name: "One", Editable: true, Questions: []*Question{{Slug: "a", Kind: KindText}}},
		{ID: "two", Name: "Two", Editable: false, Questions: []*Question{{Slug: "b", Kind: KindText}}},
		{ID: "three", Name: "Three", Editable: true, Questions: []*Question{{Slug: "c", Kind: KindText}}},
	})

	first, ok := m.NextEditableSectionID("")
	require.True(t, ok)
	assert.Equal(t, "one", first)

	second, ok := m.NextEditableSectionID("one")
	require.True(t, ok)
	assert.Equal(t, "three", second, "non-editable sections are skipped")

	_, ok = m.NextEditableSectionID("three")
	assert.False(t, ok)
}

// Walking from the start through every returned id visits each editable
// section exactly once and always terminates.
func TestNextEditableSectionID_WalkTerminates(t *testing.T) {
	m := createTestManifest()

	var visited []string
	current := ""
	for i := 0; i < 100; i++ {
		next, ok := m.NextEditableSectionID(current)
		if !ok {
			break
		}
		visited = append(visited, next)
		current = next
	}

	assert.Equal(t, []string{"service-description", "service-attributes", "pricing"}, visited)
}

func TestNextQuestionSlug(t *testing.T) {
	section := createTestManifest().GetSection("service-attributes")

	first, ok := section.NextQuestionSlug("")
	require.True(t, ok)
	assert.Equal(t, "cloud-deployment-model", first)

	next, ok := section.NextQuestionSlug("open-standards-supported")
	require.True(t, ok)
	assert.Equal(t, "service-benefits", next)

	_, ok = section.NextQuestionSlug("service-benefits")
	assert.False(t, ok)
}

// ==========================
// Summary Tests
// ==========================

func TestSummary_AllAnswered(t *testing.T) {
	doc := models.Document{
		"service-name":             "Cloud Compute",
		"service-summary":          "A compute service.",
		"cloud-deployment-model":   "public",
		"open-standards-supported": false,
		"service-benefits":         []interface{}{"scalable"},
		"priceMin":                 "10.50",
	}

	summaries := createTestManifest().Summary(doc)

	require.Len(t, summaries, 3)
	for _, s := range summaries {
		assert.Equal(t, SectionComplete, s.Status, "section %s", s.ID)
	}

	required, optional := CountUnansweredQuestions(summaries)
	assert.Equal(t, 0, required)
	assert.Equal(t, 0, optional)
}

func TestSummary_TriState(t *testing.T) {
	doc := models.Document{
		"service-name":           "Cloud Compute",
		"service-summary":        "A compute service.",
		"cloud-deployment-model": "public",
	}

	summaries := createTestManifest().Summary(doc)

	require.Len(t, summaries, 3)
	assert.Equal(t, SectionComplete, summaries[0].Status)
	assert.Equal(t, SectionPartial, summaries[1].Status)
	assert.Equal(t, SectionNotStarted, summaries[2].Status)
}

func TestSummary_ExplicitFalseCountsAsAnswered(t *testing.T) {
	doc := models.Document{"open-standards-supported": false}

	summaries := createTestManifest().Summary(doc)

	assert.Equal(t, SectionPartial, summaries[1].Status)
}

func TestSummary_MultiFieldQuestionAnsweredByAnyField(t *testing.T) {
	doc := models.Document{"priceMax": "99.00"}

	summaries := createTestManifest().Summary(doc)

	assert.Equal(t, SectionComplete, summaries[2].Status)
}

func TestCountUnansweredQuestions_SplitsRequiredAndOptional(t *testing.T) {
	summaries := createTestManifest().Summary(models.Document{})

	required, optional := CountUnansweredQuestions(summaries)
	assert.Equal(t, 5, required)
	assert.Equal(t, 1, optional, "service-benefits is the only optional question")
}
