// pkg/frameworks/frameworks_test.go
package frameworks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createValidIndex() *Index {
	return &Index{
		Version:     "1",
		LastUpdated: "2026-08-01",
		Frameworks: []FrameworkDef{
			{
				Slug:   "g-cloud-9",
				Name:   "G-Cloud 9",
				Status: "open",
				Lots:   []string{"cloud-hosting", "cloud-software"},
				Manifests: []ManifestRef{
					{Name: "edit_submission", DocumentType: "services"},
					{Name: "declaration", DocumentType: "declarations"},
				},
				Messages: []string{"urls"},
			},
			{
				Slug:   "digital-outcomes-2",
				Name:   "Digital Outcomes 2",
				Status: "pending",
				Manifests: []ManifestRef{
					{Name: "edit_brief", DocumentType: "briefs"},
				},
			},
		},
	}
}

// ==========================
// Validation Tests
// ==========================

func TestIndex_Validate(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(*Index)
		expectedError string
	}{
		{
			name:   "valid index",
			mutate: func(i *Index) {},
		},
		{
			name:          "no frameworks",
			mutate:        func(i *Index) { i.Frameworks = nil },
			expectedError: "no frameworks",
		},
		{
			name:          "missing slug",
			mutate:        func(i *Index) { i.Frameworks[0].Slug = "" },
			expectedError: "missing required field: slug",
		},
		{
			name:          "duplicate slug",
			mutate:        func(i *Index) { i.Frameworks[1].Slug = "g-cloud-9" },
			expectedError: "duplicate framework slug",
		},
		{
			name:          "missing name",
			mutate:        func(i *Index) { i.Frameworks[0].Name = "" },
			expectedError: "missing required field: name",
		},
		{
			name:          "no manifests",
			mutate:        func(i *Index) { i.Frameworks[0].Manifests = nil },
			expectedError: "declares no manifests",
		},
		{
			name:          "manifest without name",
			mutate:        func(i *Index) { i.Frameworks[0].Manifests[0].Name = "" },
			expectedError: "manifest without a name",
		},
		{
			name:          "manifest without document type",
			mutate:        func(i *Index) { i.Frameworks[0].Manifests[1].DocumentType = "" },
			expectedError: "missing document type",
		},
		{
			name:          "duplicate manifest name",
			mutate:        func(i *Index) { i.Frameworks[0].Manifests[1].Name = "edit_submission" },
			expectedError: "duplicate manifest name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			index := createValidIndex()
			tt.mutate(index)

			err := index.Validate()
			if tt.expectedError == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.expectedError)
		})
	}
}

// ==========================
// Lookup Tests
// ==========================

func TestIndex_FrameworkBySlug(t *testing.T) {
	index := createValidIndex()

	fw, found := index.FrameworkBySlug("digital-outcomes-2")
	require.True(t, found)
	assert.Equal(t, "Digital Outcomes 2", fw.Name)

	_, found = index.FrameworkBySlug("no-such-framework")
	assert.False(t, found)
}
