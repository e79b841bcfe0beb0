// internal/declarations/service_test.go
package declarations

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/clients/dataapi"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/common/config"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/common/database"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/common/logger"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/common/validation"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/content"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

type stubManifests struct {
	manifest *content.Manifest
}

func (s stubManifests) GetManifest(frameworkSlug, manifestName string) (*content.Manifest, error) {
	if s.manifest == nil {
		return nil, fmt.Errorf("%w: %s/%s", content.ErrManifestNotFound, frameworkSlug, manifestName)
	}
	return s.manifest, nil
}

type fakeDeclarationAPI struct {
	declaration models.Document

	fetches              int
	updatedFields        map[string]interface{}
	updatedPageQuestions []string
	updateErr            error
	statusSet            string
}

func (f *fakeDeclarationAPI) GetSupplierFramework(_ context.Context, supplierID, frameworkSlug string) (models.SupplierFramework, error) {
	f.fetches++
	return models.SupplierFramework{
		SupplierID:    supplierID,
		FrameworkSlug: frameworkSlug,
		Declaration:   f.declaration,
	}, nil
}

func (f *fakeDeclarationAPI) UpdateDeclaration(_ context.Context, _, _ string, fields map[string]interface{}, _ string, pageQuestions []string) (models.Document, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.updatedFields = fields
	f.updatedPageQuestions = pageQuestions
	updated := f.declaration.Copy()
	for k, v := range fields {
		updated[k] = v
	}
	f.declaration = updated
	return updated, nil
}

func (f *fakeDeclarationAPI) SetDeclarationStatus(_ context.Context, _, _, status, _ string) error {
	f.statusSet = status
	return nil
}

func createDeclarationManifest() *content.Manifest {
	return content.NewManifest("g-cloud-9", "declarations", "declaration", []*content.Section{
		{
			ID:       "essentials",
			Name:     "Essentials",
			Editable: true,
			Questions: []*content.Question{
				{
					Slug:  "understand-terms",
					Label: "Do you understand the framework terms?",
					Kind:  content.KindBoolean,
					Constraints: []validation.Constraint{
						{Kind: validation.KindRequired},
					},
				},
				{
					Slug:  "trading-name",
					Label: "Trading name",
					Kind:  content.KindText,
					Constraints: []validation.Constraint{
						{Kind: validation.KindRequired},
					},
				},
			},
		},
		{
			ID:       "optional-extras",
			Name:     "Optional extras",
			Editable: true,
			Questions: []*content.Question{
				{Slug: "mitigating-factors", Label: "Mitigating factors", Kind: content.KindTextbox, Optional: true},
			},
		},
	})
}

func createTestService(t *testing.T, api *fakeDeclarationAPI, withRedis bool) *Service {
	t.Helper()
	var redisClient *database.RedisClient
	if withRedis {
		mr := miniredis.RunT(t)
		var err error
		redisClient, err = database.NewRedis(config.RedisConfig{Address: mr.Addr()})
		require.NoError(t, err)
		t.Cleanup(func() { _ = redisClient.Close() })
	}
	return NewService(stubManifests{manifest: createDeclarationManifest()}, api, redisClient,
		DefaultConfig(), logger.NewTestLogger(t))
}

// ==========================
// Cache-Aside Tests
// ==========================

func TestDeclaration_SecondReadFromCache(t *testing.T) {
	api := &fakeDeclarationAPI{declaration: models.Document{"trading-name": "ACME"}}
	svc := createTestService(t, api, true)

	first, err := svc.Declaration(context.Background(), "42", "g-cloud-9")
	require.NoError(t, err)
	second, err := svc.Declaration(context.Background(), "42", "g-cloud-9")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, api.fetches, "second read must come from the cache")
}

func TestDeclaration_WorksWithoutCache(t *testing.T) {
	api := &fakeDeclarationAPI{declaration: models.Document{"trading-name": "ACME"}}
	svc := createTestService(t, api, false)

	doc, err := svc.Declaration(context.Background(), "42", "g-cloud-9")
	require.NoError(t, err)
	assert.Equal(t, "ACME", doc.String("trading-name"))
}

func TestDeclaration_CacheFailureFallsBackToAPI(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectGet("declaration:42:g-cloud-9").SetErr(fmt.Errorf("connection refused"))
	mock.ExpectSet("declaration:42:g-cloud-9", []byte(`{"trading-name":"ACME"}`), DefaultConfig().TTL).
		SetErr(fmt.Errorf("connection refused"))

	api := &fakeDeclarationAPI{declaration: models.Document{"trading-name": "ACME"}}
	svc := NewService(stubManifests{manifest: createDeclarationManifest()}, api,
		&database.RedisClient{Client: db}, DefaultConfig(), logger.NewTestLogger(t))

	doc, err := svc.Declaration(context.Background(), "42", "g-cloud-9")
	require.NoError(t, err, "a broken cache must not surface to the caller")
	assert.Equal(t, "ACME", doc.String("trading-name"))
	assert.Equal(t, 1, api.fetches)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveSection_InvalidatesCache(t *testing.T) {
	api := &fakeDeclarationAPI{declaration: models.Document{}}
	svc := createTestService(t, api, true)

	// Prime the cache, then save.
	_, err := svc.Declaration(context.Background(), "42", "g-cloud-9")
	require.NoError(t, err)

	_, err = svc.SaveSection(context.Background(), "42", "g-cloud-9", "essentials", map[string][]string{
		"understand-terms": {"yes"},
		"trading-name":     {"ACME"},
	}, "supplier@example.com")
	require.NoError(t, err)

	fetchesBefore := api.fetches
	doc, err := svc.Declaration(context.Background(), "42", "g-cloud-9")
	require.NoError(t, err)
	assert.Equal(t, fetchesBefore+1, api.fetches, "save must invalidate the cached snapshot")
	assert.Equal(t, "ACME", doc.String("trading-name"))
}

// ==========================
// Save Flow Tests
// ==========================

func TestSaveSection_Success(t *testing.T) {
	api := &fakeDeclarationAPI{declaration: models.Document{}}
	svc := createTestService(t, api, false)

	result, err := svc.SaveSection(context.Background(), "42", "g-cloud-9", "essentials", map[string][]string{
		"understand-terms": {"true"},
		"trading-name":     {"ACME"},
	}, "supplier@example.com")
	require.NoError(t, err)

	assert.True(t, result.Saved)
	assert.Equal(t, true, api.updatedFields["understand-terms"])
	assert.Equal(t, "ACME", api.updatedFields["trading-name"])
	assert.Equal(t, []string{"understand-terms", "trading-name"}, api.updatedPageQuestions)
	assert.Equal(t, "optional-extras", result.NextSectionID)
}

func TestSaveSection_LocalValidationFailure(t *testing.T) {
	api := &fakeDeclarationAPI{declaration: models.Document{}}
	svc := createTestService(t, api, false)

	result, err := svc.SaveSection(context.Background(), "42", "g-cloud-9", "essentials", map[string][]string{
		"trading-name": {""},
	}, "supplier@example.com")
	require.NoError(t, err)

	assert.False(t, result.Saved)
	assert.Equal(t, "answer_required", result.Errors["trading-name"].Kind)
	assert.Nil(t, api.updatedFields)
}

func TestSaveSection_RemoteRejectionFolded(t *testing.T) {
	api := &fakeDeclarationAPI{
		declaration: models.Document{},
		updateErr: &dataapi.HTTPError{
			StatusCode:  400,
			FieldErrors: map[string]string{"trading-name": "under_character_limit"},
		},
	}
	svc := createTestService(t, api, false)

	result, err := svc.SaveSection(context.Background(), "42", "g-cloud-9", "essentials", map[string][]string{
		"trading-name": {"ACME"},
	}, "supplier@example.com")
	require.NoError(t, err)

	assert.Equal(t, "under_character_limit", result.Errors["trading-name"].Kind)
}

// ==========================
// Status Derivation Tests
// ==========================

func TestSaveSection_DerivesDeclarationStatus(t *testing.T) {
	api := &fakeDeclarationAPI{declaration: models.Document{}}
	svc := createTestService(t, api, false)

	result, err := svc.SaveSection(context.Background(), "42", "g-cloud-9", "essentials", map[string][]string{
		"understand-terms": {"true"},
		"trading-name":     {"ACME"},
	}, "supplier@example.com")
	require.NoError(t, err)

	assert.Equal(t, models.DeclarationComplete, result.Status)
	assert.Equal(t, models.DeclarationComplete, api.statusSet)
}

func TestProgress_StatusTriState(t *testing.T) {
	tests := []struct {
		name     string
		doc      models.Document
		expected string
	}{
		{
			name:     "untouched declaration",
			doc:      models.Document{},
			expected: models.DeclarationNotStarted,
		},
		{
			name:     "partially answered",
			doc:      models.Document{"trading-name": "ACME"},
			expected: models.DeclarationStarted,
		},
		{
			name:     "all required answered",
			doc:      models.Document{"trading-name": "ACME", "understand-terms": true},
			expected: models.DeclarationComplete,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeDeclarationAPI{declaration: tt.doc}
			svc := createTestService(t, api, false)

			progress, err := svc.Progress(context.Background(), "42", "g-cloud-9")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, progress.Status)
		})
	}
}

// ==========================
// Edit Flow Tests
// ==========================

func TestEditSection_PrepopulatesForm(t *testing.T) {
	api := &fakeDeclarationAPI{declaration: models.Document{
		"trading-name":     "ACME",
		"understand-terms": true,
	}}
	svc := createTestService(t, api, false)

	view, err := svc.EditSection(context.Background(), "42", "g-cloud-9", "essentials")
	require.NoError(t, err)

	assert.Equal(t, []string{"ACME"}, view.FormData["trading-name"])
	assert.Equal(t, []string{"true"}, view.FormData["understand-terms"])
}

func TestEditSection_UnknownSection(t *testing.T) {
	svc := createTestService(t, &fakeDeclarationAPI{declaration: models.Document{}}, false)

	_, err := svc.EditSection(context.Background(), "42", "g-cloud-9", "no-such-section")
	assert.ErrorIs(t, err, content.ErrSectionNotFound)
}
