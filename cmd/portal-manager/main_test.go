// cmd/portal-manager/main_test.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/clients/dataapi"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/clients/objectstore"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/common/logger"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/content"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/content/loader"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/declarations"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/models"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/submissions"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/pkg/frameworks"
)

// ==========================
// Test Helper Functions
// ==========================

type stubManifests struct{}

func (stubManifests) GetManifest(frameworkSlug, manifestName string) (*content.Manifest, error) {
	return nil, fmt.Errorf("%w: %s/%s", content.ErrManifestNotFound, frameworkSlug, manifestName)
}

// stubDraftAPI fails every call with a fixed error, so route tests can
// exercise the error-to-status mapping without a live data API.
type stubDraftAPI struct {
	err error
}

func (s stubDraftAPI) GetDraftService(context.Context, string) (models.DraftService, error) {
	return models.DraftService{}, s.err
}

func (s stubDraftAPI) CreateDraftService(context.Context, string, string, string, string) (models.DraftService, error) {
	return models.DraftService{}, s.err
}

func (s stubDraftAPI) UpdateDraftService(context.Context, string, map[string]interface{}, string, []string) (models.DraftService, error) {
	return models.DraftService{}, s.err
}

func (s stubDraftAPI) CompleteDraftService(context.Context, string, string) (models.DraftService, error) {
	return models.DraftService{}, s.err
}

func (s stubDraftAPI) CopyDraftService(context.Context, string, string) (models.DraftService, error) {
	return models.DraftService{}, s.err
}

func (s stubDraftAPI) DeleteDraftService(context.Context, string, string) error {
	return s.err
}

func (s stubDraftAPI) GetFramework(context.Context, string) (models.Framework, error) {
	return models.Framework{}, s.err
}

func createTestMux(t *testing.T, apiErr error) *http.ServeMux {
	t.Helper()

	log := logger.NewTestLogger(t)
	subs := submissions.NewService(stubManifests{}, stubDraftAPI{err: apiErr},
		objectstore.NewMemoryStore(), nil, nil, submissions.DefaultConfig(), log)
	decls := declarations.NewService(stubManifests{}, nil, nil, declarations.DefaultConfig(), log)

	registry, err := loader.NewRegistry(t.TempDir(), logger.NewNoOpLogger())
	require.NoError(t, err)

	mux := http.NewServeMux()
	registerRoutes(mux, subs, decls, registry, &frameworks.Index{}, zap.NewNop())
	return mux
}

// ==========================
// Error Mapping Tests
// ==========================

func TestRoutes_UpstreamNotFoundSurfacesAs404(t *testing.T) {
	mux := createTestMux(t, &dataapi.HTTPError{
		StatusCode: http.StatusNotFound,
		Message:    "draft not found",
	})

	req := httptest.NewRequest(http.MethodGet, "/drafts/missing/sections/about", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "draft not found")
}

func TestRoutes_UpstreamFailureSurfacesAs500(t *testing.T) {
	mux := createTestMux(t, errors.New("connection refused"))

	req := httptest.NewRequest(http.MethodGet, "/drafts/draft-1/sections/about", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
