// internal/clients/dataapi/client_test.go
package dataapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/common/config"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/common/logger"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(config.DataAPIConfig{
		BaseURL:   server.URL + "/",
		AuthToken: "test-token",
		Timeout:   5000,
	}, logger.NewTestLogger(t))
	return client, server
}

// ==========================
// Request Shape Tests
// ==========================

func TestClient_SetsAuthAndRequestID(t *testing.T) {
	var gotAuth, gotRequestID string
	client, _ := createTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"services": map[string]interface{}{"id": "123"}})
	})

	_, err := client.GetDraftService(context.Background(), "123")
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.NotEmpty(t, gotRequestID)
}

func TestClient_UpdateDraftService_SendsPageQuestions(t *testing.T) {
	var gotBody map[string]interface{}
	client, _ := createTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"services": map[string]interface{}{"id": "123", "serviceName": "Cloud Compute"},
		})
	})

	draft, err := client.UpdateDraftService(context.Background(), "123",
		map[string]interface{}{"serviceName": "Cloud Compute"},
		"supplier@example.com",
		[]string{"serviceName", "serviceSummary"},
	)
	require.NoError(t, err)

	assert.Equal(t, "Cloud Compute", draft.ServiceName())
	assert.Equal(t, "supplier@example.com", gotBody["updated_by"])
	assert.Equal(t, []interface{}{"serviceName", "serviceSummary"}, gotBody["page_questions"])

	services, ok := gotBody["services"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Cloud Compute", services["serviceName"])
}

// ==========================
// Error Decoding Tests
// ==========================

func TestClient_DecodesFieldErrors(t *testing.T) {
	client, _ := createTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{
				"serviceName":    "answer_required",
				"serviceSummary": "under_word_limit",
			},
		})
	})

	_, err := client.UpdateDraftService(context.Background(), "123",
		map[string]interface{}{"serviceName": ""}, "supplier@example.com", []string{"serviceName"})

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	assert.Equal(t, map[string]string{
		"serviceName":    "answer_required",
		"serviceSummary": "under_word_limit",
	}, httpErr.FieldErrors)
}

func TestClient_DecodesStringError(t *testing.T) {
	client, _ := createTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"error": "draft not found"})
	})

	_, err := client.GetDraftService(context.Background(), "missing")

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
	assert.Equal(t, "draft not found", httpErr.Message)
	assert.Empty(t, httpErr.FieldErrors)
}

func TestClient_NonJSONErrorBodyKept(t *testing.T) {
	client, _ := createTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream exploded"))
	})

	_, err := client.GetDraftService(context.Background(), "123")

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, "upstream exploded", httpErr.Message)
}

// ==========================
// Envelope Tests
// ==========================

func TestClient_GetFramework(t *testing.T) {
	client, _ := createTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/frameworks/g-cloud-9", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"frameworks": map[string]interface{}{
				"slug":   "g-cloud-9",
				"name":   "G-Cloud 9",
				"status": "open",
				"lots": []map[string]interface{}{
					{"slug": "cloud-hosting", "name": "Cloud hosting"},
				},
			},
		})
	})

	fw, err := client.GetFramework(context.Background(), "g-cloud-9")
	require.NoError(t, err)

	assert.Equal(t, "G-Cloud 9", fw.Name)
	lot, found := fw.LotBySlug("cloud-hosting")
	require.True(t, found)
	assert.Equal(t, "Cloud hosting", lot.Name)
}

func TestClient_GetSupplierFramework(t *testing.T) {
	client, _ := createTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/suppliers/42/frameworks/g-cloud-9", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"frameworkInterest": map[string]interface{}{
				"supplierId":        "42",
				"frameworkSlug":     "g-cloud-9",
				"declarationStatus": "started",
				"declaration":       map[string]interface{}{"trading-name": "ACME"},
			},
		})
	})

	sf, err := client.GetSupplierFramework(context.Background(), "42", "g-cloud-9")
	require.NoError(t, err)

	assert.Equal(t, "started", sf.DeclarationStatus)
	assert.Equal(t, "ACME", sf.Declaration.String("trading-name"))
}

func TestClient_DeleteDraftService(t *testing.T) {
	var gotMethod string
	client, _ := createTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, client.DeleteDraftService(context.Background(), "123", "supplier@example.com"))
	assert.Equal(t, http.MethodDelete, gotMethod)
}
