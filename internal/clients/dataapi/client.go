// internal/clients/dataapi/client.go
package dataapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/common/config"
	commonerrors "github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/common/errors"
	commonhttp "github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/common/http"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/common/logger"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/common/metrics"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/models"
)

// HTTPError is a non-2xx response from the data API. FieldErrors carries
// the per-field error kinds of a rejected write and is the sole input to
// error-map conversion downstream.
type HTTPError struct {
	StatusCode  int
	Message     string
	FieldErrors map[string]string
}

func (e *HTTPError) Error() string {
	if len(e.FieldErrors) > 0 {
		return fmt.Sprintf("data api: status %d, %d field error(s)", e.StatusCode, len(e.FieldErrors))
	}
	return fmt.Sprintf("data api: status %d: %s", e.StatusCode, e.Message)
}

// Client talks to the external document store API. Documents are owned and
// persisted entirely by that API; this client only moves snapshots and
// patches.
type Client struct {
	baseURL   string
	authToken string
	http      *commonhttp.Client
	logger    logger.Logger
}

func NewClient(cfg config.DataAPIConfig, log logger.Logger) *Client {
	return &Client{
		baseURL:   cfg.GetBaseURL(),
		authToken: cfg.AuthToken,
		http:      commonhttp.NewClient(config.GetDuration(cfg.Timeout)),
		logger:    log.WithFields(map[string]interface{}{"component": "data-api"}),
	}
}

func (c *Client) do(ctx context.Context, operation, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", operation, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", operation, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.authToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	start := time.Now()
	resp, err := c.http.DoWithContext(ctx, req)
	metrics.DataAPIRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.DataAPIRequests.WithLabelValues(operation, "transport_error").Inc()
		if errors.Is(err, context.DeadlineExceeded) {
			return commonerrors.NewDataAPITimeoutError(operation)
		}
		return commonerrors.NewDataAPIUnavailableError(fmt.Errorf("%s: %w", operation, err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.DataAPIRequests.WithLabelValues(operation, "read_error").Inc()
		return fmt.Errorf("%s: read response: %w", operation, err)
	}

	metrics.DataAPIRequests.WithLabelValues(operation, fmt.Sprintf("%d", resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.decodeError(operation, resp.StatusCode, raw)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%s: decode response: %w", operation, err)
		}
	}
	return nil
}

// decodeError maps the API's error envelope. A string error body is a
// plain message; an object maps field names to error kinds.
func (c *Client) decodeError(operation string, status int, raw []byte) error {
	httpErr := &HTTPError{StatusCode: status}

	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error != nil {
		var msg string
		if json.Unmarshal(envelope.Error, &msg) == nil {
			httpErr.Message = msg
		} else {
			var fields map[string]interface{}
			if json.Unmarshal(envelope.Error, &fields) == nil {
				httpErr.FieldErrors = make(map[string]string, len(fields))
				for k, v := range fields {
					httpErr.FieldErrors[k] = fmt.Sprintf("%v", v)
				}
			}
		}
	}
	if httpErr.Message == "" && len(httpErr.FieldErrors) == 0 {
		httpErr.Message = string(raw)
	}

	c.logger.Warn("data api request failed", map[string]interface{}{
		"operation": operation,
		"status":    status,
	})
	return httpErr
}

// --- Draft services ---

type draftServiceEnvelope struct {
	Services models.Document `json:"services"`
}

func (c *Client) GetDraftService(ctx context.Context, id string) (models.DraftService, error) {
	var env draftServiceEnvelope
	if err := c.do(ctx, "get_draft_service", http.MethodGet, "/draft-services/"+id, nil, &env); err != nil {
		return models.DraftService{}, err
	}
	return models.DraftService{Document: env.Services}, nil
}

func (c *Client) CreateDraftService(ctx context.Context, frameworkSlug, lot, supplierID, userEmail string) (models.DraftService, error) {
	body := map[string]interface{}{
		"services": map[string]interface{}{
			"frameworkSlug": frameworkSlug,
			"lot":           lot,
			"supplierId":    supplierID,
		},
		"updated_by": userEmail,
	}
	var env draftServiceEnvelope
	if err := c.do(ctx, "create_draft_service", http.MethodPost, "/draft-services", body, &env); err != nil {
		return models.DraftService{}, err
	}
	return models.DraftService{Document: env.Services}, nil
}

// UpdateDraftService submits a patch scoped to the page's question fields.
// The API validates exactly the fields named in pageQuestions.
func (c *Client) UpdateDraftService(ctx context.Context, id string, fields map[string]interface{}, userEmail string, pageQuestions []string) (models.DraftService, error) {
	body := map[string]interface{}{
		"services":       fields,
		"updated_by":     userEmail,
		"page_questions": pageQuestions,
	}
	var env draftServiceEnvelope
	if err := c.do(ctx, "update_draft_service", http.MethodPost, "/draft-services/"+id, body, &env); err != nil {
		return models.DraftService{}, err
	}
	return models.DraftService{Document: env.Services}, nil
}

func (c *Client) CompleteDraftService(ctx context.Context, id, userEmail string) (models.DraftService, error) {
	body := map[string]interface{}{"updated_by": userEmail}
	var env draftServiceEnvelope
	if err := c.do(ctx, "complete_draft_service", http.MethodPost, "/draft-services/"+id+"/complete", body, &env); err != nil {
		return models.DraftService{}, err
	}
	return models.DraftService{Document: env.Services}, nil
}

func (c *Client) CopyDraftService(ctx context.Context, id, userEmail string) (models.DraftService, error) {
	body := map[string]interface{}{"updated_by": userEmail}
	var env draftServiceEnvelope
	if err := c.do(ctx, "copy_draft_service", http.MethodPost, "/draft-services/"+id+"/copy", body, &env); err != nil {
		return models.DraftService{}, err
	}
	return models.DraftService{Document: env.Services}, nil
}

func (c *Client) DeleteDraftService(ctx context.Context, id, userEmail string) error {
	body := map[string]interface{}{"updated_by": userEmail}
	return c.do(ctx, "delete_draft_service", http.MethodDelete, "/draft-services/"+id, body, nil)
}

// --- Frameworks and declarations ---

func (c *Client) GetFramework(ctx context.Context, slug string) (models.Framework, error) {
	var env struct {
		Frameworks models.Framework `json:"frameworks"`
	}
	if err := c.do(ctx, "get_framework", http.MethodGet, "/frameworks/"+slug, nil, &env); err != nil {
		return models.Framework{}, err
	}
	return env.Frameworks, nil
}

func (c *Client) GetSupplierFramework(ctx context.Context, supplierID, frameworkSlug string) (models.SupplierFramework, error) {
	var env struct {
		FrameworkInterest models.SupplierFramework `json:"frameworkInterest"`
	}
	path := "/suppliers/" + supplierID + "/frameworks/" + frameworkSlug
	if err := c.do(ctx, "get_supplier_framework", http.MethodGet, path, nil, &env); err != nil {
		return models.SupplierFramework{}, err
	}
	return env.FrameworkInterest, nil
}

// UpdateDeclaration saves a declaration patch for one manifest page.
func (c *Client) UpdateDeclaration(ctx context.Context, supplierID, frameworkSlug string, fields map[string]interface{}, userEmail string, pageQuestions []string) (models.Document, error) {
	body := map[string]interface{}{
		"declaration":    fields,
		"updated_by":     userEmail,
		"page_questions": pageQuestions,
	}
	var env struct {
		Declaration models.Document `json:"declaration"`
	}
	path := "/suppliers/" + supplierID + "/frameworks/" + frameworkSlug + "/declaration"
	if err := c.do(ctx, "update_declaration", http.MethodPatch, path, body, &env); err != nil {
		return nil, err
	}
	return env.Declaration, nil
}

// SetDeclarationStatus records the derived declaration status.
func (c *Client) SetDeclarationStatus(ctx context.Context, supplierID, frameworkSlug, status, userEmail string) error {
	body := map[string]interface{}{
		"declarationStatus": status,
		"updated_by":        userEmail,
	}
	path := "/suppliers/" + supplierID + "/frameworks/" + frameworkSlug
	return c.do(ctx, "set_declaration_status", http.MethodPost, path, body, nil)
}
