// internal/declarations/service.go
package declarations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/clients/dataapi"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/common/database"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/common/logger"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/common/metrics"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/content"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/models"
)

// DeclarationAPI is the slice of the data API the declaration flow needs.
type DeclarationAPI interface {
	GetSupplierFramework(ctx context.Context, supplierID, frameworkSlug string) (models.SupplierFramework, error)
	UpdateDeclaration(ctx context.Context, supplierID, frameworkSlug string, fields map[string]interface{}, userEmail string, pageQuestions []string) (models.Document, error)
	SetDeclarationStatus(ctx context.Context, supplierID, frameworkSlug, status, userEmail string) error
}

// ManifestSource supplies loaded manifests. Satisfied by the content
// registry.
type ManifestSource interface {
	GetManifest(frameworkSlug, manifestName string) (*content.Manifest, error)
}

// Service drives a supplier's framework declaration: the same manifest
// machinery as service submissions, over a per-supplier declaration document
// cached in redis.
type Service struct {
	registry ManifestSource
	api      DeclarationAPI
	redis    *database.RedisClient
	cfg      Config
	logger   logger.Logger
}

func NewService(registry ManifestSource, api DeclarationAPI, redis *database.RedisClient, cfg Config, log logger.Logger) *Service {
	return &Service{
		registry: registry,
		api:      api,
		redis:    redis,
		cfg:      cfg,
		logger:   log.WithFields(map[string]interface{}{"component": "declarations"}),
	}
}

func cacheKey(supplierID, frameworkSlug string) string {
	return "declaration:" + supplierID + ":" + frameworkSlug
}

// Declaration returns the supplier's declaration snapshot, cache-aside. A
// cache failure falls back to the data API and is logged, not surfaced.
func (s *Service) Declaration(ctx context.Context, supplierID, frameworkSlug string) (models.Document, error) {
	key := cacheKey(supplierID, frameworkSlug)

	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, key); err == nil {
			var doc models.Document
			if json.Unmarshal([]byte(cached), &doc) == nil {
				return doc, nil
			}
		}
	}

	sf, err := s.api.GetSupplierFramework(ctx, supplierID, frameworkSlug)
	if err != nil {
		return nil, err
	}
	doc := sf.Declaration
	if doc == nil {
		doc = models.Document{}
	}

	if s.redis != nil {
		if payload, err := json.Marshal(doc); err == nil {
			if err := s.redis.Set(ctx, key, payload, s.cfg.TTL); err != nil {
				s.logger.Warn("declaration cache write failed", map[string]interface{}{
					"supplier":  supplierID,
					"framework": frameworkSlug,
					"error":     err.Error(),
				})
			}
		}
	}
	return doc, nil
}

// EditSection prepares one declaration section for rendering.
func (s *Service) EditSection(ctx context.Context, supplierID, frameworkSlug, sectionID string) (*EditView, error) {
	doc, err := s.Declaration(ctx, supplierID, frameworkSlug)
	if err != nil {
		return nil, err
	}
	manifest, err := s.filteredManifest(frameworkSlug, doc)
	if err != nil {
		return nil, err
	}
	section := manifest.GetSection(sectionID)
	if section == nil || !section.Editable {
		return nil, fmt.Errorf("%w: %s", content.ErrSectionNotFound, sectionID)
	}
	return &EditView{
		Declaration: doc,
		Section:     section,
		FormData:    section.UnformatData(doc),
	}, nil
}

// SaveSection binds and validates one declaration page, pushes the patch and
// refreshes the derived declaration status.
func (s *Service) SaveSection(ctx context.Context, supplierID, frameworkSlug, sectionID string, form map[string][]string, userEmail string) (*SaveResult, error) {
	doc, err := s.Declaration(ctx, supplierID, frameworkSlug)
	if err != nil {
		return nil, err
	}
	manifest, err := s.filteredManifest(frameworkSlug, doc)
	if err != nil {
		return nil, err
	}
	section := manifest.GetSection(sectionID)
	if section == nil || !section.Editable {
		return nil, fmt.Errorf("%w: %s", content.ErrSectionNotFound, sectionID)
	}

	patch, err := section.GetData(form)
	if err != nil {
		var vErr *content.ValidationFailedError
		if errors.As(err, &vErr) {
			metrics.ValidationFailures.WithLabelValues("binder").Inc()
			return &SaveResult{Errors: vErr.Errors, FormData: form}, nil
		}
		return nil, err
	}
	if localErrs := section.Validate(patch); len(localErrs) > 0 {
		metrics.ValidationFailures.WithLabelValues("local").Inc()
		return &SaveResult{Errors: localErrs, FormData: form}, nil
	}

	updated, err := s.api.UpdateDeclaration(ctx, supplierID, frameworkSlug, patch.ToDocumentFields(), userEmail, section.FieldNames())
	if err != nil {
		var httpErr *dataapi.HTTPError
		if errors.As(err, &httpErr) && len(httpErr.FieldErrors) > 0 {
			metrics.ValidationFailures.WithLabelValues("remote").Inc()
			errMap, mapErr := section.GetErrorMessages(httpErr.FieldErrors, content.DescriptorFromQuestion)
			if mapErr != nil {
				var unmapped *content.UnmappedValidationError
				if errors.As(mapErr, &unmapped) {
					metrics.UnmappedFieldErrors.WithLabelValues(frameworkSlug).Inc()
					s.logger.Error("api error keys outside loaded manifest", map[string]interface{}{
						"framework": frameworkSlug,
						"section":   sectionID,
						"keys":      fmt.Sprintf("%v", unmapped.Keys),
					})
				}
				return nil, mapErr
			}
			return &SaveResult{Errors: errMap, FormData: form}, nil
		}
		return nil, err
	}

	s.invalidate(ctx, supplierID, frameworkSlug)

	status := s.deriveStatus(frameworkSlug, updated)
	if err := s.api.SetDeclarationStatus(ctx, supplierID, frameworkSlug, status, userEmail); err != nil {
		s.logger.Warn("declaration status update failed", map[string]interface{}{
			"supplier":  supplierID,
			"framework": frameworkSlug,
			"error":     err.Error(),
		})
	}

	nextID, _ := manifest.NextEditableSectionID(sectionID)
	return &SaveResult{Saved: true, Declaration: updated, Status: status, NextSectionID: nextID}, nil
}

// Progress computes the per-section overview and derived status of a
// supplier's declaration.
func (s *Service) Progress(ctx context.Context, supplierID, frameworkSlug string) (*ProgressView, error) {
	doc, err := s.Declaration(ctx, supplierID, frameworkSlug)
	if err != nil {
		return nil, err
	}
	manifest, err := s.filteredManifest(frameworkSlug, doc)
	if err != nil {
		return nil, err
	}
	summaries := manifest.Summary(doc)
	required, optional := content.CountUnansweredQuestions(summaries)
	return &ProgressView{
		Declaration:        doc,
		Sections:           summaries,
		UnansweredRequired: required,
		UnansweredOptional: optional,
		Status:             s.deriveStatus(frameworkSlug, doc),
	}, nil
}

func (s *Service) filteredManifest(frameworkSlug string, doc models.Document) (*content.Manifest, error) {
	manifest, err := s.registry.GetManifest(frameworkSlug, s.cfg.ManifestName)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	filtered := manifest.Filter(content.DocumentContext(doc))
	metrics.ManifestFilterDuration.WithLabelValues(frameworkSlug).Observe(time.Since(start).Seconds())
	return filtered, nil
}

// deriveStatus maps the declaration document onto its lifecycle state:
// untouched, started, or complete once every required question is answered.
func (s *Service) deriveStatus(frameworkSlug string, doc models.Document) string {
	manifest, err := s.filteredManifest(frameworkSlug, doc)
	if err != nil {
		return models.DeclarationNotStarted
	}
	summaries := manifest.Summary(doc)

	anyStarted := false
	for _, section := range summaries {
		if section.Status != content.SectionNotStarted {
			anyStarted = true
			break
		}
	}
	if !anyStarted {
		return models.DeclarationNotStarted
	}
	if required, _ := content.CountUnansweredQuestions(summaries); required == 0 {
		return models.DeclarationComplete
	}
	return models.DeclarationStarted
}

func (s *Service) invalidate(ctx context.Context, supplierID, frameworkSlug string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, cacheKey(supplierID, frameworkSlug)); err != nil {
		s.logger.Warn("declaration cache invalidation failed", map[string]interface{}{
			"supplier":  supplierID,
			"framework": frameworkSlug,
			"error":     err.Error(),
		})
	}
}
