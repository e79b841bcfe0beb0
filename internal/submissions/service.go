// internal/submissions/service.go
package submissions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/clients/dataapi"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/clients/objectstore"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/common/database"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/common/logger"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/common/metrics"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/content"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/models"
)

// DraftAPI is the slice of the data API the submissions flow needs.
type DraftAPI interface {
	GetDraftService(ctx context.Context, id string) (models.DraftService, error)
	CreateDraftService(ctx context.Context, frameworkSlug, lot, supplierID, userEmail string) (models.DraftService, error)
	UpdateDraftService(ctx context.Context, id string, fields map[string]interface{}, userEmail string, pageQuestions []string) (models.DraftService, error)
	CompleteDraftService(ctx context.Context, id, userEmail string) (models.DraftService, error)
	CopyDraftService(ctx context.Context, id, userEmail string) (models.DraftService, error)
	DeleteDraftService(ctx context.Context, id, userEmail string) error
	GetFramework(ctx context.Context, slug string) (models.Framework, error)
}

// ManifestSource supplies loaded manifests. Satisfied by the content
// registry.
type ManifestSource interface {
	GetManifest(frameworkSlug, manifestName string) (*content.Manifest, error)
}

// DriftEscalator raises an alert when the data API reports errors for
// fields no loaded manifest knows about.
type DriftEscalator interface {
	EscalateSchemaDrift(ctx context.Context, frameworkSlug, sectionID string, keys []string) error
	SendSubmissionComplete(ctx context.Context, to, frameworkName, serviceName string) error
}

// Service drives the draft service editing flow: render a section, bind and
// validate submitted answers, push accepted patches to the data API and fold
// rejections back into per-question errors.
type Service struct {
	registry ManifestSource
	api      DraftAPI
	store    objectstore.Store
	notify   DriftEscalator
	redis    *database.RedisClient
	cfg      Config
	logger   logger.Logger
}

func NewService(registry ManifestSource, api DraftAPI, store objectstore.Store, notify DriftEscalator, redis *database.RedisClient, cfg Config, log logger.Logger) *Service {
	return &Service{
		registry: registry,
		api:      api,
		store:    store,
		notify:   notify,
		redis:    redis,
		cfg:      cfg,
		logger:   log.WithFields(map[string]interface{}{"component": "submissions"}),
	}
}

// manifestFor returns the edit manifest filtered down to the sections and
// questions applicable to this draft's answers.
func (s *Service) manifestFor(draft models.DraftService) (*content.Manifest, error) {
	manifest, err := s.registry.GetManifest(draft.FrameworkSlug(), s.cfg.EditManifest)
	if err != nil {
		return nil, err
	}
	ctx := content.DocumentContext(draft.Document)
	ctx["lot"] = draft.Lot()
	start := time.Now()
	filtered := manifest.Filter(ctx)
	metrics.ManifestFilterDuration.WithLabelValues(draft.FrameworkSlug()).Observe(time.Since(start).Seconds())
	return filtered, nil
}

// EditSection prepares an editable section of a draft for rendering.
func (s *Service) EditSection(ctx context.Context, draftID, sectionID string) (*EditView, error) {
	draft, err := s.api.GetDraftService(ctx, draftID)
	if err != nil {
		return nil, err
	}
	manifest, err := s.manifestFor(draft)
	if err != nil {
		return nil, err
	}
	section := manifest.GetSection(sectionID)
	if section == nil || !section.Editable {
		return nil, fmt.Errorf("%w: %s", content.ErrSectionNotFound, sectionID)
	}
	return &EditView{
		Draft:    draft,
		Section:  section,
		FormData: section.UnformatData(draft.Document),
	}, nil
}

// EditQuestion prepares a single-question view of a draft, for pages that
// edit one question at a time.
func (s *Service) EditQuestion(ctx context.Context, draftID, questionSlug string) (*EditView, error) {
	draft, err := s.api.GetDraftService(ctx, draftID)
	if err != nil {
		return nil, err
	}
	manifest, err := s.manifestFor(draft)
	if err != nil {
		return nil, err
	}
	section := manifest.GetQuestionAsSection(questionSlug)
	if section == nil || !section.Editable {
		return nil, fmt.Errorf("%w: %s", content.ErrQuestionNotFound, questionSlug)
	}

	view := &EditView{
		Draft:    draft,
		Section:  section,
		FormData: section.UnformatData(draft.Document),
	}
	if parent := parentSection(manifest, questionSlug); parent != nil {
		if next, ok := parent.NextQuestionSlug(questionSlug); ok {
			view.NextQuestionSlug = next
		}
	}
	return view, nil
}

// SaveSection binds a submitted form against one section, validates it and
// pushes the patch to the data API. Rejected answers come back as an
// ErrorMap keyed by question slug with the supplier's values preserved for
// re-rendering; only structural mismatches and infrastructure failures are
// returned as errors.
func (s *Service) SaveSection(ctx context.Context, draftID, sectionID string, form map[string][]string, userEmail string) (*SaveResult, error) {
	draft, err := s.api.GetDraftService(ctx, draftID)
	if err != nil {
		return nil, err
	}
	manifest, err := s.manifestFor(draft)
	if err != nil {
		return nil, err
	}
	section := manifest.GetSection(sectionID)
	if section == nil || !section.Editable {
		return nil, fmt.Errorf("%w: %s", content.ErrSectionNotFound, sectionID)
	}
	return s.save(ctx, draft, manifest, section, form, userEmail)
}

// SaveQuestion is the single-question counterpart of SaveSection. On
// success NextSectionID is left empty and NextQuestionSlug chaining is the
// caller's concern via EditQuestion.
func (s *Service) SaveQuestion(ctx context.Context, draftID, questionSlug string, form map[string][]string, userEmail string) (*SaveResult, error) {
	draft, err := s.api.GetDraftService(ctx, draftID)
	if err != nil {
		return nil, err
	}
	manifest, err := s.manifestFor(draft)
	if err != nil {
		return nil, err
	}
	section := manifest.GetQuestionAsSection(questionSlug)
	if section == nil || !section.Editable {
		return nil, fmt.Errorf("%w: %s", content.ErrQuestionNotFound, questionSlug)
	}
	return s.save(ctx, draft, manifest, section, form, userEmail)
}

func (s *Service) save(ctx context.Context, draft models.DraftService, manifest *content.Manifest, section *content.Section, form map[string][]string, userEmail string) (*SaveResult, error) {
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

	nextID, _ := manifest.NextEditableSectionID(section.ID)

	if !section.HasChangesToSave(draft.Document, patch) {
		return &SaveResult{NoChanges: true, Draft: draft, NextSectionID: nextID}, nil
	}

	updated, err := s.api.UpdateDraftService(ctx, draft.ID(), patch.ToDocumentFields(), userEmail, section.FieldNames())
	if err != nil {
		return s.foldRejection(ctx, draft, section, form, err)
	}

	s.logger.Info("section saved", map[string]interface{}{
		"draft":   draft.ID(),
		"section": section.ID,
		"fields":  len(patch),
	})
	return &SaveResult{Saved: true, Draft: updated, NextSectionID: nextID}, nil
}

// foldRejection converts a data API write rejection into the shared
// ErrorMap shape. Error keys no question owns are escalated and returned,
// never dropped.
func (s *Service) foldRejection(ctx context.Context, draft models.DraftService, section *content.Section, form map[string][]string, err error) (*SaveResult, error) {
	var httpErr *dataapi.HTTPError
	if !errors.As(err, &httpErr) {
		return nil, err
	}
	if len(httpErr.FieldErrors) == 0 {
		return nil, &content.RemoteRejection{Status: httpErr.StatusCode, Errors: content.ErrorMap{}}
	}

	metrics.ValidationFailures.WithLabelValues("remote").Inc()
	errMap, mapErr := section.GetErrorMessages(httpErr.FieldErrors, content.DescriptorFromQuestion)
	if mapErr != nil {
		var unmapped *content.UnmappedValidationError
		if errors.As(mapErr, &unmapped) {
			metrics.UnmappedFieldErrors.WithLabelValues(draft.FrameworkSlug()).Inc()
			s.logger.Error("api error keys outside loaded manifest", map[string]interface{}{
				"draft":   draft.ID(),
				"section": section.ID,
				"keys":    fmt.Sprintf("%v", unmapped.Keys),
			})
			if s.notify != nil {
				_ = s.notify.EscalateSchemaDrift(ctx, draft.FrameworkSlug(), section.ID, unmapped.Keys)
			}
		}
		return nil, mapErr
	}
	return &SaveResult{Errors: errMap, FormData: form}, nil
}

// RemoveAnswer clears one question's answer from a draft. Once a document
// has been submitted the last remaining answer of a section cannot be
// removed.
func (s *Service) RemoveAnswer(ctx context.Context, draftID, questionSlug, userEmail string) (models.DraftService, error) {
	draft, err := s.api.GetDraftService(ctx, draftID)
	if err != nil {
		return models.DraftService{}, err
	}
	manifest, err := s.manifestFor(draft)
	if err != nil {
		return models.DraftService{}, err
	}
	section := parentSection(manifest, questionSlug)
	if section == nil {
		return models.DraftService{}, fmt.Errorf("%w: %s", content.ErrQuestionNotFound, questionSlug)
	}
	question := section.GetQuestion(questionSlug)

	if err := section.ValidateRemoval(draft.Document, question, draft.Status()); err != nil {
		return models.DraftService{}, err
	}

	fields := make(map[string]interface{}, len(question.FormFields()))
	for _, f := range question.FormFields() {
		fields[f] = nil
	}
	return s.api.UpdateDraftService(ctx, draftID, fields, userEmail, question.FormFields())
}

// NewDraft creates an empty draft service on a framework lot.
func (s *Service) NewDraft(ctx context.Context, frameworkSlug, lot, supplierID, userEmail string) (models.DraftService, error) {
	return s.api.CreateDraftService(ctx, frameworkSlug, lot, supplierID, userEmail)
}

// CompleteDraft marks a draft as complete once every required question is
// answered, then confirms by email.
func (s *Service) CompleteDraft(ctx context.Context, draftID, userEmail string) (models.DraftService, error) {
	progress, err := s.Progress(ctx, draftID)
	if err != nil {
		return models.DraftService{}, err
	}
	if !progress.CanMarkComplete {
		return models.DraftService{}, &content.ValidationFailedError{Errors: content.ErrorMap{
			"_overall": {
				Label:   "Service",
				Message: fmt.Sprintf("You still have %d unanswered required question(s).", progress.UnansweredRequired),
				Kind:    "incomplete_service",
			},
		}}
	}

	updated, err := s.api.CompleteDraftService(ctx, draftID, userEmail)
	if err != nil {
		return models.DraftService{}, err
	}

	if s.notify != nil {
		framework, fwErr := s.CachedFramework(ctx, updated.FrameworkSlug())
		name := updated.FrameworkSlug()
		if fwErr == nil {
			name = framework.Name
		}
		if err := s.notify.SendSubmissionComplete(ctx, userEmail, name, updated.ServiceName()); err != nil {
			s.logger.Warn("completion email not sent", map[string]interface{}{
				"draft": draftID,
				"error": err.Error(),
			})
		}
	}
	return updated, nil
}

// CopyDraft clones a previously submitted service into a fresh draft.
func (s *Service) CopyDraft(ctx context.Context, draftID, userEmail string) (models.DraftService, error) {
	return s.api.CopyDraftService(ctx, draftID, userEmail)
}

// DeleteDraft removes a draft service.
func (s *Service) DeleteDraft(ctx context.Context, draftID, userEmail string) error {
	return s.api.DeleteDraftService(ctx, draftID, userEmail)
}

// Progress computes the per-section completion overview for a draft.
func (s *Service) Progress(ctx context.Context, draftID string) (*ProgressView, error) {
	draft, err := s.api.GetDraftService(ctx, draftID)
	if err != nil {
		return nil, err
	}
	manifest, err := s.manifestFor(draft)
	if err != nil {
		return nil, err
	}
	summaries := manifest.Summary(draft.Document)
	required, optional := content.CountUnansweredQuestions(summaries)
	return &ProgressView{
		Draft:              draft,
		Sections:           summaries,
		UnansweredRequired: required,
		UnansweredOptional: optional,
		CanMarkComplete:    required == 0,
	}, nil
}

// UploadAnswerDocuments stores uploaded files and patches the owning upload
// fields with their object keys. Files addressed at fields that are not
// upload questions of the section are rejected.
func (s *Service) UploadAnswerDocuments(ctx context.Context, draftID, sectionID string, files []UploadFile, userEmail string) (models.DraftService, error) {
	draft, err := s.api.GetDraftService(ctx, draftID)
	if err != nil {
		return models.DraftService{}, err
	}
	manifest, err := s.manifestFor(draft)
	if err != nil {
		return models.DraftService{}, err
	}
	section := manifest.GetSection(sectionID)
	if section == nil || !section.Editable {
		return models.DraftService{}, fmt.Errorf("%w: %s", content.ErrSectionNotFound, sectionID)
	}

	uploadFields := make(map[string]bool)
	for _, q := range section.Questions {
		if q.Kind == content.KindUpload {
			for _, f := range q.FormFields() {
				uploadFields[f] = true
			}
		}
	}

	fields := make(map[string]interface{}, len(files))
	var pageQuestions []string
	for _, file := range files {
		if !uploadFields[file.Field] {
			return models.DraftService{}, &content.ValidationFailedError{Errors: content.ErrorMap{
				file.Field: {
					Label:   file.Field,
					Message: "this field does not accept file uploads",
					Kind:    "unknown_field",
				},
			}}
		}
		if len(file.Body) == 0 {
			return models.DraftService{}, &content.ValidationFailedError{Errors: content.ErrorMap{
				file.Field: {
					Label:   file.Field,
					Message: "The uploaded file is empty.",
					Kind:    "file_is_empty",
				},
			}}
		}

		key := path.Join(draft.FrameworkSlug(), "documents", draftID, file.Field+path.Ext(file.Name))
		if err := s.store.Upload(ctx, s.cfg.DocumentsBucket, key, file.Body, file.ContentType); err != nil {
			return models.DraftService{}, err
		}
		fields[file.Field] = key
		pageQuestions = append(pageQuestions, file.Field)
	}
	if len(fields) == 0 {
		return draft, nil
	}
	return s.api.UpdateDraftService(ctx, draftID, fields, userEmail, pageQuestions)
}

// DocumentURL signs a stored answer document key for time-limited download.
func (s *Service) DocumentURL(ctx context.Context, key string) (string, error) {
	return s.store.SignedURL(ctx, s.cfg.DocumentsBucket, key, s.cfg.URLExpiry)
}

// CachedFramework returns framework metadata through a redis cache-aside.
// Cache failures fall back to the data API; they are logged, not surfaced.
func (s *Service) CachedFramework(ctx context.Context, slug string) (models.Framework, error) {
	cacheKey := "framework:" + slug

	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, cacheKey); err == nil {
			var fw models.Framework
			if json.Unmarshal([]byte(cached), &fw) == nil {
				return fw, nil
			}
		}
	}

	fw, err := s.api.GetFramework(ctx, slug)
	if err != nil {
		return models.Framework{}, err
	}

	if s.redis != nil {
		if payload, err := json.Marshal(fw); err == nil {
			if err := s.redis.Set(ctx, cacheKey, payload, s.cfg.FrameworkTTL); err != nil {
				s.logger.Warn("framework cache write failed", map[string]interface{}{
					"framework": slug,
					"error":     err.Error(),
				})
			}
		}
	}
	return fw, nil
}

// parentSection locates the declared section containing a question slug.
func parentSection(m *content.Manifest, slug string) *content.Section {
	for _, section := range m.Sections() {
		if section.GetQuestion(slug) != nil {
			return section
		}
	}
	return nil
}
