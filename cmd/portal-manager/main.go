// cmd/portal-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/clients/dataapi"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/clients/objectstore"
	commonaws "github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/common/aws"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/common/config"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/common/database"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/common/logger"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/common/observability"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/content"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/content/loader"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/declarations"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/notify"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/submissions"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/pkg/frameworks"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New("info", "console")
		fallback.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting portal manager...")

	obs := observability.New("portal-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Load framework content. Any failure here aborts startup: serving
	// with a partially loaded registry is never acceptable. ---
	registry, err := loader.NewRegistry(cfg.Content.Root, log)
	if err != nil {
		zapLog.Fatal("content registry init failed", zap.Error(err))
	}
	index, err := frameworks.LoadIndex(cfg.Content.IndexPath)
	if err != nil {
		zapLog.Fatal("framework index load failed", zap.Error(err), zap.String("path", cfg.Content.IndexPath))
	}
	if err := registry.LoadAll(index); err != nil {
		zapLog.Fatal("framework content load failed", zap.Error(err))
	}
	zapLog.Info("Framework content loaded successfully", zap.Int("frameworks", len(index.Frameworks)))

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Data API client ---
	apiClient := dataapi.NewClient(cfg.DataAPI, log)
	zapLog.Info("Data API client initialized", zap.String("baseURL", cfg.DataAPI.GetBaseURL()))

	// --- Init Object Storage ---
	var store objectstore.Store
	s3Client, err := commonaws.NewS3Client(ctx, cfg.Storage.Region)
	if err != nil {
		zapLog.Warn("S3 unavailable, using in-memory object store", zap.Error(err))
		store = objectstore.NewMemoryStore()
	} else {
		store = objectstore.NewS3Store(s3Client, log)
	}

	// --- Init Notification Channels ---
	var emailSender notify.EmailSender
	if cfg.Integrations.AWS.SES.Enabled {
		sesClient, err := commonaws.NewSESClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Fatal("SES client init failed", zap.Error(err))
		}
		emailSender = sesClient
	}
	var alertPublisher notify.AlertPublisher
	if cfg.Integrations.AWS.SNS.Enabled {
		snsClient, err := commonaws.NewSNSClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Fatal("SNS client init failed", zap.Error(err))
		}
		alertPublisher = snsClient
	}
	notifier := notify.NewNotifier(emailSender, alertPublisher, cfg.Integrations,
		cfg.Notifications.Email.FromEmail, log)

	// --- Wire Services ---
	subCfg := submissions.DefaultConfig()
	subCfg.DocumentsBucket = cfg.Storage.DocumentsBucket
	subCfg.URLExpiry = config.GetDuration(cfg.Storage.URLExpiry)
	subCfg.FrameworkTTL = config.GetDuration(cfg.Cache.FrameworkTTL)
	submissionSvc := submissions.NewService(registry, apiClient, store, notifier, redis, subCfg, log)

	declCfg := declarations.DefaultConfig()
	declCfg.TTL = config.GetDuration(cfg.Cache.DeclarationTTL)
	declarationSvc := declarations.NewService(registry, apiClient, redis, declCfg, log)

	zapLog.Info("All services initialized")

	// --- HTTP Server ---
	mux := http.NewServeMux()
	registerRoutes(mux, submissionSvc, declarationSvc, registry, index, zapLog)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := redis.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "not ready", "reason": "redis"})
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "ready",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: ":8080", Handler: mux}
	go func() {
		zapLog.Info("Portal server listening on :8080")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Portal server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down server", zap.Error(err))
	}

	zapLog.Info("Portal manager stopped gracefully")
}

// registerRoutes mounts the JSON API over the submission and declaration
// services. The user email comes from the authenticating proxy in front of
// this service.
func registerRoutes(mux *http.ServeMux, subs *submissions.Service, decls *declarations.Service, registry *loader.Registry, index *frameworks.Index, zapLog *zap.Logger) {
	writeJSON := func(w http.ResponseWriter, status int, payload interface{}) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(payload)
	}
	writeError := func(w http.ResponseWriter, err error) {
		switch {
		case errors.Is(err, content.ErrManifestNotFound),
			errors.Is(err, content.ErrSectionNotFound),
			errors.Is(err, content.ErrQuestionNotFound),
			errors.Is(err, content.ErrMessageNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		default:
			var httpErr *dataapi.HTTPError
			if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
				msg := httpErr.Message
				if msg == "" {
					msg = "not found"
				}
				writeJSON(w, http.StatusNotFound, map[string]string{"error": msg})
				return
			}
			var vErr *content.ValidationFailedError
			if errors.As(err, &vErr) {
				writeJSON(w, http.StatusBadRequest, map[string]interface{}{"errors": vErr.Errors})
				return
			}
			var arityErr *content.BinderArityError
			if errors.As(err, &arityErr) {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
				return
			}
			zapLog.Error("request failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		}
	}
	userEmail := func(r *http.Request) string {
		return r.Header.Get("X-User-Email")
	}

	mux.HandleFunc("GET /frameworks", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, index)
	})

	mux.HandleFunc("GET /frameworks/{slug}/messages/{name}", func(w http.ResponseWriter, r *http.Request) {
		bundle, err := registry.GetMessage(r.PathValue("slug"), r.PathValue("name"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, bundle)
	})

	mux.HandleFunc("POST /frameworks/{slug}/lots/{lot}/suppliers/{supplierID}/drafts", func(w http.ResponseWriter, r *http.Request) {
		draft, err := subs.NewDraft(r.Context(), r.PathValue("slug"), r.PathValue("lot"),
			r.PathValue("supplierID"), userEmail(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, draft.Document)
	})

	mux.HandleFunc("POST /drafts/{draftID}/sections/{sectionID}/documents", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed multipart form"})
			return
		}
		var files []submissions.UploadFile
		for field, headers := range r.MultipartForm.File {
			for _, header := range headers {
				f, err := header.Open()
				if err != nil {
					writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable upload"})
					return
				}
				body, err := io.ReadAll(f)
				f.Close()
				if err != nil {
					writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable upload"})
					return
				}
				files = append(files, submissions.UploadFile{
					Field:       field,
					Name:        header.Filename,
					ContentType: header.Header.Get("Content-Type"),
					Body:        body,
				})
			}
		}
		updated, err := subs.UploadAnswerDocuments(r.Context(), r.PathValue("draftID"),
			r.PathValue("sectionID"), files, userEmail(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated.Document)
	})

	mux.HandleFunc("GET /drafts/{draftID}/sections/{sectionID}", func(w http.ResponseWriter, r *http.Request) {
		view, err := subs.EditSection(r.Context(), r.PathValue("draftID"), r.PathValue("sectionID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	})

	mux.HandleFunc("POST /drafts/{draftID}/sections/{sectionID}", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed form"})
			return
		}
		result, err := subs.SaveSection(r.Context(), r.PathValue("draftID"), r.PathValue("sectionID"),
			r.PostForm, userEmail(r))
		if err != nil {
			writeError(w, err)
			return
		}
		status := http.StatusOK
		if len(result.Errors) > 0 {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, result)
	})

	mux.HandleFunc("GET /drafts/{draftID}/questions/{slug}", func(w http.ResponseWriter, r *http.Request) {
		view, err := subs.EditQuestion(r.Context(), r.PathValue("draftID"), r.PathValue("slug"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	})

	mux.HandleFunc("POST /drafts/{draftID}/questions/{slug}", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed form"})
			return
		}
		result, err := subs.SaveQuestion(r.Context(), r.PathValue("draftID"), r.PathValue("slug"),
			r.PostForm, userEmail(r))
		if err != nil {
			writeError(w, err)
			return
		}
		status := http.StatusOK
		if len(result.Errors) > 0 {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, result)
	})

	mux.HandleFunc("DELETE /drafts/{draftID}/questions/{slug}", func(w http.ResponseWriter, r *http.Request) {
		updated, err := subs.RemoveAnswer(r.Context(), r.PathValue("draftID"), r.PathValue("slug"), userEmail(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated.Document)
	})

	mux.HandleFunc("GET /drafts/{draftID}/progress", func(w http.ResponseWriter, r *http.Request) {
		progress, err := subs.Progress(r.Context(), r.PathValue("draftID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, progress)
	})

	mux.HandleFunc("POST /drafts/{draftID}/complete", func(w http.ResponseWriter, r *http.Request) {
		updated, err := subs.CompleteDraft(r.Context(), r.PathValue("draftID"), userEmail(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated.Document)
	})

	mux.HandleFunc("POST /drafts/{draftID}/copy", func(w http.ResponseWriter, r *http.Request) {
		copied, err := subs.CopyDraft(r.Context(), r.PathValue("draftID"), userEmail(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, copied.Document)
	})

	mux.HandleFunc("DELETE /drafts/{draftID}", func(w http.ResponseWriter, r *http.Request) {
		if err := subs.DeleteDraft(r.Context(), r.PathValue("draftID"), userEmail(r)); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("GET /suppliers/{supplierID}/frameworks/{slug}/declaration/sections/{sectionID}", func(w http.ResponseWriter, r *http.Request) {
		view, err := decls.EditSection(r.Context(), r.PathValue("supplierID"), r.PathValue("slug"), r.PathValue("sectionID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	})

	mux.HandleFunc("POST /suppliers/{supplierID}/frameworks/{slug}/declaration/sections/{sectionID}", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed form"})
			return
		}
		result, err := decls.SaveSection(r.Context(), r.PathValue("supplierID"), r.PathValue("slug"),
			r.PathValue("sectionID"), r.PostForm, userEmail(r))
		if err != nil {
			writeError(w, err)
			return
		}
		status := http.StatusOK
		if len(result.Errors) > 0 {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, result)
	})

	mux.HandleFunc("GET /suppliers/{supplierID}/frameworks/{slug}/declaration/progress", func(w http.ResponseWriter, r *http.Request) {
		progress, err := decls.Progress(r.Context(), r.PathValue("supplierID"), r.PathValue("slug"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, progress)
	})
}
