// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ManifestsLoaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_manifests_loaded_total",
			Help: "Total number of manifests registered at startup",
		},
		[]string{"framework"},
	)

	ManifestFilterDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "content_manifest_filter_duration_seconds",
			Help: "Duration of manifest filtering in seconds",
		},
		[]string{"framework"},
	)

	DataAPIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "data_api_requests_total",
			Help: "Total number of data API requests",
		},
		[]string{"operation", "status"},
	)

	DataAPIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "data_api_request_duration_seconds",
			Help: "Duration of data API requests in seconds",
		},
		[]string{"operation"},
	)

	ValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "section_validation_failures_total",
			Help: "Total number of section saves rejected by validation",
		},
		[]string{"source"}, // local or remote
	)

	UnmappedFieldErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unmapped_field_errors_total",
			Help: "API error keys that resolved to no known question",
		},
		[]string{"framework"},
	)

	DocumentUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "answer_document_uploads_total",
			Help: "Total number of answer documents uploaded",
		},
		[]string{"bucket", "status"},
	)
)
