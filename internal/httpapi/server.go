package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"ravend/internal/governor"
	"ravend/internal/manager"
	"ravend/internal/registry"
	"ravend/internal/selector"
	"ravend/pkg/types"
)

// Service defines the manager operations required by the HTTP API layer.
type Service interface {
	ListModels() []types.ModelDescriptor
	GetModel(id string) (types.ModelDescriptor, error)
	SelectModel(ctx context.Context, req types.TaskRequest) (*manager.ModelHandle, error)
	RecordExecutionMetrics(modelID string, metrics types.ExecutionMetrics) error
	Status() types.StatusResponse
	Preferences() types.Preferences
	UpdatePreferences(p types.Preferences) error
	CleanupResources()
	Ready() bool
}

// zlog is an optional structured logger. If unset, the HTTP layer stays quiet.
var zlog *zerolog.Logger

// SetLogger installs a structured logger used by the HTTP layer.
func SetLogger(l zerolog.Logger) { zlog = &l }

// NewMux builds the HTTP handler exposing the model management API.
func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(MetricsMiddleware)
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if !svc.Ready() {
			writeJSONError(w, http.StatusServiceUnavailable, "discovery has not completed")
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	r.Get("/models", handleListModels(svc))
	r.Get("/models/{id}", handleGetModel(svc))
	r.Get("/status", handleStatus(svc))
	r.Post("/select", handleSelect(svc))
	r.Post("/executions", handleRecordExecution(svc))
	r.Get("/preferences", handleGetPreferences(svc))
	r.Put("/preferences", handlePutPreferences(svc))
	r.Post("/cleanup", handleCleanup(svc))

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	MountSwagger(r)
	return r
}

// handleListModels godoc
// @Summary      List registered models
// @Produce      json
// @Success      200 {object} types.ModelsResponse
// @Router       /models [get]
func handleListModels(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, types.ModelsResponse{Models: svc.ListModels()})
	}
}

// handleGetModel godoc
// @Summary      Get one model descriptor
// @Produce      json
// @Param        id path string true "model id"
// @Success      200 {object} types.ModelDescriptor
// @Failure      404 {object} types.ErrorResponse
// @Router       /models/{id} [get]
func handleGetModel(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		m, err := svc.GetModel(id)
		if err != nil {
			writeJSONError(w, http.StatusNotFound, err.Error())
			return
		}
		writeJSON(w, m)
	}
}

// handleStatus godoc
// @Summary      System status
// @Produce      json
// @Success      200 {object} types.StatusResponse
// @Router       /status [get]
func handleStatus(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, svc.Status())
	}
}

// handleSelect godoc
// @Summary      Select and admit a model for a task
// @Accept       json
// @Produce      json
// @Param        request body types.TaskRequest true "task constraints"
// @Success      200 {object} types.SelectResponse
// @Failure      422 {object} types.ErrorResponse "no compatible model"
// @Failure      507 {object} types.ErrorResponse "memory budget exhausted"
// @Router       /select [post]
func handleSelect(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.TaskRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		h, err := svc.SelectModel(r.Context(), req)
		if err != nil {
			switch {
			case selector.IsNoCompatibleModel(err):
				countSelection("no_compatible")
				writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
			case governor.IsResourceExhausted(err):
				countSelection("exhausted")
				writeJSONError(w, http.StatusInsufficientStorage, err.Error())
			default:
				countSelection("error")
				writeJSONError(w, http.StatusInternalServerError, err.Error())
			}
			return
		}
		countSelection("ok")
		writeJSON(w, types.SelectResponse{Model: h.Descriptor, Score: h.Score})
	}
}

// handleRecordExecution godoc
// @Summary      Record execution metrics for a completed call
// @Accept       json
// @Param        report body types.ExecutionReport true "execution outcome"
// @Success      204
// @Failure      404 {object} types.ErrorResponse
// @Router       /executions [post]
func handleRecordExecution(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rep types.ExecutionReport
		if !decodeJSON(w, r, &rep) {
			return
		}
		if rep.ModelID == "" {
			writeJSONError(w, http.StatusBadRequest, "model_id is required")
			return
		}
		if rep.LatencySeconds < 0 || rep.Throughput < 0 || rep.MemoryEfficiency < 0 || rep.MemoryEfficiency > 1 {
			writeJSONError(w, http.StatusBadRequest, "metrics out of range")
			return
		}
		if err := svc.RecordExecutionMetrics(rep.ModelID, rep.ExecutionMetrics); err != nil {
			if registry.IsNotFound(err) {
				writeJSONError(w, http.StatusNotFound, err.Error())
				return
			}
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleGetPreferences godoc
// @Summary      Active user preferences
// @Produce      json
// @Success      200 {object} types.Preferences
// @Router       /preferences [get]
func handleGetPreferences(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, svc.Preferences())
	}
}

// handlePutPreferences godoc
// @Summary      Replace user preferences
// @Accept       json
// @Produce      json
// @Param        preferences body types.Preferences true "new preferences"
// @Success      200 {object} types.Preferences
// @Failure      400 {object} types.ErrorResponse "validation failure; prior preferences stay active"
// @Router       /preferences [put]
func handlePutPreferences(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p types.Preferences
		if !decodeJSON(w, r, &p) {
			return
		}
		if err := svc.UpdatePreferences(p); err != nil {
			if manager.IsInvalidPreference(err) {
				writeJSONError(w, http.StatusBadRequest, err.Error())
				return
			}
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, svc.Preferences())
	}
}

// handleCleanup godoc
// @Summary      Release all resident models
// @Success      204
// @Router       /cleanup [post]
func handleCleanup(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.CleanupResources()
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
	}
}

// decodeJSON enforces the content type and body limit, decoding into v.
// Returns false after writing the error response when decoding fails.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if zlog != nil {
			zlog.Debug().Err(err).Str("path", r.URL.Path).Msg("invalid request body")
		}
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
