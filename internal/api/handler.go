package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/kartoza/rockburst/internal/config"
	"github.com/kartoza/rockburst/internal/logging"
	"github.com/kartoza/rockburst/internal/metrics"
	"github.com/kartoza/rockburst/internal/models"
	"github.com/kartoza/rockburst/internal/predictor"
	"github.com/kartoza/rockburst/internal/registry"
	"github.com/kartoza/rockburst/internal/rock"
)

// maxBodyBytes caps prediction request bodies
const maxBodyBytes = 1 << 16

// Handler provides HTTP API endpoints
type Handler struct {
	predictor predictor.Predictor
	registry  *registry.Store
	metrics   *metrics.Metrics
	cfg       config.Config
}

// NewHandler creates a new API handler.
// registry and metrics may be nil.
func NewHandler(
	p predictor.Predictor,
	reg *registry.Store,
	m *metrics.Metrics,
	cfg config.Config,
) *Handler {
	return &Handler{
		predictor: p,
		registry:  reg,
		metrics:   m,
		cfg:       cfg,
	}
}

// RegisterRoutes sets up all API routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	// Health and info
	r.HandleFunc("/health", h.handleHealth).Methods("GET")
	r.HandleFunc("/info", h.handleInfo).Methods("GET")

	// Form metadata
	r.HandleFunc("/rock-types", h.handleRockTypes).Methods("GET")
	r.HandleFunc("/parameters", h.handleParameters).Methods("GET")
	r.HandleFunc("/grades", h.handleGrades).Methods("GET")

	// Prediction
	r.HandleFunc("/derive", h.handleDerive).Methods("POST")
	r.HandleFunc("/predict", h.handlePredict).Methods("POST")

	// Model parameters
	r.HandleFunc("/models", h.handleListModels).Methods("GET")
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("error encoding response")
	}
}

// respondError sends a JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, models.ErrorResponse{Error: message})
}

// fail maps invalid input to 400, an oversized body to 413 and anything
// else to 500
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	logger := logging.FromContext(r.Context())

	resp := models.ErrorResponse{Error: err.Error()}
	if h.cfg.ExposeTraces {
		resp.Details = fmt.Sprintf("%+v", err)
	}

	if invalid, ok := rock.IsInvalidInput(err); ok {
		h.metrics.ObserveError("invalid_input")
		logger.Warn().Err(err).Str("field", invalid.Field).Msg("rejected input")
		resp.Field = invalid.Field
		respondJSON(w, http.StatusBadRequest, resp)
		return
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		h.metrics.ObserveError("too_large")
		logger.Warn().Int64("limit", tooLarge.Limit).Msg("rejected oversized body")
		resp.Error = fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit)
		respondJSON(w, http.StatusRequestEntityTooLarge, resp)
		return
	}

	h.metrics.ObserveError("internal")
	logger.Error().Err(err).Msg("request failed")
	respondJSON(w, http.StatusInternalServerError, resp)
}

// handleHealth returns server health status
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleInfo returns server information
func (h *Handler) handleInfo(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"version":         h.cfg.Version,
		"model_loaded":    h.predictor != nil,
		"registry_loaded": h.registry != nil,
	}
	if h.predictor != nil {
		info["model"] = h.predictor.GetConfig()
	}
	respondJSON(w, http.StatusOK, info)
}

func rockTypes() []models.RockTypeInfo {
	out := make([]models.RockTypeInfo, 0, len(rock.RockTypes))
	for _, rt := range rock.RockTypes {
		out = append(out, models.RockTypeInfo{Code: rt.Code(), Name: rt.String()})
	}
	return out
}

// handleRockTypes returns the selectable rock types
func (h *Handler) handleRockTypes(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, rockTypes())
}

// handleParameters returns the form's ranges and defaults
func (h *Handler) handleParameters(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.ParametersResponse{
		RockTypes: rockTypes(),
		Ranges:    rock.Ranges(),
		Defaults:  rock.DefaultMeasurements(),
	})
}

// handleGrades returns the grade guide and prevention advice
func (h *Handler) handleGrades(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.NewGradeCatalog())
}

// decodeMeasurements reads a single PredictRequest object. Decoding
// failures are reported as invalid input.
func decodeMeasurements(w http.ResponseWriter, r *http.Request) (rock.Measurements, error) {
	var req models.PredictRequest
	var tooLarge *http.MaxBytesError

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		if _, ok := rock.IsInvalidInput(err); ok {
			return rock.Measurements{}, err
		}
		if errors.As(err, &tooLarge) {
			return rock.Measurements{}, err
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return rock.Measurements{}, rock.NewInvalidInputError(typeErr.Field, typeErr.Value, "must be a number")
		}
		return rock.Measurements{}, rock.NewInvalidInputError("body", nil, "must be a JSON object: "+err.Error())
	}

	if _, err := dec.Token(); err != io.EOF {
		if errors.As(err, &tooLarge) {
			return rock.Measurements{}, err
		}
		return rock.Measurements{}, rock.NewInvalidInputError("body", nil, "must contain a single JSON object")
	}
	return req.Measurements()
}

// handleDerive returns the feature vector for the submitted measurements
func (h *Handler) handleDerive(w http.ResponseWriter, r *http.Request) {
	m, err := decodeMeasurements(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	v, err := rock.Collect(m)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, v)
}

// handlePredict scores the submitted measurements
func (h *Handler) handlePredict(w http.ResponseWriter, r *http.Request) {
	if h.predictor == nil {
		respondError(w, http.StatusServiceUnavailable, "no model loaded")
		return
	}

	start := time.Now()

	m, err := decodeMeasurements(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	v, err := rock.Collect(m)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.predictor.Predict(v)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.metrics.ObservePrediction(int(res.Grade), res.ModelVersion, time.Since(start).Seconds())
	logging.FromContext(r.Context()).Info().
		Str("rock_type", v.RockType.String()).
		Int("grade", int(res.Grade)).
		Str("model", res.ModelVersion).
		Msg("prediction served")

	respondJSON(w, http.StatusOK, models.NewPredictResponse(v, res))
}

// handleListModels returns the registered parameter versions
func (h *Handler) handleListModels(w http.ResponseWriter, r *http.Request) {
	active := ""
	if h.predictor != nil {
		active = h.predictor.Version()
	}

	if h.registry == nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"active": active,
			"models": []*registry.Record{},
		})
		return
	}

	records, err := h.registry.List()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if records == nil {
		records = []*registry.Record{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"active": active,
		"models": records,
	})
}
