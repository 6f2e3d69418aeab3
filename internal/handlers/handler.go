package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/peerbulle/internal/app"
	"github.com/shrimpsizemoose/peerbulle/internal/metrics"
	"github.com/shrimpsizemoose/peerbulle/internal/models"
)

type ReviewHandler struct {
	service *app.Service
}

func NewReviewHandler(service *app.Service) *ReviewHandler {
	return &ReviewHandler{
		service: service,
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Instrument records the request duration of h under the route pattern.
func Instrument(pattern string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			metrics.APIRequestDuration.WithLabelValues(
				pattern,
				r.Method,
				strconv.Itoa(rec.status),
			).Observe(time.Since(start).Seconds())
		}()
		h(rec, r)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrDuplicateSubmission):
		return http.StatusConflict
	case errors.Is(err, models.ErrMissingAssignment), errors.Is(err, models.ErrStudentNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrRoundClosed):
		return http.StatusForbidden
	case errors.Is(err, app.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error.Printf("Request failed: %v", err)
		http.Error(w, "Internal server error", status)
		return
	}
	logger.Debug.Printf("Request rejected with %d: %v", status, err)
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error.Printf("Failed to encode response: %v", err)
	}
}

// guard checks the required headers and the class path value.
func (h *ReviewHandler) guard(w http.ResponseWriter, r *http.Request) (string, bool) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusForbidden)
		return "", false
	}

	class := r.PathValue("class")
	if class == "" {
		logger.Error.Printf("Failed to extract class from path: %s", r.URL.Path)
		http.Error(w, "Invalid class", http.StatusBadRequest)
		return "", false
	}
	return class, true
}

func (h *ReviewHandler) Register(mux *http.ServeMux) {
	routes := map[string]http.HandlerFunc{
		"GET /api/v1/{class}/targets":        h.HandleTargets,
		"GET /api/v1/{class}/project":        h.HandleProject,
		"POST /api/v1/{class}/rate/{round}":  h.HandleRate,
		"GET /api/v1/{class}/analysis":       h.HandleAnalysis,
		"GET /api/v1/{class}/analysis.csv":   h.HandleAnalysisCSV,
		"GET /api/v1/{class}/analysis.xlsx":  h.HandleAnalysisXLSX,
		"GET /api/v1/{class}/analysis/pairs": h.HandleAnalysisPairs,
	}
	for pattern, handler := range routes {
		mux.HandleFunc(pattern, Instrument(pattern, handler))
	}
}
