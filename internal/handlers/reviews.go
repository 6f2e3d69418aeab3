package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/peerbulle/internal/metrics"
	"github.com/shrimpsizemoose/peerbulle/internal/models"
)

const maxRatingBody = 1 << 16

func (h *ReviewHandler) HandleTargets(w http.ResponseWriter, r *http.Request) {
	class, ok := h.guard(w, r)
	if !ok {
		return
	}

	student, err := h.service.CurrentStudent(r, class)
	if err != nil {
		writeError(w, err)
		return
	}

	worklist, err := h.service.Review.Worklist(r.Context(), *student)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, worklist)
}

// HandleProject shows the calling student the state of their own project.
func (h *ReviewHandler) HandleProject(w http.ResponseWriter, r *http.Request) {
	class, ok := h.guard(w, r)
	if !ok {
		return
	}

	student, err := h.service.CurrentStudent(r, class)
	if err != nil {
		writeError(w, err)
		return
	}

	project, err := h.service.Store.GetProject(r.Context(), student.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	if project == nil {
		writeError(w, fmt.Errorf("%w: no project for %s", models.ErrStudentNotFound, student.ID))
		return
	}

	writeJSON(w, http.StatusOK, project)
}

func (h *ReviewHandler) HandleRate(w http.ResponseWriter, r *http.Request) {
	class, ok := h.guard(w, r)
	if !ok {
		return
	}

	roundLabel := r.PathValue("round")
	round, err := strconv.Atoi(roundLabel)
	if err != nil || round < 1 {
		http.Error(w, "Invalid round", http.StatusBadRequest)
		return
	}

	result := "error"
	defer func() {
		metrics.RatingSubmissionsTotal.WithLabelValues(class, roundLabel, result).Inc()
	}()

	student, err := h.service.CurrentStudent(r, class)
	if err != nil {
		result = "rejected"
		writeError(w, err)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRatingBody))
	if err != nil {
		logger.Error.Printf("Failed to read request body: %v", err)
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	logger.Debug.Printf("Received ratings from %s: %s", student.ID, string(body))

	var payload models.GradePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		result = "rejected"
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	batch, err := h.service.Review.Submit(r.Context(), *student, round, payload)
	if err != nil {
		if statusFor(err) != http.StatusInternalServerError {
			result = "rejected"
		}
		if errors.Is(err, models.ErrDuplicateSubmission) {
			result = "duplicate"
		}
		writeError(w, err)
		return
	}

	result = "stored"
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"batch_id": batch.ID,
		"round":    batch.Round,
		"ratings":  len(batch.Ratings),
	})
}
