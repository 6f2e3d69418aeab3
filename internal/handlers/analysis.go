package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/peerbulle/internal/export"
	"github.com/shrimpsizemoose/peerbulle/internal/models"
)

// analysisRequest reads the optional round and group query parameters.
// A missing round uses the configured default, 0 means every round.
func (h *ReviewHandler) analysisRequest(r *http.Request, class string) (models.AnalysisRequest, error) {
	req := models.AnalysisRequest{
		ClassID: class,
		Round:   h.service.Config.Analysis.DefaultRound,
	}

	query := r.URL.Query()
	if v := query.Get("round"); v != "" {
		round, err := strconv.Atoi(v)
		if err != nil || round < 0 {
			return req, fmt.Errorf("%w: invalid round %q", models.ErrValidation, v)
		}
		req.Round = round
	}
	if v := query.Get("group"); v != "" {
		group, err := strconv.Atoi(v)
		if err != nil || group < 0 {
			return req, fmt.Errorf("%w: invalid group %q", models.ErrValidation, v)
		}
		req.ReviewerGroup = &group
	}
	return req, nil
}

// authorize resolves the caller before any analysis of class is served.
func (h *ReviewHandler) authorize(w http.ResponseWriter, r *http.Request) (*models.Student, string, bool) {
	class, ok := h.guard(w, r)
	if !ok {
		return nil, "", false
	}

	student, err := h.service.CurrentStudent(r, class)
	if err != nil {
		writeError(w, err)
		return nil, "", false
	}
	return student, class, true
}

func (h *ReviewHandler) analyze(w http.ResponseWriter, r *http.Request) ([]models.AnalysisRow, string, bool) {
	_, class, ok := h.authorize(w, r)
	if !ok {
		return nil, "", false
	}

	req, err := h.analysisRequest(r, class)
	if err != nil {
		writeError(w, err)
		return nil, "", false
	}

	rows, err := h.service.Analyze(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return nil, "", false
	}
	return rows, class, true
}

func (h *ReviewHandler) HandleAnalysis(w http.ResponseWriter, r *http.Request) {
	rows, _, ok := h.analyze(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := export.WriteJSON(w, rows); err != nil {
		logger.Error.Printf("Failed to encode analysis: %v", err)
	}
}

func (h *ReviewHandler) HandleAnalysisCSV(w http.ResponseWriter, r *http.Request) {
	rows, class, ok := h.analyze(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, rows); err != nil {
		logger.Error.Printf("Failed to write analysis csv: %v", err)
		http.Error(w, "Failed to write csv", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", class+"_analysis.csv"))
	w.Write(buf.Bytes())
}

func (h *ReviewHandler) HandleAnalysisXLSX(w http.ResponseWriter, r *http.Request) {
	rows, class, ok := h.analyze(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, class, rows); err != nil {
		logger.Error.Printf("Failed to write analysis workbook: %v", err)
		http.Error(w, "Failed to write workbook", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", class+"_analysis.xlsx"))
	w.Write(buf.Bytes())
}

// HandleAnalysisPairs serves the pairwise table of one reviewer group,
// defaulting to the caller's own group.
func (h *ReviewHandler) HandleAnalysisPairs(w http.ResponseWriter, r *http.Request) {
	student, class, ok := h.authorize(w, r)
	if !ok {
		return
	}

	req, err := h.analysisRequest(r, class)
	if err != nil {
		writeError(w, err)
		return
	}
	if req.ReviewerGroup == nil {
		req.ReviewerGroup = &student.Group
	}

	table, err := h.service.Compare(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, table)
}
