package httpd

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/veridoc/doc-audit/forensic-service/internal/models"
	"github.com/veridoc/doc-audit/forensic-service/pkg/utils"
)

type createAnalysisRequest struct {
	SourceLocator string `json:"source_locator"`
	ContentType   string `json:"content_type"`
}

// CreateAnalysis registers a new document analysis and enqueues the
// job. The caller polls GET /analyses/{id} for the outcome.
func (h *Handler) CreateAnalysis(w http.ResponseWriter, r *http.Request) {
	var req createAnalysisRequest
	if err := utils.ReadJSON(r, &req); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.SourceLocator) == "" {
		utils.ErrorResponse(w, http.StatusBadRequest, "source_locator is required")
		return
	}
	if strings.TrimSpace(req.ContentType) == "" {
		utils.ErrorResponse(w, http.StatusBadRequest, "content_type is required")
		return
	}

	analysis, err := h.analysisService.Submit(r.Context(), req.SourceLocator, req.ContentType)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to submit analysis")
		utils.ErrorResponse(w, http.StatusInternalServerError, "failed to submit analysis")
		return
	}

	utils.SuccessResponse(w, http.StatusAccepted, analysis)
}

func (h *Handler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !utils.ValidateUUID(id) {
		utils.ErrorResponse(w, http.StatusBadRequest, "invalid analysis id")
		return
	}

	analysis, err := h.analysisService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			utils.ErrorResponse(w, http.StatusNotFound, "analysis not found")
			return
		}
		h.logger.Error().Err(err).Str("analysis_id", id).Msg("Failed to fetch analysis")
		utils.ErrorResponse(w, http.StatusInternalServerError, "failed to fetch analysis")
		return
	}

	utils.SuccessResponse(w, http.StatusOK, analysis)
}
