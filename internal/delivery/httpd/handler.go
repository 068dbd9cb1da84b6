package httpd

import (
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/veridoc/doc-audit/forensic-service/internal/service"
)

type Handler struct {
	analysisService service.AnalysisService
	queueMode       string
	logger          zerolog.Logger
}

func NewHandler(analysisService service.AnalysisService, queueMode string, logger zerolog.Logger) *Handler {
	return &Handler{
		analysisService: analysisService,
		queueMode:       queueMode,
		logger:          logger,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/analyses", h.CreateAnalysis)
		r.Get("/analyses/{id}", h.GetAnalysis)
	})
}
