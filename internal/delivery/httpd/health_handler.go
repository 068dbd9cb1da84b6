package httpd

import (
	"net/http"

	"github.com/veridoc/doc-audit/forensic-service/pkg/utils"
)

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string]string{
		"status":        "ok",
		"service":       "forensic-service",
		"queue_backend": h.queueMode,
	})
}
