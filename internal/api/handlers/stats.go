package handlers

import (
	"net/http"

	"github.com/rewindlabs/rewind/internal/service"
)

// StatsHandler handles pipeline-wide statistics
type StatsHandler struct {
	service *service.PlayerService
}

// NewStatsHandler creates a new StatsHandler
func NewStatsHandler(svc *service.PlayerService) *StatsHandler {
	return &StatsHandler{service: svc}
}

// Get handles GET /api/v1/stats
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		RenderError(w, http.StatusInternalServerError, "Failed to load stats")
		return
	}

	RenderJSON(w, http.StatusOK, stats)
}
