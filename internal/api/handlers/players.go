package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rewindlabs/rewind/internal/domain"
	"github.com/rewindlabs/rewind/internal/service"
)

// PlayerHandler handles player endpoints
type PlayerHandler struct {
	service *service.PlayerService
}

// NewPlayerHandler creates a new PlayerHandler
func NewPlayerHandler(svc *service.PlayerService) *PlayerHandler {
	return &PlayerHandler{service: svc}
}

// Refresh handles POST /api/v1/players
func (h *PlayerHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req domain.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RenderError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	player, err := h.service.Refresh(r.Context(), &req)
	if err != nil {
		if errors.Is(err, domain.ErrMissingRiotID) {
			RenderError(w, http.StatusBadRequest, err.Error())
			return
		}
		RenderError(w, http.StatusBadGateway, "Failed to dispatch player refresh")
		return
	}

	RenderJSON(w, http.StatusAccepted, player)
}

// GetStatus handles GET /api/v1/players/{puuid}.
// While processing is in flight the response is 202 so pollers can tell
// "not done yet" from "done" without parsing the body.
func (h *PlayerHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	puuid := r.PathValue("puuid")
	if puuid == "" {
		RenderError(w, http.StatusBadRequest, "Missing puuid")
		return
	}

	status, err := h.service.Status(r.Context(), puuid)
	if err != nil {
		if errors.Is(err, domain.ErrPlayerNotFound) {
			RenderError(w, http.StatusNotFound, "Player not found")
			return
		}
		RenderError(w, http.StatusInternalServerError, "Failed to load player status")
		return
	}

	code := http.StatusOK
	if !status.Ready() {
		code = http.StatusAccepted
	}

	RenderJSON(w, code, status)
}

// Reaggregate handles POST /api/v1/players/{puuid}/aggregate
func (h *PlayerHandler) Reaggregate(w http.ResponseWriter, r *http.Request) {
	puuid := r.PathValue("puuid")
	if puuid == "" {
		RenderError(w, http.StatusBadRequest, "Missing puuid")
		return
	}

	if err := h.service.Reaggregate(r.Context(), puuid); err != nil {
		if errors.Is(err, domain.ErrPlayerNotFound) {
			RenderError(w, http.StatusNotFound, "Player not found")
			return
		}
		RenderError(w, http.StatusInternalServerError, "Failed to re-aggregate player")
		return
	}

	RenderJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// List handles GET /api/v1/players
func (h *PlayerHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if perPage < 1 || perPage > 100 {
		perPage = 50
	}

	params := domain.PlayerListParams{
		Limit:  perPage,
		Offset: (page - 1) * perPage,
	}
	if s := r.URL.Query().Get("status"); s != "" {
		status := domain.PlayerStatus(s)
		params.Status = &status
	}

	players, total, err := h.service.List(r.Context(), params)
	if err != nil {
		RenderError(w, http.StatusInternalServerError, "Failed to list players")
		return
	}

	if players == nil {
		players = []*domain.Player{}
	}

	RenderJSON(w, http.StatusOK, NewPaginatedResponse(players, total, page, perPage))
}
