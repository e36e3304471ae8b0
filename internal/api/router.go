// Package api exposes the HTTP surface: player refresh, status polling,
// manual re-aggregation, and pipeline stats.
package api

import (
	"net/http"

	"github.com/rewindlabs/rewind/internal/api/handlers"
)

// Router sets up all API routes
type Router struct {
	mux     *http.ServeMux
	players *handlers.PlayerHandler
	stats   *handlers.StatsHandler
}

// NewRouter creates a new Router
func NewRouter(players *handlers.PlayerHandler, stats *handlers.StatsHandler) *Router {
	return &Router{
		mux:     http.NewServeMux(),
		players: players,
		stats:   stats,
	}
}

// Setup configures all routes
func (r *Router) Setup(token string) http.Handler {
	r.mux.HandleFunc("/api/v1/stats", r.stats.Get)

	r.mux.HandleFunc("/api/v1/players", r.handlePlayers)
	r.mux.HandleFunc("/api/v1/players/{puuid}", r.handlePlayer)
	r.mux.HandleFunc("/api/v1/players/{puuid}/aggregate", r.handleAggregate)

	return Chain(r.mux,
		Recovery,
		Logger,
		CORS,
		SecurityHeaders,
		Auth(token),
	)
}

// handlePlayers routes requests for /api/v1/players
func (r *Router) handlePlayers(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodGet:
		r.players.List(w, req)
	case http.MethodPost:
		r.players.Refresh(w, req)
	default:
		handlers.RenderError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handlePlayer routes requests for /api/v1/players/{puuid}
func (r *Router) handlePlayer(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodGet:
		r.players.GetStatus(w, req)
	default:
		handlers.RenderError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleAggregate routes requests for /api/v1/players/{puuid}/aggregate
func (r *Router) handleAggregate(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodPost:
		r.players.Reaggregate(w, req)
	default:
		handlers.RenderError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}
