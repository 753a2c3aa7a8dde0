package http

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"timed-quiz-service/internal/app"
)

// RESTHandler serves the read-only endpoints used by lobby screens.
type RESTHandler struct {
	service *app.GameService
	log     zerolog.Logger
}

func NewRESTHandler(service *app.GameService, log zerolog.Logger) *RESTHandler {
	return &RESTHandler{
		service: service,
		log:     log.With().Str("component", "rest_handler").Logger(),
	}
}

// Register mounts the endpoints on mux.
func (h *RESTHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", h.Health)
	mux.HandleFunc("/leaderboard", h.Leaderboard)
	mux.HandleFunc("/config", h.Config)
}

func (h *RESTHandler) Health(w http.ResponseWriter, _ *http.Request) {
	w.Write([]byte("ok"))
}

func (h *RESTHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	entries, err := h.service.Leaderboard(r.Context())
	if err != nil {
		h.log.Warn().Err(err).Msg("leaderboard fetch failed")
		writeJSON(w, http.StatusServiceUnavailable, errorPayload{Message: "Could not load scores."})
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *RESTHandler) Config(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.service.Settings())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
