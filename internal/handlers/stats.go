package handlers

import (
	"net/http"

	"docubuddy/internal/service"
)

// StatsHandler reports retrieval index and conversation store counters.
type StatsHandler struct {
	chatService service.ChatService
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(chatService service.ChatService) *StatsHandler {
	return &StatsHandler{chatService: chatService}
}

// ServeHTTP handles GET /api/stats.
func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	stats, err := h.chatService.Stats(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "Failed to collect stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
