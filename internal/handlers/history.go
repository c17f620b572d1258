package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"docubuddy/internal/service"
)

// HistoryHandler serves and deletes conversation transcripts.
type HistoryHandler struct {
	chatService service.ChatService
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(chatService service.ChatService) *HistoryHandler {
	return &HistoryHandler{chatService: chatService}
}

// Get handles GET /api/history/{conversation_id}.
func (h *HistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversation_id")

	conv, err := h.chatService.History(r.Context(), conversationID)
	if err != nil {
		writeServiceError(w, r, err, "Failed to load conversation")
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

// Delete handles DELETE /api/history/{conversation_id}.
func (h *HistoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversation_id")

	deleted, err := h.chatService.DeleteConversation(r.Context(), conversationID)
	if err != nil {
		writeServiceError(w, r, err, "Failed to delete conversation")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "Conversation not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Conversation deleted"})
}
