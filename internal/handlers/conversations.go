package handlers

import (
	"net/http"

	"docubuddy/internal/memory"
	"docubuddy/internal/service"
)

// ConversationsHandler lists conversations and resolves the implicit
// session.
type ConversationsHandler struct {
	chatService service.ChatService
}

// NewConversationsHandler creates a new ConversationsHandler.
func NewConversationsHandler(chatService service.ChatService) *ConversationsHandler {
	return &ConversationsHandler{chatService: chatService}
}

// ConversationsResponse is the listing envelope.
type ConversationsResponse struct {
	Conversations []memory.Summary `json:"conversations"`
	Total         int              `json:"total"`
}

// List handles GET /api/conversations.
func (h *ConversationsHandler) List(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.chatService.ListConversations(r.Context(), defaultUserID)
	if err != nil {
		writeServiceError(w, r, err, "Failed to list conversations")
		return
	}
	if summaries == nil {
		summaries = []memory.Summary{}
	}
	writeJSON(w, http.StatusOK, ConversationsResponse{
		Conversations: summaries,
		Total:         len(summaries),
	})
}

// Latest handles GET /api/latest-conversation: the conversation a caller
// without a stored id resumes.
func (h *ConversationsHandler) Latest(w http.ResponseWriter, r *http.Request) {
	conv, err := h.chatService.Latest(r.Context(), defaultUserID)
	if err != nil {
		writeServiceError(w, r, err, "Failed to resolve latest conversation")
		return
	}
	if conv == nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"conversation_id": nil,
			"messages":        []memory.Message{},
		})
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

// CurrentUser handles GET /api/current-user. A real deployment would
// derive this from the request's credentials.
func CurrentUser(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":          defaultUserID,
		"name":             "Demo User",
		"is_authenticated": true,
	})
}
