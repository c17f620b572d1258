package handlers

import (
	"encoding/json"
	"net/http"

	"docubuddy/internal/contextutil"
	"docubuddy/internal/docs"
	"docubuddy/internal/service"
)

// ChatHandler handles chat turns.
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// ChatRequest is the HTTP request payload for a chat turn.
type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// ChatResponse is the HTTP response payload for a chat turn.
type ChatResponse struct {
	Response       string        `json:"response"`
	ConversationID string        `json:"conversation_id"`
	Sources        []docs.Source `json:"sources"`
}

// ServeHTTP handles POST /api/chat.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.chatService.Answer(ctx, service.AnswerRequest{
		Message:        req.Message,
		ConversationID: req.ConversationID,
		UserID:         defaultUserID,
	})
	if err != nil {
		writeServiceError(w, r, err, "Failed to process chat request")
		return
	}

	sources := resp.Sources
	if sources == nil {
		sources = []docs.Source{}
	}
	writeJSON(w, http.StatusOK, ChatResponse{
		Response:       resp.Response,
		ConversationID: resp.ConversationID,
		Sources:        sources,
	})
}
