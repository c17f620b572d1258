package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"docubuddy/internal/handlers"
	"docubuddy/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	ChatService service.ChatService
}

// NewRouter creates the HTTP router.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)
	r.Use(RequestLogger)

	chatHandler := handlers.NewChatHandler(deps.ChatService)
	historyHandler := handlers.NewHistoryHandler(deps.ChatService)
	conversationsHandler := handlers.NewConversationsHandler(deps.ChatService)
	statsHandler := handlers.NewStatsHandler(deps.ChatService)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodPost, "/chat", chatHandler)
		r.Get("/history/{conversation_id}", historyHandler.Get)
		r.Delete("/history/{conversation_id}", historyHandler.Delete)
		r.Get("/conversations", conversationsHandler.List)
		r.Get("/user-conversations", conversationsHandler.List)
		r.Get("/latest-conversation", conversationsHandler.Latest)
		r.Get("/current-user", handlers.CurrentUser)
		r.Method(http.MethodGet, "/stats", statsHandler)
	})

	r.Get("/", handlers.Root)
	r.Get("/health", handlers.Health)

	return r
}
