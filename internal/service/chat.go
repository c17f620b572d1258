package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_retriever.go -package=mocks docubuddy/internal/service Retriever
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_generator.go -package=mocks docubuddy/internal/service Generator
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chat_service.go -package=mocks -mock_names=ChatService=MockChatService docubuddy/internal/service ChatService

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"docubuddy/internal/contextutil"
	"docubuddy/internal/docs"
	"docubuddy/internal/llm"
	"docubuddy/internal/memory"
	"docubuddy/internal/retrieval"
	"docubuddy/internal/vectorstore"
)

const systemPrompt = `You are a helpful and knowledgeable documentation assistant. Your goal is to help users find information in the available documentation.

Based on the provided context, answer the user's questions clearly and precisely. If the information is not in the context, kindly say that you don't have that specific information.

Guidelines:
- Be clear and concise in your answers
- Use Markdown formatting to structure information
- Include code examples when relevant
- Always mention the sources of information used
- If you can't find relevant information, suggest related topics that might help`

// fallbackResponse substitutes for the generated answer when the
// generation collaborator fails; the turn is still persisted.
const fallbackResponse = "I'm sorry, something went wrong while generating a response. Please try again."

// Retriever produces ranked evidence for a query. Defined from the
// consumer's perspective; implemented by retrieval.Retriever.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]retrieval.EvidenceHit, error)
}

// Generator is the opaque generation collaborator: prompt in, text out.
// Implemented by llm.Client.
type Generator interface {
	Complete(ctx context.Context, messages []llm.Message, params llm.CompletionParams) (string, error)
}

// AnswerRequest is one incoming chat turn.
type AnswerRequest struct {
	Message        string
	ConversationID string // Optional; empty resumes the user's latest conversation
	UserID         string
}

// AnswerResponse is the completed turn.
type AnswerResponse struct {
	Response       string
	ConversationID string
	Sources        []docs.Source
}

// Stats aggregates retrieval index and conversation store counters.
type Stats struct {
	IndexPoints    int    `json:"index_points"`
	IndexAvailable bool   `json:"index_available"`
	Collection     string `json:"collection"`
	Conversations  int    `json:"conversations"`
	Messages       int    `json:"messages"`
}

// ChatService composes retrieval evidence and conversation history into
// generated answers, and exposes conversation management.
type ChatService interface {
	Answer(ctx context.Context, req AnswerRequest) (AnswerResponse, error)
	History(ctx context.Context, conversationID string) (*memory.Conversation, error)
	Latest(ctx context.Context, userID string) (*memory.Conversation, error)
	DeleteConversation(ctx context.Context, conversationID string) (bool, error)
	ListConversations(ctx context.Context, userID string) ([]memory.Summary, error)
	Stats(ctx context.Context) (Stats, error)
}

// Options tunes the chat orchestrator.
type Options struct {
	HistoryLimit int     // Messages of history sent to the generator
	Temperature  float32 // Generation temperature
}

type chatService struct {
	retriever    Retriever
	generator    Generator
	store        *memory.Store
	index        vectorstore.VectorStore
	collection   string
	historyLimit int
	temperature  float32
}

// NewChatService creates the chat orchestrator.
func NewChatService(retriever Retriever, generator Generator, store *memory.Store, index vectorstore.VectorStore, collection string, opts Options) ChatService {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 5
	}
	return &chatService{
		retriever:    retriever,
		generator:    generator,
		store:        store,
		index:        index,
		collection:   collection,
		historyLimit: opts.HistoryLimit,
		temperature:  opts.Temperature,
	}
}

// Answer processes one chat turn: resolve the conversation, retrieve
// evidence, generate a grounded answer, persist the exchange.
//
// Persistence runs on a context detached from request cancellation: a
// request abandoned mid-generation still records the user message and a
// fallback assistant message, never a half-written turn.
func (s *chatService) Answer(ctx context.Context, req AnswerRequest) (AnswerResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if strings.TrimSpace(req.Message) == "" {
		return AnswerResponse{}, &ValidationError{Field: "message", Message: "cannot be empty"}
	}
	if req.UserID == "" {
		return AnswerResponse{}, &ValidationError{Field: "user_id", Message: "cannot be empty"}
	}

	conv, err := s.resolveConversation(ctx, req)
	if err != nil {
		return AnswerResponse{}, err
	}

	// Retrieval failure degrades to empty evidence: a chat turn never
	// fails because the index is unreachable. The log line separates an
	// outage from a legitimately empty result set.
	evidence, err := s.retriever.Retrieve(ctx, req.Message, 0)
	if err != nil {
		if errors.Is(err, retrieval.ErrUnavailable) {
			logger.ErrorContext(ctx, "retrieval unavailable, answering without evidence", "error", err)
		} else {
			logger.ErrorContext(ctx, "retrieval failed, answering without evidence", "error", err)
		}
		evidence = nil
	} else if len(evidence) == 0 {
		logger.InfoContext(ctx, "no evidence found for query")
	}

	sources := dedupSources(evidence)

	history, err := s.store.RecentMessages(ctx, conv.ID, s.historyLimit)
	if err != nil {
		return AnswerResponse{}, WrapError(err, "failed to load history")
	}

	messages := buildPrompt(req.Message, evidence, history)

	response, genErr := s.generator.Complete(ctx, messages, llm.CompletionParams{
		Temperature: s.temperature,
	})
	if genErr != nil {
		logger.ErrorContext(ctx, "generation failed, using fallback response", "error", genErr)
		response = fallbackResponse
	}

	persistCtx := contextutil.WithLogger(context.WithoutCancel(ctx), logger)
	if _, err := s.store.AppendMessage(persistCtx, conv.ID, memory.RoleUser, req.Message, nil); err != nil {
		return AnswerResponse{}, WrapError(err, "failed to persist user message")
	}
	if _, err := s.store.AppendMessage(persistCtx, conv.ID, memory.RoleAssistant, response, sources); err != nil {
		return AnswerResponse{}, WrapError(err, "failed to persist assistant message")
	}

	logger.InfoContext(ctx, "chat turn completed",
		"conversation_id", conv.ID,
		"evidence_hits", len(evidence),
		"sources", len(sources),
		"fallback", genErr != nil,
	)

	return AnswerResponse{
		Response:       response,
		ConversationID: conv.ID,
		Sources:        sources,
	}, nil
}

// resolveConversation uses the supplied id, else the user's latest
// conversation, else creates a new one. A supplied id that does not
// resolve is surfaced as ErrConversationNotFound rather than silently
// spawning a new thread.
func (s *chatService) resolveConversation(ctx context.Context, req AnswerRequest) (*memory.Conversation, error) {
	if req.ConversationID != "" {
		return s.store.Get(ctx, req.ConversationID)
	}

	conv, err := s.store.Latest(ctx, req.UserID)
	if err != nil {
		return nil, WrapError(err, "failed to resolve latest conversation")
	}
	if conv != nil {
		return conv, nil
	}
	return s.store.Create(ctx, req.UserID, "")
}

// dedupSources collapses evidence to unique citations by (title, url),
// first occurrence wins. Duplicates are dropped, not merged.
func dedupSources(evidence []retrieval.EvidenceHit) []docs.Source {
	type key struct{ title, url string }
	seen := make(map[key]bool, len(evidence))

	sources := make([]docs.Source, 0, len(evidence))
	for _, hit := range evidence {
		k := key{hit.Source.Title, hit.Source.URL}
		if seen[k] {
			continue
		}
		seen[k] = true
		sources = append(sources, hit.Source)
	}
	return sources
}

// buildPrompt assembles the generation request: system instructions with
// evidence context, trimmed history, then the new question.
func buildPrompt(question string, evidence []retrieval.EvidenceHit, history []memory.Message) []llm.Message {
	system := systemPrompt
	if len(evidence) > 0 {
		var b strings.Builder
		for i, hit := range evidence {
			fmt.Fprintf(&b, "Document %d: %s\nSource: %s\nContent: %s\n---\n", i+1, hit.Title, hit.RelPath, hit.Content)
		}
		system += "\n\nDocumentation context:\n" + b.String()
	} else {
		system += "\n\nNo relevant documentation was found for this query."
	}

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: "system", Content: system})
	for _, msg := range history {
		messages = append(messages, llm.Message{Role: string(msg.Role), Content: msg.Content})
	}
	messages = append(messages, llm.Message{Role: "user", Content: question})
	return messages
}

// History returns the full transcript of a conversation.
func (s *chatService) History(ctx context.Context, conversationID string) (*memory.Conversation, error) {
	return s.store.Get(ctx, conversationID)
}

// Latest returns the user's most recently updated conversation, or nil.
func (s *chatService) Latest(ctx context.Context, userID string) (*memory.Conversation, error) {
	return s.store.Latest(ctx, userID)
}

// DeleteConversation removes a conversation. Idempotent.
func (s *chatService) DeleteConversation(ctx context.Context, conversationID string) (bool, error) {
	return s.store.Delete(ctx, conversationID)
}

// ListConversations returns the user's conversation summaries.
func (s *chatService) ListConversations(ctx context.Context, userID string) ([]memory.Summary, error) {
	return s.store.List(ctx, userID)
}

// Stats reports retrieval index size and conversation/message counts.
// An unreachable index is reported as unavailable, not an error.
func (s *chatService) Stats(ctx context.Context) (Stats, error) {
	logger := contextutil.LoggerFromContext(ctx)

	stats := Stats{Collection: s.collection}

	count, err := s.index.Count(ctx, s.collection)
	if err != nil {
		logger.WarnContext(ctx, "failed to count index points", "error", err)
	} else {
		stats.IndexPoints = count
		stats.IndexAvailable = true
	}

	conversations, messages, err := s.store.Counts(ctx)
	if err != nil {
		return Stats{}, WrapError(err, "failed to count conversations")
	}
	stats.Conversations = conversations
	stats.Messages = messages
	return stats, nil
}
