package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"docubuddy/internal/contextutil"
	"docubuddy/internal/docs"
)

// Backend persists full conversation state. Save must replace the stored
// record atomically: concurrent readers never observe a partial write.
type Backend interface {
	// Save writes the complete conversation state.
	Save(ctx context.Context, conv *Conversation) error
	// Load returns a conversation by id, or ErrConversationNotFound.
	Load(ctx context.Context, id string) (*Conversation, error)
	// Delete removes a conversation. It is idempotent: deleting an
	// unknown id returns false, not an error.
	Delete(ctx context.Context, id string) (bool, error)
	// List returns all stored conversations.
	List(ctx context.Context) ([]*Conversation, error)
	// Close releases backend resources.
	Close() error
}

// Store owns all conversation state and enforces the trimming invariant.
// Mutation of a single conversation is serialized through a per-id lock;
// operations on different conversations proceed in parallel.
type Store struct {
	backend   Backend
	maxLength int

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates a conversation store. maxLength bounds the message
// list of every conversation.
func NewStore(backend Backend, maxLength int) *Store {
	return &Store{
		backend:   backend,
		maxLength: maxLength,
		locks:     make(map[string]*sync.Mutex),
	}
}

// lockFor returns the mutex serializing mutation of one conversation.
func (s *Store) lockFor(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// releaseLock drops the per-id mutex after a conversation is deleted.
func (s *Store) releaseLock(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, id)
}

// Create allocates a fresh conversation for the user and persists it
// immediately. An empty title gets a timestamped default.
func (s *Store) Create(ctx context.Context, userID, title string) (*Conversation, error) {
	now := time.Now().UTC()
	if title == "" {
		title = fmt.Sprintf("Conversation %s", now.Format("2006-01-02 15:04"))
	}

	conv := &Conversation{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  []Message{},
	}
	if err := s.backend.Save(ctx, conv); err != nil {
		return nil, fmt.Errorf("failed to persist new conversation: %w", err)
	}

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "created conversation",
		"conversation_id", conv.ID, "user_id", userID)
	return conv, nil
}

// Get returns a conversation by id.
func (s *Store) Get(ctx context.Context, id string) (*Conversation, error) {
	return s.backend.Load(ctx, id)
}

// AppendMessage validates and appends a message, applies the trimming
// invariant, refreshes updated_at and persists the full conversation
// state. Appending to a conversation deleted concurrently resolves to
// ErrConversationNotFound.
func (s *Store) AppendMessage(ctx context.Context, id string, role Role, content string, sources []docs.Source) (*Message, error) {
	if _, err := ParseRole(string(role)); err != nil {
		return nil, err
	}
	if n := utf8.RuneCountInString(content); n == 0 || n > maxContentLength {
		return nil, fmt.Errorf("%w: length %d not in [1, %d]", ErrInvalidContent, n, maxContentLength)
	}

	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	conv, err := s.backend.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	msg := Message{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
		Sources:   sources,
	}
	conv.Messages = append(conv.Messages, msg)

	// The first message anchors context: when the list exceeds the
	// maximum, keep it together with the most recent maxLength-1
	// messages and drop the interior.
	if s.maxLength > 0 && len(conv.Messages) > s.maxLength {
		recent := conv.Messages[len(conv.Messages)-(s.maxLength-1):]
		trimmed := make([]Message, 0, s.maxLength)
		trimmed = append(trimmed, conv.Messages[0])
		trimmed = append(trimmed, recent...)
		conv.Messages = trimmed
	}

	if now := time.Now().UTC(); now.After(conv.UpdatedAt) {
		conv.UpdatedAt = now
	}

	if err := s.backend.Save(ctx, conv); err != nil {
		return nil, fmt.Errorf("failed to persist conversation: %w", err)
	}
	return &msg, nil
}

// RecentMessages returns the last limit messages in chronological order,
// or fewer if the conversation is shorter.
func (s *Store) RecentMessages(ctx context.Context, id string, limit int) ([]Message, error) {
	conv, err := s.backend.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit >= len(conv.Messages) {
		return conv.Messages, nil
	}
	return conv.Messages[len(conv.Messages)-limit:], nil
}

// Delete removes a conversation and its durable representation. Deleting
// a non-existent id returns false.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	deleted, err := s.backend.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if deleted {
		s.releaseLock(id)
		contextutil.LoggerFromContext(ctx).InfoContext(ctx, "deleted conversation", "conversation_id", id)
	}
	return deleted, nil
}

// EvictExpired deletes every conversation whose updated_at is older than
// now-ttl. It runs as a periodic maintenance sweep, concurrently with
// request traffic. Returns the number of conversations evicted.
func (s *Store) EvictExpired(ctx context.Context, ttl time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-ttl)

	all, err := s.backend.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list conversations: %w", err)
	}

	evicted := 0
	for _, conv := range all {
		if !conv.UpdatedAt.Before(cutoff) {
			continue
		}
		deleted, err := s.Delete(ctx, conv.ID)
		if err != nil {
			return evicted, err
		}
		if deleted {
			evicted++
		}
	}

	if evicted > 0 {
		contextutil.LoggerFromContext(ctx).InfoContext(ctx, "evicted expired conversations",
			"count", evicted, "ttl", ttl.String())
	}
	return evicted, nil
}

// Latest returns the most recently updated conversation for a user, or
// nil when the user has none.
func (s *Store) Latest(ctx context.Context, userID string) (*Conversation, error) {
	all, err := s.backend.List(ctx)
	if err != nil {
		return nil, err
	}

	var latest *Conversation
	for _, conv := range all {
		if conv.UserID != userID {
			continue
		}
		if latest == nil || conv.UpdatedAt.After(latest.UpdatedAt) {
			latest = conv
		}
	}
	return latest, nil
}

// List returns summaries of a user's conversations, most recently
// updated first.
func (s *Store) List(ctx context.Context, userID string) ([]Summary, error) {
	all, err := s.backend.List(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]Summary, 0, len(all))
	for _, conv := range all {
		if conv.UserID != userID {
			continue
		}
		sum := Summary{
			ID:           conv.ID,
			UserID:       conv.UserID,
			Title:        conv.Title,
			MessageCount: len(conv.Messages),
			CreatedAt:    conv.CreatedAt,
			UpdatedAt:    conv.UpdatedAt,
		}
		if n := len(conv.Messages); n > 0 {
			sum.LastMessage = conv.Messages[n-1].Content
		}
		summaries = append(summaries, sum)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})
	return summaries, nil
}

// Counts returns the total number of conversations and messages.
func (s *Store) Counts(ctx context.Context) (conversations, messages int, err error) {
	all, err := s.backend.List(ctx)
	if err != nil {
		return 0, 0, err
	}
	for _, conv := range all {
		conversations++
		messages += len(conv.Messages)
	}
	return conversations, messages, nil
}

// Close releases the underlying backend.
func (s *Store) Close() error {
	return s.backend.Close()
}
