package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"docubuddy/internal/contextutil"
)

// FileBackend persists one JSON file per conversation under a directory.
// Writes go through a temp file and rename so readers never observe a
// partial conversation.
type FileBackend struct {
	dir string
}

// NewFileBackend creates the storage directory if needed.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create memory directory: %w", err)
	}
	return &FileBackend{dir: dir}, nil
}

// pathFor maps a conversation id to its file. Ids containing path
// separators never resolve.
func (b *FileBackend) pathFor(id string) (string, bool) {
	if id == "" || strings.ContainsAny(id, `/\`) || id != filepath.Base(id) {
		return "", false
	}
	return filepath.Join(b.dir, id+".json"), true
}

// Save writes the complete conversation state.
func (b *FileBackend) Save(ctx context.Context, conv *Conversation) error {
	path, ok := b.pathFor(conv.ID)
	if !ok {
		return fmt.Errorf("invalid conversation id: %q", conv.ID)
	}

	data, err := json.MarshalIndent(conv, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode conversation: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write conversation: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to commit conversation: %w", err)
	}
	return nil
}

// Load returns a conversation by id.
func (b *FileBackend) Load(ctx context.Context, id string) (*Conversation, error) {
	path, ok := b.pathFor(id)
	if !ok {
		return nil, ErrConversationNotFound
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read conversation %s: %w", id, err)
	}

	var conv Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("failed to decode conversation %s: %w", id, err)
	}
	return &conv, nil
}

// Delete removes a conversation file. Unknown ids return false.
func (b *FileBackend) Delete(ctx context.Context, id string) (bool, error) {
	path, ok := b.pathFor(id)
	if !ok {
		return false, nil
	}
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to delete conversation %s: %w", id, err)
	}
	return true, nil
}

// List returns all stored conversations. Files that fail to decode are
// skipped with a warning rather than failing the whole listing.
func (b *FileBackend) List(ctx context.Context) ([]*Conversation, error) {
	logger := contextutil.LoggerFromContext(ctx)

	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read memory directory: %w", err)
	}

	var conversations []*Conversation
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".json")
		conv, err := b.Load(ctx, id)
		if err != nil {
			logger.WarnContext(ctx, "skipping unreadable conversation file",
				"file", entry.Name(), "error", err)
			continue
		}
		conversations = append(conversations, conv)
	}
	return conversations, nil
}

// Close is a no-op for the file backend.
func (b *FileBackend) Close() error { return nil }
