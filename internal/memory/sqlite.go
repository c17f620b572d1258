package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// OpenSQLite opens a SQLite database at the given path with connection
// pool settings suitable for the request-driven workload.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// MigrateSQLite creates the conversations table. Idempotent.
func MigrateSQLite(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		messages TEXT NOT NULL
	);`)
	if err != nil {
		return fmt.Errorf("failed to create conversations table: %w", err)
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_conversations_user_updated
		ON conversations (user_id, updated_at);`)
	if err != nil {
		return fmt.Errorf("failed to create conversations index: %w", err)
	}
	return nil
}

// SQLiteBackend stores each conversation as one row with its message
// list embedded as JSON. A single upsert statement keeps the full-state
// write atomic.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend wraps an open, migrated database.
func NewSQLiteBackend(db *sql.DB) *SQLiteBackend {
	return &SQLiteBackend{db: db}
}

// Save writes the complete conversation state.
func (b *SQLiteBackend) Save(ctx context.Context, conv *Conversation) error {
	messages, err := json.Marshal(conv.Messages)
	if err != nil {
		return fmt.Errorf("failed to encode messages: %w", err)
	}

	_, err = b.db.ExecContext(ctx,
		`INSERT INTO conversations (id, user_id, title, created_at, updated_at, messages)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		 title = excluded.title, updated_at = excluded.updated_at, messages = excluded.messages`,
		conv.ID, conv.UserID, conv.Title,
		conv.CreatedAt.UTC().Format(time.RFC3339Nano),
		conv.UpdatedAt.UTC().Format(time.RFC3339Nano),
		string(messages),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert conversation: %w", err)
	}
	return nil
}

// Load returns a conversation by id.
func (b *SQLiteBackend) Load(ctx context.Context, id string) (*Conversation, error) {
	row := b.db.QueryRowContext(ctx,
		"SELECT id, user_id, title, created_at, updated_at, messages FROM conversations WHERE id = ?",
		id,
	)
	conv, err := scanConversation(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation: %w", err)
	}
	return conv, nil
}

// Delete removes a conversation row. Unknown ids return false.
func (b *SQLiteBackend) Delete(ctx context.Context, id string) (bool, error) {
	res, err := b.db.ExecContext(ctx, "DELETE FROM conversations WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete conversation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected > 0, nil
}

// List returns all stored conversations.
func (b *SQLiteBackend) List(ctx context.Context) ([]*Conversation, error) {
	rows, err := b.db.QueryContext(ctx,
		"SELECT id, user_id, title, created_at, updated_at, messages FROM conversations ORDER BY updated_at DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var conversations []*Conversation
	for rows.Next() {
		conv, err := scanConversation(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		conversations = append(conversations, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return conversations, nil
}

// Close closes the underlying database.
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

// scanConversation decodes one conversation row.
func scanConversation(scan func(dest ...any) error) (*Conversation, error) {
	var conv Conversation
	var createdAt, updatedAt, messages string

	if err := scan(&conv.ID, &conv.UserID, &conv.Title, &createdAt, &updatedAt, &messages); err != nil {
		return nil, err
	}

	var err error
	conv.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	conv.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	if err := json.Unmarshal([]byte(messages), &conv.Messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	return &conv, nil
}
