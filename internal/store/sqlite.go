// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides conversation/message persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// timeLayout is RFC3339 with fixed nine-digit fractional seconds. The fixed
// width keeps lexicographic order equal to chronological order for UTC
// values, which the MAX() touch and the created_at ordering depend on.
// time.RFC3339Nano would trim trailing zeros and break that equivalence.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	// journal_mode and foreign_keys are per-connection pragmas and
	// database/sql pools connections, so both must travel in the DSN to
	// reach every pooled connection. foreign_keys drives the message
	// cascade on conversation delete; a connection without it would leave
	// orphaned message rows.
	dsn := "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS conversations (
			id               TEXT PRIMARY KEY,
			owner_id         TEXT NOT NULL,
			title            TEXT NOT NULL,
			pinned           INTEGER NOT NULL DEFAULT 0,
			created_at       TEXT NOT NULL,
			last_activity_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_conversations_owner_activity
			ON conversations(owner_id, last_activity_at DESC);

		CREATE TABLE IF NOT EXISTS messages (
			id              TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
			role            TEXT NOT NULL,
			content         TEXT NOT NULL,
			created_at      TEXT NOT NULL,

			CHECK (role IN ('user', 'agent'))
		);

		CREATE INDEX IF NOT EXISTS idx_messages_conversation_created
			ON messages(conversation_id, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Ping verifies the database connection is alive.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateConversation inserts a new conversation record.
func (s *SQLiteStore) CreateConversation(ctx context.Context, convo *Conversation) error {
	query := `
		INSERT INTO conversations (id, owner_id, title, pinned, created_at, last_activity_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		convo.ID,
		convo.OwnerID,
		convo.Title,
		boolToInt(convo.Pinned),
		convo.CreatedAt.UTC().Format(timeLayout),
		convo.LastActivityAt.UTC().Format(timeLayout),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateConversation
		}
		return fmt.Errorf("inserting conversation: %w", err)
	}

	s.logger.Debug("created conversation", "id", convo.ID, "owner_id", convo.OwnerID)
	return nil
}

// GetConversation retrieves a conversation by id.
func (s *SQLiteStore) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	query := `
		SELECT id, owner_id, title, pinned, created_at, last_activity_at
		FROM conversations
		WHERE id = ?
	`

	return s.scanConversation(s.db.QueryRowContext(ctx, query, id))
}

// TouchConversation advances the last-activity timestamp. MAX on the stored
// text keeps the timestamp monotonic: the fixed-width layout sorts
// lexicographically in chronological order for UTC values.
func (s *SQLiteStore) TouchConversation(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE conversations
		SET last_activity_at = MAX(last_activity_at, ?)
		WHERE id = ?
	`

	res, err := s.db.ExecContext(ctx, query, at.UTC().Format(timeLayout), id)
	if err != nil {
		return fmt.Errorf("touching conversation: %w", err)
	}

	return requireRowAffected(res)
}

// ListConversationsByOwner returns the owner's conversations, most recently
// active first.
func (s *SQLiteStore) ListConversationsByOwner(ctx context.Context, ownerID string, limit int) ([]*Conversation, error) {
	query := `
		SELECT id, owner_id, title, pinned, created_at, last_activity_at
		FROM conversations
		WHERE owner_id = ?
		ORDER BY last_activity_at DESC, id
	`
	args := []any{ownerID}

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying conversations: %w", err)
	}
	defer rows.Close()

	var conversations []*Conversation
	for rows.Next() {
		convo, err := s.scanConversationRow(rows)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, convo)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating conversation rows: %w", err)
	}

	return conversations, nil
}

// UpdateConversationTitle sets a conversation's title.
func (s *SQLiteStore) UpdateConversationTitle(ctx context.Context, id, title string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE conversations SET title = ? WHERE id = ?`, title, id)
	if err != nil {
		return fmt.Errorf("updating conversation title: %w", err)
	}

	return requireRowAffected(res)
}

// UpdateConversationPinned sets a conversation's pinned flag.
func (s *SQLiteStore) UpdateConversationPinned(ctx context.Context, id string, pinned bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE conversations SET pinned = ? WHERE id = ?`, boolToInt(pinned), id)
	if err != nil {
		return fmt.Errorf("updating conversation pinned: %w", err)
	}

	return requireRowAffected(res)
}

// DeleteConversation removes a conversation; its messages go with it via the
// foreign-key cascade.
func (s *SQLiteStore) DeleteConversation(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting conversation: %w", err)
	}

	if err := requireRowAffected(res); err != nil {
		return err
	}

	s.logger.Debug("deleted conversation", "id", id)
	return nil
}

// AppendMessage inserts a new message row.
func (s *SQLiteStore) AppendMessage(ctx context.Context, msg *Message) error {
	query := `
		INSERT INTO messages (id, conversation_id, role, content, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		msg.ID,
		msg.ConversationID,
		msg.Role,
		msg.Content,
		msg.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}

	s.logger.Debug("appended message", "id", msg.ID, "conversation_id", msg.ConversationID, "role", msg.Role)
	return nil
}

// ListMessages returns a conversation's messages in creation order.
// rowid is the tiebreak for messages created within the same second.
func (s *SQLiteStore) ListMessages(ctx context.Context, conversationID string) ([]*Message, error) {
	query := `
		SELECT id, conversation_id, role, content, created_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY created_at ASC, rowid ASC
	`

	rows, err := s.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		var msg Message
		var createdAtStr string

		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scanning message row: %w", err)
		}

		msg.CreatedAt, err = time.Parse(timeLayout, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing message created_at: %w", err)
		}

		messages = append(messages, &msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating message rows: %w", err)
	}

	return messages, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan logic.
type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteStore) scanConversation(row *sql.Row) (*Conversation, error) {
	convo, err := scanConversationFrom(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying conversation: %w", err)
	}
	return convo, nil
}

func (s *SQLiteStore) scanConversationRow(rows *sql.Rows) (*Conversation, error) {
	convo, err := scanConversationFrom(rows)
	if err != nil {
		return nil, fmt.Errorf("scanning conversation row: %w", err)
	}
	return convo, nil
}

func scanConversationFrom(scanner rowScanner) (*Conversation, error) {
	var convo Conversation
	var pinned int
	var createdAtStr, lastActivityStr string

	err := scanner.Scan(
		&convo.ID,
		&convo.OwnerID,
		&convo.Title,
		&pinned,
		&createdAtStr,
		&lastActivityStr,
	)
	if err != nil {
		return nil, err
	}

	convo.Pinned = pinned != 0

	convo.CreatedAt, err = time.Parse(timeLayout, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	convo.LastActivityAt, err = time.Parse(timeLayout, lastActivityStr)
	if err != nil {
		return nil, fmt.Errorf("parsing last_activity_at: %w", err)
	}

	return &convo, nil
}

// requireRowAffected maps a zero-row update/delete to ErrNotFound.
func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// isConstraintViolation checks if an error is a SQLite constraint violation
func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "constraint")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
