package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// Message is one row of the local message log: an audit trail of what passed
// through this gateway, independent of the remote server's own history.
type Message struct {
	ID        int64                  `json:"id"`
	SessionID string                 `json:"session_id"`
	MessageID string                 `json:"message_id,omitempty"`
	Direction string                 `json:"direction"` // "outbound" or "inbound"
	From      string                 `json:"from,omitempty"`
	To        string                 `json:"to,omitempty"`
	Body      string                 `json:"body,omitempty"`
	Type      string                 `json:"type"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// Store persists the message log in Postgres.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the message log table when it does not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS whatsapp_messages (
			id BIGSERIAL PRIMARY KEY,
			session_id TEXT NOT NULL,
			message_id TEXT,
			direction TEXT NOT NULL,
			from_number TEXT,
			to_number TEXT,
			body TEXT,
			type TEXT NOT NULL DEFAULT 'text',
			metadata JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS whatsapp_messages_numbers_idx
		ON whatsapp_messages (from_number, to_number)
	`)
	return err
}

// Record inserts one message log row.
func (s *Store) Record(ctx context.Context, msg Message) error {
	var metadata interface{}
	if len(msg.Metadata) > 0 {
		encoded, err := json.Marshal(msg.Metadata)
		if err != nil {
			return err
		}
		metadata = string(encoded)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO whatsapp_messages (session_id, message_id, direction, from_number, to_number, body, type, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb)
	`, msg.SessionID, nullable(msg.MessageID), msg.Direction, nullable(msg.From), nullable(msg.To), nullable(msg.Body), msg.Type, metadata)
	return err
}

// ListByNumber returns the most recent messages exchanged with a phone
// number, newest first.
func (s *Store) ListByNumber(ctx context.Context, number string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, COALESCE(message_id, ''), direction,
		       COALESCE(from_number, ''), COALESCE(to_number, ''),
		       COALESCE(body, ''), type, metadata, created_at
		FROM whatsapp_messages
		WHERE from_number = $1 OR to_number = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, number, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var msg Message
		var metadata sql.NullString
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.MessageID, &msg.Direction,
			&msg.From, &msg.To, &msg.Body, &msg.Type, &metadata, &msg.CreatedAt); err != nil {
			return nil, err
		}
		if metadata.Valid && metadata.String != "" {
			_ = json.Unmarshal([]byte(metadata.String), &msg.Metadata)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func nullable(v string) interface{} {
	if v == "" {
		return nil
	}
	return v
}
