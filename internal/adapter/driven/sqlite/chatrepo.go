package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/avolkov/labchat/internal/domain/model"
	"github.com/avolkov/labchat/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ChatStore = (*ChatRepo)(nil)

// ChatRepo is the SQLite implementation of the ChatStore port interface.
type ChatRepo struct {
	db *DB
}

// NewChatRepo creates a new ChatRepo backed by the given DB.
func NewChatRepo(db *DB) *ChatRepo {
	return &ChatRepo{db: db}
}

// InsertSession persists a new chat session.
func (r *ChatRepo) InsertSession(ctx context.Context, session model.ChatSession) error {
	const query = `INSERT INTO chat_sessions (id, owner_id, title, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`

	_, err := r.db.Writer.ExecContext(ctx, query,
		session.ID, session.OwnerID, session.Title,
		session.CreatedAt.UTC(), session.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert chat session %q: %w", session.ID, err)
	}
	return nil
}

// GetSession returns the session with the given id owned by ownerID.
func (r *ChatRepo) GetSession(ctx context.Context, id, ownerID string) (*model.ChatSession, error) {
	const query = `SELECT id, owner_id, title, created_at, updated_at
		FROM chat_sessions WHERE id = ? AND owner_id = ?`

	session, err := scanSession(r.db.Reader.QueryRowContext(ctx, query, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("chat session %q: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get chat session %q: %w", id, err)
	}
	return session, nil
}

// ListSessions returns all sessions owned by ownerID, newest first.
func (r *ChatRepo) ListSessions(ctx context.Context, ownerID string) ([]model.ChatSession, error) {
	const query = `SELECT id, owner_id, title, created_at, updated_at
		FROM chat_sessions WHERE owner_id = ? ORDER BY rowid DESC`

	rows, err := r.db.Reader.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list chat sessions: %w", err)
	}
	defer rows.Close()

	sessions := []model.ChatSession{}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chat session: %w", err)
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat sessions: %w", err)
	}

	return sessions, nil
}

// TouchSession bumps a session's updated_at.
func (r *ChatRepo) TouchSession(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE chat_sessions SET updated_at = ? WHERE id = ?`

	_, err := r.db.Writer.ExecContext(ctx, query, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("touch chat session %q: %w", id, err)
	}
	return nil
}

// InsertMessage appends a message to its session.
func (r *ChatRepo) InsertMessage(ctx context.Context, msg model.ChatMessage) error {
	const query = `INSERT INTO chat_messages (id, session_id, role, content, created_at)
		VALUES (?, ?, ?, ?, ?)`

	_, err := r.db.Writer.ExecContext(ctx, query,
		msg.ID, msg.SessionID, msg.Role, msg.Content, msg.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert chat message %q: %w", msg.ID, err)
	}
	return nil
}

// ListMessages returns a session's messages in insertion order.
func (r *ChatRepo) ListMessages(ctx context.Context, sessionID string) ([]model.ChatMessage, error) {
	const query = `SELECT id, session_id, role, content, created_at
		FROM chat_messages WHERE session_id = ? ORDER BY rowid`

	rows, err := r.db.Reader.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	defer rows.Close()

	messages := []model.ChatMessage{}
	for rows.Next() {
		var msg model.ChatMessage
		var createdAt string
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		msg.CreatedAt, err = parseTime(createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat messages: %w", err)
	}

	return messages, nil
}

func scanSession(s scanner) (*model.ChatSession, error) {
	var session model.ChatSession
	var createdAt, updatedAt string

	err := s.Scan(&session.ID, &session.OwnerID, &session.Title, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	session.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	session.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &session, nil
}
