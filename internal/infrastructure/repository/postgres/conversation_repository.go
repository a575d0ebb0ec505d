package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kirillkom/policy-bridge/internal/core/domain"
)

type ConversationRepository struct {
	db *sql.DB
}

func NewConversationRepository(db *sql.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

const conversationColumns = `
SELECT c.id, c.user_id, c.policy_id, c.title, c.last_message_at, c.created_at, c.updated_at,
	(SELECT COUNT(*) FROM conversation_messages m WHERE m.conversation_id = c.id)
FROM conversations c
`

const messageColumns = `
SELECT id, conversation_id, role, content, model, tokens_used, response_time, created_at
FROM conversation_messages
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (domain.Conversation, error) {
	var (
		conv   domain.Conversation
		lastAt sql.NullTime
	)
	if err := row.Scan(
		&conv.ID,
		&conv.UserID,
		&conv.PolicyID,
		&conv.Title,
		&lastAt,
		&conv.CreatedAt,
		&conv.UpdatedAt,
		&conv.MessageCount,
	); err != nil {
		return domain.Conversation{}, err
	}
	if lastAt.Valid {
		t := lastAt.Time
		conv.LastMessageAt = &t
	}
	return conv, nil
}

func (r *ConversationRepository) CreateConversation(ctx context.Context, conv *domain.Conversation) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO conversations (id, user_id, policy_id, title, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6)
`, conv.ID, conv.UserID, conv.PolicyID, conv.Title, conv.CreatedAt, conv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}
	return nil
}

func (r *ConversationRepository) GetConversation(ctx context.Context, id string) (*domain.Conversation, error) {
	conv, err := scanConversation(r.db.QueryRowContext(ctx, conversationColumns+`WHERE c.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrConversationNotFound, "get conversation", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan conversation: %w", err)
	}
	return &conv, nil
}

func (r *ConversationRepository) FindConversation(ctx context.Context, userID, policyID string) (*domain.Conversation, error) {
	conv, err := scanConversation(r.db.QueryRowContext(ctx, conversationColumns+`
WHERE c.user_id = $1 AND c.policy_id = $2
ORDER BY c.updated_at DESC
LIMIT 1
`, userID, policyID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrConversationNotFound, "find conversation", fmt.Errorf("policy_id=%s", policyID))
		}
		return nil, fmt.Errorf("scan conversation: %w", err)
	}
	return &conv, nil
}

// ListConversations returns the user's threads, newest activity first. An
// empty policyID lists threads about every policy.
func (r *ConversationRepository) ListConversations(ctx context.Context, userID, policyID string) ([]domain.Conversation, error) {
	rows, err := r.db.QueryContext(ctx, conversationColumns+`
WHERE c.user_id = $1 AND ($2 = '' OR c.policy_id = $2)
ORDER BY c.updated_at DESC
`, userID, policyID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Conversation, 0)
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		out = append(out, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversations: %w", err)
	}
	return out, nil
}

// DeleteConversation removes the thread; messages go with it via ON DELETE CASCADE.
func (r *ConversationRepository) DeleteConversation(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete conversation rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrConversationNotFound, "delete conversation", fmt.Errorf("id=%s", id))
	}
	return nil
}

// AppendMessage stores the message and bumps the thread's activity timestamps
// in one transaction.
func (r *ConversationRepository) AppendMessage(ctx context.Context, msg domain.ConversationMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append message tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO conversation_messages (id, conversation_id, role, content, model, tokens_used, response_time, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`, msg.ID, msg.ConversationID, string(msg.Role), msg.Content, msg.Model, msg.TokensUsed, msg.ResponseSecs, msg.CreatedAt); err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	res, err := tx.ExecContext(ctx, `
UPDATE conversations SET last_message_at = $2, updated_at = $2 WHERE id = $1
`, msg.ConversationID, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return domain.WrapError(domain.ErrConversationNotFound, "append message", fmt.Errorf("id=%s", msg.ConversationID))
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append message tx: %w", err)
	}
	return nil
}

func (r *ConversationRepository) ListRecentMessages(ctx context.Context, conversationID string, limit int) ([]domain.ConversationMessage, error) {
	if limit <= 0 {
		return nil, nil
	}
	out, err := r.queryMessages(ctx, messageColumns+`
WHERE conversation_id = $1
ORDER BY created_at DESC
LIMIT $2
`, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent messages: %w", err)
	}
	// Returned in descending order from SQL; reverse to keep chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (r *ConversationRepository) ListMessages(ctx context.Context, conversationID string) ([]domain.ConversationMessage, error) {
	out, err := r.queryMessages(ctx, messageColumns+`
WHERE conversation_id = $1
ORDER BY created_at ASC
`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return out, nil
}

func (r *ConversationRepository) queryMessages(ctx context.Context, query string, args ...any) ([]domain.ConversationMessage, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.ConversationMessage, 0)
	for rows.Next() {
		var (
			msg  domain.ConversationMessage
			role string
		)
		if err := rows.Scan(
			&msg.ID,
			&msg.ConversationID,
			&role,
			&msg.Content,
			&msg.Model,
			&msg.TokensUsed,
			&msg.ResponseSecs,
			&msg.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.Role = domain.MessageRole(role)
		out = append(out, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return out, nil
}
