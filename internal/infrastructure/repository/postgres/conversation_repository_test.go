package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/policy-bridge/internal/core/domain"
)

var conversationRowColumns = []string{"id", "user_id", "policy_id", "title", "last_message_at", "created_at", "updated_at", "count"}

func TestCreateAndGetConversation(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()
	repo := NewConversationRepository(db)

	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	conv := &domain.Conversation{ID: "cv-1", UserID: "u-1", PolicyID: "p-1", Title: "Chat about Gold", CreatedAt: now, UpdatedAt: now}

	mock.ExpectExec("INSERT INTO conversations").
		WithArgs("cv-1", "u-1", "p-1", "Chat about Gold", now, now).
		WillReturnResult(sqlmock.NewResult(1, 1))
	if err := repo.CreateConversation(context.Background(), conv); err != nil {
		t.Fatalf("CreateConversation() error = %v", err)
	}

	later := now.Add(time.Minute)
	mock.ExpectQuery("FROM conversations c\\s+WHERE c.id =").
		WithArgs("cv-1").
		WillReturnRows(sqlmock.NewRows(conversationRowColumns).AddRow("cv-1", "u-1", "p-1", "Chat about Gold", later, now, later, 4))
	got, err := repo.GetConversation(context.Background(), "cv-1")
	if err != nil {
		t.Fatalf("GetConversation() error = %v", err)
	}
	if got.MessageCount != 4 || got.LastMessageAt == nil || !got.LastMessageAt.Equal(later) {
		t.Fatalf("unexpected conversation %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestFindConversationNotFound(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()

	mock.ExpectQuery("WHERE c.user_id = .+ AND c.policy_id =").
		WithArgs("u-1", "p-1").
		WillReturnError(sql.ErrNoRows)
	_, err := NewConversationRepository(db).FindConversation(context.Background(), "u-1", "p-1")
	if !domain.IsKind(err, domain.ErrConversationNotFound) {
		t.Fatalf("expected ErrConversationNotFound, got %v", err)
	}
}

func TestListConversationsKeepsNullLastMessage(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()

	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("ORDER BY c.updated_at DESC").
		WithArgs("u-1", "p-1").
		WillReturnRows(sqlmock.NewRows(conversationRowColumns).
			AddRow("cv-2", "u-1", "p-1", "Chat about Gold", now, now, now, 2).
			AddRow("cv-1", "u-1", "p-1", "Chat about Gold", nil, now, now, 0))
	got, err := NewConversationRepository(db).ListConversations(context.Background(), "u-1", "p-1")
	if err != nil {
		t.Fatalf("ListConversations() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != "cv-2" || got[1].LastMessageAt != nil {
		t.Fatalf("unexpected conversations %+v", got)
	}
}

func TestDeleteConversation(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()
	repo := NewConversationRepository(db)

	mock.ExpectExec("DELETE FROM conversations").WithArgs("cv-1").WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.DeleteConversation(context.Background(), "cv-1"); err != nil {
		t.Fatalf("DeleteConversation() error = %v", err)
	}

	mock.ExpectExec("DELETE FROM conversations").WithArgs("gone").WillReturnResult(sqlmock.NewResult(0, 0))
	if err := repo.DeleteConversation(context.Background(), "gone"); !domain.IsKind(err, domain.ErrConversationNotFound) {
		t.Fatalf("expected ErrConversationNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAppendMessageTouchesConversation(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()

	at := time.Date(2024, 3, 1, 10, 5, 0, 0, time.UTC)
	msg := domain.ConversationMessage{
		ID: "m-1", ConversationID: "cv-1", Role: domain.MessageRoleAI, Content: "You pay $500.",
		Model: "gemini-1.5-flash", TokensUsed: 12, ResponseSecs: 0.4, CreatedAt: at,
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO conversation_messages").
		WithArgs("m-1", "cv-1", "ai", "You pay $500.", "gemini-1.5-flash", 12, 0.4, at).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE conversations SET last_message_at").
		WithArgs("cv-1", at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := NewConversationRepository(db).AppendMessage(context.Background(), msg); err != nil {
		t.Fatalf("AppendMessage() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAppendMessageRollsBackOnInsertError(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO conversation_messages").WillReturnError(errors.New("fk violation"))
	mock.ExpectRollback()

	err := NewConversationRepository(db).AppendMessage(context.Background(), domain.ConversationMessage{ID: "m-1", ConversationID: "cv-x", Role: domain.MessageRoleUser})
	if err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListRecentMessagesReturnsChronologicalOrder(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()

	t1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)
	cols := []string{"id", "conversation_id", "role", "content", "model", "tokens_used", "response_time", "created_at"}
	mock.ExpectQuery("FROM conversation_messages\\s+WHERE conversation_id = .+\\s+ORDER BY created_at DESC").
		WithArgs("cv-1", 6).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("m-2", "cv-1", "ai", "answer", "mock", 3, 0.0, t2).
			AddRow("m-1", "cv-1", "user", "question", "", 0, 0.0, t1))

	got, err := NewConversationRepository(db).ListRecentMessages(context.Background(), "cv-1", 6)
	if err != nil {
		t.Fatalf("ListRecentMessages() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != "m-1" || got[1].Role != domain.MessageRoleAI {
		t.Fatalf("unexpected messages %+v", got)
	}

	if got, err := NewConversationRepository(db).ListRecentMessages(context.Background(), "cv-1", 0); err != nil || got != nil {
		t.Fatalf("expected no query for zero limit, got %v (%v)", got, err)
	}
}
