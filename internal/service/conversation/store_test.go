package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/opengovchat/decision-bot-go/internal/domain"
	"go.uber.org/zap"
)

func newMockTurnStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return &Store{db: db, logger: zap.NewNop()}, mock
}

func TestSaveTurn(t *testing.T) {
	store, mock := newMockTurnStore(t)

	created := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	snapshot := []byte(`{"topic":"חינוך"}`)
	mock.ExpectExec(`INSERT INTO conversation_turns`).
		WithArgs("conv-1", "user", "כמה החלטות בנושא חינוך", "QUERY", snapshot, created).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := store.SaveTurn(context.Background(), domain.ConversationTurn{
		ConvID:    "conv-1",
		Role:      domain.RoleUser,
		Text:      "כמה החלטות בנושא חינוך",
		Intent:    domain.IntentQuery,
		Entities:  snapshot,
		CreatedAt: created,
	})
	if err != nil {
		t.Fatalf("SaveTurn: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSaveTurnWithoutIntent(t *testing.T) {
	store, mock := newMockTurnStore(t)

	created := time.Date(2024, 3, 10, 12, 0, 5, 0, time.UTC)
	mock.ExpectExec(`INSERT INTO conversation_turns`).
		WithArgs("conv-1", "bot", "נמצאו 12 החלטות", nil, nil, created).
		WillReturnResult(sqlmock.NewResult(2, 1))

	err := store.SaveTurn(context.Background(), domain.ConversationTurn{
		ConvID:    "conv-1",
		Role:      domain.RoleBot,
		Text:      "נמצאו 12 החלטות",
		CreatedAt: created,
	})
	if err != nil {
		t.Fatalf("SaveTurn: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestRecentTurnsReturnsChronologicalOrder(t *testing.T) {
	store, mock := newMockTurnStore(t)

	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	// the query orders newest first, RecentTurns flips it back
	rows := sqlmock.NewRows([]string{"conv_id", "role", "text", "intent_type", "entities", "created_at"}).
		AddRow("conv-1", "bot", "נמצאו 12 החלטות", nil, nil, base.Add(2*time.Second)).
		AddRow("conv-1", "user", "כמה החלטות בנושא חינוך", "QUERY", []byte(`{"topic":"חינוך"}`), base)

	mock.ExpectQuery(`SELECT conv_id, role, text, intent_type, entities, created_at`).
		WithArgs("conv-1", 10).
		WillReturnRows(rows)

	turns, err := store.RecentTurns(context.Background(), "conv-1", 10)
	if err != nil {
		t.Fatalf("RecentTurns: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("got %d turns, want 2", len(turns))
	}

	if turns[0].Role != domain.RoleUser || turns[1].Role != domain.RoleBot {
		t.Errorf("turns out of order: %s then %s", turns[0].Role, turns[1].Role)
	}
	if turns[0].Intent != domain.IntentQuery {
		t.Errorf("user turn intent = %q, want QUERY", turns[0].Intent)
	}
	if turns[1].Intent != "" {
		t.Errorf("bot turn intent = %q, want empty", turns[1].Intent)
	}
	if string(turns[0].Entities) != `{"topic":"חינוך"}` {
		t.Errorf("user turn entities = %s", turns[0].Entities)
	}
}
