package conversation

import (
	"context"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/opengovchat/decision-bot-go/internal/domain"
	"github.com/opengovchat/decision-bot-go/internal/service/cache"
	"go.uber.org/zap"
)

func setupMemory(t *testing.T) *Memory {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	port, err := strconv.Atoi(mr.Port())
	if err != nil {
		t.Fatalf("miniredis port: %v", err)
	}

	cacheSvc, err := cache.NewCacheService(cache.CacheConfig{
		Host: mr.Host(),
		Port: port,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("cache service: %v", err)
	}
	t.Cleanup(func() { cacheSvc.Close() })

	return NewMemory(nil, cacheSvc, zap.NewNop())
}

func queryResult(topic string, gov *int) *domain.ClassificationResult {
	return &domain.ClassificationResult{
		Intent: domain.IntentQuery,
		Entities: &domain.QueryEntities{
			EntityCore: domain.EntityCore{Topic: topic, GovernmentNumber: gov},
			Operation:  domain.OperationSearch,
		},
		Confidence: 0.9,
	}
}

func TestMemoryRememberAndRecall(t *testing.T) {
	m := setupMemory(t)
	ctx := context.Background()

	shown := []domain.DecisionRef{
		{GovernmentNumber: 36, DecisionNumber: 100, Title: "החלטה ראשונה"},
		{GovernmentNumber: 36, DecisionNumber: 200, Title: "החלטה שנייה"},
	}
	if err := m.RememberResult(ctx, "conv-1", queryResult("חינוך", domain.IntPtr(36)), shown); err != nil {
		t.Fatalf("RememberResult: %v", err)
	}

	got, err := m.Context(ctx, "conv-1")
	if err != nil {
		t.Fatalf("Context: %v", err)
	}
	if got == nil {
		t.Fatal("expected a stored context")
	}
	if got.LastGovernment == nil || *got.LastGovernment != 36 {
		t.Errorf("LastGovernment = %v", got.LastGovernment)
	}
	if got.LastTopic != "חינוך" {
		t.Errorf("LastTopic = %q", got.LastTopic)
	}
	if len(got.LastResults) != 2 || got.LastResults[1].DecisionNumber != 200 {
		t.Errorf("LastResults = %v", got.LastResults)
	}
}

func TestMemoryCarriesFiltersAcrossTurns(t *testing.T) {
	m := setupMemory(t)
	ctx := context.Background()

	if err := m.RememberResult(ctx, "conv-2", queryResult("חינוך", domain.IntPtr(35)), nil); err != nil {
		t.Fatalf("first turn: %v", err)
	}
	// follow-up names a new topic but no government
	if err := m.RememberResult(ctx, "conv-2", queryResult("בריאות", nil), nil); err != nil {
		t.Fatalf("second turn: %v", err)
	}

	got, err := m.Context(ctx, "conv-2")
	if err != nil {
		t.Fatalf("Context: %v", err)
	}
	if got.LastGovernment == nil || *got.LastGovernment != 35 {
		t.Error("government filter should survive a topic-only follow-up")
	}
	if got.LastTopic != "בריאות" {
		t.Errorf("LastTopic = %q, want the follow-up topic", got.LastTopic)
	}
}

func TestMemoryForget(t *testing.T) {
	m := setupMemory(t)
	ctx := context.Background()

	if err := m.RememberResult(ctx, "conv-3", queryResult("תחבורה", nil), nil); err != nil {
		t.Fatalf("RememberResult: %v", err)
	}
	if err := m.Forget(ctx, "conv-3"); err != nil {
		t.Fatalf("Forget: %v", err)
	}

	got, err := m.Context(ctx, "conv-3")
	if err != nil {
		t.Fatalf("Context: %v", err)
	}
	if got != nil {
		t.Errorf("context should be gone, got %+v", got)
	}
}

func TestMemoryWithoutStoreSkipsTurnLog(t *testing.T) {
	m := setupMemory(t)
	ctx := context.Background()

	// must not panic with a nil store
	m.RecordTurn(ctx, domain.ConversationTurn{ConvID: "conv-4", Role: domain.RoleUser, Text: "שאלה"})

	turns, err := m.History(ctx, "conv-4", 5)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if turns != nil {
		t.Errorf("history should be empty without a store, got %v", turns)
	}
}
