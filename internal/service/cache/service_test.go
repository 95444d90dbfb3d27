package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/opengovchat/decision-bot-go/internal/constants"
	"github.com/opengovchat/decision-bot-go/internal/domain"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func setupCache(t *testing.T) (*CacheService, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return &CacheService{client: client, logger: zap.NewNop()}, mr
}

func TestSetGetRoundTrip(t *testing.T) {
	svc, _ := setupCache(t)
	ctx := context.Background()

	type payload struct {
		Topic string `json:"topic"`
		Count int    `json:"count"`
	}

	if err := svc.Set(ctx, "stats:education", payload{Topic: "חינוך", Count: 145}, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var got payload
	if err := svc.Get(ctx, "stats:education", &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Topic != "חינוך" || got.Count != 145 {
		t.Errorf("got %+v", got)
	}
}

func TestGetMissingKeyIsNotAnError(t *testing.T) {
	svc, _ := setupCache(t)

	var got map[string]any
	if err := svc.Get(context.Background(), "no:such:key", &got); err != nil {
		t.Fatalf("Get on a missing key should be silent, got %v", err)
	}
	if got != nil {
		t.Errorf("dest should stay untouched, got %v", got)
	}
}

func TestSetWithTTLExpires(t *testing.T) {
	svc, mr := setupCache(t)
	ctx := context.Background()

	if err := svc.Set(ctx, "transient", "value", 50*time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}

	exists, err := svc.Exists(ctx, "transient")
	if err != nil || !exists {
		t.Fatalf("key should exist before expiry (exists=%v, err=%v)", exists, err)
	}

	mr.FastForward(100 * time.Millisecond)

	exists, err = svc.Exists(ctx, "transient")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Error("key should be gone after the TTL")
	}
}

func TestSaveAndLoadContext(t *testing.T) {
	svc, _ := setupCache(t)
	ctx := context.Background()

	gov := 37
	dec := 2983
	saved := &domain.ConversationContext{
		ConvID:         "conv-1",
		LastIntent:     domain.IntentQuery,
		LastGovernment: &gov,
		LastDecision:   &dec,
		LastTopic:      "חינוך",
		LastResults: []domain.DecisionRef{
			{GovernmentNumber: 37, DecisionNumber: 2983, Title: "תוכנית לאומית לחינוך"},
		},
		UpdatedAt: time.Now(),
	}

	if err := svc.SaveContext(ctx, saved); err != nil {
		t.Fatalf("SaveContext: %v", err)
	}

	loaded, err := svc.LoadContext(ctx, "conv-1")
	if err != nil {
		t.Fatalf("LoadContext: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected a context")
	}

	if loaded.LastGovernment == nil || *loaded.LastGovernment != 37 {
		t.Errorf("LastGovernment = %v", loaded.LastGovernment)
	}
	if loaded.LastDecision == nil || *loaded.LastDecision != 2983 {
		t.Errorf("LastDecision = %v", loaded.LastDecision)
	}
	if loaded.LastTopic != "חינוך" {
		t.Errorf("LastTopic = %q", loaded.LastTopic)
	}
	if len(loaded.LastResults) != 1 || loaded.LastResults[0].DecisionNumber != 2983 {
		t.Errorf("LastResults = %v", loaded.LastResults)
	}
}

func TestLoadContextUnknownConversation(t *testing.T) {
	svc, _ := setupCache(t)

	loaded, err := svc.LoadContext(context.Background(), "never-seen")
	if err != nil {
		t.Fatalf("LoadContext: %v", err)
	}
	if loaded != nil {
		t.Errorf("expected nil for an unknown conversation, got %+v", loaded)
	}
}

func TestClearContext(t *testing.T) {
	svc, _ := setupCache(t)
	ctx := context.Background()

	if err := svc.SaveContext(ctx, &domain.ConversationContext{ConvID: "conv-2", LastTopic: "בריאות"}); err != nil {
		t.Fatalf("SaveContext: %v", err)
	}
	if err := svc.ClearContext(ctx, "conv-2"); err != nil {
		t.Fatalf("ClearContext: %v", err)
	}

	loaded, err := svc.LoadContext(ctx, "conv-2")
	if err != nil {
		t.Fatalf("LoadContext: %v", err)
	}
	if loaded != nil {
		t.Error("context should be gone after clearing")
	}
}

func TestTouchContextExtendsTTL(t *testing.T) {
	svc, mr := setupCache(t)
	ctx := context.Background()

	if err := svc.SaveContext(ctx, &domain.ConversationContext{ConvID: "conv-3", LastTopic: "חינוך"}); err != nil {
		t.Fatalf("SaveContext: %v", err)
	}

	// burn most of the TTL, then touch; the context must survive past the
	// point where the original TTL would have expired it
	mr.FastForward(constants.CacheTTL.ConversationContext - time.Minute)
	if err := svc.TouchContext(ctx, "conv-3"); err != nil {
		t.Fatalf("TouchContext: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	loaded, err := svc.LoadContext(ctx, "conv-3")
	if err != nil {
		t.Fatalf("LoadContext: %v", err)
	}
	if loaded == nil {
		t.Fatal("touched context should outlive the original TTL")
	}
}

func TestClearAllContexts(t *testing.T) {
	svc, _ := setupCache(t)
	ctx := context.Background()

	for _, id := range []string{"conv-a", "conv-b"} {
		if err := svc.SaveContext(ctx, &domain.ConversationContext{ConvID: id, LastTopic: "חינוך"}); err != nil {
			t.Fatalf("SaveContext %s: %v", id, err)
		}
	}
	if err := svc.Set(ctx, "stats:other", "x", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	cleared, err := svc.ClearAllContexts(ctx)
	if err != nil {
		t.Fatalf("ClearAllContexts: %v", err)
	}
	if cleared != 2 {
		t.Errorf("cleared = %d, want 2", cleared)
	}

	if loaded, _ := svc.LoadContext(ctx, "conv-a"); loaded != nil {
		t.Error("contexts should be gone")
	}
	exists, _ := svc.Exists(ctx, "stats:other")
	if !exists {
		t.Error("non-context keys should survive")
	}
}

func TestDelManyAndKeys(t *testing.T) {
	svc, _ := setupCache(t)
	ctx := context.Background()

	for _, key := range []string{"batch:a", "batch:b", "other:c"} {
		if err := svc.Set(ctx, key, "x", 0); err != nil {
			t.Fatalf("Set %s: %v", key, err)
		}
	}

	keys, err := svc.Keys(ctx, "batch:*")
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("got %d batch keys, want 2", len(keys))
	}

	deleted, err := svc.DelMany(ctx, keys)
	if err != nil {
		t.Fatalf("DelMany: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}

	exists, _ := svc.Exists(ctx, "other:c")
	if !exists {
		t.Error("unrelated key should survive")
	}
}

func TestIsConnectedTracksServer(t *testing.T) {
	svc, mr := setupCache(t)
	ctx := context.Background()

	if !svc.IsConnected(ctx) {
		t.Fatal("should be connected while the server is up")
	}

	mr.Close()

	if svc.IsConnected(ctx) {
		t.Error("should report disconnected after the server goes away")
	}
}
