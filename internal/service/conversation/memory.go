package conversation

import (
	"context"
	"time"

	"github.com/opengovchat/decision-bot-go/internal/constants"
	"github.com/opengovchat/decision-bot-go/internal/domain"
	"github.com/opengovchat/decision-bot-go/internal/service/cache"
	"github.com/opengovchat/decision-bot-go/internal/util"
	"go.uber.org/zap"
)

// Memory is the router's view of conversation state: Redis for the live
// reference window, Postgres for the turn audit log. The classifier never
// sees it; context only matters after an intent is assigned.
type Memory struct {
	store  *Store
	cache  *cache.CacheService
	logger *zap.Logger
}

// NewMemory accepts a nil store; turn persistence is then skipped, which
// keeps local development working without Postgres.
func NewMemory(store *Store, cacheService *cache.CacheService, logger *zap.Logger) *Memory {
	return &Memory{
		store:  store,
		cache:  cacheService,
		logger: logger,
	}
}

func (m *Memory) Context(ctx context.Context, convID string) (*domain.ConversationContext, error) {
	convCtx, err := m.cache.LoadContext(ctx, convID)
	if err != nil || convCtx == nil {
		return convCtx, err
	}

	// reading context means the conversation is active, keep it alive
	if err := m.cache.TouchContext(ctx, convID); err != nil {
		m.logger.Debug("Context touch failed", zap.String("conv_id", convID), zap.Error(err))
	}
	return convCtx, nil
}

func (m *Memory) Forget(ctx context.Context, convID string) error {
	return m.cache.ClearContext(ctx, convID)
}

// RememberResult folds a classification and the decisions shown for it
// into the conversation context. Fields the new turn did not mention are
// carried over, so "וגם בנושא בריאות" keeps the government filter from
// the previous question.
func (m *Memory) RememberResult(ctx context.Context, convID string, result *domain.ClassificationResult, shown []domain.DecisionRef) error {
	if convID == "" || result == nil {
		return nil
	}

	prev, err := m.cache.LoadContext(ctx, convID)
	if err != nil {
		m.logger.Warn("Context load failed, rebuilding from this turn",
			zap.String("conv_id", convID), zap.Error(err))
		prev = nil
	}

	next := mergeContext(prev, convID, result, shown)
	return m.cache.SaveContext(ctx, next)
}

// RecordTurn appends to the audit log. Failures are logged and swallowed;
// the reply must not depend on the audit trail being writable.
func (m *Memory) RecordTurn(ctx context.Context, turn domain.ConversationTurn) {
	if m.store == nil || turn.ConvID == "" {
		return
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}
	if err := m.store.SaveTurn(ctx, turn); err != nil {
		m.logger.Warn("Failed to persist conversation turn",
			zap.String("conv_id", turn.ConvID), zap.Error(err))
	}
}

func (m *Memory) History(ctx context.Context, convID string, n int) ([]domain.ConversationTurn, error) {
	if m.store == nil {
		return nil, nil
	}
	if n <= 0 || n > constants.InputLimits.MaxHistoryTurns {
		n = constants.InputLimits.MaxHistoryTurns
	}
	return m.store.RecentTurns(ctx, convID, n)
}

func mergeContext(prev *domain.ConversationContext, convID string, result *domain.ClassificationResult, shown []domain.DecisionRef) *domain.ConversationContext {
	next := &domain.ConversationContext{
		ConvID:     convID,
		LastIntent: result.Intent,
		UpdatedAt:  time.Now(),
	}
	if prev != nil {
		next.LastDecision = prev.LastDecision
		next.LastGovernment = prev.LastGovernment
		next.LastTopic = prev.LastTopic
		next.LastResults = prev.LastResults
	}

	core := result.Entities.Core()
	if core.DecisionNumber != nil {
		next.LastDecision = core.DecisionNumber
	}
	if core.GovernmentNumber != nil {
		next.LastGovernment = core.GovernmentNumber
	}
	if core.Topic != "" {
		next.LastTopic = core.Topic
	}

	if len(shown) > 0 {
		limit := util.Min(len(shown), constants.InputLimits.MaxResultsPerMsg)
		next.LastResults = shown[:limit]
		if len(shown) == 1 {
			n := shown[0].DecisionNumber
			g := shown[0].GovernmentNumber
			next.LastDecision = &n
			next.LastGovernment = &g
		}
	}

	return next
}
