package router

import (
	"context"
	"fmt"

	"github.com/opengovchat/decision-bot-go/internal/domain"
	"go.uber.org/zap"
)

// clarifyHistoryTurns is how many persisted turns the polish prompt sees.
const clarifyHistoryTurns = 4

// ClarificationHandler turns an ambiguous classification into a follow-up
// question. The AI clarifier polishes the wording when available; the
// deterministic renderer always stands behind it.
type ClarificationHandler struct {
	deps *Dependencies
}

func NewClarificationHandler(deps *Dependencies) *ClarificationHandler {
	return &ClarificationHandler{deps: deps}
}

func (h *ClarificationHandler) Intent() domain.IntentType {
	return domain.IntentClarification
}

func (h *ClarificationHandler) Handle(ctx context.Context, req *Request) (*Reply, error) {
	if req.Result == nil {
		return nil, fmt.Errorf("clarification handler needs a classification result")
	}

	if h.deps.Clarifier != nil {
		var history []domain.ConversationTurn
		if h.deps.Memory != nil && req.ConvID != "" {
			turns, err := h.deps.Memory.History(ctx, req.ConvID, clarifyHistoryTurns)
			if err != nil {
				h.deps.Logger.Debug("Conversation history unavailable for clarification",
					zap.String("conv_id", req.ConvID), zap.Error(err))
			} else {
				history = turns
			}
		}

		polished, meta, err := h.deps.Clarifier.Polish(ctx, req.Text, req.Result, history)
		if err != nil {
			h.deps.Logger.Warn("Clarification polish failed", zap.Error(err))
		} else if polished != "" {
			if meta != nil {
				h.deps.Logger.Debug("Clarification polished",
					zap.String("model", meta.Model), zap.Bool("fallback", meta.UsedFallback))
			}
			return &Reply{Text: polished}, nil
		}
	}

	return &Reply{Text: h.deps.Render.FormatClarification(req.Result)}, nil
}
