package router

import (
	"context"
	"fmt"

	"github.com/opengovchat/decision-bot-go/internal/domain"
	"github.com/opengovchat/decision-bot-go/internal/service/conversation"
	"go.uber.org/zap"
)

// ReferenceHandler resolves back-references against the conversation
// context and re-dispatches the resolved query. An unresolvable reference
// degrades to a prompt asking the user to name the decision outright.
type ReferenceHandler struct {
	deps *Dependencies
}

func NewReferenceHandler(deps *Dependencies) *ReferenceHandler {
	return &ReferenceHandler{deps: deps}
}

func (h *ReferenceHandler) Intent() domain.IntentType {
	return domain.IntentReference
}

func (h *ReferenceHandler) Handle(ctx context.Context, req *Request) (*Reply, error) {
	ents, ok := req.Result.Entities.(*domain.ReferenceEntities)
	if !ok {
		return nil, fmt.Errorf("reference handler received %T entities", req.Result.Entities)
	}

	resolved, ok := conversation.Resolve(req.ConvCtx, ents, h.deps.CurrentGovernment)
	if !ok {
		h.deps.Logger.Info("Reference could not be anchored",
			zap.String("conv_id", req.ConvID),
			zap.String("reference_type", ents.ReferenceType),
		)
		return &Reply{Text: h.deps.Render.FormatReanchorPrompt()}, nil
	}

	h.deps.Logger.Debug("Reference resolved",
		zap.String("conv_id", req.ConvID),
		zap.String("reference_type", ents.ReferenceType),
		zap.String("operation", resolved.Operation.String()),
	)

	rewritten := &domain.ClassificationResult{
		Intent:     domain.IntentQuery,
		Entities:   resolved,
		Confidence: req.Result.Confidence,
		RouteFlags: domain.RouteFlags{
			IsStatistical: resolved.Operation == domain.OperationCount,
			IsComparison:  resolved.Operation == domain.OperationCompare,
		},
		Explanation: "Resolved from conversation context",
	}

	return h.deps.Dispatch(ctx, &Request{
		ConvID:  req.ConvID,
		Text:    req.Text,
		Result:  rewritten,
		ConvCtx: req.ConvCtx,
	})
}
