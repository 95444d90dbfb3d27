package router

import (
	"context"
	"fmt"

	"github.com/opengovchat/decision-bot-go/internal/constants"
	"github.com/opengovchat/decision-bot-go/internal/domain"
	"github.com/opengovchat/decision-bot-go/internal/util"
	"go.uber.org/zap"
)

// EvalHandler answers deep-analysis requests through the evaluator bot.
// A request may name its decision directly or lean on the conversation
// ("analyze the one you just showed me").
type EvalHandler struct {
	deps *Dependencies
}

func NewEvalHandler(deps *Dependencies) *EvalHandler {
	return &EvalHandler{deps: deps}
}

func (h *EvalHandler) Intent() domain.IntentType {
	return domain.IntentEval
}

func (h *EvalHandler) Handle(ctx context.Context, req *Request) (*Reply, error) {
	ents, ok := req.Result.Entities.(*domain.EvalEntities)
	if !ok {
		return nil, fmt.Errorf("eval handler received %T entities", req.Result.Entities)
	}

	gov, decision, ok := h.resolveTarget(ents, req.ConvCtx)
	if !ok {
		return &Reply{Text: h.deps.Render.FormatReanchorPrompt()}, nil
	}

	if h.deps.Evaluator == nil || !h.deps.Evaluator.Available() {
		return &Reply{Text: h.deps.Render.FormatServiceError("evaluator")}, nil
	}

	resp, err := h.deps.Evaluator.Evaluate(ctx, gov, decision, req.ConvID)
	if err != nil {
		h.deps.Logger.Error("Evaluator bot failed",
			zap.Int("government", gov), zap.Int("decision", decision), zap.Error(err))
		return &Reply{Text: h.deps.Render.FormatServiceError("evaluator")}, nil
	}

	report := resp.Report
	if h.deps.Summarizer != nil && len([]rune(report)) > constants.StringLimits.ReplyText {
		if summary, _, err := h.deps.Summarizer.Summarize(ctx, req.Text, report); err != nil {
			h.deps.Logger.Warn("Report summarization failed", zap.Error(err))
		} else if summary != "" {
			report = summary
		}
	}

	evaluated := resp.Decision
	if evaluated == nil {
		evaluated = &domain.Decision{GovernmentNumber: gov, DecisionNumber: decision}
	}

	shown := []domain.DecisionRef{{
		GovernmentNumber: evaluated.GovernmentNumber,
		DecisionNumber:   evaluated.DecisionNumber,
		Title:            evaluated.Title,
	}}

	text := h.deps.Render.FormatEvalReport(evaluated, resp.Score, report)
	return &Reply{Text: util.TruncateString(text, constants.StringLimits.ReplyText), Shown: shown}, nil
}

// resolveTarget pins down which decision to analyze. Explicit numbers win;
// a context-leaning request falls back to the remembered decision or a
// single previously shown result.
func (h *EvalHandler) resolveTarget(ents *domain.EvalEntities, convCtx *domain.ConversationContext) (gov, decision int, ok bool) {
	gov = h.deps.CurrentGovernment
	if convCtx != nil && convCtx.LastGovernment != nil {
		gov = *convCtx.LastGovernment
	}
	if ents.GovernmentNumber != nil {
		gov = *ents.GovernmentNumber
	}

	if ents.DecisionNumber != nil {
		return gov, *ents.DecisionNumber, true
	}

	if convCtx.HasDecision() {
		return gov, *convCtx.LastDecision, true
	}
	if convCtx != nil && len(convCtx.LastResults) == 1 {
		ref := convCtx.LastResults[0]
		return ref.GovernmentNumber, ref.DecisionNumber, true
	}

	return 0, 0, false
}
