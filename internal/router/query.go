package router

import (
	"context"
	"fmt"

	"github.com/opengovchat/decision-bot-go/internal/constants"
	"github.com/opengovchat/decision-bot-go/internal/domain"
	"github.com/opengovchat/decision-bot-go/internal/service/botchain"
	"github.com/opengovchat/decision-bot-go/internal/util"
	"go.uber.org/zap"
)

// QueryHandler answers data lookups through the bot chain: the SQL
// generation bot produces results, the ranker reorders them, and the
// external formatter bot (when configured) renders the reply.
type QueryHandler struct {
	deps *Dependencies
}

func NewQueryHandler(deps *Dependencies) *QueryHandler {
	return &QueryHandler{deps: deps}
}

func (h *QueryHandler) Intent() domain.IntentType {
	return domain.IntentQuery
}

func (h *QueryHandler) Handle(ctx context.Context, req *Request) (*Reply, error) {
	ents, ok := req.Result.Entities.(*domain.QueryEntities)
	if !ok {
		return nil, fmt.Errorf("query handler received %T entities", req.Result.Entities)
	}

	if h.deps.SQLGen == nil || !h.deps.SQLGen.Available() {
		return &Reply{Text: h.deps.Render.FormatServiceError("sqlgen")}, nil
	}

	resp, err := h.deps.SQLGen.GenerateQuery(ctx, botchain.QueryRequest{
		Operation:     ents.Operation.String(),
		Entities:      ents.EntityCore,
		ConvID:        req.ConvID,
		IsStatistical: req.Result.RouteFlags.IsStatistical,
		IsComparison:  req.Result.RouteFlags.IsComparison,
	})
	if err != nil {
		h.deps.Logger.Error("SQL generation bot failed",
			zap.String("operation", ents.Operation.String()), zap.Error(err))
		return &Reply{Text: h.deps.Render.FormatServiceError("sqlgen")}, nil
	}

	switch ents.Operation {
	case domain.OperationCount:
		text := h.deps.Render.FormatCount(&ents.EntityCore, resp.Total)
		return &Reply{Text: h.externalFormat(ctx, req, ents, resp, nil, text)}, nil

	case domain.OperationCompare:
		return h.renderComparison(ctx, req, ents, resp), nil

	default:
		return h.renderResults(ctx, req, ents, resp), nil
	}
}

func (h *QueryHandler) renderComparison(ctx context.Context, req *Request, ents *domain.QueryEntities, resp *botchain.QueryResponse) *Reply {
	if len(resp.Buckets) > 0 {
		text := h.deps.Render.FormatComparison(&ents.EntityCore, resp.Buckets)
		return &Reply{Text: h.externalFormat(ctx, req, ents, resp, nil, text)}
	}
	// no bucket breakdown from the bot, fall back to plain results
	return h.renderResults(ctx, req, ents, resp)
}

func (h *QueryHandler) renderResults(ctx context.Context, req *Request, ents *domain.QueryEntities, resp *botchain.QueryResponse) *Reply {
	results := resp.Results
	if len(results) == 0 {
		return &Reply{Text: h.deps.Render.FormatEmpty(&ents.EntityCore)}
	}

	if h.deps.Ranker != nil && ents.Operation == domain.OperationSearch {
		results = h.deps.Ranker.Rank(ctx, req.Text, results)
	}

	shown := results[:util.Min(len(results), constants.InputLimits.MaxResultsPerMsg)]

	total := resp.Total
	if total < len(results) {
		total = len(results)
	}

	var text string
	if ents.Operation == domain.OperationSpecificDecision && len(shown) == 1 {
		text = h.deps.Render.FormatDecision(&shown[0])
	} else {
		text = h.deps.Render.FormatDecisionList(shown, total)
	}

	return &Reply{
		Text:  h.externalFormat(ctx, req, ents, resp, shown, text),
		Shown: decisionRefs(shown),
	}
}

// externalFormat lets the formatter bot rewrite the reply; the built-in
// rendering stands when the bot is absent or declines.
func (h *QueryHandler) externalFormat(ctx context.Context, req *Request, ents *domain.QueryEntities, resp *botchain.QueryResponse, shown []domain.Decision, fallback string) string {
	if h.deps.Formatter == nil {
		return fallback
	}

	out, ok := h.deps.Formatter.Format(ctx, botchain.FormatRequest{
		Operation: ents.Operation.String(),
		Query:     req.Text,
		Results:   shown,
		Count:     resp.Total,
	})
	if !ok || out == "" {
		return fallback
	}
	return util.TruncateString(out, constants.StringLimits.ReplyText)
}

func decisionRefs(results []domain.Decision) []domain.DecisionRef {
	refs := make([]domain.DecisionRef, 0, len(results))
	for _, d := range results {
		refs = append(refs, domain.DecisionRef{
			GovernmentNumber: d.GovernmentNumber,
			DecisionNumber:   d.DecisionNumber,
			Title:            d.Title,
		})
	}
	return refs
}
