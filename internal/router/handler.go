package router

import (
	"context"

	"github.com/opengovchat/decision-bot-go/internal/adapter"
	"github.com/opengovchat/decision-bot-go/internal/domain"
	"github.com/opengovchat/decision-bot-go/internal/service/ai"
	"github.com/opengovchat/decision-bot-go/internal/service/botchain"
	"github.com/opengovchat/decision-bot-go/internal/service/conversation"
	"go.uber.org/zap"
)

// Handler answers one intent type. Handlers receive the classification
// result plus whatever conversation context was loaded for the turn, and
// return the rendered reply together with the decisions it showed.
type Handler interface {
	Intent() domain.IntentType
	Handle(ctx context.Context, req *Request) (*Reply, error)
}

// Request carries one classified utterance through dispatch.
type Request struct {
	ConvID  string
	Text    string
	Result  *domain.ClassificationResult
	ConvCtx *domain.ConversationContext
}

// Reply is a handler's rendered answer. Shown lists the decisions the reply
// presented, in display order, so follow-up references can be resolved.
type Reply struct {
	Text  string
	Shown []domain.DecisionRef
}

// Dependencies bundles everything the intent handlers share. Dispatch is the
// re-entry point for handlers that rewrite a request and route it again; it
// is wired to the registry by BuildRegistry.
type Dependencies struct {
	SQLGen     *botchain.SQLGenClient
	Evaluator  *botchain.EvaluatorClient
	Ranker     *botchain.RankerClient
	Formatter  *botchain.FormatterClient
	Clarifier  *ai.Clarifier
	Summarizer *ai.Summarizer
	Render     *adapter.ResponseFormatter
	Memory     *conversation.Memory

	CurrentGovernment int

	Dispatch func(ctx context.Context, req *Request) (*Reply, error)
	Logger   *zap.Logger
}

// BuildRegistry registers the four intent handlers and wires the dispatch
// closure so the reference handler can re-route resolved requests.
func BuildRegistry(deps *Dependencies) *Registry {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	reg := NewRegistry()
	if deps.Dispatch == nil {
		deps.Dispatch = reg.Dispatch
	}

	reg.Register(NewQueryHandler(deps))
	reg.Register(NewEvalHandler(deps))
	reg.Register(NewReferenceHandler(deps))
	reg.Register(NewClarificationHandler(deps))
	return reg
}
