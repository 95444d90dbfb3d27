package router

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/opengovchat/decision-bot-go/internal/constants"
	"github.com/opengovchat/decision-bot-go/internal/domain"
	"github.com/opengovchat/decision-bot-go/internal/service/ai"
	"github.com/opengovchat/decision-bot-go/internal/service/conversation"
	"github.com/opengovchat/decision-bot-go/internal/service/intent"
	"github.com/opengovchat/decision-bot-go/internal/util"
	"go.uber.org/zap"
)

// Provider values reported on ChatReply.
const (
	ProviderDeterministic = "deterministic"
	ProviderLLM           = "llm"
)

// The model-assisted parser is consulted only below this confidence, and
// only for CLARIFICATION results. Deliberate clarifications (ambiguous
// number 0.8, over-long query 0.9) stay deterministic. Overridable via
// WithFallbackFloor.
const fallbackConfidenceFloor = 0.55

var (
	controlCharsPattern = regexp.MustCompile(`[\x00-\x1F\x7F]`)
	whitespacePattern   = regexp.MustCompile(`\s+`)
)

// Router drives one utterance end to end: sanitize, classify, resolve
// conversation context, dispatch to the intent handler, persist the turn.
type Router struct {
	classifier    *intent.Classifier
	registry      *Registry
	memory        *conversation.Memory
	parser        *ai.FallbackParser
	fallbackFloor float64
	cache         *resultCache
	logger        *zap.Logger
}

type Option func(*Router)

// WithMemory enables conversation context persistence.
func WithMemory(m *conversation.Memory) Option {
	return func(r *Router) { r.memory = m }
}

// WithFallbackParser enables the model-assisted parse for weak clarifications.
func WithFallbackParser(p *ai.FallbackParser) Option {
	return func(r *Router) { r.parser = p }
}

// WithFallbackFloor overrides the confidence below which the model-assisted
// parser is consulted.
func WithFallbackFloor(floor float64) Option {
	return func(r *Router) {
		if floor > 0 {
			r.fallbackFloor = floor
		}
	}
}

// WithCacheTTL overrides the classification cache lifetime. Zero disables
// the cache.
func WithCacheTTL(ttl time.Duration) Option {
	return func(r *Router) { r.cache = newResultCache(ttl) }
}

func WithLogger(logger *zap.Logger) Option {
	return func(r *Router) { r.logger = logger }
}

func New(classifier *intent.Classifier, registry *Registry, opts ...Option) *Router {
	r := &Router{
		classifier:    classifier,
		registry:      registry,
		fallbackFloor: fallbackConfidenceFloor,
		cache:         newResultCache(constants.CacheTTL.ClassifyResult),
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Route processes one chat message and returns the rendered reply.
func (r *Router) Route(ctx context.Context, req *domain.ChatRequest) (*domain.ChatReply, error) {
	text := sanitizeText(req.Text)
	if text == "" {
		return nil, fmt.Errorf("message is empty after sanitization")
	}

	result, provider := r.classify(ctx, text)

	r.logger.Info("Classified message",
		zap.String("intent", result.Intent.String()),
		zap.Float64("confidence", result.Confidence),
		zap.String("provider", provider),
		zap.String("text", util.TruncateString(text, constants.StringLimits.LogSnippet)),
	)

	var convCtx *domain.ConversationContext
	if req.ConvID != "" && r.memory != nil && result.RouteFlags.NeedsContext {
		loaded, err := r.memory.Context(ctx, req.ConvID)
		if err != nil {
			r.logger.Warn("Failed to load conversation context",
				zap.String("conv_id", req.ConvID), zap.Error(err))
		} else {
			convCtx = loaded
		}
	}

	reply, err := r.registry.Dispatch(ctx, &Request{
		ConvID:  req.ConvID,
		Text:    text,
		Result:  result,
		ConvCtx: convCtx,
	})
	if err != nil {
		return nil, err
	}

	if req.ConvID != "" && r.memory != nil {
		if err := r.memory.RememberResult(ctx, req.ConvID, result, reply.Shown); err != nil {
			r.logger.Warn("Failed to persist conversation context",
				zap.String("conv_id", req.ConvID), zap.Error(err))
		}
		snapshot, _ := json.Marshal(result.Entities)
		r.memory.RecordTurn(ctx, domain.ConversationTurn{
			ConvID: req.ConvID, Role: domain.RoleUser, Text: text, Intent: result.Intent,
			Entities: snapshot,
		})
		r.memory.RecordTurn(ctx, domain.ConversationTurn{
			ConvID: req.ConvID, Role: domain.RoleBot, Text: reply.Text, Intent: result.Intent,
		})
	}

	return &domain.ChatReply{
		ConvID:         req.ConvID,
		Reply:          reply.Text,
		Intent:         result.Intent,
		Confidence:     result.Confidence,
		Provider:       provider,
		Classification: result,
	}, nil
}

// classify returns the cached or freshly computed classification, consulting
// the model-assisted parser when the deterministic cascade came back with a
// weak clarification. A confident deterministic result is never overridden.
func (r *Router) classify(ctx context.Context, text string) (*domain.ClassificationResult, string) {
	if entry, ok := r.cache.get(text); ok {
		return entry.result, entry.provider
	}

	result := r.classifier.Classify(text)
	provider := ProviderDeterministic

	if r.parser != nil &&
		result.Intent == domain.IntentClarification &&
		result.Confidence < r.fallbackFloor {
		parsed, meta, err := r.parser.Parse(ctx, text)
		switch {
		case err != nil:
			r.logger.Warn("Model-assisted parse failed", zap.Error(err))
		case parsed != nil && parsed.Confidence > result.Confidence:
			r.logger.Info("Model-assisted parse adopted",
				zap.String("intent", parsed.Intent.String()),
				zap.Float64("confidence", parsed.Confidence),
				zap.String("model", modelName(meta)),
			)
			result = parsed
			provider = ProviderLLM
		}
	}

	r.cache.set(text, result, provider)
	return result, provider
}

// CacheSize reports how many classification results are currently memoized.
func (r *Router) CacheSize() int {
	return r.cache.size()
}

func sanitizeText(raw string) string {
	cleaned := controlCharsPattern.ReplaceAllString(raw, " ")
	cleaned = whitespacePattern.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)
	return util.TruncateString(cleaned, constants.InputLimits.MaxQueryLength)
}

func modelName(meta *ai.GenerateMetadata) string {
	if meta == nil {
		return "unknown"
	}
	return meta.Model
}
