package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/opengovchat/decision-bot-go/internal/domain"
	"github.com/opengovchat/decision-bot-go/internal/prompt"
	"github.com/opengovchat/decision-bot-go/internal/service/intent"
	"go.uber.org/zap"
)

// FallbackParser asks a language model to route queries the deterministic
// classifier gave up on. It is opt-in and only consulted for low
// confidence clarifications; a confident deterministic result is never
// overridden.
type FallbackParser struct {
	invoker           ModelInvoker
	promptBuilder     *prompt.PromptBuilder
	logger            *zap.Logger
	currentGovernment int

	topicList       string
	ministryList    string
	knownTopics     map[string]struct{}
	knownMinistries map[string]struct{}

	preset    ModelPreset
	maxTokens int
}

func NewFallbackParser(
	invoker ModelInvoker,
	builder *prompt.PromptBuilder,
	library *intent.Library,
	currentGovernment int,
	logger *zap.Logger,
) *FallbackParser {
	topics := library.CanonicalTopics()
	ministries := library.CanonicalMinistries()

	return &FallbackParser{
		invoker:           invoker,
		promptBuilder:     builder,
		logger:            logger,
		currentGovernment: currentGovernment,
		topicList:         strings.Join(topics, ", "),
		ministryList:      strings.Join(ministries, ", "),
		knownTopics:       toSet(topics),
		knownMinistries:   toSet(ministries),
		preset:            PresetPrecise,
		maxTokens:         512,
	}
}

type llmParse struct {
	IntentType string `json:"intent_type"`
	Operation  string `json:"operation"`
	Entities   struct {
		GovernmentNumber *int     `json:"government_number"`
		DecisionNumber   *int     `json:"decision_number"`
		Topic            string   `json:"topic"`
		Limit            *int     `json:"limit"`
		Ministries       []string `json:"ministries"`
		ComparisonTarget string   `json:"comparison_target"`
	} `json:"entities"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

func (p *FallbackParser) Parse(ctx context.Context, query string) (*domain.ClassificationResult, *GenerateMetadata, error) {
	sanitized := sanitizeInput(query)
	if sanitized == "" {
		return nil, nil, fmt.Errorf("empty query for model parse")
	}

	data := prompt.FallbackParseData{
		UserQuery:         sanitized,
		CurrentGovernment: p.currentGovernment,
		TopicList:         p.topicList,
		MinistryList:      p.ministryList,
	}

	promptText, err := p.promptBuilder.Render(prompt.TemplateFallbackParse, data)
	if err != nil {
		p.logger.Error("Failed to render parse template, using fallback", zap.Error(err))
		promptText = prompt.FallbackParse(data)
	}

	var out llmParse
	metadata, err := p.invoker.GenerateJSON(ctx, promptText, p.preset, &out, &GenerateOptions{
		Overrides: &ModelConfig{MaxOutputTokens: p.maxTokens},
	})
	if err != nil {
		return nil, metadata, err
	}

	result, err := p.toResult(out)
	if err != nil {
		return nil, metadata, err
	}
	return result, metadata, nil
}

// toResult validates the model output against the closed intent and
// entity vocabulary. Anything off-vocabulary is dropped rather than
// passed downstream.
func (p *FallbackParser) toResult(out llmParse) (*domain.ClassificationResult, error) {
	intentType := domain.IntentType(strings.ToUpper(strings.TrimSpace(out.IntentType)))
	if !intentType.IsValid() {
		return nil, fmt.Errorf("model returned unknown intent type %q", out.IntentType)
	}

	core := domain.EntityCore{
		GovernmentNumber: out.Entities.GovernmentNumber,
		DecisionNumber:   out.Entities.DecisionNumber,
		Limit:            out.Entities.Limit,
		ComparisonTarget: strings.TrimSpace(out.Entities.ComparisonTarget),
	}

	if topic := strings.TrimSpace(out.Entities.Topic); topic != "" {
		if _, ok := p.knownTopics[topic]; ok {
			core.Topic = topic
		} else {
			p.logger.Debug("Dropping off-vocabulary topic from model parse", zap.String("topic", topic))
		}
	}
	for _, ministry := range out.Entities.Ministries {
		if _, ok := p.knownMinistries[ministry]; ok {
			core.Ministries = append(core.Ministries, ministry)
		}
	}

	if core.DecisionNumber != nil && core.GovernmentNumber == nil {
		core.GovernmentNumber = domain.IntPtr(p.currentGovernment)
	}

	confidence := out.Confidence
	if confidence <= 0 {
		confidence = 0.1
	}
	if confidence > 1 {
		confidence = 1
	}

	explanation := "Model-assisted parse"
	if reasoning := strings.TrimSpace(out.Reasoning); reasoning != "" {
		explanation = "Model-assisted parse: " + reasoning
	}

	result := &domain.ClassificationResult{
		Intent:      intentType,
		Confidence:  confidence,
		Explanation: explanation,
	}

	switch intentType {
	case domain.IntentQuery:
		op := domain.Operation(strings.TrimSpace(out.Operation))
		switch op {
		case domain.OperationSearch, domain.OperationCount, domain.OperationCompare, domain.OperationSpecificDecision:
		default:
			op = domain.OperationSearch
		}
		result.Entities = &domain.QueryEntities{EntityCore: core, Operation: op}
		result.RouteFlags = domain.RouteFlags{
			IsStatistical: op == domain.OperationCount,
			IsComparison:  op == domain.OperationCompare,
		}
	case domain.IntentEval:
		result.Entities = &domain.EvalEntities{EntityCore: core}
	case domain.IntentReference:
		// The model path cannot distinguish positional flavors reliably;
		// continuity resolves against the last shown decision.
		result.Entities = &domain.ReferenceEntities{
			EntityCore:    core,
			ReferenceType: domain.ReferenceTypeContinuity,
		}
		result.RouteFlags = domain.RouteFlags{NeedsContext: true}
	case domain.IntentClarification:
		result.Entities = &domain.ClarificationEntities{EntityCore: core}
	}

	return result, nil
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}
