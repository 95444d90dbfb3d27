package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/opengovchat/decision-bot-go/internal/constants"
	"github.com/opengovchat/decision-bot-go/internal/domain"
	"github.com/opengovchat/decision-bot-go/internal/prompt"
	"github.com/opengovchat/decision-bot-go/internal/service/cache"
	"github.com/opengovchat/decision-bot-go/internal/service/intent"
	"github.com/opengovchat/decision-bot-go/internal/util"
	"go.uber.org/zap"
)

const topicSampleSize = 8

// Clarifier rephrases a deterministic clarification into a friendly
// Hebrew follow-up question. It never re-decides the intent; when the
// model is unavailable the router keeps the deterministic wording.
type Clarifier struct {
	invoker           ModelInvoker
	promptBuilder     *prompt.PromptBuilder
	cache             *cache.CacheService
	logger            *zap.Logger
	currentGovernment int
	topicSample       string
	preset            ModelPreset
	maxTokens         int
}

// NewClarifier accepts a nil cache; generated questions are then not
// reused across identical queries.
func NewClarifier(
	invoker ModelInvoker,
	builder *prompt.PromptBuilder,
	cacheService *cache.CacheService,
	library *intent.Library,
	currentGovernment int,
	logger *zap.Logger,
) *Clarifier {
	topics := library.CanonicalTopics()
	if len(topics) > topicSampleSize {
		topics = topics[:topicSampleSize]
	}

	return &Clarifier{
		invoker:           invoker,
		promptBuilder:     builder,
		cache:             cacheService,
		logger:            logger,
		currentGovernment: currentGovernment,
		topicSample:       strings.Join(topics, ", "),
		preset:            PresetBalanced,
		maxTokens:         256,
	}
}

type clarifyReply struct {
	Message string `json:"message"`
}

// Polish rewrites the deterministic clarification for one classified
// query. Recent conversation turns, when provided, are folded into the
// prompt so the follow-up question reads in context.
func (c *Clarifier) Polish(ctx context.Context, query string, result *domain.ClassificationResult, history []domain.ConversationTurn) (string, *GenerateMetadata, error) {
	if result == nil || result.Intent != domain.IntentClarification {
		return "", nil, fmt.Errorf("clarifier needs a clarification result, got %v", resultIntent(result))
	}

	sanitized := sanitizeInput(query)
	if sanitized == "" {
		return "", nil, fmt.Errorf("empty query for clarification")
	}

	lines := historyLines(history)

	cacheKey := clarifyCacheKey(sanitized, result.Explanation, lines)
	if c.cache != nil {
		var cached string
		if err := c.cache.Get(ctx, cacheKey, &cached); err == nil && cached != "" {
			return cached, &GenerateMetadata{Provider: "Cache"}, nil
		}
	}

	data := prompt.ClarifyPolishData{
		UserQuery:         sanitized,
		Explanation:       result.Explanation,
		CurrentGovernment: c.currentGovernment,
		TopicSample:       c.topicSample,
		History:           lines,
	}
	if ents, ok := result.Entities.(*domain.ClarificationEntities); ok && ents.AmbiguousNumber != nil {
		data.AmbiguousNumber = *ents.AmbiguousNumber
	}

	promptText, err := c.promptBuilder.Render(prompt.TemplateClarifyPolish, data)
	if err != nil {
		c.logger.Error("Failed to render clarify template, using fallback", zap.Error(err))
		promptText = prompt.FallbackClarifyPolish(data)
	}

	var reply clarifyReply
	metadata, err := c.invoker.GenerateJSON(ctx, promptText, c.preset, &reply, &GenerateOptions{
		Overrides: &ModelConfig{MaxOutputTokens: c.maxTokens},
	})
	if err != nil {
		return "", metadata, err
	}

	message := strings.TrimSpace(reply.Message)
	if message == "" {
		return "", metadata, fmt.Errorf("model returned an empty clarification")
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, cacheKey, message, constants.CacheTTL.ClarifyResponse); err != nil {
			c.logger.Warn("Failed to cache clarification", zap.Error(err))
		}
	}

	return message, metadata, nil
}

// historyLines renders persisted turns as "speaker: text" prompt lines.
// Empty turns are dropped, long ones truncated.
func historyLines(history []domain.ConversationTurn) []string {
	if len(history) == 0 {
		return nil
	}
	lines := make([]string, 0, len(history))
	for _, turn := range history {
		text := util.TruncateString(strings.TrimSpace(turn.Text), constants.StringLimits.DecisionLine)
		if text == "" {
			continue
		}
		speaker := "משתמש"
		if turn.Role == domain.RoleBot {
			speaker = "בוט"
		}
		lines = append(lines, speaker+": "+text)
	}
	return lines
}

func clarifyCacheKey(query, explanation string, history []string) string {
	sum := sha256.Sum256([]byte(query + "\x00" + explanation + "\x00" + strings.Join(history, "\n")))
	return "clarify:reply:" + hex.EncodeToString(sum[:8])
}

func resultIntent(result *domain.ClassificationResult) domain.IntentType {
	if result == nil {
		return ""
	}
	return result.Intent
}
