package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/opengovchat/decision-bot-go/internal/constants"
	"github.com/opengovchat/decision-bot-go/internal/prompt"
	"github.com/opengovchat/decision-bot-go/internal/util"
	"go.uber.org/zap"
)

// Summarizer condenses a long evaluation report into a chat-sized Hebrew
// reply. When it fails the caller truncates the report instead.
type Summarizer struct {
	invoker       ModelInvoker
	promptBuilder *prompt.PromptBuilder
	logger        *zap.Logger
	preset        ModelPreset
	maxTokens     int
}

func NewSummarizer(invoker ModelInvoker, builder *prompt.PromptBuilder, logger *zap.Logger) *Summarizer {
	return &Summarizer{
		invoker:       invoker,
		promptBuilder: builder,
		logger:        logger,
		preset:        PresetBalanced,
		maxTokens:     1024,
	}
}

type summaryReply struct {
	Summary string `json:"summary"`
}

func (s *Summarizer) Summarize(ctx context.Context, query, report string) (string, *GenerateMetadata, error) {
	report = strings.TrimSpace(report)
	if report == "" {
		return "", nil, fmt.Errorf("empty report to summarize")
	}

	data := prompt.AnswerSummaryData{
		UserQuery:  sanitizeInput(query),
		Report:     report,
		MaxLength:  constants.StringLimits.ReplyText,
		TargetLang: "Hebrew",
	}

	promptText, err := s.promptBuilder.Render(prompt.TemplateAnswerSummary, data)
	if err != nil {
		s.logger.Error("Failed to render summary template, using fallback", zap.Error(err))
		promptText = prompt.FallbackAnswerSummary(data)
	}

	var reply summaryReply
	metadata, err := s.invoker.GenerateJSON(ctx, promptText, s.preset, &reply, &GenerateOptions{
		Overrides: &ModelConfig{MaxOutputTokens: s.maxTokens},
	})
	if err != nil {
		return "", metadata, err
	}

	summary := strings.TrimSpace(reply.Summary)
	if summary == "" {
		return "", metadata, fmt.Errorf("model returned an empty summary")
	}

	return util.TruncateString(summary, constants.StringLimits.ReplyText), metadata, nil
}
