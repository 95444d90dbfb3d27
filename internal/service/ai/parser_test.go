package ai

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/opengovchat/decision-bot-go/internal/domain"
	"github.com/opengovchat/decision-bot-go/internal/prompt"
	"github.com/opengovchat/decision-bot-go/internal/service/intent"
	"go.uber.org/zap"
)

// cannedInvoker feeds a fixed JSON payload into dest, standing in for a
// live model.
type cannedInvoker struct {
	payload string
}

func (c *cannedInvoker) GenerateJSON(_ context.Context, _ string, _ ModelPreset, dest any, _ *GenerateOptions) (*GenerateMetadata, error) {
	if err := json.Unmarshal([]byte(c.payload), dest); err != nil {
		return nil, err
	}
	return &GenerateMetadata{Provider: "Canned", Model: "test-model"}, nil
}

func testParser(payload string) *FallbackParser {
	return NewFallbackParser(
		&cannedInvoker{payload: payload},
		prompt.NewPromptBuilder(),
		intent.NewLibrary(),
		37,
		zap.NewNop(),
	)
}

func TestParseEndToEnd(t *testing.T) {
	p := testParser(`{
		"intent_type": "QUERY",
		"operation": "search",
		"entities": {"topic": "חינוך", "limit": 5},
		"confidence": 0.65,
		"reasoning": "topic search"
	}`)

	result, meta, err := p.Parse(context.Background(), "תראה לי דברים על בתי ספר")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if meta == nil || meta.Provider != "Canned" {
		t.Errorf("metadata = %+v", meta)
	}
	q, ok := result.Entities.(*domain.QueryEntities)
	if !ok {
		t.Fatalf("entities type %T", result.Entities)
	}
	if q.Operation != domain.OperationSearch || q.Topic != "חינוך" {
		t.Errorf("got %s topic=%q", q.Operation, q.Topic)
	}
	if q.Limit == nil || *q.Limit != 5 {
		t.Error("limit should pass through")
	}
}

func TestToResultQueryMapping(t *testing.T) {
	p := testParser("")

	out := llmParse{
		IntentType: "query",
		Operation:  "count",
		Confidence: 0.8,
		Reasoning:  "counting request",
	}
	out.Entities.Topic = "חינוך"
	out.Entities.DecisionNumber = domain.IntPtr(2983)

	result, err := p.toResult(out)
	if err != nil {
		t.Fatalf("toResult failed: %v", err)
	}

	if result.Intent != domain.IntentQuery {
		t.Errorf("intent = %s", result.Intent)
	}
	q, ok := result.Entities.(*domain.QueryEntities)
	if !ok {
		t.Fatalf("entities type %T", result.Entities)
	}
	if q.Operation != domain.OperationCount {
		t.Errorf("operation = %s", q.Operation)
	}
	if q.Topic != "חינוך" {
		t.Errorf("topic = %q", q.Topic)
	}
	if q.GovernmentNumber == nil || *q.GovernmentNumber != 37 {
		t.Error("a named decision without a government should default to the current one")
	}
	if !result.RouteFlags.IsStatistical {
		t.Error("count must set the statistical flag")
	}
	if !strings.Contains(result.Explanation, "counting request") {
		t.Errorf("explanation = %q", result.Explanation)
	}
}

func TestToResultDropsOffVocabulary(t *testing.T) {
	p := testParser("")

	out := llmParse{IntentType: "QUERY", Operation: "search", Confidence: 0.7}
	out.Entities.Topic = "נושא שאינו קיים"
	out.Entities.Ministries = []string{"משרד החינוך", "משרד שלא קיים"}

	result, err := p.toResult(out)
	if err != nil {
		t.Fatalf("toResult failed: %v", err)
	}

	core := result.Entities.Core()
	if core.Topic != "" {
		t.Errorf("unknown topic should be dropped, got %q", core.Topic)
	}
	if len(core.Ministries) != 1 || core.Ministries[0] != "משרד החינוך" {
		t.Errorf("ministries = %v", core.Ministries)
	}
}

func TestToResultRejectsUnknownIntent(t *testing.T) {
	p := testParser("")
	if _, err := p.toResult(llmParse{IntentType: "SOMETHING_ELSE"}); err == nil {
		t.Error("expected an error for an unknown intent type")
	}
}

func TestToResultReferenceNeedsContext(t *testing.T) {
	p := testParser("")

	result, err := p.toResult(llmParse{IntentType: "REFERENCE", Confidence: 0.6})
	if err != nil {
		t.Fatalf("toResult failed: %v", err)
	}

	if !result.RouteFlags.NeedsContext {
		t.Error("reference parses must need context")
	}
	ents, ok := result.Entities.(*domain.ReferenceEntities)
	if !ok {
		t.Fatalf("entities type %T", result.Entities)
	}
	if ents.ReferenceType != domain.ReferenceTypeContinuity {
		t.Errorf("reference type = %q", ents.ReferenceType)
	}
}

func TestToResultClampsConfidence(t *testing.T) {
	p := testParser("")

	low, err := p.toResult(llmParse{IntentType: "CLARIFICATION", Confidence: -2})
	if err != nil {
		t.Fatalf("toResult failed: %v", err)
	}
	if low.Confidence <= 0 || low.Confidence > 1 {
		t.Errorf("confidence = %f, want (0,1]", low.Confidence)
	}

	high, err := p.toResult(llmParse{IntentType: "CLARIFICATION", Confidence: 3})
	if err != nil {
		t.Fatalf("toResult failed: %v", err)
	}
	if high.Confidence != 1 {
		t.Errorf("confidence = %f, want 1", high.Confidence)
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  מה\x00\x1fקורה   עם זה  "); got != "מה קורה עם זה" {
		t.Errorf("sanitized = %q", got)
	}
	if got := sanitizeInput("\x01\x02"); got != "" {
		t.Errorf("control-only input should sanitize to empty, got %q", got)
	}
}
