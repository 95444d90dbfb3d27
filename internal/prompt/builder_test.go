package prompt

import (
	"strings"
	"testing"
)

func TestPreloadParsesAllTemplates(t *testing.T) {
	if err := NewPromptBuilder().Preload(); err != nil {
		t.Fatalf("Preload failed: %v", err)
	}
}

func TestRenderClarifyPolish(t *testing.T) {
	pb := NewPromptBuilder()

	t.Run("with ambiguous number", func(t *testing.T) {
		out, err := pb.Render(TemplateClarifyPolish, ClarifyPolishData{
			UserQuery:         "15",
			Explanation:       "Number could be government or decision",
			AmbiguousNumber:   15,
			CurrentGovernment: 37,
		})
		if err != nil {
			t.Fatalf("Render failed: %v", err)
		}
		if !strings.Contains(out, `"15"`) {
			t.Error("prompt should quote the user query")
		}
		if !strings.Contains(out, "government 15") || !strings.Contains(out, "government 37") {
			t.Error("prompt should spell out both readings of the number")
		}
	})

	t.Run("without ambiguous number", func(t *testing.T) {
		out, err := pb.Render(TemplateClarifyPolish, ClarifyPolishData{
			UserQuery:   "מה עם זה",
			Explanation: "Ambiguous pronoun reference",
		})
		if err != nil {
			t.Fatalf("Render failed: %v", err)
		}
		if strings.Contains(out, "is ambiguous:") {
			t.Error("ambiguity block should be omitted when no number is set")
		}
		if strings.Contains(out, "Conversation so far") {
			t.Error("history block should be omitted when no turns are given")
		}
	})

	t.Run("with history", func(t *testing.T) {
		out, err := pb.Render(TemplateClarifyPolish, ClarifyPolishData{
			UserQuery:   "ומה עם 500",
			Explanation: "Ambiguous pronoun reference",
			History:     []string{"משתמש: כמה החלטות בנושא חינוך", "בוט: נמצאו 12 החלטות"},
		})
		if err != nil {
			t.Fatalf("Render failed: %v", err)
		}
		if !strings.Contains(out, "Conversation so far, oldest first:") {
			t.Error("prompt should introduce the history block")
		}
		if !strings.Contains(out, "משתמש: כמה החלטות בנושא חינוך") || !strings.Contains(out, "בוט: נמצאו 12 החלטות") {
			t.Errorf("prompt missing history lines:\n%s", out)
		}
	})
}

func TestRenderFallbackParse(t *testing.T) {
	out, err := NewPromptBuilder().Render(TemplateFallbackParse, FallbackParseData{
		UserQuery:         "החלטות על משהו",
		CurrentGovernment: 37,
		TopicList:         "חינוך, בריאות",
		MinistryList:      "משרד החינוך",
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	for _, want := range []string{"חינוך, בריאות", "משרד החינוך", "government 37", "specific_decision"} {
		if !strings.Contains(out, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestFallbackBuildersNeedNoTemplates(t *testing.T) {
	out := FallbackClarifyPolish(ClarifyPolishData{
		UserQuery:       "15",
		Explanation:     "Number could be government or decision",
		AmbiguousNumber: 15, CurrentGovernment: 37,
		History: []string{"משתמש: שאלה קודמת"},
	})
	if !strings.Contains(out, "government 15") {
		t.Error("fallback should carry the ambiguity wording")
	}
	if !strings.Contains(out, "משתמש: שאלה קודמת") {
		t.Error("fallback should carry the history lines")
	}

	if FallbackParse(FallbackParseData{UserQuery: "x", CurrentGovernment: 37}) == "" {
		t.Error("fallback parse prompt should never be empty")
	}
}
