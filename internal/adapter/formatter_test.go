package adapter

import (
	"strings"
	"testing"

	"github.com/opengovchat/decision-bot-go/internal/domain"
)

func sampleDecisions() []domain.Decision {
	return []domain.Decision{
		{
			GovernmentNumber: 37,
			DecisionNumber:   2983,
			Title:            "הרחבת תוכנית החומש לחינוך",
			DecisionDate:     "2023-03-15",
			URL:              "https://www.gov.il/he/pages/dec2983",
		},
		{
			GovernmentNumber: 37,
			DecisionNumber:   550,
			Title:            "תוכנית לאומית לבריאות דיגיטלית",
			DecisionDate:     "2023-01-08",
		},
	}
}

func TestFormatDecisionList(t *testing.T) {
	f := NewResponseFormatter(37)

	msg := f.FormatDecisionList(sampleDecisions(), 2)

	for _, want := range []string{
		"נמצאו 2 החלטות",
		"1. החלטה 2983 (ממשלה 37)",
		"2. החלטה 550 (ממשלה 37)",
		"הרחבת תוכנית החומש לחינוך",
		"📅 15.03.2023",
		"🔗 https://www.gov.il/he/pages/dec2983",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("list missing %q in:\n%s", want, msg)
		}
	}
}

func TestFormatDecisionListShowsPartialTotal(t *testing.T) {
	f := NewResponseFormatter(37)

	msg := f.FormatDecisionList(sampleDecisions(), 40)

	if !strings.Contains(msg, "נמצאו 40 החלטות (מציג 2)") {
		t.Errorf("header should report total and shown counts, got:\n%s", msg)
	}
}

func TestFormatDecisionDetail(t *testing.T) {
	f := NewResponseFormatter(37)
	d := &domain.Decision{
		GovernmentNumber: 36,
		DecisionNumber:   300,
		Title:            "חיזוק מערך הסייבר הלאומי",
		Topic:            "ביטחון",
		Ministries:       []string{"משרד הביטחון", "משרד האוצר"},
		Operativity:      "אופרטיבית",
		DecisionDate:     "2021-06-01",
		Content:          "הממשלה מחליטה להקים מנגנון תיאום בין-משרדי.",
	}

	msg := f.FormatDecision(d)

	for _, want := range []string{
		"📄 החלטה 300 של ממשלה 36",
		"חיזוק מערך הסייבר הלאומי",
		"📅 01.06.2021",
		"🏷️ ביטחון",
		"משרד הביטחון, משרד האוצר",
		"⚙️ החלטה אופרטיבית",
		"מנגנון תיאום",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("detail missing %q in:\n%s", want, msg)
		}
	}
}

func TestFormatCount(t *testing.T) {
	f := NewResponseFormatter(37)
	core := &domain.EntityCore{
		GovernmentNumber: domain.IntPtr(37),
		Topic:            "חינוך",
	}

	msg := f.FormatCount(core, 145)
	if !strings.Contains(msg, "נמצאו 145 החלטות של ממשלה 37 בנושא חינוך") {
		t.Errorf("count scope wrong: %s", msg)
	}

	if msg := f.FormatCount(core, 1); !strings.Contains(msg, "נמצאה החלטה אחת") {
		t.Errorf("singular form wrong: %s", msg)
	}

	if msg := f.FormatCount(core, 0); !strings.Contains(msg, "לא נמצאו החלטות") {
		t.Errorf("zero form wrong: %s", msg)
	}
}

func TestFormatComparison(t *testing.T) {
	f := NewResponseFormatter(37)
	core := &domain.EntityCore{Topic: "בריאות"}
	buckets := []domain.CountBucket{
		{Label: "ממשלה 36", Count: 120},
		{Label: "ממשלה 37", Count: 95},
	}

	msg := f.FormatComparison(core, buckets)

	for _, want := range []string{
		"השוואה בנושא בריאות",
		"• ממשלה 36: 120 החלטות",
		"• ממשלה 37: 95 החלטות",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("comparison missing %q in:\n%s", want, msg)
		}
	}
}

func TestFormatEvalReport(t *testing.T) {
	f := NewResponseFormatter(37)
	d := &domain.Decision{GovernmentNumber: 37, DecisionNumber: 2983, Title: "הרחבת תוכנית החומש לחינוך"}

	msg := f.FormatEvalReport(d, 7.5, "ההחלטה כוללת לוח זמנים מחייב ותקציב ייעודי.")

	for _, want := range []string{
		"🔍 ניתוח החלטה 2983 (ממשלה 37)",
		"ציון ישימות: 7.5/10",
		"לוח זמנים מחייב",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("eval report missing %q in:\n%s", want, msg)
		}
	}
}

func TestFormatClarificationAmbiguousNumber(t *testing.T) {
	f := NewResponseFormatter(37)
	result := &domain.ClassificationResult{
		Intent: domain.IntentClarification,
		Entities: &domain.ClarificationEntities{
			AmbiguousNumber: domain.IntPtr(15),
			AmbiguityType:   domain.AmbiguityGovernmentOrDecision,
		},
	}

	msg := f.FormatClarification(result)

	for _, want := range []string{
		"המספר 15",
		"החלטה מספר 15 של ממשלה 37",
		"החלטות של ממשלה 15",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("ambiguity prompt missing %q in:\n%s", want, msg)
		}
	}
}

func TestFormatClarificationWithTopic(t *testing.T) {
	f := NewResponseFormatter(37)
	result := &domain.ClassificationResult{
		Intent:   domain.IntentClarification,
		Entities: &domain.ClarificationEntities{EntityCore: domain.EntityCore{Topic: "חינוך"}},
	}

	msg := f.FormatClarification(result)
	if !strings.Contains(msg, "בנושא חינוך") {
		t.Errorf("topic prompt should echo the topic, got:\n%s", msg)
	}
}

func TestFormatClarificationDefault(t *testing.T) {
	f := NewResponseFormatter(37)
	result := &domain.ClassificationResult{
		Intent:   domain.IntentClarification,
		Entities: &domain.ClarificationEntities{},
	}

	msg := f.FormatClarification(result)
	if !strings.Contains(msg, "לנסח מחדש") {
		t.Errorf("default prompt should ask for a rephrase, got:\n%s", msg)
	}
	if !strings.Contains(msg, "ממשלה 37") {
		t.Errorf("default prompt should include a current-government example, got:\n%s", msg)
	}
}

func TestFormatDateFallsBackToRaw(t *testing.T) {
	if got := formatDate("not-a-date"); got != "not-a-date" {
		t.Errorf("expected raw passthrough, got %q", got)
	}
	if got := formatDate("2023-03-15"); got != "15.03.2023" {
		t.Errorf("expected 15.03.2023, got %q", got)
	}
}
