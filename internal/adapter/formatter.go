package adapter

import (
	"fmt"
	"strings"
	"time"

	"github.com/opengovchat/decision-bot-go/internal/constants"
	"github.com/opengovchat/decision-bot-go/internal/domain"
	"github.com/opengovchat/decision-bot-go/internal/util"
)

// ResponseFormatter renders Hebrew chat replies for every intent outcome.
// It is the built-in rendering path; when an external formatter bot is
// configured its output takes precedence and these methods act as fallback.
type ResponseFormatter struct {
	currentGovernment int
}

// NewResponseFormatter creates a new ResponseFormatter.
func NewResponseFormatter(currentGovernment int) *ResponseFormatter {
	return &ResponseFormatter{currentGovernment: currentGovernment}
}

// FormatDecisionList formats search results into a numbered message.
func (f *ResponseFormatter) FormatDecisionList(results []domain.Decision, total int) string {
	if len(results) == 0 {
		return f.FormatEmpty(nil)
	}

	shown := util.Min(len(results), constants.InputLimits.MaxResultsPerMsg)

	var sb strings.Builder
	if total > shown {
		sb.WriteString(fmt.Sprintf("📋 נמצאו %d החלטות (מציג %d):\n\n", total, shown))
	} else {
		sb.WriteString(fmt.Sprintf("📋 נמצאו %d החלטות:\n\n", shown))
	}

	for i := 0; i < shown; i++ {
		d := results[i]
		title := util.TruncateString(d.Title, constants.StringLimits.DecisionLine)

		sb.WriteString(fmt.Sprintf("%d. החלטה %d (ממשלה %d)\n", i+1, d.DecisionNumber, d.GovernmentNumber))
		sb.WriteString(fmt.Sprintf("   %s\n", title))
		if d.DecisionDate != "" {
			sb.WriteString(fmt.Sprintf("   📅 %s\n", formatDate(d.DecisionDate)))
		}
		if d.URL != "" {
			sb.WriteString(fmt.Sprintf("   🔗 %s\n", d.URL))
		}
		if i < shown-1 {
			sb.WriteString("\n")
		}
	}

	return f.clamp(sb.String())
}

// FormatDecision formats a single decision in full detail.
func (f *ResponseFormatter) FormatDecision(d *domain.Decision) string {
	if d == nil {
		return f.FormatEmpty(nil)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📄 החלטה %d של ממשלה %d\n\n", d.DecisionNumber, d.GovernmentNumber))
	sb.WriteString(fmt.Sprintf("%s\n", d.Title))

	if d.DecisionDate != "" {
		sb.WriteString(fmt.Sprintf("\n📅 %s", formatDate(d.DecisionDate)))
	}
	if d.Topic != "" {
		sb.WriteString(fmt.Sprintf("\n🏷️ %s", util.TruncateString(d.Topic, constants.StringLimits.TopicValue)))
	}
	if len(d.Ministries) > 0 {
		sb.WriteString(fmt.Sprintf("\n🏛️ %s", strings.Join(d.Ministries, ", ")))
	}
	if d.Operativity != "" {
		sb.WriteString(fmt.Sprintf("\n⚙️ החלטה %s", d.Operativity))
	}

	if content := strings.TrimSpace(d.Content); content != "" {
		sb.WriteString("\n\n")
		sb.WriteString(content)
	}

	if d.URL != "" {
		sb.WriteString(fmt.Sprintf("\n\n🔗 %s", d.URL))
	}

	return f.clamp(sb.String())
}

// FormatCount formats a statistical count answer with its query scope.
func (f *ResponseFormatter) FormatCount(core *domain.EntityCore, total int) string {
	scope := f.describeScope(core)
	if total == 0 {
		return fmt.Sprintf("📊 לא נמצאו החלטות%s.", scope)
	}
	if total == 1 {
		return fmt.Sprintf("📊 נמצאה החלטה אחת%s.", scope)
	}
	return fmt.Sprintf("📊 נמצאו %d החלטות%s.", total, scope)
}

// FormatComparison formats labelled count buckets side by side.
func (f *ResponseFormatter) FormatComparison(core *domain.EntityCore, buckets []domain.CountBucket) string {
	if len(buckets) == 0 {
		return f.FormatEmpty(core)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📊 השוואה%s:\n\n", f.describeScope(core)))
	for _, b := range buckets {
		sb.WriteString(fmt.Sprintf("• %s: %d החלטות\n", b.Label, b.Count))
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// FormatEvalReport formats a deep-analysis answer for one decision.
func (f *ResponseFormatter) FormatEvalReport(d *domain.Decision, score float64, report string) string {
	var sb strings.Builder

	if d != nil {
		sb.WriteString(fmt.Sprintf("🔍 ניתוח החלטה %d (ממשלה %d)\n", d.DecisionNumber, d.GovernmentNumber))
		if d.Title != "" {
			sb.WriteString(fmt.Sprintf("%s\n", util.TruncateString(d.Title, constants.StringLimits.DecisionLine)))
		}
		sb.WriteString("\n")
	} else {
		sb.WriteString("🔍 ניתוח החלטה\n\n")
	}

	if score > 0 {
		sb.WriteString(fmt.Sprintf("ציון ישימות: %.1f/10\n\n", score))
	}

	sb.WriteString(strings.TrimSpace(report))
	return f.clamp(sb.String())
}

// FormatEmpty formats the no-results answer for a query scope.
func (f *ResponseFormatter) FormatEmpty(core *domain.EntityCore) string {
	return fmt.Sprintf("🔍 לא נמצאו החלטות%s.\nנסו לנסח מחדש או להרחיב את החיפוש.", f.describeScope(core))
}

// FormatClarification renders the deterministic follow-up question for an
// ambiguous utterance. The AI polish layer replaces this text when available.
func (f *ResponseFormatter) FormatClarification(result *domain.ClassificationResult) string {
	ents, _ := result.Entities.(*domain.ClarificationEntities)

	if ents != nil && ents.AmbiguityType == domain.AmbiguityGovernmentOrDecision && ents.AmbiguousNumber != nil {
		n := *ents.AmbiguousNumber
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("המספר %d יכול להיות מספר ממשלה או מספר החלטה. למה התכוונתם?\n\n", n))
		sb.WriteString(fmt.Sprintf("• החלטה מספר %d של ממשלה %d\n", n, f.currentGovernment))
		sb.WriteString(fmt.Sprintf("• החלטות של ממשלה %d\n\n", n))
		sb.WriteString(fmt.Sprintf("אפשר לענות למשל: \"החלטה %d\" או \"ממשלה %d\".", n, n))
		return sb.String()
	}

	if ents != nil && ents.Topic != "" {
		return fmt.Sprintf("הבנתי שמדובר בנושא %s, אבל לא את סוג הבקשה.\nאפשר לשאול למשל: \"החלטות בנושא %s\" או \"כמה החלטות בנושא %s\".",
			ents.Topic, ents.Topic, ents.Topic)
	}

	return fmt.Sprintf("לא הצלחתי להבין את הבקשה. אפשר לנסח מחדש?\nלדוגמה: \"החלטות ממשלה %d בנושא חינוך\" או \"החלטה 2983\".",
		f.currentGovernment)
}

// FormatReanchorPrompt asks the user to restate an unresolvable reference.
func (f *ResponseFormatter) FormatReanchorPrompt() string {
	return fmt.Sprintf("🔗 לא הצלחתי לזהות לאיזו החלטה הכוונה.\nציינו מספר ממשלה ומספר החלטה, למשל: \"החלטה 550 של ממשלה %d\".",
		f.currentGovernment)
}

// FormatServiceError formats a friendly notice when a backend is down.
func (f *ResponseFormatter) FormatServiceError(service string) string {
	name := serviceDisplayName(service)
	return fmt.Sprintf("⚠️ %s אינו זמין כרגע. נסו שוב בעוד מספר דקות.", name)
}

// describeScope builds the Hebrew qualifier chain for a query's entities,
// e.g. " של ממשלה 37 בנושא חינוך".
func (f *ResponseFormatter) describeScope(core *domain.EntityCore) string {
	if core == nil {
		return ""
	}

	var sb strings.Builder
	if core.GovernmentNumber != nil {
		sb.WriteString(fmt.Sprintf(" של ממשלה %d", *core.GovernmentNumber))
	}
	if core.Topic != "" {
		sb.WriteString(fmt.Sprintf(" בנושא %s", util.TruncateString(core.Topic, constants.StringLimits.TopicValue)))
	}
	if len(core.Ministries) > 0 {
		sb.WriteString(fmt.Sprintf(" בתחום %s", strings.Join(core.Ministries, ", ")))
	}
	if core.DateRange != nil && core.DateRange.IsValid() {
		sb.WriteString(fmt.Sprintf(" בין %s ל-%s", formatDate(core.DateRange.Start), formatDate(core.DateRange.End)))
	}
	return sb.String()
}

func (f *ResponseFormatter) clamp(s string) string {
	return util.TruncateString(s, constants.StringLimits.ReplyText)
}

// formatDate converts an ISO date to the Israeli day.month.year form.
func formatDate(iso string) string {
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return iso
	}
	return t.Format("02.01.2006")
}

func serviceDisplayName(service string) string {
	switch service {
	case "sqlgen":
		return "שירות החיפוש"
	case "evaluator":
		return "שירות הניתוח"
	case "ranker":
		return "שירות הדירוג"
	case "formatter":
		return "שירות העיצוב"
	default:
		return "השירות"
	}
}
