package prompt

import (
	"fmt"
	"strings"
)

// The Fallback* builders mirror the embedded templates so a template
// load failure degrades to a working prompt instead of an error reply.

func FallbackClarifyPolish(data ClarifyPolishData) string {
	history := ""
	if len(data.History) > 0 {
		history = "\n\nConversation so far, oldest first:\n" + strings.Join(data.History, "\n")
	}

	ambiguity := ""
	if data.AmbiguousNumber > 0 {
		ambiguity = fmt.Sprintf("\nThe number %d is ambiguous: it could mean government %d, or decision number %d of government %d.",
			data.AmbiguousNumber, data.AmbiguousNumber, data.AmbiguousNumber, data.CurrentGovernment)
	}

	return fmt.Sprintf(`You are the clarification voice of a Hebrew chatbot that answers questions about Israeli government decisions.

The user asked: "%s"%s

The router cannot answer yet. Internal reason: "%s"%s

Return JSON that follows this structure exactly:
{
  "message": "<one short Hebrew follow-up question that tells the user exactly what detail to add>"
}

CRITICAL Guidelines:
- The message MUST be written in Hebrew
- Ask only for the missing detail named in the internal reason
- DO NOT answer the question yourself and DO NOT guess what the user meant
- Keep it to a single polite sentence, no emojis, no formatting
- Do not add any text outside the JSON object
`, data.UserQuery, history, data.Explanation, ambiguity)
}

func FallbackParse(data FallbackParseData) string {
	return fmt.Sprintf(`You are a natural language parser for a Hebrew chatbot about Israeli government decisions.
Parse the user's Hebrew query and produce a routing decision.

## Known Topics:
%s

## Known Ministries:
%s

## Intent Types:
1. **QUERY** - data lookup; operation: search | count | compare | specific_decision
2. **EVAL** - deep analysis of one named decision
3. **REFERENCE** - points back at something shown earlier
4. **CLARIFICATION** - too ambiguous to route

## User Query:
"%s"

## Response Format (JSON ONLY):
{
  "intent_type": "QUERY|EVAL|REFERENCE|CLARIFICATION",
  "operation": "search|count|compare|specific_decision or empty string",
  "entities": {
    "government_number": number or null,
    "decision_number": number or null,
    "topic": "canonical topic from the known list, or empty",
    "limit": number or null,
    "ministries": ["canonical ministry names from the known list"],
    "comparison_target": "for compare, e.g. governments:36,37"
  },
  "confidence": 0.0-1.0,
  "reasoning": "Brief explanation (max 10 words)"
}

**Rules**:
- "topic" MUST be copied exactly from the Known Topics list; if none fits, leave it empty
- A named decision without a government means government %d
- When the query cannot be routed, return intent_type "CLARIFICATION" with low confidence
- Do not add any text outside the JSON object
`, data.TopicList, data.MinistryList, data.UserQuery, data.CurrentGovernment)
}

func FallbackAnswerSummary(data AnswerSummaryData) string {
	return fmt.Sprintf(`Summarize an analysis report into a short chat reply.

## User Question:
"%s"

## Report:
%s

Return JSON that follows this structure exactly:
{
  "summary": "<the chat reply>"
}

**Rules**:
- The summary MUST be written in %s
- At most %d characters
- Keep the bottom line and every concrete number or score from the report
- Plain text inside the summary, no headings, no markdown, no emojis
- Do not add any text outside the JSON object
`, data.UserQuery, data.Report, data.TargetLang, data.MaxLength)
}
