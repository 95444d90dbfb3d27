package intent

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/opengovchat/decision-bot-go/internal/domain"
)

// referenceSignal is the reference scorer's verdict. BareNumber carries a
// standalone numeric reply so the router can resolve it against the
// clarification prompt it answers.
type referenceSignal struct {
	Matched    bool
	Score      float64
	Type       string
	Position   int
	BareNumber *int
}

type evalSignal struct {
	Matched           bool
	Score             float64
	HasDecisionNumber bool
}

type querySignal struct {
	Matched   bool
	Score     float64
	Operation domain.Operation
}

// Clarification kinds, in the order the scorer tests them.
const (
	clarificationTooShort      = "too_short"
	clarificationVague         = "vague"
	clarificationIncomplete    = "incomplete"
	clarificationAmbiguousTerm = "ambiguous_term"
)

type clarificationSignal struct {
	Matched  bool
	Priority bool
	Kind     string
	Reason   string
}

// scoreReference accumulates conversation-reference cues. The weight of a
// content cue depends on whether the utterance already names a decision:
// "the content" without a decision number can only mean the previous one.
func (lib *Library) scoreReference(text string, hasDecisionNumber bool) referenceSignal {
	sig := referenceSignal{}
	score := 0.0

	if m := lib.bareGovernmentPattern.FindStringSubmatch(text); m != nil {
		score += weightBareNumberReply
		sig.Type = referenceTypeClarification
	} else if lib.bareNumberPattern.MatchString(text) {
		score += weightBareNumberReply
		sig.Type = referenceTypeClarification
		if n, err := strconv.Atoi(text); err == nil {
			sig.BareNumber = &n
		}
	}

	if containsAny(text, lib.sentPhrases) {
		score += weightSentPhrase
		if sig.Type == "" {
			sig.Type = referenceTypeSent
		}
	}

	for _, cue := range lib.positionalCues {
		if strings.Contains(text, cue.word) {
			score += weightPositional
			if sig.Type == "" || sig.Type == referenceTypeSent {
				sig.Type = cue.refType
			}
			if sig.Position == 0 {
				sig.Position = cue.position
			}
			break
		}
	}

	if containsAny(text, lib.contentCues) {
		if hasDecisionNumber {
			score += weightContentWithDecision
		} else {
			score += weightContentNoDecision
		}
		if sig.Type == "" {
			sig.Type = referenceTypeContent
		}
	} else if containsAny(text, lib.continuityPhrases) {
		score += weightContinuity
		if sig.Type == "" {
			sig.Type = referenceTypeContinuity
		}
	}

	if containsAny(text, lib.temporalWords) {
		score += weightTemporal
		if sig.Type == "" {
			sig.Type = referenceTypeTemporal
		}
	}

	if text == "עוד" || strings.HasPrefix(text, "עוד ") {
		score += weightMorePrefix
		if sig.Type == "" {
			sig.Type = referenceTypeContinuity
		}
	}

	for _, special := range lib.specialReferences {
		if strings.Contains(text, special.phrase) {
			score += special.weight
			if sig.Type == "" {
				sig.Type = special.refType
			}
			if sig.Position == 0 && special.position > 0 {
				sig.Position = special.position
			}
		}
	}

	sig.Score = capScore(score)
	sig.Matched = sig.Score >= thresholdGeneral
	return sig
}

// scoreEval accumulates deep-analysis cues. decisionNumberFound comes from
// the extractor so the scorer and extractor agree on what counts as an
// explicit decision number.
func (lib *Library) scoreEval(text string, decisionNumberFound bool) evalSignal {
	// "analyze all the decisions" is a bulk search, never a single eval
	if containsAny(text, lib.evalAllPhrases) {
		return evalSignal{}
	}

	score := 0.0
	hasDecision := false
	hasContent := containsAny(text, lib.contentCues)

	if containsAny(text, lib.evalVerbs) {
		if hasContent {
			score += weightEvalVerbWithContent
		} else {
			score += weightEvalVerb
		}
	}

	if matchesAny(lib.evalDecisionPatterns, text) {
		score += weightEvalDecisionPattern
		hasDecision = true
	}

	if decisionNumberFound {
		score += weightEvalNumberFound
		hasDecision = true
	}

	for phrase, bonus := range lib.evalPhraseBonuses {
		if strings.Contains(text, phrase) {
			score += bonus
		}
	}

	score = capScore(score)
	analyze := strings.Contains(text, "נתח") || strings.Contains(text, "ניתוח")
	matched := (score >= thresholdEvalStrict && hasDecision) ||
		(analyze && score >= thresholdEvalLoose)

	return evalSignal{Matched: matched, Score: score, HasDecisionNumber: hasDecision}
}

// scoreQuery accumulates lookup cues and picks the query operation.
// Comparison outranks count when both families match.
func (lib *Library) scoreQuery(text string) querySignal {
	score := 0.0
	operation := domain.OperationSearch

	for _, kw := range lib.searchKeywords {
		if strings.HasPrefix(text, kw) {
			score += weightSearchKeyword
			break
		}
	}
	if matchesAny(lib.searchPatterns, text) {
		score += weightSearchPattern
	}

	statHit := false
	if containsAny(text, lib.statKeywords) {
		score += weightStatKeyword
		statHit = true
	}
	if matchesAny(lib.statPatterns, text) {
		score += weightStatPattern
		statHit = true
	}
	if statHit {
		operation = domain.OperationCount
	}

	compareHit := false
	if containsAny(text, lib.compareKeywords) {
		score += weightCompareKeyword
		compareHit = true
	}
	if matchesAny(lib.comparePatterns, text) {
		score += weightComparePattern
		compareHit = true
	}
	if compareHit {
		operation = domain.OperationCompare
	}

	if strings.Contains(text, "החלטה") || strings.Contains(text, "החלטות") || strings.Contains(text, "החלטת") {
		score += weightGenericMention
	}
	if strings.Contains(text, "ממשלה") {
		score += weightGenericMention
	}

	score = capScore(score)
	return querySignal{Matched: score >= thresholdGeneral, Score: score, Operation: operation}
}

// scoreClarification tests the unclear-input rules in priority order and
// returns the first hit. hasExplicitSignal reports whether the utterance
// carries a decision/government number or a date token, which rescues very
// short queries from the length gate.
func (lib *Library) scoreClarification(text string, wordCount int, hasExplicitSignal bool) clarificationSignal {
	if wordCount < 3 && !hasExplicitSignal {
		return clarificationSignal{
			Matched:  true,
			Priority: true,
			Kind:     clarificationTooShort,
			Reason:   "Query too short",
		}
	}

	if matchesAny(lib.vaguePatterns, text) {
		return clarificationSignal{
			Matched:  true,
			Priority: true,
			Kind:     clarificationVague,
			Reason:   "Vague question needs detail",
		}
	}

	if matchesAny(lib.incompletePatterns, text) {
		return clarificationSignal{
			Matched:  true,
			Priority: true,
			Kind:     clarificationIncomplete,
			Reason:   "Incomplete phrase needs detail",
		}
	}

	if wordCount <= 3 {
		for _, pronoun := range lib.ambiguousPronouns {
			if containsWord(text, pronoun) {
				return clarificationSignal{
					Matched:  true,
					Priority: false,
					Kind:     clarificationAmbiguousTerm,
					Reason:   "Ambiguous pronoun without context",
				}
			}
		}
	}

	return clarificationSignal{}
}

func containsAny(text string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}

func matchesAny(patterns []*regexp.Regexp, text string) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// containsWord matches a whole whitespace-delimited token, so a pronoun
// like זה is not found inside an unrelated word.
func containsWord(text, word string) bool {
	for _, token := range strings.Fields(text) {
		if token == word {
			return true
		}
	}
	return false
}

func capScore(score float64) float64 {
	if score > 1.0 {
		return 1.0
	}
	return score
}
