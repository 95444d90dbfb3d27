package intent

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/opengovchat/decision-bot-go/internal/domain"
	"github.com/opengovchat/decision-bot-go/internal/util"
)

const maxLimit = 100

var (
	connectorWords = buildSet("של", "עם", "וגם", "או", "ב", "ל")
	fillerWords    = buildSet("של", "את", "כל")
)

// extraction holds everything the extractor pulled out of one utterance.
// AmbiguousNumber and Core.DecisionNumber are never both set.
type extraction struct {
	Core            domain.EntityCore
	AmbiguousNumber *int
	AmbiguityType   string
	HasYearToken    bool
}

// extractor turns normalized text into structured entities. Every method
// is pure: the only inputs are the text, the library tables and the clock.
type extractor struct {
	lib               *Library
	currentGovernment int
	now               func() time.Time
}

func newExtractor(lib *Library, currentGovernment int, now func() time.Time) *extractor {
	if now == nil {
		now = time.Now
	}
	return &extractor{lib: lib, currentGovernment: currentGovernment, now: now}
}

func (e *extractor) extract(text string) extraction {
	var ex extraction

	decision, ambiguous := e.decisionNumber(text)
	ex.Core.DecisionNumber = decision
	if ambiguous != nil {
		ex.AmbiguousNumber = ambiguous
		ex.AmbiguityType = AmbiguityGovernmentOrDecision
	}

	ex.Core.GovernmentNumber = e.governmentNumber(text)
	ex.Core.Limit = e.limit(text)
	ex.Core.Topic = e.topic(text)
	ex.Core.Ministries = e.ministries(text)
	ex.Core.DateRange = e.dateRange(text)
	ex.Core.ComparisonTarget = e.comparisonTarget(text)
	ex.Core.DecisionType = e.decisionType(text)
	ex.HasYearToken = e.lib.yearTokenPattern.MatchString(text)

	return ex
}

// decisionNumber returns the explicit decision number, or an ambiguous
// number when the "government decision N" phrasing cannot be resolved.
// N above the current government can only be a decision number; N at or
// below it needs a disambiguating cue, otherwise the caller must ask.
func (e *extractor) decisionNumber(text string) (decision, ambiguous *int) {
	for _, p := range e.lib.decisionPatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				return &n, nil
			}
		}
	}

	if m := e.lib.govDecisionPattern.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, nil
		}
		if n > e.currentGovernment {
			return &n, nil
		}
		if containsAny(text, e.lib.disambiguationCues) {
			return &n, nil
		}
		return nil, &n
	}

	return nil, nil
}

func (e *extractor) governmentNumber(text string) *int {
	for _, phrase := range e.lib.currentGovPhrases {
		if strings.Contains(text, phrase) {
			n := e.currentGovernment
			return &n
		}
	}
	if mentions := e.governmentMentions(text); len(mentions) > 0 {
		return &mentions[0]
	}
	return nil
}

// governmentMentions returns every government number mentioned in the text
// in order, parsing both digits and Hebrew number words. A mention inside
// the "government decision N" construct is skipped: there N is a decision
// number candidate, not a government.
func (e *extractor) governmentMentions(text string) []int {
	const keyword = "ממשלה"
	var mentions []int
	for offset := 0; ; {
		i := strings.Index(text[offset:], keyword)
		if i < 0 {
			break
		}
		pos := offset + i
		offset = pos + len(keyword)

		prefix := strings.TrimRight(text[:pos], " ")
		if strings.HasSuffix(prefix, "החלטת") {
			continue
		}
		if n, ok := e.parseLeadingNumber(text[offset:]); ok {
			mentions = append(mentions, n)
		}
	}
	return mentions
}

// parseLeadingNumber reads a government-style number from the start of
// rest: "37", "ה-37", "מספר 37" or a Hebrew number word, including
// compounds like "שלושים ושבע".
func (e *extractor) parseLeadingNumber(rest string) (int, bool) {
	rest = strings.TrimSpace(rest)
	rest = strings.TrimPrefix(rest, "מספר ")

	if m := e.lib.leadingNumberPattern.FindStringSubmatch(rest); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n, true
		}
	}

	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return 0, false
	}
	first := strings.TrimPrefix(fields[0], "ה")
	candidates := []string{first}
	if len(fields) > 1 {
		candidates = []string{first + " " + fields[1], first}
	}
	for _, candidate := range candidates {
		for _, nw := range e.lib.numberWords {
			if nw.word == candidate {
				return nw.value, true
			}
		}
	}
	return 0, false
}

func (e *extractor) limit(text string) *int {
	for _, p := range e.lib.limitPatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
				n = util.Min(n, maxLimit)
				return &n
			}
		}
	}
	for _, nw := range e.lib.numberWords {
		if strings.Contains(text, nw.word+" החלטות") {
			n := util.Min(nw.value, maxLimit)
			return &n
		}
	}
	return nil
}

func (e *extractor) topic(text string) string {
	for _, p := range e.lib.topicPatterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		topic := trimTopic(m[1])
		if topic == "" {
			continue
		}
		// ordering words ("the most recent") are never topics
		if _, rejected := e.lib.rejectedTopics[topic]; rejected {
			continue
		}
		return e.canonicalTopic(topic)
	}
	return ""
}

func trimTopic(topic string) string {
	words := strings.Fields(topic)
	for len(words) > 0 {
		if _, ok := connectorWords[words[len(words)-1]]; !ok {
			break
		}
		words = words[:len(words)-1]
	}
	for len(words) > 0 {
		if _, ok := fillerWords[words[0]]; !ok {
			break
		}
		words = words[1:]
	}
	return strings.Join(words, " ")
}

// canonicalTopic resolves a raw topic through the synonym table: exact
// match first (with and without a leading article), then substring fuzzy
// match. Unknown topics pass through unchanged.
func (e *extractor) canonicalTopic(topic string) string {
	stripped := strings.TrimPrefix(topic, "ה")
	for _, syn := range e.lib.topicSynonyms {
		if syn.key == topic || syn.key == stripped {
			return syn.canonical
		}
	}
	for _, syn := range e.lib.topicSynonyms {
		if strings.Contains(topic, syn.key) || strings.Contains(syn.key, stripped) {
			return syn.canonical
		}
	}
	return topic
}

func (e *extractor) ministries(text string) []string {
	var found []string
	for _, ministry := range e.lib.ministryNames {
		if strings.Contains(text, ministry.variant) {
			found = append(found, ministry.canonical)
		}
	}
	if len(found) == 0 {
		return nil
	}
	return util.UniqueStrings(found)
}

// comparisonTarget encodes the two governments being compared as
// "governments:X,Y". Without a comparison phrasing it stays empty even if
// two governments are mentioned.
func (e *extractor) comparisonTarget(text string) string {
	for _, p := range e.lib.comparisonPatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			return "governments:" + m[1] + "," + m[2]
		}
	}

	if !containsAny(text, e.lib.compareKeywords) && !strings.Contains(text, "בין") {
		return ""
	}
	if mentions := e.governmentMentions(text); len(mentions) >= 2 {
		return fmt.Sprintf("governments:%d,%d", mentions[0], mentions[1])
	}
	return ""
}

func (e *extractor) decisionType(text string) string {
	if containsAny(text, e.lib.operationalKeywords) {
		return "אופרטיבית"
	}
	return ""
}
