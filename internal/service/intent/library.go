package intent

import (
	"regexp"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/opengovchat/decision-bot-go/internal/domain"
)

// Cue weights. Additive per matched cue, capped at 1.0.
const (
	weightSentPhrase          = 0.5
	weightPositional          = 0.4
	weightContinuity          = 0.3
	weightContentNoDecision   = 0.6
	weightContentWithDecision = 0.3
	weightTemporal            = 0.2
	weightMorePrefix          = 0.5
	weightBareNumberReply     = 0.8

	weightEvalVerb            = 0.4
	weightEvalVerbWithContent = 0.8
	weightEvalDecisionPattern = 0.5
	weightEvalNumberFound     = 0.4

	weightSearchKeyword  = 0.3
	weightSearchPattern  = 0.4
	weightStatKeyword    = 0.4
	weightStatPattern    = 0.5
	weightCompareKeyword = 0.4
	weightComparePattern = 0.5
	weightGenericMention = 0.2
)

// Decision thresholds and boosted confidences. These resolve every case
// where two intent categories would otherwise both match, so changing any
// of them changes routing behavior.
const (
	thresholdGeneral       = 0.5
	thresholdEvalStrict    = 0.7
	thresholdEvalLoose     = 0.4
	thresholdEvalOverride  = 0.5
	thresholdQueryTieBreak = 0.6

	confidenceEvalBoost        = 0.75
	confidenceSpecificDecision = 0.85
)

// Reference cue categories. The context router uses the type to decide how
// to resolve the reference against conversation history, so the values are
// the shared domain vocabulary.
const (
	referenceTypeSent          = domain.ReferenceTypeSent
	referenceTypePositional    = domain.ReferenceTypePositional
	referenceTypeLast          = domain.ReferenceTypeLast
	referenceTypeContinuity    = domain.ReferenceTypeContinuity
	referenceTypeContent       = domain.ReferenceTypeContent
	referenceTypeTemporal      = domain.ReferenceTypeTemporal
	referenceTypeClarification = domain.ReferenceTypeClarification
)

// AmbiguityGovernmentOrDecision marks a number that could be either a
// government number or a decision number.
const AmbiguityGovernmentOrDecision = domain.AmbiguityGovernmentOrDecision

type typoRule struct {
	from string
	to   string
}

type numberWord struct {
	word  string
	value int
}

type ministryName struct {
	variant   string
	canonical string
}

type topicSynonym struct {
	key       string
	canonical string
}

type positionalCue struct {
	word     string
	refType  string // positional counts from the start, last from the end
	position int
}

type specialReference struct {
	phrase   string
	weight   float64
	refType  string
	position int
}

// Library is the immutable pattern and mapping catalog the classifier
// consults. Build it once with NewLibrary and share it freely: nothing is
// mutated after construction, so concurrent use needs no locking.
type Library struct {
	typos []typoRule // longest-first

	// query scorer cues
	searchKeywords  []string
	searchPatterns  []*regexp.Regexp
	statKeywords    []string
	statPatterns    []*regexp.Regexp
	compareKeywords []string
	comparePatterns []*regexp.Regexp

	// eval scorer cues
	evalVerbs            []string
	evalDecisionPatterns []*regexp.Regexp
	evalPhraseBonuses    map[string]float64
	evalAllPhrases       []string
	contentCues          []string

	// reference scorer cues
	sentPhrases           []string
	positionalCues        []positionalCue
	continuityPhrases     []string
	temporalWords         []string
	bareNumberPattern     *regexp.Regexp
	bareGovernmentPattern *regexp.Regexp
	specialReferences     []specialReference

	// clarification scorer cues
	vaguePatterns      []*regexp.Regexp
	incompletePatterns []*regexp.Regexp
	ambiguousPronouns  []string

	// lookup tables
	numberWords    []numberWord   // longest-first
	ministryNames  []ministryName // longest-first
	monthNames     map[string]time.Month
	topicSynonyms  []topicSynonym // longest-first
	rejectedTopics map[string]struct{}

	// extractor patterns
	leadingNumberPattern *regexp.Regexp
	currentGovPhrases    []string
	decisionPatterns     []*regexp.Regexp
	govDecisionPattern   *regexp.Regexp
	disambiguationCues   []string
	limitPatterns        []*regexp.Regexp
	topicPatterns        []*regexp.Regexp
	comparisonPatterns   []*regexp.Regexp
	operationalKeywords  []string
	yearTokenPattern     *regexp.Regexp
}

// NewLibrary compiles every pattern and indexes every lookup table.
// Per-call classification never compiles anything.
func NewLibrary() *Library {
	lib := &Library{
		typos: []typoRule{
			{"החלתות", "החלטות"},
			{"החלתה", "החלטה"},
			{"בנושע", "בנושא"},
			{"אופרטבית", "אופרטיבית"},
		},

		// +0.3 each, matched as a prefix of the utterance
		searchKeywords: []string{
			"מצא", "חפש", "תביא", "הבא", "הצג", "תראה", "הראה", "תן לי",
		},
		// +0.4 each
		searchPatterns: compileAll(
			`(אילו|איזה|אלו)\s+החלטות`,
			`מה\s+ה?החלטות`,
			`החלטות\s+(על|בנושא|בתחום|של|שקשורות)`,
			`החלטות\s+(של\s+)?ה?ממשלה`,
			`ה?החלטה\s+(מספר\s+)?\d+`,
			`החלטת\s+ממשלה\s+(מספר\s+)?\d+`,
			`רשימת\s+ה?החלטות`,
		),
		// +0.4 each, matched anywhere
		statKeywords: []string{
			"כמה", "מספר ההחלטות", "סך הכל", `סה"כ`, "ממוצע", "סטטיסטיקה", "התפלגות",
		},
		// +0.5 each
		statPatterns: compileAll(
			`^כמה\s`,
			`כמה\s+ה?החלטות`,
			`מספר\s+ה?החלטות`,
		),
		// +0.4 each, matched anywhere
		compareKeywords: []string{
			"השווה", "השוואה", "לעומת", "בהשוואה ל", "ההבדל בין",
		},
		// +0.5 each
		comparePatterns: compileAll(
			`השווה\s+בין`,
			`בין\s+ממשלה\s+\S+.*\s+ל(בין\s+)?ממשלה`,
			`ממשלה\s+\d+\s+(מול|לעומת)\s+ממשלה\s+\d+`,
			`(^|\s)מול(\s|$)`,
		),

		// +0.4 each (+0.8 when a content cue is present too)
		evalVerbs: []string{
			"נתח", "תנתח", "לנתח", "ניתוח", "הערכה", "הערך", "בדוק לעומק", "פרט על",
		},
		// +0.5 each, also marks that a decision number rides the verb
		evalDecisionPatterns: compileAll(
			`(נתח|תנתח|לנתח|ניתוח)\s+(את\s+)?ה?החלטה\s*(מספר\s*)?\d+`,
			`ניתוח\s+(של\s+)?ה?החלטה\s*\d+`,
			`(נתח|תנתח)\s+את\s+החלטת\s+ממשלה\s+\d+`,
		),
		evalPhraseBonuses: map[string]float64{
			"לעומק":       0.3,
			"ניתוח מעמיק": 0.5,
			"הערכה מלאה":  0.4,
		},
		// bulk analysis reads as a search, not a single-decision eval
		evalAllPhrases: []string{
			"נתח את כל", "תנתח את כל", "לנתח את כל", "ניתוח של כל", "נתח הכל",
		},
		contentCues: []string{
			"התוכן של", "תוכן ההחלטה", "מה כתוב", "מה נאמר",
		},

		// +0.5 each
		sentPhrases: []string{
			"ששלחתי לך", "ששלחת לי", "שהראית לי", "שנתת לי", "ששלחתי",
		},
		// +0.4 each
		positionalCues: []positionalCue{
			{"הראשונה", referenceTypePositional, 1},
			{"הראשון", referenceTypePositional, 1},
			{"השנייה", referenceTypePositional, 2},
			{"השניה", referenceTypePositional, 2},
			{"השני", referenceTypePositional, 2},
			{"השלישית", referenceTypePositional, 3},
			{"השלישי", referenceTypePositional, 3},
			{"הרביעית", referenceTypePositional, 4},
			{"הרביעי", referenceTypePositional, 4},
			{"החמישית", referenceTypePositional, 5},
			{"החמישי", referenceTypePositional, 5},
			{"האחרונה", referenceTypeLast, 1},
			{"האחרון", referenceTypeLast, 1},
			{"הקודמת", referenceTypeLast, 2},
			{"הקודם", referenceTypeLast, 2},
		},
		// +0.3 each
		continuityPhrases: []string{
			"כמו קודם", "עוד על", "בהמשך ל", "כמו שאמרת", "מה שדיברנו", "שוב",
		},
		// +0.2 each
		temporalWords: []string{
			"מקודם", "לפני רגע", "קודם לכן",
		},
		// +0.8, reads as a reply to a clarification prompt
		bareNumberPattern:     regexp.MustCompile(`^\d+$`),
		bareGovernmentPattern: regexp.MustCompile(`^ממשלה\s+(\d+)$`),
		specialReferences: []specialReference{
			{"הראשון ברשימה", 0.5, referenceTypePositional, 1},
			{"השני ברשימה", 0.5, referenceTypePositional, 2},
			{"האחרון ברשימה", 0.5, referenceTypeLast, 1},
			{"זה שדיברנו עליו", 0.5, referenceTypeContinuity, 0},
			{"את זה", 0.5, referenceTypeContinuity, 0},
			{"אותו", 0.4, referenceTypeContinuity, 0},
			{"אותה", 0.4, referenceTypeContinuity, 0},
		},

		vaguePatterns: compileAll(
			`^(מה|מי|איך|למה|מתי|איפה|כמה)$`,
			`^(מה|מי|איך|למה|מתי)\s+(זה|זאת|קורה|עכשיו)$`,
			`^(נו|אז|טוב|אוקיי)$`,
		),
		incompletePatterns: compileAll(
			`^ה?(החלטה|החלטות|ממשלה|נושא|משרד|תקציב)$`,
			`^ה?החלטות\s+(של|בנושא|בתחום|על)$`,
			`^בנושא$`,
		),
		ambiguousPronouns: []string{
			"זה", "זאת", "הוא", "היא", "אותו", "אותה", "הם",
		},

		numberWords: buildNumberWords(),
		ministryNames: []ministryName{
			{"משרד ראש הממשלה", "משרד ראש הממשלה"},
			{"משרד האוצר", "משרד האוצר"},
			{"האוצר", "משרד האוצר"},
			{"משרד הבריאות", "משרד הבריאות"},
			{"משרד החינוך", "משרד החינוך"},
			{"משרד הביטחון", "משרד הביטחון"},
			{"משרד הפנים", "משרד הפנים"},
			{"משרד המשפטים", "משרד המשפטים"},
			{"משרד החוץ", "משרד החוץ"},
			{"משרד התחבורה", "משרד התחבורה"},
			{"משרד האנרגיה", "משרד האנרגיה"},
			{"משרד הכלכלה", "משרד הכלכלה"},
			{"משרד העבודה", "משרד העבודה"},
			{"משרד הרווחה", "משרד הרווחה"},
			{"משרד הבינוי והשיכון", "משרד הבינוי והשיכון"},
			{"משרד השיכון", "משרד הבינוי והשיכון"},
			{"משרד החקלאות", "משרד החקלאות"},
			{"משרד התיירות", "משרד התיירות"},
			{"משרד המדע", "משרד המדע"},
			{"משרד התרבות והספורט", "משרד התרבות והספורט"},
			{"המשרד להגנת הסביבה", "המשרד להגנת הסביבה"},
			{"משרד להגנת הסביבה", "המשרד להגנת הסביבה"},
		},
		monthNames: map[string]time.Month{
			"ינואר":   time.January,
			"פברואר":  time.February,
			"מרץ":     time.March,
			"מרס":     time.March,
			"אפריל":   time.April,
			"מאי":     time.May,
			"יוני":    time.June,
			"יולי":    time.July,
			"אוגוסט":  time.August,
			"ספטמבר":  time.September,
			"אוקטובר": time.October,
			"נובמבר":  time.November,
			"דצמבר":   time.December,
		},
		topicSynonyms: []topicSynonym{
			{"תחבורה ציבורית", "תחבורה"},
			{"איכות הסביבה", "סביבה"},
			{"בתי חולים", "בריאות"},
			{"בתי ספר", "חינוך"},
			{"חינוך", "חינוך"},
			{"חנוך", "חינוך"},
			{"השכלה", "חינוך"},
			{"לימודים", "חינוך"},
			{"בריאות", "בריאות"},
			{"רפואה", "בריאות"},
			{"ביטחון", "ביטחון"},
			{"בטחון", "ביטחון"},
			{"צבא", "ביטחון"},
			{"כלכלה", "כלכלה"},
			{"משק", "כלכלה"},
			{"תקציב", "תקציב"},
			{"תקציבים", "תקציב"},
			{"תחבורה", "תחבורה"},
			{"כבישים", "תחבורה"},
			{"רכבת", "תחבורה"},
			{"סביבה", "סביבה"},
			{"אקלים", "סביבה"},
			{"דיור", "דיור"},
			{"שיכון", "דיור"},
			{"חקלאות", "חקלאות"},
			{"תיירות", "תיירות"},
			{"טכנולוגיה", "טכנולוגיה"},
			{"הייטק", "טכנולוגיה"},
			{"חדשנות", "טכנולוגיה"},
			{"רווחה", "רווחה"},
			{"סעד", "רווחה"},
			{"קורונה", "קורונה"},
			{"קוביד", "קורונה"},
			{"עלייה", "עלייה וקליטה"},
			{"קליטה", "עלייה וקליטה"},
		},
		// "the most recent" is an ordering hint, never a topic
		rejectedTopics: buildSet(
			"אחרון", "אחרונה", "אחרונים", "אחרונות",
			"האחרון", "האחרונה", "האחרונים", "האחרונות",
		),

		leadingNumberPattern: regexp.MustCompile(`^ה?[-־–]?(\d+)`),
		currentGovPhrases: []string{
			"הממשלה הנוכחית", "ממשלה נוכחית", "הממשלה הזאת", "הממשלה הזו", "הממשלה הקיימת",
		},
		decisionPatterns: compileAll(
			`ה?החלטה\s+מספר\s+(\d+)`,
			`ה?החלטה\s+מס['׳]?\s*(\d+)`,
			`ה?החלטה\s+(\d+)`,
		),
		govDecisionPattern: regexp.MustCompile(`החלטת\s+ממשלה\s+(?:מספר\s+)?(\d+)`),
		disambiguationCues: []string{"מספר", "נתח", "ניתוח", "לנתח"},
		limitPatterns: compileAll(
			`(?:תביא|הבא|תן|הצג|תראה)\s+(?:לי\s+)?(\d+)\s+החלטות`,
			`^(\d+)\s+החלטות`,
			`(\d+)\s+ה?החלטות\s+(?:אחרונות|ראשונות)`,
			`(\d+)\s+החלטות`,
		),
		topicPatterns: compileAll(
			`בנושא\s+(.+?)(?:\s+(?:של|שהתקבלו|שקיבלה|שהוחלטו|שאושרו|מאז|משנת|בשנת|בין|עד|מ?ממשלה|החל)|$)`,
			`בתחום\s+(.+?)(?:\s+(?:של|שהתקבלו|שקיבלה|שהוחלטו|שאושרו|מאז|משנת|בשנת|בין|עד|מ?ממשלה|החל)|$)`,
			`לגבי\s+(.+?)(?:\s+(?:של|שהתקבלו|שקיבלה|מאז|משנת|בשנת|בין|עד|מ?ממשלה)|$)`,
			`שקשורות\s+ל(.+?)(?:\s+(?:של|שהתקבלו|שקיבלה|מאז|משנת|בשנת|בין|עד|מ?ממשלה)|$)`,
			`החלטות\s+על\s+(.+?)(?:\s+(?:של|שהתקבלו|שקיבלה|מאז|משנת|בשנת|בין|עד|מ?ממשלה)|$)`,
		),
		comparisonPatterns: compileAll(
			`בין\s+ממשלה\s+(\d+)\s+ל(?:בין\s+)?ממשלה\s+(\d+)`,
			`ממשלה\s+(\d+)\s+(?:מול|לעומת|בהשוואה ל)\s*ממשלה\s+(\d+)`,
		),
		operationalKeywords: []string{
			"אופרטיבית", "אופרטיביות", "אופרטיבי", "החלטות ביצועיות", "החלטה ביצועית",
		},
		yearTokenPattern: regexp.MustCompile(`(?:^|\s)(19\d{2}|20\d{2})(?:\s|$)`),
	}

	// Overlapping keys must be tried longest-first so a short key never
	// shadows a longer phrase that contains it.
	sortLongestFirst(lib.typos, func(r typoRule) string { return r.from })
	sortLongestFirst(lib.numberWords, func(w numberWord) string { return w.word })
	sortLongestFirst(lib.ministryNames, func(m ministryName) string { return m.variant })
	sortLongestFirst(lib.topicSynonyms, func(s topicSynonym) string { return s.key })

	return lib
}

// CanonicalTopics returns the distinct canonical topic values, sorted.
// Callers embed them in prompts and validation lists; the slice is a copy.
func (lib *Library) CanonicalTopics() []string {
	return distinctSorted(lib.topicSynonyms, func(s topicSynonym) string { return s.canonical })
}

// CanonicalMinistries returns the distinct canonical ministry names, sorted.
func (lib *Library) CanonicalMinistries() []string {
	return distinctSorted(lib.ministryNames, func(m ministryName) string { return m.canonical })
}

func distinctSorted[T any](items []T, key func(T) string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		k := key(item)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func compileAll(patterns ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile(p))
	}
	return compiled
}

func buildSet(items ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}

func buildNumberWords() []numberWord {
	words := []numberWord{
		{"אחת", 1}, {"אחד", 1},
		{"שתיים", 2}, {"שניים", 2}, {"שתי", 2}, {"שני", 2},
		{"שלוש", 3}, {"שלושה", 3},
		{"ארבע", 4}, {"ארבעה", 4},
		{"חמש", 5}, {"חמישה", 5},
		{"שש", 6}, {"שישה", 6},
		{"שבע", 7}, {"שבעה", 7},
		{"שמונה", 8},
		{"תשע", 9}, {"תשעה", 9},
		{"עשר", 10}, {"עשרה", 10},
		{"אחת עשרה", 11}, {"שתים עשרה", 12},
		{"עשרים", 20}, {"שלושים", 30}, {"ארבעים", 40}, {"חמישים", 50},
		{"מאה", 100},
	}

	// compounds: twenty-one through thirty-nine cover every plausible
	// government number
	units := []numberWord{
		{"אחת", 1}, {"אחד", 1},
		{"שתיים", 2}, {"שניים", 2},
		{"שלוש", 3}, {"שלושה", 3},
		{"ארבע", 4}, {"ארבעה", 4},
		{"חמש", 5}, {"חמישה", 5},
		{"שש", 6}, {"שישה", 6},
		{"שבע", 7}, {"שבעה", 7},
		{"שמונה", 8},
		{"תשע", 9}, {"תשעה", 9},
	}
	for _, tens := range []numberWord{{"עשרים", 20}, {"שלושים", 30}} {
		for _, unit := range units {
			words = append(words, numberWord{tens.word + " ו" + unit.word, tens.value + unit.value})
		}
	}
	return words
}

func sortLongestFirst[T any](items []T, keyOf func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		return utf8.RuneCountInString(keyOf(items[i])) > utf8.RuneCountInString(keyOf(items[j]))
	})
}
