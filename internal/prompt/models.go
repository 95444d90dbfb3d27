package prompt

// ClarifyPolishData feeds the clarification-polish prompt. Explanation is
// the deterministic classifier's reason for asking; the model only
// rephrases it, it never re-decides the intent. History holds pre-rendered
// "speaker: text" lines from the conversation log, oldest first.
type ClarifyPolishData struct {
	UserQuery         string
	Explanation       string
	AmbiguousNumber   int
	CurrentGovernment int
	TopicSample       string
	History           []string
}

// FallbackParseData feeds the opt-in language-model parse of queries the
// deterministic classifier could not anchor.
type FallbackParseData struct {
	UserQuery         string
	CurrentGovernment int
	TopicList         string
	MinistryList      string
}

// AnswerSummaryData feeds the short-reply summary of a long evaluation
// report.
type AnswerSummaryData struct {
	UserQuery  string
	Report     string
	MaxLength  int
	TargetLang string
}
