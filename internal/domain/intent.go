package domain

// IntentType is the downstream action category assigned to a user query.
type IntentType string

const (
	IntentQuery         IntentType = "QUERY"         // direct data lookup
	IntentEval          IntentType = "EVAL"          // deep single-decision analysis
	IntentReference     IntentType = "REFERENCE"     // refers to prior conversation
	IntentClarification IntentType = "CLARIFICATION" // ambiguous, needs follow-up
)

func (t IntentType) String() string {
	return string(t)
}

func (t IntentType) IsValid() bool {
	switch t {
	case IntentQuery, IntentEval, IntentReference, IntentClarification:
		return true
	default:
		return false
	}
}

// Operation narrows a QUERY intent for the SQL generation service.
type Operation string

const (
	OperationSearch           Operation = "search"
	OperationCount            Operation = "count"
	OperationCompare          Operation = "compare"
	OperationSpecificDecision Operation = "specific_decision"
)

func (o Operation) String() string {
	return string(o)
}

// RouteFlags carry boolean routing hints derived from the chosen intent.
// They are computed by the classifier, never set independently.
type RouteFlags struct {
	NeedsContext  bool `json:"needs_context"`
	IsStatistical bool `json:"is_statistical"`
	IsComparison  bool `json:"is_comparison"`
}

// ClassificationResult is the classifier's complete answer for one utterance.
// It is built once and never mutated afterwards.
type ClassificationResult struct {
	Intent      IntentType `json:"intent_type"`
	Entities    Entities   `json:"entities"`
	Confidence  float64    `json:"confidence"`
	RouteFlags  RouteFlags `json:"route_flags"`
	Explanation string     `json:"explanation"`
}
