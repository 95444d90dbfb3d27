package domain

// DateRange is an inclusive calendar range. Both bounds are ISO dates
// (YYYY-MM-DD) so lexicographic order equals chronological order.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func (d DateRange) IsValid() bool {
	return d.Start != "" && d.End != "" && d.Start <= d.End
}

// EntityCore holds the structured parameters every intent may carry.
type EntityCore struct {
	GovernmentNumber *int       `json:"government_number,omitempty"`
	DecisionNumber   *int       `json:"decision_number,omitempty"`
	Topic            string     `json:"topic,omitempty"`
	Limit            *int       `json:"limit,omitempty"`
	Ministries       []string   `json:"ministries,omitempty"`
	DateRange        *DateRange `json:"date_range,omitempty"`
	ComparisonTarget string     `json:"comparison_target,omitempty"`
	DecisionType     string     `json:"decision_type,omitempty"`
}

// Entities is a closed union over the four per-intent entity shapes, so
// downstream code cannot read fields that are invalid for the result's
// intent type. Core() exposes the shared fields.
type Entities interface {
	Core() *EntityCore
	sealedEntities()
}

// QueryEntities accompany IntentQuery.
type QueryEntities struct {
	EntityCore
	Operation Operation `json:"operation"`
}

// EvalEntities accompany IntentEval.
type EvalEntities struct {
	EntityCore
}

// Reference types describe how a REFERENCE intent points back into the
// conversation. Positional types carry a 1-based position; "last" and its
// kin count from the end of the previously shown list, "positional" from
// the start.
const (
	ReferenceTypeSent          = "sent"          // "that you sent me", no position
	ReferenceTypePositional    = "positional"    // "the third one"
	ReferenceTypeLast          = "last"          // "the last one", "the previous one"
	ReferenceTypeContinuity    = "continuity"    // "tell me more about it"
	ReferenceTypeContent       = "content"       // "what does it say"
	ReferenceTypeTemporal      = "temporal"      // "from before"
	ReferenceTypeClarification = "clarification" // bare-number reply to a follow-up question
)

// ReferenceEntities accompany IntentReference. Position counts 1-based
// from the relevant end ("last"=1 from the end, "second"=2 from the start).
type ReferenceEntities struct {
	EntityCore
	ReferenceType     string `json:"reference_type"`
	ReferencePosition int    `json:"reference_position,omitempty"`
}

// AmbiguityGovernmentOrDecision marks a bare number that could plausibly be
// either a government number or a decision number.
const AmbiguityGovernmentOrDecision = "government_or_decision"

// ClarificationEntities accompany IntentClarification. AmbiguousNumber and
// DecisionNumber are mutually exclusive for the same numeric token.
type ClarificationEntities struct {
	EntityCore
	AmbiguousNumber *int   `json:"ambiguous_number,omitempty"`
	AmbiguityType   string `json:"ambiguity_type,omitempty"`
}

func (e *QueryEntities) Core() *EntityCore         { return &e.EntityCore }
func (e *EvalEntities) Core() *EntityCore          { return &e.EntityCore }
func (e *ReferenceEntities) Core() *EntityCore     { return &e.EntityCore }
func (e *ClarificationEntities) Core() *EntityCore { return &e.EntityCore }

func (*QueryEntities) sealedEntities()         {}
func (*EvalEntities) sealedEntities()          {}
func (*ReferenceEntities) sealedEntities()     {}
func (*ClarificationEntities) sealedEntities() {}

// IntPtr is a convenience for optional numeric entity fields.
func IntPtr(v int) *int {
	return &v
}
