package domain

import "time"

// ConversationContext is the sliding state a conversation accumulates,
// used to resolve REFERENCE intents ("the last one", "the second decision").
type ConversationContext struct {
	ConvID         string        `json:"conv_id"`
	LastIntent     IntentType    `json:"last_intent,omitempty"`
	LastDecision   *int          `json:"last_decision,omitempty"`
	LastGovernment *int          `json:"last_government,omitempty"`
	LastTopic      string        `json:"last_topic,omitempty"`
	LastResults    []DecisionRef `json:"last_results,omitempty"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// ResolvePosition returns the referenced decision for a 1-based position.
// "last"-style references count from the end, ordinal references from the
// start; fromEnd selects which.
func (c *ConversationContext) ResolvePosition(position int, fromEnd bool) (DecisionRef, bool) {
	if c == nil || position < 1 || position > len(c.LastResults) {
		return DecisionRef{}, false
	}
	if fromEnd {
		return c.LastResults[len(c.LastResults)-position], true
	}
	return c.LastResults[position-1], true
}

// HasDecision reports whether the conversation already has a concrete
// decision to refer back to.
func (c *ConversationContext) HasDecision() bool {
	return c != nil && c.LastDecision != nil
}
