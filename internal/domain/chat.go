package domain

import (
	"encoding/json"
	"time"
)

// ChatRequest is the routing service's inbound message.
// ConvID is opaque to the classifier and only used for conversation memory.
type ChatRequest struct {
	Text   string `json:"text"`
	ConvID string `json:"conv_id,omitempty"`
}

// ChatReply is the formatted answer returned to the chat surface.
// Provider reports which engine produced the classification: "deterministic"
// for the rule cascade, "llm" when the model-assisted fallback answered.
type ChatReply struct {
	ConvID         string                `json:"conv_id"`
	Reply          string                `json:"reply"`
	Intent         IntentType            `json:"intent_type"`
	Confidence     float64               `json:"confidence"`
	Provider       string                `json:"provider,omitempty"`
	Classification *ClassificationResult `json:"classification,omitempty"`
}

// TurnRole distinguishes who produced a conversation turn.
type TurnRole string

const (
	RoleUser TurnRole = "user"
	RoleBot  TurnRole = "bot"
)

// ConversationTurn is one persisted utterance of a conversation. Entities
// carries the extracted-entity snapshot of user turns for later analysis.
type ConversationTurn struct {
	ConvID    string          `json:"conv_id"`
	Role      TurnRole        `json:"role"`
	Text      string          `json:"text"`
	Intent    IntentType      `json:"intent_type,omitempty"`
	Entities  json.RawMessage `json:"entities,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
