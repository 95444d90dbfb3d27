package conversation

import (
	"github.com/opengovchat/decision-bot-go/internal/domain"
)

// Resolve turns a REFERENCE classification into dispatchable query
// entities using the conversation context. The second return is false
// when the context cannot anchor the reference; the router then degrades
// to a clarification asking the user to name the decision directly.
func Resolve(convCtx *domain.ConversationContext, ents *domain.ReferenceEntities, currentGovernment int) (*domain.QueryEntities, bool) {
	if ents == nil {
		return nil, false
	}

	gov := currentGovernment
	if convCtx != nil && convCtx.LastGovernment != nil {
		gov = *convCtx.LastGovernment
	}
	if ents.GovernmentNumber != nil {
		gov = *ents.GovernmentNumber
	}

	switch ents.ReferenceType {
	case domain.ReferenceTypePositional:
		return resolvePositional(convCtx, ents.ReferencePosition, false)

	case domain.ReferenceTypeLast, domain.ReferenceTypeSent:
		if q, ok := resolvePositional(convCtx, ents.ReferencePosition, true); ok {
			return q, ok
		}
		// No list to index into; a single remembered decision still anchors
		// "the one you sent me".
		if convCtx.HasDecision() {
			return specificDecision(gov, *convCtx.LastDecision), true
		}
		return nil, false

	case domain.ReferenceTypeContinuity, domain.ReferenceTypeContent, domain.ReferenceTypeTemporal:
		if ents.DecisionNumber != nil {
			return specificDecision(gov, *ents.DecisionNumber), true
		}
		if convCtx.HasDecision() {
			return specificDecision(gov, *convCtx.LastDecision), true
		}
		if convCtx != nil && len(convCtx.LastResults) == 1 {
			ref := convCtx.LastResults[0]
			return specificDecision(ref.GovernmentNumber, ref.DecisionNumber), true
		}
		if convCtx != nil && convCtx.LastTopic != "" {
			return topicSearch(gov, convCtx.LastTopic), true
		}
		return nil, false

	case domain.ReferenceTypeClarification:
		// Bare replies to a follow-up question: a decision number fully
		// anchors; a government number refines whatever was pending.
		if ents.DecisionNumber != nil {
			return specificDecision(gov, *ents.DecisionNumber), true
		}
		if ents.GovernmentNumber != nil {
			if convCtx.HasDecision() {
				return specificDecision(*ents.GovernmentNumber, *convCtx.LastDecision), true
			}
			if convCtx != nil && convCtx.LastTopic != "" {
				return topicSearch(*ents.GovernmentNumber, convCtx.LastTopic), true
			}
		}
		return nil, false

	default:
		return nil, false
	}
}

func resolvePositional(convCtx *domain.ConversationContext, position int, fromEnd bool) (*domain.QueryEntities, bool) {
	if position == 0 {
		position = 1
	}
	ref, ok := convCtx.ResolvePosition(position, fromEnd)
	if !ok {
		return nil, false
	}
	return specificDecision(ref.GovernmentNumber, ref.DecisionNumber), true
}

func specificDecision(gov, decision int) *domain.QueryEntities {
	return &domain.QueryEntities{
		EntityCore: domain.EntityCore{
			GovernmentNumber: domain.IntPtr(gov),
			DecisionNumber:   domain.IntPtr(decision),
		},
		Operation: domain.OperationSpecificDecision,
	}
}

func topicSearch(gov int, topic string) *domain.QueryEntities {
	return &domain.QueryEntities{
		EntityCore: domain.EntityCore{
			GovernmentNumber: domain.IntPtr(gov),
			Topic:            topic,
		},
		Operation: domain.OperationSearch,
	}
}
