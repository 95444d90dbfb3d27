package intent

import (
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/opengovchat/decision-bot-go/internal/domain"
)

// Classifier assigns an intent and structured entities to a Hebrew
// utterance using only the pattern library: no model, no network, no
// per-call state. A single instance is safe for concurrent use.
type Classifier struct {
	lib               *Library
	ext               *extractor
	currentGovernment int
	now               func() time.Time
	logger            *zap.Logger
	rules             []cascadeRule
}

type Option func(*Classifier)

// WithClock injects the time source relative date phrases resolve against.
func WithClock(now func() time.Time) Option {
	return func(c *Classifier) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger attaches a logger for per-rule debug traces.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Classifier) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithLibrary swaps in an alternative pattern library.
func WithLibrary(lib *Library) Option {
	return func(c *Classifier) {
		if lib != nil {
			c.lib = lib
		}
	}
}

func New(currentGovernment int, opts ...Option) *Classifier {
	c := &Classifier{
		lib:               NewLibrary(),
		currentGovernment: currentGovernment,
		now:               time.Now,
		logger:            zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.ext = newExtractor(c.lib, c.currentGovernment, c.now)
	c.rules = c.buildCascade()
	return c
}

// analysis is the per-call scratch state: one normalization, one entity
// extraction and all four signals, computed up front so every cascade
// rule reads the same facts.
type analysis struct {
	text      string
	wordCount int
	entities  extraction
	reference referenceSignal
	eval      evalSignal
	query     querySignal
	clarify   clarificationSignal
}

// cascadeRule is one priority step. A nil result falls through to the
// next rule; the rule order is the contract that resolves overlapping
// signals, so it lives in data rather than nested conditionals.
type cascadeRule struct {
	name  string
	apply func(*analysis) *domain.ClassificationResult
}

func (c *Classifier) buildCascade() []cascadeRule {
	return []cascadeRule{
		{"length_gate", c.ruleLengthGate},
		{"reference", c.ruleReference},
		{"eval", c.ruleEval},
		{"priority_clarification", c.rulePriorityClarification},
		{"query", c.ruleQuery},
		{"remaining_clarification", c.ruleRemainingClarification},
		{"default", c.ruleDefault},
	}
}

// Classify never fails: an internal panic degrades to a clarification
// result with the cause embedded in the explanation.
func (c *Classifier) Classify(text string) (result *domain.ClassificationResult) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Classifier panic recovered", zap.Any("panic", r))
			result = clarificationResult(fmt.Sprintf("Classification failed: %v", r), 0.3)
		}
	}()
	return c.classify(text)
}

func (c *Classifier) classify(text string) *domain.ClassificationResult {
	a := c.analyze(c.lib.Normalize(text))
	for _, rule := range c.rules {
		result := rule.apply(a)
		if result == nil {
			continue
		}
		c.logger.Debug("Cascade decided",
			zap.String("rule", rule.name),
			zap.String("intent", result.Intent.String()),
			zap.Float64("confidence", result.Confidence),
		)
		return result
	}
	return clarificationResult("Could not determine clear intent", 0.3)
}

func (c *Classifier) analyze(text string) *analysis {
	entities := c.ext.extract(text)
	hasDecision := entities.Core.DecisionNumber != nil
	// a standalone numeric reply counts as explicit: it answers a prior
	// clarification prompt and must reach the reference rule
	hasExplicitSignal := hasDecision ||
		entities.Core.GovernmentNumber != nil ||
		entities.AmbiguousNumber != nil ||
		entities.HasYearToken ||
		entities.Core.DateRange != nil ||
		c.lib.bareNumberPattern.MatchString(text)
	wordCount := len(strings.Fields(text))

	return &analysis{
		text:      text,
		wordCount: wordCount,
		entities:  entities,
		reference: c.lib.scoreReference(text, hasDecision),
		eval:      c.lib.scoreEval(text, hasDecision),
		query:     c.lib.scoreQuery(text),
		clarify:   c.lib.scoreClarification(text, wordCount, hasExplicitSignal),
	}
}

// Step 1: very short queries with no anchoring number or date cannot be
// routed anywhere useful.
func (c *Classifier) ruleLengthGate(a *analysis) *domain.ClassificationResult {
	if a.clarify.Kind != clarificationTooShort {
		return nil
	}
	return clarificationResult(a.clarify.Reason, 0.9)
}

// Step 2: conversation references win unless strict analysis cues ride
// the same utterance, in which case the analysis runs against context.
func (c *Classifier) ruleReference(a *analysis) *domain.ClassificationResult {
	if !a.reference.Matched {
		return nil
	}

	if a.eval.Score > thresholdEvalStrict {
		return &domain.ClassificationResult{
			Intent:      domain.IntentEval,
			Entities:    &domain.EvalEntities{EntityCore: a.entities.Core},
			Confidence:  a.eval.Score,
			RouteFlags:  domain.RouteFlags{NeedsContext: true},
			Explanation: "Analysis with context reference",
		}
	}

	entities := &domain.ReferenceEntities{
		EntityCore:        a.entities.Core,
		ReferenceType:     a.reference.Type,
		ReferencePosition: a.reference.Position,
	}
	// a bare numeric reply above the current government can only name a
	// decision; smaller numbers stay unresolved for the context router
	if a.reference.BareNumber != nil && *a.reference.BareNumber > c.currentGovernment {
		entities.DecisionNumber = a.reference.BareNumber
	}

	return &domain.ClassificationResult{
		Intent:      domain.IntentReference,
		Entities:    entities,
		Confidence:  a.reference.Score,
		RouteFlags:  domain.RouteFlags{NeedsContext: true},
		Explanation: "Reference to previous conversation",
	}
}

// Step 3: a strict analysis request for a named decision routes straight
// to evaluation. Analysis phrasing without a number re-checks reference.
func (c *Classifier) ruleEval(a *analysis) *domain.ClassificationResult {
	if a.eval.Score >= thresholdEvalStrict && a.entities.Core.DecisionNumber != nil {
		return &domain.ClassificationResult{
			Intent:      domain.IntentEval,
			Entities:    &domain.EvalEntities{EntityCore: a.entities.Core},
			Confidence:  a.eval.Score,
			Explanation: "Direct analysis request",
		}
	}

	if a.eval.Matched && a.entities.Core.DecisionNumber == nil && a.reference.Matched {
		return &domain.ClassificationResult{
			Intent:      domain.IntentEval,
			Entities:    &domain.EvalEntities{EntityCore: a.entities.Core},
			Confidence:  a.eval.Score,
			RouteFlags:  domain.RouteFlags{NeedsContext: true},
			Explanation: "Analysis with context reference",
		}
	}

	return nil
}

// Step 4: vague or incomplete phrasings ask for details before any query
// interpretation is attempted.
func (c *Classifier) rulePriorityClarification(a *analysis) *domain.ClassificationResult {
	if !a.clarify.Matched || !a.clarify.Priority {
		return nil
	}
	return clarificationResult(a.clarify.Reason, 0.8)
}

// Step 5: the query branch, with its tie-breaks in fixed order: analysis
// override first, low-confidence clarification second, number ambiguity
// third, then the specific-decision fast path.
func (c *Classifier) ruleQuery(a *analysis) *domain.ClassificationResult {
	if !a.query.Matched {
		return nil
	}

	if a.eval.Score > thresholdEvalOverride && a.entities.Core.DecisionNumber != nil {
		return &domain.ClassificationResult{
			Intent:      domain.IntentEval,
			Entities:    &domain.EvalEntities{EntityCore: a.entities.Core},
			Confidence:  math.Max(a.eval.Score, confidenceEvalBoost),
			Explanation: "Analysis boosted from query context",
		}
	}

	if a.clarify.Matched && !a.clarify.Priority && a.query.Score <= thresholdQueryTieBreak {
		return clarificationResult("Low-confidence query with ambiguous signals", 0.6)
	}

	if a.entities.AmbiguityType == AmbiguityGovernmentOrDecision {
		n := *a.entities.AmbiguousNumber
		return &domain.ClassificationResult{
			Intent: domain.IntentClarification,
			Entities: &domain.ClarificationEntities{
				EntityCore:      a.entities.Core,
				AmbiguousNumber: a.entities.AmbiguousNumber,
				AmbiguityType:   AmbiguityGovernmentOrDecision,
			},
			Confidence: 0.9,
			Explanation: fmt.Sprintf(
				"האם התכוונת לממשלה %d או להחלטה מספר %d? (Did you mean government %d or decision number %d?)",
				n, n, n, n),
		}
	}

	core := a.entities.Core
	if core.DecisionNumber != nil {
		if core.GovernmentNumber == nil {
			gov := c.currentGovernment
			core.GovernmentNumber = &gov
		}
		return &domain.ClassificationResult{
			Intent: domain.IntentQuery,
			Entities: &domain.QueryEntities{
				EntityCore: core,
				Operation:  domain.OperationSpecificDecision,
			},
			Confidence:  math.Max(a.query.Score, confidenceSpecificDecision),
			Explanation: "Specific decision lookup",
		}
	}

	operation := a.query.Operation
	return &domain.ClassificationResult{
		Intent: domain.IntentQuery,
		Entities: &domain.QueryEntities{
			EntityCore: core,
			Operation:  operation,
		},
		Confidence: a.query.Score,
		RouteFlags: domain.RouteFlags{
			IsStatistical: operation == domain.OperationCount,
			IsComparison:  operation == domain.OperationCompare,
		},
		Explanation: queryExplanation(operation),
	}
}

// Step 6: leftover non-priority ambiguity.
func (c *Classifier) ruleRemainingClarification(a *analysis) *domain.ClassificationResult {
	if !a.clarify.Matched || a.clarify.Priority {
		return nil
	}
	return clarificationResult(a.clarify.Reason, 0.5)
}

// Step 7: nothing matched.
func (c *Classifier) ruleDefault(a *analysis) *domain.ClassificationResult {
	return clarificationResult("Could not determine clear intent", 0.3)
}

func clarificationResult(explanation string, confidence float64) *domain.ClassificationResult {
	return &domain.ClassificationResult{
		Intent:      domain.IntentClarification,
		Entities:    &domain.ClarificationEntities{},
		Confidence:  confidence,
		Explanation: explanation,
	}
}

func queryExplanation(operation domain.Operation) string {
	switch operation {
	case domain.OperationCount:
		return "Statistical query"
	case domain.OperationCompare:
		return "Comparison query"
	default:
		return "Search query"
	}
}
