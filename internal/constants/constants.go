package constants

import "time"

var CacheTTL = struct {
	ClassifyResult      time.Duration
	ConversationContext time.Duration
	DecisionLookup      time.Duration
	ClarifyResponse     time.Duration
}{
	ClassifyResult:      10 * time.Minute, // per-text classification results
	ConversationContext: 30 * time.Minute, // sliding window of conversation turns
	DecisionLookup:      20 * time.Minute, // decision metadata fetched for replies
	ClarifyResponse:     15 * time.Minute, // generated clarification prompts
}

var WebSocketConfig = struct {
	MaxReconnectAttempts int
	ReconnectDelay       time.Duration
	WriteTimeout         time.Duration
	PongTimeout          time.Duration
	PingInterval         time.Duration
}{
	MaxReconnectAttempts: 5,
	ReconnectDelay:       5 * time.Second,
	WriteTimeout:         10 * time.Second,
	PongTimeout:          60 * time.Second,
	PingInterval:         54 * time.Second,
}

var RedisConfig = struct {
	ReadyTimeout time.Duration
}{
	ReadyTimeout: 5 * time.Second,
}

var InputLimits = struct {
	MaxQueryLength   int
	MaxHistoryTurns  int
	MaxResultsPerMsg int
}{
	MaxQueryLength:   500, // runes kept after sanitization
	MaxHistoryTurns:  6,   // conversation turns carried into context
	MaxResultsPerMsg: 10,  // decisions listed in a single reply
}

var RetryConfig = struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Jitter      time.Duration
}{
	MaxAttempts: 3,
	BaseDelay:   500 * time.Millisecond,
	Jitter:      250 * time.Millisecond,
}

var CircuitBreakerConfig = struct {
	FailureThreshold    int
	ResetTimeout        time.Duration
	RateLimitTimeout    time.Duration
	HealthCheckInterval time.Duration
	HealthCheckTimeout  time.Duration
}{
	FailureThreshold:    3,                // consecutive failures before OPEN
	ResetTimeout:        30 * time.Second, // default wait before retry
	RateLimitTimeout:    1 * time.Hour,    // dedicated timeout for 429 responses
	HealthCheckInterval: 10 * time.Minute,
	HealthCheckTimeout:  10 * time.Second,
}

var BotChainConfig = struct {
	RequestTimeout   time.Duration
	SQLGenTimeout    time.Duration
	EvaluatorTimeout time.Duration
	MaxRetryAttempts int
}{
	RequestTimeout:   10 * time.Second,
	SQLGenTimeout:    15 * time.Second,
	EvaluatorTimeout: 30 * time.Second, // full-document analysis is slow
	MaxRetryAttempts: 3,
}

var ScraperConfig = struct {
	BaseURL        string
	RequestTimeout time.Duration
	MaxConcurrency int
	PageSize       int
}{
	BaseURL:        "https://www.gov.il/he/departments/policies",
	RequestTimeout: 15 * time.Second,
	MaxConcurrency: 4,
	PageSize:       50,
}

var StringLimits = struct {
	ReplyText    int
	DecisionLine int
	TopicValue   int
	LogSnippet   int
}{
	ReplyText:    4000,
	DecisionLine: 120,
	TopicValue:   80,
	LogSnippet:   60, // runes of user text echoed into logs
}
