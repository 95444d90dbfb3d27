package botchain

import "github.com/opengovchat/decision-bot-go/internal/domain"

type QueryRequest struct {
	Operation     string            `json:"operation"`
	Entities      domain.EntityCore `json:"entities"`
	ConvID        string            `json:"conv_id,omitempty"`
	IsStatistical bool              `json:"is_statistical,omitempty"`
	IsComparison  bool              `json:"is_comparison,omitempty"`
}

type QueryResponse struct {
	Success bool                 `json:"success"`
	Results []domain.Decision    `json:"results"`
	Total   int                  `json:"total"`
	Buckets []domain.CountBucket `json:"buckets,omitempty"`
	Error   string               `json:"error,omitempty"`
}

type EvaluateRequest struct {
	GovernmentNumber int    `json:"government_number"`
	DecisionNumber   int    `json:"decision_number"`
	ConvID           string `json:"conv_id,omitempty"`
}

type EvaluateResponse struct {
	Success  bool             `json:"success"`
	Report   string           `json:"report"`
	Score    float64          `json:"score,omitempty"`
	Decision *domain.Decision `json:"decision,omitempty"`
	Error    string           `json:"error,omitempty"`
}

type RankRequest struct {
	Query   string            `json:"query"`
	Results []domain.Decision `json:"results"`
}

type RankResponse struct {
	Success bool              `json:"success"`
	Results []domain.Decision `json:"results"`
	Error   string            `json:"error,omitempty"`
}

type FormatRequest struct {
	Operation string            `json:"operation"`
	Query     string            `json:"query"`
	Results   []domain.Decision `json:"results,omitempty"`
	Count     int               `json:"count,omitempty"`
	Report    string            `json:"report,omitempty"`
}

type FormatResponse struct {
	Success bool   `json:"success"`
	Text    string `json:"text"`
	Error   string `json:"error,omitempty"`
}
