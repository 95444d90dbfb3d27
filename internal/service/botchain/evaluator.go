package botchain

import (
	"context"
	"fmt"
	"net/http"

	"github.com/opengovchat/decision-bot-go/internal/constants"
	"go.uber.org/zap"
)

// EvaluatorClient fronts the deep-analysis bot. Evaluation reads the full
// decision document, so this client carries the chain's longest timeout.
type EvaluatorClient struct {
	client
}

func NewEvaluatorClient(baseURL string, logger *zap.Logger) *EvaluatorClient {
	return &EvaluatorClient{
		client: newClient("evaluator", baseURL, constants.BotChainConfig.EvaluatorTimeout, logger),
	}
}

func (c *EvaluatorClient) Evaluate(ctx context.Context, governmentNumber, decisionNumber int, convID string) (*EvaluateResponse, error) {
	req := EvaluateRequest{
		GovernmentNumber: governmentNumber,
		DecisionNumber:   decisionNumber,
		ConvID:           convID,
	}

	var resp EvaluateResponse
	if err := c.doRequest(ctx, http.MethodPost, "/evaluate", req, &resp); err != nil {
		c.logger.Error("Evaluation request failed",
			zap.Int("government", governmentNumber),
			zap.Int("decision", decisionNumber),
			zap.Error(err),
		)
		return nil, err
	}

	if !resp.Success {
		return nil, fmt.Errorf("evaluator bot failed: %s", resp.Error)
	}

	return &resp, nil
}
