package botchain

import (
	"context"
	"net/http"

	"github.com/opengovchat/decision-bot-go/internal/constants"
	"github.com/opengovchat/decision-bot-go/internal/domain"
	"go.uber.org/zap"
)

// RankerClient fronts the optional relevance-ranking bot. When it is not
// configured or fails, callers keep the original result order.
type RankerClient struct {
	client
}

func NewRankerClient(baseURL string, logger *zap.Logger) *RankerClient {
	return &RankerClient{
		client: newClient("ranker", baseURL, constants.BotChainConfig.RequestTimeout, logger),
	}
}

// Rank reorders results by relevance to the query. It degrades to the
// input order on any failure; ranking is never worth breaking a reply.
func (c *RankerClient) Rank(ctx context.Context, query string, results []domain.Decision) []domain.Decision {
	if !c.Available() || len(results) < 2 {
		return results
	}

	req := RankRequest{Query: query, Results: results}

	var resp RankResponse
	if err := c.doRequest(ctx, http.MethodPost, "/rank", req, &resp); err != nil {
		c.logger.Warn("Ranking request failed, keeping original order", zap.Error(err))
		return results
	}

	if !resp.Success || len(resp.Results) != len(results) {
		c.logger.Warn("Ranker returned an unusable ordering, keeping original order",
			zap.Int("sent", len(results)),
			zap.Int("received", len(resp.Results)),
		)
		return results
	}

	return resp.Results
}
