package botchain

import (
	"context"
	"fmt"
	"net/http"

	"github.com/opengovchat/decision-bot-go/internal/constants"
	"github.com/opengovchat/decision-bot-go/internal/domain"
	"go.uber.org/zap"
)

// SQLGenClient fronts the SQL-generation bot. It receives structured
// entities, never raw user text; query construction happens entirely on
// the bot's side.
type SQLGenClient struct {
	client
}

func NewSQLGenClient(baseURL string, logger *zap.Logger) *SQLGenClient {
	return &SQLGenClient{
		client: newClient("sqlgen", baseURL, constants.BotChainConfig.SQLGenTimeout, logger),
	}
}

func (c *SQLGenClient) GenerateQuery(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	var resp QueryResponse
	if err := c.doRequest(ctx, http.MethodPost, "/sqlgen", req, &resp); err != nil {
		c.logger.Error("SQL generation request failed",
			zap.String("operation", req.Operation),
			zap.Error(err),
		)
		return nil, err
	}

	if !resp.Success {
		return nil, fmt.Errorf("sqlgen bot rejected the query: %s", resp.Error)
	}

	return &resp, nil
}
