package botchain

import (
	"context"
	"net/http"

	"github.com/opengovchat/decision-bot-go/internal/constants"
	"go.uber.org/zap"
)

// FormatterClient fronts the optional reply-formatting bot. The built-in
// adapter rendering is the fallback, so Format returns ok=false instead
// of an error.
type FormatterClient struct {
	client
}

func NewFormatterClient(baseURL string, logger *zap.Logger) *FormatterClient {
	return &FormatterClient{
		client: newClient("formatter", baseURL, constants.BotChainConfig.RequestTimeout, logger),
	}
}

func (c *FormatterClient) Format(ctx context.Context, req FormatRequest) (string, bool) {
	if !c.Available() {
		return "", false
	}

	var resp FormatResponse
	if err := c.doRequest(ctx, http.MethodPost, "/format", req, &resp); err != nil {
		c.logger.Warn("Formatting request failed, using built-in rendering", zap.Error(err))
		return "", false
	}

	if !resp.Success || resp.Text == "" {
		return "", false
	}

	return resp.Text, true
}
