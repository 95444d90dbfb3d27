package botchain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/opengovchat/decision-bot-go/pkg/errors"
	"go.uber.org/zap"
)

// client is the shared HTTP core of the downstream bot clients. Each bot
// speaks JSON over POST and reports liveness on GET /health.
type client struct {
	name       string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func newClient(name, baseURL string, timeout time.Duration, logger *zap.Logger) client {
	return client{
		name:    name,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Available reports whether the client was configured with an endpoint.
// Optional chain stages leave their URL empty.
func (c *client) Available() bool {
	return c.baseURL != ""
}

func (c *client) Ping(ctx context.Context) bool {
	if !c.Available() {
		return false
	}
	return c.doRequest(ctx, http.MethodGet, "/health", nil, nil) == nil
}

func (c *client) doRequest(ctx context.Context, method, path string, reqBody, respBody any) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return errors.NewAPIError("failed to marshal request", 400, map[string]any{
				"bot": c.name,
				"url": url,
			}).WithCause(err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return errors.NewAPIError("failed to create request", 500, map[string]any{
			"bot": c.name,
			"url": url,
		}).WithCause(err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewAPIError("request failed", 500, map[string]any{
			"bot": c.name,
			"url": url,
		}).WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return errors.NewAPIError(
			fmt.Sprintf("%s bot error: %s", c.name, resp.Status),
			resp.StatusCode,
			map[string]any{
				"bot":  c.name,
				"url":  url,
				"body": string(bodyBytes),
			},
		)
	}

	if respBody != nil {
		if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
			return errors.NewAPIError("failed to decode response", 500, map[string]any{
				"bot": c.name,
				"url": url,
			}).WithCause(err)
		}
	}

	return nil
}
