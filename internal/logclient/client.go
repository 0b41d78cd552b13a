package logclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/portafacil/access-control/internal/model"
)

// Client ships action records to the log service.  Recording is
// best-effort: callers fire it in a goroutine and a failure is only
// logged, never surfaced to the request that triggered it.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// New returns a client for the given log service base URL.  An empty URL
// yields a nil client, which Record treats as a no-op.
func New(baseURL string, logger *zap.Logger) *Client {
	if baseURL == "" {
		return nil
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 2 * time.Second},
		logger:  logger,
	}
}

// Record posts a single action entry.
func (c *Client) Record(ctx context.Context, entry model.LogEntry) {
	if c == nil {
		return
	}
	body, err := json.Marshal(entry)
	if err != nil {
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/log", bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("log service unreachable", zap.Error(err))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		c.logger.Warn("log service rejected entry", zap.Error(fmt.Errorf("status %d", resp.StatusCode)))
	}
}
