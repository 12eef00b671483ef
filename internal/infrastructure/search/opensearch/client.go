// Package opensearch keeps a searchable copy of stored environments in an
// OpenSearch index.
package opensearch

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/turtacn/chemenv/internal/config"
	"github.com/turtacn/chemenv/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemenv/pkg/errors"
)

const (
	defaultMaxRetries      = 3
	defaultRetryBackoff    = 100 * time.Millisecond
	defaultMaxIdlePerHost  = 10
	healthCheckInterval    = 30 * time.Second
	defaultRequestDeadline = 10 * time.Second
)

// Client manages the cluster connection and tracks its health in the
// background.
type Client struct {
	client  *opensearch.Client
	index   string
	timeout time.Duration
	logger  logging.Logger
	healthy atomic.Bool
	cancel  context.CancelFunc
}

// NewClient pings the cluster before returning.
func NewClient(cfg config.OpenSearchConfig, logger logging.Logger) (*Client, error) {
	if len(cfg.Addresses) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "opensearch addresses are required")
	}
	if cfg.Index == "" {
		return nil, errors.New(errors.ErrCodeValidation, "opensearch index is required")
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestDeadline
	}

	transport := &http.Transport{MaxIdleConnsPerHost: defaultMaxIdlePerHost}
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for self-signed clusters
	}

	client, err := opensearch.NewClient(opensearch.Config{
		Addresses:     cfg.Addresses,
		Username:      cfg.User,
		Password:      cfg.Password,
		MaxRetries:    defaultMaxRetries,
		RetryBackoff:  func(int) time.Duration { return defaultRetryBackoff },
		Transport:     transport,
		RetryOnStatus: []int{502, 503, 504, 429},
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to create opensearch client")
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{client: client, index: cfg.Index, timeout: timeout, logger: logger, cancel: cancel}

	pingCtx, pingCancel := context.WithTimeout(ctx, timeout)
	defer pingCancel()
	if err := c.Ping(pingCtx); err != nil {
		cancel()
		return nil, errors.Wrap(err, errors.ErrCodeServiceUnavailable, "failed to connect to opensearch")
	}

	go c.startHealthCheck(ctx)
	logger.Info("OpenSearch client connected",
		logging.Strings("addresses", cfg.Addresses),
		logging.String("index", cfg.Index))
	return c, nil
}

// Ping checks the connection to OpenSearch.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.client.Ping(c.client.Ping.WithContext(ctx))
	if err != nil {
		c.healthy.Store(false)
		c.logger.Warn("OpenSearch ping failed", logging.Err(err))
		return err
	}
	defer resp.Body.Close()

	if resp.IsError() {
		c.healthy.Store(false)
		c.logger.Warn("OpenSearch ping returned error status", logging.Int("status", resp.StatusCode))
		return errors.New(errors.ErrCodeServiceUnavailable, "ping returned error status")
	}
	c.healthy.Store(true)
	return nil
}

// IsHealthy reports the result of the last ping.
func (c *Client) IsHealthy() bool { return c.healthy.Load() }

// Index returns the environment index name.
func (c *Client) Index() string { return c.index }

// Close stops the health check.
func (c *Client) Close() error {
	c.cancel()
	c.logger.Info("OpenSearch client closed")
	return nil
}

func (c *Client) startHealthCheck(ctx context.Context) {
	ticker := time.NewTicker(healthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prev := c.healthy.Load()
			err := c.Ping(ctx)
			curr := c.healthy.Load()
			if prev && !curr {
				c.logger.Error("OpenSearch cluster became unhealthy", logging.Err(err))
			} else if !prev && curr {
				c.logger.Info("OpenSearch cluster recovered")
			}
		}
	}
}

// withTimeout bounds one request by the configured deadline.
func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

// responseError turns an error response into an AppError carrying the
// cluster's reason when the body has one.
func responseError(resp *opensearchapi.Response, message string) error {
	var errResp struct {
		Error struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	}
	body, _ := io.ReadAll(resp.Body)
	appErr := errors.New(errors.ErrCodeExternalService, message)
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Reason != "" {
		return appErr.WithDetail(errResp.Error.Type + ": " + errResp.Error.Reason)
	}
	return appErr.WithDetail(resp.Status())
}

//Personal.AI order the ending
