// Package registry talks to the metadata registry: credential exchange,
// classification lookup and authenticated record submission.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/c360studio/fairgate/config"
	"github.com/c360studio/fairgate/errors"
	"github.com/c360studio/fairgate/metric"
)

// maxResponseSize caps upstream response bodies to prevent memory exhaustion.
const maxResponseSize = 1 << 20 // 1 MB

// Client performs the registry-facing calls of the submission path.
type Client struct {
	authURL    string
	dataURL    string
	username   string
	password   string
	httpClient *http.Client
	metrics    *metric.Metrics
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(client *Client) {
		client.logger = logger
	}
}

// NewClient creates a registry client from the registry configuration.
func NewClient(cfg config.RegistryConfig, metrics *metric.Metrics, opts ...ClientOption) *Client {
	c := &Client{
		authURL:  cfg.AuthURL,
		dataURL:  cfg.DataURL,
		username: cfg.Username,
		password: cfg.Password,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		metrics: metrics,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// authResponse is the body of a successful sign-in.
type authResponse struct {
	JWT string `json:"jwt"`
}

// Authenticate exchanges the configured credentials for a bearer token.
// Any failure, including a response without a token, is an upstream auth
// error and aborts the submission.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	if c.authURL == "" || c.username == "" || c.password == "" {
		return "", errors.NewConfiguration("registry credentials are not configured")
	}

	body := map[string]any{
		"user": map[string]string{
			"login":    c.username,
			"password": c.password,
		},
	}

	resp, err := c.postJSON(ctx, c.authURL, "", body)
	if err != nil {
		return "", errors.NewUpstreamAuth("auth request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", errors.NewUpstreamAuth("read auth response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errors.NewUpstreamAuth(fmt.Sprintf("auth endpoint returned status %d", resp.StatusCode), nil)
	}

	var auth authResponse
	if err := json.Unmarshal(data, &auth); err != nil {
		return "", errors.NewUpstreamAuth("malformed auth response", err)
	}
	if auth.JWT == "" {
		return "", errors.NewUpstreamAuth("no jwt token in auth response", nil)
	}
	return auth.JWT, nil
}

// SubmissionResult carries the registry's reply to a successful submission.
type SubmissionResult struct {
	StatusCode int
	Response   any
}

// Submit posts the normalized payload to the registry with the bearer token.
// A non-2xx reply is a registry submission error carrying the upstream body.
func (c *Client) Submit(ctx context.Context, token string, payload any) (*SubmissionResult, error) {
	start := time.Now()
	resp, err := c.postJSON(ctx, c.dataURL, token, payload)
	c.metrics.ObserveRegistryDuration(time.Since(start))
	if err != nil {
		return nil, errors.NewRegistrySubmission("registry request failed: "+err.Error(), "")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, errors.NewRegistrySubmission("read registry response: "+err.Error(), "")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.NewRegistrySubmission(
			fmt.Sprintf("registry returned status %d", resp.StatusCode), string(data))
	}

	result := &SubmissionResult{StatusCode: resp.StatusCode}
	var decoded any
	if err := json.Unmarshal(data, &decoded); err == nil {
		result.Response = decoded
	} else {
		result.Response = string(data)
	}

	c.logger.Info("Record submitted to registry",
		slog.Int("status", resp.StatusCode))
	return result, nil
}

// postJSON issues a JSON POST, attaching the bearer token when present.
func (c *Client) postJSON(ctx context.Context, url, token string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.httpClient.Do(req)
}
