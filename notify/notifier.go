// Package notify informs the graph-search index proxy that a record's
// canonical URI changed.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/c360studio/fairgate/config"
	"github.com/c360studio/fairgate/metric"
)

// Notifier fires best-effort change notifications. Failures are logged and
// counted, never returned: a broken index proxy must not fail a submission
// that already reached the store.
type Notifier struct {
	proxyURL   string
	httpClient *http.Client
	metrics    *metric.Metrics
	logger     *slog.Logger
}

// NotifierOption configures a Notifier.
type NotifierOption func(*Notifier)

// WithNotifierHTTPClient sets a custom HTTP client.
func WithNotifierHTTPClient(c *http.Client) NotifierOption {
	return func(n *Notifier) {
		n.httpClient = c
	}
}

// WithNotifierLogger sets the logger.
func WithNotifierLogger(logger *slog.Logger) NotifierOption {
	return func(n *Notifier) {
		n.logger = logger
	}
}

// NewNotifier creates a Notifier from the notifier configuration.
func NewNotifier(cfg config.NotifierConfig, metrics *metric.Metrics, opts ...NotifierOption) *Notifier {
	n := &Notifier{
		proxyURL: cfg.ProxyURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		metrics: metrics,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// RecordChanged posts the canonical URI to the index proxy. No retry; any
// failure is swallowed after logging.
func (n *Notifier) RecordChanged(ctx context.Context, canonicalURI string) {
	if n.proxyURL == "" {
		n.logger.Debug("Index proxy not configured, skipping notification",
			slog.String("client_url", canonicalURI))
		return
	}

	body, err := json.Marshal(map[string]string{"clientUrl": canonicalURI})
	if err != nil {
		n.fail(canonicalURI, err.Error())
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.proxyURL, bytes.NewReader(body))
	if err != nil {
		n.fail(canonicalURI, err.Error())
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		n.fail(canonicalURI, err.Error())
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		n.fail(canonicalURI, resp.Status)
		return
	}

	n.logger.Info("Index notified of record change",
		slog.String("client_url", canonicalURI))
}

func (n *Notifier) fail(canonicalURI, reason string) {
	n.metrics.NotifyFailures.Inc()
	n.logger.Warn("Index notification failed",
		slog.String("client_url", canonicalURI),
		slog.String("reason", reason))
}
