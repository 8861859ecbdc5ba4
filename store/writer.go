// Package store writes graph documents to a version-controlled contents API
// (GitHub-style) and confirms their propagation through the read path.
package store

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/c360studio/fairgate/config"
	"github.com/c360studio/fairgate/errors"
	"github.com/c360studio/fairgate/graph"
	"github.com/c360studio/fairgate/metric"
)

// maxResponseSize caps store response bodies to prevent memory exhaustion.
const maxResponseSize = 1 << 20 // 1 MB

// Writer performs create-or-update writes against the versioned store.
//
// Every Put is exactly one read followed by one conditional write: the read
// decides between create (no revision) and update (revision attached). Two
// concurrent creates for the same path can both observe "not found"; the
// second write then fails with the store's conflict reply, surfaced as a
// store_write_error. That race is accepted, not mitigated.
type Writer struct {
	apiBase    string
	token      string
	owner      string
	repo       string
	branch     string
	httpClient *http.Client
	metrics    *metric.Metrics
	logger     *slog.Logger
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithWriterHTTPClient sets a custom HTTP client.
func WithWriterHTTPClient(c *http.Client) WriterOption {
	return func(w *Writer) {
		w.httpClient = c
	}
}

// WithWriterLogger sets the logger.
func WithWriterLogger(logger *slog.Logger) WriterOption {
	return func(w *Writer) {
		w.logger = logger
	}
}

// NewWriter creates a Writer from the store configuration.
func NewWriter(cfg config.StoreConfig, metrics *metric.Metrics, opts ...WriterOption) *Writer {
	w := &Writer{
		apiBase: cfg.APIBase,
		token:   cfg.Token,
		owner:   cfg.Owner,
		repo:    cfg.Repo,
		branch:  cfg.Branch,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		metrics: metrics,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteResult describes a completed store write.
type WriteResult struct {
	RecordID     string `json:"record_id"`
	Category     string `json:"category"`
	CanonicalURI string `json:"canonical_uri"`
	Path         string `json:"path"`
	HTMLURL      string `json:"url,omitempty"`
	Revision     string `json:"revision"`
}

// contentEnvelope is the relevant slice of a contents API file response.
type contentEnvelope struct {
	SHA     string `json:"sha"`
	HTMLURL string `json:"html_url"`
}

// putResponse is the relevant slice of a contents API write response.
type putResponse struct {
	Content contentEnvelope `json:"content"`
}

// Put writes the document at <category>/<record_id>.ttl on the configured
// branch, creating or updating as the preceding read dictates, and returns the
// new revision token.
func (w *Writer) Put(ctx context.Context, identity graph.Identity, document string) (*WriteResult, error) {
	if w.token == "" || w.owner == "" || w.repo == "" {
		return nil, errors.NewConfiguration("versioned store credentials are not configured")
	}

	path := identity.Category + "/" + identity.RecordID + ".ttl"

	revision, err := w.Revision(ctx, path)
	if err != nil {
		return nil, err
	}

	operation := "create"
	message := fmt.Sprintf("Add %s", identity.RecordID)
	if revision != "" {
		operation = "update"
		message = fmt.Sprintf("Update %s", identity.RecordID)
	}

	body := map[string]any{
		"message": message,
		"content": base64.StdEncoding.EncodeToString([]byte(document)),
		"branch":  w.branch,
	}
	if revision != "" {
		body["sha"] = revision
	}

	resp, err := w.do(ctx, http.MethodPut, w.contentsURL(path), body)
	if err != nil {
		return nil, errors.NewStoreWrite("store write failed: "+err.Error(), "")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, errors.NewStoreWrite("read store write response: "+err.Error(), "")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.NewStoreWrite(
			fmt.Sprintf("store write to %s returned status %d", path, resp.StatusCode), string(data))
	}

	var written putResponse
	if err := json.Unmarshal(data, &written); err != nil {
		return nil, errors.NewStoreWrite("malformed store write response: "+err.Error(), "")
	}

	w.metrics.StoreWritesTotal.WithLabelValues(operation).Inc()
	w.logger.Info("Document written to versioned store",
		slog.String("path", path),
		slog.String("operation", operation),
		slog.String("revision", written.Content.SHA))

	return &WriteResult{
		RecordID:     identity.RecordID,
		Category:     identity.Category,
		CanonicalURI: identity.CanonicalURI,
		Path:         path,
		HTMLURL:      written.Content.HTMLURL,
		Revision:     written.Content.SHA,
	}, nil
}

// Revision returns the current revision token for path on the configured
// branch, or "" when the path does not exist yet. Any response other than
// 200 or 404 is a store_access_error.
func (w *Writer) Revision(ctx context.Context, path string) (string, error) {
	resp, err := w.do(ctx, http.MethodGet, w.contentsURL(path)+"?ref="+w.branch, nil)
	if err != nil {
		return "", errors.NewStoreAccess("store read failed: "+err.Error(), "")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", errors.NewStoreAccess("read store response: "+err.Error(), "")
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", nil
	case resp.StatusCode == http.StatusOK:
		var content contentEnvelope
		if err := json.Unmarshal(data, &content); err != nil {
			return "", errors.NewStoreAccess("malformed store read response: "+err.Error(), "")
		}
		return content.SHA, nil
	default:
		return "", errors.NewStoreAccess(
			fmt.Sprintf("store read for %s returned status %d", path, resp.StatusCode), string(data))
	}
}

// do issues a store API request with the static bearer token.
func (w *Writer) do(ctx context.Context, method, url string, payload any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+w.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return w.httpClient.Do(req)
}

// contentsURL builds the contents API URL for a repository path.
func (w *Writer) contentsURL(path string) string {
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s", w.apiBase, w.owner, w.repo, path)
}
