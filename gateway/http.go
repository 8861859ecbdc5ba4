// Package gateway exposes the inbound HTTP surface and sequences the
// submission pipelines across the registry, store, lookup and notifier
// clients.
package gateway

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/c360studio/fairgate/config"
	"github.com/c360studio/fairgate/errors"
	"github.com/c360studio/fairgate/graph"
	"github.com/c360studio/fairgate/metric"
	"github.com/c360studio/fairgate/model"
	"github.com/c360studio/fairgate/notify"
	"github.com/c360studio/fairgate/registry"
	"github.com/c360studio/fairgate/store"
)

// maxRequestBodySize limits inbound bodies to prevent DoS.
const maxRequestBodySize = 1 << 20 // 1 MB

// Component wires the gateway handlers to their upstream clients.
type Component struct {
	cfg      *config.Config
	cfgErr   error // configuration validation failure, surfaced per request
	registry *registry.Client
	resolver *registry.Resolver
	writer   *store.Writer
	waiter   *store.Waiter
	notifier *notify.Notifier
	metrics  *metric.Metrics
	logger   *slog.Logger
}

// NewComponent builds the gateway and all of its upstream clients from cfg.
// An invalid configuration does not prevent construction: the server still
// starts and every request answers with the configuration error.
func NewComponent(cfg *config.Config, metrics *metric.Metrics, logger *slog.Logger) *Component {
	if logger == nil {
		logger = slog.Default()
	}

	writer := store.NewWriter(cfg.Store, metrics, store.WithWriterLogger(logger))

	return &Component{
		cfg:      cfg,
		cfgErr:   cfg.Validate(),
		registry: registry.NewClient(cfg.Registry, metrics, registry.WithLogger(logger)),
		resolver: registry.NewResolver(cfg.Lookup, metrics, registry.WithResolverLogger(logger)),
		writer:   writer,
		waiter:   store.NewWaiter(writer, cfg.Store, logger),
		notifier: notify.NewNotifier(cfg.Notifier, metrics, notify.WithNotifierLogger(logger)),
		metrics:  metrics,
		logger:   logger,
	}
}

// RegisterHTTPHandlers registers the gateway handlers under the given prefix.
// The prefix should be the path segment without a trailing slash (e.g. "api").
// Handlers are registered as:
//
//	POST <prefix>/submit
//	POST <prefix>/push
//	GET  <prefix>/health
func (c *Component) RegisterHTTPHandlers(prefix string, mux *http.ServeMux) {
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix = prefix + "/"
	}

	mux.HandleFunc(prefix+"submit", c.handleSubmit)
	mux.HandleFunc(prefix+"push", c.handlePush)
	mux.HandleFunc(prefix+"health", c.handleHealth)
}

// ----------------------------------------------------------------------------
// POST /api/submit
// ----------------------------------------------------------------------------

// handleSubmit relays a structured record to the metadata registry:
// authenticate, resolve classification references, normalize, submit.
func (c *Component) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	logger := c.requestLogger(r)
	if c.cfgErr != nil {
		c.metrics.SubmissionsTotal.WithLabelValues("error").Inc()
		writeError(w, logger, c.cfgErr)
		return
	}

	var req model.SubmissionRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBodySize)).Decode(&req); err != nil {
		c.metrics.SubmissionsTotal.WithLabelValues("error").Inc()
		writeDetail(w, http.StatusBadRequest, "invalid_request", "invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		c.metrics.SubmissionsTotal.WithLabelValues("error").Inc()
		writeDetail(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	var (
		token   string
		payload map[string]any
		result  *registry.SubmissionResult
	)

	pipeline := NewPipeline(logger,
		Step{Name: "authenticate", Run: func(ctx context.Context) error {
			var err error
			token, err = c.registry.Authenticate(ctx)
			return err
		}},
		Step{Name: "resolve classifications", Run: func(ctx context.Context) error {
			var err error
			payload, err = req.ToPayload()
			if err != nil {
				return err
			}
			c.resolveClassifications(ctx, &req.FairsharingRecord, payload)
			return nil
		}},
		Step{Name: "normalize payload", Run: func(ctx context.Context) error {
			payload, _ = registry.Normalize(payload).(map[string]any)
			return nil
		}},
		Step{Name: "submit record", Run: func(ctx context.Context) error {
			var err error
			result, err = c.registry.Submit(ctx, token, payload)
			return err
		}},
	)

	if err := pipeline.Execute(r.Context()); err != nil {
		c.metrics.SubmissionsTotal.WithLabelValues("error").Inc()
		writeError(w, logger, err)
		return
	}

	c.metrics.SubmissionsTotal.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":           "success",
		"data_status_code": result.StatusCode,
		"response":         result.Response,
	})
}

// resolveClassifications rewrites subject_ids and domain_ids in the payload
// tree from reference strings to registry-internal ids. Unresolved references
// are already dropped by the resolver; an empty result leaves an empty list
// for the normalizer to remove.
func (c *Component) resolveClassifications(ctx context.Context, rec *model.Record, payload map[string]any) {
	record, ok := payload["fairsharing_record"].(map[string]any)
	if !ok {
		return
	}
	if len(rec.SubjectIDs) > 0 {
		record["subject_ids"] = toAnySlice(c.resolver.ResolveSubjects(ctx, rec.SubjectIDs))
	}
	if len(rec.DomainIDs) > 0 {
		record["domain_ids"] = toAnySlice(c.resolver.ResolveDomains(ctx, rec.DomainIDs))
	}
}

func toAnySlice(ids []int) []any {
	out := make([]any, 0, len(ids))
	for _, id := range ids {
		out = append(out, id)
	}
	return out
}

// ----------------------------------------------------------------------------
// POST /api/push
// ----------------------------------------------------------------------------

// handlePush accepts a raw Turtle document, derives its record identity and
// performs the create-or-update store write, followed by the test-category
// propagation wait and index notification.
func (c *Component) handlePush(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	logger := c.requestLogger(r)
	if c.cfgErr != nil {
		c.metrics.PushesTotal.WithLabelValues("error").Inc()
		writeError(w, logger, c.cfgErr)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		c.metrics.PushesTotal.WithLabelValues("error").Inc()
		writeDetail(w, http.StatusBadRequest, "invalid_request", "read request body: "+err.Error())
		return
	}
	document := string(body)

	var (
		identity graph.Identity
		result   *store.WriteResult
	)

	pipeline := NewPipeline(logger,
		// The registry session is established first even though the store
		// write uses its own static token.
		Step{Name: "authenticate", Run: func(ctx context.Context) error {
			_, err := c.registry.Authenticate(ctx)
			return err
		}},
		Step{Name: "extract identity", Run: func(ctx context.Context) error {
			var err error
			identity, err = graph.ExtractIdentity(document)
			return err
		}},
		Step{Name: "write document", Run: func(ctx context.Context) error {
			var err error
			result, err = c.writer.Put(ctx, identity, document)
			return err
		}},
	)

	if err := pipeline.Execute(r.Context()); err != nil {
		c.metrics.PushesTotal.WithLabelValues("error").Inc()
		writeError(w, logger, err)
		return
	}

	if c.cfg.Store.IsTestCategory(identity.Category) {
		c.confirmAndNotify(r.Context(), logger, result)
	}

	c.metrics.PushesTotal.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "success",
		"record_id":     result.RecordID,
		"category":      result.Category,
		"canonical_uri": result.CanonicalURI,
		"path":          result.Path,
		"url":           result.HTMLURL,
		"revision":      result.Revision,
	})
}

// confirmAndNotify runs the post-write side effects for test-category pushes.
// Both are best-effort and isolated from each other: the notification fires
// whether or not the propagation wait saw the revision.
func (c *Component) confirmAndNotify(ctx context.Context, logger *slog.Logger, result *store.WriteResult) {
	found := c.waiter.Await(ctx, result.Path, result.Revision)
	if !found {
		logger.Warn("Proceeding to notification without propagation confirmation",
			slog.String("path", result.Path))
	}
	c.notifier.RecordChanged(ctx, result.CanonicalURI)
}

// ----------------------------------------------------------------------------
// GET /api/health
// ----------------------------------------------------------------------------

func (c *Component) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "fairgate",
	})
}

// ----------------------------------------------------------------------------
// helpers
// ----------------------------------------------------------------------------

// requestLogger derives a logger carrying a correlation id for this request.
func (c *Component) requestLogger(r *http.Request) *slog.Logger {
	return c.logger.With(
		slog.String("request_id", uuid.New().String()),
		slog.String("path", r.URL.Path))
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("Failed to encode response", slog.String("error", err.Error()))
	}
}

// writeError maps a pipeline error to its taxonomy status and writes the
// structured error body.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	kind := "internal_error"
	if ge, ok := errors.As(err); ok {
		kind = ge.Kind.String()
	}
	logger.Error("Request failed",
		slog.String("kind", kind),
		slog.String("error", err.Error()))
	writeDetail(w, errors.HTTPStatus(err), kind, err.Error())
}

// writeDetail writes a structured error response.
func writeDetail(w http.ResponseWriter, status int, kind, detail string) {
	writeJSON(w, status, map[string]string{
		"error":  kind,
		"detail": detail,
	})
}
