package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	gocache "github.com/patrickmn/go-cache"

	"github.com/c360studio/fairgate/config"
	"github.com/c360studio/fairgate/metric"
)

// Lookup operations exposed by the classification service.
const (
	opSearchSubjects = "searchSubjects"
	opSearchDomains  = "searchDomains"
)

// lookupMatch is one entry of a lookup service response.
type lookupMatch struct {
	ID  int    `json:"id"`
	IRI string `json:"iri"`
}

// Resolver maps classification reference strings (URIs or free text) to
// registry-internal integer ids via the lookup service. References that fail
// to resolve for any reason are dropped with a warning, never surfaced to the
// caller; the relative order of resolved entries is preserved.
//
// Lookups run one request per reference with no batching and no retry. That is
// the dominant latency cost of the submission path and is accepted; a TTL
// cache in front of the service keeps repeated references off the network.
type Resolver struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	cache      *gocache.Cache
	metrics    *metric.Metrics
	logger     *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithResolverHTTPClient sets a custom HTTP client.
func WithResolverHTTPClient(c *http.Client) ResolverOption {
	return func(r *Resolver) {
		r.httpClient = c
	}
}

// WithResolverLogger sets the logger.
func WithResolverLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a Resolver from the lookup configuration.
func NewResolver(cfg config.LookupConfig, metrics *metric.Metrics, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		endpoint: cfg.URL,
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		metrics: metrics,
		logger:  slog.Default(),
	}
	if cfg.CacheTTL > 0 {
		r.cache = gocache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveSubjects resolves subject classification references in order.
func (r *Resolver) ResolveSubjects(ctx context.Context, refs []string) []int {
	return r.resolve(ctx, opSearchSubjects, refs)
}

// ResolveDomains resolves domain classification references in order.
func (r *Resolver) ResolveDomains(ctx context.Context, refs []string) []int {
	return r.resolve(ctx, opSearchDomains, refs)
}

// resolve looks up each reference sequentially; each lookup waits for the
// previous one so log lines stay in submission order.
func (r *Resolver) resolve(ctx context.Context, op string, refs []string) []int {
	resolved := make([]int, 0, len(refs))
	for _, ref := range refs {
		id, ok := r.resolveOne(ctx, op, ref)
		if !ok {
			continue
		}
		resolved = append(resolved, id)
	}
	return resolved
}

// resolveOne resolves a single reference, consulting the cache first.
// A false return means the reference is dropped.
func (r *Resolver) resolveOne(ctx context.Context, op, ref string) (int, bool) {
	cacheKey := op + "|" + ref

	if r.cache != nil {
		if cached, found := r.cache.Get(cacheKey); found {
			if id, ok := cached.(int); ok {
				r.metrics.LookupsTotal.WithLabelValues("cached").Inc()
				return id, true
			}
		}
	}

	id, err := r.lookup(ctx, op, ref)
	if err != nil {
		r.logger.Warn("Dropping unresolvable classification reference",
			slog.String("operation", op),
			slog.String("reference", ref),
			slog.String("error", err.Error()))
		r.metrics.LookupsTotal.WithLabelValues("dropped").Inc()
		return 0, false
	}

	if r.cache != nil {
		r.cache.Set(cacheKey, id, gocache.DefaultExpiration)
	}
	r.metrics.LookupsTotal.WithLabelValues("resolved").Inc()
	return id, true
}

// lookup performs one lookup request against the classification service.
func (r *Resolver) lookup(ctx context.Context, op, ref string) (int, error) {
	if r.endpoint == "" {
		return 0, fmt.Errorf("lookup service not configured")
	}

	body, err := json.Marshal(map[string]string{op: ref})
	if err != nil {
		return 0, fmt.Errorf("encode lookup request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build lookup request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("X-Api-Key", r.apiKey)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("lookup request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("lookup service returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return 0, fmt.Errorf("read lookup response: %w", err)
	}

	var matches []lookupMatch
	if err := json.Unmarshal(data, &matches); err != nil {
		return 0, fmt.Errorf("malformed lookup response: %w", err)
	}
	if len(matches) == 0 {
		return 0, fmt.Errorf("no match for reference")
	}
	return matches[0].ID, nil
}
