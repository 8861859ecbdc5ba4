package store

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/fairgate/config"
	"github.com/c360studio/fairgate/errors"
	"github.com/c360studio/fairgate/graph"
	"github.com/c360studio/fairgate/metric"
)

const testDocument = `<https://example.org/terms/metric/Filename_678.ttl> a <http://example.org/Metric> .`

var testIdentity = graph.Identity{
	RecordID:     "Filename_678",
	Category:     "metric",
	CanonicalURI: "https://example.org/terms/metric/Filename_678.ttl",
}

// fakeStore emulates the contents API for a single path.
type fakeStore struct {
	t *testing.T
	// existingSHA is returned by GET when non-empty; otherwise GET is 404.
	existingSHA string
	// lastPut captures the decoded body of the last PUT request.
	lastPut map[string]any
	// putStatus overrides the PUT response status when non-zero.
	putStatus int
	// getStatus overrides the GET response status when non-zero.
	getStatus int
}

func (f *fakeStore) server() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(f.t, "Bearer store-token", r.Header.Get("Authorization"))

		switch r.Method {
		case http.MethodGet:
			if f.getStatus != 0 {
				http.Error(w, "store unavailable", f.getStatus)
				return
			}
			if f.existingSHA == "" {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			require.Equal(f.t, "main", r.URL.Query().Get("ref"))
			json.NewEncoder(w).Encode(map[string]string{"sha": f.existingSHA})
		case http.MethodPut:
			var body map[string]any
			require.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))
			f.lastPut = body
			if f.putStatus != 0 {
				w.WriteHeader(f.putStatus)
				w.Write([]byte(`{"message":"Invalid request"}`))
				return
			}
			status := http.StatusCreated
			if f.existingSHA != "" {
				status = http.StatusOK
			}
			w.WriteHeader(status)
			json.NewEncoder(w).Encode(map[string]any{
				"content": map[string]string{
					"sha":      "new-sha-123",
					"html_url": "https://store.example/blob/main/metric/Filename_678.ttl",
				},
			})
		default:
			f.t.Errorf("unexpected method %s", r.Method)
		}
	}))
}

func newTestWriter(apiBase string) *Writer {
	cfg := config.StoreConfig{
		APIBase: apiBase,
		Token:   "store-token",
		Owner:   "fair-data",
		Repo:    "records",
		Branch:  "main",
		Timeout: 5 * time.Second,
	}
	return NewWriter(cfg, metric.NewMetrics())
}

func TestPutCreate(t *testing.T) {
	fake := &fakeStore{t: t}
	srv := fake.server()
	defer srv.Close()

	w := newTestWriter(srv.URL)

	result, err := w.Put(t.Context(), testIdentity, testDocument)
	require.NoError(t, err)

	assert.Equal(t, "Filename_678", result.RecordID)
	assert.Equal(t, "metric", result.Category)
	assert.Equal(t, "metric/Filename_678.ttl", result.Path)
	assert.Equal(t, "new-sha-123", result.Revision)
	assert.Equal(t, testIdentity.CanonicalURI, result.CanonicalURI)

	require.NotNil(t, fake.lastPut)
	// First write carries no revision token.
	assert.NotContains(t, fake.lastPut, "sha")
	assert.Equal(t, "main", fake.lastPut["branch"])
	assert.Contains(t, fake.lastPut["message"], "Filename_678")

	decoded, err := base64.StdEncoding.DecodeString(fake.lastPut["content"].(string))
	require.NoError(t, err)
	assert.Equal(t, testDocument, string(decoded))
}

func TestPutUpdateAttachesRevision(t *testing.T) {
	fake := &fakeStore{t: t, existingSHA: "old-sha-456"}
	srv := fake.server()
	defer srv.Close()

	w := newTestWriter(srv.URL)

	result, err := w.Put(t.Context(), testIdentity, testDocument)
	require.NoError(t, err)
	assert.Equal(t, "new-sha-123", result.Revision)

	require.NotNil(t, fake.lastPut)
	assert.Equal(t, "old-sha-456", fake.lastPut["sha"])
}

func TestPutUnexpectedReadStatus(t *testing.T) {
	fake := &fakeStore{t: t, getStatus: http.StatusBadGateway}
	srv := fake.server()
	defer srv.Close()

	w := newTestWriter(srv.URL)

	_, err := w.Put(t.Context(), testIdentity, testDocument)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindStoreAccess))
	// No write is attempted when the read fails.
	assert.Nil(t, fake.lastPut)
}

func TestPutWriteRejected(t *testing.T) {
	fake := &fakeStore{t: t, putStatus: http.StatusUnprocessableEntity}
	srv := fake.server()
	defer srv.Close()

	w := newTestWriter(srv.URL)

	_, err := w.Put(t.Context(), testIdentity, testDocument)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindStoreWrite))
	assert.Contains(t, err.Error(), "Invalid request")
}

func TestPutUnconfigured(t *testing.T) {
	w := NewWriter(config.StoreConfig{Timeout: time.Second}, metric.NewMetrics())

	_, err := w.Put(t.Context(), testIdentity, testDocument)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindConfiguration))
}

func TestRevisionNotFound(t *testing.T) {
	fake := &fakeStore{t: t}
	srv := fake.server()
	defer srv.Close()

	w := newTestWriter(srv.URL)

	revision, err := w.Revision(t.Context(), "metric/Filename_678.ttl")
	require.NoError(t, err)
	assert.Empty(t, revision)
}
