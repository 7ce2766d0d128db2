package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowrk/distill/internal/types"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestOpenUnknownBackend(t *testing.T) {
	_, _, err := Open(context.Background(), types.StoreConfig{Backend: "chroma"}, nil, nil)
	assert.Error(t, err)
}

// fakeQdrant imitates the handful of REST endpoints the maintainer
// uses.
func fakeQdrant(t *testing.T, collection string, count int, exists bool) (*httptest.Server, *string) {
	t.Helper()

	var lastAPIKey string
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		lastAPIKey = r.Header.Get("api-key")
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc(fmt.Sprintf("/collections/%s/points/count", collection),
		func(w http.ResponseWriter, r *http.Request) {
			lastAPIKey = r.Header.Get("api-key")
			if r.Method != http.MethodPost {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			if !exists {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"status": "ok",
				"result": map[string]any{"count": count},
			})
		})
	mux.HandleFunc(fmt.Sprintf("/collections/%s/points/delete", collection),
		func(w http.ResponseWriter, r *http.Request) {
			lastAPIKey = r.Header.Get("api-key")
			if r.Method != http.MethodPost {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			if !exists {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			var req struct {
				Filter struct {
					Must []struct {
						Key   string `json:"key"`
						Match struct {
							Value string `json:"value"`
						} `json:"match"`
					} `json:"must"`
				} `json:"filter"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil ||
				len(req.Filter.Must) == 0 || req.Filter.Must[0].Key != "origin" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			json.NewEncoder(w).Encode(map[string]any{"status": "ok"})
		})
	mux.HandleFunc(fmt.Sprintf("/collections/%s", collection),
		func(w http.ResponseWriter, r *http.Request) {
			lastAPIKey = r.Header.Get("api-key")
			if r.Method == http.MethodDelete {
				if !exists {
					w.WriteHeader(http.StatusNotFound)
					return
				}
				w.WriteHeader(http.StatusOK)
				return
			}
			if !exists {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"status": "ok",
				"result": map[string]any{
					"config": map[string]any{
						"params": map[string]any{
							"vectors": map[string]any{"size": 768, "distance": "Cosine"},
						},
					},
				},
			})
		})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &lastAPIKey
}

func qdrantMaintainerFor(t *testing.T, serverURL, collection, apiKey string) *qdrantMaintainer {
	t.Helper()
	base, err := url.Parse(serverURL)
	require.NoError(t, err)
	return &qdrantMaintainer{
		base:       *base,
		apiKey:     apiKey,
		collection: collection,
		client:     http.DefaultClient,
		log:        testLogger(),
	}
}

func TestQdrantMaintainerCount(t *testing.T) {
	server, _ := fakeQdrant(t, "notes", 42, true)
	m := qdrantMaintainerFor(t, server.URL, "notes", "")

	count, err := m.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, count)
}

func TestQdrantMaintainerCountMissingCollection(t *testing.T) {
	server, _ := fakeQdrant(t, "notes", 0, false)
	m := qdrantMaintainerFor(t, server.URL, "notes", "")

	count, err := m.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count, "a collection that does not exist yet counts as empty")
}

func TestQdrantMaintainerReset(t *testing.T) {
	server, _ := fakeQdrant(t, "notes", 3, true)
	m := qdrantMaintainerFor(t, server.URL, "notes", "")

	assert.NoError(t, m.Reset(context.Background()))

	// Resetting an absent collection is not an error.
	server2, _ := fakeQdrant(t, "notes", 0, false)
	m2 := qdrantMaintainerFor(t, server2.URL, "notes", "")
	assert.NoError(t, m2.Reset(context.Background()))
}

func TestQdrantMaintainerDimension(t *testing.T) {
	server, _ := fakeQdrant(t, "notes", 3, true)
	m := qdrantMaintainerFor(t, server.URL, "notes", "")

	dim, err := m.Dimension(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 768, dim)
}

func TestQdrantMaintainerDimensionMissingCollection(t *testing.T) {
	server, _ := fakeQdrant(t, "notes", 0, false)
	m := qdrantMaintainerFor(t, server.URL, "notes", "")

	_, err := m.Dimension(context.Background())
	assert.ErrorIs(t, err, ErrEmptyCollection)
}

func TestQdrantMaintainerDeleteSource(t *testing.T) {
	server, _ := fakeQdrant(t, "notes", 3, true)
	m := qdrantMaintainerFor(t, server.URL, "notes", "")

	assert.NoError(t, m.DeleteSource(context.Background(), "https://example.com/docs"))

	// Deleting from an absent collection is not an error.
	server2, _ := fakeQdrant(t, "notes", 0, false)
	m2 := qdrantMaintainerFor(t, server2.URL, "notes", "")
	assert.NoError(t, m2.DeleteSource(context.Background(), "https://example.com/docs"))
}

func TestQdrantMaintainerSendsAPIKey(t *testing.T) {
	server, lastKey := fakeQdrant(t, "notes", 1, true)
	m := qdrantMaintainerFor(t, server.URL, "notes", "secret-key")

	require.NoError(t, m.Ping(context.Background()))
	assert.Equal(t, "secret-key", *lastKey)
}
