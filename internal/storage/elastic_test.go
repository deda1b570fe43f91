package storage_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ignatij/logreport/internal/config"
	internal_storage "github.com/ignatij/logreport/internal/storage"
	"github.com/ignatij/logreport/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchResponse = `{
	"took": 3,
	"hits": {
		"total": {"value": 4, "relation": "eq"},
		"hits": [
			{"_index": "api_logs", "_id": "a1", "_source": {"api_name": "users", "status": "200", "response_time": 120, "error": null, "timestamp": "2024-01-02T10:00:00"}},
			{"_index": "api_logs", "_id": "a2", "_source": {"status": "500", "error": "boom"}},
			{"_index": "api_logs", "_id": "a3", "_source": {"api_name": {"nested": true}}},
			{"_index": "api_logs", "_source": {"api_name": "orphan"}},
			{"_index": "api_logs", "_id": "a5"}
		]
	}
}`

// fakeElastic serves just enough of the Elasticsearch API for the store.
func fakeElastic(t *testing.T, search http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/":
			_, _ = w.Write([]byte(`{"version": {"number": "8.13.4", "build_flavor": "default"}, "tagline": "You Know, for Search"}`))
		case "/api_logs/_search":
			search(w, r)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newStore(t *testing.T, url string) *internal_storage.ElasticStore {
	t.Helper()
	store, err := internal_storage.NewElasticStore(config.Elastic{
		URL:     url,
		Index:   "api_logs",
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)
	return store
}

func TestElasticStore(t *testing.T) {
	t.Run("FetchRecentDecodesHits", func(t *testing.T) {
		var query map[string]string
		srv := fakeElastic(t, func(w http.ResponseWriter, r *http.Request) {
			query = map[string]string{
				"size":             r.URL.Query().Get("size"),
				"_source_includes": r.URL.Query().Get("_source_includes"),
			}
			_, _ = w.Write([]byte(searchResponse))
		})
		store := newStore(t, srv.URL)

		records, err := store.FetchRecent(context.Background(), storage.RecentLimit)
		require.NoError(t, err)

		assert.Equal(t, "50", query["size"])
		assert.Equal(t, "api_name,status,response_time,error,timestamp", query["_source_includes"])

		// a3 fails the schema, the fourth hit has no id.
		require.Len(t, records, 3)
		assert.Equal(t, "a1", records[0].ID)
		assert.Equal(t, "users", *records[0].APIName)
		assert.Equal(t, "120", *records[0].ResponseTime)
		assert.Nil(t, records[0].Error)
		assert.Equal(t, "2024-01-02T10:00:00", *records[0].Timestamp)

		assert.Equal(t, "a2", records[1].ID)
		assert.Nil(t, records[1].APIName)
		assert.Equal(t, "boom", *records[1].Error)

		assert.Equal(t, "a5", records[2].ID)
		assert.Nil(t, records[2].Status)
		assert.Nil(t, records[2].Timestamp)
	})

	t.Run("FetchRecentClampsLimit", func(t *testing.T) {
		var size string
		srv := fakeElastic(t, func(w http.ResponseWriter, r *http.Request) {
			size = r.URL.Query().Get("size")
			_, _ = w.Write([]byte(`{"hits": {"hits": []}}`))
		})
		store := newStore(t, srv.URL)

		records, err := store.FetchRecent(context.Background(), 500)
		require.NoError(t, err)
		assert.Empty(t, records)
		assert.Equal(t, "50", size)
	})

	t.Run("BackendErrorIsRetrievalError", func(t *testing.T) {
		srv := fakeElastic(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error": {"type": "index_not_found_exception", "reason": "no such index [api_logs]"}, "status": 404}`))
		})
		store := newStore(t, srv.URL)

		_, err := store.FetchRecent(context.Background(), storage.RecentLimit)
		require.Error(t, err)
		var retrievalErr *storage.RetrievalError
		assert.True(t, errors.As(err, &retrievalErr))
		assert.Contains(t, err.Error(), "Elasticsearch error")
		assert.Contains(t, err.Error(), "no such index [api_logs]")
	})

	t.Run("UnreachableBackend", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()
		store := newStore(t, url)

		_, err := store.FetchRecent(context.Background(), storage.RecentLimit)
		var retrievalErr *storage.RetrievalError
		assert.True(t, errors.As(err, &retrievalErr))

		assert.Contains(t, store.TestConnection(context.Background()), "Failed to connect:")
	})

	t.Run("TestConnectionSucceeds", func(t *testing.T) {
		srv := fakeElastic(t, func(w http.ResponseWriter, r *http.Request) {})
		store := newStore(t, srv.URL)
		assert.Equal(t, "Connected to Elasticsearch!", store.TestConnection(context.Background()))
	})
}
