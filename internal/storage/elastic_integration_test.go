package storage_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/ignatij/logreport/internal/config"
	internal_storage "github.com/ignatij/logreport/internal/storage"
	"github.com/ignatij/logreport/internal/testutil"
	"github.com/ignatij/logreport/pkg/models"
	"github.com/ignatij/logreport/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElasticStoreAgainstContainer(t *testing.T) {
	testES := testutil.SetupTestElastic(t)
	defer testES.Teardown(t)

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{testES.URL}})
	require.NoError(t, err)

	docs := map[string]string{
		"old": `{"api_name": "orders", "status": "200", "response_time": 35, "timestamp": "2024-01-01T10:00:00", "extra": "dropped"}`,
		"new": `{"api_name": "users", "status": "500", "error": "timeout", "timestamp": "2024-01-02T10:00:00"}`,
	}
	for id, doc := range docs {
		res, err := es.Index("api_logs", strings.NewReader(doc),
			es.Index.WithDocumentID(id),
			es.Index.WithRefresh("true"),
		)
		require.NoError(t, err)
		require.False(t, res.IsError(), res.String())
		res.Body.Close()
	}

	store, err := internal_storage.NewElasticStore(config.Elastic{
		URL:     testES.URL,
		Index:   "api_logs",
		Timeout: 10 * time.Second,
	})
	require.NoError(t, err)

	assert.Equal(t, "Connected to Elasticsearch!", store.TestConnection(context.Background()))

	records, err := store.FetchRecent(context.Background(), storage.RecentLimit)
	require.NoError(t, err)
	require.Len(t, records, 2)

	models.SortByTimestampDesc(records)
	assert.Equal(t, "new", records[0].ID)
	assert.Equal(t, "timeout", *records[0].Error)
	assert.Equal(t, "old", records[1].ID)
	assert.Equal(t, "35", *records[1].ResponseTime)
	assert.Nil(t, records[1].Error)
}
