package evidence

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeSearch(t *testing.T, status int, body string, seen *map[string]interface{}) *elasticsearch.Client {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, seen)
		}
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return client
}

const leadAggResponse = `{
	"hits": {"total": {"value": 17}, "hits": []},
	"aggregations": {
		"by_hub": {
			"buckets": [
				{"key": 1, "doc_count": 10, "pending": {"doc_count": 4}},
				{"key": 2, "doc_count": 7, "pending": {"doc_count": 0}}
			]
		}
	}
}`

func TestElasticsearchLeadStore_TallyLeads(t *testing.T) {
	var seen map[string]interface{}
	client := newFakeSearch(t, http.StatusOK, leadAggResponse, &seen)
	store := NewElasticsearchLeadStore(client, "leads", createTestLogger(t))

	got, err := store.TallyLeads(context.Background(), Query{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].HubID)
	assert.Equal(t, 10, got[0].Total)
	assert.Equal(t, 4, got[0].Pending)
	assert.Equal(t, 0, got[1].Pending)

	assert.Equal(t, float64(0), seen["size"])
	assert.NotContains(t, seen, "query")
}

func TestElasticsearchLeadStore_HubFilter(t *testing.T) {
	var seen map[string]interface{}
	client := newFakeSearch(t, http.StatusOK, `{"aggregations":{"by_hub":{"buckets":[]}}}`, &seen)
	store := NewElasticsearchLeadStore(client, "", createTestLogger(t))

	got, err := store.TallyLeads(context.Background(), Query{HubID: hubRef(2)})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Contains(t, seen, "query")
}

func TestElasticsearchLeadStore_ErrorStatus(t *testing.T) {
	client := newFakeSearch(t, http.StatusInternalServerError, `{"error":{"type":"index_not_found_exception"}}`, nil)
	store := NewElasticsearchLeadStore(client, "leads", createTestLogger(t))

	_, err := store.TallyLeads(context.Background(), Query{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index_not_found_exception")
}

func TestBuildLeadTallyQuery(t *testing.T) {
	body := buildLeadTallyQuery(Query{HubID: hubRef(5)})

	aggs := body["aggs"].(map[string]interface{})
	byHub := aggs["by_hub"].(map[string]interface{})
	terms := byHub["terms"].(map[string]interface{})
	assert.Equal(t, "hub_id", terms["field"])

	filter := body["query"].(map[string]interface{})["bool"].(map[string]interface{})["filter"].([]interface{})
	assert.Len(t, filter, 1)
}
