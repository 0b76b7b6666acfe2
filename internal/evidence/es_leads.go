// internal/evidence/es_leads.go
package evidence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"hub-backoffice/internal/common/logger"
	"hub-backoffice/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// ElasticsearchLeadStore tallies leads from the search index with a terms
// aggregation on hub_id. Documents carry hub_id and status.
type ElasticsearchLeadStore struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewElasticsearchLeadStore(client *elasticsearch.Client, index string, log logger.Logger) *ElasticsearchLeadStore {
	if index == "" {
		index = "leads"
	}
	return &ElasticsearchLeadStore{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"store": "elasticsearch", "index": index}),
	}
}

const maxHubBuckets = 1000

func buildLeadTallyQuery(q Query) map[string]interface{} {
	body := map[string]interface{}{
		"size": 0,
		"aggs": map[string]interface{}{
			"by_hub": map[string]interface{}{
				"terms": map[string]interface{}{
					"field": "hub_id",
					"size":  maxHubBuckets,
				},
				"aggs": map[string]interface{}{
					"pending": map[string]interface{}{
						"filter": map[string]interface{}{
							"term": map[string]interface{}{"status": models.LeadStatusPending},
						},
					},
				},
			},
		},
	}
	if q.HubID != nil {
		body["query"] = map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []interface{}{
					map[string]interface{}{"term": map[string]interface{}{"hub_id": *q.HubID}},
				},
			},
		}
	}
	return body
}

type leadTallyResponse struct {
	Aggregations struct {
		ByHub struct {
			Buckets []struct {
				Key      json.Number `json:"key"`
				DocCount int         `json:"doc_count"`
				Pending  struct {
					DocCount int `json:"doc_count"`
				} `json:"pending"`
			} `json:"buckets"`
		} `json:"by_hub"`
	} `json:"aggregations"`
}

func (s *ElasticsearchLeadStore) TallyLeads(ctx context.Context, q Query) ([]models.LeadTally, error) {
	body, err := json.Marshal(buildLeadTallyQuery(q))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		raw, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("search error [%s]: %s", res.Status(), string(raw))
	}

	var parsed leadTallyResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	out := make([]models.LeadTally, 0, len(parsed.Aggregations.ByHub.Buckets))
	for _, b := range parsed.Aggregations.ByHub.Buckets {
		hubID, err := b.Key.Int64()
		if err != nil {
			s.logger.Warn("skipping lead bucket with non-numeric hub", map[string]interface{}{"key": b.Key.String()})
			continue
		}
		out = append(out, models.LeadTally{HubID: int(hubID), Total: b.DocCount, Pending: b.Pending.DocCount})
	}
	return out, nil
}
