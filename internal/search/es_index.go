package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"

	"github.com/devshittu/media-be-sub000/pkg/logger"
)

const (
	defaultPageSize = 10
	maxPageSize     = 50
	suggesterName   = "title-suggest"
)

// ESIndex backs the search index with Elasticsearch: multi-field fuzzy and
// phrase queries plus a completion suggester over story titles.
type ESIndex struct {
	client *elasticsearch.Client
	index  string
	logger *zap.Logger
}

// NewESIndex creates an Elasticsearch-backed index.
func NewESIndex(client *elasticsearch.Client, index string) *ESIndex {
	return &ESIndex{
		client: client,
		index:  index,
		logger: logger.Get(),
	}
}

// IndexDocument upserts a story document, including the completion
// suggester input built from the title.
func (e *ESIndex) IndexDocument(ctx context.Context, doc StoryDocument) error {
	payload := map[string]interface{}{
		"id":          doc.ID,
		"slug":        doc.Slug,
		"title":       doc.Title,
		"body":        doc.Body,
		"category_id": doc.CategoryID,
		"created_at":  doc.CreatedAt,
		"suggest": map[string]interface{}{
			"input": []string{doc.Title},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode story document: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      e.index,
		DocumentID: strconv.FormatInt(doc.ID, 10),
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return fmt.Errorf("failed to index story document: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index request failed: %s", res.String())
	}

	e.logger.Debug("Story document indexed", zap.Int64("story_id", doc.ID))
	return nil
}

// DeleteDocument removes a story document. An already-missing document is
// not an error.
func (e *ESIndex) DeleteDocument(ctx context.Context, storyID int64) error {
	req := esapi.DeleteRequest{
		Index:      e.index,
		DocumentID: strconv.FormatInt(storyID, 10),
	}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return fmt.Errorf("failed to delete story document: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.IsError() {
		return fmt.Errorf("delete request failed: %s", res.String())
	}
	return nil
}

// Search runs the multi-field fuzzy match, title weighted above body, with
// an optional phrase boost, ranked by relevance then recency.
func (e *ESIndex) Search(ctx context.Context, q IndexQuery) (*Results, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	size := q.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	boolQuery := map[string]interface{}{
		"must": []interface{}{
			map[string]interface{}{
				"multi_match": map[string]interface{}{
					"query":     q.Query,
					"fields":    []string{"title^2", "body"},
					"fuzziness": "AUTO",
				},
			},
		},
	}
	if q.PhraseBoost {
		boolQuery["should"] = []interface{}{
			map[string]interface{}{
				"match_phrase": map[string]interface{}{
					"title": map[string]interface{}{
						"query": q.Query,
						"boost": 2,
					},
				},
			},
		}
	}

	body, err := json.Marshal(map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
		"from":  (page - 1) * size,
		"size":  size,
		"sort": []interface{}{
			map[string]interface{}{"_score": map[string]interface{}{"order": "desc"}},
			map[string]interface{}{"created_at": map[string]interface{}{"order": "desc"}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode search query: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithContext(ctx),
		e.client.Search.WithIndex(e.index),
		e.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search request failed: %s", res.String())
	}

	var parsed struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Score  float64       `json:"_score"`
				Source StoryDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := decodeBody(res.Body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	results := &Results{
		Hits:  make([]Hit, 0, len(parsed.Hits.Hits)),
		Total: parsed.Hits.Total.Value,
	}
	for _, h := range parsed.Hits.Hits {
		results.Hits = append(results.Hits, Hit{
			StoryID: h.Source.ID,
			Slug:    h.Source.Slug,
			Title:   h.Source.Title,
			Score:   h.Score,
		})
	}
	return results, nil
}

// Suggest runs the fuzzy completion suggester over story titles.
func (e *ESIndex) Suggest(ctx context.Context, prefix string, fuzziness, limit int) ([]string, error) {
	body, err := json.Marshal(map[string]interface{}{
		"suggest": map[string]interface{}{
			suggesterName: map[string]interface{}{
				"prefix": prefix,
				"completion": map[string]interface{}{
					"field": "suggest",
					"size":  limit,
					"fuzzy": map[string]interface{}{
						"fuzziness": fuzziness,
					},
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode suggest query: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithContext(ctx),
		e.client.Search.WithIndex(e.index),
		e.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("suggest request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("suggest request failed: %s", res.String())
	}

	var parsed struct {
		Suggest map[string][]struct {
			Options []struct {
				Text string `json:"text"`
			} `json:"options"`
		} `json:"suggest"`
	}
	if err := decodeBody(res.Body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode suggest response: %w", err)
	}

	var suggestions []string
	for _, entry := range parsed.Suggest[suggesterName] {
		for _, opt := range entry.Options {
			suggestions = append(suggestions, opt.Text)
		}
	}
	return suggestions, nil
}

func decodeBody(r io.Reader, v interface{}) error {
	return json.NewDecoder(r).Decode(v)
}
