package knowledge

import (
	"context"
	"fmt"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"

	"github.com/hausly/voicedesk/internal/config"
)

const (
	searchLimit       = 4
	priorContextLimit = 3
)

// WeaviateStore implements Store against a Weaviate instance.
type WeaviateStore struct {
	client *weaviate.Client
	cfg    config.KnowledgeConfig
}

// NewWeaviateStore wraps an existing Weaviate client.
func NewWeaviateStore(client *weaviate.Client, cfg config.KnowledgeConfig) *WeaviateStore {
	return &WeaviateStore{client: client, cfg: cfg}
}

// NewWeaviateClient builds the shared Weaviate client from configuration.
func NewWeaviateClient(cfg config.KnowledgeConfig) (*weaviate.Client, error) {
	client, err := weaviate.NewClient(weaviate.Config{
		Host:   cfg.Host,
		Scheme: cfg.Scheme,
	})
	if err != nil {
		return nil, fmt.Errorf("create weaviate client: %w", err)
	}
	return client, nil
}

// Search runs a keyword query over the maintenance documentation class.
func (s *WeaviateStore) Search(ctx context.Context, query string) ([]Snippet, error) {
	fields := []graphql.Field{
		{Name: "title"},
		{Name: "content"},
		{Name: "source"},
	}

	result, err := s.client.GraphQL().Get().
		WithClassName(s.cfg.DocsClass).
		WithFields(fields...).
		WithBM25(s.client.GraphQL().Bm25ArgBuilder().WithQuery(query)).
		WithLimit(searchLimit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("knowledge search failed: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("knowledge search error: %s", result.Errors[0].Message)
	}

	objects, err := objectsForClass(result.Data["Get"], s.cfg.DocsClass)
	if err != nil {
		return nil, err
	}

	snippets := make([]Snippet, 0, len(objects))
	for _, obj := range objects {
		snippets = append(snippets, Snippet{
			Title:   stringProp(obj, "title"),
			Content: stringProp(obj, "content"),
			Source:  stringProp(obj, "source"),
		})
	}
	return snippets, nil
}

// PriorContext returns earlier video-support sessions recorded for a phone
// number, newest records first as stored.
func (s *WeaviateStore) PriorContext(ctx context.Context, phone string) ([]ContextRecord, error) {
	where := filters.Where().
		WithPath([]string{"phone"}).
		WithOperator(filters.Equal).
		WithValueString(phone)

	fields := []graphql.Field{
		{Name: "content_id"},
		{Name: "transcript"},
	}

	result, err := s.client.GraphQL().Get().
		WithClassName(s.cfg.SessionClass).
		WithFields(fields...).
		WithWhere(where).
		WithLimit(priorContextLimit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("prior-context lookup failed: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("prior-context lookup error: %s", result.Errors[0].Message)
	}

	objects, err := objectsForClass(result.Data["Get"], s.cfg.SessionClass)
	if err != nil {
		return nil, err
	}

	records := make([]ContextRecord, 0, len(objects))
	for _, obj := range objects {
		records = append(records, ContextRecord{
			ContentID:  stringProp(obj, "content_id"),
			Transcript: stringProp(obj, "transcript"),
		})
	}
	return records, nil
}

// HasVisualEvidence reports whether any video frame exists for a content id.
func (s *WeaviateStore) HasVisualEvidence(ctx context.Context, contentID string) (bool, error) {
	where := filters.Where().
		WithPath([]string{"content_id"}).
		WithOperator(filters.Equal).
		WithValueString(contentID)

	result, err := s.client.GraphQL().Get().
		WithClassName(s.cfg.FrameClass).
		WithFields(graphql.Field{Name: "content_id"}).
		WithWhere(where).
		WithLimit(1).
		Do(ctx)
	if err != nil {
		return false, fmt.Errorf("visual-evidence lookup failed: %w", err)
	}
	if len(result.Errors) > 0 {
		return false, fmt.Errorf("visual-evidence lookup error: %s", result.Errors[0].Message)
	}

	objects, err := objectsForClass(result.Data["Get"], s.cfg.FrameClass)
	if err != nil {
		return false, err
	}
	return len(objects) > 0, nil
}

func objectsForClass(getData interface{}, className string) ([]map[string]interface{}, error) {
	get, ok := getData.(map[string]interface{})
	if !ok {
		return nil, nil
	}

	raw, ok := get[className].([]interface{})
	if !ok {
		return nil, nil
	}

	objects := make([]map[string]interface{}, 0, len(raw))
	for _, item := range raw {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("unexpected %s result shape", className)
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

func stringProp(obj map[string]interface{}, key string) string {
	value, _ := obj[key].(string)
	return value
}
