// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package agents

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
)

// WeaviateRetriever implements Retriever over a Weaviate class holding the
// indexed documentation.
//
// # Description
//
// Runs a nearText top-k search and reports certainty as the similarity
// score. Certainty is requested instead of distance because it is always
// in [0, 1] regardless of the configured distance metric, which keeps the
// published scores comparable across index rebuilds.
//
// # Thread Safety
//
// Safe for concurrent use; the underlying Weaviate client pools
// connections and the index is read-only from this path.
type WeaviateRetriever struct {
	client    *weaviate.Client
	className string
}

// NewWeaviateRetriever creates a retriever over className (e.g.
// "HelpArticle"). The class is expected to carry content, url, and source
// text properties.
func NewWeaviateRetriever(client *weaviate.Client, className string) *WeaviateRetriever {
	return &WeaviateRetriever{client: client, className: className}
}

// Search implements Retriever.
func (r *WeaviateRetriever) Search(ctx context.Context, query string, limit int) ([]Passage, error) {
	ctx, span := knowledgeTracer.Start(ctx, "WeaviateRetriever.Search")
	defer span.End()

	nearText := r.client.GraphQL().NearTextArgBuilder().
		WithConcepts([]string{query})

	fields := []graphql.Field{
		{Name: "content"},
		{Name: "url"},
		{Name: "source"},
		{Name: "_additional", Fields: []graphql.Field{
			{Name: "certainty"},
		}},
	}

	result, err := r.client.GraphQL().Get().
		WithClassName(r.className).
		WithFields(fields...).
		WithNearText(nearText).
		WithLimit(limit).
		Do(ctx)
	if err != nil {
		slog.Error("Weaviate search failed", "class", r.className, "error", err)
		return nil, fmt.Errorf("weaviate search failed: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("weaviate search returned errors: %s", result.Errors[0].Message)
	}

	return parsePassages(result, r.className)
}

// parsePassages walks the untyped GraphQL response. Objects missing
// expected fields are skipped rather than failing the whole search.
func parsePassages(result *models.GraphQLResponse, className string) ([]Passage, error) {
	get, ok := result.Data["Get"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected GraphQL response shape: missing Get")
	}
	objects, ok := get[className].([]interface{})
	if !ok {
		return []Passage{}, nil
	}

	passages := make([]Passage, 0, len(objects))
	for _, obj := range objects {
		m, ok := obj.(map[string]interface{})
		if !ok {
			continue
		}
		p := Passage{}
		if v, ok := m["content"].(string); ok {
			p.Content = v
		}
		if v, ok := m["url"].(string); ok {
			p.URL = v
		}
		if v, ok := m["source"].(string); ok {
			p.Source = v
		}
		if add, ok := m["_additional"].(map[string]interface{}); ok {
			if c, ok := add["certainty"].(float64); ok {
				p.Score = c
			}
		}
		if p.Content == "" {
			continue
		}
		passages = append(passages, p)
	}
	return passages, nil
}
