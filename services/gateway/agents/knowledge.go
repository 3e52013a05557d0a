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
	"sort"
	"strings"

	"github.com/jinterlante1206/AleutianDesk/services/gateway/datatypes"
	"github.com/jinterlante1206/AleutianDesk/services/llm"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var knowledgeTracer = otel.Tracer("aleutiandesk.gateway.agents.knowledge")

// Passage is one retrieved chunk with its similarity score.
type Passage struct {
	Content string
	URL     string
	Source  string
	Score   float64
}

// Source identifies one grounding document in a knowledge answer,
// with its numeric similarity score so the quality of grounding is
// externally auditable.
type Source struct {
	URL    string  `json:"url"`
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}

// KnowledgeAnswer is the knowledge responder's result: a grounded answer
// plus the sources it was composed from, ordered by descending score.
type KnowledgeAnswer struct {
	Answer  string
	Sources []Source
}

// Retriever performs top-k similarity search over the read-only knowledge
// index. Implementations must be safe for concurrent use; the index is
// never written from the request path.
type Retriever interface {
	Search(ctx context.Context, query string, limit int) ([]Passage, error)
}

// KnowledgeAgent composes grounded answers from retrieved passages.
//
// Retrieval and composition are separate capabilities: the Retriever
// finds passages, the LLM writes the answer constrained to them. An
// unreachable index fails with datatypes.ErrRetrievalUnavailable; an
// empty retrieval produces the canned no-information answer with zero
// sources. Sources are never fabricated — they come only from passages
// the retriever returned.
type KnowledgeAgent struct {
	retriever Retriever
	llmClient llm.LLMClient
	topK      int
	threshold float64
}

// NewKnowledgeAgent creates a KnowledgeAgent. topK defaults to 5 when
// non-positive; threshold filters out passages scoring below it.
func NewKnowledgeAgent(retriever Retriever, client llm.LLMClient, topK int, threshold float64) *KnowledgeAgent {
	if topK <= 0 {
		topK = 5
	}
	return &KnowledgeAgent{
		retriever: retriever,
		llmClient: client,
		topK:      topK,
		threshold: threshold,
	}
}

// Query answers text from the indexed documentation.
func (a *KnowledgeAgent) Query(ctx context.Context, text string) (*KnowledgeAnswer, error) {
	ctx, span := knowledgeTracer.Start(ctx, "KnowledgeAgent.Query")
	defer span.End()

	if a.retriever == nil {
		span.SetStatus(codes.Error, "no retriever configured")
		return nil, datatypes.ErrRetrievalUnavailable
	}

	passages, err := a.retriever.Search(ctx, text, a.topK)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "retrieval failed")
		slog.Error("Knowledge retrieval failed", "error", err)
		return nil, fmt.Errorf("%w: %v", datatypes.ErrRetrievalUnavailable, err)
	}

	// Rank by descending similarity and apply the threshold.
	sort.Slice(passages, func(i, j int) bool { return passages[i].Score > passages[j].Score })
	kept := passages[:0:0]
	for _, p := range passages {
		if p.Score >= a.threshold {
			kept = append(kept, p)
		}
	}
	span.SetAttributes(
		attribute.Int("knowledge.retrieved", len(passages)),
		attribute.Int("knowledge.kept", len(kept)),
	)

	if len(kept) == 0 {
		slog.Info("No relevant passages retrieved", "queryPreview", preview(text, 100))
		return &KnowledgeAnswer{Answer: noInformationAnswer, Sources: []Source{}}, nil
	}

	answer, err := a.compose(ctx, text, kept)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "answer composition failed")
		return nil, err
	}

	sources := make([]Source, 0, len(kept))
	for _, p := range kept {
		sources = append(sources, Source{URL: p.URL, Source: p.Source, Score: p.Score})
	}
	span.SetAttributes(attribute.Int("knowledge.sources", len(sources)))
	return &KnowledgeAnswer{Answer: answer, Sources: sources}, nil
}

// compose asks the LLM for an answer constrained to the given passages.
func (a *KnowledgeAgent) compose(ctx context.Context, query string, passages []Passage) (string, error) {
	var b strings.Builder
	for i, p := range passages {
		fmt.Fprintf(&b, "[Document %d: %s]\n%s\n\n", i+1, p.URL, p.Content)
	}
	fmt.Fprintf(&b, "Question: %s", query)

	answer, err := a.llmClient.Ask(ctx, knowledgeSystemPrompt, b.String())
	if err != nil {
		return "", fmt.Errorf("knowledge answer composition failed: %w", err)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" || strings.EqualFold(answer, "none") || strings.EqualFold(answer, "null") {
		return noInformationAnswer, nil
	}
	return answer, nil
}

// FormatWithSources renders the answer with its citation list, the shape
// the converter and the persisted assistant message both use.
func (ka *KnowledgeAnswer) FormatWithSources() string {
	if len(ka.Sources) == 0 {
		return ka.Answer
	}
	var b strings.Builder
	b.WriteString(ka.Answer)
	b.WriteString("\n\nSources:\n")
	for _, s := range ka.Sources {
		fmt.Fprintf(&b, "- %s (%s, score %.3f)\n", s.URL, s.Source, s.Score)
	}
	return strings.TrimRight(b.String(), "\n")
}
