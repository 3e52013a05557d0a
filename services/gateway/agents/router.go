// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package agents contains the router and the two specialized responders.
//
// The router owns the single-transition decision state machine:
//
//	Received -> Sanitized -> LanguageChecked -> Classified -> Terminal
//
// Sanitization happens before the router sees the text (the dispatcher
// feeds it sanitized input); the router applies the language guard, the
// injection policy, and finally the LLM classification call. Steps 1-2 are
// deterministic policy; only step 3 involves an external call.
package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jinterlante1206/AleutianDesk/services/gateway/datatypes"
	"github.com/jinterlante1206/AleutianDesk/services/gateway/security"
	"github.com/jinterlante1206/AleutianDesk/services/llm"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var routerTracer = otel.Tracer("aleutiandesk.gateway.agents.router")

// maxContextTurns bounds how much conversation history is passed to the
// classification call.
const maxContextTurns = 6

// SecurityEventRecorder receives a notification when an injection pattern
// matched. The dispatcher wires this to metrics; tests capture it.
type SecurityEventRecorder func(category string)

// Router classifies sanitized queries and converts responder output into
// conversational replies.
//
// Both external calls go through the injected LLMClient so tests can
// substitute deterministic fakes. The wrapping policy (language guard
// first, injection absorption second) is deterministic regardless of what
// the LLM answers.
type Router struct {
	llmClient llm.LLMClient
	guard     *security.LanguageGuard
	detector  *security.InjectionDetector
	onEvent   SecurityEventRecorder
}

// NewRouter creates a Router. onEvent may be nil.
func NewRouter(client llm.LLMClient, guard *security.LanguageGuard, detector *security.InjectionDetector, onEvent SecurityEventRecorder) *Router {
	return &Router{
		llmClient: client,
		guard:     guard,
		detector:  detector,
		onEvent:   onEvent,
	}
}

// Route decides which responder handles the sanitized query.
//
// The decision is one of the four canonical datatypes.Decision values:
//
//  1. LanguageGuard says Unsupported -> DecisionUnsupportedLanguage,
//     authoritative regardless of content.
//  2. An injection pattern matches -> DecisionKnowledge. Injection
//     attempts are absorbed by the lowest-privilege responder, never
//     rejected outright; a security event records the category.
//  3. Otherwise the classification call decides; exhausted retries or an
//     unrecognizable answer -> DecisionError.
func (r *Router) Route(ctx context.Context, query string, history []datatypes.Message, conversationID, userID string) datatypes.Decision {
	ctx, span := routerTracer.Start(ctx, "Router.Route")
	defer span.End()

	if r.guard.Check(query) == security.LanguageUnsupported {
		span.SetAttributes(attribute.String("router.decision", string(datatypes.DecisionUnsupportedLanguage)))
		slog.Info("Language guard rejected query",
			"conversationId", conversationID,
			"userId", userID,
		)
		return datatypes.DecisionUnsupportedLanguage
	}

	if matched, category := r.detector.Detect(query); matched {
		span.SetAttributes(
			attribute.String("router.decision", string(datatypes.DecisionKnowledge)),
			attribute.String("security.pattern_category", category),
		)
		slog.Warn("Suspicious content detected, absorbing into knowledge agent",
			"conversationId", conversationID,
			"userId", userID,
			"patternCategory", category,
			"queryPreview", preview(query, 100),
		)
		if r.onEvent != nil {
			r.onEvent(category)
		}
		return datatypes.DecisionKnowledge
	}

	slog.Info("Routing query",
		"conversationId", conversationID,
		"userId", userID,
		"queryPreview", preview(query, 100),
	)

	answer, err := r.llmClient.Ask(ctx, routerSystemPrompt, classificationMessage(query, history))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "classification call failed")
		slog.Error("Classification call failed, defaulting to Error",
			"conversationId", conversationID,
			"userId", userID,
			"error", err,
		)
		return datatypes.DecisionError
	}

	decision := canonicalDecision(answer)
	span.SetAttributes(attribute.String("router.decision", string(decision)))
	slog.Info("Routing decision made",
		"conversationId", conversationID,
		"userId", userID,
		"decision", decision,
	)
	return decision
}

// Convert rewrites a responder's raw output into a conversational reply.
//
// Conversion failure must not drop the underlying factual content: on any
// call failure or empty answer, the raw response is returned verbatim with
// degraded=true so the dispatcher can record the degradation step.
func (r *Router) Convert(ctx context.Context, originalQuery, agentResponse string, agentType datatypes.Decision) (reply string, degraded bool) {
	ctx, span := routerTracer.Start(ctx, "Router.Convert")
	defer span.End()

	message := fmt.Sprintf("Original Query: %q\nAgent Type: %s\nAgent Response: %q\n\n"+
		"Please convert this agent response into a conversational format while preserving all factual accuracy.",
		originalQuery, agentType, agentResponse)

	content, err := r.llmClient.Ask(ctx, routerConversionPrompt, message)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "conversion call failed")
		slog.Error("Response conversion failed, using raw response",
			"agentType", agentType,
			"error", err,
		)
		return agentResponse, true
	}
	if content == "" {
		slog.Warn("Conversion returned no content, using raw response", "agentType", agentType)
		return agentResponse, true
	}
	return content, false
}

// classificationMessage builds the user message for the classifier with a
// bounded slice of recent conversation context.
func classificationMessage(query string, history []datatypes.Message) string {
	if len(history) == 0 {
		return query
	}
	if len(history) > maxContextTurns {
		history = history[len(history)-maxContextTurns:]
	}
	var b strings.Builder
	b.WriteString("Recent conversation:\n")
	for _, m := range history {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, preview(m.Content, 200))
	}
	b.WriteString("\nCurrent query: ")
	b.WriteString(query)
	return b.String()
}

// canonicalDecision validates the raw classifier answer against the closed
// decision set. Substring matching tolerates chatty models; anything
// unrecognizable defaults to Error for safety.
func canonicalDecision(answer string) datatypes.Decision {
	cleaned := strings.ToLower(strings.TrimSpace(answer))

	canonical := []datatypes.Decision{
		datatypes.DecisionMath,
		datatypes.DecisionKnowledge,
		datatypes.DecisionUnsupportedLanguage,
		datatypes.DecisionError,
	}
	for _, d := range canonical {
		if strings.Contains(cleaned, strings.ToLower(string(d))) {
			return d
		}
	}

	slog.Warn("Classifier returned unrecognized decision, defaulting to Error",
		"answer", preview(answer, 100))
	return datatypes.DecisionError
}

// preview truncates s for logging.
func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
