// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package dispatcher runs the chat pipeline for one request.
//
// The flow is sanitize -> route -> respond -> convert -> persist, with a
// workflow trace recording each stage that performed observable work. A
// terminal routing decision short-circuits after the first step. Responder
// and conversion failures degrade to a user-visible reply; only a
// persistence failure surfaces as an error to the transport layer.
package dispatcher

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jinterlante1206/AleutianDesk/services/gateway/agents"
	"github.com/jinterlante1206/AleutianDesk/services/gateway/conversation"
	"github.com/jinterlante1206/AleutianDesk/services/gateway/datatypes"
	"github.com/jinterlante1206/AleutianDesk/services/gateway/observability"
	"github.com/jinterlante1206/AleutianDesk/services/gateway/security"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var dispatchTracer = otel.Tracer("aleutiandesk.gateway.dispatcher")

// Step naming in the published workflow trace. Part of the API contract;
// clients key on these strings.
const (
	agentRouter    = "RouterAgent"
	actionRoute    = "route_query"
	actionProcess  = "process"
	actionConvert  = "convert_response"
	resultComplete = "completed"
	resultFailed   = "failed"
	resultFallback = "fallback_raw_response"
)

// Dispatcher wires the pipeline stages together and owns the request
// lifecycle.
type Dispatcher struct {
	sanitizer *security.Sanitizer
	router    *agents.Router
	math      *agents.MathAgent
	knowledge *agents.KnowledgeAgent
	store     conversation.Store
	metrics   *observability.Metrics
}

// New creates a Dispatcher. metrics may be nil, in which case no metrics
// are recorded (tests).
func New(
	sanitizer *security.Sanitizer,
	router *agents.Router,
	math *agents.MathAgent,
	knowledge *agents.KnowledgeAgent,
	store conversation.Store,
	metrics *observability.Metrics,
) *Dispatcher {
	return &Dispatcher{
		sanitizer: sanitizer,
		router:    router,
		math:      math,
		knowledge: knowledge,
		store:     store,
		metrics:   metrics,
	}
}

// Process runs the full pipeline for one validated chat request.
//
// The returned response is always well-formed for a nil error. A non-nil
// error is either the caller's context error or a
// *datatypes.PersistenceError; every other failure mode is absorbed into a
// degraded reply so the user still gets an answer.
func (d *Dispatcher) Process(ctx context.Context, req *datatypes.ChatRequest) (*datatypes.ChatResponse, error) {
	ctx, span := dispatchTracer.Start(ctx, "Dispatcher.Process")
	defer span.End()

	requestID := uuid.NewString()
	log := slog.With(
		"requestId", requestID,
		"conversationId", req.ConversationID,
		"userId", req.UserID,
	)
	span.SetAttributes(
		attribute.String("request.id", requestID),
		attribute.String("conversation.id", req.ConversationID),
	)

	sanitized := d.sanitizer.Sanitize(req.Message)
	receivedAt := time.Now().UTC()

	// History is classification context only; an unreachable store here
	// degrades to routing without context rather than failing the request.
	history, err := d.store.History(ctx, req.ConversationID)
	if err != nil {
		log.Warn("History unavailable for routing context", "error", err)
		history = nil
	}

	var workflow []datatypes.WorkflowStep
	decision, step := d.timedRoute(ctx, sanitized, history, req)
	workflow = append(workflow, step)

	resp := &datatypes.ChatResponse{
		UserID:         req.UserID,
		ConversationID: req.ConversationID,
		RouterDecision: string(decision),
	}

	if decision.Terminal() {
		resp.Response = terminalReply(decision)
		resp.AgentWorkflow = workflow
		log.Info("Pipeline terminated at routing", "decision", decision)
		return d.finish(ctx, req, sanitized, receivedAt, resp, log)
	}

	result, step := d.timedRespond(ctx, decision, sanitized)
	workflow = append(workflow, step)

	if !result.Succeeded() {
		span.RecordError(result.Err)
		span.SetStatus(codes.Error, "responder failed")
		log.Error("Responder failed, degrading to generic reply",
			"decision", decision,
			"error", result.Err,
		)
		resp.Response = datatypes.GenericErrorReply
		resp.AgentWorkflow = workflow
		return d.finish(ctx, req, sanitized, receivedAt, resp, log)
	}

	resp.SourceAgentResponse = result.Content

	reply, step := d.timedConvert(ctx, sanitized, result.Content, decision)
	workflow = append(workflow, step)

	resp.Response = reply
	resp.AgentWorkflow = workflow
	return d.finish(ctx, req, sanitized, receivedAt, resp, log)
}

// timedRoute runs the routing decision and records its workflow step.
func (d *Dispatcher) timedRoute(ctx context.Context, sanitized string, history []datatypes.Message, req *datatypes.ChatRequest) (datatypes.Decision, datatypes.WorkflowStep) {
	start := time.Now()
	decision := d.router.Route(ctx, sanitized, history, req.ConversationID, req.UserID)
	elapsed := time.Since(start)
	d.observeStep(agentRouter, actionRoute, elapsed)
	if d.metrics != nil {
		d.metrics.RequestsTotal.WithLabelValues(string(decision)).Inc()
	}
	return decision, datatypes.WorkflowStep{
		Agent:      agentRouter,
		Action:     actionRoute,
		Result:     string(decision),
		DurationMS: elapsed.Milliseconds(),
	}
}

// timedRespond invokes the responder the decision selected.
func (d *Dispatcher) timedRespond(ctx context.Context, decision datatypes.Decision, sanitized string) (datatypes.AgentResult, datatypes.WorkflowStep) {
	start := time.Now()
	var result datatypes.AgentResult
	switch decision {
	case datatypes.DecisionMath:
		content, err := d.math.Solve(ctx, sanitized)
		result = datatypes.AgentResult{Content: content, Err: err}
	default:
		answer, err := d.knowledge.Query(ctx, sanitized)
		if err != nil {
			result = datatypes.AgentResult{Err: err}
		} else {
			result = datatypes.AgentResult{Content: answer.FormatWithSources()}
		}
	}
	elapsed := time.Since(start)
	d.observeStep(string(decision), actionProcess, elapsed)

	stepResult := resultComplete
	if !result.Succeeded() {
		stepResult = resultFailed
	}
	return result, datatypes.WorkflowStep{
		Agent:      string(decision),
		Action:     actionProcess,
		Result:     stepResult,
		DurationMS: elapsed.Milliseconds(),
	}
}

// timedConvert rewrites the raw responder output conversationally.
func (d *Dispatcher) timedConvert(ctx context.Context, query, raw string, decision datatypes.Decision) (string, datatypes.WorkflowStep) {
	start := time.Now()
	reply, degraded := d.router.Convert(ctx, query, raw, decision)
	elapsed := time.Since(start)
	d.observeStep(agentRouter, actionConvert, elapsed)

	stepResult := resultComplete
	if degraded {
		stepResult = resultFallback
	}
	return reply, datatypes.WorkflowStep{
		Agent:      agentRouter,
		Action:     actionConvert,
		Result:     stepResult,
		DurationMS: elapsed.Milliseconds(),
	}
}

// finish persists the completed exchange and returns the response. A
// cancelled context aborts before anything is written so a client
// disconnect cannot record a half-delivered exchange.
func (d *Dispatcher) finish(ctx context.Context, req *datatypes.ChatRequest, sanitized string, receivedAt time.Time, resp *datatypes.ChatResponse, log *slog.Logger) (*datatypes.ChatResponse, error) {
	if err := ctx.Err(); err != nil {
		log.Warn("Request cancelled, exchange not persisted", "error", err)
		return nil, err
	}

	userMsg := datatypes.Message{
		Role:      datatypes.RoleUser,
		Content:   sanitized,
		Timestamp: receivedAt,
	}
	assistantMsg := datatypes.Message{
		Role:      datatypes.RoleAssistant,
		Content:   resp.Response,
		Timestamp: time.Now().UTC(),
	}

	if err := d.store.Append(ctx, req.ConversationID, req.UserID, userMsg, assistantMsg); err != nil {
		if d.metrics != nil {
			d.metrics.StoreFailures.WithLabelValues("append").Inc()
		}
		log.Error("Failed to persist exchange", "error", err)
		return nil, err
	}

	log.Info("Chat request completed",
		"decision", resp.RouterDecision,
		"steps", len(resp.AgentWorkflow),
	)
	return resp, nil
}

func (d *Dispatcher) observeStep(agent, action string, elapsed time.Duration) {
	if d.metrics == nil {
		return
	}
	d.metrics.StepDuration.WithLabelValues(agent, action).Observe(elapsed.Seconds())
}

// terminalReply maps a terminal decision to its canned bilingual reply.
func terminalReply(decision datatypes.Decision) string {
	if decision == datatypes.DecisionUnsupportedLanguage {
		return datatypes.UnsupportedLanguageReply
	}
	return datatypes.GenericErrorReply
}
