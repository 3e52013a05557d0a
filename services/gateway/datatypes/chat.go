// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes provides data structures for the gateway service.
//
// This file contains request and response types for the chat endpoints.
// Routing decisions live in decision.go, error categories in errors.go.
package datatypes

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// =============================================================================
// Constants for Security Compliance
// =============================================================================

const (
	// MaxMessageContentBytes is the maximum size of a single chat message.
	// Oversized payloads are rejected before the pipeline runs.
	MaxMessageContentBytes = 32 * 1024 // 32KB
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

// chatValidate is the validator instance for chat datatypes.
// Initialized in init() with custom validators.
var chatValidate *validator.Validate

func init() {
	chatValidate = validator.New()
	_ = chatValidate.RegisterValidation("maxbytes", validateMaxBytes)
}

// validateMaxBytes checks byte length (not rune count) so that large
// multi-byte payloads cannot slip past a rune-based limit.
func validateMaxBytes(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxMessageContentBytes
}

// =============================================================================
// Request / Response Types
// =============================================================================

// ChatRequest is the body of POST /api/v1/chat.
//
// # Fields
//
//   - Message: Required. The raw, untrusted user text. Sanitized before any
//     other stage sees it. Max 32KB.
//   - UserID: Required. Correlation identifier for the owning user.
//   - ConversationID: Required. Identifier of the conversation log the
//     exchange is appended to.
//
// # Validation
//
// Uses go-playground/validator via Validate(). Empty or missing fields are
// a ValidationError and the pipeline never runs.
type ChatRequest struct {
	Message        string `json:"message" validate:"required,maxbytes"`
	UserID         string `json:"user_id" validate:"required"`
	ConversationID string `json:"conversation_id" validate:"required"`
}

// Validate checks the request against its validation tags.
func (r *ChatRequest) Validate() error {
	return chatValidate.Struct(r)
}

// WorkflowStep records one pipeline stage that performed observable work.
//
// Steps are request-scoped and append-only; the dispatcher owns the slice
// and returns it once with the response. Duration is reported in
// milliseconds for observability and has no bearing on correctness.
type WorkflowStep struct {
	Agent      string `json:"agent"`
	Action     string `json:"action"`
	Result     string `json:"result"`
	DurationMS int64  `json:"duration_ms,omitempty"`
}

// AgentResult is the raw output of a responder before conversion.
type AgentResult struct {
	Content string
	Err     error
}

// Succeeded reports whether the responder produced usable output.
func (r AgentResult) Succeeded() bool { return r.Err == nil }

// ChatResponse is the body returned by POST /api/v1/chat.
type ChatResponse struct {
	UserID              string         `json:"user_id"`
	ConversationID      string         `json:"conversation_id"`
	RouterDecision      string         `json:"router_decision"`
	Response            string         `json:"response"`
	SourceAgentResponse string         `json:"source_agent_response"`
	AgentWorkflow       []WorkflowStep `json:"agent_workflow"`
}

// =============================================================================
// Conversation Types
// =============================================================================

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one immutable entry in a conversation log.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationSummary is one entry in a user's conversation index.
type ConversationSummary struct {
	ConversationID string    `json:"conversation_id"`
	CreatedAt      time.Time `json:"created_at"`
	LastMessageAt  time.Time `json:"last_message_at"`
}

// HistoryResponse is the body of GET /api/v1/chat/history/:conversation_id.
// Unknown or expired conversations return an empty message list, not an
// error.
type HistoryResponse struct {
	ConversationID string    `json:"conversation_id"`
	Messages       []Message `json:"messages"`
}

// UserConversationsResponse is the body of
// GET /api/v1/chat/user/:user_id/conversations.
type UserConversationsResponse struct {
	UserID        string                `json:"user_id"`
	Conversations []ConversationSummary `json:"conversations"`
}
