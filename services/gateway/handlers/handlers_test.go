// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jinterlante1206/AleutianDesk/services/gateway/agents"
	"github.com/jinterlante1206/AleutianDesk/services/gateway/conversation"
	"github.com/jinterlante1206/AleutianDesk/services/gateway/datatypes"
	"github.com/jinterlante1206/AleutianDesk/services/gateway/dispatcher"
	"github.com/jinterlante1206/AleutianDesk/services/gateway/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type scriptedLLM struct {
	Decision   string
	Conversion string
}

func (s *scriptedLLM) Ask(ctx context.Context, systemPrompt, message string) (string, error) {
	if strings.Contains(message, "Agent Response:") {
		return s.Conversion, nil
	}
	return s.Decision, nil
}

type failingStore struct{}

func (failingStore) Append(ctx context.Context, conversationID, userID string, user, assistant datatypes.Message) error {
	return &datatypes.PersistenceError{Op: "append", Err: errors.New("redis down")}
}
func (failingStore) History(ctx context.Context, conversationID string) ([]datatypes.Message, error) {
	return nil, nil
}
func (failingStore) ConversationsForUser(ctx context.Context, userID string) ([]datatypes.ConversationSummary, error) {
	return nil, nil
}

func newTestEngine(store conversation.Store) *gin.Engine {
	llmClient := &scriptedLLM{Decision: "MathAgent", Conversion: "The answer is 4."}
	router := agents.NewRouter(llmClient,
		security.NewLanguageGuard(),
		security.NewInjectionDetector(security.DefaultPatterns()),
		nil,
	)
	knowledge := agents.NewKnowledgeAgent(nil, llmClient, 5, 0)
	d := dispatcher.New(security.NewSanitizer(), router, agents.NewMathAgent(), knowledge, store, nil)

	engine := gin.New()
	engine.POST("/api/v1/chat", HandleChat(d))
	engine.GET("/api/v1/chat/history/:conversation_id", HandleHistory(store))
	engine.GET("/api/v1/chat/user/:user_id/conversations", HandleUserConversations(store))
	engine.GET("/health", HealthCheck)
	return engine
}

func doRequest(engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestHandleChat_Success(t *testing.T) {
	engine := newTestEngine(conversation.NewMemoryStore(0))

	w := doRequest(engine, http.MethodPost, "/api/v1/chat",
		`{"message": "What is 2 + 2?", "user_id": "u1", "conversation_id": "c1"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var resp datatypes.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "u1", resp.UserID)
	assert.Equal(t, "c1", resp.ConversationID)
	assert.Equal(t, "MathAgent", resp.RouterDecision)
	assert.Equal(t, "The answer is 4.", resp.Response)
	assert.Len(t, resp.AgentWorkflow, 3)
}

func TestHandleChat_MissingFieldsRejected(t *testing.T) {
	engine := newTestEngine(conversation.NewMemoryStore(0))

	bodies := []string{
		`{"user_id": "u1", "conversation_id": "c1"}`,
		`{"message": "hi", "conversation_id": "c1"}`,
		`{"message": "hi", "user_id": "u1"}`,
		`{}`,
		`not json at all`,
	}
	for _, body := range bodies {
		w := doRequest(engine, http.MethodPost, "/api/v1/chat", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body: %s", body)
	}
}

func TestHandleChat_OversizedMessageRejected(t *testing.T) {
	engine := newTestEngine(conversation.NewMemoryStore(0))

	big := strings.Repeat("a", datatypes.MaxMessageContentBytes+1)
	body, err := json.Marshal(map[string]string{
		"message":         big,
		"user_id":         "u1",
		"conversation_id": "c1",
	})
	require.NoError(t, err)

	w := doRequest(engine, http.MethodPost, "/api/v1/chat", string(body))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleChat_PersistenceFailureIs503(t *testing.T) {
	engine := newTestEngine(failingStore{})

	w := doRequest(engine, http.MethodPost, "/api/v1/chat",
		`{"message": "What is 2 + 2?", "user_id": "u1", "conversation_id": "c1"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHandleChat_TerminalDecisionIs200(t *testing.T) {
	engine := newTestEngine(conversation.NewMemoryStore(0))

	w := doRequest(engine, http.MethodPost, "/api/v1/chat",
		`{"message": "こんにちは", "user_id": "u1", "conversation_id": "c1"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var resp datatypes.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "UnsupportedLanguage", resp.RouterDecision)
	assert.Equal(t, datatypes.UnsupportedLanguageReply, resp.Response)
}

func TestHandleHistory_UnknownConversationIsEmptyList(t *testing.T) {
	engine := newTestEngine(conversation.NewMemoryStore(0))

	w := doRequest(engine, http.MethodGet, "/api/v1/chat/history/never-seen", "")

	require.Equal(t, http.StatusOK, w.Code)
	var resp datatypes.HistoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "never-seen", resp.ConversationID)
	assert.Empty(t, resp.Messages)
}

func TestHandleHistory_RoundTrip(t *testing.T) {
	store := conversation.NewMemoryStore(0)
	engine := newTestEngine(store)

	w := doRequest(engine, http.MethodPost, "/api/v1/chat",
		`{"message": "What is 2 + 2?", "user_id": "u1", "conversation_id": "c1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(engine, http.MethodGet, "/api/v1/chat/history/c1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp datatypes.HistoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, datatypes.RoleUser, resp.Messages[0].Role)
	assert.Equal(t, datatypes.RoleAssistant, resp.Messages[1].Role)
}

func TestHandleUserConversations(t *testing.T) {
	store := conversation.NewMemoryStore(0)
	engine := newTestEngine(store)

	for _, conv := range []string{"c1", "c2"} {
		w := doRequest(engine, http.MethodPost, "/api/v1/chat",
			`{"message": "What is 2 + 2?", "user_id": "u1", "conversation_id": "`+conv+`"}`)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := doRequest(engine, http.MethodGet, "/api/v1/chat/user/u1/conversations", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp datatypes.UserConversationsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "u1", resp.UserID)
	require.Len(t, resp.Conversations, 2)
	assert.Equal(t, "c1", resp.Conversations[0].ConversationID)
	assert.Equal(t, "c2", resp.Conversations[1].ConversationID)

	w = doRequest(engine, http.MethodGet, "/api/v1/chat/user/stranger/conversations", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Conversations)
}

func TestHealthCheck(t *testing.T) {
	engine := newTestEngine(conversation.NewMemoryStore(0))

	w := doRequest(engine, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "healthy"}`, w.Body.String())
}
