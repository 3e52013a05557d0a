// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jinterlante1206/AleutianDesk/services/gateway/datatypes"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var storeTracer = otel.Tracer("aleutiandesk.gateway.conversation")

// Key layout:
//
//	conversation:{id}        list of JSON-encoded messages, append-only
//	user_conversations:{id}  hash conversationID -> JSON summary
//
// Both keys carry the retention TTL and every Append refreshes it, so a
// conversation and its index entry expire together after the window of
// inactivity.
const (
	conversationKeyPrefix = "conversation:"
	userIndexKeyPrefix    = "user_conversations:"
)

// RedisStore is the Redis-backed Store implementation.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisConfig configures the Redis connection.
type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration
	TTL         time.Duration
}

// NewRedisStore connects to Redis and verifies the connection with a ping.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	slog.Info("Connected to Redis conversation store", "addr", cfg.Addr, "ttl", cfg.TTL)
	return &RedisStore{client: client, ttl: cfg.TTL}, nil
}

// Close releases the Redis connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Append implements Store.
func (s *RedisStore) Append(ctx context.Context, conversationID, userID string, user, assistant datatypes.Message) error {
	ctx, span := storeTracer.Start(ctx, "RedisStore.Append")
	defer span.End()
	span.SetAttributes(attribute.String("conversation.id", conversationID))

	userJSON, err := json.Marshal(user)
	if err != nil {
		return &datatypes.PersistenceError{Op: "append", Err: err}
	}
	assistantJSON, err := json.Marshal(assistant)
	if err != nil {
		return &datatypes.PersistenceError{Op: "append", Err: err}
	}

	summary, err := s.refreshSummary(ctx, conversationID, userID, assistant.Timestamp)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "summary refresh failed")
		return &datatypes.PersistenceError{Op: "append", Err: err}
	}
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return &datatypes.PersistenceError{Op: "append", Err: err}
	}

	convKey := conversationKeyPrefix + conversationID
	indexKey := userIndexKeyPrefix + userID

	// Both messages and the index update land in one transaction so a
	// half-written exchange is impossible.
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, convKey, userJSON, assistantJSON)
	pipe.HSet(ctx, indexKey, conversationID, summaryJSON)
	pipe.Expire(ctx, convKey, s.ttl)
	pipe.Expire(ctx, indexKey, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "pipeline exec failed")
		slog.Error("Conversation append failed",
			"conversationId", conversationID,
			"userId", userID,
			"error", err,
		)
		return &datatypes.PersistenceError{Op: "append", Err: err}
	}
	return nil
}

// refreshSummary preserves the original creation time of an existing
// conversation while moving its last-message time forward.
func (s *RedisStore) refreshSummary(ctx context.Context, conversationID, userID string, at time.Time) (datatypes.ConversationSummary, error) {
	summary := datatypes.ConversationSummary{
		ConversationID: conversationID,
		CreatedAt:      at,
		LastMessageAt:  at,
	}
	raw, err := s.client.HGet(ctx, userIndexKeyPrefix+userID, conversationID).Result()
	if errors.Is(err, redis.Nil) {
		return summary, nil
	}
	if err != nil {
		return summary, err
	}
	var existing datatypes.ConversationSummary
	if err := json.Unmarshal([]byte(raw), &existing); err == nil && !existing.CreatedAt.IsZero() {
		summary.CreatedAt = existing.CreatedAt
	}
	return summary, nil
}

// History implements Store.
func (s *RedisStore) History(ctx context.Context, conversationID string) ([]datatypes.Message, error) {
	ctx, span := storeTracer.Start(ctx, "RedisStore.History")
	defer span.End()
	span.SetAttributes(attribute.String("conversation.id", conversationID))

	raw, err := s.client.LRange(ctx, conversationKeyPrefix+conversationID, 0, -1).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lrange failed")
		return nil, &datatypes.PersistenceError{Op: "history", Err: err}
	}

	messages := make([]datatypes.Message, 0, len(raw))
	for _, item := range raw {
		var m datatypes.Message
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			slog.Warn("Skipping undecodable conversation entry",
				"conversationId", conversationID, "error", err)
			continue
		}
		messages = append(messages, m)
	}
	span.SetAttributes(attribute.Int("conversation.messages", len(messages)))
	return messages, nil
}

// ConversationsForUser implements Store.
func (s *RedisStore) ConversationsForUser(ctx context.Context, userID string) ([]datatypes.ConversationSummary, error) {
	ctx, span := storeTracer.Start(ctx, "RedisStore.ConversationsForUser")
	defer span.End()

	entries, err := s.client.HGetAll(ctx, userIndexKeyPrefix+userID).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "hgetall failed")
		return nil, &datatypes.PersistenceError{Op: "conversations_for_user", Err: err}
	}

	summaries := make([]datatypes.ConversationSummary, 0, len(entries))
	for id, raw := range entries {
		var summary datatypes.ConversationSummary
		if err := json.Unmarshal([]byte(raw), &summary); err != nil {
			slog.Warn("Skipping undecodable conversation summary",
				"userId", userID, "conversationId", id, "error", err)
			continue
		}
		summaries = append(summaries, summary)
	}
	// Hash iteration order is arbitrary; present oldest conversation first.
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.Before(summaries[j].CreatedAt)
	})
	span.SetAttributes(attribute.Int("conversation.count", len(summaries)))
	return summaries, nil
}
