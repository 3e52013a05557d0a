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
	"sort"
	"sync"
	"time"

	"github.com/jinterlante1206/AleutianDesk/services/gateway/datatypes"
)

// MemoryStore is the in-process Store used in lightweight mode and tests.
//
// It mirrors the Redis semantics: atomic exchange appends, a sliding
// retention window refreshed on every touch, and lazy expiry checked at
// read time. The clock is injectable so expiry is testable without
// sleeping.
type MemoryStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	convs  map[string]*memConversation
	byUser map[string]map[string]datatypes.ConversationSummary
}

type memConversation struct {
	messages  []datatypes.Message
	expiresAt time.Time
	userID    string
}

// NewMemoryStore creates a MemoryStore with the given retention window.
// A non-positive ttl disables expiry.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:    ttl,
		now:    time.Now,
		convs:  make(map[string]*memConversation),
		byUser: make(map[string]map[string]datatypes.ConversationSummary),
	}
}

// SetClock overrides the time source. Test hook.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Append implements Store.
func (s *MemoryStore) Append(ctx context.Context, conversationID, userID string, user, assistant datatypes.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.expireLocked(conversationID, now)

	conv, ok := s.convs[conversationID]
	if !ok {
		conv = &memConversation{userID: userID}
		s.convs[conversationID] = conv
	}
	conv.messages = append(conv.messages, user, assistant)
	if s.ttl > 0 {
		conv.expiresAt = now.Add(s.ttl)
	}

	index, ok := s.byUser[userID]
	if !ok {
		index = make(map[string]datatypes.ConversationSummary)
		s.byUser[userID] = index
	}
	summary, ok := index[conversationID]
	if !ok {
		summary = datatypes.ConversationSummary{
			ConversationID: conversationID,
			CreatedAt:      assistant.Timestamp,
		}
	}
	summary.LastMessageAt = assistant.Timestamp
	index[conversationID] = summary
	return nil
}

// History implements Store.
func (s *MemoryStore) History(ctx context.Context, conversationID string) ([]datatypes.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expireLocked(conversationID, s.now())
	conv, ok := s.convs[conversationID]
	if !ok {
		return []datatypes.Message{}, nil
	}
	out := make([]datatypes.Message, len(conv.messages))
	copy(out, conv.messages)
	return out, nil
}

// ConversationsForUser implements Store.
func (s *MemoryStore) ConversationsForUser(ctx context.Context, userID string) ([]datatypes.ConversationSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	summaries := make([]datatypes.ConversationSummary, 0, len(s.byUser[userID]))
	for id, summary := range s.byUser[userID] {
		s.expireLocked(id, now)
		if _, alive := s.convs[id]; !alive {
			delete(s.byUser[userID], id)
			continue
		}
		summaries = append(summaries, summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.Before(summaries[j].CreatedAt)
	})
	return summaries, nil
}

// expireLocked drops the conversation if its window has lapsed.
// Caller holds s.mu.
func (s *MemoryStore) expireLocked(conversationID string, now time.Time) {
	conv, ok := s.convs[conversationID]
	if !ok || s.ttl <= 0 {
		return
	}
	if now.Before(conv.expiresAt) {
		return
	}
	delete(s.convs, conversationID)
	if index, ok := s.byUser[conv.userID]; ok {
		delete(index, conversationID)
	}
}
