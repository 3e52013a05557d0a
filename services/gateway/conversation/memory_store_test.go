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
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jinterlante1206/AleutianDesk/services/gateway/datatypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func message(role datatypes.Role, content string, at time.Time) datatypes.Message {
	return datatypes.Message{Role: role, Content: content, Timestamp: at}
}

func TestMemoryStore_AppendAndHistoryRoundTrip(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	const turns = 5
	for i := 0; i < turns; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		err := store.Append(ctx, "conv-1", "user-1",
			message(datatypes.RoleUser, fmt.Sprintf("question %d", i), at),
			message(datatypes.RoleAssistant, fmt.Sprintf("answer %d", i), at.Add(time.Second)),
		)
		require.NoError(t, err)
	}

	history, err := store.History(ctx, "conv-1")
	require.NoError(t, err)
	require.Len(t, history, turns*2)

	for i := 0; i < turns; i++ {
		assert.Equal(t, datatypes.RoleUser, history[2*i].Role)
		assert.Equal(t, fmt.Sprintf("question %d", i), history[2*i].Content)
		assert.Equal(t, datatypes.RoleAssistant, history[2*i+1].Role)
		assert.Equal(t, fmt.Sprintf("answer %d", i), history[2*i+1].Content)
	}
	// Timestamps never go backwards within a log.
	for i := 1; i < len(history); i++ {
		assert.False(t, history[i].Timestamp.Before(history[i-1].Timestamp))
	}
}

func TestMemoryStore_UnknownConversationIsEmptyNotError(t *testing.T) {
	store := NewMemoryStore(0)

	history, err := store.History(context.Background(), "never-seen")
	require.NoError(t, err)
	assert.Empty(t, history)

	summaries, err := store.ConversationsForUser(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestMemoryStore_ConversationsForUserOrderedByCreation(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 0, 0, 0, time.UTC)

	for i, id := range []string{"conv-a", "conv-b", "conv-c"} {
		at := base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, store.Append(ctx, id, "user-1",
			message(datatypes.RoleUser, "q", at),
			message(datatypes.RoleAssistant, "a", at),
		))
	}
	// A later message on the first conversation must not reorder it.
	later := base.Add(10 * time.Hour)
	require.NoError(t, store.Append(ctx, "conv-a", "user-1",
		message(datatypes.RoleUser, "q2", later),
		message(datatypes.RoleAssistant, "a2", later),
	))

	summaries, err := store.ConversationsForUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, summaries, 3)
	assert.Equal(t, "conv-a", summaries[0].ConversationID)
	assert.Equal(t, "conv-b", summaries[1].ConversationID)
	assert.Equal(t, "conv-c", summaries[2].ConversationID)
	assert.Equal(t, later, summaries[0].LastMessageAt)
}

func TestMemoryStore_ConcurrentAppendsAllPersist(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()
	now := time.Now().UTC()

	const writers = 16
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := store.Append(ctx, "conv-shared", "user-1",
				message(datatypes.RoleUser, fmt.Sprintf("q%d", i), now),
				message(datatypes.RoleAssistant, fmt.Sprintf("a%d", i), now),
			)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	history, err := store.History(ctx, "conv-shared")
	require.NoError(t, err)
	assert.Len(t, history, writers*2, "every exchange must persist intact")
	// Pairs stay adjacent: even indexes user, odd indexes assistant.
	for i, m := range history {
		if i%2 == 0 {
			assert.Equal(t, datatypes.RoleUser, m.Role)
		} else {
			assert.Equal(t, datatypes.RoleAssistant, m.Role)
		}
	}
}

func TestMemoryStore_SlidingTTLExpiry(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()

	current := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return current })

	require.NoError(t, store.Append(ctx, "conv-1", "user-1",
		message(datatypes.RoleUser, "q", current),
		message(datatypes.RoleAssistant, "a", current),
	))

	// Within the window the conversation is alive.
	current = current.Add(30 * time.Minute)
	history, err := store.History(ctx, "conv-1")
	require.NoError(t, err)
	assert.Len(t, history, 2)

	// A new append slides the window forward.
	require.NoError(t, store.Append(ctx, "conv-1", "user-1",
		message(datatypes.RoleUser, "q2", current),
		message(datatypes.RoleAssistant, "a2", current),
	))
	current = current.Add(45 * time.Minute)
	history, err = store.History(ctx, "conv-1")
	require.NoError(t, err)
	assert.Len(t, history, 4, "window slid by the second append")

	// Past the window the conversation reads as unknown.
	current = current.Add(2 * time.Hour)
	history, err = store.History(ctx, "conv-1")
	require.NoError(t, err)
	assert.Empty(t, history)

	summaries, err := store.ConversationsForUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, summaries, "expired conversations leave the user index")
}
