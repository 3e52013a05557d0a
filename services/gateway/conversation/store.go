// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package conversation persists conversation logs and the per-user
// conversation index.
//
// Two implementations exist: RedisStore for production and MemoryStore for
// lightweight mode and tests. Both enforce the same contract: an exchange
// is appended atomically (user message and assistant message together or
// not at all), every touch slides the retention window, and reads of
// unknown or expired conversations return empty results, never errors.
package conversation

import (
	"context"

	"github.com/jinterlante1206/AleutianDesk/services/gateway/datatypes"
)

// Store is the conversation persistence contract.
//
// Append records one completed exchange. The user message is never stored
// without its assistant reply; a failed pipeline leaves the log untouched.
// Failures are reported as *datatypes.PersistenceError.
type Store interface {
	// Append atomically records the user/assistant pair on the
	// conversation log and refreshes the user's conversation index.
	Append(ctx context.Context, conversationID, userID string, user, assistant datatypes.Message) error

	// History returns the full ordered message log for a conversation.
	// Unknown or expired ids yield an empty slice.
	History(ctx context.Context, conversationID string) ([]datatypes.Message, error)

	// ConversationsForUser lists the user's conversations ordered by
	// creation time. Unknown users yield an empty slice.
	ConversationsForUser(ctx context.Context, userID string) ([]datatypes.ConversationSummary, error)
}
