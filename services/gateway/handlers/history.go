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
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jinterlante1206/AleutianDesk/services/gateway/conversation"
	"github.com/jinterlante1206/AleutianDesk/services/gateway/datatypes"
)

// HandleHistory returns the full message log for a conversation. Unknown
// or expired conversations return an empty list.
func HandleHistory(store conversation.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		conversationID := c.Param("conversation_id")
		if conversationID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "conversation_id is required"})
			return
		}

		messages, err := store.History(c.Request.Context(), conversationID)
		if err != nil {
			slog.Error("History lookup failed", "conversationId", conversationID, "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "conversation store unavailable"})
			return
		}
		c.JSON(http.StatusOK, datatypes.HistoryResponse{
			ConversationID: conversationID,
			Messages:       messages,
		})
	}
}

// HandleUserConversations lists a user's conversations, oldest first.
func HandleUserConversations(store conversation.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("user_id")
		if userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
			return
		}

		summaries, err := store.ConversationsForUser(c.Request.Context(), userID)
		if err != nil {
			slog.Error("Conversation listing failed", "userId", userID, "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "conversation store unavailable"})
			return
		}
		c.JSON(http.StatusOK, datatypes.UserConversationsResponse{
			UserID:        userID,
			Conversations: summaries,
		})
	}
}
