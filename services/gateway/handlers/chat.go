// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers contains the gin HTTP handlers for the gateway API.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jinterlante1206/AleutianDesk/services/gateway/datatypes"
	"github.com/jinterlante1206/AleutianDesk/services/gateway/dispatcher"
)

// HandleChat runs a chat request through the pipeline.
//
// Status mapping: malformed or invalid body -> 400, conversation store
// failure -> 503, cancelled request -> 499 (client closed), everything
// else including degraded replies -> 200.
func HandleChat(d *dispatcher.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			slog.Warn("Chat request failed validation", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{
				"error": (&datatypes.ValidationError{Details: err.Error()}).Error(),
			})
			return
		}

		resp, err := d.Process(c.Request.Context(), &req)
		if err != nil {
			switch {
			case datatypes.IsPersistenceError(err):
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"error": "conversation store unavailable",
				})
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				// Client went away; 499 is nginx's convention for this.
				c.Status(499)
			default:
				slog.Error("Chat pipeline failed", "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			}
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}
