// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package routes wires the HTTP surface onto a gin engine.
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/jinterlante1206/AleutianDesk/services/gateway/conversation"
	"github.com/jinterlante1206/AleutianDesk/services/gateway/dispatcher"
	"github.com/jinterlante1206/AleutianDesk/services/gateway/handlers"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes registers all gateway endpoints on the engine.
func SetupRoutes(r *gin.Engine, d *dispatcher.Dispatcher, store conversation.Store) {
	r.GET("/health", handlers.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		v1.POST("/chat", handlers.HandleChat(d))
		v1.GET("/chat/history/:conversation_id", handlers.HandleHistory(store))
		v1.GET("/chat/user/:user_id/conversations", handlers.HandleUserConversations(store))
	}
}
