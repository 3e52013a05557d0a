// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads gateway settings from the environment.
//
// Every knob has a sane default so the service starts in lightweight mode
// with nothing configured: no Redis means the in-memory conversation store,
// no Weaviate means the knowledge responder reports retrieval unavailable.
// Missing values are logged at Warn with the fallback that was applied.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Settings holds all environment-driven configuration for the gateway.
type Settings struct {
	// Server
	Port string

	// LLM
	OpenAIModel     string
	LLMTimeout      time.Duration
	LLMMaxRetries   int
	LLMRetryBackoff time.Duration

	// Conversation store
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	RedisDialTimeout time.Duration
	ConversationTTL  time.Duration

	// Knowledge retrieval
	WeaviateURL        string
	KnowledgeClass     string
	RetrievalTopK      int
	RetrievalThreshold float64

	// Language policy. Documentation only: the guard itself is
	// script-based, see security.LanguageGuard.
	SupportedLanguages []string
}

// Load reads settings from the environment, applying defaults.
func Load() *Settings {
	return &Settings{
		Port:            getEnv("GATEWAY_PORT", "8000"),
		OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		LLMTimeout:      getDuration("LLM_TIMEOUT", 30*time.Second),
		LLMMaxRetries:   getInt("LLM_MAX_RETRIES", 2),
		LLMRetryBackoff: getDuration("LLM_RETRY_BACKOFF", 500*time.Millisecond),

		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		RedisDB:          getInt("REDIS_DB", 0),
		RedisDialTimeout: getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		ConversationTTL:  getDuration("CONVERSATION_TTL", 30*24*time.Hour),

		WeaviateURL:        os.Getenv("WEAVIATE_SERVICE_URL"),
		KnowledgeClass:     getEnv("KNOWLEDGE_CLASS", "HelpArticle"),
		RetrievalTopK:      getInt("RETRIEVAL_TOP_K", 5),
		RetrievalThreshold: getFloat("RETRIEVAL_THRESHOLD", 0.0),

		SupportedLanguages: []string{"en", "pt"},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Warn("environment variable not set, using default", "key", key, "default", fallback)
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid integer in environment, using default",
			"key", key, "value", v, "default", fallback)
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("invalid float in environment, using default",
			"key", key, "value", v, "default", fallback)
		return fallback
	}
	return f
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("invalid duration in environment, using default",
			"key", key, "value", v, "default", fallback)
		return fallback
	}
	return d
}
