// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"log"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jinterlante1206/AleutianDesk/pkg/logging"
	"github.com/jinterlante1206/AleutianDesk/services/gateway/agents"
	"github.com/jinterlante1206/AleutianDesk/services/gateway/config"
	"github.com/jinterlante1206/AleutianDesk/services/gateway/conversation"
	"github.com/jinterlante1206/AleutianDesk/services/gateway/dispatcher"
	"github.com/jinterlante1206/AleutianDesk/services/gateway/observability"
	"github.com/jinterlante1206/AleutianDesk/services/gateway/routes"
	"github.com/jinterlante1206/AleutianDesk/services/gateway/security"
	"github.com/jinterlante1206/AleutianDesk/services/llm"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"google.golang.org/grpc/credentials/insecure"

	// --- OpenTelemetry imports ---
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
)

func initTracer() (func(context.Context), error) {
	ctx := context.Background()

	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		otelEndpoint = "aleutian-otel-collector:4317"
	}
	conn, err := grpc.NewClient(otelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("gateway-service")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

// newWeaviateClient returns nil when the URL is unset or unusable; the
// gateway then runs in lightweight mode and the knowledge responder
// reports retrieval unavailable.
func newWeaviateClient(rawURL string) *weaviate.Client {
	rawURL = strings.Trim(rawURL, "\"' ")
	if rawURL == "" || !strings.Contains(rawURL, "http") {
		slog.Info("WEAVIATE_SERVICE_URL not set or empty. Running in lightweight mode (chat only).")
		return nil
	}
	parsedURL, err := url.Parse(rawURL)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		slog.Warn("WEAVIATE_SERVICE_URL is invalid. Running in lightweight mode.",
			"url", rawURL, "error", err)
		return nil
	}
	client, err := weaviate.NewClient(weaviate.Config{
		Host:   parsedURL.Host,
		Scheme: parsedURL.Scheme,
	})
	if err != nil {
		slog.Error("Failed to create Weaviate client", "error", err)
		return nil
	}
	return client
}

// newStore prefers Redis and falls back to the in-memory store when
// REDIS_ADDR is unset or the connection fails.
func newStore(ctx context.Context, cfg *config.Settings) conversation.Store {
	if cfg.RedisAddr == "" {
		slog.Info("REDIS_ADDR not set. Conversations held in memory only.")
		return conversation.NewMemoryStore(cfg.ConversationTTL)
	}
	store, err := conversation.NewRedisStore(ctx, conversation.RedisConfig{
		Addr:        cfg.RedisAddr,
		Password:    cfg.RedisPassword,
		DB:          cfg.RedisDB,
		DialTimeout: cfg.RedisDialTimeout,
		TTL:         cfg.ConversationTTL,
	})
	if err != nil {
		slog.Error("Redis unavailable, falling back to in-memory conversations", "error", err)
		return conversation.NewMemoryStore(cfg.ConversationTTL)
	}
	return store
}

func main() {
	logger := logging.New(logging.Config{
		Level:   slog.LevelInfo,
		LogDir:  os.Getenv("GATEWAY_LOG_DIR"),
		Service: "gateway",
		JSON:    true,
	})
	defer logger.Close()
	slog.SetDefault(logger.Slog())

	cfg := config.Load()

	cleanup, err := initTracer()
	if err != nil {
		log.Fatalf("failed to setup the OTLP tracer: %v", err)
	}
	defer cleanup(context.Background())

	openAIClient, err := llm.NewOpenAIClient()
	if err != nil {
		log.Fatalf("Failed to initialize LLM client: %v", err)
	}
	llmClient := llm.NewRetryingClient(openAIClient, cfg.LLMTimeout, cfg.LLMMaxRetries, cfg.LLMRetryBackoff)

	metrics := observability.Default()
	store := newStore(context.Background(), cfg)

	var retriever agents.Retriever
	if weaviateClient := newWeaviateClient(cfg.WeaviateURL); weaviateClient != nil {
		retriever = agents.NewWeaviateRetriever(weaviateClient, cfg.KnowledgeClass)
	}

	sanitizer := security.NewSanitizer()
	guard := security.NewLanguageGuard()
	detector := security.NewInjectionDetector(security.DefaultPatterns())
	router := agents.NewRouter(llmClient, guard, detector, func(category string) {
		metrics.SecurityEvents.WithLabelValues(category).Inc()
	})
	mathAgent := agents.NewMathAgent()
	knowledgeAgent := agents.NewKnowledgeAgent(retriever, llmClient, cfg.RetrievalTopK, cfg.RetrievalThreshold)

	d := dispatcher.New(sanitizer, router, mathAgent, knowledgeAgent, store, metrics)

	engine := gin.Default()
	engine.Use(otelgin.Middleware("gateway-service"))
	routes.SetupRoutes(engine, d, store)

	slog.Info("Starting the gateway server", "port", cfg.Port)
	if err := engine.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
