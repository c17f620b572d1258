package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"docubuddy/internal/config"
	"docubuddy/internal/http"
	"docubuddy/internal/indexer"
	"docubuddy/internal/llm"
	"docubuddy/internal/memory"
	"docubuddy/internal/retrieval"
	"docubuddy/internal/service"
	"docubuddy/internal/vectorstore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Conversation memory: same store contract over either backend.
	var backend memory.Backend
	switch cfg.MemoryBackend {
	case "sqlite":
		db, err := memory.OpenSQLite(cfg.DBPath)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		if err := memory.MigrateSQLite(db); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		backend = memory.NewSQLiteBackend(db)
		slog.Info("Conversation store initialized", "backend", "sqlite", "path", cfg.DBPath)
	case "file":
		backend, err = memory.NewFileBackend(cfg.MemoryPath)
		if err != nil {
			log.Fatalf("Failed to initialize memory directory: %v", err)
		}
		slog.Info("Conversation store initialized", "backend", "file", "path", cfg.MemoryPath)
	}
	store := memory.NewStore(backend, cfg.MaxConversationLength)
	defer func() {
		_ = store.Close()
	}()

	vectorStore, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
	if err != nil {
		log.Fatalf("Failed to create Qdrant client: %v", err)
	}
	if err := vectorStore.EnsureCollection(ctx, cfg.QdrantCollection, cfg.QdrantVectorSize); err != nil {
		log.Fatalf("Failed to ensure Qdrant collection: %v", err)
	}
	slog.Info("Qdrant collection ready", "collection", cfg.QdrantCollection, "vector_size", cfg.QdrantVectorSize)

	// Validate the embedding client vector size (fail-fast).
	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModelName, cfg.QdrantVectorSize)
	if _, err := embedder.EmbedTexts(ctx, []string{"test"}); err != nil {
		log.Fatalf("Failed to validate embedding client: %v", err)
	}
	slog.Info("Embedding client validated", "model", cfg.EmbeddingModelName)

	pipeline := indexer.NewPipeline(cfg.DocsPath, embedder, vectorStore, cfg.QdrantCollection, cfg.ChunkSize, cfg.ChunkOverlap)
	retriever := retrieval.NewRetriever(embedder, vectorStore, cfg.QdrantCollection, cfg.RetrievalTopK)
	generator := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel)

	chatService := service.NewChatService(retriever, generator, store, vectorStore, cfg.QdrantCollection, service.Options{
		HistoryLimit: cfg.HistoryLimit,
		Temperature:  cfg.LLMTemperature,
	})

	router := http.NewRouter(&http.Deps{ChatService: chatService})

	// Ingest the corpus in the background: chat requests arriving before
	// it completes see an emptier index, not an error.
	go func() {
		slog.Info("Starting background ingestion", "docs_path", cfg.DocsPath)
		report, err := pipeline.IndexAll(ctx)
		if err != nil {
			slog.Error("Ingestion failed", "error", err)
			return
		}
		slog.Info("Ingestion finished",
			"scanned", report.DocsScanned,
			"indexed", report.DocsIndexed,
			"parse_failures", report.ParseFailures,
			"chunks", report.ChunksIndexed,
		)
	}()

	// Periodic TTL sweep for stale conversations.
	ttl := time.Duration(cfg.ConversationTTLHours) * time.Hour
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := store.EvictExpired(ctx, ttl); err != nil {
					slog.Error("Conversation eviction sweep failed", "error", err)
				}
			}
		}
	}()

	server := &nethttp.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: router,
	}

	go func() {
		slog.Info("Starting API server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			log.Fatalf("API server failed: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
}
