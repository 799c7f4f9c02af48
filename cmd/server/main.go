package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ccnsweden/rag-chatbot/internal/api"
	"github.com/ccnsweden/rag-chatbot/internal/auth"
	"github.com/ccnsweden/rag-chatbot/internal/config"
	"github.com/ccnsweden/rag-chatbot/internal/core"
	"github.com/ccnsweden/rag-chatbot/internal/search"
	"github.com/ccnsweden/rag-chatbot/internal/store"
)

func main() {
	// Load configuration
	config.LoadConfig()
	cfg := config.AppConfig

	// Setup logging
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Basic-auth credential
	credential, err := auth.NewCredential(cfg.AuthUsername, cfg.AuthPassword)
	if err != nil {
		log.Fatalf("Failed to initialize credentials: %v", err)
	}

	// Durable session backend: redis when configured, sqlite as the
	// single-host alternative, otherwise in-memory only. A failed backend
	// connection downgrades to in-memory rather than aborting startup.
	var durable store.KV
	if cfg.RedisURL != "" {
		kv, err := store.NewRedisKV(cfg.RedisURL)
		if err != nil {
			log.Printf("Redis connection failed, using in-memory storage: %v", err)
		} else {
			log.Println("Redis connected, conversations will be persistent")
			durable = kv
		}
	} else if cfg.SessionDB != "" {
		kv, err := store.NewSQLiteKV(cfg.SessionDB)
		if err != nil {
			log.Printf("Session database unavailable, using in-memory storage: %v", err)
		} else {
			log.Printf("Session database %s opened, conversations will be persistent", cfg.SessionDB)
			durable = kv
		}
	} else {
		log.Println("No durable backend configured, using in-memory storage")
	}

	sessions := store.NewSessionStore(durable)
	defer sessions.Close()

	// Azure OpenAI clients
	llmService := core.NewLLMService(cfg)

	// Vector search is optional; RAG features are disabled without it.
	var searcher core.Searcher
	if cfg.SearchConfigured() {
		searcher = search.NewClient(cfg.SearchEndpoint, cfg.SearchIndex, cfg.SearchAPIKey)
		log.Println("Azure AI Search connected for RAG")
	} else {
		log.Println("Vector search not configured, RAG features disabled")
	}

	ragService := core.NewRAGService(llmService, searcher)
	chatService := core.NewChatService(sessions, ragService, llmService, cfg.MaxTurns)

	apiHandler := api.NewAPIHandler(credential, chatService, ragService,
		cfg.ChatAPIKey != "", sessions.DurableEnabled(), "static")
	router := api.NewRouter(apiHandler)

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // LLM calls can take time
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		log.Printf("Starting server on %s. Press Ctrl+C to quit.", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", serverAddr, err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give active connections time to finish.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting gracefully")
}
