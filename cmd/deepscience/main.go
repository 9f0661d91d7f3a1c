package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/deepscience/deepscience/internal/api"
	"github.com/deepscience/deepscience/internal/config"
	"github.com/deepscience/deepscience/internal/llm/openai"
	"github.com/deepscience/deepscience/internal/openalex"
	"github.com/deepscience/deepscience/internal/service"
)

var (
	configPath = flag.String("config", "", "Path to config file")
)

func main() {
	_ = godotenv.Load()
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Bibliographic provider
	searcher := openalex.NewClient(openalex.Config{
		BaseURL:        cfg.OpenAlex.BaseURL,
		Mailto:         cfg.OpenAlex.Mailto,
		Timeout:        cfg.OpenAlexTimeout(),
		RequestsPerSec: cfg.OpenAlex.RequestsPerSec,
	})

	// Completion provider
	provider := openai.NewProvider(openai.Config{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLMTimeout(),
	})

	// Initialize services
	searchService := service.NewSearchService(searcher, cfg.OpenAlex.PerPage, logger)
	answerService := service.NewAnswerService(provider, cfg.LLM.AnswerMaxTokens, cfg.LLM.AnswerTemperature, logger)
	followUpService := service.NewFollowUpService(provider, cfg.LLM.FollowUpMaxTokens, cfg.LLM.FollowUpTemperature, logger)
	suggestService := service.NewSuggestService(provider, cfg.LLM.SuggestMaxTokens, cfg.SuggestCacheTTL(), logger)

	// Setup router
	router := api.SetupRouter(searchService, answerService, followUpService, suggestService, logger, api.RouterConfig{
		AllowOrigins: []string{"*"},
	})

	// Create HTTP server. No WriteTimeout: the answer stream is long-lived
	// and bounded by the completion token ceiling instead.
	srv := &http.Server{
		Addr:        cfg.Address(),
		Handler:     router,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Starting DeepScience server",
			zap.String("address", cfg.Address()),
			zap.String("base_url", cfg.Server.BaseURL),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
