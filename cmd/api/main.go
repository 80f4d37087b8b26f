package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"chroniccare/internal/config"
	"chroniccare/internal/database"
	"chroniccare/internal/ollama"
	"chroniccare/internal/patient"
	"chroniccare/internal/planner"
	"chroniccare/internal/rag"
	"chroniccare/internal/server"
)

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Info().Msg("shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("could not load configuration")
	}

	ctx := context.Background()

	dbService, err := database.New(ctx, cfg.Database.ConnString())
	if err != nil {
		log.Fatal().Err(err).Msg("could not connect to database")
	}
	defer dbService.Close()

	llm := ollama.New(cfg.Ollama.URL, cfg.Ollama.Model, cfg.Ollama.EmbedModel)

	// The guideline index is loaded once at startup and shared read-only
	// across requests. A missing index is a setup failure.
	retriever, err := rag.NewRetriever(cfg.Index.Dir, llm)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.Index.Dir).Msg("could not load guideline index; run cmd/indexer first")
	}

	carePlanner := planner.NewCarePlanner(retriever)
	handlers := patient.NewHandlers(dbService.Store(), carePlanner, llm)
	apiServer := server.NewServer(cfg.Server.Port, dbService, handlers)

	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(apiServer, done)

	log.Info().Int("port", cfg.Server.Port).Msg("Starting API server")
	if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server error")
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Info().Msg("Graceful shutdown complete.")
}
