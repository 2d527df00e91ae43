package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fin_ratio/pkg/api/fin"
	"fin_ratio/pkg/core/config"
	"fin_ratio/pkg/core/dart"
	"fin_ratio/pkg/core/pipeline"
	"fin_ratio/pkg/core/ratio"
	"fin_ratio/pkg/core/store"
)

func main() {
	// Load configuration (.env, environment, optional RATIO_CONFIG file)
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("[FATAL] Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	logger := config.NewLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize storage and apply the schema
	repo, err := store.Open(ctx, cfg, logger)
	if err != nil {
		fmt.Printf("[FATAL] Failed to open %s store: %v\n", cfg.StoreDriver, err)
		os.Exit(1)
	}
	defer repo.Close()

	if cfg.DART.APIKey == "" {
		fmt.Println("[WARNING] DART_API_KEY is not set; upstream requests will be rejected")
	}

	// Wire the pipeline
	source := dart.NewClient(cfg.DART, cfg.CacheDir, logger)
	engine := ratio.NewEngine(cfg.Ratio)
	orchestrator := pipeline.NewPipelineOrchestrator(source, repo, engine, cfg.YearMarker, logger)

	mux := http.NewServeMux()
	finHandler := fin.NewHandler(orchestrator, cfg.DefaultCompany, logger)
	finHandler.Routes(mux)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           finHandler.Middleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	fmt.Printf("Server starting on :%s (store=%s)\n", cfg.Port, cfg.StoreDriver)
	fmt.Println("  POST /api/fin/financial?company_name=&year=")
	fmt.Printf("  GET  /api/fin/financial (default: %s)\n", cfg.DefaultCompany)
	fmt.Println("  GET  /api/fin/ratios/{company_name}?year=")
	fmt.Println("  POST /api/fin/ratios/{company_name}/recompute")
	fmt.Println("  GET  /api/fin/summary")
	fmt.Println("  GET  /api/fin/key-items")
	fmt.Println("  GET  /api/fin/report/{company_name}")
	fmt.Println("  GET  /api/fin/export/{company_name}")

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown failed")
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fmt.Printf("[FATAL] Server failed to start: %v\n", err)
		os.Exit(1)
	}
	logger.Info().Msg("server stopped")
}
