package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sharkfunded/risk-engine/internal/bridge"
	"github.com/sharkfunded/risk-engine/internal/config"
	"github.com/sharkfunded/risk-engine/internal/enforcement"
	"github.com/sharkfunded/risk-engine/internal/logger"
	"github.com/sharkfunded/risk-engine/internal/monitoring"
	"github.com/sharkfunded/risk-engine/internal/payout"
	"github.com/sharkfunded/risk-engine/internal/store"
	"github.com/sharkfunded/risk-engine/internal/sweep"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	fileLog, err := logger.NewLogger("risk-engine", cfg.LogDir)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer fileLog.Close()

	db, err := store.NewSQLite(cfg.Database.SQLitePath)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer db.Close()

	bridgeClient := bridge.NewClient(
		cfg.Bridge.BaseURL,
		cfg.Bridge.APIKey,
		cfg.BridgeTimeout(),
		bridge.WithRateLimit(cfg.Bridge.RequestsPerSecond, cfg.Bridge.Burst),
	)

	health := monitoring.NewHealthChecker(3 * cfg.SweepInterval())

	configCache := store.NewRiskConfigCache(db, cfg.ConfigCacheTTL())

	executor := enforcement.NewExecutor(bridgeClient, db, fileLog, cfg.Sweep.MaxRetriesPerTick)

	scheduler := sweep.NewScheduler(sweep.Config{
		Interval:           cfg.SweepInterval(),
		Workers:            cfg.Sweep.MaxConcurrentWorkers,
		MockEquitySentinel: cfg.Bridge.MockEquitySentinel,
		SODResetCron:       cfg.Sweep.SODResetCron,
		Location:           cfg.Location(),
	}, bridgeClient, db, configCache, executor, fileLog, health)

	// Identity verification is owned by the platform's KYC service; this
	// seam is where a deployment plugs in the real checker.
	kyc := payout.KYCFunc(func(ctx context.Context, accountID string) (bool, error) {
		return true, nil
	})

	payoutService := payout.NewService(db, configCache, kyc, fileLog)
	payoutHandler := payout.NewHandler(payoutService, fileLog)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Monitoring endpoints
	go func() {
		http.Handle("/metrics", monitoring.NewMetricsHandler())
		addr := fmt.Sprintf(":%d", cfg.Monitoring.PrometheusPort)
		log.Printf("Metrics server listening on %s", addr)
		if err := http.ListenAndServe(addr, nil); err != nil {
			log.Printf("Metrics server error: %v", err)
		}
	}()
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/health", health)
		addr := fmt.Sprintf(":%d", cfg.Monitoring.HealthPort)
		log.Printf("Health server listening on %s", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Printf("Health server error: %v", err)
		}
	}()

	// Payout API
	payoutServer := &http.Server{
		Addr:         cfg.Payout.ListenAddr,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	payoutMux := http.NewServeMux()
	payoutHandler.Register(payoutMux)
	payoutServer.Handler = payoutMux
	go func() {
		log.Printf("Payout API listening on %s", cfg.Payout.ListenAddr)
		if err := payoutServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Payout API error: %v", err)
		}
	}()

	// Initial bridge reachability check, informational only: the sweep
	// starts regardless and the circuit breaker handles a dead bridge.
	if status, err := bridgeClient.Health(ctx); err != nil {
		log.Printf("Bridge health check failed: %v", err)
		health.SetBridgeConnected(false)
	} else {
		log.Printf("Bridge reachable: status=%s connected=%v", status.Status, status.Connected)
		health.SetBridgeConnected(status.Connected)
	}

	sodCron, err := scheduler.StartSODReset(ctx)
	if err != nil {
		log.Fatalf("Failed to schedule start-of-day reset: %v", err)
	}

	go func() {
		if err := scheduler.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("Sweep loop exited: %v", err)
		}
	}()

	log.Printf("Risk engine started (interval=%s workers=%d)",
		cfg.SweepInterval(), cfg.Sweep.MaxConcurrentWorkers)

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down risk engine...")
	scheduler.Stop()
	sodCron.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := payoutServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Payout API shutdown error: %v", err)
	}

	log.Println("Risk engine stopped")
}
