package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/deusflow/NewsBrief/internal/app"
	"github.com/deusflow/NewsBrief/internal/config"
	"github.com/deusflow/NewsBrief/internal/logger"
	"github.com/deusflow/NewsBrief/internal/metrics"
)

func main() {
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if os.Getenv("ENABLE_HTTP_MONITORING") == "true" {
		go startMonitoringServer()
	}

	command := "run"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	ctx := context.Background()

	switch command {
	case "ingest":
		err = app.RunIngest(ctx, cfg)
	case "summarize":
		err = app.RunSummarize(ctx, cfg)
	case "deliver":
		err = app.RunDeliver(ctx, cfg)
	case "run":
		if err = app.RunIngest(ctx, cfg); err == nil {
			err = app.RunSummarize(ctx, cfg)
		}
	default:
		fmt.Fprintf(os.Stderr, "usage: %s [ingest|summarize|deliver|run]\n", os.Args[0])
		os.Exit(2)
	}

	if err != nil {
		logger.Error("run failed", "command", command, "error", err)
		os.Exit(1)
	}
}

func startMonitoringServer() {
	port := os.Getenv("MONITORING_PORT")
	if port == "" {
		port = "8080"
	}

	http.HandleFunc("/health", healthHandler)
	http.HandleFunc("/metrics", metricsHandler)

	logger.Info("starting monitoring server", "port", port)
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		logger.Error("monitoring server error", "error", err)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	status := "ok"
	if !stats["is_healthy"].(bool) {
		status = "error"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	response := map[string]interface{}{
		"status":     status,
		"last_run":   stats["last_run_time"],
		"last_error": stats["last_error"],
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func metricsHandler(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
