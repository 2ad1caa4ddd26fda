// Command orchestratord runs the orchestration core as a standalone daemon:
// an HTTP control API backed by the orchestrator facade, a Prometheus
// metrics endpoint, and graceful shutdown on SIGINT/SIGTERM.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lookatitude/orchestrator-core/pkg/config"
	"github.com/lookatitude/orchestrator-core/pkg/monitor"
	"github.com/lookatitude/orchestrator-core/pkg/orcherr"
	"github.com/lookatitude/orchestrator-core/pkg/orchestrator"
)

// Exit codes per the daemon's external contract: 0 clean shutdown, 1
// unexpected error (the orchestrator could not be constructed, or shutdown
// did not complete within the grace period), 3 configuration error.
const (
	exitOK               = 0
	exitStartupError     = 1
	exitShutdownTimedOut = 1
	exitConfigError      = 3
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load("orchestrator", []string{".", "/etc/orchestrator"}, "ORCHESTRATOR")
	if err != nil {
		fmt.Fprintf(os.Stderr, "orchestratord: config error: %v\n", err)
		return exitConfigError
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	reg := prometheus.NewRegistry()
	sink := monitor.NewPrometheusSink(reg)

	orch, err := orchestrator.New(cfg, orchestrator.Deps{Sink: sink}, logger)
	if err != nil {
		logger.Error("failed to construct orchestrator", "error", err)
		return exitStartupError
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	orch.Start(ctx)

	apiServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      newAPIHandler(orch),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	metricsServer := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}

	go func() {
		logger.Info("starting control API", "addr", cfg.HTTPAddr)
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("control API server error", "error", err)
		}
	}()
	go func() {
		logger.Info("starting metrics endpoint", "addr", cfg.MetricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_ = apiServer.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)

	if err := orch.Shutdown(shutdownCtx); err != nil {
		logger.Error("orchestrator shutdown did not complete in time", "error", err)
		return exitShutdownTimedOut
	}

	logger.Info("shutdown complete")
	return exitOK
}

func newLogger(level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newAPIHandler builds the control API: a thin JSON-over-HTTP surface over
// the orchestrator facade.
func newAPIHandler(orch *orchestrator.Orchestrator) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("POST /workflows", func(w http.ResponseWriter, r *http.Request) {
		var req orchestrator.WorkflowRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, orcherr.Validation("api.submit_workflow", "malformed request body"))
			return
		}
		id, err := orch.SubmitWorkflow(req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"workflow_id": id})
	})

	mux.HandleFunc("GET /workflows", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, orch.ListWorkflows())
	})

	mux.HandleFunc("GET /workflows/{id}", func(w http.ResponseWriter, r *http.Request) {
		wf, err := orch.WorkflowStatus(r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, wf)
	})

	mux.HandleFunc("POST /workflows/{id}/cancel", func(w http.ResponseWriter, r *http.Request) {
		if err := orch.CancelWorkflow(r.PathValue("id")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("POST /agents", func(w http.ResponseWriter, r *http.Request) {
		var req orchestrator.AgentRegistration
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, orcherr.Validation("api.register_agent", "malformed request body"))
			return
		}
		if err := orch.RegisterAgent(req); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
	})

	mux.HandleFunc("GET /agents", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, orch.ListAgents())
	})

	mux.HandleFunc("DELETE /agents/{id}", func(w http.ResponseWriter, r *http.Request) {
		orch.DeregisterAgent(r.PathValue("id"))
		w.WriteHeader(http.StatusNoContent)
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case orcherr.Is(err, orcherr.CodeValidation):
		status = http.StatusBadRequest
	case orcherr.Is(err, orcherr.CodeNotFound):
		status = http.StatusNotFound
	case orcherr.Is(err, orcherr.CodeIllegalTransition):
		status = http.StatusConflict
	case orcherr.Is(err, orcherr.CodeCircuitOpen):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
