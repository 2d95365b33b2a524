package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rowcore/rowcore/internal/bus"
	"github.com/rowcore/rowcore/internal/config"
	"github.com/rowcore/rowcore/internal/embeddings"
	"github.com/rowcore/rowcore/internal/logger"
	"github.com/rowcore/rowcore/internal/orchestrator"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run one or more processors until interrupted",
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.PersistentFlags().Int("health_port", 8080, "port for the /health and /version endpoints (0 disables)")
}

func healthPortFlag(cmd *cobra.Command) int {
	port, _ := cmd.Flags().GetInt("health_port")
	return port
}

// bootstrap loads configuration, builds the shared in-process bus and
// a Manager over it. Processors share one bus so that the writer
// chain (C2/C3/C4) and the config-push topic (C1) work the same way
// whether every processor is started in this process (`serve all`) or
// only a subset of them - the unstarted ones simply have no
// subscriber on their topics.
func bootstrap() (*orchestrator.Manager, *config.Config, error) {
	configPath, _ := rootCmd.PersistentFlags().GetString("config")
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if level, _ := rootCmd.PersistentFlags().GetString("log_level"); level != "" {
		cfg.LogLevel = level
		if err := cfg.Validate(); err != nil {
			return nil, nil, fmt.Errorf("invalid --log_level: %w", err)
		}
	}

	b := bus.NewInProcess()
	var embedClient embeddings.Client
	if cfg.EmbedderURL != "" {
		embedClient = embeddings.NewHTTPClient(cfg.EmbedderURL)
	}

	mgr, err := orchestrator.New(cfg, b, embedClient)
	if err != nil {
		return nil, nil, fmt.Errorf("build orchestrator: %w", err)
	}
	return mgr, cfg, nil
}

// runUntilSignal blocks until SIGINT/SIGTERM, then closes the Manager
// within a bounded shutdown window, mirroring the teacher's
// setupGracefulShutdown/StopAll pair in main.go.
func runUntilSignal(mgr *orchestrator.Manager, healthPort int) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var healthServer *http.Server
	if healthPort > 0 {
		healthServer = startHealthServer(healthPort)
	}

	log.Println("🚀 rowcore processor started")
	<-sigChan
	log.Println("🛑 received shutdown signal...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	if healthServer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := healthServer.Shutdown(shutdownCtx); err != nil {
				log.Printf("❌ error stopping health server: %v", err)
			}
		}()
	}
	wg.Wait()

	if err := mgr.Close(); err != nil {
		log.Printf("❌ error during shutdown: %v", err)
	}
	log.Println("👋 rowcore shutting down")
}

func startHealthServer(port int) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "healthy",
			"time":   time.Now().UTC(),
		})
	})
	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"version": Version})
	})

	server := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: logger.LogRequest(mux)}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("❌ health server failed: %v", err)
		}
	}()
	return server
}
