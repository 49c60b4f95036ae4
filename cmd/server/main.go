/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the attendance engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present) and environment configuration
  2. Parse command-line flags (override environment)
  3. Initialize SQLite store (schema auto-migrated)
  4. Open today's daily log mirror and replay its rows
  5. Build the reconciliation engine (loads identities, reconciles
     mirror against ledger)
  6. Start the midnight rollover scheduler
  7. Serve HTTP with graceful shutdown

COMMAND-LINE FLAGS:
  -port     HTTP server port (default from env, then 8080)
  -db       SQLite database path; ":memory:" for in-memory
  -records  Daily log directory

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections (30s drain)
  2. Stop the rollover scheduler
  3. Close the day log (flush) and the database

SEE ALSO:
  - config/config.go: Environment and schedule-file configuration
  - api/server.go: Router configuration
  - engine/engine.go: Reconciliation
*/
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

	"github.com/warp/attendance-engine/api"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/config"
	"github.com/warp/attendance-engine/daylog"
	"github.com/warp/attendance-engine/engine"
	"github.com/warp/attendance-engine/store/sqlite"
)

func main() {
	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Flags override the environment.
	port := flag.Int("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	recordsDir := flag.String("records", cfg.RecordsDir, "daily log directory")
	flag.Parse()

	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	mirror, err := daylog.Open(*recordsDir, attendance.DateOf(time.Now()))
	if err != nil {
		log.Fatalf("Failed to open daily log: %v", err)
	}
	defer mirror.Close()

	eng, err := engine.New(context.Background(), store, mirror, engine.Config{
		Schedule:       cfg.Schedule,
		MatchThreshold: cfg.MatchThreshold,
		LateFine:       &cfg.LateFine,
	})
	if err != nil {
		log.Fatalf("Failed to initialize engine: %v", err)
	}

	scheduler := engine.NewRolloverScheduler(eng)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(eng, store)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost:%d", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
