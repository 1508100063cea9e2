package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/mootlab/moot"
	"github.com/mootlab/moot/internal/adapters/graphfile"
	httpAdapter "github.com/mootlab/moot/internal/adapters/http"
	"github.com/mootlab/moot/internal/adapters/memory"
	redisAdapter "github.com/mootlab/moot/internal/adapters/redis"
	"github.com/mootlab/moot/internal/adapters/sqlite"
	"github.com/mootlab/moot/internal/logging"
	"github.com/mootlab/moot/internal/metrics"
	"github.com/mootlab/moot/pkg/domain"
	"github.com/mootlab/moot/pkg/ports"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Starts the trial engine as a JSON API over HTTP.

Session state lives in memory by default; set --redis-addr to share it
across replicas. Decision records live in memory by default; set
--sqlite to persist them.`,
	Run: func(cmd *cobra.Command, args []string) {
		addr, _ := cmd.Flags().GetString("addr")
		graphDir, _ := cmd.Flags().GetString("graphs")
		redisAddr, _ := cmd.Flags().GetString("redis-addr")
		redisPassword, _ := cmd.Flags().GetString("redis-password")
		redisDB, _ := cmd.Flags().GetInt("redis-db")
		sqlitePath, _ := cmd.Flags().GetString("sqlite")
		sessionTTL, _ := cmd.Flags().GetDuration("session-ttl")
		level, _ := cmd.Flags().GetString("log-level")

		logger := logging.New(parseLevel(level))

		graphs, err := loadGraphDir(graphDir)
		if err != nil {
			fmt.Printf("Error loading graphs: %v\n", err)
			os.Exit(1)
		}

		var sessions ports.SessionStore
		var engineOpts []moot.Option
		if redisAddr != "" {
			redisStore := redisAdapter.New(redisAddr, redisPassword, redisDB, redisAdapter.WithTTL(sessionTTL))
			defer redisStore.Close()
			sessions = redisStore
			engineOpts = append(engineOpts, moot.WithLocker(redisAdapter.NewLocker(redisStore.Client(), "moot:lock:")))
			logger.Info("using redis session store", "addr", redisAddr)
		} else {
			sessions = memory.NewSessionStore()
		}

		var decisions ports.DecisionStore
		if sqlitePath != "" {
			sqliteStore, err := sqlite.Open(sqlitePath)
			if err != nil {
				fmt.Printf("Error opening decision store: %v\n", err)
				os.Exit(1)
			}
			defer sqliteStore.Close()
			decisions = sqliteStore
			logger.Info("using sqlite decision store", "path", sqlitePath)
		} else {
			decisions = memory.NewDecisionStore()
		}

		registry := prometheus.NewRegistry()
		collector := metrics.NewCollector(registry)

		engineOpts = append(engineOpts,
			moot.WithLogger(logger),
			moot.WithLifecycleHooks(collector.Hooks()),
		)

		engine, err := moot.New(graphs, sessions, decisions, engineOpts...)
		if err != nil {
			fmt.Printf("Error initializing engine: %v\n", err)
			os.Exit(1)
		}

		handler := httpAdapter.NewHandler(engine, logger, registry)

		srv := &http.Server{
			Addr:    addr,
			Handler: handler,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			logger.Info("moot server listening", "addr", srv.Addr, "graphs", graphDir)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			logger.Info("shutdown signal received", "signal", sig.String())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("graceful shutdown did not complete", "err", err)
				if err := srv.Close(); err != nil {
					logger.Error("forced close failed", "err", err)
				}
			}
			logger.Info("moot server stopped")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", envOr("MOOT_ADDR", ":8080"), "Address to listen on")
	serveCmd.Flags().String("graphs", envOr("MOOT_GRAPH_DIR", "."), "Directory containing graph YAML files")
	serveCmd.Flags().String("redis-addr", os.Getenv("MOOT_REDIS_ADDR"), "Redis address for shared session state")
	serveCmd.Flags().String("redis-password", os.Getenv("MOOT_REDIS_PASSWORD"), "Redis password")
	serveCmd.Flags().Int("redis-db", envInt("MOOT_REDIS_DB", 0), "Redis database number")
	serveCmd.Flags().String("sqlite", os.Getenv("MOOT_SQLITE_PATH"), "SQLite file for decision records")
	serveCmd.Flags().Duration("session-ttl", 0, "Session expiry in redis (0 keeps sessions forever)")
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// loadGraphDir loads every .yaml/.yml file in dir into a memory graph
// store, rejecting graphs that fail the structural checks.
func loadGraphDir(dir string) (*memory.GraphStore, error) {
	store := memory.NewGraphStore()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		g, err := graphfile.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		if err := moot.ValidateGraph(g); err != nil {
			return nil, fmt.Errorf("validate %s: %w", path, err)
		}
		store.Put(g)
		loaded++
	}
	if loaded == 0 {
		return nil, fmt.Errorf("no graph files found in %s: %w", dir, domain.ErrGraphNotFound)
	}
	return store, nil
}
