package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/aretw0/rill"
	httpAdapter "github.com/aretw0/rill/internal/adapters/http"
	"github.com/aretw0/rill/internal/adapters/memory"
	redisAdapter "github.com/aretw0/rill/internal/adapters/redis"
	sqliteAdapter "github.com/aretw0/rill/internal/adapters/sqlite"
	"github.com/aretw0/rill/internal/config"
	"github.com/aretw0/rill/internal/logging"
	"github.com/aretw0/rill/pkg/ports"
	"github.com/aretw0/rill/pkg/review"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the workflow engine HTTP server",
	Long:  `Starts the rill engine in server mode, exposing a JSON API over HTTP and a WebSocket step stream.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgPath, _ := cmd.Flags().GetString("config")
		port, _ := cmd.Flags().GetString("port")

		cfg := config.Default()
		if cfgPath != "" {
			var err error
			cfg, err = config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
		}
		if port != "" {
			cfg.Server.Addr = ":" + port
		}

		logger := logging.New(logging.ParseLevel(cfg.Logging.Level))

		archive, closeArchive, err := buildArchive(cfg)
		if err != nil {
			return fmt.Errorf("init archive: %w", err)
		}
		if closeArchive != nil {
			defer closeArchive()
		}

		opts := []rill.Option{
			rill.WithLogger(logger),
			rill.WithIterationLimit(cfg.Engine.IterationLimit),
			rill.WithMaxRuns(cfg.Engine.MaxRuns),
		}
		if archive != nil {
			opts = append(opts, rill.WithArchive(archive))
		}
		engine := rill.New(opts...)

		if err := review.Register(engine.Registry()); err != nil {
			return fmt.Errorf("register builtin tools: %w", err)
		}

		srv := &http.Server{
			Addr:    cfg.Server.Addr,
			Handler: httpAdapter.NewHandler(engine, httpAdapter.WithLogger(logger)),
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("server listening", "addr", srv.Addr, "archive", cfg.Archive.Backend)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			logger.Info("shutting down", "signal", sig.String())

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Warn("graceful shutdown did not complete", "error", err)
				if err := srv.Close(); err != nil {
					logger.Error("closing server", "error", err)
				}
			}

			// Let background runs finish so their terminal status is
			// committed (and archived) before the process exits.
			engine.Wait()
			logger.Info("server stopped")
		}
		return nil
	},
}

// buildArchive constructs the configured run archive backend. The
// returned close function releases backend resources, if any.
func buildArchive(cfg config.Config) (ports.RunArchive, func(), error) {
	switch cfg.Archive.Backend {
	case config.ArchiveNone:
		return nil, nil, nil

	case config.ArchiveMemory:
		return memory.NewRunArchive(), nil, nil

	case config.ArchiveSQLite:
		db, err := sql.Open("sqlite", cfg.Archive.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		archive, err := sqliteAdapter.NewRunArchive(db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return archive, func() { _ = db.Close() }, nil

	case config.ArchiveRedis:
		archive := redisAdapter.New(
			cfg.Archive.Redis.Addr,
			cfg.Archive.Redis.Password,
			cfg.Archive.Redis.DB,
			redisAdapter.WithTTL(cfg.Archive.Redis.TTL),
		)
		return archive, func() { _ = archive.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown archive backend %q", cfg.Archive.Backend)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("config", "c", "", "Path to the configuration file")
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (overrides config)")
}
