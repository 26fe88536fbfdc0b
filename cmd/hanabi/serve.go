package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hanabi-drive/hanabi/auth"
	"github.com/hanabi-drive/hanabi/config"
	"github.com/hanabi-drive/hanabi/ops"
	"github.com/hanabi-drive/hanabi/router"
	"github.com/hanabi-drive/hanabi/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the account server",
	Long: `Start the account protocol server and, when enabled, the ops server
exposing /healthz and /metrics.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "account server listen address (default: :9998)")
	serveCmd.Flags().String("ops-addr", "", "ops server listen address (default: :9999)")
	serveCmd.Flags().Int64("max-conns", 0, "maximum concurrent connections (default: 64)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg, cfg.Database.AutoMigrate)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	authCfg, err := cfg.AuthConfig()
	if err != nil {
		return err
	}

	service := auth.NewService(db.Store(), authCfg,
		auth.WithLimiter(auth.NewLimiter(cfg.Auth.LoginRate, cfg.Auth.LoginBurst)),
		auth.WithLogger(slog.Default().With("service", router.ServiceAuth.String())),
	)

	r := router.New()
	if err = r.Mount(auth.Path, router.ServiceAuth, service); err != nil {
		return fmt.Errorf("mount routes: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := server.NewMetrics(registry)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	srv := server.New(cfg.ServerConfig(), r,
		server.WithLogger(slog.Default()),
		server.WithMetrics(metrics),
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting account server", "addr", cfg.Server.Addr, "routes", r.Paths())
		return srv.ListenAndServe(gctx)
	})

	if cfg.Ops.Enabled {
		opsCfg := cfg.OpsConfig()
		opsCfg.Logger = slog.Default()
		opsServer := &http.Server{
			Addr:              cfg.Ops.Addr,
			Handler:           ops.NewHandler(&opsCfg, db, registry).Router(),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		}

		g.Go(func() error {
			slog.Info("starting ops server", "addr", cfg.Ops.Addr)
			if err := opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("ops server: %w", err)
			}
			return nil
		})

		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return opsServer.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	slog.Info("server stopped")
	return err
}
