package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/alfredjeanlab/datedvalues/internal/authz"
	"github.com/alfredjeanlab/datedvalues/internal/config"
	"github.com/alfredjeanlab/datedvalues/internal/events"
	"github.com/alfredjeanlab/datedvalues/internal/server"
	dvsync "github.com/alfredjeanlab/datedvalues/internal/sync"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Start the dated values server",
	GroupID: "system",
	// Override PersistentPreRunE so we don't create an HTTP client.
	PersistentPreRunE: localCommand,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		slog.SetDefault(logger)

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		settings, err := config.LoadSettings(cfg.SettingsPath)
		if err != nil {
			return err
		}
		access, err := authz.FromSettings(settings.Access)
		if err != nil {
			return err
		}

		store, err := openStore(cfg.DatabaseURL)
		if err != nil {
			return err
		}

		var publisher events.Publisher
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				store.Close()
				return err
			}
			publisher = pub
			logger.Info("events enabled", "nats_url", cfg.NATSURL)
		} else {
			publisher = events.NoopPublisher{}
			logger.Info("events disabled (DATED_VALUES_NATS_URL not set)")
		}

		// Start sync scheduler if a destination is configured.
		var scheduler *dvsync.Scheduler
		if cfg.SyncInterval > 0 && cfg.SyncS3Bucket != "" {
			s3Dest, err := dvsync.NewS3Destination(context.Background(), dvsync.S3Config{
				Bucket:   cfg.SyncS3Bucket,
				Key:      cfg.SyncS3Key,
				Region:   cfg.SyncS3Region,
				Endpoint: cfg.SyncS3Endpoint,
			})
			if err != nil {
				logger.Error("failed to create S3 sync destination", "err", err)
			} else {
				scheduler = dvsync.NewScheduler(store, []dvsync.Destination{s3Dest}, cfg.SyncInterval, logger)
				scheduler.Start()
				logger.Info("sync scheduler started", "interval", cfg.SyncInterval, "destination", s3Dest.Name())
			}
		}

		opts := server.Options{
			AuthToken:         cfg.AuthToken,
			TrustProxyHeaders: cfg.TrustProxyHeaders,
			LoginURL:          cfg.LoginURL,
			Access:            access,
		}
		if scheduler != nil {
			opts.SyncStatus = scheduler.Status
		}
		srv := server.New(store, publisher, settings, opts)

		var (
			grpcServer   *grpc.Server
			healthServer *health.Server
		)
		if cfg.GRPCAddr != "" {
			lis, err := net.Listen("tcp", cfg.GRPCAddr)
			if err != nil {
				publisher.Close()
				store.Close()
				return err
			}
			grpcServer, healthServer = server.NewGRPCServer(cfg.AuthToken)
			go func() {
				logger.Info("gRPC server listening", "addr", cfg.GRPCAddr)
				if err := grpcServer.Serve(lis); err != nil {
					logger.Error("gRPC server error", "err", err)
				}
			}()
		}

		httpServer := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           srv.NewHTTPHandler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		// Back up shortly after changes, not just on the interval.
		var syncCancel context.CancelFunc
		if scheduler != nil && cfg.NATSURL != "" {
			sub, err := events.NewNATSSubscriber(cfg.NATSURL)
			if err != nil {
				logger.Error("failed to create sync subscriber", "err", err)
			} else {
				var syncCtx context.Context
				syncCtx, syncCancel = context.WithCancel(context.Background())
				go func() {
					triggerOnEvents(syncCtx, sub, scheduler.Trigger, logger)
					sub.Close()
				}()
				logger.Info("sync on change enabled")
			}
		}

		logger.Info("dated values server started",
			"grpc_addr", cfg.GRPCAddr,
			"http_addr", cfg.HTTPAddr,
			"access", settings.Access.Mode,
		)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		if syncCancel != nil {
			syncCancel()
		}
		if scheduler != nil {
			scheduler.Stop()
			logger.Info("sync scheduler stopped")
		}

		if grpcServer != nil {
			healthServer.SetServingStatus(server.HealthService, healthpb.HealthCheckResponse_NOT_SERVING)
			grpcServer.GracefulStop()
			logger.Info("gRPC server stopped")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		if err := publisher.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}
		if err := store.Close(); err != nil {
			logger.Error("error closing store", "err", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}

// triggerOnEvents calls trigger for every value or type event until ctx is
// done. The scheduler coalesces bursts into a single run.
func triggerOnEvents(ctx context.Context, src events.Subscriber, trigger func(), logger *slog.Logger) {
	ch, cancel, err := src.Subscribe(events.SubjectAll)
	if err != nil {
		logger.Error("subscribing to events", "err", err)
		return
	}
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
			trigger()
		}
	}
}
