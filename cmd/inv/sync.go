package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	invsync "github.com/alfredjeanlab/invtrack/internal/sync"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Export to the configured S3 and git destinations",
	Long: `Export every inventory and item to the configured destinations.

Runs until interrupted, exporting every INVTRACK_SYNC_INTERVAL and serving
Prometheus metrics on INVTRACK_METRICS_ADDR. With --once a single export
is written and the command exits.`,
	GroupID:     "system",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{needsStore: ""},
	RunE: func(cmd *cobra.Command, args []string) error {
		once, _ := cmd.Flags().GetBool("once")

		dests := syncDestinations(cmd.Context())
		if len(dests) == 0 {
			return errors.New("no sync destination configured (set INVTRACK_SYNC_S3_BUCKET or INVTRACK_SYNC_GIT_REPO)")
		}
		scheduler := invsync.NewScheduler(st, dests, cfg.SyncInterval, logger, collector)

		if once {
			return scheduler.SyncOnce(cmd.Context())
		}
		if cfg.SyncInterval <= 0 {
			return errors.New("INVTRACK_SYNC_INTERVAL is 0; use --once for a single export")
		}

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening", "addr", cfg.MetricsAddr)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server error", "err", err)
			}
		}()

		scheduler.Start()
		logger.Info("sync scheduler started", "interval", cfg.SyncInterval, "destinations", len(dests))

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		scheduler.Stop()
		logger.Info("sync scheduler stopped")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", "err", err)
		}
		logger.Info("shutdown complete")
		return nil
	},
}

// syncDestinations builds the destinations enabled in the configuration.
// A destination that cannot be set up is logged and skipped.
func syncDestinations(ctx context.Context) []invsync.Destination {
	var dests []invsync.Destination

	if cfg.SyncS3Bucket != "" {
		s3Dest, err := invsync.NewS3Destination(ctx, invsync.S3Options{
			Bucket:   cfg.SyncS3Bucket,
			Key:      cfg.SyncS3Key,
			Region:   cfg.SyncS3Region,
			Endpoint: cfg.SyncS3Endpoint,
		})
		if err != nil {
			logger.Error("failed to create S3 sync destination", "err", err)
		} else {
			dests = append(dests, s3Dest)
			logger.Info("sync S3 destination enabled", "bucket", cfg.SyncS3Bucket, "key", cfg.SyncS3Key)
		}
	}

	if cfg.SyncGitRepo != "" {
		dests = append(dests, invsync.NewGitDestination(cfg.SyncGitRepo, cfg.SyncGitFile, cfg.SyncGitBranch))
		logger.Info("sync git destination enabled", "repo", cfg.SyncGitRepo, "file", cfg.SyncGitFile)
	}
	return dests
}

func init() {
	syncCmd.Flags().Bool("once", false, "export once and exit")
}
