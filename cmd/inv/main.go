package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/invtrack/internal/config"
	"github.com/alfredjeanlab/invtrack/internal/events"
	"github.com/alfredjeanlab/invtrack/internal/inventory"
	"github.com/alfredjeanlab/invtrack/internal/metrics"
	"github.com/alfredjeanlab/invtrack/internal/store"
	"github.com/alfredjeanlab/invtrack/internal/store/memory"
	"github.com/alfredjeanlab/invtrack/internal/store/postgres"
	"github.com/alfredjeanlab/invtrack/internal/telemetry"
	"github.com/alfredjeanlab/invtrack/internal/ui"
)

var version = "dev"

var (
	jsonOutput bool
	actor      string
	noColor    bool

	cfg       *config.Config
	logger    *slog.Logger
	st        store.Store
	publisher events.Publisher
	svc       *inventory.Service
	collector *metrics.Metrics
	shutdown  telemetry.Shutdown = telemetry.Noop
)

// needsStore annotates commands (or their parents) that work on the
// configured store. Other commands run offline.
const needsStore = "store"

var rootCmd = &cobra.Command{
	Use:           "inv <command>",
	Short:         "Manage inventories, items and custom item ids",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		ui.Setup(noColor || jsonOutput)
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))

		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		if actor == "" {
			actor = cfg.Actor
		}
		if !wantsStore(cmd) {
			return nil
		}
		return connect()
	},
}

func wantsStore(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if _, ok := c.Annotations[needsStore]; ok {
			return true
		}
	}
	return false
}

// connect opens the store, the event publisher and tracing, and builds the
// inventory service on top of them.
func connect() error {
	var err error
	switch cfg.Store {
	case config.StorePostgres:
		pg, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		st = pg
	default:
		st = memory.New()
		logger.Warn("using in-memory store; nothing is persisted", "profile", cfg.Profile)
	}

	if cfg.NATSURL != "" {
		pub, err := events.NewNATSPublisher(cfg.NATSURL)
		if err != nil {
			st.Close()
			st = nil
			return err
		}
		publisher = pub
	} else {
		publisher = &events.NoopPublisher{}
	}

	if cfg.Tracing {
		shutdown, err = telemetry.Init("invtrack", version, os.Stderr)
		if err != nil {
			logger.Warn("tracing disabled", "err", err)
			shutdown = telemetry.Noop
		}
	}

	collector = metrics.New(prometheus.DefaultRegisterer)
	svc = inventory.New(st,
		inventory.WithPublisher(publisher),
		inventory.WithMetrics(collector),
		inventory.WithLogger(logger),
	)
	return nil
}

// closeAll releases whatever connect opened.
func closeAll(ctx context.Context) {
	if logger == nil {
		return
	}
	if err := shutdown(ctx); err != nil {
		logger.Error("error flushing traces", "err", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}
	}
	if st != nil {
		if err := st.Close(); err != nil {
			logger.Error("error closing store", "err", err)
		}
	}
	shutdown, publisher, st, svc = telemetry.Noop, nil, nil, nil
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().StringVar(&actor, "actor", "", "acting user (default from INVTRACK_ACTOR or $USER)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable coloured output")

	rootCmd.AddGroup(
		&cobra.Group{ID: "data", Title: "Inventories and items:"},
		&cobra.Group{ID: "ids", Title: "Custom ids:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	// Inventories and items
	rootCmd.AddCommand(inventoryCmd)
	rootCmd.AddCommand(itemCmd)

	// Custom ids
	rootCmd.AddCommand(formatCmd)
	rootCmd.AddCommand(idCmd)
	rootCmd.AddCommand(sequenceCmd)

	// System
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	err := rootCmd.Execute()
	closeAll(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}
