package main

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/volwatch/usnjrnl/internal/logger"
	"github.com/volwatch/usnjrnl/pkg/config"
	"github.com/volwatch/usnjrnl/pkg/device"
	"github.com/volwatch/usnjrnl/pkg/journal"
	"github.com/volwatch/usnjrnl/pkg/metrics"
	promjournal "github.com/volwatch/usnjrnl/pkg/metrics/prometheus"
	"github.com/volwatch/usnjrnl/pkg/volume"
)

var (
	cfgFile        string
	flagPrivileged bool
	flagDebug      bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "usnjrnl",
	Short: "Inspect a volume change journal",
	Long: `usnjrnl decodes and navigates the kernel-maintained change journal
of a volume: enumerate volumes and their serials, query journal
metadata, page through change records from any cursor, and resolve
the stable (volume serial, file id, cursor) identity of a file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("privileged") {
			cfg.Session.Privileged = flagPrivileged
		}
		if flagDebug {
			cfg.Logging.Level = "debug"
		}

		if err := logger.Init(logger.Config{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			Output: cfg.Logging.Output,
		}); err != nil {
			return err
		}

		if cfg.Metrics.Enabled {
			metrics.InitRegistry()
			go serveMetrics(cfg.Metrics.Listen)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: standard locations)")
	rootCmd.PersistentFlags().BoolVar(&flagPrivileged, "privileged", false, "use privileged journal access (requires admin rights)")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics listener failed", "addr", addr, "error", err)
	}
}

// newSession discovers volumes and builds a journal session in the
// configured mode. The returned close function releases every cached
// handle and must run before the command exits.
func newSession() (*journal.Session, func(), error) {
	dev := device.Default()
	registry, err := volume.Discover(dev)
	if err != nil {
		return nil, nil, err
	}

	mode := journal.Unprivileged
	if cfg.Session.Privileged {
		mode = journal.Privileged
	}

	sess := journal.NewSession(dev, mode, registry,
		journal.WithMetrics(promjournal.NewJournalMetrics()))
	return sess, func() {
		if err := sess.Close(); err != nil {
			logger.Warn("closing session", "error", err)
		}
	}, nil
}

// parseSerial reads a hex volume serial argument, with or without an
// 0x prefix.
func parseSerial(arg string) (uint64, error) {
	s := arg
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s = s[2:]
	}
	serial, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a hex volume serial", arg)
	}
	return serial, nil
}
