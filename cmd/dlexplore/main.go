package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/johannst/fun-with-elf/dynlink"
)

var cfg struct {
	pid         int
	configFile  string
	logLevel    string
	metricsFile string
	skipMissing bool

	file     config
	logger   log.Logger
	registry *prometheus.Registry
	metrics  *dynlink.Metrics
}

var rootCmd = &cobra.Command{
	Use:   "dlexplore",
	Short: "Explore the modules the dynamic linker loaded into a process",
	Long: `dlexplore walks the dynamic linker's module chain of a running process and
answers symbol queries with the linker's own SysV hash table lookup.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if cfg.metricsFile == "" {
			return nil
		}
		return prometheus.WriteToTextfile(cfg.metricsFile, cfg.registry)
	},
}

func main() {
	rootCmd.PersistentFlags().IntVar(&cfg.pid, "pid", os.Getpid(), "process to inspect")
	rootCmd.PersistentFlags().StringVar(&cfg.configFile, "config", "", "TOML configuration file")
	rootCmd.PersistentFlags().StringVar(&cfg.logLevel, "log-level", "info", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&cfg.metricsFile, "metrics-file", "", "write metrics in textfile collector format to this file")
	rootCmd.PersistentFlags().BoolVar(&cfg.skipMissing, "skip-missing", false, "skip modules without a DT_HASH table instead of failing")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(hasCmd)
	rootCmd.AddCommand(dumpCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("Error:"), err)
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(os.Stderr, cfg.logLevel)
	if err != nil {
		return err
	}
	cfg.logger = logger

	cfg.file, err = loadConfig(cfg.configFile)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("skip-missing") {
		cfg.file.Inspect.SkipMissing = cfg.skipMissing
	}

	cfg.registry = prometheus.NewRegistry()
	cfg.metrics = dynlink.NewMetrics(cfg.registry)
	return nil
}

func newLogger(w io.Writer, lvl string) (log.Logger, error) {
	var filter level.Option
	switch lvl {
	case "debug":
		filter = level.AllowDebug()
	case "info":
		filter = level.AllowInfo()
	case "warn":
		filter = level.AllowWarn()
	case "error":
		filter = level.AllowError()
	default:
		return nil, fmt.Errorf("unknown log level %q", lvl)
	}
	logger := log.NewLogfmtLogger(log.NewSyncWriter(w))
	logger = level.NewFilter(logger, filter)
	return log.With(logger, "ts", log.DefaultTimestampUTC), nil
}
