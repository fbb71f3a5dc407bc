package commands

import (
	"flow-metrics/internal/calculations"
	"flow-metrics/internal/config"
	"flow-metrics/internal/logging"
	"flow-metrics/internal/metrics"
	"flow-metrics/internal/store"
	"flow-metrics/internal/widget"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	opts    queryOptions
	cfg     *config.AppConfig

	provider store.Provider
)

var rootCmd = &cobra.Command{
	Use:   "flow-metrics",
	Short: "flow-metrics computes flow metrics dashboards from work item state",
	Long: `Computes throughput, lead time, WIP, service level and fitness criteria
figures for one organisation and prints them as JSON, optionally followed by Mermaid charts.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logging.Init(verbose); err != nil {
			return err
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}

		provider, err = store.Open(cfg.StateSource, cfg.SnapshotDir, cfg.Database)
		if err != nil {
			return err
		}

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Str("source", cfg.StateSource).
			Msg("flow-metrics starting")
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if provider != nil {
			if err := provider.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close state provider")
			}
		}
		if cfg != nil && cfg.MetricsFile != "" {
			if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
				log.Warn().Err(err).Str("path", cfg.MetricsFile).Msg("Failed to write metrics")
			}
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

// ExitCode maps an error to the process exit status: 2 for invalid input,
// 1 for everything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if calculations.IsInvalidInput(err) {
		return 2
	}
	return 1
}

// newRequest scopes a calculation request to the command line query.
func newRequest() (*calculations.Request, error) {
	filters, err := opts.filters(cfg.DefaultTimezone)
	if err != nil {
		return nil, err
	}
	svc := calculations.Services{
		State:           provider,
		Classifications: provider.Classifications,
		Widgets:         widget.NewCatalogue(),
	}
	return calculations.NewRequest(svc, opts.org, filters), nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&opts.org, "org", "", "organisation id (required)")
	rootCmd.PersistentFlags().StringVar(&opts.from, "from", "", "period start, YYYY-MM-DD (default: 12 weeks before --to)")
	rootCmd.PersistentFlags().StringVar(&opts.to, "to", "", "period end, YYYY-MM-DD (default: today)")
	rootCmd.PersistentFlags().StringVar(&opts.aggregation, "aggregation", "week", "bucket size: day, week, month, quarter or year")
	rootCmd.PersistentFlags().StringVar(&opts.timezone, "timezone", "", "IANA timezone of the query (default: DEFAULT_TIMEZONE)")
	rootCmd.PersistentFlags().StringSliceVar(&opts.types, "types", nil, "work item type ids or names to include")
	_ = rootCmd.MarkPersistentFlagRequired("org")

	rootCmd.AddCommand(throughputCmd, leadTimeCmd, wipCmd, serviceLevelCmd, fitnessCmd)
}
