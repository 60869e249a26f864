package cli

import (
	"github.com/spf13/cobra"

	"github.com/yairfalse/journal-forwarder/pkg/config"
	"github.com/yairfalse/journal-forwarder/pkg/version"
)

// options holds the parsed command line
type options struct {
	configFile  string
	verbose     int
	quiet       bool
	validate    bool
	once        bool
	metricsAddr string
	logFormat   string
}

// NewRootCommand builds the journal-forwarder command tree
func NewRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   version.Name,
		Short: "Pull-based journal log forwarder for systemd-journal-gatewayd",
		Long: `journal-forwarder polls remote systemd-journal-gatewayd endpoints and
forwards their entries to an OTLP/HTTP log collector.

The last forwarded cursor of every source is checkpointed on disk and only
advanced after the collector accepted the batch, so a crash or a failed
export re-delivers entries instead of losing them.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configFile, "config", "c", config.DefaultConfigPath, "config file path (yaml or toml)")
	flags.CountVarP(&opts.verbose, "verbose", "v", "increase log verbosity (-v info, -vv debug, -vvv development)")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "suppress all output except errors")
	flags.BoolVar(&opts.validate, "validate", false, "validate config and exit")
	flags.BoolVar(&opts.once, "once", false, "run one collection cycle per source and exit")
	flags.StringVar(&opts.metricsAddr, "metrics", "", "enable the Prometheus metrics endpoint on `ADDR`, e.g. :9090")
	flags.StringVar(&opts.logFormat, "log-format", "console", "log encoding: console or json")

	cmd.AddCommand(newVersionCommand())
	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCommand().Execute()
}
