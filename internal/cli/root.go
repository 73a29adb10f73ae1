// Package cli implements the postsview command line.
package cli

import (
	"github.com/jensneuse/abstractlogger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/chongma/gql-subscriptions-client/pkg/config"
)

// RootOptions holds the settings shared by all sub-commands. Config and Logger
// are populated before a sub-command runs.
type RootOptions struct {
	ConfigFile string

	Viper  *viper.Viper
	Config config.Config
	Logger abstractlogger.Logger

	zapLogger *zap.Logger
}

// NewRootCommand creates the postsview command with its sub-commands.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{
		Viper:  config.New(),
		Logger: abstractlogger.Noop{},
	}

	cmd := &cobra.Command{
		Use:   "postsview",
		Short: "Live view of a GraphQL posts API",
		Long: `postsview fetches posts over HTTP, keeps them live through
GraphQL subscriptions over a websocket and serves the resulting page.

Settings come from flags, POSTSVIEW_ environment variables and
$HOME/.postsview.yaml, in that order.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			opts.sync()
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (default $HOME/"+config.DefaultConfigFile+")")
	cobra.CheckErr(config.BindFlags(opts.Viper, cmd.PersistentFlags()))

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewUpdateCommand(opts))

	return cmd
}

func (o *RootOptions) load() error {
	cfg, err := config.Load(o.Viper, o.ConfigFile)
	if err != nil {
		return err
	}

	zapLogger, logger, err := buildLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	o.Config = cfg
	o.Logger = logger
	o.zapLogger = zapLogger

	if cfg.GeneratedToken {
		logger.Info("cli.RootOptions.load: no auth token configured, using a generated demo token")
	}
	return nil
}

func (o *RootOptions) sync() {
	if o.zapLogger != nil {
		// stderr may not support fsync
		_ = o.zapLogger.Sync()
	}
}
