package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/napi-host/config"
)

type app struct {
	cfgFile string
	verbose bool
	cfg     *config.Config
	logger  *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "napihost",
		Short: "Native addon host",
		Long: `napihost resolves, loads and instantiates native addons the way a
script engine would, and lets you inspect the exports they register.

Configuration is read from napihost.yaml in the working directory, or the
file named by --config, and NAPIHOST_* environment variables.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = a.logger.Sync()
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./napihost.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newResolveCmd(a),
		newLibnameCmd(a),
		newRequireCmd(a),
		newVersionCmd(),
	)
	return root
}

// init loads configuration and installs the logger.
func (a *app) init() error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Log, a.verbose)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	installLoggers(logger)
	logger.Debug("configuration loaded",
		zap.String("addons_dir", cfg.Addons.Dir),
		zap.String("format", cfg.Addons.Format),
		zap.Int64("workers", cfg.Async.Workers))
	return nil
}
