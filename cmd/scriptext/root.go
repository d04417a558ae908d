package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/script-extensions/config"
	"github.com/wippyai/script-extensions/gojahost"
	"github.com/wippyai/script-extensions/loader"
	"github.com/wippyai/script-extensions/wasmhost"
)

// rootOptions holds global flags and the configuration they select.
type rootOptions struct {
	cfg        *config.Config
	log        *zap.Logger
	configPath string
	logLevel   string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "scriptext",
		Short:         "Run scripts with host extensions",
		Long:          "Run JavaScript and WebAssembly guests against registered extension modules and globals.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if opts.log != nil {
				_ = opts.log.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (.yaml, .yml or .toml)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level override (debug|info|warn|error)")

	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newReplCommand(opts))
	cmd.AddCommand(newModulesCommand(opts))
	cmd.AddCommand(newWasmCommand(opts))

	return cmd
}

func (o *rootOptions) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}

	log, err := cfg.NewLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	loader.SetLogger(log.Named("loader"))
	gojahost.SetLogger(log.Named("gojahost"))
	wasmhost.SetLogger(log.Named("wasmhost"))

	o.cfg = cfg
	o.log = log
	return nil
}
