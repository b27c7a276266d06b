package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ruedaya/storefront/internal/config"
	"github.com/ruedaya/storefront/internal/logger"
)

func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:   "ruedaya",
		Short: "RuedaYa storefront edge",
		Long: `ruedaya sits in front of the RuedaYa page renderer. It resolves every
request to the main marketplace or a dealer storefront, rewrites dealer
requests under the dealer namespace and serves the sign-in and dealer API.

Configuration:
  Defaults are overridden by ruedaya.yaml (or --config), then by RUEDAYA_*
  environment variables. Example: RUEDAYA_ROOT_DOMAIN=staging.ruedaya.com`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultConfigFile, "YAML config file")

	load := func() (*config.Config, error) {
		return config.LoadFrom(cfgFile)
	}

	root.AddCommand(
		newServeCmd(load),
		newResolveCmd(load),
		newSessionCmd(load),
		newVersionCmd(),
	)
	return root
}

type configLoader func() (*config.Config, error)

// setupLogging installs the configured JSON logger as the slog default.
func setupLogging(cfg config.Logging) logger.Closer {
	l, closer := logger.New(cfg)
	slog.SetDefault(l)
	return closer
}
