package main

import (
	"github.com/spf13/cobra"
	"github.com/vizee/gfeign/config"
	"github.com/vizee/gfeign/log"
)

type rootOptions struct {
	configFile string
	baseURL    string
	logLevel   string
	cfg        *config.Config
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:   "gfeign",
		Short: "Resolve and send requests described by declarative contracts",
		Long: `gfeign reads a YAML contract, binds command line arguments to one of its
methods and prints the resulting request, or sends it and prints the response.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file (default ./gfeign.yaml)")
	flags.StringVar(&opts.baseURL, "base-url", "", "base URL of the target, overrides the config file")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")

	rootCmd.AddCommand(newResolveCommand(opts))
	rootCmd.AddCommand(newCallCommand(opts))
	return rootCmd
}

func (o *rootOptions) load() error {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return err
	}
	if o.baseURL != "" {
		cfg.BaseURL = o.baseURL
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	logger, err := log.BuildZap(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	log.SetLogger(log.NewZap(logger))
	o.cfg = cfg
	return nil
}
