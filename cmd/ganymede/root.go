package main

import (
	"fmt"
	"os"

	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/pool"
	"mercator-hq/ganymede/pkg/pool/source"
	"mercator-hq/ganymede/pkg/telemetry/logging"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile   string
	verbose   bool
	proxyArgs []string
)

var rootCmd = &cobra.Command{
	Use:   "ganymede",
	Short: "Ganymede - SOCKS proxy-pool connection manager",
	Long: `Ganymede maintains a pool of upstream SOCKS proxies, probes them on a
fixed interval, and dispatches HTTP requests through the fastest live
proxies with automatic retry and failover.

Proxies come from --proxy flags (host:port or host:port:user:pass), from
a proxy-list file named in the configuration, or both.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringArrayVar(&proxyArgs, "proxy", nil, "proxy descriptor host:port[:user:pass] (repeatable)")
}

// loadConfig reads the configuration file (or the defaults), applies the
// verbose flag, and installs the process logger.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if cfgFile != "" {
		loaded, err := config.LoadConfigWithEnvOverrides(cfgFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.DefaultConfig()
	}

	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	if err := logging.Setup(&cfg.Telemetry.Logging); err != nil {
		return nil, err
	}
	return cfg, nil
}

// proxyDescriptors parses the --proxy flags.
func proxyDescriptors() ([]pool.Descriptor, error) {
	out := make([]pool.Descriptor, 0, len(proxyArgs))
	for _, arg := range proxyArgs {
		desc, err := source.ParseDescriptor(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid --proxy %q: %w", arg, err)
		}
		out = append(out, desc)
	}
	return out, nil
}
