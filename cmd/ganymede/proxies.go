package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"mercator-hq/ganymede/pkg/manager"

	"github.com/spf13/cobra"
)

var proxiesCmd = &cobra.Command{
	Use:   "proxies",
	Short: "List the live proxies with their latencies",
	Long: `Probe every configured proxy once and print the live set sorted by
latency. Proxies that fail the probe are listed as dead.`,
	RunE: runProxies,
}

func init() {
	rootCmd.AddCommand(proxiesCmd)
}

func runProxies(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	descriptors, err := proxyDescriptors()
	if err != nil {
		return err
	}

	m, err := manager.New(descriptors, cfg)
	if err != nil {
		return err
	}
	defer m.Stop()

	live, err := m.LiveProxies(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "HOST\tPORT\tLATENCY\tDISPATCHES\tFAILED")
	for _, p := range live {
		fmt.Fprintf(w, "%s\t%d\t%dms\t%d\t%d\n",
			p.Host, p.Port, p.LatencyMs, p.Dispatches, p.FailedDispatches)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "%d live\n", len(live))
	return nil
}
