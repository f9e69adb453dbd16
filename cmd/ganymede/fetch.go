package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"mercator-hq/ganymede/pkg/manager"

	"github.com/spf13/cobra"
)

var (
	fetchMethod  string
	fetchHeaders []string
	fetchData    string
	fetchTimeout time.Duration
)

var fetchCmd = &cobra.Command{
	Use:   "fetch URL",
	Short: "Fetch a URL through the proxy pool",
	Long: `Fetch a URL through the proxy pool and write the response body to
standard output. The request is dispatched to the fastest live proxy and
fails over automatically on tunnel errors and timeouts.`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringVarP(&fetchMethod, "method", "X", "", "HTTP method (default GET, or POST with a body)")
	fetchCmd.Flags().StringArrayVarP(&fetchHeaders, "header", "H", nil, "request header \"Name: value\" (repeatable)")
	fetchCmd.Flags().StringVarP(&fetchData, "data", "d", "", "request body")
	fetchCmd.Flags().DurationVar(&fetchTimeout, "timeout", 0, "per-attempt timeout override")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	descriptors, err := proxyDescriptors()
	if err != nil {
		return err
	}

	header := http.Header{}
	for _, raw := range fetchHeaders {
		name, value, found := strings.Cut(raw, ":")
		if !found {
			return fmt.Errorf("invalid header %q (want \"Name: value\")", raw)
		}
		header.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}

	m, err := manager.New(descriptors, cfg)
	if err != nil {
		return err
	}
	defer m.Stop()

	opts := &manager.RequestOptions{
		Method:  fetchMethod,
		Header:  header,
		Timeout: fetchTimeout,
	}
	if fetchData != "" {
		opts.Body = fetchData
	}

	resp, err := m.Request(cmd.Context(), args[0], opts)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "%s via %s\n", resp.Status, resp.Proxy)
	body, err := resp.Bytes()
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(body)
	return err
}
