// Package cli implements the sensor command-line client for the dashboard API.
package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// analyticsEndpoints maps snapshot keys to API paths.
var analyticsEndpoints = map[string]string{
	"latest":       "/latest",
	"co_trend":     "/co_trend",
	"avg_metrics":  "/avg_metrics",
	"max_metrics":  "/max_metrics",
	"alert_counts": "/alert_counts",
	"humidity_co":  "/humidity_co",
	"temp_dist":    "/temp_dist",
}

// NewRootCmd builds the sensor command tree.
func NewRootCmd() *cobra.Command {
	var (
		host    string
		timeout time.Duration
	)

	rootCmd := &cobra.Command{
		Use:           "sensor",
		Short:         "Telemetry dashboard API client",
		Long:          "Command-line client for the sensor telemetry dashboard API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			// Precedence: flag > env > default.
			if !cmd.Flags().Changed("host") {
				if v := os.Getenv("SENSOR_HOST"); v != "" {
					host = v
				}
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&host, "host", "http://localhost:8080", "API host")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 45*time.Second, "request timeout")

	client := func() *Client { return NewClient(host, timeout) }

	fetch := func(use, short, path string) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				data, err := client().Get(cmd.Context(), path)
				if err != nil {
					return err
				}
				return printJSON(cmd, data)
			},
		}
	}

	rootCmd.AddCommand(
		fetch("latest", "Latest readings per device", "/latest"),
		fetch("trend", "Synthetic CO trend series", "/co_trend"),
		fetch("avg", "Per-device average metrics", "/avg_metrics"),
		fetch("max", "Per-device maximum metrics", "/max_metrics"),
		fetch("alerts", "Per-device CO alert counts", "/alert_counts"),
		fetch("humidity", "Humidity vs CO correlation", "/humidity_co"),
		fetch("tempdist", "Temperature distribution", "/temp_dist"),
		newAckCmd(client),
		newResetCmd(client),
		newSnapshotCmd(client),
	)
	return rootCmd
}

func newAckCmd(client func() *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "ack <alert-key>",
		Short: "Acknowledge one alert key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := client().Post(cmd.Context(), "/acknowledge_alert",
				map[string]string{"alert_key": args[0]})
			if err != nil {
				return err
			}
			return printJSON(cmd, data)
		},
	}
}

func newResetCmd(client func() *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear all acknowledged alerts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := client().Post(cmd.Context(), "/reset_alerts", nil)
			if err != nil {
				return err
			}
			return printJSON(cmd, data)
		},
	}
}

func newSnapshotCmd(client func() *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Fetch every analytics endpoint in parallel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := client()

			var mu sync.Mutex
			results := make(map[string]json.RawMessage, len(analyticsEndpoints))

			g, ctx := errgroup.WithContext(cmd.Context())
			for name, path := range analyticsEndpoints {
				g.Go(func() error {
					data, err := c.Get(ctx, path)
					if err != nil {
						return fmt.Errorf("%s: %w", name, err)
					}
					mu.Lock()
					results[name] = data
					mu.Unlock()
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			// Stable key order for scripted consumers.
			keys := make([]string, 0, len(results))
			for k := range results {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			doc := make(map[string]json.RawMessage, len(results))
			for _, k := range keys {
				doc[k] = results[k]
			}
			out, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

func printJSON(cmd *cobra.Command, data json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		// Not valid JSON — print as-is.
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil //nolint:nilerr // raw passthrough is the fallback
	}
	fmt.Fprintln(cmd.OutOrStdout(), buf.String())
	return nil
}
