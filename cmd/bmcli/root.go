package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/bmkit/battlemetrics-client/pkg/client"
	"github.com/bmkit/battlemetrics-client/pkg/logging"
	"github.com/bmkit/battlemetrics-client/pkg/pagination"
)

var rootCmd = &cobra.Command{
	Use:   "bmcli",
	Short: "BattleMetrics command line client",
	Long: `bmcli queries the BattleMetrics API from the terminal.

Look up game servers, search players, and inspect bans. The API token is
read from --token or the BATTLEMETRICS_TOKEN environment variable.`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logCfg := logging.DefaultConfig()
		logCfg.Level = logging.LevelWarn
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			logCfg.Level = logging.LevelDebug
		}
		logging.Setup(logCfg)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("token", "", "API token (default: $BATTLEMETRICS_TOKEN)")
	rootCmd.PersistentFlags().String("base-url", client.DefaultBaseURL, "API base URL")
	rootCmd.PersistentFlags().String("output", "table", "output format: table, json")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
}

// newClient builds an API client from the persistent flags.
func newClient(cmd *cobra.Command) (*client.Client, error) {
	token, _ := cmd.Flags().GetString("token")
	baseURL, _ := cmd.Flags().GetString("base-url")

	cfg := client.DefaultConfig(token)
	cfg.BaseURL = baseURL
	cfg.UserAgent = "bmcli/1.0"
	return client.New(cfg)
}

func outputFormat(cmd *cobra.Command) string {
	format, _ := cmd.Flags().GetString("output")
	return format
}

// collect drains up to max items from a pager. max <= 0 drains everything.
func collect[T any](ctx context.Context, pager *pagination.Pager[T], max int) ([]T, error) {
	var items []T
	for pager.HasNext() {
		if max > 0 && len(items) >= max {
			break
		}
		item, err := pager.Next(ctx)
		if errors.Is(err, pagination.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
