package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bmkit/battlemetrics-client/pkg/client"
)

var playerCmd = &cobra.Command{
	Use:   "player",
	Short: "Search tracked players",
}

var playerSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search players by name",
	Example: `  bmcli player search shroud --max 10
  bmcli player search --server 12345 --online
  bmcli player search smith --output json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bm, err := newClient(cmd)
		if err != nil {
			return err
		}
		defer bm.Close()

		filter := &client.PlayerFilter{}
		if len(args) > 0 {
			filter.Search = args[0]
		}
		filter.ServerIDs, _ = cmd.Flags().GetStringSlice("server")
		filter.Online, _ = cmd.Flags().GetBool("online")

		max, _ := cmd.Flags().GetInt("max")
		if max > 0 && max <= 100 {
			filter.PageSize = max
		}

		players, err := collect(cmd.Context(), bm.ListPlayers(filter), max)
		if err != nil {
			return fmt.Errorf("search players: %w", err)
		}

		if outputFormat(cmd) == "json" {
			return printJSON(cmd.OutOrStdout(), players)
		}

		w := newTable(cmd.OutOrStdout())
		fmt.Fprintln(w, "ID\tNAME\tLAST SEEN")
		for _, p := range players {
			fmt.Fprintf(w, "%s\t%s\t%s\n",
				p.ID, p.Name, p.UpdatedAt.UTC().Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(playerCmd)
	playerCmd.AddCommand(playerSearchCmd)

	playerSearchCmd.Flags().StringSlice("server", nil, "restrict to players seen on these server ids")
	playerSearchCmd.Flags().Bool("online", false, "only players currently online")
	playerSearchCmd.Flags().Int("max", 25, "maximum players to list (0 for all)")
}
