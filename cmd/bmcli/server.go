package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bmkit/battlemetrics-client/pkg/client"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Inspect and search game servers",
}

var serverInfoCmd = &cobra.Command{
	Use:   "info <id>",
	Short: "Show one game server",
	Example: `  bmcli server info 12345
  bmcli server info 12345 --include game,organization --output json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bm, err := newClient(cmd)
		if err != nil {
			return err
		}
		defer bm.Close()

		include, _ := cmd.Flags().GetStringSlice("include")
		server, err := bm.GetServer(cmd.Context(), args[0], include...)
		if err != nil {
			return fmt.Errorf("get server: %w", err)
		}

		if outputFormat(cmd) == "json" {
			return printJSON(cmd.OutOrStdout(), server)
		}

		w := newTable(cmd.OutOrStdout())
		fmt.Fprintf(w, "ID:\t%s\n", server.ID)
		fmt.Fprintf(w, "Name:\t%s\n", server.Name)
		fmt.Fprintf(w, "Game:\t%s\n", server.GameID)
		fmt.Fprintf(w, "Status:\t%s\n", server.Status)
		fmt.Fprintf(w, "Players:\t%d/%d\n", server.Players, server.MaxPlayers)
		fmt.Fprintf(w, "Address:\t%s:%d\n", server.IP, server.Port)
		fmt.Fprintf(w, "Country:\t%s\n", server.Country)
		if server.Rank != nil {
			fmt.Fprintf(w, "Rank:\t%d\n", *server.Rank)
		}
		return w.Flush()
	},
}

var serverSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search game servers",
	Example: `  bmcli server search rust --game rust --max 10
  bmcli server search --country DE --country AT --status online
  bmcli server search "vanilla" --output json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bm, err := newClient(cmd)
		if err != nil {
			return err
		}
		defer bm.Close()

		filter := &client.ServerFilter{}
		if len(args) > 0 {
			filter.Search = args[0]
		}
		filter.Game, _ = cmd.Flags().GetString("game")
		filter.Countries, _ = cmd.Flags().GetStringSlice("country")
		filter.Status, _ = cmd.Flags().GetString("status")
		filter.RCONOnly, _ = cmd.Flags().GetBool("rcon")

		max, _ := cmd.Flags().GetInt("max")
		if max > 0 && max <= 100 {
			filter.PageSize = max
		}

		servers, err := collect(cmd.Context(), bm.ListServers(filter), max)
		if err != nil {
			return fmt.Errorf("search servers: %w", err)
		}

		if outputFormat(cmd) == "json" {
			return printJSON(cmd.OutOrStdout(), servers)
		}

		w := newTable(cmd.OutOrStdout())
		fmt.Fprintln(w, "ID\tNAME\tPLAYERS\tSTATUS\tCOUNTRY")
		for _, s := range servers {
			fmt.Fprintf(w, "%s\t%s\t%d/%d\t%s\t%s\n",
				s.ID, s.Name, s.Players, s.MaxPlayers, s.Status, s.Country)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.AddCommand(serverInfoCmd)
	serverCmd.AddCommand(serverSearchCmd)

	serverInfoCmd.Flags().StringSlice("include", nil, "related resources to include (game, organization)")

	serverSearchCmd.Flags().String("game", "", "filter by game id (e.g. rust, ark)")
	serverSearchCmd.Flags().StringSlice("country", nil, "filter by country code, repeatable")
	serverSearchCmd.Flags().String("status", "", "filter by status (online, offline, dead)")
	serverSearchCmd.Flags().Bool("rcon", false, "only servers with active RCON")
	serverSearchCmd.Flags().Int("max", 25, "maximum servers to list (0 for all)")
}
