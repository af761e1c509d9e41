package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bmkit/battlemetrics-client/pkg/client"
)

var banCmd = &cobra.Command{
	Use:   "ban",
	Short: "Inspect bans",
}

var banListCmd = &cobra.Command{
	Use:   "list",
	Short: "List bans visible to the token",
	Example: `  bmcli ban list --org 9876 --max 20
  bmcli ban list --server 12345 --output json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		bm, err := newClient(cmd)
		if err != nil {
			return err
		}
		defer bm.Close()

		filter := &client.BanFilter{}
		filter.OrganizationID, _ = cmd.Flags().GetString("org")
		filter.ServerID, _ = cmd.Flags().GetString("server")
		filter.BanListID, _ = cmd.Flags().GetString("ban-list")

		max, _ := cmd.Flags().GetInt("max")
		if max > 0 && max <= 100 {
			filter.PageSize = max
		}

		bans, err := collect(cmd.Context(), bm.ListBans(filter), max)
		if err != nil {
			return fmt.Errorf("list bans: %w", err)
		}

		if outputFormat(cmd) == "json" {
			return printJSON(cmd.OutOrStdout(), bans)
		}

		w := newTable(cmd.OutOrStdout())
		fmt.Fprintln(w, "ID\tPLAYER\tREASON\tEXPIRES")
		for _, b := range bans {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				b.ID, b.PlayerID, b.Reason, formatExpiry(b.Expires))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(banCmd)
	banCmd.AddCommand(banListCmd)

	banListCmd.Flags().String("org", "", "filter by organization id")
	banListCmd.Flags().String("server", "", "filter by server id")
	banListCmd.Flags().String("ban-list", "", "filter by ban list id")
	banListCmd.Flags().Int("max", 25, "maximum bans to list (0 for all)")
}
