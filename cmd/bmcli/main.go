// Command bmcli queries the BattleMetrics API from the terminal.
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
