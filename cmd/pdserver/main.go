// pdserver hosts the authoritative two-player prisoner's-dilemma duel
// server: matchmaking, private rooms, party lobbies, and tournaments
// over a WebSocket transport.
//
// Usage:
//
//	pdserver serve            - Start the game server
//	pdserver inspect <userID> - Print a user's persisted stats and recent history
//
// Global flags:
//
//	--config <path>  - Path to a server config YAML file
//	--db <path>      - Override the storage database path
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagConfigPath string
	flagDBPath     string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pdserver",
	Short: "Authoritative prisoner's-dilemma duel server",
	Long: `pdserver hosts real-time prisoner's-dilemma duels over WebSocket:
random matchmaking, private game codes, party lobbies, and
single/double-elimination and round-robin tournaments.

Available commands:
  serve    - Start the game server
  inspect  - Print a user's persisted stats and recent history

Examples:
  pdserver serve
  pdserver serve --config ./configs/server.yaml
  pdserver inspect alice`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "Path to a server config YAML file")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Override the storage database path")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(inspectCmd)
}
