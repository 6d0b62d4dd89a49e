package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/duellab/pdserver/internal/config"
	"github.com/duellab/pdserver/internal/persistence"
)

const inspectHistoryLimit = 10

var inspectCmd = &cobra.Command{
	Use:   "inspect <userID>",
	Short: "Print a user's persisted stats and recent match history",
	Long: `Open the configured storage database and print the given user's
aggregate stats and their most recent completed matches.

Examples:
  pdserver inspect alice
  pdserver inspect alice --db ./duel.db`,
	Args: cobra.ExactArgs(1),
	Run:  runInspect,
}

func runInspect(_ *cobra.Command, args []string) {
	userID := args[0]

	cfg, err := config.Load(flagConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	dbPath := cfg.Storage.SQLitePath
	if flagDBPath != "" {
		dbPath = flagDBPath
	}

	store, err := persistence.OpenSQLiteStore(config.ExpandHome(dbPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()

	stats, err := store.UserStats().Get(ctx, userID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error retrieving stats: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Stats - %s\n\n", userID)
	fmt.Printf("  Games played:     %d\n", stats.TotalGames)
	fmt.Printf("  Wins / Losses:    %d / %d\n", stats.Wins, stats.Losses)
	fmt.Printf("  Win rate:         %.1f%%\n", stats.WinRate*100)
	fmt.Printf("  Trust score:      %.2f\n", stats.TrustScore)
	fmt.Printf("  Betrayal rate:    %.1f%%\n", stats.BetrayalRate*100)
	fmt.Printf("  Current streak:   %d\n", stats.CurrentWinStreak)
	fmt.Printf("  Longest streak:   %d\n", stats.LongestWinStreak)
	fmt.Printf("  Games this week:  %d\n", stats.GamesThisWeek)
	fmt.Printf("  Games this month: %d\n", stats.GamesThisMonth)

	history, err := store.GameHistory().ByUser(ctx, userID, inspectHistoryLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error retrieving history: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nRecent matches (most recent first)\n\n")
	if len(history) == 0 {
		fmt.Println("  No matches recorded yet.")
		return
	}

	fmt.Printf("  %-20s  %-6s  %-6s  %-8s  %s\n", "Opponent", "You", "Them", "Mode", "Date")
	for _, rec := range history {
		opponent, yourScore, theirScore := rec.Player2ID, rec.Player1Score, rec.Player2Score
		if rec.Player1ID != userID {
			opponent, yourScore, theirScore = rec.Player1ID, rec.Player2Score, rec.Player1Score
		}
		fmt.Printf("  %-20s  %-6d  %-6d  %-8s  %s\n",
			opponent, yourScore, theirScore, rec.GameMode, rec.CreatedAt.Format("2006-01-02 15:04"))
	}
}
