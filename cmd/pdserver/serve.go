package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/duellab/pdserver/internal/config"
	"github.com/duellab/pdserver/internal/gameserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the duel server",
	Long: `Start the WebSocket game server plus, if enabled, the read-only
admin SSH console.

Config is loaded from (in order): --config path, ~/.pdserver/config.yaml,
./configs/server.yaml, or an embedded default.

Examples:
  pdserver serve
  pdserver serve --config ./configs/server.yaml
  pdserver serve --db ./duel.db`,
	Run: runServe,
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, err := config.Load(flagConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if flagDBPath != "" {
		cfg.Storage.SQLitePath = flagDBPath
	}

	srv, err := gameserver.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating server: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Starting duel server on %s\n", cfg.Listen.Address)
	if cfg.Admin.Enabled {
		fmt.Printf("Admin console on %s (ssh localhost -p ...)\n", cfg.Admin.Address)
	}
	fmt.Println("Press Ctrl+C to stop")

	if err := srv.ListenAndServe(); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
