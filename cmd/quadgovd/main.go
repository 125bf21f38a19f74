// Package main provides the quadgovd binary: a quadratic-voting
// governance application served over gRPC to a block engine, plus
// read-only tooling for querying and dry-running calls.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blockberries/quadgov/config"
)

const appName = "quadgovd"

// Version is overridden at build time.
var Version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   appName,
		Short: "Quadratic-voting governance application",
		Long: `quadgovd runs the quadratic-voting governance state machine behind a
block engine. Proposals, votes and parameter changes arrive as calls in
finalized blocks; block height is the clock every call observes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("home", config.DefaultHome(), "Directory holding config.yaml, genesis.yaml and .env")
	cmd.PersistentFlags().String("log-level", config.DefaultLogLevel, "Log level (debug, info, warn, error)")

	cmd.AddGroup(&cobra.Group{ID: "node", Title: "Node Commands"})
	cmd.AddGroup(&cobra.Group{ID: "client", Title: "Client Commands"})

	initCmd := newInitCmd()
	initCmd.GroupID = "node"
	startCmd := newStartCmd()
	startCmd.GroupID = "node"
	queryCmd := newQueryCmd()
	queryCmd.GroupID = "client"
	simulateCmd := newSimulateCmd()
	simulateCmd.GroupID = "client"

	cmd.AddCommand(initCmd, startCmd, queryCmd, simulateCmd, &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
		},
	})

	return cmd
}

// loadConfig resolves the config for cmd: .env first, then
// config.yaml, QUADGOV_* variables and flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	home, err := cmd.Flags().GetString("home")
	if err != nil {
		return config.Config{}, err
	}
	if err := config.LoadDotEnv(home); err != nil {
		return config.Config{}, err
	}
	v, err := config.SetupViper(home, cmd)
	if err != nil {
		return config.Config{}, err
	}
	return config.Load(v)
}
