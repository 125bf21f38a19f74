package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/blockberries/quadgov/app"
	"github.com/blockberries/quadgov/config"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write default config.yaml and genesis.yaml to the home directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			home, err := cmd.Flags().GetString("home")
			if err != nil {
				return err
			}
			return runInit(cmd, home, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")

	return cmd
}

func runInit(cmd *cobra.Command, home string, force bool) error {
	cfgPath, err := config.Default(home).Write(force)
	if err != nil {
		return err
	}

	genesis, err := app.DefaultGenesisState().Marshal()
	if err != nil {
		return fmt.Errorf("failed to encode genesis: %w", err)
	}
	genesisPath := filepath.Join(home, config.GenesisFileName)
	if err := config.WriteFile(genesisPath, genesis, force); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Wrote %s\n", cfgPath)
	fmt.Fprintf(out, "Wrote %s\n", genesisPath)
	return nil
}
