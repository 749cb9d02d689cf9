package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ersonp/relgraph/internal/application/handlers"
)

func newInitCmd() *cobra.Command {
	var skipStore bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize relgraph in the current directory",
		Long: `Writes .relgraph/config.yaml with default settings, creates the triple
table and declares the built-in relation types.

Edit the config to switch to PostgreSQL or enable NATS link events.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("getting current directory: %w", err)
			}

			var bootstrap handlers.Bootstrapper
			if !skipStore {
				bootstrap = bootstrapStore
			}

			result, err := handlers.NewInitHandler(bootstrap).Handle(cmd.Context(), cwd)
			if err != nil {
				return err
			}

			fmt.Printf("Initialized relgraph in %s\n", result.ConfigPath)
			fmt.Printf("  driver: %s\n", result.Driver)
			fmt.Printf("  graph:  %s\n", result.Graph)
			if !skipStore {
				fmt.Printf("  relation types declared: %d\n", result.RelationTypes)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipStore, "config-only", false, "Only write the config file")

	return cmd
}
