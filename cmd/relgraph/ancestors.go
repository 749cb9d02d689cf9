package main

import (
	"github.com/spf13/cobra"
)

func newAncestorsCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "ancestors <entity>",
		Short: "Show the ancestor chain of an entity",
		Long: `Follows emf:hasParent links upwards and prints the ancestors, nearest
first. Version snapshots (ids ending in -v<major>.<minor>) are always top-level.

Examples:
  relgraph ancestors emf:doc1
  relgraph ancestors emf:doc1@emf:Document --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			ctx := cmd.Context()
			return withDeps(ctx, func(d *Deps) error {
				result, err := d.HierarchyHandler.HandleAncestors(ctx, args[0])
				if err != nil {
					return err
				}
				return writeAncestors(cmd.OutOrStdout(), result, format)
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatTable, "Output format: table, json")

	return cmd
}
