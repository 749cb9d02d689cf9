package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRelationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relation",
		Short: "Inspect and edit complex relation records",
	}

	cmd.AddCommand(
		newRelationShowCmd(),
		newRelationUpdateCmd(),
		newRelationDeleteCmd(),
	)

	return cmd
}

func newRelationShowCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show <relation-id>",
		Short: "Show a relation record with its properties",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			ctx := cmd.Context()
			return withDeps(ctx, func(d *Deps) error {
				rel, err := d.LinkHandler.HandleShow(ctx, args[0])
				if err != nil {
					return err
				}
				if rel == nil {
					return fmt.Errorf("relation %s not found", args[0])
				}
				return writeRelation(cmd.OutOrStdout(), rel, format)
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatTable, "Output format: table, json")

	return cmd
}

func newRelationUpdateCmd() *cobra.Command {
	var props []string

	cmd := &cobra.Command{
		Use:   "update <relation-id>",
		Short: "Overwrite properties of a relation record",
		Long: `Examples:
  relgraph relation update emf:1b4e28ba-2fa1-11d2-883f-0016d3cca427 -p status=approved -p weight=2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withDeps(ctx, func(d *Deps) error {
				ok, err := d.LinkHandler.HandleUpdate(ctx, args[0], props)
				if err != nil {
					return fmt.Errorf("updating relation: %w", err)
				}
				if !ok {
					return fmt.Errorf("relation %s not found", args[0])
				}
				fmt.Printf("Updated relation: %s\n", args[0])
				return nil
			})
		},
	}

	cmd.Flags().StringArrayVarP(&props, "prop", "p", nil, "Property as key=value (repeatable)")

	return cmd
}

func newRelationDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <relation-id>",
		Short: "Deactivate a relation record and its inverse",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withDeps(ctx, func(d *Deps) error {
				ok, err := d.LinkHandler.HandleDelete(ctx, args[0])
				if err != nil {
					return fmt.Errorf("deleting relation: %w", err)
				}
				if !ok {
					fmt.Printf("Relation %s is not active.\n", args[0])
					return nil
				}
				fmt.Printf("Deactivated relation: %s\n", args[0])
				return nil
			})
		},
	}
}
