package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTypesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "types",
		Short: "Manage relation types",
		Long: `Relation types are declared in the store so untyped link listings know
which simple links to return. Built-in types are declared by 'relgraph init';
custom types come from the config file or 'relgraph types add'.`,
	}

	cmd.AddCommand(
		newTypesListCmd(),
		newTypesSyncCmd(),
		newTypesAddCmd(),
		newTypesRemoveCmd(),
	)

	return cmd
}

func newTypesListCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List declared relation types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			ctx := cmd.Context()
			return withDeps(ctx, func(d *Deps) error {
				defs, err := d.TypeHandler.HandleList(ctx)
				if err != nil {
					return err
				}
				if len(defs) == 0 && format == formatTable {
					fmt.Println("No relation types declared. Run 'relgraph types sync'.")
					return nil
				}
				return writeRelationTypes(cmd.OutOrStdout(), defs, format)
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatTable, "Output format: table, json")

	return cmd
}

func newTypesSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Declare every built-in and configured relation type in the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withDeps(ctx, func(d *Deps) error {
				n, err := d.TypeHandler.HandleSync(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("Declared %d relation types.\n", n)
				return nil
			})
		},
	}
}

func newTypesAddCmd() *cobra.Command {
	var (
		inverse     string
		description string
		searchable  bool
	)

	cmd := &cobra.Command{
		Use:   "add <type>",
		Short: "Declare a custom relation type",
		Long: `Declares a relation type such as emf:mentors. With --inverse the inverse
type is declared too unless it already exists.

Examples:
  relgraph types add mentors --inverse mentoredBy -d "Entity guides another"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withDeps(ctx, func(d *Deps) error {
				if err := d.TypeHandler.HandleAdd(ctx, args[0], inverse, description, searchable); err != nil {
					return err
				}
				fmt.Printf("Added relation type: %s\n", args[0])
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&inverse, "inverse", "", "Inverse relation type")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Description")
	cmd.Flags().BoolVar(&searchable, "searchable", true, "Return simple links of this type from untyped listings")

	return cmd
}

func newTypesRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <type>",
		Short: "Remove a custom relation type declaration",
		Long:  "Existing links of the type are left untouched. Built-in types cannot be removed.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withDeps(ctx, func(d *Deps) error {
				if err := d.TypeHandler.HandleRemove(ctx, args[0]); err != nil {
					return err
				}
				fmt.Printf("Removed relation type: %s\n", args[0])
				return nil
			})
		},
	}
}
