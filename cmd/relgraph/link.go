package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/relgraph/internal/application/handlers"
)

type linkFlags struct {
	reverse   string
	simple    bool
	createdBy string
	props     []string
}

func newLinkCmd() *cobra.Command {
	var flags linkFlags

	cmd := &cobra.Command{
		Use:   "link <from> <type> <to>",
		Short: "Link two entities",
		Long: `Creates a typed link from one entity to another. Entities are given as
"id" or "id@type"; bare identifiers take the emf: prefix.

A complex link is a record with an identifier and properties. When the type
declares an inverse (or --reverse is given) the reverse link is created too.
A simple link is a bare triple without properties.

Examples:
  relgraph link emf:doc1@emf:Document references emf:doc2@emf:Document
  relgraph link emf:doc1 dependsOn emf:lib1 --created-by emf:admin --prop weight=3
  relgraph link emf:doc1 hasAttachment emf:img1 --simple`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLink(cmd, args, flags)
		},
	}

	cmd.Flags().StringVar(&flags.reverse, "reverse", "", "Reverse relation type (default: declared inverse)")
	cmd.Flags().BoolVar(&flags.simple, "simple", false, "Create a simple link")
	cmd.Flags().StringVar(&flags.createdBy, "created-by", "", "User creating the link")
	cmd.Flags().StringArrayVarP(&flags.props, "prop", "p", nil, "Link property as key=value (repeatable)")

	return cmd
}

func runLink(cmd *cobra.Command, args []string, flags linkFlags) error {
	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		result, err := d.LinkHandler.HandleLink(ctx, handlers.LinkRequest{
			From:       args[0],
			Type:       args[1],
			To:         args[2],
			Reverse:    flags.reverse,
			Simple:     flags.simple,
			CreatedBy:  flags.createdBy,
			Properties: flags.props,
		})
		if err != nil {
			return fmt.Errorf("creating link: %w", err)
		}

		switch {
		case !result.Created:
			fmt.Println("Nothing linked.")
		case flags.simple:
			fmt.Printf("Linked %s -[%s]-> %s (simple)\n", args[0], args[1], args[2])
		default:
			fmt.Printf("Created link: %s\n", result.MainID)
			fmt.Printf("  %s -[%s]-> %s\n", args[0], args[1], args[2])
			if result.ReverseID != "" {
				fmt.Printf("  reverse: %s\n", result.ReverseID)
			}
		}
		return nil
	})
}

func newUnlinkCmd() *cobra.Command {
	var (
		types  []string
		simple bool
		all    bool
	)

	cmd := &cobra.Command{
		Use:   "unlink <from> [to]",
		Short: "Remove links between entities",
		Long: `Deactivates complex links (they stay in the store as history) or deletes
simple links.

Examples:
  relgraph unlink emf:doc1 emf:doc2
  relgraph unlink emf:doc1 emf:doc2 --type references
  relgraph unlink emf:doc1 emf:img1 --type hasAttachment --simple
  relgraph unlink emf:doc1 --all`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if all != (len(args) == 1) {
				return fmt.Errorf("give either <from> <to> or <entity> --all")
			}

			return withDeps(ctx, func(d *Deps) error {
				var (
					removed bool
					err     error
				)
				if all {
					removed, err = d.LinkHandler.HandleUnlinkAll(ctx, args[0], types)
				} else {
					removed, err = d.LinkHandler.HandleUnlink(ctx, args[0], args[1], types, simple)
				}
				if err != nil {
					return fmt.Errorf("removing links: %w", err)
				}
				if removed {
					fmt.Println("Links removed.")
				} else {
					fmt.Println("No matching links.")
				}
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&types, "type", "t", nil, "Relation types to remove (repeatable)")
	cmd.Flags().BoolVar(&simple, "simple", false, "Remove a simple link")
	cmd.Flags().BoolVar(&all, "all", false, "Remove every link of the entity in both directions")

	return cmd
}

type linksFlags struct {
	types    []string
	incoming bool
	simple   bool
	format   string
}

func newLinksCmd() *cobra.Command {
	var flags linksFlags

	cmd := &cobra.Command{
		Use:   "links <entity>",
		Short: "List links of an entity",
		Long: `Lists the active links leaving an entity, or arriving at it with --to.
Without --type only searchable simple links are listed alongside complex ones.

Examples:
  relgraph links emf:doc1
  relgraph links emf:doc1 --type references --format json
  relgraph links emf:doc2 --to --type references
  relgraph links emf:doc1 --simple`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLinks(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringSliceVarP(&flags.types, "type", "t", nil, "Filter by relation type (repeatable)")
	cmd.Flags().BoolVar(&flags.incoming, "to", false, "List links arriving at the entity")
	cmd.Flags().BoolVar(&flags.simple, "simple", false, "Only simple links")
	cmd.Flags().StringVarP(&flags.format, "format", "f", formatTable, "Output format: table, json")

	cmd.AddCommand(newLinkTypesCmd())

	return cmd
}

func runLinks(cmd *cobra.Command, entity string, flags linksFlags) error {
	if err := checkFormat(flags.format); err != nil {
		return err
	}
	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		result, err := d.LinkHandler.HandleLinks(ctx, handlers.LinksQuery{
			Entity:   entity,
			Incoming: flags.incoming,
			Types:    flags.types,
			Simple:   flags.simple,
		})
		if err != nil {
			return err
		}
		return writeLinks(cmd.OutOrStdout(), result, flags.incoming, flags.format)
	})
}

func newLinkTypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types <entity>",
		Short: "List the relation types leaving an entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withDeps(ctx, func(d *Deps) error {
				types, err := d.LinkHandler.HandleTypes(ctx, args[0])
				if err != nil {
					return fmt.Errorf("listing link types: %w", err)
				}
				if len(types) == 0 {
					fmt.Printf("No links from %s\n", args[0])
					return nil
				}
				for _, t := range types {
					fmt.Println(t)
				}
				return nil
			})
		},
	}
}

func newLinkedCmd() *cobra.Command {
	var simple bool

	cmd := &cobra.Command{
		Use:   "linked <from> <type> <to>",
		Short: "Check whether an active link exists",
		Long:  "Prints true or false. Always asks the store, never the cache.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withDeps(ctx, func(d *Deps) error {
				ok, err := d.LinkHandler.HandleLinked(ctx, args[0], args[2], args[1], simple)
				if err != nil {
					return fmt.Errorf("checking link: %w", err)
				}
				fmt.Println(ok)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&simple, "simple", false, "Check for a simple link")

	return cmd
}
