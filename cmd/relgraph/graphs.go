package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ersonp/relgraph/internal/domain/ports"
	"github.com/ersonp/relgraph/internal/infrastructure/config"
)

// graphStatementsQuery counts the statements stored in one graph.
const graphStatementsQuery = `SELECT COUNT(*) AS "n" FROM triples WHERE graph = :graph`

func newGraphsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graphs",
		Short: "Manage named graphs",
		Long: `Named graphs are data contexts links are written to. Select one with
--graph NAME; without it writes go to store.graph from the config.`,
		RunE: runGraphsList,
	}

	cmd.AddCommand(
		newGraphsListCmd(),
		newGraphsCreateCmd(),
		newGraphsDeleteCmd(),
	)

	return cmd
}

func newGraphsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List named graphs",
		RunE:  runGraphsList,
	}
}

func runGraphsList(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	graphs, err := config.LoadGraphs(cwd)
	if err != nil {
		return fmt.Errorf("loading graphs: %w", err)
	}

	if len(graphs.Graphs) == 0 {
		fmt.Println("No named graphs configured.")
		fmt.Println("Use 'relgraph graphs create NAME' to create one.")
		return nil
	}

	fmt.Printf("%-20s %-60s %s\n", "NAME", "IRI", "DESCRIPTION")
	fmt.Printf("%-20s %-60s %s\n", "----", "---", "-----------")

	for _, name := range graphs.Names() {
		g := graphs.Graphs[name]
		fmt.Printf("%-20s %-60s %s\n", name, g.IRI, g.Description)
	}

	return nil
}

func newGraphsCreateCmd() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a named graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("getting current directory: %w", err)
			}
			entry, err := createGraph(cwd, args[0], description)
			if err != nil {
				return err
			}
			fmt.Printf("Created graph %q with IRI %s\n", args[0], entry.IRI)
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Graph description")

	return cmd
}

func newGraphsDeleteCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a named graph",
		Long:  "Removes the graph name. Statements already written to the graph are kept.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraphsDelete(cmd, args[0], force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Delete even if the graph holds statements")

	return cmd
}

func runGraphsDelete(cmd *cobra.Command, name string, force bool) error {
	ctx := cmd.Context()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	graphs, err := config.LoadGraphs(cwd)
	if err != nil {
		return fmt.Errorf("loading graphs: %w", err)
	}

	entry, err := graphs.Get(name)
	if err != nil {
		return err
	}

	if !force {
		err := withInternalDeps(ctx, func(d *internalDeps) error {
			n, err := countStatements(ctx, d.store, entry.IRI)
			if err != nil {
				return fmt.Errorf("counting statements: %w", err)
			}
			if n > 0 {
				return fmt.Errorf("graph %q holds %d statements, use --force to delete", name, n)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	graphs.Remove(name)
	if err := graphs.Save(cwd); err != nil {
		return err
	}

	fmt.Printf("Deleted graph %q\n", name)

	return nil
}

// createGraph registers a named graph in basePath.
func createGraph(basePath, name, description string) (*config.GraphEntry, error) {
	if !config.Exists(basePath) {
		return nil, fmt.Errorf("relgraph is not initialized in %s (run 'relgraph init' first)", basePath)
	}

	graphs, err := config.LoadGraphs(basePath)
	if err != nil {
		return nil, fmt.Errorf("loading graphs: %w", err)
	}
	if graphs.Exists(name) {
		return nil, fmt.Errorf("graph %q already exists", name)
	}

	entry := config.GraphEntry{
		IRI:         config.GenerateGraphIRI(name),
		Description: description,
	}
	graphs.Add(name, entry)
	if err := graphs.Save(basePath); err != nil {
		return nil, err
	}
	return &entry, nil
}

func countStatements(ctx context.Context, store ports.TripleStore, graph string) (int, error) {
	rs, err := store.Select(ctx, graphStatementsQuery, ports.Bindings{"graph": graph})
	if err != nil {
		return 0, err
	}
	if !rs.Next() {
		return 0, nil
	}
	v, _ := rs.Row().Get("n")
	return strconv.Atoi(v)
}
