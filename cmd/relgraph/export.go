package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ersonp/relgraph/internal/application/handlers"
)

type exportFlags struct {
	format string
	output string
	types  []string
}

func newExportCmd() *cobra.Command {
	var flags exportFlags

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export links to JSON, CSV or YAML",
		Long: `Exports every active link of the graph in the format read by import.
A relation and its inverse are written as one row with reverse set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "auto", "Output format (json, csv, yaml, auto)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringSliceVarP(&flags.types, "type", "t", nil, "Only export these relation types")

	return cmd
}

func runExport(cmd *cobra.Command, flags exportFlags) error {
	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) (err error) {
		var w io.Writer = os.Stdout
		if flags.output != "" {
			f, ferr := os.OpenFile(flags.output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
			if ferr != nil {
				return fmt.Errorf("creating file: %w", ferr)
			}
			defer func() {
				if cerr := f.Close(); cerr != nil && err == nil {
					err = fmt.Errorf("closing file: %w", cerr)
				}
			}()
			w = f
		}

		result, err := d.ExportHandler.Handle(ctx, w, handlers.ExportOptions{
			Format: flags.format,
			Output: flags.output,
			Types:  flags.types,
		})
		if err != nil {
			return fmt.Errorf("exporting links: %w", err)
		}

		if flags.output != "" {
			fmt.Printf("Exported %d links to %s (%s)\n", result.Links, flags.output, result.Format)
		}
		return nil
	})
}
