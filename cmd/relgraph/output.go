package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ersonp/relgraph/internal/application/handlers"
	"github.com/ersonp/relgraph/internal/domain/entities"
)

// Output formats.
const (
	formatTable = "table"
	formatJSON  = "json"
)

var validFormats = []string{formatTable, formatJSON}

func checkFormat(format string) error {
	for _, f := range validFormats {
		if f == format {
			return nil
		}
	}
	return fmt.Errorf("invalid format: %s (valid: %s)", format, strings.Join(validFormats, ", "))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return nil
}

// writeLinks prints links as a table or JSON. incoming selects which end
// of each link is the "other" entity.
func writeLinks(w io.Writer, result *handlers.LinksResult, incoming bool, format string) error {
	if format == formatJSON {
		return writeJSON(w, result)
	}

	if len(result.Links) == 0 {
		fmt.Fprintf(w, "No links found for %s\n", result.Entity)
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := "TYPE\tTO\tID\tCREATED BY"
	if incoming {
		header = "TYPE\tFROM\tID\tCREATED BY"
	}
	fmt.Fprintln(tw, header)
	for i := range result.Links {
		l := &result.Links[i]
		other := l.Destination
		if incoming {
			other = l.Source
		}
		id := l.ID
		if l.IsSimple() {
			id = "(simple)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", l.Type, other.String(), id, l.Properties.CreatedBy)
	}
	return tw.Flush()
}

func writeRelation(w io.Writer, rel *entities.Relation, format string) error {
	if format == formatJSON {
		return writeJSON(w, rel)
	}

	state := "active"
	if !rel.Active {
		state = "inactive"
	}
	fmt.Fprintf(w, "%s (%s)\n", rel.ID, state)
	fmt.Fprintf(w, "  %s -[%s]-> %s\n", rel.Source.ID, rel.Type, rel.Destination.ID)
	if rel.Inverse != "" {
		fmt.Fprintf(w, "  inverse: %s\n", rel.Inverse)
	}
	p := rel.Properties
	if p.CreatedBy != "" {
		fmt.Fprintf(w, "  createdBy: %s\n", p.CreatedBy)
	}
	if !p.CreatedOn.IsZero() {
		fmt.Fprintf(w, "  createdOn: %s\n", p.CreatedOn.Format(time.RFC3339))
	}
	if p.Status != "" {
		fmt.Fprintf(w, "  status: %s\n", p.Status)
	}
	keys := make([]string, 0, len(p.Extra))
	for k := range p.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s: %s\n", k, p.Extra[k].String())
	}
	return nil
}

func writeAncestors(w io.Writer, result *handlers.AncestorsResult, format string) error {
	if format == formatJSON {
		return writeJSON(w, result)
	}
	if !result.Resolved {
		fmt.Fprintf(w, "Could not resolve the hierarchy of %s\n", result.Entity)
		return nil
	}
	if len(result.Ancestors) == 0 {
		fmt.Fprintf(w, "%s is top-level\n", result.Entity)
		return nil
	}
	fmt.Fprintln(w, result.Entity)
	for i, a := range result.Ancestors {
		label := a.ID
		if a.Type != "" {
			label += " (" + a.Type + ")"
		}
		fmt.Fprintf(w, "%s└─ %s\n", strings.Repeat("   ", i), label)
	}
	return nil
}

func writeRelationTypes(w io.Writer, defs []entities.RelationDefinition, format string) error {
	if format == formatJSON {
		return writeJSON(w, defs)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tINVERSE\tSEARCHABLE\tDEFAULT\tDESCRIPTION")
	for _, d := range defs {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%t\t%s\n", d.ID, d.Inverse, d.Searchable, entities.IsDefaultRelation(d.ID), d.Description)
	}
	return tw.Flush()
}
