package parsers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// CSVParser parses links from CSV format.
type CSVParser struct{}

// csvAliases maps accepted header names to link fields. The export format of
// the instance browser uses source/destination/relation.
var csvAliases = map[string]string{
	"from":        "from",
	"source":      "from",
	"to":          "to",
	"destination": "to",
	"type":        "type",
	"relation":    "type",
	"reverse":     "reverse",
	"inverse":     "reverse",
	"created_by":  "created_by",
	"createdby":   "created_by",
	"simple":      "simple",
}

// csvColumns holds the record position of each link field, -1 when absent.
type csvColumns struct {
	from, to, typ, reverse, createdBy, simple int
}

// Parse reads CSV from the reader and returns parsed links.
// Expected columns: from, type, to, and optionally reverse, created_by, simple.
func (p *CSVParser) Parse(r io.Reader) ([]RawLink, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var links []RawLink
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return links, nil
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		link, err := cols.link(record, line)
		if err != nil {
			return nil, err
		}
		links = append(links, link)
	}
}

func mapColumns(header []string) (csvColumns, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		field, ok := csvAliases[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			continue
		}
		if _, dup := index[field]; dup {
			return csvColumns{}, fmt.Errorf("duplicate column for %s: %q", field, name)
		}
		index[field] = i
	}

	pos := func(field string) int {
		if i, ok := index[field]; ok {
			return i
		}
		return -1
	}
	cols := csvColumns{
		from:      pos("from"),
		to:        pos("to"),
		typ:       pos("type"),
		reverse:   pos("reverse"),
		createdBy: pos("created_by"),
		simple:    pos("simple"),
	}

	switch {
	case cols.from < 0:
		return cols, fmt.Errorf("missing required column: from")
	case cols.typ < 0:
		return cols, fmt.Errorf("missing required column: type")
	case cols.to < 0:
		return cols, fmt.Errorf("missing required column: to")
	}
	return cols, nil
}

func (c csvColumns) link(record []string, line int) (RawLink, error) {
	link := RawLink{
		From:      field(record, c.from),
		To:        field(record, c.to),
		Type:      field(record, c.typ),
		Reverse:   field(record, c.reverse),
		CreatedBy: field(record, c.createdBy),
		LineNum:   line,
	}

	if s := field(record, c.simple); s != "" {
		simple, err := strconv.ParseBool(s)
		if err != nil {
			return RawLink{}, fmt.Errorf("line %d: invalid simple value %q: %w", line, s, err)
		}
		link.Simple = simple
	}
	return link, nil
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
