package parsers

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLParser parses links from a YAML sequence.
type YAMLParser struct{}

// Parse reads YAML from the reader and returns parsed links. Line numbers
// point at the start of each sequence item.
func (p *YAMLParser) Parse(r io.Reader) ([]RawLink, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return []RawLink{}, nil
		}
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	if len(doc.Content) == 0 {
		return []RawLink{}, nil
	}
	seq := doc.Content[0]
	if seq.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("parsing YAML: line %d: expected a list of links", seq.Line)
	}

	links := make([]RawLink, 0, len(seq.Content))
	for _, item := range seq.Content {
		var link RawLink
		if err := item.Decode(&link); err != nil {
			return nil, fmt.Errorf("line %d: %w", item.Line, err)
		}
		link.LineNum = item.Line
		links = append(links, link)
	}
	return links, nil
}
