package parsers

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"
)

// csvHeader is the column order written by Encode.
var csvHeader = []string{"from", "type", "to", "reverse", "created_by", "simple"}

// Encode writes links in a format the matching Parser reads back.
// Supported formats: "json", "csv", "yaml".
func Encode(w io.Writer, format string, links []RawLink) error {
	if links == nil {
		links = []RawLink{}
	}
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(links)
	case "csv":
		return encodeCSV(w, links)
	case "yaml", "yml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(links); err != nil {
			return err
		}
		return encoder.Close()
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func encodeCSV(w io.Writer, links []RawLink) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, l := range links {
		row := []string{l.From, l.Type, l.To, l.Reverse, l.CreatedBy, strconv.FormatBool(l.Simple)}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
