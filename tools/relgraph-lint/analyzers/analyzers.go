// Package analyzers provides all custom static analyzers for relgraph.
package analyzers

import (
	"golang.org/x/tools/go/analysis"

	"github.com/ersonp/relgraph/tools/relgraph-lint/analyzers/loopcall"
	"github.com/ersonp/relgraph/tools/relgraph-lint/analyzers/querybind"
)

// All returns all analyzers to run.
func All() []*analysis.Analyzer {
	return []*analysis.Analyzer{
		loopcall.Analyzer,
		querybind.Analyzer,
	}
}
