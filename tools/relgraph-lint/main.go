// relgraph-lint is a custom static analyzer for relgraph store access patterns.
package main

import (
	"golang.org/x/tools/go/analysis/multichecker"

	"github.com/ersonp/relgraph/tools/relgraph-lint/analyzers"
)

func main() {
	multichecker.Main(analyzers.All()...)
}
