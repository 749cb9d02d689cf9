package querybind_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/tools/go/analysis/analysistest"

	"github.com/ersonp/relgraph/tools/relgraph-lint/analyzers/querybind"
)

func TestAnalyzer(t *testing.T) {
	testdata := analysistest.TestData()
	analysistest.Run(t, testdata, querybind.Analyzer, "a")
}

func TestParams(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"SELECT 1", nil},
		{"WHERE s = :s AND o = :o OR s = :s", []string{"s", "o"}},
		{"WHERE x = ':quoted' AND y = :y", []string{"y"}},
		{`SELECT ":col" FROM t WHERE a = :a`, []string{"a"}},
		{"SELECT x::text FROM t WHERE id = :id0", []string{"id0"}},
		{"a : b", nil},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, querybind.Params(tt.query))
		})
	}
}
