// Package querybind checks that named query parameters match their bindings.
package querybind

import (
	"go/ast"
	"go/constant"
	"sort"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// Analyzer reports Select and Ask calls whose constant query text and
// literal bindings disagree.
var Analyzer = &analysis.Analyzer{
	Name:     "querybind",
	Doc:      "checks that :name query parameters match the keys of a literal bindings map",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

var queryMethods = map[string]bool{
	"Select": true,
	"Ask":    true,
}

func run(pass *analysis.Pass) (interface{}, error) {
	inspect := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	nodeFilter := []ast.Node{
		(*ast.CallExpr)(nil),
	}

	inspect.Preorder(nodeFilter, func(n ast.Node) {
		call := n.(*ast.CallExpr)
		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok || !queryMethods[sel.Sel.Name] || len(call.Args) != 3 {
			return
		}

		query, ok := constString(pass, call.Args[1])
		if !ok {
			return
		}
		keys, ok := literalKeys(pass, call.Args[2])
		if !ok {
			return
		}

		params := Params(query)
		for _, p := range params {
			if !keys[p] {
				pass.Reportf(call.Args[2].Pos(), "query parameter :%s has no binding", p)
			}
		}

		used := make(map[string]bool, len(params))
		for _, p := range params {
			used[p] = true
		}
		var unused []string
		for k := range keys {
			if !used[k] {
				unused = append(unused, k)
			}
		}
		sort.Strings(unused)
		for _, k := range unused {
			pass.Reportf(call.Args[2].Pos(), "binding %q is not used by the query", k)
		}
	})

	return nil, nil
}

func constString(pass *analysis.Pass, expr ast.Expr) (string, bool) {
	tv, ok := pass.TypesInfo.Types[expr]
	if !ok || tv.Value == nil || tv.Value.Kind() != constant.String {
		return "", false
	}
	return constant.StringVal(tv.Value), true
}

// literalKeys returns the keys of a composite literal whose keys are all
// constant strings. A nil literal has no keys.
func literalKeys(pass *analysis.Pass, expr ast.Expr) (map[string]bool, bool) {
	if ident, ok := expr.(*ast.Ident); ok && ident.Name == "nil" {
		return map[string]bool{}, true
	}
	lit, ok := expr.(*ast.CompositeLit)
	if !ok {
		return nil, false
	}
	keys := make(map[string]bool, len(lit.Elts))
	for _, elt := range lit.Elts {
		kv, ok := elt.(*ast.KeyValueExpr)
		if !ok {
			return nil, false
		}
		k, ok := constString(pass, kv.Key)
		if !ok {
			return nil, false
		}
		keys[k] = true
	}
	return keys, true
}

// Params returns the distinct :name parameters of query in order of first
// use. Quoted text and "::" casts are skipped.
func Params(query string) []string {
	var names []string
	seen := make(map[string]bool)
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'' || c == '"':
			i = skipQuoted(query, i, c) - 1
		case c == ':' && i+1 < len(query) && query[i+1] == ':':
			i++
		case c == ':' && i+1 < len(query) && isNameStart(query[i+1]):
			j := i + 1
			for j < len(query) && isNamePart(query[j]) {
				j++
			}
			if name := query[i+1 : j]; !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
			i = j - 1
		}
	}
	return names
}

func skipQuoted(s string, i int, quote byte) int {
	for j := i + 1; j < len(s); j++ {
		if s[j] != quote {
			continue
		}
		if j+1 < len(s) && s[j+1] == quote {
			j++
			continue
		}
		return j + 1
	}
	return len(s)
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNamePart(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9')
}
