package a

import "context"

type Bindings map[string]string

type Store interface {
	Select(ctx context.Context, query string, b Bindings) (int, error)
	Ask(ctx context.Context, query string, b Bindings) (bool, error)
}

const byGraph = `SELECT COUNT(*) FROM triples WHERE graph = :graph`

func bad(ctx context.Context, s Store) {
	s.Select(ctx, byGraph, Bindings{"grph": "g"}) // want `query parameter :graph has no binding` `binding "grph" is not used by the query`
	s.Ask(ctx, "SELECT 1 WHERE :a = :b", Bindings{"a": "x"}) // want `query parameter :b has no binding`
	s.Select(ctx, byGraph, nil) // want `query parameter :graph has no binding`
}

func good(ctx context.Context, s Store, q string, b Bindings) {
	s.Select(ctx, byGraph, Bindings{"graph": "g"})
	s.Ask(ctx, "SELECT x::text WHERE y = ':lit'", nil)
	s.Select(ctx, q, Bindings{"anything": "x"})
	s.Select(ctx, byGraph, b)
}
