package a

import "context"

type TripleStore interface {
	Select(ctx context.Context, query string) error
	Update(ctx context.Context, graph string) error
}

type Publisher interface {
	Publish(subject string, data []byte) error
}

func bad(ctx context.Context, ids []string, s TripleStore, p Publisher) {
	for _, id := range ids {
		s.Select(ctx, id)         // want "potential N\\+1: Select called inside loop"
		p.Publish(id, nil)        // want "potential N\\+1: Publish called inside loop"
	}
	for i := 0; i < len(ids); i++ {
		for range ids {
			s.Update(ctx, ids[i]) // want "potential N\\+1: Update called inside loop"
		}
	}
}

func chunk(ids []string, size int) [][]string {
	return [][]string{ids}
}

func good(ctx context.Context, ids []string, s TripleStore) {
	for _, part := range chunk(ids, 100) {
		s.Select(ctx, part[0])
	}

	var later []func()
	for _, id := range ids {
		later = append(later, func() { s.Select(ctx, id) })
	}

	for _, id := range ids {
		_ = len(id)
	}
	_ = later
}
