package grapht

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// resolveRootsParallel resolves root desires on a bounded set of
// goroutines. Branches share the memo table, so a node reached from two
// roots is expanded once and the other branch waits for it. Edges keep
// the request order of the roots.
func (st *solveState) resolveRootsParallel(ctx context.Context, roots []Desire) ([]Edge, error) {
	edges := make([]Edge, len(roots))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(st.solver.parallelism)
	for i, d := range roots {
		g.Go(func() error {
			n, rd, err := st.resolve(gctx, EmptyContext(), d)
			if err != nil {
				return err
			}
			edges[i] = Edge{To: n, Desire: rd}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return edges, nil
}
