package grapht

import "context"

// Module bundles a type universe with its bind rules and root requests.
// The manifest, script and source front-ends all produce one.
type Module struct {
	Universe *Universe
	Config   *Configuration
	Roots    []Desire
}

// Solve resolves the module's roots, or roots when any are given.
func (m *Module) Solve(ctx context.Context, opts []Option, roots ...Desire) (*Graph, error) {
	if len(roots) == 0 {
		roots = m.Roots
	}
	return NewSolver(m.Config, m.Universe, opts...).Solve(ctx, roots...)
}
