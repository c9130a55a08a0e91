package grapht

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Solver resolves root desires into a Graph against a fixed Configuration.
// A Solver holds no per-solve state and may run several solves at once.
type Solver struct {
	config  *Configuration
	intro   Introspector
	logger  *zap.Logger
	metrics *Metrics

	// parallelism bounds the number of root desires resolved at once.
	// Values below 2 select the serial solver.
	parallelism int
}

// Option configures a Solver.
type Option func(*Solver)

// WithLogger sets the logger used for resolution debug events.
func WithLogger(l *zap.Logger) Option {
	return func(s *Solver) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records solve metrics into m.
func WithMetrics(m *Metrics) Option {
	return func(s *Solver) {
		s.metrics = m
	}
}

// WithParallelism resolves up to n root desires concurrently.
func WithParallelism(n int) Option {
	return func(s *Solver) {
		s.parallelism = n
	}
}

// NewSolver creates a Solver. A nil config behaves like an empty one.
func NewSolver(config *Configuration, intro Introspector, opts ...Option) *Solver {
	if config == nil {
		config = NewConfiguration()
	}
	s := &Solver{
		config:      config,
		intro:       intro,
		logger:      zap.NewNop(),
		parallelism: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Solve resolves every root desire and returns the combined graph. No
// partial graph is returned on failure.
func (s *Solver) Solve(ctx context.Context, roots ...Desire) (g *Graph, err error) {
	start := time.Now()
	defer func() { s.metrics.observeSolve(start, err) }()

	st := &solveState{solver: s, memo: newMemoTable()}
	var edges []Edge
	if s.parallelism > 1 && len(roots) > 1 {
		edges, err = st.resolveRootsParallel(ctx, roots)
	} else {
		edges, err = st.resolveRoots(ctx, roots)
	}
	if err != nil {
		s.logger.Debug("solve failed", zap.Error(err))
		return nil, err
	}

	g = newGraph(edges)
	if err := g.checkNulls(); err != nil {
		return nil, err
	}
	s.logger.Debug("solve complete", zap.Int("roots", len(roots)), zap.Int("nodes", g.Len()))
	return g, nil
}

// Resolve is a convenience for solving a single root type.
func (s *Solver) Resolve(ctx context.Context, t Type, q Qualifier) (*Graph, error) {
	return s.Solve(ctx, RootDesire(t, q, false))
}

// solveState is the per-solve scratch space.
type solveState struct {
	solver *Solver
	memo   *memoTable
}

func (st *solveState) resolveRoots(ctx context.Context, roots []Desire) ([]Edge, error) {
	edges := make([]Edge, len(roots))
	for i, d := range roots {
		n, rd, err := st.resolve(ctx, EmptyContext(), d)
		if err != nil {
			return nil, err
		}
		edges[i] = Edge{To: n, Desire: rd}
	}
	return edges, nil
}

// resolve narrows d within ictx and returns the node for its satisfaction,
// reusing a node already resolved under the same context.
func (st *solveState) resolve(ctx context.Context, ictx InjectionContext, d Desire) (*Node, Desire, error) {
	if err := ctx.Err(); err != nil {
		return nil, Desire{}, fmt.Errorf("grapht: solve: %w", err)
	}

	rd, err := st.narrow(ictx, d)
	if err != nil {
		return nil, Desire{}, err
	}

	sat := rd.Satisfaction()
	q := rd.Qualifier()
	key := memoKey{sat: sat.key(), ctx: ictx.Fingerprint(), qualifier: q}
	node, hit, err := st.memo.do(key, func() (*Node, error) {
		return st.expand(ctx, ictx, rd)
	})
	if err != nil {
		return nil, Desire{}, err
	}
	if hit {
		st.solver.metrics.memoHit()
		st.solver.logger.Debug("memo hit",
			zap.Stringer("satisfaction", sat),
			zap.Stringer("context", ictx))
	}
	return node, rd, nil
}

// expand records the node for an instantiable desire and resolves its
// dependencies in the extended context.
func (st *solveState) expand(ctx context.Context, ictx InjectionContext, d Desire) (*Node, error) {
	sat := d.Satisfaction()
	if ictx.contains(sat, d.Qualifier()) {
		return nil, &CyclicDependencyError{Desire: d, Context: ictx, Path: ictx.Types()}
	}

	deps, err := sat.Dependencies(st.solver.intro)
	if err != nil {
		return nil, fmt.Errorf("grapht: dependencies of %s: %w", sat, err)
	}

	n := &Node{Satisfaction: sat, Qualifier: d.Qualifier(), Context: ictx}
	st.solver.logger.Debug("node recorded",
		zap.Stringer("satisfaction", sat),
		zap.Stringer("context", ictx),
		zap.Int("dependencies", len(deps)))

	child := ictx.Extend(sat, d.Qualifier())
	n.out = make([]Edge, 0, len(deps))
	for _, dep := range deps {
		to, rd, err := st.resolve(ctx, child, dep)
		if err != nil {
			return nil, err
		}
		n.out = append(n.out, Edge{From: n, To: to, Desire: rd})
	}
	return n, nil
}

// narrow applies bind rules, then defaults, until d carries a
// satisfaction. Each rule is applied at most once per narrowing, and
// returning to a type already passed through is a cycle.
func (st *solveState) narrow(ictx InjectionContext, d Desire) (Desire, error) {
	s := st.solver
	applied := make(map[ruleRef]bool)
	path := []Type{d.Type()}

	step := func(next Desire) error {
		if next.Type() != d.Type() {
			if slices.Contains(path, next.Type()) {
				return &CyclicDependencyError{Desire: d, Context: ictx, Path: append(path, next.Type())}
			}
			path = append(path, next.Type())
		}
		d = next
		return nil
	}

	for {
		for {
			ref, rule, ok := s.bestRule(ictx, d, applied)
			if !ok {
				break
			}
			applied[ref] = true
			next, err := rule.Apply(s.intro, d)
			if err != nil {
				return Desire{}, err
			}
			s.metrics.ruleApplied(rule)
			s.logger.Debug("rule selected",
				zap.Stringer("desire", d),
				zap.Stringer("rule", rule),
				zap.Stringer("context", ictx))
			if err := step(next); err != nil {
				return Desire{}, err
			}
			if rule.Terminal() {
				break
			}
		}
		if d.Instantiable() {
			return d, nil
		}

		next, source, ok, err := defaultDesire(s.intro, d)
		if err != nil {
			return Desire{}, err
		}
		if !ok {
			return Desire{}, &UnresolvableDesireError{Desire: d, Context: ictx}
		}
		if !next.Instantiable() && next.Type() == d.Type() {
			return Desire{}, &UnresolvableDesireError{Desire: d, Context: ictx}
		}
		s.metrics.defaultUsed(source)
		s.logger.Debug("default used",
			zap.Stringer("desire", d),
			zap.String("source", source),
			zap.Stringer("context", ictx))
		if err := step(next); err != nil {
			return Desire{}, err
		}
		if d.Instantiable() {
			return d, nil
		}
	}
}

// ruleRef identifies a rule by its position in the configuration.
type ruleRef struct {
	entry int
	rule  int
}

// bestRule returns the most specific unapplied rule matching d whose chain
// matches ictx. Ties that survive chain, weight and qualifier ordering go
// to the rule registered first.
func (s *Solver) bestRule(ictx InjectionContext, d Desire, applied map[ruleRef]bool) (ruleRef, BindRule, bool) {
	var (
		best     ruleRef
		bestRule BindRule
		found    bool
	)
	for i, e := range s.config.entries {
		chainChecked, chainOK := false, false
		for j, r := range e.rules {
			ref := ruleRef{entry: i, rule: j}
			if applied[ref] || !r.Matches(d) {
				continue
			}
			if !chainChecked {
				chainOK = e.chain.Matches(s.intro, ictx)
				chainChecked = true
			}
			if !chainOK {
				break
			}
			if !found || s.better(e.chain, r, s.config.entries[best.entry].chain, bestRule) {
				best, bestRule, found = ref, r, true
			}
		}
	}
	return best, bestRule, found
}

func (s *Solver) better(chain ContextChain, r BindRule, bestChain ContextChain, best BindRule) bool {
	if c := chain.Compare(bestChain); c != 0 {
		return c < 0
	}
	return compareRules(r, best) < 0
}

// memoKey identifies a node: the satisfaction, the context it was resolved
// in and the qualifier its children will see in their context.
type memoKey struct {
	sat       satisfactionKey
	ctx       Fingerprint
	qualifier Qualifier
}

type memoEntry struct {
	done chan struct{}
	node *Node
	err  error
}

// memoTable publishes each node only once it is fully expanded. The first
// caller for a key computes it; concurrent callers wait for the result.
type memoTable struct {
	mu      sync.Mutex
	entries map[memoKey]*memoEntry
}

func newMemoTable() *memoTable {
	return &memoTable{entries: make(map[memoKey]*memoEntry)}
}

func (m *memoTable) do(key memoKey, compute func() (*Node, error)) (*Node, bool, error) {
	m.mu.Lock()
	if e, ok := m.entries[key]; ok {
		m.mu.Unlock()
		<-e.done
		return e.node, true, e.err
	}
	e := &memoEntry{done: make(chan struct{})}
	m.entries[key] = e
	m.mu.Unlock()

	e.node, e.err = compute()
	close(e.done)
	return e.node, false, e.err
}
