package grapht

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solve(t *testing.T, u *Universe, cfg *Configuration, roots ...Desire) (*Graph, error) {
	t.Helper()
	return NewSolver(cfg, u).Solve(context.Background(), roots...)
}

func build(t testing.TB, b *Builder) *Configuration {
	t.Helper()
	cfg, err := b.Build()
	require.NoError(t, err)
	return cfg
}

func root(typ TypeName) Desire { return RootDesire(typ, Qualifier{}, false) }

func TestSolve_ConcreteDependency(t *testing.T) {
	u := NewUniverse()
	define(t, u,
		TypeSpec{Name: "Foo", Constructors: ctor(point("Bar"))},
		TypeSpec{Name: "Bar"},
	)

	g, err := solve(t, u, nil, root("Foo"))
	require.NoError(t, err)

	require.Equal(t, 2, g.Len())
	foo := g.Roots()[0]
	assert.Equal(t, Class(TypeName("Foo")), foo.Satisfaction)
	deps := g.Dependencies(foo)
	require.Len(t, deps, 1)
	assert.Equal(t, Class(TypeName("Bar")), deps[0].To.Satisfaction)
	assert.Equal(t, 0, deps[0].Desire.Point().Index)
	assert.Equal(t, TypeName("Foo"), deps[0].Desire.Point().Owner)
}

func TestSolve_QualifiedBindings(t *testing.T) {
	u := NewUniverse()
	define(t, u, TypeSpec{Name: "Service", Abstract: true})

	for _, unqualifiedAny := range []bool{false, true} {
		b := NewBuilder(u)
		b.Bind(TypeName("Service")).WithQualifier(Named("x")).ToInstance("implA")
		unq := b.Bind(TypeName("Service"))
		if unqualifiedAny {
			unq = unq.WithAnyQualifier()
		}
		unq.ToInstance("implB")
		cfg := build(t, b)

		g, err := solve(t, u, cfg, RootDesire(TypeName("Service"), Named("x"), false))
		require.NoError(t, err)
		assert.Equal(t, "implA", g.Roots()[0].Satisfaction.Instance())

		g, err = solve(t, u, cfg, root("Service"))
		require.NoError(t, err)
		assert.Equal(t, "implB", g.Roots()[0].Satisfaction.Instance())
	}
}

func TestSolve_ContextScopedBindings(t *testing.T) {
	u := NewUniverse()
	define(t, u,
		TypeSpec{Name: "Inner", Abstract: true},
		TypeSpec{Name: "Outer", Constructors: ctor(point("Inner"))},
		TypeSpec{Name: "Other", Constructors: ctor(point("Inner"))},
	)
	b := NewBuilder(u)
	b.In(TypeName("Outer")).Bind(TypeName("Inner")).ToInstance("v1")
	b.In(TypeName("Other")).Bind(TypeName("Inner")).ToInstance("v2")
	cfg := build(t, b)

	g, err := solve(t, u, cfg, root("Outer"), root("Other"))
	require.NoError(t, err)

	roots := g.Roots()
	assert.Equal(t, "v1", g.Dependencies(roots[0])[0].To.Satisfaction.Instance())
	assert.Equal(t, "v2", g.Dependencies(roots[1])[0].To.Satisfaction.Instance())

	// Outside either context there is nothing to inject.
	_, err = solve(t, u, cfg, root("Inner"))
	assert.ErrorIs(t, err, ErrUnresolvable)
}

func TestSolve_DeeperContextWins(t *testing.T) {
	u := NewUniverse()
	define(t, u,
		TypeSpec{Name: "Inner", Abstract: true},
		TypeSpec{Name: "Mid", Constructors: ctor(point("Inner"))},
		TypeSpec{Name: "Top", Constructors: ctor(point("Mid"), point("Inner"))},
	)
	b := NewBuilder(u)
	b.Bind(TypeName("Inner")).ToInstance("root")
	b.In(TypeName("Top")).Bind(TypeName("Inner")).ToInstance("top")
	b.In(TypeName("Top")).In(TypeName("Mid")).Bind(TypeName("Inner")).ToInstance("top-mid")
	cfg := build(t, b)

	g, err := solve(t, u, cfg, root("Top"), root("Mid"))
	require.NoError(t, err)

	top, mid := g.Roots()[0], g.Roots()[1]
	topDeps := g.Dependencies(top)
	assert.Equal(t, "top-mid", g.Dependencies(topDeps[0].To)[0].To.Satisfaction.Instance())
	assert.Equal(t, "top", topDeps[1].To.Satisfaction.Instance())
	assert.Equal(t, "root", g.Dependencies(mid)[0].To.Satisfaction.Instance())
}

func TestSolve_Cycle(t *testing.T) {
	u := NewUniverse()
	define(t, u,
		TypeSpec{Name: "A", Constructors: ctor(point("B"))},
		TypeSpec{Name: "B", Constructors: ctor(point("A"))},
	)

	_, err := solve(t, u, nil, root("A"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCyclic)

	var cyc *CyclicDependencyError
	require.ErrorAs(t, err, &cyc)
	assert.Equal(t, []Type{TypeName("A"), TypeName("B")}, cyc.Context.Types())
}

func TestSolve_NarrowingCycle(t *testing.T) {
	u := NewUniverse()
	define(t, u,
		TypeSpec{Name: "I", Abstract: true, Supertypes: []TypeName{"J"}},
		TypeSpec{Name: "J", Abstract: true, Supertypes: []TypeName{"I"}},
	)
	b := NewBuilder(u)
	b.Bind(TypeName("I")).NoGenerated().To(TypeName("J"))
	b.Bind(TypeName("J")).NoGenerated().To(TypeName("I"))
	cfg := build(t, b)

	_, err := solve(t, u, cfg, root("I"))
	assert.ErrorIs(t, err, ErrCyclic)
}

func TestSolve_Unresolvable(t *testing.T) {
	u := NewUniverse()
	define(t, u,
		TypeSpec{Name: "Service", Abstract: true},
		TypeSpec{Name: "App", Constructors: ctor(point("Service"))},
	)

	_, err := solve(t, u, nil, root("App"))
	require.Error(t, err)
	var ude *UnresolvableDesireError
	require.ErrorAs(t, err, &ude)
	assert.Equal(t, TypeName("Service"), ude.Desire.Type())
	assert.Equal(t, []Type{TypeName("App")}, ude.Context.Types())
}

func TestSolve_NullableFallback(t *testing.T) {
	u := NewUniverse()
	define(t, u,
		TypeSpec{Name: "Service", Abstract: true},
		TypeSpec{Name: "App", Constructors: ctor(PointSpec{Type: "Service", Nullable: true})},
	)

	g, err := solve(t, u, nil, root("App"))
	require.NoError(t, err)
	dep := g.Dependencies(g.Roots()[0])[0]
	assert.Equal(t, NullSatisfaction, dep.To.Satisfaction.Kind())
}

func TestSolve_NullBindingSkipsNonNullable(t *testing.T) {
	u := NewUniverse()
	define(t, u,
		TypeSpec{Name: "Cache"},
		TypeSpec{Name: "App", Constructors: ctor(point("Cache"), PointSpec{Type: "Cache", Nullable: true})},
	)
	b := NewBuilder(u)
	b.Bind(TypeName("Cache")).ToNull()
	cfg := build(t, b)

	g, err := solve(t, u, cfg, root("App"))
	require.NoError(t, err)
	deps := g.Dependencies(g.Roots()[0])
	assert.Equal(t, ClassSatisfaction, deps[0].To.Satisfaction.Kind())
	assert.Equal(t, NullSatisfaction, deps[1].To.Satisfaction.Kind())
}

func TestSolve_NullDependency(t *testing.T) {
	u := NewUniverse()
	define(t, u,
		TypeSpec{Name: "Thing", Abstract: true},
		TypeSpec{Name: "App", Constructors: ctor(PointSpec{Type: "Thing", Qualifier: QualifierOf("Optional")})},
	)
	u.DefineQualifier("Optional", Defaults{HasValue: true})

	_, err := solve(t, u, nil, root("App"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNullDependency)

	var nde *NullDependencyError
	require.ErrorAs(t, err, &nde)
	assert.Equal(t, TypeName("App"), nde.Point.Owner)
	assert.Equal(t, []Type{TypeName("App")}, nde.Context.Types())
}

func TestSolve_Defaults(t *testing.T) {
	u := NewUniverse()
	define(t, u,
		TypeSpec{Name: "Store", Abstract: true, Defaults: Defaults{Implementation: TypeName("MemStore")}},
		TypeSpec{Name: "MemStore", Supertypes: []TypeName{"Store"}},
		TypeSpec{Name: "Clock", Abstract: true, Defaults: Defaults{Provider: TypeName("ClockProvider")}},
		TypeSpec{Name: "ClockProvider", Provides: "Clock", Constructors: ctor(point("Config"))},
		TypeSpec{Name: "Config"},
		TypeSpec{Name: "Cache", Abstract: true},
		TypeSpec{Name: "FastCache", Supertypes: []TypeName{"Cache"}},
		TypeSpec{Name: "Server", Constructors: ctor(
			PointSpec{Type: IntType, Qualifier: QualifierOf("Port")},
			point("Store"),
			point("Clock"),
			PointSpec{Type: "Cache", Qualifier: QualifierOf("Fast")},
		)},
	)
	u.DefineQualifier("Port", Defaults{HasValue: true, Value: 8080})
	u.DefineQualifier("Fast", Defaults{Implementation: TypeName("FastCache")})

	g, err := solve(t, u, nil, root("Server"))
	require.NoError(t, err)

	deps := g.Dependencies(g.Roots()[0])
	require.Len(t, deps, 4)

	assert.Equal(t, Instance(8080, IntType), deps[0].To.Satisfaction)
	assert.Equal(t, Class(TypeName("MemStore")), deps[1].To.Satisfaction)

	clock := deps[2].To
	assert.Equal(t, ProviderClass(TypeName("ClockProvider"), TypeName("Clock")), clock.Satisfaction)
	clockDeps := g.Dependencies(clock)
	require.Len(t, clockDeps, 1)
	assert.Equal(t, Class(TypeName("Config")), clockDeps[0].To.Satisfaction)

	assert.Equal(t, Class(TypeName("FastCache")), deps[3].To.Satisfaction)
}

func TestSolve_BoundRulesBeatDefaults(t *testing.T) {
	u := NewUniverse()
	define(t, u,
		TypeSpec{Name: "Store", Abstract: true, Defaults: Defaults{Implementation: TypeName("MemStore")}},
		TypeSpec{Name: "MemStore", Supertypes: []TypeName{"Store"}},
		TypeSpec{Name: "DiskStore", Supertypes: []TypeName{"Store"}},
	)
	b := NewBuilder(u)
	b.Bind(TypeName("Store")).To(TypeName("DiskStore"))
	cfg := build(t, b)

	g, err := solve(t, u, cfg, root("Store"))
	require.NoError(t, err)
	assert.Equal(t, Class(TypeName("DiskStore")), g.Roots()[0].Satisfaction)
}

func TestSolve_MultiStepNarrowing(t *testing.T) {
	u := NewUniverse()
	define(t, u,
		TypeSpec{Name: "I", Abstract: true},
		TypeSpec{Name: "Base", Abstract: true, Supertypes: []TypeName{"I"}},
		TypeSpec{Name: "Impl", Supertypes: []TypeName{"Base"}},
		TypeSpec{Name: "Special", Supertypes: []TypeName{"Base"}},
		TypeSpec{Name: "Host", Constructors: ctor(point("I"))},
	)
	b := NewBuilder(u)
	b.Bind(TypeName("I")).To(TypeName("Base"))
	b.Bind(TypeName("Base")).To(TypeName("Impl"))
	b.In(TypeName("Host")).Bind(TypeName("Base")).To(TypeName("Special"))
	cfg := build(t, b)

	g, err := solve(t, u, cfg, root("I"), root("Host"))
	require.NoError(t, err)
	roots := g.Roots()
	assert.Equal(t, Class(TypeName("Impl")), roots[0].Satisfaction)
	assert.Equal(t, Class(TypeName("Special")), g.Dependencies(roots[1])[0].To.Satisfaction)
	assert.Equal(t, TypeName("Special"), g.Dependencies(roots[1])[0].Desire.Type())
}

func TestSolve_TerminalRuleStopsNarrowing(t *testing.T) {
	u := NewUniverse()
	define(t, u,
		TypeSpec{Name: "I", Abstract: true},
		TypeSpec{Name: "A", Supertypes: []TypeName{"I"}},
		TypeSpec{Name: "B", Supertypes: []TypeName{"A"}},
	)

	for _, final := range []bool{false, true} {
		b := NewBuilder(u)
		bd := b.Bind(TypeName("I"))
		if final {
			bd = bd.Final()
		}
		bd.To(TypeName("A"))
		b.Bind(TypeName("A")).To(TypeName("B"))
		cfg := build(t, b)

		g, err := solve(t, u, cfg, root("I"))
		require.NoError(t, err)
		want := TypeName("B")
		if final {
			want = "A"
		}
		assert.Equal(t, Class(want), g.Roots()[0].Satisfaction, "final=%v", final)
	}
}

func TestSolve_GeneratedRules(t *testing.T) {
	u := NewUniverse()
	define(t, u,
		TypeSpec{Name: "I", Abstract: true},
		TypeSpec{Name: "Mid", Abstract: true, Supertypes: []TypeName{"I"}},
		TypeSpec{Name: "Impl", Supertypes: []TypeName{"Mid"}},
		TypeSpec{Name: "Other", Supertypes: []TypeName{"Mid"}},
	)

	b := NewBuilder(u)
	b.Bind(TypeName("I")).To(TypeName("Impl"))
	cfg := build(t, b)
	require.Equal(t, 2, cfg.Len())

	g, err := solve(t, u, cfg, root("Mid"))
	require.NoError(t, err)
	assert.Equal(t, Class(TypeName("Impl")), g.Roots()[0].Satisfaction)

	// A manual rule for the intermediate type outranks the generated one.
	b = NewBuilder(u)
	b.Bind(TypeName("I")).To(TypeName("Impl"))
	b.Bind(TypeName("Mid")).To(TypeName("Other"))
	cfg = build(t, b)

	g, err = solve(t, u, cfg, root("Mid"))
	require.NoError(t, err)
	assert.Equal(t, Class(TypeName("Other")), g.Roots()[0].Satisfaction)
}

func TestSolve_DefaultExclusion(t *testing.T) {
	u := NewUniverse()
	define(t, u,
		TypeSpec{Name: "I", Abstract: true},
		TypeSpec{Name: "Mid", Abstract: true, Supertypes: []TypeName{"I"}},
		TypeSpec{Name: "Impl", Supertypes: []TypeName{"Mid"}},
	)

	b := NewBuilder(u)
	b.AddDefaultExclusion(TypeName("Mid"))
	b.Bind(TypeName("I")).To(TypeName("Impl"))
	cfg := build(t, b)
	assert.Equal(t, 1, cfg.Len())

	_, err := solve(t, u, cfg, root("Mid"))
	assert.ErrorIs(t, err, ErrUnresolvable)

	b.RemoveDefaultExclusion(TypeName("Mid"))
	b.Bind(TypeName("I")).WithQualifier(Named("x")).To(TypeName("Impl"))
	cfg = build(t, b)
	assert.Equal(t, 3, cfg.Len())
}

func TestSolve_SharedDependencyIsMemoized(t *testing.T) {
	u := NewUniverse()
	define(t, u,
		TypeSpec{Name: "Foo", Constructors: ctor(point("Bar"), point("Bar"))},
		TypeSpec{Name: "Bar"},
	)

	g, err := solve(t, u, nil, root("Foo"))
	require.NoError(t, err)
	assert.Equal(t, 2, g.Len())
	deps := g.Dependencies(g.Roots()[0])
	require.Len(t, deps, 2)
	assert.Same(t, deps[0].To, deps[1].To)
	assert.Len(t, g.Dependents(deps[0].To), 2)
}

func TestSolve_SameTypeDifferentContexts(t *testing.T) {
	u := NewUniverse()
	define(t, u,
		TypeSpec{Name: "App", Constructors: ctor(point("Left"), point("Right"))},
		TypeSpec{Name: "Left", Constructors: ctor(point("Leaf"))},
		TypeSpec{Name: "Right", Constructors: ctor(point("Leaf"))},
		TypeSpec{Name: "Leaf"},
	)

	g, err := solve(t, u, nil, root("App"))
	require.NoError(t, err)
	// Leaf is resolved once under Left and once under Right.
	assert.Equal(t, 5, g.Len())
	assert.Equal(t, 4, g.Simplify().Len())
}

func TestSolve_AmbiguousConstructors(t *testing.T) {
	u := NewUniverse()
	define(t, u, TypeSpec{Name: "Foo", Constructors: [][]PointSpec{{point("Bar")}, {}}})

	_, err := solve(t, u, nil, root("Foo"))
	assert.ErrorIs(t, err, ErrInvalidBinding)
}

func TestSolve_Idempotent(t *testing.T) {
	u, cfg := largeFixture(t)
	s := NewSolver(cfg, u)

	g1, err := s.Solve(context.Background(), root("App"))
	require.NoError(t, err)
	g2, err := s.Solve(context.Background(), root("App"))
	require.NoError(t, err)

	if diff := cmp.Diff(shapeOf(g1), shapeOf(g2)); diff != "" {
		t.Errorf("graphs differ (-first +second):\n%s", diff)
	}
}

func TestSolve_Canceled(t *testing.T) {
	u, cfg := largeFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSolver(cfg, u).Solve(ctx, root("App"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

// largeFixture builds a small application graph with shared services,
// qualifiers and context-scoped bindings.
func largeFixture(t testing.TB) (*Universe, *Configuration) {
	t.Helper()
	u := NewUniverse()
	define(t, u,
		TypeSpec{Name: "App", Constructors: ctor(point("Web"), point("Worker"), point("Logger"))},
		TypeSpec{Name: "Web", Constructors: ctor(point("Repo"), point("Logger"), PointSpec{Type: IntType, Qualifier: QualifierOf("Port")})},
		TypeSpec{Name: "Worker", Constructors: ctor(point("Repo"), point("Queue"))},
		TypeSpec{Name: "Repo", Abstract: true},
		TypeSpec{Name: "SQLRepo", Supertypes: []TypeName{"Repo"}, Constructors: ctor(PointSpec{Type: "DB", Qualifier: Named("primary")})},
		TypeSpec{Name: "CachedRepo", Supertypes: []TypeName{"Repo"}, Constructors: ctor(point("SQLRepo"))},
		TypeSpec{Name: "DB", Abstract: true},
		TypeSpec{Name: "Queue", Abstract: true},
		TypeSpec{Name: "Logger"},
	)
	u.DefineQualifier("Port", Defaults{HasValue: true, Value: 8080})

	b := NewBuilder(u)
	b.Bind(TypeName("Repo")).To(TypeName("SQLRepo"))
	b.In(TypeName("Web")).Bind(TypeName("Repo")).To(TypeName("CachedRepo"))
	b.Bind(TypeName("DB")).WithQualifier(Named("primary")).ToInstance("postgres://primary")
	b.Bind(TypeName("Queue")).ToProviderInstance(&stubProvider{v: "queue"})
	return u, build(t, b)
}
