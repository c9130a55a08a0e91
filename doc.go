// Package grapht resolves dependency-injection graphs whose bindings depend
// on where in the object graph a dependency is requested.
//
// # Resolution
//
// A solve starts from one or more root [Desire] values. Each desire is
// narrowed in two phases:
//
//  1. Rules: the best matching [BindRule] whose [ContextChain] matches the
//     current [InjectionContext] is applied, repeatedly, until a terminal
//     rule is applied or no unapplied rule matches.
//  2. Defaults: when no rule leaves the desire with a [Satisfaction], the
//     qualifier and type defaults reported by the [Introspector] are
//     consulted, then a concrete type is constructed directly, then a
//     nullable point receives null.
//
// Once a desire carries a satisfaction, its own injection points are
// resolved in the context extended by that satisfaction. Nodes are memoized
// by satisfaction and context, so the result is a [Graph] in which each
// (satisfaction, context) pair appears once.
//
// # Rule selection
//
// When several rules apply, the rule whose chain is most specific wins
// ([ContextChain.Compare]), then the heavier rule ([WeightManual] beats
// [WeightGenerated]), then the rule with the more specific
// [QualifierMatcher]. Remaining ties go to the rule registered first.
//
// # Usage
//
//	u := grapht.NewUniverse()
//	u.Define(grapht.TypeSpec{Name: "Service", Abstract: true})
//	u.Define(grapht.TypeSpec{Name: "DBService", Supertypes: []grapht.TypeName{"Service"}})
//
//	b := grapht.NewBuilder(u)
//	b.Bind(grapht.TypeName("Service")).To(grapht.TypeName("DBService"))
//	cfg, err := b.Build()
//	if err != nil { ... }
//
//	s := grapht.NewSolver(cfg, u, grapht.WithLogger(logger))
//	g, err := s.Resolve(ctx, grapht.TypeName("Service"), grapht.Qualifier{})
//
// # Errors
//
// Failures are typed and match sentinel errors with [errors.Is]:
// [InvalidBindingError] ([ErrInvalidBinding]), [UnresolvableDesireError]
// ([ErrUnresolvable]), [NullDependencyError] ([ErrNullDependency]) and
// [CyclicDependencyError] ([ErrCyclic]).
package grapht
