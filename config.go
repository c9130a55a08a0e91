package grapht

import (
	"errors"
	"fmt"
)

// Configuration is the compiled table of bind rules keyed by context
// chain. It is immutable once built and safe for concurrent solves.
type Configuration struct {
	entries []configEntry
	index   map[string]int
	size    int
}

type configEntry struct {
	chain ContextChain
	rules []BindRule
}

// NewConfiguration returns an empty configuration. Rules are added with
// Add before the configuration is handed to a Solver.
func NewConfiguration() *Configuration {
	return &Configuration{index: make(map[string]int)}
}

// Add appends a rule under the given chain.
func (c *Configuration) Add(chain ContextChain, rule BindRule) {
	key := chain.Key()
	i, ok := c.index[key]
	if !ok {
		i = len(c.entries)
		c.index[key] = i
		c.entries = append(c.entries, configEntry{chain: chain})
	}
	c.entries[i].rules = append(c.entries[i].rules, rule)
	c.size++
}

// Chains returns the distinct chains in registration order.
func (c *Configuration) Chains() []ContextChain {
	chains := make([]ContextChain, len(c.entries))
	for i, e := range c.entries {
		chains[i] = e.chain
	}
	return chains
}

// Rules returns the rules registered under chain.
func (c *Configuration) Rules(chain ContextChain) []BindRule {
	i, ok := c.index[chain.Key()]
	if !ok {
		return nil
	}
	return append([]BindRule(nil), c.entries[i].rules...)
}

// Len returns the total number of rules.
func (c *Configuration) Len() int { return c.size }

// Validate checks every rule against intro.
func (c *Configuration) Validate(intro Introspector) error {
	var errs []error
	for _, e := range c.entries {
		for _, r := range e.rules {
			if err := r.Validate(intro); err != nil {
				errs = append(errs, fmt.Errorf("grapht: rule %s in %s: %w", r, e.chain, err))
			}
		}
	}
	return errors.Join(errs...)
}

// Builder accumulates bind rules. Builders returned by In share the rule
// table of their parent and add their own context element to each rule.
type Builder struct {
	intro Introspector
	chain ContextChain
	state *builderState
}

type builderState struct {
	config   *Configuration
	excludes map[Type]bool
	errs     []error
}

// NewBuilder returns a root builder. intro is used to validate rules and,
// when it implements SupertypeLister, to generate rules for intermediate
// types.
func NewBuilder(intro Introspector) *Builder {
	return &Builder{
		intro: intro,
		state: &builderState{
			config:   NewConfiguration(),
			excludes: make(map[Type]bool),
		},
	}
}

// In returns a builder whose rules only apply while constructing t.
func (b *Builder) In(t Type) *Builder {
	return b.Within(MatchType(t))
}

// InQualified returns a builder whose rules only apply while constructing
// t for a desire whose qualifier qm accepts.
func (b *Builder) InQualified(qm QualifierMatcher, t Type) *Builder {
	return b.Within(MatchQualifiedType(qm, t))
}

// Within nests the builder's context under an arbitrary element.
func (b *Builder) Within(e ContextElement) *Builder {
	return &Builder{intro: b.intro, chain: b.chain.Push(e), state: b.state}
}

// Chain returns the context chain rules from this builder are scoped to.
func (b *Builder) Chain() ContextChain { return b.chain }

// AddDefaultExclusion stops t from receiving generated rules. Manual rules
// naming t are unaffected.
func (b *Builder) AddDefaultExclusion(t Type) {
	b.state.excludes[t] = true
}

// RemoveDefaultExclusion undoes AddDefaultExclusion.
func (b *Builder) RemoveDefaultExclusion(t Type) {
	delete(b.state.excludes, t)
}

// AddRule registers a prebuilt rule in the builder's context.
func (b *Builder) AddRule(r BindRule) {
	if err := r.Validate(b.intro); err != nil {
		b.state.errs = append(b.state.errs, err)
		return
	}
	b.state.config.Add(b.chain, r)
}

// Bind starts a binding for desires of type t.
func (b *Builder) Bind(t Type) *Binding {
	return &Binding{builder: b, source: t, qualifier: MatchNone(), generate: true}
}

// BindParameter binds every qualifier of the given class, on a point whose
// type is the literal's type, to value.
func (b *Builder) BindParameter(class string, value any) {
	t := LiteralType(value)
	if t == nil {
		b.state.errs = append(b.state.errs, &InvalidBindingError{
			Reason: fmt.Sprintf("parameter @%s: unsupported value type %T", class, value),
		})
		return
	}
	b.AddRule(BindInstance(t, MatchClass(class), value))
}

// Build returns the configuration, or the joined errors of every rejected
// binding.
func (b *Builder) Build() (*Configuration, error) {
	if len(b.state.errs) > 0 {
		return nil, errors.Join(b.state.errs...)
	}
	out := NewConfiguration()
	for _, e := range b.state.config.entries {
		for _, r := range e.rules {
			out.Add(e.chain, r)
		}
	}
	return out, nil
}

// Binding configures rules for one source type.
type Binding struct {
	builder   *Builder
	source    Type
	qualifier QualifierMatcher
	terminal  bool
	generate  bool
	excludes  map[Type]bool
}

// WithQualifier restricts the binding to desires qualified with q.
func (bd *Binding) WithQualifier(q Qualifier) *Binding {
	bd.qualifier = MatchQualifier(q)
	return bd
}

// WithQualifierClass restricts the binding to qualifiers of one class.
func (bd *Binding) WithQualifierClass(class string) *Binding {
	bd.qualifier = MatchClass(class)
	return bd
}

// WithAnyQualifier lets the binding match qualified and unqualified desires.
func (bd *Binding) WithAnyQualifier() *Binding {
	bd.qualifier = MatchAny()
	return bd
}

// WithQualifierMatcher restricts the binding to qualifiers qm accepts.
func (bd *Binding) WithQualifierMatcher(qm QualifierMatcher) *Binding {
	bd.qualifier = qm
	return bd
}

// Final makes a type binding terminal.
func (bd *Binding) Final() *Binding {
	bd.terminal = true
	return bd
}

// Exclude stops t from receiving a generated rule from this binding.
func (bd *Binding) Exclude(t Type) *Binding {
	if bd.excludes == nil {
		bd.excludes = make(map[Type]bool)
	}
	bd.excludes[t] = true
	return bd
}

// NoGenerated disables generated rules for this binding.
func (bd *Binding) NoGenerated() *Binding {
	bd.generate = false
	return bd
}

// To narrows the source type to target. When the builder's introspector
// lists supertypes, every supertype of target between it and the source
// also gets a generated rule to target.
func (bd *Binding) To(target Type) {
	rule := BindType(bd.source, bd.qualifier, target).WithTerminal(bd.terminal)
	bd.builder.AddRule(rule)
	if !bd.generate {
		return
	}
	for _, t := range bd.generatedSources(target) {
		bd.builder.state.config.Add(bd.builder.chain,
			BindType(t, bd.qualifier, target).WithTerminal(bd.terminal).WithWeight(WeightGenerated))
	}
}

// ToInstance binds the source type to a fixed value.
func (bd *Binding) ToInstance(v any) {
	bd.builder.AddRule(BindInstance(bd.source, bd.qualifier, v))
}

// ToProvider binds the source type to the product of a provider type.
func (bd *Binding) ToProvider(provider Type) {
	provided, ok := bd.builder.intro.ProvidedType(provider)
	if !ok {
		provided = bd.source
	}
	bd.builder.AddRule(BindSatisfaction(bd.source, bd.qualifier, ProviderClass(provider, provided)))
}

// ToProviderInstance binds the source type to the product of p.
func (bd *Binding) ToProviderInstance(p Provider) {
	bd.builder.AddRule(BindProviderInstance(bd.source, bd.qualifier, p))
}

// ToNull binds the source type to null. It only affects nullable points.
func (bd *Binding) ToNull() {
	bd.builder.AddRule(BindNull(bd.source, bd.qualifier))
}

// generatedSources walks the supertypes of target and returns those that
// lie strictly between target and the binding's source.
func (bd *Binding) generatedSources(target Type) []Type {
	lister, ok := bd.builder.intro.(SupertypeLister)
	if !ok {
		return nil
	}
	intro := bd.builder.intro
	seen := map[Type]bool{target: true, bd.source: true}
	queue := append([]Type(nil), lister.Supertypes(target)...)
	var out []Type
	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]
		if seen[t] {
			continue
		}
		seen[t] = true
		if !intro.Assignable(t, bd.source) {
			continue
		}
		queue = append(queue, lister.Supertypes(t)...)
		if bd.builder.state.excludes[t] || bd.excludes[t] {
			continue
		}
		out = append(out, t)
	}
	return out
}
