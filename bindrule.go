package grapht

import "strconv"

// Rule weights. Manual rules always outrank generated ones.
const (
	WeightGenerated = 0
	WeightManual    = 1
)

// BindRule overrides how desires for one (type, qualifier) pair are
// satisfied. It either fixes a satisfaction or narrows the desire to a
// more specific type.
type BindRule struct {
	source       Type
	qualifier    QualifierMatcher
	target       Type
	satisfaction Satisfaction
	weight       int
	terminal     bool
}

// BindType returns a manual, non-terminal rule narrowing source to target.
func BindType(source Type, qm QualifierMatcher, target Type) BindRule {
	return BindRule{source: source, qualifier: qm, target: target, weight: WeightManual}
}

// BindSatisfaction returns a manual rule satisfying source with sat. Such
// rules always end narrowing.
func BindSatisfaction(source Type, qm QualifierMatcher, sat Satisfaction) BindRule {
	return BindRule{
		source:       source,
		qualifier:    qm,
		target:       sat.Type(),
		satisfaction: sat,
		weight:       WeightManual,
		terminal:     true,
	}
}

// BindInstance binds source to a fixed value. A nil value binds to null.
func BindInstance(source Type, qm QualifierMatcher, v any) BindRule {
	return BindSatisfaction(source, qm, Instance(v, source))
}

// BindProvider binds source to the product of a provider type.
func BindProvider(source Type, qm QualifierMatcher, provider Type) BindRule {
	return BindSatisfaction(source, qm, ProviderClass(provider, source))
}

// BindProviderInstance binds source to the product of p.
func BindProviderInstance(source Type, qm QualifierMatcher, p Provider) BindRule {
	return BindSatisfaction(source, qm, ProviderInstance(p, source))
}

// BindNull binds source to null.
func BindNull(source Type, qm QualifierMatcher) BindRule {
	return BindSatisfaction(source, qm, Null(source))
}

// WithWeight returns a copy of r with the given weight.
func (r BindRule) WithWeight(w int) BindRule {
	r.weight = w
	return r
}

// WithTerminal returns a copy of r with the terminal flag set. Rules with a
// fixed satisfaction stay terminal.
func (r BindRule) WithTerminal(terminal bool) BindRule {
	r.terminal = terminal || !r.satisfaction.IsZero()
	return r
}

func (r BindRule) Source() Type { return r.source }
func (r BindRule) Qualifier() QualifierMatcher { return r.qualifier }
func (r BindRule) Target() Type { return r.target }
func (r BindRule) Satisfaction() Satisfaction { return r.satisfaction }
func (r BindRule) Weight() int { return r.weight }

// Terminal reports whether applying r ends narrowing in the current context.
func (r BindRule) Terminal() bool { return r.terminal }

// Validate checks that the rule's target can stand in for its source.
func (r BindRule) Validate(intro Introspector) error {
	if r.source == nil || r.target == nil {
		return &InvalidBindingError{Source: r.source, Target: r.target, Reason: "rule has no source or target type"}
	}
	if r.satisfaction.Kind() == NullSatisfaction {
		return nil
	}
	if r.target != r.source && !intro.Assignable(r.target, r.source) {
		return &InvalidBindingError{Source: r.source, Target: r.target, Reason: "target is not assignable to source"}
	}
	return nil
}

// Matches reports whether the rule applies to d. The desired type must be
// exactly the rule's source type; subtypes are reached through generated
// rules instead. A null-producing rule never matches a non-nullable desire.
func (r BindRule) Matches(d Desire) bool {
	if d.Type() != r.source {
		return false
	}
	if !r.qualifier.Matches(d.Qualifier()) {
		return false
	}
	if r.satisfaction.Kind() == NullSatisfaction && !d.Nullable() {
		return false
	}
	return true
}

// Apply narrows d according to the rule. A type rule whose target is
// concrete attaches a Class satisfaction; otherwise the result is left for
// further narrowing.
func (r BindRule) Apply(intro Introspector, d Desire) (Desire, error) {
	if !r.satisfaction.IsZero() {
		return narrowedDesire(intro, d, r.target, r.satisfaction)
	}
	var sat Satisfaction
	if intro.Concrete(r.target) {
		sat = Class(r.target)
	}
	return narrowedDesire(intro, d, r.target, sat)
}

func (r BindRule) String() string {
	s := "BindRule(" + typeString(r.source)
	if !r.qualifier.IsAny() {
		s += " " + r.qualifier.String()
	}
	if r.satisfaction.IsZero() {
		s += " -> " + typeString(r.target)
	} else {
		s += " -> " + r.satisfaction.String()
	}
	s += ", weight=" + strconv.Itoa(r.weight)
	if r.terminal {
		s += ", terminal"
	}
	return s + ")"
}

// compareRules orders two rules that matched under equally specific
// context chains: higher weight first, then the more specific qualifier
// matcher.
func compareRules(a, b BindRule) int {
	if a.weight != b.weight {
		return b.weight - a.weight
	}
	return a.qualifier.Compare(b.qualifier)
}
