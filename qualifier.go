package grapht

import "strconv"

// Qualifier discriminates between several bindings of the same type, in the
// way an annotation such as @Named("x") would. Class names the qualifier
// kind and Value carries its attribute. The zero Qualifier means
// "unqualified".
type Qualifier struct {
	Class string
	Value string
}

// Named returns the conventional Named qualifier.
func Named(value string) Qualifier {
	return Qualifier{Class: "Named", Value: value}
}

// QualifierOf returns a qualifier of the given class with no value.
func QualifierOf(class string) Qualifier {
	return Qualifier{Class: class}
}

// IsZero reports whether q is the absent qualifier.
func (q Qualifier) IsZero() bool {
	return q.Class == ""
}

func (q Qualifier) String() string {
	if q.IsZero() {
		return "@none"
	}
	if q.Value == "" {
		return "@" + q.Class
	}
	return "@" + q.Class + "(" + strconv.Quote(q.Value) + ")"
}

type qualifierMatchKind uint8

// Declaration order is specificity order, most specific first. Exact
// instance matches outrank match-none; the two never accept the same
// qualifier, so the tie-break only has to be consistent.
const (
	matchExact qualifierMatchKind = iota
	matchNone
	matchClass
	matchAny
)

// QualifierMatcher is a predicate over qualifiers used by bind rules and
// context elements. Matchers are comparable values.
type QualifierMatcher struct {
	kind      qualifierMatchKind
	qualifier Qualifier
}

// MatchQualifier matches qualifiers equal to q. Matching the zero qualifier
// is the same as MatchNone.
func MatchQualifier(q Qualifier) QualifierMatcher {
	if q.IsZero() {
		return MatchNone()
	}
	return QualifierMatcher{kind: matchExact, qualifier: q}
}

// MatchClass matches every qualifier of the given class.
func MatchClass(class string) QualifierMatcher {
	return QualifierMatcher{kind: matchClass, qualifier: Qualifier{Class: class}}
}

// MatchAny matches every qualifier, including the absent one.
func MatchAny() QualifierMatcher {
	return QualifierMatcher{kind: matchAny}
}

// MatchNone matches only the absent qualifier.
func MatchNone() QualifierMatcher {
	return QualifierMatcher{kind: matchNone}
}

// Matches reports whether q is accepted.
func (m QualifierMatcher) Matches(q Qualifier) bool {
	switch m.kind {
	case matchExact:
		return q == m.qualifier
	case matchClass:
		return !q.IsZero() && q.Class == m.qualifier.Class
	case matchAny:
		return true
	case matchNone:
		return q.IsZero()
	default:
		return false
	}
}

// Compare orders matchers by specificity: it returns a negative number when
// m is more specific than o, a positive number when it is less specific and
// zero when they share a tier.
func (m QualifierMatcher) Compare(o QualifierMatcher) int {
	return int(m.kind) - int(o.kind)
}

// IsAny reports whether m accepts every qualifier.
func (m QualifierMatcher) IsAny() bool {
	return m.kind == matchAny
}

func (m QualifierMatcher) String() string {
	switch m.kind {
	case matchExact:
		return m.qualifier.String()
	case matchClass:
		return "@" + m.qualifier.Class + "(*)"
	case matchNone:
		return "@none"
	default:
		return "@any"
	}
}
