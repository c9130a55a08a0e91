package grapht

import "strconv"

// Type is an opaque, comparable token identifying a class or interface.
// The solver never inspects a Type itself; every structural question is
// asked of the Introspector that produced it. Implementations must be
// usable as map keys.
type Type interface {
	String() string
}

// TypeName is the Type token used by Universe and the manifest, script and
// source front-ends.
type TypeName string

func (t TypeName) String() string { return string(t) }

// InjectionPoint is a single parameter of a type that requires a value.
// Root desires use a synthetic point with a nil Owner and Index -1.
type InjectionPoint struct {
	Owner     Type
	Index     int
	Type      Type
	Qualifier Qualifier
	Nullable  bool
}

// RootPoint returns the synthetic injection point used for root desires.
func RootPoint(t Type, q Qualifier, nullable bool) InjectionPoint {
	return InjectionPoint{Index: -1, Type: t, Qualifier: q, Nullable: nullable}
}

// IsRoot reports whether the point is synthetic (not owned by any type).
func (p InjectionPoint) IsRoot() bool {
	return p.Owner == nil
}

func (p InjectionPoint) String() string {
	s := typeString(p.Type)
	if !p.Qualifier.IsZero() {
		s = p.Qualifier.String() + " " + s
	}
	if p.Owner != nil {
		s = typeString(p.Owner) + "[" + strconv.Itoa(p.Index) + "]:" + s
	}
	return s
}

// Defaults describes the default-resolution metadata attached to a qualifier
// class or a type. The zero value declares nothing.
type Defaults struct {
	// HasValue marks Value as a literal default (nil included).
	HasValue  bool
	Value     any
	ValueType Type

	// Implementation is a narrower type to use when nothing is bound.
	Implementation Type

	// Provider is a provider type whose product satisfies the type.
	Provider Type
}

// IsZero reports whether no default is declared.
func (d Defaults) IsZero() bool {
	return !d.HasValue && d.Implementation == nil && d.Provider == nil
}

// Introspector answers the structural questions the solver needs about
// types. It is the only place type metadata comes from.
type Introspector interface {
	// InjectionPoints returns the ordered injection points of t. An error
	// is returned when t declares an ambiguous construction recipe.
	InjectionPoints(t Type) ([]InjectionPoint, error)

	// Assignable reports whether a value of type from can be used where
	// type to is expected (from equals to or is a subtype of it).
	Assignable(from, to Type) bool

	// Concrete reports whether t can be instantiated directly.
	Concrete(t Type) bool

	// QualifierDefaults returns the defaults declared on q's class.
	QualifierDefaults(q Qualifier) Defaults

	// TypeDefaults returns the defaults declared on t.
	TypeDefaults(t Type) Defaults

	// ProvidedType returns the type produced by a provider type.
	ProvidedType(provider Type) (Type, bool)
}

// SupertypeLister is implemented by introspectors that can enumerate the
// supertypes of a type. The configuration builder uses it to generate
// bind rules.
type SupertypeLister interface {
	Supertypes(t Type) []Type
}

// Provider produces instances on demand. Provider instances can be bound
// directly with BindProviderInstance.
type Provider interface {
	Provide() (any, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func() (any, error)

func (f ProviderFunc) Provide() (any, error) { return f() }

func typeString(t Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
