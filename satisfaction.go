package grapht

import (
	"fmt"
	"reflect"
)

// SatisfactionKind enumerates the closed set of construction recipes.
type SatisfactionKind uint8

const (
	ClassSatisfaction SatisfactionKind = iota + 1
	InstanceSatisfaction
	ProviderClassSatisfaction
	ProviderInstanceSatisfaction
	NullSatisfaction
)

func (k SatisfactionKind) String() string {
	switch k {
	case ClassSatisfaction:
		return "class"
	case InstanceSatisfaction:
		return "instance"
	case ProviderClassSatisfaction:
		return "provider-class"
	case ProviderInstanceSatisfaction:
		return "provider-instance"
	case NullSatisfaction:
		return "null"
	default:
		return "unknown"
	}
}

// Satisfaction is a concrete recipe for producing an instance of Type().
// It is a tagged union; switch on Kind() to reach the variant payload.
type Satisfaction struct {
	kind     SatisfactionKind
	typ      Type
	instance any
	provider Type
	pinst    Provider
}

// Class returns a satisfaction that constructs t through its injection points.
func Class(t Type) Satisfaction {
	return Satisfaction{kind: ClassSatisfaction, typ: t}
}

// Instance returns a satisfaction that always yields v as a value of type t.
// A nil v yields a Null satisfaction.
func Instance(v any, t Type) Satisfaction {
	if v == nil {
		return Null(t)
	}
	return Satisfaction{kind: InstanceSatisfaction, typ: t, instance: v}
}

// ProviderClass returns a satisfaction that constructs a provider of type
// provider and asks it for a value of type provided.
func ProviderClass(provider, provided Type) Satisfaction {
	return Satisfaction{kind: ProviderClassSatisfaction, typ: provided, provider: provider}
}

// ProviderInstance returns a satisfaction that asks p for a value of type
// provided.
func ProviderInstance(p Provider, provided Type) Satisfaction {
	return Satisfaction{kind: ProviderInstanceSatisfaction, typ: provided, pinst: p}
}

// Null returns a satisfaction that always produces nil for type t.
func Null(t Type) Satisfaction {
	return Satisfaction{kind: NullSatisfaction, typ: t}
}

// Kind returns the variant tag.
func (s Satisfaction) Kind() SatisfactionKind { return s.kind }

// Type returns the type of the produced value.
func (s Satisfaction) Type() Type { return s.typ }

// Instance returns the wrapped value of an Instance satisfaction.
func (s Satisfaction) Instance() any { return s.instance }

// ProviderType returns the provider type of a ProviderClass satisfaction.
func (s Satisfaction) ProviderType() Type { return s.provider }

// Provider returns the provider of a ProviderInstance satisfaction.
func (s Satisfaction) Provider() Provider { return s.pinst }

// IsZero reports whether s is the empty, invalid satisfaction.
func (s Satisfaction) IsZero() bool { return s.kind == 0 }

// Dependencies returns the desires that must be satisfied before s can
// produce a value. Only Class and ProviderClass satisfactions have any.
func (s Satisfaction) Dependencies(intro Introspector) ([]Desire, error) {
	var owner Type
	switch s.kind {
	case ClassSatisfaction:
		owner = s.typ
	case ProviderClassSatisfaction:
		owner = s.provider
	default:
		return nil, nil
	}

	points, err := intro.InjectionPoints(owner)
	if err != nil {
		return nil, err
	}
	desires := make([]Desire, len(points))
	for i, p := range points {
		desires[i] = NewDesire(p)
	}
	return desires, nil
}

// Equal reports whether two satisfactions describe the same recipe.
func (s Satisfaction) Equal(o Satisfaction) bool {
	return s.key() == o.key()
}

func (s Satisfaction) String() string {
	switch s.kind {
	case ClassSatisfaction:
		return "Class(" + typeString(s.typ) + ")"
	case InstanceSatisfaction:
		return fmt.Sprintf("Instance(%v, %s)", s.instance, typeString(s.typ))
	case ProviderClassSatisfaction:
		return "ProviderClass(" + typeString(s.provider) + " -> " + typeString(s.typ) + ")"
	case ProviderInstanceSatisfaction:
		return fmt.Sprintf("ProviderInstance(%T -> %s)", s.pinst, typeString(s.typ))
	case NullSatisfaction:
		return "Null(" + typeString(s.typ) + ")"
	default:
		return "Satisfaction(<zero>)"
	}
}

// satisfactionKey is the hashable identity of a satisfaction.
type satisfactionKey struct {
	kind     SatisfactionKind
	typ      Type
	provider Type
	payload  any
}

func (s Satisfaction) key() satisfactionKey {
	k := satisfactionKey{kind: s.kind, typ: s.typ, provider: s.provider}
	switch s.kind {
	case InstanceSatisfaction:
		k.payload = identity(s.instance)
	case ProviderInstanceSatisfaction:
		k.payload = identity(s.pinst)
	}
	return k
}

type pointerIdentity struct {
	typ reflect.Type
	ptr uintptr
}

// identity maps a value onto something safe to use inside a map key.
// Comparable values stand for themselves; reference values use their
// address; anything else falls back to its printed form.
func identity(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Comparable() {
		return v
	}
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Pointer, reflect.UnsafePointer:
		return pointerIdentity{typ: rv.Type(), ptr: rv.Pointer()}
	default:
		return fmt.Sprintf("%T:%#v", v, v)
	}
}
