package grapht

import (
	"fmt"
	"slices"
	"sync"
)

// PointSpec declares one injection point of a registered type.
type PointSpec struct {
	Type      TypeName
	Qualifier Qualifier
	Nullable  bool
}

// TypeSpec registers a type with a Universe.
type TypeSpec struct {
	Name TypeName

	// Abstract types (interfaces) cannot be constructed directly.
	Abstract bool

	// Supertypes lists the direct supertypes of the type.
	Supertypes []TypeName

	// Constructors lists the injectable constructors. At most one is
	// allowed; declaring more is reported when the type is resolved.
	Constructors [][]PointSpec

	// Setters are injection points filled after construction.
	Setters []PointSpec

	// Provides marks the type as a provider of the named type.
	Provides TypeName

	Defaults Defaults
}

// Universe is an Introspector over explicitly registered types. It is safe
// for concurrent use; definitions should be complete before a solve
// starts.
type Universe struct {
	mu         sync.RWMutex
	types      map[TypeName]*TypeSpec
	order      []TypeName
	qualifiers map[string]Defaults
}

var (
	_ Introspector    = (*Universe)(nil)
	_ SupertypeLister = (*Universe)(nil)
)

// NewUniverse returns an empty Universe.
func NewUniverse() *Universe {
	return &Universe{
		types:      make(map[TypeName]*TypeSpec),
		qualifiers: make(map[string]Defaults),
	}
}

// Define registers spec, replacing an earlier definition of the same name.
func (u *Universe) Define(spec TypeSpec) error {
	if spec.Name == "" {
		return fmt.Errorf("grapht: define: type name is empty")
	}
	if slices.Contains(spec.Supertypes, spec.Name) {
		return fmt.Errorf("grapht: define %s: type lists itself as a supertype", spec.Name)
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.types[spec.Name]; !ok {
		u.order = append(u.order, spec.Name)
	}
	cp := spec
	cp.Supertypes = slices.Clone(spec.Supertypes)
	cp.Setters = slices.Clone(spec.Setters)
	cp.Constructors = make([][]PointSpec, len(spec.Constructors))
	for i, c := range spec.Constructors {
		cp.Constructors[i] = slices.Clone(c)
	}
	u.types[spec.Name] = &cp
	return nil
}

// DefineQualifier registers the defaults of a qualifier class.
func (u *Universe) DefineQualifier(class string, d Defaults) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.qualifiers[class] = d
}

// Lookup returns the definition of t.
func (u *Universe) Lookup(t Type) (TypeSpec, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	spec, ok := u.spec(t)
	if !ok {
		return TypeSpec{}, false
	}
	return *spec, true
}

// Types returns the registered type names in definition order.
func (u *Universe) Types() []TypeName {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return slices.Clone(u.order)
}

// Qualifiers returns the registered qualifier classes and their defaults.
func (u *Universe) Qualifiers() map[string]Defaults {
	u.mu.RLock()
	defer u.mu.RUnlock()
	out := make(map[string]Defaults, len(u.qualifiers))
	for k, v := range u.qualifiers {
		out[k] = v
	}
	return out
}

func (u *Universe) spec(t Type) (*TypeSpec, bool) {
	if t == nil {
		return nil, false
	}
	name, ok := t.(TypeName)
	if !ok {
		name = TypeName(t.String())
	}
	spec, ok := u.types[name]
	return spec, ok
}

// InjectionPoints returns the constructor points followed by the setter
// points of t. Unknown types have none.
func (u *Universe) InjectionPoints(t Type) ([]InjectionPoint, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	spec, ok := u.spec(t)
	if !ok {
		return nil, nil
	}
	if len(spec.Constructors) > 1 {
		return nil, &InvalidBindingError{Source: t, Reason: "more than one injectable constructor"}
	}
	var specs []PointSpec
	if len(spec.Constructors) == 1 {
		specs = append(specs, spec.Constructors[0]...)
	}
	specs = append(specs, spec.Setters...)

	points := make([]InjectionPoint, len(specs))
	for i, ps := range specs {
		points[i] = InjectionPoint{
			Owner:     spec.Name,
			Index:     i,
			Type:      ps.Type,
			Qualifier: ps.Qualifier,
			Nullable:  ps.Nullable,
		}
	}
	return points, nil
}

// Assignable reports whether from is to or reaches it through supertypes.
func (u *Universe) Assignable(from, to Type) bool {
	if from == nil || to == nil {
		return false
	}
	if from == to || from.String() == to.String() {
		return true
	}
	u.mu.RLock()
	defer u.mu.RUnlock()
	seen := make(map[TypeName]bool)
	queue := []Type{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		spec, ok := u.spec(cur)
		if !ok {
			continue
		}
		for _, st := range spec.Supertypes {
			if st.String() == to.String() {
				return true
			}
			if !seen[st] {
				seen[st] = true
				queue = append(queue, st)
			}
		}
	}
	return false
}

// Concrete reports whether t is registered and not abstract.
func (u *Universe) Concrete(t Type) bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	spec, ok := u.spec(t)
	return ok && !spec.Abstract
}

func (u *Universe) QualifierDefaults(q Qualifier) Defaults {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.qualifiers[q.Class]
}

func (u *Universe) TypeDefaults(t Type) Defaults {
	u.mu.RLock()
	defer u.mu.RUnlock()
	spec, ok := u.spec(t)
	if !ok {
		return Defaults{}
	}
	return spec.Defaults
}

func (u *Universe) ProvidedType(provider Type) (Type, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	spec, ok := u.spec(provider)
	if !ok || spec.Provides == "" {
		return nil, false
	}
	return spec.Provides, true
}

// Supertypes returns the direct supertypes of t.
func (u *Universe) Supertypes(t Type) []Type {
	u.mu.RLock()
	defer u.mu.RUnlock()
	spec, ok := u.spec(t)
	if !ok {
		return nil
	}
	out := make([]Type, len(spec.Supertypes))
	for i, st := range spec.Supertypes {
		out[i] = st
	}
	return out
}
