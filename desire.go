package grapht

// Desire is a possibly unresolved request for a dependency. A desire is
// instantiable once it carries a satisfaction.
type Desire struct {
	typ          Type
	point        InjectionPoint
	satisfaction Satisfaction
}

// NewDesire returns the unresolved desire for an injection point; the
// desired type starts out as the point's declared type.
func NewDesire(p InjectionPoint) Desire {
	return Desire{typ: p.Type, point: p}
}

// RootDesire returns an unresolved desire for a root request.
func RootDesire(t Type, q Qualifier, nullable bool) Desire {
	return NewDesire(RootPoint(t, q, nullable))
}

// narrowedDesire builds the desire for narrower type t at the same
// injection point, checking the assignability invariants.
func narrowedDesire(intro Introspector, d Desire, t Type, sat Satisfaction) (Desire, error) {
	if t != d.point.Type && !intro.Assignable(t, d.point.Type) {
		return Desire{}, &InvalidBindingError{
			Source: d.point.Type,
			Target: t,
			Reason: "narrowed type is not assignable to the injection point type",
		}
	}
	if !sat.IsZero() && sat.Kind() != NullSatisfaction && sat.Type() != t && !intro.Assignable(sat.Type(), t) {
		return Desire{}, &InvalidBindingError{
			Source: t,
			Target: sat.Type(),
			Reason: "satisfaction type is not assignable to the desired type",
		}
	}
	return Desire{typ: t, point: d.point, satisfaction: sat}, nil
}

// Type returns the currently desired type.
func (d Desire) Type() Type { return d.typ }

// Point returns the injection point the desire will be injected into.
func (d Desire) Point() InjectionPoint { return d.point }

// Qualifier returns the qualifier of the injection point.
func (d Desire) Qualifier() Qualifier { return d.point.Qualifier }

// Nullable reports whether the injection point accepts null.
func (d Desire) Nullable() bool { return d.point.Nullable }

// Instantiable reports whether the desire carries a satisfaction.
func (d Desire) Instantiable() bool { return !d.satisfaction.IsZero() }

// Satisfaction returns the attached satisfaction, or the zero value.
func (d Desire) Satisfaction() Satisfaction { return d.satisfaction }

func (d Desire) String() string {
	s := "Desire(" + typeString(d.typ)
	if !d.point.Qualifier.IsZero() {
		s += ", " + d.point.Qualifier.String()
	}
	if d.Instantiable() {
		s += " => " + d.satisfaction.String()
	}
	return s + ")"
}
