package grapht

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrInvalidBinding is matched by every InvalidBindingError.
	ErrInvalidBinding = errors.New("grapht: invalid binding")

	// ErrUnresolvable is matched by every UnresolvableDesireError.
	ErrUnresolvable = errors.New("grapht: unresolvable desire")

	// ErrNullDependency is matched by every NullDependencyError.
	ErrNullDependency = errors.New("grapht: null dependency")

	// ErrCyclic is matched by every CyclicDependencyError.
	ErrCyclic = errors.New("grapht: cyclic dependency")
)

// InvalidBindingError reports a bind rule whose target cannot stand in for
// its source, or a type whose construction recipe is ambiguous.
type InvalidBindingError struct {
	Source Type
	Target Type
	Reason string
}

func (e *InvalidBindingError) Error() string {
	var b strings.Builder
	b.WriteString("grapht: invalid binding")
	if e.Source != nil {
		b.WriteString(" for ")
		b.WriteString(e.Source.String())
	}
	if e.Target != nil {
		b.WriteString(" -> ")
		b.WriteString(e.Target.String())
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	return b.String()
}

func (e *InvalidBindingError) Unwrap() error { return ErrInvalidBinding }

// UnresolvableDesireError reports a non-nullable desire for which no rule,
// default or concrete fallback exists.
type UnresolvableDesireError struct {
	Desire  Desire
	Context InjectionContext
}

func (e *UnresolvableDesireError) Error() string {
	return "grapht: unable to satisfy " + e.Desire.String() + " in context " + e.Context.String()
}

func (e *UnresolvableDesireError) Unwrap() error { return ErrUnresolvable }

// NullDependencyError reports a non-nullable injection point that resolved
// to a null-producing satisfaction.
type NullDependencyError struct {
	Point   InjectionPoint
	Context InjectionContext
}

func (e *NullDependencyError) Error() string {
	return "grapht: no component available for non-nullable injection point " + e.Point.String() +
		" in context " + e.Context.String()
}

func (e *NullDependencyError) Unwrap() error { return ErrNullDependency }

// CyclicDependencyError reports a satisfaction that would be constructed
// inside its own ancestry, or a binding chain that loops back on a type it
// already narrowed.
type CyclicDependencyError struct {
	Desire  Desire
	Context InjectionContext
	Path    []Type
}

func (e *CyclicDependencyError) Error() string {
	var b strings.Builder
	b.WriteString("grapht: cyclic dependency on ")
	b.WriteString(e.Desire.String())
	if len(e.Path) > 0 {
		b.WriteString(" via ")
		for i, t := range e.Path {
			if i > 0 {
				b.WriteString(" -> ")
			}
			b.WriteString(typeString(t))
		}
	}
	b.WriteString(" in context ")
	b.WriteString(e.Context.String())
	return b.String()
}

func (e *CyclicDependencyError) Unwrap() error { return ErrCyclic }

// errorKind labels err for metrics.
func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidBinding):
		return "invalid_binding"
	case errors.Is(err, ErrUnresolvable):
		return "unresolvable"
	case errors.Is(err, ErrNullDependency):
		return "null_dependency"
	case errors.Is(err, ErrCyclic):
		return "cyclic"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "other"
	}
}
