package grapht

import "strings"

// ContextChain scopes a bind rule to the contexts in which its elements
// appear in order, root-most first. The empty chain applies everywhere.
type ContextChain struct {
	elems []ContextElement
}

// NewContextChain returns a chain over the given elements, root-most first.
func NewContextChain(elems ...ContextElement) ContextChain {
	return ContextChain{elems: append([]ContextElement(nil), elems...)}
}

// RootChain returns the empty chain.
func RootChain() ContextChain { return ContextChain{} }

// Push returns a chain with e nested inside the existing elements.
func (c ContextChain) Push(e ContextElement) ContextChain {
	elems := make([]ContextElement, len(c.elems), len(c.elems)+1)
	copy(elems, c.elems)
	return ContextChain{elems: append(elems, e)}
}

// Elements returns a copy of the chain's elements.
func (c ContextChain) Elements() []ContextElement {
	return append([]ContextElement(nil), c.elems...)
}

// Len returns the number of elements.
func (c ContextChain) Len() int { return len(c.elems) }

// Pattern returns the chain as an unanchored subsequence pattern.
func (c ContextChain) Pattern() ContextPattern {
	return Subsequence(c.elems...)
}

// Matches reports whether ctx contains the chain's elements in order.
func (c ContextChain) Matches(intro Introspector, ctx InjectionContext) bool {
	if len(c.elems) == 0 {
		return true
	}
	return c.Pattern().Matches(intro, ctx) != nil
}

// Compare orders chains by specificity; negative means c is more specific.
// A chain with more typed elements wins. Otherwise elements are compared
// from the leaf outward, a missing element ranking below any present one.
func (c ContextChain) Compare(o ContextChain) int {
	if d := o.typedCount() - c.typedCount(); d != 0 {
		return d
	}
	i, j := len(c.elems)-1, len(o.elems)-1
	for i >= 0 || j >= 0 {
		switch {
		case i < 0:
			return 1
		case j < 0:
			return -1
		}
		if d := c.elems[i].Compare(o.elems[j]); d != 0 {
			return d
		}
		i--
		j--
	}
	return 0
}

func (c ContextChain) typedCount() int {
	n := 0
	for _, e := range c.elems {
		if !e.IsWildcard() {
			n++
		}
	}
	return n
}

// Key returns a string usable as a map key for the chain.
func (c ContextChain) Key() string {
	return c.String()
}

func (c ContextChain) String() string {
	parts := make([]string, len(c.elems))
	for i, e := range c.elems {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, " / ") + "]"
}
