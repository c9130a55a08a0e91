package grapht

import "strings"

type elementKind uint8

// Declaration order is specificity order, most specific first.
const (
	elementType elementKind = iota
	elementWildcard
	elementAnyNumber
)

// ContextElement matches a single node of an injection context, or, for
// AnyNumber, any run of nodes.
type ContextElement struct {
	kind      elementKind
	typ       Type
	qualifier QualifierMatcher
}

// MatchType matches nodes whose type is t or a subtype of t, whatever their
// qualifier.
func MatchType(t Type) ContextElement {
	return ContextElement{kind: elementType, typ: t, qualifier: MatchAny()}
}

// MatchQualifiedType matches nodes whose type is assignable to t and whose
// qualifier is accepted by qm.
func MatchQualifiedType(qm QualifierMatcher, t Type) ContextElement {
	return ContextElement{kind: elementType, typ: t, qualifier: qm}
}

// MatchAnyNode matches exactly one node of any type.
func MatchAnyNode() ContextElement {
	return ContextElement{kind: elementWildcard, qualifier: MatchAny()}
}

// AnyNumber matches zero or more nodes of any type.
func AnyNumber() ContextElement {
	return ContextElement{kind: elementAnyNumber, qualifier: MatchAny()}
}

// Type returns the matched type, or nil for wildcards.
func (e ContextElement) Type() Type { return e.typ }

// Qualifier returns the qualifier matcher of the element.
func (e ContextElement) Qualifier() QualifierMatcher { return e.qualifier }

// IsWildcard reports whether the element matches nodes of any type.
func (e ContextElement) IsWildcard() bool { return e.kind != elementType }

// MatchesNode reports whether the element accepts a single node.
func (e ContextElement) MatchesNode(intro Introspector, n ContextNode) bool {
	switch e.kind {
	case elementWildcard, elementAnyNumber:
		return true
	case elementType:
		if !e.qualifier.Matches(n.Qualifier) {
			return false
		}
		nt := n.Type()
		return nt == e.typ || intro.Assignable(nt, e.typ)
	default:
		return false
	}
}

// Compare orders elements by specificity; negative means e is more specific.
func (e ContextElement) Compare(o ContextElement) int {
	if e.kind != o.kind {
		return int(e.kind) - int(o.kind)
	}
	return e.qualifier.Compare(o.qualifier)
}

func (e ContextElement) String() string {
	switch e.kind {
	case elementWildcard:
		return "."
	case elementAnyNumber:
		return ".*"
	default:
		if e.qualifier.IsAny() {
			return typeString(e.typ)
		}
		return e.qualifier.String() + " " + typeString(e.typ)
	}
}

// ContextPattern is a regular pattern over injection contexts built from
// single-node elements and AnyNumber runs. A pattern that does not begin
// with AnyNumber is anchored at the root; one that does not end with
// AnyNumber is anchored at the leaf.
type ContextPattern struct {
	elems []ContextElement
}

// EmptyPattern matches only the empty context.
func EmptyPattern() ContextPattern {
	return ContextPattern{}
}

// AnyPattern matches every context, including the empty one.
func AnyPattern() ContextPattern {
	return ContextPattern{elems: []ContextElement{AnyNumber()}}
}

// Subsequence matches contexts that contain the given elements in order,
// with any number of other nodes before, between and after them.
func Subsequence(elems ...ContextElement) ContextPattern {
	p := AnyPattern()
	for _, e := range elems {
		p = p.Append(e).AppendDotStar()
	}
	return p
}

// SubsequenceOf is Subsequence over unqualified type elements.
func SubsequenceOf(types ...Type) ContextPattern {
	elems := make([]ContextElement, len(types))
	for i, t := range types {
		elems[i] = MatchType(t)
	}
	return Subsequence(elems...)
}

// Append returns a pattern with e added at the leaf end. Appending a
// non-AnyNumber element anchors the pattern at the leaf.
func (p ContextPattern) Append(e ContextElement) ContextPattern {
	if e.kind == elementAnyNumber && len(p.elems) > 0 && p.elems[len(p.elems)-1].kind == elementAnyNumber {
		return p
	}
	elems := make([]ContextElement, len(p.elems), len(p.elems)+1)
	copy(elems, p.elems)
	return ContextPattern{elems: append(elems, e)}
}

// AppendType appends an unqualified type element.
func (p ContextPattern) AppendType(t Type) ContextPattern {
	return p.Append(MatchType(t))
}

// AppendDotStar removes the leaf anchor by appending an AnyNumber run.
func (p ContextPattern) AppendDotStar() ContextPattern {
	return p.Append(AnyNumber())
}

// Elements returns a copy of the pattern's elements.
func (p ContextPattern) Elements() []ContextElement {
	return append([]ContextElement(nil), p.elems...)
}

// AnchoredStart reports whether the first required element must match the
// root-most node.
func (p ContextPattern) AnchoredStart() bool {
	return len(p.elems) == 0 || p.elems[0].kind != elementAnyNumber
}

// AnchoredEnd reports whether the last required element must match the
// leaf node.
func (p ContextPattern) AnchoredEnd() bool {
	return len(p.elems) == 0 || p.elems[len(p.elems)-1].kind != elementAnyNumber
}

// PatternMatch describes a successful match. Positions holds, for every
// single-node element in pattern order, the index of the context node it
// consumed.
type PatternMatch struct {
	Positions []int
}

// Matches matches the pattern against an injection context. It returns nil
// when there is no match.
func (p ContextPattern) Matches(intro Introspector, ctx InjectionContext) *PatternMatch {
	return p.MatchNodes(intro, ctx.Nodes())
}

// MatchNodes matches the pattern against nodes in root-to-leaf order. It
// returns nil when there is no match.
//
// The pattern is split into fixed-length segments separated by AnyNumber
// runs. Anchored segments are pinned to their end of the chain; every other
// segment is placed at its leftmost fit after the previous one. Leftmost
// placement never rules out a later segment, so no backtracking across
// segments is needed.
func (p ContextPattern) MatchNodes(intro Introspector, nodes []ContextNode) *PatternMatch {
	if len(p.elems) == 0 {
		if len(nodes) == 0 {
			return &PatternMatch{}
		}
		return nil
	}

	segs := p.segments()
	anchoredStart, anchoredEnd := p.AnchoredStart(), p.AnchoredEnd()
	match := &PatternMatch{Positions: make([]int, 0, len(p.elems))}

	pos := 0
	for i, seg := range segs {
		first, last := i == 0, i == len(segs)-1
		var start int
		switch {
		case first && anchoredStart && last && anchoredEnd:
			if len(seg) != len(nodes) || !segmentMatchesAt(intro, seg, nodes, 0) {
				return nil
			}
			start = 0
		case first && anchoredStart:
			if !segmentMatchesAt(intro, seg, nodes, 0) {
				return nil
			}
			start = 0
		case last && anchoredEnd:
			start = len(nodes) - len(seg)
			if start < pos || !segmentMatchesAt(intro, seg, nodes, start) {
				return nil
			}
		default:
			start = -1
			for s := pos; s+len(seg) <= len(nodes); s++ {
				if segmentMatchesAt(intro, seg, nodes, s) {
					start = s
					break
				}
			}
			if start < 0 {
				return nil
			}
		}
		for j := range seg {
			match.Positions = append(match.Positions, start+j)
		}
		pos = start + len(seg)
	}
	return match
}

// segments splits the pattern into runs of single-node elements.
func (p ContextPattern) segments() [][]ContextElement {
	var segs [][]ContextElement
	var cur []ContextElement
	for _, e := range p.elems {
		if e.kind == elementAnyNumber {
			if len(cur) > 0 {
				segs = append(segs, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, e)
	}
	if len(cur) > 0 {
		segs = append(segs, cur)
	}
	return segs
}

func segmentMatchesAt(intro Introspector, seg []ContextElement, nodes []ContextNode, start int) bool {
	if start < 0 || start+len(seg) > len(nodes) {
		return false
	}
	for j, e := range seg {
		if !e.MatchesNode(intro, nodes[start+j]) {
			return false
		}
	}
	return true
}

func (p ContextPattern) String() string {
	parts := make([]string, len(p.elems))
	for i, e := range p.elems {
		parts[i] = e.String()
	}
	return "<" + strings.Join(parts, " ") + ">"
}
