package grapht

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strings"
)

// ContextNode is one step of an injection context: the satisfaction being
// constructed and the qualifier of the desire it satisfied.
type ContextNode struct {
	Satisfaction Satisfaction
	Qualifier    Qualifier
}

// Type returns the type produced at this step.
func (n ContextNode) Type() Type { return n.Satisfaction.Type() }

func (n ContextNode) String() string {
	if n.Qualifier.IsZero() {
		return typeString(n.Type())
	}
	return n.Qualifier.String() + " " + typeString(n.Type())
}

// Fingerprint identifies an injection context by its content. Equal paths
// have equal fingerprints regardless of how they were built.
type Fingerprint [sha256.Size]byte

func (f Fingerprint) String() string { return hex.EncodeToString(f[:8]) }

type contextLink struct {
	parent *contextLink
	node   ContextNode
	depth  int
	fp     Fingerprint
}

// InjectionContext is the immutable path of (satisfaction, qualifier) pairs
// from the resolution root to the node being expanded. The zero value is
// the empty root context. Extend never mutates its receiver, so branches
// share their common prefix.
type InjectionContext struct {
	tail *contextLink
}

// EmptyContext returns the root context.
func EmptyContext() InjectionContext { return InjectionContext{} }

// Extend returns a new context with one more node appended.
func (c InjectionContext) Extend(sat Satisfaction, q Qualifier) InjectionContext {
	link := &contextLink{
		parent: c.tail,
		node:   ContextNode{Satisfaction: sat, Qualifier: q},
		depth:  c.Len() + 1,
	}
	link.fp = extendFingerprint(c.Fingerprint(), link.node)
	return InjectionContext{tail: link}
}

// Len returns the number of nodes in the context.
func (c InjectionContext) Len() int {
	if c.tail == nil {
		return 0
	}
	return c.tail.depth
}

// IsEmpty reports whether c is the root context.
func (c InjectionContext) IsEmpty() bool { return c.tail == nil }

// Leaf returns the most deeply nested node.
func (c InjectionContext) Leaf() (ContextNode, bool) {
	if c.tail == nil {
		return ContextNode{}, false
	}
	return c.tail.node, true
}

// Parent returns the context without its leaf node.
func (c InjectionContext) Parent() (InjectionContext, bool) {
	if c.tail == nil {
		return c, false
	}
	return InjectionContext{tail: c.tail.parent}, true
}

// Nodes materializes the context in root-to-leaf order.
func (c InjectionContext) Nodes() []ContextNode {
	nodes := make([]ContextNode, c.Len())
	for l := c.tail; l != nil; l = l.parent {
		nodes[l.depth-1] = l.node
	}
	return nodes
}

// Types returns the produced types along the context, root to leaf.
func (c InjectionContext) Types() []Type {
	types := make([]Type, c.Len())
	for l := c.tail; l != nil; l = l.parent {
		types[l.depth-1] = l.node.Type()
	}
	return types
}

// Fingerprint returns the content hash of the context.
func (c InjectionContext) Fingerprint() Fingerprint {
	if c.tail == nil {
		return Fingerprint{}
	}
	return c.tail.fp
}

// Equal reports whether two contexts hold the same path.
func (c InjectionContext) Equal(o InjectionContext) bool {
	return c.Len() == o.Len() && c.Fingerprint() == o.Fingerprint()
}

// contains reports whether a node with the same satisfaction and qualifier
// already occurs in the context.
func (c InjectionContext) contains(sat Satisfaction, q Qualifier) bool {
	key := sat.key()
	for l := c.tail; l != nil; l = l.parent {
		if l.node.Qualifier == q && l.node.Satisfaction.key() == key {
			return true
		}
	}
	return false
}

func (c InjectionContext) String() string {
	nodes := c.Nodes()
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func extendFingerprint(parent Fingerprint, n ContextNode) Fingerprint {
	h := sha256.New()
	h.Write(parent[:])
	writeField := func(s string) {
		var size [8]byte
		binary.BigEndian.PutUint64(size[:], uint64(len(s)))
		h.Write(size[:])
		h.Write([]byte(s))
	}
	sat := n.Satisfaction
	writeField(sat.Kind().String())
	writeField(typeString(sat.Type()))
	if sat.ProviderType() != nil {
		writeField(typeString(sat.ProviderType()))
	}
	writeField(n.Qualifier.Class)
	writeField(n.Qualifier.Value)

	var fp Fingerprint
	copy(fp[:], h.Sum(nil))
	return fp
}
