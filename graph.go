package grapht

import (
	"fmt"
	"slices"
)

// Node is one satisfaction resolved within one injection context.
type Node struct {
	ID           int
	Satisfaction Satisfaction
	// Qualifier is the qualifier of the desire the node satisfied.
	Qualifier Qualifier
	// Context is the ancestry the node was resolved in, excluding the
	// node itself.
	Context InjectionContext

	out []Edge
}

// Type returns the type the node produces.
func (n *Node) Type() Type { return n.Satisfaction.Type() }

func (n *Node) String() string {
	return fmt.Sprintf("#%d %s", n.ID, n.Satisfaction)
}

// Edge connects a node to the node satisfying one of its injection points.
// Root edges have a nil From.
type Edge struct {
	From   *Node
	To     *Node
	Desire Desire
}

// Graph is the immutable result of a solve. Nodes are numbered in
// depth-first order from the roots.
type Graph struct {
	nodes []*Node
	roots []Edge
	out   map[int][]Edge
	in    map[int][]Edge
}

// newGraph numbers every node reachable from roots and indexes the edges.
func newGraph(roots []Edge) *Graph {
	g := &Graph{
		roots: roots,
		out:   make(map[int][]Edge),
		in:    make(map[int][]Edge),
	}
	visited := make(map[*Node]bool)
	var visit func(n *Node)
	visit = func(n *Node) {
		if visited[n] {
			return
		}
		visited[n] = true
		n.ID = len(g.nodes)
		g.nodes = append(g.nodes, n)
		for _, e := range n.out {
			visit(e.To)
		}
	}
	for _, r := range roots {
		visit(r.To)
	}
	for _, n := range g.nodes {
		g.out[n.ID] = n.out
		for _, e := range n.out {
			g.in[e.To.ID] = append(g.in[e.To.ID], e)
		}
	}
	return g
}

// Nodes returns every node in ID order.
func (g *Graph) Nodes() []*Node { return slices.Clone(g.nodes) }

// Node returns the node with the given ID.
func (g *Graph) Node(id int) (*Node, bool) {
	if id < 0 || id >= len(g.nodes) {
		return nil, false
	}
	return g.nodes[id], true
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// RootEdges returns one edge per root desire, in request order.
func (g *Graph) RootEdges() []Edge { return slices.Clone(g.roots) }

// Roots returns the node resolved for each root desire, in request order.
func (g *Graph) Roots() []*Node {
	nodes := make([]*Node, len(g.roots))
	for i, e := range g.roots {
		nodes[i] = e.To
	}
	return nodes
}

// Edges returns every non-root edge, grouped by source node.
func (g *Graph) Edges() []Edge {
	var edges []Edge
	for _, n := range g.nodes {
		edges = append(edges, g.out[n.ID]...)
	}
	return edges
}

// Dependencies returns the outgoing edges of n in injection-point order.
func (g *Graph) Dependencies(n *Node) []Edge { return slices.Clone(g.out[n.ID]) }

// Dependents returns the edges pointing at n.
func (g *Graph) Dependents(n *Node) []Edge { return slices.Clone(g.in[n.ID]) }

// Walk visits every node breadth-first from the roots, passing the depth at
// which it is first reached. Returning false stops the walk.
func (g *Graph) Walk(fn func(n *Node, depth int) bool) {
	type item struct {
		node  *Node
		depth int
	}
	seen := make(map[int]bool)
	var queue []item
	for _, n := range g.Roots() {
		if !seen[n.ID] {
			seen[n.ID] = true
			queue = append(queue, item{n, 0})
		}
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if !fn(cur.node, cur.depth) {
			return
		}
		for _, e := range g.out[cur.node.ID] {
			if !seen[e.To.ID] {
				seen[e.To.ID] = true
				queue = append(queue, item{e.To, cur.depth + 1})
			}
		}
	}
}

// Topological returns the nodes ordered so that every node follows all of
// its dependencies, which is the order they can be constructed in.
func (g *Graph) Topological() []*Node {
	order := make([]*Node, 0, len(g.nodes))
	done := make(map[int]bool, len(g.nodes))
	var visit func(n *Node)
	visit = func(n *Node) {
		if done[n.ID] {
			return
		}
		done[n.ID] = true
		for _, e := range g.out[n.ID] {
			visit(e.To)
		}
		order = append(order, n)
	}
	for _, n := range g.nodes {
		visit(n)
	}
	return order
}

// checkNulls reports the first non-nullable point bound to a null node.
func (g *Graph) checkNulls() error {
	check := func(e Edge) error {
		if e.To.Satisfaction.Kind() == NullSatisfaction && !e.Desire.Nullable() {
			return &NullDependencyError{Point: e.Desire.Point(), Context: e.To.Context}
		}
		return nil
	}
	for _, e := range g.roots {
		if err := check(e); err != nil {
			return err
		}
	}
	for _, n := range g.nodes {
		for _, e := range g.out[n.ID] {
			if err := check(e); err != nil {
				return err
			}
		}
	}
	return nil
}

// Simplify returns a graph in which nodes with equal satisfactions and
// identical dependencies are merged, bottom-up. The result shares identical
// subgraphs; each merged node keeps the qualifier and context of its first
// occurrence in dependency order.
func (g *Graph) Simplify() *Graph {
	type mergeKey struct {
		sat  satisfactionKey
		deps string
	}
	merged := make(map[mergeKey]*Node)
	replacement := make(map[int]*Node, len(g.nodes))

	for _, n := range g.Topological() {
		deps := ""
		edges := make([]Edge, len(g.out[n.ID]))
		for i, e := range g.out[n.ID] {
			to := replacement[e.To.ID]
			edges[i] = Edge{To: to, Desire: e.Desire}
			deps += fmt.Sprintf("%p;", to)
		}
		key := mergeKey{sat: n.Satisfaction.key(), deps: deps}
		if m, ok := merged[key]; ok {
			replacement[n.ID] = m
			continue
		}
		m := &Node{Satisfaction: n.Satisfaction, Qualifier: n.Qualifier, Context: n.Context}
		for i := range edges {
			edges[i].From = m
		}
		m.out = edges
		merged[key] = m
		replacement[n.ID] = m
	}

	roots := make([]Edge, len(g.roots))
	for i, e := range g.roots {
		roots[i] = Edge{To: replacement[e.To.ID], Desire: e.Desire}
	}
	return newGraph(roots)
}
