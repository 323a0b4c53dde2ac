package digraph

// We have a digraph given in the form of a map associating each node with the set
// of nodes it points to.

// Sema uses this as an undirected graph: an edge x->y is added in both
// directions (AddBidirectional), so a binding can find every use of it
// (move-linearity, spec.md §4.2(c)) via Neighbors.

import (
	"github.com/ooze-lang/ooze/source/set"
)

type Digraph[E comparable] map[E]set.Set[E]

func (D *Digraph[E]) SetOfNodes() *set.Set[E] {
	result := set.Set[E]{}
	for x := range *D {
		result.Add(x)
	}
	return &result
}

// This checks to see if a node already has an entry before adding it to the digraph.
func (D *Digraph[E]) AddSafe(node E, neighbors []E) bool {
	if !D.SetOfNodes().Contains(node) {
		D.Add(node, neighbors)
		return true
	}
	return false
}

func (D *Digraph[E]) Add(node E, neighbors []E) {
	s := *set.MakeFromSlice(neighbors)
	(*D)[node] = s
}

// AddEdge adds a single directed arrow a->b, creating either endpoint as an
// empty node if it isn't present yet.
func (D *Digraph[E]) AddEdge(a, b E) {
	if _, ok := (*D)[a]; !ok {
		(*D)[a] = set.Set[E]{}
	}
	if _, ok := (*D)[b]; !ok {
		(*D)[b] = set.Set[E]{}
	}
	(*D)[a].Add(b)
}

// AddBidirectional links a and b in both directions: sema's identifier graph
// is undirected (a usage points at its binding, and a binding needs to find
// every use of it for move-linearity checking).
func (D *Digraph[E]) AddBidirectional(a, b E) {
	D.AddEdge(a, b)
	D.AddEdge(b, a)
}

// Neighbors returns the (possibly empty) set of nodes reachable in one hop
// from node, or nil if node isn't in the graph.
func (D Digraph[E]) Neighbors(node E) set.Set[E] {
	return D[node]
}
