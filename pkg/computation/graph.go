package computation

import (
	"fmt"
	"strings"

	"github.com/ajitpratap0/lae/pkg/errors"
)

// Graph is an arena-backed expression tree of matrix operations.
//
// Nodes are created bottom-up with AddMatrix and AddOperator and the tree is
// rooted with SetRoot. A Graph is not safe for concurrent use.
type Graph struct {
	nodes []node
	free  []NodeID
	live  int
	root  NodeID
}

// NewGraph returns an empty graph with no root.
func NewGraph() *Graph {
	return &Graph{root: InvalidNode}
}

// AddMatrix adds a leaf holding data. The graph takes ownership of data.
func (g *Graph) AddMatrix(data [][]float64) NodeID {
	return g.alloc(node{kind: NodeMatrix, data: data})
}

// AddOperator adds an operator node over children, in operand order. Child
// counts are not checked here; an operator with the wrong number of operands
// is reported when it is evaluated.
func (g *Graph) AddOperator(kind NodeType, children ...NodeID) (NodeID, error) {
	if !kind.IsOperator() {
		return InvalidNode, errors.Newf(errors.ErrorTypeInvalidState, "%s is not an operator", kind)
	}
	for i, c := range children {
		if err := g.check(c); err != nil {
			return InvalidNode, err
		}
		if g.nodes[c].parent != InvalidNode {
			return InvalidNode, errors.Newf(errors.ErrorTypeInvalidState, "node %d already has a parent", c)
		}
		for _, prev := range children[:i] {
			if prev == c {
				return InvalidNode, errors.Newf(errors.ErrorTypeInvalidState, "node %d used twice as an operand", c)
			}
		}
	}

	id := g.alloc(node{kind: kind, children: append([]NodeID(nil), children...)})
	for _, c := range children {
		g.nodes[c].parent = id
	}
	return id, nil
}

// SetRoot marks id as the root of the expression.
func (g *Graph) SetRoot(id NodeID) error {
	if err := g.check(id); err != nil {
		return err
	}
	if g.nodes[id].parent != InvalidNode {
		return errors.Newf(errors.ErrorTypeInvalidState, "node %d has a parent and cannot be the root", id)
	}
	g.root = id
	return nil
}

// Root returns the root node, or InvalidNode before SetRoot.
func (g *Graph) Root() NodeID {
	return g.root
}

// Size returns the number of live nodes.
func (g *Graph) Size() int {
	return g.live
}

// IsReduced reports whether the root is a matrix leaf.
func (g *Graph) IsReduced() bool {
	return g.root != InvalidNode && g.nodes[g.root].kind == NodeMatrix
}

// Kind returns the type of node id.
func (g *Graph) Kind(id NodeID) (NodeType, error) {
	if err := g.check(id); err != nil {
		return 0, err
	}
	return g.nodes[id].kind, nil
}

// Children returns a copy of the operand list of node id.
func (g *Graph) Children(id NodeID) ([]NodeID, error) {
	if err := g.check(id); err != nil {
		return nil, err
	}
	return append([]NodeID(nil), g.nodes[id].children...), nil
}

// Matrix returns the data held by the leaf id.
func (g *Graph) Matrix(id NodeID) ([][]float64, error) {
	if err := g.check(id); err != nil {
		return nil, err
	}
	n := &g.nodes[id]
	if n.kind != NodeMatrix {
		return nil, errors.Newf(errors.ErrorTypeInvalidState, "node %d is a %s node, not a matrix", id, n.kind)
	}
	return n.data, nil
}

// AssociativeNesting rewrites every add or multiply node reachable from the
// root that has more than two operands into a left-deep chain of binary nodes
// of the same operator. Operand order is preserved, so x1*x2*x3 becomes
// (x1*x2)*x3. The rewritten node keeps its id. Unary nodes and leaves are not
// changed.
func (g *Graph) AssociativeNesting() {
	if g.root == InvalidNode {
		return
	}

	stack := []NodeID{g.root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := &g.nodes[id]
		if n.kind.IsAssociative() && len(n.children) > 2 {
			g.nest(id)
			n = &g.nodes[id]
		}
		stack = append(stack, n.children...)
	}
}

// nest folds the operands of id into a left-deep chain.
func (g *Graph) nest(id NodeID) {
	kind := g.nodes[id].kind
	operands := g.nodes[id].children

	acc := operands[0]
	for _, c := range operands[1 : len(operands)-1] {
		next := g.alloc(node{kind: kind, children: []NodeID{acc, c}})
		g.nodes[acc].parent = next
		g.nodes[c].parent = next
		acc = next
	}

	last := operands[len(operands)-1]
	g.nodes[acc].parent = id
	g.nodes[id].children = []NodeID{acc, last}
}

// FindResolvable returns the first operator node, in pre-order with operands
// visited left to right, whose operands are all matrix leaves. It fails when
// the graph has no root or is already reduced.
func (g *Graph) FindResolvable() (NodeID, error) {
	if g.root == InvalidNode {
		return InvalidNode, errors.New(errors.ErrorTypeInvalidState, "graph has no root")
	}
	if g.IsReduced() {
		return InvalidNode, errors.New(errors.ErrorTypeInvalidState, "graph is already reduced")
	}

	stack := []NodeID{g.root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := &g.nodes[id]
		if n.kind == NodeMatrix {
			continue
		}
		if g.leavesOnly(n.children) {
			return id, nil
		}
		for i := len(n.children) - 1; i >= 0; i-- {
			stack = append(stack, n.children[i])
		}
	}

	return InvalidNode, errors.New(errors.ErrorTypeInternal, "no resolvable node in an unreduced graph")
}

// Resolve replaces the operator node id with a leaf holding data and frees
// the subtree below it. It returns true when id is the root, i.e. the whole
// expression is now reduced.
func (g *Graph) Resolve(id NodeID, data [][]float64) (bool, error) {
	if err := g.check(id); err != nil {
		return false, err
	}
	n := &g.nodes[id]
	if n.kind == NodeMatrix {
		return false, errors.Newf(errors.ErrorTypeInvalidState, "node %d is already a matrix", id)
	}

	for _, c := range n.children {
		g.release(c)
	}
	n = &g.nodes[id]
	n.kind = NodeMatrix
	n.data = data
	n.children = nil

	return id == g.root, nil
}

// Describe renders the subtree at id as an infix expression with leaf shapes,
// e.g. "((2x3 * 3x2) + 2x2)". It is meant for logs.
func (g *Graph) Describe(id NodeID) string {
	var b strings.Builder
	g.describe(&b, id)
	return b.String()
}

func (g *Graph) describe(b *strings.Builder, id NodeID) {
	if g.check(id) != nil {
		b.WriteString("?")
		return
	}
	n := &g.nodes[id]
	switch {
	case n.kind == NodeMatrix:
		cols := 0
		if len(n.data) > 0 {
			cols = len(n.data[0])
		}
		fmt.Fprintf(b, "%dx%d", len(n.data), cols)
	case len(n.children) == 1:
		b.WriteString(n.kind.Symbol())
		b.WriteString("(")
		g.describe(b, n.children[0])
		b.WriteString(")")
	default:
		b.WriteString("(")
		for i, c := range n.children {
			if i > 0 {
				fmt.Fprintf(b, " %s ", n.kind.Symbol())
			}
			g.describe(b, c)
		}
		b.WriteString(")")
	}
}

func (g *Graph) leavesOnly(ids []NodeID) bool {
	for _, id := range ids {
		if g.nodes[id].kind != NodeMatrix {
			return false
		}
	}
	return true
}

func (g *Graph) check(id NodeID) error {
	if id < 0 || int(id) >= len(g.nodes) || !g.nodes[id].live {
		return errors.Newf(errors.ErrorTypeInvalidState, "unknown node %d", id)
	}
	return nil
}

func (g *Graph) alloc(n node) NodeID {
	n.live = true
	n.parent = InvalidNode
	g.live++

	if k := len(g.free); k > 0 {
		id := g.free[k-1]
		g.free = g.free[:k-1]
		g.nodes[id] = n
		return id
	}
	g.nodes = append(g.nodes, n)
	return NodeID(len(g.nodes) - 1)
}

// release frees id and everything below it.
func (g *Graph) release(id NodeID) {
	stack := []NodeID{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		stack = append(stack, g.nodes[cur].children...)
		g.nodes[cur] = node{parent: InvalidNode}
		g.free = append(g.free, cur)
		g.live--
	}
}
