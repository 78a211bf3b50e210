package computation

import "fmt"

// NodeType tags a node of the computation graph.
type NodeType int

const (
	// NodeMatrix is a leaf holding a concrete matrix.
	NodeMatrix NodeType = iota
	// NodeAdd is elementwise addition of two or more operands.
	NodeAdd
	// NodeMultiply is the matrix product of two or more operands.
	NodeMultiply
	// NodeNegate flips the sign of every element of its single operand.
	NodeNegate
	// NodeTranspose transposes its single operand.
	NodeTranspose
)

// String implements fmt.Stringer. The names double as metric labels.
func (t NodeType) String() string {
	switch t {
	case NodeMatrix:
		return "matrix"
	case NodeAdd:
		return "add"
	case NodeMultiply:
		return "multiply"
	case NodeNegate:
		return "negate"
	case NodeTranspose:
		return "transpose"
	default:
		return fmt.Sprintf("NodeType(%d)", int(t))
	}
}

// Symbol returns the operator symbol used in expression documents.
func (t NodeType) Symbol() string {
	switch t {
	case NodeAdd:
		return "+"
	case NodeMultiply:
		return "*"
	case NodeNegate:
		return "-"
	case NodeTranspose:
		return "T"
	default:
		return t.String()
	}
}

// IsOperator reports whether t is one of the four operators.
func (t NodeType) IsOperator() bool {
	return t >= NodeAdd && t <= NodeTranspose
}

// IsAssociative reports whether t may be regrouped by AssociativeNesting.
func (t NodeType) IsAssociative() bool {
	return t == NodeAdd || t == NodeMultiply
}

// Arity returns the number of operands t takes after normalization.
func (t NodeType) Arity() int {
	switch t {
	case NodeAdd, NodeMultiply:
		return 2
	case NodeNegate, NodeTranspose:
		return 1
	default:
		return 0
	}
}

// NodeID addresses a node slot in a Graph. IDs stay stable while the node is
// live; the slot of a freed node may be reused by a later allocation.
type NodeID int

// InvalidNode is returned where no node applies.
const InvalidNode NodeID = -1

type node struct {
	kind     NodeType
	data     [][]float64
	children []NodeID
	parent   NodeID
	live     bool
}
