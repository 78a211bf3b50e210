// Package computation holds the expression tree evaluated by the engine.
//
// A Graph stores nodes in an arena addressed by NodeID. Leaves carry matrix
// data; operator nodes (add, multiply, negate, transpose) carry an ordered
// list of operand ids. Evaluation is incremental: the engine repeatedly
// normalizes the tree with AssociativeNesting, picks the first node whose
// operands are all leaves with FindResolvable, computes it, and replaces it by
// a leaf with Resolve. The expression is reduced once the root is a leaf.
//
//	g := computation.NewGraph()
//	a := g.AddMatrix([][]float64{{1, 2}})
//	b := g.AddMatrix([][]float64{{3, 4}})
//	sum, _ := g.AddOperator(computation.NodeAdd, a, b)
//	_ = g.SetRoot(sum)
//
// Resolve frees the slots of the replaced subtree; later allocations reuse
// them.
package computation
