// Package model holds the immutable, traversal-ready representation of a
// decision-tree ensemble. A Model is produced exclusively by the builder
// package's commit step; once produced it is read-only and safe for
// concurrent use by any number of prediction calls.
package model

import (
	"slices"

	"github.com/YuminosukeSato/treelite-go/core/types"
	"github.com/YuminosukeSato/treelite-go/pkg/errors"
)

// NodeKind represents the role of a compiled tree node.
type NodeKind int

const (
	// LeafNode is a terminal node carrying a scalar or vector output.
	LeafNode NodeKind = iota
	// NumericalNode routes on [feature value] OP [threshold].
	NumericalNode
	// CategoricalNode routes on membership of the feature value in the
	// node's left-category set.
	CategoricalNode
)

func (k NodeKind) String() string {
	switch k {
	case LeafNode:
		return "leaf"
	case NumericalNode:
		return "numerical_test"
	case CategoricalNode:
		return "categorical_test"
	default:
		return "unknown"
	}
}

// Operator is the comparison used by a numerical test node.
type Operator int

const (
	OpLT Operator = iota // <
	OpLE                 // <=
	OpGT                 // >
	OpGE                 // >=
	OpEQ                 // ==
)

func (o Operator) String() string {
	switch o {
	case OpLT:
		return "<"
	case OpLE:
		return "<="
	case OpGT:
		return ">"
	case OpGE:
		return ">="
	case OpEQ:
		return "=="
	default:
		return "?"
	}
}

// ParseOperator converts an operator literal ("<", "<=", ">", ">=", "==")
// into an Operator.
func ParseOperator(s string) (Operator, error) {
	switch s {
	case "<":
		return OpLT, nil
	case "<=":
		return OpLE, nil
	case ">":
		return OpGT, nil
	case ">=":
		return OpGE, nil
	case "==":
		return OpEQ, nil
	default:
		return 0, errors.NewInvalidArgumentErrorf("ParseOperator", "unknown operator %q", s)
	}
}

// Compare evaluates [a] OP [b] for a concrete numeric type.
func Compare[T types.Float](a T, op Operator, b T) bool {
	switch op {
	case OpLT:
		return a < b
	case OpLE:
		return a <= b
	case OpGT:
		return a > b
	case OpGE:
		return a >= b
	case OpEQ:
		return a == b
	default:
		return false
	}
}

// Node is a single compiled tree node. Children are addressed by dense
// index into the owning Tree's Nodes slice; -1 marks "no child" and both
// children are -1 exactly when the node is a leaf.
type Node struct {
	Kind NodeKind

	// Test-node fields.
	SplitFeature   uint32
	Op             Operator
	Threshold      types.Value
	DefaultLeft    bool
	LeftChild      int32
	RightChild     int32
	LeftCategories []uint32 // sorted ascending; categorical nodes only

	// Leaf fields.
	LeafValue  types.Value
	LeafVector []types.Value // nil for scalar leaves
}

// IsLeaf reports whether the node is terminal.
func (n *Node) IsLeaf() bool {
	return n.LeftChild == -1 && n.RightChild == -1
}

// CategoryMatches reports whether category cat belongs to the node's
// left-category set.
func (n *Node) CategoryMatches(cat uint32) bool {
	_, found := slices.BinarySearch(n.LeftCategories, cat)
	return found
}

// Tree is one compiled decision tree. The root is always Nodes[0].
type Tree struct {
	Nodes []Node

	// Numeric kinds fixed at construction; identical for every tree in
	// the same Model.
	ThresholdType  types.TypeInfo
	LeafOutputType types.TypeInfo
}

// NumNodes returns the number of nodes in the tree.
func (t *Tree) NumNodes() int {
	return len(t.Nodes)
}

// Model is an ordered ensemble of compiled trees plus shared metadata.
// Fields are exported for traversal speed but must be treated as read-only:
// the builder's CommitModel is the only constructor.
type Model struct {
	Trees []Tree

	NumFeature        int
	NumClass          int
	AverageTreeOutput bool
	ThresholdType     types.TypeInfo
	LeafOutputType    types.TypeInfo

	// HasVectorLeaf is true when leaves carry one value per output class
	// (multi-output trees) rather than a scalar.
	HasVectorLeaf bool

	// Params holds free-form named string parameters set on the builder,
	// e.g. "pred_transform", "sigmoid_alpha", "global_bias".
	Params map[string]string
}

// NumTree returns the number of trees in the ensemble.
func (m *Model) NumTree() int {
	return len(m.Trees)
}

// Param returns the named model parameter and whether it was set.
func (m *Model) Param(name string) (string, bool) {
	v, ok := m.Params[name]
	return v, ok
}
