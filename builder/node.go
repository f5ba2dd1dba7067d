package builder

import (
	"github.com/YuminosukeSato/treelite-go/core/types"
	"github.com/YuminosukeSato/treelite-go/model"
)

// nodeState tracks the role assigned to a builder-side node. A node starts
// empty and transitions exactly once into one of the other states; to
// reconfigure a node, delete it and recreate it under the same key.
type nodeState int

const (
	stateEmpty nodeState = iota
	stateNumericalTest
	stateCategoricalTest
	stateLeaf
	stateLeafVector
)

func (s nodeState) String() string {
	switch s {
	case stateEmpty:
		return "empty"
	case stateNumericalTest:
		return "numerical_test"
	case stateCategoricalTest:
		return "categorical_test"
	case stateLeaf:
		return "leaf"
	case stateLeafVector:
		return "leaf_vector"
	default:
		return "unknown"
	}
}

// node is a mutable, builder-owned tree node. Child references are by
// caller-chosen key; forward references to not-yet-created keys are legal
// until commit.
type node struct {
	state nodeState

	// Test-node fields.
	featureID      uint32
	op             model.Operator
	threshold      types.Value
	defaultLeft    bool
	leftKey        int
	rightKey       int
	leftCategories []uint32

	// Leaf fields.
	leafValue  types.Value
	leafVector []types.Value
}

func (n *node) isTest() bool {
	return n.state == stateNumericalTest || n.state == stateCategoricalTest
}
