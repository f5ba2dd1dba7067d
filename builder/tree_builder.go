// Package builder provides the mutable construction API for decision-tree
// ensembles: TreeBuilder assembles one tree node-by-node under caller-chosen
// integer keys, ModelBuilder collects trees plus ensemble metadata, and
// CommitModel validates the whole structure and compiles it into the
// immutable representation in the model package.
//
// Builders are single-owner by contract: concurrent mutation of the same
// builder is a precondition violation and is not guarded internally.
package builder

import (
	"slices"

	"github.com/YuminosukeSato/treelite-go/core/types"
	"github.com/YuminosukeSato/treelite-go/model"
	"github.com/YuminosukeSato/treelite-go/pkg/errors"
)

// TreeBuilder assembles a single decision tree. Nodes are identified by
// caller-chosen integer keys, unique within the tree. A test node may
// reference child keys before those nodes are created; every referenced key
// must resolve by commit time.
type TreeBuilder struct {
	thresholdType  types.TypeInfo
	leafOutputType types.TypeInfo

	nodes   map[int]*node
	rootKey int
	rootSet bool

	// consumed is set when the builder's tree is moved into an ensemble by
	// InsertTree; a consumed builder rejects all further mutation. Use
	// ModelBuilder.GetTree for a fresh handle to the inserted tree.
	consumed bool
}

// NewTreeBuilder creates an empty TreeBuilder. All thresholds in the tree
// must carry thresholdType and all leaf outputs leafOutputType.
func NewTreeBuilder(thresholdType, leafOutputType types.TypeInfo) (*TreeBuilder, error) {
	if thresholdType == types.InvalidType {
		return nil, errors.NewInvalidArgumentError("NewTreeBuilder", "threshold type must be a valid numeric kind")
	}
	if leafOutputType == types.InvalidType {
		return nil, errors.NewInvalidArgumentError("NewTreeBuilder", "leaf output type must be a valid numeric kind")
	}
	return &TreeBuilder{
		thresholdType:  thresholdType,
		leafOutputType: leafOutputType,
		nodes:          make(map[int]*node),
	}, nil
}

// ThresholdType returns the numeric kind declared for thresholds.
func (tb *TreeBuilder) ThresholdType() types.TypeInfo {
	return tb.thresholdType
}

// LeafOutputType returns the numeric kind declared for leaf outputs.
func (tb *TreeBuilder) LeafOutputType() types.TypeInfo {
	return tb.leafOutputType
}

// NumNodes returns the number of nodes currently in the builder.
func (tb *TreeBuilder) NumNodes() int {
	return len(tb.nodes)
}

func (tb *TreeBuilder) checkUsable(op string) error {
	if tb.consumed {
		return errors.NewInvalidStateError(op, "standalone", "inserted into ensemble")
	}
	return nil
}

// CreateNode creates an empty node under the given key. Fails with
// AlreadyExists if the key is in use.
func (tb *TreeBuilder) CreateNode(nodeKey int) error {
	if err := tb.checkUsable("CreateNode"); err != nil {
		return err
	}
	if _, ok := tb.nodes[nodeKey]; ok {
		return errors.NewAlreadyExistsError("node", nodeKey)
	}
	tb.nodes[nodeKey] = &node{state: stateEmpty}
	return nil
}

// DeleteNode removes the node under the given key. Fails with NotFound if
// the key is absent. Edges in other test nodes that point at the deleted key
// are left in place; the caller must resolve them before commit, where a
// dangling reference is a validation failure.
func (tb *TreeBuilder) DeleteNode(nodeKey int) error {
	if err := tb.checkUsable("DeleteNode"); err != nil {
		return err
	}
	if _, ok := tb.nodes[nodeKey]; !ok {
		return errors.NewNotFoundError("node", nodeKey)
	}
	delete(tb.nodes, nodeKey)
	return nil
}

// SetRootNode designates the node under the given key as the tree's root.
// Fails with NotFound if the key is absent. Calling it again overwrites the
// previous root.
func (tb *TreeBuilder) SetRootNode(nodeKey int) error {
	if err := tb.checkUsable("SetRootNode"); err != nil {
		return err
	}
	if _, ok := tb.nodes[nodeKey]; !ok {
		return errors.NewNotFoundError("node", nodeKey)
	}
	tb.rootKey = nodeKey
	tb.rootSet = true
	return nil
}

func (tb *TreeBuilder) emptyNode(op string, nodeKey int) (*node, error) {
	n, ok := tb.nodes[nodeKey]
	if !ok {
		return nil, errors.NewNotFoundError("node", nodeKey)
	}
	if n.state != stateEmpty {
		return nil, errors.NewInvalidStateError(op, stateEmpty.String(), n.state.String())
	}
	return n, nil
}

// SetNumericalTestNode turns an empty node into a numerical test node
// evaluating [feature value] op [threshold]. Rows whose feature value is
// missing follow defaultLeft. Child keys may reference nodes that do not
// exist yet; they must exist by commit time.
func (tb *TreeBuilder) SetNumericalTestNode(nodeKey int, featureID uint32, op model.Operator,
	threshold types.Value, defaultLeft bool, leftChildKey, rightChildKey int,
) error {
	if err := tb.checkUsable("SetNumericalTestNode"); err != nil {
		return err
	}
	if err := types.CheckKind("SetNumericalTestNode", threshold, tb.thresholdType); err != nil {
		return err
	}
	n, err := tb.emptyNode("SetNumericalTestNode", nodeKey)
	if err != nil {
		return err
	}
	n.state = stateNumericalTest
	n.featureID = featureID
	n.op = op
	n.threshold = threshold
	n.defaultLeft = defaultLeft
	n.leftKey = leftChildKey
	n.rightKey = rightChildKey
	return nil
}

// SetCategoricalTestNode turns an empty node into a categorical test node.
// Rows whose feature value (a small non-negative integer) belongs to
// leftCategories go left, others right; missing values follow defaultLeft.
func (tb *TreeBuilder) SetCategoricalTestNode(nodeKey int, featureID uint32,
	leftCategories []uint32, defaultLeft bool, leftChildKey, rightChildKey int,
) error {
	if err := tb.checkUsable("SetCategoricalTestNode"); err != nil {
		return err
	}
	n, err := tb.emptyNode("SetCategoricalTestNode", nodeKey)
	if err != nil {
		return err
	}
	cats := slices.Clone(leftCategories)
	slices.Sort(cats)
	cats = slices.Compact(cats)
	n.state = stateCategoricalTest
	n.featureID = featureID
	n.leftCategories = cats
	n.defaultLeft = defaultLeft
	n.leftKey = leftChildKey
	n.rightKey = rightChildKey
	return nil
}

// SetLeafNode turns an empty node into a scalar leaf.
func (tb *TreeBuilder) SetLeafNode(nodeKey int, leafValue types.Value) error {
	if err := tb.checkUsable("SetLeafNode"); err != nil {
		return err
	}
	if err := types.CheckKind("SetLeafNode", leafValue, tb.leafOutputType); err != nil {
		return err
	}
	n, err := tb.emptyNode("SetLeafNode", nodeKey)
	if err != nil {
		return err
	}
	n.state = stateLeaf
	n.leafValue = leafValue
	return nil
}

// SetLeafVectorNode turns an empty node into a leaf carrying one output per
// class. The vector length must equal the ensemble's output-group count;
// this is checked when the tree is inserted into a ModelBuilder, since the
// tree may be built before any ensemble exists.
func (tb *TreeBuilder) SetLeafVectorNode(nodeKey int, leafVector []types.Value) error {
	if err := tb.checkUsable("SetLeafVectorNode"); err != nil {
		return err
	}
	if len(leafVector) == 0 {
		return errors.NewInvalidArgumentError("SetLeafVectorNode", "leaf vector must not be empty")
	}
	for _, v := range leafVector {
		if err := types.CheckKind("SetLeafVectorNode", v, tb.leafOutputType); err != nil {
			return err
		}
	}
	n, err := tb.emptyNode("SetLeafVectorNode", nodeKey)
	if err != nil {
		return err
	}
	n.state = stateLeafVector
	n.leafVector = slices.Clone(leafVector)
	return nil
}
