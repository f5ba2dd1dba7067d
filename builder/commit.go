package builder

import (
	"slices"

	"github.com/YuminosukeSato/treelite-go/model"
	"github.com/YuminosukeSato/treelite-go/pkg/errors"
)

// validateTree checks the structural invariants of one tree against the
// ensemble: a single root is set, every child reference resolves, children
// are distinct from each other and from their parent, every node is
// reachable from the root exactly once (which rules out cycles and shared
// subtrees), no node is left empty, no node is orphaned, feature ids stay
// below the ensemble's feature count, and leaves are uniformly scalar or
// uniformly vector with vector length equal to the output-group count.
func (mb *ModelBuilder) validateTree(treeIdx int, tb *TreeBuilder) error {
	if !tb.rootSet {
		return errors.NewInvalidTreeError(treeIdx, -1, "no root node set")
	}
	if _, ok := tb.nodes[tb.rootKey]; !ok {
		return errors.NewInvalidTreeError(treeIdx, tb.rootKey, "root node does not exist")
	}

	visited := make(map[int]bool, len(tb.nodes))
	stack := []int{tb.rootKey}
	visited[tb.rootKey] = true
	sawScalarLeaf := false
	sawVectorLeaf := false

	for len(stack) > 0 {
		key := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := tb.nodes[key]

		switch n.state {
		case stateEmpty:
			return errors.NewInvalidTreeError(treeIdx, key, "node was created but never assigned a role")

		case stateNumericalTest, stateCategoricalTest:
			if int(n.featureID) >= mb.numFeature {
				return errors.NewInvalidTreeError(treeIdx, key,
					"feature id exceeds the ensemble's feature count")
			}
			if n.leftKey == key || n.rightKey == key {
				return errors.NewInvalidTreeError(treeIdx, key, "node references itself as a child")
			}
			if n.leftKey == n.rightKey {
				return errors.NewInvalidTreeError(treeIdx, key, "left and right children are the same node")
			}
			for _, childKey := range []int{n.leftKey, n.rightKey} {
				if _, ok := tb.nodes[childKey]; !ok {
					return errors.NewInvalidTreeError(treeIdx, key, "child reference does not resolve to an existing node")
				}
				// A child seen twice means either a cycle or a node with
				// two parents; neither is a tree.
				if visited[childKey] {
					return errors.NewInvalidTreeError(treeIdx, childKey, "node is reachable by more than one path")
				}
				visited[childKey] = true
				stack = append(stack, childKey)
			}

		case stateLeaf:
			sawScalarLeaf = true

		case stateLeafVector:
			sawVectorLeaf = true
			if len(n.leafVector) != mb.numClass {
				return errors.NewInvalidTreeError(treeIdx, key,
					"leaf vector length does not match the ensemble's output-group count")
			}
		}
	}

	if sawScalarLeaf && sawVectorLeaf {
		return errors.NewInvalidTreeError(treeIdx, -1, "tree mixes scalar and vector leaves")
	}
	// Orphaned nodes are rejected rather than silently dropped, so that a
	// stale key left behind after DeleteNode surfaces at commit instead of
	// disappearing from the compiled tree.
	if len(visited) != len(tb.nodes) {
		for key := range tb.nodes {
			if !visited[key] {
				return errors.NewInvalidTreeError(treeIdx, key, "node is not reachable from the root")
			}
		}
	}
	return nil
}

// compileTree compacts a validated builder tree into the dense,
// index-addressed form. Nodes are laid out in breadth-first order with the
// root at index 0, so sibling nodes stay adjacent in memory. Returns the
// compiled tree and whether its leaves carry vectors.
func compileTree(tb *TreeBuilder) (model.Tree, bool) {
	order := make([]int, 0, len(tb.nodes))
	indexOf := make(map[int]int32, len(tb.nodes))
	order = append(order, tb.rootKey)
	indexOf[tb.rootKey] = 0
	for i := 0; i < len(order); i++ {
		n := tb.nodes[order[i]]
		if !n.isTest() {
			continue
		}
		for _, childKey := range []int{n.leftKey, n.rightKey} {
			indexOf[childKey] = int32(len(order))
			order = append(order, childKey)
		}
	}

	hasVector := false
	tree := model.Tree{
		Nodes:          make([]model.Node, len(order)),
		ThresholdType:  tb.thresholdType,
		LeafOutputType: tb.leafOutputType,
	}
	for i, key := range order {
		bn := tb.nodes[key]
		out := &tree.Nodes[i]
		switch bn.state {
		case stateNumericalTest:
			out.Kind = model.NumericalNode
			out.SplitFeature = bn.featureID
			out.Op = bn.op
			out.Threshold = bn.threshold
			out.DefaultLeft = bn.defaultLeft
			out.LeftChild = indexOf[bn.leftKey]
			out.RightChild = indexOf[bn.rightKey]
		case stateCategoricalTest:
			out.Kind = model.CategoricalNode
			out.SplitFeature = bn.featureID
			out.LeftCategories = slices.Clone(bn.leftCategories)
			out.DefaultLeft = bn.defaultLeft
			out.LeftChild = indexOf[bn.leftKey]
			out.RightChild = indexOf[bn.rightKey]
		case stateLeaf:
			out.Kind = model.LeafNode
			out.LeafValue = bn.leafValue
			out.LeftChild = -1
			out.RightChild = -1
		case stateLeafVector:
			out.Kind = model.LeafNode
			out.LeafVector = slices.Clone(bn.leafVector)
			out.LeftChild = -1
			out.RightChild = -1
			hasVector = true
		}
	}
	return tree, hasVector
}
