package builder

import (
	"maps"

	"github.com/YuminosukeSato/treelite-go/core/types"
	"github.com/YuminosukeSato/treelite-go/model"
	"github.com/YuminosukeSato/treelite-go/pkg/errors"
	"github.com/YuminosukeSato/treelite-go/pkg/log"
)

// ModelBuilder assembles a tree ensemble. Trees are inserted from
// TreeBuilders, may be edited in place via GetTree, and are compiled into an
// immutable model.Model by CommitModel.
type ModelBuilder struct {
	numFeature        int
	numClass          int
	averageTreeOutput bool
	thresholdType     types.TypeInfo
	leafOutputType    types.TypeInfo

	trees  []*TreeBuilder
	params map[string]string
}

// NewModelBuilder creates an empty ensemble builder.
//
// numFeature bounds the feature ids any tree may reference. numClass is the
// number of output groups: 1 for regression and binary classification, >1
// for multiclass. averageTreeOutput selects random-forest-style averaging
// over boosting-style summation. All trees inserted must share the given
// threshold and leaf-output numeric kinds.
func NewModelBuilder(numFeature, numClass int, averageTreeOutput bool,
	thresholdType, leafOutputType types.TypeInfo,
) (*ModelBuilder, error) {
	if numFeature <= 0 {
		return nil, errors.NewInvalidArgumentErrorf("NewModelBuilder", "num_feature must be positive, got %d", numFeature)
	}
	if numClass < 1 {
		return nil, errors.NewInvalidArgumentErrorf("NewModelBuilder", "num_class must be at least 1, got %d", numClass)
	}
	if thresholdType == types.InvalidType || leafOutputType == types.InvalidType {
		return nil, errors.NewInvalidArgumentError("NewModelBuilder", "threshold and leaf output types must be valid numeric kinds")
	}
	return &ModelBuilder{
		numFeature:        numFeature,
		numClass:          numClass,
		averageTreeOutput: averageTreeOutput,
		thresholdType:     thresholdType,
		leafOutputType:    leafOutputType,
		params:            make(map[string]string),
	}, nil
}

// NumTree returns the number of trees currently in the ensemble.
func (mb *ModelBuilder) NumTree() int {
	return len(mb.trees)
}

// SetModelParam stores an opaque named string parameter on the ensemble,
// overwriting any existing value for that name. Recognized names are an
// engine-level contract (e.g. "pred_transform", "sigmoid_alpha",
// "global_bias"); unrecognized names are carried through untouched.
func (mb *ModelBuilder) SetModelParam(name, value string) error {
	if name == "" {
		return errors.NewInvalidArgumentError("SetModelParam", "parameter name must not be empty")
	}
	mb.params[name] = value
	return nil
}

// InsertTree validates the tree held by tb and inserts it before position
// index; index -1 appends. On success tb is consumed: the tree now belongs
// to the ensemble and tb rejects further mutation. Use GetTree for a fresh
// handle to the inserted tree.
func (mb *ModelBuilder) InsertTree(tb *TreeBuilder, index int) (int, error) {
	if tb == nil {
		return -1, errors.NewInvalidArgumentError("InsertTree", "tree builder must not be nil")
	}
	if tb.consumed {
		return -1, errors.NewInvalidStateError("InsertTree", "standalone", "inserted into ensemble")
	}
	if tb.thresholdType != mb.thresholdType {
		return -1, errors.NewTypeMismatchError("InsertTree", mb.thresholdType.String(), tb.thresholdType.String())
	}
	if tb.leafOutputType != mb.leafOutputType {
		return -1, errors.NewTypeMismatchError("InsertTree", mb.leafOutputType.String(), tb.leafOutputType.String())
	}
	if index == -1 {
		index = len(mb.trees)
	}
	if index < 0 || index > len(mb.trees) {
		return -1, errors.NewOutOfRangeError("InsertTree", index, len(mb.trees))
	}
	if err := mb.validateTree(index, tb); err != nil {
		return -1, err
	}

	// Move the tree out of the caller's builder into an ensemble-owned one.
	owned := &TreeBuilder{
		thresholdType:  tb.thresholdType,
		leafOutputType: tb.leafOutputType,
		nodes:          tb.nodes,
		rootKey:        tb.rootKey,
		rootSet:        tb.rootSet,
	}
	tb.nodes = nil
	tb.consumed = true

	mb.trees = append(mb.trees, nil)
	copy(mb.trees[index+1:], mb.trees[index:])
	mb.trees[index] = owned
	return index, nil
}

// GetTree returns a handle to the tree at the given position for further
// editing. Edits made through the handle are legal and are re-validated by
// CommitModel.
func (mb *ModelBuilder) GetTree(index int) (*TreeBuilder, error) {
	if index < 0 || index >= len(mb.trees) {
		return nil, errors.NewOutOfRangeError("GetTree", index, len(mb.trees))
	}
	return mb.trees[index], nil
}

// DeleteTree removes the tree at the given position; subsequent trees shift
// down by one.
func (mb *ModelBuilder) DeleteTree(index int) error {
	if index < 0 || index >= len(mb.trees) {
		return errors.NewOutOfRangeError("DeleteTree", index, len(mb.trees))
	}
	mb.trees = append(mb.trees[:index], mb.trees[index+1:]...)
	return nil
}

// CommitModel re-validates every tree and the ensemble-level invariants,
// then compiles the builder state into an immutable model.Model.
//
// CommitModel does not consume the builder: it can be called again after
// further edits, and each call produces an independent Model.
func (mb *ModelBuilder) CommitModel() (*model.Model, error) {
	if len(mb.trees) == 0 {
		return nil, errors.NewInvalidModelError("ensemble contains no trees")
	}

	m := &model.Model{
		Trees:             make([]model.Tree, 0, len(mb.trees)),
		NumFeature:        mb.numFeature,
		NumClass:          mb.numClass,
		AverageTreeOutput: mb.averageTreeOutput,
		ThresholdType:     mb.thresholdType,
		LeafOutputType:    mb.leafOutputType,
		Params:            maps.Clone(mb.params),
	}

	vectorLeaf := false
	for i, tb := range mb.trees {
		if err := mb.validateTree(i, tb); err != nil {
			return nil, err
		}
		tree, hasVector := compileTree(tb)
		if i == 0 {
			vectorLeaf = hasVector
		} else if hasVector != vectorLeaf {
			return nil, errors.NewInvalidTreeError(i, -1,
				"trees mix vector and scalar leaves within one ensemble")
		}
		m.Trees = append(m.Trees, tree)
	}
	m.HasVectorLeaf = vectorLeaf

	log.Debug().
		Int("num_tree", len(m.Trees)).
		Int("num_feature", m.NumFeature).
		Int("num_class", m.NumClass).
		Bool("average_tree_output", m.AverageTreeOutput).
		Msg("committed tree ensemble")
	return m, nil
}
