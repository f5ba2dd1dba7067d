package gtil

import (
	"github.com/YuminosukeSato/treelite-go/model"
)

// GetOutputShape derives the shape of the output tensor filled by Predict
// or PredictSparse. It depends only on model metadata, the row count, and
// the configuration's output mode; it never touches input data.
//
// Shapes by mode:
//
//	default, raw   — [numRow, numClass], collapsed to [numRow] when numClass == 1
//	leaf_id        — [numRow, numTree]
//	score_per_tree — [numRow, numTree, numClass] for vector-leaf models,
//	                 [numRow, numTree, 1] otherwise
func GetOutputShape(m *model.Model, numRow int, config *Configuration) []int {
	switch config.PredictKind {
	case PredictLeafID:
		return []int{numRow, m.NumTree()}
	case PredictScorePerTree:
		return []int{numRow, m.NumTree(), perTreeWidth(m)}
	default:
		if m.NumClass > 1 {
			return []int{numRow, m.NumClass}
		}
		return []int{numRow}
	}
}

// perTreeWidth is the size of one tree's output slot in score_per_tree mode.
func perTreeWidth(m *model.Model) int {
	if m.HasVectorLeaf {
		return m.NumClass
	}
	return 1
}

// outputSize is the flattened element count of the shape from GetOutputShape.
func outputSize(m *model.Model, numRow int, config *Configuration) int {
	size := 1
	for _, dim := range GetOutputShape(m, numRow, config) {
		size *= dim
	}
	return size
}
