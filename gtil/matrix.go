package gtil

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/treelite-go/model"
	"github.com/YuminosukeSato/treelite-go/pkg/errors"
)

// PredictMatrix evaluates the model on a gonum matrix and returns the
// result as a dense matrix with one row per input row. Trailing output
// dimensions beyond the first are flattened into columns: margin output for
// a 3-class model yields 3 columns, leaf_id output for a 5-tree model
// yields 5 columns, and score_per_tree yields numTree * width columns.
func PredictMatrix(m *model.Model, X mat.Matrix, config *Configuration) (*mat.Dense, error) {
	if err := checkBatchArgs("PredictMatrix", m, 0, config); err != nil {
		return nil, err
	}
	rows, cols := X.Dims()
	if cols != m.NumFeature {
		return nil, errors.NewInvalidArgumentErrorf("PredictMatrix",
			"feature dimension mismatch: expected %d, got %d", m.NumFeature, cols)
	}

	in := make([]float64, rows*cols)
	for i := 0; i < rows; i++ {
		mat.Row(in[i*cols:(i+1)*cols], i, X)
	}

	shape := GetOutputShape(m, rows, config)
	width := 1
	for _, dim := range shape[1:] {
		width *= dim
	}
	out := make([]float64, rows*width)
	if err := Predict(m, in, rows, out, config); err != nil {
		return nil, err
	}
	return mat.NewDense(rows, width, out), nil
}
