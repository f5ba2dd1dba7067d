package gtil

import (
	"math"

	"github.com/YuminosukeSato/treelite-go/core/parallel"
	"github.com/YuminosukeSato/treelite-go/core/types"
	"github.com/YuminosukeSato/treelite-go/model"
	"github.com/YuminosukeSato/treelite-go/pkg/errors"
	"github.com/YuminosukeSato/treelite-go/pkg/log"
)

// Predict evaluates the model on a dense, row-major batch of numRow rows,
// each m.NumFeature wide. input and output must both be []float32 or both
// []float64; any other type is rejected with InvalidArgument. NaN entries
// are treated as missing values. The output buffer is caller-allocated and
// must hold at least the flattened size of GetOutputShape; it is filled in
// row-major order.
//
// Rows are evaluated in parallel, bounded by config.NumThread. Within one
// row, trees are always accumulated sequentially in ascending tree order,
// so results are reproducible for a fixed input regardless of thread count.
func Predict(m *model.Model, input any, numRow int, output any, config *Configuration) error {
	if err := checkBatchArgs("Predict", m, numRow, config); err != nil {
		return err
	}
	switch in := input.(type) {
	case []float32:
		out, ok := output.([]float32)
		if !ok {
			return errors.NewInvalidArgumentErrorf("Predict",
				"output buffer type %T does not match input type []float32", output)
		}
		return predictDense(m, in, numRow, out, config)
	case []float64:
		out, ok := output.([]float64)
		if !ok {
			return errors.NewInvalidArgumentErrorf("Predict",
				"output buffer type %T does not match input type []float64", output)
		}
		return predictDense(m, in, numRow, out, config)
	default:
		return errors.NewInvalidArgumentErrorf("Predict",
			"unsupported input type %T (want []float32 or []float64)", input)
	}
}

// PredictSparse evaluates the model on a CSR batch: rowPtr has numRow+1
// entries delimiting each row's slice of the parallel colInd/data arrays.
// A feature id absent from a row's slice is treated as missing; an empty
// slice is a row where every feature is missing. data and output must both
// be []float32 or both []float64.
func PredictSparse(m *model.Model, data any, colInd []int, rowPtr []int, numRow int,
	output any, config *Configuration,
) error {
	if err := checkBatchArgs("PredictSparse", m, numRow, config); err != nil {
		return err
	}
	if err := checkCSR(m, colInd, rowPtr, numRow); err != nil {
		return err
	}
	switch in := data.(type) {
	case []float32:
		out, ok := output.([]float32)
		if !ok {
			return errors.NewInvalidArgumentErrorf("PredictSparse",
				"output buffer type %T does not match data type []float32", output)
		}
		return predictSparse(m, in, colInd, rowPtr, numRow, out, config)
	case []float64:
		out, ok := output.([]float64)
		if !ok {
			return errors.NewInvalidArgumentErrorf("PredictSparse",
				"output buffer type %T does not match data type []float64", output)
		}
		return predictSparse(m, in, colInd, rowPtr, numRow, out, config)
	default:
		return errors.NewInvalidArgumentErrorf("PredictSparse",
			"unsupported data type %T (want []float32 or []float64)", data)
	}
}

func checkBatchArgs(op string, m *model.Model, numRow int, config *Configuration) error {
	if m == nil {
		return errors.NewInvalidArgumentError(op, "model must not be nil")
	}
	if config == nil {
		return errors.NewInvalidArgumentError(op, "configuration must not be nil")
	}
	if numRow < 0 {
		return errors.NewInvalidArgumentErrorf(op, "num_row must be non-negative, got %d", numRow)
	}
	return nil
}

func checkCSR(m *model.Model, colInd, rowPtr []int, numRow int) error {
	if len(rowPtr) != numRow+1 {
		return errors.NewInvalidArgumentErrorf("PredictSparse",
			"row_ptr must have num_row+1 = %d entries, got %d", numRow+1, len(rowPtr))
	}
	if numRow > 0 && rowPtr[0] != 0 {
		return errors.NewInvalidArgumentErrorf("PredictSparse", "row_ptr[0] must be 0, got %d", rowPtr[0])
	}
	for i := 1; i < len(rowPtr); i++ {
		if rowPtr[i] < rowPtr[i-1] {
			return errors.NewInvalidArgumentErrorf("PredictSparse",
				"row_ptr must be monotonically non-decreasing, but row_ptr[%d]=%d < row_ptr[%d]=%d",
				i, rowPtr[i], i-1, rowPtr[i-1])
		}
	}
	nnz := rowPtr[len(rowPtr)-1]
	if nnz > len(colInd) {
		return errors.NewInvalidArgumentErrorf("PredictSparse",
			"row_ptr references %d entries but col_ind has only %d", nnz, len(colInd))
	}
	for i := 0; i < nnz; i++ {
		if colInd[i] < 0 || colInd[i] >= m.NumFeature {
			return errors.NewInvalidArgumentErrorf("PredictSparse",
				"col_ind[%d]=%d outside feature range [0, %d)", i, colInd[i], m.NumFeature)
		}
	}
	return nil
}

// engine bundles the per-call invariants resolved once before the row loop:
// the post-prediction transform, the global bias, and the per-row output
// width for the configured predict kind.
type engine struct {
	m         *model.Model
	kind      PredictKind
	transform transformFunc
	bias      float64
	rowWidth  int
}

func newEngine(m *model.Model, config *Configuration) (*engine, error) {
	e := &engine{m: m, kind: config.PredictKind}
	switch config.PredictKind {
	case PredictLeafID:
		e.rowWidth = m.NumTree()
	case PredictScorePerTree:
		e.rowWidth = m.NumTree() * perTreeWidth(m)
	default:
		e.rowWidth = m.NumClass
		tf, err := transformOf(m)
		if err != nil {
			return nil, err
		}
		bias, err := globalBiasOf(m)
		if err != nil {
			return nil, err
		}
		e.transform = tf
		e.bias = bias
	}
	return e, nil
}

func predictDense[T types.Float](m *model.Model, in []T, numRow int, out []T, config *Configuration) error {
	if len(in) < numRow*m.NumFeature {
		return errors.NewInvalidArgumentErrorf("Predict",
			"input buffer holds %d values, need %d for %d rows of %d features",
			len(in), numRow*m.NumFeature, numRow, m.NumFeature)
	}
	if need := outputSize(m, numRow, config); len(out) < need {
		return errors.NewInvalidArgumentErrorf("Predict",
			"output buffer holds %d values, need %d", len(out), need)
	}
	e, err := newEngine(m, config)
	if err != nil {
		return err
	}
	log.Debug().
		Int("num_row", numRow).
		Int("num_tree", m.NumTree()).
		Int("nthread", config.NumThread).
		Str("predict_type", config.PredictKind.String()).
		Msg("dense predict")

	parallel.Parallelize(numRow, config.NumThread, func(start, end int) {
		row := make([]float64, m.NumFeature)
		scratch := make([]float64, m.NumClass)
		for r := start; r < end; r++ {
			base := r * m.NumFeature
			for j := 0; j < m.NumFeature; j++ {
				row[j] = float64(in[base+j])
			}
			predictRow(e, row, scratch, out[r*e.rowWidth:(r+1)*e.rowWidth])
		}
	})
	return nil
}

func predictSparse[T types.Float](m *model.Model, data []T, colInd, rowPtr []int, numRow int,
	out []T, config *Configuration,
) error {
	if need := outputSize(m, numRow, config); len(out) < need {
		return errors.NewInvalidArgumentErrorf("PredictSparse",
			"output buffer holds %d values, need %d", len(out), need)
	}
	if nnz := rowPtr[len(rowPtr)-1]; nnz > len(data) {
		return errors.NewInvalidArgumentErrorf("PredictSparse",
			"row_ptr references %d entries but data has only %d", nnz, len(data))
	}
	e, err := newEngine(m, config)
	if err != nil {
		return err
	}
	log.Debug().
		Int("num_row", numRow).
		Int("num_tree", m.NumTree()).
		Int("nthread", config.NumThread).
		Str("predict_type", config.PredictKind.String()).
		Msg("sparse predict")

	missing := math.NaN()
	parallel.Parallelize(numRow, config.NumThread, func(start, end int) {
		row := make([]float64, m.NumFeature)
		scratch := make([]float64, m.NumClass)
		for r := start; r < end; r++ {
			// Expand the row's slice of the CSR triple into a dense row;
			// absent columns stay NaN.
			for j := range row {
				row[j] = missing
			}
			for k := rowPtr[r]; k < rowPtr[r+1]; k++ {
				row[colInd[k]] = float64(data[k])
			}
			predictRow(e, row, scratch, out[r*e.rowWidth:(r+1)*e.rowWidth])
		}
	})
	return nil
}

// predictRow evaluates every tree on one dense row and writes the row's
// output slot. scratch must be m.NumClass wide; out must be e.rowWidth
// wide. Tree outputs accumulate in ascending tree order.
func predictRow[T types.Float](e *engine, row, scratch []float64, out []T) {
	switch e.kind {
	case PredictLeafID:
		for t := range e.m.Trees {
			out[t] = T(traverseRow(&e.m.Trees[t], row))
		}
	case PredictScorePerTree:
		width := perTreeWidth(e.m)
		for t := range e.m.Trees {
			tree := &e.m.Trees[t]
			leaf := &tree.Nodes[traverseRow(tree, row)]
			if leaf.LeafVector != nil {
				for c, v := range leaf.LeafVector {
					out[t*width+c] = T(v.Float64())
				}
			} else {
				out[t*width] = T(leaf.LeafValue.Float64())
			}
		}
	default:
		for i := range scratch {
			scratch[i] = 0
		}
		for t := range e.m.Trees {
			tree := &e.m.Trees[t]
			leaf := &tree.Nodes[traverseRow(tree, row)]
			switch {
			case leaf.LeafVector != nil:
				for c, v := range leaf.LeafVector {
					scratch[c] += v.Float64()
				}
			case e.m.NumClass > 1:
				// Scalar-leaf multiclass: trees form one grove per class,
				// interleaved in tree order.
				scratch[t%e.m.NumClass] += leaf.LeafValue.Float64()
			default:
				scratch[0] += leaf.LeafValue.Float64()
			}
		}
		if e.m.AverageTreeOutput {
			for i := range scratch {
				scratch[i] /= float64(e.m.NumTree())
			}
		}
		for i := range scratch {
			scratch[i] += e.bias
		}
		if e.kind == PredictDefault {
			e.transform(scratch)
		}
		for i, v := range scratch {
			out[i] = T(v)
		}
	}
}

// traverseRow walks one tree from the root to a leaf for a dense row with
// NaN marking missing features, and returns the leaf's dense node index.
func traverseRow(tree *model.Tree, row []float64) int32 {
	idx := int32(0)
	for {
		n := &tree.Nodes[idx]
		if n.IsLeaf() {
			return idx
		}
		fv := row[n.SplitFeature]
		var left bool
		switch {
		case math.IsNaN(fv):
			left = n.DefaultLeft
		case n.Kind == model.NumericalNode:
			left = model.Compare(fv, n.Op, n.Threshold.Float64())
		default:
			// Negative or fractional values cannot match a category id;
			// truncation mirrors the integer interpretation of the input.
			left = fv >= 0 && n.CategoryMatches(uint32(fv))
		}
		if left {
			idx = n.LeftChild
		} else {
			idx = n.RightChild
		}
	}
}
