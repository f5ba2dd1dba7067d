package gtil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/treelite-go/builder"
	"github.com/YuminosukeSato/treelite-go/core/types"
	"github.com/YuminosukeSato/treelite-go/model"
	"github.com/YuminosukeSato/treelite-go/pkg/errors"
)

func mustConfig(t *testing.T, configJSON string) *Configuration {
	t.Helper()
	cfg, err := ParseConfig(configJSON)
	require.NoError(t, err)
	return cfg
}

// stumpModel is the canonical round-trip fixture: one tree testing
// feature 0 < 0.5 with default-left, left leaf 1.0, right leaf 2.0;
// one output group, no averaging.
func stumpModel(t *testing.T) *model.Model {
	t.Helper()
	tb, err := builder.NewTreeBuilder(types.Float64, types.Float64)
	require.NoError(t, err)
	for key := 0; key <= 2; key++ {
		require.NoError(t, tb.CreateNode(key))
	}
	require.NoError(t, tb.SetNumericalTestNode(0, 0, model.OpLT, types.Float64Value(0.5), true, 1, 2))
	require.NoError(t, tb.SetLeafNode(1, types.Float64Value(1.0)))
	require.NoError(t, tb.SetLeafNode(2, types.Float64Value(2.0)))
	require.NoError(t, tb.SetRootNode(0))

	mb, err := builder.NewModelBuilder(1, 1, false, types.Float64, types.Float64)
	require.NoError(t, err)
	_, err = mb.InsertTree(tb, -1)
	require.NoError(t, err)
	m, err := mb.CommitModel()
	require.NoError(t, err)
	return m
}

// categoricalModel routes feature 0 left when its category is in {0, 2},
// with default-right for missing values; left leaf 10, right leaf 20.
func categoricalModel(t *testing.T) *model.Model {
	t.Helper()
	tb, err := builder.NewTreeBuilder(types.Float64, types.Float64)
	require.NoError(t, err)
	for key := 0; key <= 2; key++ {
		require.NoError(t, tb.CreateNode(key))
	}
	require.NoError(t, tb.SetCategoricalTestNode(0, 0, []uint32{0, 2}, false, 1, 2))
	require.NoError(t, tb.SetLeafNode(1, types.Float64Value(10)))
	require.NoError(t, tb.SetLeafNode(2, types.Float64Value(20)))
	require.NoError(t, tb.SetRootNode(0))

	mb, err := builder.NewModelBuilder(1, 1, false, types.Float64, types.Float64)
	require.NoError(t, err)
	_, err = mb.InsertTree(tb, -1)
	require.NoError(t, err)
	m, err := mb.CommitModel()
	require.NoError(t, err)
	return m
}

// leafOnlyModel builds an ensemble of single-leaf trees with the given
// outputs.
func leafOnlyModel(t *testing.T, average bool, leaves ...float64) *model.Model {
	t.Helper()
	return leafOnlyModelWithParams(t, average, nil, leaves...)
}

func leafOnlyModelWithParams(t *testing.T, average bool, params map[string]string, leaves ...float64) *model.Model {
	t.Helper()
	mb, err := builder.NewModelBuilder(1, 1, average, types.Float64, types.Float64)
	require.NoError(t, err)
	for name, value := range params {
		require.NoError(t, mb.SetModelParam(name, value))
	}
	for _, leaf := range leaves {
		tb, err := builder.NewTreeBuilder(types.Float64, types.Float64)
		require.NoError(t, err)
		require.NoError(t, tb.CreateNode(0))
		require.NoError(t, tb.SetLeafNode(0, types.Float64Value(leaf)))
		require.NoError(t, tb.SetRootNode(0))
		_, err = mb.InsertTree(tb, -1)
		require.NoError(t, err)
	}
	m, err := mb.CommitModel()
	require.NoError(t, err)
	return m
}

// vectorLeafModel builds one single-leaf tree whose leaf carries the given
// per-class vector, with numClass = len(vector).
func vectorLeafModel(t *testing.T, vector []float64) *model.Model {
	t.Helper()
	return vectorLeafModelWithParams(t, nil, vector)
}

func vectorLeafModelWithParams(t *testing.T, params map[string]string, vector []float64) *model.Model {
	t.Helper()
	mb, err := builder.NewModelBuilder(1, len(vector), false, types.Float64, types.Float64)
	require.NoError(t, err)
	for name, value := range params {
		require.NoError(t, mb.SetModelParam(name, value))
	}
	tb, err := builder.NewTreeBuilder(types.Float64, types.Float64)
	require.NoError(t, err)
	require.NoError(t, tb.CreateNode(0))
	vec := make([]types.Value, len(vector))
	for i, v := range vector {
		vec[i] = types.Float64Value(v)
	}
	require.NoError(t, tb.SetLeafVectorNode(0, vec))
	require.NoError(t, tb.SetRootNode(0))
	_, err = mb.InsertTree(tb, -1)
	require.NoError(t, err)
	m, err := mb.CommitModel()
	require.NoError(t, err)
	return m
}

func TestPredictRoundTrip(t *testing.T) {
	m := stumpModel(t)
	cfg := mustConfig(t, `{}`)

	t.Run("float64", func(t *testing.T) {
		in := []float64{0.3, 0.8, math.NaN()}
		out := make([]float64, 3)
		require.NoError(t, Predict(m, in, 3, out, cfg))
		assert.Equal(t, 1.0, out[0])
		assert.Equal(t, 2.0, out[1])
		assert.Equal(t, 1.0, out[2], "missing value follows default-left")
	})

	t.Run("float32", func(t *testing.T) {
		in := []float32{0.3, 0.8, float32(math.NaN())}
		out := make([]float32, 3)
		require.NoError(t, Predict(m, in, 3, out, cfg))
		assert.Equal(t, float32(1.0), out[0])
		assert.Equal(t, float32(2.0), out[1])
		assert.Equal(t, float32(1.0), out[2])
	})
}

func TestPredictCategorical(t *testing.T) {
	m := categoricalModel(t)
	cfg := mustConfig(t, `{}`)

	in := []float64{0, 1, 2, math.NaN(), -3}
	out := make([]float64, len(in))
	require.NoError(t, Predict(m, in, len(in), out, cfg))
	assert.Equal(t, 10.0, out[0], "category 0 is in the left set")
	assert.Equal(t, 20.0, out[1], "category 1 is not in the left set")
	assert.Equal(t, 10.0, out[2], "category 2 is in the left set")
	assert.Equal(t, 20.0, out[3], "missing follows default-right")
	assert.Equal(t, 20.0, out[4], "negative values never match a category")
}

func TestGetOutputShape(t *testing.T) {
	margin := mustConfig(t, `{"predict_type": "raw"}`)
	leafID := mustConfig(t, `{"predict_type": "leaf_id"}`)
	perTree := mustConfig(t, `{"predict_type": "score_per_tree"}`)

	t.Run("multi class margin", func(t *testing.T) {
		m := vectorLeafModel(t, []float64{1, 2, 3})
		assert.Equal(t, []int{10, 3}, GetOutputShape(m, 10, margin))
	})

	t.Run("single class collapses to one dimension", func(t *testing.T) {
		m := stumpModel(t)
		assert.Equal(t, []int{10}, GetOutputShape(m, 10, margin))
	})

	t.Run("leaf id is rows by trees", func(t *testing.T) {
		m := leafOnlyModel(t, false, 1, 2, 3, 4, 5)
		assert.Equal(t, []int{10, 5}, GetOutputShape(m, 10, leafID))
	})

	t.Run("score per tree carries the leaf vector width", func(t *testing.T) {
		m := vectorLeafModel(t, []float64{1, 2, 3})
		assert.Equal(t, []int{10, 1, 3}, GetOutputShape(m, 10, perTree))

		scalar := leafOnlyModel(t, false, 1, 2)
		assert.Equal(t, []int{10, 2, 1}, GetOutputShape(scalar, 10, perTree))
	})
}

func TestEnsembleCombination(t *testing.T) {
	cfg := mustConfig(t, `{}`)
	in := []float64{0.0}
	out := make([]float64, 1)

	t.Run("boosting sums tree outputs", func(t *testing.T) {
		m := leafOnlyModel(t, false, 1, 2, 3)
		require.NoError(t, Predict(m, in, 1, out, cfg))
		assert.Equal(t, 6.0, out[0])
	})

	t.Run("random forest divides by tree count", func(t *testing.T) {
		m := leafOnlyModel(t, true, 1, 2, 3)
		require.NoError(t, Predict(m, in, 1, out, cfg))
		assert.Equal(t, 2.0, out[0])
	})
}

func TestTransforms(t *testing.T) {
	in := []float64{0.0}
	out := make([]float64, 1)

	t.Run("sigmoid applies only in default mode", func(t *testing.T) {
		m := leafOnlyModelWithParams(t, false, map[string]string{"pred_transform": "sigmoid"}, 1.0)

		require.NoError(t, Predict(m, in, 1, out, mustConfig(t, `{}`)))
		assert.InDelta(t, 1.0/(1.0+math.Exp(-1.0)), out[0], 1e-12)

		require.NoError(t, Predict(m, in, 1, out, mustConfig(t, `{"predict_type": "raw"}`)))
		assert.Equal(t, 1.0, out[0])
	})

	t.Run("sigmoid alpha scales the margin", func(t *testing.T) {
		m := leafOnlyModelWithParams(t, false,
			map[string]string{"pred_transform": "sigmoid", "sigmoid_alpha": "2.0"}, 1.0)
		require.NoError(t, Predict(m, in, 1, out, mustConfig(t, `{}`)))
		assert.InDelta(t, 1.0/(1.0+math.Exp(-2.0)), out[0], 1e-12)
	})

	t.Run("invalid sigmoid alpha is rejected", func(t *testing.T) {
		m := leafOnlyModelWithParams(t, false,
			map[string]string{"pred_transform": "sigmoid", "sigmoid_alpha": "-1"}, 1.0)
		err := Predict(m, in, 1, out, mustConfig(t, `{}`))
		var invalidArg *errors.InvalidArgumentError
		assert.True(t, errors.As(err, &invalidArg))
	})

	t.Run("unknown transform is rejected", func(t *testing.T) {
		m := leafOnlyModelWithParams(t, false, map[string]string{"pred_transform": "probit"}, 1.0)
		assert.Error(t, Predict(m, in, 1, out, mustConfig(t, `{}`)))
	})

	t.Run("global bias is added before the transform", func(t *testing.T) {
		m := leafOnlyModelWithParams(t, false, map[string]string{"global_bias": "0.5"}, 1.0)
		require.NoError(t, Predict(m, in, 1, out, mustConfig(t, `{}`)))
		assert.Equal(t, 1.5, out[0])
	})

	t.Run("softmax normalizes vector leaves", func(t *testing.T) {
		m := vectorLeafModelWithParams(t, map[string]string{"pred_transform": "softmax"}, []float64{1, 2, 3})
		probs := make([]float64, 3)
		require.NoError(t, Predict(m, in, 1, probs, mustConfig(t, `{}`)))

		sum := probs[0] + probs[1] + probs[2]
		assert.InDelta(t, 1.0, sum, 1e-12)
		assert.InDelta(t, 0.09003057317038046, probs[0], 1e-9)
		assert.InDelta(t, 0.24472847105479767, probs[1], 1e-9)
		assert.InDelta(t, 0.6652409557748219, probs[2], 1e-9)

		// Raw mode returns the untransformed margins.
		require.NoError(t, Predict(m, in, 1, probs, mustConfig(t, `{"predict_type": "raw"}`)))
		assert.Equal(t, []float64{1, 2, 3}, probs)
	})
}

func TestPredictLeafID(t *testing.T) {
	m := stumpModel(t)
	cfg := mustConfig(t, `{"predict_type": "leaf_id"}`)

	in := []float64{0.3, 0.8}
	out := make([]float64, 2)
	require.NoError(t, Predict(m, in, 2, out, cfg))
	// BFS layout: root 0, left leaf 1, right leaf 2.
	assert.Equal(t, 1.0, out[0])
	assert.Equal(t, 2.0, out[1])
}

func TestPredictScorePerTree(t *testing.T) {
	m := leafOnlyModel(t, true, 1, 2, 3)
	cfg := mustConfig(t, `{"predict_type": "score_per_tree"}`)

	out := make([]float64, 3)
	require.NoError(t, Predict(m, []float64{0}, 1, out, cfg))
	// Per-tree outputs are reported without averaging or bias.
	assert.Equal(t, []float64{1, 2, 3}, out)
}

func TestPredictSparse(t *testing.T) {
	m := stumpModel(t)
	cfg := mustConfig(t, `{}`)

	t.Run("equivalent to dense", func(t *testing.T) {
		// Three rows: present 0.3, present 0.8, and an empty slice.
		data := []float64{0.3, 0.8}
		colInd := []int{0, 0}
		rowPtr := []int{0, 1, 2, 2}
		out := make([]float64, 3)
		require.NoError(t, PredictSparse(m, data, colInd, rowPtr, 3, out, cfg))
		assert.Equal(t, 1.0, out[0])
		assert.Equal(t, 2.0, out[1])
		assert.Equal(t, 1.0, out[2], "empty CSR row behaves as all-missing")
	})

	t.Run("float32 data", func(t *testing.T) {
		out := make([]float32, 1)
		require.NoError(t, PredictSparse(m, []float32{0.8}, []int{0}, []int{0, 1}, 1, out, cfg))
		assert.Equal(t, float32(2.0), out[0])
	})

	t.Run("malformed triples are rejected", func(t *testing.T) {
		var invalidArg *errors.InvalidArgumentError
		out := make([]float64, 2)

		err := PredictSparse(m, []float64{1}, []int{0}, []int{0, 1}, 2, out, cfg)
		assert.True(t, errors.As(err, &invalidArg), "row_ptr length mismatch")

		err = PredictSparse(m, []float64{1, 2}, []int{0, 0}, []int{0, 2, 1}, 2, out, cfg)
		assert.True(t, errors.As(err, &invalidArg), "non-monotonic row_ptr")

		err = PredictSparse(m, []float64{1, 2}, []int{0, 0}, []int{1, 1, 2}, 2, out, cfg)
		assert.True(t, errors.As(err, &invalidArg), "row_ptr must start at 0")

		err = PredictSparse(m, []float64{1, 2}, []int{0, 9}, []int{0, 1, 2}, 2, out, cfg)
		assert.True(t, errors.As(err, &invalidArg), "column id outside feature range")

		err = PredictSparse(m, []float64{1}, []int{0, 0}, []int{0, 1, 2}, 2, out, cfg)
		assert.True(t, errors.As(err, &invalidArg), "data shorter than row_ptr claims")
	})
}

func TestPredictArgumentValidation(t *testing.T) {
	m := stumpModel(t)
	cfg := mustConfig(t, `{}`)
	var invalidArg *errors.InvalidArgumentError

	t.Run("unsupported input type tag", func(t *testing.T) {
		err := Predict(m, []int{1, 2}, 2, make([]float64, 2), cfg)
		assert.True(t, errors.As(err, &invalidArg))
	})

	t.Run("mismatched output buffer type", func(t *testing.T) {
		err := Predict(m, []float64{0.3}, 1, make([]float32, 1), cfg)
		assert.True(t, errors.As(err, &invalidArg))
	})

	t.Run("short input buffer", func(t *testing.T) {
		err := Predict(m, []float64{0.3}, 2, make([]float64, 2), cfg)
		assert.True(t, errors.As(err, &invalidArg))
	})

	t.Run("short output buffer", func(t *testing.T) {
		err := Predict(m, []float64{0.3, 0.8}, 2, make([]float64, 1), cfg)
		assert.True(t, errors.As(err, &invalidArg))
	})

	t.Run("negative row count", func(t *testing.T) {
		err := Predict(m, []float64{}, -1, []float64{}, cfg)
		assert.True(t, errors.As(err, &invalidArg))
	})

	t.Run("nil model and config", func(t *testing.T) {
		assert.Error(t, Predict(nil, []float64{}, 0, []float64{}, cfg))
		assert.Error(t, Predict(m, []float64{}, 0, []float64{}, nil))
	})
}

func TestPredictDeterministicAcrossThreadCounts(t *testing.T) {
	m := stumpModel(t)
	const numRow = 257
	in := make([]float64, numRow)
	for i := range in {
		switch i % 3 {
		case 0:
			in[i] = 0.3
		case 1:
			in[i] = 0.8
		default:
			in[i] = math.NaN()
		}
	}

	sequential := make([]float64, numRow)
	require.NoError(t, Predict(m, in, numRow, sequential, mustConfig(t, `{"nthread": 1}`)))

	for _, nthread := range []int{2, 4, 16} {
		parallel := make([]float64, numRow)
		cfg := mustConfig(t, `{}`)
		cfg.NumThread = nthread
		require.NoError(t, Predict(m, in, numRow, parallel, cfg))
		assert.Equal(t, sequential, parallel, "nthread=%d", nthread)
	}
}

func TestPredictMatrix(t *testing.T) {
	m := stumpModel(t)

	t.Run("margin output", func(t *testing.T) {
		X := mat.NewDense(2, 1, []float64{0.3, 0.8})
		result, err := PredictMatrix(m, X, mustConfig(t, `{}`))
		require.NoError(t, err)
		rows, cols := result.Dims()
		assert.Equal(t, 2, rows)
		assert.Equal(t, 1, cols)
		assert.Equal(t, 1.0, result.At(0, 0))
		assert.Equal(t, 2.0, result.At(1, 0))
	})

	t.Run("multi class output has one column per class", func(t *testing.T) {
		mc := vectorLeafModel(t, []float64{1, 2, 3})
		X := mat.NewDense(2, 1, []float64{0, 0})
		result, err := PredictMatrix(mc, X, mustConfig(t, `{"predict_type": "raw"}`))
		require.NoError(t, err)
		_, cols := result.Dims()
		assert.Equal(t, 3, cols)
		assert.Equal(t, 3.0, result.At(0, 2))
	})

	t.Run("feature dimension mismatch", func(t *testing.T) {
		X := mat.NewDense(1, 4, []float64{1, 2, 3, 4})
		_, err := PredictMatrix(m, X, mustConfig(t, `{}`))
		var invalidArg *errors.InvalidArgumentError
		assert.True(t, errors.As(err, &invalidArg))
	})
}

func TestMulticlassGrovePerClass(t *testing.T) {
	// Scalar-leaf multiclass: trees are interleaved by class, so tree i
	// contributes to class i mod numClass.
	mb, err := builder.NewModelBuilder(1, 2, false, types.Float64, types.Float64)
	require.NoError(t, err)
	for _, leaf := range []float64{1, 10, 2, 20} {
		tb, err := builder.NewTreeBuilder(types.Float64, types.Float64)
		require.NoError(t, err)
		require.NoError(t, tb.CreateNode(0))
		require.NoError(t, tb.SetLeafNode(0, types.Float64Value(leaf)))
		require.NoError(t, tb.SetRootNode(0))
		_, err = mb.InsertTree(tb, -1)
		require.NoError(t, err)
	}
	m, err := mb.CommitModel()
	require.NoError(t, err)

	out := make([]float64, 2)
	require.NoError(t, Predict(m, []float64{0}, 1, out, mustConfig(t, `{"predict_type": "raw"}`)))
	assert.Equal(t, 3.0, out[0], "class 0 accumulates trees 0 and 2")
	assert.Equal(t, 30.0, out[1], "class 1 accumulates trees 1 and 3")
}
