package gtil

import (
	"math"
	"strconv"

	"github.com/YuminosukeSato/treelite-go/model"
	"github.com/YuminosukeSato/treelite-go/pkg/errors"
)

// transformFunc maps one row's accumulated margins in place.
type transformFunc func(row []float64)

// transformOf resolves the model's post-prediction transform from its
// "pred_transform" parameter. The recognized catalog is a model-level
// contract; unknown names are rejected rather than passed through silently.
func transformOf(m *model.Model) (transformFunc, error) {
	name, ok := m.Param("pred_transform")
	if !ok || name == "identity" {
		return func([]float64) {}, nil
	}
	switch name {
	case "sigmoid":
		alpha := 1.0
		if s, ok := m.Param("sigmoid_alpha"); ok {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil || v <= 0 {
				return nil, errors.NewInvalidArgumentErrorf("transformOf",
					"sigmoid_alpha must be a positive number, got %q", s)
			}
			alpha = v
		}
		return func(row []float64) {
			for i := range row {
				row[i] = stableSigmoid(alpha * row[i])
			}
		}, nil
	case "softmax":
		return stableSoftmax, nil
	case "exponential":
		return func(row []float64) {
			for i := range row {
				row[i] = stableExp(row[i])
			}
		}, nil
	default:
		return nil, errors.NewInvalidArgumentErrorf("transformOf", "unknown pred_transform %q", name)
	}
}

// globalBiasOf resolves the model's "global_bias" parameter; models without
// one have zero bias.
func globalBiasOf(m *model.Model) (float64, error) {
	s, ok := m.Param("global_bias")
	if !ok {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.NewInvalidArgumentErrorf("globalBiasOf", "global_bias must be a number, got %q", s)
	}
	return v, nil
}

// stableSigmoid computes 1/(1+exp(-x)) without overflowing exp.
func stableSigmoid(x float64) float64 {
	if x > 500 {
		return 1.0
	}
	if x < -500 {
		return 0.0
	}
	if x >= 0 {
		return 1.0 / (1.0 + math.Exp(-x))
	}
	expX := math.Exp(x)
	return expX / (1.0 + expX)
}

// stableExp computes exp(x) with overflow/underflow clamping.
func stableExp(x float64) float64 {
	if x > 700 {
		return math.Inf(1)
	}
	if x < -700 {
		return 0.0
	}
	return math.Exp(x)
}

// stableSoftmax normalizes a row of margins into probabilities, subtracting
// the row maximum before exponentiating for numerical stability.
func stableSoftmax(row []float64) {
	if len(row) == 0 {
		return
	}
	maxVal := row[0]
	for _, v := range row[1:] {
		if v > maxVal {
			maxVal = v
		}
	}
	expSum := 0.0
	for i, v := range row {
		row[i] = stableExp(v - maxVal)
		expSum += row[i]
	}
	if expSum > 0 {
		for i := range row {
			row[i] /= expSum
		}
	}
}
