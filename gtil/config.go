// Package gtil implements the generic tree inference engine: it evaluates a
// committed model.Model against dense or sparse (CSR) input batches,
// derives output tensor shapes, and applies the model's post-prediction
// transform. The engine holds no mutable state of its own; a Model and a
// Configuration may be shared by any number of concurrent calls.
package gtil

import (
	"encoding/json"
	"strings"

	"github.com/YuminosukeSato/treelite-go/pkg/errors"
)

// PredictKind selects what each prediction call writes to the output buffer.
type PredictKind int

const (
	// PredictDefault produces transformed predictions: the accumulated
	// margin plus global bias, passed through the model's pred_transform.
	PredictDefault PredictKind = iota
	// PredictRaw produces untransformed margins (global bias included).
	PredictRaw
	// PredictLeafID produces, per row and tree, the dense index of the
	// leaf the row lands in.
	PredictLeafID
	// PredictScorePerTree produces each tree's own output separately,
	// without ensemble combining or transforms.
	PredictScorePerTree
)

func (k PredictKind) String() string {
	switch k {
	case PredictDefault:
		return "default"
	case PredictRaw:
		return "raw"
	case PredictLeafID:
		return "leaf_id"
	case PredictScorePerTree:
		return "score_per_tree"
	default:
		return "unknown"
	}
}

// Configuration is a validated, immutable set of inference options. Parse
// it once with ParseConfig and reuse it across any number of predict calls;
// it is independent of any particular Model.
type Configuration struct {
	// NumThread bounds the number of worker goroutines used per predict
	// call. Zero means "use all available CPU cores".
	NumThread int
	// PredictKind selects the output mode.
	PredictKind PredictKind
}

// rawConfig is the wire form of the configuration string: a flat JSON
// document. Pointer fields distinguish "absent" from zero values.
type rawConfig struct {
	Nthread     *int    `json:"nthread"`
	PredictType *string `json:"predict_type"`
}

// ParseConfig parses a configuration string into a Configuration.
//
// Recognized keys:
//
//	"nthread"      — integer >= 0; 0 (the default) means all available cores
//	"predict_type" — one of "default", "raw", "leaf_id", "score_per_tree"
//
// Unrecognized keys are rejected rather than ignored, so caller typos
// surface immediately instead of silently degrading behavior.
func ParseConfig(configJSON string) (*Configuration, error) {
	dec := json.NewDecoder(strings.NewReader(configJSON))
	dec.DisallowUnknownFields()
	var raw rawConfig
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.NewInvalidArgumentErrorf("ParseConfig", "malformed configuration string: %v", err)
	}

	cfg := &Configuration{NumThread: 0, PredictKind: PredictDefault}
	if raw.Nthread != nil {
		if *raw.Nthread < 0 {
			return nil, errors.NewInvalidArgumentErrorf("ParseConfig", "nthread must be >= 0, got %d", *raw.Nthread)
		}
		cfg.NumThread = *raw.Nthread
	}
	if raw.PredictType != nil {
		switch *raw.PredictType {
		case "default":
			cfg.PredictKind = PredictDefault
		case "raw":
			cfg.PredictKind = PredictRaw
		case "leaf_id":
			cfg.PredictKind = PredictLeafID
		case "score_per_tree":
			cfg.PredictKind = PredictScorePerTree
		default:
			return nil, errors.NewInvalidArgumentErrorf("ParseConfig", "unknown predict_type %q", *raw.PredictType)
		}
	}
	return cfg, nil
}
