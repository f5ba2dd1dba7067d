// Package treelite provides a framework-agnostic in-memory representation
// of decision tree ensembles, together with a generic inference engine for
// evaluating them on dense or sparse batches.
//
// Models are assembled node by node through a mutable builder layer and
// then committed into an immutable, validated form that the inference
// engine consumes. Gradient boosted trees and random forests from any
// training framework can be expressed this way, including multiclass
// ensembles, vector-valued leaves, categorical splits, and missing-value
// default directions.
//
// # Packages
//
//   - builder: mutable TreeBuilder/ModelBuilder API for constructing
//     ensembles incrementally, with full structural validation at commit
//   - model: the immutable committed ensemble and its JSON serialization
//   - gtil: the inference engine (dense, CSR sparse, and gonum matrix
//     front ends) with configurable prediction modes
//   - core/types: runtime-tagged float32/float64 values shared by the
//     builder and the engine
//
// # Quick Start
//
// Build a single-tree model and run a prediction:
//
//	package main
//
//	import (
//	    "fmt"
//
//	    "github.com/YuminosukeSato/treelite-go/builder"
//	    "github.com/YuminosukeSato/treelite-go/core/types"
//	    "github.com/YuminosukeSato/treelite-go/gtil"
//	    "github.com/YuminosukeSato/treelite-go/model"
//	)
//
//	func main() {
//	    tb, _ := builder.NewTreeBuilder(types.Float64, types.Float64)
//	    tb.CreateNode(0)
//	    tb.CreateNode(1)
//	    tb.CreateNode(2)
//	    tb.SetNumericalTestNode(0, 0, model.OpLT, types.Float64Value(0.5), true, 1, 2)
//	    tb.SetLeafNode(1, types.Float64Value(1.0))
//	    tb.SetLeafNode(2, types.Float64Value(2.0))
//	    tb.SetRootNode(0)
//
//	    mb, _ := builder.NewModelBuilder(1, 1, false, types.Float64, types.Float64)
//	    mb.InsertTree(tb, -1)
//	    m, _ := mb.CommitModel()
//
//	    config, _ := gtil.ParseConfig(`{}`)
//	    out := make([]float64, 1)
//	    gtil.Predict(m, []float64{0.3}, 1, out, config)
//	    fmt.Println(out[0]) // 1
//	}
//
// Committed models are safe for concurrent use; prediction calls only read
// them. Builders are not safe for concurrent use.
package treelite
