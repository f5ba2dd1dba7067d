package model

import (
	"encoding/json"
	"io"
	"os"

	"github.com/YuminosukeSato/treelite-go/core/types"
	"github.com/YuminosukeSato/treelite-go/pkg/errors"
)

// serializationVersion guards the on-disk layout. Bumped only when the
// field set changes incompatibly.
const serializationVersion = 1

type nodeJSON struct {
	Kind           string    `json:"kind"`
	SplitFeature   uint32    `json:"split_feature,omitempty"`
	Op             string    `json:"op,omitempty"`
	Threshold      *float64  `json:"threshold,omitempty"`
	DefaultLeft    bool      `json:"default_left,omitempty"`
	LeftChild      int32     `json:"left_child"`
	RightChild     int32     `json:"right_child"`
	LeftCategories []uint32  `json:"left_categories,omitempty"`
	LeafValue      *float64  `json:"leaf_value,omitempty"`
	LeafVector     []float64 `json:"leaf_vector,omitempty"`
}

type treeJSON struct {
	ThresholdType  string     `json:"threshold_type"`
	LeafOutputType string     `json:"leaf_output_type"`
	Nodes          []nodeJSON `json:"nodes"`
}

type modelJSON struct {
	Version           int               `json:"version"`
	NumFeature        int               `json:"num_feature"`
	NumClass          int               `json:"num_class"`
	AverageTreeOutput bool              `json:"average_tree_output"`
	ThresholdType     string            `json:"threshold_type"`
	LeafOutputType    string            `json:"leaf_output_type"`
	HasVectorLeaf     bool              `json:"has_vector_leaf"`
	Params            map[string]string `json:"params,omitempty"`
	Trees             []treeJSON        `json:"trees"`
}

// Save writes the model to w as JSON. Every field of the in-memory
// representation round-trips, including the per-tree numeric kinds
// (float32 payloads are emitted after narrowing, so reloading reproduces
// identical bits).
func (m *Model) Save(w io.Writer) error {
	doc := modelJSON{
		Version:           serializationVersion,
		NumFeature:        m.NumFeature,
		NumClass:          m.NumClass,
		AverageTreeOutput: m.AverageTreeOutput,
		ThresholdType:     m.ThresholdType.String(),
		LeafOutputType:    m.LeafOutputType.String(),
		HasVectorLeaf:     m.HasVectorLeaf,
		Params:            m.Params,
		Trees:             make([]treeJSON, 0, len(m.Trees)),
	}
	for i := range m.Trees {
		t := &m.Trees[i]
		tj := treeJSON{
			ThresholdType:  t.ThresholdType.String(),
			LeafOutputType: t.LeafOutputType.String(),
			Nodes:          make([]nodeJSON, 0, len(t.Nodes)),
		}
		for j := range t.Nodes {
			tj.Nodes = append(tj.Nodes, encodeNode(&t.Nodes[j]))
		}
		doc.Trees = append(doc.Trees, tj)
	}
	enc := json.NewEncoder(w)
	if err := enc.Encode(&doc); err != nil {
		return errors.Wrap(err, "failed to serialize model")
	}
	return nil
}

// SaveToFile writes the model to a file.
func (m *Model) SaveToFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create model file")
	}
	defer f.Close()
	return m.Save(f)
}

func encodeNode(n *Node) nodeJSON {
	nj := nodeJSON{
		Kind:       n.Kind.String(),
		LeftChild:  n.LeftChild,
		RightChild: n.RightChild,
	}
	switch n.Kind {
	case NumericalNode:
		nj.SplitFeature = n.SplitFeature
		nj.Op = n.Op.String()
		th := n.Threshold.Float64()
		nj.Threshold = &th
		nj.DefaultLeft = n.DefaultLeft
	case CategoricalNode:
		nj.SplitFeature = n.SplitFeature
		nj.LeftCategories = n.LeftCategories
		nj.DefaultLeft = n.DefaultLeft
	case LeafNode:
		if n.LeafVector != nil {
			nj.LeafVector = make([]float64, 0, len(n.LeafVector))
			for _, v := range n.LeafVector {
				nj.LeafVector = append(nj.LeafVector, v.Float64())
			}
		} else {
			lv := n.LeafValue.Float64()
			nj.LeafValue = &lv
		}
	}
	return nj
}

// Load reads a model previously written by Save.
func Load(r io.Reader) (*Model, error) {
	var doc modelJSON
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "failed to parse model file")
	}
	if doc.Version != serializationVersion {
		return nil, errors.NewInvalidArgumentErrorf("Load",
			"unsupported serialization version %d (want %d)", doc.Version, serializationVersion)
	}
	thType, err := types.ParseTypeInfo(doc.ThresholdType)
	if err != nil {
		return nil, err
	}
	leafType, err := types.ParseTypeInfo(doc.LeafOutputType)
	if err != nil {
		return nil, err
	}
	m := &Model{
		Trees:             make([]Tree, 0, len(doc.Trees)),
		NumFeature:        doc.NumFeature,
		NumClass:          doc.NumClass,
		AverageTreeOutput: doc.AverageTreeOutput,
		ThresholdType:     thType,
		LeafOutputType:    leafType,
		HasVectorLeaf:     doc.HasVectorLeaf,
		Params:            doc.Params,
	}
	for ti, tj := range doc.Trees {
		tree, err := decodeTree(ti, tj)
		if err != nil {
			return nil, err
		}
		if tree.ThresholdType != thType || tree.LeafOutputType != leafType {
			return nil, errors.NewInvalidTreeError(ti, -1, "tree numeric kinds differ from ensemble kinds")
		}
		m.Trees = append(m.Trees, tree)
	}
	return m, nil
}

// LoadFromFile reads a model from a file previously written by SaveToFile.
func LoadFromFile(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open model file")
	}
	defer f.Close()
	return Load(f)
}

func decodeTree(treeIdx int, tj treeJSON) (Tree, error) {
	thType, err := types.ParseTypeInfo(tj.ThresholdType)
	if err != nil {
		return Tree{}, err
	}
	leafType, err := types.ParseTypeInfo(tj.LeafOutputType)
	if err != nil {
		return Tree{}, err
	}
	tree := Tree{
		Nodes:          make([]Node, 0, len(tj.Nodes)),
		ThresholdType:  thType,
		LeafOutputType: leafType,
	}
	for ni, nj := range tj.Nodes {
		n, err := decodeNode(treeIdx, ni, nj, thType, leafType)
		if err != nil {
			return Tree{}, err
		}
		tree.Nodes = append(tree.Nodes, n)
	}
	return tree, nil
}

func decodeNode(treeIdx, nodeIdx int, nj nodeJSON, thType, leafType types.TypeInfo) (Node, error) {
	n := Node{
		LeftChild:  nj.LeftChild,
		RightChild: nj.RightChild,
	}
	switch nj.Kind {
	case "numerical_test":
		n.Kind = NumericalNode
		if nj.Threshold == nil {
			return Node{}, errors.NewInvalidTreeError(treeIdx, nodeIdx, "numerical test node missing threshold")
		}
		op, err := ParseOperator(nj.Op)
		if err != nil {
			return Node{}, err
		}
		th, err := types.NewValue(thType, *nj.Threshold)
		if err != nil {
			return Node{}, err
		}
		n.SplitFeature = nj.SplitFeature
		n.Op = op
		n.Threshold = th
		n.DefaultLeft = nj.DefaultLeft
	case "categorical_test":
		n.Kind = CategoricalNode
		n.SplitFeature = nj.SplitFeature
		n.LeftCategories = nj.LeftCategories
		n.DefaultLeft = nj.DefaultLeft
	case "leaf":
		n.Kind = LeafNode
		switch {
		case nj.LeafVector != nil:
			n.LeafVector = make([]types.Value, 0, len(nj.LeafVector))
			for _, lv := range nj.LeafVector {
				v, err := types.NewValue(leafType, lv)
				if err != nil {
					return Node{}, err
				}
				n.LeafVector = append(n.LeafVector, v)
			}
		case nj.LeafValue != nil:
			v, err := types.NewValue(leafType, *nj.LeafValue)
			if err != nil {
				return Node{}, err
			}
			n.LeafValue = v
		default:
			return Node{}, errors.NewInvalidTreeError(treeIdx, nodeIdx, "leaf node missing output")
		}
	default:
		return Node{}, errors.NewInvalidTreeError(treeIdx, nodeIdx, "unknown node kind "+nj.Kind)
	}
	return n, nil
}
