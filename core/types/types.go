// Package types defines the numeric type system shared by the tree builder
// and the GTIL engine: a TypeInfo tag enumerating the supported numeric
// kinds and a Value tagged union holding one threshold or leaf weight.
//
// All arithmetic on values dispatches on the kind tag exactly once per
// batch operation; the engine resolves the concrete kind up front (via the
// Float generic constraint) and then runs monomorphic code.
package types

import (
	"fmt"
	"strconv"

	"github.com/YuminosukeSato/treelite-go/pkg/errors"
)

// Float is the constraint satisfied by the numeric kinds the engine can
// operate on natively.
type Float interface {
	~float32 | ~float64
}

// TypeInfo identifies the runtime numeric kind of a Value.
type TypeInfo uint8

const (
	// InvalidType is the zero TypeInfo; no Value carries it.
	InvalidType TypeInfo = iota
	// Float32 is IEEE 754 single precision.
	Float32
	// Float64 is IEEE 754 double precision.
	Float64
)

func (t TypeInfo) String() string {
	switch t {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return "invalid"
	}
}

// ParseTypeInfo converts a type name back into a TypeInfo. It accepts
// exactly the strings produced by TypeInfo.String.
func ParseTypeInfo(s string) (TypeInfo, error) {
	switch s {
	case "float32":
		return Float32, nil
	case "float64":
		return Float64, nil
	default:
		return InvalidType, errors.NewInvalidArgumentErrorf("ParseTypeInfo", "unknown type name %q", s)
	}
}

// TypeInfoOf returns the TypeInfo tag for a concrete Float type.
func TypeInfoOf[T Float]() TypeInfo {
	var zero T
	switch any(zero).(type) {
	case float32:
		return Float32
	default:
		return Float64
	}
}

// Value is a type-erased numeric cell: one threshold or one leaf weight,
// tagged with its kind. The zero Value has kind InvalidType.
//
// Float32 payloads are stored in float32 precision so that round-tripping
// through a Value never widens a model's numeric behavior.
type Value struct {
	kind TypeInfo
	f32  float32
	f64  float64
}

// Float32Value creates a Value of kind Float32.
func Float32Value(v float32) Value {
	return Value{kind: Float32, f32: v}
}

// Float64Value creates a Value of kind Float64.
func Float64Value(v float64) Value {
	return Value{kind: Float64, f64: v}
}

// NewValue creates a Value of the given kind from a float64 payload,
// narrowing to float32 when kind is Float32.
func NewValue(kind TypeInfo, v float64) (Value, error) {
	switch kind {
	case Float32:
		return Float32Value(float32(v)), nil
	case Float64:
		return Float64Value(v), nil
	default:
		return Value{}, errors.NewInvalidArgumentErrorf("NewValue", "cannot create value of kind %s", kind)
	}
}

// Kind returns the numeric kind tag.
func (v Value) Kind() TypeInfo {
	return v.kind
}

// Float64 returns the payload widened to float64. Widening float32 to
// float64 is exact, so this is the canonical read path for the engine.
func (v Value) Float64() float64 {
	if v.kind == Float32 {
		return float64(v.f32)
	}
	return v.f64
}

// Float32 returns the payload narrowed to float32.
func (v Value) Float32() float32 {
	if v.kind == Float32 {
		return v.f32
	}
	return float32(v.f64)
}

// SameKind reports whether v and o carry the same numeric kind.
func (v Value) SameKind(o Value) bool {
	return v.kind == o.kind
}

// Equal reports payload equality. Values of different kinds are never equal.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	if v.kind == Float32 {
		return v.f32 == o.f32
	}
	return v.f64 == o.f64
}

// Less reports payload ordering. Ordering is defined only between values of
// the same kind; for mismatched kinds Less returns false.
func (v Value) Less(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	if v.kind == Float32 {
		return v.f32 < o.f32
	}
	return v.f64 < o.f64
}

func (v Value) String() string {
	switch v.kind {
	case Float32:
		return strconv.FormatFloat(float64(v.f32), 'g', -1, 32)
	case Float64:
		return strconv.FormatFloat(v.f64, 'g', -1, 64)
	default:
		return "<invalid>"
	}
}

// Get extracts the payload as the concrete type T. The caller is expected
// to have matched T against Kind beforehand (the engine does this once per
// predict call); a kind/type mismatch converts rather than fails.
func Get[T Float](v Value) T {
	if v.kind == Float32 {
		return T(v.f32)
	}
	return T(v.f64)
}

// CheckKind returns a TypeMismatchError unless v carries the wanted kind.
func CheckKind(op string, v Value, want TypeInfo) error {
	if v.Kind() != want {
		return errors.NewTypeMismatchError(op, want.String(), v.Kind().String())
	}
	return nil
}

// GoString implements fmt.GoStringer for debugging output.
func (v Value) GoString() string {
	return fmt.Sprintf("types.Value{%s, %s}", v.kind, v.String())
}
