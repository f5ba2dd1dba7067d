// Package errors provides the structured error types used across the
// tree-ensemble builder and the GTIL inference engine. Each error kind
// corresponds to one failure class of the builder/commit/predict contracts,
// carries enough context to be logged structurally, and is created with a
// stack trace attached via cockroachdb/errors.
package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// AlreadyExistsError is returned when creating an entity under a key that is
// already in use (e.g. CreateNode with a duplicate node key).
type AlreadyExistsError struct {
	Entity string
	Key    int
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("treelite: %s with key %d already exists", e.Entity, e.Key)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *AlreadyExistsError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("entity", e.Entity).
		Int("key", e.Key).
		Str("type", "AlreadyExistsError")
}

// NewAlreadyExistsError creates an AlreadyExistsError with a stack trace.
func NewAlreadyExistsError(entity string, key int) error {
	return errors.WithStack(&AlreadyExistsError{Entity: entity, Key: key})
}

// NotFoundError is returned when an operation references an entity that does
// not exist (e.g. DeleteNode or SetRootNode with an unknown key).
type NotFoundError struct {
	Entity string
	Key    int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("treelite: %s with key %d not found", e.Entity, e.Key)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *NotFoundError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("entity", e.Entity).
		Int("key", e.Key).
		Str("type", "NotFoundError")
}

// NewNotFoundError creates a NotFoundError with a stack trace.
func NewNotFoundError(entity string, key int) error {
	return errors.WithStack(&NotFoundError{Entity: entity, Key: key})
}

// InvalidStateError is returned when a node (or builder) is not in the state
// required by the requested operation, such as assigning a role to a node
// that is no longer empty, or mutating a TreeBuilder after it has been
// inserted into an ensemble.
type InvalidStateError struct {
	Op       string
	Expected string
	Got      string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("treelite: %s: entity must be in state %q, but is in state %q",
		e.Op, e.Expected, e.Got)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *InvalidStateError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("expected_state", e.Expected).
		Str("got_state", e.Got).
		Str("type", "InvalidStateError")
}

// NewInvalidStateError creates an InvalidStateError with a stack trace.
func NewInvalidStateError(op, expected, got string) error {
	return errors.WithStack(&InvalidStateError{Op: op, Expected: expected, Got: got})
}

// TypeMismatchError is returned when a Value's numeric kind does not match
// the kind declared for the enclosing tree or ensemble.
type TypeMismatchError struct {
	Op       string
	Expected string
	Got      string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("treelite: %s: expected value of type %s, got %s", e.Op, e.Expected, e.Got)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *TypeMismatchError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("expected", e.Expected).
		Str("got", e.Got).
		Str("type", "TypeMismatchError")
}

// NewTypeMismatchError creates a TypeMismatchError with a stack trace.
func NewTypeMismatchError(op, expected, got string) error {
	return errors.WithStack(&TypeMismatchError{Op: op, Expected: expected, Got: got})
}

// InvalidModelError is returned when a tree or ensemble fails structural
// validation at commit time: missing root, dangling child reference, cycle,
// unreachable node, or an empty ensemble.
type InvalidModelError struct {
	Reason  string
	TreeIdx int // index of the offending tree, -1 for ensemble-level failures
	NodeKey int // key of the offending node, -1 if not node-specific
}

func (e *InvalidModelError) Error() string {
	switch {
	case e.TreeIdx >= 0 && e.NodeKey >= 0:
		return fmt.Sprintf("treelite: invalid model: tree %d, node %d: %s", e.TreeIdx, e.NodeKey, e.Reason)
	case e.TreeIdx >= 0:
		return fmt.Sprintf("treelite: invalid model: tree %d: %s", e.TreeIdx, e.Reason)
	default:
		return fmt.Sprintf("treelite: invalid model: %s", e.Reason)
	}
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *InvalidModelError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("reason", e.Reason).
		Int("tree_index", e.TreeIdx).
		Int("node_key", e.NodeKey).
		Str("type", "InvalidModelError")
}

// NewInvalidModelError creates an ensemble-level InvalidModelError with a
// stack trace.
func NewInvalidModelError(reason string) error {
	return errors.WithStack(&InvalidModelError{Reason: reason, TreeIdx: -1, NodeKey: -1})
}

// NewInvalidTreeError creates a tree-level InvalidModelError with a stack
// trace. Pass nodeKey -1 when the failure is not tied to a single node.
func NewInvalidTreeError(treeIdx, nodeKey int, reason string) error {
	return errors.WithStack(&InvalidModelError{Reason: reason, TreeIdx: treeIdx, NodeKey: nodeKey})
}

// OutOfRangeError is returned when an index argument falls outside the valid
// bounds of a collection (e.g. InsertTree/GetTree/DeleteTree indices).
type OutOfRangeError struct {
	Op    string
	Index int
	Size  int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("treelite: %s: index %d out of range for size %d", e.Op, e.Index, e.Size)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *OutOfRangeError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("index", e.Index).
		Int("size", e.Size).
		Str("type", "OutOfRangeError")
}

// NewOutOfRangeError creates an OutOfRangeError with a stack trace.
func NewOutOfRangeError(op string, index, size int) error {
	return errors.WithStack(&OutOfRangeError{Op: op, Index: index, Size: size})
}

// InvalidArgumentError is returned for malformed caller inputs that are not
// covered by a more specific kind: unrecognized configuration keys, bad
// option values, unsupported input-type tags, or malformed CSR triples.
type InvalidArgumentError struct {
	Op      string
	Message string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("treelite: %s: %s", e.Op, e.Message)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *InvalidArgumentError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("message", e.Message).
		Str("type", "InvalidArgumentError")
}

// NewInvalidArgumentError creates an InvalidArgumentError with a stack trace.
func NewInvalidArgumentError(op, message string) error {
	return errors.WithStack(&InvalidArgumentError{Op: op, Message: message})
}

// NewInvalidArgumentErrorf creates a formatted InvalidArgumentError with a
// stack trace.
func NewInvalidArgumentErrorf(op, format string, args ...interface{}) error {
	return errors.WithStack(&InvalidArgumentError{Op: op, Message: fmt.Sprintf(format, args...)})
}

// ===========================================================================
//
//	cockroachdb/errors wrappers
//
// ===========================================================================

// Is reports whether err matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an existing error with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf wraps an existing error with a format string.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates a new error with a stack trace.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a new formatted error with a stack trace.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack annotates err with a stack trace.
func WithStack(err error) error {
	return errors.WithStack(err)
}
