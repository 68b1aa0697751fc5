package analysis

import (
	"fmt"

	"github.com/shinyvision/ward/internal/ast"
)

// NodeShapeError reports that a node the walker expected to have a
// particular field or child (e.g. a BinaryOp missing its right operand)
// did not, taxonomy of recoverable structural errors.
// The walker recovers by treating the node as Unanalyzable rather than
// panicking — a malformed tree must never crash a whole-program run.
type NodeShapeError struct {
	Kind  ast.Kind
	Field string
	File  string
	Line  int
}

func (e *NodeShapeError) Error() string {
	return fmt.Sprintf("%s:%d: node of kind %d missing expected field %q", e.File, e.Line, e.Kind, e.Field)
}

// UnanalyzableError marks a node the walker recognized but declined to
// reason about further (an unrecognized Kind, a node with a shape error
// it already recovered from). Carrying it as an error rather than
// silently skipping lets callers count how much of a file went
// unanalyzed.
type UnanalyzableError struct {
	Kind ast.Kind
	File string
	Line int
}

func (e *UnanalyzableError) Error() string {
	return fmt.Sprintf("%s:%d: unable to analyze node of kind %d", e.File, e.Line, e.Kind)
}
