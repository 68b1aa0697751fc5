// Package ast defines the AST contract the analysis core consumes.
//
// The core never parses source itself; the AST-producing parser is an
// external collaborator. Any front end — a tree-sitter adapter, a hand
// rolled recursive-descent parser, a fixture builder in a test — only has to
// produce values satisfying Node. Each node carries a Kind, a bitfield of
// Flags, an optional line number and doc comment, and children addressable
// either by field name (declarations) or by position (statements and
// expressions), mirroring the shape tree-sitter nodes already have.
package ast

// Kind enumerates the node shapes the engine knows how to visit. The zero
// value KindInvalid never appears in a well-formed tree; visitors treat it
// (and any kind they don't recognize) as Unanalyzable.
type Kind int

const (
	KindInvalid Kind = iota

	KindProgram
	KindNamespaceDecl
	KindUseDecl
	KindUseClause
	KindDeclareStrictTypes

	KindClassDecl
	KindInterfaceDecl
	KindTraitDecl
	KindClassBody

	KindMethodDecl
	KindFunctionDecl
	KindClosureDecl
	KindParam

	KindPropertyDecl
	KindPropertyElement
	KindClassConstDecl
	KindClassConstElement
	KindGlobalConstDecl

	KindBlock
	KindExpressionStmt
	KindReturnStmt
	KindIfStmt
	KindElseIfClause
	KindElseClause
	KindTryStmt
	KindCatchClause
	KindFinallyClause
	KindForeachStmt
	KindForStmt
	KindWhileStmt
	KindEchoStmt

	KindAssign
	KindAssignRef
	KindListDestructure
	KindListElement
	KindBinaryOp
	KindUnaryOp
	KindIncDec
	KindTernary
	KindCoalesce
	KindVariable
	KindPropertyAccess
	KindStaticPropertyAccess
	KindMethodCall
	KindStaticCall
	KindFunctionCall
	KindNew
	KindInstanceof
	KindClone
	KindCast
	KindArrayLiteral
	KindArrayElement
	KindArrayDim

	KindIntLiteral
	KindFloatLiteral
	KindStringLiteral
	KindBoolLiteral
	KindNullLiteral
	KindName
	KindQualifiedName
	KindTypeExpr
)

// Flag is a bitfield of modifiers a node may carry. Not every flag applies
// to every Kind; visitors only consult the flags meaningful for the node
// they are looking at.
type Flag uint32

const (
	FlagByRef       Flag = 1 << iota // parameter or assignment target passed/bound by reference
	FlagVariadic                     // trailing "...$args" parameter
	FlagStatic                       // static method, property, or closure
	FlagAbstract                     // abstract method or class
	FlagFinal                        // final method or class
	FlagPublic                       // explicit or implicit public visibility
	FlagProtected                    // protected visibility
	FlagPrivate                      // private visibility
	FlagReturnsRef                   // "function &f()"
	FlagYields                       // body contains a yield expression
	FlagNullable                     // "?T" declared type
	FlagIsDim                        // array-dim assignment target ($a[$k] = ...)
	FlagReadonly                     // readonly property
)

// Has reports whether all bits in want are set.
func (f Flag) Has(want Flag) bool { return f&want == want }

// Node is the contract the analysis core consumes. Implementations are free
// to be backed by a real parse tree (see internal/tsadapter) or by a plain
// in-memory literal built for a test.
type Node interface {
	Kind() Kind
	Flags() Flag
	Line() int
	Doc() string
	// Text returns the literal payload for leaf-like nodes: identifiers,
	// string/number literals, operator spellings.
	Text() string
	// Children returns the ordered positional children, used for
	// statements and expressions.
	Children() []Node
	// Field returns the named child with the given field name, used for
	// declarations (e.g. Field("name"), Field("type"), Field("body")).
	// Returns nil if absent.
	Field(name string) Node
}

// IsNil reports whether n is a nil Node, tolerating both an untyped nil and
// a typed nil pointer satisfying the interface.
func IsNil(n Node) bool {
	if n == nil {
		return true
	}
	if ln, ok := n.(*Literal); ok {
		return ln == nil
	}
	return false
}

// Literal is the concrete, allocation-friendly Node implementation used by
// fixture builders (tests, tsadapter). Real parser integrations may supply
// their own Node implementation instead.
type Literal struct {
	KindValue     Kind
	FlagsValue    Flag
	LineValue     int
	DocValue      string
	TextValue     string
	ChildrenValue []Node
	FieldsValue   map[string]Node
}

func (n *Literal) Kind() Kind         { return n.KindValue }
func (n *Literal) Flags() Flag        { return n.FlagsValue }
func (n *Literal) Line() int          { return n.LineValue }
func (n *Literal) Doc() string        { return n.DocValue }
func (n *Literal) Text() string       { return n.TextValue }
func (n *Literal) Children() []Node   { return n.ChildrenValue }
func (n *Literal) Field(name string) Node {
	if n.FieldsValue == nil {
		return nil
	}
	return n.FieldsValue[name]
}
