// Package issue implements the diagnostic catalog, IssueInstance values,
// the filter chain, and the buffering Collector described in package issue
package issue

import "fmt"

// Category is a bitmask classifying an Issue's diagnostic domain. Multiple
// bits may be set (e.g. a type issue that is also a compatibility issue).
type Category uint32

const (
	CategorySyntax Category = 1 << iota
	CategoryUndeclared
	CategoryType
	CategoryComposition
	CategoryParameter
	CategoryDeprecated
	CategoryUnreferenced
	CategoryAccess
	CategoryGeneric
	CategoryUnanalyzable
	CategoryRedefine
)

// Severity ranks an Issue. The three named levels are the only values
// defines; arbitrary intermediate values are never produced
// by the catalog below but are accepted by the filter chain for forward
// compatibility with an embedder's own custom issues.
type Severity int

const (
	SeverityLow      Severity = 0
	SeverityNormal   Severity = 5
	SeverityCritical Severity = 10
)

// Issue is a catalog entry: a diagnostic class, not yet bound to a source
// location. Remediation is phan's coarse "how hard to fix" integer,
// carried through for a future UI's benefit; the core never interprets it.
type Issue struct {
	Type        string
	Category    Category
	Severity    Severity
	Template    string
	Remediation int
	ID          int
}

var catalog = map[string]*Issue{}
var nextID = 1

// Register adds an Issue to the process-wide catalog, assigning it the
// next stable numeric id. Called only from this package's init() for the
// built-in catalog; an embedder that needs a custom issue type should use
// RegisterCustom so built-in ids never collide with theirs.
func register(typ string, cat Category, sev Severity, template string, remediation int) *Issue {
	i := &Issue{Type: typ, Category: cat, Severity: sev, Template: template, Remediation: remediation, ID: nextID}
	nextID++
	catalog[typ] = i
	return i
}

// RegisterCustom registers an embedder-defined issue type, e.g. for a
// plugin. Panics on a duplicate type name, matching the catalog's
// fixed-registry invariant (: "the registry is a fixed
// catalog").
func RegisterCustom(typ string, cat Category, sev Severity, template string, remediation int) *Issue {
	if _, ok := catalog[typ]; ok {
		panic("issue: duplicate issue type " + typ)
	}
	return register(typ, cat, sev, template, remediation)
}

// Lookup returns the catalog entry for typ, or nil if unknown.
func Lookup(typ string) *Issue { return catalog[typ] }

// The built-in catalog. Names follow the Phan-style diagnostic naming
// convention (`PhanUndeclared...`, `PhanType...`); templates are
// printf-style, one placeholder per documented argument.
var (
	UndeclaredExtendedClass = register("PhanUndeclaredExtendedClass", CategoryUndeclared, SeverityCritical, "Class extends undeclared class %s", 7)
	UndeclaredInterface     = register("PhanUndeclaredInterface", CategoryUndeclared, SeverityCritical, "Class implements undeclared interface %s", 7)
	UndeclaredTrait         = register("PhanUndeclaredTrait", CategoryUndeclared, SeverityCritical, "Class uses undeclared trait %s", 7)
	UndeclaredClassMethod   = register("PhanUndeclaredMethod", CategoryUndeclared, SeverityNormal, "Call to undeclared method %s", 6)
	UndeclaredProperty      = register("PhanUndeclaredProperty", CategoryUndeclared, SeverityNormal, "Reference to undeclared property %s", 6)
	UndeclaredVariable      = register("PhanUndeclaredVariable", CategoryUndeclared, SeverityNormal, "Variable %s is undeclared", 5)
	UndeclaredTypeParameter = register("PhanUndeclaredTypeParameter", CategoryUndeclared, SeverityNormal, "Parameter of undeclared type %s", 6)

	TypeMismatchArgument         = register("PhanTypeMismatchArgument", CategoryType, SeverityNormal, "Argument %d (%s) is %s but %s() takes %s", 6)
	TypeMismatchArgumentInternal = register("PhanTypeMismatchArgumentInternal", CategoryType, SeverityNormal, "Argument %d (%s) is %s but %s() takes %s", 6)
	TypeMismatchProperty         = register("PhanTypeMismatchProperty", CategoryType, SeverityNormal, "Assigning %s to property but %s is %s", 6)
	TypeArrayOperator            = register("PhanTypeArrayOperator", CategoryType, SeverityNormal, "Invalid operator applied to array type %s", 4)
	TypeComparisonFromArray      = register("PhanTypeComparisonFromArray", CategoryType, SeverityLow, "Invalid comparison with array type %s", 3)

	ParamTooFew         = register("PhanParamTooFew", CategoryParameter, SeverityNormal, "Call with %d arg(s) to %s() which requires %d arg(s)", 6)
	ParamTooFewInternal = register("PhanParamTooFewInternal", CategoryParameter, SeverityNormal, "Call with %d arg(s) to %s() which requires %d arg(s)", 6)
	ParamTooMany         = register("PhanParamTooMany", CategoryParameter, SeverityNormal, "Call with %d arg(s) to %s() which only takes %d arg(s)", 6)
	ParamTooManyInternal = register("PhanParamTooManyInternal", CategoryParameter, SeverityNormal, "Call with %d arg(s) to %s() which only takes %d arg(s)", 6)
	TypeNonVarPassByRef  = register("PhanTypeNonVarPassByRef", CategoryType, SeverityNormal, "Only variables can be passed by reference at argument %d of %s()", 5)
	ParamSpecial1        = register("PhanParamSpecial1", CategoryParameter, SeverityNormal, "Argument %d (%s) is %s but %s() takes %s when argument %d is %s", 5)
	ParamSpecial2        = register("PhanParamSpecial2", CategoryParameter, SeverityNormal, "Argument %d (%s) is %s but %s() takes %s when passed only %d arg(s)", 5)
	ParamSpecial3        = register("PhanParamSpecial3", CategoryParameter, SeverityNormal, "Argument %d (%s) is %s but %s() takes %s in this configuration", 5)
	ParamSpecial4        = register("PhanParamSpecial4", CategoryParameter, SeverityNormal, "Argument %d (%s) is %s but %s() takes %s given the other arguments", 5)

	TypeParentConstructorCalled = register("PhanTypeParentConstructorCalled", CategoryComposition, SeverityNormal, "Must call parent::__construct() from %s which extends %s", 5)
	AccessSignatureMismatch     = register("PhanAccessSignatureMismatch", CategoryAccess, SeverityNormal, "Visibility of %s cannot be narrowed from %s", 5)
	IncompatibleCompositionProp   = register("PhanIncompatibleCompositionProp", CategoryComposition, SeverityNormal, "Property %s is already declared by trait/interface %s", 4)
	IncompatibleCompositionMethod = register("PhanIncompatibleCompositionMethod", CategoryComposition, SeverityNormal, "Method %s is already declared by trait/interface %s", 4)
	IncompatibleCompositionConst  = register("PhanIncompatibleCompositionConst", CategoryComposition, SeverityNormal, "Constant %s is already declared by trait/interface %s", 4)
	ParamSignatureMismatch        = register("PhanParamSignatureMismatch", CategoryComposition, SeverityNormal, "Declaration of %s must be compatible with %s", 6)

	RedefineClassInternal    = register("PhanRedefineClassInternal", CategoryRedefine, SeverityCritical, "Class %s redefines class %s", 8)
	RedefineFunctionInternal = register("PhanRedefineFunctionInternal", CategoryRedefine, SeverityCritical, "Function %s redefines function %s", 8)

	UnreferencedClass    = register("PhanUnreferencedClass", CategoryUnreferenced, SeverityLow, "Possibly zero references to class %s", 2)
	UnreferencedMethod   = register("PhanUnreferencedMethod", CategoryUnreferenced, SeverityLow, "Possibly zero references to method %s", 2)
	UnreferencedProperty = register("PhanUnreferencedProperty", CategoryUnreferenced, SeverityLow, "Possibly zero references to property %s", 2)
	UnreferencedFunction = register("PhanUnreferencedFunction", CategoryUnreferenced, SeverityLow, "Possibly zero references to function %s", 2)
	UnreferencedConstant = register("PhanUnreferencedConstant", CategoryUnreferenced, SeverityLow, "Possibly zero references to constant %s", 2)

	DeprecatedFunction = register("PhanDeprecatedFunction", CategoryDeprecated, SeverityLow, "Call to deprecated function %s", 3)
	DeprecatedClass    = register("PhanDeprecatedClass", CategoryDeprecated, SeverityLow, "Reference to deprecated class %s", 3)
	DeprecatedProperty = register("PhanDeprecatedProperty", CategoryDeprecated, SeverityLow, "Reference to deprecated property %s", 3)

	SyntaxError  = register("PhanSyntaxError", CategorySyntax, SeverityCritical, "Syntax error: %s", 9)
	Unanalyzable = register("PhanUnanalyzable", CategoryUnanalyzable, SeverityLow, "Unable to analyze %s", 1)
)

// Instance is an Issue bound to a source location and rendering arguments.
// Rendering of args is deferred to the printer — Message() here is a
// convenience used by tests and the deterministic sort key, not a
// user-facing formatter.
type Instance struct {
	Issue *Issue
	File  string
	Line  int
	Args  []any
}

// Message renders the template against Args.
func (ii Instance) Message() string {
	if ii.Issue == nil {
		return ""
	}
	return fmt.Sprintf(ii.Issue.Template, ii.Args...)
}

// New constructs an Instance. It panics if typ is not in the catalog — an
// unregistered issue type is a programmer error in the caller (every
// raise site in internal/analysis and internal/classcheck uses one of the
// package-level *Issue values above, never a raw string).
func New(i *Issue, file string, line int, args ...any) Instance {
	if i == nil {
		panic("issue: New called with nil Issue")
	}
	return Instance{Issue: i, File: file, Line: line, Args: args}
}
