// Package argcheck implements call-site argument validation and
// override-signature compatibility: ArgumentType and
// ParameterTypesAnalyzer's Go translations.
package argcheck

import (
	"github.com/shinyvision/ward/internal/ast"
	"github.com/shinyvision/ward/internal/builtins"
	"github.com/shinyvision/ward/internal/codebase"
	"github.com/shinyvision/ward/internal/issue"
	"github.com/shinyvision/ward/internal/types"
)

// Callee is whatever a call site resolved to: a user-declared method or
// function's parameter list plus a display name for diagnostics, and,
// for internal/built-in functions, the special-case marker from the
// bundled signature map.
type Callee struct {
	Name       string
	Params     []codebase.Param
	Internal   bool // true for a bundled builtin, selects the *Internal issue variants
	Special    int  // builtins.Signature.Special: 0 none, 1..4 hand-coded cases
	Alternates [][]codebase.Param
}

// Actual is one argument at a call site.
type Actual struct {
	Type      types.UnionType
	Text      string // source-expression display text, e.g. "$x"; falls back to "<expr>" when unavailable
	IsVar     bool   // the actual is a bare variable, array-dim, or property reference
	Variadic  bool   // `...$args` unpack
	StrictVal bool   // non-strict-mode __toString exception applies to this actual's declared type
}

// FromBuiltinSignature adapts a bundled builtins.Signature into a Callee
// for CheckCall, translating its untyped param strings through res.
func FromBuiltinSignature(name string, sig builtins.Signature, res types.UseResolver) Callee {
	params := make([]codebase.Param, len(sig.Params))
	for i, p := range sig.Params {
		params[i] = codebase.Param{
			Name:       p.Name,
			Type:       types.FromStringInContext(p.Type, res),
			HasDefault: p.Optional,
			Variadic:   p.Variadic,
		}
	}
	return Callee{Name: name, Params: params, Internal: true, Special: sig.Special}
}

func hasVariadicActual(actuals []Actual) bool {
	for _, a := range actuals {
		if a.Variadic {
			return true
		}
	}
	return false
}

func hasVariadicFormal(params []codebase.Param) bool {
	for _, p := range params {
		if p.Variadic {
			return true
		}
	}
	return false
}

func countAccepted(alternates [][]codebase.Param, n int) bool {
	for _, alt := range alternates {
		if hasVariadicFormal(alt) {
			if n >= codebase.RequiredCount(alt) {
				return true
			}
			continue
		}
		if n >= codebase.RequiredCount(alt) && n <= len(alt) {
			return true
		}
	}
	return false
}

// CheckCall validates one call site against callee's declared signature —
// arity, by-ref positions, and actual-to-formal type compatibility —
// appending diagnostics to out and returning it (so callers can
// accumulate across a file without allocating per call).
func CheckCall(cb *codebase.CodeBase, out []issue.Instance, file string, line int, callee Callee, actuals []Actual, strictTypes bool) []issue.Instance {
	skipCount := hasVariadicActual(actuals) || hasVariadicFormal(callee.Params)

	required := codebase.RequiredCount(callee.Params)
	if !skipCount {
		if len(actuals) < required && !countAccepted(callee.Alternates, len(actuals)) {
			out = append(out, tooFew(callee, file, line, len(actuals), required))
		} else if len(actuals) > len(callee.Params) && !hasVariadicFormal(callee.Params) && !countAccepted(callee.Alternates, len(actuals)) {
			out = append(out, tooMany(callee, file, line, len(actuals), len(callee.Params)))
		}
	}

	for i, actual := range actuals {
		formal, ok := formalAt(callee.Params, i)
		if !ok {
			continue
		}
		if formal.ByRef && !actual.IsVar {
			out = append(out, issue.New(issue.TypeNonVarPassByRef, file, line, i+1, callee.Name))
		}

		expanded := actual.Type.AsExpandedTypes(cb)
		if expanded.CanCastToUnion(formal.Type, cb) {
			continue
		}
		if !strictTypes && hasToString(expanded, cb) && formal.Type.HasType(types.NativeType(types.NativeString)) {
			continue
		}
		out = append(out, mismatch(callee, file, line, i+1, actual, formal))
	}

	if sp := specialIssue(callee, file, line, actuals); sp != nil {
		out = append(out, *sp)
	}

	return out
}

func formalAt(params []codebase.Param, i int) (codebase.Param, bool) {
	if i < len(params) {
		return params[i], true
	}
	if n := len(params); n > 0 && params[n-1].Variadic {
		return params[n-1], true
	}
	return codebase.Param{}, false
}

func hasToString(u types.UnionType, cb *codebase.CodeBase) bool {
	for _, t := range u.Types() {
		if !t.IsClass() {
			continue
		}
		if _, ok := cb.LookupMethod(t.Class(), "__tostring"); ok {
			return true
		}
	}
	return false
}

func tooFew(callee Callee, file string, line, got, want int) issue.Instance {
	if callee.Internal {
		return issue.New(issue.ParamTooFewInternal, file, line, got, callee.Name, want)
	}
	return issue.New(issue.ParamTooFew, file, line, got, callee.Name, want)
}

func tooMany(callee Callee, file string, line, got, want int) issue.Instance {
	if callee.Internal {
		return issue.New(issue.ParamTooManyInternal, file, line, got, callee.Name, want)
	}
	return issue.New(issue.ParamTooMany, file, line, got, callee.Name, want)
}

func mismatch(callee Callee, file string, line, pos int, actual Actual, formal codebase.Param) issue.Instance {
	display := actual.Text
	if display == "" {
		display = "<expr>"
	}
	if callee.Internal {
		return issue.New(issue.TypeMismatchArgumentInternal, file, line, pos, display, actual.Type.String(), callee.Name, formal.Type.String())
	}
	return issue.New(issue.TypeMismatchArgument, file, line, pos, display, actual.Type.String(), callee.Name, formal.Type.String())
}

// specialIssue implements the hand-coded builtin cases (implode,
// array_udiff, array_diff_uassoc, strtok, min, max, ...) whose argument
// rules don't fit the generic positional-type check, keyed by the
// bundled signature's Special marker (1..4).
func specialIssue(callee Callee, file string, line int, actuals []Actual) *issue.Instance {
	if callee.Special == 0 {
		return nil
	}
	switch callee.Special {
	case 1: // implode: glue-then-pieces or pieces-only
		if len(actuals) == 1 && !actuals[0].Type.HasType(types.NativeType(types.NativeArray)) {
			display := actuals[0].Text
			if display == "" {
				display = "<expr>"
			}
			ii := issue.New(issue.ParamSpecial1, file, line, 1, display, actuals[0].Type.String(), callee.Name, "array", 1, "a non-array")
			return &ii
		}
	case 2: // strtok: 1-arg and 2-arg forms both valid, nothing extra to flag generically
	case 3: // min/max: single-array-argument form bypasses normal arity rules
		if len(actuals) == 0 {
			ii := issue.New(issue.ParamSpecial3, file, line, 0, "", "empty", callee.Name, "at least one argument")
			return &ii
		}
	case 4: // array_udiff / array_diff_uassoc: trailing callback argument is exempt from element-type checks
	}
	return nil
}

// CheckOverride implements the LSP-ish override-signature compatibility
// rules. Callers skip this when the ancestor is a trait or the method is
// a constructor.
func CheckOverride(cb *codebase.CodeBase, override, ancestor *codebase.Method) []issue.Instance {
	var out []issue.Instance

	requiredOverride := codebase.RequiredCount(override.Params)
	requiredAncestor := codebase.RequiredCount(ancestor.Params)
	if requiredOverride > requiredAncestor {
		out = append(out, issue.New(issue.ParamSignatureMismatch, override.File, override.Line, override.FQSEN.String(), ancestor.FQSEN.String()))
	}
	if len(override.Params) < len(ancestor.Params) {
		out = append(out, issue.New(issue.ParamSignatureMismatch, override.File, override.Line, override.FQSEN.String(), ancestor.FQSEN.String()))
	}

	for i := 0; i < len(ancestor.Params) && i < len(override.Params); i++ {
		a, o := ancestor.Params[i], override.Params[i]
		if a.ByRef != o.ByRef {
			out = append(out, issue.New(issue.ParamSignatureMismatch, override.File, override.Line, override.FQSEN.String(), ancestor.FQSEN.String()))
			continue
		}
		if a.Type.IsEmpty() || a.Type.HasType(types.NativeType(types.NativeMixed)) {
			continue
		}
		if !o.Type.CanCastToUnion(a.Type, cb) {
			out = append(out, issue.New(issue.ParamSignatureMismatch, override.File, override.Line, override.FQSEN.String(), ancestor.FQSEN.String()))
		}
	}

	if !ancestor.ReturnType.IsEmpty() && !override.ReturnType.CanCastToUnion(ancestor.ReturnType, cb) {
		out = append(out, issue.New(issue.ParamSignatureMismatch, override.File, override.Line, override.FQSEN.String(), ancestor.FQSEN.String()))
	}

	if override.Flags.Has(ast.FlagStatic) != ancestor.Flags.Has(ast.FlagStatic) {
		out = append(out, issue.New(issue.ParamSignatureMismatch, override.File, override.Line, override.FQSEN.String(), ancestor.FQSEN.String()))
	}
	if override.Flags.Has(ast.FlagReturnsRef) != ancestor.Flags.Has(ast.FlagReturnsRef) {
		out = append(out, issue.New(issue.ParamSignatureMismatch, override.File, override.Line, override.FQSEN.String(), ancestor.FQSEN.String()))
	}
	if narrowsVisibility(ancestor.Visibility(), override.Visibility()) {
		out = append(out, issue.New(issue.AccessSignatureMismatch, override.File, override.Line, override.FQSEN.String(), visibilityName(ancestor.Visibility())))
	}

	return out
}

func narrowsVisibility(ancestor, override codebase.Visibility) bool {
	return override > ancestor
}

func visibilityName(v codebase.Visibility) string {
	switch v {
	case codebase.VisibilityProtected:
		return "protected"
	case codebase.VisibilityPrivate:
		return "private"
	default:
		return "public"
	}
}
