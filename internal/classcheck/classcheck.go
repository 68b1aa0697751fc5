// Package classcheck implements the per-class analyzers: parent existence,
// parent-constructor-called, property- and parameter-type validity,
// composition, and unreferenced-symbol reporting. Each check is a pure
// function over an already-hydrated CodeBase, returning issue.Instance
// values for internal/analysis to add to the shared Collector — the same
// shape internal/argcheck uses for call-site and override checks.
package classcheck

import (
	"strings"

	"github.com/shinyvision/ward/internal/codebase"
	"github.com/shinyvision/ward/internal/config"
	"github.com/shinyvision/ward/internal/fqsen"
	"github.com/shinyvision/ward/internal/issue"
	"github.com/shinyvision/ward/internal/types"
)

// CheckExtendsImplements reports an undeclared parent/interface/trait
// reference. Hydration itself tolerates missing ancestors silently; this
// is the later pass that turns them into diagnostics.
func CheckExtendsImplements(cb *codebase.CodeBase, cls *codebase.Clazz) []issue.Instance {
	var out []issue.Instance
	if !cls.ParentFQSEN.IsZero() && !cb.HasClassWithFQSEN(cls.ParentFQSEN) {
		out = append(out, issue.New(issue.UndeclaredExtendedClass, cls.File, cls.Line, cls.ParentFQSEN.String()))
	}
	for _, iface := range cls.InterfaceFQSENs {
		if !cb.HasClassWithFQSEN(iface) {
			out = append(out, issue.New(issue.UndeclaredInterface, cls.File, cls.Line, iface.String()))
		}
	}
	for _, tr := range cls.TraitFQSENs {
		if !cb.HasClassWithFQSEN(tr) {
			out = append(out, issue.New(issue.UndeclaredTrait, cls.File, cls.Line, tr.String()))
		}
	}
	return out
}

// CheckParentConstructorCalled reports PhanTypeParentConstructorCalled when
// ctor is cls's constructor, cls extends a parent that declares its own
// constructor, and ctor's body never called parent::__construct.
// cfg.ParentConstructorRequired, when non-empty, restricts the check to
// only the listed parent FQSEN strings; the zero Config leaves the list
// empty, which keeps the permissive default of checking every parent
// that declares a constructor.
func CheckParentConstructorCalled(cb *codebase.CodeBase, cls *codebase.Clazz, ctor *codebase.Method, cfg config.Config) []issue.Instance {
	if cls.ParentFQSEN.IsZero() || cls.IsInterface || cls.IsTrait {
		return nil
	}
	if len(cfg.ParentConstructorRequired) > 0 && !fqsenListedIn(cls.ParentFQSEN, cfg.ParentConstructorRequired) {
		return nil
	}
	if _, ok := cb.LookupMethod(cls.ParentFQSEN, "__construct"); !ok {
		return nil
	}
	if ctor.CallsParentConstructor {
		return nil
	}
	return []issue.Instance{issue.New(issue.TypeParentConstructorCalled, cls.File, ctor.Line, cls.FQSEN.String(), cls.ParentFQSEN.String())}
}

func fqsenListedIn(f fqsen.FQSEN, list []string) bool {
	s := strings.TrimPrefix(f.String(), "\\")
	for _, l := range list {
		if strings.EqualFold(strings.TrimPrefix(l, "\\"), s) {
			return true
		}
	}
	return false
}

// CheckPropertyTypeValidity reports PhanUndeclaredTypeParameter for every
// class-typed member of a property's declared union type that names a
// class absent from cb.
func CheckPropertyTypeValidity(cb *codebase.CodeBase, p *codebase.Property) []issue.Instance {
	return undeclaredTypeIssues(cb, p.Type, p.File, p.Line)
}

// CheckParameterTypeValidity reports the same for a method or function's
// parameter and return types.
func CheckParameterTypeValidity(cb *codebase.CodeBase, params []codebase.Param, ret types.UnionType, file string, line int) []issue.Instance {
	var out []issue.Instance
	for _, p := range params {
		out = append(out, undeclaredTypeIssues(cb, p.Type, file, line)...)
	}
	out = append(out, undeclaredTypeIssues(cb, ret, file, line)...)
	return out
}

func undeclaredTypeIssues(cb *codebase.CodeBase, u types.UnionType, file string, line int) []issue.Instance {
	var out []issue.Instance
	for _, t := range u.Types() {
		if !t.IsClass() || cb.HasClassWithFQSEN(t.Class()) {
			continue
		}
		out = append(out, issue.New(issue.UndeclaredTypeParameter, file, line, t.Class().String()))
	}
	return out
}

// CheckComposition is a thin named wrapper around CodeBase's own
// composition sweep, kept here so every per-class analyzer is reachable
// through one package — even though the underlying bookkeeping
// needs CodeBase's private ancestor maps and so cannot move out of
// internal/codebase entirely.
func CheckComposition(cb *codebase.CodeBase, cls *codebase.Clazz) []issue.Instance {
	return cb.CheckComposition(cls.FQSEN)
}

// CheckUnreferenced reports PhanUnreferenced{Class,Method,Property} for cls
// and its own (non-imported, non-magic, non-constructor) members with a
// zero reference count. Callers gate this on
// config.Config.DeadCodeDetectionAllowed before invoking it over a
// multi-worker partition.
func CheckUnreferenced(cb *codebase.CodeBase, cls *codebase.Clazz) []issue.Instance {
	var out []issue.Instance
	if cls.ReferenceCount() == 0 {
		out = append(out, issue.New(issue.UnreferencedClass, cls.File, cls.Line, cls.FQSEN.String()))
	}
	for _, f := range cls.Methods {
		m, err := cb.GetMethodByFQSEN(f)
		if err != nil || m.DefiningFQSEN != cls.FQSEN || m.ReferenceCount() != 0 {
			continue
		}
		if isMagicMethod(m.FQSEN.Name()) || m.IsConstructor {
			continue
		}
		out = append(out, issue.New(issue.UnreferencedMethod, m.File, m.Line, m.FQSEN.String()))
	}
	for _, f := range cls.Properties {
		p, err := cb.GetPropertyByFQSEN(f)
		if err != nil || p.DefiningFQSEN != cls.FQSEN || p.ReferenceCount() != 0 {
			continue
		}
		out = append(out, issue.New(issue.UnreferencedProperty, p.File, p.Line, p.FQSEN.String()))
	}
	return out
}

func isMagicMethod(name string) bool {
	return strings.HasPrefix(strings.ToLower(name), "__")
}
