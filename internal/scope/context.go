package scope

import (
	"strings"

	"github.com/shinyvision/ward/internal/fqsen"
)

// UseKind discriminates the three namespace-use kinds: a class/interface
// use, a function use (`use function`), and a const use (`use const`).
type UseKind uint8

const (
	UseClass UseKind = iota
	UseFunction
	UseConst
)

type useKey struct {
	kind  UseKind
	alias string // lower-case
}

// Context is the immutable analysis-point bundle described in // Every With* method returns a new Context; none mutate the receiver. This
// is load-bearing: ContextMergeVisitor (internal/analysis) fans out a
// single Context into several branch-local copies and later combines them,
// which only works if nothing upstream kept a mutable alias to the
// original.
type Context struct {
	file           string
	line           int
	namespace      string
	uses           map[useKey]string // alias (lower) -> fully qualified name
	enclosingClass fqsen.FQSEN
	enclosingFunc  fqsen.FQSEN
	scope          *Scope
	strictTypes    bool
	suppressed     map[string]bool // issue type name -> suppressed, from @suppress
}

// NewGlobalContext returns the root Context for a file: global scope, no
// enclosing class/function, empty use-map, strict-types off until a
// declare(strict_types=1) is seen.
func NewGlobalContext(file string) Context {
	return Context{file: file, line: 1, scope: NewGlobal(), uses: map[useKey]string{}}
}

func (c Context) File() string             { return c.file }
func (c Context) Line() int                { return c.line }
func (c Context) Namespace() string        { return c.namespace }
func (c Context) EnclosingClass() fqsen.FQSEN { return c.enclosingClass }
func (c Context) EnclosingFunc() fqsen.FQSEN  { return c.enclosingFunc }
func (c Context) Scope() *Scope            { return c.scope }
func (c Context) StrictTypes() bool        { return c.strictTypes }
func (c Context) IsInClassScope() bool     { return !c.enclosingClass.IsZero() }
func (c Context) IsInFunctionLikeScope() bool {
	return c.scope != nil && (c.scope.Kind() == KindFunctionLike || c.scope.Kind() == KindBlock)
}

// WithLine returns a copy positioned at a new line, the common case of
// "advance to the next statement" that does not otherwise change context.
func (c Context) WithLine(line int) Context {
	c.line = line
	return c
}

// WithNamespace returns a copy switched to a new active namespace,
// clearing nothing else (a `namespace` statement does not reset use
// imports already collected in the same file under PHP's actual grammar,
// but does reset for a fresh namespace block; callers pass a fresh use map
// via WithUses when that applies).
func (c Context) WithNamespace(ns string) Context {
	c.namespace = strings.Trim(ns, "\\")
	return c
}

// WithUse returns a copy with one additional (kind, alias) -> fqn mapping
// merged into the use-map.
func (c Context) WithUse(kind UseKind, alias, fqn string) Context {
	newUses := make(map[useKey]string, len(c.uses)+1)
	for k, v := range c.uses {
		newUses[k] = v
	}
	newUses[useKey{kind: kind, alias: strings.ToLower(alias)}] = fqn
	c.uses = newUses
	return c
}

// LookupUse resolves an alias under the given kind with a single lookup
// of the alias's lowercase form.
func (c Context) LookupUse(kind UseKind, alias string) (string, bool) {
	fqn, ok := c.uses[useKey{kind: kind, alias: strings.ToLower(alias)}]
	return fqn, ok
}

// ResolveClassName implements types.UseResolver: resolves a bare or
// qualified class name through this context's use-map and active
// namespace, returning (namespace, short-name) ready for fqsen.New.
func (c Context) ResolveClassName(name string) (namespace, short string) {
	name = strings.TrimLeft(strings.TrimSpace(name), "\\")
	if name == "" {
		return "", ""
	}
	if fqn, ok := c.LookupUse(UseClass, name); ok {
		return splitNS(fqn)
	}
	shortPart := name
	if i := strings.LastIndexByte(name, '\\'); i >= 0 {
		shortPart = name[i+1:]
	} else if fqn, ok := c.LookupUse(UseClass, shortPart); ok {
		return splitNS(fqn)
	}
	if strings.Contains(name, "\\") {
		// already qualified; treat as absolute regardless of active namespace
		return splitNS(name)
	}
	if c.namespace == "" {
		return "", name
	}
	return c.namespace, name
}

func splitNS(fqn string) (string, string) {
	fqn = strings.TrimLeft(fqn, "\\")
	if i := strings.LastIndexByte(fqn, '\\'); i >= 0 {
		return fqn[:i], fqn[i+1:]
	}
	return "", fqn
}

// WithEnclosingClass returns a copy entering a class scope.
func (c Context) WithEnclosingClass(class fqsen.FQSEN, s *Scope) Context {
	c.enclosingClass = class
	c.scope = s
	return c
}

// WithEnclosingFunc returns a copy entering a function-like scope. It does
// not clear enclosingClass: a method's Context still knows its class.
func (c Context) WithEnclosingFunc(fn fqsen.FQSEN, s *Scope) Context {
	c.enclosingFunc = fn
	c.scope = s
	return c
}

// WithScope returns a copy using a different Scope value (typically a
// Clone(), for branch-local exploration) while keeping every other field.
func (c Context) WithScope(s *Scope) Context {
	c.scope = s
	return c
}

// WithStrictTypes returns a copy with the strict-types flag set, as raised
// by declare(strict_types=1) (file-scoped).
func (c Context) WithStrictTypes(strict bool) Context {
	c.strictTypes = strict
	return c
}

// IsSuppressed reports whether issueType is suppressed at this point via an
// @suppress doc-comment on the enclosing function or class. Global
// suppression (config suppress/whitelist lists) is consulted separately by
// internal/issue, which does not have access to a Context.
func (c Context) IsSuppressed(issueType string) bool {
	return c.suppressed[issueType]
}

// WithSuppressed returns a copy with issueType added to the per-scope
// suppression set (parsed from an enclosing @suppress tag).
func (c Context) WithSuppressed(issueTypes ...string) Context {
	newSet := make(map[string]bool, len(c.suppressed)+len(issueTypes))
	for k, v := range c.suppressed {
		newSet[k] = v
	}
	for _, t := range issueTypes {
		newSet[t] = true
	}
	c.suppressed = newSet
	return c
}
