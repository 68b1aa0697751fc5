// Package codebase implements the CodeBase registry:
// the process-wide, mutable symbol table keyed by FQSEN, with on-demand
// ancestor hydration.
package codebase

import (
	"strings"
	"sync"

	"github.com/tliron/commonlog"

	"github.com/shinyvision/ward/internal/builtins"
	"github.com/shinyvision/ward/internal/fqsen"
	"github.com/shinyvision/ward/internal/issue"
	"github.com/shinyvision/ward/internal/scope"
	"github.com/shinyvision/ward/internal/types"
)

var log = commonlog.GetLoggerf("ward.codebase")

// Redefinition records that a second declaration collided with an
// already-registered FQSEN and was assigned an alternate id: re-adding a
// conflicting FQSEN gets suffixed with an alternate id and raises a
// RedefineClass/RedefineFunction diagnostic rather than overwriting the
// first declaration.
type Redefinition struct {
	Base fqsen.FQSEN
	Alt  fqsen.FQSEN
}

// CodeBase is the authoritative, mutable symbol registry for one analysis
// run. It is confined to a single analysis worker; a multiprocess
// partition clones one per worker via Clone.
type CodeBase struct {
	mu sync.Mutex

	classes         map[fqsen.FQSEN]*Clazz
	methods         map[fqsen.FQSEN]*Method
	properties      map[fqsen.FQSEN]*Property
	staticProps     map[fqsen.FQSEN]*Property
	classConstants  map[fqsen.FQSEN]*ClassConstant
	funcs           map[fqsen.FQSEN]*Func
	globalConstants map[fqsen.FQSEN]*GlobalConstant

	classAltCount map[fqsen.FQSEN]int
	funcAltCount  map[fqsen.FQSEN]int
	redefinitions []Redefinition

	signatures map[string]builtins.Signature

	onIssue func(issue.Instance)
}

// New constructs an empty CodeBase, loading the bundled built-in signature
// map. A loader failure is logged but not fatal — Load already returns as
// many valid signatures as it could decode.
func New() *CodeBase {
	sigs, err := builtins.Load()
	if err != nil {
		log.Warningf("built-in signature bundle loaded with errors: %v", err)
	}
	return &CodeBase{
		classes:         make(map[fqsen.FQSEN]*Clazz),
		methods:         make(map[fqsen.FQSEN]*Method),
		properties:      make(map[fqsen.FQSEN]*Property),
		staticProps:     make(map[fqsen.FQSEN]*Property),
		classConstants:  make(map[fqsen.FQSEN]*ClassConstant),
		funcs:           make(map[fqsen.FQSEN]*Func),
		globalConstants: make(map[fqsen.FQSEN]*GlobalConstant),
		classAltCount:   make(map[fqsen.FQSEN]int),
		funcAltCount:    make(map[fqsen.FQSEN]int),
		signatures:      sigs,
	}
}

// OnIssue registers a sink invoked whenever CodeBase itself raises a
// diagnostic (redefinitions, composition conflicts during hydration)
// rather than one of the AST visitors. Pass nil to discard.
func (cb *CodeBase) OnIssue(fn func(issue.Instance)) { cb.onIssue = fn }

func (cb *CodeBase) emit(ii issue.Instance) {
	if cb.onIssue != nil {
		cb.onIssue(ii)
	}
}

// BuiltinSignature looks up a bundled function signature by name.
func (cb *CodeBase) BuiltinSignature(name string) (builtins.Signature, bool) {
	return builtins.Lookup(cb.signatures, name)
}

// --- classes -------------------------------------------------------------

// AddClass registers c, assigning it an alternate id and emitting
// RedefineClassInternal if its FQSEN is already taken.
// Returns the FQSEN c was ultimately stored under (which may differ from
// c.FQSEN on collision).
func (cb *CodeBase) AddClass(c *Clazz) fqsen.FQSEN {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	base := c.FQSEN
	if _, exists := cb.classes[base]; !exists {
		c.Methods = nonNilMap(c.Methods)
		c.Properties = nonNilMap(c.Properties)
		c.StaticProperties = nonNilMap(c.StaticProperties)
		c.Constants = nonNilMap(c.Constants)
		cb.classes[base] = c
		return base
	}

	cb.classAltCount[base]++
	alt := cb.classAltCount[base]
	c.AlternateID = alt
	altFQSEN := fqsen.New(fqsen.KindClass, base.Namespace(), altSuffix(base.Name(), alt))
	c.FQSEN = altFQSEN
	c.Methods = nonNilMap(c.Methods)
	c.Properties = nonNilMap(c.Properties)
	c.StaticProperties = nonNilMap(c.StaticProperties)
	c.Constants = nonNilMap(c.Constants)
	cb.classes[altFQSEN] = c
	cb.redefinitions = append(cb.redefinitions, Redefinition{Base: base, Alt: altFQSEN})
	cb.emit(issue.New(issue.RedefineClassInternal, c.File, c.Line, altFQSEN.String(), base.String()))
	return altFQSEN
}

func altSuffix(name string, alt int) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte(',')
	b.WriteString(itoa(alt))
	return b.String()
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func nonNilMap(m map[string]fqsen.FQSEN) map[string]fqsen.FQSEN {
	if m == nil {
		return make(map[string]fqsen.FQSEN)
	}
	return m
}

// HasClassWithFQSEN is the total predicate every undeclared-reference
// check uses, agreeing with GetClassByFQSEN's success.
func (cb *CodeBase) HasClassWithFQSEN(f fqsen.FQSEN) bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	_, ok := cb.classes[f]
	return ok
}

// GetClassByFQSEN fails with MissingSymbolError when absent.
func (cb *CodeBase) GetClassByFQSEN(f fqsen.FQSEN) (*Clazz, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	c, ok := cb.classes[f]
	if !ok {
		return nil, missingSymbol("class", f)
	}
	return c, nil
}

// AllClasses returns every registered class, for callers that need a full
// sweep (hydration of the whole program, dead-code detection, the
// signature dump).
func (cb *CodeBase) AllClasses() []*Clazz {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	out := make([]*Clazz, 0, len(cb.classes))
	for _, c := range cb.classes {
		out = append(out, c)
	}
	return out
}

// AllFunctions returns every registered free function, for the same kind
// of full-program sweep AllClasses serves (parameter/return-type validity,
// dead-code detection).
func (cb *CodeBase) AllFunctions() []*Func {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	out := make([]*Func, 0, len(cb.funcs))
	for _, fn := range cb.funcs {
		out = append(out, fn)
	}
	return out
}

// DirectAncestors implements types.AncestorLister: a class's
// interfaces, then its traits, then its direct parent (duplicated in
// hydrate.go's import order, kept consistent deliberately).
func (cb *CodeBase) DirectAncestors(class fqsen.FQSEN) []fqsen.FQSEN {
	cb.mu.Lock()
	c, ok := cb.classes[class]
	cb.mu.Unlock()
	if !ok {
		return nil
	}
	out := make([]fqsen.FQSEN, 0, 1+len(c.InterfaceFQSENs)+len(c.TraitFQSENs))
	out = append(out, c.InterfaceFQSENs...)
	out = append(out, c.TraitFQSENs...)
	if !c.ParentFQSEN.IsZero() {
		out = append(out, c.ParentFQSEN)
	}
	return out
}

// --- methods / properties / constants ------------------------------------

// AddMethod registers m under its Owner class, indexing it by lower-cased
// local name for lookup.
func (cb *CodeBase) AddMethod(m *Method) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.methods[m.FQSEN] = m
	if c, ok := cb.classes[m.Owner]; ok {
		c.Methods[strings.ToLower(m.FQSEN.Name())] = m.FQSEN
	}
}

func (cb *CodeBase) GetMethodByFQSEN(f fqsen.FQSEN) (*Method, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	m, ok := cb.methods[f]
	if !ok {
		return nil, missingSymbol("method", f)
	}
	return m, nil
}

func (cb *CodeBase) HasMethodWithFQSEN(f fqsen.FQSEN) bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	_, ok := cb.methods[f]
	return ok
}

// LookupMethod resolves a method by class and local name, the shape the
// UnionTypeVisitor's method-call handling needs.
func (cb *CodeBase) LookupMethod(class fqsen.FQSEN, name string) (*Method, bool) {
	cb.mu.Lock()
	c, ok := cb.classes[class]
	cb.mu.Unlock()
	if !ok {
		return nil, false
	}
	f, ok := c.Methods[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	m, err := cb.GetMethodByFQSEN(f)
	return m, err == nil
}

func (cb *CodeBase) AddProperty(p *Property) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.properties[p.FQSEN] = p
	if c, ok := cb.classes[p.Owner]; ok {
		c.Properties[strings.ToLower(p.FQSEN.Name())] = p.FQSEN
	}
}

func (cb *CodeBase) AddStaticProperty(p *Property) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.staticProps[p.FQSEN] = p
	if c, ok := cb.classes[p.Owner]; ok {
		c.StaticProperties[strings.ToLower(p.FQSEN.Name())] = p.FQSEN
	}
}

func (cb *CodeBase) GetPropertyByFQSEN(f fqsen.FQSEN) (*Property, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	p, ok := cb.properties[f]
	if !ok {
		return nil, missingSymbol("property", f)
	}
	return p, nil
}

func (cb *CodeBase) HasPropertyWithFQSEN(f fqsen.FQSEN) bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	_, ok := cb.properties[f]
	return ok
}

func (cb *CodeBase) LookupProperty(class fqsen.FQSEN, name string) (*Property, bool) {
	cb.mu.Lock()
	c, ok := cb.classes[class]
	cb.mu.Unlock()
	if !ok {
		return nil, false
	}
	f, ok := c.Properties[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	p, err := cb.GetPropertyByFQSEN(f)
	return p, err == nil
}

func (cb *CodeBase) LookupStaticProperty(class fqsen.FQSEN, name string) (*Property, bool) {
	cb.mu.Lock()
	c, ok := cb.classes[class]
	cb.mu.Unlock()
	if !ok {
		return nil, false
	}
	f, ok := c.StaticProperties[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	cb.mu.Lock()
	p, ok := cb.staticProps[f]
	cb.mu.Unlock()
	return p, ok
}

func (cb *CodeBase) AddClassConstant(cc *ClassConstant) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.classConstants[cc.FQSEN] = cc
	if c, ok := cb.classes[cc.Owner]; ok {
		c.Constants[strings.ToLower(cc.FQSEN.Name())] = cc.FQSEN
	}
}

func (cb *CodeBase) GetClassConstantByFQSEN(f fqsen.FQSEN) (*ClassConstant, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	c, ok := cb.classConstants[f]
	if !ok {
		return nil, missingSymbol("class constant", f)
	}
	return c, nil
}

func (cb *CodeBase) LookupClassConstant(class fqsen.FQSEN, name string) (*ClassConstant, bool) {
	cb.mu.Lock()
	c, ok := cb.classes[class]
	cb.mu.Unlock()
	if !ok {
		return nil, false
	}
	f, ok := c.Constants[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	cc, err := cb.GetClassConstantByFQSEN(f)
	return cc, err == nil
}

// --- functions / global constants ----------------------------------------

// AddFunction registers fn, applying the same alternate-id collision rule
// as AddClass but emitting RedefineFunctionInternal.
func (cb *CodeBase) AddFunction(fn *Func) fqsen.FQSEN {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	base := fn.FQSEN
	if _, exists := cb.funcs[base]; !exists {
		cb.funcs[base] = fn
		return base
	}
	cb.funcAltCount[base]++
	alt := cb.funcAltCount[base]
	altFQSEN := fqsen.New(fqsen.KindFunction, base.Namespace(), altSuffix(base.Name(), alt))
	fn.FQSEN = altFQSEN
	cb.funcs[altFQSEN] = fn
	cb.redefinitions = append(cb.redefinitions, Redefinition{Base: base, Alt: altFQSEN})
	cb.emit(issue.New(issue.RedefineFunctionInternal, fn.File, fn.Line, altFQSEN.String(), base.String()))
	return altFQSEN
}

func (cb *CodeBase) GetFunctionByFQSEN(f fqsen.FQSEN) (*Func, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	fn, ok := cb.funcs[f]
	if !ok {
		return nil, missingSymbol("function", f)
	}
	return fn, nil
}

func (cb *CodeBase) HasFunctionWithFQSEN(f fqsen.FQSEN) bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	_, ok := cb.funcs[f]
	return ok
}

func (cb *CodeBase) AddGlobalConstant(gc *GlobalConstant) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.globalConstants[gc.FQSEN] = gc
}

func (cb *CodeBase) GetGlobalConstantByFQSEN(f fqsen.FQSEN) (*GlobalConstant, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	gc, ok := cb.globalConstants[f]
	if !ok {
		return nil, missingSymbol("global constant", f)
	}
	return gc, nil
}

// --- signature dump -----------------------------

// SignatureEntry is one rendered row of the signature dump — its text
// form is "<fqsen>: param1, param2, ... → return"; this package only
// produces the structured data, leaving formatting to the embedder.
type SignatureEntry struct {
	FQSEN      string
	ParamTypes []string
	ReturnType string
}

// DumpSignatures returns one entry per method and function currently
// registered.
func (cb *CodeBase) DumpSignatures() []SignatureEntry {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	out := make([]SignatureEntry, 0, len(cb.methods)+len(cb.funcs))
	for f, m := range cb.methods {
		out = append(out, SignatureEntry{FQSEN: f.String(), ParamTypes: paramTypeStrings(m.Params), ReturnType: m.ReturnType.String()})
	}
	for f, fn := range cb.funcs {
		out = append(out, SignatureEntry{FQSEN: f.String(), ParamTypes: paramTypeStrings(fn.Params), ReturnType: fn.ReturnType.String()})
	}
	return out
}

func paramTypeStrings(params []Param) []string {
	out := make([]string, len(params))
	for i, p := range params {
		out[i] = p.Type.String()
	}
	return out
}

// Clone returns a deep copy of cb: every Clazz/Method/Property/
// ClassConstant/Func/GlobalConstant is copied by value (including its
// References slice and Suppressed map), and every Clazz's member-name
// maps are copied so a worker mutating its own copy — recording a call-
// site reference, flipping CallsParentConstructor — can never observe or
// corrupt another worker's view. Used by internal/pipeline to hand each
// partition its own private CodeBase seeded from the shared parse-phase
// result, so each worker holds its own private clone.
func (cb *CodeBase) Clone() *CodeBase {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	out := &CodeBase{
		classes:         make(map[fqsen.FQSEN]*Clazz, len(cb.classes)),
		methods:         make(map[fqsen.FQSEN]*Method, len(cb.methods)),
		properties:      make(map[fqsen.FQSEN]*Property, len(cb.properties)),
		staticProps:     make(map[fqsen.FQSEN]*Property, len(cb.staticProps)),
		classConstants:  make(map[fqsen.FQSEN]*ClassConstant, len(cb.classConstants)),
		funcs:           make(map[fqsen.FQSEN]*Func, len(cb.funcs)),
		globalConstants: make(map[fqsen.FQSEN]*GlobalConstant, len(cb.globalConstants)),
		classAltCount:   make(map[fqsen.FQSEN]int, len(cb.classAltCount)),
		funcAltCount:    make(map[fqsen.FQSEN]int, len(cb.funcAltCount)),
		signatures:      cb.signatures, // immutable after Load, safe to share
	}
	for f, c := range cb.classes {
		cc := *c
		cc.Element = cloneElement(c.Element)
		cc.InterfaceFQSENs = append([]fqsen.FQSEN(nil), c.InterfaceFQSENs...)
		cc.TraitFQSENs = append([]fqsen.FQSEN(nil), c.TraitFQSENs...)
		cc.Methods = cloneFQSENMap(c.Methods)
		cc.Properties = cloneFQSENMap(c.Properties)
		cc.StaticProperties = cloneFQSENMap(c.StaticProperties)
		cc.Constants = cloneFQSENMap(c.Constants)
		out.classes[f] = &cc
	}
	for f, m := range cb.methods {
		mm := *m
		mm.Element = cloneElement(m.Element)
		mm.Params = append([]Param(nil), m.Params...)
		out.methods[f] = &mm
	}
	for f, p := range cb.properties {
		pp := *p
		pp.Element = cloneElement(p.Element)
		out.properties[f] = &pp
	}
	for f, p := range cb.staticProps {
		pp := *p
		pp.Element = cloneElement(p.Element)
		out.staticProps[f] = &pp
	}
	for f, c := range cb.classConstants {
		cc := *c
		cc.Element = cloneElement(c.Element)
		out.classConstants[f] = &cc
	}
	for f, fn := range cb.funcs {
		ff := *fn
		ff.Element = cloneElement(fn.Element)
		ff.Params = append([]Param(nil), fn.Params...)
		out.funcs[f] = &ff
	}
	for f, gc := range cb.globalConstants {
		gg := *gc
		gg.Element = cloneElement(gc.Element)
		out.globalConstants[f] = &gg
	}
	for f, n := range cb.classAltCount {
		out.classAltCount[f] = n
	}
	for f, n := range cb.funcAltCount {
		out.funcAltCount[f] = n
	}
	out.redefinitions = append([]Redefinition(nil), cb.redefinitions...)
	return out
}

func cloneElement(e Element) Element {
	e.References = append([]Location(nil), e.References...)
	if e.Suppressed != nil {
		m := make(map[string]bool, len(e.Suppressed))
		for k, v := range e.Suppressed {
			m[k] = v
		}
		e.Suppressed = m
	}
	return e
}

func cloneFQSENMap(m map[string]fqsen.FQSEN) map[string]fqsen.FQSEN {
	out := make(map[string]fqsen.FQSEN, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// NewClassScope is a small helper kept on CodeBase (rather than in
// internal/scope, which must not know about Clazz) so hydrate.go and
// internal/parsepass share one way of building a class's scope from its
// @template tags.
func NewClassScope(class fqsen.FQSEN, templateNames []string) *scope.Scope {
	m := make(map[string]types.UnionType, len(templateNames))
	for _, n := range templateNames {
		m[n] = types.Empty()
	}
	return scope.NewClass(class, m)
}
