package codebase

import (
	"github.com/shinyvision/ward/internal/fqsen"
	"github.com/shinyvision/ward/internal/issue"
	"github.com/shinyvision/ward/internal/scope"
	"github.com/shinyvision/ward/internal/types"
)

// Hydrate ensures class's parent/interface/trait closure has been imported
// into it. It is idempotent: calling it N times behaves as calling it
// once. Precondition: ancestors that are parse-registered are hydrated
// transitively first; ancestors that are entirely absent from the
// CodeBase are simply skipped here (the Undeclared{ExtendedClass,
// Interface,Trait} diagnostics are the analysis pass's job, not
// hydration's).
func (cb *CodeBase) Hydrate(class fqsen.FQSEN) {
	cb.mu.Lock()
	c, ok := cb.classes[class]
	cb.mu.Unlock()
	if !ok || c.Hydrated {
		return
	}
	c.Hydrated = true // set first: a cycle in a malformed hierarchy must not loop forever

	// Import order: every interface, then every trait, then the parent.
	for _, i := range c.InterfaceFQSENs {
		cb.hydrateAndImportFrom(c, i, cb.templateBindingFor(c, i))
	}
	for _, t := range c.TraitFQSENs {
		cb.hydrateAndImportFrom(c, t, cb.templateBindingFor(c, t))
	}
	if !c.ParentFQSEN.IsZero() {
		cb.hydrateAndImportFrom(c, c.ParentFQSEN, cb.templateBindingFor(c, c.ParentFQSEN))
	}

	cb.injectClassConstant(c)
	cb.injectThisVariable(c)
}

// templateBindingFor builds the template-parameter-type map for importing
// from ancestor, by matching ancestor against target's @inherits-derived
// InheritsTypes — a parent's template parameters bound through the
// extending class's @inherits tag. Returns nil when no binding
// applies — imported members then keep their declared union type as-is.
func (cb *CodeBase) templateBindingFor(target *Clazz, ancestor fqsen.FQSEN) map[string]types.UnionType {
	cb.mu.Lock()
	anc, ok := cb.classes[ancestor]
	cb.mu.Unlock()
	if !ok || len(anc.TemplateTypeNames) == 0 {
		return nil
	}
	for _, t := range target.InheritsTypes.Types() {
		if !t.IsClass() || t.Class() != ancestor {
			continue
		}
		args := t.TemplateArgs()
		if len(args) == 0 {
			return nil
		}
		m := make(map[string]types.UnionType, len(anc.TemplateTypeNames))
		for i, name := range anc.TemplateTypeNames {
			if i < len(args) {
				m[name] = args[i]
			}
		}
		return m
	}
	return nil
}

func (cb *CodeBase) hydrateAndImportFrom(target *Clazz, ancestor fqsen.FQSEN, templateBinding map[string]types.UnionType) {
	cb.Hydrate(ancestor) // transitive: ancestor's own ancestors are imported into it first

	cb.mu.Lock()
	anc, ok := cb.classes[ancestor]
	cb.mu.Unlock()
	if !ok {
		return
	}

	for name, f := range anc.Properties {
		cb.importMember(target, name, f, templateBinding, importProperty)
	}
	for name, f := range anc.StaticProperties {
		cb.importMember(target, name, f, templateBinding, importStaticProperty)
	}
	for name, f := range anc.Constants {
		cb.importMember(target, name, f, templateBinding, importConstant)
	}
	for name, f := range anc.Methods {
		cb.importMember(target, name, f, templateBinding, importMethod)
	}
}

type importKind int

const (
	importProperty importKind = iota
	importStaticProperty
	importConstant
	importMethod
)

// importMember implements member-import rule: if the
// target already declares `name`, the ancestor's member is discarded and
// the target's existing member is marked IsOverride; otherwise a fresh
// copy is made, retargeted to target but with DefiningFQSEN preserved, and
// (if the ancestor's template map bound type parameters) its union type
// rewritten through templateBinding.
func (cb *CodeBase) importMember(target *Clazz, name string, ancestorFQSEN fqsen.FQSEN, templateBinding map[string]types.UnionType, kind importKind) {
	localMap := memberMapFor(target, kind)

	if existingFQSEN, already := localMap[name]; already {
		cb.markOverride(existingFQSEN, kind)
		return
	}

	switch kind {
	case importProperty:
		src, err := cb.GetPropertyByFQSEN(ancestorFQSEN)
		if err != nil {
			return
		}
		copyProp := *src
		copyProp.FQSEN = fqsen.NewMember(fqsen.KindProperty, target.FQSEN, name)
		copyProp.Owner = target.FQSEN
		if src.DefiningFQSEN.IsZero() {
			copyProp.DefiningFQSEN = src.Owner
		}
		if templateBinding != nil {
			copyProp.Type = copyProp.Type.WithTemplateParameterTypeMap(templateBinding)
		}
		cb.AddProperty(&copyProp)
	case importStaticProperty:
		cb.mu.Lock()
		src, err := cb.staticProps[ancestorFQSEN], mapErr(cb.staticProps, ancestorFQSEN)
		cb.mu.Unlock()
		if err != nil {
			return
		}
		copyProp := *src
		copyProp.FQSEN = fqsen.NewMember(fqsen.KindStaticProperty, target.FQSEN, name)
		copyProp.Owner = target.FQSEN
		if src.DefiningFQSEN.IsZero() {
			copyProp.DefiningFQSEN = src.Owner
		}
		if templateBinding != nil {
			copyProp.Type = copyProp.Type.WithTemplateParameterTypeMap(templateBinding)
		}
		cb.AddStaticProperty(&copyProp)
	case importConstant:
		src, err := cb.GetClassConstantByFQSEN(ancestorFQSEN)
		if err != nil {
			return
		}
		copyConst := *src
		copyConst.FQSEN = fqsen.NewMember(fqsen.KindClassConst, target.FQSEN, name)
		copyConst.Owner = target.FQSEN
		if src.DefiningFQSEN.IsZero() {
			copyConst.DefiningFQSEN = src.Owner
		}
		cb.AddClassConstant(&copyConst)
	case importMethod:
		src, err := cb.GetMethodByFQSEN(ancestorFQSEN)
		if err != nil {
			return
		}
		copyMethod := *src
		copyMethod.FQSEN = fqsen.NewMember(fqsen.KindMethod, target.FQSEN, name)
		copyMethod.Owner = target.FQSEN
		if src.DefiningFQSEN.IsZero() {
			copyMethod.DefiningFQSEN = src.Owner
		}
		if templateBinding != nil {
			copyMethod.ReturnType = copyMethod.ReturnType.WithTemplateParameterTypeMap(templateBinding)
			for i := range copyMethod.Params {
				copyMethod.Params[i].Type = copyMethod.Params[i].Type.WithTemplateParameterTypeMap(templateBinding)
			}
		}
		CoerceGeneratorReturnType(&copyMethod)
		cb.AddMethod(&copyMethod)
	}
}

func mapErr(m map[fqsen.FQSEN]*Property, f fqsen.FQSEN) error {
	if _, ok := m[f]; !ok {
		return missingSymbol("static property", f)
	}
	return nil
}

func memberMapFor(c *Clazz, kind importKind) map[string]fqsen.FQSEN {
	switch kind {
	case importProperty:
		return c.Properties
	case importStaticProperty:
		return c.StaticProperties
	case importConstant:
		return c.Constants
	default:
		return c.Methods
	}
}

// markOverride flags a target's own member as overriding an ancestor's;
// composition conflicts between two different ancestors (not the class
// itself) are reported separately via CheckComposition, since at the
// point importMember runs we've already discarded which specific ancestor
// "loses" — such conflicts favor the earliest-defined: the first ancestor
// processed (interfaces, then traits, then parent) wins silently; only
// method overrides care about IsOverride.
func (cb *CodeBase) markOverride(existing fqsen.FQSEN, kind importKind) {
	if kind != importMethod {
		return
	}
	cb.mu.Lock()
	m, ok := cb.methods[existing]
	cb.mu.Unlock()
	if ok {
		m.IsOverride = true
	}
}

func (cb *CodeBase) injectClassConstant(c *Clazz) {
	name := "class"
	if _, exists := c.Constants[name]; exists {
		return
	}
	classConstFQSEN := fqsen.NewMember(fqsen.KindClassConst, c.FQSEN, name)
	cc := &ClassConstant{
		Element: Element{FQSEN: classConstFQSEN, Type: types.FromTypes(types.NativeType(types.NativeString)), File: c.File, Line: c.Line},
		Owner:   c.FQSEN,
	}
	cb.AddClassConstant(cc)
}

func (cb *CodeBase) injectThisVariable(c *Clazz) {
	if c.Scope == nil {
		c.Scope = NewClassScope(c.FQSEN, c.TemplateTypeNames)
	}
	c.Scope.Set(scope.Variable{Name: "this", Type: types.FromTypes(types.ClassType(c.FQSEN))})
}

// CheckComposition scans every direct ancestor pairing for the same member
// name declared by two different ancestors (not by the class itself),
// emitting IncompatibleComposition{Prop,Method,Const}. Run once per class
// after Hydrate, typically from the per-class analyzers
// (internal/classcheck) rather than from Hydrate itself, since it needs
// access to the issue sink.
func (cb *CodeBase) CheckComposition(class fqsen.FQSEN) []issue.Instance {
	cb.mu.Lock()
	c, ok := cb.classes[class]
	cb.mu.Unlock()
	if !ok {
		return nil
	}

	var out []issue.Instance
	seenProp := map[string]fqsen.FQSEN{}
	seenMethod := map[string]fqsen.FQSEN{}
	seenConst := map[string]fqsen.FQSEN{}

	ancestors := append(append(append([]fqsen.FQSEN{}, c.InterfaceFQSENs...), c.TraitFQSENs...), c.ParentFQSEN)
	for _, anc := range ancestors {
		if anc.IsZero() {
			continue
		}
		cb.mu.Lock()
		a, ok := cb.classes[anc]
		cb.mu.Unlock()
		if !ok {
			continue
		}
		for name := range a.Properties {
			if prior, dup := seenProp[name]; dup && !fqsen.EqualNameFold(prior, anc) {
				out = append(out, issue.New(issue.IncompatibleCompositionProp, c.File, c.Line, name, anc.String()))
			}
			seenProp[name] = anc
		}
		for name := range a.Methods {
			if prior, dup := seenMethod[name]; dup && !fqsen.EqualNameFold(prior, anc) {
				out = append(out, issue.New(issue.IncompatibleCompositionMethod, c.File, c.Line, name, anc.String()))
			}
			seenMethod[name] = anc
		}
		for name := range a.Constants {
			if prior, dup := seenConst[name]; dup && !fqsen.EqualNameFold(prior, anc) {
				out = append(out, issue.New(issue.IncompatibleCompositionConst, c.File, c.Line, name, anc.String()))
			}
			seenConst[name] = anc
		}
	}
	return out
}
