// Package fqsen implements interned Fully Qualified Structural Element
// Names: the canonical identifiers the rest of the engine uses to refer to
// classes, methods, properties, constants, and functions without repeatedly
// paying for string formatting or comparison.
package fqsen

import (
	"strconv"
	"strings"
	"sync"
)

// Kind discriminates the structural element an FQSEN names.
type Kind uint8

const (
	KindClass Kind = iota
	KindInterface
	KindTrait
	KindMethod
	KindProperty
	KindStaticProperty
	KindClassConst
	KindGlobalConst
	KindFunction
	KindClosure
)

// FQSEN is an interned, comparable handle. Two FQSENs compare equal with ==
// iff they name the same element; the zero value is never returned by
// New/NewMember and is treated as "absent" by callers that keep a
// map[FQSEN]... and need a sentinel.
type FQSEN struct {
	id int32
}

// IsZero reports whether f is the absent sentinel.
func (f FQSEN) IsZero() bool { return f.id == 0 }

type record struct {
	kind      Kind
	namespace string // lower-cased, leading "\" stripped, "\\"-joined
	name      string // case-preserved declared name; class/function names compare case-insensitively
	owner     FQSEN  // zero for top-level class/function/const; the class FQSEN for members
}

// table is the process-wide intern table. FQSENs are process lifetime
// values with no eviction, so a single package-level table (guarded by a
// mutex, read mostly) is the right shape — never per-CodeBase, since two
// CodeBase clones in a worker partition must agree on what a given FQSEN
// means.
var table = struct {
	mu      sync.RWMutex
	records []record
	byKey   map[string]int32
}{
	records: []record{{}}, // index 0 reserved for the zero value
	byKey:   make(map[string]int32),
}

func normalizeNamespace(ns string) string {
	ns = strings.Trim(ns, "\\")
	return strings.ToLower(ns)
}

func key(kind Kind, namespace, name string, owner FQSEN) string {
	var b strings.Builder
	b.WriteByte(byte(kind))
	b.WriteByte(0)
	b.WriteString(namespace)
	b.WriteByte(0)
	b.WriteString(strings.ToLower(name))
	b.WriteByte(0)
	if owner.id != 0 {
		b.WriteString(strconv.Itoa(int(owner.id)))
	}
	return b.String()
}

func intern(kind Kind, namespace, name string, owner FQSEN) FQSEN {
	namespace = normalizeNamespace(namespace)
	k := key(kind, namespace, name, owner)

	table.mu.RLock()
	if id, ok := table.byKey[k]; ok {
		table.mu.RUnlock()
		return FQSEN{id: id}
	}
	table.mu.RUnlock()

	table.mu.Lock()
	defer table.mu.Unlock()
	if id, ok := table.byKey[k]; ok {
		return FQSEN{id: id}
	}
	table.records = append(table.records, record{kind: kind, namespace: namespace, name: name, owner: owner})
	id := int32(len(table.records) - 1)
	table.byKey[k] = id
	return FQSEN{id: id}
}

// New interns a top-level FQSEN: a namespaced class, interface, trait,
// function, or global constant.
func New(kind Kind, namespace, name string) FQSEN {
	return intern(kind, namespace, name, FQSEN{})
}

// NewMember interns an FQSEN owned by a class: a method, property, static
// property, or class constant. owner must itself be a class-like FQSEN.
func NewMember(kind Kind, owner FQSEN, name string) FQSEN {
	return intern(kind, "", name, owner)
}

func (f FQSEN) lookup() record {
	table.mu.RLock()
	defer table.mu.RUnlock()
	return table.records[f.id]
}

// Kind returns the structural element kind.
func (f FQSEN) Kind() Kind { return f.lookup().kind }

// Name returns the declared (case-preserving) short name.
func (f FQSEN) Name() string { return f.lookup().name }

// Namespace returns the lower-cased namespace for a top-level FQSEN, or ""
// for a member FQSEN (members are namespaced through their Owner).
func (f FQSEN) Namespace() string { return f.lookup().namespace }

// Owner returns the owning class-like FQSEN for a member, or the zero value
// for a top-level FQSEN.
func (f FQSEN) Owner() FQSEN { return f.lookup().owner }

// String renders a canonical, human readable form: "\Ns\Class::method" for
// members, "\Ns\name" for top-level elements. It is meant for log lines and
// test diffs, never for re-parsing.
func (f FQSEN) String() string {
	if f.IsZero() {
		return "<zero-fqsen>"
	}
	r := f.lookup()
	switch r.kind {
	case KindMethod, KindProperty, KindStaticProperty, KindClassConst:
		sep := "::"
		prefix := "$"
		if r.kind == KindMethod || r.kind == KindClassConst {
			prefix = ""
		}
		if r.kind == KindStaticProperty {
			prefix = "$"
		}
		return r.owner.String() + sep + prefix + r.name
	default:
		if r.namespace == "" {
			return "\\" + r.name
		}
		return "\\" + r.namespace + "\\" + r.name
	}
}

// EqualNameFold reports whether two FQSENs share the same declared name
// under PHP's case-insensitive class/function/namespace comparison rules,
// regardless of interning identity. Used by ancestor-hydration conflict
// detection, where two differently-cased references to the same class must
// be recognized as aliases of one FQSEN rather than two.
func EqualNameFold(a, b FQSEN) bool {
	ra, rb := a.lookup(), b.lookup()
	return ra.kind == rb.kind &&
		ra.namespace == rb.namespace &&
		strings.EqualFold(ra.name, rb.name) &&
		ra.owner == rb.owner
}
