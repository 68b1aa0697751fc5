package types

import (
	"strings"

	"github.com/shinyvision/ward/internal/fqsen"
)

// UseResolver resolves a bare or qualified class name through a context's
// namespace-use map, returning the fully-qualified, lower-case-stable
// namespace string to intern the class under: look up the lowercase whole
// name, then the lowercase short name, falling back to the name itself if
// nothing resolves.
type UseResolver interface {
	ResolveClassName(name string) (namespace, short string)
}

var nativeNames = map[string]Native{
	"array": NativeArray, "bool": NativeBool, "boolean": NativeBool,
	"callable": NativeCallable, "float": NativeFloat, "double": NativeFloat,
	"int": NativeInt, "integer": NativeInt, "null": NativeNull, "void": NativeVoid,
	"object": NativeObject, "string": NativeString, "mixed": NativeMixed,
	"resource": NativeResource, "static": NativeStatic, "self": NativeStatic,
	"false": NativeBool, "true": NativeBool,
}

// normalizeFQN strips a leading nullable marker and backslash, matching the
// teacher's normalizeFQN (internal/php/type_analysis.go).
func normalizeFQN(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimLeft(name, "?\\")
	return name
}

func shortName(qualified string) string {
	if i := strings.LastIndexByte(qualified, '\\'); i >= 0 && i+1 < len(qualified) {
		return qualified[i+1:]
	}
	return qualified
}

// FromStringInContext implements UnionType::from_string_in_context: split
// on "|", then classify each piece as T[] (generic array), a native name,
// or a class name resolved through res.
func FromStringInContext(s string, res UseResolver) UnionType {
	var out UnionType
	for _, piece := range strings.Split(s, "|") {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		nullable := false
		if strings.HasPrefix(piece, "?") {
			nullable = true
			piece = strings.TrimPrefix(piece, "?")
		}
		t, ok := parseAtom(piece, res)
		if !ok {
			continue
		}
		out = out.AddType(t)
		if nullable {
			out = out.AddType(NativeType(NativeNull))
		}
	}
	return out
}

func parseAtom(piece string, res UseResolver) (Type, bool) {
	if strings.HasSuffix(piece, "[]") {
		elem, ok := parseAtom(strings.TrimSuffix(piece, "[]"), res)
		if !ok {
			return Type{}, false
		}
		return GenericArrayType(elem), true
	}
	// "@inherits Container<int,string>"-style generic binding: a class name
	// followed by a bracketed, comma-separated template-argument list. Only
	// one level of nesting is parsed (each argument is itself split on "|"
	// but not further bracketed) — the doc-comment grammar never needs more
	// than that.
	if i := strings.IndexByte(piece, '<'); i >= 0 && strings.HasSuffix(piece, ">") {
		namePart := piece[:i]
		argsPart := piece[i+1 : len(piece)-1]
		base, ok := parseAtom(namePart, res)
		if !ok || !base.IsClass() {
			return Type{}, false
		}
		var args []UnionType
		for _, a := range splitTopLevelComma(argsPart) {
			args = append(args, FromStringInContext(a, res))
		}
		return ClassType(base.Class(), args...), true
	}
	lower := strings.ToLower(normalizeFQN(piece))
	if n, ok := nativeNames[lower]; ok {
		return NativeType(n), true
	}
	if res == nil {
		ns, short := splitNamespace(normalizeFQN(piece))
		return ClassType(fqsen.New(fqsen.KindClass, ns, short)), true
	}
	ns, short := res.ResolveClassName(piece)
	return ClassType(fqsen.New(fqsen.KindClass, ns, short)), true
}

func splitTopLevelComma(s string) []string {
	var out []string
	depth := 0
	start := 0
	for i, c := range s {
		switch c {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	out = append(out, s[start:])
	return out
}

func splitNamespace(fqn string) (namespace, short string) {
	fqn = normalizeFQN(fqn)
	if i := strings.LastIndexByte(fqn, '\\'); i >= 0 {
		return fqn[:i], fqn[i+1:]
	}
	return "", fqn
}

// DocTagKind enumerates the doc-comment tags ParseDocComment recognizes.
type DocTagKind string

const (
	DocParam      DocTagKind = "param"
	DocVar        DocTagKind = "var"
	DocReturn     DocTagKind = "return"
	DocTemplate   DocTagKind = "template"
	DocInherits   DocTagKind = "inherits"
	DocDeprecated DocTagKind = "deprecated"
	DocSuppress   DocTagKind = "suppress"
)

// DocTag is one parsed line of a doc-comment.
type DocTag struct {
	Kind DocTagKind
	Type string // the raw union-type text, present for param/var/return/inherits
	Name string // the $variable name, present for param; or the suppressed issue type for suppress; or template identifier for template
}

// ParseDocComment line-scans a doc-comment for @param/@var/@return/
// @template/@inherits/@deprecated/@suppress tags. Lines
// that don't start with a recognized tag are ignored; this is deliberately
// forgiving, line-oriented matching rather than a strict grammar.
func ParseDocComment(doc string) []DocTag {
	var tags []DocTag
	for _, line := range strings.Split(doc, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "*")
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "@") {
			continue
		}
		line = line[1:]
		word, rest := splitWord(line)
		switch strings.ToLower(word) {
		case "param":
			typ, name := splitWord(rest)
			name = strings.TrimPrefix(strings.TrimSpace(name), "$")
			if sp := strings.IndexAny(name, " \t"); sp >= 0 {
				name = name[:sp]
			}
			tags = append(tags, DocTag{Kind: DocParam, Type: typ, Name: name})
		case "var":
			typ, _ := splitWord(rest)
			tags = append(tags, DocTag{Kind: DocVar, Type: typ})
		case "return":
			typ, _ := splitWord(rest)
			tags = append(tags, DocTag{Kind: DocReturn, Type: typ})
		case "template":
			name, _ := splitWord(rest)
			tags = append(tags, DocTag{Kind: DocTemplate, Name: name})
		case "inherits":
			typ, _ := splitWord(rest)
			tags = append(tags, DocTag{Kind: DocInherits, Type: typ})
		case "deprecated":
			tags = append(tags, DocTag{Kind: DocDeprecated})
		case "suppress":
			name, _ := splitWord(rest)
			tags = append(tags, DocTag{Kind: DocSuppress, Name: name})
		}
	}
	return tags
}

func splitWord(s string) (word, rest string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ""
	}
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i+1:])
}
