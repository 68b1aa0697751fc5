package analysis

import (
	"github.com/shinyvision/ward/internal/scope"
	"github.com/shinyvision/ward/internal/types"
)

// mergeScopes implements ContextMergeVisitor: joins N
// branch-local scopes produced by exploring if/elseif/else or
// try/catch/finally arms back into one. A variable bound in every branch
// merges to the union of what each branch gave it. A variable bound in
// only some branches is, in strict mode, dropped (not provably defined
// afterward); in non-strict mode it survives with `null` added to its
// union, since PHP itself leaves it implicitly null rather than undefined
// on the paths that never assigned it. Where the branch set is not
// exhaustive (an if without else, a loop body that may never run), the
// caller passes the scope of the path on which no branch ran as one of
// branches, so "the condition didn't match anything" is represented.
func mergeScopes(strict bool, branches ...*scope.Scope) *scope.Scope {
	if len(branches) == 0 {
		return scope.NewFunctionLike(nil)
	}
	if len(branches) == 1 {
		return branches[0]
	}

	counts := map[string]int{}
	for _, b := range branches {
		for _, name := range b.Names() {
			counts[name]++
		}
	}

	merged := branches[0].Clone()
	for name, n := range counts {
		var first scope.Variable
		var u types.UnionType
		found := false
		for _, b := range branches {
			v, ok := b.Get(name)
			if !ok {
				continue
			}
			if !found {
				first = v
				u = v.Type
				found = true
				continue
			}
			u = u.AddUnion(v.Type)
		}
		if !found {
			continue
		}
		if n != len(branches) {
			if strict {
				merged.Delete(name)
				continue
			}
			u = u.AddType(types.NativeType(types.NativeNull))
		}
		merged.Set(scope.Variable{Name: name, Type: u, Flags: first.Flags})
	}
	return merged
}
