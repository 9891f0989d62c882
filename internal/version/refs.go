package version

import (
	"github.com/wyverify/wyverify/internal/types"
)

// containsReference reports whether a value of type t may transitively
// embed a Reference, the test spec.md §4.5's "conservative havocking"
// rule needs at method-call sites. Any, since it denotes an unknown
// runtime shape, and an open Record, since it may carry unlisted fields
// of unknown type, are both treated conservatively as "may contain a
// reference" (spec.md §4.5's "Open-record caveat").
func containsReference(t types.Type, env *types.Environment, seen map[string]bool) bool {
	if seen == nil {
		seen = map[string]bool{}
	}
	key := t.String()
	if seen[key] {
		return false
	}
	seen[key] = true

	switch v := t.(type) {
	case types.Any:
		return true
	case types.Reference:
		return true
	case types.Array:
		return containsReference(v.Element, env, seen)
	case types.Record:
		if v.Open {
			return true
		}
		for _, f := range v.Fields {
			if containsReference(f.Type, env, seen) {
				return true
			}
		}
		return false
	case types.Union:
		for _, m := range v.Members {
			if containsReference(m, env, seen) {
				return true
			}
		}
		return false
	case types.Recursive:
		return containsReference(v.Unfold(), env, seen)
	case types.Nominal:
		if expanded, ok := types.Expand(env, v); ok {
			return containsReference(expanded, env, seen)
		}
		// Alias couldn't be expanded (no Environment, or the name
		// didn't resolve): err conservative rather than silently
		// treating an unknown shape as reference-free.
		return true
	default:
		return false
	}
}
