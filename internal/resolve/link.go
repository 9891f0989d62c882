package resolve

import (
	"fmt"

	"github.com/wyverify/wyverify/internal/diagnostics"
	"github.com/wyverify/wyverify/internal/heap"
	"github.com/wyverify/wyverify/internal/names"
)

// Open-question resolution (SPEC_FULL.md §6, not one of the four named
// there but the same "decide, don't guess" discipline): spec.md §4.3's
// bullet "A `from X import Y` matches when the tail of the referenced
// name equals `X`" names its own variables in a way that's ambiguous
// against the OpImportFrom schema (path tuple X, from-identifier Y).
// We take the declaration's own documented layout as authoritative: `X`
// is the package path being imported from, `Y` is the single symbol
// name it binds into the enclosing unit's scope, and a usage matches
// this import when the usage is a single identifier equal to Y — the
// ordinary "from X import Y" reading every import-list language uses.

// ResolveLink implements spec.md §4.3: given a Link's unresolved name,
// the Kind it must denote, and its enclosing unit, find the unique
// target declaration. Returns a *diagnostics.Diagnostic (code
// ErrResolutionError) for AmbiguousName or NameNotFound rather than a
// plain error, since both are exactly the shape a caller collects into
// a Collector without treating as control flow (spec.md §7).
func (ns *Namespace) ResolveLink(unitIdx heap.Index, name names.QualifiedName, kind DeclKind, subject heap.Index, r names.Range) ([]heap.Index, *diagnostics.Diagnostic) {
	if len(name) == 0 {
		return nil, diagnostics.New(diagnostics.ErrResolutionError, subject, r, "empty name cannot be resolved")
	}

	// 1. Single identifier + local declaration of that kind.
	if len(name) == 1 {
		if local := ns.declByTailAndKind(unitIdx, name[0], kind); len(local) == 1 {
			return []heap.Index{local[0].Index}, nil
		} else if len(local) > 1 {
			return nil, ambiguous(subject, r, name, local)
		}
	}

	// 2. Walk imports in reverse order of appearance; later imports
	// shadow earlier ones, so the first import (scanned last-to-first)
	// that produces any match wins and we stop scanning further
	// imports — but all matches *within* that one import still count
	// toward ambiguity.
	imports := ns.Imports(unitIdx)
	for i := len(imports) - 1; i >= 0; i-- {
		imp := imports[i]
		var matches []heap.Index

		switch {
		case imp.From != "":
			// from X import Y: usage must be the bare identifier Y.
			if len(name) == 1 && name[0] == imp.From {
				for _, u := range ns.unitsWithPrefix(imp.Path) {
					for _, e := range ns.declByTailAndKind(u, imp.From, kind) {
						matches = append(matches, e.Index)
					}
				}
			}
		case imp.Wildcard:
			// import P.*: matches any unit whose package path
			// prefix-matches P and which declares this name & kind.
			if len(name) >= 1 {
				for _, u := range ns.unitsWithPrefix(imp.Path) {
					for _, e := range ns.declByTailAndKind(u, name.Tail(), kind) {
						matches = append(matches, e.Index)
					}
				}
			}
		}

		if len(matches) == 1 {
			return matches, nil
		}
		if len(matches) > 1 {
			return nil, ambiguousIdx(subject, r, name, matches)
		}
	}

	// A fully-qualified usage matches directly, independent of imports.
	if fq := ns.declByQualifiedName(name, kind); len(fq) == 1 {
		return []heap.Index{fq[0].Index}, nil
	} else if len(fq) > 1 {
		return nil, ambiguous(subject, r, name, fq)
	}

	return nil, diagnostics.New(diagnostics.ErrResolutionError, subject, r,
		"name %q could not be resolved against the enclosing unit's imports", name.String())
}

func ambiguous(subject heap.Index, r names.Range, name names.QualifiedName, entries []DeclEntry) *diagnostics.Diagnostic {
	idxs := make([]heap.Index, len(entries))
	for i, e := range entries {
		idxs[i] = e.Index
	}
	return ambiguousIdx(subject, r, name, idxs)
}

func ambiguousIdx(subject heap.Index, r names.Range, name names.QualifiedName, idxs []heap.Index) *diagnostics.Diagnostic {
	return diagnostics.New(diagnostics.ErrResolutionError, subject, r,
		"name %q is ambiguous: %d candidates match (%v)", name.String(), len(idxs), idxs)
}

func (i Import) String() string {
	if i.From != "" {
		return fmt.Sprintf("from %s import %s", i.Path, i.From)
	}
	if i.Wildcard {
		return fmt.Sprintf("import %s.*", i.Path)
	}
	return fmt.Sprintf("import %s", i.Path)
}
