package resolve

import (
	"github.com/wyverify/wyverify/internal/heap"
	"github.com/wyverify/wyverify/internal/names"
	"github.com/wyverify/wyverify/internal/opcode"
)

// DeclKind classifies a declaration for name-lookup purposes. A Link
// item's candidates are always filtered to one Kind (spec.md §4.3 "a
// local declaration of that kind").
type DeclKind int

const (
	KindType DeclKind = iota
	KindStaticVar
	KindCallable // Function, Method, or Property
)

func kindOf(op opcode.Opcode) (DeclKind, bool) {
	switch op {
	case opcode.OpTypeAlias:
		return KindType, true
	case opcode.OpStaticVar:
		return KindStaticVar, true
	case opcode.OpFunction, opcode.OpMethod, opcode.OpProperty:
		return KindCallable, true
	default:
		return 0, false
	}
}

// DeclEntry is one indexed top-level declaration.
type DeclEntry struct {
	Index heap.Index
	Kind  DeclKind
	Name  names.QualifiedName
	Op    opcode.Opcode
}

// Import is one resolved-from-the-heap import declaration, in the
// order it appears in its unit's declaration tuple (spec.md §4.3 walks
// imports "in reverse order of appearance").
type Import struct {
	// Path is the package/unit path being imported (e.g. "math.vector").
	Path names.QualifiedName
	// From is set for `from X import Y` (OpImportFrom): the symbol name
	// Y being pulled into scope directly. Empty for a plain `import P`
	// or wildcard `import P.*` (OpImport).
	From names.Identifier
	// Wildcard marks a plain OpImport as "import P.*": any declaration
	// in any unit whose name has Path as a prefix becomes reachable by
	// its own tail name (spec.md §4.3 bullet 2).
	Wildcard bool
}

// Namespace indexes every declaration of a Module (its own units plus
// its extern units, already-compiled dependencies carried alongside
// for cross-module resolution — spec.md §3.2's Module operand list)
// by enclosing unit and by qualified name, and extracts each unit's
// import list in declaration order.
type Namespace struct {
	h *heap.Heap

	unitName  map[heap.Index]names.QualifiedName
	declsOf   map[heap.Index][]DeclEntry // unit -> its own declarations
	importsOf map[heap.Index][]Import    // unit -> its own imports, in order
	units     []heap.Index                // all units, in Module order
}

// BuildNamespace walks the Module rooted at moduleIdx and indexes every
// unit's declarations and imports.
func BuildNamespace(h *heap.Heap, moduleIdx heap.Index) *Namespace {
	ns := &Namespace{
		h:         h,
		unitName:  map[heap.Index]names.QualifiedName{},
		declsOf:   map[heap.Index][]DeclEntry{},
		importsOf: map[heap.Index][]Import{},
	}
	mod := h.Get(moduleIdx)
	if len(mod.Operands) < 4 {
		return ns
	}
	all := append(append([]heap.Index{}, Tuple(h, mod.Operands[1])...), Tuple(h, mod.Operands[2])...)
	for _, unitIdx := range all {
		ns.indexUnit(unitIdx)
	}
	return ns
}

func (ns *Namespace) indexUnit(unitIdx heap.Index) {
	h := ns.h
	unit := h.Get(unitIdx)
	if len(unit.Operands) < 2 {
		return
	}
	ns.unitName[unitIdx] = NameOf(h, unit.Operands[0])
	ns.units = append(ns.units, unitIdx)

	for _, declIdx := range Tuple(h, unit.Operands[1]) {
		it := h.Get(declIdx)
		switch it.Op {
		case opcode.OpImport:
			ns.importsOf[unitIdx] = append(ns.importsOf[unitIdx], Import{
				Path:     Tuple(h, it.Operands[0])[0],
				Wildcard: true,
			})
		case opcode.OpImportFrom:
			pathIdents := Tuple(h, it.Operands[0])
			path := make(names.QualifiedName, len(pathIdents))
			for i, pid := range pathIdents {
				path[i] = NameOf(h, pid).Tail()
			}
			ns.importsOf[unitIdx] = append(ns.importsOf[unitIdx], Import{
				Path: path,
				From: NameOf(h, it.Operands[1]).Tail(),
			})
		default:
			name, ok := DeclName(h, declIdx)
			if !ok {
				continue
			}
			kind, ok := kindOf(it.Op)
			if !ok {
				continue
			}
			ns.declsOf[unitIdx] = append(ns.declsOf[unitIdx], DeclEntry{
				Index: declIdx, Kind: kind, Name: name, Op: it.Op,
			})
		}
	}
}

// Imports returns unitIdx's own import list, in declaration order.
func (ns *Namespace) Imports(unitIdx heap.Index) []Import { return ns.importsOf[unitIdx] }

// LocalDecls returns unitIdx's own top-level declarations.
func (ns *Namespace) LocalDecls(unitIdx heap.Index) []DeclEntry { return ns.declsOf[unitIdx] }

// UnitName returns the qualified name (package path) of unitIdx.
func (ns *Namespace) UnitName(unitIdx heap.Index) names.QualifiedName { return ns.unitName[unitIdx] }

// Units returns every indexed unit, in Module declaration order.
func (ns *Namespace) Units() []heap.Index { return ns.units }

// unitsWithPrefix returns every indexed unit whose name has prefix as a
// leading component sequence (spec.md §4.3's `import P.*` rule).
func (ns *Namespace) unitsWithPrefix(prefix names.QualifiedName) []heap.Index {
	var out []heap.Index
	for _, u := range ns.units {
		if ns.unitName[u].HasPrefix(prefix) {
			out = append(out, u)
		}
	}
	return out
}

// declByTailAndKind returns every DeclEntry of kind in unitIdx whose
// tail name equals tail.
func (ns *Namespace) declByTailAndKind(unitIdx heap.Index, tail names.Identifier, kind DeclKind) []DeclEntry {
	var out []DeclEntry
	for _, e := range ns.declsOf[unitIdx] {
		if e.Kind == kind && e.Name.Tail() == tail {
			out = append(out, e)
		}
	}
	return out
}

// declByQualifiedName finds the unit named by qualified[:-1] and
// returns its declarations of kind whose tail matches qualified's last
// component — the "fully-qualified usage matches directly" rule.
func (ns *Namespace) declByQualifiedName(qualified names.QualifiedName, kind DeclKind) []DeclEntry {
	if len(qualified) < 2 {
		return nil
	}
	pkgPath := qualified[:len(qualified)-1]
	tail := qualified.Tail()
	var out []DeclEntry
	for _, u := range ns.units {
		if ns.unitName[u].Equal(pkgPath) {
			out = append(out, ns.declByTailAndKind(u, tail, kind)...)
		}
	}
	return out
}
