// Package opcode defines the heap's item-kind enumeration and the
// schema table that drives both the binary reader/writer and every
// pass's dispatch (spec.md §3.1, §4.1, §9 "dispatch by opcode; each
// case statically knows the operand layout from the schema").
//
// Operand lists below follow spec.md §3.2's "Operands (semantic)"
// column literally, including "name" and "modifiers" as real operands
// (referencing an OpName / OpModifiers leaf item) rather than folding
// them into the item's own data payload — this is what makes Function/
// Method/Property land at exactly the "eight" arity class and Lambda at
// "nine", matching spec.md §3.1's arity-class set, which defines eight
// and nine but skips seven: no declaration needs seven operands, and
// the set is sized for these two rows.
//
// Wherever spec.md says "tuple of X", the item carries a single operand
// referencing an OpTuple item whose own operands are the X's in order;
// this keeps every other declaration, type, statement, and expression
// opcode at a small fixed arity instead of inventing an
// OpTupleOfUnits / OpTupleOfStatements / OpTupleOfCases / ... opcode
// per use (spec.md §4.1's "adding a new item means adding exactly one
// row" only holds if tuples don't multiply the opcode count).
package opcode

// Opcode is a small integer tag identifying an item's kind.
type Opcode int

const (
	// --- leaves used to represent "name"/"modifiers" operands ---
	OpTuple     Opcode = iota // Many operands, the tuple elements, in order; no data.
	OpName                    // data: a names.QualifiedName or names.Identifier, dot-joined. no operands.
	OpModifiers               // data: one byte, a modifier bitset (public/final/native/...). no operands.

	// --- declarations (spec.md §3.2) ---
	OpModule       // operands: (name, units tuple, extern-units tuple, diagnostics tuple). four.
	OpUnit         // operands: (name, declarations tuple). two.
	OpImport       // operands: (path tuple). one.
	OpImportFrom   // operands: (path tuple, from-identifier). two.
	OpStaticVar    // operands: (modifiers, name, type, initializer). four.
	OpTypeAlias    // operands: (modifiers, name, template-params tuple, underlying variable, invariants tuple). five.
	OpFunction     // operands: (modifiers, name, template, params, returns, requires, ensures, body). eight.
	OpMethod       // operands: (modifiers, name, template, params, returns, requires, ensures, body). eight.
	OpProperty     // operands: (modifiers, name, template, params, returns, requires, ensures, body). eight.
	OpLambda       // operands: (modifiers, name, template, params, returns, captured-lifetimes, declared-lifetimes, body, computed-type). nine.
	OpVariable     // operands: (modifiers, name, type). three.
	OpVariableInit // operands: (modifiers, name, type, initializer). four.
	OpLink         // data: the unresolved name. operands: (candidate refs...). many.
	OpBinding      // data: cached concrete type, opaque, filled in lazily. operands: (link, template-arguments tuple). two.

	// --- types (spec.md §3.3) ---
	OpTypeAny
	OpTypeVoid
	OpTypeNull
	OpTypeBool
	OpTypeByte
	OpTypeInt
	OpTypeArray         // operands: (element type). one.
	OpTypeRecord        // data: open flag, one byte. operands: (fields tuple). one.
	OpRecordField       // data: field name. operands: (type). one.
	OpTypeReference     // operands: (target type). one.
	OpTypeReferenceLife // data: lifetime name. operands: (target type). one.
	OpTypeFunction      // operands: (params-types tuple, returns-types tuple). two.
	OpTypeMethod        // operands: (params-types tuple, returns-types tuple, captured-lifetimes tuple, lifetime-params tuple). four.
	OpTypeProperty      // operands: (params-types tuple). one.
	OpTypeUnion         // operands: (member-types tuple). one.
	OpTypeNominal       // operands: (link, type-arguments tuple). two.
	OpTypeRecursive     // data: back-reference index, 4-byte little-endian. no operands.
	OpTypeVariable      // data: template variable name. no operands.

	// --- statements (spec.md §3.4) ---
	OpBlock       // operands: (statements tuple). one.
	OpNamedBlock  // data: lifetime name. operands: (statements tuple). one.
	OpAssert      // operands: (condition). one.
	OpAssume      // operands: (condition). one.
	OpAssign      // operands: (lhs tuple, rhs tuple). two.
	OpSkip        // no operands.
	OpBreak       // no operands.
	OpContinue    // no operands.
	OpDebug       // operands: (expr). one.
	OpDoWhile     // operands: (body, condition, invariants tuple, modified tuple). four.
	OpFail        // no operands.
	OpIfElse      // operands: (condition, then-block, else-block). three.
	OpReturn      // operands: (values tuple). one.
	OpSwitch      // operands: (subject, cases tuple). two.
	OpSwitchCase  // operands: (value, body). two.
	OpSwitchDflt  // operands: (subject, cases tuple, default-block). three.
	OpWhile       // operands: (condition, invariants tuple, body, modified tuple). four.
	OpVarDeclStmt // operands: (variable declaration). one.

	// --- expressions (spec.md §3.4); operand[0] is always the result type ---
	OpVarAccessCopy   // operands: (type, declaration). two.
	OpVarAccessMove   // operands: (type, declaration). two.
	OpStaticVarAccess // operands: (type, declaration). two.
	OpConstant        // data: embedded value bytes. operands: (type). one.
	OpCast            // operands: (type, source). two.
	OpInvoke          // operands: (type, link, binding, arguments tuple). four.
	OpIndirectInvoke  // operands: (type, callee, lifetime-arguments tuple, arguments tuple). four.
	OpNot             // operands: (type, operand). two.
	OpAnd             // operands: (type, lhs, rhs). three.
	OpOr              // operands: (type, lhs, rhs). three.
	OpImplies         // operands: (type, lhs, rhs). three.
	OpIff             // operands: (type, lhs, rhs). three.
	OpForall          // operands: (type, bound-vars tuple, body). three.
	OpExists          // operands: (type, bound-vars tuple, body). three.
	OpEqual           // operands: (type, lhs, rhs). three.
	OpNotEqual        // operands: (type, lhs, rhs). three.
	OpLess            // operands: (type, lhs, rhs). three.
	OpLessEqual       // operands: (type, lhs, rhs). three.
	OpGreater         // operands: (type, lhs, rhs). three.
	OpGreaterEqual    // operands: (type, lhs, rhs). three.
	OpIs              // operands: (type, expr, test-type). three.
	OpAdd             // operands: (type, lhs, rhs). three.
	OpSub             // operands: (type, lhs, rhs). three.
	OpMul             // operands: (type, lhs, rhs). three.
	OpQuo             // operands: (type, lhs, rhs). three.
	OpRem             // operands: (type, lhs, rhs). three.
	OpBitAnd          // operands: (type, lhs, rhs). three.
	OpBitOr           // operands: (type, lhs, rhs). three.
	OpBitXor          // operands: (type, lhs, rhs). three.
	OpBitNot          // operands: (type, operand). two.
	OpShl             // operands: (type, lhs, rhs). three.
	OpShr             // operands: (type, lhs, rhs). three.
	OpDeref           // operands: (type, reference). two.
	OpNew             // operands: (type, initializer). two.
	OpNewLife         // data: lifetime name. operands: (type, initializer). two.
	OpLambdaAccess    // operands: (type, declaration). two.
	OpRecordAccess    // data: field name. operands: (type, record). two.
	OpRecordBorrow    // data: field name. operands: (type, record). two.
	OpRecordUpdate    // data: field name. operands: (type, record, value). three.
	OpRecordInit      // data: field names, sorted, \x00-joined. operands: (type, values tuple). two.
	OpArrayAccess     // operands: (type, array, index). three.
	OpArrayBorrow     // operands: (type, array, index). three.
	OpArrayUpdate     // operands: (type, array, index, value). four.
	OpArrayLength     // operands: (type, array). two.
	OpArrayGenerator  // operands: (type, length, value). three.
	OpArrayInit       // operands: (type, elements tuple). two.
	OpArrayRange      // operands: (type, start, end). three.

	// --- diagnostics (module-attached, never re-parsed, spec.md §7) ---
	OpDiagnostic // data: encoded diagnostic. no operands.

	opcodeCount // sentinel, not a real opcode
)

// Count is the number of defined opcodes — used to size the schema
// table and to bounds-check a decoded opcode varint against "unknown
// opcode" (spec.md §4.1 failure semantics).
const Count = int(opcodeCount)
