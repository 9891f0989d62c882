package opcode

import "fmt"

// OperandArity classifies how many operand references an item of a
// given opcode carries. spec.md §3.1 fixes the class set to
// {zero, one, two, three, four, five, six, eight, nine, many} — note
// there is no "seven": no item in this design needs exactly seven
// operands (see opcode.go's comment on OpLambda).
type OperandArity int

const (
	ArityZero OperandArity = iota
	ArityOne
	ArityTwo
	ArityThree
	ArityFour
	ArityFive
	AritySix
	ArityEight
	ArityNine
	ArityMany
)

// Fixed reports the exact operand count for all classes but ArityMany,
// and whether the class is fixed at all.
func (a OperandArity) Fixed() (n int, ok bool) {
	switch a {
	case ArityZero:
		return 0, true
	case ArityOne:
		return 1, true
	case ArityTwo:
		return 2, true
	case ArityThree:
		return 3, true
	case ArityFour:
		return 4, true
	case ArityFive:
		return 5, true
	case AritySix:
		return 6, true
	case ArityEight:
		return 8, true
	case ArityNine:
		return 9, true
	default:
		return 0, false
	}
}

// arityOf converts a concrete operand count into its class, panicking
// on 7 or >9 (neither is representable — a schema bug, not a runtime
// condition).
func arityOf(n int) OperandArity {
	switch n {
	case 0:
		return ArityZero
	case 1:
		return ArityOne
	case 2:
		return ArityTwo
	case 3:
		return ArityThree
	case 4:
		return ArityFour
	case 5:
		return ArityFive
	case 6:
		return AritySix
	case 8:
		return ArityEight
	case 9:
		return ArityNine
	default:
		panic(fmt.Sprintf("opcode: %d is not a representable fixed operand arity", n))
	}
}

// DataArity classifies whether an item of a given opcode carries a data
// payload. spec.md §3.1 calls these classes "zero" and "two": an item
// either has no payload, or it has a (length, bytes) pair.
type DataArity int

const (
	DataZero DataArity = iota
	DataTwo
)

// Schema fixes one opcode's operand-arity class and data-arity class.
// The binary reader validates every decoded item against its opcode's
// Schema (spec.md §4.1); a mismatch is a CorruptBinary/SchemaMismatch
// error, never a panic.
type Schema struct {
	Opcode       Opcode
	Name         string
	OperandArity OperandArity
	DataArity    DataArity
}

// table is indexed by Opcode. Building it as a literal slice rather
// than a map means a missing row is caught by a nil-Name check at
// init time, not silently defaulted — "adding a new item means adding
// exactly one row" (spec.md §4.1).
var table [Count]Schema

func def(op Opcode, name string, operands OperandArity, data DataArity) {
	table[op] = Schema{Opcode: op, Name: name, OperandArity: operands, DataArity: data}
}

func init() {
	def(OpTuple, "Tuple", ArityMany, DataZero)
	def(OpName, "Name", ArityZero, DataTwo)
	def(OpModifiers, "Modifiers", ArityZero, DataTwo)

	def(OpModule, "Module", ArityFour, DataZero)
	def(OpUnit, "Unit", ArityTwo, DataZero)
	def(OpImport, "Import", ArityOne, DataZero)
	def(OpImportFrom, "ImportFrom", ArityTwo, DataZero)
	def(OpStaticVar, "StaticVar", ArityFour, DataZero)
	def(OpTypeAlias, "TypeAlias", ArityFive, DataZero)
	def(OpFunction, "Function", ArityEight, DataZero)
	def(OpMethod, "Method", ArityEight, DataZero)
	def(OpProperty, "Property", ArityEight, DataZero)
	def(OpLambda, "Lambda", ArityNine, DataZero)
	def(OpVariable, "Variable", ArityThree, DataZero)
	def(OpVariableInit, "VariableInit", ArityFour, DataZero)
	def(OpLink, "Link", ArityMany, DataTwo)
	def(OpBinding, "Binding", ArityTwo, DataTwo)

	def(OpTypeAny, "TypeAny", ArityZero, DataZero)
	def(OpTypeVoid, "TypeVoid", ArityZero, DataZero)
	def(OpTypeNull, "TypeNull", ArityZero, DataZero)
	def(OpTypeBool, "TypeBool", ArityZero, DataZero)
	def(OpTypeByte, "TypeByte", ArityZero, DataZero)
	def(OpTypeInt, "TypeInt", ArityZero, DataZero)
	def(OpTypeArray, "TypeArray", ArityOne, DataZero)
	def(OpTypeRecord, "TypeRecord", ArityOne, DataTwo)
	def(OpRecordField, "RecordField", ArityOne, DataTwo)
	def(OpTypeReference, "TypeReference", ArityOne, DataZero)
	def(OpTypeReferenceLife, "TypeReferenceLife", ArityOne, DataTwo)
	def(OpTypeFunction, "TypeFunction", ArityTwo, DataZero)
	def(OpTypeMethod, "TypeMethod", ArityFour, DataZero)
	def(OpTypeProperty, "TypeProperty", ArityOne, DataZero)
	def(OpTypeUnion, "TypeUnion", ArityOne, DataZero)
	def(OpTypeNominal, "TypeNominal", ArityTwo, DataZero)
	def(OpTypeRecursive, "TypeRecursive", ArityZero, DataTwo)
	def(OpTypeVariable, "TypeVariable", ArityZero, DataTwo)

	def(OpBlock, "Block", ArityOne, DataZero)
	def(OpNamedBlock, "NamedBlock", ArityOne, DataTwo)
	def(OpAssert, "Assert", ArityOne, DataZero)
	def(OpAssume, "Assume", ArityOne, DataZero)
	def(OpAssign, "Assign", ArityTwo, DataZero)
	def(OpSkip, "Skip", ArityZero, DataZero)
	def(OpBreak, "Break", ArityZero, DataZero)
	def(OpContinue, "Continue", ArityZero, DataZero)
	def(OpDebug, "Debug", ArityOne, DataZero)
	def(OpDoWhile, "DoWhile", ArityFour, DataZero)
	def(OpFail, "Fail", ArityZero, DataZero)
	def(OpIfElse, "IfElse", ArityThree, DataZero)
	def(OpReturn, "Return", ArityOne, DataZero)
	def(OpSwitch, "Switch", ArityTwo, DataZero)
	def(OpSwitchCase, "SwitchCase", ArityTwo, DataZero)
	def(OpSwitchDflt, "SwitchDefault", ArityThree, DataZero)
	def(OpWhile, "While", ArityFour, DataZero)
	def(OpVarDeclStmt, "VarDeclStmt", ArityOne, DataZero)

	def(OpVarAccessCopy, "VarAccessCopy", ArityTwo, DataZero)
	def(OpVarAccessMove, "VarAccessMove", ArityTwo, DataZero)
	def(OpStaticVarAccess, "StaticVarAccess", ArityTwo, DataZero)
	def(OpConstant, "Constant", ArityOne, DataTwo)
	def(OpCast, "Cast", ArityTwo, DataZero)
	def(OpInvoke, "Invoke", ArityFour, DataZero)
	def(OpIndirectInvoke, "IndirectInvoke", ArityFour, DataZero)
	def(OpNot, "Not", ArityTwo, DataZero)
	def(OpAnd, "And", ArityThree, DataZero)
	def(OpOr, "Or", ArityThree, DataZero)
	def(OpImplies, "Implies", ArityThree, DataZero)
	def(OpIff, "Iff", ArityThree, DataZero)
	def(OpForall, "Forall", ArityThree, DataZero)
	def(OpExists, "Exists", ArityThree, DataZero)
	def(OpEqual, "Equal", ArityThree, DataZero)
	def(OpNotEqual, "NotEqual", ArityThree, DataZero)
	def(OpLess, "Less", ArityThree, DataZero)
	def(OpLessEqual, "LessEqual", ArityThree, DataZero)
	def(OpGreater, "Greater", ArityThree, DataZero)
	def(OpGreaterEqual, "GreaterEqual", ArityThree, DataZero)
	def(OpIs, "Is", ArityThree, DataZero)
	def(OpAdd, "Add", ArityThree, DataZero)
	def(OpSub, "Sub", ArityThree, DataZero)
	def(OpMul, "Mul", ArityThree, DataZero)
	def(OpQuo, "Quo", ArityThree, DataZero)
	def(OpRem, "Rem", ArityThree, DataZero)
	def(OpBitAnd, "BitAnd", ArityThree, DataZero)
	def(OpBitOr, "BitOr", ArityThree, DataZero)
	def(OpBitXor, "BitXor", ArityThree, DataZero)
	def(OpBitNot, "BitNot", ArityTwo, DataZero)
	def(OpShl, "Shl", ArityThree, DataZero)
	def(OpShr, "Shr", ArityThree, DataZero)
	def(OpDeref, "Deref", ArityTwo, DataZero)
	def(OpNew, "New", ArityTwo, DataZero)
	def(OpNewLife, "NewLife", ArityTwo, DataTwo)
	def(OpLambdaAccess, "LambdaAccess", ArityTwo, DataZero)
	def(OpRecordAccess, "RecordAccess", ArityTwo, DataTwo)
	def(OpRecordBorrow, "RecordBorrow", ArityTwo, DataTwo)
	def(OpRecordUpdate, "RecordUpdate", ArityThree, DataTwo)
	def(OpRecordInit, "RecordInit", ArityTwo, DataTwo)
	def(OpArrayAccess, "ArrayAccess", ArityThree, DataZero)
	def(OpArrayBorrow, "ArrayBorrow", ArityThree, DataZero)
	def(OpArrayUpdate, "ArrayUpdate", ArityFour, DataZero)
	def(OpArrayLength, "ArrayLength", ArityTwo, DataZero)
	def(OpArrayGenerator, "ArrayGenerator", ArityThree, DataZero)
	def(OpArrayInit, "ArrayInit", ArityTwo, DataZero)
	def(OpArrayRange, "ArrayRange", ArityThree, DataZero)

	def(OpDiagnostic, "Diagnostic", ArityZero, DataTwo)

	for i, s := range table {
		if s.Name == "" {
			panic(fmt.Sprintf("opcode: schema table missing a row for opcode %d", i))
		}
	}
}

// Lookup returns the schema for op, and false if op is out of range —
// the binary reader's "unknown opcode" case (spec.md §4.1).
func Lookup(op Opcode) (Schema, bool) {
	if op < 0 || int(op) >= Count {
		return Schema{}, false
	}
	return table[op], true
}

// MatchesOperandCount reports whether n operands satisfy op's operand
// arity class.
func (s Schema) MatchesOperandCount(n int) bool {
	if s.OperandArity == ArityMany {
		return true
	}
	want, _ := s.OperandArity.Fixed()
	return n == want
}
