package diagnostics

// templates holds a human-readable one-line description per code,
// independent of any particular occurrence's formatted Message, read
// through Template. The analyses themselves always call New with a
// fully formatted message
// because only the call site has the concrete types/names involved.
var templates = map[ErrorCode]string{
	ErrSubtypeError:                  "a value's type is not a subtype of the type required at this position",
	ErrEmptyType:                     "this type denotes no values (an empty intersection or difference)",
	ErrExpectedArray:                 "an array type was expected here",
	ErrExpectedRecord:                "a record type was expected here",
	ErrExpectedReference:             "a reference type was expected here",
	ErrExpectedLambda:                "a callable type was expected here",
	ErrInvalidField:                  "the referenced field does not exist on this record type",
	ErrResolutionError:               "a name could not be resolved against the enclosing unit's imports",
	ErrAmbiguousCoercion:             "no unique most-precise union member accepts this value",
	ErrMissingTemplateParameters:     "fewer template arguments were supplied than the declaration requires",
	ErrTooManyTemplateParameters:     "more template arguments were supplied than the declaration accepts",
	ErrMissingReturn:                 "a path through this callable does not return a value",
	ErrUnreachableCode:               "this statement can never be reached",
	ErrBranchAlwaysTaken:             "this branch condition is always true or always false",
	ErrTooManyReturns:                "more return statements than the callable's result arity allows",
	ErrInsufficientReturns:           "fewer values returned than the callable's result arity requires",
	ErrCyclicStaticInitialiser:       "this static variable's initializer transitively refers to itself",
	ErrVariablePossiblyUninitialised: "this variable may be read before it is definitely assigned",
	ErrIncomparableOperands:          "these operand types cannot be compared",
	ErrInsufficientArguments:         "fewer arguments were supplied than the callable requires",
	ErrAmbiguousCallable:             "more than one overload matches this call",
	ErrParameterReassigned:           "a parameter was assigned more than once",
	ErrFinalVariableReassigned:       "a final variable was assigned more than once",
	ErrAllocationNotPermitted:        "functions may not allocate",
	ErrMethodcallNotPermitted:        "functions may not invoke a method",
	ErrReferenceAccessNotPermitted:   "functions may not dereference a reference",
	ErrInvalidLval:                   "this expression cannot appear on the left-hand side of an assignment",
	ErrCorruptBinary:                 "the binary heap stream is malformed",
	ErrSchemaMismatch:                "an item's operand or data arity does not match its opcode's schema",
	ErrTruncatedInput:                "the binary stream ended before a complete item could be read",
	ErrCancelled:                     "compilation was cancelled by the driver",
}

// Template returns the static one-line description for a code, or ""
// for an unknown code.
func Template(code ErrorCode) string { return templates[code] }
