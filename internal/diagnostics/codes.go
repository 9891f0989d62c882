// Package diagnostics implements the error taxonomy of spec.md §7: a
// stable four-digit code per error kind, a source range, and a message
// looked up from a table keyed by code — the same code→message
// indirection the teacher's (unretrieved but pervasively referenced)
// internal/diagnostics package establishes for its own "A001"-style
// codes, generalized here to numeric codes.
package diagnostics

// ErrorCode is a stable, versioned diagnostic identifier. Values are
// never renumbered across releases (spec.md §7).
type ErrorCode int

// Type errors, 400-410 (spec.md §7).
const (
	ErrSubtypeError ErrorCode = 400 + iota
	ErrEmptyType
	ErrExpectedArray
	ErrExpectedRecord
	ErrExpectedReference
	ErrExpectedLambda
	ErrInvalidField
	ErrResolutionError
	ErrAmbiguousCoercion
	ErrMissingTemplateParameters
	ErrTooManyTemplateParameters
)

// Statement errors, 500-509. Per spec.md §8 scenario 5, the cyclic
// static initialiser check reports code 509 specifically (not the next
// sequential slot after insufficient-returns); 505-508 are reserved.
const (
	ErrMissingReturn ErrorCode = 500 + iota
	ErrUnreachableCode
	ErrBranchAlwaysTaken
	ErrTooManyReturns
	ErrInsufficientReturns
)

const ErrCyclicStaticInitialiser ErrorCode = 509

// Expression errors, 600-610.
const (
	ErrVariablePossiblyUninitialised ErrorCode = 600 + iota
	ErrIncomparableOperands
	ErrInsufficientArguments
	ErrAmbiguousCallable
	ErrParameterReassigned
	ErrFinalVariableReassigned
	ErrAllocationNotPermitted
	ErrMethodcallNotPermitted
	ErrReferenceAccessNotPermitted
	ErrInvalidLval
)

// IO errors. Not numbered by spec.md's taxonomy table; assigned a
// distinct 700-range so they never collide with analysis codes.
const (
	ErrCorruptBinary ErrorCode = 700 + iota
	ErrSchemaMismatch
	ErrTruncatedInput
)

// Cancellation.
const ErrCancelled ErrorCode = 800

var names = map[ErrorCode]string{
	ErrSubtypeError:                   "subtype-error",
	ErrEmptyType:                      "empty-type",
	ErrExpectedArray:                  "expected-array",
	ErrExpectedRecord:                 "expected-record",
	ErrExpectedReference:              "expected-reference",
	ErrExpectedLambda:                 "expected-lambda",
	ErrInvalidField:                   "invalid-field",
	ErrResolutionError:                "resolution-error",
	ErrAmbiguousCoercion:              "ambiguous-coercion",
	ErrMissingTemplateParameters:      "missing-template-parameters",
	ErrTooManyTemplateParameters:      "too-many-template-parameters",
	ErrMissingReturn:                  "missing-return",
	ErrUnreachableCode:                "unreachable-code",
	ErrBranchAlwaysTaken:              "branch-always-taken",
	ErrTooManyReturns:                 "too-many-returns",
	ErrInsufficientReturns:            "insufficient-returns",
	ErrCyclicStaticInitialiser:        "cyclic-static-initialiser",
	ErrVariablePossiblyUninitialised:  "variable-possibly-uninitialised",
	ErrIncomparableOperands:           "incomparable-operands",
	ErrInsufficientArguments:          "insufficient-arguments",
	ErrAmbiguousCallable:              "ambiguous-callable",
	ErrParameterReassigned:            "parameter-reassigned",
	ErrFinalVariableReassigned:        "final-variable-reassigned",
	ErrAllocationNotPermitted:         "allocation-not-permitted",
	ErrMethodcallNotPermitted:         "methodcall-not-permitted",
	ErrReferenceAccessNotPermitted:    "reference-access-not-permitted",
	ErrInvalidLval:                    "invalid-lval",
	ErrCorruptBinary:                  "corrupt-binary",
	ErrSchemaMismatch:                 "schema-mismatch",
	ErrTruncatedInput:                 "truncated-input",
	ErrCancelled:                      "cancelled",
}

// Name returns the taxonomy's kebab-case name for a code, or "" if
// unknown.
func (c ErrorCode) Name() string { return names[c] }

func (c ErrorCode) String() string {
	if n := names[c]; n != "" {
		return n
	}
	return "unknown-error-code"
}
