package names

import "fmt"

// Range is a source-text span carried by diagnostics. Heap items carry
// no positions, so the passes in this module always pass the zero
// value. Line/Col are 1-based; the zero value means "unknown".
type Range struct {
	File      string
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

func (r Range) String() string {
	if r.File == "" && r.StartLine == 0 {
		return "<unknown>"
	}
	if r.StartLine == r.EndLine {
		return fmt.Sprintf("%s:%d:%d-%d", r.File, r.StartLine, r.StartCol, r.EndCol)
	}
	return fmt.Sprintf("%s:%d:%d-%d:%d", r.File, r.StartLine, r.StartCol, r.EndLine, r.EndCol)
}

// SyntaxError carries a single positioned message, for the external
// parser contract (§6.2) to fail with rather than by panic. The
// binary-format reader does not use it; it returns internal/heap's own
// error types.
type SyntaxError struct {
	Range   Range
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %s", e.Range, e.Message)
}

// NewSyntaxError builds a SyntaxError pinned to r.
func NewSyntaxError(r Range, format string, args ...any) *SyntaxError {
	return &SyntaxError{Range: r, Message: fmt.Sprintf(format, args...)}
}
