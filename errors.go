package framegraph

import "fmt"

// ProgrammerError reports a violation of the allocator contract: a name
// declared twice, an undeclared name, a descriptor mismatch between phases,
// unbalanced usage markers or a call in the wrong phase.
//
// It is raised with panic. These are bugs in node code, not runtime
// conditions, and callers are not expected to recover.
type ProgrammerError struct {
	Op     string // allocator operation that detected the violation
	Name   string // resource name, empty when not applicable
	Reason string
}

func (e *ProgrammerError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("framegraph: %s: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("framegraph: %s %q: %s", e.Op, e.Name, e.Reason)
}

// programmerError panics with a *ProgrammerError.
func programmerError(op, name, reason string) {
	panic(&ProgrammerError{Op: op, Name: name, Reason: reason})
}
