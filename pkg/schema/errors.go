package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidatorUnavailable is returned by Schema.Validate when the source
// document could not be compiled by the conformance validator.
var ErrValidatorUnavailable = errors.New("schema validator unavailable")

// CycleError reports a self-referential schema detected during synthesis,
// or a generation path deeper than the synthesizer's bound.
type CycleError struct {
	// Location is the node that was re-entered.
	Location string
	// Path lists the node locations from the outermost value inwards.
	Path []string
	// DepthExceeded is set when the depth bound, not a revisit, stopped synthesis.
	DepthExceeded bool
}

func (e *CycleError) Error() string {
	if e.DepthExceeded {
		return fmt.Sprintf("schema nesting exceeds %d levels at %s", len(e.Path), e.Location)
	}
	if len(e.Path) == 0 {
		return fmt.Sprintf("schema cycle at %s", e.Location)
	}
	return fmt.Sprintf("schema cycle at %s (via %s)", e.Location, strings.Join(e.Path, " -> "))
}

// CompileError reports a schema document that could not be compiled.
type CompileError struct {
	Location string
	Message  string
	Err      error
}

func (e *CompileError) Error() string {
	msg := e.Location + ": " + e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CompileError) Unwrap() error {
	return e.Err
}
