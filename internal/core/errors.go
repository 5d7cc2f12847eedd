package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no engine-resident source exists for a
	// native module specifier. It indicates a broken build.
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument is returned for unrecognized command-line flags.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidInput is returned when the engine hands the host malformed
	// data, e.g. an odd-length keyed entry dump.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCyclicDependency is returned when a native module requests a
	// specifier that is still executing.
	ErrCyclicDependency = errors.New("cyclic dependency")

	// ErrAlreadyInitialized is returned when the global environment is
	// initialized a second time.
	ErrAlreadyInitialized = errors.New("already initialized")
)

// Stage names the dispatch step a RuntimeFailure came from.
type Stage string

const (
	StageEval   Stage = "eval"
	StageImport Stage = "import"
	StageRead   Stage = "read"
	StageRun    Stage = "run"
	StageREPL   Stage = "repl"
	StageBoot   Stage = "boot"
)

// RuntimeFailure wraps any error surfaced from an execution path.
type RuntimeFailure struct {
	Stage Stage
	Err   error
}

func (e *RuntimeFailure) Error() string {
	return e.Err.Error()
}

func (e *RuntimeFailure) Unwrap() error {
	return e.Err
}

// Fail wraps err as a RuntimeFailure for the given stage. A nil err
// returns nil.
func Fail(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	var rf *RuntimeFailure
	if errors.As(err, &rf) {
		return err
	}
	return &RuntimeFailure{Stage: stage, Err: err}
}

// ScriptError is an exception thrown by script code, as reported by the
// engine. Stack is empty when the engine provided none. Slot, when set,
// names the engine global still holding the thrown value, so the console
// can print the original object instead of this summary.
type ScriptError struct {
	Name    string
	Message string
	Stack   string
	Slot    string
}

func (e *ScriptError) Error() string {
	if e.Name == "" {
		return e.Message
	}
	return e.Name + ": " + e.Message
}

// noFormatError marks an error whose report must not include a stack trace.
type noFormatError struct {
	err error
}

func (e *noFormatError) Error() string { return e.err.Error() }
func (e *noFormatError) Unwrap() error { return e.err }

// NoFormat marks err so the error/exit protocol prints only its message.
func NoFormat(err error) error {
	if err == nil {
		return nil
	}
	return &noFormatError{err: err}
}

// IsNoFormat reports whether err (or anything it wraps) was marked with
// NoFormat.
func IsNoFormat(err error) bool {
	var nf *noFormatError
	return errors.As(err, &nf)
}

// ExitRequest is returned by execution paths when script code called
// process.exit. It is not an error report.
type ExitRequest struct {
	Code int
}

func (e *ExitRequest) Error() string {
	return fmt.Sprintf("process.exit(%d)", e.Code)
}
