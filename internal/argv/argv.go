// Package argv scans the raw process argument vector into an Invocation.
package argv

import (
	"fmt"
	"strings"

	"github.com/cryguy/zero/internal/core"
)

// EntryMode says whether the entry program runs with module semantics.
type EntryMode string

const (
	ModeModule EntryMode = "module"
	ModeScript EntryMode = "script"
)

// Invocation is the parsed form of the process arguments.
type Invocation struct {
	Argv0     string
	EntryMode EntryMode
	Eval      bool
	Help      bool
	Version   bool

	// Args is the program's own argument vector, starting at the first
	// non-flag token. It is never reinterpreted as kernel flags.
	Args []string
}

// Entry returns the first program argument: the entry specifier, or the
// eval source when Eval is set.
func (inv *Invocation) Entry() (string, bool) {
	if len(inv.Args) == 0 {
		return "", false
	}
	return inv.Args[0], true
}

type scanState int

const (
	parsingFlags scanState = iota
	passThrough
)

const modePrefix = "--mode="

// Parse scans raw, whose first element is always the program path. Help
// and version requests end the scan immediately. Unknown flags before the
// first non-flag token fail with core.ErrInvalidArgument, marked so the
// report carries no stack trace.
func Parse(raw []string) (*Invocation, error) {
	inv := &Invocation{EntryMode: ModeModule}
	if len(raw) == 0 {
		return inv, nil
	}
	inv.Argv0 = raw[0]

	state := parsingFlags
	for i, a := range raw[1:] {
		if state == passThrough {
			break
		}
		switch {
		case a == "-h" || a == "--help":
			inv.Help = true
			return inv, nil
		case a == "-v" || a == "--version":
			inv.Version = true
			return inv, nil
		case strings.HasPrefix(a, modePrefix):
			mode := EntryMode(strings.TrimPrefix(a, modePrefix))
			if mode != ModeModule && mode != ModeScript {
				return nil, invalid(a)
			}
			inv.EntryMode = mode
		case a == "-e" || a == "--eval":
			inv.Eval = true
		case strings.HasPrefix(a, "-"):
			return nil, invalid(a)
		default:
			state = passThrough
			inv.Args = append([]string(nil), raw[i+1:]...)
		}
	}
	return inv, nil
}

// ArgumentError is an unrecognized kernel flag. It matches
// core.ErrInvalidArgument under errors.Is.
type ArgumentError struct {
	Arg string
}

func (e *ArgumentError) Error() string {
	return "RangeError: Invalid argument: " + e.Arg
}

func (e *ArgumentError) Unwrap() error {
	return core.ErrInvalidArgument
}

func invalid(arg string) error {
	return core.NoFormat(&ArgumentError{Arg: arg})
}

// Path is one of the mutually exclusive ways the kernel can execute.
type Path int

const (
	PathHelp Path = iota
	PathVersion
	PathEvalModule
	PathEvalScript
	PathImport
	PathRunScript
	PathInteractive
)

var pathNames = map[Path]string{
	PathHelp:        "help",
	PathVersion:     "version",
	PathEvalModule:  "eval-module",
	PathEvalScript:  "eval-script",
	PathImport:      "import",
	PathRunScript:   "run-script",
	PathInteractive: "interactive",
}

func (p Path) String() string {
	if s, ok := pathNames[p]; ok {
		return s
	}
	return fmt.Sprintf("Path(%d)", int(p))
}

// Select decides which path an invocation takes.
func (inv *Invocation) Select() Path {
	switch {
	case inv.Help:
		return PathHelp
	case inv.Version:
		return PathVersion
	case inv.Eval && inv.EntryMode == ModeModule:
		return PathEvalModule
	case inv.Eval:
		return PathEvalScript
	case len(inv.Args) > 0 && inv.EntryMode == ModeModule:
		return PathImport
	case len(inv.Args) > 0:
		return PathRunScript
	default:
		return PathInteractive
	}
}
