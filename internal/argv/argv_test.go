package argv

import (
	"errors"
	"reflect"
	"testing"

	"github.com/cryguy/zero/internal/core"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		raw  []string
		want Invocation
		path Path
	}{
		{
			name: "no arguments",
			raw:  []string{"zero"},
			want: Invocation{Argv0: "zero", EntryMode: ModeModule},
			path: PathInteractive,
		},
		{
			name: "entry module",
			raw:  []string{"zero", "main.js", "a", "b"},
			want: Invocation{Argv0: "zero", EntryMode: ModeModule, Args: []string{"main.js", "a", "b"}},
			path: PathImport,
		},
		{
			name: "script mode entry",
			raw:  []string{"zero", "--mode=script", "main.js"},
			want: Invocation{Argv0: "zero", EntryMode: ModeScript, Args: []string{"main.js"}},
			path: PathRunScript,
		},
		{
			name: "eval as script",
			raw:  []string{"zero", "--mode=script", "-e", "1+1"},
			want: Invocation{Argv0: "zero", EntryMode: ModeScript, Eval: true, Args: []string{"1+1"}},
			path: PathEvalScript,
		},
		{
			name: "eval as module",
			raw:  []string{"zero", "--eval", "export default 1"},
			want: Invocation{Argv0: "zero", EntryMode: ModeModule, Eval: true, Args: []string{"export default 1"}},
			path: PathEvalModule,
		},
		{
			name: "flags after entry pass through",
			raw:  []string{"zero", "main.js", "--help", "-x", "--mode=script"},
			want: Invocation{Argv0: "zero", EntryMode: ModeModule, Args: []string{"main.js", "--help", "-x", "--mode=script"}},
			path: PathImport,
		},
		{
			name: "help",
			raw:  []string{"zero", "--help"},
			want: Invocation{Argv0: "zero", EntryMode: ModeModule, Help: true},
			path: PathHelp,
		},
		{
			name: "help short-circuits later bad flags",
			raw:  []string{"zero", "-h", "-x"},
			want: Invocation{Argv0: "zero", EntryMode: ModeModule, Help: true},
			path: PathHelp,
		},
		{
			name: "version",
			raw:  []string{"zero", "-v"},
			want: Invocation{Argv0: "zero", EntryMode: ModeModule, Version: true},
			path: PathVersion,
		},
		{
			name: "last mode wins",
			raw:  []string{"zero", "--mode=script", "--mode=module", "x.js"},
			want: Invocation{Argv0: "zero", EntryMode: ModeModule, Args: []string{"x.js"}},
			path: PathImport,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.raw)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.raw, err)
			}
			if !reflect.DeepEqual(*got, tt.want) {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.raw, *got, tt.want)
			}
			if p := got.Select(); p != tt.path {
				t.Errorf("Select = %v, want %v", p, tt.path)
			}
		})
	}
}

func TestParse_InvalidArgument(t *testing.T) {
	for _, raw := range [][]string{
		{"zero", "-x"},
		{"zero", "-e", "--bogus", "1"},
		{"zero", "--mode=wasm", "main.js"},
	} {
		_, err := Parse(raw)
		if !errors.Is(err, core.ErrInvalidArgument) {
			t.Errorf("Parse(%q) err = %v, want ErrInvalidArgument", raw, err)
			continue
		}
		if !core.IsNoFormat(err) {
			t.Errorf("Parse(%q) error should print without a stack", raw)
		}
	}

	_, err := Parse([]string{"zero", "-x"})
	if err.Error() != "RangeError: Invalid argument: -x" {
		t.Errorf("err = %q", err)
	}
}

func TestParse_ArgsAreCopied(t *testing.T) {
	raw := []string{"zero", "main.js", "x"}
	inv, err := Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	raw[1] = "changed"
	if inv.Args[0] != "main.js" {
		t.Errorf("Args aliases the raw vector: %q", inv.Args)
	}
}

func TestParse_Empty(t *testing.T) {
	inv, err := Parse(nil)
	if err != nil {
		t.Fatal(err)
	}
	if inv.Select() != PathInteractive {
		t.Errorf("Select = %v, want interactive", inv.Select())
	}
}

func TestInvocation_Entry(t *testing.T) {
	inv := &Invocation{}
	if _, ok := inv.Entry(); ok {
		t.Error("Entry on empty Args should report false")
	}
	inv.Args = []string{"main.js"}
	if e, ok := inv.Entry(); !ok || e != "main.js" {
		t.Errorf("Entry = %q, %v", e, ok)
	}
}

func TestPath_String(t *testing.T) {
	if PathEvalScript.String() != "eval-script" {
		t.Errorf("String = %q", PathEvalScript.String())
	}
	if Path(99).String() != "Path(99)" {
		t.Errorf("String = %q", Path(99).String())
	}
}
