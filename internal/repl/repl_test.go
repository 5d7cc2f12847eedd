package repl

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestStart_EvaluatesLinesUntilEOF(t *testing.T) {
	var got []string
	in := strings.NewReader("1 + 1\n\n  x  \n")
	err := Start(context.Background(), in, &bytes.Buffer{}, func(line string) error {
		got = append(got, line)
		return nil
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if want := []string{"1 + 1", "x"}; !reflect.DeepEqual(got, want) {
		t.Errorf("lines = %q, want %q", got, want)
	}
}

func TestStart_DotExit(t *testing.T) {
	var got []string
	in := strings.NewReader("a\n.exit\nb\n")
	if err := Start(context.Background(), in, &bytes.Buffer{}, func(line string) error {
		got = append(got, line)
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != "a" {
		t.Errorf("lines = %q, want [a]", got)
	}
}

func TestStart_EvalErrorsDoNotEndSession(t *testing.T) {
	n := 0
	in := strings.NewReader("bad\ngood\n")
	if err := Start(context.Background(), in, &bytes.Buffer{}, func(string) error {
		n++
		return errors.New("ReferenceError: bad is not defined")
	}); err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("evaluated %d lines, want 2", n)
	}
}

func TestStart_ErrExitEndsSession(t *testing.T) {
	n := 0
	in := strings.NewReader("process.exit()\nnever\n")
	if err := Start(context.Background(), in, &bytes.Buffer{}, func(string) error {
		n++
		return ErrExit
	}); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("evaluated %d lines, want 1", n)
	}
}

func TestStart_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	if err := Start(ctx, strings.NewReader("x\n"), &bytes.Buffer{}, func(string) error {
		called = true
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if called {
		t.Error("a cancelled session should not evaluate input")
	}
}
