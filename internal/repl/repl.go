// Package repl is the interactive fallback: it reads lines, hands each to
// the kernel for evaluation and keeps going until end of input or .exit.
package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompt is printed before every line.
const Prompt = "> "

// EvalFunc evaluates one line. Errors are printed and the session goes on;
// returning ErrExit ends it.
type EvalFunc func(line string) error

// ErrExit ends the session without an error report.
var ErrExit = errors.New("repl: exit")

// lineReader abstracts over a raw terminal and a plain reader.
type lineReader interface {
	ReadLine() (string, error)
}

// scannerReader reads piped input; no prompt is echoed.
type scannerReader struct {
	s *bufio.Scanner
}

func (r *scannerReader) ReadLine() (string, error) {
	if !r.s.Scan() {
		if err := r.s.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.s.Text(), nil
}

// Start runs the loop. When in is a terminal it switches it to raw mode
// for line editing and restores it before returning.
func Start(ctx context.Context, in io.Reader, out io.Writer, eval EvalFunc) error {
	var lr lineReader
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		state, err := term.MakeRaw(int(f.Fd()))
		if err != nil {
			return fmt.Errorf("starting repl: %w", err)
		}
		defer func() { _ = term.Restore(int(f.Fd()), state) }()
		t := term.NewTerminal(struct {
			io.Reader
			io.Writer
		}{f, out}, Prompt)
		lr = t
	} else {
		lr = &scannerReader{s: bufio.NewScanner(in)}
	}
	return loop(ctx, lr, eval)
}

func loop(ctx context.Context, lr lineReader, eval EvalFunc) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		line, err := lr.ReadLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case ".exit":
			return nil
		}
		if err := eval(line); errors.Is(err, ErrExit) {
			return nil
		}
	}
}
