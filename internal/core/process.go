package core

import (
	"io"
	"os"
)

// Process is the host process as seen by the kernel and by native modules.
// It is owned by the process entry point and handed to the kernel by
// reference; nothing in the kernel reaches for os.Stdout or os.Args.
type Process struct {
	Argv0    string
	Argv     []string
	Cwd      string
	Versions map[string]string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewProcess describes the running OS process.
func NewProcess(argv []string) (*Process, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return &Process{
		Argv:     argv,
		Cwd:      cwd,
		Versions: map[string]string{},
		Stdin:    os.Stdin,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
	}, nil
}
