package hostapi

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/cryguy/zero/internal/core"
)

const ttyJS = `
	var write = take('__zero_tty_write');
	var isatty = take('__zero_tty_isatty');
	class TTYWrap {
		constructor(fd) {
			this.fd = fd;
			this.isTTY = isatty(fd) === 1;
		}
		write(chunk) {
			write(this.fd, String(chunk));
			return true;
		}
	}
	__zero.bindings.tty = Object.freeze({ TTYWrap: TTYWrap });
`

// writer returns the process stream behind fd.
func (h *Host) writer(fd int) (io.Writer, error) {
	switch fd {
	case 1:
		return h.Process.Stdout, nil
	case 2:
		return h.Process.Stderr, nil
	}
	return nil, fmt.Errorf("bad file descriptor %d", fd)
}

// SetupTTY registers the tty binding: TTYWrap(fd) over the process's
// stdout (1) and stderr (2). A failed write throws in the engine.
func SetupTTY(rt core.JSRuntime, h *Host) error {
	if err := registerAll(rt, map[string]any{
		"__zero_tty_write": func(fd int, s string) (int, error) {
			w, err := h.writer(fd)
			if err != nil {
				return 0, err
			}
			return io.WriteString(w, s)
		},
		"__zero_tty_isatty": func(fd int) int {
			w, err := h.writer(fd)
			if err != nil {
				return 0
			}
			f, ok := w.(*os.File)
			return boolToInt(ok && term.IsTerminal(int(f.Fd())))
		},
	}); err != nil {
		return err
	}
	return evalGlue(rt, "tty", ttyJS)
}
