package hostapi

import (
	"encoding/json"
	"fmt"

	"github.com/cryguy/zero/internal/core"
)

const processJS = `
	var exit = take('__zero_exit');
	var d = %s;
	var TTYWrap = __zero.bindings.tty.TTYWrap;
	__zero.process = {
		argv0: d.argv0,
		argv: d.argv,
		cwd: d.cwd,
		versions: d.versions,
		stdout: new TTYWrap(1),
		stderr: new TTYWrap(2),
		exit: function exit_(code) {
			__zero.exitCode = code === undefined ? 0 : code | 0;
			exit(__zero.exitCode);
			throw __zero.kExit;
		},
	};
`

type processDesc struct {
	Argv0    string            `json:"argv0"`
	Argv     []string          `json:"argv"`
	Cwd      string            `json:"cwd"`
	Versions map[string]string `json:"versions"`
}

// SetupProcess builds the process object handed to native modules. The
// kernel later filters argv and adds versions.zero.
func SetupProcess(rt core.JSRuntime, h *Host) error {
	desc := processDesc{
		Argv0:    h.Process.Argv0,
		Argv:     append([]string{}, h.Process.Argv...),
		Cwd:      h.Process.Cwd,
		Versions: map[string]string{},
	}
	for k, v := range h.Process.Versions {
		desc.Versions[k] = v
	}
	data, err := json.Marshal(desc)
	if err != nil {
		return fmt.Errorf("encoding process: %w", err)
	}

	if err := registerAll(rt, map[string]any{
		"__zero_exit": func(code int) {
			h.Loop.Stop()
			if h.Exit != nil {
				h.Exit(code)
			}
		},
	}); err != nil {
		return err
	}
	return evalGlue(rt, "process", fmt.Sprintf(processJS, data))
}
