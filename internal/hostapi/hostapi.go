// Package hostapi installs the Go-backed capabilities the kernel and the
// native modules reach through binding(name), plus the engine-side glue
// for timers, host operations and promise tracking.
package hostapi

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/cryguy/zero/internal/core"
	"github.com/cryguy/zero/internal/eventloop"
	"github.com/cryguy/zero/internal/natives"
	"github.com/cryguy/zero/internal/rejection"
)

// Slot is the hidden global through which kernel-owned engine values are
// reached. It is non-enumerable and created before anything else runs.
const Slot = "__zero"

// Host carries what the setup functions wire into the engine.
type Host struct {
	Loop       *eventloop.EventLoop
	Process    *core.Process
	Logger     *log.Logger
	Natives    natives.Registry
	Rejections *rejection.Tracker

	// Exit is called when script code calls process.exit(code).
	Exit func(code int)

	// Uncaught receives exceptions thrown by timer callbacks, which have
	// no caller to propagate to.
	Uncaught func(err error)
}

// SetupFunc installs one capability into the engine.
type SetupFunc func(rt core.JSRuntime, h *Host) error

// slotJS creates the kernel slot, the binding(name) accessor and the
// exception describer used by Try and Await.
const slotJS = `
(function() {
	var slot = Object.create(null);
	slot.bindings = Object.create(null);
	slot.namespaces = Object.create(null);
	slot.kExit = Object.freeze({ exit: true });
	slot.exitCode = 0;
	slot.binding = function binding(name) {
		var b = slot.bindings[name];
		if (b === undefined) {
			throw new Error('no such binding: ' + name);
		}
		return b;
	};
	slot.describe = function(e) {
		slot.thrown = e;
		if (e === slot.kExit) {
			return JSON.stringify({ exit: true, code: slot.exitCode });
		}
		var d = { name: '', message: '', stack: '' };
		try {
			if (e !== null && typeof e === 'object') {
				d.name = e.name === undefined ? '' : String(e.name);
				d.message = e.message === undefined ? String(e) : String(e.message);
				d.stack = e.stack === undefined ? '' : String(e.stack);
			} else {
				d.message = String(e);
			}
		} catch (_) {
			d.message = '[unprintable exception]';
		}
		return JSON.stringify(d);
	};
	Object.defineProperty(globalThis, '__zero', {
		value: slot,
		writable: false,
		enumerable: false,
		configurable: false,
	});
})();
`

// SetupSlot creates the hidden kernel slot.
func SetupSlot(rt core.JSRuntime, _ *Host) error {
	if err := rt.Eval(slotJS); err != nil {
		return fmt.Errorf("creating kernel slot: %w", err)
	}
	return nil
}

// Setups returns the setup functions in installation order. The slot comes
// first; every binding registers itself under it.
func Setups() []SetupFunc {
	return []SetupFunc{
		SetupSlot,
		SetupOps,
		SetupTimers,
		SetupRejectionHook,
		SetupTTY,
		SetupProcess,
		SetupDebug,
		SetupFS,
		SetupUtil,
		SetupScriptWrap,
		SetupNatives,
	}
}

// Install runs every setup function against rt.
func Install(rt core.JSRuntime, h *Host) error {
	for _, setup := range Setups() {
		if err := setup(rt, h); err != nil {
			return err
		}
	}
	return nil
}

// registerAll registers each Go function under its global name. Binding
// glue picks them up into the kernel slot and deletes the globals with
// take().
func registerAll(rt core.JSRuntime, funcs map[string]any) error {
	for name, fn := range funcs {
		if err := rt.RegisterFunc(name, fn); err != nil {
			return fmt.Errorf("registering %s: %w", name, err)
		}
	}
	return nil
}

// takeJS is prepended to binding glue. take(name) removes a registered Go
// function from the global object and returns it.
const takeJS = `
	var take = function(name) {
		var fn = globalThis[name];
		delete globalThis[name];
		return fn;
	};
`

// evalGlue runs a binding's JS glue with take() in scope.
func evalGlue(rt core.JSRuntime, what, body string) error {
	if err := rt.Eval("(function() {" + takeJS + body + "})();"); err != nil {
		return fmt.Errorf("evaluating %s glue: %w", what, err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
