package kernel

import (
	"encoding/json"
	"fmt"

	"github.com/cryguy/zero/internal/argv"
	"github.com/cryguy/zero/internal/core"
	"github.com/cryguy/zero/internal/hostapi"
	"github.com/cryguy/zero/internal/loader"
)

const globalsJS = `
	Object.defineProperties(globalThis, {
		global: {
			value: globalThis,
			writable: true,
			enumerable: false,
			configurable: true,
		},
		environment: {
			value: new (class Environment {})(),
			writable: false,
			enumerable: false,
			configurable: true,
		},
		process: {
			value: __zero.process,
			writable: true,
			enumerable: false,
			configurable: true,
		},
	});
	__zero.process.versions.zero = %s;
`

// InitGlobals installs global, environment and process on the global
// object and records the version. It runs once per kernel, before any
// native module loads.
func (k *Kernel) InitGlobals() error {
	if k.initialized {
		return fmt.Errorf("global environment: %w", core.ErrAlreadyInitialized)
	}
	if err := hostapi.Try(k.rt, fmt.Sprintf(globalsJS, hostapi.JSString(Version))); err != nil {
		return fmt.Errorf("installing globals: %w", err)
	}
	k.initialized = true
	return nil
}

// installPrivateSymbols builds the private-symbol factory and the shared
// custom-inspect marker. Engines with natives syntax get real private
// symbols unless the configuration exposes them; the others use Symbol.
func (k *Kernel) installPrivateSymbols() error {
	factory := "Symbol"
	ns, native := k.rt.(core.NativesSyntax)
	if native {
		ns.SetNativesSyntax(true)
		if !k.config.AllowNativesSyntax {
			defer ns.SetNativesSyntax(false)
		}
		if !k.config.ExposePrivateSymbols {
			factory = hostapi.Slot + ".bindings.script_wrap.run('[NativeSyntax]', '(name) => %CreatePrivateSymbol(name);')"
		}
	}
	js := fmt.Sprintf(`
		%[1]s.PrivateSymbol = %[2]s;
		%[1]s.kCustomInspect = %[1]s.PrivateSymbol('kCustomInspect');
	`, hostapi.Slot, factory)
	if err := hostapi.Try(k.rt, js); err != nil {
		return fmt.Errorf("creating private symbols: %w", err)
	}
	return nil
}

// Boot brings the engine to the point where the invocation can be
// dispatched: globals, core native modules, the effective argv and the
// loader.
func (k *Kernel) Boot(inv *argv.Invocation) error {
	if err := k.InitGlobals(); err != nil {
		return err
	}
	if err := k.installPrivateSymbols(); err != nil {
		return err
	}
	if _, err := k.cache.Load("errors"); err != nil {
		return err
	}

	args, err := json.Marshal(append([]string{}, inv.Args...))
	if err != nil {
		return fmt.Errorf("encoding argv: %w", err)
	}
	if err := hostapi.Try(k.rt, fmt.Sprintf(`
		%[1]s.process.argv0 = %[2]s;
		%[1]s.process.argv = %[3]s;
		environment.argv = %[1]s.process.argv;
	`, hostapi.Slot, hostapi.JSString(inv.Argv0), args)); err != nil {
		return fmt.Errorf("installing argv: %w", err)
	}

	if _, err := k.cache.Load("mime"); err != nil {
		return err
	}
	if err := hostapi.Try(k.rt, `
		Object.defineProperty(globalThis, 'MIME', {
			value: __zero.namespaces.mime.MIME,
			writable: true,
			enumerable: false,
			configurable: true,
		});
	`); err != nil {
		return fmt.Errorf("installing MIME: %w", err)
	}

	for _, spec := range []string{"w3", "whatwg"} {
		if _, err := k.cache.Load(spec); err != nil {
			return err
		}
	}
	k.console = true
	k.tracker.SetReporter(k.consoleWarning)

	if k.config.ExposeBinding {
		if err := hostapi.Try(k.rt, "global.binding = "+hostapi.Slot+".binding;"); err != nil {
			return fmt.Errorf("exposing binding: %w", err)
		}
	}

	evalSource := ""
	if inv.Eval && len(inv.Args) > 0 {
		evalSource = inv.Args[0]
	}
	k.loader = loader.New(k.rt, loader.Options{
		Base:       loader.DirURL(k.process.Cwd),
		EvalSource: evalSource,
		Logger:     k.logger,
	})
	k.debug("kernel booted", "builtins", k.cache.Len())
	return nil
}
