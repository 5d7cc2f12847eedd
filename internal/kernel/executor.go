package kernel

import (
	"encoding/json"
	"fmt"

	"github.com/cryguy/zero/internal/hostapi"
	"github.com/cryguy/zero/internal/natives"
)

// executeJS runs one native module body. The body's source evaluates to a
// function taking the injection record; its namespace is created with no
// prototype before the body runs.
const executeJS = `(function(specifier, version, config) {
	var slot = __zero;
	var src = globalThis.__zero_src;
	delete globalThis.__zero_src;
	var namespace = Object.create(null);
	slot.namespaces[specifier] = namespace;
	var body = slot.bindings.script_wrap.run(specifier, src);
	body(Object.freeze({
		version: version,
		namespace: namespace,
		binding: slot.binding,
		load: slot.load,
		process: slot.process,
		PrivateSymbol: slot.PrivateSymbol,
		config: Object.freeze(config),
		kCustomInspect: slot.kCustomInspect,
	}));
	return JSON.stringify(Object.keys(namespace));
})(%s, %d, %s)`

// Execute implements natives.Executor on the kernel's engine.
func (k *Kernel) Execute(specifier, source string, inj natives.Injection) ([]string, error) {
	if err := k.rt.SetGlobal("__zero_src", source); err != nil {
		return nil, fmt.Errorf("staging %s: %w", specifier, err)
	}
	k.loadErr = nil
	out, err := hostapi.TryString(k.rt, fmt.Sprintf(executeJS, hostapi.JSString(specifier), inj.Version, inj.Config.JSON()))
	loadErr := k.loadErr
	k.loadErr = nil
	if err != nil {
		if loadErr != nil {
			return nil, &loadFailure{thrown: err, cause: loadErr}
		}
		return nil, err
	}
	var names []string
	if err := json.Unmarshal([]byte(out), &names); err != nil {
		return nil, fmt.Errorf("reading exports of %s: %w", specifier, err)
	}
	return names, nil
}

// loadFailure is a body that threw after one of its own load() calls
// failed. It prints as the thrown value and matches the load error too,
// which crossed the engine only as a message.
type loadFailure struct {
	thrown error
	cause  error
}

func (e *loadFailure) Error() string   { return e.thrown.Error() }
func (e *loadFailure) Unwrap() []error { return []error{e.thrown, e.cause} }

// loadJS exposes the cache to native modules as load(specifier), which
// returns the module's namespace.
const loadJS = `(function() {
	var load = globalThis.__zero_load;
	delete globalThis.__zero_load;
	__zero.load = function load_(specifier) {
		specifier = String(specifier);
		load(specifier);
		return __zero.namespaces[specifier];
	};
})();`

func (k *Kernel) installLoad() error {
	if err := k.rt.RegisterFunc("__zero_load", func(specifier string) (int, error) {
		e, err := k.cache.Load(specifier)
		if err != nil {
			k.loadErr = err
			return 0, err
		}
		return len(e.ExportNames), nil
	}); err != nil {
		return fmt.Errorf("registering load: %w", err)
	}
	if err := k.rt.Eval(loadJS); err != nil {
		return fmt.Errorf("installing load: %w", err)
	}
	return nil
}
