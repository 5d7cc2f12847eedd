// Package kernel is the bootstrap kernel: it boots one engine, installs the
// global environment, loads the core native modules, dispatches the
// invocation and funnels every failure into a single report and exit code.
package kernel

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/cryguy/zero/internal/core"
	"github.com/cryguy/zero/internal/eventloop"
	"github.com/cryguy/zero/internal/hostapi"
	"github.com/cryguy/zero/internal/loader"
	"github.com/cryguy/zero/internal/natives"
	"github.com/cryguy/zero/internal/rejection"
)

// Version is reported by --version and process.versions.zero.
const Version = "0.0.1"

// Help is printed by --help.
const Help = `
  zero [OPTIONS] <entry>

  -h, --help      show list of command line options
  -v, --version   show version of zero
  -e, --eval      evaluate module source from the current working directory
`

// warnPrefix tags unhandled-rejection warnings.
const warnPrefix = "zero"

// consoleExpr reaches the console namespace without going through the
// global, which user code may replace.
const consoleExpr = hostapi.Slot + ".namespaces.whatwg.console"

// Options configures a Kernel.
type Options struct {
	Process *core.Process
	Config  core.Config
	Natives natives.Registry
	Logger  *log.Logger

	// NewRuntime creates the engine. Run calls it only once the invocation
	// needs one, so help and version never boot an engine.
	NewRuntime func() (core.JSRuntime, error)
}

// Kernel owns the engine and every piece of process-wide state built on
// it. There is one per process, created by the entry point and passed by
// reference; it is used only from the goroutine that created it.
type Kernel struct {
	rt      core.JSRuntime
	loop    *eventloop.EventLoop
	process *core.Process
	config  core.Config
	cache   *natives.Cache
	tracker *rejection.Tracker
	loader  *loader.Loader
	logger  *log.Logger

	initialized bool
	console     bool

	exited   bool
	exitCode int
	uncaught error

	// loadErr is the last load() failure seen by the running module body.
	loadErr error
}

// New wires a kernel onto rt: host capabilities, the native module cache,
// and the rejection tracker flushed at every turn boundary.
func New(rt core.JSRuntime, opts Options) (*Kernel, error) {
	registry := opts.Natives
	if registry == nil {
		registry = natives.Builtin()
	}
	k := &Kernel{
		rt:      rt,
		loop:    eventloop.New(),
		process: opts.Process,
		config:  opts.Config,
		logger:  opts.Logger,
	}
	k.tracker = rejection.NewTracker(k.logWarning, opts.Logger)
	k.loop.SetTurnHook(k.tracker.OnTurnBoundary)
	k.cache = natives.NewCache(registry, k, opts.Config, opts.Logger)

	h := &hostapi.Host{
		Loop:       k.loop,
		Process:    k.process,
		Logger:     k.logger,
		Natives:    registry,
		Rejections: k.tracker,
		Exit:       k.requestExit,
		Uncaught:   k.onUncaught,
	}
	if err := hostapi.Install(rt, h); err != nil {
		return nil, fmt.Errorf("installing host capabilities: %w", err)
	}
	if err := k.installLoad(); err != nil {
		return nil, err
	}
	return k, nil
}

// Load runs the native module specifier if it has not run yet.
func (k *Kernel) Load(specifier string) (*natives.Entry, error) {
	return k.cache.Load(specifier)
}

func (k *Kernel) requestExit(code int) {
	k.exited = true
	k.exitCode = code
}

// onUncaught keeps the first exception escaping a timer callback and stops
// the loop so it can be reported.
func (k *Kernel) onUncaught(err error) {
	if k.uncaught == nil {
		k.uncaught = err
	}
	k.loop.Stop()
}

func (k *Kernel) debug(msg string, keyvals ...any) {
	if k.logger != nil {
		k.logger.Debug(msg, keyvals...)
	}
}
