package kernel

import (
	"context"
	"errors"
	"fmt"

	"github.com/cryguy/zero/internal/argv"
	"github.com/cryguy/zero/internal/core"
	"github.com/cryguy/zero/internal/hostapi"
	"github.com/cryguy/zero/internal/loader"
	"github.com/cryguy/zero/internal/repl"
)

// entryGlobal briefly holds the entry script's source while it is read.
const entryGlobal = "__zero_entry"

// Run executes one invocation of raw, the full process argument vector,
// and returns the process exit code.
func Run(ctx context.Context, raw []string, opts Options) int {
	fallback := opts.Process.Stdout
	inv, err := argv.Parse(raw)
	if err != nil {
		return OnError(LogReporter(opts.Logger), fallback, err)
	}

	switch inv.Select() {
	case argv.PathHelp:
		fmt.Fprint(opts.Process.Stdout, Help)
		return 0
	case argv.PathVersion:
		fmt.Fprintln(opts.Process.Stdout, Version)
		return 0
	}

	rt, err := opts.NewRuntime()
	if err != nil {
		return OnError(LogReporter(opts.Logger), fallback, core.Fail(core.StageBoot, err))
	}
	defer rt.Close()

	k, err := New(rt, opts)
	if err != nil {
		return OnError(LogReporter(opts.Logger), fallback, core.Fail(core.StageBoot, err))
	}
	if err := k.Boot(inv); err != nil {
		return k.OnError(core.Fail(core.StageBoot, err))
	}
	return k.Dispatch(ctx, inv)
}

// Dispatch runs the one execution path inv selects, then the event loop,
// then the exit event, and returns the exit code.
func (k *Kernel) Dispatch(ctx context.Context, inv *argv.Invocation) int {
	path := inv.Select()
	k.debug("dispatch", "path", path, "mode", inv.EntryMode)

	var err error
	switch path {
	case argv.PathEvalModule:
		err = core.Fail(core.StageEval, k.evalModule())
	case argv.PathEvalScript:
		err = core.Fail(core.StageEval, k.evalScript())
	case argv.PathImport:
		entry, _ := inv.Entry()
		err = core.Fail(core.StageImport, k.loader.Import(entry))
	case argv.PathRunScript:
		entry, _ := inv.Entry()
		err = k.runScript(ctx, entry)
	case argv.PathInteractive:
		err = core.Fail(core.StageREPL, k.interactive(ctx))
	default:
		err = fmt.Errorf("no execution path for %v", path)
	}
	return k.finish(ctx, err)
}

// finish settles the outcome of a dispatch path into an exit code.
func (k *Kernel) finish(ctx context.Context, err error) int {
	var exit *core.ExitRequest
	switch {
	case errors.As(err, &exit):
		k.requestExit(exit.Code)
	case err != nil:
		return k.OnError(err)
	}

	if !k.exited {
		k.loop.EndTurn(k.rt)
		k.loop.Drain(ctx, k.rt)
		if k.uncaught != nil {
			return k.OnError(core.Fail(core.StageRun, k.uncaught))
		}
		if !k.exited && ctx.Err() != nil {
			return k.OnError(fmt.Errorf("interrupted: %w", ctx.Err()))
		}
	}

	if err := k.dispatchExitEvent(); err != nil {
		return k.OnError(core.Fail(core.StageRun, err))
	}
	if k.exited {
		return k.exitCode
	}
	return 0
}

// dispatchExitEvent fires 'exit' on the global event target. A listener
// calling process.exit changes the code but fires nothing further.
func (k *Kernel) dispatchExitEvent() error {
	err := hostapi.Try(k.rt, `
		if (globalThis.dispatchEvent !== undefined) {
			globalThis.dispatchEvent(new globalThis.Event('exit', { cancelable: false }));
		}
	`)
	k.loop.EndTurn(k.rt)
	var exit *core.ExitRequest
	if errors.As(err, &exit) {
		return nil
	}
	return err
}

func (k *Kernel) evalModule() error {
	job, err := k.loader.GetModuleJob(loader.EvalSpecifier)
	if err != nil {
		return err
	}
	res, err := job.Run()
	if err != nil {
		return err
	}
	return hostapi.Try(k.rt, fmt.Sprintf("%s.log(%s);", consoleExpr, res.Expr))
}

func (k *Kernel) evalScript() error {
	return hostapi.Try(k.rt, fmt.Sprintf(`
		var argv = %[1]s.process.argv;
		%[2]s.log(%[1]s.bindings.script_wrap.run('[eval]', argv.length > 0 ? argv[0] : ''));
	`, hostapi.Slot, consoleExpr))
}

// runScript reads the entry through the fs module, as a promise settled
// by the event loop, and runs it as a classic script labelled by its URL.
func (k *Kernel) runScript(ctx context.Context, entry string) error {
	u, err := loader.Resolve(k.loader.Base(), entry)
	if err != nil {
		return core.Fail(core.StageRead, err)
	}
	filename, err := loader.PathFromURL(u)
	if err != nil {
		return core.Fail(core.StageRead, err)
	}
	if _, err := k.cache.Load("fs"); err != nil {
		return core.Fail(core.StageRead, err)
	}
	defer func() { _ = k.rt.Eval("delete globalThis." + entryGlobal + ";") }()

	if err := hostapi.Try(k.rt, fmt.Sprintf("globalThis.%s = %s.namespaces.fs.readFile(%s);",
		entryGlobal, hostapi.Slot, hostapi.JSString(filename))); err != nil {
		return core.Fail(core.StageRead, err)
	}
	if err := hostapi.Await(ctx, k.rt, k.loop, entryGlobal); err != nil {
		return core.Fail(core.StageRead, err)
	}
	if k.exited {
		return nil
	}
	return core.Fail(core.StageRun, hostapi.Try(k.rt, fmt.Sprintf("%s.bindings.script_wrap.run(%s, globalThis.%s);",
		hostapi.Slot, hostapi.JSString(u.String()), entryGlobal)))
}

// interactive runs the REPL. Each line's value is printed through the
// console; a throwing line is reported without ending the session.
func (k *Kernel) interactive(ctx context.Context) error {
	return repl.Start(ctx, k.process.Stdin, k.process.Stdout, func(line string) error {
		err := hostapi.Try(k.rt, fmt.Sprintf(`
			var v = %[1]s.bindings.script_wrap.run('[repl]', %[2]s);
			if (v !== undefined) %[3]s.log(v);
		`, hostapi.Slot, hostapi.JSString(line), consoleExpr))
		k.loop.EndTurn(k.rt)

		var exit *core.ExitRequest
		if errors.As(err, &exit) || k.exited {
			if exit != nil {
				k.requestExit(exit.Code)
			}
			return repl.ErrExit
		}
		if err != nil {
			OnError(k.consoleReporter(), k.process.Stdout, err)
		}
		return nil
	})
}
