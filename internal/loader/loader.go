// Package loader turns ES module sources into scripts the engine can run,
// bundling their imports with esbuild.
package loader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	esbuild "github.com/evanw/esbuild/pkg/api"

	"github.com/cryguy/zero/internal/core"
	"github.com/cryguy/zero/internal/hostapi"
)

// EvalSpecifier names the module built from -e source.
const EvalSpecifier = "[eval]"

// jobGlobal is where a bundle leaves its namespace object.
const jobGlobal = "__zero_job"

// Options configures a Loader.
type Options struct {
	// Base is the URL relative specifiers resolve against, normally the
	// working directory as a file: URL with a trailing slash.
	Base string

	// EvalSource is the module source for EvalSpecifier.
	EvalSource string

	Logger *log.Logger
}

// Loader creates module jobs and runs them on one runtime.
type Loader struct {
	rt   core.JSRuntime
	opts Options
	seq  int
}

// New returns a Loader running jobs on rt.
func New(rt core.JSRuntime, opts Options) *Loader {
	return &Loader{rt: rt, opts: opts}
}

// Base returns the resolution base URL.
func (l *Loader) Base() string {
	return l.opts.Base
}

// Job is a module translated to a script, ready to run.
type Job struct {
	Specifier string
	URL       string

	loader *Loader
	script string
	// bundled jobs leave their namespace in jobGlobal; plain eval jobs
	// produce a completion value instead.
	bundled bool
}

// Result locates a job's result inside the engine.
type Result struct {
	// Expr is an engine expression evaluating to the result value.
	Expr string
}

// GetModuleJob translates the module named by specifier. EvalSpecifier
// takes its source from Options.EvalSource; anything else is resolved
// against the base URL and read from disk by the bundler.
func (l *Loader) GetModuleJob(specifier string) (*Job, error) {
	if specifier == EvalSpecifier {
		return l.evalJob()
	}
	u, err := Resolve(l.opts.Base, specifier)
	if err != nil {
		return nil, err
	}
	path, err := PathFromURL(u)
	if err != nil {
		return nil, err
	}
	script, err := Bundle(esbuild.BuildOptions{
		EntryPoints:   []string{path},
		AbsWorkingDir: filepath.Dir(path),
	})
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", u, err)
	}
	return &Job{Specifier: specifier, URL: u.String(), loader: l, script: script, bundled: true}, nil
}

func (l *Loader) evalJob() (*Job, error) {
	src := l.opts.EvalSource
	if !needsBundling(src) {
		return &Job{Specifier: EvalSpecifier, URL: EvalSpecifier, loader: l, script: "'use strict';\n" + src}, nil
	}
	base, err := Resolve(l.opts.Base, "./")
	if err != nil {
		return nil, err
	}
	dir, err := PathFromURL(base)
	if err != nil {
		return nil, err
	}
	script, err := Bundle(esbuild.BuildOptions{
		Stdin: &esbuild.StdinOptions{
			Contents:   src,
			ResolveDir: dir,
			Sourcefile: EvalSpecifier,
			Loader:     esbuild.LoaderJS,
		},
		AbsWorkingDir: dir,
	})
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", EvalSpecifier, err)
	}
	return &Job{Specifier: EvalSpecifier, URL: EvalSpecifier, loader: l, script: script, bundled: true}, nil
}

// Run executes the job's script. An exception thrown by module code is
// returned as *core.ScriptError.
func (j *Job) Run() (Result, error) {
	l := j.loader
	l.seq++
	slot := fmt.Sprintf("%s.jobs[%d]", hostapi.Slot, l.seq)
	if err := l.rt.SetGlobal("__zero_src", j.script); err != nil {
		return Result{}, fmt.Errorf("staging %s: %w", j.Specifier, err)
	}
	js := fmt.Sprintf(`
		var src = globalThis.__zero_src;
		delete globalThis.__zero_src;
		%[1]s.jobs = %[1]s.jobs || Object.create(null);
		var completion = %[1]s.bindings.script_wrap.run(%[2]s, src);
		%[3]s = %[4]t ? globalThis.%[5]s : completion;
		delete globalThis.%[5]s;
	`, hostapi.Slot, hostapi.JSString(j.URL), slot, j.bundled, jobGlobal)
	if err := hostapi.Try(l.rt, js); err != nil {
		return Result{}, err
	}
	if l.opts.Logger != nil {
		l.opts.Logger.Debug("module job ran", "specifier", j.Specifier, "bundled", j.bundled)
	}
	return Result{Expr: slot}, nil
}

// Import loads and runs the module named by specifier.
func (l *Loader) Import(specifier string) error {
	job, err := l.GetModuleJob(specifier)
	if err != nil {
		return err
	}
	_, err = job.Run()
	return err
}

// Bundle runs esbuild over opts, forcing a single in-memory IIFE whose
// namespace lands in jobGlobal.
func Bundle(opts esbuild.BuildOptions) (string, error) {
	opts.Bundle = true
	opts.Write = false
	opts.Format = esbuild.FormatIIFE
	opts.GlobalName = jobGlobal
	opts.Platform = esbuild.PlatformBrowser
	opts.Target = esbuild.ES2020
	opts.TreeShaking = esbuild.TreeShakingFalse
	opts.LogLevel = esbuild.LogLevelSilent

	result := esbuild.Build(opts)
	if len(result.Errors) > 0 {
		msgs := make([]string, 0, len(result.Errors))
		for _, e := range result.Errors {
			msgs = append(msgs, e.Text)
		}
		return "", fmt.Errorf("bundling: %s", strings.Join(msgs, "; "))
	}
	if len(result.OutputFiles) == 0 {
		return "", fmt.Errorf("bundling produced no output")
	}
	return string(result.OutputFiles[0].Contents), nil
}

// needsBundling reports whether source uses module syntax that has to go
// through the bundler. Plain scripts run as they are.
func needsBundling(source string) bool {
	return strings.Contains(source, "import ") ||
		strings.Contains(source, "import{") ||
		strings.Contains(source, "import(") ||
		strings.Contains(source, "export ") ||
		strings.Contains(source, "export{")
}
