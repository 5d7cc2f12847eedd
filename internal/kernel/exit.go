package kernel

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/cryguy/zero/internal/core"
	"github.com/cryguy/zero/internal/hostapi"
	"github.com/cryguy/zero/internal/rejection"
)

// Reporter prints one error report. A returned error (or a panic) sends
// the report to the fallback stream instead.
type Reporter interface {
	Report(err error) error
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(err error) error

func (f ReporterFunc) Report(err error) error { return f(err) }

// reportText is what a failure prints as. Errors marked no-format print
// their message without a stack; script errors print their stack when the
// engine gave one.
func reportText(err error) string {
	if core.IsNoFormat(err) {
		return err.Error()
	}
	var se *core.ScriptError
	if errors.As(err, &se) && se.Stack != "" {
		return se.Error() + "\n" + se.Stack
	}
	return err.Error()
}

// OnError is the failure funnel. It reports err through primary, falls
// back to writing err's text and a newline to fallback when primary fails,
// and returns exit code 1 no matter what happened while reporting.
func OnError(primary Reporter, fallback io.Writer, err error) (code int) {
	defer func() {
		if r := recover(); r != nil {
			writeFallback(fallback, err)
		}
		code = 1
	}()
	if rerr := primary.Report(err); rerr != nil {
		writeFallback(fallback, err)
	}
	return 1
}

func writeFallback(w io.Writer, err error) {
	defer func() { _ = recover() }()
	if w != nil {
		_, _ = fmt.Fprintf(w, "%s\n", err)
	}
}

// errFiltered means the logger's level would drop the message.
var errFiltered = errors.New("filtered by log level")

// logAt logs msg at level, failing when the logger would drop it so the
// caller can fall back.
func logAt(logger *log.Logger, level log.Level, msg string) error {
	if logger == nil {
		return errors.New("no logger")
	}
	if logger.GetLevel() > level {
		return errFiltered
	}
	logger.Log(level, msg)
	return nil
}

// LogReporter reports through the styled stderr logger. It is the primary
// channel until the console has loaded.
func LogReporter(logger *log.Logger) Reporter {
	return ReporterFunc(func(err error) error {
		return logAt(logger, log.ErrorLevel, reportText(err))
	})
}

// consoleReporter prints through console.error. A script error still held
// by the engine is printed as the original value.
func (k *Kernel) consoleReporter() Reporter {
	return ReporterFunc(func(err error) error {
		var se *core.ScriptError
		if errors.As(err, &se) && se.Slot != "" && !core.IsNoFormat(err) {
			return hostapi.Try(k.rt, fmt.Sprintf("%s.error(%s);", consoleExpr, se.Slot))
		}
		return hostapi.Try(k.rt, fmt.Sprintf("%s.error(%s);", consoleExpr, hostapi.JSString(reportText(err))))
	})
}

// OnError reports err through the console once it has loaded, through the
// logger before that, and returns exit code 1.
func (k *Kernel) OnError(err error) int {
	primary := LogReporter(k.logger)
	if k.console {
		primary = k.consoleReporter()
	}
	return OnError(primary, k.process.Stdout, err)
}

// logWarning reports an unhandled rejection before the console exists,
// straight to stderr when the logger would drop it.
func (k *Kernel) logWarning(id uint64, reason string) error {
	msg := rejection.Format(warnPrefix, id, reason)
	if err := logAt(k.logger, log.WarnLevel, msg); err == nil {
		return nil
	}
	_, err := fmt.Fprintln(k.process.Stderr, msg)
	return err
}

// consoleWarning reports an unhandled rejection through console.warn.
func (k *Kernel) consoleWarning(id uint64, reason string) error {
	return hostapi.Try(k.rt, fmt.Sprintf("%s.warn(%s);", consoleExpr, hostapi.JSString(rejection.Format(warnPrefix, id, reason))))
}
