package eventloop

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// recordingRuntime is a core.JSRuntime that records evaluated source.
type recordingRuntime struct {
	evals      []string
	microtasks int
	globals    map[string]any
}

func (r *recordingRuntime) Eval(js string) error {
	r.evals = append(r.evals, js)
	return nil
}
func (r *recordingRuntime) EvalString(js string) (string, error) { return "", r.Eval(js) }
func (r *recordingRuntime) EvalBool(js string) (bool, error)     { return false, r.Eval(js) }
func (r *recordingRuntime) EvalInt(js string) (int, error)       { return 0, r.Eval(js) }
func (r *recordingRuntime) RegisterFunc(string, any) error       { return nil }
func (r *recordingRuntime) SetGlobal(name string, v any) error {
	if r.globals == nil {
		r.globals = map[string]any{}
	}
	r.globals[name] = v
	return nil
}
func (r *recordingRuntime) RunMicrotasks() { r.microtasks++ }
func (r *recordingRuntime) Close()         {}

func (r *recordingRuntime) count(substr string) int {
	n := 0
	for _, js := range r.evals {
		if strings.Contains(js, substr) {
			n++
		}
	}
	return n
}

func TestEventLoop_New(t *testing.T) {
	el := New()
	if el == nil {
		t.Fatal("New returned nil")
	}
	if el.timers == nil {
		t.Error("timers map should be initialized")
	}
	if el.HasPending() {
		t.Error("new event loop should have nothing pending")
	}
}

func TestEventLoop_RegisterTimerIDs(t *testing.T) {
	el := New()
	if id := el.RegisterTimer(100*time.Millisecond, false); id != 1 {
		t.Errorf("first timer ID = %d, want 1", id)
	}
	if id := el.RegisterTimer(200*time.Millisecond, true); id != 2 {
		t.Errorf("second timer ID = %d, want 2", id)
	}
	if !el.HasPending() {
		t.Error("should have pending timers after RegisterTimer")
	}
	if el.timers[2].interval != 200*time.Millisecond {
		t.Errorf("interval = %v, want 200ms", el.timers[2].interval)
	}
}

func TestEventLoop_IntervalMinimum(t *testing.T) {
	el := New()
	id := el.RegisterTimer(0, true)
	if got := el.timers[id].interval; got != 10*time.Millisecond {
		t.Errorf("interval = %v, want 10ms minimum", got)
	}
}

func TestEventLoop_ClearTimer(t *testing.T) {
	el := New()
	id := el.RegisterTimer(time.Hour, false)
	el.ClearTimer(id)
	if el.HasPending() {
		t.Error("cleared timer should not be pending")
	}
	el.ClearTimer(999) // unknown IDs are ignored
}

func TestEventLoop_DrainFiresTimersAndEndsTurns(t *testing.T) {
	el := New()
	rt := &recordingRuntime{}
	turns := 0
	el.SetTurnHook(func() { turns++ })

	el.RegisterTimer(0, false)
	el.RegisterTimer(time.Millisecond, false)
	el.Drain(context.Background(), rt)

	if got := rt.count("__timerCallbacks"); got != 2 {
		t.Errorf("timer callbacks fired = %d, want 2", got)
	}
	if turns != 2 {
		t.Errorf("turn hook calls = %d, want 2", turns)
	}
	if rt.microtasks < 2 {
		t.Errorf("microtask pumps = %d, want at least 2", rt.microtasks)
	}
	if el.HasPending() {
		t.Error("drained loop should have nothing pending")
	}
}

func TestEventLoop_DrainSettlesOps(t *testing.T) {
	el := New()
	rt := &recordingRuntime{}

	okID := el.StartOp(func() ([]byte, error) { return []byte("hi"), nil })
	errID := el.StartOp(func() ([]byte, error) { return nil, errors.New("boom") })
	el.Drain(context.Background(), rt)

	if okID != 1 || errID != 2 {
		t.Fatalf("op IDs = %d, %d, want 1, 2", okID, errID)
	}
	if rt.count("__opResolve(1)") != 1 {
		t.Errorf("expected op 1 to resolve, evals: %v", rt.evals)
	}
	if rt.count(`__opReject(2, "boom")`) != 1 {
		t.Errorf("expected op 2 to reject, evals: %v", rt.evals)
	}
	if got, ok := rt.globals["__op_result"].(string); !ok || got != "hi" {
		t.Errorf("__op_result = %v, want %q", rt.globals["__op_result"], "hi")
	}
}

func TestEventLoop_StopEndsDrain(t *testing.T) {
	el := New()
	rt := &recordingRuntime{}
	el.RegisterTimer(time.Hour, false)
	el.Stop()

	done := make(chan struct{})
	go func() {
		el.Drain(context.Background(), rt)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Drain did not return after Stop")
	}
}

func TestEventLoop_ContextCancelEndsDrain(t *testing.T) {
	el := New()
	rt := &recordingRuntime{}
	el.RegisterTimer(time.Hour, false)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	el.Drain(ctx, rt)
	if time.Since(start) > 2*time.Second {
		t.Error("Drain ignored context cancellation")
	}
}

func TestEventLoop_OpErrorIsQuotedForJS(t *testing.T) {
	el := New()
	rt := &recordingRuntime{}
	el.StartOp(func() ([]byte, error) {
		return nil, errors.New("bad \U000E0001 name \u2028 \"q\"")
	})
	el.Drain(context.Background(), rt)

	// U+E0001 passes through raw; U+2028 and quotes are escaped.
	want := "__opReject(1, \"bad \U000E0001 name \\u2028 \\\"q\\\"\")"
	if rt.count(want) != 1 {
		t.Errorf("expected JSON-quoted rejection %s, evals: %v", want, rt.evals)
	}
	if rt.count(`\U000`) != 0 {
		t.Errorf("Go-only escape leaked into JS: %v", rt.evals)
	}
}

func TestEventLoop_DrainReturnsWhenIdle(t *testing.T) {
	el := New()
	rt := &recordingRuntime{}
	id := el.RegisterTimer(time.Hour, false)
	el.ClearTimer(id)
	if el.HasPending() {
		t.Fatal("cleared timer still pending")
	}

	done := make(chan struct{})
	go func() {
		el.Drain(context.Background(), rt)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Drain did not return with nothing pending")
	}
	if len(rt.evals) != 0 {
		t.Errorf("idle drain evaluated %v", rt.evals)
	}
}

func TestEventLoop_DrainUntilStopsOnCondition(t *testing.T) {
	el := New()
	rt := &recordingRuntime{}
	el.RegisterTimer(0, false)
	el.RegisterTimer(0, false)
	el.RegisterTimer(0, false)

	el.DrainUntil(context.Background(), rt, func() bool {
		return rt.count("__timerCallbacks") >= 1
	})
	if got := rt.count("__timerCallbacks"); got != 1 {
		t.Errorf("fired %d timers, want 1", got)
	}
	if !el.HasPending() {
		t.Error("remaining timers should still be pending")
	}
}
