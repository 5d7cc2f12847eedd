package eventloop

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cryguy/zero/internal/core"
)

// OpResult holds the outcome of an off-thread host operation (a file read,
// a stat). The producing goroutine fills it; the event loop hands it to JS.
type OpResult struct {
	Data []byte
	Err  error
}

// PendingOp represents an in-flight host operation whose result will be
// delivered to JS via the event loop when it completes. The JS side keeps
// the promise callbacks in globalThis.__opCallbacks[ID].
type PendingOp struct {
	ResultCh <-chan OpResult
	ID       int
}

// timerEntry represents a pending setTimeout or setInterval callback.
// The actual callback is stored in globalThis.__timerCallbacks[id] on the
// JS side. Go only tracks scheduling metadata.
type timerEntry struct {
	deadline time.Time
	interval time.Duration // 0 for setTimeout, >0 for setInterval
	id       int
	cleared  bool
}

// EventLoop manages Go-backed timers and pending host operations that need
// to be settled on the JS thread. Every timer callback and every settled
// operation is one turn: the callback runs, the microtask queue drains, and
// then the turn hook fires.
type EventLoop struct {
	mu         sync.Mutex
	timers     map[int]*timerEntry
	nextID     int
	pendingOps []*PendingOp
	nextOpID   int

	onTurn func()
	stopped bool
}

// New creates a new EventLoop.
func New() *EventLoop {
	return &EventLoop{
		timers: make(map[int]*timerEntry),
	}
}

// SetTurnHook installs fn to run after every turn, once the microtask queue
// has drained. The kernel uses it to flush unhandled rejections.
func (el *EventLoop) SetTurnHook(fn func()) {
	el.mu.Lock()
	defer el.mu.Unlock()
	el.onTurn = fn
}

// EndTurn drains microtasks and runs the turn hook. Drain calls it after
// each callback; the kernel calls it after running top-level code.
func (el *EventLoop) EndTurn(rt core.JSRuntime) {
	rt.RunMicrotasks()
	el.mu.Lock()
	hook := el.onTurn
	el.mu.Unlock()
	if hook != nil {
		hook()
		// The hook may have scheduled reactions of its own (console.warn
		// over a promise-returning sink); settle them in this turn.
		rt.RunMicrotasks()
	}
}

// Stop makes Drain return at the next turn boundary. Used by process.exit.
func (el *EventLoop) Stop() {
	el.mu.Lock()
	defer el.mu.Unlock()
	el.stopped = true
}

// Stopped reports whether Stop was called.
func (el *EventLoop) Stopped() bool {
	el.mu.Lock()
	defer el.mu.Unlock()
	return el.stopped
}

// RegisterTimer creates a timer entry and returns its ID.
// The actual JS callback is stored in globalThis.__timerCallbacks[id].
func (el *EventLoop) RegisterTimer(delay time.Duration, isInterval bool) int {
	el.mu.Lock()
	defer el.mu.Unlock()
	el.nextID++
	id := el.nextID
	entry := &timerEntry{
		deadline: time.Now().Add(delay),
		id:       id,
	}
	if isInterval {
		if delay < 10*time.Millisecond {
			delay = 10 * time.Millisecond // minimum interval
		}
		entry.interval = delay
	}
	el.timers[id] = entry
	return id
}

// ClearTimer cancels a timer by ID.
func (el *EventLoop) ClearTimer(id int) {
	el.mu.Lock()
	defer el.mu.Unlock()
	if t, ok := el.timers[id]; ok {
		t.cleared = true
		delete(el.timers, id)
	}
}

// StartOp runs fn on a new goroutine and registers its result for delivery
// on the JS thread. It returns the operation ID the JS side keys its
// promise callbacks by.
func (el *EventLoop) StartOp(fn func() ([]byte, error)) int {
	ch := make(chan OpResult, 1)
	el.mu.Lock()
	el.nextOpID++
	id := el.nextOpID
	el.pendingOps = append(el.pendingOps, &PendingOp{ResultCh: ch, ID: id})
	el.mu.Unlock()

	go func() {
		data, err := fn()
		ch <- OpResult{Data: data, Err: err}
	}()
	return id
}

// DrainPendingOps does non-blocking reads on all pending operation channels.
// For each completed operation, it resolves/rejects via JS globals, ends the
// turn and removes it from the list. Returns true if any operation settled.
func (el *EventLoop) DrainPendingOps(rt core.JSRuntime) bool {
	el.mu.Lock()
	if len(el.pendingOps) == 0 {
		el.mu.Unlock()
		return false
	}
	// Snapshot the current list; we'll rebuild it without completed entries.
	pending := el.pendingOps
	el.pendingOps = nil
	el.mu.Unlock()

	var remaining []*PendingOp
	didWork := false
	for _, op := range pending {
		select {
		case result := <-op.ResultCh:
			settleOp(rt, op.ID, result)
			el.EndTurn(rt)
			didWork = true
		default:
			remaining = append(remaining, op)
		}
	}

	el.mu.Lock()
	// Callbacks may have started new operations during settlement,
	// so append those after the ones still in flight.
	el.pendingOps = append(remaining, el.pendingOps...)
	el.mu.Unlock()
	return didWork
}

// settleOp hands a finished operation to the JS side.
func settleOp(rt core.JSRuntime, id int, result OpResult) {
	if result.Err != nil {
		rejectOp(rt, id, result.Err)
		return
	}
	if bt, ok := rt.(core.BinaryTransferer); ok {
		if err := bt.WriteBinaryToJS("__op_result", result.Data); err != nil {
			rejectOp(rt, id, err)
			return
		}
	} else {
		// Latin-1 string; the JS side widens it back to bytes.
		if err := rt.SetGlobal("__op_result", string(latin1(result.Data))); err != nil {
			rejectOp(rt, id, err)
			return
		}
	}
	_ = rt.Eval(fmt.Sprintf(`globalThis.__opResolve(%d)`, id))
}

func rejectOp(rt core.JSRuntime, id int, err error) {
	_ = rt.Eval(fmt.Sprintf(`globalThis.__opReject(%d, %s)`, id, jsString(err.Error())))
}

// jsString quotes s as a JS string literal. JSON escapes are a subset of
// JS escapes; Go's %q is not (\U0001F600, \a).
func jsString(s string) string {
	data, _ := json.Marshal(s)
	return string(data)
}

func latin1(b []byte) []rune {
	r := make([]rune, len(b))
	for i, c := range b {
		r[i] = rune(c)
	}
	return r
}

// fireTimer fires a timer callback by invoking the JS-side callback map.
func (el *EventLoop) fireTimer(rt core.JSRuntime, id int) {
	js := fmt.Sprintf(`(function() {
		var entry = globalThis.__timerCallbacks[%d];
		if (!entry) return;
		if (!entry.interval) delete globalThis.__timerCallbacks[%d];
		entry.fn.apply(null, entry.args || []);
	})()`, id, id)
	_ = rt.Eval(js)
}

// Drain fires pending timers and settles pending operations until none
// remain, Stop is called, or ctx is done.
// Must be called on the runtime's goroutine (JS engines are single-threaded).
func (el *EventLoop) Drain(ctx context.Context, rt core.JSRuntime) {
	el.DrainUntil(ctx, rt, nil)
}

// DrainUntil is Drain with an extra exit condition checked before every
// turn. A nil done never stops early.
func (el *EventLoop) DrainUntil(ctx context.Context, rt core.JSRuntime, done func() bool) {
	for {
		if el.Stopped() || ctx.Err() != nil {
			return
		}
		if done != nil && done() {
			return
		}
		if !el.HasPending() {
			return
		}

		// Always try to settle pending operations first.
		if el.DrainPendingOps(rt) {
			continue
		}

		el.mu.Lock()
		hasOps := len(el.pendingOps) > 0
		var next *timerEntry
		for _, t := range el.timers {
			if t.cleared {
				continue
			}
			if next == nil || t.deadline.Before(next.deadline) {
				next = t
			}
		}
		el.mu.Unlock()

		if next == nil {
			// No timers, but operations are in flight: poll with short sleep.
			if !sleepCtx(ctx, time.Millisecond) {
				return
			}
			continue
		}

		// Wait until the timer is due, settling operations meanwhile.
		if wait := time.Until(next.deadline); wait > 0 {
			if hasOps {
				if !sleepCtx(ctx, min(wait, time.Millisecond)) {
					return
				}
				continue
			}
			if !sleepCtx(ctx, wait) {
				return
			}
		}

		// Fire the callback.
		el.mu.Lock()
		if next.cleared {
			el.mu.Unlock()
			continue
		}
		timerID := next.id
		if next.interval > 0 {
			next.deadline = time.Now().Add(next.interval)
		} else {
			delete(el.timers, next.id)
		}
		el.mu.Unlock()

		el.fireTimer(rt, timerID)
		el.EndTurn(rt)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// HasPending returns true if there are any active timers or pending operations.
func (el *EventLoop) HasPending() bool {
	el.mu.Lock()
	defer el.mu.Unlock()
	return len(el.timers) > 0 || len(el.pendingOps) > 0
}
