package hostapi

import (
	"context"
	"fmt"

	"github.com/cryguy/zero/internal/core"
	"github.com/cryguy/zero/internal/eventloop"
)

// Await settles a potentially-promise value stored in globalThis[name] by
// running the event loop until it is no longer pending. A fulfilled value
// replaces the global; a rejection is parked at ThrownExpr and returned.
// A promise still pending when the loop runs dry leaves undefined behind
// and is not an error, matching a script that simply never finishes.
func Await(ctx context.Context, rt core.JSRuntime, el *eventloop.EventLoop, name string) error {
	thenable, err := rt.EvalBool(fmt.Sprintf(`(function(v) {
		return v !== null && (typeof v === 'object' || typeof v === 'function') && typeof v.then === 'function';
	})(globalThis[%s])`, JSString(name)))
	if err != nil || !thenable {
		return err
	}

	setupJS := fmt.Sprintf(`
		%[1]s.awaited = { state: 'pending' };
		Promise.resolve(globalThis[%[2]s]).then(
			function(r) { %[1]s.awaited = { state: 'fulfilled', value: r }; },
			function(e) { %[1]s.awaited = { state: 'rejected', value: e }; }
		);
	`, Slot, JSString(name))
	if err := rt.Eval(setupJS); err != nil {
		return fmt.Errorf("setting up promise await: %w", err)
	}

	settled := func() bool {
		done, err := rt.EvalBool(Slot + ".awaited.state !== 'pending'")
		return err != nil || done
	}
	el.EndTurn(rt)
	el.DrainUntil(ctx, rt, settled)

	state, err := rt.EvalString(Slot + ".awaited.state")
	if err != nil {
		return fmt.Errorf("checking promise state: %w", err)
	}
	defer func() { _ = rt.Eval("delete " + Slot + ".awaited;") }()

	switch state {
	case "fulfilled":
		return rt.Eval(fmt.Sprintf("globalThis[%s] = %s.awaited.value;", JSString(name), Slot))
	case "rejected":
		desc, err := rt.EvalString(Slot + ".describe(" + Slot + ".awaited.value)")
		if err != nil {
			return fmt.Errorf("describing rejection: %w", err)
		}
		return decodeThrown(desc)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return rt.Eval(fmt.Sprintf("globalThis[%s] = undefined;", JSString(name)))
}
