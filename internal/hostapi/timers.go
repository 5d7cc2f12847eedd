package hostapi

import (
	"time"

	"github.com/cryguy/zero/internal/core"
)

// timersJS installs setTimeout/setInterval/clearTimeout/clearInterval.
// Callbacks live in __timerCallbacks, where the event loop fires them. An
// exception escaping a callback has no caller, so it goes to the host.
const timersJS = `
	var register = take('__timerRegister');
	var clear = take('__timerClear');
	var uncaught = take('__zero_uncaught');
	var callbacks = {};
	Object.defineProperty(globalThis, '__timerCallbacks', {
		value: callbacks,
		writable: false,
		enumerable: false,
		configurable: false,
	});
	var guard = function(fn, args) {
		return function() {
			try {
				fn.apply(null, args);
			} catch (e) {
				if (e === __zero.kExit) return;
				uncaught(__zero.describe(e));
			}
		};
	};
	var schedule = function(fn, delay, args, interval) {
		if (typeof fn !== 'function') {
			return 0;
		}
		var id = register(Number(delay) || 0, interval);
		callbacks[id] = { fn: guard(fn, args), args: [], interval: interval };
		return id;
	};
	var define = function(name, value) {
		Object.defineProperty(globalThis, name, {
			value: value,
			writable: true,
			enumerable: false,
			configurable: true,
		});
	};
	define('setTimeout', function setTimeout(fn, delay) {
		return schedule(fn, delay, Array.prototype.slice.call(arguments, 2), false);
	});
	define('setInterval', function setInterval(fn, interval) {
		return schedule(fn, interval, Array.prototype.slice.call(arguments, 2), true);
	});
	var cancel = function(id) {
		if (typeof id !== 'number') {
			return;
		}
		clear(id);
		delete callbacks[id];
	};
	define('clearTimeout', cancel);
	define('clearInterval', cancel);
`

// SetupTimers registers Go-backed setTimeout/setInterval/clearTimeout/clearInterval.
func SetupTimers(rt core.JSRuntime, h *Host) error {
	if err := registerAll(rt, map[string]any{
		"__timerRegister": func(delayMs int, isInterval bool) int {
			return h.Loop.RegisterTimer(time.Duration(delayMs)*time.Millisecond, isInterval)
		},
		"__timerClear": func(id int) {
			h.Loop.ClearTimer(id)
		},
		"__zero_uncaught": func(desc string) {
			err := decodeThrown(desc)
			if h.Uncaught != nil {
				h.Uncaught(err)
				return
			}
			if h.Logger != nil {
				h.Logger.Error("uncaught exception in timer", "err", err)
			}
		},
	}); err != nil {
		return err
	}
	return evalGlue(rt, "timers", timersJS)
}
