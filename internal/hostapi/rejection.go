package hostapi

import (
	"github.com/cryguy/zero/internal/core"
	"github.com/cryguy/zero/internal/rejection"
)

// rejectionJS watches every promise built through the global Promise:
// its constructor and statics, and promises derived from those by then/
// catch/finally, since the species is the watching subclass. Async
// function results are covered because script_wrap lowers async functions
// onto the global Promise. Attaching any reaction marks a promise handled;
// a reaction without onRejected passes the rejection on to the derived
// promise, which is watched in turn, so each chain reports once.
const rejectionJS = `
	var notify = take('__zero_rejection');
	var NativePromise = globalThis.Promise;
	var nativeThen = NativePromise.prototype.then;
	var handles = new WeakMap();
	var watched = new WeakSet();
	var handled = new WeakSet();
	var reported = new WeakSet();
	var nextHandle = 0;
	var watching = false;

	var handleOf = function(p) {
		var h = handles.get(p);
		if (h === undefined) {
			h = ++nextHandle;
			handles.set(p, h);
		}
		return h;
	};
	var describe = function(reason) {
		try {
			return String(reason);
		} catch (_) {
			return Object.prototype.toString.call(reason);
		}
	};
	var watch = function(p) {
		if (watched.has(p)) return;
		watched.add(p);
		// the watcher's own derived promise is not watched
		watching = true;
		try {
			nativeThen.call(p, undefined, function(reason) {
				if (handled.has(p) || reason === __zero.kExit) return;
				reported.add(p);
				notify(handleOf(p), describe(reason), false);
			});
		} finally {
			watching = false;
		}
	};
	var markHandled = function(p) {
		if (handled.has(p)) return;
		handled.add(p);
		if (reported.has(p)) {
			reported.delete(p);
			notify(handleOf(p), '', true);
		}
	};

	NativePromise.prototype.then = function then(onFulfilled, onRejected) {
		if (watched.has(this)) markHandled(this);
		return nativeThen.call(this, onFulfilled, onRejected);
	};

	class Promise extends NativePromise {
		constructor(executor) {
			super(executor);
			if (!watching) watch(this);
		}
		static [Symbol.hasInstance](value) {
			return value instanceof NativePromise;
		}
	}
	Object.defineProperty(Promise, 'name', { value: 'Promise' });
	Object.defineProperty(globalThis, 'Promise', {
		value: Promise,
		writable: true,
		enumerable: false,
		configurable: true,
	});
`

// SetupRejectionHook feeds promise rejection state changes to the host's
// rejection tracker.
func SetupRejectionHook(rt core.JSRuntime, h *Host) error {
	if err := registerAll(rt, map[string]any{
		"__zero_rejection": func(handle int, reason string, isHandled bool) {
			if h.Rejections == nil {
				return
			}
			h.Rejections.OnRejectionStateChange(rejection.Handle(handle), reason, isHandled)
		},
	}); err != nil {
		return err
	}
	return evalGlue(rt, "rejection hook", rejectionJS)
}
