package hostapi

import "github.com/cryguy/zero/internal/core"

// opsJS keeps the promise callbacks of in-flight host operations. The event
// loop settles them through __opResolve / __opReject, leaving the payload
// in __op_result as an ArrayBuffer or, on engines without binary transfer,
// a latin-1 string.
const opsJS = `
	var pending = new Map();
	var define = function(name, value) {
		Object.defineProperty(globalThis, name, {
			value: value,
			writable: true,
			enumerable: false,
			configurable: true,
		});
	};
	define('__opResolve', function(id) {
		var cb = pending.get(id);
		pending.delete(id);
		var raw = globalThis.__op_result;
		delete globalThis.__op_result;
		if (!cb) return;
		var bytes;
		if (typeof raw === 'string') {
			bytes = new Uint8Array(raw.length);
			for (var i = 0; i < raw.length; i++) bytes[i] = raw.charCodeAt(i);
		} else {
			bytes = new Uint8Array(raw || new ArrayBuffer(0));
		}
		cb.resolve(bytes);
	});
	define('__opReject', function(id, message) {
		var cb = pending.get(id);
		pending.delete(id);
		if (!cb) return;
		cb.reject(new Error(message));
	});
	__zero.op = function(id) {
		return new Promise(function(resolve, reject) {
			pending.set(id, { resolve: resolve, reject: reject });
		});
	};
`

// SetupOps installs the JS side of the event loop's host operations.
func SetupOps(rt core.JSRuntime, _ *Host) error {
	return evalGlue(rt, "ops", opsJS)
}
