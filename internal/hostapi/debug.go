package hostapi

import "github.com/cryguy/zero/internal/core"

// SetupDebug registers the debug binding, whose log() goes to the host
// logger at debug level.
func SetupDebug(rt core.JSRuntime, h *Host) error {
	if err := registerAll(rt, map[string]any{
		"__zero_debug_log": func(msg string) {
			if h.Logger != nil {
				h.Logger.Debug(msg, "from", "engine")
			}
		},
	}); err != nil {
		return err
	}
	return evalGlue(rt, "debug", `
	var log = take('__zero_debug_log');
	__zero.bindings.debug = Object.freeze({
		log: function() {
			log(Array.prototype.map.call(arguments, String).join(' '));
		},
	});
`)
}
