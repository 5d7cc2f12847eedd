package hostapi

import (
	"encoding/json"

	"github.com/cryguy/zero/internal/core"
	"github.com/cryguy/zero/internal/preview"
)

// utilJS dumps a collection's entries engine-side and rebuilds them from
// the layout the preview adapter computes: [key, value] pairs for maps,
// bare values for sets.
const utilJS = `
	var layout = take('__zero_preview_layout');
	var dump = function(value) {
		var flat = [];
		if (value instanceof Map) {
			value.forEach(function(v, k) { flat.push(k, v); });
			return { flat: flat, keyed: true };
		}
		if (value instanceof Set) {
			value.forEach(function(v) { flat.push(v); });
			return { flat: flat, keyed: false };
		}
		throw new TypeError('previewEntries: not a Map or Set');
	};
	__zero.bindings.util = Object.freeze({
		previewEntries: function previewEntries(value) {
			var d = dump(value);
			var idx = JSON.parse(layout(d.flat.length, d.keyed));
			return idx.map(function(slots) {
				if (slots.length === 2) return [d.flat[slots[0]], d.flat[slots[1]]];
				return d.flat[slots[0]];
			});
		},
	});
`

// SetupUtil registers the util binding.
func SetupUtil(rt core.JSRuntime, _ *Host) error {
	if err := registerAll(rt, map[string]any{
		"__zero_preview_layout": func(n int, keyed bool) (string, error) {
			idx, err := preview.Layout(n, keyed)
			if err != nil {
				return "", err
			}
			data, err := json.Marshal(idx)
			return string(data), err
		},
	}); err != nil {
		return err
	}
	return evalGlue(rt, "util", utilJS)
}
