package hostapi

import (
	"strings"

	esbuild "github.com/evanw/esbuild/pkg/api"

	"github.com/cryguy/zero/internal/core"
)

// scriptWrapJS runs source as a classic script in the global scope and
// returns its completion value. Byte sources cross to Go as latin-1 text
// and come back as decoded UTF-8.
const scriptWrapJS = `
	var prepare = take('__zero_script_prepare');
	var latin1 = function(bytes) {
		var parts = [];
		for (var i = 0; i < bytes.length; i += 8192) {
			parts.push(String.fromCharCode.apply(null, bytes.subarray(i, Math.min(i + 8192, bytes.length))));
		}
		return parts.join('');
	};
	var indirectEval = eval;
	__zero.bindings.script_wrap = Object.freeze({
		run: function run(label, source) {
			var isBytes = typeof source !== 'string';
			var text = prepare(isBytes ? latin1(source) : source, isBytes);
			return indirectEval(text + '\n//# sourceURL=' + String(label));
		},
	});
`

// asyncLowering turns async functions into generator code driven by the
// global Promise, whose instances the rejection hook watches.
var asyncLowering = map[string]bool{
	"async-await":     false,
	"async-generator": false,
	"for-await":       false,
}

// PrepareScript decodes and normalizes script text before evaluation.
// With fromBytes, text holds one byte per rune and is decoded as UTF-8,
// invalid sequences becoming U+FFFD. A leading BOM is dropped. Sources
// using async functions are rewritten so their promises are observable;
// text esbuild cannot parse is returned as is for the engine to reject.
func PrepareScript(text string, fromBytes bool) string {
	if fromBytes {
		raw := make([]byte, 0, len(text))
		for _, r := range text {
			raw = append(raw, byte(r))
		}
		text = strings.ToValidUTF8(string(raw), "\uFFFD")
	}
	text = strings.TrimPrefix(text, "\ufeff")
	if !strings.Contains(text, "async") {
		return text
	}
	result := esbuild.Transform(text, esbuild.TransformOptions{
		Loader:    esbuild.LoaderJS,
		Supported: asyncLowering,
		Charset:   esbuild.CharsetUTF8,
		LogLevel:  esbuild.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		return text
	}
	return string(result.Code)
}

// SetupScriptWrap registers the script_wrap binding.
func SetupScriptWrap(rt core.JSRuntime, _ *Host) error {
	if err := registerAll(rt, map[string]any{
		"__zero_script_prepare": PrepareScript,
	}); err != nil {
		return err
	}
	return evalGlue(rt, "script_wrap", scriptWrapJS)
}
