package hostapi

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cryguy/zero/internal/core"
)

// ThrownExpr is the engine expression holding the value most recently
// captured by Try, TryString, Await or an uncaught timer exception.
const ThrownExpr = Slot + ".thrown"

type thrownDesc struct {
	Exit    bool   `json:"exit"`
	Code    int    `json:"code"`
	Name    string `json:"name"`
	Message string `json:"message"`
	Stack   string `json:"stack"`
}

// decodeThrown turns the describer's JSON into an error. The process.exit
// sentinel becomes *core.ExitRequest; anything else is *core.ScriptError.
func decodeThrown(desc string) error {
	var d thrownDesc
	if err := json.Unmarshal([]byte(desc), &d); err != nil {
		return fmt.Errorf("decoding exception: %w", err)
	}
	if d.Exit {
		return &core.ExitRequest{Code: d.Code}
	}
	return &core.ScriptError{Name: d.Name, Message: d.Message, Stack: d.Stack, Slot: ThrownExpr}
}

// Try runs kernel-authored statements. A value thrown from inside them is
// parked at ThrownExpr and returned as an error.
func Try(rt core.JSRuntime, js string) error {
	_, err := try(rt, js, "undefined")
	return err
}

// TryString is Try for an expression whose string value is returned.
func TryString(rt core.JSRuntime, expr string) (string, error) {
	return try(rt, "", expr)
}

// try tags the outcome with one leading byte: 'v' for a value, 'e' for a
// described exception.
func try(rt core.JSRuntime, stmts, expr string) (string, error) {
	out, err := rt.EvalString("(function() { try {\n" + stmts + "\n; return 'v' + String(" + expr + "); } catch (e) { return 'e' + " + Slot + ".describe(e); } })()")
	if err != nil {
		return "", err
	}
	if rest, ok := strings.CutPrefix(out, "e"); ok {
		return "", decodeThrown(rest)
	}
	return strings.TrimPrefix(out, "v"), nil
}

// JSString quotes s as a JavaScript string literal.
func JSString(s string) string {
	data, _ := json.Marshal(s)
	return string(data)
}
