package hostapi

import (
	"encoding/json"
	"fmt"

	"github.com/cryguy/zero/internal/core"
)

// SetupNatives registers the natives binding: a frozen map from specifier
// to engine-resident source.
func SetupNatives(rt core.JSRuntime, h *Host) error {
	sources := map[string]string{}
	if h.Natives != nil {
		for _, spec := range h.Natives.Specifiers() {
			src, _ := h.Natives.Source(spec)
			sources[spec] = src
		}
	}
	data, err := json.Marshal(sources)
	if err != nil {
		return fmt.Errorf("encoding natives: %w", err)
	}
	if err := rt.SetGlobal("__zero_natives", string(data)); err != nil {
		return err
	}
	return evalGlue(rt, "natives", `
	__zero.bindings.natives = Object.freeze(JSON.parse(take('__zero_natives')));
`)
}
