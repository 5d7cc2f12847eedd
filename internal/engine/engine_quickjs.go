//go:build !v8

// Package engine picks the JavaScript engine backend at build time:
// QuickJS by default, V8 with -tags v8.
package engine

import (
	"github.com/cryguy/zero/internal/core"
	"github.com/cryguy/zero/internal/quickjs"
)

// Name identifies the compiled-in backend in process.versions.
const Name = "quickjs"

// New creates a runtime on the compiled-in backend.
func New(memoryLimitMB int) (core.JSRuntime, error) {
	return quickjs.New(memoryLimitMB)
}
