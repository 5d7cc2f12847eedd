// Package natives holds the engine-resident module sources embedded in the
// binary and the cache that executes each of them at most once.
package natives

import (
	"embed"
	"path"
	"sort"
	"strings"
)

//go:embed lib
var libFS embed.FS

// configFile is the build-time engine configuration, not a module.
const configFile = "lib/config.json"

// Registry maps native module specifiers to their source text.
type Registry interface {
	Source(specifier string) (string, bool)
	Specifiers() []string
}

// MapRegistry is a Registry backed by a map.
type MapRegistry map[string]string

func (m MapRegistry) Source(specifier string) (string, bool) {
	src, ok := m[specifier]
	return src, ok
}

func (m MapRegistry) Specifiers() []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Builtin returns the registry of modules embedded under lib/. The
// specifier is the path below lib/ without the .js extension, so
// lib/whatwg/url.js is "whatwg/url".
func Builtin() MapRegistry {
	reg := MapRegistry{}
	var walk func(dir string)
	walk = func(dir string) {
		entries, err := libFS.ReadDir(dir)
		if err != nil {
			return
		}
		for _, e := range entries {
			p := path.Join(dir, e.Name())
			if e.IsDir() {
				walk(p)
				continue
			}
			if !strings.HasSuffix(p, ".js") {
				continue
			}
			data, err := libFS.ReadFile(p)
			if err != nil {
				continue
			}
			spec := strings.TrimSuffix(strings.TrimPrefix(p, "lib/"), ".js")
			reg[spec] = string(data)
		}
	}
	walk("lib")
	return reg
}

// EmbeddedConfig returns the configuration string embedded at build time.
func EmbeddedConfig() string {
	data, err := libFS.ReadFile(configFile)
	if err != nil {
		return "{}"
	}
	return string(data)
}
