package natives

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/cryguy/zero/internal/core"
)

// InjectionVersion identifies the shape of the record handed to every
// native module body. Bump it whenever InjectionFields changes.
const InjectionVersion = 1

// InjectionFields lists, in order, the capabilities every native module
// body receives in its injection record:
//
//	namespace       the module's own prototype-less export object
//	binding         binding(name) accessor for Go-backed capabilities
//	load            load(specifier), this cache
//	process         the process object
//	PrivateSymbol   private-symbol factory
//	config          the parsed embedded configuration
//	kCustomInspect  marker symbol shared by introspection code
var InjectionFields = []string{
	"namespace",
	"binding",
	"load",
	"process",
	"PrivateSymbol",
	"config",
	"kCustomInspect",
}

// Injection is the record for one module body. The executor materializes
// the engine-side values named by InjectionFields; only the parts that
// exist in Go are carried here.
type Injection struct {
	Version   int
	Specifier string
	Config    core.Config
}

// Executor runs a native module body against its injection record and
// returns the namespace keys in order once the body has returned.
type Executor interface {
	Execute(specifier, source string, inj Injection) ([]string, error)
}

// Entry is one loaded native module. It is never mutated after creation.
type Entry struct {
	Specifier   string
	ExportNames []string
	err         error
}

// Cache memoizes native module execution by specifier. Every specifier
// runs at most once: a body that throws is remembered as failed and is not
// run again. Cache is not safe for concurrent use; it belongs to the
// kernel and is used from the JS goroutine, including reentrantly from
// inside a module body that loads its own dependencies.
type Cache struct {
	registry Registry
	exec     Executor
	config   core.Config
	logger   *log.Logger

	entries map[string]*Entry
	loading []string // in-progress load chain, outermost first
}

// NewCache returns an empty cache over registry.
func NewCache(registry Registry, exec Executor, cfg core.Config, logger *log.Logger) *Cache {
	return &Cache{
		registry: registry,
		exec:     exec,
		config:   cfg,
		logger:   logger,
		entries:  make(map[string]*Entry),
	}
}

// Load returns the entry for specifier, executing its body on first use.
func (c *Cache) Load(specifier string) (*Entry, error) {
	if e, ok := c.entries[specifier]; ok {
		if e.err != nil {
			return nil, e.err
		}
		return e, nil
	}

	for i, s := range c.loading {
		if s == specifier {
			chain := append(append([]string(nil), c.loading[i:]...), specifier)
			return nil, fmt.Errorf("builtin %s: %s: %w", specifier, strings.Join(chain, " -> "), core.ErrCyclicDependency)
		}
	}

	source, ok := c.registry.Source(specifier)
	if !ok {
		return nil, fmt.Errorf("no such builtin: %s: %w", specifier, core.ErrNotFound)
	}

	c.loading = append(c.loading, specifier)
	defer func() { c.loading = c.loading[:len(c.loading)-1] }()

	names, err := c.exec.Execute(specifier, source, c.injection(specifier))
	if err != nil {
		err = fmt.Errorf("loading builtin %s: %w", specifier, err)
		c.entries[specifier] = &Entry{Specifier: specifier, err: err}
		return nil, err
	}

	e := &Entry{Specifier: specifier, ExportNames: append([]string(nil), names...)}
	c.entries[specifier] = e
	if c.logger != nil {
		c.logger.Debug("loaded builtin", "specifier", specifier, "exports", len(names))
	}
	return e, nil
}

// Loaded reports whether specifier has been executed (successfully or not).
func (c *Cache) Loaded(specifier string) bool {
	_, ok := c.entries[specifier]
	return ok
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	return len(c.entries)
}

func (c *Cache) injection(specifier string) Injection {
	return Injection{
		Version:   InjectionVersion,
		Specifier: specifier,
		Config:    c.config,
	}
}
