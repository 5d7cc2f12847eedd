package natives

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/cryguy/zero/internal/core"
)

// scriptedExecutor runs Go closures in place of module bodies. Each body
// can call back into the cache, the way a JS body calls load().
type scriptedExecutor struct {
	cache  *Cache
	bodies map[string]func(c *Cache) ([]string, error)
	runs   map[string]int
	seen   []Injection
}

func (x *scriptedExecutor) Execute(specifier, _ string, inj Injection) ([]string, error) {
	x.runs[specifier]++
	x.seen = append(x.seen, inj)
	body, ok := x.bodies[specifier]
	if !ok {
		return nil, nil
	}
	return body(x.cache)
}

func newTestCache(bodies map[string]func(c *Cache) ([]string, error)) (*Cache, *scriptedExecutor) {
	reg := MapRegistry{}
	for spec := range bodies {
		reg[spec] = "/* " + spec + " */"
	}
	x := &scriptedExecutor{bodies: bodies, runs: map[string]int{}}
	c := NewCache(reg, x, core.Config{ExposeBinding: true}, nil)
	x.cache = c
	return c, x
}

func TestCache_LoadExecutesOnce(t *testing.T) {
	c, x := newTestCache(map[string]func(*Cache) ([]string, error){
		"counter": func(*Cache) ([]string, error) { return []string{"count", "inc"}, nil },
	})

	first, err := c.Load("counter")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	second, err := c.Load("counter")
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if first != second {
		t.Error("Load returned different entries for the same specifier")
	}
	if x.runs["counter"] != 1 {
		t.Errorf("body ran %d times, want 1", x.runs["counter"])
	}
	if !reflect.DeepEqual(first.ExportNames, []string{"count", "inc"}) {
		t.Errorf("ExportNames = %v", first.ExportNames)
	}
}

func TestCache_ExportNamesAreASnapshot(t *testing.T) {
	names := []string{"a"}
	c, _ := newTestCache(map[string]func(*Cache) ([]string, error){
		"m": func(*Cache) ([]string, error) { return names, nil },
	})
	e, err := c.Load("m")
	if err != nil {
		t.Fatal(err)
	}
	names[0] = "mutated"
	if e.ExportNames[0] != "a" {
		t.Errorf("ExportNames follows the executor's slice: %v", e.ExportNames)
	}
}

func TestCache_NotFound(t *testing.T) {
	c, _ := newTestCache(nil)
	_, err := c.Load("nope")
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if !strings.Contains(err.Error(), "no such builtin: nope") {
		t.Errorf("err = %q", err)
	}
	if c.Len() != 0 || c.Loaded("nope") {
		t.Error("failed lookup mutated the cache")
	}
}

func TestCache_DiamondLoadsSharedDependencyOnce(t *testing.T) {
	c, x := newTestCache(map[string]func(*Cache) ([]string, error){
		"top": func(c *Cache) ([]string, error) {
			if _, err := c.Load("left"); err != nil {
				return nil, err
			}
			if _, err := c.Load("right"); err != nil {
				return nil, err
			}
			return []string{"top"}, nil
		},
		"left": func(c *Cache) ([]string, error) {
			_, err := c.Load("base")
			return []string{"left"}, err
		},
		"right": func(c *Cache) ([]string, error) {
			_, err := c.Load("base")
			return []string{"right"}, err
		},
		"base": func(*Cache) ([]string, error) { return []string{"base"}, nil },
	})

	if _, err := c.Load("top"); err != nil {
		t.Fatalf("Load(top): %v", err)
	}
	for spec, n := range x.runs {
		if n != 1 {
			t.Errorf("%s ran %d times, want 1", spec, n)
		}
	}
	if c.Len() != 4 {
		t.Errorf("Len = %d, want 4", c.Len())
	}
}

func TestCache_CycleIsDetected(t *testing.T) {
	c, x := newTestCache(map[string]func(*Cache) ([]string, error){
		"a": func(c *Cache) ([]string, error) {
			_, err := c.Load("b")
			return nil, err
		},
		"b": func(c *Cache) ([]string, error) {
			_, err := c.Load("a")
			return nil, err
		},
	})

	_, err := c.Load("a")
	if !errors.Is(err, core.ErrCyclicDependency) {
		t.Fatalf("err = %v, want ErrCyclicDependency", err)
	}
	if !strings.Contains(err.Error(), "a -> b -> a") {
		t.Errorf("err = %q, want the load chain", err)
	}
	if x.runs["a"] != 1 || x.runs["b"] != 1 {
		t.Errorf("runs = %v, want one each", x.runs)
	}
}

func TestCache_SelfLoadIsACycle(t *testing.T) {
	c, _ := newTestCache(map[string]func(*Cache) ([]string, error){
		"self": func(c *Cache) ([]string, error) {
			_, err := c.Load("self")
			return nil, err
		},
	})
	if _, err := c.Load("self"); !errors.Is(err, core.ErrCyclicDependency) {
		t.Fatalf("err = %v, want ErrCyclicDependency", err)
	}
}

func TestCache_FailedBodyIsNotRerun(t *testing.T) {
	c, x := newTestCache(map[string]func(*Cache) ([]string, error){
		"broken": func(*Cache) ([]string, error) { return nil, fmt.Errorf("TypeError: boom") },
	})

	_, err1 := c.Load("broken")
	_, err2 := c.Load("broken")
	if err1 == nil || err2 == nil {
		t.Fatal("expected both loads to fail")
	}
	if err1 != err2 {
		t.Errorf("second load returned a different error: %v vs %v", err1, err2)
	}
	if x.runs["broken"] != 1 {
		t.Errorf("body ran %d times, want 1", x.runs["broken"])
	}
}

func TestCache_InjectionRecord(t *testing.T) {
	c, x := newTestCache(map[string]func(*Cache) ([]string, error){
		"m": func(*Cache) ([]string, error) { return nil, nil },
	})
	if _, err := c.Load("m"); err != nil {
		t.Fatal(err)
	}
	if len(x.seen) != 1 {
		t.Fatalf("injections = %d, want 1", len(x.seen))
	}
	inj := x.seen[0]
	if inj.Version != InjectionVersion || inj.Specifier != "m" || !inj.Config.ExposeBinding {
		t.Errorf("injection = %+v", inj)
	}
}

func TestBuiltin_ContainsCoreModules(t *testing.T) {
	reg := Builtin()
	for _, spec := range []string{"errors", "util", "w3", "whatwg", "fs", "mime"} {
		if _, ok := reg.Source(spec); !ok {
			t.Errorf("builtin registry missing %q (have %v)", spec, reg.Specifiers())
		}
	}
	if _, ok := reg.Source("config"); ok {
		t.Error("config.json should not be registered as a module")
	}
}

func TestEmbeddedConfig_Parses(t *testing.T) {
	cfg, err := core.ParseConfig(EmbeddedConfig())
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.AllowNativesSyntax {
		t.Error("embedded config should not allow natives syntax")
	}
}
