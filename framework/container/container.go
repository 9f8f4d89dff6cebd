package container

import (
	"fmt"
	"reflect"
	"sync"
)

// ── Container ─────────────────────────────────────────────────────────────────

// Container maps names to definitions and caches what it has built.
//
// Values live in a single cache shared by params and singletons: a cached
// name is never rebuilt, whatever definition is registered under it later.
//
// Resolution is not meant to run on several goroutines at once. Give each
// request its own container with Fork.
type Container struct {
	mu sync.RWMutex

	// name → recipe
	definitions map[string]*Definition

	// name → param or built singleton
	items map[string]any

	// resolution pass in flight, nil when idle
	pass *pass
}

// pass collects what one top-level Get/Create builds, so deferred method
// calls can run once the whole dependency tree exists.
type pass struct {
	pending  []built
	building []*Definition
	stored   []string
}

// built is an instance made during a pass. Only cached singletons and
// the result of Create get their method calls; i: instances do not.
type built struct {
	def      *Definition
	instance any
	wire     bool
}

// New creates an empty container bound to itself as "container".
func New() *Container {
	c := &Container{
		definitions: make(map[string]*Definition),
		items:       make(map[string]any),
	}
	c.items["container"] = c
	return c
}

// ── Registration ──────────────────────────────────────────────────────────────

// SetObject registers how to build name. A value already cached under name
// keeps winning over the new definition.
//
//	c.SetObject("repo", container.Constructor(newRepo), container.Refs("db", "i:logger"), 50)
func (c *Container) SetObject(name string, target Target, deps []Ref, params ...any) error {
	if target.Fn == nil {
		return newError(ErrBadClassCall, "Class \"%s\" doesn't exist.", name)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.definitions[name] = newDefinition(c, name, target, deps, params)
	return nil
}

// Set is an alias of SetObject.
func (c *Container) Set(name string, target Target, deps []Ref, params ...any) error {
	return c.SetObject(name, target, deps, params...)
}

// AddObjectMethodCall appends a deferred method call to the definition of name.
func (c *Container) AddObjectMethodCall(name, method string, fn MethodFunc, deps []Ref, params ...any) error {
	def, err := c.GetDefinition(name)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	def.AddMethodCall(method, fn, deps, params...)
	return nil
}

// SetParam caches value under name, bypassing definitions.
func (c *Container) SetParam(name string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[name] = value
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Get returns the cached value of name, building and caching it first if
// needed.
func (c *Container) Get(name string) (v any, err error) {
	if cached, ok := c.lookup(name); ok {
		return cached, nil
	}
	err = c.run(func(p *pass) error {
		v, err = c.resolve(p, Singleton(name))
		return err
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Create builds a fresh instance of name. The cache entry of name itself is
// neither read nor written.
func (c *Container) Create(name string, params ...any) (v any, err error) {
	def, err := c.GetDefinition(name)
	if err != nil {
		return nil, err
	}
	err = c.run(func(p *pass) error {
		v, err = c.build(p, def, params, true)
		return err
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// GetDefinition returns the raw definition of name.
func (c *Container) GetDefinition(name string) (*Definition, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	def, ok := c.definitions[name]
	if !ok {
		return nil, definitionNotFound(name)
	}
	return def, nil
}

// run executes fn inside the current pass, opening one when idle. The
// opener flushes deferred method calls once fn succeeds; on failure the
// singletons cached by the pass are dropped again.
func (c *Container) run(fn func(p *pass) error) (err error) {
	if c.pass != nil {
		return fn(c.pass)
	}

	p := &pass{}
	c.pass = p
	defer func() {
		c.pass = nil
		if r := recover(); r != nil {
			c.rollback(p)
			panic(r)
		}
		if err != nil {
			c.rollback(p)
		}
	}()

	if err = fn(p); err != nil {
		return err
	}
	// Method calls may build more instances; they join the same list.
	for i := 0; i < len(p.pending); i++ {
		b := p.pending[i]
		if !b.wire {
			continue
		}
		if err = b.def.callMethods(c, p, b.instance); err != nil {
			return err
		}
	}
	return nil
}

func (c *Container) resolve(p *pass, ref Ref) (any, error) {
	switch ref.Mode {
	case ModeDefinition:
		return c.GetDefinition(ref.Name)

	case ModeInstance:
		def, err := c.GetDefinition(ref.Name)
		if err != nil {
			return nil, err
		}
		return c.build(p, def, nil, false)

	default:
		if cached, ok := c.lookup(ref.Name); ok {
			return cached, nil
		}
		def, err := c.GetDefinition(ref.Name)
		if err != nil {
			return nil, err
		}
		instance, err := c.build(p, def, nil, true)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.items[ref.Name] = instance
		c.mu.Unlock()
		p.stored = append(p.stored, ref.Name)
		return instance, nil
	}
}

func (c *Container) resolveAll(p *pass, refs []Ref) ([]any, error) {
	out := make([]any, 0, len(refs))
	for _, ref := range refs {
		v, err := c.resolve(p, ref)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// build invokes the target of def with deps ++ fixed params ++ extra. wire
// marks the instance for the method calls flushed at the end of the pass.
func (c *Container) build(p *pass, def *Definition, extra []any, wire bool) (any, error) {
	for _, b := range p.building {
		if b == def {
			return nil, newError(ErrCircularDependency, "Definition \"%s\" depends on itself.", def.name)
		}
	}
	p.building = append(p.building, def)
	defer func() { p.building = p.building[:len(p.building)-1] }()

	args, err := c.resolveAll(p, def.deps)
	if err != nil {
		return nil, err
	}
	args = append(args, def.params...)
	args = append(args, extra...)

	instance, err := def.target.Fn(args...)
	if err != nil {
		return nil, err
	}
	p.pending = append(p.pending, built{def: def, instance: instance, wire: wire})
	return instance, nil
}

func (c *Container) rollback(p *pass) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, name := range p.stored {
		delete(c.items, name)
	}
}

func (c *Container) lookup(name string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.items[name]
	return v, ok
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// Has reports whether name is cached or has a definition.
func (c *Container) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, hasDefinition := c.definitions[name]
	_, hasItem := c.items[name]
	return hasDefinition || hasItem
}

// Resolved reports whether a value is cached under name.
func (c *Container) Resolved(name string) bool {
	_, ok := c.lookup(name)
	return ok
}

// Fork returns an independent container with copies of every definition and
// the current cache. Values cached so far are shared with the fork; anything
// either side builds or registers afterwards stays private to it.
func (c *Container) Fork() *Container {
	c.mu.RLock()
	defer c.mu.RUnlock()

	f := &Container{
		definitions: make(map[string]*Definition, len(c.definitions)),
		items:       make(map[string]any, len(c.items)),
	}
	for name, def := range c.definitions {
		f.definitions[name] = def.clone(f)
	}
	for name, v := range c.items {
		f.items[name] = v
	}
	if self, ok := c.items["container"].(*Container); ok && self == c {
		f.items["container"] = f
	}
	return f
}

// ── Generics helper ───────────────────────────────────────────────────────────

// Resolve calls Get and type-asserts the result.
//
//	db, err := container.Resolve[*sql.DB](c, "db")
func Resolve[T any](c *Container, name string) (T, error) {
	var zero T
	v, err := c.Get(name)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("container: Resolve[%s]: %q resolved to %T", reflect.TypeOf((*T)(nil)).Elem(), name, v)
	}
	return typed, nil
}

// MustGet is like Resolve but panics on error. Use it while wiring.
func MustGet[T any](c *Container, name string) T {
	v, err := Resolve[T](c, name)
	if err != nil {
		panic(err)
	}
	return v
}
