package container

import (
	"errors"
	"fmt"
	"reflect"
)

// TargetKind tells how a Target builds its value. Both kinds are invoked the
// same way; the kind is kept for introspection.
type TargetKind int

const (
	// TargetConstructor builds a new object of a concrete type.
	TargetConstructor TargetKind = iota
	// TargetFactory is an arbitrary function whose result is stored as is.
	TargetFactory
)

// Target builds the value of a definition from its positional arguments:
// resolved dependencies, then fixed params, then params passed to Create.
type Target struct {
	Kind TargetKind
	Fn   func(args ...any) (any, error)
}

// Constructor wraps a function that constructs a concrete object.
//
//	c.SetObject("mailer", container.Constructor(func(args ...any) (any, error) {
//	    return &Mailer{Host: args[0].(string)}, nil
//	}), nil, "smtp.local")
func Constructor(fn func(args ...any) (any, error)) Target {
	return Target{Kind: TargetConstructor, Fn: fn}
}

// Factory wraps a function computing any value, scalar or object.
func Factory(fn func(args ...any) (any, error)) Target {
	return Target{Kind: TargetFactory, Fn: fn}
}

// MethodFunc is a deferred post-construction call on instance.
type MethodFunc func(instance any, args ...any) error

// Method adapts a method of T into a MethodFunc. The call fails with
// ErrBadMethodCall when the built instance is not a T.
//
//	def.AddMethodCall("SetA", container.Method(func(b *B, args ...any) error {
//	    b.A = args[0].(*A)
//	    return nil
//	}), container.Refs("a"))
func Method[T any](fn func(T, ...any) error) MethodFunc {
	return func(instance any, args ...any) error {
		typed, ok := instance.(T)
		if !ok {
			return ErrBadMethodCall
		}
		return fn(typed, args...)
	}
}

// MethodCall is one deferred call registered on a Definition.
type MethodCall struct {
	Method string
	Fn     MethodFunc
	Deps   []Ref
	Params []any
}

// Definition is the recipe for one named entry of a Container.
type Definition struct {
	container *Container
	name      string
	target    Target
	deps      []Ref
	params    []any
	calls     []MethodCall
}

func newDefinition(c *Container, name string, target Target, deps []Ref, params []any) *Definition {
	return &Definition{
		container: c,
		name:      name,
		target:    target,
		deps:      append([]Ref(nil), deps...),
		params:    append([]any(nil), params...),
	}
}

// Name returns the name the definition is registered under.
func (d *Definition) Name() string { return d.name }

// Kind returns the target kind.
func (d *Definition) Kind() TargetKind { return d.target.Kind }

// Dependencies returns the dependency references in declaration order.
func (d *Definition) Dependencies() []Ref { return append([]Ref(nil), d.deps...) }

// Params returns the fixed construction params.
func (d *Definition) Params() []any { return append([]any(nil), d.params...) }

// MethodCalls returns the registered deferred calls in order.
func (d *Definition) MethodCalls() []MethodCall { return append([]MethodCall(nil), d.calls...) }

// AddMethodCall appends a deferred call. Calls run at the end of every
// resolution pass that caches a singleton or creates an instance from this
// definition; fresh i: dependencies and instances that already exist are
// not touched.
func (d *Definition) AddMethodCall(method string, fn MethodFunc, deps []Ref, params ...any) *Definition {
	d.calls = append(d.calls, MethodCall{
		Method: method,
		Fn:     fn,
		Deps:   append([]Ref(nil), deps...),
		Params: append([]any(nil), params...),
	})
	return d
}

// Create builds a fresh instance, appending params after the fixed ones.
func (d *Definition) Create(params ...any) (v any, err error) {
	c := d.container
	err = c.run(func(p *pass) error {
		v, err = c.build(p, d, params, true)
		return err
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// CallMethods runs every registered method call on instance.
func (d *Definition) CallMethods(instance any) error {
	c := d.container
	return c.run(func(p *pass) error {
		return d.callMethods(c, p, instance)
	})
}

func (d *Definition) callMethods(c *Container, p *pass, instance any) error {
	for _, call := range d.calls {
		if call.Fn == nil {
			return d.missingMethod(call.Method)
		}
		args, err := c.resolveAll(p, call.Deps)
		if err != nil {
			return err
		}
		args = append(args, call.Params...)
		if err := call.Fn(instance, args...); err != nil {
			var cerr *Error
			if errors.Is(err, ErrBadMethodCall) && !errors.As(err, &cerr) {
				return d.missingMethod(call.Method)
			}
			return err
		}
	}
	return nil
}

func (d *Definition) missingMethod(method string) *Error {
	return newError(ErrBadMethodCall, "Method \"%s\" doesn't exist on \"%s\".", method, d.name)
}

func (d *Definition) clone(c *Container) *Definition {
	out := newDefinition(c, d.name, d.target, d.deps, d.params)
	out.calls = append([]MethodCall(nil), d.calls...)
	return out
}

// Arg returns args[i] as a T. It is meant for Target and MethodFunc bodies.
func Arg[T any](args []any, i int) (T, error) {
	var zero T
	if i < 0 || i >= len(args) {
		return zero, fmt.Errorf("container: argument %d out of range (%d given)", i, len(args))
	}
	typed, ok := args[i].(T)
	if !ok {
		return zero, fmt.Errorf("container: argument %d is %T, not %s", i, args[i], reflect.TypeOf((*T)(nil)).Elem())
	}
	return typed, nil
}
