package routing

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/km-arc/simple-structure/framework/container"
	gohttp "github.com/km-arc/simple-structure/framework/http"
	"github.com/km-arc/simple-structure/framework/tool"
)

// Handler serves a matched action. vars are the path variables in template
// order, typed by their placeholder: int, float64 or string.
type Handler func(c *container.Container, res *gohttp.Response, req *gohttp.Request, vars ...any) error

// ErrNilHandler is returned by NewAction without a handler.
var ErrNilHandler = errors.New("routing: nil handler")

// Placeholder types.
const (
	TypeString = ""
	TypeInt    = "int"
	TypeFloat  = "float"
)

type segment struct {
	literal     string
	name        string
	kind        string
	placeholder bool
}

// Action is a route: a method, a path template and a handler.
//
// Templates are split on "/". A segment written {name} or {name:type}
// captures the request segment; type is int or float, anything else keeps
// the raw string. A typed segment matches only when the value reads back
// unchanged, so {id:int} takes "42" but not "042" or "4x".
//
//	a, err := routing.NewAction(gohttp.MethodGet, "/users/{id:int}", showUser)
type Action struct {
	method   gohttp.Method
	path     string
	segments []segment
	handler  Handler
}

// NewAction parses path once. The trailing slash of the template is
// ignored.
func NewAction(method gohttp.Method, path string, h Handler) (*Action, error) {
	m := gohttp.Method(strings.ToLower(string(method)))
	if !m.Valid() {
		return nil, fmt.Errorf("routing: unsupported method %q", method)
	}
	if h == nil {
		return nil, ErrNilHandler
	}
	path = strings.TrimRight(path, "/")
	return &Action{method: m, path: path, segments: parse(path), handler: h}, nil
}

func parse(path string) []segment {
	parts := strings.Split(path, "/")
	segments := make([]segment, len(parts))
	for i, part := range parts {
		if len(part) < 2 || part[0] != '{' || part[len(part)-1] != '}' {
			segments[i] = segment{literal: part}
			continue
		}
		name, kind, _ := strings.Cut(part[1:len(part)-1], ":")
		kind, _, _ = strings.Cut(kind, ":")
		segments[i] = segment{name: name, kind: kind, placeholder: true}
	}
	return segments
}

func (a *Action) Method() gohttp.Method { return a.method }

// Path returns the template without its trailing slash.
func (a *Action) Path() string { return a.path }

func (a *Action) String() string { return a.method.Upper() + " " + a.path }

// HasMatchedMethod compares methods case-insensitively.
func (a *Action) HasMatchedMethod(req *gohttp.Request) bool {
	return a.method == req.Method()
}

// HasMatchedPath reports whether the request path fits the template.
func (a *Action) HasMatchedPath(req *gohttp.Request) bool {
	_, ok := a.MatchPath(req.Path())
	return ok
}

// Match checks method and path and returns the extracted variables.
func (a *Action) Match(req *gohttp.Request) (Vars, bool) {
	if !a.HasMatchedMethod(req) {
		return Vars{}, false
	}
	return a.MatchPath(req.Path())
}

// MatchPath matches a cleaned request path. Every call starts from an
// empty set of variables.
func (a *Action) MatchPath(path string) (Vars, bool) {
	parts := strings.Split(path, "/")
	if len(parts) != len(a.segments) {
		return Vars{}, false
	}

	var vars Vars
	for i, seg := range a.segments {
		if !seg.placeholder {
			if parts[i] != seg.literal {
				return Vars{}, false
			}
			continue
		}
		value, ok := coerce(parts[i], seg.kind)
		if !ok {
			return Vars{}, false
		}
		vars.set(seg.name, value)
	}
	return vars, true
}

// coerce converts s to kind and accepts it only if it reads back as s.
func coerce(s, kind string) (any, bool) {
	switch kind {
	case TypeInt:
		n := tool.ParseInt(s)
		return n, strconv.Itoa(n) == s
	case TypeFloat:
		f := tool.ParseFloat(s)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, false
		}
		return f, tool.FormatFloat(f) == s
	default:
		return s, true
	}
}

// Execute calls the handler with vars spread after the request.
func (a *Action) Execute(c *container.Container, res *gohttp.Response, req *gohttp.Request, vars Vars) error {
	return a.handler(c, res, req, vars.Values()...)
}

// ── Vars ─────────────────────────────────────────────────────────────────────

// Vars holds path variables in template order. A name repeated in the
// template keeps its first position and its last value.
type Vars struct {
	names  []string
	values []any
}

func (v *Vars) set(name string, value any) {
	for i, n := range v.names {
		if n == name {
			v.values[i] = value
			return
		}
	}
	v.names = append(v.names, name)
	v.values = append(v.values, value)
}

func (v Vars) Len() int { return len(v.names) }

func (v Vars) Names() []string { return append([]string(nil), v.names...) }

func (v Vars) Values() []any { return append([]any(nil), v.values...) }

// Get returns the value of name.
func (v Vars) Get(name string) (any, bool) {
	for i, n := range v.names {
		if n == name {
			return v.values[i], true
		}
	}
	return nil, false
}

// ── Container target ─────────────────────────────────────────────────────────

// ActionTarget builds an *Action from (method, path, handler) params, so
// actions can be created through a container:
//
//	c.SetObject("action", routing.ActionTarget, nil)
//	a, err := c.Create("action", gohttp.MethodGet, "/users", handler)
var ActionTarget = container.Constructor(func(args ...any) (any, error) {
	if len(args) < 3 {
		return nil, fmt.Errorf("routing: action needs method, path and handler, got %d arguments", len(args))
	}
	var method gohttp.Method
	switch m := args[0].(type) {
	case gohttp.Method:
		method = m
	case string:
		method = gohttp.Method(m)
	default:
		return nil, fmt.Errorf("routing: action method is %T", args[0])
	}
	path, err := container.Arg[string](args, 1)
	if err != nil {
		return nil, err
	}
	var h Handler
	switch fn := args[2].(type) {
	case Handler:
		h = fn
	case func(*container.Container, *gohttp.Response, *gohttp.Request, ...any) error:
		h = fn
	default:
		return nil, fmt.Errorf("routing: action handler is %T", args[2])
	}
	return NewAction(method, path, h)
})
