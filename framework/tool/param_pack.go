package tool

import (
	"reflect"
	"strconv"
)

// ParamPack is a set of named values with an ordered chain of parent packs
// consulted for names it does not hold itself.
//
//	params := tool.NewParamPack(nil).AddParent(form).AddParent(query)
//	page := params.Int("page", 1)
type ParamPack struct {
	params  map[string]any
	parents []*ParamPack
}

// NewParamPack wraps params. A nil map starts an empty pack.
func NewParamPack(params map[string]any) *ParamPack {
	if params == nil {
		params = make(map[string]any)
	}
	return &ParamPack{params: params}
}

// AddParent appends a fallback pack.
func (p *ParamPack) AddParent(parent *ParamPack) *ParamPack {
	p.parents = append(p.parents, parent)
	return p
}

// Lookup returns the first non-nil value of name in this pack or its
// parents.
func (p *ParamPack) Lookup(name string) (any, bool) {
	if v, ok := p.params[name]; ok && v != nil {
		return v, true
	}
	for _, parent := range p.parents {
		if v, ok := parent.Lookup(name); ok {
			return v, true
		}
	}
	return nil, false
}

// Get returns the value of name, or fallback.
func (p *ParamPack) Get(name string, fallback any) any {
	if v, ok := p.Lookup(name); ok {
		return v
	}
	return fallback
}

// Has reports whether name holds a value here or in a parent.
func (p *ParamPack) Has(name string) bool {
	_, ok := p.Lookup(name)
	return ok
}

// Add sets name in this pack.
func (p *ParamPack) Add(name string, value any) *ParamPack {
	p.params[name] = value
	return p
}

// Pack returns a copy of the values held by this pack, parents excluded.
func (p *ParamPack) Pack() map[string]any {
	out := make(map[string]any, len(p.params))
	for k, v := range p.params {
		out[k] = v
	}
	return out
}

// ── Typed getters ────────────────────────────────────────────────────────────

func (p *ParamPack) String(name, fallback string) string {
	return p.StringN(name, fallback, 0)
}

// StringN is String cut to length runes when length is positive.
func (p *ParamPack) StringN(name, fallback string, length int) string {
	if v, ok := p.Lookup(name); ok {
		return ParseString(v, length)
	}
	return fallback
}

func (p *ParamPack) Int(name string, fallback int) int {
	if v, ok := p.Lookup(name); ok {
		return ParseInt(v)
	}
	return fallback
}

func (p *ParamPack) Float(name string, fallback float64) float64 {
	if v, ok := p.Lookup(name); ok {
		return ParseFloat(v)
	}
	return fallback
}

func (p *ParamPack) Bool(name string, fallback bool) bool {
	if v, ok := p.Lookup(name); ok {
		return ParseBool(v)
	}
	return fallback
}

// Array returns name as a slice, empty when absent.
func (p *ParamPack) Array(name string) []any {
	v, _ := p.Lookup(name)
	return ParseArray(v)
}

func (p *ParamPack) Strings(name string, length int) []string {
	v, _ := p.Lookup(name)
	return ParseStrings(v, length)
}

func (p *ParamPack) Ints(name string) []int {
	v, _ := p.Lookup(name)
	return ParseInts(v)
}

func (p *ParamPack) Floats(name string) []float64 {
	v, _ := p.Lookup(name)
	return ParseFloats(v)
}

func (p *ParamPack) Bools(name string) []bool {
	v, _ := p.Lookup(name)
	return ParseBools(v)
}

// Option returns the value of name when it is one of available, or
// fallback. Numeric strings are compared as numbers, so "2" selects 2.
func (p *ParamPack) Option(name string, available []any, fallback any) any {
	v, ok := p.Lookup(name)
	if !ok {
		return fallback
	}
	if s, isString := v.(string); isString {
		if n, numeric := number(s); numeric && contains(available, n) {
			return n
		}
	}
	if contains(available, v) {
		return v
	}
	return fallback
}

func number(s string) (any, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, true
	}
	return nil, false
}

func contains(available []any, v any) bool {
	for _, a := range available {
		if equal(a, v) {
			return true
		}
	}
	return false
}

func equal(a, b any) bool {
	fa, aNum := numericValue(a)
	fb, bNum := numericValue(b)
	if aNum && bNum {
		return fa == fb
	}
	if a == nil || b == nil {
		return a == b
	}
	if !reflect.TypeOf(a).Comparable() || !reflect.TypeOf(b).Comparable() {
		return false
	}
	return a == b
}

func numericValue(v any) (float64, bool) {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return ParseFloat(v), true
	default:
		return 0, false
	}
}
