package http

import "strings"

// Method is a lower-cased request method.
type Method string

const (
	MethodDelete  Method = "delete"
	MethodGet     Method = "get"
	MethodOptions Method = "options"
	MethodPatch   Method = "patch"
	MethodPost    Method = "post"
	MethodPut     Method = "put"
)

// Methods lists every supported method.
var Methods = []Method{MethodDelete, MethodGet, MethodOptions, MethodPatch, MethodPost, MethodPut}

// ParseMethod lower-cases s. Anything outside Methods becomes MethodGet.
func ParseMethod(s string) Method {
	m := Method(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Methods {
		if m == known {
			return m
		}
	}
	return MethodGet
}

// Valid reports whether m is one of Methods.
func (m Method) Valid() bool {
	for _, known := range Methods {
		if m == known {
			return true
		}
	}
	return false
}

// Upper returns the wire form, e.g. "GET".
func (m Method) Upper() string { return strings.ToUpper(string(m)) }

func (m Method) String() string { return string(m) }
