package http

import (
	"reflect"
	"strconv"

	"github.com/km-arc/simple-structure/framework/tool"
)

// Form is an outbound form body. Nested maps and slices are flattened into
// bracketed keys.
//
//	form := gohttp.NewForm().AddField("user", map[string]any{"name": "Ann"})
//	form.ToPostFields() // map[user[name]:Ann]
type Form struct {
	fields map[string]any
}

func NewForm() *Form {
	return &Form{fields: make(map[string]any)}
}

// AddField sets a top-level field.
func (f *Form) AddField(name string, value any) *Form {
	f.fields[name] = value
	return f
}

// ToPostFields flattens the form to string values keyed by path.
func (f *Form) ToPostFields() map[string]string {
	out := make(map[string]string)
	for name, value := range f.fields {
		flatten(name, value, out)
	}
	return out
}

func flatten(path string, value any, out map[string]string) {
	rv := reflect.ValueOf(value)
	switch {
	case value == nil:
		out[path] = ""
	case rv.Kind() == reflect.Map:
		iter := rv.MapRange()
		for iter.Next() {
			flatten(path+"["+tool.ParseString(iter.Key().Interface(), 0)+"]", iter.Value().Interface(), out)
		}
	case (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) && rv.Type().Elem().Kind() != reflect.Uint8:
		for i := 0; i < rv.Len(); i++ {
			flatten(path+"["+strconv.Itoa(i)+"]", rv.Index(i).Interface(), out)
		}
	default:
		out[path] = tool.ParseString(value, 0)
	}
}
