package tool

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

var (
	intPrefix    = regexp.MustCompile(`^\s*[+-]?\d+`)
	floatPrefix  = regexp.MustCompile(`^\s*[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)
	commaDecimal = regexp.MustCompile(`^-?[0-9]*,[0-9]+$`)
	falseStrings = map[string]bool{"false": true, "null": true, "": true, "0": true}
)

// ParseString converts v to a string, cutting it to length runes when
// length is positive. Booleans become "1" and "".
func ParseString(v any, length int) string {
	s := toString(v)
	if length > 0 && utf8.RuneCountInString(s) > length {
		return string([]rune(s)[:length])
	}
	return s
}

// ParseInt converts v to an int. Strings contribute their leading number,
// so "42abc" is 42 and "abc" is 0. Out-of-range values saturate.
func ParseInt(v any) int {
	switch t := v.(type) {
	case nil:
		return 0
	case bool:
		if t {
			return 1
		}
		return 0
	case int:
		return t
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return int(reflect.ValueOf(t).Convert(reflect.TypeOf((*int64)(nil)).Elem()).Int())
	case float32:
		return floatToInt(float64(t))
	case float64:
		return floatToInt(t)
	case string:
		return stringToInt(t)
	case []byte:
		return stringToInt(string(t))
	default:
		return stringToInt(toString(v))
	}
}

// ParseFloat converts v to a float64. A string using a comma as its only
// decimal separator ("-1,5") is read as a decimal point.
func ParseFloat(v any) float64 {
	switch t := v.(type) {
	case nil:
		return 0
	case bool:
		if t {
			return 1
		}
		return 0
	case float64:
		return t
	case float32:
		return float64(t)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return float64(ParseInt(t))
	case string:
		return stringToFloat(t)
	default:
		return stringToFloat(toString(v))
	}
}

// ParseBool is false for nil, false, zero numbers and the strings "false",
// "null", "" and "0" in any case. Everything else is true.
func ParseBool(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return !falseStrings[strings.ToLower(strings.TrimSpace(t))]
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return ParseFloat(t) != 0
	default:
		return true
	}
}

// ParseArray converts v to a slice. Slices and arrays are copied element by
// element, nil becomes an empty slice and any other value is wrapped.
func ParseArray(v any) []any {
	if v == nil {
		return []any{}
	}
	if items, ok := v.([]any); ok {
		return items
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{v}
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

// ParseStrings applies ParseString to every element of ParseArray(v).
func ParseStrings(v any, length int) []string {
	return mapArray(v, func(item any) string { return ParseString(item, length) })
}

// ParseInts applies ParseInt to every element of ParseArray(v).
func ParseInts(v any) []int { return mapArray(v, ParseInt) }

// ParseFloats applies ParseFloat to every element of ParseArray(v).
func ParseFloats(v any) []float64 { return mapArray(v, ParseFloat) }

// ParseBools applies ParseBool to every element of ParseArray(v).
func ParseBools(v any) []bool { return mapArray(v, ParseBool) }

// FormatFloat is the string form ParseString gives a float: the shortest
// decimal form, switching to exponent form ("1.0E+20", "1.0E-5") when the
// decimal exponent is below -4 or at least 15.
func FormatFloat(f float64) string {
	if f == 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	mantissa, exp, _ := strings.Cut(strconv.FormatFloat(f, 'e', -1, 64), "e")
	if n, _ := strconv.Atoi(exp); n >= -4 && n < 15 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	if !strings.Contains(mantissa, ".") {
		mantissa += ".0"
	}
	digits := strings.TrimLeft(exp[1:], "0")
	if digits == "" {
		digits = "0"
	}
	return mantissa + "E" + exp[:1] + digits
}

func mapArray[T any](v any, fn func(any) T) []T {
	items := ParseArray(v)
	out := make([]T, len(items))
	for i, item := range items {
		out[i] = fn(item)
	}
	return out
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case bool:
		if t {
			return "1"
		}
		return ""
	case float64:
		return FormatFloat(t)
	case float32:
		return FormatFloat(float64(t))
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}

func stringToInt(s string) int {
	prefix := floatPrefix.FindString(s)
	if prefix == "" {
		return 0
	}
	if intPrefix.FindString(s) == prefix {
		n, _ := strconv.ParseInt(strings.TrimSpace(prefix), 10, 64)
		return int(n)
	}
	f, _ := strconv.ParseFloat(strings.TrimSpace(prefix), 64)
	return floatToInt(f)
}

func stringToFloat(s string) float64 {
	if commaDecimal.MatchString(s) {
		s = strings.Replace(s, ",", ".", 1)
	}
	prefix := floatPrefix.FindString(s)
	if prefix == "" {
		return 0
	}
	f, _ := strconv.ParseFloat(strings.TrimSpace(prefix), 64)
	return f
}

func floatToInt(f float64) int {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	default:
		return int(f)
	}
}
