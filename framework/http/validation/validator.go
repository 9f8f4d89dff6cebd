package validation

import (
	"fmt"
	"net/mail"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	gohttp "github.com/km-arc/simple-structure/framework/http"
	"github.com/km-arc/simple-structure/framework/tool"
)

// ── Types ────────────────────────────────────────────────────────────────────

// Errors holds messages per field.
// JSON output: {"errors": {"field": ["msg1", "msg2"]}}
type Errors struct {
	Bag map[string][]string `json:"errors"`
}

func (e *Errors) add(field, msg string) {
	if e.Bag == nil {
		e.Bag = make(map[string][]string)
	}
	e.Bag[field] = append(e.Bag[field], msg)
}

// Has returns true if there are any errors.
func (e *Errors) Has() bool { return len(e.Bag) > 0 }

// First returns the first error for a field.
func (e *Errors) First(field string) string {
	if msgs, ok := e.Bag[field]; ok && len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Rules maps a field to its pipe-separated rules.
// e.g. Rules{"email": "required|email", "age": "required|integer|gte:18"}
type Rules map[string]string

// Validator checks a parameter pack against Rules. Fields are checked in
// name order and a field stops at its first failing rule.
type Validator struct {
	data      *tool.ParamPack
	rules     Rules
	errors    *Errors
	validated bool
}

// Make creates a Validator over data, usually req.Params.
//
//	v := validation.Make(req.Params, validation.Rules{"name": "required|min:2"})
func Make(data *tool.ParamPack, rules Rules) *Validator {
	return &Validator{data: data, rules: rules, errors: &Errors{}}
}

// FromMap is Make over a plain map.
func FromMap(data map[string]any, rules Rules) *Validator {
	return Make(tool.NewParamPack(data), rules)
}

// Fails runs validation and returns true if any rule fails.
func (v *Validator) Fails() bool {
	v.validate()
	return v.errors.Has()
}

// Passes runs validation and returns true if all rules pass.
func (v *Validator) Passes() bool { return !v.Fails() }

// Errors returns the validation error bag.
func (v *Validator) Errors() *Errors { return v.errors }

// Validate returns nil or a 400 WebError whose Fields are the error bag.
//
//	if err := validation.Make(req.Params, rules).Validate(); err != nil {
//	    return err
//	}
func (v *Validator) Validate() error {
	if !v.Fails() {
		return nil
	}
	err := gohttp.BadRequest("The given data was invalid.")
	err.Fields = v.errors.Bag
	return err
}

// ── Core validation loop ─────────────────────────────────────────────────────

type input struct {
	name    string
	raw     any
	value   string
	present bool
}

func (v *Validator) validate() {
	if v.validated {
		return
	}
	v.validated = true

	fields := make([]string, 0, len(v.rules))
	for field := range v.rules {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		raw, present := v.data.Lookup(field)
		in := input{name: field, raw: raw, value: tool.ParseString(raw, 0), present: present}

		for _, rule := range strings.Split(v.rules[field], "|") {
			rule = strings.TrimSpace(rule)
			if rule == "" {
				continue
			}
			name, param, _ := strings.Cut(rule, ":")
			if !v.apply(in, name, param) {
				break
			}
		}
	}
}

// apply returns false when the remaining rules of the field must be
// skipped, either because the rule failed or because it ends checking.
func (v *Validator) apply(in input, name, param string) bool {
	switch name {
	case "nullable":
		return in.present && strings.TrimSpace(in.value) != ""
	case "sometimes":
		return in.present
	}
	check, ok := checks[name]
	if !ok {
		return true
	}
	if msg := check(v, in, param); msg != "" {
		v.errors.add(in.name, msg)
		return false
	}
	return true
}

// ── Rules ────────────────────────────────────────────────────────────────────

// check returns an error message, or "" when the rule passes.
type check func(v *Validator, in input, param string) string

var (
	alphaRe     = regexp.MustCompile(`^[a-zA-Z]+$`)
	alphaNumRe  = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
	alphaDashRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	urlRe       = regexp.MustCompile(`^https?://`)
	booleans    = map[string]bool{"true": true, "false": true, "1": true, "0": true, "yes": true, "no": true}
)

var checks map[string]check

func init() {
	checks = map[string]check{
		"required": func(_ *Validator, in input, _ string) string {
			if items, isList := in.raw.([]any); isList && len(items) > 0 {
				return ""
			}
			if strings.TrimSpace(in.value) == "" {
				return fmt.Sprintf("The %s field is required.", in.name)
			}
			return ""
		},
		"string": func(_ *Validator, in input, _ string) string {
			if _, isList := in.raw.([]any); isList {
				return fmt.Sprintf("The %s must be a string.", in.name)
			}
			return ""
		},
		"numeric": func(_ *Validator, in input, _ string) string {
			if _, err := strconv.ParseFloat(in.value, 64); err != nil {
				return fmt.Sprintf("The %s must be a number.", in.name)
			}
			return ""
		},
		"integer": func(_ *Validator, in input, _ string) string {
			if _, err := strconv.Atoi(in.value); err != nil {
				return fmt.Sprintf("The %s must be an integer.", in.name)
			}
			return ""
		},
		"boolean": func(_ *Validator, in input, _ string) string {
			if !booleans[strings.ToLower(in.value)] {
				return fmt.Sprintf("The %s field must be true or false.", in.name)
			}
			return ""
		},
		"email": func(_ *Validator, in input, _ string) string {
			if _, err := mail.ParseAddress(in.value); err != nil {
				return fmt.Sprintf("The %s must be a valid email address.", in.name)
			}
			return ""
		},
		"url":        pattern(urlRe, "The %s must be a valid URL."),
		"alpha":      pattern(alphaRe, "The %s may only contain letters."),
		"alpha_num":  pattern(alphaNumRe, "The %s may only contain letters and numbers."),
		"alpha_dash": pattern(alphaDashRe, "The %s may only contain letters, numbers, dashes and underscores."),
		"regex": func(_ *Validator, in input, param string) string {
			re, err := regexp.Compile(param)
			if err != nil || !re.MatchString(in.value) {
				return fmt.Sprintf("The %s format is invalid.", in.name)
			}
			return ""
		},
		"min": length(func(l, n int) bool { return l >= n }, "The %s must be at least %d characters."),
		"max": length(func(l, n int) bool { return l <= n }, "The %s may not be greater than %d characters."),
		"size": length(func(l, n int) bool { return l == n }, "The %s must be %d characters."),
		"between": func(_ *Validator, in input, param string) string {
			lo, hi, ok := strings.Cut(param, ",")
			if !ok {
				return ""
			}
			min, _ := strconv.Atoi(strings.TrimSpace(lo))
			max, _ := strconv.Atoi(strings.TrimSpace(hi))
			if l := utf8.RuneCountInString(in.value); l < min || l > max {
				return fmt.Sprintf("The %s must be between %d and %d characters.", in.name, min, max)
			}
			return ""
		},
		"in": func(_ *Validator, in input, param string) string {
			if !listed(param, in.value) {
				return fmt.Sprintf("The selected %s is invalid.", in.name)
			}
			return ""
		},
		"not_in": func(_ *Validator, in input, param string) string {
			if listed(param, in.value) {
				return fmt.Sprintf("The selected %s is invalid.", in.name)
			}
			return ""
		},
		"confirmed": func(v *Validator, in input, _ string) string {
			if v.data.String(in.name+"_confirmation", "") != in.value {
				return fmt.Sprintf("The %s confirmation does not match.", in.name)
			}
			return ""
		},
		"same": func(v *Validator, in input, param string) string {
			if v.data.String(param, "") != in.value {
				return fmt.Sprintf("The %s and %s must match.", in.name, param)
			}
			return ""
		},
		"different": func(v *Validator, in input, param string) string {
			if v.data.String(param, "") == in.value {
				return fmt.Sprintf("The %s and %s must be different.", in.name, param)
			}
			return ""
		},
		"gt":  compare(func(f, t float64) bool { return f > t }, "The %s must be greater than %s."),
		"gte": compare(func(f, t float64) bool { return f >= t }, "The %s must be greater than or equal to %s."),
		"lt":  compare(func(f, t float64) bool { return f < t }, "The %s must be less than %s."),
		"lte": compare(func(f, t float64) bool { return f <= t }, "The %s must be less than or equal to %s."),
	}
}

func pattern(re *regexp.Regexp, format string) check {
	return func(_ *Validator, in input, _ string) string {
		if !re.MatchString(in.value) {
			return fmt.Sprintf(format, in.name)
		}
		return ""
	}
}

func length(ok func(l, n int) bool, format string) check {
	return func(_ *Validator, in input, param string) string {
		n, _ := strconv.Atoi(param)
		if !ok(utf8.RuneCountInString(in.value), n) {
			return fmt.Sprintf(format, in.name, n)
		}
		return ""
	}
}

func compare(ok func(f, t float64) bool, format string) check {
	return func(_ *Validator, in input, param string) string {
		f, _ := strconv.ParseFloat(in.value, 64)
		t, _ := strconv.ParseFloat(param, 64)
		if !ok(f, t) {
			return fmt.Sprintf(format, in.name, param)
		}
		return ""
	}
}

func listed(param, value string) bool {
	for _, item := range strings.Split(param, ",") {
		if strings.TrimSpace(item) == value {
			return true
		}
	}
	return false
}
