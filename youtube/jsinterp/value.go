package jsinterp

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind enumerates the closed set of value types the interpreter operates on.
type Kind int

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindStr
	KindBool
	KindList
	KindObject
	KindFunc
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindStr:
		return "string"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindObject:
		return "object"
	case KindFunc:
		return "function"
	}
	return "unknown"
}

// Func is a callable produced from extracted JS source.
type Func func(args []Value) (Value, error)

// Value is a dynamically typed interpreter value. Lists share their backing
// storage between copies so in-place methods (splice, reverse, indexed
// assignment) are visible through every binding, matching JS array
// semantics.
type Value struct {
	kind Kind
	i    int
	f    float64
	s    string
	b    bool
	list *[]Value
	obj  map[string]Value
	fn   Func
}

// Null returns the null value.
func Null() Value { return Value{kind: KindNull} }

// Int wraps an integer.
func Int(i int) Value { return Value{kind: KindInt, i: i} }

// Float wraps a floating-point number.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Str wraps a string.
func Str(s string) Value { return Value{kind: KindStr, s: s} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// List wraps a sequence. The elements are shared, not copied.
func List(elems []Value) Value { return Value{kind: KindList, list: &elems} }

// Object wraps a string-keyed mapping.
func Object(m map[string]Value) Value { return Value{kind: KindObject, obj: m} }

// Function wraps a callable.
func Function(fn Func) Value { return Value{kind: KindFunc, fn: fn} }

// Kind reports the value's type tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsInt returns the integral form of a numeric value.
func (v Value) AsInt() (int, bool) {
	switch v.kind {
	case KindInt:
		return v.i, true
	case KindFloat:
		if v.f == math.Trunc(v.f) {
			return int(v.f), true
		}
	}
	return 0, false
}

// AsFloat returns the numeric value as a float64.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	}
	return 0, false
}

// AsStr returns the string payload.
func (v Value) AsStr() (string, bool) {
	if v.kind == KindStr {
		return v.s, true
	}
	return "", false
}

// AsList returns the shared element slice.
func (v Value) AsList() (*[]Value, bool) {
	if v.kind == KindList {
		return v.list, true
	}
	return nil, false
}

// AsObject returns the mapping payload.
func (v Value) AsObject() (map[string]Value, bool) {
	if v.kind == KindObject {
		return v.obj, true
	}
	return nil, false
}

// AsFunc returns the callable payload.
func (v Value) AsFunc() (Func, bool) {
	if v.kind == KindFunc {
		return v.fn, true
	}
	return nil, false
}

// Equal compares two values structurally. Functions never compare equal.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindStr:
		return v.s == o.s
	case KindBool:
		return v.b == o.b
	case KindList:
		a, b := *v.list, *o.list
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if !a[i].Equal(b[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.obj) != len(o.obj) {
			return false
		}
		for k, av := range v.obj {
			bv, ok := o.obj[k]
			if !ok || !av.Equal(bv) {
				return false
			}
		}
		return true
	}
	return false
}

// JSON serializes the value as a JSON literal, the form substituted back
// into an expression after a parenthesized sub-expression is evaluated.
// Functions serialize as null.
func (v Value) JSON() string {
	switch v.kind {
	case KindNull, KindFunc:
		return "null"
	case KindInt:
		return strconv.Itoa(v.i)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindStr:
		b, _ := json.Marshal(v.s)
		return string(b)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindList:
		parts := make([]string, len(*v.list))
		for i, e := range *v.list {
			parts[i] = e.JSON()
		}
		return "[" + strings.Join(parts, ",") + "]"
	case KindObject:
		keys := make([]string, 0, len(v.obj))
		for k := range v.obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			kb, _ := json.Marshal(k)
			parts[i] = string(kb) + ":" + v.obj[k].JSON()
		}
		return "{" + strings.Join(parts, ",") + "}"
	}
	return "null"
}

func (v Value) String() string { return v.JSON() }

// fromJSONValue converts a decoded encoding/json value into a Value.
// Integral float64 numbers become ints, matching how JS treats indices.
func fromJSONValue(x any) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(t)
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1<<53 {
			return Int(int(t))
		}
		return Float(t)
	case string:
		return Str(t)
	case []any:
		elems := make([]Value, len(t))
		for i, e := range t {
			elems[i] = fromJSONValue(e)
		}
		return List(elems)
	case map[string]any:
		m := make(map[string]Value, len(t))
		for k, e := range t {
			m[k] = fromJSONValue(e)
		}
		return Object(m)
	}
	return Null()
}

// parseJSONLiteral parses a JSON literal (array, object, quoted string,
// number, boolean, null) into a Value.
func parseJSONLiteral(s string) (Value, error) {
	var x any
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	if err := dec.Decode(&x); err != nil {
		return Null(), err
	}
	// Reject trailing garbage so "a[1]" does not half-parse.
	if dec.More() {
		return Null(), fmt.Errorf("trailing data in JSON literal")
	}
	return fromNumberAware(x), nil
}

func fromNumberAware(x any) Value {
	switch t := x.(type) {
	case json.Number:
		if i, err := strconv.Atoi(t.String()); err == nil {
			return Int(i)
		}
		f, _ := t.Float64()
		return Float(f)
	case []any:
		elems := make([]Value, len(t))
		for i, e := range t {
			elems[i] = fromNumberAware(e)
		}
		return List(elems)
	case map[string]any:
		m := make(map[string]Value, len(t))
		for k, e := range t {
			m[k] = fromNumberAware(e)
		}
		return Object(m)
	default:
		return fromJSONValue(x)
	}
}
