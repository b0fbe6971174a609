package expr

import (
	"math"
	"reflect"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/vango-dev/weave/pkg/scope"
)

// Sentinel is a distinguished non-value.
type Sentinel struct {
	name string
}

func (s *Sentinel) String() string {
	return s.name
}

var (
	// Undefined is the value of a missing property or unbound path segment.
	Undefined = &Sentinel{name: "undefined"}

	// EvaluationError is returned by Evaluate in place of any failure.
	EvaluationError = &Sentinel{name: "evaluation error"}
)

// IsAbsent reports whether v is nil, Undefined, EvaluationError, or a nil
// pointer, map, slice, or func.
func IsAbsent(v any) bool {
	switch v {
	case nil, Undefined, EvaluationError:
		return true
	}
	return isNilRef(reflect.ValueOf(v))
}

func isNilRef(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// isNullish is the ?. and ?? test: nil or Undefined.
func isNullish(v any) bool {
	return v == nil || v == Undefined || isNilRef(reflect.ValueOf(v))
}

// Truthy reports whether v counts as true in a condition. nil, Undefined,
// EvaluationError, false, 0, NaN, "" and nil references are false.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case *Sentinel:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0 && !math.IsNaN(x)
	case int:
		return x != 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.String:
		return rv.Len() > 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f != 0 && !math.IsNaN(f)
	}
	return !isNilRef(rv)
}

func isNumber(v any) bool {
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func isString(v any) bool {
	return reflect.ValueOf(v).Kind() == reflect.String
}

// ToNumber converts v to float64. Values with no numeric reading give NaN.
func ToNumber(v any) float64 {
	switch x := v.(type) {
	case nil:
		return 0
	case float64:
		return x
	case int:
		return float64(x)
	case bool:
		if x {
			return 1
		}
		return 0
	case *Sentinel:
		return math.NaN()
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Bool:
		if rv.Bool() {
			return 1
		}
		return 0
	case reflect.String:
		s := strings.TrimSpace(rv.String())
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	}
	return math.NaN()
}

// FormatNumber formats f the way template output expects: integers without
// a fractional part, NaN and infinities by name.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ToString converts v to its string form as used by + concatenation.
func ToString(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case *Sentinel:
		return x.name
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return FormatNumber(x)
	case int:
		return strconv.Itoa(x)
	case interface{ String() string }:
		return x.String()
	}
	if isNumber(v) {
		return FormatNumber(ToNumber(v))
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Slice, reflect.Array:
		parts := make([]string, rv.Len())
		for i := range parts {
			elem := rv.Index(i).Interface()
			if !isNullish(elem) {
				parts[i] = ToString(elem)
			}
		}
		return strings.Join(parts, ",")
	case reflect.Map, reflect.Struct, reflect.Pointer:
		if isNilRef(rv) {
			return "null"
		}
		return "[object]"
	case reflect.Func:
		return "[function]"
	}
	return "[object]"
}

// strictEqual implements ===.
func strictEqual(a, b any) bool {
	if isNumber(a) && isNumber(b) {
		return ToNumber(a) == ToNumber(b)
	}
	if isNullish(a) || isNullish(b) {
		an := a == Undefined
		bn := b == Undefined
		return isNullish(a) && isNullish(b) && an == bn
	}
	if a == EvaluationError || b == EvaluationError {
		return false
	}
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ra.Kind() == reflect.String && rb.Kind() == reflect.String {
		return ra.String() == rb.String()
	}
	if ra.Type() != rb.Type() {
		return false
	}
	switch ra.Kind() {
	case reflect.Map, reflect.Func:
		return ra.Pointer() == rb.Pointer()
	case reflect.Slice:
		return ra.Pointer() == rb.Pointer() && ra.Len() == rb.Len()
	}
	if ra.Comparable() {
		return ra.Equal(rb)
	}
	return false
}

// looseEqual implements ==: null and undefined are equal to each other,
// and numbers compare against numeric strings and booleans.
func looseEqual(a, b any) bool {
	if isNullish(a) || isNullish(b) {
		return isNullish(a) && isNullish(b)
	}
	_, aBool := a.(bool)
	_, bBool := b.(bool)
	if (isNumber(a) || aBool) && (isString(b) || isNumber(b) || bBool) ||
		(isNumber(b) || bBool) && (isString(a) || isNumber(a) || aBool) {
		if isString(a) && isString(b) {
			return ToString(a) == ToString(b)
		}
		return ToNumber(a) == ToNumber(b)
	}
	return strictEqual(a, b)
}

// compare implements the relational operators. Two strings compare
// lexically; anything else compares numerically, and NaN is unordered.
func compare(op string, a, b any) bool {
	if isString(a) && isString(b) {
		x, y := ToString(a), ToString(b)
		switch op {
		case "<":
			return x < y
		case "<=":
			return x <= y
		case ">":
			return x > y
		default:
			return x >= y
		}
	}
	x, y := ToNumber(a), ToNumber(b)
	switch op {
	case "<":
		return x < y
	case "<=":
		return x <= y
	case ">":
		return x > y
	default:
		return x >= y
	}
}

// getMember reads property name of obj. ok is false when obj is nullish or
// has no such property.
func getMember(obj any, name string) (any, bool) {
	switch m := obj.(type) {
	case nil:
		return nil, false
	case *Sentinel:
		return nil, false
	case scope.Context:
		v, ok := m[name]
		if !ok && name == "length" {
			return float64(len(m)), true
		}
		return v, ok
	case map[string]any:
		v, ok := m[name]
		if !ok && name == "length" {
			return float64(len(m)), true
		}
		return v, ok
	}

	rv := reflect.ValueOf(obj)
	if isNilRef(rv) {
		return nil, false
	}
	if fn, ok := methodByName(rv, name); ok {
		return fn, true
	}
	base := rv
	for base.Kind() == reflect.Pointer || base.Kind() == reflect.Interface {
		base = base.Elem()
		if isNilRef(base) {
			return nil, false
		}
	}

	switch base.Kind() {
	case reflect.Map:
		if key, ok := mapKey(base.Type().Key(), name); ok {
			if v := base.MapIndex(key); v.IsValid() {
				return v.Interface(), true
			}
		}
		if name == "length" {
			return float64(base.Len()), true
		}
	case reflect.Struct:
		if v, ok := structField(base, name); ok {
			return v, true
		}
	case reflect.Slice, reflect.Array:
		if name == "length" {
			return float64(base.Len()), true
		}
	case reflect.String:
		if name == "length" {
			return float64(utf8.RuneCountInString(base.String())), true
		}
	}
	return nil, false
}

// methodByName finds an exported method by its template name, which may be
// written in lower camel case.
func methodByName(rv reflect.Value, name string) (any, bool) {
	if rv.NumMethod() == 0 || name == "" {
		return nil, false
	}
	for _, n := range []string{name, exportedName(name)} {
		if m := rv.MethodByName(n); m.IsValid() {
			return m.Interface(), true
		}
	}
	return nil, false
}

func structField(rv reflect.Value, name string) (any, bool) {
	t := rv.Type()
	if f, ok := t.FieldByName(name); ok && f.IsExported() {
		return rv.FieldByIndex(f.Index).Interface(), true
	}
	if f, ok := t.FieldByName(exportedName(name)); ok && f.IsExported() {
		return rv.FieldByIndex(f.Index).Interface(), true
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if tag == name {
			return rv.Field(i).Interface(), true
		}
	}
	return nil, false
}

func exportedName(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError || unicode.IsUpper(r) {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}

func mapKey(t reflect.Type, name string) (reflect.Value, bool) {
	switch t.Kind() {
	case reflect.String:
		return reflect.ValueOf(name).Convert(t), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(name, 10, 64)
		if err != nil {
			return reflect.Value{}, false
		}
		return reflect.ValueOf(n).Convert(t), true
	case reflect.Interface:
		if t.NumMethod() == 0 {
			return reflect.ValueOf(name), true
		}
	}
	return reflect.Value{}, false
}

// getIndex implements obj[idx]. Numeric indexes address slices, arrays and
// strings; everything else falls back to property access.
func getIndex(obj, idx any) (any, bool) {
	if isNumber(idx) {
		rv := reflect.ValueOf(obj)
		for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
			if rv.IsNil() {
				return nil, false
			}
			rv = rv.Elem()
		}
		switch rv.Kind() {
		case reflect.Slice, reflect.Array:
			f := ToNumber(idx)
			i := int(f)
			if float64(i) != f || i < 0 || i >= rv.Len() {
				return nil, false
			}
			return rv.Index(i).Interface(), true
		case reflect.String:
			runes := []rune(rv.String())
			f := ToNumber(idx)
			i := int(f)
			if float64(i) != f || i < 0 || i >= len(runes) {
				return nil, false
			}
			return string(runes[i]), true
		}
	}
	return getMember(obj, ToString(idx))
}

// Length returns the element count of a slice or array collection.
// ok is false for anything that is not a list.
func Length(v any) (int, bool) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return 0, false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return rv.Len(), true
	}
	return 0, false
}

// Items returns the elements of a slice or array as []any. ok is false for
// anything that is not a list.
func Items(v any) ([]any, bool) {
	if items, ok := v.([]any); ok {
		return items, true
	}
	n, ok := Length(v)
	if !ok {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		rv = rv.Elem()
	}
	items := make([]any, n)
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// call invokes fn through reflection. Missing arguments are zero values and
// extra arguments are dropped. A trailing non-nil error result and a panic
// are both reported as call errors.
func call(name string, fn any, args []any) (result any, rerr *RuntimeError) {
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func || rv.IsNil() {
		return nil, typeError("%s is not a function", name)
	}
	ft := rv.Type()

	in := make([]reflect.Value, 0, len(args))
	fixed := ft.NumIn()
	if ft.IsVariadic() {
		fixed--
	}
	for i := 0; i < fixed; i++ {
		var arg any = Undefined
		if i < len(args) {
			arg = args[i]
		}
		v, err := convertArg(arg, ft.In(i))
		if err != nil {
			return nil, typeError("%s: argument %d: %s", name, i, err.Msg)
		}
		in = append(in, v)
	}
	if ft.IsVariadic() {
		elem := ft.In(fixed).Elem()
		for i := fixed; i < len(args); i++ {
			v, err := convertArg(args[i], elem)
			if err != nil {
				return nil, typeError("%s: argument %d: %s", name, i, err.Msg)
			}
			in = append(in, v)
		}
	}

	defer func() {
		if r := recover(); r != nil {
			result = nil
			rerr = callError(nil, "%s panicked: %v", name, r)
		}
	}()
	out := rv.Call(in)

	switch len(out) {
	case 0:
		return Undefined, nil
	case 1:
		if ft.Out(0) == errorType {
			if err, _ := out[0].Interface().(error); err != nil {
				return nil, callError(err, "%s failed", name)
			}
			return Undefined, nil
		}
		return out[0].Interface(), nil
	default:
		last := out[len(out)-1]
		if ft.Out(len(out)-1) == errorType {
			if err, _ := last.Interface().(error); err != nil {
				return nil, callError(err, "%s failed", name)
			}
		}
		return out[0].Interface(), nil
	}
}

func convertArg(arg any, t reflect.Type) (reflect.Value, *RuntimeError) {
	if arg == nil || arg == Undefined {
		return reflect.Zero(t), nil
	}
	v := reflect.ValueOf(arg)
	if v.Type().AssignableTo(t) {
		return v, nil
	}
	switch {
	case isNumber(arg) && isNumericKind(t.Kind()):
		return v.Convert(t), nil
	case v.Kind() == reflect.String && t.Kind() == reflect.String:
		return v.Convert(t), nil
	}
	return reflect.Value{}, typeError("cannot use %T as %s", arg, t)
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
