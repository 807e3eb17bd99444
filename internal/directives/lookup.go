package directives

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/weftml/weft/internal/directive"
)

// resolve evaluates a directive attribute value against the render context.
// The value language is deliberately small:
//
//   - ${a.b.c}  dotted-path lookup against the scope
//   - *{a.b.c}  dotted-path lookup against the selection target
//   - 'text'    string literal
//   - true, false, integers
//   - anything else is taken as a literal string
//
// Full expression evaluation stays outside the engine; templates needing
// more bind computed values into the scope before rendering.
func resolve(ctx directive.Context, expr string) any {
	expr = strings.TrimSpace(expr)

	switch {
	case strings.HasPrefix(expr, "${") && strings.HasSuffix(expr, "}"):
		path := expr[2 : len(expr)-1]
		first, rest, _ := strings.Cut(path, ".")
		root, ok := ctx.Variable(strings.TrimSpace(first))
		if !ok {
			return nil
		}
		if rest == "" {
			return root
		}
		return navigate(root, rest)

	case strings.HasPrefix(expr, "*{") && strings.HasSuffix(expr, "}"):
		root, ok := ctx.SelectionTarget()
		if !ok {
			return nil
		}
		return navigate(root, expr[2:len(expr)-1])

	case len(expr) >= 2 && expr[0] == '\'' && expr[len(expr)-1] == '\'':
		return expr[1 : len(expr)-1]

	case expr == "true":
		return true
	case expr == "false":
		return false
	}

	if n, err := strconv.Atoi(expr); err == nil {
		return n
	}
	return expr
}

// navigate follows a dotted path through maps, structs and pointers. A
// segment that cannot be followed resolves the whole path to nil.
func navigate(root any, path string) any {
	cur := root
	for _, seg := range strings.Split(path, ".") {
		seg = strings.TrimSpace(seg)
		if seg == "" || cur == nil {
			return nil
		}
		rv := reflect.ValueOf(cur)
		for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
			if rv.IsNil() {
				return nil
			}
			rv = rv.Elem()
		}

		switch rv.Kind() {
		case reflect.Map:
			if rv.Type().Key().Kind() != reflect.String {
				return nil
			}
			v := rv.MapIndex(reflect.ValueOf(seg))
			if !v.IsValid() {
				return nil
			}
			cur = v.Interface()

		case reflect.Struct:
			f := rv.FieldByName(seg)
			if !f.IsValid() {
				// YAML-style lowercase segments map onto exported fields.
				f = rv.FieldByName(strings.ToUpper(seg[:1]) + seg[1:])
			}
			if !f.IsValid() || !f.CanInterface() {
				return nil
			}
			cur = f.Interface()

		default:
			return nil
		}
	}
	return cur
}

// truthy follows the usual template-conditional convention: nil, false,
// zero, the empty string and empty collections are false.
func truthy(v any) bool {
	if v == nil {
		return false
	}
	switch x := v.(type) {
	case bool:
		return x
	case string:
		return x != ""
	case int:
		return x != 0
	case int64:
		return x != 0
	case float64:
		return x != 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}
