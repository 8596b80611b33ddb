package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"ecg-pomodoro/pkg/api"

	"github.com/go-playground/validator/v10"
	"github.com/tidwall/gjson"
)

// ValidationError is returned when a request does not match its schema. It is
// rendered as a 422 listing every offending field.
type ValidationError struct {
	Errors []api.FieldError
}

func newValidationError(errs ...api.FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		msgs = append(msgs, fmt.Sprintf("%s: %s", locString(fe.Loc), fe.Msg))
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func locString(loc []any) string {
	parts := make([]string, len(loc))
	for i, p := range loc {
		parts[i] = fmt.Sprint(p)
	}
	return strings.Join(parts, ".")
}

var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report wire names instead of Go field names
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, tag := range []string{"json", "schema"} {
			name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return field.Name
	})
	return v
}()

// missingFields reports keys from a dotted path that are absent or null in
// doc. A "*" segment applies the rest of the path to every array element.
func missingFields(doc gjson.Result, path string) []api.FieldError {
	return missingAt(doc, strings.Split(path, "."), []any{"body"})
}

func missingAt(node gjson.Result, parts []string, loc []any) []api.FieldError {
	key := parts[0]
	if key == "*" {
		if !node.IsArray() {
			return nil
		}
		var errs []api.FieldError
		for i, el := range node.Array() {
			errs = append(errs, missingAt(el, parts[1:], appendLoc(loc, i))...)
		}
		return errs
	}

	// a parent of the wrong type is reported by the decoder
	if !node.IsObject() {
		return nil
	}

	child := node.Get(key)
	childLoc := appendLoc(loc, key)
	switch {
	case !child.Exists():
		return []api.FieldError{{Loc: childLoc, Msg: "field required", Type: "value_error.missing"}}
	case child.Type == gjson.Null:
		return []api.FieldError{{Loc: childLoc, Msg: "none is not an allowed value", Type: "type_error.none.not_allowed"}}
	case len(parts) == 1:
		return nil
	}
	return missingAt(child, parts[1:], childLoc)
}

func appendLoc(loc []any, part any) []any {
	out := make([]any, len(loc), len(loc)+1)
	copy(out, loc)
	return append(out, part)
}

func memberObject(key, value gjson.Result) []byte {
	out := make([]byte, 0, len(key.Raw)+len(value.Raw)+3)
	out = append(out, '{')
	out = append(out, key.Raw...)
	out = append(out, ':')
	out = append(out, value.Raw...)
	return append(out, '}')
}

// appendUncovered adds the errors whose location is not already reported,
// either exactly or under a reported parent. A missing or mistyped field is
// not reported again as out of range.
func appendUncovered(errs, more []api.FieldError) []api.FieldError {
	reported := len(errs)
	for _, fe := range more {
		if !covered(errs[:reported], fe.Loc) {
			errs = append(errs, fe)
		}
	}
	return errs
}

func covered(errs []api.FieldError, loc []any) bool {
	for _, fe := range errs {
		if len(fe.Loc) <= len(loc) && slices.Equal(fe.Loc, loc[:len(fe.Loc)]) {
			return true
		}
	}
	return false
}

func decodeFieldError(err error) api.FieldError {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		loc := []any{"body"}
		if typeErr.Field != "" {
			for _, p := range strings.Split(typeErr.Field, ".") {
				loc = append(loc, p)
			}
		}
		return api.FieldError{
			Loc:  loc,
			Msg:  fmt.Sprintf("expected %s, got %s", typeName(typeErr.Type), typeErr.Value),
			Type: "type_error",
		}
	}
	return api.FieldError{Loc: []any{"body"}, Msg: err.Error(), Type: "value_error"}
}

func typeName(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Struct, reflect.Map:
		return "object"
	default:
		return t.String()
	}
}

func structFieldErrors(source string, err error) []api.FieldError {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []api.FieldError{{Loc: []any{source}, Msg: err.Error(), Type: "value_error"}}
	}

	out := make([]api.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		msg, typ := describeTag(fe)
		out = append(out, api.FieldError{Loc: namespaceLoc(source, fe.Namespace()), Msg: msg, Type: typ})
	}
	return out
}

// namespaceLoc turns "EcgSegment.channels[0].name" into
// [source, "channels", 0, "name"].
func namespaceLoc(source, namespace string) []any {
	loc := []any{source}
	parts := strings.Split(namespace, ".")
	for _, part := range parts[1:] {
		name := part
		var indices []any
		if i := strings.IndexByte(part, '['); i >= 0 {
			name = part[:i]
			for _, idx := range strings.Split(strings.Trim(part[i:], "[]"), "][") {
				if n, err := strconv.Atoi(idx); err == nil {
					indices = append(indices, n)
				} else {
					indices = append(indices, idx)
				}
			}
		}
		loc = append(loc, name)
		loc = append(loc, indices...)
	}
	return loc
}

func describeTag(fe validator.FieldError) (string, string) {
	switch fe.Tag() {
	case "min":
		return "ensure this value is greater than or equal to " + fe.Param(), "value_error.number.not_ge"
	case "max":
		return "ensure this value is less than or equal to " + fe.Param(), "value_error.number.not_le"
	case "eq":
		return fmt.Sprintf("unexpected value; permitted: '%s'", fe.Param()), "value_error.const"
	case "required":
		return "field required", "value_error.missing"
	default:
		return fmt.Sprintf("failed on the '%s' constraint", fe.Tag()), "value_error"
	}
}
