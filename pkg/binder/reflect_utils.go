package binder

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

func bindValues(v any, tag string, values map[string][]string, bindErr error) error {
	return bindFields(v, tag, func(name string) []string { return values[name] }, bindErr)
}

// bindFields walks the exported fields of the struct v points to and sets
// each one from lookup. Fields without values keep their zero value.
func bindFields(v any, tag string, lookup func(name string) []string, bindErr error) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w: target must be a non-nil pointer to struct", bindErr)
	}
	rv = rv.Elem()
	rt := rv.Type()

	for i := range rv.NumField() {
		field := rv.Field(i)
		sf := rt.Field(i)
		if !field.CanSet() {
			continue
		}

		name, skip := fieldName(sf, tag)
		if skip {
			continue
		}
		values := lookup(name)
		if len(values) == 0 {
			continue
		}

		if err := setField(field, values); err != nil {
			return fmt.Errorf("%w: field %s: %w", bindErr, name, err)
		}
	}
	return nil
}

func fieldName(sf reflect.StructField, tag string) (string, bool) {
	t := sf.Tag.Get(tag)
	switch t {
	case "":
		return strings.ToLower(sf.Name), false
	case "-":
		return "", true
	}
	name, _, _ := strings.Cut(t, ",")
	return name, false
}

func setField(field reflect.Value, values []string) error {
	switch field.Kind() {
	case reflect.Pointer:
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}
		return setField(field.Elem(), values)

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice of %s", field.Type().Elem().Kind())
		}
		field.Set(reflect.ValueOf(append([]string(nil), values...)))
		return nil

	case reflect.String:
		field.SetString(values[0])

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(values[0], 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid integer %q", values[0])
		}
		field.SetInt(n)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(values[0], 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid unsigned integer %q", values[0])
		}
		field.SetUint(n)

	case reflect.Bool:
		b, err := parseBool(values[0])
		if err != nil {
			return err
		}
		field.SetBool(b)

	default:
		return fmt.Errorf("unsupported type %s", field.Kind())
	}
	return nil
}

func parseBool(s string) (bool, error) {
	if b, err := strconv.ParseBool(s); err == nil {
		return b, nil
	}
	switch strings.ToLower(s) {
	case "on", "yes":
		return true, nil
	case "off", "no", "":
		return false, nil
	}
	return false, fmt.Errorf("invalid bool %q", s)
}
