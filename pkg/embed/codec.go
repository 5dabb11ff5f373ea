package embed

import (
	"encoding"
	"reflect"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Struct fields are mapped to attributes with the "attr" tag:
//
//	ResourceID string   `attr:"resource_id"`
//	Border     bool     `attr:"border,always"`
//	FocalX     *float64 `attr:"focal-x"`
//
// Zero values are left out unless the "always" option is set.
// Types implementing [encoding.TextMarshaler] and [encoding.TextUnmarshaler]
// are encoded with those methods.

var (
	textMarshalerType   = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

type attrTag struct {
	name   string
	always bool
}

func parseAttrTag(f reflect.StructField) (attrTag, bool) {
	raw, ok := f.Tag.Lookup("attr")
	if !ok || raw == "-" {
		return attrTag{}, false
	}
	parts := strings.Split(raw, ",")
	tag := attrTag{name: parts[0]}
	for _, opt := range parts[1:] {
		if opt == "always" {
			tag.always = true
		}
	}
	return tag, tag.name != ""
}

func marshalAttributes(v any) (Attributes, error) {
	rv := reflect.Indirect(reflect.ValueOf(v))
	if rv.Kind() != reflect.Struct {
		return nil, errors.Errorf("cannot marshal %T to attributes", v)
	}

	result := make(Attributes)
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		tag, ok := parseAttrTag(rt.Field(i))
		if !ok {
			continue
		}
		value, present, err := marshalField(rv.Field(i), tag)
		if err != nil {
			return nil, errors.Wrapf(err, "field %s", tag.name)
		}
		if present {
			result[tag.name] = value
		}
	}

	return result, nil
}

func marshalField(fv reflect.Value, tag attrTag) (string, bool, error) {
	if fv.Type().Implements(textMarshalerType) {
		if fv.Kind() == reflect.Pointer && fv.IsNil() {
			return "", false, nil
		}
		text, err := fv.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return "", false, errors.WithStack(err)
		}
		return string(text), len(text) > 0 || tag.always, nil
	}

	switch fv.Kind() {
	case reflect.String:
		return fv.String(), fv.String() != "" || tag.always, nil
	case reflect.Bool:
		return strconv.FormatBool(fv.Bool()), fv.Bool() || tag.always, nil
	case reflect.Int, reflect.Int64, reflect.Int32:
		return strconv.FormatInt(fv.Int(), 10), fv.Int() != 0 || tag.always, nil
	case reflect.Pointer:
		if fv.IsNil() {
			return "", false, nil
		}
		if fv.Elem().Kind() == reflect.Float64 {
			return strconv.FormatFloat(fv.Elem().Float(), 'f', -1, 64), true, nil
		}
	}
	return "", false, errors.Errorf("unsupported field type %s", fv.Type())
}

func unmarshalAttributes(a Attributes, v any) (finalErr error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return errors.Errorf("cannot unmarshal attributes into %T", v)
	}
	rv = rv.Elem()
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		tag, ok := parseAttrTag(rt.Field(i))
		if !ok {
			continue
		}
		raw, ok := a[tag.name]
		if !ok {
			continue
		}
		if err := unmarshalField(rv.Field(i), raw); err != nil {
			finalErr = multierr.Append(finalErr, errors.Wrapf(err, "invalid %s %q", tag.name, raw))
		}
	}

	return finalErr
}

func unmarshalField(fv reflect.Value, raw string) error {
	if fv.CanAddr() && fv.Addr().Type().Implements(textUnmarshalerType) {
		return fv.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(raw))
	}

	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)
		return nil
	case reflect.Bool:
		if raw == "" {
			fv.SetBool(false)
			return nil
		}
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return errors.WithStack(err)
		}
		fv.SetBool(b)
		return nil
	case reflect.Int, reflect.Int64, reflect.Int32:
		if raw == "" {
			return nil
		}
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return errors.WithStack(err)
		}
		fv.SetInt(n)
		return nil
	case reflect.Pointer:
		if fv.Type().Elem().Kind() != reflect.Float64 {
			break
		}
		if raw == "" {
			fv.Set(reflect.Zero(fv.Type()))
			return nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return errors.WithStack(err)
		}
		fv.Set(reflect.ValueOf(&f))
		return nil
	}
	return errors.Errorf("unsupported field type %s", fv.Type())
}
