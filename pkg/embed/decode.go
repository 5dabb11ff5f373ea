package embed

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

var ErrInvalid = errors.New("invalid embed data")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Decode converts flat attributes into typed embed data. It never fails:
// a missing or unknown resource, unparsable values and missing required
// fields are all reported as an [*ErrorEmbed].
func Decode(a Attributes) Data {
	res := a.Resource()
	switch res {
	case "":
		return &ErrorEmbed{Message: "embed is missing a resource"}
	case ResourceError:
		return &ErrorEmbed{Message: a["message"], Source: Resource(a["source"])}
	}

	ctor, ok := lookup(res)
	if !ok {
		return &ErrorEmbed{Message: fmt.Sprintf("unknown resource %q", res), Source: res}
	}

	data := ctor(res)
	if err := unmarshalAttributes(a, data); err != nil {
		return &ErrorEmbed{Message: err.Error(), Source: res}
	}
	if err := Validate(data); err != nil {
		return &ErrorEmbed{Message: err.Error(), Source: res}
	}
	return data
}

// DecodeAs decodes attributes and asserts the result to T.
// An [*ErrorEmbed] is returned as the error when decoding fails.
func DecodeAs[T Data](a Attributes) (T, error) {
	var zero T
	data := Decode(a)
	if e, ok := data.(*ErrorEmbed); ok {
		return zero, e
	}
	t, ok := data.(T)
	if !ok {
		return zero, errors.Errorf("embed %q is %T, not %T", a.Resource(), data, zero)
	}
	return t, nil
}

// Encode converts typed embed data into flat attributes.
func Encode(d Data) (Attributes, error) {
	if d == nil {
		return nil, errors.New("cannot encode nil embed")
	}
	a, err := marshalAttributes(d)
	if err != nil {
		return nil, err
	}
	a["resource"] = string(d.Resource())
	return a, nil
}

// MustEncode is like [Encode] but panics on failure. It is meant for
// the built-in kinds whose encoding cannot fail.
func MustEncode(d Data) Attributes {
	a, err := Encode(d)
	if err != nil {
		panic(err)
	}
	return a
}

// Validate checks the validation rules of embed data.
func Validate(d Data) error {
	err := validate.Struct(d)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.WithStack(err)
	}
	var result error
	for _, fe := range verrs {
		result = multierr.Append(result, errors.Wrapf(ErrInvalid, "%s: failed %q", fieldName(fe), fe.Tag()))
	}
	return result
}

// FieldErrors returns validation failures keyed by Go field name.
func FieldErrors(d Data) map[string]string {
	err := validate.Struct(d)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"": err.Error()}
	}
	result := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		result[fieldName(fe)] = fe.Tag()
	}
	return result
}

func fieldName(fe validator.FieldError) string {
	ns := fe.StructNamespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return fe.Field()
}
