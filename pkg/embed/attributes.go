package embed

import (
	"bytes"
	"encoding/json"
	"io"
	"maps"
	"slices"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

var _defaultAttributeParserWriter = &multiParserWriter{
	parsers: []attributesParserWriter{
		&tagParserWriter{},
		&jsonParserWriter{},
	},
	writer: &tagParserWriter{},
}

// Attributes is the flat representation of embed data as it is persisted
// and transported. Keys are the data attribute names without the "data-"
// prefix, for example "resource", "resource_id" or "focal-x".
type Attributes map[string]string

// ParseAttributes parses [Attributes] from raw bytes. Both an <ndlaembed> tag
// and a JSON object are accepted.
func ParseAttributes(raw []byte) (Attributes, error) {
	return _defaultAttributeParserWriter.Parse(raw)
}

// WriteAttributes writes [Attributes] to [io.Writer] as an <ndlaembed> tag.
func WriteAttributes(w io.Writer, attr Attributes) error {
	return _defaultAttributeParserWriter.Write(w, attr)
}

// WriteAttributesJSON writes [Attributes] to [io.Writer] as a JSON object.
func WriteAttributesJSON(w io.Writer, attr Attributes) error {
	return (&jsonParserWriter{}).Write(w, attr)
}

func (a Attributes) Resource() Resource {
	return Resource(a["resource"])
}

func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	return maps.Clone(a)
}

// Merge returns a copy of a with update applied on top of it.
// Keys absent from update are preserved. An empty value removes the key.
func (a Attributes) Merge(update Attributes) Attributes {
	result := make(Attributes, len(a)+len(update))
	for k, v := range a {
		result[k] = v
	}
	for k, v := range update {
		if v == "" {
			delete(result, k)
			continue
		}
		result[k] = v
	}
	return result
}

// Diff returns the update that turns old into updated when passed to [Attributes.Merge].
// Removed keys are returned with an empty value.
func Diff(old, updated Attributes) Attributes {
	result := make(Attributes)
	for k, v := range updated {
		if prev, ok := old[k]; !ok || prev != v {
			result[k] = v
		}
	}
	for k := range old {
		if _, ok := updated[k]; !ok {
			result[k] = ""
		}
	}
	return result
}

// Keys returns sorted keys with "resource" always in front.
func (a Attributes) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(x, y string) int {
		if x == y {
			return 0
		}
		if x == "resource" {
			return -1
		}
		if y == "resource" {
			return 1
		}
		if x < y {
			return -1
		}
		return 1
	})
	return keys
}

type attributesParserWriter interface {
	Parse([]byte) (Attributes, error)
	Write(io.Writer, Attributes) error
}

// jsonParserWriter parses all values as strings.
//
// The correct format is as follows:
//
//	{ "resource": "image", "resource_id": "123", "size": "full" }
type jsonParserWriter struct{}

func (p *jsonParserWriter) Parse(raw []byte) (Attributes, error) {
	parsed := make(map[string]interface{})
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, errors.WithStack(err)
	}

	result := make(Attributes, len(parsed))

	for k, v := range parsed {
		switch val := v.(type) {
		case string:
			result[k] = val
		case nil:
		default:
			if stringified, err := json.Marshal(v); err == nil {
				result[k] = string(stringified)
			}
		}
	}

	return result, nil
}

func (p *jsonParserWriter) Write(w io.Writer, attr Attributes) error {
	res, err := json.Marshal(attr)
	if err != nil {
		return errors.WithStack(err)
	}
	_, err = w.Write(bytes.TrimSpace(res))
	return errors.WithStack(err)
}

// tagParserWriter parses and writes attributes as an <ndlaembed> tag.
type tagParserWriter struct{}

func (p *tagParserWriter) Parse(raw []byte) (Attributes, error) {
	tag, err := ParseTag(string(raw))
	if err != nil {
		return nil, err
	}
	return tag.Attributes(), nil
}

func (p *tagParserWriter) Write(w io.Writer, attr Attributes) error {
	return WriteTag(w, attr)
}

// multiParserWriter parses attributes using the provided parsers
// in the order they are provided. If a parser fails, the next one
// is used.
// Writer is used to write the attributes back.
type multiParserWriter struct {
	parsers []attributesParserWriter
	writer  attributesParserWriter
}

func (p *multiParserWriter) Parse(raw []byte) (_ Attributes, finalErr error) {
	for _, parser := range p.parsers {
		attr, err := parser.Parse(raw)
		if err == nil {
			return attr, nil
		}
		finalErr = multierr.Append(finalErr, err)
	}
	return
}

func (p *multiParserWriter) Write(w io.Writer, attr Attributes) error {
	return p.writer.Write(w, attr)
}
