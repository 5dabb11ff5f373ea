package embed

import (
	"fmt"
	"io"
	"strings"

	"github.com/elliotchance/orderedmap"
	"github.com/pkg/errors"
	"golang.org/x/net/html"
)

// TagName is the element name used to persist embeds in article HTML.
const TagName = "ndlaembed"

const dataPrefix = "data-"

var ErrNoTag = errors.New("no " + TagName + " tag found")

// Tag is a parsed <ndlaembed> element. Attribute order of the source is retained
// so that a parsed tag can be written back without reordering.
type Tag struct {
	attrs *orderedmap.OrderedMap
}

func newTag() *Tag {
	return &Tag{attrs: orderedmap.NewOrderedMap()}
}

// NewTag creates a tag from attributes with "resource" first and
// the remaining keys sorted.
func NewTag(a Attributes) *Tag {
	t := newTag()
	for _, k := range a.Keys() {
		t.attrs.Set(k, a[k])
	}
	return t
}

func (t *Tag) Get(key string) (string, bool) {
	v, ok := t.attrs.Get(key)
	if !ok {
		return "", false
	}
	return v.(string), true
}

func (t *Tag) Set(key, value string) {
	t.attrs.Set(key, value)
}

func (t *Tag) Len() int { return t.attrs.Len() }

func (t *Tag) Attributes() Attributes {
	result := make(Attributes, t.attrs.Len())
	for el := t.attrs.Front(); el != nil; el = el.Next() {
		result[el.Key.(string)] = el.Value.(string)
	}
	return result
}

func (t *Tag) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, t.OpenString()+CloseTag)
	return int64(n), errors.WithStack(err)
}

// CloseTag ends an element opened with [Tag.OpenString].
const CloseTag = "</" + TagName + ">"

// OpenString returns the start tag only. It is used for embeds that wrap
// inline content, such as content links.
func (t *Tag) OpenString() string {
	var b strings.Builder
	_, _ = b.WriteString("<" + TagName)
	for el := t.attrs.Front(); el != nil; el = el.Next() {
		_, _ = fmt.Fprintf(&b, ` %s%s="%s"`, dataPrefix, el.Key.(string), html.EscapeString(el.Value.(string)))
	}
	_, _ = b.WriteString(">")
	return b.String()
}

func (t *Tag) String() string {
	var b strings.Builder
	_, _ = t.WriteTo(&b)
	return b.String()
}

// WriteTag writes attributes as an <ndlaembed> tag.
func WriteTag(w io.Writer, a Attributes) error {
	_, err := NewTag(a).WriteTo(w)
	return err
}

// ParseTag parses the first <ndlaembed> tag found in the fragment.
func ParseTag(fragment string) (*Tag, error) {
	tags, err := parseTags(fragment, 1)
	if err != nil {
		return nil, err
	}
	if len(tags) == 0 {
		return nil, ErrNoTag
	}
	return tags[0], nil
}

// ParseTags parses all <ndlaembed> tags found in the fragment.
func ParseTags(fragment string) ([]*Tag, error) {
	return parseTags(fragment, -1)
}

// TagFromToken converts a start tag token into a [Tag].
// Attributes without the "data-" prefix are ignored.
func TagFromToken(token html.Token) *Tag {
	t := newTag()
	for _, attr := range token.Attr {
		if !strings.HasPrefix(attr.Key, dataPrefix) {
			continue
		}
		t.attrs.Set(strings.TrimPrefix(attr.Key, dataPrefix), attr.Val)
	}
	return t
}

// TagFromNode converts a parsed element node into a [Tag].
func TagFromNode(n *html.Node) *Tag {
	return TagFromToken(html.Token{Type: html.StartTagToken, Data: n.Data, Attr: n.Attr})
}

func parseTags(fragment string, limit int) ([]*Tag, error) {
	var result []*Tag

	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return result, nil
			}
			return result, errors.WithStack(z.Err())
		case html.StartTagToken, html.SelfClosingTagToken:
			token := z.Token()
			if token.Data != TagName {
				continue
			}
			result = append(result, TagFromToken(token))
			if limit > 0 && len(result) >= limit {
				return result, nil
			}
		}
	}
}
