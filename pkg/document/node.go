package document

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	"github.com/stateful/embedkit/pkg/embed"
)

// Element types.
const (
	TypeRoot         = "root"
	TypeParagraph    = "paragraph"
	TypeHeading      = "heading"
	TypeBulletedList = "bulleted-list"
	TypeNumberedList = "numbered-list"
	TypeListItem     = "list-item"
	TypeQuote        = "quote"
	TypeSection      = "section"
	TypeLink         = "link"
	TypeContentLink  = "content-link"
	TypeFootnote     = "footnote"
	TypeEmbed        = "embed"
)

var (
	voidTypes   = map[string]bool{TypeEmbed: true, TypeFootnote: true}
	inlineTypes = map[string]bool{TypeLink: true, TypeContentLink: true, TypeFootnote: true}
)

// IsVoidType reports whether elements of the type render opaque content
// instead of editable children.
func IsVoidType(t string) bool { return voidTypes[t] }

// IsInlineType reports whether elements of the type flow inside text blocks.
func IsInlineType(t string) bool { return inlineTypes[t] }

// Marks is a set of text formatting flags.
type Marks uint8

const (
	MarkBold Marks = 1 << iota
	MarkItalic
	MarkUnderline
	MarkSub
	MarkSup
	MarkCode
)

var markNames = []struct {
	mark Marks
	name string
}{
	{MarkBold, "bold"},
	{MarkItalic, "italic"},
	{MarkUnderline, "underline"},
	{MarkSub, "sub"},
	{MarkSup, "sup"},
	{MarkCode, "code"},
}

func (m Marks) Has(mark Marks) bool { return m&mark == mark }

func (m Marks) With(mark Marks) Marks { return m | mark }

func (m Marks) Without(mark Marks) Marks { return m &^ mark }

func (m Marks) Names() []string {
	var result []string
	for _, item := range markNames {
		if m.Has(item.mark) {
			result = append(result, item.name)
		}
	}
	return result
}

func (m Marks) String() string { return strings.Join(m.Names(), ",") }

// ParseMark returns the mark with the given name.
func ParseMark(name string) (Marks, bool) {
	for _, item := range markNames {
		if item.name == name {
			return item.mark, true
		}
	}
	return 0, false
}

func (m Marks) MarshalJSON() ([]byte, error) {
	names := m.Names()
	if names == nil {
		names = []string{}
	}
	data, err := json.Marshal(names)
	return data, errors.WithStack(err)
}

func (m *Marks) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return errors.WithStack(err)
	}
	var result Marks
	for _, name := range names {
		mark, ok := ParseMark(name)
		if !ok {
			return errors.Errorf("unknown mark %q", name)
		}
		result = result.With(mark)
	}
	*m = result
	return nil
}

// Node is either a text leaf (empty Type) or an element.
//
// Only void embed elements carry media in Data. Inline elements such as
// links and footnotes carry reference metadata.
type Node struct {
	Type        string           `json:"type,omitempty"`
	Text        string           `json:"text,omitempty"`
	Marks       Marks            `json:"marks,omitempty"`
	Key         string           `json:"key,omitempty"`
	Data        embed.Attributes `json:"data,omitempty"`
	Children    []*Node          `json:"children,omitempty"`
	IsFirstEdit bool             `json:"isFirstEdit,omitempty"`

	// SelectedForCopy is independent of the selection and drives the copy outline.
	SelectedForCopy bool `json:"-"`
}

func NewText(text string, marks ...Marks) *Node {
	var m Marks
	for _, mark := range marks {
		m = m.With(mark)
	}
	return &Node{Text: text, Marks: m}
}

func NewElement(typ string, children ...*Node) *Node {
	n := &Node{Type: typ, Children: children}
	if len(n.Children) == 0 {
		n.Children = []*Node{NewText("")}
	}
	return n
}

func NewParagraph(text string) *Node {
	return NewElement(TypeParagraph, NewText(text))
}

// NewVoid builds a void element with its single empty text child.
func NewVoid(typ string, data embed.Attributes) *Node {
	return &Node{Type: typ, Data: data, Children: []*Node{NewText("")}}
}

// CreateVoidEmbed wraps embed data in a void embed element. Deserialized
// embeds are complete, so IsFirstEdit is false.
func CreateVoidEmbed(data embed.Data) (*Node, error) {
	attrs, err := embed.Encode(data)
	if err != nil {
		return nil, err
	}
	return NewVoid(TypeEmbed, attrs), nil
}

// NewFirstEditEmbed creates an embed of the given kind without payload.
// Its editor opens automatically and cancelling it removes the element.
func NewFirstEditEmbed(resource embed.Resource) *Node {
	n := NewVoid(TypeEmbed, embed.Attributes{"resource": string(resource)})
	n.IsFirstEdit = true
	return n
}

func (n *Node) IsText() bool { return n.Type == "" }

func (n *Node) IsElement() bool { return n.Type != "" }

func (n *Node) IsVoid() bool { return IsVoidType(n.Type) }

func (n *Node) IsInline() bool { return n.IsText() || IsInlineType(n.Type) }

func (n *Node) IsEmbed() bool { return n.Type == TypeEmbed }

// Resource returns the embed kind of a void embed element.
func (n *Node) Resource() embed.Resource { return n.Data.Resource() }

// HasPayload reports whether an embed element carries committed data
// beyond its resource discriminator.
func (n *Node) HasPayload() bool {
	for k := range n.Data {
		if k != "resource" {
			return true
		}
	}
	return false
}

// Embed decodes the embed payload. Non-embed elements and embeds without
// payload decode to an [*embed.ErrorEmbed].
func (n *Node) Embed() embed.Data {
	if !n.IsEmbed() {
		return &embed.ErrorEmbed{Message: "node " + n.Type + " is not an embed"}
	}
	return embed.Decode(n.Data)
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	clone := *n
	clone.Data = n.Data.Clone()
	if n.Children != nil {
		clone.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			clone.Children[i] = child.Clone()
		}
	}
	return &clone
}

// CloneWithoutKeys deep copies the node and clears element keys so that
// pasted content gets fresh identities.
func (n *Node) CloneWithoutKeys() *Node {
	clone := n.Clone()
	_ = Walk(clone, nil, func(node *Node, _ Path) error {
		node.Key = ""
		return nil
	})
	return clone
}

// TextContent concatenates all text leaves below the node.
func (n *Node) TextContent() string {
	if n.IsText() {
		return n.Text
	}
	var b strings.Builder
	for _, child := range n.Children {
		_, _ = b.WriteString(child.TextContent())
	}
	return b.String()
}

var ErrSkipChildren = errors.New("skip children")

// Walk visits the node and its descendants in document order. The path of
// node is given by base. Returning [ErrSkipChildren] skips the descendants.
func Walk(node *Node, base Path, fn func(*Node, Path) error) error {
	err := fn(node, base)
	if errors.Is(err, ErrSkipChildren) {
		return nil
	}
	if err != nil {
		return err
	}
	for i, child := range node.Children {
		if err := Walk(child, base.Child(i), fn); err != nil {
			return err
		}
	}
	return nil
}
