package document

import (
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/stateful/embedkit/pkg/embed"
)

// Resources of <ndlaembed> tags that map to inline elements rather than
// void embed blocks.
const (
	resourceContentLink = "content-link"
	resourceFootnote    = "footnote"
)

var blockTags = map[atom.Atom]string{
	atom.P:          TypeParagraph,
	atom.Ul:         TypeBulletedList,
	atom.Ol:         TypeNumberedList,
	atom.Li:         TypeListItem,
	atom.Blockquote: TypeQuote,
	atom.Section:    TypeSection,
}

var headingLevels = map[atom.Atom]int{
	atom.H1: 1, atom.H2: 2, atom.H3: 3, atom.H4: 4, atom.H5: 5, atom.H6: 6,
}

var markTags = map[atom.Atom]Marks{
	atom.Strong: MarkBold,
	atom.B:      MarkBold,
	atom.Em:     MarkItalic,
	atom.I:      MarkItalic,
	atom.U:      MarkUnderline,
	atom.Sub:    MarkSub,
	atom.Sup:    MarkSup,
	atom.Code:   MarkCode,
}

// ParseHTML converts article HTML into top-level blocks.
func ParseHTML(r io.Reader) ([]*Node, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(r, body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse html")
	}
	return blocksFromHTML(nodes), nil
}

func ParseHTMLString(s string) ([]*Node, error) {
	return ParseHTML(strings.NewReader(s))
}

func blocksFromHTML(nodes []*html.Node) []*Node {
	var (
		result  []*Node
		pending []*Node
	)
	flush := func() {
		if len(pending) > 0 {
			result = append(result, NewElement(TypeParagraph, pending...))
			pending = nil
		}
	}

	for _, n := range nodes {
		if n.Type == html.TextNode && strings.TrimSpace(n.Data) == "" {
			continue
		}
		if n.Type == html.CommentNode {
			continue
		}
		if block := blockFromHTML(n); block != nil {
			flush()
			result = append(result, block...)
			continue
		}
		pending = append(pending, inlinesFromHTML(n, 0)...)
	}
	flush()
	return result
}

// blockFromHTML returns nil if n is inline content.
func blockFromHTML(n *html.Node) []*Node {
	if n.Type != html.ElementNode {
		return nil
	}
	if level, ok := headingLevels[n.DataAtom]; ok {
		el := NewElement(TypeHeading, inlineChildren(n, 0)...)
		el.Data = embed.Attributes{"level": strconv.Itoa(level)}
		return []*Node{el}
	}
	switch n.DataAtom {
	case atom.P:
		return []*Node{NewElement(TypeParagraph, inlineChildren(n, 0)...)}
	case atom.Ul, atom.Ol, atom.Li, atom.Blockquote, atom.Section:
		return []*Node{NewElement(blockTags[n.DataAtom], blocksFromHTML(children(n))...)}
	case atom.Div:
		return blocksFromHTML(children(n))
	}
	if n.Data == embed.TagName {
		attrs := embed.TagFromNode(n).Attributes()
		switch string(attrs.Resource()) {
		case resourceContentLink, resourceFootnote:
			return nil
		}
		return []*Node{NewVoid(TypeEmbed, attrs)}
	}
	return nil
}

func children(n *html.Node) []*html.Node {
	var result []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		result = append(result, c)
	}
	return result
}

func inlineChildren(n *html.Node, marks Marks) []*Node {
	var result []*Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		result = append(result, inlinesFromHTML(c, marks)...)
	}
	return result
}

func inlinesFromHTML(n *html.Node, marks Marks) []*Node {
	switch n.Type {
	case html.TextNode:
		return []*Node{{Text: n.Data, Marks: marks}}
	case html.ElementNode:
	default:
		return nil
	}

	if mark, ok := markTags[n.DataAtom]; ok {
		return inlineChildren(n, marks.With(mark))
	}
	switch n.DataAtom {
	case atom.Br:
		return []*Node{{Text: "\n", Marks: marks}}
	case atom.A:
		link := NewElement(TypeLink, inlineChildren(n, marks)...)
		link.Data = embed.Attributes{}
		for _, attr := range n.Attr {
			switch attr.Key {
			case "href", "target", "rel", "title":
				link.Data[attr.Key] = attr.Val
			}
		}
		return []*Node{link}
	}
	if n.Data == embed.TagName {
		attrs := embed.TagFromNode(n).Attributes()
		resource := string(attrs.Resource())
		delete(attrs, "resource")
		switch resource {
		case resourceContentLink:
			link := NewElement(TypeContentLink, inlineChildren(n, marks)...)
			link.Data = attrs
			return []*Node{link}
		case resourceFootnote:
			return []*Node{NewVoid(TypeFootnote, attrs)}
		}
	}
	return inlineChildren(n, marks)
}

// WriteHTML serializes blocks as article HTML. Embeds whose first edit was
// never saved are skipped.
func WriteHTML(w io.Writer, nodes []*Node) error {
	var b strings.Builder
	for _, n := range nodes {
		writeNode(&b, n)
	}
	_, err := io.WriteString(w, b.String())
	return errors.WithStack(err)
}

func HTMLString(nodes []*Node) string {
	var b strings.Builder
	_ = WriteHTML(&b, nodes)
	return b.String()
}

func writeNode(b *strings.Builder, n *Node) {
	if n.IsText() {
		writeText(b, n)
		return
	}
	switch n.Type {
	case TypeEmbed:
		if n.IsFirstEdit && !n.HasPayload() {
			return
		}
		_ = embed.WriteTag(b, n.Data)
		return
	case TypeFootnote:
		attrs := n.Data.Clone()
		if attrs == nil {
			attrs = embed.Attributes{}
		}
		attrs["resource"] = resourceFootnote
		_ = embed.WriteTag(b, attrs)
		return
	case TypeContentLink:
		attrs := n.Data.Clone()
		if attrs == nil {
			attrs = embed.Attributes{}
		}
		attrs["resource"] = resourceContentLink
		_, _ = b.WriteString(embed.NewTag(attrs).OpenString())
		writeChildren(b, n)
		_, _ = b.WriteString(embed.CloseTag)
		return
	case TypeLink:
		_, _ = b.WriteString("<a")
		for _, key := range n.Data.Keys() {
			_, _ = b.WriteString(" " + key + `="` + html.EscapeString(n.Data[key]) + `"`)
		}
		_, _ = b.WriteString(">")
		writeChildren(b, n)
		_, _ = b.WriteString("</a>")
		return
	}

	tag := elementTag(n)
	_, _ = b.WriteString("<" + tag + ">")
	writeChildren(b, n)
	_, _ = b.WriteString("</" + tag + ">")
}

func writeChildren(b *strings.Builder, n *Node) {
	for _, child := range n.Children {
		writeNode(b, child)
	}
}

func elementTag(n *Node) string {
	if n.Type == TypeHeading {
		level, err := strconv.Atoi(n.Data["level"])
		if err != nil || level < 1 || level > 6 {
			level = 2
		}
		return "h" + strconv.Itoa(level)
	}
	for a, typ := range blockTags {
		if typ == n.Type {
			return a.String()
		}
	}
	return "div"
}

// Marks nest in a fixed order so that serialization is deterministic.
var markOrder = []struct {
	mark Marks
	tag  string
}{
	{MarkBold, "strong"},
	{MarkItalic, "em"},
	{MarkUnderline, "u"},
	{MarkSub, "sub"},
	{MarkSup, "sup"},
	{MarkCode, "code"},
}

func writeText(b *strings.Builder, n *Node) {
	if n.Text == "" {
		return
	}
	for _, m := range markOrder {
		if n.Marks.Has(m.mark) {
			_, _ = b.WriteString("<" + m.tag + ">")
		}
	}
	text := html.EscapeString(n.Text)
	text = strings.ReplaceAll(text, "\n", "<br>")
	_, _ = b.WriteString(text)
	for i := len(markOrder) - 1; i >= 0; i-- {
		if n.Marks.Has(markOrder[i].mark) {
			_, _ = b.WriteString("</" + markOrder[i].tag + ">")
		}
	}
}
