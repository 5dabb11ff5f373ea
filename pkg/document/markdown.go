package document

import (
	"bytes"
	"strconv"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/stateful/embedkit/pkg/embed"
)

// ParseMarkdown imports Markdown as document blocks. Raw HTML blocks go
// through [ParseHTML], so <ndlaembed> tags inside Markdown become embeds.
func ParseMarkdown(source []byte) ([]*Node, error) {
	root := goldmark.DefaultParser().Parse(text.NewReader(source))
	b := &markdownBuilder{source: source}
	return b.blocks(root)
}

type markdownBuilder struct {
	source []byte
}

func (b *markdownBuilder) blocks(parent ast.Node) ([]*Node, error) {
	var result []*Node
	for astNode := parent.FirstChild(); astNode != nil; astNode = astNode.NextSibling() {
		switch n := astNode.(type) {
		case *ast.Heading:
			el := NewElement(TypeHeading, b.inlines(n, 0)...)
			el.Data = embed.Attributes{"level": strconv.Itoa(n.Level)}
			result = append(result, el)
		case *ast.Paragraph, *ast.TextBlock:
			result = append(result, NewElement(TypeParagraph, b.inlines(n, 0)...))
		case *ast.List:
			typ := TypeBulletedList
			if n.IsOrdered() {
				typ = TypeNumberedList
			}
			items, err := b.blocks(n)
			if err != nil {
				return nil, err
			}
			result = append(result, NewElement(typ, items...))
		case *ast.ListItem, *ast.Blockquote:
			typ := TypeListItem
			if n.Kind() == ast.KindBlockquote {
				typ = TypeQuote
			}
			children, err := b.blocks(n)
			if err != nil {
				return nil, err
			}
			result = append(result, NewElement(typ, children...))
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			code := bytes.TrimRight(b.lines(n), "\n")
			result = append(result, NewElement(TypeParagraph, NewText(string(code), MarkCode)))
		case *ast.HTMLBlock:
			raw := b.lines(n)
			if n.HasClosure() {
				raw = append(raw, n.ClosureLine.Value(b.source)...)
			}
			nodes, err := ParseHTML(bytes.NewReader(raw))
			if err != nil {
				return nil, errors.WithStack(err)
			}
			result = append(result, nodes...)
		case *ast.ThematicBreak:
		default:
			children, err := b.blocks(n)
			if err != nil {
				return nil, err
			}
			result = append(result, children...)
		}
	}
	return result, nil
}

func (b *markdownBuilder) lines(n ast.Node) []byte {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		_, _ = buf.Write(segment.Value(b.source))
	}
	return buf.Bytes()
}

func (b *markdownBuilder) inlines(parent ast.Node, marks Marks) []*Node {
	var result []*Node
	for astNode := parent.FirstChild(); astNode != nil; astNode = astNode.NextSibling() {
		switch n := astNode.(type) {
		case *ast.Text:
			value := string(n.Segment.Value(b.source))
			switch {
			case n.HardLineBreak():
				value += "\n"
			case n.SoftLineBreak():
				value += " "
			}
			result = append(result, NewText(value, marks))
		case *ast.String:
			result = append(result, NewText(string(n.Value), marks))
		case *ast.Emphasis:
			mark := MarkItalic
			if n.Level >= 2 {
				mark = MarkBold
			}
			result = append(result, b.inlines(n, marks.With(mark))...)
		case *ast.CodeSpan:
			result = append(result, b.inlines(n, marks.With(MarkCode))...)
		case *ast.Link:
			link := NewElement(TypeLink, b.inlines(n, marks)...)
			link.Data = embed.Attributes{"href": string(n.Destination)}
			if len(n.Title) > 0 {
				link.Data["title"] = string(n.Title)
			}
			result = append(result, link)
		case *ast.AutoLink:
			url := string(n.URL(b.source))
			link := NewElement(TypeLink, NewText(string(n.Label(b.source)), marks))
			link.Data = embed.Attributes{"href": url}
			result = append(result, link)
		case *ast.Image, *ast.RawHTML:
		default:
			result = append(result, b.inlines(n, marks)...)
		}
	}
	return mergeTexts(result)
}

// mergeTexts joins adjacent text leaves with equal marks.
func mergeTexts(nodes []*Node) []*Node {
	var result []*Node
	for _, n := range nodes {
		if len(result) > 0 {
			last := result[len(result)-1]
			if last.IsText() && n.IsText() && last.Marks == n.Marks {
				last.Text += n.Text
				continue
			}
		}
		result = append(result, n)
	}
	return result
}
