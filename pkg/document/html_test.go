package document

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stateful/embedkit/pkg/embed"
)

func TestParseHTML(t *testing.T) {
	source := `<section><h2>Title</h2><p>Some <strong>bold <em>and italic</em></strong> text with <a href="https://ndla.no" target="_blank">a link</a>.</p>` +
		`<ndlaembed data-resource="image" data-resource_id="123" data-alt="Cat" data-size="full"></ndlaembed>` +
		`<p>Claim<ndlaembed data-resource="footnote" data-title="Book" data-year="2020"></ndlaembed> and <ndlaembed data-resource="content-link" data-content-id="42">article</ndlaembed></p></section>`

	blocks, err := ParseHTMLString(source)
	require.NoError(t, err)
	require.Len(t, blocks, 1)

	section := blocks[0]
	assert.Equal(t, TypeSection, section.Type)
	require.Len(t, section.Children, 4)

	heading := section.Children[0]
	assert.Equal(t, TypeHeading, heading.Type)
	assert.Equal(t, "2", heading.Data["level"])

	expected := []*Node{
		{Text: "Some "},
		{Text: "bold ", Marks: MarkBold},
		{Text: "and italic", Marks: MarkBold | MarkItalic},
		{Text: " text with "},
		{Type: TypeLink, Data: embed.Attributes{"href": "https://ndla.no", "target": "_blank"}, Children: []*Node{{Text: "a link"}}},
		{Text: "."},
	}
	if diff := cmp.Diff(expected, section.Children[1].Children); diff != "" {
		t.Fatalf("paragraph mismatch (-want +got):\n%s", diff)
	}

	image := section.Children[2]
	assert.True(t, image.IsVoid())
	assert.Equal(t, embed.Attributes{"resource": "image", "resource_id": "123", "alt": "Cat", "size": "full"}, image.Data)

	para := section.Children[3]
	require.Len(t, para.Children, 4)
	assert.Equal(t, TypeFootnote, para.Children[1].Type)
	assert.Equal(t, embed.Attributes{"title": "Book", "year": "2020"}, para.Children[1].Data)
	assert.Equal(t, TypeContentLink, para.Children[3].Type)
	assert.Equal(t, "42", para.Children[3].Data["content-id"])
	assert.Equal(t, "article", para.Children[3].TextContent())
}

func TestParseHTML_LooseInlines(t *testing.T) {
	blocks, err := ParseHTMLString("loose <b>text</b>\n<p>para</p>")
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, TypeParagraph, blocks[0].Type)
	assert.Equal(t, "loose text", blocks[0].TextContent())
}

func TestHTML_RoundTrip(t *testing.T) {
	source := `<h3>Heading</h3>` +
		`<p>Text <strong><em>both</em></strong> <a href="https://ndla.no" rel="noopener" target="_blank">link</a></p>` +
		`<ul><li><p>one</p></li><li><p>two</p></li></ul>` +
		`<blockquote><p>quote</p></blockquote>` +
		`<ndlaembed data-resource="brightcove" data-account="1" data-caption="c" data-player="p" data-videoid="9"></ndlaembed>` +
		`<p>x<ndlaembed data-resource="footnote" data-authors="A;B" data-title="T"></ndlaembed><ndlaembed data-resource="content-link" data-content-id="1" data-open-in="new-context">y</ndlaembed></p>`

	blocks, err := ParseHTMLString(source)
	require.NoError(t, err)
	assert.Equal(t, source, HTMLString(blocks))
}

func TestWriteHTML_SkipsUnsavedFirstEdit(t *testing.T) {
	blocks := []*Node{NewParagraph("a"), NewFirstEditEmbed(embed.ResourceConcept)}
	assert.Equal(t, "<p>a</p>", HTMLString(blocks))
}

func TestWriteHTML_Escapes(t *testing.T) {
	blocks := []*Node{NewElement(TypeParagraph, NewText("a < b\nc"))}
	assert.Equal(t, "<p>a &lt; b<br>c</p>", HTMLString(blocks))
}
