package document

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stateful/embedkit/pkg/embed"
)

func TestNewVoid(t *testing.T) {
	n := NewVoid(TypeEmbed, embed.Attributes{"resource": "image", "resource_id": "1"})
	assert.True(t, n.IsVoid())
	assert.False(t, n.IsInline())
	require.Len(t, n.Children, 1)
	assert.Equal(t, "", n.Children[0].Text)
	assert.True(t, n.HasPayload())
	assert.False(t, n.IsFirstEdit)
}

func TestCreateVoidEmbed(t *testing.T) {
	n, err := CreateVoidEmbed(&embed.ImageEmbed{ResourceID: "1", Alt: "a", Size: embed.SizeFull, Align: embed.AlignCenter})
	require.NoError(t, err)
	assert.Equal(t, TypeEmbed, n.Type)
	assert.Equal(t, embed.ResourceImage, n.Resource())
	assert.Len(t, n.Children, 1)

	data := n.Embed()
	image, ok := data.(*embed.ImageEmbed)
	require.True(t, ok)
	assert.Equal(t, "a", image.Alt)
}

func TestNewFirstEditEmbed(t *testing.T) {
	n := NewFirstEditEmbed(embed.ResourceConcept)
	assert.True(t, n.IsFirstEdit)
	assert.False(t, n.HasPayload())
	assert.Equal(t, embed.ResourceConcept, n.Resource())

	// Without payload the embed does not decode to concept data.
	_, isError := n.Embed().(*embed.ErrorEmbed)
	assert.True(t, isError)
}

func TestNode_Embed_NotEmbed(t *testing.T) {
	data := NewParagraph("x").Embed()
	errEmbed, ok := data.(*embed.ErrorEmbed)
	require.True(t, ok)
	assert.Contains(t, errEmbed.Message, "paragraph")
}

func TestNode_Clone(t *testing.T) {
	orig := NewElement(TypeParagraph, NewText("a", MarkBold), NewVoid(TypeFootnote, embed.Attributes{"title": "t"}))
	orig.Key = "k"
	clone := orig.Clone()

	clone.Children[0].Text = "b"
	clone.Children[1].Data["title"] = "changed"

	assert.Equal(t, "a", orig.Children[0].Text)
	assert.Equal(t, "t", orig.Children[1].Data["title"])
	assert.Equal(t, "k", clone.Key)
	assert.Empty(t, orig.CloneWithoutKeys().Key)
}

func TestNode_TextContent(t *testing.T) {
	n := NewElement(TypeQuote,
		NewElement(TypeParagraph, NewText("Hello "), NewElement(TypeLink, NewText("world"))),
		NewParagraph("!"),
	)
	assert.Equal(t, "Hello world!", n.TextContent())
}

func TestWalk(t *testing.T) {
	root := &Node{Type: TypeRoot, Children: []*Node{
		NewParagraph("a"),
		NewVoid(TypeEmbed, embed.Attributes{"resource": "image"}),
	}}

	var paths []string
	err := Walk(root, Path{}, func(n *Node, p Path) error {
		if n.IsVoid() {
			paths = append(paths, p.String())
			return ErrSkipChildren
		}
		paths = append(paths, p.String())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"[]", "[0]", "[0,0]", "[1]"}, paths)
}

func TestMarks(t *testing.T) {
	m := MarkBold.With(MarkCode)
	assert.True(t, m.Has(MarkBold))
	assert.False(t, m.Has(MarkItalic))
	assert.Equal(t, "bold,code", m.String())
	assert.Equal(t, MarkCode, m.Without(MarkBold))

	data, err := json.Marshal(NewText("x", MarkItalic, MarkSup))
	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"x","marks":["italic","sup"]}`, string(data))

	var n Node
	require.NoError(t, json.Unmarshal(data, &n))
	assert.Equal(t, MarkItalic|MarkSup, n.Marks)

	assert.Error(t, json.Unmarshal([]byte(`{"marks":["blink"]}`), &n))
}
