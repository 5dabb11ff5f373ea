package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stateful/embedkit/pkg/embed"
)

func textRange(anchorPath Path, anchor int, focusPath Path, focus int) Range {
	return Range{
		Anchor: Point{Path: anchorPath, Offset: anchor},
		Focus:  Point{Path: focusPath, Offset: focus},
	}
}

func TestTx_SplitText(t *testing.T) {
	s := newTestStore(NewParagraph("hello"))
	s.Select(Collapsed(Point{Path: Path{0, 0}, Offset: 4}))

	err := s.Transform(func(tx *Tx) error {
		p, err := tx.SplitText(Point{Path: Path{0, 0}, Offset: 2})
		require.NoError(t, err)
		assert.Equal(t, Path{0, 1}, p)

		p, err = tx.SplitText(Point{Path: Path{0, 0}, Offset: 0})
		require.NoError(t, err)
		assert.Equal(t, Path{0, 0}, p)
		return nil
	})
	require.NoError(t, err)

	n, _ := s.Node(Path{0})
	require.Len(t, n.Children, 2)
	assert.Equal(t, "he", n.Children[0].Text)
	assert.Equal(t, "llo", n.Children[1].Text)
	assert.Equal(t, Point{Path: Path{0, 1}, Offset: 2}, s.Selection().Anchor)
}

func TestTx_SetMark(t *testing.T) {
	s := newTestStore(NewParagraph("hello world"))

	err := s.Transform(func(tx *Tx) error {
		return tx.SetMark(textRange(Path{0, 0}, 6, Path{0, 0}, 11), MarkBold, true)
	})
	require.NoError(t, err)

	n, _ := s.Node(Path{0})
	require.Len(t, n.Children, 2)
	assert.Equal(t, "hello ", n.Children[0].Text)
	assert.Equal(t, Marks(0), n.Children[0].Marks)
	assert.Equal(t, "world", n.Children[1].Text)
	assert.Equal(t, MarkBold, n.Children[1].Marks)

	sel := s.Selection()
	assert.Equal(t, Point{Path: Path{0, 1}}, sel.Anchor)
	assert.Equal(t, Point{Path: Path{0, 1}, Offset: 5}, sel.Focus)

	err = s.Transform(func(tx *Tx) error {
		assert.Equal(t, MarkBold, tx.Marks(*sel))
		assert.Equal(t, Marks(0), tx.Marks(textRange(Path{0, 0}, 0, Path{0, 1}, 5)))
		return tx.SetMark(*sel, MarkBold, false)
	})
	require.NoError(t, err)
	n, _ = s.Node(Path{0})
	assert.Equal(t, Marks(0), n.Children[1].Marks)
}

func TestTx_SetMark_AcrossBlocks(t *testing.T) {
	s := newTestStore(NewParagraph("abc"), imageNode(), NewParagraph("def"))

	err := s.Transform(func(tx *Tx) error {
		return tx.SetMark(textRange(Path{2, 0}, 1, Path{0, 0}, 1), MarkItalic, true)
	})
	require.NoError(t, err)

	first, _ := s.Node(Path{0})
	last, _ := s.Node(Path{2})
	assert.Equal(t, "bc", first.Children[1].Text)
	assert.Equal(t, MarkItalic, first.Children[1].Marks)
	assert.Equal(t, "d", last.Children[0].Text)
	assert.Equal(t, MarkItalic, last.Children[0].Marks)
	assert.Equal(t, Marks(0), last.Children[1].Marks)
}

func TestTx_WrapAndUnwrapInline(t *testing.T) {
	s := newTestStore(NewParagraph("see this page"))

	var linkPath Path
	err := s.Transform(func(tx *Tx) error {
		link := NewElement(TypeLink)
		link.Data = embed.Attributes{"href": "https://ndla.no"}
		var err error
		linkPath, err = tx.WrapInline(textRange(Path{0, 0}, 4, Path{0, 0}, 8), link)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, Path{0, 1}, linkPath)

	p, _ := s.Node(Path{0})
	require.Len(t, p.Children, 3)
	assert.Equal(t, TypeLink, p.Children[1].Type)
	assert.Equal(t, "this", p.Children[1].TextContent())
	assert.NotEmpty(t, p.Children[1].Key)
	assert.Equal(t, Path{0, 1, 0}, s.Selection().Anchor.Path)

	err = s.Transform(func(tx *Tx) error {
		return tx.UnwrapNode(linkPath)
	})
	require.NoError(t, err)

	p, _ = s.Node(Path{0})
	require.Len(t, p.Children, 3)
	assert.True(t, p.Children[1].IsText())
	assert.Equal(t, "see this page", p.TextContent())
	assert.Equal(t, Path{0, 1}, s.Selection().Anchor.Path)
}

func TestTx_WrapInline_CrossBlock(t *testing.T) {
	s := newTestStore(NewParagraph("a"), NewParagraph("b"))
	err := s.Transform(func(tx *Tx) error {
		_, err := tx.WrapInline(textRange(Path{0, 0}, 0, Path{1, 0}, 1), NewElement(TypeLink))
		return err
	})
	assert.ErrorIs(t, err, ErrCrossBlock)
}

func TestTx_InsertInline(t *testing.T) {
	s := newTestStore(NewParagraph("claim"))

	err := s.Transform(func(tx *Tx) error {
		_, err := tx.InsertInline(Point{Path: Path{0, 0}, Offset: 5}, NewVoid(TypeFootnote, embed.Attributes{"title": "Source"}))
		return err
	})
	require.NoError(t, err)

	p, _ := s.Node(Path{0})
	require.Len(t, p.Children, 3)
	assert.Equal(t, "claim", p.Children[0].Text)
	assert.Equal(t, TypeFootnote, p.Children[1].Type)
	assert.Equal(t, "", p.Children[2].Text)
	assert.Equal(t, Path{0, 2}, s.Selection().Anchor.Path)
}

func TestTx_SetBlockType(t *testing.T) {
	s := newTestStore(NewParagraph("a"), imageNode(), NewParagraph("b"))
	err := s.Transform(func(tx *Tx) error {
		return tx.SetBlockType(textRange(Path{0, 0}, 0, Path{2, 0}, 1), TypeQuote)
	})
	require.NoError(t, err)

	blocks := s.Blocks()
	assert.Equal(t, TypeQuote, blocks[0].Type)
	assert.Equal(t, TypeEmbed, blocks[1].Type)
	assert.Equal(t, TypeQuote, blocks[2].Type)
}
