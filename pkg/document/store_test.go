package document

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stateful/embedkit/pkg/document/identity"
	"github.com/stateful/embedkit/pkg/embed"
)

func newTestStore(blocks ...*Node) *Store {
	resolver := identity.NewResolver(
		identity.AllLifecycleIdentity,
		identity.WithGenerator(&identity.SequenceGenerator{Prefix: "el"}),
	)
	return NewStore(blocks, WithIdentityResolver(resolver))
}

func imageNode() *Node {
	return NewVoid(TypeEmbed, embed.Attributes{"resource": "image", "resource_id": "1", "alt": "a"})
}

func TestStore_Keys(t *testing.T) {
	s := newTestStore(NewParagraph("a"), imageNode())

	p0, _ := s.Node(Path{0})
	p1, _ := s.Node(Path{1})
	assert.Equal(t, "el-1", p0.Key)
	assert.Equal(t, "el-2", p1.Key)

	t.Run("VoidOnly", func(t *testing.T) {
		resolver := identity.NewResolver(identity.VoidLifecycleIdentity)
		s := NewStore([]*Node{NewParagraph("a"), imageNode()}, WithIdentityResolver(resolver))
		p0, _ := s.Node(Path{0})
		p1, _ := s.Node(Path{1})
		assert.Empty(t, p0.Key)
		assert.True(t, identity.ValidKey(p1.Key))
	})
}

func TestStore_PathOfAfterSiblingInsert(t *testing.T) {
	s := newTestStore(NewParagraph("a"), imageNode())
	img, err := s.Node(Path{1})
	require.NoError(t, err)

	require.NoError(t, s.InsertNode(Path{0}, NewParagraph("new")))

	path, ok := s.PathOf(img.Key)
	require.True(t, ok)
	assert.Equal(t, Path{2}, path)

	_, ok = s.PathOf("missing")
	assert.False(t, ok)
	_, ok = s.PathOf("")
	assert.False(t, ok)
}

func TestStore_SetNode(t *testing.T) {
	s := newTestStore(imageNode())

	err := s.SetNode(Path{0}, NodeProps{
		Data:        embed.Attributes{"alt": "", "caption": "c"},
		IsFirstEdit: Bool(false),
	})
	require.NoError(t, err)

	n, err := s.Node(Path{0})
	require.NoError(t, err)
	assert.Equal(t, embed.Attributes{"resource": "image", "resource_id": "1", "caption": "c"}, n.Data)

	t.Run("Errors", func(t *testing.T) {
		assert.ErrorIs(t, s.SetNode(Path{5}, NodeProps{}), ErrPathNotFound)
		assert.ErrorIs(t, s.SetNode(Path{0, 0}, NodeProps{}), ErrNotElement)
		assert.ErrorIs(t, s.RemoveNode(Path{}), ErrRootRemoval)
		assert.ErrorIs(t, s.InsertNode(Path{7}, NewParagraph("x")), ErrPathNotFound)
	})
}

func TestStore_NodeIsCopy(t *testing.T) {
	s := newTestStore(imageNode())
	n, err := s.Node(Path{0})
	require.NoError(t, err)
	n.Data["alt"] = "mutated"

	again, _ := s.Node(Path{0})
	assert.Equal(t, "a", again.Data["alt"])
}

func TestStore_RemoveMovesSelection(t *testing.T) {
	s := newTestStore(NewParagraph("first"), imageNode(), NewParagraph("last"))
	s.Select(Collapsed(Point{Path: Path{1, 0}}))

	require.NoError(t, s.RemoveNode(Path{1}))

	sel := s.Selection()
	require.NotNil(t, sel)
	assert.Equal(t, Path{1, 0}, sel.Anchor.Path)
	assert.Equal(t, 0, sel.Anchor.Offset)

	n, _ := s.Node(Path{1})
	assert.Equal(t, "last", n.TextContent())

	t.Run("LastBlock", func(t *testing.T) {
		s := newTestStore(NewParagraph("first"), imageNode())
		s.Select(Collapsed(Point{Path: Path{1, 0}}))
		require.NoError(t, s.RemoveNode(Path{1}))
		sel := s.Selection()
		require.NotNil(t, sel)
		assert.Equal(t, Point{Path: Path{0, 0}, Offset: 5}, sel.Anchor)
	})
}

func TestStore_InsertShiftsSelection(t *testing.T) {
	s := newTestStore(NewParagraph("a"), NewParagraph("b"))
	s.Select(Collapsed(Point{Path: Path{1, 0}, Offset: 1}))

	require.NoError(t, s.InsertNode(Path{1}, imageNode()))

	assert.Equal(t, Path{2, 0}, s.Selection().Anchor.Path)
	n, _ := s.Node(Path{1})
	assert.Equal(t, "el-3", n.Key)
	require.Len(t, n.Children, 1)
}

func TestStore_Subscribe(t *testing.T) {
	s := newTestStore(NewParagraph("a"))

	var changes []Change
	unsubscribe := s.Subscribe(func(c Change) {
		changes = append(changes, c)
	})

	require.NoError(t, s.InsertNode(Path{1}, imageNode()))
	require.NoError(t, s.RemoveNode(Path{1}))
	unsubscribe()
	require.NoError(t, s.InsertNode(Path{1}, imageNode()))

	require.Len(t, changes, 2)
	assert.Equal(t, OpInsertNode, changes[0].Op)
	assert.Equal(t, Path{1}, changes[0].Path)
	assert.Equal(t, OpRemoveNode, changes[1].Op)
	assert.Equal(t, changes[0].Key, changes[1].Key)
}

func TestStore_TransformRollback(t *testing.T) {
	s := newTestStore(NewParagraph("a"))

	err := s.Transform(func(tx *Tx) error {
		require.NoError(t, tx.InsertNode(Path{1}, NewParagraph("b")))
		return errors.New("abort")
	})
	require.Error(t, err)
	assert.Len(t, s.Blocks(), 1)
}

func TestStore_NormalizesVoids(t *testing.T) {
	void := &Node{Type: TypeEmbed, Data: embed.Attributes{"resource": "h5p"}, Children: []*Node{NewText("junk")}}
	s := newTestStore(void, &Node{Type: TypeParagraph})

	n, _ := s.Node(Path{0})
	require.Len(t, n.Children, 1)
	assert.Equal(t, "", n.Children[0].Text)

	p, _ := s.Node(Path{1})
	assert.Len(t, p.Children, 1)
}
