package toolbar

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stateful/embedkit/pkg/document"
	"github.com/stateful/embedkit/pkg/embed"
)

func TestParseContentURL(t *testing.T) {
	testCases := []struct {
		url  string
		ref  ContentRef
		isOK bool
	}{
		{"https://ndla.no/article/42", ContentRef{ID: "42", Type: "article"}, true},
		{"https://www.ndla.no/nn/article/7/", ContentRef{ID: "7", Type: "article"}, true},
		{"http://ndla.no/learningpaths/3", ContentRef{ID: "3", Type: "learningpath"}, true},
		{"https://example.com/article/42", ContentRef{}, false},
		{"https://ndla.no/subject:1/topic:2", ContentRef{}, false},
		{"ftp://ndla.no/article/42", ContentRef{}, false},
		{"https://ndla.no/article/abc", ContentRef{}, false},
	}
	for _, tc := range testCases {
		t.Run(tc.url, func(t *testing.T) {
			ref, ok := ParseContentURL(tc.url, DefaultContentHosts)
			assert.Equal(t, tc.isOK, ok)
			assert.Equal(t, tc.ref, ref)
		})
	}
}

func TestParseContentURL_Patterns(t *testing.T) {
	hosts := []string{"*.ndla.no", "ndla.no"}

	ref, ok := ParseContentURL("https://beta.ndla.no/article/5", hosts)
	assert.True(t, ok)
	assert.Equal(t, "5", ref.ID)

	_, ok = ParseContentURL("https://ndla.no/article/5", hosts)
	assert.True(t, ok)

	_, ok = ParseContentURL("https://a.b.ndla.no/article/5", hosts)
	assert.False(t, ok)

	assert.Equal(t, "ndla.no", canonicalHost(hosts))
	assert.Equal(t, DefaultContentHosts[0], canonicalHost([]string{"*.ndla.no"}))
}

func TestLinkOverlay(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	o := NewLinkOverlay(s)

	selectText(s, document.Path{0, 0}, 6, 11)
	form, err := o.Open()
	require.NoError(t, err)
	assert.Empty(t, form.Href)
	assert.False(t, o.Editing())

	require.NoError(t, o.Save(ctx, " https://example.com/page ", true))
	assert.False(t, o.IsOpen())

	leaves := children(t, s, document.Path{0})
	require.Len(t, leaves, 2)
	assert.Equal(t, "Hello ", leaves[0].Text)
	link := leaves[1]
	assert.Equal(t, document.TypeLink, link.Type)
	assert.Equal(t, "world", link.TextContent())
	assert.Equal(t, embed.Attributes{
		"href":   "https://example.com/page",
		"target": "_blank",
		"rel":    "noopener noreferrer",
	}, link.Data)

	t.Run("EditAfterSiblingInsert", func(t *testing.T) {
		selectText(s, document.Path{0, 1, 0}, 2, 2)
		form, err := o.Open()
		require.NoError(t, err)
		assert.True(t, o.Editing())
		assert.Equal(t, LinkForm{Href: "https://example.com/page", OpenInNewTab: true, Text: "world"}, form)

		require.NoError(t, s.InsertNode(document.Path{0}, document.NewParagraph("intro")))

		require.NoError(t, o.Save(ctx, "https://ndla.no/nb/article/42", false))
		updated, err := s.Node(document.Path{1, 1})
		require.NoError(t, err)
		assert.Equal(t, link.Key, updated.Key)
		assert.Equal(t, document.TypeContentLink, updated.Type)
		assert.Equal(t, embed.Attributes{
			"content-id":   "42",
			"content-type": "article",
			"open-in":      "current-context",
		}, updated.Data)
	})

	t.Run("PrefillContentLink", func(t *testing.T) {
		selectText(s, document.Path{1, 1, 0}, 0, 0)
		form, err := o.Open()
		require.NoError(t, err)
		assert.Equal(t, "https://ndla.no/article/42", form.Href)
		assert.False(t, form.OpenInNewTab)
	})

	t.Run("Remove", func(t *testing.T) {
		require.NoError(t, o.Remove(ctx))
		leaves := children(t, s, document.Path{1})
		require.Len(t, leaves, 2)
		assert.True(t, leaves[1].IsText())
		assert.Equal(t, "world", leaves[1].Text)
		assert.ErrorIs(t, o.Remove(ctx), ErrNotOpen)
	})
}

func TestLinkOverlay_Rejects(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	o := NewLinkOverlay(s)

	assert.ErrorIs(t, o.Save(ctx, "https://example.com", false), ErrNotOpen)

	selectText(s, document.Path{0, 0}, 3, 3)
	_, err := o.Open()
	assert.ErrorIs(t, err, ErrEmptySelection)
	assert.False(t, o.IsOpen())

	selectText(s, document.Path{0, 0}, 0, 5)
	_, err = o.Open()
	require.NoError(t, err)

	before := s.Root()
	assert.ErrorIs(t, o.Save(ctx, "not a link", false), ErrInvalidHref)
	assert.Equal(t, before, s.Root())
	assert.True(t, o.IsOpen())
}

func TestLinkOverlay_ContentHosts(t *testing.T) {
	s := newStore(t)
	o := NewLinkOverlay(s, WithContentHosts("ed.example.org"))

	selectText(s, document.Path{0, 0}, 0, 5)
	_, err := o.Open()
	require.NoError(t, err)
	require.NoError(t, o.Save(context.Background(), "https://ed.example.org/learningpaths/9", true))

	n, err := s.Node(document.Path{0, 0})
	require.NoError(t, err)
	assert.Equal(t, document.TypeContentLink, n.Type)
	assert.Equal(t, "learningpath", n.Data["content-type"])
	assert.Equal(t, "new-context", n.Data["open-in"])
}
