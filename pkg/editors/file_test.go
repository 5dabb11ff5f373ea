package editors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stateful/embedkit/pkg/document"
	"github.com/stateful/embedkit/pkg/embed"
)

func titles(files []embed.File) []string {
	var result []string
	for _, f := range files {
		result = append(result, f.Title)
	}
	return result
}

func TestFileEditor(t *testing.T) {
	h := newHarness(t, embedAt(embed.Attributes{
		"resource": "file",
		"files":    `[{"title":"a","url":"https://ndla.no/a.pdf"},{"title":"b","url":"https://ndla.no/b.pdf","type":"pdf"}]`,
	}))
	editor := h.dispatch().(*FileEditor)
	ctx := context.Background()

	assert.Equal(t, []string{"a", "b"}, titles(editor.Files()))

	require.NoError(t, editor.Rename(ctx, 0, "A"))
	require.NoError(t, editor.Move(ctx, 0, 1))
	assert.Equal(t, []string{"b", "A"}, titles(editor.Files()))
	assert.Equal(t, "pdf", editor.Files()[0].Type)

	assert.ErrorIs(t, editor.Rename(ctx, 5, "x"), ErrFileIndex)
	assert.ErrorIs(t, editor.Rename(ctx, 0, ""), embed.ErrInvalid)

	require.NoError(t, editor.AddFiles(ctx, embed.File{Title: "c", URL: "https://ndla.no/c.pdf"}))
	assert.Equal(t, []string{"b", "A", "c"}, titles(editor.Files()))

	require.NoError(t, editor.RemoveFile(ctx, 1))
	require.NoError(t, editor.RemoveFile(ctx, 0))
	assert.Len(t, h.store.Blocks(), 3)

	require.NoError(t, editor.RemoveFile(ctx, 0))
	assert.Equal(t, []string{"before", "after"}, h.texts())
}

func TestFileEditorFirstEdit(t *testing.T) {
	h := newHarness(t, document.NewFirstEditEmbed(embed.ResourceFile))
	editor := h.dispatch().(*FileEditor)

	assert.Empty(t, editor.Files())
	assert.ErrorIs(t, editor.AddFiles(context.Background()), embed.ErrInvalid)

	require.NoError(t, editor.AddFiles(context.Background(), embed.File{Title: "a", URL: "https://ndla.no/a.pdf"}))
	n, err := h.store.Node(document.Path{1})
	require.NoError(t, err)
	assert.False(t, n.IsFirstEdit)
	assert.Equal(t, `[{"title":"a","url":"https://ndla.no/a.pdf"}]`, n.Data["files"])
}
