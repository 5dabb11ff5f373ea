package editors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stateful/embedkit/pkg/api/apitest"
	"github.com/stateful/embedkit/pkg/document"
	"github.com/stateful/embedkit/pkg/embed"
)

func contact() *embed.ContactBlockEmbed {
	return &embed.ContactBlockEmbed{
		ImageID:     "1",
		JobTitle:    "Lecturer",
		Name:        "Kari",
		Email:       "kari@example.com",
		Description: "Teaches maths",
	}
}

func TestBlockFirstEditAbortRemovesNode(t *testing.T) {
	h := newHarness(t, document.NewFirstEditEmbed(embed.ResourceContactBlock))
	h.store.Select(document.Collapsed(document.Point{Path: document.Path{1, 0}}))

	editor := h.dispatch().(*BlockEditor[*embed.ContactBlockEmbed])
	require.True(t, editor.IsOpen())

	require.NoError(t, editor.Close(context.Background()))
	h.settle()

	assert.Equal(t, []string{"before", "after"}, h.texts())
	assert.Equal(t, document.Collapsed(document.Point{Path: document.Path{1, 0}}), h.store.Selection())
	assert.False(t, editor.IsOpen())
}

func TestBlockFirstEditAbortAtEndSelectsPrevious(t *testing.T) {
	store := document.NewStore([]*document.Node{
		document.NewParagraph("only"),
		document.NewFirstEditEmbed(embed.ResourceKeyFigure),
	})
	h := newHarness(t, document.NewParagraph("unused"))
	h.store = store
	h.env.Store = store
	h.env.Mutator = document.NewStoreMutator(store, nil)

	props := mustProps(t, store, document.Path{1})
	editor, err := NewKeyFigureEditor(h.env, props)
	require.NoError(t, err)

	require.NoError(t, editor.Close(context.Background()))
	h.settle()

	assert.Len(t, store.Blocks(), 1)
	assert.Equal(t, document.Collapsed(document.Point{Path: document.Path{0, 0}, Offset: 4}), store.Selection())
}

func TestBlockReEditAbortPreservesNode(t *testing.T) {
	attrs := embed.Attributes{"resource": "key-figure", "image-id": "1", "title": "42", "subtitle": "answers"}
	h := newHarness(t, embedAt(attrs.Clone()))

	editor := h.dispatch().(*BlockEditor[*embed.KeyFigureEmbed])
	assert.False(t, editor.IsOpen())

	require.NoError(t, editor.Open())
	require.NoError(t, editor.Close(context.Background()))
	h.settle()

	assert.Equal(t, attrs, h.data())
	assert.Len(t, h.store.Blocks(), 3)
}

func TestBlockSaveClearsFirstEditAndMovesSelection(t *testing.T) {
	h := newHarness(t, document.NewFirstEditEmbed(embed.ResourceContactBlock))
	editor := h.dispatch().(*BlockEditor[*embed.ContactBlockEmbed])

	require.NoError(t, editor.Save(context.Background(), contact()))
	assert.Nil(t, h.store.Selection())

	h.settle()

	n, err := h.store.Node(document.Path{1})
	require.NoError(t, err)
	assert.False(t, n.IsFirstEdit)
	assert.Equal(t, "Kari", n.Data["name"])
	assert.Equal(t, "contact-block", n.Data["resource"])
	assert.False(t, editor.IsOpen())
	assert.Equal(t, document.Collapsed(document.Point{Path: document.Path{2, 0}}), h.store.Selection())

	require.NoError(t, editor.Close(context.Background()))
	assert.Len(t, h.store.Blocks(), 3)
}

func TestBlockSaveSelectsAfterMovedBlock(t *testing.T) {
	h := newHarness(t, document.NewFirstEditEmbed(embed.ResourceContactBlock))
	editor := h.dispatch().(*BlockEditor[*embed.ContactBlockEmbed])

	require.NoError(t, editor.Save(context.Background(), contact()))
	require.NoError(t, h.store.InsertNode(document.Path{0}, document.NewParagraph("new")))
	h.settle()

	assert.Equal(t, []string{"new", "before", "", "after"}, h.texts())
	assert.Equal(t, document.Collapsed(document.Point{Path: document.Path{3, 0}}), h.store.Selection())
}

func TestBlockFirstEditAbortAfterInsertSelectsNeighbour(t *testing.T) {
	h := newHarness(t, document.NewFirstEditEmbed(embed.ResourceKeyFigure))
	editor := h.dispatch().(*BlockEditor[*embed.KeyFigureEmbed])

	require.NoError(t, editor.Close(context.Background()))
	require.NoError(t, h.store.InsertNode(document.Path{0}, document.NewParagraph("new")))
	h.settle()

	assert.Equal(t, []string{"new", "before", "after"}, h.texts())
	assert.Equal(t, document.Collapsed(document.Point{Path: document.Path{2, 0}}), h.store.Selection())
}

func TestBlockSaveInvalid(t *testing.T) {
	h := newHarness(t, document.NewFirstEditEmbed(embed.ResourceContactBlock))
	editor := h.dispatch().(*BlockEditor[*embed.ContactBlockEmbed])

	data := contact()
	data.Email = "not an email"
	err := editor.Save(context.Background(), data)
	assert.ErrorIs(t, err, embed.ErrInvalid)

	assert.True(t, editor.IsOpen())
	assert.Equal(t, embed.Attributes{"resource": "contact-block"}, h.data())
	assert.Contains(t, editor.FieldErrors(data), "Email")
}

func TestBlockFieldErrorsNeedTouchOrSubmit(t *testing.T) {
	h := newHarness(t, document.NewFirstEditEmbed(embed.ResourceKeyFigure))
	editor := h.dispatch().(*BlockEditor[*embed.KeyFigureEmbed])

	empty := &embed.KeyFigureEmbed{}
	assert.Nil(t, editor.FieldErrors(empty))

	h.env.Form.Submitted = true
	assert.Contains(t, editor.FieldErrors(empty), "Title")

	h.env.Form.Submitted = false
	editor.Touch()
	assert.Contains(t, editor.FieldErrors(empty), "ImageID")
}

func TestBlockSaveWithoutChangesIsNoop(t *testing.T) {
	attrs := embed.Attributes{
		"resource":    "campaign-block",
		"title":       "Join",
		"description": "Now",
		"url":         "https://ndla.no",
		"url-text":    "Go",
		"extra":       "kept",
	}
	h := newHarness(t, embedAt(attrs.Clone()))
	editor := h.dispatch().(*BlockEditor[*embed.CampaignBlockEmbed])

	value, err := editor.Value()
	require.NoError(t, err)
	require.NoError(t, editor.Open())
	require.NoError(t, editor.Save(context.Background(), value))
	h.settle()

	assert.Equal(t, attrs, h.data())
}

func TestBlockLoadImage(t *testing.T) {
	h := newHarness(t, embedAt(embed.Attributes{"resource": "key-figure", "image-id": "7", "title": "t", "subtitle": "s"}))
	h.fake.Images["7"] = apitest.Image("7", "figure")
	editor := h.dispatch().(*BlockEditor[*embed.KeyFigureEmbed])

	editor.LoadImage(context.Background())
	assert.Nil(t, editor.Image())

	h.settle()
	require.NotNil(t, editor.Image())
	assert.Equal(t, "figure", editor.Image().AltText())
}

func TestConceptPreview(t *testing.T) {
	h := newHarness(t, embedAt(embed.Attributes{"resource": "concept", "content-id": "1", "type": "block"}))
	h.fake.Concepts[1] = apitest.Concept(1, "Photosynthesis")
	editor := h.dispatch().(*ConceptEditor)

	editor.Load(context.Background())
	assert.Nil(t, editor.Concept())

	h.settle()
	require.NotNil(t, editor.Concept())
	assert.Equal(t, "Photosynthesis", editor.Concept().Title.Title)
}

func TestConceptReplacedBeforeFetchResolves(t *testing.T) {
	h := newHarness(t, embedAt(embed.Attributes{"resource": "gloss", "content-id": "1"}))
	h.fake.Concepts[1] = apitest.Concept(1, "first")
	h.fake.Concepts[2] = apitest.Concept(2, "second")
	release := h.fake.Gate("1")
	editor := h.dispatch().(*ConceptEditor)

	editor.Load(context.Background())
	require.NoError(t, editor.Open())
	require.NoError(t, editor.Save(context.Background(), &embed.ConceptEmbed{ContentID: "2"}))
	release()
	h.settle()

	require.NotNil(t, editor.Concept())
	assert.Equal(t, "second", editor.Concept().Title.Title)
	assert.Equal(t, "gloss", h.data()["resource"])
	assert.Equal(t, "2", h.data()["content-id"])
}

func TestConceptFetchFailureKeepsBlock(t *testing.T) {
	h := newHarness(t, embedAt(embed.Attributes{"resource": "concept", "content-id": "9"}))
	editor := h.dispatch().(*ConceptEditor)

	editor.Load(context.Background())
	h.settle()

	assert.Nil(t, editor.Concept())
	assert.Error(t, editor.Err())
	assert.Len(t, h.store.Blocks(), 3)

	require.NoError(t, editor.Remove(context.Background()))
	assert.Len(t, h.store.Blocks(), 2)
}
