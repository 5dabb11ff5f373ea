package editors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stateful/embedkit/pkg/api"
	"github.com/stateful/embedkit/pkg/document"
	"github.com/stateful/embedkit/pkg/embed"
)

func newVideoHarness(t *testing.T, attrs embed.Attributes) (*harness, *VideoEditor) {
	t.Helper()
	h := newHarness(t, embedAt(attrs))
	editor, ok := h.dispatch().(*VideoEditor)
	require.True(t, ok)
	return h, editor
}

func brightcove(videoid string) embed.Attributes {
	return embed.Attributes{"resource": "brightcove", "videoid": videoid, "account": "acc", "player": "pl", "caption": "c"}
}

func TestVideoBrightcovePlayerURL(t *testing.T) {
	_, editor := newVideoHarness(t, brightcove("123"))
	assert.Equal(t, "https://players.brightcove.net/acc/pl_default/index.html?videoId=123", editor.PlayerURL())

	attrs := brightcove("123")
	attrs["url"] = "https://players.brightcove.net/other/x_default/index.html?videoId=9"
	_, editor = newVideoHarness(t, attrs)
	assert.Equal(t, attrs["url"], editor.PlayerURL())
}

func TestVideoBrightcoveStartTime(t *testing.T) {
	h, editor := newVideoHarness(t, brightcove("123&t=10s"))

	require.NoError(t, editor.Edit())
	assert.Equal(t, "00:00:10", editor.Form().Start)
	assert.Error(t, editor.SetStopTime("20"))

	require.NoError(t, editor.SetStartTime("1:00"))
	require.NoError(t, editor.Save(context.Background()))
	assert.Equal(t, "123&t=60s", h.data()["videoid"])

	require.NoError(t, editor.Edit())
	require.NoError(t, editor.SetStartTime(""))
	require.NoError(t, editor.Save(context.Background()))
	assert.Equal(t, "123", h.data()["videoid"])
}

func TestVideoSaveWithoutChangesIsNoop(t *testing.T) {
	testCases := map[string]embed.Attributes{
		"brightcove": brightcove("123&t=10s"),
		"youtube":    {"resource": "external", "url": "https://www.youtube.com/embed/abc?start=5&end=3", "height": "300px"},
	}
	for name, attrs := range testCases {
		t.Run(name, func(t *testing.T) {
			h, editor := newVideoHarness(t, attrs.Clone())

			require.NoError(t, editor.Edit())
			require.NoError(t, editor.Save(context.Background()))
			assert.Equal(t, attrs, h.data())
		})
	}
}

func TestVideoYouTubeTimeStamps(t *testing.T) {
	h, editor := newVideoHarness(t, embed.Attributes{"resource": "iframe", "url": "https://www.youtube.com/embed/abc"})

	require.NoError(t, editor.Edit())
	require.NoError(t, editor.SetStartTime("10"))
	require.NoError(t, editor.SetStopTime("20"))
	require.NoError(t, editor.SetCaption("A video"))
	require.NoError(t, editor.Save(context.Background()))

	data := h.data()
	assert.Equal(t, "https://www.youtube.com/embed/abc?end=20&start=10", data["url"])
	assert.Equal(t, "A video", data["caption"])
	assert.Equal(t, "iframe", data["resource"])

	require.NoError(t, editor.Edit())
	assert.Equal(t, VideoForm{Caption: "A video", Start: "00:00:10", Stop: "00:00:20"}, editor.Form())
	assert.Error(t, editor.SetStartTime("a:b"))
}

func TestVideoResizeFloor(t *testing.T) {
	h, editor := newVideoHarness(t, embed.Attributes{"resource": "iframe", "url": "https://www.youtube.com/embed/abc", "height": "400"})

	require.True(t, editor.CanResize())
	require.NoError(t, editor.BeginResize(500))

	h.env.Body.Move(0, 300)
	assert.Equal(t, 200, editor.Height())
	assert.Equal(t, "400", h.data()["height"])

	h.env.Body.Up(0, 50)
	assert.Equal(t, "100", h.data()["height"])
	assert.Equal(t, 100, editor.Height())
	assert.Equal(t, 0, h.env.Body.Listeners())
}

func TestVideoBrightcoveCannotResize(t *testing.T) {
	_, editor := newVideoHarness(t, brightcove("123"))
	assert.False(t, editor.CanResize())
	assert.ErrorIs(t, editor.BeginResize(0), ErrNotResizable)
}

func TestVideoLinkedVideoSwap(t *testing.T) {
	h, editor := newVideoHarness(t, brightcove("123&t=10s"))
	h.fake.Videos["123"] = &api.BrightcoveVideo{ID: "123", Link: &api.Link{Text: "456"}}

	editor.LoadLinkedVideo(context.Background())
	h.settle()

	linked, ok := editor.LinkedVideo()
	require.True(t, ok)
	assert.Equal(t, "456", linked)
	assert.Equal(t, 1, h.fake.Calls("123"))
	assert.False(t, editor.ShowsLinkedVideo())

	require.NoError(t, editor.SwapLinkedVideo(context.Background()))
	assert.Equal(t, "456&t=10s", h.data()["videoid"])
	assert.True(t, editor.ShowsLinkedVideo())

	require.NoError(t, editor.SwapLinkedVideo(context.Background()))
	assert.Equal(t, "123&t=10s", h.data()["videoid"])
}

func TestVideoLinkedVideoStaleResult(t *testing.T) {
	h, editor := newVideoHarness(t, brightcove("123"))
	h.fake.Videos["123"] = &api.BrightcoveVideo{ID: "123", Link: &api.Link{Text: "456"}}
	release := h.fake.Gate("123")

	editor.LoadLinkedVideo(context.Background())
	require.NoError(t, h.store.SetNode(document.Path{1}, document.NodeProps{Data: embed.Attributes{"videoid": "789"}}))
	release()
	h.settle()

	_, ok := editor.LinkedVideo()
	assert.False(t, ok)
	assert.Error(t, editor.SwapLinkedVideo(context.Background()))
}

func TestVideoLinkedVideoFailure(t *testing.T) {
	h, editor := newVideoHarness(t, brightcove("123"))

	editor.LoadLinkedVideo(context.Background())
	h.settle()

	assert.ErrorIs(t, editor.Err(), api.ErrNotFound)
	require.NoError(t, editor.Remove(context.Background()))
	assert.Equal(t, []string{"before", "after"}, h.texts())
}

func TestVideoBrightcoveFirstEdit(t *testing.T) {
	h := newHarness(t, document.NewFirstEditEmbed(embed.ResourceBrightcove))
	h.env.BrightcoveAccount, h.env.BrightcovePlayer = "acc", "pl"
	editor, ok := h.dispatch().(*VideoEditor)
	require.True(t, ok)
	require.Equal(t, Editing, editor.State())
	assert.Empty(t, editor.PlayerURL())

	err := editor.Save(context.Background())
	assert.ErrorIs(t, err, embed.ErrInvalid)

	require.NoError(t, editor.SetVideoID(" 6300 "))
	require.NoError(t, editor.SetCaption("Glaciers"))
	require.NoError(t, editor.Save(context.Background()))

	n, err := h.store.Node(document.Path{1})
	require.NoError(t, err)
	assert.False(t, n.IsFirstEdit)
	assert.Equal(t, "6300", n.Data["videoid"])
	assert.Equal(t, "acc", n.Data["account"])
	assert.Equal(t, "pl", n.Data["player"])
	assert.Equal(t, "Glaciers", n.Data["caption"])
	assert.Equal(t, Viewing, editor.State())

	assert.Error(t, editor.SetVideoID("7"))
}

func TestVideoBrightcoveFirstEditAbortRemovesNode(t *testing.T) {
	h := newHarness(t, document.NewFirstEditEmbed(embed.ResourceBrightcove))
	h.store.Select(document.Collapsed(document.Point{Path: document.Path{1, 0}}))
	editor := h.dispatch().(*VideoEditor)

	editor.Abort()
	h.settle()

	assert.Equal(t, []string{"before", "after"}, h.texts())
	assert.Equal(t, document.Collapsed(document.Point{Path: document.Path{1, 0}}), h.store.Selection())
}
