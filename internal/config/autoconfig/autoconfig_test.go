package autoconfig

import (
	"context"
	"io/fs"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stateful/embedkit/internal/config"
	"github.com/stateful/embedkit/internal/session"
	"github.com/stateful/embedkit/pkg/api"
	"github.com/stateful/embedkit/pkg/api/apitest"
	"github.com/stateful/embedkit/pkg/dispatch"
	"github.com/stateful/embedkit/pkg/document"
	"github.com/stateful/embedkit/pkg/editors"
	"github.com/stateful/embedkit/pkg/embed"
	"github.com/stateful/embedkit/pkg/whitelist"
)

func builderWith(t *testing.T, files fstest.MapFS) *Builder {
	t.Helper()
	b := NewBuilder()
	require.NoError(t, b.Decorate(func(fs.FS) fs.FS { return files }))
	return b
}

func TestInvoke_DefaultConfig(t *testing.T) {
	b := builderWith(t, fstest.MapFS{})

	err := b.Invoke(func(cfg *config.Config, logger *zap.Logger, table whitelist.Table) error {
		assert.Equal(t, "nb", cfg.Language)
		assert.Equal(t, whitelist.Default(), table)
		assert.NotNil(t, logger)
		return nil
	})
	require.NoError(t, err)
}

func TestInvoke_TOMLConfig(t *testing.T) {
	b := builderWith(t, fstest.MapFS{
		"embedkit.toml": {Data: []byte("version = \"v1alpha1\"\n\n[editor]\nlanguage = \"nn\"\n")},
	})

	err := b.Invoke(func(cfg *config.Config) error {
		assert.Equal(t, "nn", cfg.Language)
		return nil
	})
	require.NoError(t, err)
}

func TestInvoke_InvalidConfig(t *testing.T) {
	b := builderWith(t, fstest.MapFS{
		"embedkit.yaml": {Data: []byte("version: v9\n")},
	})

	err := b.Invoke(func(*config.Config) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown version")
}

func TestInvoke_Editors(t *testing.T) {
	b := builderWith(t, fstest.MapFS{
		"embedkit.yaml": {Data: []byte(`version: v1alpha1
editor:
  language: en
  min_resize_height: 150
whitelist:
  - name: Vimeo
    url: [vimeo.com]
`)},
	})
	fake := apitest.New()
	require.NoError(t, b.Decorate(func(api.Fetcher) api.Fetcher { return fake }))

	err := b.Invoke(func(newEditors Editors, loop *session.Loop) error {
		store := document.NewStore([]*document.Node{
			document.NewVoid(document.TypeEmbed, embed.Attributes{"resource": "external", "url": "https://www.youtube.com/watch?v=1"}),
		})
		env, d := newEditors(store)
		assert.Equal(t, "en", env.Language)
		assert.Equal(t, 150, env.MinResizeHeight)
		assert.Equal(t, "4806596774001", env.BrightcoveAccount)
		assert.Equal(t, "BkLm8fT", env.BrightcovePlayer)
		require.Len(t, env.Whitelist, 1)

		props, err := dispatch.PropsAt(store, document.Path{0}, env.Language)
		require.NoError(t, err)
		component := d.Dispatch(props)
		assert.Equal(t, dispatch.KindVideo, component.Kind())
		_, ok := component.(*editors.VideoEditor)
		assert.True(t, ok)

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		return loop.Settle(ctx)
	})
	require.NoError(t, err)
}
