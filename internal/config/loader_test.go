package config

import (
	"io/fs"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewLoader(t *testing.T) {
	t.Parallel()

	require.Panics(t, func() {
		NewLoader("", "yaml", fstest.MapFS{})
	}, "config name is not set")
}

func TestLoader_RootConfig(t *testing.T) {
	t.Parallel()

	t.Run("without root config", func(t *testing.T) {
		t.Parallel()

		fsys := fstest.MapFS{}
		loader := NewLoader("embedkit", "yaml", fsys, WithLogger(zaptest.NewLogger(t)))
		result, err := loader.RootConfig()
		require.ErrorIs(t, err, ErrRootConfigNotFound)
		require.Nil(t, result)
	})

	t.Run("with root config", func(t *testing.T) {
		t.Parallel()

		data := []byte("version: v1alpha1\n")
		fsys := fstest.MapFS{
			"embedkit.yaml": {
				Data: data,
			},
		}
		loader := NewLoader("embedkit", "yaml", fsys, WithLogger(zaptest.NewLogger(t)))
		result, err := loader.RootConfig()
		require.NoError(t, err)
		require.Equal(t, data, result)
	})
}

func TestLoader_ChainConfigs(t *testing.T) {
	t.Parallel()

	t.Run("without root config", func(t *testing.T) {
		t.Parallel()

		fsys := fstest.MapFS{}
		loader := NewLoader("embedkit", "yaml", fsys, WithLogger(zaptest.NewLogger(t)))
		result, err := loader.FindConfigChain("")
		require.NoError(t, err)
		require.Nil(t, result)
	})

	fsys := fstest.MapFS{
		"embedkit.yaml": {
			Data: []byte("path:embedkit.yaml"),
		},
		"nested/embedkit.yaml": {
			Data: []byte("path:nested/embedkit.yaml"),
		},
		"nested/path/embedkit.yaml": {
			Data: []byte("path:nested/path/embedkit.yaml"),
		},
		"other/embedkit.yaml": {
			Data: []byte("path:other/embedkit.yaml"),
		},
		"without/config": {
			Data: []byte("path:without/config"),
			Mode: fs.ModeDir,
		},
	}
	loader := NewLoader("embedkit", "yaml", fsys, WithLogger(zaptest.NewLogger(t)))

	t.Run("root config", func(t *testing.T) {
		result, err := loader.FindConfigChain("")
		require.NoError(t, err)
		require.Equal(
			t,
			[][]byte{[]byte("path:embedkit.yaml")},
			result,
		)
	})

	t.Run("nested config", func(t *testing.T) {
		result, err := loader.FindConfigChain("nested")
		require.NoError(t, err)
		require.Equal(
			t,
			[][]byte{[]byte("path:embedkit.yaml"), []byte("path:nested/embedkit.yaml")},
			result,
		)
	})

	t.Run("nested deep config", func(t *testing.T) {
		result, err := loader.FindConfigChain("nested/path")
		require.NoError(t, err)
		require.Equal(
			t,
			[][]byte{
				[]byte("path:embedkit.yaml"),
				[]byte("path:nested/embedkit.yaml"),
				[]byte("path:nested/path/embedkit.yaml"),
			},
			result,
		)
	})

	t.Run("nested without config", func(t *testing.T) {
		result, err := loader.FindConfigChain("without/config")
		require.NoError(t, err)
		require.Equal(
			t,
			[][]byte{[]byte("path:embedkit.yaml")},
			result,
		)
	})
}

func TestLoader_Load(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"embedkit.yaml": {
			Data: []byte("version: v1alpha1\neditor:\n  language: nn\napi:\n  retries: 1\n"),
		},
		"articles/embedkit.yaml": {
			Data: []byte("version: v1alpha1\neditor:\n  language: en\n"),
		},
	}
	loader := NewLoader("embedkit", TypeYAML, fsys, WithLogger(zaptest.NewLogger(t)))

	cfg, err := loader.Load("")
	require.NoError(t, err)
	require.Equal(t, "nn", cfg.Language)
	require.Equal(t, 1, cfg.APIRetries)
	require.Equal(t, 100, cfg.MinResizeHeight, "defaults are kept")

	cfg, err = loader.Load("articles")
	require.NoError(t, err)
	require.Equal(t, "en", cfg.Language)
	require.Equal(t, 1, cfg.APIRetries)
}

func TestLoader_LoadTOML(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"embedkit.toml": {
			Data: []byte(`version = "v1alpha1"

[api]
timeout = "2s"

[[whitelist]]
name = "Vimeo"
url = ["vimeo.com"]
height = 360
`),
		},
	}
	loader := NewLoader("embedkit", TypeTOML, fsys)

	cfg, err := loader.Load("")
	require.NoError(t, err)
	require.Equal(t, 2*time.Second, cfg.APITimeout)
	require.Len(t, cfg.Providers(), 1)
	require.Equal(t, 360, cfg.Providers()[0].Height)
}
