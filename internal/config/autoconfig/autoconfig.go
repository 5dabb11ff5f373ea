// autoconfig provides a way to create various instances from the [config.Config] like
// [api.Client], [session.Loop], [zap.Logger] and editor environments.
//
// For example, to get an API client, you can write:
//
//	autoconfig.NewBuilder().Invoke(func(c *api.Client) error {
//	    ...
//	})
//
// Treat it as a dependency injection mechanism.
package autoconfig

import (
	"io/fs"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/stateful/embedkit/internal/config"
	"github.com/stateful/embedkit/internal/log"
	"github.com/stateful/embedkit/internal/session"
	"github.com/stateful/embedkit/pkg/api"
	"github.com/stateful/embedkit/pkg/dispatch"
	"github.com/stateful/embedkit/pkg/document"
	"github.com/stateful/embedkit/pkg/editors"
	"github.com/stateful/embedkit/pkg/whitelist"
)

const configName = "embedkit"

// Editors builds the editor environment and the dispatcher for a document.
type Editors func(store document.DocumentStore) (*editors.Env, *dispatch.Dispatcher)

type Builder struct {
	container *dig.Container
}

func NewBuilder() *Builder {
	b := &Builder{container: dig.New()}
	mustProvide(b.container.Provide(getConfigFS))
	mustProvide(b.container.Provide(getLoader))
	mustProvide(b.container.Provide(getConfig))
	mustProvide(b.container.Provide(getLogger))
	mustProvide(b.container.Provide(getWhitelist))
	mustProvide(b.container.Provide(getClient))
	mustProvide(b.container.Provide(getFetcher))
	mustProvide(b.container.Provide(getLoop))
	mustProvide(b.container.Provide(getEditors))
	return b
}

func mustProvide(err error) {
	if err != nil {
		panic("failed to provide: " + err.Error())
	}
}

// Decorate replaces a provided value, typically in tests:
//
//	b.Decorate(func() (*config.Loader, error) { return config.NewLoader(...), nil })
func (b *Builder) Decorate(decorator interface{}, opts ...dig.DecorateOption) error {
	return errors.WithStack(b.container.Decorate(decorator, opts...))
}

// Invoke is used to invoke the function with the given dependencies.
// The builder will automatically figure out how to instantiate them
// using the available configuration.
func (b *Builder) Invoke(function interface{}, opts ...dig.InvokeOption) error {
	err := b.container.Invoke(function, opts...)
	return dig.RootCause(err)
}

func getConfigFS() (fs.FS, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return os.DirFS(cwd), nil
}

// getLoader prefers embedkit.yaml and falls back to embedkit.toml.
func getLoader(fsys fs.FS) *config.Loader {
	typ := config.TypeYAML
	if _, err := fs.Stat(fsys, configName+"."+config.TypeYAML); err != nil {
		if _, err := fs.Stat(fsys, configName+"."+config.TypeTOML); err == nil {
			typ = config.TypeTOML
		}
	}
	return config.NewLoader(configName, typ, fsys, config.WithLogger(log.For("config")))
}

func getConfig(loader *config.Loader) (*config.Config, error) {
	return loader.Load("")
}

// getLogger builds the logger from the config. Without logging enabled
// in the config, the process logger is used, which discards unless the
// CLI was started with --debug.
func getLogger(c *config.Config) (*zap.Logger, error) {
	if c == nil || !c.LogEnabled {
		return log.Get(), nil
	}

	zapConfig := zap.Config{
		Level:       zap.NewAtomicLevelAt(zap.InfoLevel),
		Development: false,
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	if c.LogVerbose {
		zapConfig.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		zapConfig.Development = true
		zapConfig.Encoding = "console"
		zapConfig.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	if c.LogPath != "" {
		zapConfig.OutputPaths = []string{c.LogPath}
		zapConfig.ErrorOutputPaths = []string{c.LogPath}
	}

	l, err := zapConfig.Build()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	log.Replace(l)
	return l, nil
}

func getWhitelist(c *config.Config) whitelist.Table {
	return c.Providers()
}

func getClient(c *config.Config, logger *zap.Logger) *api.Client {
	opts := []api.ClientOption{
		api.WithLogger(logger),
		api.WithBrightcove("", c.BrightcoveAccount),
	}
	if c.APIBaseURL != "" {
		opts = append(opts, api.WithBaseURL(c.APIBaseURL))
	}
	if c.OembedURL != "" {
		opts = append(opts, api.WithOembedURL(c.OembedURL))
	}
	if c.APITimeout > 0 {
		opts = append(opts, api.WithTimeout(c.APITimeout))
	}
	if c.APICacheSize > 0 {
		opts = append(opts, api.WithCacheSize(c.APICacheSize))
	}
	if c.APIDebug {
		opts = append(opts, api.WithDebug(os.Stderr))
	}
	opts = append(opts, api.WithRetries(c.APIRetries, 0, 0))
	return api.NewClient(opts...)
}

func getFetcher(c *api.Client) api.Fetcher { return c }

func getLoop(logger *zap.Logger) *session.Loop {
	return session.NewLoop(session.WithLogger(logger))
}

func getEditors(c *config.Config, fetcher api.Fetcher, loop *session.Loop, table whitelist.Table, logger *zap.Logger) Editors {
	return func(store document.DocumentStore) (*editors.Env, *dispatch.Dispatcher) {
		opts := []editors.Option{
			editors.WithLogger(logger),
			editors.WithWhitelist(table),
			editors.WithBrightcove(c.BrightcoveAccount, c.BrightcovePlayer),
		}
		if c.Language != "" {
			opts = append(opts, editors.WithLanguage(c.Language))
		}
		if c.MinResizeHeight > 0 {
			opts = append(opts, editors.WithMinResizeHeight(c.MinResizeHeight))
		}
		env := editors.NewEnv(store, loop, fetcher, opts...)
		d := dispatch.New(env.Mutator, dispatch.WithLogger(logger))
		editors.Register(d, env)
		return env, d
	}
}
