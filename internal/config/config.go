package config

import (
	"bytes"
	"io"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/stateful/embedkit/pkg/whitelist"
)

const (
	TypeYAML = "yaml"
	TypeTOML = "toml"
)

// Config is a uniform configuration structure for embedkit.
// It should unify all past, current, and future config file versions.
type Config struct {
	// API related fields.
	APIBaseURL   string
	OembedURL    string
	APITimeout   time.Duration
	APIRetries   int
	APICacheSize int
	APIDebug     bool

	// Editor related fields.
	Language        string
	MinResizeHeight int
	ContentHosts    []string

	BrightcoveAccount string
	BrightcovePlayer  string

	// Whitelist is empty when the built-in whitelist should be used.
	Whitelist whitelist.Table

	Filters []*Filter

	// Log related fields.
	LogEnabled bool
	LogPath    string
	LogVerbose bool
}

// Providers returns the configured whitelist or the built-in one.
func (c *Config) Providers() whitelist.Table {
	if len(c.Whitelist) > 0 {
		return c.Whitelist
	}
	return whitelist.Default()
}

type configV1alpha1 struct {
	Version string `yaml:"version" toml:"version"`
	API     struct {
		BaseURL   string `yaml:"base_url" toml:"base_url" validate:"omitempty,url"`
		OembedURL string `yaml:"oembed_url" toml:"oembed_url" validate:"omitempty,url"`
		Timeout   string `yaml:"timeout" toml:"timeout"`
		Retries   int    `yaml:"retries" toml:"retries" validate:"gte=0,lte=10"`
		CacheSize int    `yaml:"cache_size" toml:"cache_size" validate:"gte=0"`
		Debug     bool   `yaml:"debug" toml:"debug"`
	} `yaml:"api" toml:"api"`
	Editor struct {
		Language        string   `yaml:"language" toml:"language" validate:"omitempty,oneof=nb nn en se sma"`
		MinResizeHeight int      `yaml:"min_resize_height" toml:"min_resize_height" validate:"gte=0"`
		ContentHosts    []string `yaml:"content_hosts" toml:"content_hosts" validate:"dive,required"`
	} `yaml:"editor" toml:"editor"`
	Brightcove struct {
		Account string `yaml:"account" toml:"account" validate:"omitempty,numeric"`
		Player  string `yaml:"player" toml:"player"`
	} `yaml:"brightcove" toml:"brightcove"`
	Whitelist whitelist.Table `yaml:"whitelist" toml:"whitelist"`
	Filters   []struct {
		Type      string `yaml:"type" toml:"type" validate:"oneof=FILTER_TYPE_EMBED"`
		Condition string `yaml:"condition" toml:"condition" validate:"required"`
	} `yaml:"filters" toml:"filters" validate:"dive"`
	Log struct {
		Enabled bool   `yaml:"enabled" toml:"enabled"`
		Path    string `yaml:"path" toml:"path"`
		Verbose bool   `yaml:"verbose" toml:"verbose"`
	} `yaml:"log" toml:"log"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func ParseYAML(data []byte) (*Config, error) {
	return Parse(data, TypeYAML)
}

func ParseTOML(data []byte) (*Config, error) {
	return Parse(data, TypeTOML)
}

// Parse reads a config file of the given type.
func Parse(data []byte, typ string) (*Config, error) {
	version, err := parseVersion(data, typ)
	if err != nil {
		return nil, err
	}
	switch version {
	case "v1alpha1":
		var cfg configV1alpha1
		if err := unmarshal(data, typ, &cfg); err != nil {
			return nil, errors.Wrap(err, "failed to parse v1alpha1 config")
		}
		if err := validateV1alpha1(&cfg); err != nil {
			return nil, errors.Wrap(err, "failed to validate v1alpha1 config")
		}
		return configV1alpha1ToConfig(&cfg)
	default:
		return nil, errors.Errorf("unknown version: %q", version)
	}
}

type versionOnly struct {
	Version string `yaml:"version" toml:"version"`
}

func parseVersion(data []byte, typ string) (string, error) {
	var result versionOnly
	var err error
	if typ == TypeTOML {
		err = toml.Unmarshal(data, &result)
	} else {
		err = yaml.Unmarshal(data, &result)
	}
	if err != nil {
		return "", errors.Wrap(err, "failed to unmarshal version")
	}
	return result.Version, nil
}

func unmarshal(data []byte, typ string, v any) error {
	switch typ {
	case TypeYAML, "yml", "":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
			return errors.WithStack(err)
		}
		return nil
	case TypeTOML:
		return errors.WithStack(toml.Unmarshal(data, v))
	default:
		return errors.Errorf("unsupported config type %q", typ)
	}
}

func validateV1alpha1(cfg *configV1alpha1) error {
	err := validate.Struct(cfg)
	if cfg.API.Timeout != "" {
		if _, perr := time.ParseDuration(cfg.API.Timeout); perr != nil {
			err = multierr.Append(err, errors.Wrap(perr, "api.timeout"))
		}
	}
	if verr := cfg.Whitelist.Validate(); verr != nil {
		err = multierr.Append(err, verr)
	}
	return err
}

func configV1alpha1ToConfig(c *configV1alpha1) (*Config, error) {
	var timeout time.Duration
	if c.API.Timeout != "" {
		timeout, _ = time.ParseDuration(c.API.Timeout)
	}

	var filters []*Filter
	for _, f := range c.Filters {
		filter := &Filter{Type: f.Type, Condition: f.Condition}
		if err := filter.Compile(); err != nil {
			return nil, err
		}
		filters = append(filters, filter)
	}

	return &Config{
		APIBaseURL:   c.API.BaseURL,
		OembedURL:    c.API.OembedURL,
		APITimeout:   timeout,
		APIRetries:   c.API.Retries,
		APICacheSize: c.API.CacheSize,
		APIDebug:     c.API.Debug,

		Language:        c.Editor.Language,
		MinResizeHeight: c.Editor.MinResizeHeight,
		ContentHosts:    c.Editor.ContentHosts,

		BrightcoveAccount: c.Brightcove.Account,
		BrightcovePlayer:  c.Brightcove.Player,

		Whitelist: c.Whitelist,
		Filters:   filters,

		LogEnabled: c.Log.Enabled,
		LogPath:    c.Log.Path,
		LogVerbose: c.Log.Verbose,
	}, nil
}
