package whitelist

import (
	_ "embed"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Provider is an allowed source of external embeds.
type Provider struct {
	Name       string   `yaml:"name" json:"name" validate:"required"`
	URL        []string `yaml:"url" json:"url" validate:"required,min=1,dive,required"`
	Height     int      `yaml:"height,omitempty" json:"height,omitempty" validate:"gte=0"`
	Fullscreen bool     `yaml:"fullscreen,omitempty" json:"fullscreen,omitempty"`
}

// Matches reports whether one of the provider domains is part of rawURL.
func (p Provider) Matches(rawURL string) bool {
	target := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		target = u.Host + u.Path
	}
	for _, domain := range p.URL {
		if domain != "" && strings.Contains(target, domain) {
			return true
		}
	}
	return false
}

// Table is an ordered whitelist.
type Table []Provider

//go:embed providers.yaml
var defaultProviders []byte

var defaultTable Table

func init() {
	table, err := Parse(defaultProviders)
	if err != nil {
		panic(err)
	}
	defaultTable = table
}

// Default returns a copy of the built-in whitelist.
func Default() Table {
	result := make(Table, len(defaultTable))
	copy(result, defaultTable)
	return result
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Parse reads a YAML list of providers.
func Parse(data []byte) (Table, error) {
	var table Table
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, errors.Wrap(err, "failed to parse whitelist")
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

func (t Table) Validate() error {
	for i, p := range t {
		if err := validate.Struct(p); err != nil {
			return errors.Wrapf(err, "invalid provider #%d %q", i, p.Name)
		}
	}
	return nil
}

// ByName finds the provider with exactly the given name.
func (t Table) ByName(name string) (Provider, bool) {
	for _, p := range t {
		if p.Name == name {
			return p, true
		}
	}
	return Provider{}, false
}

// ByURL finds the first provider whose domain is part of rawURL.
func (t Table) ByURL(rawURL string) (Provider, bool) {
	for _, p := range t {
		if p.Matches(rawURL) {
			return p, true
		}
	}
	return Provider{}, false
}

// Resolve picks the provider for an external embed. Generic iframes and
// oEmbed responses without a provider name are matched by URL domain,
// everything else by provider name.
func (t Table) Resolve(resource, providerName, rawURL string) (Provider, bool) {
	if resource == "iframe" || providerName == "" {
		return t.ByURL(rawURL)
	}
	return t.ByName(providerName)
}
