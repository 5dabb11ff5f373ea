package config

import (
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Merge applies the config files in order on top of the built-in defaults.
// Nested tables are merged key by key; lists replace each other.
func Merge(typ string, files ...[]byte) (*Config, error) {
	merged, err := toMap(defaultYAML, TypeYAML)
	if err != nil {
		return nil, err
	}
	for _, data := range files {
		m, err := toMap(data, typ)
		if err != nil {
			return nil, err
		}
		mergeMaps(merged, m)
	}
	data, err := yaml.Marshal(merged)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return ParseYAML(data)
}

func toMap(data []byte, typ string) (map[string]any, error) {
	result := make(map[string]any)
	var err error
	if typ == TypeTOML {
		err = toml.Unmarshal(data, &result)
	} else {
		err = yaml.Unmarshal(data, &result)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return result, nil
}

func mergeMaps(dst, src map[string]any) {
	for k, v := range src {
		srcMap, ok := v.(map[string]any)
		if !ok {
			dst[k] = v
			continue
		}
		dstMap, ok := dst[k].(map[string]any)
		if !ok {
			dst[k] = srcMap
			continue
		}
		mergeMaps(dstMap, srcMap)
	}
}
