package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stateful/embedkit/internal/config"
	"github.com/stateful/embedkit/internal/log"
	"github.com/stateful/embedkit/pkg/dispatch"
	"github.com/stateful/embedkit/pkg/embed"
	"github.com/stateful/embedkit/pkg/whitelist"
)

type decodedEmbed struct {
	Resource   embed.Resource   `json:"resource"`
	Kind       dispatch.Kind    `json:"kind"`
	Provider   string           `json:"provider,omitempty"`
	Error      string           `json:"error,omitempty"`
	Data       embed.Data       `json:"data,omitempty"`
	Attributes embed.Attributes `json:"attributes"`
}

func decodeEmbed(attrs embed.Attributes, table whitelist.Table) decodedEmbed {
	result := decodedEmbed{
		Resource:   attrs.Resource(),
		Kind:       dispatch.Resolve(attrs),
		Attributes: attrs,
	}
	if url := attrs["url"]; url != "" {
		if p, ok := table.ByURL(url); ok {
			result.Provider = p.Name
		}
	}
	data := embed.Decode(attrs)
	if e, ok := data.(*embed.ErrorEmbed); ok {
		result.Error = e.Message
	} else {
		result.Data = data
	}
	return result
}

func (d decodedEmbed) filterEnv() config.FilterEmbedEnv {
	return config.FilterEmbedEnv{
		Resource:   string(d.Resource),
		Kind:       string(d.Kind),
		URL:        d.Attributes["url"],
		Provider:   d.Provider,
		Valid:      d.Error == "",
		Attributes: d.Attributes,
	}
}

func decodeCmd() *cobra.Command {
	var conditions []string

	cmd := cobra.Command{
		Use:   "decode [file]",
		Short: "Print the embeds of an HTML document as JSON.",
		Long: `Decode finds all <ndlaembed> tags in an HTML document and prints their typed data.

Embeds are filtered by the filters from the config files that apply to the
document and by --filter conditions, for example:

  embedkit decode article.html --filter "kind == 'image' && !valid"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, name, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			return invoke(func(loader *config.Loader) error {
				cfg, err := configFor(loader, name)
				if err != nil {
					return err
				}
				table := cfg.Providers()

				filters := cfg.Filters
				for _, condition := range conditions {
					f := &config.Filter{Type: config.FilterTypeEmbed, Condition: condition}
					if err := f.Compile(); err != nil {
						return err
					}
					filters = append(filters, f)
				}

				tags, err := embed.ParseTags(string(source))
				if err != nil {
					return err
				}

				logger := log.For("decode")
				logger.Debug("found embeds", zap.Int("count", len(tags)), zap.Int("filters", len(filters)))

				result := make([]decodedEmbed, 0, len(tags))
				for _, tag := range tags {
					decoded := decodeEmbed(tag.Attributes(), table)
					ok, err := config.Match(filters, decoded.filterEnv())
					if err != nil {
						return err
					}
					if !ok {
						logger.Debug("filtered out embed", zap.String("resource", string(decoded.Resource)))
						continue
					}
					result = append(result, decoded)
				}

				return writeJSON(cmd.OutOrStdout(), result)
			})
		},
	}

	cmd.Flags().StringArrayVar(&conditions, "filter", nil, "Expression an embed has to match to be printed.")

	return &cmd
}
