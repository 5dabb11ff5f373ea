package cmd

import (
	"fmt"

	"github.com/agnivade/levenshtein"
	"github.com/atotto/clipboard"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/stateful/embedkit/internal/config"
	"github.com/stateful/embedkit/pkg/embed"
)

// completeEmbed fills the parts of an embed that come from the
// installation rather than the author.
func completeEmbed(attrs embed.Attributes, cfg *config.Config) embed.Attributes {
	result := attrs.Clone()
	if result.Resource() == embed.ResourceBrightcove {
		if result["account"] == "" && cfg.BrightcoveAccount != "" {
			result["account"] = cfg.BrightcoveAccount
		}
		if result["player"] == "" && cfg.BrightcovePlayer != "" {
			result["player"] = cfg.BrightcovePlayer
		}
	}
	return result
}

// suggestResource returns the registered resource closest to an unknown one.
func suggestResource(r embed.Resource) (embed.Resource, bool) {
	var best embed.Resource
	bestDist := 3
	for _, known := range embed.Registered() {
		if d := levenshtein.ComputeDistance(string(r), string(known)); d < bestDist {
			best, bestDist = known, d
		}
	}
	return best, best != ""
}

func encodeCmd() *cobra.Command {
	var (
		force       bool
		toClipboard bool
	)

	cmd := cobra.Command{
		Use:   "encode [file]",
		Short: "Convert embed data in JSON into an <ndlaembed> tag.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, name, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			attrs, err := embed.ParseAttributes(source)
			if err != nil {
				return err
			}

			return invoke(func(loader *config.Loader) error {
				cfg, err := configFor(loader, name)
				if err != nil {
					return err
				}
				attrs := completeEmbed(attrs, cfg)

				if e, ok := embed.Decode(attrs).(*embed.ErrorEmbed); ok && !force {
					msg := e.Message
					if r := attrs.Resource(); r != "" && !embed.IsRegistered(r) {
						if s, ok := suggestResource(r); ok {
							msg = fmt.Sprintf("%s, did you mean %q?", msg, s)
						}
					}
					return errors.Wrap(embed.ErrInvalid, msg)
				}

				tag := embed.NewTag(attrs).String()
				if toClipboard {
					if err := clipboard.WriteAll(tag); err != nil {
						return errors.Wrap(err, "failed to copy to clipboard")
					}
				}

				_, err = fmt.Fprintln(cmd.OutOrStdout(), tag)
				return errors.Wrap(err, "failed to write to stdout")
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Write the tag even if the embed does not validate.")
	cmd.Flags().BoolVar(&toClipboard, "copy", false, "Also copy the tag to the clipboard, ready to paste into an article.")

	return &cmd
}
