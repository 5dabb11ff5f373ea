package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/stateful/embedkit/internal/config"
	"github.com/stateful/embedkit/pkg/toolbar"
)

func linkCmd() *cobra.Command {
	cmd := cobra.Command{
		Use:   "link [url]",
		Short: "Show whether a URL becomes a content link or a plain link.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			href := args[0]
			if err := toolbar.ValidateHref(href); err != nil {
				return err
			}

			return invoke(func(cfg *config.Config) error {
				w := cmd.OutOrStdout()
				s := newStyles(w)

				hosts := cfg.ContentHosts
				if len(hosts) == 0 {
					hosts = toolbar.DefaultContentHosts
				}

				var err error
				if ref, ok := toolbar.ParseContentURL(href, hosts); ok {
					_, err = fmt.Fprintf(w, "%s %s=%s %s=%s\n",
						s.title.Render("content-link"),
						s.key.Render("content-type"), ref.Type,
						s.key.Render("content-id"), ref.ID,
					)
				} else {
					_, err = fmt.Fprintf(w, "%s %s=%s\n", s.title.Render("link"), s.key.Render("href"), href)
				}
				return errors.Wrap(err, "failed to write to stdout")
			})
		},
	}

	return &cmd
}
