package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/stateful/embedkit/pkg/whitelist"
)

var ErrNotWhitelisted = errors.New("no whitelisted provider")

func writeProvider(w io.Writer, p whitelist.Provider, s styles) error {
	line := s.title.Render(p.Name) + " " + s.muted.Render(strings.Join(p.URL, ", "))
	if p.Height > 0 {
		line += " " + s.key.Render("height") + fmt.Sprintf("=%d", p.Height)
	}
	if p.Fullscreen {
		line += " " + s.key.Render("fullscreen")
	}
	_, err := fmt.Fprintln(w, line)
	return errors.Wrap(err, "failed to write to stdout")
}

func whitelistCmd() *cobra.Command {
	cmd := cobra.Command{
		Use:   "whitelist [url]",
		Short: "Show the provider a URL resolves to, or list all providers.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return invoke(func(table whitelist.Table) error {
				w := cmd.OutOrStdout()
				s := newStyles(w)

				if len(args) == 0 {
					for _, p := range table {
						if err := writeProvider(w, p, s); err != nil {
							return err
						}
					}
					return nil
				}

				p, ok := table.ByURL(args[0])
				if !ok {
					return errors.Wrapf(ErrNotWhitelisted, "%q", args[0])
				}
				return writeProvider(w, p, s)
			})
		},
	}

	return &cmd
}
