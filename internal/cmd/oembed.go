package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/stateful/embedkit/internal/config"
	"github.com/stateful/embedkit/internal/config/autoconfig"
	"github.com/stateful/embedkit/internal/session"
	"github.com/stateful/embedkit/pkg/dispatch"
	"github.com/stateful/embedkit/pkg/document"
	"github.com/stateful/embedkit/pkg/editors"
	"github.com/stateful/embedkit/pkg/embed"
)

const defaultOembedTimeout = 30 * time.Second

func oembedCmd() *cobra.Command {
	var (
		iframe   bool
		showHTML bool
	)

	cmd := cobra.Command{
		Use:   "oembed [url]",
		Short: "Resolve an external embed the way the editor does.",
		Long: `Oembed fetches oEmbed metadata for the URL, matches it against the whitelist
and prints the provider and how the embed would render.

With --iframe the URL is treated as a raw iframe and only matched by domain.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resource := embed.ResourceExternal
			if iframe {
				resource = embed.ResourceIframe
			}
			attrs := embed.Attributes{"resource": string(resource), "url": args[0]}

			return invoke(func(cfg *config.Config, newEditors autoconfig.Editors, loop *session.Loop) error {
				store := document.NewStore([]*document.Node{document.NewVoid(document.TypeEmbed, attrs)})
				env, _ := newEditors(store)

				props, err := dispatch.PropsAt(store, document.Path{0}, env.Language)
				if err != nil {
					return err
				}
				editor, err := editors.NewExternalEditor(env, props)
				if err != nil {
					return err
				}

				timeout := defaultOembedTimeout
				if cfg.APITimeout > 0 {
					timeout = cfg.APITimeout * time.Duration(cfg.APIRetries+1)
				}
				ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
				defer cancel()

				editor.Load(ctx)
				if err := loop.Settle(ctx); err != nil {
					return errors.Wrap(err, "failed to load oembed")
				}

				switch editor.State() {
				case editors.Failed:
					return editor.Err()
				case editors.NotSupported:
					return errors.Wrap(editors.ErrNotWhitelisted, editor.Message())
				}

				w := cmd.OutOrStdout()
				s := newStyles(w)
				var b strings.Builder
				row := func(key, value string) {
					if value != "" {
						fmt.Fprintf(&b, "%s %s\n", s.key.Render(fmt.Sprintf("%-9s", key)), value)
					}
				}
				row("provider", editor.Provider().Name)
				row("kind", string(dispatch.Resolve(attrs)))
				row("render", editor.RenderKind().String())
				row("height", fmt.Sprint(editor.Height()))
				if o := editor.Oembed(); o != nil {
					row("type", o.Type)
					row("title", o.Title)
				}
				if showHTML {
					row("html", editor.HTML())
				}

				_, err = fmt.Fprint(w, b.String())
				return errors.Wrap(err, "failed to write to stdout")
			})
		},
	}

	cmd.Flags().BoolVar(&iframe, "iframe", false, "Treat the URL as a raw iframe.")
	cmd.Flags().BoolVar(&showHTML, "html", false, "Print the sanitized oEmbed HTML.")

	return &cmd
}
