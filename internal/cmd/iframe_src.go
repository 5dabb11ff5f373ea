package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/stateful/embedkit/pkg/embed"
)

var ErrNoIframe = errors.New("no iframe with a src found")

func iframeSrcCmd() *cobra.Command {
	cmd := cobra.Command{
		Use:   "iframe-src [file]",
		Short: "Print the src of the first iframe in an embed code.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, _, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			src, ok := embed.ExtractIframeSrc(string(source))
			if !ok {
				return ErrNoIframe
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), src)
			return errors.Wrap(err, "failed to write to stdout")
		},
	}

	return &cmd
}
