package cmd

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/stateful/embedkit/internal/config/autoconfig"
	"github.com/stateful/embedkit/internal/log"
)

var (
	fChdir   string
	fNoColor bool
	fDebug   bool
)

// newBuilder is swapped in tests.
var newBuilder = autoconfig.NewBuilder

func Root() *cobra.Command {
	cmd := cobra.Command{
		Use:           "embedkit",
		Short:         "Inspect and convert embeds of learning content",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if fDebug {
				log.Set()
			}
			if fChdir == "" || fChdir == "." {
				return nil
			}
			return errors.Wrap(os.Chdir(fChdir), "failed to change directory")
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			log.Flush()
		},
	}

	pflags := cmd.PersistentFlags()

	pflags.StringVar(&fChdir, "chdir", ".", "Switch to a different working directory before executing the command.")
	pflags.BoolVar(&fNoColor, "no-color", false, "Disable styled output.")
	pflags.BoolVar(&fDebug, "debug", false, "Log to stderr, unless logging is configured in embedkit.yaml.")

	cmd.AddCommand(decodeCmd())
	cmd.AddCommand(encodeCmd())
	cmd.AddCommand(treeCmd())
	cmd.AddCommand(whitelistCmd())
	cmd.AddCommand(oembedCmd())
	cmd.AddCommand(iframeSrcCmd())
	cmd.AddCommand(linkCmd())

	return &cmd
}
