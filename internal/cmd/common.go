package cmd

import (
	"encoding/json"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/stateful/embedkit/internal/config"
)

var ErrNoInput = errors.New("no input: pass a file or pipe data to stdin")

// readInput reads the file named by the first argument, or stdin when it
// is missing or "-".
func readInput(cmd *cobra.Command, args []string) ([]byte, string, error) {
	if len(args) == 0 || args[0] == "-" {
		if in, ok := cmd.InOrStdin().(*os.File); ok && isTerminal(in) {
			return nil, "", ErrNoInput
		}
		data, err := io.ReadAll(cmd.InOrStdin())
		return data, "", errors.Wrap(err, "failed to read stdin")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, "", errors.WithStack(err)
	}
	return data, args[0], nil
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// invoke runs fn with dependencies from the config found in the working
// directory.
func invoke(fn interface{}) error {
	return newBuilder().Invoke(fn)
}

// configFor loads the config that applies to the named input, including
// config files in the directories leading to it. Stdin and paths outside
// the working directory get the root config.
func configFor(loader *config.Loader, name string) (*config.Config, error) {
	name = filepath.ToSlash(filepath.Clean(name))
	if !fs.ValidPath(name) {
		name = ""
	}
	return loader.Load(name)
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return errors.Wrap(encoder.Encode(v), "failed to encode json")
}

type styles struct {
	title lipgloss.Style
	path  lipgloss.Style
	key   lipgloss.Style
	muted lipgloss.Style
	bad   lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	if fNoColor {
		plain := r.NewStyle()
		return styles{title: plain, path: plain, key: plain, muted: plain, bad: plain}
	}
	return styles{
		title: r.NewStyle().Bold(true),
		path:  r.NewStyle().Foreground(lipgloss.Color("12")),
		key:   r.NewStyle().Foreground(lipgloss.Color("10")),
		muted: r.NewStyle().Foreground(lipgloss.Color("8")),
		bad:   r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	}
}
