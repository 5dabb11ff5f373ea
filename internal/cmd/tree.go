package cmd

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/stateful/embedkit/pkg/document"
)

const (
	formatAuto     = "auto"
	formatHTML     = "html"
	formatMarkdown = "markdown"

	outputText = "text"
	outputJSON = "json"
	outputHTML = "html"
)

func parseDocument(source []byte, name, format string) ([]*document.Node, error) {
	if format == formatAuto {
		format = detectFormat(source, name)
	}

	switch format {
	case formatHTML:
		return document.ParseHTML(bytes.NewReader(source))
	case formatMarkdown:
		return document.ParseMarkdown(source)
	}
	return nil, errors.Errorf("unknown format %q", format)
}

// detectFormat goes by file extension, and by content for stdin.
func detectFormat(source []byte, name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		return formatMarkdown
	case ".html", ".htm":
		return formatHTML
	}
	if mimetype.Detect(source).Is("text/html") || bytes.HasPrefix(bytes.TrimSpace(source), []byte("<")) {
		return formatHTML
	}
	return formatMarkdown
}

func writeTree(w io.Writer, blocks []*document.Node, s styles) error {
	var b strings.Builder
	for i, block := range blocks {
		_ = document.Walk(block, document.Path{i}, func(n *document.Node, path document.Path) error {
			b.WriteString(strings.Repeat("  ", len(path)-1))
			b.WriteString(s.path.Render(path.String()))
			b.WriteString(" ")
			b.WriteString(describeNode(n, s))
			b.WriteString("\n")
			return nil
		})
	}
	_, err := io.WriteString(w, b.String())
	return errors.Wrap(err, "failed to write to stdout")
}

func describeNode(n *document.Node, s styles) string {
	if n.IsText() {
		result := strconv.Quote(n.Text)
		if n.Marks != 0 {
			result += " " + s.muted.Render(n.Marks.String())
		}
		return result
	}

	parts := []string{s.title.Render(n.Type)}
	for _, k := range n.Data.Keys() {
		parts = append(parts, s.key.Render(k)+"="+strconv.Quote(n.Data[k]))
	}
	if n.IsFirstEdit {
		parts = append(parts, s.muted.Render("(first edit)"))
	}
	return strings.Join(parts, " ")
}

func treeCmd() *cobra.Command {
	var (
		format string
		output string
	)

	cmd := cobra.Command{
		Use:   "tree [file]",
		Short: "Print the document tree of an HTML or Markdown file.",
		Long: `Tree parses an article and prints its blocks with their paths.

The input format is taken from the file extension, or guessed from the content
for stdin, unless --format is set.
Use --output html to convert Markdown into article HTML.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, name, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			blocks, err := parseDocument(source, name, format)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			switch output {
			case outputText:
				return writeTree(w, blocks, newStyles(w))
			case outputJSON:
				return writeJSON(w, blocks)
			case outputHTML:
				if err := document.WriteHTML(w, blocks); err != nil {
					return err
				}
				_, err := fmt.Fprintln(w)
				return errors.WithStack(err)
			}
			return errors.Errorf("unknown output %q", output)
		},
	}

	cmd.Flags().StringVar(&format, "format", formatAuto, "Input format: auto, html or markdown.")
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "Output: text, json or html.")

	return &cmd
}
