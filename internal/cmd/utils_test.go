package cmd

import (
	"bytes"
	"io"
	"io/fs"
	"regexp"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/stateful/embedkit/internal/config/autoconfig"
	"github.com/stateful/embedkit/pkg/api"
	"github.com/stateful/embedkit/pkg/api/apitest"
)

func swapBuilder(b *autoconfig.Builder) func() {
	prev := newBuilder
	newBuilder = func() *autoconfig.Builder { return b }
	return func() {
		newBuilder = prev
	}
}

// testBuilder reads config files from files and serves API calls from fake.
func testBuilder(t *testing.T, files fstest.MapFS, fake *apitest.Fake) *autoconfig.Builder {
	t.Helper()
	b := autoconfig.NewBuilder()
	require.NoError(t, b.Decorate(func(fs.FS) fs.FS { return files }))
	if fake != nil {
		require.NoError(t, b.Decorate(func(api.Fetcher) api.Fetcher { return fake }))
	}
	return b
}

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, b *autoconfig.Builder, stdin string, args ...string) (string, error) {
	t.Helper()
	defer swapBuilder(b)()

	out := &cleanBuffer{Buffer: &bytes.Buffer{}}
	root := Root()
	root.SetOut(out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append(args, "--no-color"))

	err := root.Execute()
	return out.String(), err
}

type cleanBuffer struct {
	*bytes.Buffer
}

func (b *cleanBuffer) String() string {
	return removeEscapes(b.Buffer.String())
}

func removeEscapes(in string) string {
	re := regexp.MustCompile(`(?:\x1B[@-Z\\-_]|[\x80-\x9A\x9C-\x9F]|(?:\x1B\[|\x9B)[0-?]*[ -/]*[@-~])`)
	return re.ReplaceAllString(in, "")
}
