package document

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/stateful/embedkit/pkg/embed"
)

func TestStoreMutator(t *testing.T) {
	s := newTestStore(NewParagraph("a"), imageNode())
	m := NewStoreMutator(s, zaptest.NewLogger(t))
	ctx := context.Background()

	err := m.Apply(ctx, SetData(Path{1}, NodeProps{Data: embed.Attributes{"caption": "c"}}))
	require.NoError(t, err)
	n, _ := s.Node(Path{1})
	assert.Equal(t, "c", n.Data["caption"])
	assert.Equal(t, "a", n.Data["alt"])

	require.NoError(t, m.Apply(ctx, Remove(Path{1})))
	assert.Len(t, s.Blocks(), 1)

	assert.ErrorIs(t, m.Apply(ctx, Remove(Path{1})), ErrPathNotFound)
	assert.ErrorIs(t, m.Apply(ctx, Mutation{Kind: 99}), ErrUnknownMutation)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, m.Apply(cancelled, Remove(Path{0})), context.Canceled)
	assert.Len(t, s.Blocks(), 1)
}

func TestFormSubmissionState(t *testing.T) {
	var none *FormSubmissionState
	assert.False(t, none.ShowError(false))
	assert.True(t, none.ShowError(true))
	assert.True(t, (&FormSubmissionState{Submitted: true}).ShowError(false))
}
