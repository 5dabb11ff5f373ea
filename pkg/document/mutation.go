package document

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type MutationKind int

const (
	MutationSetData MutationKind = iota + 1
	MutationRemove
)

func (k MutationKind) String() string {
	switch k {
	case MutationSetData:
		return "set_data"
	case MutationRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Mutation is a write request from a block component to the document.
// Payload is only used by [MutationSetData].
type Mutation struct {
	Kind    MutationKind
	Path    Path
	Payload NodeProps
}

func SetData(path Path, props NodeProps) Mutation {
	return Mutation{Kind: MutationSetData, Path: path, Payload: props}
}

func Remove(path Path) Mutation {
	return Mutation{Kind: MutationRemove, Path: path}
}

// Mutator applies mutations to a document.
type Mutator interface {
	Apply(context.Context, Mutation) error
}

var ErrUnknownMutation = errors.New("unknown mutation")

// StoreMutator applies mutations to a [DocumentStore].
type StoreMutator struct {
	store  DocumentStore
	logger *zap.Logger
}

var _ Mutator = (*StoreMutator)(nil)

func NewStoreMutator(store DocumentStore, logger *zap.Logger) *StoreMutator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StoreMutator{store: store, logger: logger}
}

func (m *StoreMutator) Apply(ctx context.Context, mutation Mutation) error {
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}

	var err error
	switch mutation.Kind {
	case MutationSetData:
		err = m.store.SetNode(mutation.Path, mutation.Payload)
	case MutationRemove:
		err = m.store.RemoveNode(mutation.Path)
	default:
		err = errors.Wrapf(ErrUnknownMutation, "kind %d", mutation.Kind)
	}
	if err != nil {
		m.logger.Info("mutation failed", zap.Stringer("kind", mutation.Kind), zap.Stringer("path", mutation.Path), zap.Error(err))
		return err
	}
	m.logger.Debug("mutation applied", zap.Stringer("kind", mutation.Kind), zap.Stringer("path", mutation.Path))
	return nil
}

// FormSubmissionState tells editors whether the surrounding form was
// submitted, so that validation messages show up for untouched fields.
type FormSubmissionState struct {
	Submitted bool
}

// ShowError reports whether a validation message for a field should be shown.
func (s *FormSubmissionState) ShowError(touched bool) bool {
	return touched || (s != nil && s.Submitted)
}

func Bool(v bool) *bool { return &v }
