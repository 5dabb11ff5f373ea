package editors

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/stateful/embedkit/internal/session"
	"github.com/stateful/embedkit/pkg/api"
	"github.com/stateful/embedkit/pkg/dispatch"
	"github.com/stateful/embedkit/pkg/document"
	"github.com/stateful/embedkit/pkg/embed"
)

// BlockEditor drives the dialog of form based blocks. A block inserted
// without data opens its dialog right away and is removed again when the
// dialog is closed without saving.
type BlockEditor[T embed.Data] struct {
	element

	kind    dispatch.Kind
	open    bool
	touched bool
	imageID func(T) string

	image      *api.ImageMetadata
	imageFetch latest[string]
	onSave     func(context.Context)
}

var _ dispatch.Component = (*BlockEditor[*embed.KeyFigureEmbed])(nil)

func newBlockEditor[T embed.Data](env *Env, props dispatch.Props, kind dispatch.Kind, imageID func(T) string) (*BlockEditor[T], error) {
	e := &BlockEditor[T]{
		element: newElement(env, props, string(kind)),
		kind:    kind,
		imageID: imageID,
	}
	n, err := e.Node()
	if err != nil {
		return nil, err
	}
	if n.IsFirstEdit {
		e.open = true
	} else if _, err := embed.DecodeAs[T](n.Data); err != nil {
		return nil, err
	}
	return e, nil
}

func NewContactBlockEditor(env *Env, props dispatch.Props) (*BlockEditor[*embed.ContactBlockEmbed], error) {
	return newBlockEditor(env, props, dispatch.KindContactBlock, func(d *embed.ContactBlockEmbed) string { return d.ImageID })
}

func NewKeyFigureEditor(env *Env, props dispatch.Props) (*BlockEditor[*embed.KeyFigureEmbed], error) {
	return newBlockEditor(env, props, dispatch.KindKeyFigure, func(d *embed.KeyFigureEmbed) string { return d.ImageID })
}

func NewCampaignBlockEditor(env *Env, props dispatch.Props) (*BlockEditor[*embed.CampaignBlockEmbed], error) {
	return newBlockEditor(env, props, dispatch.KindCampaignBlock, func(d *embed.CampaignBlockEmbed) string { return d.ImageID })
}

func (e *BlockEditor[T]) Kind() dispatch.Kind { return e.kind }

func (e *BlockEditor[T]) IsOpen() bool { return e.open }

// Value decodes the saved block data.
func (e *BlockEditor[T]) Value() (T, error) {
	n, err := e.Node()
	if err != nil {
		var zero T
		return zero, err
	}
	return embed.DecodeAs[T](n.Data)
}

func (e *BlockEditor[T]) Open() error {
	if !e.attached() {
		return ErrDetached
	}
	e.open = true
	e.touched = false
	return nil
}

// Touch marks the form as edited, which enables validation messages.
func (e *BlockEditor[T]) Touch() { e.touched = true }

// FieldErrors returns validation failures of data by field, once the form
// was touched or submitted.
func (e *BlockEditor[T]) FieldErrors(data T) map[string]string {
	if !e.env.Form.ShowError(e.touched) {
		return nil
	}
	return embed.FieldErrors(data)
}

// Close closes the dialog. A block that never got data is removed and the
// caret is put where the block was.
func (e *BlockEditor[T]) Close(ctx context.Context) error {
	if !e.open {
		return nil
	}
	e.open = false
	if !e.attached() {
		return nil
	}
	return e.discard(ctx)
}

// selectNear puts the caret at the start of the node at path or, when there
// is none, at the end of the node before it.
func selectNear(store document.DocumentStore, path document.Path) {
	if _, err := store.Node(path); err == nil {
		store.Select(document.Collapsed(document.Point{Path: firstLeaf(store, path)}))
		return
	}
	if !path.HasPrevious() {
		return
	}
	selectEnd(store, path.Previous())
}

// selectEnd puts the caret at the end of the last text below path.
func selectEnd(store document.DocumentStore, path document.Path) {
	p := path
	for {
		n, err := store.Node(p)
		if err != nil {
			return
		}
		if n.IsText() {
			store.Select(document.Collapsed(document.Point{Path: p, Offset: len(n.Text)}))
			return
		}
		if len(n.Children) == 0 {
			return
		}
		p = p.Child(len(n.Children) - 1)
	}
}

// Save validates data, merges it onto the block, clears the first edit flag
// and moves the caret to the next block on the next tick.
func (e *BlockEditor[T]) Save(ctx context.Context, data T) error {
	e.touched = true
	if err := embed.Validate(data); err != nil {
		return err
	}
	n, err := e.Node()
	if err != nil {
		return err
	}
	update, err := changes(n.Data, data)
	if err != nil {
		return err
	}
	var firstEdit *bool
	if n.IsFirstEdit {
		firstEdit = document.Bool(false)
	}
	if err := e.save(ctx, update, firstEdit); err != nil {
		return err
	}
	e.open = false
	e.selectAfter()
	e.logger.Debug("block saved", zap.Int("changed", len(update)))
	if e.onSave != nil {
		e.onSave(ctx)
	}
	return nil
}

func (e *BlockEditor[T]) Remove(ctx context.Context) error {
	e.imageFetch.cancel()
	e.open = false
	return e.element.Remove(ctx)
}

// LoadImage resolves the image of the block. Blocks without an image, or
// kinds that have none, do nothing.
func (e *BlockEditor[T]) LoadImage(ctx context.Context) {
	if e.imageID == nil || e.env.Images == nil {
		return
	}
	value, err := e.Value()
	if err != nil {
		return
	}
	id := e.imageID(value)
	if id == "" {
		e.image = nil
		return
	}
	seq := e.imageFetch.begin(id)
	language := e.env.Language
	session.Go(e.env.Loop, ctx,
		func(ctx context.Context) (*api.ImageMetadata, error) {
			return e.env.Images.FetchImage(ctx, id, language)
		},
		func(m *api.ImageMetadata, err error) {
			if !e.imageFetch.accept(id, seq) || !e.attached() {
				return
			}
			if err != nil {
				e.logger.Info("failed to fetch image", zap.String("id", id), zap.Error(err))
				return
			}
			e.image = m
		},
	)
}

// Image is the resolved image, nil until loaded.
func (e *BlockEditor[T]) Image() *api.ImageMetadata { return e.image }

var errNoConcept = errors.New("concept has no content id")

// ConceptEditor edits concept and gloss blocks and previews the concept
// they point at.
type ConceptEditor struct {
	*BlockEditor[*embed.ConceptEmbed]

	concept *api.Concept
	err     error
	fetch   latest[int64]
}

func NewConceptEditor(env *Env, props dispatch.Props) (*ConceptEditor, error) {
	block, err := newBlockEditor[*embed.ConceptEmbed](env, props, dispatch.KindConcept, nil)
	if err != nil {
		return nil, err
	}
	e := &ConceptEditor{BlockEditor: block}
	block.onSave = e.Load
	return e, nil
}

// Load fetches the concept of the block. Results for a content id that was
// replaced in the meantime are dropped.
func (e *ConceptEditor) Load(ctx context.Context) {
	value, err := e.Value()
	if err != nil {
		return
	}
	id, err := value.ID()
	if err != nil {
		e.err = errors.Wrap(errNoConcept, err.Error())
		return
	}
	if e.concept != nil && e.concept.ID == id {
		return
	}
	e.concept = nil
	seq := e.fetch.begin(id)
	language := e.env.Language
	session.Go(e.env.Loop, ctx,
		func(ctx context.Context) (*api.Concept, error) {
			return e.env.Concepts.FetchConcept(ctx, id, language)
		},
		func(c *api.Concept, err error) {
			if !e.fetch.accept(id, seq) || !e.attached() {
				return
			}
			if err != nil {
				e.err = err
				e.logger.Info("failed to fetch concept", zap.Int64("id", id), zap.Error(err))
				return
			}
			e.err = nil
			e.concept = c
		},
	)
}

// Concept is the previewed concept, nil until it is resolved.
func (e *ConceptEditor) Concept() *api.Concept { return e.concept }

func (e *ConceptEditor) Err() error { return e.err }

func (e *ConceptEditor) Remove(ctx context.Context) error {
	e.fetch.cancel()
	return e.BlockEditor.Remove(ctx)
}

// Save keeps the concept or gloss resource of the block when data does not
// name one.
func (e *ConceptEditor) Save(ctx context.Context, data *embed.ConceptEmbed) error {
	if data != nil && data.Kind == "" {
		if n, err := e.Node(); err == nil {
			data.Kind = n.Resource()
		}
	}
	return e.BlockEditor.Save(ctx, data)
}
