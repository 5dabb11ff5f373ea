package editors

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/stateful/embedkit/pkg/dispatch"
	"github.com/stateful/embedkit/pkg/document"
	"github.com/stateful/embedkit/pkg/embed"
)

var (
	// ErrDetached is returned when the element of an editor is no longer
	// part of the document.
	ErrDetached = errors.New("element is not in the document")
	ErrClosed   = errors.New("editor is closed")
)

// element is what every editor knows about its void element. The path is
// resolved from the key before every mutation and never kept.
type element struct {
	env     *Env
	key     string
	path    document.Path
	removed bool
	logger  *zap.Logger
}

func newElement(env *Env, props dispatch.Props, name string) element {
	e := element{env: env, path: props.Path.Copy()}
	if props.Element != nil {
		e.key = props.Element.Key
	}
	e.logger = env.Logger.With(zap.String("editor", name), zap.String("key", e.key))
	return e
}

// Path returns the current path of the element.
func (e *element) Path() (document.Path, error) {
	if e.removed {
		return nil, ErrDetached
	}
	if e.key == "" {
		return e.path.Copy(), nil
	}
	p, ok := e.env.Store.PathOf(e.key)
	if !ok {
		return nil, ErrDetached
	}
	return p, nil
}

func (e *element) Node() (*document.Node, error) {
	path, err := e.Path()
	if err != nil {
		return nil, err
	}
	return e.env.Store.Node(path)
}

// Data returns the current attributes of the element, nil once detached.
func (e *element) Data() embed.Attributes {
	n, err := e.Node()
	if err != nil {
		return nil
	}
	return n.Data
}

func (e *element) IsFirstEdit() bool {
	n, err := e.Node()
	return err == nil && n.IsFirstEdit
}

// IsActive reports whether the selection is inside the element.
func (e *element) IsActive() bool {
	path, err := e.Path()
	if err != nil {
		return false
	}
	return e.env.Store.Selection().IsActive(path)
}

func (e *element) attached() bool {
	_, err := e.Path()
	return err == nil
}

func (e *element) apply(ctx context.Context, props document.NodeProps) error {
	path, err := e.Path()
	if err != nil {
		return err
	}
	return e.env.Mutator.Apply(ctx, document.SetData(path, props))
}

// save merges update onto the element data. An empty update only touches
// the node flags.
func (e *element) save(ctx context.Context, update embed.Attributes, firstEdit *bool) error {
	props := document.NodeProps{IsFirstEdit: firstEdit}
	if len(update) > 0 {
		props.Data = update
	}
	if props.Data == nil && props.IsFirstEdit == nil {
		return nil
	}
	return e.apply(ctx, props)
}

// Remove deletes the element from the document.
func (e *element) Remove(ctx context.Context) error {
	path, err := e.Path()
	if err != nil {
		return err
	}
	if err := e.env.Mutator.Apply(ctx, document.Remove(path)); err != nil {
		return err
	}
	e.removed = true
	e.logger.Debug("element removed", zap.Stringer("path", path))
	return nil
}

// selectAfter moves the caret to the start of the block following the
// element on the next tick.
func (e *element) selectAfter() {
	e.env.Loop.Defer(func() {
		path, err := e.Path()
		if err != nil {
			return
		}
		next := path.Next()
		if _, err := e.env.Store.Node(next); err != nil {
			return
		}
		e.env.Store.Select(document.Collapsed(document.Point{Path: firstLeaf(e.env.Store, next)}))
	})
}

// pending reports whether the element was inserted without data and was
// never saved.
func (e *element) pending() bool {
	n, err := e.Node()
	return err == nil && n.IsFirstEdit && !n.HasPayload()
}

// discard removes a pending element and puts the caret where it was on
// the next tick. Elements with data are kept.
func (e *element) discard(ctx context.Context) error {
	if !e.pending() {
		return nil
	}
	path, err := e.Path()
	if err != nil {
		return err
	}
	anchor := anchorAround(e.env.Store, path)
	if err := e.Remove(ctx); err != nil {
		return err
	}
	e.env.Loop.Defer(func() {
		anchor.restore(e.env.Store)
	})
	return nil
}

// caretAnchor remembers the neighbours of a node by key, so the caret can
// be put next to the node after it is gone.
type caretAnchor struct {
	next, prev string
	path       document.Path
}

func anchorAround(store document.DocumentStore, path document.Path) caretAnchor {
	a := caretAnchor{path: path.Copy()}
	if n, err := store.Node(path.Next()); err == nil {
		a.next = n.Key
	}
	if path.HasPrevious() {
		if n, err := store.Node(path.Previous()); err == nil {
			a.prev = n.Key
		}
	}
	return a
}

func (a caretAnchor) restore(store document.DocumentStore) {
	if a.next != "" {
		if p, ok := store.PathOf(a.next); ok {
			store.Select(document.Collapsed(document.Point{Path: firstLeaf(store, p)}))
			return
		}
	}
	if a.prev != "" {
		if p, ok := store.PathOf(a.prev); ok {
			selectEnd(store, p)
			return
		}
	}
	selectNear(store, a.path)
}

func firstLeaf(store document.DocumentStore, path document.Path) document.Path {
	p := path.Copy()
	for {
		n, err := store.Node(p)
		if err != nil || n.IsText() || len(n.Children) == 0 {
			return p
		}
		p = p.Child(0)
	}
}

// baseline encodes the decoded form of attrs, so that saving unchanged data
// produces an empty diff.
func baseline(attrs embed.Attributes) embed.Attributes {
	d := embed.Decode(attrs)
	if _, ok := d.(*embed.ErrorEmbed); ok {
		return attrs.Clone()
	}
	encoded, err := embed.Encode(d)
	if err != nil {
		return attrs.Clone()
	}
	return encoded
}

// changes returns the update that turns the current element data into the
// encoding of d.
func changes(current embed.Attributes, d embed.Data) (embed.Attributes, error) {
	encoded, err := embed.Encode(d)
	if err != nil {
		return nil, err
	}
	return embed.Diff(baseline(current), encoded), nil
}
