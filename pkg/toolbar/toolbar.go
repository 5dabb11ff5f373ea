// Package toolbar implements the floating controls anchored to the current
// selection: mark and block toggles, and the link and footnote overlays
// that wrap or insert inline elements at the selection.
package toolbar

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/stateful/embedkit/pkg/document"
	"github.com/stateful/embedkit/pkg/embed"
)

var (
	ErrNoSelection    = errors.New("no selection")
	ErrEmptySelection = errors.New("selection is collapsed")
	ErrVoidSelection  = errors.New("selection is inside a void element")
	ErrBlockType      = errors.New("block type cannot be toggled")
	ErrNotOpen        = errors.New("overlay is not open")
)

// Document is the part of the store the toolbar works on. Reads run on a
// snapshot; writes run as a single transaction.
type Document interface {
	document.DocumentStore
	View(func(*document.Tx) error) error
	Transform(func(*document.Tx) error) error
}

var _ Document = (*document.Store)(nil)

// Inline describes the inline element under the selection start.
type Inline struct {
	Type string
	Key  string
	Path document.Path
	Data embed.Attributes
}

// State is what the toolbar renders for the current selection.
type State struct {
	Visible   bool
	Marks     document.Marks
	BlockType string
	Inline    *Inline
}

type Option func(*Toolbar)

func WithLogger(logger *zap.Logger) Option {
	return func(t *Toolbar) {
		t.logger = logger
	}
}

// Toolbar toggles marks and block types on the selection of a document.
type Toolbar struct {
	doc    Document
	logger *zap.Logger
}

func New(doc Document, opts ...Option) *Toolbar {
	t := &Toolbar{doc: doc}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = zap.NewNop()
	}
	return t
}

// State computes the toolbar state from the current selection. The toolbar
// is visible only for an expanded selection outside of void elements.
func (t *Toolbar) State() State {
	var state State
	_ = t.doc.View(func(tx *document.Tx) error {
		sel := tx.Selection()
		if sel == nil {
			return nil
		}
		start, end := sel.Edges()
		if len(start.Path) > 0 {
			if n, err := tx.Node(document.Path{start.Path[0]}); err == nil {
				state.BlockType = n.Type
			}
		}
		state.Inline = inlineAt(tx, start.Path)
		if sel.IsCollapsed() || insideVoid(tx, start.Path) || insideVoid(tx, end.Path) {
			return nil
		}
		state.Visible = true
		state.Marks = tx.Marks(*sel)
		return nil
	})
	return state
}

func insideVoid(tx *document.Tx, path document.Path) bool {
	_, _, ok := tx.Ancestor(path, (*document.Node).IsVoid)
	return ok
}

func inlineAt(tx *document.Tx, path document.Path) *Inline {
	n, p, ok := tx.Ancestor(path, func(n *document.Node) bool {
		return document.IsInlineType(n.Type)
	})
	if !ok {
		return nil
	}
	return &Inline{Type: n.Type, Key: n.Key, Path: p, Data: n.Data.Clone()}
}

// ToggleMark adds mark to the selected text, or removes it when every
// selected leaf already has it. Text leaves are split at the selection
// edges.
func (t *Toolbar) ToggleMark(mark document.Marks) error {
	err := t.doc.Transform(func(tx *document.Tx) error {
		sel, err := expanded(tx)
		if err != nil {
			return err
		}
		on := !tx.Marks(*sel).Has(mark)
		return tx.SetMark(*sel, mark, on)
	})
	if err != nil {
		return err
	}
	t.logger.Debug("toggled mark", zap.Stringer("mark", mark))
	return nil
}

var toggleableBlocks = map[string]bool{
	document.TypeParagraph: true,
	document.TypeHeading:   true,
	document.TypeQuote:     true,
}

// ToggleBlock turns the selected blocks into typ, or back into paragraphs
// when the first of them already has that type.
func (t *Toolbar) ToggleBlock(typ string) error {
	if !toggleableBlocks[typ] {
		return errors.Wrap(ErrBlockType, typ)
	}
	return t.doc.Transform(func(tx *document.Tx) error {
		sel := tx.Selection()
		if sel == nil {
			return ErrNoSelection
		}
		start, _ := sel.Edges()
		if len(start.Path) == 0 {
			return ErrNoSelection
		}
		target := typ
		if n, err := tx.Node(document.Path{start.Path[0]}); err == nil && n.Type == typ {
			target = document.TypeParagraph
		}
		return tx.SetBlockType(*sel, target)
	})
}

func expanded(tx *document.Tx) (*document.Range, error) {
	sel := tx.Selection()
	switch {
	case sel == nil:
		return nil, ErrNoSelection
	case sel.IsCollapsed():
		return nil, ErrEmptySelection
	}
	start, end := sel.Edges()
	if insideVoid(tx, start.Path) || insideVoid(tx, end.Path) {
		return nil, ErrVoidSelection
	}
	return sel, nil
}
