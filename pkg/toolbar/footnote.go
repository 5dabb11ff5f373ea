package toolbar

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/stateful/embedkit/pkg/document"
	"github.com/stateful/embedkit/pkg/embed"
)

const authorSeparator = ";"

// Footnote is a literature reference.
type Footnote struct {
	Title     string   `validate:"required"`
	Year      string   `validate:"required,numeric,len=4"`
	Authors   []string `validate:"min=1,dive,required"`
	Edition   string
	Publisher string
	URL       string `validate:"omitempty,url"`
	Type      string
}

// FootnoteFrom reads a footnote from element data.
func FootnoteFrom(data embed.Attributes) Footnote {
	f := Footnote{
		Title:     data["title"],
		Year:      data["year"],
		Edition:   data["edition"],
		Publisher: data["publisher"],
		URL:       data["url"],
		Type:      data["type"],
	}
	for _, a := range strings.Split(data["authors"], authorSeparator) {
		if a = strings.TrimSpace(a); a != "" {
			f.Authors = append(f.Authors, a)
		}
	}
	return f
}

// Attributes encodes the footnote as element data. Empty fields are left
// out.
func (f Footnote) Attributes() embed.Attributes {
	data := embed.Attributes{}
	set := func(k, v string) {
		if v = strings.TrimSpace(v); v != "" {
			data[k] = v
		}
	}
	set("title", f.Title)
	set("year", f.Year)
	var authors []string
	for _, a := range f.Authors {
		if a = strings.TrimSpace(a); a != "" {
			authors = append(authors, a)
		}
	}
	set("authors", strings.Join(authors, authorSeparator))
	set("edition", f.Edition)
	set("publisher", f.Publisher)
	set("url", f.URL)
	set("type", f.Type)
	return data
}

func (f Footnote) Validate() error {
	if err := validate.Struct(f); err != nil {
		return multierr.Combine(errors.Wrap(embed.ErrInvalid, "footnote"), err)
	}
	return nil
}

// FootnoteOverlay inserts and edits footnote references.
type FootnoteOverlay struct {
	doc    Document
	open   bool
	key    string
	logger *zap.Logger
}

func NewFootnoteOverlay(doc Document, logger *zap.Logger) *FootnoteOverlay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FootnoteOverlay{doc: doc, logger: logger}
}

// Open starts editing. With the caret on a footnote its data prefills the
// form; otherwise a new footnote will be inserted at the selection end.
func (o *FootnoteOverlay) Open() (Footnote, error) {
	var (
		form Footnote
		key  string
	)
	err := o.doc.View(func(tx *document.Tx) error {
		sel := tx.Selection()
		if sel == nil {
			return ErrNoSelection
		}
		start, end := sel.Edges()
		if n, _, ok := tx.Ancestor(start.Path, isFootnote); ok {
			key = n.Key
			form = FootnoteFrom(n.Data)
			return nil
		}
		if insideVoid(tx, end.Path) {
			return ErrVoidSelection
		}
		return nil
	})
	if err != nil {
		return Footnote{}, err
	}
	o.open = true
	o.key = key
	return form, nil
}

func isFootnote(n *document.Node) bool { return n.Type == document.TypeFootnote }

func (o *FootnoteOverlay) IsOpen() bool { return o.open }

func (o *FootnoteOverlay) Editing() bool { return o.open && o.key != "" }

func (o *FootnoteOverlay) Close() {
	o.open = false
	o.key = ""
}

// Save validates f and writes it. A new footnote goes after the selected
// text and the caret moves behind it.
func (o *FootnoteOverlay) Save(ctx context.Context, f Footnote) error {
	if !o.open {
		return ErrNotOpen
	}
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}
	if err := f.Validate(); err != nil {
		return err
	}
	data := f.Attributes()

	err := o.doc.Transform(func(tx *document.Tx) error {
		if o.key != "" {
			path, ok := tx.PathOf(o.key)
			if !ok {
				return errors.Wrapf(document.ErrPathNotFound, "footnote %s", o.key)
			}
			n, err := tx.Node(path)
			if err != nil {
				return err
			}
			return tx.SetNode(path, document.NodeProps{Data: embed.Diff(n.Data, data)})
		}
		sel := tx.Selection()
		if sel == nil {
			return ErrNoSelection
		}
		_, end := sel.Edges()
		if insideVoid(tx, end.Path) {
			return ErrVoidSelection
		}
		_, err := tx.InsertInline(end, document.NewVoid(document.TypeFootnote, data))
		return err
	})
	if err != nil {
		return err
	}
	o.logger.Debug("saved footnote", zap.String("title", f.Title))
	o.Close()
	return nil
}

// Remove deletes the footnote the overlay was opened on.
func (o *FootnoteOverlay) Remove(ctx context.Context) error {
	if !o.Editing() {
		return ErrNotOpen
	}
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}
	key := o.key
	err := o.doc.Transform(func(tx *document.Tx) error {
		path, ok := tx.PathOf(key)
		if !ok {
			return errors.Wrapf(document.ErrPathNotFound, "footnote %s", key)
		}
		return tx.RemoveNode(path)
	})
	if err != nil {
		return err
	}
	o.Close()
	return nil
}
