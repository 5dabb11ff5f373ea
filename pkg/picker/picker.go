// Package picker holds the visual element field of an article: a document
// with at most one embed, limited to a set of resources.
package picker

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/stateful/embedkit/pkg/dispatch"
	"github.com/stateful/embedkit/pkg/document"
	"github.com/stateful/embedkit/pkg/embed"
)

var (
	ErrNotAllowed = errors.New("resource is not allowed here")
	ErrEmpty      = errors.New("no visual element")
)

// DefaultAllowed are the resources allowed as article visual elements.
var DefaultAllowed = []embed.Resource{
	embed.ResourceImage,
	embed.ResourceBrightcove,
	embed.ResourceExternal,
	embed.ResourceH5P,
}

var elementPath = document.Path{0}

type Option func(*Picker)

func WithLogger(logger *zap.Logger) Option {
	return func(p *Picker) {
		p.logger = logger
	}
}

func WithLanguage(language string) Option {
	return func(p *Picker) {
		p.language = language
	}
}

// WithValue starts the picker with a stored visual element.
func WithValue(value embed.Attributes) Option {
	return func(p *Picker) {
		p.initial = value
	}
}

type Picker struct {
	store    *document.Store
	allowed  []embed.Resource
	language string
	initial  embed.Attributes
	logger   *zap.Logger
}

// New creates a picker for the allowed resources, [DefaultAllowed] when
// none are given.
func New(allowed []embed.Resource, opts ...Option) (*Picker, error) {
	if len(allowed) == 0 {
		allowed = DefaultAllowed
	}
	p := &Picker{allowed: slices.Clone(allowed), language: dispatch.DefaultLanguage}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}

	var blocks []*document.Node
	if len(p.initial) > 0 {
		if err := p.check(p.initial.Resource()); err != nil {
			return nil, err
		}
		blocks = append(blocks, document.NewVoid(document.TypeEmbed, p.initial.Clone()))
	}
	p.store = document.NewStore(blocks, document.WithLogger(p.logger))
	return p, nil
}

// Parse creates a picker from the persisted HTML of a visual element.
func Parse(fragment string, allowed []embed.Resource, opts ...Option) (*Picker, error) {
	tag, err := embed.ParseTag(fragment)
	if err != nil {
		return nil, err
	}
	return New(allowed, append(opts, WithValue(tag.Attributes()))...)
}

// Store is the single-embed document. Editors of the embed work on it.
func (p *Picker) Store() *document.Store { return p.store }

func (p *Picker) Allowed() []embed.Resource { return slices.Clone(p.allowed) }

func (p *Picker) check(resource embed.Resource) error {
	if !slices.Contains(p.allowed, resource) {
		return errors.Wrapf(ErrNotAllowed, "%q", resource)
	}
	return nil
}

// replace swaps whatever the picker holds for node.
func (p *Picker) replace(node *document.Node) error {
	return p.store.Transform(func(tx *document.Tx) error {
		for len(tx.Root().Children) > 0 {
			if err := tx.RemoveNode(document.Path{len(tx.Root().Children) - 1}); err != nil {
				return err
			}
		}
		if node == nil {
			tx.Select(nil)
			return nil
		}
		if err := tx.InsertNode(elementPath, node); err != nil {
			return err
		}
		tx.Select(document.Collapsed(document.Point{Path: elementPath.Child(0)}))
		return nil
	})
}

// Select starts a new visual element of the resource. The embed has no
// payload yet, so its editor opens right away.
func (p *Picker) Select(ctx context.Context, resource embed.Resource) error {
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}
	if err := p.check(resource); err != nil {
		return err
	}
	if err := p.replace(document.NewFirstEditEmbed(resource)); err != nil {
		return err
	}
	p.logger.Debug("selected visual element", zap.String("resource", string(resource)))
	return nil
}

// Choose replaces the visual element with complete data, for example a
// search result.
func (p *Picker) Choose(ctx context.Context, data embed.Data) error {
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}
	if err := p.check(data.Resource()); err != nil {
		return err
	}
	if err := embed.Validate(data); err != nil {
		return err
	}
	node, err := document.CreateVoidEmbed(data)
	if err != nil {
		return err
	}
	if err := p.replace(node); err != nil {
		return err
	}
	p.logger.Debug("chose visual element", zap.String("resource", string(data.Resource())))
	return nil
}

func (p *Picker) Remove(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}
	return p.replace(nil)
}

func (p *Picker) node() (*document.Node, bool) {
	n, err := p.store.Node(elementPath)
	if err != nil || !n.IsEmbed() {
		return nil, false
	}
	return n, true
}

// Value returns the committed visual element. An embed whose first edit
// was never saved has no value.
func (p *Picker) Value() embed.Attributes {
	n, ok := p.node()
	if !ok || (n.IsFirstEdit && !n.HasPayload()) {
		return nil
	}
	return n.Data.Clone()
}

// HTML returns the value in its persisted form, or an empty string.
func (p *Picker) HTML() string {
	value := p.Value()
	if value == nil {
		return ""
	}
	return embed.NewTag(value).String()
}

// Subscribe calls fn with the new value whenever it changes.
func (p *Picker) Subscribe(fn func(embed.Attributes)) (unsubscribe func()) {
	var mu sync.Mutex
	last := p.Value()
	return p.store.Subscribe(func(document.Change) {
		value := p.Value()
		mu.Lock()
		changed := (last == nil) != (value == nil) || !maps.Equal(last, value)
		last = value
		mu.Unlock()
		if changed {
			fn(value)
		}
	})
}

// Editor renders the visual element through d. The dispatcher must have
// been set up for the picker store.
func (p *Picker) Editor(d *dispatch.Dispatcher) (dispatch.Component, error) {
	if _, ok := p.node(); !ok {
		return nil, ErrEmpty
	}
	props, err := dispatch.PropsAt(p.store, elementPath, p.language)
	if err != nil {
		return nil, err
	}
	return d.Dispatch(props), nil
}
