// Package dispatch maps embed elements to the components that edit them.
package dispatch

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/stateful/embedkit/pkg/document"
	"github.com/stateful/embedkit/pkg/embed"
)

// Kind is the component family an embed renders with.
type Kind string

const (
	KindImage         Kind = "image"
	KindVideo         Kind = "video"
	KindExternal      Kind = "external"
	KindConcept       Kind = "concept"
	KindContactBlock  Kind = "contact-block"
	KindKeyFigure     Kind = "key-figure"
	KindCampaignBlock Kind = "campaign-block"
	KindFile          Kind = "file"
	KindError         Kind = "error"
	KindUnsupported   Kind = "unsupported"
)

// Props is what a component gets to work with. Path is only valid at
// dispatch time; components hold on to Element.Key instead.
type Props struct {
	Attributes      embed.Attributes
	Editor          document.DocumentStore
	Element         *document.Node
	Path            document.Path
	Language        string
	Children        []*document.Node
	IsActive        bool
	ShowCopyOutline bool
}

// PropsAt builds props for the element currently at path.
func PropsAt(store document.DocumentStore, path document.Path, language string) (Props, error) {
	n, err := store.Node(path)
	if err != nil {
		return Props{}, err
	}
	if !n.IsEmbed() {
		return Props{}, errors.Errorf("node at %s is %q, not an embed", path, n.Type)
	}
	return Props{
		Attributes:      n.Data.Clone(),
		Editor:          store,
		Element:         n,
		Path:            path,
		Language:        language,
		Children:        n.Children,
		IsActive:        store.Selection().IsActive(path),
		ShowCopyOutline: n.SelectedForCopy,
	}, nil
}

// Component is a rendered embed. Every component can remove its element.
type Component interface {
	Kind() Kind
	Remove(ctx context.Context) error
}

// Factory creates the component for an embed kind.
type Factory func(Props) (Component, error)

// Resolve returns the component kind for embed data. Rules are ordered;
// YouTube URLs are matched before generic external embeds.
func Resolve(data embed.Attributes) Kind {
	resource := data.Resource()
	switch resource {
	case embed.ResourceImage:
		return KindImage
	case embed.ResourceBrightcove:
		return KindVideo
	case embed.ResourceExternal, embed.ResourceIframe:
		if embed.IsYouTubeURL(data["url"]) {
			return KindVideo
		}
		return KindExternal
	case embed.ResourceH5P:
		return KindExternal
	case embed.ResourceConcept, embed.ResourceGloss:
		return KindConcept
	case embed.ResourceContactBlock:
		return KindContactBlock
	case embed.ResourceKeyFigure:
		return KindKeyFigure
	case embed.ResourceCampaignBlock:
		return KindCampaignBlock
	case embed.ResourceFile:
		return KindFile
	case embed.ResourceError:
		return KindError
	}
	return KindUnsupported
}

type Dispatcher struct {
	mu        sync.RWMutex
	factories map[Kind]Factory
	mutator   document.Mutator
	logger    *zap.Logger
}

type Option func(*Dispatcher)

func WithLogger(logger *zap.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// New creates a dispatcher without factories. The mutator is used by error
// components to remove their element.
func New(mutator document.Mutator, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		factories: make(map[Kind]Factory),
		mutator:   mutator,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	return d
}

// Register sets the factory for kind, replacing any previous one.
func (d *Dispatcher) Register(kind Kind, factory Factory) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.factories[kind] = factory
}

func (d *Dispatcher) factory(kind Kind) (Factory, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	f, ok := d.factories[kind]
	return f, ok
}

// Dispatch renders the embed described by props. It never fails: problems
// are rendered as an error component that can still remove the element.
func (d *Dispatcher) Dispatch(props Props) Component {
	kind := Resolve(props.Attributes)
	logger := d.logger.With(zap.String("kind", string(kind)), zap.Stringer("path", props.Path))

	switch kind {
	case KindError:
		return d.errorComponent(props, props.Attributes["message"])
	case KindUnsupported:
		return d.notSupported(props, string(props.Attributes.Resource()))
	}

	factory, ok := d.factory(kind)
	if !ok {
		logger.Debug("no factory registered")
		return d.notSupported(props, string(props.Attributes.Resource()))
	}

	component, err := d.build(factory, props)
	if err != nil {
		logger.Info("failed to render embed", zap.Error(err))
		return d.errorComponent(props, message(props.Language, msgRenderFailed, props.Attributes.Resource()))
	}
	return component
}

func (d *Dispatcher) build(factory Factory, props Props) (_ Component, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("factory panicked: %v", r)
		}
	}()
	component, err := factory(props)
	if err == nil && component == nil {
		err = errors.New("factory returned no component")
	}
	return component, err
}

func (d *Dispatcher) notSupported(props Props, typ string) Component {
	if typ == "" {
		return d.errorComponent(props, message(props.Language, msgNoPayload))
	}
	return d.errorComponent(props, NotSupportedMessage(props.Language, typ))
}

func (d *Dispatcher) errorComponent(props Props, msg string) *ErrorComponent {
	return &ErrorComponent{Message: msg, props: props, mutator: d.mutator}
}

// ErrorComponent shows a message in place of the embed.
type ErrorComponent struct {
	Message string

	props   Props
	mutator document.Mutator
}

func (c *ErrorComponent) Kind() Kind { return KindError }

func (c *ErrorComponent) String() string { return fmt.Sprintf("error: %s", c.Message) }

func (c *ErrorComponent) Remove(ctx context.Context) error {
	path := c.props.Path
	if c.props.Editor != nil && c.props.Element != nil {
		if p, ok := c.props.Editor.PathOf(c.props.Element.Key); ok {
			path = p
		}
	}
	return c.mutator.Apply(ctx, document.Remove(path))
}
