package editors

import (
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/stateful/embedkit/internal/session"
	"github.com/stateful/embedkit/pkg/api"
	"github.com/stateful/embedkit/pkg/dispatch"
	"github.com/stateful/embedkit/pkg/document"
	"github.com/stateful/embedkit/pkg/embed"
	"github.com/stateful/embedkit/pkg/whitelist"
)

var ErrNotWhitelisted = errors.Wrap(embed.ErrInvalid, "url is not from an allowed provider")

type LoadState int

const (
	Idle LoadState = iota
	Loading
	Ready
	NotSupported
	Failed
)

func (s LoadState) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case NotSupported:
		return "not-supported"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

type RenderKind int

const (
	RenderOembed RenderKind = iota
	RenderIframe
	RenderResourceBox
)

func (k RenderKind) String() string {
	switch k {
	case RenderIframe:
		return "iframe"
	case RenderResourceBox:
		return "resource-box"
	default:
		return "oembed"
	}
}

// external is the common view of external, iframe and h5p data.
type external struct {
	resource embed.Resource
	url      string
	height   int
	typ      string
	title    string
	imageID  string
}

func decodeExternal(attrs embed.Attributes) (external, error) {
	switch d := embed.Decode(attrs).(type) {
	case *embed.ExternalEmbed:
		return external{
			resource: d.Resource(),
			url:      d.URL,
			height:   int(d.Height),
			typ:      d.Type,
			title:    d.Title,
			imageID:  d.ImageID,
		}, nil
	case *embed.H5PEmbed:
		return external{
			resource: embed.ResourceH5P,
			url:      d.URL,
			height:   int(d.Height),
			title:    d.Title,
		}, nil
	case *embed.ErrorEmbed:
		return external{}, d
	default:
		return external{}, errors.Errorf("%s is not an external embed", attrs.Resource())
	}
}

// ExternalEditor shows oEmbed content, iframes and H5P from whitelisted
// providers.
type ExternalEditor struct {
	element

	state    LoadState
	oembed   *api.Oembed
	html     string
	provider whitelist.Provider
	detected string
	err      error
	fetch    latest[string]

	editing bool
	url     string

	resizer *Resizer
}

var _ dispatch.Component = (*ExternalEditor)(nil)

// NewExternalEditor creates the editor of an external, iframe or H5P embed.
// An embed inserted without data starts with an empty URL form.
func NewExternalEditor(env *Env, props dispatch.Props) (*ExternalEditor, error) {
	e := &ExternalEditor{element: newElement(env, props, "external")}
	e.resizer = newResizer(env.Body, env.MinResizeHeight, e.commitHeight)
	if e.pending() {
		e.editing = true
		return e, nil
	}
	if _, err := decodeExternal(props.Attributes); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *ExternalEditor) Kind() dispatch.Kind { return dispatch.KindExternal }

func (e *ExternalEditor) data() (external, error) {
	return decodeExternal(e.Data())
}

func (e *ExternalEditor) State() LoadState { return e.state }

func (e *ExternalEditor) Provider() whitelist.Provider { return e.provider }

func (e *ExternalEditor) Oembed() *api.Oembed { return e.oembed }

// HTML is the sanitized oEmbed markup.
func (e *ExternalEditor) HTML() string { return e.html }

func (e *ExternalEditor) Err() error { return e.err }

// Message is the text shown instead of the embed when it cannot render.
func (e *ExternalEditor) Message() string {
	switch e.state {
	case NotSupported:
		return dispatch.NotSupportedMessage(e.env.Language, e.detected)
	case Failed:
		return e.err.Error()
	}
	return ""
}

// Load resolves the provider of the embed. Raw iframes are matched by URL;
// everything else fetches oEmbed metadata first.
func (e *ExternalEditor) Load(ctx context.Context) {
	if e.pending() {
		return
	}
	d, err := e.data()
	if err != nil {
		e.fail(err)
		return
	}
	seq := e.fetch.begin(d.url)
	e.state = Loading

	if d.resource == embed.ResourceIframe {
		e.fetch.accept(d.url, seq)
		e.resolve(d, nil)
		return
	}

	url := d.url
	session.Go(e.env.Loop, ctx,
		func(ctx context.Context) (*api.Oembed, error) {
			return e.env.Oembeds.FetchOembed(ctx, url)
		},
		func(o *api.Oembed, err error) {
			if !e.fetch.accept(url, seq) || !e.attached() {
				return
			}
			current, cerr := e.data()
			if cerr != nil || current.url != url {
				e.logger.Debug("dropped oembed of replaced url", zap.String("url", url))
				return
			}
			if err != nil {
				e.logger.Info("failed to fetch oembed", zap.String("url", url), zap.Error(err))
				e.fail(err)
				return
			}
			e.resolve(current, o)
		},
	)
}

func (e *ExternalEditor) fail(err error) {
	e.state = Failed
	e.err = err
}

func (e *ExternalEditor) resolve(d external, o *api.Oembed) {
	resource := string(d.resource)
	providerName := ""
	if o != nil {
		providerName = o.ProviderName
	}
	if d.resource == embed.ResourceH5P {
		resource = string(embed.ResourceIframe)
	}
	provider, ok := e.env.Whitelist.Resolve(resource, providerName, d.url)
	if !ok {
		e.state = NotSupported
		e.detected = providerName
		if e.detected == "" {
			e.detected = string(d.resource)
		}
		return
	}
	e.provider = provider
	e.oembed = o
	e.html = ""
	if o != nil && o.HTML != "" {
		e.html = e.env.Sanitizer.Sanitize(o.HTML)
	}
	e.state = Ready
	e.err = nil
}

// RenderKind decides how a ready embed is shown. Fullscreen and image
// backed embeds render as a resource box.
func (e *ExternalEditor) RenderKind() RenderKind {
	d, err := e.data()
	if err != nil {
		return RenderIframe
	}
	switch {
	case d.typ == embed.ExternalTypeFullscreen || e.provider.Fullscreen || d.imageID != "":
		return RenderResourceBox
	case d.resource == embed.ResourceIframe || e.html == "":
		return RenderIframe
	}
	return RenderOembed
}

// Height prefers the stored height over the provider default.
func (e *ExternalEditor) Height() int {
	if e.resizer.Active() {
		return e.resizer.Height()
	}
	if d, err := e.data(); err == nil && d.height > 0 {
		return d.height
	}
	if e.provider.Height > 0 {
		return e.provider.Height
	}
	if e.oembed != nil && e.oembed.Height > 0 {
		return int(e.oembed.Height)
	}
	return DefaultIframeHeight
}

func (e *ExternalEditor) CanResize() bool {
	return e.state == Ready && e.RenderKind() != RenderResourceBox
}

// BeginResize starts dragging the resize handle at y.
func (e *ExternalEditor) BeginResize(y float64) error {
	if !e.CanResize() {
		return ErrNotResizable
	}
	e.resizer.Begin(y, e.Height())
	return nil
}

func (e *ExternalEditor) commitHeight(height int) {
	err := e.save(context.Background(), embed.Attributes{"height": strconv.Itoa(height)}, nil)
	if err != nil {
		e.logger.Info("failed to save height", zap.Error(err))
	}
}

// Edit opens the URL form.
func (e *ExternalEditor) Edit() error {
	if e.pending() {
		e.editing = true
		e.url = ""
		return nil
	}
	d, err := e.data()
	if err != nil {
		return err
	}
	e.editing = true
	e.url = d.url
	return nil
}

func (e *ExternalEditor) Editing() bool { return e.editing }

// SetURL sets the URL to save. An iframe snippet is reduced to its src.
func (e *ExternalEditor) SetURL(input string) {
	input = strings.TrimSpace(input)
	if strings.Contains(input, "<iframe") {
		if src, ok := embed.ExtractIframeSrc(input); ok {
			input = src
		}
	}
	e.url = input
}

func (e *ExternalEditor) URL() string { return e.url }

// ValidateURL checks that the form URL belongs to a whitelisted provider.
func (e *ExternalEditor) ValidateURL() error {
	if e.url == "" {
		return errors.Wrap(embed.ErrInvalid, "url is required")
	}
	if _, ok := e.env.Whitelist.ByURL(e.url); !ok {
		return ErrNotWhitelisted
	}
	return nil
}

// Save stores a new URL and reloads the embed. A stored height is kept.
func (e *ExternalEditor) Save(ctx context.Context) error {
	if !e.editing {
		return errors.New("external editor is not editing")
	}
	if err := e.ValidateURL(); err != nil {
		return err
	}
	if e.pending() {
		if err := e.save(ctx, embed.Attributes{"url": e.url}, document.Bool(false)); err != nil {
			return err
		}
		e.editing = false
		e.Load(ctx)
		return nil
	}
	d, err := e.data()
	if err != nil {
		return err
	}
	if e.url != d.url {
		if err := e.save(ctx, embed.Attributes{"url": e.url}, nil); err != nil {
			return err
		}
	}
	e.editing = false
	if e.url != d.url || e.state == Idle {
		e.Load(ctx)
	}
	return nil
}

// Abort closes the URL form. An embed that was inserted without data is
// removed again.
func (e *ExternalEditor) Abort() {
	e.editing = false
	e.url = ""
	if err := e.discard(context.Background()); err != nil {
		e.logger.Info("failed to remove unsaved embed", zap.Error(err))
	}
}

func (e *ExternalEditor) Remove(ctx context.Context) error {
	e.resizer.Cancel()
	e.fetch.cancel()
	return e.element.Remove(ctx)
}
