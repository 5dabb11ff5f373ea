package toolbar

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gobwas/glob"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/stateful/embedkit/pkg/document"
	"github.com/stateful/embedkit/pkg/embed"
)

var ErrInvalidHref = errors.New("invalid link address")

// DefaultContentHosts are the hosts whose article and learning path URLs
// are stored as content links.
var DefaultContentHosts = []string{"ndla.no", "www.ndla.no", "test.ndla.no", "staging.ndla.no"}

const (
	openInNewContext     = "new-context"
	openInCurrentContext = "current-context"
)

var contentPath = regexp.MustCompile(`^/(?:(?:nb|nn|en|se|sma)/)?(article|learningpaths)/(\d+)/?$`)

var contentTypes = map[string]string{
	"article":       "article",
	"learningpaths": "learningpath",
}

// ContentRef points at a content page by id.
type ContentRef struct {
	ID   string
	Type string
}

// ParseContentURL reports whether rawURL addresses a content page on one
// of hosts. Hosts may be glob patterns such as "*.ndla.no", where "*" does
// not cross a dot.
func ParseContentURL(rawURL string, hosts []string) (ContentRef, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return ContentRef{}, false
	}
	if !matchHost(hosts, strings.ToLower(u.Hostname())) {
		return ContentRef{}, false
	}
	m := contentPath.FindStringSubmatch(u.Path)
	if m == nil {
		return ContentRef{}, false
	}
	return ContentRef{ID: m[2], Type: contentTypes[m[1]]}, true
}

func matchHost(patterns []string, host string) bool {
	for _, pattern := range patterns {
		g, err := glob.Compile(strings.ToLower(pattern), '.')
		if err != nil {
			continue
		}
		if g.Match(host) {
			return true
		}
	}
	return false
}

// canonicalHost is the first host that is not a pattern.
func canonicalHost(hosts []string) string {
	for _, h := range hosts {
		if !strings.ContainsAny(h, "*?[]{}") {
			return h
		}
	}
	return DefaultContentHosts[0]
}

// LinkForm is the content of the link overlay.
type LinkForm struct {
	Href         string
	OpenInNewTab bool
	Text         string
}

type LinkOption func(*LinkOverlay)

func WithContentHosts(hosts ...string) LinkOption {
	return func(o *LinkOverlay) {
		o.hosts = hosts
	}
}

func WithLinkLogger(logger *zap.Logger) LinkOption {
	return func(o *LinkOverlay) {
		o.logger = logger
	}
}

// LinkOverlay creates, edits and removes links at the selection. An
// existing link is tracked by its key, so edits land on it even after
// siblings moved.
type LinkOverlay struct {
	doc    Document
	hosts  []string
	open   bool
	key    string
	logger *zap.Logger
}

func NewLinkOverlay(doc Document, opts ...LinkOption) *LinkOverlay {
	o := &LinkOverlay{doc: doc, hosts: DefaultContentHosts}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}

// Open starts editing. A link under the selection start prefills the form;
// otherwise the selection must be expanded so that there is text to wrap.
func (o *LinkOverlay) Open() (LinkForm, error) {
	var (
		form LinkForm
		key  string
	)
	err := o.doc.View(func(tx *document.Tx) error {
		sel := tx.Selection()
		if sel == nil {
			return ErrNoSelection
		}
		start, _ := sel.Edges()
		if n, _, ok := tx.Ancestor(start.Path, isLink); ok {
			key = n.Key
			form = o.formFrom(n)
			return nil
		}
		_, err := expanded(tx)
		return err
	})
	if err != nil {
		return LinkForm{}, err
	}
	o.open = true
	o.key = key
	return form, nil
}

func isLink(n *document.Node) bool {
	return n.Type == document.TypeLink || n.Type == document.TypeContentLink
}

func (o *LinkOverlay) formFrom(n *document.Node) LinkForm {
	form := LinkForm{Text: n.TextContent()}
	if n.Type == document.TypeContentLink {
		segment := "article"
		if n.Data["content-type"] == "learningpath" {
			segment = "learningpaths"
		}
		form.Href = fmt.Sprintf("https://%s/%s/%s", canonicalHost(o.hosts), segment, n.Data["content-id"])
		form.OpenInNewTab = n.Data["open-in"] == openInNewContext
		return form
	}
	form.Href = n.Data["href"]
	form.OpenInNewTab = n.Data["target"] == "_blank"
	return form
}

func (o *LinkOverlay) IsOpen() bool { return o.open }

// Editing reports whether the overlay edits an existing link.
func (o *LinkOverlay) Editing() bool { return o.open && o.key != "" }

func (o *LinkOverlay) Close() {
	o.open = false
	o.key = ""
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateHref checks that href is an absolute URL.
func ValidateHref(href string) error {
	if err := validate.Var(href, "required,url"); err != nil {
		return multierr.Combine(errors.Wrapf(ErrInvalidHref, "%q", href), err)
	}
	return nil
}

// element builds the inline element for href. Content page URLs become
// content links.
func (o *LinkOverlay) element(href string, openInNewTab bool) (string, embed.Attributes) {
	if ref, ok := ParseContentURL(href, o.hosts); ok {
		openIn := openInCurrentContext
		if openInNewTab {
			openIn = openInNewContext
		}
		return document.TypeContentLink, embed.Attributes{
			"content-id":   ref.ID,
			"content-type": ref.Type,
			"open-in":      openIn,
		}
	}
	data := embed.Attributes{"href": href}
	if openInNewTab {
		data["target"] = "_blank"
		data["rel"] = "noopener noreferrer"
	}
	return document.TypeLink, data
}

// Save wraps the selection in a link, or updates the link the overlay was
// opened on. The link path is resolved when the mutation runs.
func (o *LinkOverlay) Save(ctx context.Context, href string, openInNewTab bool) error {
	if !o.open {
		return ErrNotOpen
	}
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}
	href = strings.TrimSpace(href)
	if err := ValidateHref(href); err != nil {
		return err
	}
	typ, data := o.element(href, openInNewTab)

	err := o.doc.Transform(func(tx *document.Tx) error {
		if o.key != "" {
			path, ok := tx.PathOf(o.key)
			if !ok {
				return errors.Wrapf(document.ErrPathNotFound, "link %s", o.key)
			}
			n, err := tx.Node(path)
			if err != nil {
				return err
			}
			return tx.SetNode(path, document.NodeProps{Type: typ, Data: embed.Diff(n.Data, data)})
		}
		sel, err := expanded(tx)
		if err != nil {
			return err
		}
		_, err = tx.WrapInline(*sel, &document.Node{Type: typ, Data: data})
		return err
	})
	if err != nil {
		return err
	}
	o.logger.Debug("saved link", zap.String("type", typ), zap.String("href", href))
	o.Close()
	return nil
}

// Remove unwraps the link the overlay was opened on, keeping its text.
func (o *LinkOverlay) Remove(ctx context.Context) error {
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
			return errors.Wrapf(document.ErrPathNotFound, "link %s", key)
		}
		return tx.UnwrapNode(path)
	})
	if err != nil {
		return err
	}
	o.Close()
	return nil
}
