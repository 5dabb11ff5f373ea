// Package editors implements the editing state machines of embed blocks.
//
// Editors are not safe for concurrent use. Call them from the session loop
// goroutine; fetch results are delivered there too.
package editors

import (
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/stateful/embedkit/internal/session"
	"github.com/stateful/embedkit/pkg/api"
	"github.com/stateful/embedkit/pkg/document"
	"github.com/stateful/embedkit/pkg/whitelist"
)

const (
	DefaultLanguage        = "nb"
	DefaultMinResizeHeight = 100
)

// Env is shared by all editors of one document.
type Env struct {
	Store   document.DocumentStore
	Mutator document.Mutator
	Loop    *session.Loop

	Images   api.ImageFetcher
	Videos   api.VideoFetcher
	Oembeds  api.OembedFetcher
	Concepts api.ConceptFetcher

	Whitelist whitelist.Table
	Language  string

	// BrightcoveAccount and BrightcovePlayer complete videos inserted
	// by id.
	BrightcoveAccount string
	BrightcovePlayer  string

	Form            *document.FormSubmissionState
	Body            *Body
	MinResizeHeight int
	Sanitizer       *bluemonday.Policy
	Logger          *zap.Logger
}

type Option func(*Env)

func WithLogger(logger *zap.Logger) Option {
	return func(e *Env) {
		e.Logger = logger
	}
}

func WithLanguage(language string) Option {
	return func(e *Env) {
		e.Language = language
	}
}

func WithWhitelist(table whitelist.Table) Option {
	return func(e *Env) {
		e.Whitelist = table
	}
}

func WithBrightcove(account, player string) Option {
	return func(e *Env) {
		e.BrightcoveAccount = account
		e.BrightcovePlayer = player
	}
}

func WithForm(form *document.FormSubmissionState) Option {
	return func(e *Env) {
		e.Form = form
	}
}

func WithMinResizeHeight(height int) Option {
	return func(e *Env) {
		e.MinResizeHeight = height
	}
}

func WithMutator(m document.Mutator) Option {
	return func(e *Env) {
		e.Mutator = m
	}
}

// NewEnv creates an environment that fetches everything from fetcher.
func NewEnv(store document.DocumentStore, loop *session.Loop, fetcher api.Fetcher, opts ...Option) *Env {
	e := &Env{
		Store:           store,
		Loop:            loop,
		Images:          fetcher,
		Videos:          fetcher,
		Oembeds:         fetcher,
		Concepts:        fetcher,
		Whitelist:       whitelist.Default(),
		Language:        DefaultLanguage,
		Form:            &document.FormSubmissionState{},
		Body:            NewBody(),
		MinResizeHeight: DefaultMinResizeHeight,
		Sanitizer:       OembedPolicy(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.Logger == nil {
		e.Logger = zap.NewNop()
	}
	if e.Mutator == nil {
		e.Mutator = document.NewStoreMutator(store, e.Logger)
	}
	return e
}

// OembedPolicy allows the markup oEmbed providers return, iframes included.
func OembedPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("iframe", "figure", "figcaption", "blockquote")
	p.AllowAttrs("src", "width", "height", "title", "allow", "allowfullscreen", "frameborder", "scrolling", "loading", "referrerpolicy").OnElements("iframe")
	p.AllowAttrs("class", "style").Globally()
	p.AllowURLSchemes("https")
	p.RequireParseableURLs(true)
	return p
}
