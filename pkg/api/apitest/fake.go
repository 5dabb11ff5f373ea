// Package apitest provides an in-memory [api.Fetcher] for tests.
package apitest

import (
	"context"
	"strconv"
	"sync"

	"github.com/stateful/embedkit/pkg/api"
)

// Fake serves canned responses. Keys missing from the maps yield
// [api.ErrNotFound]. Entries in Errors take precedence. A channel in Gates
// blocks the fetch for that key until it is closed.
type Fake struct {
	mu sync.Mutex

	Oembeds  map[string]*api.Oembed
	Images   map[string]*api.ImageMetadata
	Videos   map[string]*api.BrightcoveVideo
	Concepts map[int64]*api.Concept
	Errors   map[string]error
	Gates    map[string]chan struct{}

	calls map[string]int
}

var _ api.Fetcher = (*Fake)(nil)

func New() *Fake {
	return &Fake{
		Oembeds:  make(map[string]*api.Oembed),
		Images:   make(map[string]*api.ImageMetadata),
		Videos:   make(map[string]*api.BrightcoveVideo),
		Concepts: make(map[int64]*api.Concept),
		Errors:   make(map[string]error),
		Gates:    make(map[string]chan struct{}),
		calls:    make(map[string]int),
	}
}

// Gate makes fetches for key block until the returned function is called.
func (f *Fake) Gate(key string) (release func()) {
	ch := make(chan struct{})
	f.mu.Lock()
	f.Gates[key] = ch
	f.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

// Calls returns how often key was fetched.
func (f *Fake) Calls(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func (f *Fake) enter(ctx context.Context, key string) error {
	f.mu.Lock()
	f.calls[key]++
	gate := f.Gates[key]
	err := f.Errors[key]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (f *Fake) FetchOembed(ctx context.Context, url string) (*api.Oembed, error) {
	if err := f.enter(ctx, url); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.Oembeds[url]; ok {
		return v, nil
	}
	return nil, api.ErrNotFound
}

func (f *Fake) FetchImage(ctx context.Context, id, _ string) (*api.ImageMetadata, error) {
	if err := f.enter(ctx, id); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.Images[id]; ok {
		return v, nil
	}
	return nil, api.ErrNotFound
}

func (f *Fake) FetchBrightcoveVideo(ctx context.Context, id string) (*api.BrightcoveVideo, error) {
	if err := f.enter(ctx, id); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.Videos[id]; ok {
		return v, nil
	}
	return nil, api.ErrNotFound
}

func (f *Fake) FetchConcept(ctx context.Context, id int64, _ string) (*api.Concept, error) {
	if err := f.enter(ctx, strconv.FormatInt(id, 10)); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.Concepts[id]; ok {
		return v, nil
	}
	return nil, api.ErrNotFound
}

// Image builds image metadata with the given alt text.
func Image(id, alt string) *api.ImageMetadata {
	img := &api.ImageMetadata{ID: id}
	img.Alttext.Alttext = alt
	img.Image.ImageURL = "https://api.ndla.no/image-api/raw/" + id
	return img
}

// Concept builds a concept with the given title.
func Concept(id int64, title string) *api.Concept {
	c := &api.Concept{ID: id}
	c.Title.Title = title
	c.Status.Current = "PUBLISHED"
	return c
}
