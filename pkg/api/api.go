// Package api holds the contracts of the content APIs that embed editors
// fetch from, and an HTTP client implementing them.
package api

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrNotFound = errors.New("not found")
	ErrStatus   = errors.New("unexpected status")
)

type OembedFetcher interface {
	FetchOembed(ctx context.Context, url string) (*Oembed, error)
}

type ImageFetcher interface {
	FetchImage(ctx context.Context, id, language string) (*ImageMetadata, error)
}

type VideoFetcher interface {
	FetchBrightcoveVideo(ctx context.Context, id string) (*BrightcoveVideo, error)
}

type ConceptFetcher interface {
	FetchConcept(ctx context.Context, id int64, language string) (*Concept, error)
}

// Fetcher is the union of all content APIs.
type Fetcher interface {
	OembedFetcher
	ImageFetcher
	VideoFetcher
	ConceptFetcher
}

// Dimension is a size in pixels. Some oEmbed providers send sizes as
// strings, so both forms are accepted.
type Dimension int

func (d *Dimension) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		*d = 0
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(raw, "px"), 64)
	if err != nil {
		return errors.Wrapf(err, "invalid dimension %s", data)
	}
	*d = Dimension(v)
	return nil
}

// Oembed is an oEmbed response.
type Oembed struct {
	Type         string    `json:"type"`
	Version      string    `json:"version,omitempty"`
	Title        string    `json:"title,omitempty"`
	ProviderName string    `json:"provider_name,omitempty"`
	ProviderURL  string    `json:"provider_url,omitempty"`
	HTML         string    `json:"html,omitempty"`
	Width        Dimension `json:"width,omitempty"`
	Height       Dimension `json:"height,omitempty"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
}

type Author struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

type License struct {
	License     string `json:"license"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
}

type Copyright struct {
	License       License  `json:"license"`
	Origin        string   `json:"origin,omitempty"`
	Creators      []Author `json:"creators,omitempty"`
	Processors    []Author `json:"processors,omitempty"`
	Rightsholders []Author `json:"rightsholders,omitempty"`
}

// Authors returns creators, processors and rightsholders in that order.
func (c Copyright) Authors() []Author {
	result := make([]Author, 0, len(c.Creators)+len(c.Processors)+len(c.Rightsholders))
	result = append(result, c.Creators...)
	result = append(result, c.Processors...)
	return append(result, c.Rightsholders...)
}

type ImageMetadata struct {
	ID      string `json:"id"`
	MetaURL string `json:"metaUrl,omitempty"`
	Title   struct {
		Title    string `json:"title"`
		Language string `json:"language"`
	} `json:"title"`
	Alttext struct {
		Alttext  string `json:"alttext"`
		Language string `json:"language"`
	} `json:"alttext"`
	Caption struct {
		Caption  string `json:"caption"`
		Language string `json:"language"`
	} `json:"caption"`
	Image struct {
		ImageURL    string `json:"imageUrl"`
		ContentType string `json:"contentType"`
	} `json:"image"`
	Copyright          Copyright `json:"copyright"`
	SupportedLanguages []string  `json:"supportedLanguages,omitempty"`
}

func (m *ImageMetadata) ImageURL() string { return m.Image.ImageURL }

func (m *ImageMetadata) AltText() string { return m.Alttext.Alttext }

type Link struct {
	URL  string `json:"url,omitempty"`
	Text string `json:"text,omitempty"`
}

type BrightcoveVideo struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Description  string            `json:"description,omitempty"`
	Link         *Link             `json:"link,omitempty"`
	CustomFields map[string]string `json:"custom_fields,omitempty"`
}

// LinkedVideoID returns the id of the alternative version of the video,
// for example the one with sign language.
func (v *BrightcoveVideo) LinkedVideoID() (string, bool) {
	if v == nil || v.Link == nil || v.Link.Text == "" {
		return "", false
	}
	return v.Link.Text, true
}

type GlossExample struct {
	Example  string `json:"example"`
	Language string `json:"language"`
}

type GlossData struct {
	Gloss            string           `json:"gloss"`
	WordClass        string           `json:"wordClass,omitempty"`
	OriginalLanguage string           `json:"originalLanguage,omitempty"`
	Examples         [][]GlossExample `json:"examples,omitempty"`
}

// Concept is a concept or a gloss. Glosses carry GlossData.
type Concept struct {
	ID    int64 `json:"id"`
	Title struct {
		Title    string `json:"title"`
		Language string `json:"language"`
	} `json:"title"`
	Content struct {
		Content  string `json:"content"`
		Language string `json:"language"`
	} `json:"content"`
	ConceptType   string     `json:"conceptType,omitempty"`
	GlossData     *GlossData `json:"glossData,omitempty"`
	VisualElement *struct {
		VisualElement string `json:"visualElement"`
		Language      string `json:"language"`
	} `json:"visualElement,omitempty"`
	Copyright *Copyright `json:"copyright,omitempty"`
	Status    struct {
		Current string   `json:"current"`
		Other   []string `json:"other,omitempty"`
	} `json:"status"`
}

func (c *Concept) IsGloss() bool { return c.GlossData != nil || c.ConceptType == "gloss" }

func decodeJSON(data []byte, v any) error {
	return errors.Wrap(json.Unmarshal(data, v), "failed to decode response")
}
