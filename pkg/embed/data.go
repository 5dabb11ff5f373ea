package embed

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	AlignLeft   = "left"
	AlignRight  = "right"
	AlignCenter = "center"

	SizeXSmall = "xsmall"
	SizeSmall  = "small"
	SizeMedium = "medium"
	SizeFull   = "full"

	HideBylineSuffix = "-hide-byline"
)

const (
	ExternalTypeRich       = "rich"
	ExternalTypeVideo      = "video"
	ExternalTypeLink       = "link"
	ExternalTypeIframe     = "iframe"
	ExternalTypeFullscreen = "fullscreen"
)

const (
	ConceptTypeInline = "inline"
	ConceptTypeBlock  = "block"
)

// Pixels is a whole height in CSS pixels. A trailing "px" is accepted when
// parsing; fractions are rejected.
type Pixels int

func (p Pixels) MarshalText() ([]byte, error) {
	if p == 0 {
		return nil, nil
	}
	return []byte(strconv.Itoa(int(p))), nil
}

func (p *Pixels) UnmarshalText(text []byte) error {
	s := strings.TrimSuffix(strings.TrimSpace(string(text)), "px")
	if s == "" {
		*p = 0
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return errors.Wrapf(ErrInvalid, "height %q is not a whole number of pixels", string(text))
	}
	*p = Pixels(v)
	return nil
}

// CropRect is a crop rectangle in percent of the image dimensions.
type CropRect struct {
	UpperLeftX  float64
	UpperLeftY  float64
	LowerRightX float64
	LowerRightY float64
}

func (r CropRect) Width() float64  { return r.LowerRightX - r.UpperLeftX }
func (r CropRect) Height() float64 { return r.LowerRightY - r.UpperLeftY }

// IsEmpty reports whether the rectangle has no area.
func (r CropRect) IsEmpty() bool { return r.Width() <= 0 || r.Height() <= 0 }

type ImageEmbed struct {
	ResourceID   string   `attr:"resource_id" validate:"required"`
	Alt          string   `attr:"alt"`
	Caption      string   `attr:"caption"`
	Align        string   `attr:"align" validate:"omitempty,oneof=left right center"`
	Size         string   `attr:"size" validate:"omitempty,oneof=xsmall small medium full xsmall-hide-byline small-hide-byline medium-hide-byline full-hide-byline"`
	Border       bool     `attr:"border,always"`
	IsDecorative bool     `attr:"is-decorative"`
	URL          string   `attr:"url"`
	FocalX       *float64 `attr:"focal-x" validate:"omitempty,min=0,max=100"`
	FocalY       *float64 `attr:"focal-y" validate:"omitempty,min=0,max=100"`
	UpperLeftX   *float64 `attr:"upper-left-x" validate:"omitempty,min=0,max=100"`
	UpperLeftY   *float64 `attr:"upper-left-y" validate:"omitempty,min=0,max=100"`
	LowerRightX  *float64 `attr:"lower-right-x" validate:"omitempty,min=0,max=100"`
	LowerRightY  *float64 `attr:"lower-right-y" validate:"omitempty,min=0,max=100"`
}

func (*ImageEmbed) Resource() Resource { return ResourceImage }

func (d ImageEmbed) HideByline() bool { return strings.HasSuffix(d.Size, HideBylineSuffix) }

func (d ImageEmbed) HasFocalPoint() bool { return d.FocalX != nil && d.FocalY != nil }

func (d ImageEmbed) HasCrop() bool {
	return d.UpperLeftX != nil && d.UpperLeftY != nil && d.LowerRightX != nil && d.LowerRightY != nil
}

func (d ImageEmbed) FocalPoint() (x, y float64, ok bool) {
	if !d.HasFocalPoint() {
		return 0, 0, false
	}
	return *d.FocalX, *d.FocalY, true
}

func (d ImageEmbed) Crop() (CropRect, bool) {
	if !d.HasCrop() {
		return CropRect{}, false
	}
	return CropRect{
		UpperLeftX:  *d.UpperLeftX,
		UpperLeftY:  *d.UpperLeftY,
		LowerRightX: *d.LowerRightX,
		LowerRightY: *d.LowerRightY,
	}, true
}

// SetFocalPoint sets the focal point and clears the crop rectangle.
func (d *ImageEmbed) SetFocalPoint(x, y float64) {
	d.FocalX, d.FocalY = &x, &y
	d.ClearCrop()
}

// SetCrop sets the crop rectangle and clears the focal point.
func (d *ImageEmbed) SetCrop(r CropRect) {
	d.UpperLeftX, d.UpperLeftY = &r.UpperLeftX, &r.UpperLeftY
	d.LowerRightX, d.LowerRightY = &r.LowerRightX, &r.LowerRightY
	d.ClearFocalPoint()
}

func (d *ImageEmbed) ClearFocalPoint() {
	d.FocalX, d.FocalY = nil, nil
}

func (d *ImageEmbed) ClearCrop() {
	d.UpperLeftX, d.UpperLeftY, d.LowerRightX, d.LowerRightY = nil, nil, nil, nil
}

type BrightcoveEmbed struct {
	VideoID string `attr:"videoid" validate:"required"`
	Account string `attr:"account"`
	Player  string `attr:"player"`
	Caption string `attr:"caption"`
	Alt     string `attr:"alt"`
	Title   string `attr:"title"`
	URL     string `attr:"url"`
}

func (*BrightcoveEmbed) Resource() Resource { return ResourceBrightcove }

// ExternalEmbed is used for both "external" (oEmbed) and "iframe" resources.
type ExternalEmbed struct {
	Kind     Resource `attr:"-"`
	URL      string   `attr:"url" validate:"required,url"`
	Height   Pixels   `attr:"height"`
	Type     string   `attr:"type"`
	Title    string   `attr:"title"`
	Caption  string   `attr:"caption"`
	ImageID  string   `attr:"imageid"`
	ImageAlt string   `attr:"alt"`
}

func (d *ExternalEmbed) Resource() Resource {
	if d.Kind == "" {
		return ResourceExternal
	}
	return d.Kind
}

func (d *ExternalEmbed) IsFullscreen() bool { return d.Type == ExternalTypeFullscreen }

type H5PEmbed struct {
	URL    string `attr:"url" validate:"required,url"`
	Path   string `attr:"path"`
	Title  string `attr:"title"`
	Height Pixels `attr:"height"`
}

func (*H5PEmbed) Resource() Resource { return ResourceH5P }

// ConceptEmbed is used for both "concept" and "gloss" resources.
type ConceptEmbed struct {
	Kind      Resource `attr:"-"`
	ContentID string   `attr:"content-id" validate:"required,numeric"`
	Type      string   `attr:"type" validate:"omitempty,oneof=inline block"`
	LinkText  string   `attr:"link-text"`
}

func (d *ConceptEmbed) Resource() Resource {
	if d.Kind == "" {
		return ResourceConcept
	}
	return d.Kind
}

func (d *ConceptEmbed) ID() (int64, error) {
	id, err := strconv.ParseInt(d.ContentID, 10, 64)
	return id, errors.WithStack(err)
}

type ContactBlockEmbed struct {
	ImageID     string `attr:"image-id" validate:"required"`
	JobTitle    string `attr:"job-title" validate:"required"`
	Name        string `attr:"name" validate:"required"`
	Email       string `attr:"email" validate:"required,email"`
	Description string `attr:"description" validate:"required"`
	Background  string `attr:"background" validate:"omitempty,oneof=strong subtle"`
	Alt         string `attr:"alt"`
}

func (*ContactBlockEmbed) Resource() Resource { return ResourceContactBlock }

type KeyFigureEmbed struct {
	ImageID  string `attr:"image-id" validate:"required"`
	Title    string `attr:"title" validate:"required"`
	Subtitle string `attr:"subtitle" validate:"required"`
	Alt      string `attr:"alt"`
}

func (*KeyFigureEmbed) Resource() Resource { return ResourceKeyFigure }

type CampaignBlockEmbed struct {
	Title               string `attr:"title" validate:"required"`
	TitleLanguage       string `attr:"title-language"`
	Description         string `attr:"description" validate:"required"`
	DescriptionLanguage string `attr:"description-language"`
	URL                 string `attr:"url" validate:"omitempty,url"`
	URLText             string `attr:"url-text" validate:"required_with=URL"`
	ImageID             string `attr:"image-id"`
	ImageSide           string `attr:"image-side" validate:"omitempty,oneof=left right"`
	HeadingLevel        string `attr:"heading-level" validate:"omitempty,oneof=h2 h3 h4"`
}

func (*CampaignBlockEmbed) Resource() Resource { return ResourceCampaignBlock }

type File struct {
	Title string `json:"title" validate:"required"`
	URL   string `json:"url" validate:"required"`
	Path  string `json:"path,omitempty"`
	Type  string `json:"type,omitempty"`
}

// FileList is stored as a JSON array in the "files" attribute.
type FileList []File

func (l FileList) MarshalText() ([]byte, error) {
	if len(l) == 0 {
		return nil, nil
	}
	data, err := json.Marshal([]File(l))
	return data, errors.WithStack(err)
}

func (l *FileList) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*l = nil
		return nil
	}
	var files []File
	if err := json.Unmarshal(text, &files); err != nil {
		return errors.WithStack(err)
	}
	*l = files
	return nil
}

type FileEmbed struct {
	Files FileList `attr:"files" validate:"min=1,dive"`
}

func (*FileEmbed) Resource() Resource { return ResourceFile }

// ErrorEmbed replaces embeds that could not be decoded.
type ErrorEmbed struct {
	Message string   `attr:"message"`
	Source  Resource `attr:"source"`
}

func (*ErrorEmbed) Resource() Resource { return ResourceError }

func (d *ErrorEmbed) Error() string { return d.Message }
