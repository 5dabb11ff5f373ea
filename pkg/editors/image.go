package editors

import (
	"context"
	"math"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/stateful/embedkit/internal/session"
	"github.com/stateful/embedkit/pkg/api"
	"github.com/stateful/embedkit/pkg/dispatch"
	"github.com/stateful/embedkit/pkg/document"
	"github.com/stateful/embedkit/pkg/embed"
)

// ErrAltRequired is returned when saving an image without alt text that is
// not decorative.
var ErrAltRequired = errors.Wrap(embed.ErrInvalid, "missing alt text")

const altRequiredMessage = "Alt text is required unless the image is decorative."

type EditorState int

const (
	Viewing EditorState = iota
	Editing
)

func (s EditorState) String() string {
	if s == Editing {
		return "editing"
	}
	return "viewing"
}

type TransformMode int

const (
	TransformNone TransformMode = iota
	TransformFocalPoint
	TransformCrop
)

func (m TransformMode) String() string {
	switch m {
	case TransformFocalPoint:
		return "focal-point"
	case TransformCrop:
		return "crop"
	default:
		return "none"
	}
}

// ImageEditor edits an image embed. Changes are made on a draft that is
// only written to the document on Save.
type ImageEditor struct {
	element

	state      EditorState
	mode       TransformMode
	draft      *embed.ImageEmbed
	saved      *embed.ImageEmbed
	altTouched bool
	crop       *gesture

	metadata *api.ImageMetadata
	fetch    latest[string]
}

var _ dispatch.Component = (*ImageEditor)(nil)

// NewImageEditor creates the editor of an image embed. An image inserted
// without data starts in editing.
func NewImageEditor(env *Env, props dispatch.Props) (*ImageEditor, error) {
	e := &ImageEditor{element: newElement(env, props, "image")}
	img, err := e.current()
	if err != nil {
		return nil, err
	}
	e.saved = img
	if e.pending() {
		if err := e.Edit(); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (e *ImageEditor) Kind() dispatch.Kind { return dispatch.KindImage }

// current decodes the image data of the element. An image without payload
// decodes to an empty image.
func (e *ImageEditor) current() (*embed.ImageEmbed, error) {
	n, err := e.Node()
	if err != nil {
		return nil, err
	}
	if n.IsFirstEdit && !n.HasPayload() {
		return &embed.ImageEmbed{}, nil
	}
	return embed.DecodeAs[*embed.ImageEmbed](n.Data)
}

func (e *ImageEditor) State() EditorState { return e.state }

func (e *ImageEditor) Mode() TransformMode { return e.mode }

// Image returns the saved image data.
func (e *ImageEditor) Image() embed.ImageEmbed { return *e.saved }

// Draft returns a copy of the data being edited.
func (e *ImageEditor) Draft() embed.ImageEmbed {
	if e.draft == nil {
		return *e.saved
	}
	return *e.draft
}

// Edit snapshots the element data into a draft.
func (e *ImageEditor) Edit() error {
	img, err := e.current()
	if err != nil {
		return err
	}
	e.saved = img
	draft := copyImage(img)
	e.draft = &draft
	e.state = Editing
	e.mode = TransformNone
	e.altTouched = false
	return nil
}

func copyImage(img *embed.ImageEmbed) embed.ImageEmbed {
	c := *img
	c.FocalX = copyFloat(img.FocalX)
	c.FocalY = copyFloat(img.FocalY)
	c.UpperLeftX = copyFloat(img.UpperLeftX)
	c.UpperLeftY = copyFloat(img.UpperLeftY)
	c.LowerRightX = copyFloat(img.LowerRightX)
	c.LowerRightY = copyFloat(img.LowerRightY)
	return c
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func (e *ImageEditor) editing() error {
	if e.state != Editing {
		return errors.New("image editor is not editing")
	}
	return nil
}

// SetResourceID picks the image to show.
func (e *ImageEditor) SetResourceID(id string) error {
	if err := e.editing(); err != nil {
		return err
	}
	e.draft.ResourceID = strings.TrimSpace(id)
	return nil
}

func (e *ImageEditor) SetAlt(alt string) error {
	if err := e.editing(); err != nil {
		return err
	}
	e.altTouched = true
	if e.draft.IsDecorative {
		return nil
	}
	e.draft.Alt = alt
	return nil
}

func (e *ImageEditor) SetCaption(caption string) error {
	if err := e.editing(); err != nil {
		return err
	}
	e.draft.Caption = caption
	return nil
}

// SetDecorative marks the image as decorative, which clears the alt text.
func (e *ImageEditor) SetDecorative(decorative bool) error {
	if err := e.editing(); err != nil {
		return err
	}
	e.draft.IsDecorative = decorative
	if decorative {
		e.draft.Alt = ""
	}
	return nil
}

func (e *ImageEditor) SetBorder(border bool) error {
	if err := e.editing(); err != nil {
		return err
	}
	e.draft.Border = border
	return nil
}

func (e *ImageEditor) SetAlign(align string) error {
	if err := e.editing(); err != nil {
		return err
	}
	switch align {
	case "", embed.AlignLeft, embed.AlignRight, embed.AlignCenter:
	default:
		return errors.Wrapf(embed.ErrInvalid, "align %q", align)
	}
	e.draft.Align = align
	return nil
}

func (e *ImageEditor) SetSize(size string) error {
	if err := e.editing(); err != nil {
		return err
	}
	switch strings.TrimSuffix(size, embed.HideBylineSuffix) {
	case "", embed.SizeXSmall, embed.SizeSmall, embed.SizeMedium, embed.SizeFull:
	default:
		return errors.Wrapf(embed.ErrInvalid, "size %q", size)
	}
	e.draft.Size = size
	return nil
}

// SetTransformMode switches the transform tool. Uncommitted changes of the
// other tool are reverted to the saved values.
func (e *ImageEditor) SetTransformMode(mode TransformMode) error {
	if err := e.editing(); err != nil {
		return err
	}
	if mode == e.mode {
		return nil
	}
	e.cancelCrop()
	switch e.mode {
	case TransformFocalPoint:
		e.draft.FocalX, e.draft.FocalY = copyFloat(e.saved.FocalX), copyFloat(e.saved.FocalY)
	case TransformCrop:
		e.revertCrop()
	}
	e.mode = mode
	return nil
}

// revertCrop puts the saved crop back on the draft, together with the saved
// focal point a new crop may have cleared.
func (e *ImageEditor) revertCrop() {
	e.draft.UpperLeftX, e.draft.UpperLeftY = copyFloat(e.saved.UpperLeftX), copyFloat(e.saved.UpperLeftY)
	e.draft.LowerRightX, e.draft.LowerRightY = copyFloat(e.saved.LowerRightX), copyFloat(e.saved.LowerRightY)
	e.draft.FocalX, e.draft.FocalY = copyFloat(e.saved.FocalX), copyFloat(e.saved.FocalY)
}

// ClickFocalPoint sets the focal point from a click at (x, y) on the image
// rendered at width by height. The crop rectangle is cleared.
func (e *ImageEditor) ClickFocalPoint(x, y, width, height float64) error {
	if err := e.editing(); err != nil {
		return err
	}
	if e.mode != TransformFocalPoint {
		return errors.Errorf("focal point needs mode %s, not %s", TransformFocalPoint, e.mode)
	}
	if width <= 0 || height <= 0 {
		return errors.Errorf("invalid rendered size %gx%g", width, height)
	}
	e.draft.SetFocalPoint(percent(x, width), percent(y, height))
	return nil
}

func percent(v, total float64) float64 {
	p := v / total * 100
	p = math.Round(p*100) / 100
	return math.Max(0, math.Min(100, p))
}

// SetCrop sets the crop rectangle in percent and clears the focal point.
// A rectangle without area cancels cropping: the draft gets back the saved
// transform and the mode returns to none.
func (e *ImageEditor) SetCrop(r embed.CropRect) error {
	if err := e.editing(); err != nil {
		return err
	}
	if e.mode != TransformCrop {
		return errors.Errorf("crop needs mode %s, not %s", TransformCrop, e.mode)
	}
	if r.IsEmpty() {
		e.revertCrop()
		e.mode = TransformNone
		return nil
	}
	r.UpperLeftX, r.LowerRightX = clampPercent(r.UpperLeftX), clampPercent(r.LowerRightX)
	r.UpperLeftY, r.LowerRightY = clampPercent(r.UpperLeftY), clampPercent(r.LowerRightY)
	e.draft.SetCrop(r)
	return nil
}

func clampPercent(v float64) float64 { return math.Max(0, math.Min(100, v)) }

// BeginCrop starts dragging a crop rectangle at (x, y) on the image
// rendered at width by height. The rectangle is set on mouse-up.
func (e *ImageEditor) BeginCrop(x, y, width, height float64) error {
	if err := e.editing(); err != nil {
		return err
	}
	if e.mode != TransformCrop {
		return errors.Errorf("crop needs mode %s, not %s", TransformCrop, e.mode)
	}
	if width <= 0 || height <= 0 {
		return errors.Errorf("invalid rendered size %gx%g", width, height)
	}
	e.cancelCrop()
	rect := func(ev MouseEvent) embed.CropRect {
		x0, x1 := percent(x, width), percent(ev.X, width)
		y0, y1 := percent(y, height), percent(ev.Y, height)
		return embed.CropRect{
			UpperLeftX:  math.Min(x0, x1),
			UpperLeftY:  math.Min(y0, y1),
			LowerRightX: math.Max(x0, x1),
			LowerRightY: math.Max(y0, y1),
		}
	}
	e.crop = startGesture(e.env.Body, func(MouseEvent) {}, func(ev MouseEvent) {
		e.crop = nil
		if err := e.SetCrop(rect(ev)); err != nil {
			e.logger.Info("crop gesture ignored", zap.Error(err))
		}
	})
	return nil
}

func (e *ImageEditor) cancelCrop() {
	e.crop.stop()
	e.crop = nil
}

// ResetTransform removes both focal point and crop from the draft.
func (e *ImageEditor) ResetTransform() error {
	if err := e.editing(); err != nil {
		return err
	}
	e.cancelCrop()
	e.draft.ClearCrop()
	e.draft.ClearFocalPoint()
	e.mode = TransformNone
	return nil
}

// Validate checks the draft.
func (e *ImageEditor) Validate() error {
	if err := e.editing(); err != nil {
		return err
	}
	var err error
	if !e.draft.IsDecorative && strings.TrimSpace(e.draft.Alt) == "" {
		err = ErrAltRequired
	}
	return multierr.Append(err, embed.Validate(e.draft))
}

func (e *ImageEditor) CanSave() bool {
	return e.state == Editing && e.Validate() == nil
}

// AltError returns the alt text validation message once the field was
// touched or the form was submitted.
func (e *ImageEditor) AltError() string {
	if e.state != Editing || e.draft.IsDecorative || strings.TrimSpace(e.draft.Alt) != "" {
		return ""
	}
	if !e.env.Form.ShowError(e.altTouched) {
		return ""
	}
	return altRequiredMessage
}

// Save writes the draft to the document and stops editing. Centered images
// are always full size, keeping a hidden byline.
func (e *ImageEditor) Save(ctx context.Context) error {
	if err := e.Validate(); err != nil {
		return err
	}
	e.cancelCrop()
	draft := copyImage(e.draft)
	if draft.Align == embed.AlignCenter {
		size := embed.SizeFull
		if draft.HideByline() {
			size += embed.HideBylineSuffix
		}
		draft.Size = size
	}

	n, err := e.Node()
	if err != nil {
		return err
	}
	update, err := changes(n.Data, &draft)
	if err != nil {
		return err
	}
	var firstEdit *bool
	if n.IsFirstEdit {
		firstEdit = document.Bool(false)
	}
	if err := e.save(ctx, update, firstEdit); err != nil {
		return err
	}
	e.logger.Debug("image saved", zap.Int("changed", len(update)))
	e.saved = &draft
	e.close()
	return nil
}

// Abort drops the draft. An image that was inserted without data is
// removed again.
func (e *ImageEditor) Abort() {
	e.cancelCrop()
	e.close()
	if err := e.discard(context.Background()); err != nil {
		e.logger.Info("failed to remove unsaved image", zap.Error(err))
	}
}

func (e *ImageEditor) close() {
	e.draft = nil
	e.state = Viewing
	e.mode = TransformNone
}

func (e *ImageEditor) Remove(ctx context.Context) error {
	e.cancelCrop()
	e.fetch.cancel()
	return e.element.Remove(ctx)
}

// LoadMetadata fetches the image metadata. A result for another image id,
// or arriving after the editor was removed, is dropped.
func (e *ImageEditor) LoadMetadata(ctx context.Context) {
	id := e.Draft().ResourceID
	if id == "" || e.env.Images == nil {
		return
	}
	seq := e.fetch.begin(id)
	language := e.env.Language
	session.Go(e.env.Loop, ctx,
		func(ctx context.Context) (*api.ImageMetadata, error) {
			return e.env.Images.FetchImage(ctx, id, language)
		},
		func(m *api.ImageMetadata, err error) {
			if !e.fetch.accept(id, seq) || !e.attached() {
				return
			}
			if err != nil {
				e.logger.Info("failed to fetch image metadata", zap.String("id", id), zap.Error(err))
				return
			}
			e.metadata = m
		},
	)
}

func (e *ImageEditor) Metadata() *api.ImageMetadata { return e.metadata }

// SuggestedAlt is the alt text stored with the image, if loaded.
func (e *ImageEditor) SuggestedAlt() string {
	if e.metadata == nil {
		return ""
	}
	return e.metadata.AltText()
}
