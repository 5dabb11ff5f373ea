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
)

// DefaultIframeHeight is used for iframes without a stored or provider height.
const DefaultIframeHeight = 400

var ErrNotResizable = errors.New("embed cannot be resized")

// VideoForm holds the editable fields of a video. Times are "HH:MM:SS".
// VideoID is only edited for brightcove videos inserted without data.
type VideoForm struct {
	VideoID string
	Caption string
	Start   string
	Stop    string
}

// VideoEditor edits brightcove videos and YouTube embeds.
type VideoEditor struct {
	element

	brightcove bool
	state      EditorState
	form       VideoForm
	initial    VideoForm
	resizer    *Resizer

	fetch    latest[string]
	original string
	linked   string
	fetchErr error
}

var _ dispatch.Component = (*VideoEditor)(nil)

// NewVideoEditor creates the editor of a brightcove or YouTube embed. A
// brightcove video inserted without data starts in editing with an empty
// form.
func NewVideoEditor(env *Env, props dispatch.Props) (*VideoEditor, error) {
	e := &VideoEditor{
		element:    newElement(env, props, "video"),
		brightcove: props.Attributes.Resource() == embed.ResourceBrightcove,
	}
	e.resizer = newResizer(env.Body, env.MinResizeHeight, e.commitHeight)
	if e.brightcove && e.pending() {
		e.state = Editing
		return e, nil
	}
	if _, err := e.decode(props.Attributes); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *VideoEditor) Kind() dispatch.Kind { return dispatch.KindVideo }

func (e *VideoEditor) decode(attrs embed.Attributes) (embed.Data, error) {
	if e.brightcove {
		return embed.DecodeAs[*embed.BrightcoveEmbed](attrs)
	}
	return embed.DecodeAs[*embed.ExternalEmbed](attrs)
}

func (e *VideoEditor) brightcoveData() (*embed.BrightcoveEmbed, error) {
	return embed.DecodeAs[*embed.BrightcoveEmbed](e.Data())
}

func (e *VideoEditor) externalData() (*embed.ExternalEmbed, error) {
	return embed.DecodeAs[*embed.ExternalEmbed](e.Data())
}

func (e *VideoEditor) IsBrightcove() bool { return e.brightcove }

func (e *VideoEditor) State() EditorState { return e.state }

func (e *VideoEditor) Form() VideoForm { return e.form }

// PlayerURL is the URL the video plays from.
func (e *VideoEditor) PlayerURL() string {
	if e.brightcove {
		d, err := e.brightcoveData()
		if err != nil {
			return ""
		}
		return embed.BrightcovePlayerURL(d)
	}
	d, err := e.externalData()
	if err != nil {
		return ""
	}
	return d.URL
}

// Edit opens the form with the stored caption and times.
func (e *VideoEditor) Edit() error {
	var form VideoForm
	if e.brightcove && e.pending() {
		e.form, e.initial = form, form
		e.state = Editing
		return nil
	}
	if e.brightcove {
		d, err := e.brightcoveData()
		if err != nil {
			return err
		}
		form = VideoForm{Caption: d.Caption, Start: embed.GetBrightcoveStartTime(d.VideoID)}
	} else {
		d, err := e.externalData()
		if err != nil {
			return err
		}
		form = VideoForm{Caption: d.Caption, Start: embed.GetStartTime(d.URL), Stop: embed.GetStopTime(d.URL)}
	}
	e.form, e.initial = form, form
	e.state = Editing
	return nil
}

// SetVideoID sets the id of a brightcove video that has none yet.
func (e *VideoEditor) SetVideoID(id string) error {
	if e.state != Editing {
		return errors.New("video editor is not editing")
	}
	if !e.brightcove || !e.pending() {
		return errors.New("video id can only be set on a new brightcove video")
	}
	e.form.VideoID = strings.TrimSpace(id)
	return nil
}

func (e *VideoEditor) SetCaption(caption string) error {
	if e.state != Editing {
		return errors.New("video editor is not editing")
	}
	e.form.Caption = caption
	return nil
}

func (e *VideoEditor) SetStartTime(hms string) error {
	if e.state != Editing {
		return errors.New("video editor is not editing")
	}
	if _, err := embed.ParseHMS(hms); err != nil {
		return err
	}
	e.form.Start = hms
	return nil
}

// SetStopTime is only supported by YouTube videos.
func (e *VideoEditor) SetStopTime(hms string) error {
	if e.state != Editing {
		return errors.New("video editor is not editing")
	}
	if e.brightcove {
		return errors.New("brightcove videos have no stop time")
	}
	if _, err := embed.ParseHMS(hms); err != nil {
		return err
	}
	e.form.Stop = hms
	return nil
}

func (e *VideoEditor) Save(ctx context.Context) error {
	if e.state != Editing {
		return errors.New("video editor is not editing")
	}
	timesChanged := e.form.Start != e.initial.Start || e.form.Stop != e.initial.Stop

	pending := e.pending()
	var d embed.Data
	if e.brightcove {
		v := &embed.BrightcoveEmbed{
			VideoID: e.form.VideoID,
			Account: e.env.BrightcoveAccount,
			Player:  e.env.BrightcovePlayer,
		}
		if !pending {
			var err error
			if v, err = e.brightcoveData(); err != nil {
				return err
			}
		}
		v.Caption = e.form.Caption
		if timesChanged {
			v.VideoID = embed.AddBrightcoveTimeStampVideoid(v.VideoID, e.form.Start)
		}
		d = v
	} else {
		v, err := e.externalData()
		if err != nil {
			return err
		}
		v.Caption = e.form.Caption
		if timesChanged {
			v.URL = embed.AddYoutubeTimeStamps(v.URL, e.form.Start, e.form.Stop)
		}
		d = v
	}
	if err := embed.Validate(d); err != nil {
		return err
	}

	n, err := e.Node()
	if err != nil {
		return err
	}
	update, err := changes(n.Data, d)
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
	e.state = Viewing
	return nil
}

// Abort closes the form. A video that was inserted without data is removed
// again.
func (e *VideoEditor) Abort() {
	e.form = VideoForm{}
	e.state = Viewing
	if err := e.discard(context.Background()); err != nil {
		e.logger.Info("failed to remove unsaved video", zap.Error(err))
	}
}

// CanResize is true for YouTube iframes that are not fullscreen.
func (e *VideoEditor) CanResize() bool {
	if e.brightcove {
		return false
	}
	d, err := e.externalData()
	return err == nil && !d.IsFullscreen()
}

// Height is the live height while resizing and the stored height otherwise.
func (e *VideoEditor) Height() int {
	if e.resizer.Active() {
		return e.resizer.Height()
	}
	if d, err := e.externalData(); err == nil && d.Height > 0 {
		return int(d.Height)
	}
	if p, ok := e.env.Whitelist.ByURL(e.PlayerURL()); ok && p.Height > 0 {
		return p.Height
	}
	return DefaultIframeHeight
}

// BeginResize starts dragging the resize handle at y.
func (e *VideoEditor) BeginResize(y float64) error {
	if !e.CanResize() {
		return ErrNotResizable
	}
	e.resizer.Begin(y, e.Height())
	return nil
}

func (e *VideoEditor) commitHeight(height int) {
	err := e.save(context.Background(), embed.Attributes{"height": strconv.Itoa(height)}, nil)
	if err != nil {
		e.logger.Info("failed to save height", zap.Error(err))
	}
}

func (e *VideoEditor) Remove(ctx context.Context) error {
	e.resizer.Cancel()
	e.fetch.cancel()
	return e.element.Remove(ctx)
}

// LoadLinkedVideo looks up the alternative version of a brightcove video.
// The lookup is keyed by the video id without its time stamp.
func (e *VideoEditor) LoadLinkedVideo(ctx context.Context) {
	if !e.brightcove || e.env.Videos == nil {
		return
	}
	d, err := e.brightcoveData()
	if err != nil {
		return
	}
	id := embed.RemoveBrightcoveTimeStamp(d.VideoID)
	seq := e.fetch.begin(id)
	session.Go(e.env.Loop, ctx,
		func(ctx context.Context) (*api.BrightcoveVideo, error) {
			return e.env.Videos.FetchBrightcoveVideo(ctx, id)
		},
		func(v *api.BrightcoveVideo, err error) {
			if !e.fetch.accept(id, seq) || !e.attached() {
				return
			}
			if current, cerr := e.brightcoveData(); cerr != nil || embed.RemoveBrightcoveTimeStamp(current.VideoID) != id {
				return
			}
			if err != nil {
				e.fetchErr = err
				e.logger.Info("failed to fetch linked video", zap.String("id", id), zap.Error(err))
				return
			}
			e.fetchErr = nil
			e.original = id
			e.linked, _ = v.LinkedVideoID()
		},
	)
}

// LinkedVideo returns the id of the linked video, once loaded.
func (e *VideoEditor) LinkedVideo() (string, bool) {
	return e.linked, e.linked != ""
}

// ShowsLinkedVideo reports whether the embed currently plays the linked video.
func (e *VideoEditor) ShowsLinkedVideo() bool {
	d, err := e.brightcoveData()
	return err == nil && e.linked != "" && embed.RemoveBrightcoveTimeStamp(d.VideoID) == e.linked
}

// SwapLinkedVideo switches between the original and the linked video. The
// start time is kept.
func (e *VideoEditor) SwapLinkedVideo(ctx context.Context) error {
	if e.linked == "" {
		return errors.New("video has no linked video")
	}
	d, err := e.brightcoveData()
	if err != nil {
		return err
	}
	target := e.linked
	if e.ShowsLinkedVideo() {
		target = e.original
	}
	videoid := embed.AddBrightcoveTimeStampVideoid(target, embed.GetBrightcoveStartTime(d.VideoID))
	return e.save(ctx, embed.Attributes{"videoid": videoid}, nil)
}

// Err is the error of the last linked video lookup.
func (e *VideoEditor) Err() error { return e.fetchErr }
