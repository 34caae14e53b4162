// Package playback turns an editor view into something a host can draw: a
// frame model with the isolated snapshot surface and its overlays, an HTML
// page for that frame, and PNG thumbnails from a headless browser.
package playback

import (
	"errors"
	"html/template"
	"time"

	"deckd/internal/editor"
	"deckd/internal/layout"
	"deckd/internal/models"
)

// ZoomDuration is the length of the view-only zoom-in animation that starts
// editor.ZoomDelay after a slide is shown.
const ZoomDuration = 600 * time.Millisecond

// ZoomKeyframes is how many eased steps the zoom animation is sampled into.
const ZoomKeyframes = 10

// BookendAspect is the fixed background proportion of cover and end slides.
var BookendAspect = models.Size{Width: 1920, Height: 1080}

var ErrNoSnapshot = errors.New("playback: frame request has no snapshot")

type Mode string

const (
	ModeView Mode = "view"
	ModeEdit Mode = "edit"
)

// ParseMode defaults to view-only playback for anything but "edit".
func ParseMode(s string) Mode {
	if s == string(ModeEdit) {
		return ModeEdit
	}
	return ModeView
}

// FrameRequest is one render of the current slide. Display overrides the
// session's display area when set.
type FrameRequest struct {
	View     editor.ViewState
	Snapshot models.ClickSnapshot
	Mode     Mode
	Display  models.Size
}

type Frame struct {
	Index      int                 `json:"index"`
	Count      int                 `json:"count"`
	Kind       models.SnapshotKind `json:"kind"`
	Mode       Mode                `json:"mode"`
	State      editor.NavState     `json:"state"`
	Label      string              `json:"label"`
	Layout     layout.Layout       `json:"layout"`
	Surface    *Surface            `json:"surface,omitempty"`
	Cursor     *Cursor             `json:"cursor,omitempty"`
	Tooltip    *Tooltip            `json:"tooltip,omitempty"`
	ZoomEditor *ZoomOverlay        `json:"zoomEditor,omitempty"`
	Zoom       *ZoomAnimation      `json:"zoom,omitempty"`
	Bookend    *Bookend            `json:"bookend,omitempty"`
}

// Surface is the isolated snapshot document, laid out at the original
// viewport size and scaled down to the display box. The scroll offset is
// applied after the document has loaded.
type Surface struct {
	HTML    string  `json:"html"`
	URL     string  `json:"url"`
	Width   int     `json:"width"`
	Height  int     `json:"height"`
	Scale   float64 `json:"scale"`
	ScrollX float64 `json:"scrollX"`
	ScrollY float64 `json:"scrollY"`
}

// Cursor is in display space.
type Cursor struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Ping bool    `json:"ping"`
}

type Tooltip struct {
	layout.Tooltip
	Label    string        `json:"label"`
	Script   template.HTML `json:"script"`
	Editable bool          `json:"editable"`
	Editing  bool          `json:"editing"`
}

// ZoomOverlay is the candidate region of an open zoom editor, in display space.
type ZoomOverlay struct {
	Rect    models.Rect `json:"rect"`
	Preview float64     `json:"preview"`
}

// ZoomAnimation is the view-only camera move. CursorPath holds the cursor's
// display position at each keyframe so the overlay stays on the content.
type ZoomAnimation struct {
	Delay      time.Duration      `json:"delay"`
	Duration   time.Duration      `json:"duration"`
	Target     layout.Transform   `json:"target"`
	Keyframes  []layout.Transform `json:"keyframes"`
	CursorPath []models.Point     `json:"cursorPath,omitempty"`
}

type Bookend struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Logo        string       `json:"logo,omitempty"`
	CTALink     string       `json:"ctaLink,omitempty"`
	QRCode      template.URL `json:"qrCode,omitempty"`
	Width       int          `json:"width"`
	Height      int          `json:"height"`
}

// Frame builds the render model for req. Bookend slides skip the cursor and
// tooltip pipeline entirely.
func (r *Renderer) Frame(req FrameRequest) (Frame, error) {
	snap := req.Snapshot
	if snap.ViewportWidth <= 0 || snap.ViewportHeight <= 0 {
		return Frame{}, ErrNoSnapshot
	}
	v := req.View
	l := v.Layout
	if req.Display.Width > 0 && req.Display.Height > 0 {
		fitted, err := layout.Fit(req.Display, snap.Viewport())
		if err != nil {
			return Frame{}, err
		}
		l = fitted
	}

	f := Frame{
		Index:  v.Index,
		Count:  v.Count,
		Kind:   snap.Kind,
		Mode:   req.Mode,
		State:  v.State,
		Label:  v.Label,
		Layout: l,
	}

	if snap.Kind.IsBookend() {
		b, err := r.bookend(snap, req.Display, l)
		if err != nil {
			return Frame{}, err
		}
		f.Bookend = b
		return f, nil
	}

	doc, err := Isolate(snap.HTML, snap.URL)
	if err != nil {
		return Frame{}, err
	}
	f.Surface = &Surface{
		HTML:    doc,
		URL:     snap.URL,
		Width:   snap.ViewportWidth,
		Height:  snap.ViewportHeight,
		Scale:   l.Scale,
		ScrollX: snap.ScrollX,
		ScrollY: snap.ScrollY,
	}

	if v.Cursor != nil {
		cl, err := cursorLayout(v, req.Display, l)
		if err != nil {
			return Frame{}, err
		}
		p := cl.ToDisplay(*v.Cursor)
		f.Cursor = &Cursor{X: p.X, Y: p.Y, Ping: v.Ping}
	}

	if v.State != editor.StateTransitioning {
		f.Tooltip = r.tooltip(v, snap, req.Mode, l)
	}

	if v.ZoomCandidate != nil {
		f.ZoomEditor = &ZoomOverlay{Rect: l.ToDisplayRect(*v.ZoomCandidate), Preview: v.ZoomPreview}
	}

	if req.Mode == ModeView && v.State == editor.StateIdle {
		if zp, ok := snap.ZoomPan(); ok {
			f.Zoom = zoomAnimation(layout.ZoomTransform(l, zp))
			if f.Cursor != nil {
				f.Zoom.CursorPath = cursorPath(f.Zoom.Keyframes, l, models.Point{X: f.Cursor.X, Y: f.Cursor.Y})
			}
		}
	}
	return f, nil
}

// cursorLayout scales the cursor with the slide it was recorded on, which is
// the pending slide during a transition.
func cursorLayout(v editor.ViewState, display models.Size, l layout.Layout) (layout.Layout, error) {
	vp := v.CursorLayout.Viewport
	if v.CursorLayout.Scale <= 0 || vp == l.Viewport {
		return l, nil
	}
	if display.Width > 0 && display.Height > 0 {
		return layout.Fit(display, vp)
	}
	return v.CursorLayout, nil
}

func (r *Renderer) tooltip(v editor.ViewState, snap models.ClickSnapshot, mode Mode, l layout.Layout) *Tooltip {
	editable := mode == ModeEdit
	if !editable && v.Annotation == nil {
		return nil
	}

	anchor, ok := snap.ClickPoint()
	if !ok {
		anchor = models.Point{X: float64(snap.ViewportWidth) / 2, Y: float64(snap.ViewportHeight) / 2}
	}
	t := &Tooltip{
		Tooltip:  layout.PlaceTooltip(l, anchor),
		Label:    v.Label,
		Editable: editable,
	}
	script := ""
	if v.Annotation != nil {
		script = v.Annotation.Script
	}
	if editable && v.Draft != nil {
		t.Label = v.Draft.Label
		script = v.Draft.Script
		t.Editing = true
	}
	t.Script = r.sanitize(script)
	return t
}

func zoomAnimation(target layout.Transform) *ZoomAnimation {
	frames := make([]layout.Transform, ZoomKeyframes+1)
	for i := range frames {
		frames[i] = layout.Interpolate(layout.Identity, target, float64(i)/ZoomKeyframes)
	}
	return &ZoomAnimation{
		Delay:     editor.ZoomDelay,
		Duration:  ZoomDuration,
		Target:    target,
		Keyframes: frames,
	}
}

func cursorPath(frames []layout.Transform, l layout.Layout, p models.Point) []models.Point {
	path := make([]models.Point, len(frames))
	for i, t := range frames {
		path[i] = t.Apply(l, p)
	}
	return path
}

func (r *Renderer) bookend(snap models.ClickSnapshot, display models.Size, l layout.Layout) (*Bookend, error) {
	if display.Width <= 0 || display.Height <= 0 {
		display = l.Display
	}
	box, err := layout.Fit(display, BookendAspect)
	if err != nil {
		return nil, err
	}
	b := &Bookend{
		Title:       snap.Title,
		Description: snap.Description,
		Logo:        snap.Logo,
		CTALink:     snap.CTALink,
		Width:       box.Display.Width,
		Height:      box.Display.Height,
	}
	if snap.CTALink != "" {
		qr, err := r.qrCode(snap.CTALink)
		if err != nil {
			return nil, err
		}
		b.QRCode = qr
	}
	return b, nil
}
