package editor

import (
	"math"

	"deckd/internal/layout"
	"deckd/internal/models"
)

// ZoomEditor holds the candidate region while a user drags and resizes it.
// The region is clamped after every movement, so it is valid at all times,
// not only when confirmed.
type ZoomEditor struct {
	index    int
	viewport models.Size
	layout   layout.Layout
	rect     models.Rect
}

// DefaultZoomRegion is a half-viewport rectangle centred on the click point
// (the viewport centre for slides without one), clamped into the viewport.
func DefaultZoomRegion(snap models.ClickSnapshot) models.Rect {
	vp := snap.Viewport()
	w, h := float64(vp.Width)/2, float64(vp.Height)/2
	center, ok := snap.ClickPoint()
	if !ok {
		center = models.Point{X: float64(vp.Width) / 2, Y: float64(vp.Height) / 2}
	}
	return models.ClampRect(models.Rect{
		X:      center.X - w/2,
		Y:      center.Y - h/2,
		Width:  w,
		Height: h,
	}, vp)
}

// NewZoomEditor seeds the candidate from the slide's stored region or from
// DefaultZoomRegion.
func NewZoomEditor(index int, snap models.ClickSnapshot, l layout.Layout) (*ZoomEditor, error) {
	vp := snap.Viewport()
	if vp.Width < models.MinZoomSize || vp.Height < models.MinZoomSize {
		return nil, models.ErrViewportTooSmall
	}
	rect := DefaultZoomRegion(snap)
	if zp, ok := snap.ZoomPan(); ok {
		rect = models.ClampRect(zp.Rect(), vp)
	}
	return &ZoomEditor{index: index, viewport: vp, layout: l, rect: rect}, nil
}

func (z *ZoomEditor) Index() int { return z.index }

func (z *ZoomEditor) Rect() models.Rect { return z.rect }

// SetLayout swaps the display fit after the host area changed.
func (z *ZoomEditor) SetLayout(l layout.Layout) {
	if l.Scale > 0 {
		z.layout = l
	}
}

// Drag moves the region by a display-space delta.
func (z *ZoomEditor) Drag(dx, dy float64) models.Rect {
	ox, oy := z.layout.ToOriginalDelta(dx, dy)
	vw, vh := float64(z.viewport.Width), float64(z.viewport.Height)
	z.rect.X = models.Clamp(z.rect.X+ox, 0, vw-z.rect.Width)
	z.rect.Y = models.Clamp(z.rect.Y+oy, 0, vh-z.rect.Height)
	return z.rect
}

// Resize moves the bottom-right corner by a display-space delta.
func (z *ZoomEditor) Resize(dx, dy float64) models.Rect {
	ox, oy := z.layout.ToOriginalDelta(dx, dy)
	vw, vh := float64(z.viewport.Width), float64(z.viewport.Height)
	z.rect.Width = math.Min(math.Max(models.MinZoomSize, z.rect.Width+ox), vw-z.rect.X)
	z.rect.Height = math.Min(math.Max(models.MinZoomSize, z.rect.Height+oy), vh-z.rect.Y)
	return z.rect
}

// Preview is the magnification the region will produce during playback.
func (z *ZoomEditor) Preview() float64 {
	return layout.PreviewZoom(z.viewport, z.rect)
}

// Result is the candidate as an enabled, integer region.
func (z *ZoomEditor) Result() models.ZoomPan {
	zp := z.rect.ZoomPan()
	if zp.X+zp.Width > z.viewport.Width {
		zp.X = z.viewport.Width - zp.Width
	}
	if zp.Y+zp.Height > z.viewport.Height {
		zp.Y = z.viewport.Height - zp.Height
	}
	return zp
}
