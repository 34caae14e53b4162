package layout

import (
	"math"

	"deckd/internal/models"
)

const (
	TooltipWidth  = 300
	TooltipHeight = 140
	CursorOffset  = 24
	EdgePadding   = 16
)

// Tooltip is the annotation box position in display space.
type Tooltip struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	FlipX bool    `json:"flipX"`
	FlipY bool    `json:"flipY"`
}

// PlaceTooltip puts the tooltip below-right of the cursor, flipping to the
// left/above when it would cross the display box edge minus EdgePadding.
func PlaceTooltip(l Layout, anchor models.Point) Tooltip {
	p := l.ToDisplay(anchor)
	maxX := float64(l.Display.Width) - EdgePadding
	maxY := float64(l.Display.Height) - EdgePadding

	t := Tooltip{X: p.X + CursorOffset, Y: p.Y + CursorOffset}
	if t.X+TooltipWidth > maxX {
		t.X = p.X - CursorOffset - TooltipWidth
		t.FlipX = true
	}
	if t.Y+TooltipHeight > maxY {
		t.Y = p.Y - CursorOffset - TooltipHeight
		t.FlipY = true
	}
	t.X = math.Max(t.X, EdgePadding)
	t.Y = math.Max(t.Y, EdgePadding)
	return t
}

// Transform is a scale+translate applied around the display box centre:
// CSS "transform-origin: center; transform: scale(S) translate(TX px, TY px)".
type Transform struct {
	Scale      float64 `json:"scale"`
	TranslateX float64 `json:"translateX"`
	TranslateY float64 `json:"translateY"`
}

// Identity is the untransformed state every slide change reverts to.
var Identity = Transform{Scale: 1}

// ZoomTransform centres a zoom region in the display box and scales it to fill
// the box: zoomScale = min(dW/(zw*scale), dH/(zh*scale)), translate =
// displayCenter - regionCenterInDisplaySpace.
func ZoomTransform(l Layout, zp models.ZoomPan) Transform {
	if zp.Width <= 0 || zp.Height <= 0 || l.Scale <= 0 {
		return Identity
	}
	region := l.ToDisplayRect(zp.Rect())
	dw, dh := float64(l.Display.Width), float64(l.Display.Height)

	center := region.Center()
	return Transform{
		Scale:      math.Min(dw/region.Width, dh/region.Height),
		TranslateX: dw/2 - center.X,
		TranslateY: dh/2 - center.Y,
	}
}

// Apply maps a display-space point through the transform.
func (t Transform) Apply(l Layout, p models.Point) models.Point {
	cx, cy := float64(l.Display.Width)/2, float64(l.Display.Height)/2
	return models.Point{
		X: cx + t.Scale*(p.X+t.TranslateX-cx),
		Y: cy + t.Scale*(p.Y+t.TranslateY-cy),
	}
}

// PreviewZoom is the magnification a region produces in view-only playback.
func PreviewZoom(viewport models.Size, region models.Rect) float64 {
	if region.Width <= 0 || region.Height <= 0 {
		return 1
	}
	return math.Min(float64(viewport.Width)/region.Width, float64(viewport.Height)/region.Height)
}
