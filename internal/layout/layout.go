// Package layout maps snapshot coordinates (original viewport space) onto
// the box a slide is displayed in (display space).
package layout

import (
	"errors"
	"math"

	"deckd/internal/models"
)

var ErrInvalidDimensions = errors.New("layout: dimensions must be positive")

// Layout is the result of fitting one snapshot viewport into a display area.
// Scale is the only factor any overlay may use to go between spaces.
type Layout struct {
	Scale    float64     `json:"scale"`
	Viewport models.Size `json:"viewport"`
	Display  models.Size `json:"display"`
}

// Fit computes a uniform scale preserving the viewport's aspect ratio:
// scale = min(availW/vw, availH/vh), display = round(viewport*scale).
func Fit(available, viewport models.Size) (Layout, error) {
	if available.Width <= 0 || available.Height <= 0 || viewport.Width <= 0 || viewport.Height <= 0 {
		return Layout{}, ErrInvalidDimensions
	}
	scale := math.Min(
		float64(available.Width)/float64(viewport.Width),
		float64(available.Height)/float64(viewport.Height),
	)
	return Layout{
		Scale:    scale,
		Viewport: viewport,
		Display: models.Size{
			Width:  int(math.Round(float64(viewport.Width) * scale)),
			Height: int(math.Round(float64(viewport.Height) * scale)),
		},
	}, nil
}

func (l Layout) ToDisplay(p models.Point) models.Point {
	return models.Point{X: p.X * l.Scale, Y: p.Y * l.Scale}
}

func (l Layout) ToDisplayRect(r models.Rect) models.Rect {
	return models.Rect{
		X:      r.X * l.Scale,
		Y:      r.Y * l.Scale,
		Width:  r.Width * l.Scale,
		Height: r.Height * l.Scale,
	}
}

// ToOriginalDelta converts a pointer movement measured in display pixels into
// original viewport pixels.
func (l Layout) ToOriginalDelta(dx, dy float64) (float64, float64) {
	if l.Scale == 0 {
		return 0, 0
	}
	return dx / l.Scale, dy / l.Scale
}
