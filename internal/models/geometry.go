package models

import "math"

// Size is a pixel extent.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// ZoomPan rounds the rectangle to integer pixels as an enabled region.
func (r Rect) ZoomPan() ZoomPan {
	return ZoomPan{
		Enabled: true,
		X:       int(math.Round(r.X)),
		Y:       int(math.Round(r.Y)),
		Width:   int(math.Round(r.Width)),
		Height:  int(math.Round(r.Height)),
	}
}

// Clamp returns v limited to [lo, hi]. When hi < lo, lo wins.
func Clamp(v, lo, hi float64) float64 {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}

// ClampRect keeps r fully inside a viewport: sizes are floored at MinZoomSize
// and capped at the viewport, then the origin is pulled back inside.
func ClampRect(r Rect, viewport Size) Rect {
	vw, vh := float64(viewport.Width), float64(viewport.Height)
	r.Width = Clamp(r.Width, MinZoomSize, vw)
	r.Height = Clamp(r.Height, MinZoomSize, vh)
	r.X = Clamp(r.X, 0, vw-r.Width)
	r.Y = Clamp(r.Y, 0, vh-r.Height)
	return r
}
