package layout

// Lerp interpolates linearly between a and b.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// EaseInOutCubic is the curve used for zoom-in and zoom-out animation.
func EaseInOutCubic(t float64) float64 {
	switch {
	case t <= 0:
		return 0
	case t >= 1:
		return 1
	case t < 0.5:
		return 4 * t * t * t
	}
	u := -2*t + 2
	return 1 - u*u*u/2
}

// Interpolate returns the transform at progress t in [0,1] between two states.
func Interpolate(from, to Transform, t float64) Transform {
	e := EaseInOutCubic(t)
	return Transform{
		Scale:      Lerp(from.Scale, to.Scale, e),
		TranslateX: Lerp(from.TranslateX, to.TranslateX, e),
		TranslateY: Lerp(from.TranslateY, to.TranslateY, e),
	}
}
