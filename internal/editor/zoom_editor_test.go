package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deckd/internal/layout"
	"deckd/internal/models"
)

func halfScale(vp models.Size) layout.Layout {
	return layout.Layout{Scale: 0.5, Viewport: vp, Display: models.Size{Width: vp.Width / 2, Height: vp.Height / 2}}
}

func TestDefaultZoomRegion_CentredOnClick(t *testing.T) {
	r := DefaultZoomRegion(clickSnapshot(1, 800, 450))
	assert.Equal(t, models.Rect{X: 320, Y: 180, Width: 960, Height: 540}, r)
}

func TestDefaultZoomRegion_ClampedNearEdge(t *testing.T) {
	r := DefaultZoomRegion(clickSnapshot(1, 1900, 20))
	assert.Equal(t, models.Rect{X: 960, Y: 0, Width: 960, Height: 540}, r)
}

func TestDefaultZoomRegion_ViewportCentreWithoutClick(t *testing.T) {
	r := DefaultZoomRegion(startSnapshot(1))
	assert.Equal(t, models.Rect{X: 480, Y: 270, Width: 960, Height: 540}, r)
}

func TestNewZoomEditor_SeedsFromStoredRegion(t *testing.T) {
	snap := clickSnapshot(1, 800, 450)
	snap.Annotation = &models.Annotation{ZoomPan: &models.ZoomPan{Enabled: true, X: 10, Y: 20, Width: 300, Height: 200}}
	z, err := NewZoomEditor(1, snap, halfScale(snap.Viewport()))
	require.NoError(t, err)
	assert.Equal(t, models.Rect{X: 10, Y: 20, Width: 300, Height: 200}, z.Rect())
	assert.Equal(t, 1, z.Index())
}

func TestNewZoomEditor_IgnoresDisabledRegion(t *testing.T) {
	snap := clickSnapshot(1, 800, 450)
	snap.Annotation = &models.Annotation{ZoomPan: &models.ZoomPan{Enabled: false, X: 10, Y: 20, Width: 300, Height: 200}}
	z, err := NewZoomEditor(1, snap, halfScale(snap.Viewport()))
	require.NoError(t, err)
	assert.Equal(t, DefaultZoomRegion(snap), z.Rect())
}

func TestNewZoomEditor_ViewportTooSmall(t *testing.T) {
	snap := models.ClickSnapshot{Kind: models.KindStart, ViewportWidth: 1920, ViewportHeight: 80}
	_, err := NewZoomEditor(0, snap, halfScale(snap.Viewport()))
	assert.ErrorIs(t, err, models.ErrViewportTooSmall)
}

func TestZoomEditor_DragConvertsDisplayDelta(t *testing.T) {
	snap := clickSnapshot(1, 800, 450)
	z, err := NewZoomEditor(1, snap, halfScale(snap.Viewport()))
	require.NoError(t, err)

	r := z.Drag(50, 25)
	assert.Equal(t, models.Rect{X: 420, Y: 230, Width: 960, Height: 540}, r)
}

func TestZoomEditor_SetLayoutChangesDeltaScale(t *testing.T) {
	snap := clickSnapshot(1, 800, 450)
	z, err := NewZoomEditor(1, snap, halfScale(snap.Viewport()))
	require.NoError(t, err)

	full, err := layout.Fit(snap.Viewport(), snap.Viewport())
	require.NoError(t, err)
	z.SetLayout(full)
	z.SetLayout(layout.Layout{})

	r := z.Drag(50, 25)
	assert.Equal(t, models.Rect{X: 370, Y: 205, Width: 960, Height: 540}, r)
}

func TestZoomEditor_DragClampsAtEdge(t *testing.T) {
	snap := clickSnapshot(1, 800, 450)
	z, err := NewZoomEditor(1, snap, halfScale(snap.Viewport()))
	require.NoError(t, err)

	// 185 display px at scale 0.5 is 370 original px, 50 past the left edge.
	r := z.Drag(-185, 0)
	assert.Equal(t, 0.0, r.X)
	assert.Equal(t, 960.0, r.Width)
	assert.Equal(t, 180.0, r.Y)

	r = z.Drag(10000, 10000)
	assert.Equal(t, models.Rect{X: 960, Y: 540, Width: 960, Height: 540}, r)
}

func TestZoomEditor_ResizeRespectsMinimumAndViewport(t *testing.T) {
	snap := clickSnapshot(1, 800, 450)
	z, err := NewZoomEditor(1, snap, halfScale(snap.Viewport()))
	require.NoError(t, err)

	r := z.Resize(-10000, -10000)
	assert.Equal(t, float64(models.MinZoomSize), r.Width)
	assert.Equal(t, float64(models.MinZoomSize), r.Height)

	r = z.Resize(10000, 10000)
	assert.Equal(t, 1920.0-320, r.Width)
	assert.Equal(t, 1080.0-180, r.Height)
}

func TestZoomEditor_ResultIsRoundedAndEnabled(t *testing.T) {
	snap := clickSnapshot(1, 800, 450)
	z, err := NewZoomEditor(1, snap, halfScale(snap.Viewport()))
	require.NoError(t, err)
	z.Drag(0.3, 0.7)

	zp := z.Result()
	assert.True(t, zp.Enabled)
	assert.Equal(t, models.ZoomPan{Enabled: true, X: 321, Y: 181, Width: 960, Height: 540}, zp)
	assert.LessOrEqual(t, zp.X+zp.Width, 1920)
	assert.LessOrEqual(t, zp.Y+zp.Height, 1080)
}

func TestZoomEditor_Preview(t *testing.T) {
	snap := clickSnapshot(1, 800, 450)
	z, err := NewZoomEditor(1, snap, halfScale(snap.Viewport()))
	require.NoError(t, err)
	assert.InDelta(t, 2.0, z.Preview(), 1e-9)
}
