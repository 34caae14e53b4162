package playback

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deckd/internal/models"
	"deckd/internal/structures"
	"deckd/internal/testutil"
)

type fakeRasterizer struct {
	workers int
	fail    int

	mu      sync.Mutex
	scales  []float64
	active  atomic.Int32
	maxSeen atomic.Int32
}

func (f *fakeRasterizer) Rasterize(_ context.Context, snap models.ClickSnapshot, scale float64) ([]byte, error) {
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		m := f.maxSeen.Load()
		if n <= m || f.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	f.mu.Lock()
	f.scales = append(f.scales, scale)
	f.mu.Unlock()
	if f.fail > 0 && int(snap.Timestamp) == f.fail {
		return nil, errors.New("boom")
	}
	return []byte(snap.URL), nil
}

func (f *fakeRasterizer) Workers() int { return f.workers }

func (f *fakeRasterizer) Close() error { return nil }

func snapshots() []models.ClickSnapshot {
	return []models.ClickSnapshot{
		{Kind: models.KindStart, Timestamp: 1, URL: "a", ViewportWidth: 100, ViewportHeight: 100},
		{Kind: models.KindClick, Timestamp: 2, URL: "b", ViewportWidth: 100, ViewportHeight: 100},
		{Kind: models.KindEnd, Timestamp: 3, ViewportWidth: 100, ViewportHeight: 100},
		{Kind: models.KindClick, Timestamp: 4, URL: "d", ViewportWidth: 100, ViewportHeight: 100},
	}
}

func TestNewRasterizer_DisabledIsNoop(t *testing.T) {
	r := NewRasterizer(&structures.Config{}, &testutil.MockLogger{})
	_, err := r.Rasterize(context.Background(), snapshots()[0], 1)
	assert.ErrorIs(t, err, ErrRasterizerDisabled)
	assert.NoError(t, r.Close())
}

func TestNewRasterizer_Defaults(t *testing.T) {
	r := NewRasterizer(&structures.Config{Renderer: structures.RendererConfig{BrowserURL: "ws://127.0.0.1:9222"}}, &testutil.MockLogger{})
	rod, ok := r.(*RodRasterizer)
	require.True(t, ok)
	assert.Equal(t, defaultWorkers, rod.Workers())
	assert.Equal(t, defaultRenderTimeout, rod.timeout)
	assert.NoError(t, r.Close())
}

func TestRodRasterizer_ClosedRefusesWork(t *testing.T) {
	r := NewRasterizer(&structures.Config{Renderer: structures.RendererConfig{BrowserURL: "ws://127.0.0.1:9222"}}, &testutil.MockLogger{})
	require.NoError(t, r.Close())
	_, err := r.Rasterize(context.Background(), snapshots()[0], 1)
	assert.ErrorIs(t, err, ErrRasterizerDisabled)
}

func TestRenderAll_SkipsBookendsAndKeepsOrder(t *testing.T) {
	f := &fakeRasterizer{workers: 2}
	out, err := RenderAll(context.Background(), f, snapshots(), 0.25)
	require.NoError(t, err)
	require.Len(t, out, 4)
	assert.Equal(t, []byte("a"), out[0])
	assert.Equal(t, []byte("b"), out[1])
	assert.Nil(t, out[2])
	assert.Equal(t, []byte("d"), out[3])
	assert.LessOrEqual(t, f.maxSeen.Load(), int32(2))
	assert.ElementsMatch(t, []float64{0.25, 0.25, 0.25}, f.scales)
}

func TestRenderAll_PropagatesError(t *testing.T) {
	f := &fakeRasterizer{workers: 1, fail: 2}
	_, err := RenderAll(context.Background(), f, snapshots(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slide 1")
}
