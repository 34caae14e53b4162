package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"golang.org/x/sync/errgroup"

	"deckd/internal/models"
	"deckd/internal/providers"
	"deckd/internal/structures"
)

var ErrRasterizerDisabled = errors.New("playback: rasterizer is disabled")

const (
	defaultRenderTimeout = 15 * time.Second
	defaultWorkers       = 2
)

// Rasterizer renders a snapshot's isolated markup at its original viewport
// and returns it as PNG, scaled by scale.
type Rasterizer interface {
	Rasterize(ctx context.Context, snap models.ClickSnapshot, scale float64) ([]byte, error)
	Workers() int
	Close() error
}

// NewRasterizer connects to renderer.browserURL, launches a local headless
// browser when renderer.headless is set, and is a no-op otherwise.
func NewRasterizer(conf *structures.Config, logger providers.Logger) Rasterizer {
	rc := conf.Renderer
	if !rc.Headless && rc.BrowserURL == "" {
		return noopRasterizer{}
	}
	timeout := rc.Timeout
	if timeout <= 0 {
		timeout = defaultRenderTimeout
	}
	workers := rc.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &RodRasterizer{
		controlURL: rc.BrowserURL,
		timeout:    timeout,
		workers:    workers,
		logger:     logger,
	}
}

type noopRasterizer struct{}

func (noopRasterizer) Rasterize(context.Context, models.ClickSnapshot, float64) ([]byte, error) {
	return nil, ErrRasterizerDisabled
}

func (noopRasterizer) Workers() int { return 1 }

func (noopRasterizer) Close() error { return nil }

// RodRasterizer drives one Chrome instance. The browser is started on first
// use so the daemon comes up without one.
type RodRasterizer struct {
	mu         sync.Mutex
	controlURL string
	timeout    time.Duration
	workers    int
	logger     providers.Logger

	browser *rod.Browser
	lnch    *launcher.Launcher
	closed  bool
}

func (r *RodRasterizer) Workers() int { return r.workers }

func (r *RodRasterizer) connect() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrRasterizerDisabled
	}
	if r.browser != nil {
		return r.browser, nil
	}

	wsURL := r.controlURL
	if wsURL == "" {
		l := launcher.New().Headless(true)
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("playback: launch browser: %w", err)
		}
		wsURL = u
		r.lnch = l
		r.logger.Infof(providers.TypeApp, "Launched headless browser at %s", wsURL)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("playback: connect browser: %w", err)
	}
	r.browser = b
	return b, nil
}

func (r *RodRasterizer) Rasterize(ctx context.Context, snap models.ClickSnapshot, scale float64) ([]byte, error) {
	if scale <= 0 {
		scale = 1
	}
	doc, err := Isolate(snap.HTML, snap.URL)
	if err != nil {
		return nil, err
	}
	b, err := r.connect()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	page, err := b.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("playback: open page: %w", err)
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			r.logger.Debugf(providers.TypeApp, "Closing render page failed: %v", cerr)
		}
	}()

	w, h := snap.ViewportWidth, snap.ViewportHeight
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{Width: w, Height: h, DeviceScaleFactor: 1}); err != nil {
		return nil, fmt.Errorf("playback: set viewport: %w", err)
	}
	if err := page.SetDocumentContent(doc); err != nil {
		return nil, fmt.Errorf("playback: load snapshot: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		r.logger.Warnf(providers.TypeApp, "Snapshot load did not settle: %v", err)
	}
	if snap.ScrollX != 0 || snap.ScrollY != 0 {
		if _, err := page.Eval(`(x, y) => window.scrollTo(x, y)`, snap.ScrollX, snap.ScrollY); err != nil {
			return nil, fmt.Errorf("playback: restore scroll: %w", err)
		}
	}

	png, err := page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
		Clip: &proto.PageViewport{
			X:      0,
			Y:      0,
			Width:  float64(w),
			Height: float64(h),
			Scale:  scale,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("playback: screenshot: %w", err)
	}
	return png, nil
}

func (r *RodRasterizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	var err error
	if r.browser != nil {
		err = r.browser.Close()
		r.browser = nil
	}
	if r.lnch != nil {
		r.lnch.Kill()
		r.lnch = nil
	}
	return err
}

// RenderAll rasterizes every snapshot with at most r.Workers() pages open at
// once. Bookend slides have no captured markup and are left nil.
func RenderAll(ctx context.Context, r Rasterizer, snaps []models.ClickSnapshot, scale float64) ([][]byte, error) {
	out := make([][]byte, len(snaps))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.Workers())
	for i := range snaps {
		if snaps[i].Kind.IsBookend() {
			continue
		}
		g.Go(func() error {
			png, err := r.Rasterize(ctx, snaps[i], scale)
			if err != nil {
				return fmt.Errorf("slide %d: %w", i, err)
			}
			out[i] = png
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
