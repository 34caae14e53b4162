package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	json "github.com/goccy/go-json"

	"deckd/internal/editor"
	"deckd/internal/export"
	"deckd/internal/models"
	"deckd/internal/playback"
)

const (
	defaultThumbnailScale = 0.25
	maxThumbnailScale     = 2.0
)

func displayFromQuery(q url.Values) (models.Size, error) {
	ws, hs := q.Get("w"), q.Get("h")
	if ws == "" && hs == "" {
		return models.Size{}, nil
	}
	w, errW := strconv.Atoi(ws)
	h, errH := strconv.Atoi(hs)
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return models.Size{}, fmt.Errorf("%w: w and h must be positive integers", ErrInvalidParams)
	}
	return models.Size{Width: w, Height: h}, nil
}

// Render draws the current slide of a session as an HTML page, or as the
// frame model with format=json. Idle frames are cached per document
// revision; transitions and edits are always rendered fresh.
func (ac *ApiController) Render(w http.ResponseWriter, r *http.Request) {
	s, ok := ac.session(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	display, err := displayFromQuery(q)
	if err != nil {
		ac.writeError(w, r, err)
		return
	}
	mode := playback.ParseMode(q.Get("mode"))
	asJSON := q.Get("format") == "json"
	contentType := "text/html; charset=utf-8"
	if asJSON {
		contentType = "application/json"
	}

	v := s.State.View()
	cacheable := v.State == editor.StateIdle && v.Editing == editor.EditNone
	key := fmt.Sprintf("frame:%s:%d:%d:%s:%dx%d:%.4f:%t", s.ID, v.Revision, v.Index, mode, display.Width, display.Height, v.Layout.Scale, asJSON)
	if cacheable {
		if data, ok := ac.cache.Get(key); ok {
			writeBytes(w, http.StatusOK, contentType, data)
			return
		}
	}

	snap, ok := s.State.Snapshot(v.Index)
	if !ok {
		ac.writeError(w, r, editor.ErrIndexOutOfRange)
		return
	}

	start := time.Now()
	frame, err := ac.renderer.Frame(playback.FrameRequest{View: v, Snapshot: snap, Mode: mode, Display: display})
	if err != nil {
		ac.writeError(w, r, err)
		return
	}
	var data []byte
	if asJSON {
		data, err = json.Marshal(frame)
	} else {
		var buf bytes.Buffer
		err = ac.renderer.RenderHTML(&buf, frame)
		data = buf.Bytes()
	}
	if err != nil {
		ac.writeError(w, r, err)
		return
	}
	ac.metrics.ObserveRenderDuration("frame", time.Since(start))

	if cacheable {
		ac.cache.Set(key, data)
	}
	writeBytes(w, http.StatusOK, contentType, data)
}

// Thumbnail returns slide i as PNG from the headless rasterizer.
func (ac *ApiController) Thumbnail(w http.ResponseWriter, r *http.Request) {
	s, ok := ac.session(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	i, err := strconv.Atoi(q.Get("i"))
	if err != nil {
		ac.writeError(w, r, fmt.Errorf("%w: i must be a slide index", ErrInvalidParams))
		return
	}
	scale := defaultThumbnailScale
	if raw := q.Get("scale"); raw != "" {
		scale, err = strconv.ParseFloat(raw, 64)
		if err != nil || scale <= 0 || scale > maxThumbnailScale {
			ac.writeError(w, r, fmt.Errorf("%w: scale must be in (0, %g]", ErrInvalidParams, maxThumbnailScale))
			return
		}
	}

	snap, ok := s.State.Snapshot(i)
	if !ok {
		ac.writeError(w, r, editor.ErrIndexOutOfRange)
		return
	}
	if snap.Kind.IsBookend() {
		ac.writeError(w, r, ErrNoThumbnail)
		return
	}

	key := fmt.Sprintf("thumb:%s:%d:%d:%.3f", s.ID, s.State.Revision(), i, scale)
	if data, ok := ac.cache.Get(key); ok {
		writeBytes(w, http.StatusOK, "image/png", data)
		return
	}

	start := time.Now()
	png, err := ac.rasterizer.Rasterize(r.Context(), snap, scale)
	if err != nil {
		ac.writeError(w, r, err)
		return
	}
	ac.metrics.ObserveRenderDuration("thumbnail", time.Since(start))
	ac.cache.Set(key, png)
	writeBytes(w, http.StatusOK, "image/png", png)
}

func (ac *ApiController) ExportGuide(w http.ResponseWriter, r *http.Request) {
	s, ok := ac.session(w, r)
	if !ok {
		return
	}
	md, err := export.Guide(s.State.Export())
	if err != nil {
		ac.writeError(w, r, err)
		return
	}
	writeBytes(w, http.StatusOK, "text/markdown; charset=utf-8", []byte(md))
}

func (ac *ApiController) ExportScenario(w http.ResponseWriter, r *http.Request) {
	s, ok := ac.session(w, r)
	if !ok {
		return
	}
	scenario, err := export.BuildScenario(s.State.Export())
	if err != nil {
		ac.writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteScenario(&buf, scenario); err != nil {
		ac.writeError(w, r, err)
		return
	}
	writeBytes(w, http.StatusOK, "application/yaml", buf.Bytes())
}
