package controllers

import (
	"fmt"
	"net/http"

	"deckd/internal/editor"
	"deckd/internal/models"
)

type navigateRequest struct {
	Index *int   `json:"index"`
	Key   string `json:"key"`
	Ctrl  bool   `json:"ctrl"`
	Meta  bool   `json:"meta"`
}

type navigateResponse struct {
	Accepted bool          `json:"accepted"`
	State    stateResponse `json:"state"`
}

type annotationRequest struct {
	Index  int    `json:"index" validate:"min:0"`
	Label  string `json:"label" validate:"maxLen:200"`
	Script string `json:"script"`
}

type annotationEditRequest struct {
	Action string `json:"action" validate:"required|in:start,draft,save,discard"`
	Label  string `json:"label" validate:"maxLen:200"`
	Script string `json:"script"`
}

type zoomRequest struct {
	Action string  `json:"action" validate:"required|in:open,drag,resize,confirm,cancel"`
	DX     float64 `json:"dx"`
	DY     float64 `json:"dy"`
}

type zoomPanRequest struct {
	Index   int            `json:"index" validate:"min:0"`
	ZoomPan models.ZoomPan `json:"zoomPan"`
}

type bookendRequest struct {
	Index int `json:"index" validate:"min:0"`
	editor.BookendPatch
}

type slideRequest struct {
	Index int `json:"index" validate:"min:0"`
}

type displayRequest struct {
	Width  int `json:"width" validate:"required|min:1"`
	Height int `json:"height" validate:"required|min:1"`
}

// Navigate moves to {index} or applies a keyboard binding {key}. A refused
// move while the session is transitioning or editing is a conflict; an index
// outside the deck is a no-op answered with accepted=false.
func (ac *ApiController) Navigate(w http.ResponseWriter, r *http.Request) {
	s, ok := ac.session(w, r)
	if !ok {
		return
	}
	var req navigateRequest
	if !ac.decodeBody(w, r, &req) {
		return
	}

	var accepted bool
	switch {
	case req.Key != "":
		key, ok := editor.ParseKey(req.Key, req.Ctrl, req.Meta)
		if !ok {
			ac.writeError(w, r, fmt.Errorf("%w: unbound key %q", ErrInvalidParams, req.Key))
			return
		}
		accepted = s.State.HandleKey(key)
	case req.Index != nil:
		accepted = s.State.GoToSlide(*req.Index)
	default:
		ac.writeError(w, r, fmt.Errorf("%w: index or key is required", ErrInvalidParams))
		return
	}

	if !accepted && s.State.Closed() {
		ac.writeError(w, r, editor.ErrClosed)
		return
	}
	state := ac.stateOf(s)
	if !accepted && req.Key == "" && state.State != editor.StateIdle {
		ac.writeError(w, r, editor.ErrNavigationLocked)
		return
	}
	writeJSON(w, http.StatusOK, navigateResponse{Accepted: accepted, State: state})
}

// UpdateAnnotation writes label and script of a slide directly.
func (ac *ApiController) UpdateAnnotation(w http.ResponseWriter, r *http.Request) {
	s, ok := ac.session(w, r)
	if !ok {
		return
	}
	var req annotationRequest
	if !ac.decodeBody(w, r, &req) {
		return
	}
	a, err := s.State.Update(req.Index, editor.AnnotationPatch{Label: req.Label, Script: req.Script})
	if err != nil {
		ac.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// EditAnnotation drives the tooltip draft of the current slide.
func (ac *ApiController) EditAnnotation(w http.ResponseWriter, r *http.Request) {
	s, ok := ac.session(w, r)
	if !ok {
		return
	}
	var req annotationEditRequest
	if !ac.decodeBody(w, r, &req) {
		return
	}

	var err error
	switch req.Action {
	case "start":
		_, err = s.State.StartEditingAnnotation()
	case "draft":
		err = s.State.UpdateDraft(editor.AnnotationPatch{Label: req.Label, Script: req.Script})
	case "save":
		_, err = s.State.SaveAnnotation()
	case "discard":
		err = s.State.DiscardAnnotation()
	}
	if err != nil {
		ac.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ac.stateOf(s))
}

// Zoom drives the zoom region editor. dx and dy are display pixels.
func (ac *ApiController) Zoom(w http.ResponseWriter, r *http.Request) {
	s, ok := ac.session(w, r)
	if !ok {
		return
	}
	var req zoomRequest
	if !ac.decodeBody(w, r, &req) {
		return
	}

	var err error
	switch req.Action {
	case "open":
		_, err = s.State.OpenZoomEditor()
	case "drag":
		_, err = s.State.DragZoom(req.DX, req.DY)
	case "resize":
		_, err = s.State.ResizeZoom(req.DX, req.DY)
	case "confirm":
		_, err = s.State.ConfirmZoom()
	case "cancel":
		err = s.State.CancelZoom()
	}
	if err != nil {
		ac.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ac.stateOf(s))
}

func (ac *ApiController) UpdateZoomPan(w http.ResponseWriter, r *http.Request) {
	s, ok := ac.session(w, r)
	if !ok {
		return
	}
	var req zoomPanRequest
	if !ac.decodeBody(w, r, &req) {
		return
	}
	zp, err := s.State.UpdateZoomPan(req.Index, req.ZoomPan)
	if err != nil {
		ac.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, zp)
}

func (ac *ApiController) UpdateBookend(w http.ResponseWriter, r *http.Request) {
	s, ok := ac.session(w, r)
	if !ok {
		return
	}
	var req bookendRequest
	if !ac.decodeBody(w, r, &req) {
		return
	}
	snap, err := s.State.UpdateBookend(req.Index, req.BookendPatch)
	if err != nil {
		ac.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (ac *ApiController) DeleteSlide(w http.ResponseWriter, r *http.Request) {
	s, ok := ac.session(w, r)
	if !ok {
		return
	}
	var req slideRequest
	if !ac.decodeBody(w, r, &req) {
		return
	}
	if err := s.State.DeleteSlide(req.Index); err != nil {
		ac.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ac.stateOf(s))
}

// SetDisplay reports a new display area. Layout follows after the resize
// debounce.
func (ac *ApiController) SetDisplay(w http.ResponseWriter, r *http.Request) {
	s, ok := ac.session(w, r)
	if !ok {
		return
	}
	var req displayRequest
	if !ac.decodeBody(w, r, &req) {
		return
	}
	s.State.Resize(models.Size{Width: req.Width, Height: req.Height})
	w.WriteHeader(http.StatusAccepted)
}
