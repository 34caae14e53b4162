package controllers

import (
	"errors"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gookit/validate"

	"deckd/internal/editor"
	"deckd/internal/models"
	"deckd/internal/persistence"
	"deckd/internal/playback"
	"deckd/internal/providers"
	"deckd/internal/services"
	"deckd/internal/structures"
)

const maxRequestBodySize = 1 << 20 // 1 MB

var (
	ErrMissingID     = errors.New("missing recording id")
	ErrNoThumbnail   = errors.New("cover and end slides have no thumbnail")
	ErrInvalidParams = errors.New("invalid request parameters")
)

type ApiController struct {
	logger     providers.Logger
	service    services.DeckServiceInterface
	cache      providers.CacheProviderInterface
	metrics    providers.MetricsProviderInterface
	renderer   *playback.Renderer
	rasterizer playback.Rasterizer
	maxDocSize int64
	now        func() time.Time
}

func NewApiController(conf *structures.Config, logger providers.Logger, service services.DeckServiceInterface, cache providers.CacheProviderInterface, metrics providers.MetricsProviderInterface, renderer *playback.Renderer, rasterizer playback.Rasterizer) *ApiController {
	maxDoc := int64(conf.Editor.MaxDocumentSize)
	if maxDoc <= 0 {
		maxDoc = 32 << 20
	}
	return &ApiController{
		logger:     logger,
		service:    service,
		cache:      cache,
		metrics:    metrics,
		renderer:   renderer,
		rasterizer: rasterizer,
		maxDocSize: maxDoc,
		now:        time.Now,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

type loadResponse struct {
	ID     string `json:"id"`
	Slides int    `json:"slides"`
}

type stateResponse struct {
	ID string `json:"id"`
	editor.ViewState
	SaveStatus string `json:"saveStatus"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	gson, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeBytes(w, status, "application/json", gson)
}

func writeBytes(w http.ResponseWriter, status int, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrDocumentTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, services.ErrTooManySessions):
		return http.StatusServiceUnavailable
	case errors.Is(err, editor.ErrCannotDeleteLastSlide),
		errors.Is(err, editor.ErrNavigationLocked),
		errors.Is(err, editor.ErrNotEditing),
		errors.Is(err, editor.ErrClosed):
		return http.StatusConflict
	case errors.Is(err, models.ErrInvalidDocumentFormat),
		errors.Is(err, models.ErrViewportTooSmall),
		errors.Is(err, editor.ErrIndexOutOfRange),
		errors.Is(err, editor.ErrNotBookend),
		errors.Is(err, editor.ErrInvalidLink),
		errors.Is(err, ErrMissingID),
		errors.Is(err, ErrNoThumbnail),
		errors.Is(err, ErrInvalidParams):
		return http.StatusBadRequest
	case errors.Is(err, playback.ErrRasterizerDisabled):
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

func (ac *ApiController) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		ac.logger.Errorf(providers.GetLogTypeByRequestType(r.Method), "%s %s: %s", r.Method, r.URL.Path, err)
		writeJSON(w, status, errorResponse{Error: "Internal Server Error"})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (ac *ApiController) session(w http.ResponseWriter, r *http.Request) (*services.Session, bool) {
	id := r.URL.Query().Get("id")
	if id == "" {
		ac.writeError(w, r, ErrMissingID)
		return nil, false
	}
	s, err := ac.service.Session(id)
	if err != nil {
		ac.writeError(w, r, err)
		return nil, false
	}
	return s, true
}

// decodeBody reads a JSON payload and runs its validate tags.
func (ac *ApiController) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Bad Request"})
		return false
	}
	v := validate.Struct(dst)
	if !v.Validate() {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: v.Errors.One()})
		return false
	}
	return true
}

func (ac *ApiController) stateOf(s *services.Session) stateResponse {
	v := s.State.View()
	return stateResponse{
		ID:         s.ID,
		ViewState:  v,
		SaveStatus: persistence.SaveStatus(v.IsSaving, v.LastSavedAt, ac.now()),
	}
}

// LoadRecording opens a session on the ClickRecording document in the body.
func (ac *ApiController) LoadRecording(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, ac.maxDocSize)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ac.writeError(w, r, services.ErrDocumentTooLarge)
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Bad Request"})
		return
	}
	id, err := ac.service.Load(data)
	if err != nil {
		ac.writeError(w, r, err)
		return
	}
	s, err := ac.service.Session(id)
	if err != nil {
		ac.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, loadResponse{ID: id, Slides: s.State.Len()})
}

func (ac *ApiController) ListRecordings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ac.service.Sessions())
}

// ExportRecording returns the current document of a session.
func (ac *ApiController) ExportRecording(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		ac.writeError(w, r, ErrMissingID)
		return
	}
	data, err := ac.service.Export(id)
	if err != nil {
		ac.writeError(w, r, err)
		return
	}
	writeBytes(w, http.StatusOK, "application/json", data)
}

func (ac *ApiController) DeleteRecording(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		ac.writeError(w, r, ErrMissingID)
		return
	}
	if err := ac.service.Delete(r.Context(), id); err != nil {
		ac.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (ac *ApiController) GetState(w http.ResponseWriter, r *http.Request) {
	s, ok := ac.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ac.stateOf(s))
}
